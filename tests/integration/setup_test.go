package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"debtbook/internal/backup"
	"debtbook/internal/handlers"
	"debtbook/internal/logger"
	"debtbook/internal/middleware"
	"debtbook/internal/models"
	"debtbook/internal/services"
	"debtbook/internal/store"
	"debtbook/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Store  store.Store
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:integrationdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.Currency{},
		&models.Account{},
		&models.Transaction{},
		&models.AppSettings{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)
	st := store.NewGorm(db)

	// Services
	accountService := services.NewAccountService(st)
	transactionService := services.NewTransactionService(st, accountService)
	currencyService := services.NewCurrencyService(st)
	settingsService := services.NewSettingsService(st)
	lockService := services.NewLockService(st, settingsService)
	backupService := services.NewBackupService(st, backup.DefaultMatchPolicy())

	if err := currencyService.EnsureSeeded(context.Background()); err != nil {
		t.Fatalf("failed to seed currencies: %v", err)
	}

	// Handlers
	accountHandler := handlers.NewAccountHandler(accountService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	currencyHandler := handlers.NewCurrencyHandler(currencyService, nil)
	settingsHandler := handlers.NewSettingsHandler(settingsService)
	lockHandler := handlers.NewLockHandler(lockService)
	backupHandler := handlers.NewBackupHandler(backupService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	lock := v1.Group("/lock")
	lock.GET("/status", lockHandler.GetLockStatus)
	lock.POST("/verify", lockHandler.VerifyPIN)

	protected := v1.Group("/")
	protected.Use(middleware.RequireUnlock(lockService))

	protected.POST("/lock/pin", lockHandler.SetPIN)
	protected.DELETE("/lock/pin", lockHandler.DisableLock)

	accounts := protected.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.GetAccounts)
	accounts.GET("/:id", accountHandler.GetAccount)
	accounts.PATCH("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PATCH("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	currencies := protected.Group("/currencies")
	currencies.GET("", currencyHandler.GetCurrencies)
	currencies.POST("", currencyHandler.CreateCurrency)
	currencies.PATCH("/:id", currencyHandler.UpdateCurrency)
	currencies.DELETE("/:id", currencyHandler.DeleteCurrency)

	settings := protected.Group("/settings")
	settings.GET("", settingsHandler.GetSettings)
	settings.PATCH("", settingsHandler.UpdateSettings)

	backups := protected.Group("/backup")
	backups.GET("/export", backupHandler.ExportBackup)
	backups.POST("/validate", backupHandler.ValidateBackup)
	backups.POST("/import", backupHandler.ImportBackup)
	backups.POST("/import-spreadsheet", backupHandler.ImportSpreadsheet)
	backups.GET("/stats", backupHandler.GetStats)

	return &testApp{DB: db, Store: st, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// createAccount creates an account over the API and returns its ID.
func (app *testApp) createAccount(t *testing.T, name, currencyCode string) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"currency_code":%q}`, name, currencyCode)
	rec := app.request("POST", "/api/v1/accounts", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create account failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	account := result["account"].(map[string]interface{})
	return account["id"].(string)
}

// createTransaction records a transaction over the API and returns its ID.
func (app *testApp) createTransaction(t *testing.T, accountID, txType string, amount float64, name string) string {
	t.Helper()
	body := fmt.Sprintf(`{"account_id":%q,"type":%q,"amount":%v,"name":%q}`, accountID, txType, amount, name)
	rec := app.request("POST", "/api/v1/transactions", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create transaction failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	transaction := result["transaction"].(map[string]interface{})
	return transaction["id"].(string)
}
