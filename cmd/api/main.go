package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"debtbook/internal/backup"
	"debtbook/internal/config"
	"debtbook/internal/database"
	"debtbook/internal/handlers"
	"debtbook/internal/logger"
	"debtbook/internal/middleware"
	"debtbook/internal/rates"
	"debtbook/internal/services"
	"debtbook/internal/store"
	"debtbook/internal/validator"
)

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(appConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Initialize services
	st := store.NewGorm(dbManager.DB())
	matchPolicy := backup.MatchPolicy{
		AmountTolerance: appConfig.MatchAmountTolerance,
		DateWindow:      appConfig.MatchDateWindow,
	}

	accountService := services.NewAccountService(st)
	transactionService := services.NewTransactionService(st, accountService)
	currencyService := services.NewCurrencyService(st)
	settingsService := services.NewSettingsService(st)
	lockService := services.NewLockService(st, settingsService)
	backupService := services.NewBackupService(st, matchPolicy)

	// Seed built-in currencies on first run
	if err := currencyService.EnsureSeeded(context.Background()); err != nil {
		return fmt.Errorf("failed to seed currencies: %w", err)
	}

	// Exchange rate updater with optional cron schedule
	rateUpdater := rates.NewUpdater(st, rates.NewHTTPProvider(http.DefaultClient, appConfig.RatesBaseURL))
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(appConfig.RatesUpdateSchedule, func() {
		ctx := context.Background()
		settings, err := settingsService.GetSettings(ctx)
		if err != nil {
			log.Errorw("rate update skipped: failed to load settings", "error", err)
			return
		}
		if !settings.AutoUpdateRates {
			return
		}
		if _, err := rateUpdater.Update(ctx); err != nil {
			log.Errorw("scheduled rate update failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid rates update schedule %q: %w", appConfig.RatesUpdateSchedule, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize handlers
	accountHandler := handlers.NewAccountHandler(accountService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	currencyHandler := handlers.NewCurrencyHandler(currencyService, rateUpdater)
	settingsHandler := handlers.NewSettingsHandler(settingsService)
	lockHandler := handlers.NewLockHandler(lockService)
	backupHandler := handlers.NewBackupHandler(backupService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes: lock status and unlock
	lock := v1.Group("/lock")
	lock.GET("/status", lockHandler.GetLockStatus)
	lock.POST("/verify", lockHandler.VerifyPIN)

	// Protected routes (open when no PIN is configured)
	protected := v1.Group("/")
	protected.Use(middleware.RequireUnlock(lockService))

	protected.POST("/lock/pin", lockHandler.SetPIN)
	protected.DELETE("/lock/pin", lockHandler.DisableLock)

	// Account routes
	accounts := protected.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.GetAccounts)
	accounts.GET("/:id", accountHandler.GetAccount)
	accounts.PATCH("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)

	// Transaction routes
	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PATCH("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	// Currency routes
	currencies := protected.Group("/currencies")
	currencies.GET("", currencyHandler.GetCurrencies)
	currencies.POST("", currencyHandler.CreateCurrency)
	currencies.PATCH("/:id", currencyHandler.UpdateCurrency)
	currencies.DELETE("/:id", currencyHandler.DeleteCurrency)
	currencies.POST("/refresh-rates", currencyHandler.RefreshRates)

	// Settings routes
	settings := protected.Group("/settings")
	settings.GET("", settingsHandler.GetSettings)
	settings.PATCH("", settingsHandler.UpdateSettings)

	// Backup routes
	backups := protected.Group("/backup")
	backups.GET("/export", backupHandler.ExportBackup)
	backups.POST("/validate", backupHandler.ValidateBackup)
	backups.POST("/import", backupHandler.ImportBackup)
	backups.POST("/import-spreadsheet", backupHandler.ImportSpreadsheet)
	backups.GET("/stats", backupHandler.GetStats)

	log.Infof("Starting debtbook backend server on port %s", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
