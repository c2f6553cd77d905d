package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestAccountFlow_TotalsTrackTransactions(t *testing.T) {
	app := setupApp(t)

	// Step 1: Create an account.
	accountID := app.createAccount(t, "Dana", "USD")

	// Step 2: Record a debt of 100 and a credit of 40.
	app.createTransaction(t, accountID, "debt", 100, "Dana")
	creditID := app.createTransaction(t, accountID, "credit", 40, "Dana")

	// Step 3: Verify cached totals.
	rec := app.request("GET", "/api/v1/accounts/"+accountID, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get account failed: %d %s", rec.Code, rec.Body.String())
	}
	account := parseJSON(t, rec)["account"].(map[string]interface{})
	if account["total_owed"].(float64) != 100 {
		t.Errorf("expected total_owed 100, got %v", account["total_owed"])
	}
	if account["total_owed_to_me"].(float64) != 40 {
		t.Errorf("expected total_owed_to_me 40, got %v", account["total_owed_to_me"])
	}

	// Step 4: Delete the credit; the cache follows.
	rec = app.request("DELETE", "/api/v1/transactions/"+creditID, "", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete transaction failed: %d", rec.Code)
	}
	rec = app.request("GET", "/api/v1/accounts/"+accountID, "", "")
	account = parseJSON(t, rec)["account"].(map[string]interface{})
	if account["total_owed_to_me"].(float64) != 0 {
		t.Errorf("expected total_owed_to_me 0 after delete, got %v", account["total_owed_to_me"])
	}

	// Step 5: Deleting the account cascades to its transactions.
	rec = app.request("DELETE", "/api/v1/accounts/"+accountID, "", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete account failed: %d", rec.Code)
	}
	rec = app.request("GET", "/api/v1/transactions", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list transactions failed: %d", rec.Code)
	}
	if total := parseJSON(t, rec)["total_items"].(float64); total != 0 {
		t.Errorf("expected 0 transactions after cascade, got %v", total)
	}
}

func TestAccountFlow_TransactionInheritsAccountCurrency(t *testing.T) {
	app := setupApp(t)

	// Create a custom currency and an account that uses it.
	rec := app.request("POST", "/api/v1/currencies",
		`{"code":"BTC","name":"Bitcoin","symbol":"B","rate":0.000015}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create currency failed: %d %s", rec.Code, rec.Body.String())
	}
	accountID := app.createAccount(t, "Eve", "BTC")
	txID := app.createTransaction(t, accountID, "debt", 0.5, "Eve")

	rec = app.request("GET", "/api/v1/transactions/"+txID, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get transaction failed: %d", rec.Code)
	}
	transaction := parseJSON(t, rec)["transaction"].(map[string]interface{})
	currency := transaction["currency"].(map[string]interface{})
	if currency["code"] != "BTC" {
		t.Errorf("expected transaction currency BTC, got %v", currency["code"])
	}
}

func TestAccountFlow_ListFilters(t *testing.T) {
	app := setupApp(t)

	first := app.createAccount(t, "Frank", "USD")
	second := app.createAccount(t, "Grace", "USD")
	app.createTransaction(t, first, "debt", 10, "Frank")
	app.createTransaction(t, first, "credit", 20, "Frank")
	app.createTransaction(t, second, "debt", 30, "Grace")

	rec := app.request("GET", fmt.Sprintf("/api/v1/transactions?account_id=%s", first), "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("filtered list failed: %d", rec.Code)
	}
	if total := parseJSON(t, rec)["total_items"].(float64); total != 2 {
		t.Errorf("expected 2 transactions for account, got %v", total)
	}

	rec = app.request("GET", "/api/v1/transactions?type=debt", "", "")
	if total := parseJSON(t, rec)["total_items"].(float64); total != 2 {
		t.Errorf("expected 2 debt transactions, got %v", total)
	}
}
