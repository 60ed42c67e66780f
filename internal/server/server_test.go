package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"expensetracker/internal/config"
	"expensetracker/internal/logger"
	"expensetracker/internal/testutil"
	"expensetracker/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

type client struct {
	t      *testing.T
	router *gin.Engine
	token  string
}

func (c *client) do(method, path, body string) (int, map[string]interface{}) {
	c.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)

	var result map[string]interface{}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			c.t.Fatalf("%s %s: invalid JSON %q", method, path, rec.Body.String())
		}
	}
	return rec.Code, result
}

func setupServer(t *testing.T) *client {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	cfg := &config.Config{
		CollaboratorTimeout: 5 * time.Second,
		DefaultCurrency:     "USD",
		SummaryLimit:        3,
	}
	return &client{t: t, router: NewRouter(NewServices(db, cfg))}
}

func balance(t *testing.T, dashboard map[string]interface{}) map[string]interface{} {
	t.Helper()
	b, ok := dashboard["balance"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected balance in %v", dashboard)
	}
	return b
}

func TestHealth(t *testing.T) {
	c := setupServer(t)
	code, body := c.do(http.MethodGet, "/api/health", "")
	if code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("unexpected health response %d %v", code, body)
	}
}

func TestCORSPreflight(t *testing.T) {
	c := setupServer(t)
	code, _ := c.do(http.MethodOptions, "/api/v1/transactions", "")
	if code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", code)
	}
}

func TestAnonymousSession(t *testing.T) {
	c := setupServer(t)

	code, dashboard := c.do(http.MethodGet, "/api/v1/dashboard", "")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if dashboard["authenticated"] != false {
		t.Error("expected anonymous dashboard")
	}
	if dashboard["empty_message"] != "No transactions yet" {
		t.Errorf("unexpected empty message %v", dashboard["empty_message"])
	}
	if balance(t, dashboard)["net_display"] != "$0.00" {
		t.Errorf("unexpected net %v", balance(t, dashboard)["net_display"])
	}

	code, body := c.do(http.MethodPost, "/api/v1/transactions", `{"description":"Coffee","amount":3,"type":"expense"}`)
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
	errObj := body["error"].(map[string]interface{})
	if errObj["code"] != "NOT_AUTHENTICATED" || errObj["redirect"] != "/login" {
		t.Errorf("unexpected error %v", errObj)
	}

	code, _ = c.do(http.MethodPut, "/api/v1/preferences", `{"theme":"dark"}`)
	if code != http.StatusUnauthorized {
		t.Errorf("expected 401 for anonymous preference update, got %d", code)
	}
}

func TestLedgerLifecycle(t *testing.T) {
	c := setupServer(t)

	code, body := c.do(http.MethodPost, "/api/v1/auth/register", `{"email":"ana@example.com","password":"password123","display_name":"Ana"}`)
	if code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d %v", code, body)
	}
	c.token = body["token"].(string)

	code, dashboard := c.do(http.MethodGet, "/api/v1/dashboard", "")
	if code != http.StatusOK || dashboard["authenticated"] != true {
		t.Fatalf("expected authenticated dashboard, got %d %v", code, dashboard)
	}

	code, body = c.do(http.MethodPost, "/api/v1/transactions", `{"description":"Salary","amount":100,"type":"income","date":"2024-03-01"}`)
	if code != http.StatusCreated {
		t.Fatalf("create income: expected 201, got %d %v", code, body)
	}
	code, body = c.do(http.MethodPost, "/api/v1/transactions", `{"description":"Lunch","amount":"12.50","type":"expense","date":"2024-03-02"}`)
	if code != http.StatusCreated {
		t.Fatalf("create expense: expected 201, got %d %v", code, body)
	}
	lunchID := body["transaction"].(map[string]interface{})["id"].(string)

	t.Run("validation", func(t *testing.T) {
		code, body := c.do(http.MethodPost, "/api/v1/transactions", `{"description":"","amount":"abc","type":"gift"}`)
		if code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", code)
		}
		fields := body["error"].(map[string]interface{})["fields"].(map[string]interface{})
		if fields["amount"] != "Please add a valid amount" {
			t.Errorf("unexpected amount message %v", fields["amount"])
		}
		if fields["description"] != "Please add a description" {
			t.Errorf("unexpected description message %v", fields["description"])
		}
	})

	_, dashboard = c.do(http.MethodGet, "/api/v1/dashboard", "")
	b := balance(t, dashboard)
	if b["net_display"] != "$87.50" || b["expense_display"] != "-$12.50" {
		t.Errorf("unexpected balance %v", b)
	}
	if recent := dashboard["recent"].([]interface{}); len(recent) != 2 {
		t.Errorf("expected 2 recent items, got %d", len(recent))
	}

	_, history := c.do(http.MethodGet, "/api/v1/transactions?filter=expense", "")
	items := history["items"].([]interface{})
	if len(items) != 1 || items[0].(map[string]interface{})["amount_display"] != "-$12.50" {
		t.Errorf("unexpected expense history %v", items)
	}
	// The filter sticks until changed.
	_, history = c.do(http.MethodGet, "/api/v1/transactions", "")
	if history["filter"] != "expense" {
		t.Errorf("expected remembered filter, got %v", history["filter"])
	}

	code, prefs := c.do(http.MethodPut, "/api/v1/preferences", `{"currency":"EUR"}`)
	if code != http.StatusOK || prefs["currency_symbol"] != "€" {
		t.Fatalf("unexpected preference update %d %v", code, prefs)
	}
	_, dashboard = c.do(http.MethodGet, "/api/v1/dashboard", "")
	if balance(t, dashboard)["net_display"] != "€87.50" {
		t.Errorf("expected EUR net, got %v", balance(t, dashboard)["net_display"])
	}

	code, _ = c.do(http.MethodDelete, "/api/v1/transactions/"+lunchID, "")
	if code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", code)
	}
	_, dashboard = c.do(http.MethodGet, "/api/v1/dashboard", "")
	if balance(t, dashboard)["net_display"] != "€100.00" {
		t.Errorf("expected €100.00 after delete, got %v", balance(t, dashboard)["net_display"])
	}

	code, _ = c.do(http.MethodPost, "/api/v1/auth/logout", "")
	if code != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", code)
	}

	// The old token no longer resumes a session.
	_, dashboard = c.do(http.MethodGet, "/api/v1/dashboard", "")
	if dashboard["authenticated"] != false {
		t.Error("expected anonymous dashboard after logout")
	}
	if code, _ := c.do(http.MethodGet, "/api/v1/profile", ""); code != http.StatusUnauthorized {
		t.Errorf("expected 401 for profile after logout, got %d", code)
	}

	c.token = ""
	code, body = c.do(http.MethodPost, "/api/v1/auth/login", `{"email":"ana@example.com","password":"password123"}`)
	if code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d %v", code, body)
	}
	c.token = body["token"].(string)

	// Records and preferences come back from the store.
	_, dashboard = c.do(http.MethodGet, "/api/v1/dashboard", "")
	if dashboard["currency"] != "EUR" || balance(t, dashboard)["net_display"] != "€100.00" {
		t.Errorf("unexpected restored dashboard %v", dashboard)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	ana := setupServer(t)
	bob := &client{t: t, router: ana.router}

	_, body := ana.do(http.MethodPost, "/api/v1/auth/register", `{"email":"ana@example.com","password":"password123"}`)
	ana.token = body["token"].(string)
	_, body = bob.do(http.MethodPost, "/api/v1/auth/register", `{"email":"bob@example.com","password":"password123"}`)
	bob.token = body["token"].(string)

	if code, _ := ana.do(http.MethodPost, "/api/v1/transactions", `{"description":"Rent","amount":500,"type":"expense"}`); code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}

	_, dashboard := bob.do(http.MethodGet, "/api/v1/dashboard", "")
	if dashboard["authenticated"] != true {
		t.Fatal("expected bob to be signed in")
	}
	if len(dashboard["recent"].([]interface{})) != 0 {
		t.Error("expected bob to see none of ana's transactions")
	}
}
