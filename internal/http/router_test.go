package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-crm-backend/internal/config"
	"github.com/tbourn/go-crm-backend/internal/http/middleware"
	"github.com/tbourn/go-crm-backend/internal/repo"
)

func testConfig() config.Config {
	return config.Config{
		GinMode:     gin.TestMode,
		AppEnv:      "test",
		APIBasePath: "/api",
		BcryptCost:  4,
		JWT: config.JWTConfig{
			Secret: "router-test-secret",
			TTL:    time.Hour,
		},
		RateRPS:        1000,
		RateBurst:      1000,
		IdempotencyTTL: time.Hour,
	}
}

func newTestServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "crm.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		t.Cleanup(func() { _ = sqlDB.Close() })
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	r := gin.New()
	RegisterRoutes(r, db, testConfig())
	return r, db
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// registerUser creates an account and returns its bearer token.
func registerUser(t *testing.T, r *gin.Engine, email string) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "",
		`{"name":"Test User","email":"`+email+`","password":"secret1"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Token == "" {
		t.Fatalf("no token in register response: %v %s", err, w.Body.String())
	}
	return resp.Token
}

func TestRouter_ProductionHidesErrorDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "crm.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		t.Cleanup(func() { _ = sqlDB.Close() })
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	cfg := testConfig()
	cfg.AppEnv = "production"
	r := gin.New()
	RegisterRoutes(r, db, cfg)

	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "",
		`{"name":"J","email":"not-an-email","password":"123"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if strings.Contains(body, `"stack"`) || strings.Contains(body, `"error"`) {
		t.Fatalf("production envelope must not carry diagnostics: %s", body)
	}
	if !strings.Contains(body, "Validation failed:") {
		t.Fatalf("expected the user-facing message to survive: %s", body)
	}
}

func TestRouter_HealthAndFallbacks(t *testing.T) {
	r, _ := newTestServer(t)

	w := doJSON(t, r, http.MethodGet, "/health", "", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"OK"`) {
		t.Fatalf("health: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/nope", "", "", nil)
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "API endpoint not found") {
		t.Fatalf("404 fallback: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPatch, "/health", "", "", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("405 fallback: %d %s", w.Code, w.Body.String())
	}
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	r, _ := newTestServer(t)

	for _, path := range []string{"/api/customers", "/api/deals", "/api/interactions", "/api/tasks"} {
		w := doJSON(t, r, http.MethodGet, path, "", "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s without token: expected 401, got %d", path, w.Code)
		}
		if !strings.Contains(w.Body.String(), `"success":false`) {
			t.Fatalf("%s: missing failure envelope: %s", path, w.Body.String())
		}
	}

	// Garbage token is also a 401, via the token classifier.
	w := doJSON(t, r, http.MethodGet, "/api/customers", "not.a.token", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: expected 401, got %d", w.Code)
	}
}

func TestRouter_AuthFlowAndCustomerLifecycle(t *testing.T) {
	r, _ := newTestServer(t)
	token := registerUser(t, r, "flow@crm.com")

	// Duplicate registration conflicts.
	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "",
		`{"name":"Test User","email":"flow@crm.com","password":"secret1"}`, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate register: %d %s", w.Code, w.Body.String())
	}

	// Login round-trips.
	w = doJSON(t, r, http.MethodPost, "/api/auth/login", "",
		`{"email":"flow@crm.com","password":"secret1"}`, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"token"`) {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}

	// Create a customer.
	w = doJSON(t, r, http.MethodPost, "/api/customers", token,
		`{"name":"John Doe","email":"john@example.com","company":"Acme Corp"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create customer: %d %s", w.Code, w.Body.String())
	}
	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil || created.Data.ID == "" {
		t.Fatalf("create customer body: %v %s", err, w.Body.String())
	}
	id := created.Data.ID

	// List carries count and an ETag.
	w = doJSON(t, r, http.MethodGet, "/api/customers", token, "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"count":1`) {
		t.Fatalf("list customers: %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get("ETag") == "" {
		t.Fatalf("list missing ETag")
	}

	// Detail view.
	w = doJSON(t, r, http.MethodGet, "/api/customers/"+id, token, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get customer: %d %s", w.Code, w.Body.String())
	}

	// Partial update.
	w = doJSON(t, r, http.MethodPut, "/api/customers/"+id, token, `{"status":"PROSPECT"}`, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"PROSPECT"`) {
		t.Fatalf("update customer: %d %s", w.Code, w.Body.String())
	}

	// Delete, then the detail 404s with the customer-specific message.
	w = doJSON(t, r, http.MethodDelete, "/api/customers/"+id, token, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete customer: %d %s", w.Code, w.Body.String())
	}
	w = doJSON(t, r, http.MethodGet, "/api/customers/"+id, token, "", nil)
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "could not be found") {
		t.Fatalf("get after delete: %d %s", w.Code, w.Body.String())
	}
}

func TestRouter_DealPipelineAndConstraints(t *testing.T) {
	r, _ := newTestServer(t)
	token := registerUser(t, r, "deals@crm.com")

	w := doJSON(t, r, http.MethodPost, "/api/customers", token, `{"name":"Acme"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create customer: %d %s", w.Code, w.Body.String())
	}
	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	custID := created.Data.ID

	// Deal against a nonexistent customer trips the FK classifier (400).
	w = doJSON(t, r, http.MethodPost, "/api/deals", token,
		`{"title":"Ghost","customerId":"123e4567-e89b-12d3-a456-426614174000"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing customer, got %d %s", w.Code, w.Body.String())
	}

	// Idempotent create: same key replays, does not double-insert.
	hdr := map[string]string{middleware.HeaderIdempotencyKey: "deal-retry-1"}
	w = doJSON(t, r, http.MethodPost, "/api/deals", token,
		`{"title":"Software License Deal","value":50000,"customerId":"`+custID+`"}`, hdr)
	if w.Code != http.StatusCreated {
		t.Fatalf("create deal: %d %s", w.Code, w.Body.String())
	}
	w = doJSON(t, r, http.MethodPost, "/api/deals", token,
		`{"title":"Software License Deal","value":50000,"customerId":"`+custID+`"}`, hdr)
	if w.Code != http.StatusCreated {
		t.Fatalf("replay deal: %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get(middleware.HeaderIdempotencyReplayed) != "true" {
		t.Fatalf("replay header missing")
	}
	w = doJSON(t, r, http.MethodGet, "/api/deals", token, "", nil)
	if !strings.Contains(w.Body.String(), `"count":1`) {
		t.Fatalf("replay duplicated the deal: %s", w.Body.String())
	}

	// Customer delete blocked while a deal references it.
	w = doJSON(t, r, http.MethodDelete, "/api/customers/"+custID, token, "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected FK-blocked delete 400, got %d %s", w.Code, w.Body.String())
	}
}

func TestRouter_TasksScopedPerUser(t *testing.T) {
	r, _ := newTestServer(t)
	alice := registerUser(t, r, "alice@crm.com")
	bob := registerUser(t, r, "bob@crm.com")

	w := doJSON(t, r, http.MethodPost, "/api/tasks", alice, `{"title":"Follow up with Acme"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create task: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/tasks", bob, "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"count":0`) {
		t.Fatalf("cross-user task leak: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/tasks", alice, "", nil)
	if !strings.Contains(w.Body.String(), `"count":1`) {
		t.Fatalf("owner missing their task: %s", w.Body.String())
	}
}
