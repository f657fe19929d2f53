package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-crm-backend/internal/domain"
	"github.com/tbourn/go-crm-backend/internal/services"
)

// stubAuthService implements AuthService with canned behavior.
type stubAuthService struct {
	registerFn func(ctx context.Context, name, email, password string, role domain.Role) (*services.AuthResult, error)
	loginFn    func(ctx context.Context, email, password string) (*services.AuthResult, error)
}

func (s *stubAuthService) Register(ctx context.Context, name, email, password string, role domain.Role) (*services.AuthResult, error) {
	return s.registerFn(ctx, name, email, password, role)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*services.AuthResult, error) {
	return s.loginFn(ctx, email, password)
}

func authTestRouter(svc AuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(svc, nil, nil, nil, nil)
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	return r
}

func TestRegister_Success(t *testing.T) {
	svc := &stubAuthService{
		registerFn: func(_ context.Context, name, email, _ string, role domain.Role) (*services.AuthResult, error) {
			if role != domain.RoleSales {
				t.Fatalf("role not forwarded: %q", role)
			}
			return &services.AuthResult{
				User:  &domain.User{ID: "u1", Name: name, Email: email, Role: role},
				Token: "tok-123",
			}, nil
		},
	}
	r := authTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"name":"Jane Smith","email":"jane@crm.com","password":"secret1","role":"SALES"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	var resp AuthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	// user and token live at the envelope root, not under data.
	if !resp.Success || resp.Token != "tok-123" || resp.User == nil || resp.User.ID != "u1" {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
	if resp.Message != "User registered successfully" {
		t.Fatalf("unexpected message: %q", resp.Message)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := &stubAuthService{
		registerFn: func(context.Context, string, string, string, domain.Role) (*services.AuthResult, error) {
			return nil, services.ErrEmailExists
		},
	}
	r := authTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"name":"Jane","email":"jane@crm.com","password":"secret1"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "already exists") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestRegister_InvalidRole(t *testing.T) {
	r := authTestRouter(&stubAuthService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"name":"Jane","email":"jane@crm.com","password":"secret1","role":"SUPERUSER"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "role: must be one of") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestLogin_SuccessAndFailure(t *testing.T) {
	svc := &stubAuthService{
		loginFn: func(_ context.Context, email, password string) (*services.AuthResult, error) {
			if email == "jane@crm.com" && password == "right-pw" {
				return &services.AuthResult{
					User:  &domain.User{ID: "u1", Email: email},
					Token: "tok-login",
				}, nil
			}
			return nil, services.ErrInvalidCredentials
		},
	}
	r := authTestRouter(svc)

	// Success
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"jane@crm.com","password":"right-pw"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "tok-login") {
		t.Fatalf("login success: %d %s", w.Code, w.Body.String())
	}

	// Wrong password → uniform 401
	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"jane@crm.com","password":"wrong"}`))
	req2.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w2, req2)
	if w2.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w2.Code)
	}
	if !strings.Contains(w2.Body.String(), "Invalid email or password") {
		t.Fatalf("unexpected body: %s", w2.Body.String())
	}
}
