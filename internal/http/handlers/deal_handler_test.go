package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-crm-backend/internal/domain"
	"github.com/tbourn/go-crm-backend/internal/http/middleware"
)

// stubDealService implements DealService with canned behavior.
type stubDealService struct {
	createFn func(ctx context.Context, d *domain.Deal, userID, key string) (*domain.Deal, bool, error)
	listFn   func(ctx context.Context) ([]domain.Deal, error)
	updateFn func(ctx context.Context, id string, updates map[string]any) (*domain.Deal, error)
}

func (s *stubDealService) Create(ctx context.Context, d *domain.Deal, userID, key string) (*domain.Deal, bool, error) {
	return s.createFn(ctx, d, userID, key)
}
func (s *stubDealService) List(ctx context.Context) ([]domain.Deal, error) { return s.listFn(ctx) }
func (s *stubDealService) Update(ctx context.Context, id string, updates map[string]any) (*domain.Deal, error) {
	return s.updateFn(ctx, id, updates)
}
func (s *stubDealService) Stats(context.Context) (int64, *time.Time, error) { return 0, nil, nil }

func dealTestRouter(svc DealService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("userID", "u-auth"); c.Next() })
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil))
	h := New(nil, nil, svc, nil, nil)
	r.POST("/deals", h.CreateDeal)
	r.GET("/deals", h.ListDeals)
	r.PUT("/deals/:id", h.UpdateDeal)
	return r
}

func TestCreateDeal_DefaultsAndKey(t *testing.T) {
	svc := &stubDealService{
		createFn: func(_ context.Context, d *domain.Deal, userID, key string) (*domain.Deal, bool, error) {
			if userID != "u-auth" || key != "retry-1" {
				t.Fatalf("identity/key not forwarded: %q %q", userID, key)
			}
			if d.Probability != 50 {
				t.Fatalf("expected probability default 50, got %d", d.Probability)
			}
			d.ID = "d1"
			return d, false, nil
		},
	}
	r := dealTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/deals",
		strings.NewReader(`{"title":"Software License Deal","customerId":"123e4567-e89b-12d3-a456-426614174000"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderIdempotencyKey, "retry-1")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	if w.Header().Get(middleware.HeaderIdempotencyReplayed) != "" {
		t.Fatalf("fresh create must not set the replay header")
	}
}

func TestCreateDeal_ReplaySetsHeader(t *testing.T) {
	svc := &stubDealService{
		createFn: func(_ context.Context, d *domain.Deal, _, _ string) (*domain.Deal, bool, error) {
			return &domain.Deal{ID: "d-original", Title: "Original"}, true, nil
		},
	}
	r := dealTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/deals",
		strings.NewReader(`{"title":"Retried","customerId":"123e4567-e89b-12d3-a456-426614174000"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderIdempotencyKey, "retry-1")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 on replay, got %d", w.Code)
	}
	if w.Header().Get(middleware.HeaderIdempotencyReplayed) != "true" {
		t.Fatalf("replay header missing")
	}
	if !strings.Contains(w.Body.String(), "d-original") {
		t.Fatalf("expected original deal in body: %s", w.Body.String())
	}
}

func TestCreateDeal_InvalidStageAndCustomerID(t *testing.T) {
	r := dealTestRouter(&stubDealService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/deals",
		strings.NewReader(`{"title":"X","stage":"WON","customerId":"not-a-uuid"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "stage: must be one of") || !strings.Contains(body, "customerID: must be a valid UUID") {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestDealPayloads_HaveNoDescriptionColumn(t *testing.T) {
	// Deals carry no description field. A client sending one (say, a stale
	// frontend build) must not produce an UPDATE against a column that does
	// not exist in the deals table.
	var got map[string]any
	svc := &stubDealService{
		createFn: func(_ context.Context, d *domain.Deal, _, _ string) (*domain.Deal, bool, error) {
			d.ID = "d1"
			return d, false, nil
		},
		updateFn: func(_ context.Context, id string, updates map[string]any) (*domain.Deal, error) {
			got = updates
			return &domain.Deal{ID: id}, nil
		},
	}
	r := dealTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/deals",
		strings.NewReader(`{"title":"X","description":"ignored","customerId":"123e4567-e89b-12d3-a456-426614174000"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create with stray description: expected 201, got %d (%s)", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/deals/d1",
		strings.NewReader(`{"stage":"QUALIFIED","description":"ignored"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("update with stray description: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	if len(got) != 1 || got["stage"] != "QUALIFIED" {
		t.Fatalf("expected only the stage column in the update map, got %v", got)
	}
}

func TestUpdateDeal_StageMove(t *testing.T) {
	var got map[string]any
	svc := &stubDealService{
		updateFn: func(_ context.Context, id string, updates map[string]any) (*domain.Deal, error) {
			got = updates
			return &domain.Deal{ID: id, Stage: domain.StageProposal}, nil
		},
	}
	r := dealTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/deals/d1",
		strings.NewReader(`{"stage":"PROPOSAL"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	if len(got) != 1 || got["stage"] != "PROPOSAL" {
		t.Fatalf("unexpected update map: %v", got)
	}
	var resp SuccessResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || !resp.Success {
		t.Fatalf("bad envelope: %v %s", err, w.Body.String())
	}
}
