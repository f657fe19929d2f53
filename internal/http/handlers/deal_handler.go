// Deal HTTP handlers.
//
// This file exposes REST endpoints for the sales pipeline:
//   - POST /deals       (create, idempotent via Idempotency-Key)
//   - GET  /deals       (flat pipeline list, ETag support)
//   - PUT  /deals/{id}  (partial update, stage moves from the Kanban board)
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-crm-backend/internal/domain"
	"github.com/tbourn/go-crm-backend/internal/http/middleware"
)

// DealService defines pipeline operations consumed by HTTP handlers.
//
// Implementations must be safe for concurrent use and honor the provided
// context for cancellation and timeouts.
type DealService interface {
	// Create stores a deal for userID; a non-blank key makes the call
	// idempotent and replayed=true marks a repeat delivery.
	Create(ctx context.Context, d *domain.Deal, userID, key string) (*domain.Deal, bool, error)
	// List returns all deals newest first with customer and assignee joined.
	List(ctx context.Context) ([]domain.Deal, error)
	// Update applies a partial update and returns the refreshed row.
	Update(ctx context.Context, id string, updates map[string]any) (*domain.Deal, error)
	// Stats reports row count and latest update time for ETag derivation.
	Stats(ctx context.Context) (int64, *time.Time, error)
}

// CreateDealRequest is the JSON payload for creating a deal.
type CreateDealRequest struct {
	Title             string     `json:"title" binding:"required,min=1,max=200" example:"Software License Deal"`
	Value             *float64   `json:"value" binding:"omitempty,gte=0" example:"50000"`
	Stage             string     `json:"stage" binding:"omitempty,oneof=LEAD QUALIFIED PROPOSAL NEGOTIATION CLOSED_WON CLOSED_LOST" example:"LEAD"`
	Probability       *int       `json:"probability" binding:"omitempty,gte=0,lte=100" example:"75"`
	ExpectedCloseDate *time.Time `json:"expectedCloseDate"`
	CustomerID        string     `json:"customerId" binding:"required,uuid"`
}

// UpdateDealRequest is the JSON payload for a partial deal update. Only
// non-nil fields change; the pipeline board typically sends just `stage`.
type UpdateDealRequest struct {
	Title             *string    `json:"title" binding:"omitempty,min=1,max=200"`
	Value             *float64   `json:"value" binding:"omitempty,gte=0"`
	Stage             *string    `json:"stage" binding:"omitempty,oneof=LEAD QUALIFIED PROPOSAL NEGOTIATION CLOSED_WON CLOSED_LOST"`
	Probability       *int       `json:"probability" binding:"omitempty,gte=0,lte=100"`
	ExpectedCloseDate *time.Time `json:"expectedCloseDate"`
}

// updates flattens the set fields into a column map for the service layer.
func (r *UpdateDealRequest) updates() map[string]any {
	m := map[string]any{}
	if r.Title != nil {
		m["title"] = *r.Title
	}
	if r.Value != nil {
		m["value"] = *r.Value
	}
	if r.Stage != nil {
		m["stage"] = *r.Stage
	}
	if r.Probability != nil {
		m["probability"] = *r.Probability
	}
	if r.ExpectedCloseDate != nil {
		m["expected_close_date"] = *r.ExpectedCloseDate
	}
	return m
}

// CreateDeal stores a new deal. Retried deliveries carrying the same
// Idempotency-Key return the originally created deal instead of a duplicate;
// replays are flagged with the Idempotency-Replayed response header.
func (h *Handlers) CreateDeal(c *gin.Context) {
	var req CreateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}

	deal := &domain.Deal{
		Title:             req.Title,
		Value:             req.Value,
		Stage:             domain.DealStage(req.Stage),
		ExpectedCloseDate: req.ExpectedCloseDate,
		CustomerID:        req.CustomerID,
	}
	if req.Probability != nil {
		deal.Probability = *req.Probability
	} else {
		deal.Probability = 50
	}

	created, replayed, err := h.dealSvc.Create(c.Request.Context(), deal, userID(c), middleware.IdempotencyKeyFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if replayed {
		c.Header(middleware.HeaderIdempotencyReplayed, "true")
	}
	createdData(c, "Deal created successfully", created)
}

// ListDeals returns the flat pipeline list with a weak ETag derived from
// (count, max updated_at); stage moves invalidate cached boards.
func (h *Handlers) ListDeals(c *gin.Context) {
	ctx := c.Request.Context()

	if count, maxTS, err := h.dealSvc.Stats(ctx); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.Unix()
		}
		etag := fmt.Sprintf(`W/"deals:%d:%d"`, count, ts)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, err := h.dealSvc.List(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	okList(c, items, int64(len(items)))
}

// UpdateDeal applies a partial update to a deal (usually a stage move).
func (h *Handlers) UpdateDeal(c *gin.Context) {
	var req UpdateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}

	deal, err := h.dealSvc.Update(c.Request.Context(), c.Param("id"), req.updates())
	if err != nil {
		respondError(c, err)
		return
	}
	okData(c, deal)
}
