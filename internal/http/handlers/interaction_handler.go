// Interaction HTTP handlers.
//
// This file exposes REST endpoints for customer touchpoints:
//   - POST /interactions                    (log, idempotent via Idempotency-Key)
//   - GET  /interactions[?customerId=...]   (timeline, optionally per customer)
package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-crm-backend/internal/domain"
	"github.com/tbourn/go-crm-backend/internal/http/middleware"
)

// InteractionService defines touchpoint operations consumed by HTTP handlers.
//
// Implementations must be safe for concurrent use and honor the provided
// context for cancellation and timeouts.
type InteractionService interface {
	// Create logs an interaction authored by userID; a non-blank key makes the
	// call idempotent and replayed=true marks a repeat delivery.
	Create(ctx context.Context, in *domain.Interaction, userID, key string) (*domain.Interaction, bool, error)
	// List returns interactions newest-occurrence first, optionally filtered
	// to one customer.
	List(ctx context.Context, customerID string) ([]domain.Interaction, error)
}

// CreateInteractionRequest is the JSON payload for logging an interaction.
type CreateInteractionRequest struct {
	Type        string     `json:"type" binding:"required,oneof=CALL EMAIL MEETING NOTE" example:"CALL"`
	Subject     string     `json:"subject" binding:"required,min=1,max=200" example:"Initial discovery call"`
	Description *string    `json:"description" binding:"omitempty,max=2000"`
	Date        *time.Time `json:"date" binding:"required"`
	CustomerID  string     `json:"customerId" binding:"required,uuid"`
}

// CreateInteraction logs a touchpoint on a customer's timeline. Retried
// deliveries carrying the same Idempotency-Key return the originally logged
// interaction instead of duplicating the timeline entry.
func (h *Handlers) CreateInteraction(c *gin.Context) {
	var req CreateInteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}

	in := &domain.Interaction{
		Type:        domain.InteractionType(req.Type),
		Subject:     req.Subject,
		Description: req.Description,
		Date:        req.Date.UTC(),
		CustomerID:  req.CustomerID,
	}

	created, replayed, err := h.interSvc.Create(c.Request.Context(), in, userID(c), middleware.IdempotencyKeyFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if replayed {
		c.Header(middleware.HeaderIdempotencyReplayed, "true")
	}
	createdData(c, "Interaction logged successfully", created)
}

// ListInteractions returns the interaction timeline, newest occurrence first.
// A customerId query parameter narrows it to that customer's history.
func (h *Handlers) ListInteractions(c *gin.Context) {
	items, err := h.interSvc.List(c.Request.Context(), c.Query("customerId"))
	if err != nil {
		respondError(c, err)
		return
	}
	okList(c, items, int64(len(items)))
}
