// Customer HTTP handlers.
//
// This file exposes REST endpoints for customer resources:
//   - POST   /customers       (create)
//   - GET    /customers       (list with relation counts, ETag support)
//   - GET    /customers/{id}  (detail with full related history)
//   - PUT    /customers/{id}  (partial update)
//   - DELETE /customers/{id}  (delete, blocked while related records exist)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-crm-backend/internal/domain"
)

//
// Service contracts (context-aware)
//

// CustomerService defines customer lifecycle operations consumed by HTTP
// handlers.
//
// Implementations must be safe for concurrent use and honor the provided
// context for cancellation and timeouts.
type CustomerService interface {
	// Create stores a customer assigned to userID.
	Create(ctx context.Context, c *domain.Customer, userID string) (*domain.Customer, error)
	// List returns all customers with relation counts, newest first.
	List(ctx context.Context) ([]domain.Customer, error)
	// Get returns one customer with its full related history.
	Get(ctx context.Context, id string) (*domain.Customer, error)
	// Update applies a partial update and returns the refreshed row.
	Update(ctx context.Context, id string, updates map[string]any) (*domain.Customer, error)
	// Delete removes a customer; fails while related records reference it.
	Delete(ctx context.Context, id string) error
	// Stats reports row count and latest update time for ETag derivation.
	Stats(ctx context.Context) (int64, *time.Time, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for auth, customers, deals,
// interactions, and tasks. It depends on abstract service interfaces to keep
// transport concerns separate from business logic.
type Handlers struct {
	authSvc     AuthService
	customerSvc CustomerService
	dealSvc     DealService
	interSvc    InteractionService
	taskSvc     TaskService
}

// New constructs a Handlers instance bound to the given services.
func New(auth AuthService, customers CustomerService, deals DealService, interactions InteractionService, tasks TaskService) *Handlers {
	return &Handlers{
		authSvc:     auth,
		customerSvc: customers,
		dealSvc:     deals,
		interSvc:    interactions,
		taskSvc:     tasks,
	}
}

// userID extracts the authenticated user id from the Gin context (set by the
// auth middleware). Handlers behind the auth gate can rely on it being
// non-empty; an empty return means the gate was bypassed (tests).
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

//
// DTOs
//

// CreateCustomerRequest is the JSON payload for creating a customer.
type CreateCustomerRequest struct {
	Name    string  `json:"name" binding:"required,min=1,max=200" example:"John Doe"`
	Email   *string `json:"email" binding:"omitempty,email" example:"john@example.com"`
	Phone   *string `json:"phone" binding:"omitempty,max=40" example:"+1-555-0100"`
	Company *string `json:"company" binding:"omitempty,max=200" example:"Acme Corp"`
	Address *string `json:"address" binding:"omitempty,max=500"`
	Status  string  `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE PROSPECT" example:"ACTIVE"`
}

// UpdateCustomerRequest is the JSON payload for a partial customer update.
// Only non-nil fields change; omitted fields keep their stored values.
type UpdateCustomerRequest struct {
	Name    *string `json:"name" binding:"omitempty,min=1,max=200"`
	Email   *string `json:"email" binding:"omitempty,email"`
	Phone   *string `json:"phone" binding:"omitempty,max=40"`
	Company *string `json:"company" binding:"omitempty,max=200"`
	Address *string `json:"address" binding:"omitempty,max=500"`
	Status  *string `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE PROSPECT"`
}

// updates flattens the set fields into a column map for the service layer.
func (r *UpdateCustomerRequest) updates() map[string]any {
	m := map[string]any{}
	if r.Name != nil {
		m["name"] = *r.Name
	}
	if r.Email != nil {
		m["email"] = *r.Email
	}
	if r.Phone != nil {
		m["phone"] = *r.Phone
	}
	if r.Company != nil {
		m["company"] = *r.Company
	}
	if r.Address != nil {
		m["address"] = *r.Address
	}
	if r.Status != nil {
		m["status"] = *r.Status
	}
	return m
}

//
// Handlers
//

// CreateCustomer stores a new customer assigned to the caller.
func (h *Handlers) CreateCustomer(c *gin.Context) {
	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}

	cust := &domain.Customer{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Company: req.Company,
		Address: req.Address,
		Status:  domain.CustomerStatus(req.Status),
	}
	created, err := h.customerSvc.Create(c.Request.Context(), cust, userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	createdData(c, "Customer created successfully", created)
}

// ListCustomers returns every customer with relation counts. The list carries
// a weak ETag derived from (count, max updated_at); an If-None-Match hit
// short-circuits with 304 before the full query runs.
func (h *Handlers) ListCustomers(c *gin.Context) {
	ctx := c.Request.Context()

	if count, maxTS, err := h.customerSvc.Stats(ctx); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.Unix()
		}
		etag := fmt.Sprintf(`W/"customers:%d:%d"`, count, ts)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, err := h.customerSvc.List(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	okList(c, items, int64(len(items)))
}

// GetCustomer returns one customer with interactions, deals, and tasks.
func (h *Handlers) GetCustomer(c *gin.Context) {
	cust, err := h.customerSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	okData(c, cust)
}

// UpdateCustomer applies a partial update to a customer.
func (h *Handlers) UpdateCustomer(c *gin.Context) {
	var req UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}

	cust, err := h.customerSvc.Update(c.Request.Context(), c.Param("id"), req.updates())
	if err != nil {
		respondError(c, err)
		return
	}
	okData(c, cust)
}

// DeleteCustomer removes a customer. Related deals, interactions, or tasks
// block the delete with a constraint failure (400).
func (h *Handlers) DeleteCustomer(c *gin.Context) {
	if err := h.customerSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	okMessage(c, "Customer deleted successfully")
}
