// Task HTTP handlers.
//
// This file exposes REST endpoints for personal task management:
//   - POST /tasks       (create, assigned to the caller)
//   - GET  /tasks       (the caller's tasks, due soonest first)
//   - PUT  /tasks/{id}  (partial update, typically status changes)
package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-crm-backend/internal/domain"
)

// TaskService defines task operations consumed by HTTP handlers.
//
// Implementations must be safe for concurrent use and honor the provided
// context for cancellation and timeouts.
type TaskService interface {
	// Create stores a task assigned to userID.
	Create(ctx context.Context, t *domain.Task, userID string) (*domain.Task, error)
	// List returns the user's own tasks ordered by due date.
	List(ctx context.Context, userID string) ([]domain.Task, error)
	// Update applies a partial update and returns the refreshed row.
	Update(ctx context.Context, id string, updates map[string]any) (*domain.Task, error)
}

// CreateTaskRequest is the JSON payload for creating a task.
type CreateTaskRequest struct {
	Title       string     `json:"title" binding:"required,min=1,max=200" example:"Send proposal"`
	Description *string    `json:"description" binding:"omitempty,max=2000"`
	DueDate     *time.Time `json:"dueDate"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH" example:"HIGH"`
	Status      string     `json:"status" binding:"omitempty,oneof=PENDING IN_PROGRESS COMPLETED"`
	CustomerID  *string    `json:"customerId" binding:"omitempty,uuid"`
	DealID      *string    `json:"dealId" binding:"omitempty,uuid"`
}

// UpdateTaskRequest is the JSON payload for a partial task update. Only
// non-nil fields change; the dashboard typically sends just `status`.
type UpdateTaskRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string    `json:"description" binding:"omitempty,max=2000"`
	DueDate     *time.Time `json:"dueDate"`
	Priority    *string    `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH"`
	Status      *string    `json:"status" binding:"omitempty,oneof=PENDING IN_PROGRESS COMPLETED"`
}

// updates flattens the set fields into a column map for the service layer.
func (r *UpdateTaskRequest) updates() map[string]any {
	m := map[string]any{}
	if r.Title != nil {
		m["title"] = *r.Title
	}
	if r.Description != nil {
		m["description"] = *r.Description
	}
	if r.DueDate != nil {
		m["due_date"] = *r.DueDate
	}
	if r.Priority != nil {
		m["priority"] = *r.Priority
	}
	if r.Status != nil {
		m["status"] = *r.Status
	}
	return m
}

// CreateTask stores a task assigned to the caller.
func (h *Handlers) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}

	task := &domain.Task{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    domain.TaskPriority(req.Priority),
		Status:      domain.TaskStatus(req.Status),
		CustomerID:  req.CustomerID,
		DealID:      req.DealID,
	}
	created, err := h.taskSvc.Create(c.Request.Context(), task, userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	createdData(c, "Task created successfully", created)
}

// ListTasks returns the caller's tasks, due soonest first.
func (h *Handlers) ListTasks(c *gin.Context) {
	items, err := h.taskSvc.List(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	okList(c, items, int64(len(items)))
}

// UpdateTask applies a partial update to a task.
func (h *Handlers) UpdateTask(c *gin.Context) {
	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}

	task, err := h.taskSvc.Update(c.Request.Context(), c.Param("id"), req.updates())
	if err != nil {
		respondError(c, err)
		return
	}
	okData(c, task)
}
