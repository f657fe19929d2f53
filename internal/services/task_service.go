package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-crm-backend/internal/domain"
	"github.com/tbourn/go-crm-backend/internal/repo"
)

// TaskService owns personal task management. Listing is always scoped to the
// authenticated user; tasks never leak across assignees.
type TaskService struct {
	DB *gorm.DB
}

// Create stores a task assigned to userID, defaulting priority and status.
func (s *TaskService) Create(ctx context.Context, t *domain.Task, userID string) (*domain.Task, error) {
	return repo.CreateTask(ctx, s.DB, t, userID)
}

// List returns the user's own tasks ordered by due date.
func (s *TaskService) List(ctx context.Context, userID string) ([]domain.Task, error) {
	return repo.ListTasksForUser(ctx, s.DB, userID)
}

// Update applies a partial update to a task. An empty updates map returns the
// current row unchanged.
func (s *TaskService) Update(ctx context.Context, id string, updates map[string]any) (*domain.Task, error) {
	if len(updates) == 0 {
		return repo.GetTask(ctx, s.DB, id)
	}
	return repo.UpdateTask(ctx, s.DB, id, updates)
}
