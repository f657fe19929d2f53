// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Task model.
//
// Task reads are scoped to the assignee: the list endpoint only ever shows a
// user their own tasks, so every query here takes the owning userID.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-crm-backend/internal/domain"
)

// CreateTask inserts a task assigned to userID. Zero priority/status fall
// back to MEDIUM/PENDING. The returned row has the optional customer and deal
// joined for response shaping.
func CreateTask(ctx context.Context, db *gorm.DB, t *domain.Task, userID string) (*domain.Task, error) {
	t.ID = uuid.NewString()
	t.AssignedTo = userID
	t.CreatedAt = time.Now().UTC()
	if t.Priority == "" {
		t.Priority = domain.PriorityMedium
	}
	if t.Status == "" {
		t.Status = domain.TaskPending
	}
	if err := db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, err
	}
	return GetTask(ctx, db, t.ID)
}

// ListTasksForUser returns the user's tasks ordered by due date ascending
// (soonest first; SQLite sorts NULL due dates before dated ones and the
// frontend groups undated tasks separately), with linked customer and deal
// joined.
func ListTasksForUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Task, error) {
	var out []domain.Task
	err := db.WithContext(ctx).
		Preload("Customer").
		Preload("Deal").
		Where("assigned_to = ?", userID).
		Order("due_date asc").
		Find(&out).Error
	return out, err
}

// GetTask fetches a single task with customer and deal joined, or ErrNotFound
// if missing.
func GetTask(ctx context.Context, db *gorm.DB, id string) (*domain.Task, error) {
	var t domain.Task
	err := db.WithContext(ctx).
		Preload("Customer").
		Preload("Deal").
		Where("id = ?", id).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTask applies a partial update. Only the columns present in updates
// change. Returns ErrNotFound when the task does not exist, otherwise the
// refreshed row.
func UpdateTask(ctx context.Context, db *gorm.DB, id string, updates map[string]any) (*domain.Task, error) {
	res := db.WithContext(ctx).
		Model(&domain.Task{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return GetTask(ctx, db, id)
}
