// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Deal model.
//
// Error semantics:
//   - Missing deals surface as gorm.ErrRecordNotFound.
//   - Creating a deal against a customer that does not exist surfaces
//     gorm.ErrForeignKeyViolated via TranslateError.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-crm-backend/internal/domain"
)

// CreateDeal inserts a new deal assigned to userID. A zero stage falls back
// to LEAD. The returned row has customer and assignee joined for response
// shaping.
func CreateDeal(ctx context.Context, db *gorm.DB, d *domain.Deal, userID string) (*domain.Deal, error) {
	d.ID = uuid.NewString()
	d.AssignedTo = userID
	d.CreatedAt = time.Now().UTC()
	if d.Stage == "" {
		d.Stage = domain.StageLead
	}
	if err := db.WithContext(ctx).Create(d).Error; err != nil {
		return nil, err
	}
	return GetDeal(ctx, db, d.ID)
}

// ListDeals returns all deals ordered by creation time descending, with the
// customer and assigned user joined. The frontend filters this flat list into
// Kanban columns client-side.
func ListDeals(ctx context.Context, db *gorm.DB) ([]domain.Deal, error) {
	var out []domain.Deal
	err := db.WithContext(ctx).
		Preload("Customer").
		Preload("AssignedUser").
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// GetDeal fetches a single deal with customer and assignee joined, or
// ErrNotFound if missing.
func GetDeal(ctx context.Context, db *gorm.DB, id string) (*domain.Deal, error) {
	var d domain.Deal
	err := db.WithContext(ctx).
		Preload("Customer").
		Preload("AssignedUser").
		Where("id = ?", id).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// UpdateDeal applies a partial update (typically a stage move from the
// pipeline board). Only the columns present in updates change. Returns
// ErrNotFound when the deal does not exist, otherwise the refreshed row
// with associations joined.
func UpdateDeal(ctx context.Context, db *gorm.DB, id string, updates map[string]any) (*domain.Deal, error) {
	res := db.WithContext(ctx).
		Model(&domain.Deal{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return GetDeal(ctx, db, id)
}
