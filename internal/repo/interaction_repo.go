// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Interaction
// model.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-crm-backend/internal/domain"
)

// CreateInteraction inserts a touchpoint authored by userID. The returned row
// has the customer and author joined for response shaping.
func CreateInteraction(ctx context.Context, db *gorm.DB, in *domain.Interaction, userID string) (*domain.Interaction, error) {
	in.ID = uuid.NewString()
	in.UserID = userID
	in.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(in).Error; err != nil {
		return nil, err
	}
	return GetInteraction(ctx, db, in.ID)
}

// ListInteractions returns interactions ordered by occurrence date descending,
// with customer and author joined. A non-empty customerID narrows the list to
// that customer's history.
func ListInteractions(ctx context.Context, db *gorm.DB, customerID string) ([]domain.Interaction, error) {
	q := db.WithContext(ctx).
		Preload("Customer").
		Preload("User").
		Order("date desc")
	if customerID != "" {
		q = q.Where("customer_id = ?", customerID)
	}
	var out []domain.Interaction
	err := q.Find(&out).Error
	return out, err
}

// GetInteraction fetches a single interaction with associations joined, or
// ErrNotFound if missing.
func GetInteraction(ctx context.Context, db *gorm.DB, id string) (*domain.Interaction, error) {
	var in domain.Interaction
	err := db.WithContext(ctx).
		Preload("Customer").
		Preload("User").
		Where("id = ?", id).
		First(&in).Error
	if err != nil {
		return nil, err
	}
	return &in, nil
}
