package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-crm-backend/internal/domain"
	"github.com/tbourn/go-crm-backend/internal/repo"
)

// DealService owns the sales pipeline: idempotent deal creation, the flat
// pipeline listing, and partial updates used for stage moves.
type DealService struct {
	DB             *gorm.DB
	IdempotencyTTL time.Duration
}

// Create stores a new deal assigned to userID. When key is non-blank the
// (user, "deals", key) tuple is recorded; replaying the same key returns the
// originally created deal with replayed=true instead of inserting a second
// row. A lost race on the idempotency insert is resolved by re-reading the
// winner's record.
func (s *DealService) Create(ctx context.Context, d *domain.Deal, userID, key string) (*domain.Deal, bool, error) {
	now := time.Now().UTC()
	if rec, err := repo.GetIdempotency(ctx, s.DB, userID, "deals", key, now); err == nil {
		existing, err := repo.GetDeal(ctx, s.DB, rec.RecordID)
		if err != nil {
			return nil, false, err
		}
		return existing, true, nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, false, err
	}

	created, err := repo.CreateDeal(ctx, s.DB, d, userID)
	if err != nil {
		return nil, false, err
	}

	if key != "" {
		if _, err := repo.CreateIdempotency(ctx, s.DB, userID, "deals", key, created.ID, 201, s.IdempotencyTTL); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				rec, gerr := repo.GetIdempotency(ctx, s.DB, userID, "deals", key, now)
				if gerr == nil {
					winner, werr := repo.GetDeal(ctx, s.DB, rec.RecordID)
					if werr == nil {
						return winner, true, nil
					}
				}
				return created, false, nil
			}
			return nil, false, err
		}
	}
	return created, false, nil
}

// List returns every deal, newest first, with customer and assignee joined.
func (s *DealService) List(ctx context.Context) ([]domain.Deal, error) {
	return repo.ListDeals(ctx, s.DB)
}

// Update applies a partial update to a deal. An empty updates map returns the
// current row unchanged.
func (s *DealService) Update(ctx context.Context, id string, updates map[string]any) (*domain.Deal, error) {
	if len(updates) == 0 {
		return repo.GetDeal(ctx, s.DB, id)
	}
	return repo.UpdateDeal(ctx, s.DB, id, updates)
}

// Stats reports the row count and most recent update time across all deals,
// feeding list ETag generation.
func (s *DealService) Stats(ctx context.Context) (int64, *time.Time, error) {
	return repo.DealsStats(ctx, s.DB)
}
