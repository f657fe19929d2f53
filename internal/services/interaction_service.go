package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-crm-backend/internal/domain"
	"github.com/tbourn/go-crm-backend/internal/repo"
)

// InteractionService records customer touchpoints and serves their history.
type InteractionService struct {
	DB             *gorm.DB
	IdempotencyTTL time.Duration
}

// Create logs an interaction authored by userID. Replaying a non-blank
// idempotency key returns the originally logged interaction instead of a
// duplicate entry in the customer's timeline.
func (s *InteractionService) Create(ctx context.Context, in *domain.Interaction, userID, key string) (*domain.Interaction, bool, error) {
	now := time.Now().UTC()
	if rec, err := repo.GetIdempotency(ctx, s.DB, userID, "interactions", key, now); err == nil {
		existing, err := repo.GetInteraction(ctx, s.DB, rec.RecordID)
		if err != nil {
			return nil, false, err
		}
		return existing, true, nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, false, err
	}

	created, err := repo.CreateInteraction(ctx, s.DB, in, userID)
	if err != nil {
		return nil, false, err
	}

	if key != "" {
		if _, err := repo.CreateIdempotency(ctx, s.DB, userID, "interactions", key, created.ID, 201, s.IdempotencyTTL); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				rec, gerr := repo.GetIdempotency(ctx, s.DB, userID, "interactions", key, now)
				if gerr == nil {
					winner, werr := repo.GetInteraction(ctx, s.DB, rec.RecordID)
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

// List returns interactions newest-occurrence first; a non-empty customerID
// restricts the list to that customer.
func (s *InteractionService) List(ctx context.Context, customerID string) ([]domain.Interaction, error) {
	return repo.ListInteractions(ctx, s.DB, customerID)
}
