package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-crm-backend/internal/domain"
	"github.com/tbourn/go-crm-backend/internal/repo"
)

// CustomerService owns the customer lifecycle: creation, listing with
// relation counts, detail views with full history, partial updates, and
// guarded deletion.
type CustomerService struct {
	DB *gorm.DB
}

// Create stores a new customer assigned to userID and returns it with the
// assignee joined.
func (s *CustomerService) Create(ctx context.Context, c *domain.Customer, userID string) (*domain.Customer, error) {
	return repo.CreateCustomer(ctx, s.DB, c, userID)
}

// List returns every customer, newest first, with deal/interaction/task
// counts populated.
func (s *CustomerService) List(ctx context.Context) ([]domain.Customer, error) {
	return repo.ListCustomers(ctx, s.DB)
}

// Get returns one customer with its complete related history. A missing row
// maps to ErrCustomerNotFound so the response carries the customer-specific
// message rather than a generic 404.
func (s *CustomerService) Get(ctx context.Context, id string) (*domain.Customer, error) {
	c, err := repo.GetCustomerDetail(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return c, nil
}

// Update applies a partial update. An empty updates map is a no-op that
// returns the current row, so a body with no recognized fields does not turn
// into a malformed UPDATE statement.
func (s *CustomerService) Update(ctx context.Context, id string, updates map[string]any) (*domain.Customer, error) {
	if len(updates) == 0 {
		c, err := repo.GetCustomerBrief(ctx, s.DB, id)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return c, err
	}
	c, err := repo.UpdateCustomer(ctx, s.DB, id, updates)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return c, nil
}

// Delete removes a customer. Foreign key violations (the customer still has
// deals, interactions, or tasks) propagate untouched so the classifier can
// report the constraint failure.
func (s *CustomerService) Delete(ctx context.Context, id string) error {
	err := repo.DeleteCustomer(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrCustomerNotFound
	}
	return err
}

// Stats reports the row count and most recent update time across all
// customers. The HTTP layer derives list ETags from it.
func (s *CustomerService) Stats(ctx context.Context) (int64, *time.Time, error) {
	return repo.CustomersStats(ctx, s.DB)
}
