// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Customer
// model.
//
// The repository follows a "thin" approach: it performs persistence and simple
// query composition, leaving business rules to the services package.
//
// Error semantics:
//   - When a customer is not found, functions return gorm.ErrRecordNotFound.
//   - Deleting a customer still referenced by deals, interactions, or tasks
//     surfaces gorm.ErrForeignKeyViolated (via TranslateError); the classifier
//     maps that to a 400.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-crm-backend/internal/domain"
)

// customerCountSelect appends correlated subselects so list reads carry the
// per-customer relation counts the dashboard renders without extra round trips.
const customerCountSelect = "customers.*, " +
	"(SELECT COUNT(*) FROM deals WHERE deals.customer_id = customers.id) AS deals_count, " +
	"(SELECT COUNT(*) FROM interactions WHERE interactions.customer_id = customers.id) AS interactions_count, " +
	"(SELECT COUNT(*) FROM tasks WHERE tasks.customer_id = customers.id) AS tasks_count"

// CreateCustomer inserts a new customer assigned to userID. Optional fields
// arrive as nil pointers and stay NULL in the row; a zero status falls back
// to ACTIVE.
func CreateCustomer(ctx context.Context, db *gorm.DB, c *domain.Customer, userID string) (*domain.Customer, error) {
	c.ID = uuid.NewString()
	c.AssignedTo = userID
	c.CreatedAt = time.Now().UTC()
	if c.Status == "" {
		c.Status = domain.CustomerActive
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return GetCustomerBrief(ctx, db, c.ID)
}

// ListCustomers returns all customers ordered by creation time descending,
// each with the assigned user joined and relation counts populated.
func ListCustomers(ctx context.Context, db *gorm.DB) ([]domain.Customer, error) {
	var out []domain.Customer
	err := db.WithContext(ctx).
		Model(&domain.Customer{}).
		Select(customerCountSelect).
		Preload("AssignedUser").
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// GetCustomerBrief fetches a customer by ID with only the assigned user
// joined. Used for create/update response shaping.
func GetCustomerBrief(ctx context.Context, db *gorm.DB, id string) (*domain.Customer, error) {
	var c domain.Customer
	err := db.WithContext(ctx).
		Preload("AssignedUser").
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCustomerDetail fetches a customer by ID with the assigned user and the
// full related history: interactions (newest first, with author), deals
// (newest first), and tasks (newest first, with assignee). Returns
// ErrNotFound when the row is missing.
func GetCustomerDetail(ctx context.Context, db *gorm.DB, id string) (*domain.Customer, error) {
	var c domain.Customer
	err := db.WithContext(ctx).
		Preload("AssignedUser").
		Preload("Interactions", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("date desc").Preload("User")
		}).
		Preload("Deals", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at desc")
		}).
		Preload("Tasks", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at desc").Preload("AssignedUser")
		}).
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateCustomer applies a partial update: only the columns present in
// updates change; omitted fields retain their stored values. Returns
// ErrNotFound when the customer does not exist, otherwise the refreshed row.
func UpdateCustomer(ctx context.Context, db *gorm.DB, id string, updates map[string]any) (*domain.Customer, error) {
	res := db.WithContext(ctx).
		Model(&domain.Customer{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return GetCustomerBrief(ctx, db, id)
}

// DeleteCustomer removes a customer row. FK RESTRICT constraints make the
// delete fail while dependent deals/interactions/tasks exist; the raw
// translated error is propagated for the classifier. Returns ErrNotFound
// when no row matched.
func DeleteCustomer(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.Customer{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
