// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the aggregate queries behind the weak
// ETags on the customer and deal list endpoints: a (row count, newest
// updated_at) pair changes whenever the list's contents do.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-crm-backend/internal/domain"
)

// CustomersStats returns the customer row count and the greatest UpdatedAt.
// The customer list is shared across the team, so the aggregate runs over the
// whole table. maxUpdatedAt is nil when the table is empty.
func CustomersStats(ctx context.Context, db *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	return tableStats(ctx, db, &domain.Customer{})
}

// DealsStats returns the deal row count and the greatest UpdatedAt. The
// pipeline board polls the deal list, so this feeds its ETag.
func DealsStats(ctx context.Context, db *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	return tableStats(ctx, db, &domain.Deal{})
}

func tableStats(ctx context.Context, db *gorm.DB, model any) (int64, *time.Time, error) {
	q := db.WithContext(ctx).Model(model)

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// ORDER BY + LIMIT instead of MAX(): SQLite's MAX() collapses the column
	// to TEXT, which GORM then fails to scan into time.Time.
	var row struct {
		UpdatedAt time.Time
	}
	if err := q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
