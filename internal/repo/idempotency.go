// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file stores completed-request markers so a retried
// POST (a re-dropped deal card, a double-submitted interaction form) replays
// the original result instead of inserting twice. Records are scoped per
// user and per resource so the same key on /api/deals and /api/interactions
// never collide.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-crm-backend/internal/domain"
)

// ErrDuplicate indicates that an idempotency record already exists for the
// given (user_id, resource, key) tuple.
var ErrDuplicate = errors.New("duplicate")

// GetIdempotency returns the non-expired record for (userID, resource, key),
// or ErrNotFound. A blank key or resource never matches.
func GetIdempotency(ctx context.Context, db *gorm.DB, userID, resource, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(key) == "" || strings.TrimSpace(resource) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where("user_id = ? AND resource = ? AND key = ? AND expires_at > ?", userID, resource, key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &rec, err
}

// CreateIdempotency records a completed create. Two racing requests with the
// same key hit the unique index; the loser gets ErrDuplicate and should
// re-read the winner's record.
func CreateIdempotency(ctx context.Context, db *gorm.DB, userID, resource, key, recordID string, status int, ttl time.Duration) (*domain.Idempotency, error) {
	now := time.Now().UTC()
	rec := &domain.Idempotency{
		ID:        uuid.NewString(),
		UserID:    userID,
		Resource:  resource,
		Key:       key,
		RecordID:  recordID,
		Status:    status,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
		low := strings.ToLower(err.Error())
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(low, "unique constraint failed") ||
			strings.Contains(low, "constraint failed: unique") {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}
