package services

import (
	"context"
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/tbourn/go-crm-backend/internal/domain"
	"github.com/tbourn/go-crm-backend/internal/repo"
)

// openTestDB opens a fresh migrated database in a temp dir.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "crm.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		t.Cleanup(func() { _ = sqlDB.Close() })
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return db
}

// seedUser inserts a user row directly through the repo layer.
func seedUser(t *testing.T, db *gorm.DB, email string) *domain.User {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), db, "Test User", email, "$2a$12$hash", domain.RoleSales)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

// seedCustomer inserts a customer owned by userID.
func seedCustomer(t *testing.T, db *gorm.DB, userID, name string) *domain.Customer {
	t.Helper()
	c, err := repo.CreateCustomer(context.Background(), db, &domain.Customer{Name: name}, userID)
	if err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return c
}
