package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-crm-backend/internal/domain"
)

func TestCreateCustomer_DefaultsAndOwnership(t *testing.T) {
	db := openTestDB(t)
	u := seedUser(t, db, "owner@crm.test")

	email := "acme@example.com"
	c, err := CreateCustomer(context.Background(), db, &domain.Customer{Name: "Acme", Email: &email}, u.ID)
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	if c.ID == "" {
		t.Fatalf("expected generated id")
	}
	if c.AssignedTo != u.ID {
		t.Fatalf("expected assignment to %s, got %s", u.ID, c.AssignedTo)
	}
	if c.Status != domain.CustomerActive {
		t.Fatalf("expected default status ACTIVE, got %s", c.Status)
	}
	if c.AssignedUser == nil || c.AssignedUser.Email != "owner@crm.test" {
		t.Fatalf("expected assigned user joined: %+v", c.AssignedUser)
	}
}

func TestListCustomers_OrderAndCounts(t *testing.T) {
	db := openTestDB(t)
	u := seedUser(t, db, "owner@crm.test")

	older := seedCustomer(t, db, u.ID, "Older")
	// Force a strictly later creation time for deterministic ordering.
	db.Model(&domain.Customer{}).Where("id = ?", older.ID).
		Update("created_at", time.Now().UTC().Add(-time.Hour))
	newer := seedCustomer(t, db, u.ID, "Newer")

	if _, err := CreateDeal(context.Background(), db, &domain.Deal{Title: "d", CustomerID: newer.ID}, u.ID); err != nil {
		t.Fatalf("CreateDeal: %v", err)
	}
	if _, err := CreateTask(context.Background(), db, &domain.Task{Title: "t", CustomerID: &newer.ID}, u.ID); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	out, err := ListCustomers(context.Background(), db)
	if err != nil {
		t.Fatalf("ListCustomers: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 customers, got %d", len(out))
	}
	if out[0].Name != "Newer" {
		t.Fatalf("expected newest first, got %q", out[0].Name)
	}
	if out[0].DealsCount != 1 || out[0].TasksCount != 1 || out[0].InteractionsCount != 0 {
		t.Fatalf("counts unexpected: %+v", out[0])
	}
	if out[1].DealsCount != 0 {
		t.Fatalf("older customer should have zero deals: %+v", out[1])
	}
}

func TestGetCustomerDetail_PreloadsHistory(t *testing.T) {
	db := openTestDB(t)
	u := seedUser(t, db, "owner@crm.test")
	c := seedCustomer(t, db, u.ID, "Acme")

	if _, err := CreateInteraction(context.Background(), db, &domain.Interaction{
		Type: domain.InteractionCall, Subject: "Intro", Date: time.Now().UTC(), CustomerID: c.ID,
	}, u.ID); err != nil {
		t.Fatalf("CreateInteraction: %v", err)
	}
	if _, err := CreateDeal(context.Background(), db, &domain.Deal{Title: "License", CustomerID: c.ID}, u.ID); err != nil {
		t.Fatalf("CreateDeal: %v", err)
	}

	got, err := GetCustomerDetail(context.Background(), db, c.ID)
	if err != nil {
		t.Fatalf("GetCustomerDetail: %v", err)
	}
	if len(got.Interactions) != 1 || got.Interactions[0].User == nil {
		t.Fatalf("expected interaction with author joined: %+v", got.Interactions)
	}
	if len(got.Deals) != 1 || got.Deals[0].Title != "License" {
		t.Fatalf("expected deal joined: %+v", got.Deals)
	}

	if _, err := GetCustomerDetail(context.Background(), db, "missing"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestUpdateCustomer_PartialOnly(t *testing.T) {
	db := openTestDB(t)
	u := seedUser(t, db, "owner@crm.test")

	email := "before@example.com"
	phone := "+1-555-0123"
	c, err := CreateCustomer(context.Background(), db, &domain.Customer{Name: "Acme", Email: &email, Phone: &phone}, u.ID)
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}

	got, err := UpdateCustomer(context.Background(), db, c.ID, map[string]any{"name": "Acme Corp"})
	if err != nil {
		t.Fatalf("UpdateCustomer: %v", err)
	}
	if got.Name != "Acme Corp" {
		t.Fatalf("name not updated: %+v", got)
	}
	if got.Email == nil || *got.Email != email {
		t.Fatalf("email should be untouched: %+v", got.Email)
	}
	if got.Phone == nil || *got.Phone != phone {
		t.Fatalf("phone should be untouched: %+v", got.Phone)
	}

	if _, err := UpdateCustomer(context.Background(), db, "missing", map[string]any{"name": "x"}); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestDeleteCustomer_RestrictedByReferences(t *testing.T) {
	db := openTestDB(t)
	u := seedUser(t, db, "owner@crm.test")
	c := seedCustomer(t, db, u.ID, "Acme")

	if _, err := CreateDeal(context.Background(), db, &domain.Deal{Title: "d", CustomerID: c.ID}, u.ID); err != nil {
		t.Fatalf("CreateDeal: %v", err)
	}

	err := DeleteCustomer(context.Background(), db, c.ID)
	if err == nil {
		t.Fatalf("expected FK violation deleting referenced customer")
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("FK violation should not read as not-found: %v", err)
	}

	// Unreferenced customer deletes cleanly.
	free := seedCustomer(t, db, u.ID, "Free")
	if err := DeleteCustomer(context.Background(), db, free.ID); err != nil {
		t.Fatalf("DeleteCustomer: %v", err)
	}
	if err := DeleteCustomer(context.Background(), db, free.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound on second delete, got %v", err)
	}
}
