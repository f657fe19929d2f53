// Command seed wipes the database and loads a small demo dataset: an admin
// account, two customers, one deal in the pipeline, a follow-up task and a
// logged call. Intended for local development only.
package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/tbourn/go-crm-backend/internal/config"
	"github.com/tbourn/go-crm-backend/internal/domain"
	"github.com/tbourn/go-crm-backend/internal/repo"
)

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("run migrations")
	}

	ctx := context.Background()

	// Children first so the RESTRICT constraints do not block the wipe.
	for _, model := range []any{
		&domain.Idempotency{}, &domain.Task{}, &domain.Interaction{},
		&domain.Deal{}, &domain.Customer{}, &domain.User{},
	} {
		if err := db.WithContext(ctx).Where("1 = 1").Delete(model).Error; err != nil {
			log.Fatal().Err(err).Msg("clear table")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("hash admin password")
	}
	admin, err := repo.CreateUser(ctx, db, "Admin User", "admin@crm.com", string(hash), domain.RoleAdmin)
	if err != nil {
		log.Fatal().Err(err).Msg("seed admin user")
	}
	log.Info().Str("email", admin.Email).Msg("admin account created (password: admin123)")

	john, err := repo.CreateCustomer(ctx, db, &domain.Customer{
		Name:    "John Doe",
		Email:   ptr("john@example.com"),
		Phone:   ptr("+1-555-0101"),
		Company: ptr("Acme Corp"),
		Status:  domain.CustomerActive,
	}, admin.ID)
	if err != nil {
		log.Fatal().Err(err).Msg("seed customer")
	}
	if _, err := repo.CreateCustomer(ctx, db, &domain.Customer{
		Name:    "Jane Smith",
		Email:   ptr("jane@techstart.io"),
		Phone:   ptr("+1-555-0102"),
		Company: ptr("TechStart"),
		Status:  domain.CustomerProspect,
	}, admin.ID); err != nil {
		log.Fatal().Err(err).Msg("seed customer")
	}

	closeDate := time.Now().AddDate(0, 1, 0)
	deal, err := repo.CreateDeal(ctx, db, &domain.Deal{
		Title:             "Software License Deal",
		Value:             ptr(50000.0),
		Stage:             domain.StageProposal,
		Probability:       75,
		ExpectedCloseDate: &closeDate,
		CustomerID:        john.ID,
	}, admin.ID)
	if err != nil {
		log.Fatal().Err(err).Msg("seed deal")
	}

	due := time.Now().AddDate(0, 0, 7)
	if _, err := repo.CreateTask(ctx, db, &domain.Task{
		Title:       "Follow up on proposal",
		Description: ptr("Check whether the revised terms were reviewed"),
		DueDate:     &due,
		Priority:    domain.PriorityHigh,
		Status:      domain.TaskPending,
		CustomerID:  &john.ID,
		DealID:      &deal.ID,
	}, admin.ID); err != nil {
		log.Fatal().Err(err).Msg("seed task")
	}

	if _, err := repo.CreateInteraction(ctx, db, &domain.Interaction{
		Type:        domain.InteractionCall,
		Subject:     "Initial discovery call",
		Description: ptr("Discussed licensing needs and current tooling"),
		Date:        time.Now().Add(-48 * time.Hour),
		CustomerID:  john.ID,
	}, admin.ID); err != nil {
		log.Fatal().Err(err).Msg("seed interaction")
	}

	log.Info().Msg("database seeded")
}

func ptr[T any](v T) *T { return &v }
