//go:build db
// +build db

package invitations

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/fourmis-app/fourmis-backend/pkg/db/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("FOURMIS_DB_DSN")
	if dsn == "" {
		t.Skip("FOURMIS_DB_DSN is not set")
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	return conn
}

func seedSchoolAndIssuer(t *testing.T, tx *gorm.DB) (uuid.UUID, uuid.UUID) {
	t.Helper()

	school := &models.School{ID: uuid.New(), Name: "Repo Test School"}
	if err := tx.Create(school).Error; err != nil {
		t.Fatalf("create school: %v", err)
	}

	identity := &models.Identity{
		ID:           uuid.New(),
		Email:        fmt.Sprintf("fm_test_%s@example.com", uuid.NewString()),
		PasswordHash: "hash",
	}
	if err := tx.Create(identity).Error; err != nil {
		t.Fatalf("create identity: %v", err)
	}

	profile := &models.Profile{
		ID:          uuid.New(),
		IdentityID:  identity.ID,
		Email:       identity.Email,
		DisplayName: "Repo Tester",
		Role:        "school",
	}
	if err := tx.Create(profile).Error; err != nil {
		t.Fatalf("create profile: %v", err)
	}

	return school.ID, profile.ID
}

func TestRepositoryConsumeIfRedeemable(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	if tx.Error != nil {
		t.Fatalf("begin tx: %v", tx.Error)
	}
	t.Cleanup(func() {
		_ = tx.Rollback()
	})

	repo := NewRepository(tx)
	ctx := context.Background()
	schoolID, profileID := seedSchoolAndIssuer(t, tx)

	now := time.Now().UTC().Truncate(time.Microsecond)
	inv, err := repo.Create(ctx, CreateInvitationDTO{
		Token:              "repo-test-" + uuid.NewString(),
		Email:              fmt.Sprintf("invitee_%s@example.com", uuid.NewString()),
		SchoolID:           schoolID,
		InvitedByProfileID: profileID,
		ExpiresAt:          now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create invitation: %v", err)
	}

	claimed, err := repo.ConsumeIfRedeemable(ctx, inv.Token, now)
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if claimed.ConsumedAt == nil {
		t.Fatalf("expected consumed_at stamped")
	}

	if _, err := repo.ConsumeIfRedeemable(ctx, inv.Token, now); !errors.Is(err, ErrNotRedeemable) {
		t.Fatalf("expected second claim to fail, got %v", err)
	}

	if err := repo.Release(ctx, inv.ID, now); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := repo.ConsumeIfRedeemable(ctx, inv.Token, now); err != nil {
		t.Fatalf("expected claim to succeed after release, got %v", err)
	}
}

func TestRepositoryConsumeExpired(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	if tx.Error != nil {
		t.Fatalf("begin tx: %v", tx.Error)
	}
	t.Cleanup(func() {
		_ = tx.Rollback()
	})

	repo := NewRepository(tx)
	ctx := context.Background()
	schoolID, profileID := seedSchoolAndIssuer(t, tx)

	now := time.Now().UTC()
	inv, err := repo.Create(ctx, CreateInvitationDTO{
		Token:              "repo-expired-" + uuid.NewString(),
		Email:              fmt.Sprintf("expired_%s@example.com", uuid.NewString()),
		SchoolID:           schoolID,
		InvitedByProfileID: profileID,
		ExpiresAt:          now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create invitation: %v", err)
	}

	after := now.Add(2 * time.Hour)
	if _, err := repo.ConsumeIfRedeemable(ctx, inv.Token, after); !errors.Is(err, ErrNotRedeemable) {
		t.Fatalf("expected expired claim to fail, got %v", err)
	}
}

func TestRepositoryCreateAssignsID(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	if tx.Error != nil {
		t.Fatalf("begin tx: %v", tx.Error)
	}
	t.Cleanup(func() {
		_ = tx.Rollback()
	})

	repo := NewRepository(tx)
	ctx := context.Background()
	schoolID, profileID := seedSchoolAndIssuer(t, tx)

	// the DTO carries no ID; the insert must not depend on the caller
	// providing one
	inv, err := repo.Create(ctx, CreateInvitationDTO{
		Token:              "repo-noid-" + uuid.NewString(),
		Email:              fmt.Sprintf("noid_%s@example.com", uuid.NewString()),
		SchoolID:           schoolID,
		InvitedByProfileID: profileID,
		ExpiresAt:          time.Now().UTC().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create invitation: %v", err)
	}
	if inv.ID == uuid.Nil {
		t.Fatalf("expected a generated invitation id")
	}

	reloaded, err := repo.FindByID(ctx, inv.ID)
	if err != nil {
		t.Fatalf("reload invitation: %v", err)
	}
	if reloaded.Token != inv.Token {
		t.Fatalf("expected reloaded invitation to match, got token %q", reloaded.Token)
	}
}
