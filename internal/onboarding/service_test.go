package onboarding

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fourmis-app/fourmis-backend/pkg/db/models"
	"github.com/fourmis-app/fourmis-backend/pkg/logger"
)

type stubMembershipFinder struct {
	membership *models.SchoolMembership
	err        error
	calls      int
}

func (s *stubMembershipFinder) FindByProfile(ctx context.Context, profileID uuid.UUID) (*models.SchoolMembership, error) {
	s.calls++
	return s.membership, s.err
}

func buildService(t *testing.T, finder *stubMembershipFinder) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Memberships: finder,
		Logger:      logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func TestCheckCompletedWhenMembershipExists(t *testing.T) {
	schoolID := uuid.New()
	svc := buildService(t, &stubMembershipFinder{membership: &models.SchoolMembership{
		ID:       uuid.New(),
		SchoolID: schoolID,
	}})

	status := svc.Check(context.Background(), uuid.New())
	if !status.Completed {
		t.Fatalf("expected completed")
	}
	if status.SchoolID == nil || *status.SchoolID != schoolID {
		t.Fatalf("expected school id in status")
	}
}

func TestCheckIncompleteWhenNoMembership(t *testing.T) {
	svc := buildService(t, &stubMembershipFinder{})

	status := svc.Check(context.Background(), uuid.New())
	if status.Completed {
		t.Fatalf("expected incomplete")
	}
}

func TestCheckDegradesOnStorageError(t *testing.T) {
	svc := buildService(t, &stubMembershipFinder{err: fmt.Errorf("db down")})

	status := svc.Check(context.Background(), uuid.New())
	if status.Completed {
		t.Fatalf("expected degraded incomplete status, not an error")
	}
}

func TestCheckIsIdempotent(t *testing.T) {
	finder := &stubMembershipFinder{membership: &models.SchoolMembership{
		ID:       uuid.New(),
		SchoolID: uuid.New(),
	}}
	svc := buildService(t, finder)

	profileID := uuid.New()
	first := svc.Check(context.Background(), profileID)
	second := svc.Check(context.Background(), profileID)
	if first.Completed != second.Completed {
		t.Fatalf("expected identical results, got %v then %v", first.Completed, second.Completed)
	}
	if finder.calls != 2 {
		t.Fatalf("expected two pure reads, got %d", finder.calls)
	}
}

func TestCheckNilProfileID(t *testing.T) {
	svc := buildService(t, &stubMembershipFinder{})

	status := svc.Check(context.Background(), uuid.Nil)
	if status.Completed {
		t.Fatalf("expected incomplete for missing profile")
	}
}
