package invitations

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fourmis-app/fourmis-backend/pkg/config"
	"github.com/fourmis-app/fourmis-backend/pkg/db/models"
	pkgerrors "github.com/fourmis-app/fourmis-backend/pkg/errors"
	"github.com/fourmis-app/fourmis-backend/pkg/logger"
	"github.com/fourmis-app/fourmis-backend/pkg/mailer"
	"github.com/fourmis-app/fourmis-backend/pkg/metrics"
	"github.com/fourmis-app/fourmis-backend/pkg/security"
)

// IssueEntry is one requested invitation in a batch.
type IssueEntry struct {
	Email     string  `json:"email" validate:"required,email"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

// IssueRequest is the batch payload accepted by the issuer.
type IssueRequest struct {
	SchoolID uuid.UUID    `json:"school_id" validate:"required"`
	Students []IssueEntry `json:"students" validate:"required,min=1,dive"`
}

// EntryFailure reports why a single batch entry was not issued.
type EntryFailure struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// IssueResult aggregates per-entry outcomes. One bad entry never fails the
// batch.
type IssueResult struct {
	Sent     int            `json:"sent"`
	Failed   int            `json:"failed"`
	Failures []EntryFailure `json:"failures,omitempty"`
}

// Issuer creates time-boxed single-use invitations and mails redemption links.
type Issuer interface {
	Issue(ctx context.Context, callerProfileID uuid.UUID, req IssueRequest) (*IssueResult, error)
}

type invitationRepository interface {
	Create(ctx context.Context, dto CreateInvitationDTO) (*models.Invitation, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type adminChecker interface {
	IsSchoolAdmin(ctx context.Context, schoolID, profileID uuid.UUID) (bool, error)
}

type issuer struct {
	invitations invitationRepository
	memberships adminChecker
	sender      mailer.Sender
	logg        *logger.Logger
	metrics     *metrics.WorkflowMetrics
	cfg         config.InvitationsConfig
	now         func() time.Time
}

// IssuerParams bundles the dependencies required to build an issuer.
type IssuerParams struct {
	Invitations invitationRepository
	Memberships adminChecker
	Sender      mailer.Sender
	Logger      *logger.Logger
	Metrics     *metrics.WorkflowMetrics
	Config      config.InvitationsConfig
	Now         func() time.Time
}

// NewIssuer constructs an invitation issuer with the provided dependencies.
func NewIssuer(params IssuerParams) (Issuer, error) {
	if params.Invitations == nil {
		return nil, fmt.Errorf("invitations repository is required")
	}
	if params.Memberships == nil {
		return nil, fmt.Errorf("memberships repository is required")
	}
	if params.Sender == nil {
		return nil, fmt.Errorf("mail sender is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &issuer{
		invitations: params.Invitations,
		memberships: params.Memberships,
		sender:      params.Sender,
		logg:        params.Logger,
		metrics:     params.Metrics,
		cfg:         params.Config,
		now:         now,
	}, nil
}

func (s *issuer) Issue(ctx context.Context, callerProfileID uuid.UUID, req IssueRequest) (*IssueResult, error) {
	if req.SchoolID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "school_id is required")
	}
	if len(req.Students) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "students list is empty")
	}
	if max := s.cfg.MaxBatchSize; max > 0 && len(req.Students) > max {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("batch exceeds %d entries", max))
	}

	isAdmin, err := s.memberships.IsSchoolAdmin(ctx, req.SchoolID, callerProfileID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check school admin")
	}
	if !isAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "caller is not an administrator of this school")
	}

	ctx = s.logg.WithSchoolID(ctx, req.SchoolID.String())

	// Entries share no mutable state, so each one runs on its own goroutine.
	type outcome struct {
		email  string
		reason string // empty on success
	}

	results := make([]outcome, len(req.Students))
	var wg sync.WaitGroup
	for i, entry := range req.Students {
		wg.Add(1)
		go func(i int, entry IssueEntry) {
			defer wg.Done()
			results[i] = outcome{
				email:  entry.Email,
				reason: s.issueOne(ctx, callerProfileID, req.SchoolID, entry),
			}
		}(i, entry)
	}
	wg.Wait()

	res := &IssueResult{}
	for _, o := range results {
		if o.reason == "" {
			res.Sent++
			continue
		}
		res.Failed++
		res.Failures = append(res.Failures, EntryFailure{Email: o.email, Reason: o.reason})
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"sent":   res.Sent,
		"failed": res.Failed,
	}), "invitations.batch.completed")
	return res, nil
}

// issueOne returns an empty string on success, or a failure reason.
func (s *issuer) issueOne(ctx context.Context, callerProfileID, schoolID uuid.UUID, entry IssueEntry) string {
	email := strings.ToLower(strings.TrimSpace(entry.Email))
	if email == "" || !strings.Contains(email, "@") {
		s.metrics.IncIssued("invalid_email")
		return "invalid email address"
	}

	token, err := security.GenerateInviteToken()
	if err != nil {
		s.logg.Error(ctx, "invitations.token.generate_failed", err)
		s.metrics.IncIssued("token_error")
		return "could not generate token"
	}

	now := s.now()
	inv, err := s.invitations.Create(ctx, CreateInvitationDTO{
		Token:              token,
		Email:              email,
		FirstName:          entry.FirstName,
		LastName:           entry.LastName,
		SchoolID:           schoolID,
		InvitedByProfileID: callerProfileID,
		ExpiresAt:          now.Add(s.cfg.TTL),
	})
	if err != nil {
		s.logg.Error(s.logg.WithTokenPrefix(ctx, token), "invitations.persist_failed", err)
		s.metrics.IncIssued("persist_error")
		return "could not persist invitation"
	}

	if err := s.sender.Send(ctx, inviteMessage(email, entry.FirstName, s.cfg.LinkFor(token), s.cfg.TTL)); err != nil {
		// The invitation must not outlive a failed delivery: nobody would
		// ever receive its link.
		ctx := s.logg.WithFields(s.logg.WithTokenPrefix(ctx, token), map[string]any{
			"invitation_id": inv.ID.String(),
		})
		s.logg.Error(ctx, "invitations.mail_failed", err)
		s.metrics.IncMailed("error")

		if delErr := s.invitations.Delete(ctx, inv.ID); delErr != nil {
			s.logg.Error(ctx, "invitations.compensation_delete_failed", delErr)
		}
		s.metrics.IncIssued("mail_error")
		return "could not deliver invitation email"
	}

	s.metrics.IncMailed("ok")
	s.metrics.IncIssued("ok")
	return ""
}

func inviteMessage(email string, firstName *string, link string, ttl time.Duration) mailer.Message {
	greeting := "Bonjour"
	if firstName != nil && strings.TrimSpace(*firstName) != "" {
		greeting = "Bonjour " + html.EscapeString(strings.TrimSpace(*firstName))
	}
	days := int(ttl.Hours() / 24)
	if days < 1 {
		days = 1
	}
	body := fmt.Sprintf(
		`<p>%s,</p>
<p>Votre établissement vous invite à rejoindre Fourmis.</p>
<p><a href=%q>Créer mon compte</a></p>
<p>Ce lien expire dans %d jours.</p>`,
		greeting, link, days,
	)
	return mailer.Message{
		To:       email,
		Subject:  "Votre invitation Fourmis",
		HTMLBody: body,
	}
}
