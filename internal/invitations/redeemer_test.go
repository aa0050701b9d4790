package invitations

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fourmis-app/fourmis-backend/internal/contacts"
	"github.com/fourmis-app/fourmis-backend/internal/identity"
	"github.com/fourmis-app/fourmis-backend/internal/memberships"
	"github.com/fourmis-app/fourmis-backend/internal/profiles"
	"github.com/fourmis-app/fourmis-backend/pkg/config"
	"github.com/fourmis-app/fourmis-backend/pkg/db/models"
	"github.com/fourmis-app/fourmis-backend/pkg/enums"
	pkgerrors "github.com/fourmis-app/fourmis-backend/pkg/errors"
	"github.com/fourmis-app/fourmis-backend/pkg/security"
)

// fakeInvitationStore mimics the conditional-update semantics of the real
// repo: a claim succeeds at most once per token while unexpired.
type fakeInvitationStore struct {
	inv      *models.Invitation
	released int
}

func (f *fakeInvitationStore) ConsumeIfRedeemable(ctx context.Context, token string, now time.Time) (*models.Invitation, error) {
	if f.inv == nil || f.inv.Token != token {
		return nil, ErrNotRedeemable
	}
	if f.inv.ConsumedAt != nil || !f.inv.ExpiresAt.After(now) {
		return nil, ErrNotRedeemable
	}
	stamped := now
	f.inv.ConsumedAt = &stamped
	snapshot := *f.inv
	return &snapshot, nil
}

func (f *fakeInvitationStore) Release(ctx context.Context, id uuid.UUID, claimedAt time.Time) error {
	if f.inv != nil && f.inv.ID == id && f.inv.ConsumedAt != nil && f.inv.ConsumedAt.Equal(claimedAt) {
		f.inv.ConsumedAt = nil
	}
	f.released++
	return nil
}

// fakeIdentityService mirrors the real service's purge semantics: it holds
// references to the other fakes so PurgeAccount can tear down every dependent
// record the way the transactional implementation does.
type fakeIdentityService struct {
	byEmail     map[string]*models.Identity
	profiles    *fakeProfileRepo
	contacts    *fakeContactRepo
	memberships *fakeMembershipRepo
	createErr   error
	deleted     []uuid.UUID
	purged      []uuid.UUID
}

func newFakeIdentityService(profiles *fakeProfileRepo, contacts *fakeContactRepo, memberships *fakeMembershipRepo) *fakeIdentityService {
	return &fakeIdentityService{
		byEmail:     map[string]*models.Identity{},
		profiles:    profiles,
		contacts:    contacts,
		memberships: memberships,
	}
}

func (f *fakeIdentityService) CreateAccount(ctx context.Context, dto identity.CreateAccountDTO) (*models.Identity, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	account := dto.ToModel()
	account.ID = uuid.New()
	f.byEmail[dto.Email] = account
	return account, nil
}

func (f *fakeIdentityService) FindAccountByEmail(ctx context.Context, email string) (*models.Identity, error) {
	if account, ok := f.byEmail[email]; ok {
		return account, nil
	}
	return nil, identity.ErrNotFound
}

func (f *fakeIdentityService) FindAccountByID(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	for _, account := range f.byEmail {
		if account.ID == id {
			return account, nil
		}
	}
	return nil, identity.ErrNotFound
}

func (f *fakeIdentityService) PurgeAccount(ctx context.Context, id uuid.UUID) error {
	for pid, p := range f.profiles.byID {
		if p.IdentityID != id {
			continue
		}
		for mid, m := range f.memberships.byID {
			if m.ProfileID != pid {
				continue
			}
			if m.ContactID != nil {
				delete(f.contacts.byID, *m.ContactID)
			}
			delete(f.memberships.byID, mid)
		}
		delete(f.profiles.byID, pid)
	}
	for email, account := range f.byEmail {
		if account.ID == id {
			delete(f.byEmail, email)
		}
	}
	f.purged = append(f.purged, id)
	return nil
}

func (f *fakeIdentityService) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	for email, account := range f.byEmail {
		if account.ID == id {
			delete(f.byEmail, email)
			f.deleted = append(f.deleted, id)
			return nil
		}
	}
	return nil
}

func (f *fakeIdentityService) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return nil
}

type fakeProfileRepo struct {
	byID      map[uuid.UUID]*models.Profile
	createErr error
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{byID: map[uuid.UUID]*models.Profile{}}
}

func (f *fakeProfileRepo) Create(ctx context.Context, dto profiles.CreateProfileDTO) (*models.Profile, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	profile := dto.ToModel()
	profile.ID = uuid.New()
	f.byID[profile.ID] = profile
	return profile, nil
}

func (f *fakeProfileRepo) FindByIdentityID(ctx context.Context, identityID uuid.UUID) (*models.Profile, error) {
	for _, p := range f.byID {
		if p.IdentityID == identityID {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProfileRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.byID, id)
	return nil
}

type fakeContactRepo struct {
	byID      map[uuid.UUID]*models.Contact
	createErr error
}

func newFakeContactRepo() *fakeContactRepo {
	return &fakeContactRepo{byID: map[uuid.UUID]*models.Contact{}}
}

func (f *fakeContactRepo) Create(ctx context.Context, dto contacts.CreateContactDTO) (*models.Contact, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	contact := dto.ToModel()
	contact.ID = uuid.New()
	f.byID[contact.ID] = contact
	return contact, nil
}

func (f *fakeContactRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.byID, id)
	return nil
}

type fakeMembershipRepo struct {
	byID      map[uuid.UUID]*models.SchoolMembership
	createErr error
}

func newFakeMembershipRepo() *fakeMembershipRepo {
	return &fakeMembershipRepo{byID: map[uuid.UUID]*models.SchoolMembership{}}
}

func (f *fakeMembershipRepo) Create(ctx context.Context, dto memberships.CreateMembershipDTO) (*models.SchoolMembership, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	membership := dto.ToModel()
	membership.ID = uuid.New()
	f.byID[membership.ID] = membership
	return membership, nil
}

func (f *fakeMembershipRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.byID, id)
	return nil
}

type fakeLevelResolver struct {
	levels []models.AcademicLevel
	err    error
}

func (f *fakeLevelResolver) ListLevels(ctx context.Context, schoolID uuid.UUID) ([]models.AcademicLevel, error) {
	return f.levels, f.err
}

type redeemFixture struct {
	redeemer    Redeemer
	invitations *fakeInvitationStore
	identities  *fakeIdentityService
	profiles    *fakeProfileRepo
	contacts    *fakeContactRepo
	memberships *fakeMembershipRepo
	schools     *fakeLevelResolver
	schoolID    uuid.UUID
	token       string
}

func newRedeemFixture(t *testing.T) *redeemFixture {
	t.Helper()

	schoolID := uuid.New()
	token, err := security.GenerateInviteToken()
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	profileRepo := newFakeProfileRepo()
	contactRepo := newFakeContactRepo()
	membershipRepo := newFakeMembershipRepo()

	fix := &redeemFixture{
		invitations: &fakeInvitationStore{inv: &models.Invitation{
			ID:                 uuid.New(),
			Token:              token,
			Email:              "alice@example.com",
			SchoolID:           schoolID,
			InvitedByProfileID: uuid.New(),
			ExpiresAt:          time.Now().UTC().Add(24 * time.Hour),
		}},
		identities:  newFakeIdentityService(profileRepo, contactRepo, membershipRepo),
		profiles:    profileRepo,
		contacts:    contactRepo,
		memberships: membershipRepo,
		schools: &fakeLevelResolver{levels: []models.AcademicLevel{
			{ID: uuid.New(), SchoolID: schoolID, Name: "L1", Rank: 1},
		}},
		schoolID: schoolID,
		token:    token,
	}

	red, err := NewRedeemer(RedeemerParams{
		Invitations: fix.invitations,
		Identities:  fix.identities,
		Profiles:    fix.profiles,
		Contacts:    fix.contacts,
		Memberships: fix.memberships,
		Schools:     fix.schools,
		Logger:      testLogger(t),
		PasswordCfg: config.PasswordConfig{
			ArgonMemoryKB:    8 * 1024,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
		},
	})
	if err != nil {
		t.Fatalf("build redeemer: %v", err)
	}
	fix.redeemer = red
	return fix
}

func validRedeemRequest() RedeemRequest {
	return RedeemRequest{FirstName: "Alice", LastName: "Doe", Password: "hunter22valid"}
}

func TestRedeemProvisionsFullAccount(t *testing.T) {
	fix := newRedeemFixture(t)

	res, err := fix.redeemer.Redeem(context.Background(), fix.token, validRedeemRequest())
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}

	account, ok := fix.identities.byEmail["alice@example.com"]
	if !ok {
		t.Fatalf("expected identity for alice@example.com")
	}
	if account.EmailVerifiedAt == nil {
		t.Fatalf("expected email to be pre-verified")
	}
	valid, err := security.VerifyPassword("hunter22valid", account.PasswordHash)
	if err != nil || !valid {
		t.Fatalf("expected stored hash to verify, valid=%v err=%v", valid, err)
	}

	profile := fix.profiles.byID[res.ProfileID]
	if profile == nil {
		t.Fatalf("expected profile to persist")
	}
	if profile.Role != enums.ProfileRoleStudent {
		t.Fatalf("expected student role, got %s", profile.Role)
	}
	if profile.DisplayName != "Alice Doe" {
		t.Fatalf("expected display name Alice Doe, got %q", profile.DisplayName)
	}

	membership := fix.memberships.byID[res.MembershipID]
	if membership == nil {
		t.Fatalf("expected membership to persist")
	}
	if membership.SchoolID != fix.schoolID {
		t.Fatalf("membership bound to wrong school")
	}
	if membership.AcademicLevelID == nil || *membership.AcademicLevelID != fix.schools.levels[0].ID {
		t.Fatalf("membership not linked to the school's level")
	}
	if membership.ContactID == nil || fix.contacts.byID[*membership.ContactID] == nil {
		t.Fatalf("membership not linked to a persisted contact")
	}
	if membership.MemberType != enums.MemberTypeStudent {
		t.Fatalf("expected STUDENT member type, got %s", membership.MemberType)
	}

	if fix.invitations.inv.ConsumedAt == nil {
		t.Fatalf("expected invitation to stay consumed after success")
	}
}

func TestRedeemTwiceSecondAttemptFails(t *testing.T) {
	fix := newRedeemFixture(t)

	if _, err := fix.redeemer.Redeem(context.Background(), fix.token, validRedeemRequest()); err != nil {
		t.Fatalf("first redeem: %v", err)
	}

	_, err := fix.redeemer.Redeem(context.Background(), fix.token, validRedeemRequest())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInvalidToken {
		t.Fatalf("expected invalid token error on second redeem, got %v", err)
	}
}

func TestRedeemExpiredInvitationFails(t *testing.T) {
	fix := newRedeemFixture(t)
	fix.invitations.inv.ExpiresAt = time.Now().UTC().Add(-time.Minute)

	_, err := fix.redeemer.Redeem(context.Background(), fix.token, validRedeemRequest())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInvalidToken {
		t.Fatalf("expected invalid token error, got %v", err)
	}
	if len(fix.identities.byEmail) != 0 {
		t.Fatalf("expected no identity created")
	}
}

func TestRedeemUnknownTokenFails(t *testing.T) {
	fix := newRedeemFixture(t)

	_, err := fix.redeemer.Redeem(context.Background(), "bogus-token", validRedeemRequest())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInvalidToken {
		t.Fatalf("expected invalid token error, got %v", err)
	}
}

func TestRedeemNoLevelsCompensatesEverything(t *testing.T) {
	fix := newRedeemFixture(t)
	fix.schools.levels = nil

	_, err := fix.redeemer.Redeem(context.Background(), fix.token, validRedeemRequest())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNoLevels {
		t.Fatalf("expected no-levels error, got %v", err)
	}

	if len(fix.identities.byEmail) != 0 {
		t.Fatalf("expected identity to be compensated")
	}
	if len(fix.profiles.byID) != 0 {
		t.Fatalf("expected profile to be compensated")
	}
	if len(fix.contacts.byID) != 0 {
		t.Fatalf("expected contact to be compensated")
	}
	if len(fix.memberships.byID) != 0 {
		t.Fatalf("expected no membership")
	}
	if fix.invitations.inv.ConsumedAt != nil {
		t.Fatalf("expected invitation claim to be released for retry")
	}
}

func TestRedeemMembershipFailureCompensatesInReverse(t *testing.T) {
	fix := newRedeemFixture(t)
	fix.memberships.createErr = fmt.Errorf("membership insert failed")

	_, err := fix.redeemer.Redeem(context.Background(), fix.token, validRedeemRequest())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}

	if len(fix.identities.byEmail) != 0 || len(fix.profiles.byID) != 0 || len(fix.contacts.byID) != 0 {
		t.Fatalf("expected all provisioned records removed, got identities=%d profiles=%d contacts=%d",
			len(fix.identities.byEmail), len(fix.profiles.byID), len(fix.contacts.byID))
	}
	if fix.invitations.inv.ConsumedAt != nil {
		t.Fatalf("expected invitation claim released")
	}
}

func TestRedeemProfileFailureCompensatesIdentity(t *testing.T) {
	fix := newRedeemFixture(t)
	fix.profiles.createErr = fmt.Errorf("profile insert failed")

	_, err := fix.redeemer.Redeem(context.Background(), fix.token, validRedeemRequest())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if len(fix.identities.byEmail) != 0 {
		t.Fatalf("expected identity removed")
	}
	if len(fix.identities.deleted) != 1 {
		t.Fatalf("expected exactly one compensating identity delete, got %d", len(fix.identities.deleted))
	}
	if fix.invitations.inv.ConsumedAt != nil {
		t.Fatalf("expected invitation claim released")
	}
}

func TestRedeemResetsPreexistingAccount(t *testing.T) {
	fix := newRedeemFixture(t)

	// leftovers from an earlier run for the same email
	oldAccount, err := fix.identities.CreateAccount(context.Background(), identity.CreateAccountDTO{
		Email:        "alice@example.com",
		PasswordHash: "stale-hash",
	})
	if err != nil {
		t.Fatalf("seed identity: %v", err)
	}
	oldProfile, err := fix.profiles.Create(context.Background(), profiles.CreateProfileDTO{
		IdentityID:  oldAccount.ID,
		Email:       "alice@example.com",
		DisplayName: "Old Alice",
		Role:        enums.ProfileRoleStudent,
	})
	if err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	oldContact, err := fix.contacts.Create(context.Background(), contacts.CreateContactDTO{})
	if err != nil {
		t.Fatalf("seed contact: %v", err)
	}
	if _, err := fix.memberships.Create(context.Background(), memberships.CreateMembershipDTO{
		SchoolID:   fix.schoolID,
		ProfileID:  oldProfile.ID,
		FirstName:  "Old",
		LastName:   "Alice",
		MemberType: enums.MemberTypeStudent,
		ContactID:  &oldContact.ID,
		Email:      "alice@example.com",
	}); err != nil {
		t.Fatalf("seed membership: %v", err)
	}

	// the stale profile is also enrolled in a second school
	secondContact, err := fix.contacts.Create(context.Background(), contacts.CreateContactDTO{})
	if err != nil {
		t.Fatalf("seed second contact: %v", err)
	}
	if _, err := fix.memberships.Create(context.Background(), memberships.CreateMembershipDTO{
		SchoolID:   uuid.New(),
		ProfileID:  oldProfile.ID,
		FirstName:  "Old",
		LastName:   "Alice",
		MemberType: enums.MemberTypeStudent,
		ContactID:  &secondContact.ID,
		Email:      "alice@example.com",
	}); err != nil {
		t.Fatalf("seed second membership: %v", err)
	}

	res, err := fix.redeemer.Redeem(context.Background(), fix.token, validRedeemRequest())
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}

	newAccount := fix.identities.byEmail["alice@example.com"]
	if newAccount == nil || newAccount.ID == oldAccount.ID {
		t.Fatalf("expected a fresh identity replacing the old one")
	}
	if len(fix.identities.purged) != 1 || fix.identities.purged[0] != oldAccount.ID {
		t.Fatalf("expected the stale identity to be purged, got %v", fix.identities.purged)
	}
	if len(fix.profiles.byID) != 1 {
		t.Fatalf("expected exactly one profile, got %d", len(fix.profiles.byID))
	}
	if fix.profiles.byID[res.ProfileID] == nil || fix.profiles.byID[oldProfile.ID] != nil {
		t.Fatalf("expected old profile removed and new one kept")
	}
	if len(fix.memberships.byID) != 1 {
		t.Fatalf("expected both stale memberships removed, got %d", len(fix.memberships.byID))
	}
	if fix.memberships.byID[res.MembershipID] == nil {
		t.Fatalf("expected the fresh membership to survive")
	}
	if len(fix.contacts.byID) != 1 {
		t.Fatalf("expected both stale contacts removed, got %d", len(fix.contacts.byID))
	}
	if fix.invitations.inv.ConsumedAt == nil {
		t.Fatalf("expected invitation consumed")
	}
}

func TestRedeemValidationFailuresHaveNoSideEffects(t *testing.T) {
	fix := newRedeemFixture(t)

	cases := []RedeemRequest{
		{FirstName: "", LastName: "Doe", Password: "hunter22valid"},
		{FirstName: "Alice", LastName: "", Password: "hunter22valid"},
		{FirstName: "Alice", LastName: "Doe", Password: "short"},
	}
	for _, req := range cases {
		_, err := fix.redeemer.Redeem(context.Background(), fix.token, req)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for %+v, got %v", req, err)
		}
	}

	if fix.invitations.inv.ConsumedAt != nil {
		t.Fatalf("expected invitation untouched by invalid requests")
	}
	if len(fix.identities.byEmail) != 0 {
		t.Fatalf("expected no identity created")
	}
}
