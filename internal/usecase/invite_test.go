package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/samsoft00/gold-standard/internal/infra/security"
)

func newTestInviteService(t *testing.T, repo *testAdminRepo, publisher *testPublisher) *InviteService {
	t.Helper()

	svc, err := NewInviteService(testConfig(), repo, testTokenService(), publisher, security.DefaultPasswordValidator(), testLogger())
	if err != nil {
		t.Fatalf("NewInviteService returned error: %v", err)
	}
	return svc
}

func TestInviteServiceInviteAdmin(t *testing.T) {
	repo := newTestAdminRepo()
	publisher := &testPublisher{}
	svc := newTestInviteService(t, repo, publisher)

	ctx := context.Background()
	admin, token, err := svc.InviteAdmin(ctx, "New.Admin@Example.com")
	if err != nil {
		t.Fatalf("InviteAdmin returned error: %v", err)
	}
	if admin.ID == "" {
		t.Fatal("expected a generated admin id")
	}
	if admin.Email != "new.admin@example.com" {
		t.Fatalf("expected normalized email, got %q", admin.Email)
	}
	if token == "" {
		t.Fatal("expected an invite token")
	}

	stored, err := repo.GetByID(ctx, admin.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if stored.HasPassword() {
		t.Fatal("invited admin must start without a password")
	}

	if len(publisher.invited) != 1 {
		t.Fatalf("expected 1 invite event, got %d", len(publisher.invited))
	}
	if publisher.invited[0].InviteToken != token {
		t.Fatal("event must carry the invite token for link delivery")
	}
}

func TestInviteServiceInviteAdminInvalidEmail(t *testing.T) {
	svc := newTestInviteService(t, newTestAdminRepo(), &testPublisher{})

	for _, email := range []string{"", "plain", "no@tld", "spa ce@example.com"} {
		if _, _, err := svc.InviteAdmin(context.Background(), email); !errors.Is(err, ErrInvalidEmail) {
			t.Fatalf("InviteAdmin(%q): expected ErrInvalidEmail, got %v", email, err)
		}
	}
}

func TestInviteServiceInviteAdminDuplicate(t *testing.T) {
	repo := newTestAdminRepo()
	seedAdmin(t, repo, "taken@example.com", "Passw0rd!")
	svc := newTestInviteService(t, repo, &testPublisher{})

	if _, _, err := svc.InviteAdmin(context.Background(), "taken@example.com"); !errors.Is(err, ErrAdminExists) {
		t.Fatalf("expected ErrAdminExists, got %v", err)
	}
}

func TestInviteServiceValidateInvite(t *testing.T) {
	repo := newTestAdminRepo()
	svc := newTestInviteService(t, repo, &testPublisher{})

	ctx := context.Background()
	invited, token, err := svc.InviteAdmin(ctx, "new@example.com")
	if err != nil {
		t.Fatalf("InviteAdmin returned error: %v", err)
	}

	admin, err := svc.ValidateInvite(ctx, token)
	if err != nil {
		t.Fatalf("ValidateInvite returned error: %v", err)
	}
	if admin.ID != invited.ID {
		t.Fatalf("expected admin %s, got %s", invited.ID, admin.ID)
	}

	if _, err := svc.ValidateInvite(ctx, "garbage"); !errors.Is(err, ErrInvalidInviteToken) {
		t.Fatalf("expected ErrInvalidInviteToken, got %v", err)
	}
}

func TestInviteServiceValidateInviteRejectsSessionToken(t *testing.T) {
	repo := newTestAdminRepo()
	seeded := seedAdmin(t, repo, "jane@example.com", "Passw0rd!")
	svc := newTestInviteService(t, repo, &testPublisher{})

	session, err := testTokenService().IssueSessionToken(seeded.ID, seeded.Email, false)
	if err != nil {
		t.Fatalf("IssueSessionToken returned error: %v", err)
	}

	if _, err := svc.ValidateInvite(context.Background(), session); !errors.Is(err, ErrInvalidInviteToken) {
		t.Fatalf("a session token must not validate as an invite, got %v", err)
	}
}

func TestInviteServiceAcceptInvite(t *testing.T) {
	repo := newTestAdminRepo()
	publisher := &testPublisher{}
	svc := newTestInviteService(t, repo, publisher)

	ctx := context.Background()
	invited, token, err := svc.InviteAdmin(ctx, "new@example.com")
	if err != nil {
		t.Fatalf("InviteAdmin returned error: %v", err)
	}

	admin, err := svc.AcceptInvite(ctx, token, "FirstPass1")
	if err != nil {
		t.Fatalf("AcceptInvite returned error: %v", err)
	}
	if admin.ID != invited.ID {
		t.Fatalf("expected admin %s, got %s", invited.ID, admin.ID)
	}

	stored, err := repo.GetByID(ctx, invited.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	ok, err := security.VerifyPassword("FirstPass1", stored.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("accepted password must verify, ok=%v err=%v", ok, err)
	}

	if len(publisher.passwordChanges) != 1 {
		t.Fatalf("expected 1 password changed event, got %d", len(publisher.passwordChanges))
	}
	if publisher.passwordChanges[0].Source != "invite" {
		t.Fatalf("unexpected event source %q", publisher.passwordChanges[0].Source)
	}
}

func TestInviteServiceAcceptInviteSingleUse(t *testing.T) {
	repo := newTestAdminRepo()
	svc := newTestInviteService(t, repo, &testPublisher{})

	ctx := context.Background()
	_, token, err := svc.InviteAdmin(ctx, "new@example.com")
	if err != nil {
		t.Fatalf("InviteAdmin returned error: %v", err)
	}

	if _, err := svc.AcceptInvite(ctx, token, "FirstPass1"); err != nil {
		t.Fatalf("AcceptInvite returned error: %v", err)
	}

	if _, err := svc.AcceptInvite(ctx, token, "SecondPass2"); !errors.Is(err, ErrInviteAlreadyAccepted) {
		t.Fatalf("expected ErrInviteAlreadyAccepted on reuse, got %v", err)
	}
}

func TestInviteServiceAcceptInvitePolicyViolation(t *testing.T) {
	repo := newTestAdminRepo()
	svc := newTestInviteService(t, repo, &testPublisher{})

	ctx := context.Background()
	_, token, err := svc.InviteAdmin(ctx, "new@example.com")
	if err != nil {
		t.Fatalf("InviteAdmin returned error: %v", err)
	}

	_, err = svc.AcceptInvite(ctx, token, "bad password")
	var verr *security.PasswordValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected a password validation error, got %v", err)
	}

	// A rejected password must leave the invite usable.
	if _, err := svc.ValidateInvite(ctx, token); err != nil {
		t.Fatalf("invite must survive a rejected password, got %v", err)
	}
}
