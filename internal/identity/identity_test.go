package identity

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"meal-kit/internal/database"
	"meal-kit/internal/latency"
	"meal-kit/internal/localstore"
	"meal-kit/internal/logger"
)

const testSecret = "test-secret"

func newTestDocs(t *testing.T) *localstore.Store {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"), logger.Discard())
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return localstore.New(db.SQL)
}

func newTestAuth(t *testing.T, docs *localstore.Store) *FakeAuthenticator {
	t.Helper()
	a, err := NewFakeAuthenticator(context.Background(), docs, latency.New(0), testSecret, time.Hour, logger.Discard())
	if err != nil {
		t.Fatalf("NewFakeAuthenticator failed: %v", err)
	}
	return a
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("AnyCredentials", func(t *testing.T) {
		a := newTestAuth(t, nil)
		u, err := a.Login(ctx, "marie@example.com", "secret")
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if u.Name != "marie" || u.Email != "marie@example.com" {
			t.Errorf("Unexpected user: %+v", u)
		}
		if !strings.HasPrefix(u.ReferralCode, "MK-") {
			t.Errorf("Expected a referral code, got %q", u.ReferralCode)
		}

		id, err := ValidateToken([]byte(testSecret), a.Token())
		if err != nil || id != u.ID {
			t.Errorf("Expected token for %s, got %s (%v)", u.ID, id, err)
		}
	})

	t.Run("MissingFields", func(t *testing.T) {
		a := newTestAuth(t, nil)
		if _, err := a.Login(ctx, "", "secret"); !errors.Is(err, ErrMissingField) {
			t.Errorf("Expected ErrMissingField, got %v", err)
		}
		if _, err := a.Register(ctx, RegisterInput{Email: "a@b.c", Password: "x"}); !errors.Is(err, ErrMissingField) {
			t.Errorf("Expected ErrMissingField without a name, got %v", err)
		}
	})

	t.Run("SameEmailKeepsProfile", func(t *testing.T) {
		a := newTestAuth(t, nil)
		first, _ := a.Register(ctx, RegisterInput{Name: "Marie", Email: "marie@example.com", Password: "x"})
		again, _ := a.Login(ctx, "MARIE@example.com", "y")
		if again.ID != first.ID || again.Name != "Marie" {
			t.Errorf("Expected the registered profile back, got %+v", again)
		}
	})

	t.Run("CancelledContext", func(t *testing.T) {
		a, _ := NewFakeAuthenticator(ctx, nil, latency.New(time.Hour), testSecret, time.Hour, logger.Discard())
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := a.Login(cctx, "a@b.c", "x"); !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
		if _, ok := a.Current(); ok {
			t.Error("Expected no user after a cancelled login")
		}
	})
}

func TestUpdateAndLogout(t *testing.T) {
	ctx := context.Background()
	a := newTestAuth(t, nil)

	if _, err := a.Update(ctx, Update{}); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("Expected ErrNotLoggedIn, got %v", err)
	}

	_, _ = a.Register(ctx, RegisterInput{Name: "Marie", Email: "marie@example.com", Password: "x"})
	phone := "0600000000"
	u, err := a.Update(ctx, Update{
		Phone:     &phone,
		Household: &Household{Adults: 2, Children: 1},
		Diets:     []string{"végétarien"},
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if u.Phone != phone || u.Household.Children != 1 || u.Name != "Marie" {
		t.Errorf("Unexpected updated user: %+v", u)
	}

	empty := " "
	if _, err := a.Update(ctx, Update{Name: &empty}); !errors.Is(err, ErrMissingField) {
		t.Errorf("Expected blank name to be rejected, got %v", err)
	}
	if cur, _ := a.Current(); cur.Name != "Marie" {
		t.Errorf("Expected rejected update to leave profile intact, got %q", cur.Name)
	}

	if err := a.Logout(ctx); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, ok := a.Current(); ok {
		t.Error("Expected no user after logout")
	}
}

func TestSessionPersistence(t *testing.T) {
	ctx := context.Background()
	docs := newTestDocs(t)

	a := newTestAuth(t, docs)
	u, _ := a.Register(ctx, RegisterInput{Name: "Marie", Email: "marie@example.com", Password: "x"})

	restored := newTestAuth(t, docs)
	cur, ok := restored.Current()
	if !ok || cur.ID != u.ID {
		t.Fatalf("Expected session to be restored, got %+v", cur)
	}

	_ = restored.Logout(ctx)
	if _, ok := newTestAuth(t, docs).Current(); ok {
		t.Error("Expected logout to clear the stored session")
	}

	t.Run("ExpiredTokenIsDiscarded", func(t *testing.T) {
		a := newTestAuth(t, docs)
		a.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		_, _ = a.Login(ctx, "old@example.com", "x")

		if _, ok := newTestAuth(t, docs).Current(); ok {
			t.Error("Expected expired session not to be restored")
		}
	})

	t.Run("UserKeyHoldsUser", func(t *testing.T) {
		a := newTestAuth(t, docs)
		u, _ := a.Login(ctx, "paul@example.com", "x")

		var stored User
		if found, err := docs.Get(ctx, localstore.KeyUser, &stored); err != nil || !found {
			t.Fatalf("Expected a user under %q, got %v (%v)", localstore.KeyUser, found, err)
		}
		if stored.ID != u.ID || stored.Email != "paul@example.com" {
			t.Errorf("Unexpected stored user %+v", stored)
		}
		var token string
		if _, err := docs.Get(ctx, localstore.KeySession, &token); err != nil || token != a.Token() {
			t.Errorf("Expected the token under %q, got %q (%v)", localstore.KeySession, token, err)
		}
	})

	t.Run("MissingTokenIsDiscarded", func(t *testing.T) {
		a := newTestAuth(t, docs)
		_, _ = a.Login(ctx, "lea@example.com", "x")
		if err := docs.Delete(ctx, localstore.KeySession); err != nil {
			t.Fatal(err)
		}

		if _, ok := newTestAuth(t, docs).Current(); ok {
			t.Error("Expected a session without token not to be restored")
		}
		var stored User
		if found, _ := docs.Get(ctx, localstore.KeyUser, &stored); found {
			t.Error("Expected the orphan user to be cleared")
		}
	})
}

func TestValidateToken(t *testing.T) {
	a := newTestAuth(t, nil)
	_, _ = a.Login(context.Background(), "a@b.c", "x")

	if _, err := ValidateToken([]byte("other-secret"), a.Token()); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for a wrong secret, got %v", err)
	}
	if _, err := ValidateToken([]byte(testSecret), "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestReferralCode(t *testing.T) {
	if got := ReferralCode("0a1b2c3d-4e5f-6789"); got != "MK-0A1B2C3D" {
		t.Errorf("Unexpected referral code %q", got)
	}
}
