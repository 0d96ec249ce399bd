package consoleauth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hostwire/consoleauth/routeguard"
	"github.com/hostwire/consoleauth/session"
)

func TestLoginSuccessWithoutTwoFactor(t *testing.T) {
	backend := newFakeBackend(t)
	engine := newTestEngine(t, backend)

	outcome, err := engine.Login(context.Background(), "alice@hostwire.test", "correct-password-123", false)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if outcome.Kind != OutcomeAuthenticated {
		t.Fatalf("expected OutcomeAuthenticated, got %v", outcome.Kind)
	}
	if outcome.User == nil || outcome.User.ID != "u-1001" {
		t.Fatalf("unexpected user: %+v", outcome.User)
	}
	if outcome.RedirectPath != "/admin" {
		t.Fatalf("expected admin dashboard redirect, got %q", outcome.RedirectPath)
	}

	snap := engine.Snapshot()
	if !snap.Authenticated() {
		t.Fatalf("expected authenticated snapshot, got state %v", snap.State)
	}
	if snap.AccessToken == "" || snap.RefreshToken == "" {
		t.Fatal("expected a full token pair in the snapshot")
	}
	if snap.Tier != session.TierVolatile {
		t.Fatalf("expected volatile tier without remember-me, got %v", snap.Tier)
	}
	if engine.Phase() != PhaseAuthenticated {
		t.Fatalf("expected authenticated phase, got %v", engine.Phase())
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	backend := newFakeBackend(t)
	engine := newTestEngine(t, backend)

	_, err := engine.Login(context.Background(), "alice@hostwire.test", "wrong", false)
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if engine.Phase() != PhaseCredentials {
		t.Fatalf("expected to stay in credentials phase, got %v", engine.Phase())
	}
	if engine.Snapshot().State == session.StateAuthenticated {
		t.Fatal("expected no session after rejected login")
	}
}

func TestLoginLockedAccount(t *testing.T) {
	backend := newFakeBackend(t)
	backend.locked = true
	engine := newTestEngine(t, backend)

	_, err := engine.Login(context.Background(), "alice@hostwire.test", "correct-password-123", false)
	if !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked, got %v", err)
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	backend := newFakeBackend(t)
	backend.inactive = true
	engine := newTestEngine(t, backend)

	_, err := engine.Login(context.Background(), "alice@hostwire.test", "correct-password-123", false)
	if !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}
}

func TestLoginNetworkFailure(t *testing.T) {
	backend := newFakeBackend(t)
	engine := newTestEngine(t, backend)
	backend.srv.Close()

	_, err := engine.Login(context.Background(), "alice@hostwire.test", "correct-password-123", false)
	if !errors.Is(err, ErrNetworkUnavailable) {
		t.Fatalf("expected ErrNetworkUnavailable, got %v", err)
	}
	if engine.Phase() != PhaseCredentials {
		t.Fatalf("expected to stay in credentials phase, got %v", engine.Phase())
	}
}

func TestLoginRememberMePersistsDurably(t *testing.T) {
	backend := newFakeBackend(t)
	durable := session.NewMemoryStorage()
	engine := newTestEngine(t, backend, withDurable(durable))

	if _, err := engine.Login(context.Background(), "alice@hostwire.test", "correct-password-123", true); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if engine.Snapshot().Tier != session.TierDurable {
		t.Fatalf("expected durable tier with remember-me, got %v", engine.Snapshot().Tier)
	}
	if _, err := durable.Read(context.Background()); err != nil {
		t.Fatalf("expected a durable record, got %v", err)
	}
}

func TestLoginRedirectFollowsRoleDashboard(t *testing.T) {
	cases := []struct {
		role string
		want string
	}{
		{"admin", "/admin"},
		{"corporate", "/corporate"},
		{"client", "/dashboard"},
		{"support_agent", "/support"},
		{"support_manager", "/support"},
	}

	for _, tc := range cases {
		t.Run(tc.role, func(t *testing.T) {
			backend := newFakeBackend(t)
			backend.user.Role = tc.role
			engine := newTestEngine(t, backend)

			outcome, err := engine.Login(context.Background(), "alice@hostwire.test", "correct-password-123", false)
			if err != nil {
				t.Fatalf("Login failed: %v", err)
			}
			if outcome.RedirectPath != tc.want {
				t.Fatalf("expected redirect %q for role %s, got %q", tc.want, tc.role, outcome.RedirectPath)
			}
		})
	}
}

func TestUserMessageCoversTaxonomy(t *testing.T) {
	seen := map[string]bool{}
	for _, err := range []error{
		ErrInvalidCredentials,
		ErrAccountLocked,
		ErrAccountInactive,
		ErrInvalidTwoFactorCode,
		ErrNetworkUnavailable,
		ErrSessionExpired,
		errors.New("raw backend detail: stack trace"),
	} {
		msg := UserMessage(err)
		if msg == "" {
			t.Fatalf("expected a user message for %v", err)
		}
		if seen[msg] {
			t.Fatalf("expected a distinct message for %v, got duplicate %q", err, msg)
		}
		seen[msg] = true
	}
	if UserMessage(errors.New("whatever")) != "Something went wrong. Please try again." {
		t.Fatal("expected unmapped errors to collapse to the generic message")
	}
}

func TestLogoutClearsLocallyAndNotifiesBackend(t *testing.T) {
	backend := newFakeBackend(t)
	durable := session.NewMemoryStorage()
	engine := newTestEngine(t, backend, withDurable(durable))

	if _, err := engine.Login(context.Background(), "alice@hostwire.test", "correct-password-123", true); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	engine.Logout(context.Background())

	snap := engine.Snapshot()
	if snap.State != session.StateAnonymous {
		t.Fatalf("expected anonymous state after logout, got %v", snap.State)
	}
	if snap.AccessToken != "" || snap.RefreshToken != "" || snap.User != nil {
		t.Fatal("expected the whole tuple to be cleared")
	}
	if _, err := durable.Read(context.Background()); !errors.Is(err, session.ErrNoRecord) {
		t.Fatalf("expected the durable record to be gone, got %v", err)
	}
	if engine.Phase() != PhaseLoggedOut {
		t.Fatalf("expected logged-out phase, got %v", engine.Phase())
	}

	// The backend call is best-effort and asynchronous.
	deadline := time.Now().Add(2 * time.Second)
	for {
		backend.mu.Lock()
		calls := backend.logoutCalls
		backend.mu.Unlock()
		if calls == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("expected the backend logout call to land")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Logout is idempotent: a second call neither fails nor re-notifies.
	engine.Logout(context.Background())
	if engine.Snapshot().State != session.StateAnonymous {
		t.Fatal("expected logout to stay anonymous")
	}
}

func TestEngineAuthorizeCountsDecisions(t *testing.T) {
	backend := newFakeBackend(t)
	backend.user.Role = "client"
	engine := newTestEngine(t, backend)

	result := engine.Authorize(routeguard.RequireRoles("admin"), "/admin")
	if result.Decision != routeguard.DecisionPending {
		t.Fatalf("expected DecisionPending before hydration, got %v", result.Decision)
	}

	if _, err := engine.Hydrate(context.Background()); err != nil {
		t.Fatalf("Hydrate failed: %v", err)
	}
	result = engine.Authorize(routeguard.RequireRoles("admin"), "/admin")
	if result.Decision != routeguard.DecisionLoginRedirect || result.ReturnTo != "/admin" {
		t.Fatalf("expected a login redirect recording /admin, got %+v", result)
	}

	if _, err := engine.Login(context.Background(), "alice@hostwire.test", "correct-password-123", false); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	result = engine.Authorize(routeguard.RequireRoles("admin"), "/admin")
	if result.Decision != routeguard.DecisionDashboardRedirect || result.RedirectPath != "/dashboard" {
		t.Fatalf("expected a redirect to the client dashboard, got %+v", result)
	}
	result = engine.Authorize(routeguard.RequireRoles("client"), "/dashboard")
	if result.Decision != routeguard.DecisionAllow {
		t.Fatalf("expected DecisionAllow, got %v", result.Decision)
	}

	counters := engine.MetricsSnapshot().Counters
	if counters[MetricGuardLoginRedirect] != 1 || counters[MetricGuardRoleRedirect] != 1 || counters[MetricGuardAllowed] != 1 {
		t.Fatalf("unexpected guard counters: %v", counters)
	}
}

func TestHasRoleAndPermissionAreStrict(t *testing.T) {
	backend := newFakeBackend(t)
	backend.user.Role = "support_agent"
	engine := newTestEngine(t, backend)

	if _, err := engine.Login(context.Background(), "alice@hostwire.test", "correct-password-123", false); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if !engine.HasRole("support_agent") {
		t.Fatal("expected HasRole to match the exact role")
	}
	if engine.HasRole("admin") || engine.HasRole("support_manager") {
		t.Fatal("expected no role hierarchy or substring matching")
	}
	if !engine.HasPermission("tickets.read") {
		t.Fatal("expected support agents to view tickets")
	}
	if engine.HasPermission("settings.manage") {
		t.Fatal("expected support agents to lack settings access")
	}
}
