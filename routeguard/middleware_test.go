package routeguard

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hostwire/consoleauth/permission"
	"github.com/hostwire/consoleauth/session"
)

type staticAuthority struct {
	snap  session.Snapshot
	table *permission.Table
}

func (a staticAuthority) Snapshot() session.Snapshot         { return a.snap }
func (a staticAuthority) PermissionTable() *permission.Table { return a.table }

func guardedRequest(t *testing.T, authority Authority, req Requirement, target string) *httptest.ResponseRecorder {
	t.Helper()

	handler := Guard(authority, req, DefaultPaths())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("content"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestGuardAllows(t *testing.T) {
	authority := staticAuthority{
		snap:  snapshotFor(session.StateAuthenticated, "admin", true),
		table: permission.DefaultTable(),
	}

	rec := guardedRequest(t, authority, RequireRoles("admin"), "/admin/settings")
	if rec.Code != http.StatusOK || rec.Body.String() != "content" {
		t.Fatalf("expected the guarded handler to run, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestGuardPendingAnswersRetryable(t *testing.T) {
	authority := staticAuthority{
		snap:  session.Snapshot{State: session.StateUnknown},
		table: permission.DefaultTable(),
	}

	rec := guardedRequest(t, authority, Requirement{}, "/admin")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 while pending, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Fatal("expected a Retry-After header")
	}
	if loc := rec.Header().Get("Location"); loc != "" {
		t.Fatalf("expected no redirect while pending, got %q", loc)
	}
}

func TestGuardLoginRedirectCarriesReturnTo(t *testing.T) {
	authority := staticAuthority{
		snap:  session.Snapshot{State: session.StateAnonymous},
		table: permission.DefaultTable(),
	}

	rec := guardedRequest(t, authority, Requirement{}, "/admin/reports?month=5")
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login?next=%2Fadmin%2Freports%3Fmonth%3D5" {
		t.Fatalf("unexpected redirect target: %q", loc)
	}
}

func TestGuardRoleMismatchRedirectsToOwnDashboard(t *testing.T) {
	authority := staticAuthority{
		snap:  snapshotFor(session.StateAuthenticated, "client", true),
		table: permission.DefaultTable(),
	}

	rec := guardedRequest(t, authority, RequireRoles("admin"), "/admin")
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Fatalf("expected the client dashboard, got %q", loc)
	}
}

func TestGuardDisabledRedirect(t *testing.T) {
	authority := staticAuthority{
		snap:  snapshotFor(session.StateAuthenticated, "admin", false),
		table: permission.DefaultTable(),
	}

	rec := guardedRequest(t, authority, RequireRoles("admin"), "/admin")
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/account-disabled" {
		t.Fatalf("expected the disabled path, got %q", loc)
	}
}
