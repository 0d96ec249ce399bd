package routeguard

import (
	"github.com/hostwire/consoleauth/permission"
	"github.com/hostwire/consoleauth/session"
)

// Decision is the single definite outcome of an authorization check.
type Decision uint8

const (
	// DecisionPending means hydration has not settled; render a loading
	// placeholder and do not redirect.
	DecisionPending Decision = iota
	// DecisionAllow means the guarded subtree may render.
	DecisionAllow
	// DecisionLoginRedirect means the visitor is anonymous.
	DecisionLoginRedirect
	// DecisionDashboardRedirect means the session is valid but the role does
	// not match; the target is the user's own default dashboard.
	DecisionDashboardRedirect
	// DecisionDisabledRedirect means the account is no longer active.
	DecisionDisabledRedirect
)

func (d Decision) String() string {
	switch d {
	case DecisionPending:
		return "pending"
	case DecisionAllow:
		return "allow"
	case DecisionLoginRedirect:
		return "login_redirect"
	case DecisionDashboardRedirect:
		return "dashboard_redirect"
	case DecisionDisabledRedirect:
		return "disabled_redirect"
	default:
		return "invalid"
	}
}

// Requirement restricts a route to a set of roles. An empty set admits any
// authenticated, active user.
type Requirement struct {
	Roles []string
}

// RequireRoles builds a Requirement from role slugs.
func RequireRoles(roles ...string) Requirement {
	return Requirement{Roles: roles}
}

func (r Requirement) allows(role string) bool {
	if len(r.Roles) == 0 {
		return true
	}
	for _, want := range r.Roles {
		// Strict equality; no role hierarchy.
		if role == want {
			return true
		}
	}
	return false
}

// Paths names the redirect targets shared by all guards.
type Paths struct {
	Login        string
	Disabled     string
	Unauthorized string
}

// DefaultPaths returns the console's standard redirect targets.
func DefaultPaths() Paths {
	return Paths{
		Login:        "/login",
		Disabled:     "/account-disabled",
		Unauthorized: "/unauthorized",
	}
}

func (p Paths) withDefaults() Paths {
	d := DefaultPaths()
	if p.Login == "" {
		p.Login = d.Login
	}
	if p.Disabled == "" {
		p.Disabled = d.Disabled
	}
	if p.Unauthorized == "" {
		p.Unauthorized = d.Unauthorized
	}
	return p
}

// Result carries the decision and, for redirects, where to go. ReturnTo is
// set only on login redirects and holds the attempted path for post-login
// return.
type Result struct {
	Decision     Decision
	RedirectPath string
	ReturnTo     string
}

// Authorize evaluates one protected route against the current session
// snapshot. It is synchronous, side-effect-free, and safe to call on every
// render.
func Authorize(snap session.Snapshot, table *permission.Table, req Requirement, paths Paths, attemptedPath string) Result {
	paths = paths.withDefaults()

	switch snap.State {
	case session.StateUnknown:
		return Result{Decision: DecisionPending}
	case session.StateAnonymous:
		return Result{
			Decision:     DecisionLoginRedirect,
			RedirectPath: paths.Login,
			ReturnTo:     attemptedPath,
		}
	}

	user := snap.User
	if user == nil {
		// Defensive against a torn snapshot; the store's combined setter
		// makes this unreachable.
		return Result{
			Decision:     DecisionLoginRedirect,
			RedirectPath: paths.Login,
			ReturnTo:     attemptedPath,
		}
	}

	if !req.allows(user.Role) {
		target, ok := table.DashboardPath(user.Role)
		if !ok {
			target = paths.Unauthorized
		}
		return Result{Decision: DecisionDashboardRedirect, RedirectPath: target}
	}

	if !user.Active {
		return Result{Decision: DecisionDisabledRedirect, RedirectPath: paths.Disabled}
	}

	return Result{Decision: DecisionAllow}
}
