package permission

import (
	"errors"
	"sync"
)

// Role slugs form a closed set: the backend never issues a role outside it,
// and the client never invents one.
const (
	RoleAdmin          = "admin"
	RoleCorporate      = "corporate"
	RoleClient         = "client"
	RoleSupportAgent   = "support_agent"
	RoleSupportManager = "support_manager"
)

// Table maps roles to permission slugs and default dashboard paths. It is
// built during initialization, frozen, and read-only afterwards.
type Table struct {
	mu         sync.RWMutex
	grants     map[string]map[string]struct{}
	dashboards map[string]string
	frozen     bool
}

// NewTable creates an empty, unfrozen Table.
func NewTable() *Table {
	return &Table{
		grants:     make(map[string]map[string]struct{}),
		dashboards: make(map[string]string),
	}
}

// Grant adds permission slugs to a role. Must be called before [Table.Freeze].
func (t *Table) Grant(role string, slugs ...string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.frozen {
		return errors.New("permission table frozen")
	}
	if role == "" {
		return errors.New("role name empty")
	}

	set, ok := t.grants[role]
	if !ok {
		set = make(map[string]struct{}, len(slugs))
		t.grants[role] = set
	}
	for _, slug := range slugs {
		if slug == "" {
			return errors.New("permission slug empty")
		}
		set[slug] = struct{}{}
	}
	return nil
}

// SetDashboard records the role's default dashboard path, the target of
// least-privilege redirects. Must be called before [Table.Freeze].
func (t *Table) SetDashboard(role, path string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.frozen {
		return errors.New("permission table frozen")
	}
	if role == "" || path == "" {
		return errors.New("role and dashboard path required")
	}
	t.dashboards[role] = path
	return nil
}

// Freeze makes the table immutable. Further Grant or SetDashboard calls fail.
func (t *Table) Freeze() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frozen = true
}

// KnownRole reports whether the role was registered at all.
func (t *Table) KnownRole(role string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.grants[role]
	return ok
}

// HasPermission reports whether the role holds the exact slug. There are no
// wildcards and no inheritance.
func (t *Table) HasPermission(role, slug string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	set, ok := t.grants[role]
	if !ok {
		return false
	}
	_, ok = set[slug]
	return ok
}

// DashboardPath returns the role's default dashboard and whether the role is
// mapped. Guards fall back to an unauthorized page only when ok is false.
func (t *Table) DashboardPath(role string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	path, ok := t.dashboards[role]
	return path, ok
}
