package session

// AuthState is the tri-state authentication flag. It is [StateUnknown] only
// during startup hydration, before the persisted tokens have been revalidated
// against the backend. Route guards must treat StateUnknown as "wait", never
// as a boolean.
type AuthState uint8

const (
	// StateUnknown means hydration is still in flight.
	StateUnknown AuthState = iota
	// StateAuthenticated means a validated user and token pair are present.
	StateAuthenticated
	// StateAnonymous means no session exists.
	StateAnonymous
)

// String implements fmt.Stringer for log and audit output.
func (s AuthState) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "invalid"
	}
}

// Tier selects the persistence tier tokens are written to. The tier is chosen
// once at login time (remember-me) and cannot change without a fresh login.
type Tier uint8

const (
	// TierVolatile survives only for the process lifetime.
	TierVolatile Tier = iota
	// TierDurable survives a restart.
	TierDurable
)

func (t Tier) String() string {
	if t == TierDurable {
		return "durable"
	}
	return "volatile"
}

// Identity is the immutable user snapshot held for the lifetime of a
// session. It is owned by the backend; the client never mutates it and
// refetches it on login and refresh.
type Identity struct {
	ID               string
	Email            string
	FullName         string
	Role             string
	Active           bool
	TwoFactorEnabled bool
}

// Snapshot is the complete, immutable session tuple observed by readers.
// A Snapshot with tokens always carries a User and vice versa.
type Snapshot struct {
	State        AuthState
	User         *Identity
	AccessToken  string
	RefreshToken string
	Tier         Tier
}

// Authenticated reports whether the snapshot holds a validated session.
func (s Snapshot) Authenticated() bool {
	return s.State == StateAuthenticated && s.User != nil
}
