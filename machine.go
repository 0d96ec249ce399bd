package consoleauth

import (
	"sync"
)

// LoginPhase is the tagged state of the multi-step login flow. The flow
// starts in [PhaseCredentials]; [PhaseAuthenticated] and [PhaseLoggedOut]
// are the terminal phases of one attempt.
type LoginPhase uint8

const (
	// PhaseCredentials awaits an email/password submission.
	PhaseCredentials LoginPhase = iota
	// PhaseTwoFactorChallenge awaits a one-time code against a pending
	// challenge token.
	PhaseTwoFactorChallenge
	// PhaseTwoFactorEnrollment awaits verification of a mandatory 2FA setup.
	PhaseTwoFactorEnrollment
	// PhaseAuthenticated means the session is established.
	PhaseAuthenticated
	// PhaseLoggedOut means the session ended locally.
	PhaseLoggedOut
)

func (p LoginPhase) String() string {
	switch p {
	case PhaseCredentials:
		return "credentials"
	case PhaseTwoFactorChallenge:
		return "two_factor_challenge"
	case PhaseTwoFactorEnrollment:
		return "two_factor_enrollment"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseLoggedOut:
		return "logged_out"
	default:
		return "invalid"
	}
}

type loginEvent uint8

const (
	eventRestart loginEvent = iota
	eventChallengeIssued
	eventEnrollmentRequired
	eventAuthenticated
	eventCancelled
	eventLoggedOut
)

// transition is the single reducer for the login flow. Every legal edge is
// listed here so the whole flow is exhaustively testable; anything else is
// ErrInvalidTransition.
func transition(phase LoginPhase, event loginEvent) (LoginPhase, error) {
	switch event {
	case eventRestart:
		// A fresh credential submission is legal from any phase and
		// invalidates whatever the previous attempt left behind.
		return PhaseCredentials, nil
	case eventChallengeIssued:
		if phase == PhaseCredentials || phase == PhaseTwoFactorEnrollment {
			return PhaseTwoFactorChallenge, nil
		}
	case eventEnrollmentRequired:
		if phase == PhaseCredentials {
			return PhaseTwoFactorEnrollment, nil
		}
	case eventAuthenticated:
		switch phase {
		case PhaseCredentials, PhaseTwoFactorChallenge, PhaseTwoFactorEnrollment:
			return PhaseAuthenticated, nil
		}
	case eventCancelled:
		if phase == PhaseTwoFactorChallenge || phase == PhaseTwoFactorEnrollment {
			return PhaseCredentials, nil
		}
	case eventLoggedOut:
		return PhaseLoggedOut, nil
	}
	return phase, ErrInvalidTransition
}

// loginMachine holds the per-attempt flow state: the current phase, the
// single live challenge or enrollment, and the credentials retained only
// while a mandatory enrollment is outstanding.
//
// attempt increases on every restart, cancel, and logout; responses carrying
// an older attempt id are stale and must be ignored.
type loginMachine struct {
	mu         sync.Mutex
	phase      LoginPhase
	attempt    uint64
	pending    *PendingTwoFactorChallenge
	enrollment *TwoFactorEnrollment

	// Retained for the post-enrollment re-login only; zeroed on every exit
	// from the enrollment path. Never persisted or logged.
	email    string
	password []byte
	remember bool
}

func newLoginMachine() *loginMachine {
	return &loginMachine{phase: PhaseCredentials}
}

// beginAttempt invalidates any prior challenge or enrollment and restarts
// the flow at PhaseCredentials, returning the new attempt id. The
// remember-me choice is fixed here for the whole attempt.
func (m *loginMachine) beginAttempt(remember bool) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.attempt++
	m.phase = PhaseCredentials
	m.discardLocked()
	m.remember = remember
	return m.attempt
}

// current reports whether the attempt id is still the live one.
func (m *loginMachine) current(attempt uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempt == attempt
}

// apply runs the reducer against the live phase. The caller must already
// hold no machine lock.
func (m *loginMachine) apply(attempt uint64, event loginEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.attempt != attempt {
		return ErrAttemptSuperseded
	}
	next, err := transition(m.phase, event)
	if err != nil {
		return err
	}
	m.phase = next
	switch {
	case next == PhaseAuthenticated || next == PhaseCredentials || next == PhaseLoggedOut:
		m.discardLocked()
	case event == eventChallengeIssued:
		// Once a challenge exists the retained enrollment credentials have
		// served their purpose; only the pending token stays live.
		m.enrollment = nil
		m.email = ""
		for i := range m.password {
			m.password[i] = 0
		}
		m.password = nil
	}
	return nil
}

// cancel aborts an in-flight challenge or enrollment and returns to the
// credentials phase. Outside those phases it only bumps the attempt id so
// late responses die quietly.
func (m *loginMachine) cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.attempt++
	if m.phase == PhaseTwoFactorChallenge || m.phase == PhaseTwoFactorEnrollment {
		m.phase = PhaseCredentials
	}
	m.discardLocked()
}

// loggedOut moves to the terminal logged-out phase, dropping everything.
func (m *loginMachine) loggedOut() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.attempt++
	m.phase = PhaseLoggedOut
	m.discardLocked()
}

// authenticatedExternally records a session established outside the login
// flow (startup hydration).
func (m *loginMachine) authenticatedExternally() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.attempt++
	m.phase = PhaseAuthenticated
	m.discardLocked()
}

func (m *loginMachine) currentPhase() LoginPhase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// setPending installs the single live challenge for this attempt.
func (m *loginMachine) setPending(attempt uint64, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.attempt != attempt {
		return ErrAttemptSuperseded
	}
	m.pending = &PendingTwoFactorChallenge{PendingToken: token}
	return nil
}

// pendingToken returns the live challenge token, the attempt it belongs to,
// and the attempt's remember-me choice, or ErrNoPendingChallenge.
func (m *loginMachine) pendingToken() (token string, remember bool, attempt uint64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseTwoFactorChallenge || m.pending == nil {
		return "", false, 0, ErrNoPendingChallenge
	}
	return m.pending.PendingToken, m.remember, m.attempt, nil
}

// setEnrollment installs the live enrollment and retains the credentials
// needed for the post-enrollment re-login.
func (m *loginMachine) setEnrollment(attempt uint64, enrollment *TwoFactorEnrollment, email, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.attempt != attempt {
		return ErrAttemptSuperseded
	}
	m.enrollment = enrollment
	m.email = email
	m.password = []byte(password)
	return nil
}

// enrollmentCredentials returns the retained credentials for the
// post-enrollment re-login, or ErrNoPendingEnrollment.
func (m *loginMachine) enrollmentCredentials() (email, password string, remember bool, attempt uint64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseTwoFactorEnrollment || m.enrollment == nil {
		return "", "", false, 0, ErrNoPendingEnrollment
	}
	return m.email, string(m.password), m.remember, m.attempt, nil
}

// currentEnrollment returns the live enrollment material for display.
func (m *loginMachine) currentEnrollment() *TwoFactorEnrollment {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseTwoFactorEnrollment {
		return nil
	}
	return m.enrollment
}

// discardLocked drops the challenge, the enrollment, and the retained
// credentials. The password bytes are overwritten before release.
func (m *loginMachine) discardLocked() {
	m.pending = nil
	m.enrollment = nil
	m.email = ""
	for i := range m.password {
		m.password[i] = 0
	}
	m.password = nil
	m.remember = false
}
