package consoleauth

import (
	"context"
	"errors"
	"time"
)

// CompleteTwoFactor submits a one-time code against the pending challenge.
// A wrong code leaves the challenge live so the user can retry; the backend
// alone decides when enough is enough. A stale response (the user cancelled
// or restarted the login meanwhile) is discarded as [ErrAttemptSuperseded].
func (e *Engine) CompleteTwoFactor(ctx context.Context, code string) (*LoginOutcome, error) {
	if e == nil || e.gateway == nil {
		return nil, ErrEngineNotReady
	}

	token, remember, attempt, err := e.machine.pendingToken()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	reply, err := e.gateway.CompleteTwoFactor(ctx, token, code)
	e.observeGatewayLatency(start)
	if err != nil {
		if !e.machine.current(attempt) {
			e.metricInc(MetricLoginSuperseded)
			return nil, ErrAttemptSuperseded
		}
		e.metricInc(MetricTwoFactorFailure)
		e.emitAudit(ctx, auditEventTwoFactorFailure, false, "", "", err, nil)
		return nil, err
	}

	outcome, err := e.establishSession(ctx, attempt, reply.User, reply.AccessToken, reply.RefreshToken, remember)
	if err != nil {
		return nil, err
	}
	e.metricInc(MetricTwoFactorSuccess)
	e.emitAudit(ctx, auditEventTwoFactorSuccess, true, outcome.User.ID, outcome.User.Role, nil, nil)
	return outcome, nil
}

// Enrollment returns the live enrollment material for display while the
// flow sits in [PhaseTwoFactorEnrollment], or nil.
func (e *Engine) Enrollment() *TwoFactorEnrollment {
	return e.machine.currentEnrollment()
}

// VerifyTwoFactorEnrollment proves possession of the freshly enrolled
// authenticator and finishes the login: verification is followed by a
// re-login with the credentials retained from the original submission, so
// the user never re-enters the password. A wrong code keeps the enrollment
// (and the retained credentials) live for another try.
func (e *Engine) VerifyTwoFactorEnrollment(ctx context.Context, code string) (*LoginOutcome, error) {
	if e == nil || e.gateway == nil {
		return nil, ErrEngineNotReady
	}

	email, password, remember, attempt, err := e.machine.enrollmentCredentials()
	if err != nil {
		return nil, err
	}

	if err := e.gateway.VerifyTwoFactor(ctx, email, code); err != nil {
		if !e.machine.current(attempt) {
			e.metricInc(MetricLoginSuperseded)
			return nil, ErrAttemptSuperseded
		}
		e.metricInc(MetricTwoFactorFailure)
		e.emitAudit(ctx, auditEventEnrollmentFailure, false, "", "", err, nil)
		return nil, err
	}

	// Re-submit the original credentials. With 2FA now active the backend
	// may hand back tokens directly or issue a regular challenge.
	reply, err := e.gateway.Login(ctx, email, password)
	if err != nil {
		if !e.machine.current(attempt) {
			e.metricInc(MetricLoginSuperseded)
			return nil, ErrAttemptSuperseded
		}
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", err, nil)
		return nil, err
	}

	if reply.Requires2FA {
		if err := e.machine.setPending(attempt, reply.PendingToken); err != nil {
			e.metricInc(MetricLoginSuperseded)
			return nil, err
		}
		if err := e.machine.apply(attempt, eventChallengeIssued); err != nil {
			return nil, err
		}
		e.metricInc(MetricEnrollmentCompleted)
		e.emitAudit(ctx, auditEventEnrollmentCompleted, true, "", "", nil, nil)
		return &LoginOutcome{Kind: OutcomeTwoFactorRequired}, nil
	}

	outcome, err := e.establishSession(ctx, attempt, reply.User, reply.AccessToken, reply.RefreshToken, remember)
	if err != nil {
		return nil, err
	}
	e.metricInc(MetricEnrollmentCompleted)
	e.emitAudit(ctx, auditEventEnrollmentCompleted, true, outcome.User.ID, outcome.User.Role, nil, nil)
	return outcome, nil
}

// SetupTwoFactor begins voluntary authenticator enrollment for the signed-in
// user and returns the material to display. The account keeps logging in
// without a code until [Engine.ConfirmTwoFactorSetup] succeeds; an expired
// access token is ridden out with one coordinated refresh.
func (e *Engine) SetupTwoFactor(ctx context.Context) (*TwoFactorEnrollment, error) {
	if e == nil || e.gateway == nil {
		return nil, ErrEngineNotReady
	}
	snap := e.Snapshot()
	if !snap.Authenticated() {
		return nil, ErrNotAuthenticated
	}

	enrollment, err := e.gateway.SetupTwoFactor(ctx, snap.AccessToken)
	if errors.Is(err, ErrSessionExpired) {
		access, rerr := e.refreshAccess(ctx)
		if rerr != nil {
			return nil, rerr
		}
		enrollment, err = e.gateway.SetupTwoFactor(ctx, access)
	}
	return enrollment, err
}

// ConfirmTwoFactorSetup activates the authenticator from a prior
// [Engine.SetupTwoFactor] call by proving code possession. The current
// session continues untouched; the next login will demand a code.
func (e *Engine) ConfirmTwoFactorSetup(ctx context.Context, code string) error {
	if e == nil || e.gateway == nil {
		return ErrEngineNotReady
	}
	snap := e.Snapshot()
	if !snap.Authenticated() {
		return ErrNotAuthenticated
	}

	userID, role := snap.User.ID, snap.User.Role
	if err := e.gateway.VerifyTwoFactor(ctx, snap.User.Email, code); err != nil {
		e.metricInc(MetricTwoFactorFailure)
		e.emitAudit(ctx, auditEventEnrollmentFailure, false, userID, role, err, nil)
		return err
	}
	e.metricInc(MetricEnrollmentCompleted)
	e.emitAudit(ctx, auditEventEnrollmentCompleted, true, userID, role, nil, nil)
	return nil
}

// IsTwoFactorError reports whether err is the retryable wrong-code kind, as
// opposed to a failure that requires restarting the login.
func IsTwoFactorError(err error) bool {
	return errors.Is(err, ErrInvalidTwoFactorCode)
}
