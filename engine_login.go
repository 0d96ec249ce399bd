package consoleauth

import (
	"context"
	"time"
)

// Login runs the credentials step of the flow. Starting a new attempt
// invalidates any pending challenge or enrollment from a previous one.
//
// The outcome is one of:
//   - OutcomeAuthenticated — the session is installed in the store and
//     RedirectPath names the role's default dashboard;
//   - OutcomeTwoFactorRequired — a pending challenge awaits
//     [Engine.CompleteTwoFactor];
//   - OutcomeEnrollmentRequired — the role mandates 2FA; the returned
//     enrollment material awaits [Engine.VerifyTwoFactorEnrollment].
//
// Failures are classified taxonomy errors, never raw transport errors; the
// flow stays in the credentials phase so the user can retry.
func (e *Engine) Login(ctx context.Context, email, password string, remember bool) (*LoginOutcome, error) {
	if e == nil || e.gateway == nil {
		return nil, ErrEngineNotReady
	}

	attempt := e.machine.beginAttempt(remember)

	start := time.Now()
	reply, err := e.gateway.Login(ctx, email, password)
	e.observeGatewayLatency(start)
	if err != nil {
		if !e.machine.current(attempt) {
			e.metricInc(MetricLoginSuperseded)
			return nil, ErrAttemptSuperseded
		}
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", err, nil)
		return nil, err
	}

	switch {
	case reply.SetupRequired:
		return e.startEnrollment(ctx, attempt, email, password)

	case reply.Requires2FA:
		if err := e.machine.setPending(attempt, reply.PendingToken); err != nil {
			e.metricInc(MetricLoginSuperseded)
			return nil, err
		}
		if err := e.machine.apply(attempt, eventChallengeIssued); err != nil {
			return nil, err
		}
		e.metricInc(MetricTwoFactorRequired)
		e.emitAudit(ctx, auditEventTwoFactorRequired, true, "", "", nil, nil)
		return &LoginOutcome{Kind: OutcomeTwoFactorRequired}, nil

	default:
		return e.establishSession(ctx, attempt, reply.User, reply.AccessToken, reply.RefreshToken, remember)
	}
}

// startEnrollment fetches the mandatory 2FA setup material through the
// unauthenticated setup-required variant and parks the flow in the
// enrollment phase, retaining the credentials for the re-login that follows
// verification.
func (e *Engine) startEnrollment(ctx context.Context, attempt uint64, email, password string) (*LoginOutcome, error) {
	enrollment, err := e.gateway.SetupTwoFactorWithCredentials(ctx, email, password)
	if err != nil {
		if !e.machine.current(attempt) {
			e.metricInc(MetricLoginSuperseded)
			return nil, ErrAttemptSuperseded
		}
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventEnrollmentFailure, false, "", "", err, nil)
		return nil, err
	}

	if err := e.machine.setEnrollment(attempt, enrollment, email, password); err != nil {
		e.metricInc(MetricLoginSuperseded)
		return nil, err
	}
	if err := e.machine.apply(attempt, eventEnrollmentRequired); err != nil {
		return nil, err
	}
	e.metricInc(MetricEnrollmentRequired)
	e.emitAudit(ctx, auditEventEnrollmentRequired, true, "", "", nil, nil)
	return &LoginOutcome{Kind: OutcomeEnrollmentRequired, Enrollment: enrollment}, nil
}

// establishSession is the single funnel into the authenticated phase: every
// successful path ends here, and the session always lands via the store's
// combined setter.
func (e *Engine) establishSession(ctx context.Context, attempt uint64, user *User, access, refresh string, remember bool) (*LoginOutcome, error) {
	if !e.machine.current(attempt) {
		e.metricInc(MetricLoginSuperseded)
		return nil, ErrAttemptSuperseded
	}
	if err := e.store.SetAuth(ctx, user, access, refresh, remember); err != nil {
		e.metricInc(MetricLoginFailure)
		return nil, err
	}
	if err := e.machine.apply(attempt, eventAuthenticated); err != nil {
		return nil, err
	}
	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, user.ID, user.Role, nil, nil)
	return &LoginOutcome{
		Kind:         OutcomeAuthenticated,
		User:         user,
		RedirectPath: e.dashboardFor(user.Role),
	}, nil
}

// CancelLogin aborts an in-flight challenge or enrollment and returns to
// the credentials phase. The pending token and any retained credentials are
// discarded; late responses from the abandoned attempt are ignored.
func (e *Engine) CancelLogin() {
	e.machine.cancel()
	e.metricInc(MetricLoginCancelled)
	e.emitAudit(context.Background(), auditEventLoginCancelled, true, "", "", nil, nil)
}
