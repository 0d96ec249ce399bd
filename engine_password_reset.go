package consoleauth

import "context"

// RequestPasswordReset asks the backend to mail a single-use reset token.
// The backend answers the same way whether or not the email exists; the
// client surfaces no account-existence signal.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) error {
	if e == nil || e.gateway == nil {
		return ErrEngineNotReady
	}
	err := e.gateway.RequestPasswordReset(ctx, email)
	e.metricInc(MetricPasswordResetRequest)
	e.emitAudit(ctx, auditEventPasswordResetRequest, err == nil, "", "", err, nil)
	return err
}

// ConfirmPasswordReset consumes a mailed reset token. It does not log the
// user in; the flow returns to the credentials phase.
func (e *Engine) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if e == nil || e.gateway == nil {
		return ErrEngineNotReady
	}
	err := e.gateway.ResetPassword(ctx, token, newPassword)
	e.metricInc(MetricPasswordResetConfirm)
	e.emitAudit(ctx, auditEventPasswordResetConfirm, err == nil, "", "", err, nil)
	return err
}
