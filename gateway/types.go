package gateway

import (
	"time"

	"github.com/hostwire/consoleauth/session"
)

// userPayload is the backend's user representation on the wire.
type userPayload struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	FullName      string `json:"full_name"`
	Role          string `json:"role"`
	IsActive      bool   `json:"is_active"`
	Is2FAEnabled  bool   `json:"is_2fa_enabled"`
}

func (u *userPayload) identity() *session.Identity {
	if u == nil {
		return nil
	}
	return &session.Identity{
		ID:               u.ID,
		Email:            u.Email,
		FullName:         u.FullName,
		Role:             u.Role,
		Active:           u.IsActive,
		TwoFactorEnabled: u.Is2FAEnabled,
	}
}

// LoginReply is the decoded outcome of POST /auth/login. Exactly one of the
// three shapes is populated: a full token pair, a pending 2FA challenge, or
// a mandatory-enrollment signal.
type LoginReply struct {
	User         *session.Identity
	AccessToken  string
	RefreshToken string

	Requires2FA  bool
	PendingToken string

	SetupRequired bool
}

// TokenReply is a completed authentication: user snapshot plus token pair.
type TokenReply struct {
	User         *session.Identity
	AccessToken  string
	RefreshToken string
}

// Enrollment carries the material for a mandatory 2FA setup. Backup codes
// appear here exactly once and are never persisted client-side.
type Enrollment struct {
	Secret      string
	QRCode      string
	BackupCodes []string
}

// SessionInfo describes one active backend session, as listed by
// GET /auth/sessions.
type SessionInfo struct {
	ID        string    `json:"id"`
	UserAgent string    `json:"user_agent"`
	IP        string    `json:"ip"`
	CreatedAt time.Time `json:"created_at"`
	Current   bool      `json:"current"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken   string       `json:"access_token"`
	RefreshToken  string       `json:"refresh_token"`
	User          *userPayload `json:"user"`
	Requires2FA   bool         `json:"requires_2fa"`
	PendingToken  string       `json:"pending_token"`
	SetupRequired bool         `json:"twofa_setup_required"`
}

type completeTwoFactorRequest struct {
	PendingToken string `json:"pending_token"`
	Code         string `json:"code"`
}

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *userPayload `json:"user"`
}

type enrollmentResponse struct {
	Secret      string   `json:"secret"`
	QRCode      string   `json:"qr_code"`
	BackupCodes []string `json:"backup_codes"`
}

type verifyTwoFactorRequest struct {
	Email string `json:"email,omitempty"`
	Code  string `json:"code"`
}

type resetRequestRequest struct {
	Email string `json:"email"`
}

type resetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type sessionsResponse struct {
	Sessions []SessionInfo `json:"sessions"`
}

// apiError is the backend's structured error envelope.
type apiError struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}
