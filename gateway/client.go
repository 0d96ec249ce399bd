package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hostwire/consoleauth/session"
)

const defaultTimeout = 15 * time.Second

// Config configures the gateway client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string

	// HTTPClient overrides the default client, e.g. for tests or custom
	// transports. The gateway never wraps it with auth logic.
	HTTPClient *http.Client
}

// Client calls the backend authentication REST surface. It is stateless and
// safe for concurrent use.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// NewClient creates a gateway client for the given base URL.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("gateway base URL required")
	}
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid gateway base URL %q", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		http:      httpClient,
	}, nil
}

// Login exchanges credentials for tokens, a pending 2FA challenge, or a
// mandatory-enrollment signal.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginReply, error) {
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", "", loginRequest{Email: email, Password: password}, &resp, ErrInvalidCredentials)
	if err != nil {
		return nil, err
	}

	reply := &LoginReply{
		User:          resp.User.identity(),
		AccessToken:   resp.AccessToken,
		RefreshToken:  resp.RefreshToken,
		Requires2FA:   resp.Requires2FA,
		PendingToken:  resp.PendingToken,
		SetupRequired: resp.SetupRequired,
	}
	if !reply.Requires2FA && !reply.SetupRequired {
		if reply.User == nil || reply.AccessToken == "" || reply.RefreshToken == "" {
			return nil, ErrUnexpectedResponse
		}
	}
	if reply.Requires2FA && reply.PendingToken == "" {
		return nil, ErrUnexpectedResponse
	}
	return reply, nil
}

// CompleteTwoFactor consumes a pending challenge with a one-time code.
func (c *Client) CompleteTwoFactor(ctx context.Context, pendingToken, code string) (*TokenReply, error) {
	var resp tokenResponse
	err := c.do(ctx, http.MethodPost, "/auth/login/2fa/complete", "",
		completeTwoFactorRequest{PendingToken: pendingToken, Code: code}, &resp, ErrInvalidTwoFactorCode)
	if err != nil {
		return nil, err
	}
	return tokenReply(resp)
}

// SetupTwoFactor starts 2FA enrollment for the authenticated user.
func (c *Client) SetupTwoFactor(ctx context.Context, accessToken string) (*Enrollment, error) {
	var resp enrollmentResponse
	err := c.do(ctx, http.MethodPost, "/auth/2fa/setup", accessToken, struct{}{}, &resp, ErrSessionExpired)
	if err != nil {
		return nil, err
	}
	return enrollment(resp)
}

// SetupTwoFactorWithCredentials is the unauthenticated setup-required
// variant: it starts enrollment for an account whose role mandates 2FA
// before the first authenticated session exists.
func (c *Client) SetupTwoFactorWithCredentials(ctx context.Context, email, password string) (*Enrollment, error) {
	var resp enrollmentResponse
	err := c.do(ctx, http.MethodPost, "/auth/2fa/setup", "",
		loginRequest{Email: email, Password: password}, &resp, ErrInvalidCredentials)
	if err != nil {
		return nil, err
	}
	return enrollment(resp)
}

// VerifyTwoFactor activates a pending enrollment by proving code possession.
func (c *Client) VerifyTwoFactor(ctx context.Context, email, code string) error {
	return c.do(ctx, http.MethodPost, "/auth/2fa/verify", "",
		verifyTwoFactorRequest{Email: email, Code: code}, nil, ErrInvalidTwoFactorCode)
}

// RequestPasswordReset asks the backend to mail a reset token.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/password/reset-request", "",
		resetRequestRequest{Email: email}, nil, ErrUnexpectedResponse)
}

// ResetPassword consumes a mailed reset token.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	return c.do(ctx, http.MethodPost, "/auth/password/reset", "",
		resetConfirmRequest{Token: token, NewPassword: newPassword}, nil, ErrUnexpectedResponse)
}

// Me revalidates the access token and returns the current user snapshot.
func (c *Client) Me(ctx context.Context, accessToken string) (*session.Identity, error) {
	var resp userPayload
	err := c.do(ctx, http.MethodGet, "/auth/me", accessToken, nil, &resp, ErrSessionExpired)
	if err != nil {
		return nil, err
	}
	user := resp.identity()
	if user == nil || user.ID == "" {
		return nil, ErrUnexpectedResponse
	}
	return user, nil
}

// Refresh exchanges a refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenReply, error) {
	var resp tokenResponse
	err := c.do(ctx, http.MethodPost, "/auth/refresh", "",
		refreshRequest{RefreshToken: refreshToken}, &resp, ErrSessionExpired)
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		return nil, ErrUnexpectedResponse
	}
	return &TokenReply{
		User:         resp.User.identity(),
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}, nil
}

// Logout invalidates the backend session. Callers treat it as best-effort.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", accessToken, struct{}{}, nil, ErrSessionExpired)
}

// Sessions lists the account's active backend sessions.
func (c *Client) Sessions(ctx context.Context, accessToken string) ([]SessionInfo, error) {
	var resp sessionsResponse
	err := c.do(ctx, http.MethodGet, "/auth/sessions", accessToken, nil, &resp, ErrSessionExpired)
	if err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

// RevokeSession terminates one backend session by id.
func (c *Client) RevokeSession(ctx context.Context, accessToken, sessionID string) error {
	return c.do(ctx, http.MethodDelete, "/auth/sessions/"+url.PathEscape(sessionID), accessToken, nil, nil, ErrSessionExpired)
}

func tokenReply(resp tokenResponse) (*TokenReply, error) {
	user := resp.User.identity()
	if user == nil || resp.AccessToken == "" || resp.RefreshToken == "" {
		return nil, ErrUnexpectedResponse
	}
	return &TokenReply{User: user, AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}, nil
}

func enrollment(resp enrollmentResponse) (*Enrollment, error) {
	if resp.Secret == "" {
		return nil, ErrUnexpectedResponse
	}
	return &Enrollment{Secret: resp.Secret, QRCode: resp.QRCode, BackupCodes: resp.BackupCodes}, nil
}

// do performs one round-trip. unauthorized401 states what a bare 401 means
// on this path; every other failure mode is classified uniformly.
func (c *Client) do(ctx context.Context, method, path, accessToken string, in, out any, unauthorized401 error) error {
	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classify(resp.StatusCode, raw, unauthorized401)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	return nil
}
