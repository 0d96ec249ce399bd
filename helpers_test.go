package consoleauth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hostwire/consoleauth/session"
)

// fakeBackend is an httptest-backed stand-in for the console's auth service.
// Tests flip its fields to steer one scenario; every handler speaks the same
// JSON envelope the real backend does.
type fakeBackend struct {
	t   *testing.T
	mu  sync.Mutex
	srv *httptest.Server

	email    string
	password string
	user     fakeUser

	locked   bool
	inactive bool

	requires2FA   bool
	setupRequired bool
	code          string
	secret        string

	pending      map[string]bool
	validAccess  map[string]bool
	validRefresh map[string]bool
	tokenSeq     int

	refreshDelay  time.Duration
	refreshStatus int // non-zero forces /auth/refresh to fail with it
	refreshCode   string
	meStatus      int // non-zero forces /auth/me to fail with it

	loginCalls    int
	completeCalls int
	setupCalls    int
	verifyCalls   int
	meCalls       int
	refreshCalls  int
	logoutCalls   int
	apiCalls      int
	resetRequests []string
	resetConfirms []string
	revoked       []string
	sessions      []map[string]any
}

type fakeUser struct {
	ID       string
	Email    string
	FullName string
	Role     string
	Active   bool
	TwoFA    bool
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()

	b := &fakeBackend{
		t:        t,
		email:    "alice@hostwire.test",
		password: "correct-password-123",
		code:     "431926",
		secret:   "JBSWY3DPEHPK3PXP",
		user: fakeUser{
			ID:       "u-1001",
			Email:    "alice@hostwire.test",
			FullName: "Alice Moreno",
			Role:     "admin",
			Active:   true,
		},
		pending:      make(map[string]bool),
		validAccess:  make(map[string]bool),
		validRefresh: make(map[string]bool),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", b.handleLogin)
	mux.HandleFunc("POST /auth/login/2fa/complete", b.handleComplete)
	mux.HandleFunc("POST /auth/2fa/setup", b.handleSetup)
	mux.HandleFunc("POST /auth/2fa/verify", b.handleVerify)
	mux.HandleFunc("POST /auth/password/reset-request", b.handleResetRequest)
	mux.HandleFunc("POST /auth/password/reset", b.handleResetConfirm)
	mux.HandleFunc("GET /auth/me", b.handleMe)
	mux.HandleFunc("POST /auth/refresh", b.handleRefresh)
	mux.HandleFunc("POST /auth/logout", b.handleLogout)
	mux.HandleFunc("GET /auth/sessions", b.handleSessions)
	mux.HandleFunc("DELETE /auth/sessions/{id}", b.handleRevoke)
	mux.HandleFunc("GET /api/data", b.handleData)

	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

func (b *fakeBackend) issueTokensLocked() (access, refresh string) {
	b.tokenSeq++
	access = fmt.Sprintf("access-%d", b.tokenSeq)
	refresh = fmt.Sprintf("refresh-%d", b.tokenSeq)
	b.validAccess[access] = true
	b.validRefresh[refresh] = true
	return access, refresh
}

// expireAccessTokens invalidates every outstanding access token while the
// refresh tokens stay valid, simulating access-token expiry.
func (b *fakeBackend) expireAccessTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.validAccess = make(map[string]bool)
}

// revokeAll invalidates every token on the backend side, simulating an
// admin-forced logout.
func (b *fakeBackend) revokeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.validAccess = make(map[string]bool)
	b.validRefresh = make(map[string]bool)
}

func (b *fakeBackend) userJSON() map[string]any {
	return map[string]any{
		"id":             b.user.ID,
		"email":          b.user.Email,
		"full_name":      b.user.FullName,
		"role":           b.user.Role,
		"is_active":      b.user.Active,
		"is_2fa_enabled": b.user.TwoFA,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{"code": code, "message": message},
	})
}

func decodeBody(r *http.Request) map[string]string {
	out := map[string]string{}
	_ = json.NewDecoder(r.Body).Decode(&out)
	return out
}

func bearerToken(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func (b *fakeBackend) handleLogin(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loginCalls++

	body := decodeBody(r)
	if body["email"] != b.email || body["password"] != b.password {
		writeAPIError(w, http.StatusUnauthorized, "invalid_credentials", "bad credentials")
		return
	}
	if b.locked {
		writeAPIError(w, http.StatusLocked, "account_locked", "too many attempts")
		return
	}
	if b.inactive {
		writeAPIError(w, http.StatusForbidden, "account_inactive", "account disabled")
		return
	}
	if b.setupRequired {
		writeJSON(w, http.StatusOK, map[string]any{"twofa_setup_required": true})
		return
	}
	if b.requires2FA {
		b.tokenSeq++
		token := fmt.Sprintf("pending-%d", b.tokenSeq)
		b.pending[token] = true
		writeJSON(w, http.StatusOK, map[string]any{
			"requires_2fa":  true,
			"pending_token": token,
		})
		return
	}

	access, refresh := b.issueTokensLocked()
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  access,
		"refresh_token": refresh,
		"user":          b.userJSON(),
	})
}

func (b *fakeBackend) handleComplete(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.completeCalls++

	body := decodeBody(r)
	if !b.pending[body["pending_token"]] {
		writeAPIError(w, http.StatusUnauthorized, "challenge_consumed", "challenge not found")
		return
	}
	if body["code"] != b.code {
		// Wrong code leaves the challenge live for another try.
		writeAPIError(w, http.StatusUnauthorized, "invalid_2fa_code", "wrong code")
		return
	}
	delete(b.pending, body["pending_token"])

	access, refresh := b.issueTokensLocked()
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  access,
		"refresh_token": refresh,
		"user":          b.userJSON(),
	})
}

func (b *fakeBackend) handleSetup(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setupCalls++

	if token := bearerToken(r); token != "" {
		if !b.validAccess[token] {
			writeAPIError(w, http.StatusUnauthorized, "token_expired", "access token expired")
			return
		}
	} else {
		body := decodeBody(r)
		if body["email"] != b.email || body["password"] != b.password {
			writeAPIError(w, http.StatusUnauthorized, "invalid_credentials", "bad credentials")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"secret":       b.secret,
		"qr_code":      "data:image/png;base64,aGk=",
		"backup_codes": []string{"11111111", "22222222"},
	})
}

func (b *fakeBackend) handleVerify(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.verifyCalls++

	body := decodeBody(r)
	if body["code"] != b.code {
		writeAPIError(w, http.StatusUnauthorized, "invalid_2fa_code", "wrong code")
		return
	}
	// 2FA is now active: the enrollment gate is gone and subsequent logins
	// take the regular path the test has configured.
	b.setupRequired = false
	b.user.TwoFA = true
	w.WriteHeader(http.StatusNoContent)
}

func (b *fakeBackend) handleResetRequest(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	body := decodeBody(r)
	b.resetRequests = append(b.resetRequests, body["email"])
	w.WriteHeader(http.StatusAccepted)
}

func (b *fakeBackend) handleResetConfirm(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	body := decodeBody(r)
	if body["token"] == "expired-token" {
		writeAPIError(w, http.StatusUnprocessableEntity, "validation_failed", "reset token expired")
		return
	}
	b.resetConfirms = append(b.resetConfirms, body["token"])
	w.WriteHeader(http.StatusNoContent)
}

func (b *fakeBackend) handleMe(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.meCalls++

	if b.meStatus != 0 {
		writeAPIError(w, b.meStatus, "internal_error", "upstream unavailable")
		return
	}
	if !b.validAccess[bearerToken(r)] {
		writeAPIError(w, http.StatusUnauthorized, "token_expired", "access token expired")
		return
	}
	writeJSON(w, http.StatusOK, b.userJSON())
}

func (b *fakeBackend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	delay := b.refreshDelay
	b.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshCalls++

	if b.refreshStatus != 0 {
		writeAPIError(w, b.refreshStatus, b.refreshCode, "refresh rejected")
		return
	}
	body := decodeBody(r)
	if !b.validRefresh[body["refresh_token"]] {
		writeAPIError(w, http.StatusUnauthorized, "session_expired", "refresh token revoked")
		return
	}
	// Rotate: the presented refresh token dies with this exchange.
	delete(b.validRefresh, body["refresh_token"])

	access, refresh := b.issueTokensLocked()
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  access,
		"refresh_token": refresh,
		"user":          b.userJSON(),
	})
}

func (b *fakeBackend) handleLogout(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logoutCalls++
	delete(b.validAccess, bearerToken(r))
	w.WriteHeader(http.StatusNoContent)
}

func (b *fakeBackend) handleSessions(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.validAccess[bearerToken(r)] {
		writeAPIError(w, http.StatusUnauthorized, "token_expired", "access token expired")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": b.sessions})
}

func (b *fakeBackend) handleRevoke(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.validAccess[bearerToken(r)] {
		writeAPIError(w, http.StatusUnauthorized, "token_expired", "access token expired")
		return
	}
	b.revoked = append(b.revoked, r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

// handleData is the protected console resource used by transport tests.
func (b *fakeBackend) handleData(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.apiCalls++

	if !b.validAccess[bearerToken(r)] {
		writeAPIError(w, http.StatusUnauthorized, "token_expired", "access token expired")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (b *fakeBackend) counts() (login, complete, refresh, me int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loginCalls, b.completeCalls, b.refreshCalls, b.meCalls
}

// newTestEngine builds an engine against the fake backend with in-memory
// tiers. Options mutate the builder before Build.
func newTestEngine(t *testing.T, backend *fakeBackend, opts ...func(*Builder)) *Engine {
	t.Helper()

	builder := New().WithBaseURL(backend.srv.URL)
	for _, opt := range opts {
		opt(builder)
	}
	engine, err := builder.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func withDurable(storage session.Storage) func(*Builder) {
	return func(b *Builder) { b.WithDurableStorage(storage) }
}
