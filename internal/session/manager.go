// Package session owns the authentication session: the persisted
// credential, the verified identity and the restore cycle.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Breadstickhemmo/42Brat/internal/client"
	"github.com/Breadstickhemmo/42Brat/internal/credstore"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// CredentialStore persists the credential across runs.
type CredentialStore interface {
	LoadToken() (string, error)
	SaveToken(token string) error
	ClearToken() error
}

// Identity resolves the current credential to a user.
type Identity interface {
	Me(ctx context.Context) (*client.User, error)
}

// Authenticator performs the public account endpoints.
type Authenticator interface {
	Login(ctx context.Context, creds client.Credentials) (*client.LoginResponse, error)
	Register(ctx context.Context, reg client.Registration) (string, error)
}

// Session is a snapshot of the manager state.
type Session struct {
	Credential    string
	Identity      *client.User
	Loading       bool
	Authenticated bool
}

// VerifiedMsg carries the outcome of a Verify call.
type VerifiedMsg struct {
	Epoch uint64
	User  *client.User
	Err   error
}

// LoginMsg carries the outcome of a Login call.
type LoginMsg struct {
	Epoch uint64
	Resp  *client.LoginResponse
	Err   error
}

// RegisteredMsg carries the outcome of a Register call.
type RegisteredMsg struct {
	Username string
	Message  string
	Err      error
}

// ErrIncompleteLogin is returned when a login response lacks the token or
// the user.
var ErrIncompleteLogin = errors.New("login response is missing the access token or user")

// Manager holds the session. Apply* methods are called from the UI loop;
// Logout may additionally be called from any goroutine, so all state is
// guarded by mu.
type Manager struct {
	store CredentialStore
	log   *zap.Logger
	now   func() time.Time

	mu            sync.Mutex
	token         string
	user          *client.User
	loading       bool
	authenticated bool
	// epoch advances on every login and logout; responses started in an
	// older epoch are stale.
	epoch uint64
}

// NewManager creates a manager backed by store.
func NewManager(store CredentialStore, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{store: store, log: log, now: time.Now}
}

// SetClock replaces the clock used to check credential expiry.
func (m *Manager) SetClock(now func() time.Time) { m.now = now }

// Restore loads the persisted credential. It returns true when a
// credential was found and a Verify should follow; Loading stays set until
// that verification is applied. A JWT whose exp has passed is discarded
// without contacting the server.
func (m *Manager) Restore() bool {
	tok, err := m.store.LoadToken()
	if err != nil {
		m.log.Warn("reading stored credential", zap.Error(err))
		tok = ""
	}

	if tok != "" && credstore.Expired(tok, m.now()) {
		m.log.Info("stored credential expired, discarding")
		if err := m.store.ClearToken(); err != nil {
			m.log.Warn("clearing stored credential", zap.Error(err))
		}
		tok = ""
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if tok == "" {
		m.token = ""
		m.user = nil
		m.authenticated = false
		m.loading = false
		return false
	}
	m.token = tok
	m.loading = true
	return true
}

// Verify returns a command that resolves the current credential.
func (m *Manager) Verify(ctx context.Context, id Identity) tea.Cmd {
	m.mu.Lock()
	epoch := m.epoch
	m.mu.Unlock()
	return func() tea.Msg {
		u, err := id.Me(ctx)
		return VerifiedMsg{Epoch: epoch, User: u, Err: err}
	}
}

// ApplyVerified installs a verification result. An authorization failure
// clears the session silently; any other failure keeps the prior state
// and is returned for reporting. Loading ends in every case.
func (m *Manager) ApplyVerified(msg VerifiedMsg) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = false

	if msg.Epoch != m.epoch {
		m.log.Debug("discarding stale verification", zap.Uint64("epoch", msg.Epoch), zap.Uint64("current", m.epoch))
		return nil
	}

	switch {
	case msg.Err == nil && msg.User != nil && m.token != "":
		m.user = msg.User
		m.authenticated = true
		m.log.Info("session restored", zap.Int("user_id", msg.User.ID), zap.String("username", msg.User.Username))
		return nil
	case msg.Err == nil:
		// Nothing to install: either no user came back or the credential
		// is already gone.
		return nil
	case client.IsUnauthorized(msg.Err):
		m.clearLocked()
		return nil
	default:
		m.log.Warn("session verification failed", zap.Error(msg.Err))
		return msg.Err
	}
}

// Login returns a command that exchanges creds for a credential.
func (m *Manager) Login(ctx context.Context, auth Authenticator, creds client.Credentials) tea.Cmd {
	m.mu.Lock()
	epoch := m.epoch
	m.mu.Unlock()
	return func() tea.Msg {
		resp, err := auth.Login(ctx, creds)
		return LoginMsg{Epoch: epoch, Resp: resp, Err: err}
	}
}

// ApplyLogin installs a login result. Both the access token and the user
// must be present. The error, if any, belongs to the login form.
func (m *Manager) ApplyLogin(msg LoginMsg) error {
	if msg.Err != nil {
		return msg.Err
	}
	if msg.Resp == nil || msg.Resp.AccessToken == "" || msg.Resp.User == nil {
		return ErrIncompleteLogin
	}

	if err := m.store.SaveToken(msg.Resp.AccessToken); err != nil {
		m.log.Warn("persisting credential", zap.Error(err))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.epoch++
	m.token = msg.Resp.AccessToken
	m.user = msg.Resp.User
	m.authenticated = true
	m.loading = false
	m.log.Info("logged in", zap.Int("user_id", m.user.ID), zap.String("username", m.user.Username))
	return nil
}

// Register returns a command that creates an account. It never changes the
// session.
func (m *Manager) Register(ctx context.Context, auth Authenticator, reg client.Registration) tea.Cmd {
	return func() tea.Msg {
		msg, err := auth.Register(ctx, reg)
		return RegisteredMsg{Username: reg.Username, Message: msg, Err: err}
	}
}

// Logout clears the session and the persisted credential. It is
// idempotent and reports whether there was anything to clear.
func (m *Manager) Logout() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	had := m.token != "" || m.authenticated
	m.clearLocked()
	return had
}

// LogoutIfCurrent clears the session only while token is still the current
// credential. A rejection of a credential from an earlier session is
// ignored. It reports whether the session was cleared.
func (m *Manager) LogoutIfCurrent(token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if token != m.token {
		m.log.Info("ignoring rejection of a superseded credential")
		return false
	}
	had := m.token != "" || m.authenticated
	m.clearLocked()
	return had
}

func (m *Manager) clearLocked() {
	if err := m.store.ClearToken(); err != nil {
		m.log.Warn("clearing stored credential", zap.Error(err))
	}
	if m.token != "" || m.authenticated {
		m.log.Info("session cleared")
	}
	m.epoch++
	m.token = ""
	m.user = nil
	m.authenticated = false
	m.loading = false
}

// Token returns the current credential. It implements client.TokenSource.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// User returns the verified identity, or nil.
func (m *Manager) User() *client.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// Authenticated reports whether a verified session is active.
func (m *Manager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authenticated
}

// Loading reports whether a restored credential is still being verified.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// IsAdmin reports whether the verified identity is an administrator.
func (m *Manager) IsAdmin() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user != nil && m.user.IsAdmin
}

// Snapshot returns the whole state at once.
func (m *Manager) Snapshot() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Session{
		Credential:    m.token,
		Identity:      m.user,
		Loading:       m.loading,
		Authenticated: m.authenticated,
	}
}
