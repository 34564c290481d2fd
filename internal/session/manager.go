package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vidtalk/internal/models"
	"github.com/desertthunder/vidtalk/internal/shared"
)

// Authenticator exchanges credentials for a token. [services.APIService] implements it.
type Authenticator interface {
	Login(ctx context.Context, creds models.Credentials) (*models.TokenResponse, error)
	Register(ctx context.Context, reg models.Registration) (*models.TokenResponse, error)
}

// Manager is the single owner of the current session.
//
// It is safe for concurrent use. Readers always observe either the state before or
// after a Login, Register or Logout, never a mix.
type Manager struct {
	mu      sync.RWMutex
	token   string
	lastErr error

	auth   Authenticator
	store  TokenStore
	logger *log.Logger
}

// NewManager restores any token held by store. No request is made: a stored token
// is trusted until the backend rejects it.
//
// A nil store is replaced with an empty [MemoryStore] and a nil logger with the default one.
func NewManager(auth Authenticator, store TokenStore, logger *log.Logger) *Manager {
	if store == nil {
		store = NewMemoryStore("")
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	m := &Manager{
		auth:   auth,
		store:  store,
		logger: shared.WithLogger(logger, "component", "session"),
	}

	token, err := store.Load()
	if err != nil {
		m.logger.Warn("failed to restore session, starting signed out", "error", err)
		return m
	}

	m.token = token
	if token != "" {
		m.logger.Debug("restored session from store")
	}
	return m
}

// Login authenticates with email and password and reports whether it succeeded.
//
// On failure the previous session, if any, is left in place.
func (m *Manager) Login(ctx context.Context, email, password string) bool {
	if m.auth == nil {
		return m.fail("login", fmt.Errorf("%w: no authenticator configured", shared.ErrAuthFailed))
	}

	resp, err := m.auth.Login(ctx, models.Credentials{Email: email, Password: password})
	if err != nil {
		return m.fail("login", err)
	}
	return m.accept("login", resp)
}

// Register creates an account and signs in as it, reporting whether both succeeded.
func (m *Manager) Register(ctx context.Context, email, username, password string) bool {
	if m.auth == nil {
		return m.fail("register", fmt.Errorf("%w: no authenticator configured", shared.ErrRegistrationFailed))
	}

	resp, err := m.auth.Register(ctx, models.Registration{Email: email, Username: username, Password: password})
	if err != nil {
		return m.fail("register", fmt.Errorf("%w: %w", shared.ErrRegistrationFailed, err))
	}
	return m.accept("register", resp)
}

// Logout forgets the token in memory and in the store. It never fails.
func (m *Manager) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Clear(); err != nil {
		m.logger.Warn("failed to clear stored token", "error", err)
	}
	m.token = ""
	m.lastErr = nil
}

// State returns a snapshot of the session.
func (m *Manager) State() models.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return models.Session{Token: m.token}
}

// Token returns the bearer token, or "" when signed out.
func (m *Manager) Token() string {
	return m.State().Token
}

func (m *Manager) IsAuthenticated() bool {
	return m.State().IsAuthenticated()
}

// Err returns the reason the most recent Login or Register returned false.
//
// It is cleared by a later success or by Logout.
func (m *Manager) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// Claims decodes the current token for display. ok is false when signed out or
// when the token is not a JWT.
func (m *Manager) Claims() (Claims, bool) {
	token := m.Token()
	if token == "" {
		return Claims{}, false
	}

	claims, err := ParseClaims(token)
	if err != nil {
		m.logger.Debug("token is not a decodable JWT", "error", err)
		return Claims{}, false
	}
	return claims, true
}

func (m *Manager) accept(op string, resp *models.TokenResponse) bool {
	if resp == nil || resp.AccessToken == "" {
		return m.fail(op, fmt.Errorf("%w: empty access token", shared.ErrMalformedResponse))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Save(resp.AccessToken); err != nil {
		m.lastErr = err
		m.logger.Error(op+" failed", "error", err)
		return false
	}

	m.token = resp.AccessToken
	m.lastErr = nil
	m.logger.Info(op + " succeeded")
	return true
}

func (m *Manager) fail(op string, err error) bool {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()

	m.logger.Error(op+" failed", "error", err)
	return false
}
