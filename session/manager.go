package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/facilitycare/client-go/api"
	"github.com/facilitycare/client-go/credentials"
)

// Routes the manager navigates to on lifecycle transitions.
const (
	RouteDefault = "/"
	RouteLogin   = "/login"
)

// PushChannel is the live notification connection the manager opens for
// regular-role sessions and closes on teardown.
type PushChannel interface {
	Connect()
	Disconnect()
}

// Navigator receives the navigation requests that a browser router would
// handle: to the default route after login, to /login after logout.
type Navigator interface {
	NavigateTo(path string)
}

// NopNavigator ignores navigation requests. Useful for headless callers.
type NopNavigator struct{}

func (NopNavigator) NavigateTo(string) {}

// NopPushChannel ignores connect/disconnect requests.
type NopPushChannel struct{}

func (NopPushChannel) Connect()    {}
func (NopPushChannel) Disconnect() {}

type loginResponse struct {
	Access  string  `json:"access"`
	Refresh string  `json:"refresh"`
	User    Session `json:"user"`
}

type logoutRequest struct {
	Refresh string `json:"refresh"`
}

// Deps holds all collaborator dependencies for the Manager.
type Deps struct {
	API         *api.Client       // Shared request pipeline
	Credentials credentials.Store // Token pair persistence
	Push        PushChannel       // Live notification channel
	Navigator   Navigator         // Route change sink
}

// Subscriber is notified on every state transition. The session pointer is nil
// outside StateAuthenticated.
type Subscriber func(state State, session *Session)

// Manager drives the session state machine
// Unknown -> Restoring -> Authenticated | Anonymous. It is the exclusive owner
// of the Session value; everything else reads it through CurrentSession.
type Manager struct {
	deps   Deps
	logger zerolog.Logger

	mu          sync.RWMutex
	state       State
	session     *Session
	subscribers map[string]Subscriber
}

// NewManager creates a session manager and wires itself to the HTTP client's
// session-expired signal, so a failed refresh exchange anywhere in the app
// forces a local logout.
func NewManager(deps Deps) (*Manager, error) {
	if deps.API == nil {
		return nil, errors.New("[NewManager] API client is required")
	}
	if deps.Credentials == nil {
		return nil, errors.New("[NewManager] credential store is required")
	}
	if deps.Push == nil {
		deps.Push = NopPushChannel{}
	}
	if deps.Navigator == nil {
		deps.Navigator = NopNavigator{}
	}

	m := &Manager{
		deps:        deps,
		logger:      log.With().Str("component", "session").Logger(),
		state:       StateUnknown,
		subscribers: make(map[string]Subscriber),
	}
	deps.API.OnSessionExpired(m.handleSessionExpired)
	return m, nil
}

// CurrentState returns the state machine's current state.
func (m *Manager) CurrentState() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// CurrentSession returns a copy of the session, or nil when not authenticated.
func (m *Manager) CurrentSession() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return nil
	}
	copied := *m.session
	copied.Buildings = append([]Building(nil), m.session.Buildings...)
	return &copied
}

// Subscribe registers a state-transition observer and returns an unsubscribe
// function.
func (m *Manager) Subscribe(subscriber Subscriber) func() {
	id := uuid.New().String()
	m.mu.Lock()
	m.subscribers[id] = subscriber
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.subscribers, id)
		m.mu.Unlock()
	}
}

// Restore re-establishes the session from persisted credentials on app start.
// With no stored access token it settles on Anonymous without a network call.
// Otherwise it asks the backend who the token belongs to; the request pipeline
// silently refreshes an expired access token on the way, so a valid refresh
// token alone is enough to land authenticated.
func (m *Manager) Restore(ctx context.Context) {
	if m.deps.Credentials.Access() == "" {
		m.transition(StateAnonymous, nil)
		return
	}

	m.transition(StateRestoring, nil)

	var user Session
	if err := m.deps.API.Get(ctx, api.EndpointMe, &user); err != nil {
		m.logger.Info().Err(err).Msg("session restore failed")
		m.deps.Credentials.Clear()
		m.transition(StateAnonymous, nil)
		return
	}

	m.logger.Info().Str("username", user.Username).Str("role", string(user.Role)).Msg("session restored")
	m.transition(StateAuthenticated, &user)
	if user.Role == RoleRegular {
		m.deps.Push.Connect()
	}
}

// Login authenticates with the backend. On success it persists the token
// pair, installs the session, connects the push channel for regular users and
// navigates to the default route. On failure any partial credentials are
// cleared, the prior state is kept and the error is returned to the caller
// (the login form shows it field-level).
func (m *Manager) Login(ctx context.Context, creds Credentials) error {
	var resp loginResponse
	if err := m.deps.API.Post(ctx, api.EndpointLogin, creds, &resp); err != nil {
		m.deps.Credentials.Clear()
		return errors.Wrap(err, "[Manager.Login]")
	}

	m.deps.Credentials.Save(resp.Access, resp.Refresh)
	m.logger.Info().Str("username", resp.User.Username).Str("role", string(resp.User.Role)).Msg("logged in")
	m.transition(StateAuthenticated, &resp.User)

	if resp.User.Role == RoleRegular {
		m.deps.Push.Connect()
	}
	m.deps.Navigator.NavigateTo(RouteDefault)
	return nil
}

// Logout notifies the server best-effort so the refresh token is invalidated
// server-side, then always tears the local session down. A network failure
// during the notification never blocks local cleanup.
func (m *Manager) Logout(ctx context.Context) {
	if refreshToken := m.deps.Credentials.Refresh(); refreshToken != "" {
		if err := m.deps.API.Post(ctx, api.EndpointLogout, logoutRequest{Refresh: refreshToken}, nil); err != nil {
			m.logger.Warn().Err(err).Msg("server logout failed, clearing local session anyway")
		}
	}
	m.teardown()
}

// Register creates an account. It is a stateless pass-through: the session is
// not mutated, the caller logs in separately.
func (m *Manager) Register(ctx context.Context, registration Registration) (*RegistrationResult, error) {
	var result RegistrationResult
	if err := m.deps.API.Post(ctx, api.EndpointRegister, registration, &result); err != nil {
		return nil, errors.Wrap(err, "[Manager.Register]")
	}
	return &result, nil
}

// handleSessionExpired runs the logout teardown without the server
// notification call: the refresh token is already invalid, telling the server
// about it would just fail again.
func (m *Manager) handleSessionExpired() {
	m.mu.RLock()
	active := m.state == StateAuthenticated || m.state == StateRestoring
	m.mu.RUnlock()
	if !active {
		return
	}
	m.logger.Info().Msg("session expired, forcing logout")
	m.teardown()
}

func (m *Manager) teardown() {
	m.deps.Credentials.Clear()
	m.deps.Push.Disconnect()
	m.transition(StateAnonymous, nil)
	m.deps.Navigator.NavigateTo(RouteLogin)
}

func (m *Manager) transition(state State, session *Session) {
	m.mu.Lock()
	m.state = state
	m.session = session
	subscribers := make([]Subscriber, 0, len(m.subscribers))
	for _, s := range m.subscribers {
		subscribers = append(subscribers, s)
	}
	m.mu.Unlock()

	for _, subscriber := range subscribers {
		subscriber(state, m.CurrentSession())
	}
}
