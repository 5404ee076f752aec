// Package push maintains the live notification channel: a single websocket
// connection held for the lifetime of a regular-role session. Inbound events
// are parsed into notification records, handed to the notification store and
// surfaced as a toast pointing at the related service request.
package push

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/facilitycare/client-go/credentials"
	"github.com/facilitycare/client-go/notifications"
)

// Receiver consumes parsed notifications. Satisfied by *notifications.Store.
type Receiver interface {
	Ingest(notifications.Notification)
	TriggerToastEvent(notifications.Toast)
}

// Manager owns at most one live connection. Connect and Disconnect are
// idempotent; the raw connection is never exposed.
type Manager struct {
	wsBaseURL string
	store     credentials.Store
	receiver  Receiver
	dialer    *websocket.Dialer
	logger    zerolog.Logger
	reconnect bool

	mu         sync.Mutex
	active     bool
	generation uint64
	conn       *websocket.Conn
	cancel     context.CancelFunc
}

// Option modifies a Manager at construction time.
type Option func(*Manager)

// WithReconnect enables reconnect with capped exponential backoff. Off by
// default: the stock behavior on connection loss is close-and-forget until the
// session manager reconnects (e.g. next login).
func WithReconnect() Option {
	return func(m *Manager) {
		m.reconnect = true
	}
}

// WithDialer replaces the websocket dialer (tests point it at a local server).
func WithDialer(dialer *websocket.Dialer) Option {
	return func(m *Manager) {
		m.dialer = dialer
	}
}

// NewManager creates a push channel manager. The connection URL carries the
// current access token as a query credential because a persistent connection
// cannot attach per-request headers.
func NewManager(wsBaseURL string, store credentials.Store, receiver Receiver, options ...Option) (*Manager, error) {
	if wsBaseURL == "" {
		return nil, errors.New("[push.NewManager] wsBaseURL is required")
	}
	if store == nil {
		return nil, errors.New("[push.NewManager] credential store is required")
	}
	if receiver == nil {
		return nil, errors.New("[push.NewManager] receiver is required")
	}

	m := &Manager{
		wsBaseURL: wsBaseURL,
		store:     store,
		receiver:  receiver,
		dialer:    websocket.DefaultDialer,
		logger:    log.With().Str("component", "push").Logger(),
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// Connect opens the channel. No-op when a connection is already owned.
func (m *Manager) Connect() {
	m.mu.Lock()
	if m.active {
		m.mu.Unlock()
		return
	}
	m.active = true
	m.generation++
	generation := m.generation
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.mu.Unlock()

	go m.run(ctx, generation)
}

// Disconnect closes the owned connection if present and clears ownership.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return
	}
	m.active = false
	cancel := m.cancel
	conn := m.conn
	m.conn = nil
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
	m.logger.Info().Msg("push channel disconnected")
}

// Connected reports whether a live connection is currently owned.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn != nil
}

func (m *Manager) run(ctx context.Context, generation uint64) {
	defer m.release(generation)

	if !m.reconnect {
		if _, err := m.openAndRead(ctx); err != nil && ctx.Err() == nil {
			m.logger.Warn().Err(err).Msg("push channel closed")
		}
		return
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.MaxInterval = 30 * time.Second
	policy.MaxElapsedTime = 0 // keep trying until Disconnect

	_ = backoff.RetryNotify(
		func() error {
			connected, err := m.openAndRead(ctx)
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			// Only a dial that actually connected resets the interval;
			// repeated dial failures keep backing off.
			if connected {
				policy.Reset()
			}
			return err
		},
		backoff.WithContext(policy, ctx),
		func(err error, wait time.Duration) {
			m.logger.Warn().Err(err).Dur("retry_in", wait).Msg("push channel lost, reconnecting")
		},
	)
}

// openAndRead dials with the current access token and pumps messages until
// the connection drops. The bool reports whether the dial succeeded.
func (m *Manager) openAndRead(ctx context.Context) (bool, error) {
	endpoint := m.wsBaseURL + "/notifications/?token=" + url.QueryEscape(m.store.Access())
	conn, resp, err := m.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			return false, errors.Wrapf(err, "[Manager.openAndRead] dial rejected with status %d", resp.StatusCode)
		}
		return false, errors.Wrap(err, "[Manager.openAndRead] dial failed")
	}

	m.mu.Lock()
	if ctx.Err() != nil {
		// Disconnected while dialing.
		m.mu.Unlock()
		_ = conn.Close()
		return true, ctx.Err()
	}
	m.conn = conn
	m.mu.Unlock()

	m.logger.Info().Msg("push channel connected")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			m.mu.Lock()
			if m.conn == conn {
				m.conn = nil
			}
			m.mu.Unlock()
			if ctx.Err() != nil {
				return true, ctx.Err()
			}
			return true, errors.Wrap(err, "[Manager.openAndRead] read failed")
		}
		m.handleMessage(data)
	}
}

func (m *Manager) handleMessage(data []byte) {
	var envelope notifications.Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		m.logger.Warn().Err(err).Msg("discarding unparseable push message")
		return
	}

	record := envelope.Notification
	m.receiver.Ingest(record)
	m.receiver.TriggerToastEvent(notifications.Toast{
		Kind:       notifications.ToastInfo,
		Title:      record.Title,
		Message:    record.Message,
		ActionPath: "/requests/" + strconv.FormatInt(record.ServiceRequestID, 10),
	})
}

// release clears ownership when the read loop exits, unless a newer
// Connect/Disconnect cycle has already taken over.
func (m *Manager) release(generation uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != generation {
		return
	}
	m.active = false
	m.conn = nil
	m.cancel = nil
}
