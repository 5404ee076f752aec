package push_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/facilitycare/client-go/credentials"
	"github.com/facilitycare/client-go/notifications"
	"github.com/facilitycare/client-go/push"
)

type fakeReceiver struct {
	mu       sync.Mutex
	ingested []notifications.Notification
	toasts   []notifications.Toast
}

func (r *fakeReceiver) Ingest(n notifications.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ingested = append(r.ingested, n)
}

func (r *fakeReceiver) TriggerToastEvent(toast notifications.Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, toast)
}

func (r *fakeReceiver) snapshot() ([]notifications.Notification, []notifications.Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notifications.Notification(nil), r.ingested...), append([]notifications.Toast(nil), r.toasts...)
}

// wsServer upgrades /notifications/ requests, records the token query
// parameter and counts live connections.
type wsServer struct {
	server   *httptest.Server
	upgrader websocket.Upgrader

	mu     sync.Mutex
	conns  []*websocket.Conn
	tokens []string
	opens  int32
}

func newWSServer(t *testing.T) *wsServer {
	t.Helper()
	s := &wsServer{}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/notifications/") {
			http.NotFound(w, r)
			return
		}
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		atomic.AddInt32(&s.opens, 1)
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.tokens = append(s.tokens, r.URL.Query().Get("token"))
		s.mu.Unlock()
		// Keep the connection open; discard anything the client sends.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}))
	t.Cleanup(s.server.Close)
	return s
}

func (s *wsServer) wsURL() string {
	return "ws" + strings.TrimPrefix(s.server.URL, "http")
}

func (s *wsServer) send(t *testing.T, payload string) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.conns)
	conn := s.conns[len(s.conns)-1]
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(payload)))
}

func (s *wsServer) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.conns {
		_ = conn.Close()
	}
	s.conns = nil
}

func newManager(t *testing.T, s *wsServer, receiver push.Receiver, options ...push.Option) (*push.Manager, *credentials.MemoryStore) {
	t.Helper()
	store := credentials.NewMemoryStore()
	store.Save("access-token", "refresh-token")
	manager, err := push.NewManager(s.wsURL(), store, receiver, options...)
	require.NoError(t, err)
	t.Cleanup(manager.Disconnect)
	return manager, store
}

func waitConnected(t *testing.T, m *push.Manager) {
	t.Helper()
	require.Eventually(t, m.Connected, 2*time.Second, 10*time.Millisecond)
}

// Property: calling Connect twice without an intervening Disconnect results
// in exactly one open connection.
func TestConnectIsIdempotent(t *testing.T) {
	s := newWSServer(t)
	manager, _ := newManager(t, s, &fakeReceiver{})

	manager.Connect()
	manager.Connect()
	waitConnected(t, manager)

	// Give a hypothetical second dial time to land before asserting.
	time.Sleep(50 * time.Millisecond)
	require.EqualValues(t, 1, atomic.LoadInt32(&s.opens))
}

func TestConnectCarriesAccessTokenAsQueryCredential(t *testing.T) {
	s := newWSServer(t)
	manager, _ := newManager(t, s, &fakeReceiver{})

	manager.Connect()
	waitConnected(t, manager)

	s.mu.Lock()
	defer s.mu.Unlock()
	require.Equal(t, []string{"access-token"}, s.tokens)
}

func TestInboundMessageReachesStoreAndToast(t *testing.T) {
	s := newWSServer(t)
	receiver := &fakeReceiver{}
	manager, _ := newManager(t, s, receiver)

	manager.Connect()
	waitConnected(t, manager)

	s.send(t, `{"notification": {"id": 5, "title": "Request 12 updated", "message": "Status changed", "service_request_id": 12, "is_read": false}}`)

	require.Eventually(t, func() bool {
		ingested, _ := receiver.snapshot()
		return len(ingested) == 1
	}, 2*time.Second, 10*time.Millisecond)

	ingested, toasts := receiver.snapshot()
	require.EqualValues(t, 5, ingested[0].ID)
	require.False(t, ingested[0].IsRead)

	require.Len(t, toasts, 1)
	require.Equal(t, notifications.ToastInfo, toasts[0].Kind)
	require.Equal(t, "Request 12 updated", toasts[0].Title)
	require.Equal(t, "/requests/12", toasts[0].ActionPath)
}

func TestUnparseableMessageIsDiscarded(t *testing.T) {
	s := newWSServer(t)
	receiver := &fakeReceiver{}
	manager, _ := newManager(t, s, receiver)

	manager.Connect()
	waitConnected(t, manager)

	s.send(t, `not json`)
	s.send(t, `{"notification": {"id": 6, "title": "ok", "service_request_id": 1}}`)

	require.Eventually(t, func() bool {
		ingested, _ := receiver.snapshot()
		return len(ingested) == 1
	}, 2*time.Second, 10*time.Millisecond)

	ingested, _ := receiver.snapshot()
	require.EqualValues(t, 6, ingested[0].ID)
}

func TestDisconnectIsIdempotent(t *testing.T) {
	s := newWSServer(t)
	manager, _ := newManager(t, s, &fakeReceiver{})

	manager.Connect()
	waitConnected(t, manager)

	manager.Disconnect()
	manager.Disconnect()
	require.False(t, manager.Connected())
}

// Without the reconnect option, a server-side close releases ownership and a
// later Connect opens a fresh connection (the session manager drives it).
func TestServerCloseReleasesOwnership(t *testing.T) {
	s := newWSServer(t)
	manager, _ := newManager(t, s, &fakeReceiver{})

	manager.Connect()
	waitConnected(t, manager)

	s.closeAll()
	require.Eventually(t, func() bool {
		return !manager.Connected()
	}, 2*time.Second, 10*time.Millisecond)

	manager.Connect()
	waitConnected(t, manager)
	require.EqualValues(t, 2, atomic.LoadInt32(&s.opens))
}

// With the reconnect option, a dropped connection comes back by itself.
func TestReconnectAfterServerClose(t *testing.T) {
	s := newWSServer(t)
	manager, _ := newManager(t, s, &fakeReceiver{}, push.WithReconnect())

	manager.Connect()
	waitConnected(t, manager)

	s.closeAll()
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&s.opens) >= 2 && manager.Connected()
	}, 5*time.Second, 10*time.Millisecond)
}
