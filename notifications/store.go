package notifications

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/facilitycare/client-go/api"
)

// Store is the authoritative local view of notifications plus read-state.
// Records are created by the initial fetch and by live push events, mutated in
// place when marked read, and never deleted.
type Store struct {
	api    *api.Client
	logger zerolog.Logger
	toasts *toaster

	mu    sync.RWMutex
	items []Notification
}

// StoreOption modifies a Store at construction time.
type StoreOption func(*Store)

// WithToastDuration overrides the toast visible duration (tests shorten it).
func WithToastDuration(duration time.Duration) StoreOption {
	return func(s *Store) {
		s.toasts = newToaster(duration)
	}
}

// NewStore creates a notification store backed by the shared request
// pipeline.
func NewStore(apiClient *api.Client, options ...StoreOption) (*Store, error) {
	if apiClient == nil {
		return nil, errors.New("[NewStore] API client is required")
	}
	s := &Store{
		api:    apiClient,
		logger: log.With().Str("component", "notifications").Logger(),
		toasts: newToaster(defaultToastDuration),
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Fetch replaces the local collection with the server's current list. Records
// pushed while the fetch was in flight are kept even if the (possibly stale)
// response does not contain them yet. On failure the collection is left
// untouched: stale-but-available beats empty.
func (s *Store) Fetch(ctx context.Context) error {
	var resp listResponse
	if err := s.api.Get(ctx, api.EndpointNotifications, &resp); err != nil {
		s.logger.Warn().Err(err).Msg("failed to fetch notifications, keeping current list")
		return errors.Wrap(err, "[Store.Fetch]")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fetched := make(map[int64]struct{}, len(resp.items))
	for _, item := range resp.items {
		fetched[item.ID] = struct{}{}
	}
	merged := make([]Notification, 0, len(resp.items))
	for _, item := range s.items {
		if _, ok := fetched[item.ID]; !ok {
			merged = append(merged, item)
		}
	}
	s.items = append(merged, resp.items...)
	return nil
}

// Ingest adds a live-pushed notification at the front of the collection
// (server order is newest first). A record with a known id is replaced in
// place instead.
func (s *Store) Ingest(notification Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == notification.ID {
			s.items[i] = notification
			return
		}
	}
	s.items = append([]Notification{notification}, s.items...)
}

// Items returns a copy of the collection in server order.
func (s *Store) Items() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Notification(nil), s.items...)
}

// Unread derives the unread count by counting. It is never cached, so it can
// never drift or go negative.
func (s *Store) Unread() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, item := range s.items {
		if !item.IsRead {
			count++
		}
	}
	return count
}

// MarkAllRead optimistically flips every unread record, confirms with the
// server, then reconciles with an unconditional re-fetch: even when the
// confirmation call fails the re-fetch runs, so local state cannot silently
// drift forever.
func (s *Store) MarkAllRead(ctx context.Context) error {
	err := s.reconcile(ctx,
		func() {
			s.mu.Lock()
			for i := range s.items {
				s.items[i].IsRead = true
			}
			s.mu.Unlock()
		},
		func(ctx context.Context) error {
			return s.api.Post(ctx, api.EndpointMarkAllRead, nil, nil)
		},
	)
	return errors.Wrap(err, "[Store.MarkAllRead]")
}

// MarkRead marks a single record read with the same optimistic-then-reconcile
// pattern. On success it returns the route to the related service request so
// the caller can navigate there; on failure it returns "".
func (s *Store) MarkRead(ctx context.Context, id int64) (string, error) {
	var serviceRequestID int64
	err := s.reconcile(ctx,
		func() {
			s.mu.Lock()
			for i := range s.items {
				if s.items[i].ID == id {
					s.items[i].IsRead = true
					serviceRequestID = s.items[i].ServiceRequestID
					break
				}
			}
			s.mu.Unlock()
		},
		func(ctx context.Context) error {
			return s.api.Post(ctx, api.EndpointMarkRead(id), nil, nil)
		},
	)
	if err != nil {
		return "", errors.Wrap(err, "[Store.MarkRead]")
	}
	return "/requests/" + strconv.FormatInt(serviceRequestID, 10), nil
}

// reconcile is the named "optimistic update, server-confirm, unconditional
// reconcile" helper applied by every read-state mutation.
func (s *Store) reconcile(ctx context.Context, apply func(), confirm func(context.Context) error) error {
	apply()
	confirmErr := confirm(ctx)
	if confirmErr != nil {
		s.logger.Warn().Err(confirmErr).Msg("read-state confirmation failed, reconciling anyway")
	}
	if fetchErr := s.Fetch(ctx); fetchErr != nil && confirmErr == nil {
		return fetchErr
	}
	return confirmErr
}

// TriggerToast shows a transient toast. A call before the previous toast's
// dismissal replaces it and restarts the clock.
func (s *Store) TriggerToast(kind ToastKind, title, message string) {
	s.toasts.show(Toast{Kind: kind, Title: title, Message: message})
}

// TriggerToastEvent shows a toast with a navigation action attached.
func (s *Store) TriggerToastEvent(toast Toast) {
	s.toasts.show(toast)
}

// VisibleToast returns the currently visible toast, or nil.
func (s *Store) VisibleToast() *Toast {
	return s.toasts.visible()
}

// OnToastChange registers a listener called with the new toast on show and
// nil on dismissal.
func (s *Store) OnToastChange(listener func(*Toast)) {
	s.toasts.subscribe(listener)
}
