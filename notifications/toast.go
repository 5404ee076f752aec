package notifications

import (
	"sync"
	"time"
)

// ToastKind selects the toast's visual treatment.
type ToastKind string

const (
	ToastSuccess ToastKind = "SUCCESS"
	ToastFail    ToastKind = "FAIL"
	ToastDelete  ToastKind = "DELETE"
	ToastInfo    ToastKind = "INFO"
)

// Toast is one transient banner. ActionPath, when set, is a route the UI can
// offer as a "View" action (live notifications point at their service
// request).
type Toast struct {
	Kind       ToastKind
	Title      string
	Message    string
	ActionPath string
}

const defaultToastDuration = 3 * time.Second

// toaster holds at most one visible toast. A new toast replaces the current
// one and restarts the dismissal clock; the replaced toast's timer can no
// longer hide the replacement (last-write-wins, no queueing).
type toaster struct {
	mu         sync.Mutex
	current    *Toast
	generation uint64
	duration   time.Duration
	listeners  []func(*Toast)
}

func newToaster(duration time.Duration) *toaster {
	if duration <= 0 {
		duration = defaultToastDuration
	}
	return &toaster{duration: duration}
}

func (t *toaster) show(toast Toast) {
	t.mu.Lock()
	t.generation++
	generation := t.generation
	t.current = &toast
	listeners := append(([]func(*Toast))(nil), t.listeners...)
	t.mu.Unlock()

	for _, listener := range listeners {
		listener(&toast)
	}

	time.AfterFunc(t.duration, func() {
		t.dismiss(generation)
	})
}

// dismiss hides the toast only if it is still the one the timer was armed
// for.
func (t *toaster) dismiss(generation uint64) {
	t.mu.Lock()
	if t.generation != generation {
		t.mu.Unlock()
		return
	}
	t.current = nil
	listeners := append(([]func(*Toast))(nil), t.listeners...)
	t.mu.Unlock()

	for _, listener := range listeners {
		listener(nil)
	}
}

func (t *toaster) visible() *Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return nil
	}
	copied := *t.current
	return &copied
}

func (t *toaster) subscribe(listener func(*Toast)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, listener)
}
