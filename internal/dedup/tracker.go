// Package dedup decides when a freshly fetched list holds an alert that has
// not been announced yet.
package dedup

import (
	"context"
	"fmt"
	"sync"

	"github.com/rajasatyajit/SasmexMonitor/internal/models"
)

// Feed keys under which the last seen id is stored
const (
	KeySasmex = "sasmex"
	KeyUSGS   = "usgs"
)

// State persists the last seen id per feed key
type State interface {
	LastSeen(ctx context.Context, key string) (id string, ok bool, err error)
	SetLastSeen(ctx context.Context, key, id string) error
}

// Tracker remembers the newest record seen for one feed. The first list it is
// shown only records a baseline, so a backlog is never announced at startup.
type Tracker[T any] struct {
	mu     sync.Mutex
	key    string
	state  State
	idOf   func(T) string
	last   string
	loaded bool
}

// NewTracker creates a tracker for key, persisting through state
func NewTracker[T any](key string, state State, idOf func(T) string) *Tracker[T] {
	if state == nil {
		state = NewMemoryState()
	}
	return &Tracker[T]{key: key, state: state, idOf: idOf}
}

// NewAlertTracker tracks SASMEX alerts by id
func NewAlertTracker(state State) *Tracker[models.Alert] {
	return NewTracker(KeySasmex, state, func(a models.Alert) string { return a.ID })
}

// NewEarthquakeTracker tracks USGS features by id
func NewEarthquakeTracker(state State) *Tracker[models.Earthquake] {
	return NewTracker(KeyUSGS, state, func(e models.Earthquake) string { return e.ID })
}

// Key returns the feed key the tracker persists under
func (t *Tracker[T]) Key() string { return t.key }

// CheckForNew inspects records, newest first, and returns the top record when
// it differs from the last one seen. A failure to persist the new id is
// returned together with the signal; the in-memory id is updated regardless.
func (t *Tracker[T]) CheckForNew(ctx context.Context, records []T) (T, bool, error) {
	var zero T
	if len(records) == 0 {
		return zero, false, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.load(ctx); err != nil {
		return zero, false, err
	}

	top := records[0]
	id := t.idOf(top)

	if t.last == "" {
		t.last = id
		return zero, false, t.persist(ctx, id)
	}
	if id == t.last {
		return zero, false, nil
	}

	t.last = id
	return top, true, t.persist(ctx, id)
}

// LastSeen returns the id currently recorded as seen
func (t *Tracker[T]) LastSeen(ctx context.Context) (string, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.load(ctx); err != nil {
		return "", false, err
	}
	return t.last, t.last != "", nil
}

func (t *Tracker[T]) load(ctx context.Context) error {
	if t.loaded {
		return nil
	}
	id, ok, err := t.state.LastSeen(ctx, t.key)
	if err != nil {
		return fmt.Errorf("load last seen %s: %w", t.key, err)
	}
	if ok {
		t.last = id
	}
	t.loaded = true
	return nil
}

func (t *Tracker[T]) persist(ctx context.Context, id string) error {
	if err := t.state.SetLastSeen(ctx, t.key, id); err != nil {
		return fmt.Errorf("store last seen %s: %w", t.key, err)
	}
	return nil
}
