// Package interaction holds the latest gesture, cursor and strength as an
// immutable snapshot shared between the detection and render timelines.
package interaction

import (
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/garland/internal/gesture"
)

// State is one complete interaction record. Values are never mutated in
// place; Apply returns a new record.
type State struct {
	Cursor   mgl64.Vec3      `json:"cursor"`
	Gesture  gesture.Gesture `json:"gesture"`
	Strength float64         `json:"strength"`
}

// Initial is the state before any detection has run.
var Initial = State{Gesture: gesture.Idle}

// Apply folds a classifier reading into s. Without a hand the cursor keeps
// its last position.
func (s State) Apply(r gesture.Reading) State {
	next := State{
		Cursor:   s.Cursor,
		Gesture:  r.Gesture,
		Strength: r.Strength,
	}
	if r.Hand {
		next.Cursor = r.Cursor
	}
	return next
}

// Store publishes State records. Readers take a snapshot at the top of their
// frame and never observe a partially written record.
type Store struct {
	current atomic.Pointer[State]
	version atomic.Uint64
}

// NewStore creates a store holding Initial.
func NewStore() *Store {
	s := &Store{}
	initial := Initial
	s.current.Store(&initial)
	return s
}

// Snapshot returns the most recently published state.
func (s *Store) Snapshot() State {
	return *s.current.Load()
}

// Version counts publications. It is informational only; readers do not
// need it to consume a stale snapshot.
func (s *Store) Version() uint64 {
	return s.version.Load()
}

func (s *Store) publish(state State) {
	s.current.Store(&state)
	s.version.Add(1)
}

// Writer is the single producer handle for a Store. Once revoked it drops
// every write, so detection work still in flight at teardown cannot land.
type Writer struct {
	store   *Store
	mu      sync.Mutex
	revoked bool
}

// Writer returns a new revocable writer for s.
func (s *Store) Writer() *Writer {
	return &Writer{store: s}
}

// Apply folds a reading into the current state and publishes the result.
// It reports false when the writer has been revoked.
func (w *Writer) Apply(r gesture.Reading) (State, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.revoked {
		return w.store.Snapshot(), false
	}
	next := w.store.Snapshot().Apply(r)
	w.store.publish(next)
	return next, true
}

// Revoke disables the writer. It waits for an in-progress Apply to finish.
func (w *Writer) Revoke() {
	w.mu.Lock()
	w.revoked = true
	w.mu.Unlock()
}

// Revoked reports whether Revoke has been called.
func (w *Writer) Revoked() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.revoked
}
