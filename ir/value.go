package ir

import (
	"sync"

	"github.com/lumenforge/salon/runtime"
)

// Value is the tagged union a ValueStore holds per identifier: exactly one
// of Image or Buffer is set (§3: "A mapping Id -> Image | Buffer").
type Value struct {
	Image  *runtime.Image
	Buffer *runtime.Buffer
}

// ImageValue wraps an Image as a Value.
func ImageValue(img *runtime.Image) Value { return Value{Image: img} }

// BufferValue wraps a Buffer as a Value.
func BufferValue(buf *runtime.Buffer) Value { return Value{Buffer: buf} }

// IsImage reports whether this value holds an image.
func (v Value) IsImage() bool { return v.Image != nil }

// IsBuffer reports whether this value holds a buffer.
func (v Value) IsBuffer() bool { return v.Buffer != nil }

// ValueStore is the per-execution mapping Id -> Image | Buffer (§3).
// Operations write their results here; later operations read their
// arguments here. A store may persist across executions (the Editor's
// ExecutionContext does, to enable reuse per §4.6).
type ValueStore struct {
	mu     sync.Mutex
	values map[Id]Value
	// pendingReads marks buffers that currently have an outstanding
	// BufferReader; the engine must not recycle one (§5: "the value store
	// checks 'is this buffer being mapped' before reusing").
	pendingReads map[Id]bool
}

// NewValueStore creates an empty store.
func NewValueStore() *ValueStore {
	return &ValueStore{values: make(map[Id]Value), pendingReads: make(map[Id]bool)}
}

// Get returns the value for id.
func (s *ValueStore) Get(id Id) (Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[id]
	return v, ok
}

// Set stores a value for id, overwriting any previous one.
func (s *ValueStore) Set(id Id, v Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[id] = v
}

// Delete removes id's value, if any.
func (s *ValueStore) Delete(id Id) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, id)
}

// Has reports whether id currently has a value.
func (s *ValueStore) Has(id Id) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.values[id]
	return ok
}

// MarkPendingRead flags id's buffer as currently being mapped for read.
func (s *ValueStore) MarkPendingRead(id Id) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingReads[id] = true
}

// ClearPendingRead clears the pending-read flag once a reader completes or
// is dropped.
func (s *ValueStore) ClearPendingRead(id Id) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pendingReads, id)
}

// HasPendingRead reports whether id's buffer must not be reused yet.
func (s *ValueStore) HasPendingRead(id Id) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingReads[id]
}

// Clear empties the store entirely.
func (s *ValueStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[Id]Value)
	s.pendingReads = make(map[Id]bool)
}
