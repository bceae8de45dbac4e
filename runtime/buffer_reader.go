package runtime

import (
	"context"
	"fmt"
	"sync"
)

// BufferReader is the asynchronous GPU→host readback abstraction (§5):
// construction enqueues the copy-to-staging and map request; Poll is
// non-blocking; Await blocks until the receiver fires. Implementations
// guard against invoking transform more than once.
type BufferReader[T any] struct {
	rt   *Runtime
	buf  *Buffer
	done <-chan struct{}

	transform func([]byte) (T, error)

	mu       sync.Mutex
	ready    bool
	consumed bool
	value    T
	err      error
}

// NewBufferReader enqueues the staging copy and map request for buf and
// returns a reader that will apply transform to the mapped bytes exactly
// once, the first time its channel is observed ready.
func NewBufferReader[T any](ctx context.Context, rt *Runtime, buf *Buffer, transform func([]byte) (T, error)) (*BufferReader[T], error) {
	done, err := rt.MapHostReadableBuffer(ctx, buf)
	if err != nil {
		return nil, fmt.Errorf("runtime: buffer reader: %w", err)
	}
	return &BufferReader[T]{rt: rt, buf: buf, done: done, transform: transform}, nil
}

// Poll is non-blocking. It checks the receiver; if ready, it reads and
// transforms the bytes exactly once, caching the result, and reports true.
// Subsequent calls return the cached value without re-reading.
func (r *BufferReader[T]) Poll() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.consumed {
		return r.value, r.err == nil
	}
	select {
	case <-r.done:
	default:
		var zero T
		return zero, false
	}
	r.consume()
	return r.value, r.err == nil
}

// Await blocks until the receiver fires or ctx is cancelled.
func (r *BufferReader[T]) Await(ctx context.Context) (T, error) {
	r.mu.Lock()
	if r.consumed {
		defer r.mu.Unlock()
		return r.value, r.err
	}
	r.mu.Unlock()

	select {
	case <-r.done:
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.consumed {
		r.consume()
	}
	return r.value, r.err
}

// consume reads the mapped buffer and applies transform. Caller must hold
// r.mu.
func (r *BufferReader[T]) consume() {
	r.consumed = true
	r.ready = true
	data, err := r.rt.ReadMappedBuffer(r.buf)
	if err != nil {
		r.err = err
		return
	}
	r.value, r.err = r.transform(data)
}

// Ready reports whether the reader has completed (successfully or not).
func (r *BufferReader[T]) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready
}
