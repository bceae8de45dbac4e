package runtime

import "fmt"

// ringBufferCap is the safety bound from §3: "a hard cap (≈100) detects
// runaway allocation."
const ringBufferCap = 100

// RingBuffer is a bounded sequence of Buffers of identical properties, with
// a monotonic index advanced per Get and reset to zero per frame (§3). Each
// op implementation owns one for its per-dispatch uniform data.
type RingBuffer struct {
	rt    *Runtime
	size  uint64
	bufs  []*Buffer
	index int
}

// NewRingBuffer creates a ring buffer of host-invisible uniform buffers of
// the given byte size.
func NewRingBuffer(rt *Runtime, size uint64) *RingBuffer {
	return &RingBuffer{rt: rt, size: size}
}

// Get returns the next available Buffer, growing the ring if needed, up to
// the safety cap.
func (rb *RingBuffer) Get() (*Buffer, error) {
	if rb.index >= len(rb.bufs) {
		if rb.index >= ringBufferCap {
			return nil, fmt.Errorf("runtime: ring buffer exceeded safety cap of %d", ringBufferCap)
		}
		buf, err := rb.rt.CreateBuffer(rb.size, false)
		if err != nil {
			return nil, fmt.Errorf("runtime: ring buffer grow: %w", err)
		}
		rb.bufs = append(rb.bufs, buf)
	}
	buf := rb.bufs[rb.index]
	rb.index++
	return buf, nil
}

// MarkAllAvailable resets the ring to the start. Invariant: every
// previously handed-out Buffer is safe to overwrite because the prior
// frame's submission has already been flushed.
func (rb *RingBuffer) MarkAllAvailable() {
	rb.index = 0
}

// Len returns how many buffers the ring has allocated so far.
func (rb *RingBuffer) Len() int { return len(rb.bufs) }
