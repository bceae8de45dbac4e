//go:build !nogpu

package gpu

import (
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/lumenforge/salon/gpucore"
)

// bufferMapState mirrors the donor's BufferMapState (buffer.go, deleted):
// Unmapped -> Pending (copy-to-staging submitted, map requested) -> Mapped.
type bufferMapState uint8

const (
	bufferUnmapped bufferMapState = iota
	bufferPending
	bufferMapped
)

// buffer is one GPU-resident byte range. hostReadable buffers keep a
// paired staging copy, exactly as §3 describes: "If host_readable, the
// Runtime also keeps a paired staging buffer into which the main buffer is
// copied before mapping."
type buffer struct {
	mu sync.Mutex

	data         []byte
	hostReadable bool
	staging      []byte
	mapState     bufferMapState
	mapDone      chan struct{}

	usage gputypes.BufferUsage
	label string
}

func newBuffer(desc gpucore.BufferDesc) *buffer {
	b := &buffer{
		data:         make([]byte, desc.Size),
		hostReadable: desc.HostReadable,
		label:        desc.Label,
		usage:        toGPUTypesBufferUsage(desc.Usage),
	}
	if desc.HostReadable {
		b.staging = make([]byte, desc.Size)
	}
	return b
}

func toGPUTypesBufferUsage(u gpucore.BufferUsage) gputypes.BufferUsage {
	var out gputypes.BufferUsage
	if u&gpucore.BufferUsageMapRead != 0 {
		out |= gputypes.BufferUsageMapRead
	}
	if u&gpucore.BufferUsageMapWrite != 0 {
		out |= gputypes.BufferUsageMapWrite
	}
	if u&gpucore.BufferUsageCopySrc != 0 {
		out |= gputypes.BufferUsageCopySrc
	}
	if u&gpucore.BufferUsageCopyDst != 0 {
		out |= gputypes.BufferUsageCopyDst
	}
	if u&gpucore.BufferUsageUniform != 0 {
		out |= gputypes.BufferUsageUniform
	}
	if u&gpucore.BufferUsageStorage != 0 {
		out |= gputypes.BufferUsageStorage
	}
	return out
}
