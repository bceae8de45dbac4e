//go:build !nogpu

// Package gpu is the concrete, software-executed implementation of
// gpucore.Device. It plays the role the donor's wgpu-backed internal/gpu
// package played for gogpu/gg — the only package allowed to touch "real"
// GPU resources — except here "real" means CPU-resident texel buffers and
// byte slices, since a physical GPU is, per the edit-execution spec's §6,
// an external collaborator this module only consumes through an interface.
//
// Every resource (buffer, texture, sampler, pipeline, bind group) is named
// by an opaque ID minted from one process-wide monotonic counter, matching
// the donor's convention (gpucore's design notes: "Global state is limited
// to a process-wide monotonic identifier counter...").
package gpu

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"

	"github.com/lumenforge/salon/gpucore"
)

var nextID atomic.Uint64

func allocID() uint64 {
	return nextID.Add(1)
}

// Errors surfaced by the software Device. Per §7 these are "programmer
// error" conditions: they indicate a bug in the core, not user input, and
// callers are expected to treat them as assertions.
var (
	ErrUnknownBuffer      = errors.New("gpu: unknown buffer id")
	ErrUnknownTexture     = errors.New("gpu: unknown texture id")
	ErrUnknownTextureView = errors.New("gpu: unknown texture view id")
	ErrUnknownBindGroup   = errors.New("gpu: unknown bind group id")
	ErrNotHostReadable    = errors.New("gpu: buffer is not host-readable")
	ErrMapNotPending      = errors.New("gpu: buffer has no pending map")
	ErrMipOutOfRange      = errors.New("gpu: mip level out of range")
)

type texViewRef struct {
	tex gpucore.TextureID
	mip uint32
}

type computePipelineEntry struct {
	layout gpucore.BindGroupLayoutID
	kernel gpucore.KernelFunc
	label  string
}

type renderPipelineEntry struct {
	layout gpucore.BindGroupLayoutID
	kernel gpucore.KernelFunc
	label  string
}

// Device is the software-executed gpucore.Device. Safe for concurrent use;
// the edit execution core only ever drives it from one goroutine (§5), but
// the background services (services package) query sampler/texture state
// from their own goroutines.
type Device struct {
	mu sync.RWMutex

	textures map[gpucore.TextureID]*texture
	views    map[gpucore.TextureViewID]texViewRef
	buffers  map[gpucore.BufferID]*buffer
	samplers map[gpucore.SamplerID]gpucore.SamplerDesc

	computePipelines map[gpucore.ComputePipelineID]computePipelineEntry
	renderPipelines  map[gpucore.RenderPipelineID]renderPipelineEntry
	bindGroups       map[gpucore.BindGroupID]gpucore.BindGroupDesc
}

// New creates an empty software device.
func New() *Device {
	return &Device{
		textures:         make(map[gpucore.TextureID]*texture),
		views:            make(map[gpucore.TextureViewID]texViewRef),
		buffers:          make(map[gpucore.BufferID]*buffer),
		samplers:         make(map[gpucore.SamplerID]gpucore.SamplerDesc),
		computePipelines: make(map[gpucore.ComputePipelineID]computePipelineEntry),
		renderPipelines:  make(map[gpucore.RenderPipelineID]renderPipelineEntry),
		bindGroups:       make(map[gpucore.BindGroupID]gpucore.BindGroupDesc),
	}
}

var _ gpucore.Device = (*Device)(nil)
var _ gpucore.Resources = (*Device)(nil)

// CreateBuffer implements gpucore.Device.
func (d *Device) CreateBuffer(desc gpucore.BufferDesc) (gpucore.BufferID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := gpucore.BufferID(allocID())
	d.buffers[id] = newBuffer(desc)
	slogger().Debug("gpu: buffer created", "id", id, "size", desc.Size, "label", desc.Label)
	return id, nil
}

// DestroyBuffer implements gpucore.Device.
func (d *Device) DestroyBuffer(id gpucore.BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.buffers, id)
}

// CreateTexture implements gpucore.Device. It allocates the full mip chain
// up front (§3: "mip count is max(1, floor(log2(max(w,h))))").
func (d *Device) CreateTexture(desc gpucore.TextureDesc) (gpucore.TextureID, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return 0, fmt.Errorf("gpu: invalid texture dimensions %dx%d", desc.Width, desc.Height)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	id := gpucore.TextureID(allocID())
	d.textures[id] = newTexture(desc)
	return id, nil
}

// TextureView implements gpucore.Device, minting (or returning a cached)
// view id for one mip level of a texture.
func (d *Device) TextureView(tex gpucore.TextureID, mipLevel uint32) (gpucore.TextureViewID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.textures[tex]
	if !ok {
		return 0, ErrUnknownTexture
	}
	if int(mipLevel) >= len(t.mips) {
		return 0, ErrMipOutOfRange
	}
	id := gpucore.TextureViewID(allocID())
	d.views[id] = texViewRef{tex: tex, mip: mipLevel}
	return id, nil
}

// DestroyTexture implements gpucore.Device.
func (d *Device) DestroyTexture(id gpucore.TextureID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.textures[id]; ok {
		t.mu.Lock()
		t.released = true
		t.mu.Unlock()
	}
	delete(d.textures, id)
	for vid, ref := range d.views {
		if ref.tex == id {
			delete(d.views, vid)
		}
	}
}

// CreateSampler implements gpucore.Device.
func (d *Device) CreateSampler(desc gpucore.SamplerDesc) (gpucore.SamplerID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := gpucore.SamplerID(allocID())
	d.samplers[id] = desc
	return id, nil
}

// CreateComputePipeline implements gpucore.Device. The software device
// stores desc.Kernel directly rather than compiling desc.Source; the
// bind-group layout id is minted fresh since nothing downstream inspects
// its entries beyond using it as a cache key (per §4.2).
func (d *Device) CreateComputePipeline(desc gpucore.ComputePipelineDesc) (gpucore.ComputePipelineID, gpucore.BindGroupLayoutID, error) {
	if desc.Kernel == nil {
		return 0, 0, fmt.Errorf("gpu: compute pipeline %q has no kernel", desc.Label)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	pid := gpucore.ComputePipelineID(allocID())
	lid := gpucore.BindGroupLayoutID(allocID())
	d.computePipelines[pid] = computePipelineEntry{layout: lid, kernel: desc.Kernel, label: desc.Label}
	return pid, lid, nil
}

// CreateRenderPipeline implements gpucore.Device.
func (d *Device) CreateRenderPipeline(desc gpucore.RenderPipelineDesc) (gpucore.RenderPipelineID, gpucore.BindGroupLayoutID, error) {
	if desc.Kernel == nil {
		return 0, 0, fmt.Errorf("gpu: render pipeline %q has no kernel", desc.Label)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	pid := gpucore.RenderPipelineID(allocID())
	lid := gpucore.BindGroupLayoutID(allocID())
	d.renderPipelines[pid] = renderPipelineEntry{layout: lid, kernel: desc.Kernel, label: desc.Label}
	return pid, lid, nil
}

// CreateBindGroup implements gpucore.Device.
func (d *Device) CreateBindGroup(desc gpucore.BindGroupDesc) (gpucore.BindGroupID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := gpucore.BindGroupID(allocID())
	d.bindGroups[id] = desc
	return id, nil
}

// WriteBuffer implements gpucore.Device.
func (d *Device) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) error {
	d.mu.RLock()
	b, ok := d.buffers[id]
	d.mu.RUnlock()
	if !ok {
		return ErrUnknownBuffer
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.usage&gputypes.BufferUsageCopyDst == 0 {
		return fmt.Errorf("gpu: buffer %q was not created with CopyDst usage", b.label)
	}
	if int(offset)+len(data) > len(b.data) {
		return fmt.Errorf("gpu: write exceeds buffer size (%d+%d > %d)", offset, len(data), len(b.data))
	}
	copy(b.data[offset:], data)
	return nil
}

// WriteTexture implements gpucore.Device. data holds tightly packed
// float32 RGBA texels, row-major.
func (d *Device) WriteTexture(id gpucore.TextureID, mipLevel uint32, data []byte) error {
	d.mu.RLock()
	t, ok := d.textures[id]
	d.mu.RUnlock()
	if !ok {
		return ErrUnknownTexture
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.usage&gputypes.TextureUsageCopyDst == 0 {
		return fmt.Errorf("gpu: texture %q was not created with CopyDst usage", t.label)
	}
	if int(mipLevel) >= len(t.mips) {
		return ErrMipOutOfRange
	}
	level := t.mips[mipLevel]
	want := level.width * level.height * 16
	if len(data) < want {
		return fmt.Errorf("gpu: texture write data too small: got %d want %d", len(data), want)
	}
	for i := range level.data {
		off := i * 16
		for c := 0; c < 4; c++ {
			bits := binary.LittleEndian.Uint32(data[off+c*4 : off+c*4+4])
			level.data[i][c] = math.Float32frombits(bits)
		}
	}
	return nil
}

// CopyBufferToBuffer implements gpucore.Device.
func (d *Device) CopyBufferToBuffer(src, dst gpucore.BufferID, size uint64) {
	d.mu.RLock()
	s, okS := d.buffers[src]
	t, okD := d.buffers[dst]
	d.mu.RUnlock()
	if !okS || !okD {
		return
	}
	s.mu.Lock()
	t.mu.Lock()
	n := int(size)
	if n > len(s.data) {
		n = len(s.data)
	}
	if n > len(t.data) {
		n = len(t.data)
	}
	copy(t.data[:n], s.data[:n])
	t.mu.Unlock()
	s.mu.Unlock()
}

// CopyTextureToTexture implements gpucore.Device: whole-texture copy of
// mip 0 (§4.1 copy_image), requiring equal dimensions and format.
func (d *Device) CopyTextureToTexture(src, dst gpucore.TextureID) {
	d.mu.RLock()
	s, okS := d.textures[src]
	t, okD := d.textures[dst]
	d.mu.RUnlock()
	if !okS || !okD {
		return
	}
	s.mu.RLock()
	t.mu.Lock()
	defer t.mu.Unlock()
	defer s.mu.RUnlock()
	if len(s.mips) == 0 || len(t.mips) == 0 {
		return
	}
	sm, tm := s.mips[0], t.mips[0]
	if sm.width != tm.width || sm.height != tm.height || sm.format != tm.format {
		panic("gpu: copy_image requires equal dimensions and format")
	}
	copy(tm.data, sm.data)
}

// MapBufferForRead implements gpucore.Device. The software device has no
// real asynchronous latency, so it performs the staging copy immediately
// and returns an already-closed channel; callers (runtime.BufferReader)
// still poll it as if it were async, preserving the §5 contract.
func (d *Device) MapBufferForRead(ctx context.Context, id gpucore.BufferID) (<-chan struct{}, error) {
	d.mu.RLock()
	b, ok := d.buffers[id]
	d.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownBuffer
	}
	if !b.hostReadable {
		return nil, ErrNotHostReadable
	}
	b.mu.Lock()
	copy(b.staging, b.data)
	b.mapState = bufferMapped
	b.mu.Unlock()

	done := make(chan struct{})
	close(done)
	select {
	case <-ctx.Done():
	default:
	}
	return done, nil
}

// ReadMappedBuffer implements gpucore.Device.
func (d *Device) ReadMappedBuffer(id gpucore.BufferID) ([]byte, error) {
	d.mu.RLock()
	b, ok := d.buffers[id]
	d.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownBuffer
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.mapState != bufferMapped {
		return nil, ErrMapNotPending
	}
	out := make([]byte, len(b.staging))
	copy(out, b.staging)
	b.mapState = bufferUnmapped
	return out, nil
}

// NewEncoder implements gpucore.Device.
func (d *Device) NewEncoder(label string) gpucore.Encoder {
	return &encoder{device: d, label: label}
}

// Texture implements gpucore.Resources, resolving a view id to the
// texelBuffer backing that mip level.
func (d *Device) Texture(view gpucore.TextureViewID) gpucore.TexelBuffer {
	d.mu.RLock()
	ref, ok := d.views[view]
	d.mu.RUnlock()
	if !ok {
		return nil
	}
	d.mu.RLock()
	t, ok := d.textures[ref.tex]
	d.mu.RUnlock()
	if !ok {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(ref.mip) >= len(t.mips) {
		return nil
	}
	return t.mips[ref.mip]
}

// Buffer implements gpucore.Resources.
func (d *Device) Buffer(id gpucore.BufferID) []byte {
	d.mu.RLock()
	b, ok := d.buffers[id]
	d.mu.RUnlock()
	if !ok {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data
}

// SetBuffer implements gpucore.Resources, used by reduction kernels
// (ComputeBasicStatistics, ComputeHistogram) to write their result.
func (d *Device) SetBuffer(id gpucore.BufferID, data []byte) {
	d.mu.RLock()
	b, ok := d.buffers[id]
	d.mu.RUnlock()
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	n := copy(b.data, data)
	_ = n
}

func (d *Device) computePipeline(id gpucore.ComputePipelineID) (computePipelineEntry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.computePipelines[id]
	return e, ok
}

func (d *Device) renderPipeline(id gpucore.RenderPipelineID) (renderPipelineEntry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.renderPipelines[id]
	return e, ok
}

func (d *Device) bindGroup(id gpucore.BindGroupID) (gpucore.BindGroupDesc, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	desc, ok := d.bindGroups[id]
	return desc, ok
}
