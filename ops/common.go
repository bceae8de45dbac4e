// Package ops implements every op in the closed §4.3 set. Each
// implementation exposes Reset and EncodeCommands (§4.5): Reset marks its
// ring buffer available and clears its bind-group cache at the start of an
// execution; EncodeCommands resolves inputs from the value store, ensures
// an output value of the right shape exists, writes parameter uniforms
// into a fresh ring-buffer slot, fetches or builds a bind group, and
// dispatches.
package ops

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/lumenforge/salon/gpucore"
	"github.com/lumenforge/salon/internal/color"
	"github.com/lumenforge/salon/ir"
	"github.com/lumenforge/salon/runtime"
)

// Implementation is the contract every op variant's executor satisfies
// (§4.5).
type Implementation interface {
	Reset()
	EncodeCommands(enc gpucore.Encoder, op ir.Op, store *ir.ValueStore, tb *runtime.Toolbox) error
}

// dispatchTile is the 2D compute tile size ops dispatch over (§4.5:
// "ceil(w/tile) x ceil(h/tile) for 2D image ops").
const dispatchTile = 8

// base is the shared scaffolding a single-kernel image op embeds: a lazily
// compiled pipeline, a ring buffer sized to that op's uniform layout, and a
// bind-group cache. One base is created per Implementation instance and
// lives for the engine's lifetime; only its ring/cache are reset per
// execution.
type base struct {
	tb        *runtime.Toolbox
	rt        *runtime.Runtime
	label     string
	kernel    gpucore.KernelFunc
	ring      *runtime.RingBuffer
	bindCache *runtime.BindGroupCache
	pipeline  gpucore.ComputePipelineID
	layout    gpucore.BindGroupLayoutID
}

func newBase(tb *runtime.Toolbox, label string, uniformSize uint64, kernel gpucore.KernelFunc) *base {
	rt := tb.Runtime()
	return &base{
		tb:        tb,
		rt:        rt,
		label:     label,
		kernel:    kernel,
		ring:      runtime.NewRingBuffer(rt, uniformSize),
		bindCache: runtime.NewBindGroupCache(rt.Device()),
	}
}

// reset implements the op's Reset(): mark the ring available, drop cached
// bind groups. The compiled pipeline is NOT touched — it is compiled once
// and reused for the implementation's whole lifetime.
func (b *base) reset() {
	b.ring.MarkAllAvailable()
	b.bindCache.Clear()
}

func (b *base) ensurePipeline() error {
	if b.pipeline != 0 {
		return nil
	}
	pipeline, layout, err := b.rt.CreateComputePipeline(gpucore.ComputePipelineDesc{
		Label:      b.label,
		EntryPoint: "main",
		Kernel:     b.kernel,
	})
	if err != nil {
		return fmt.Errorf("ops: %s: compile pipeline: %w", b.label, err)
	}
	b.pipeline, b.layout = pipeline, layout
	return nil
}

// dispatchImage writes uniformBytes into a fresh ring slot, builds or
// fetches a bind group over {src texture (0), dst texture (1), uniform
// buffer (2), extra...}, and dispatches one workgroup per dispatchTile x
// dispatchTile tile of dst. extra lets an op bind additional resources
// (a basic-stats buffer, a second image, a mask) at bindings 3+.
func (b *base) dispatchImage(enc gpucore.Encoder, src, dst *runtime.Image, uniformBytes []byte, extra ...gpucore.BindGroupEntry) error {
	if err := b.ensurePipeline(); err != nil {
		return err
	}
	entries := []gpucore.BindGroupEntry{
		{Binding: 0, Texture: src.FullView()},
		{Binding: 1, Texture: dst.FullView()},
	}
	if len(uniformBytes) > 0 {
		ubuf, err := b.ring.Get()
		if err != nil {
			return err
		}
		if err := b.rt.WriteBuffer(ubuf.ID, uniformBytes); err != nil {
			return fmt.Errorf("ops: %s: write uniforms: %w", b.label, err)
		}
		entries = append(entries, gpucore.BindGroupEntry{Binding: 2, Buffer: ubuf.ID, Size: ubuf.Size})
	}
	entries = append(entries, extra...)

	bg, err := b.bindCache.GetOrCreate(gpucore.BindGroupDesc{Layout: b.layout, Entries: entries})
	if err != nil {
		return err
	}

	wg := tileWorkgroups(dst.Width, dst.Height)
	enc.Dispatch(gpucore.ComputePass{Label: b.label, Pipeline: b.pipeline, BindGroup: bg, Workgroup: wg})
	return nil
}

func tileWorkgroups(width, height uint32) gpucore.WorkgroupCount {
	return gpucore.WorkgroupCount{
		X: (width + dispatchTile - 1) / dispatchTile,
		Y: (height + dispatchTile - 1) / dispatchTile,
		Z: 1,
	}
}

// resolveImage fetches an input id from the store as an Image, erroring on
// a missing or wrongly-typed value — a forward reference past Validate, or
// a programmer error in the engine's binding of reusable values.
func resolveImage(store *ir.ValueStore, id ir.Id) (*runtime.Image, error) {
	v, ok := store.Get(id)
	if !ok || !v.IsImage() {
		return nil, fmt.Errorf("ops: value store has no image at id %d", id)
	}
	return v.Image, nil
}

func resolveBuffer(store *ir.ValueStore, id ir.Id) (*runtime.Buffer, error) {
	v, ok := store.Get(id)
	if !ok || !v.IsBuffer() {
		return nil, fmt.Errorf("ops: value store has no buffer at id %d", id)
	}
	return v.Buffer, nil
}

// ensureOutputImage reuses the value already at resultID if its shape
// matches exactly (§4.5: "reusing the existing value iff its properties
// match exactly"), else allocates a fresh one.
func ensureOutputImage(rt *runtime.Runtime, store *ir.ValueStore, resultID ir.Id, width, height uint32, format gpucore.TextureFormat, cs color.ColorSpace) (*runtime.Image, error) {
	if v, ok := store.Get(resultID); ok && v.IsImage() {
		img := v.Image
		if img.Width == width && img.Height == height && img.Format == format && img.ColorSpace == cs {
			return img, nil
		}
	}
	img, err := rt.CreateImage(width, height, format, cs)
	if err != nil {
		return nil, err
	}
	store.Set(resultID, ir.ImageValue(img))
	return img, nil
}

// ensureOutputBuffer reuses the value at resultID if its size matches,
// else allocates a fresh host-readable buffer.
func ensureOutputBuffer(rt *runtime.Runtime, store *ir.ValueStore, resultID ir.Id, size uint64) (*runtime.Buffer, error) {
	if v, ok := store.Get(resultID); ok && v.IsBuffer() && v.Buffer.Size == size {
		return v.Buffer, nil
	}
	buf, err := rt.CreateBuffer(size, true)
	if err != nil {
		return nil, err
	}
	store.Set(resultID, ir.BufferValue(buf))
	return buf, nil
}

func putF32(dst []byte, v float32) { binary.LittleEndian.PutUint32(dst, math.Float32bits(v)) }

func getF32(src []byte) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(src)) }

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// decodeParams reads numParams little-endian float32s out of a uniform
// buffer bound at the given entry, or returns nil if the buffer is absent
// (an op with no scalar parameters at all, which none currently are, but
// keeps the helper total).
func decodeParams(res gpucore.Resources, bind gpucore.BindGroupDesc, entry int, numParams int) []float32 {
	if numParams == 0 || entry >= len(bind.Entries) {
		return nil
	}
	data := res.Buffer(bind.Entries[entry].Buffer)
	params := make([]float32, numParams)
	for i := range params {
		off := i * 4
		if off+4 > len(data) {
			break
		}
		params[i] = getF32(data[off:])
	}
	return params
}

// perPixelKernel builds a KernelFunc that maps src[x,y] -> dst[x,y]
// independently per texel via fn, given the numParams uniform values
// decoded from bind.Entries[2]. This covers every op whose pixel math
// depends only on the source texel and a small fixed parameter vector
// (exposure, highlights/shadows, temperature/tint, vibrance/saturation,
// vignette, color mix).
func perPixelKernel(numParams int, fn func(c gpucore.Texel, params []float32, x, y, w, h int) gpucore.Texel) gpucore.KernelFunc {
	return func(res gpucore.Resources, bind gpucore.BindGroupDesc, _ gpucore.WorkgroupCount) {
		src := res.Texture(bind.Entries[0].Texture)
		dst := res.Texture(bind.Entries[1].Texture)
		if src == nil || dst == nil {
			return
		}
		params := decodeParams(res, bind, 2, numParams)
		w, h := dst.Width(), dst.Height()
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				dst.Set(x, y, fn(src.At(x, y), params, x, y, w, h))
			}
		}
	}
}

// regenerateMipmaps is called by every op that produces an Image (§4.5:
// "Ops producing images MUST trigger mipmap regeneration on the output").
func regenerateMipmaps(tb *runtime.Toolbox, img *runtime.Image, enc gpucore.Encoder) error {
	return tb.Mipmaps().GenerateMipmaps(img, enc)
}
