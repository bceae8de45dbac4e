package ops

import (
	"fmt"
	"math"

	"github.com/lumenforge/salon/gpucore"
	"github.com/lumenforge/salon/ir"
	"github.com/lumenforge/salon/runtime"
)

// GlobalMask implements ComputeGlobalMask: an all-ones mask sized to
// Target, a grayscale image stored with the mask value replicated across
// every channel.
type GlobalMask struct{ b *base }

func NewGlobalMask(tb *runtime.Toolbox) *GlobalMask {
	g := &GlobalMask{}
	g.b = newBase(tb, "compute-global-mask", 0, globalMaskKernel)
	return g
}

func globalMaskKernel(res gpucore.Resources, bind gpucore.BindGroupDesc, _ gpucore.WorkgroupCount) {
	dst := res.Texture(bind.Entries[0].Texture)
	if dst == nil {
		return
	}
	w, h := dst.Width(), dst.Height()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.Set(x, y, gpucore.Texel{1, 1, 1, 1})
		}
	}
}

func (g *GlobalMask) Reset() { g.b.reset() }

func (g *GlobalMask) EncodeCommands(enc gpucore.Encoder, op ir.Op, store *ir.ValueStore, tb *runtime.Toolbox) error {
	o, ok := op.(ir.ComputeGlobalMask)
	if !ok {
		return fmt.Errorf("ops: GlobalMask given %T", op)
	}
	target, err := resolveImage(store, o.Target)
	if err != nil {
		return err
	}
	dst, err := ensureOutputImage(g.b.rt, store, o.ResultID, target.Width, target.Height, target.Format, target.ColorSpace)
	if err != nil {
		return err
	}
	if err := g.b.ensurePipeline(); err != nil {
		return err
	}
	entries := []gpucore.BindGroupEntry{{Binding: 0, Texture: dst.FullView()}}
	bg, err := g.b.bindCache.GetOrCreate(gpucore.BindGroupDesc{Layout: g.b.layout, Entries: entries})
	if err != nil {
		return err
	}
	wg := tileWorkgroups(dst.Width, dst.Height)
	enc.Dispatch(gpucore.ComputePass{Label: g.b.label, Pipeline: g.b.pipeline, BindGroup: bg, Workgroup: wg})
	return regenerateMipmaps(tb, dst, enc)
}

// RadialGradientMask implements ComputeRadialGradientMask: an elliptical
// falloff mask, 1 inside RadiusX/RadiusY of Center, fading to 0 over
// Feather.
type RadialGradientMask struct{ b *base }

func NewRadialGradientMask(tb *runtime.Toolbox) *RadialGradientMask {
	r := &RadialGradientMask{}
	r.b = newBase(tb, "compute-radial-gradient-mask", 20, radialGradientMaskKernel)
	return r
}

func radialGradientMaskKernel(res gpucore.Resources, bind gpucore.BindGroupDesc, _ gpucore.WorkgroupCount) {
	dst := res.Texture(bind.Entries[0].Texture)
	if dst == nil {
		return
	}
	params := decodeParams(res, bind, 1, 5)
	if len(params) < 5 {
		return
	}
	cx, cy, rx, ry, feather := params[0], params[1], params[2], params[3], params[4]

	w, h := dst.Width(), dst.Height()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px := float32(x) + 0.5
			py := float32(y) + 0.5
			nx := safeDiv(px-cx, rx)
			ny := safeDiv(py-cy, ry)
			dist := float32(math.Sqrt(float64(nx*nx + ny*ny)))
			f := feather
			if f < 1e-4 {
				f = 1e-4
			}
			v := clampf(1-(dist-1)/f, 0, 1)
			dst.Set(x, y, gpucore.Texel{v, v, v, 1})
		}
	}
}

func safeDiv(a, b float32) float32 {
	if b == 0 {
		return 0
	}
	return a / b
}

func (r *RadialGradientMask) Reset() { r.b.reset() }

func (r *RadialGradientMask) EncodeCommands(enc gpucore.Encoder, op ir.Op, store *ir.ValueStore, tb *runtime.Toolbox) error {
	o, ok := op.(ir.ComputeRadialGradientMask)
	if !ok {
		return fmt.Errorf("ops: RadialGradientMask given %T", op)
	}
	target, err := resolveImage(store, o.Target)
	if err != nil {
		return err
	}
	dst, err := ensureOutputImage(r.b.rt, store, o.ResultID, target.Width, target.Height, target.Format, target.ColorSpace)
	if err != nil {
		return err
	}
	uniforms := make([]byte, 20)
	putF32(uniforms[0:4], o.Center.X*float32(target.Width))
	putF32(uniforms[4:8], o.Center.Y*float32(target.Height))
	putF32(uniforms[8:12], o.RadiusX*float32(target.Width))
	putF32(uniforms[12:16], o.RadiusY*float32(target.Height))
	putF32(uniforms[16:20], o.Feather)
	if err := r.dispatchSingleTexture(enc, dst, uniforms); err != nil {
		return err
	}
	return regenerateMipmaps(tb, dst, enc)
}

func (r *RadialGradientMask) dispatchSingleTexture(enc gpucore.Encoder, dst *runtime.Image, uniforms []byte) error {
	return dispatchSingleTexture(r.b, enc, dst, uniforms)
}

// dispatchSingleTexture is shared by mask generators that write only a
// destination texture plus a uniform buffer, with no source image to
// sample.
func dispatchSingleTexture(b *base, enc gpucore.Encoder, dst *runtime.Image, uniforms []byte) error {
	if err := b.ensurePipeline(); err != nil {
		return err
	}
	entries := []gpucore.BindGroupEntry{{Binding: 0, Texture: dst.FullView()}}
	if len(uniforms) > 0 {
		ubuf, err := b.ring.Get()
		if err != nil {
			return err
		}
		if err := b.rt.WriteBuffer(ubuf.ID, uniforms); err != nil {
			return err
		}
		entries = append(entries, gpucore.BindGroupEntry{Binding: 1, Buffer: ubuf.ID, Size: ubuf.Size})
	}
	bg, err := b.bindCache.GetOrCreate(gpucore.BindGroupDesc{Layout: b.layout, Entries: entries})
	if err != nil {
		return err
	}
	wg := tileWorkgroups(dst.Width, dst.Height)
	enc.Dispatch(gpucore.ComputePass{Label: b.label, Pipeline: b.pipeline, BindGroup: bg, Workgroup: wg})
	return nil
}

// LinearGradientMask implements ComputeLinearGradientMask: a directional
// falloff from 0 at Begin to 1 at Saturate, projected along the
// Begin->Saturate axis.
type LinearGradientMask struct{ b *base }

func NewLinearGradientMask(tb *runtime.Toolbox) *LinearGradientMask {
	l := &LinearGradientMask{}
	l.b = newBase(tb, "compute-linear-gradient-mask", 16, linearGradientMaskKernel)
	return l
}

func linearGradientMaskKernel(res gpucore.Resources, bind gpucore.BindGroupDesc, _ gpucore.WorkgroupCount) {
	dst := res.Texture(bind.Entries[0].Texture)
	if dst == nil {
		return
	}
	params := decodeParams(res, bind, 1, 4)
	if len(params) < 4 {
		return
	}
	bx, by, sx, sy := params[0], params[1], params[2], params[3]
	dx, dy := sx-bx, sy-by
	lenSq := dx*dx + dy*dy
	if lenSq < 1e-6 {
		lenSq = 1e-6
	}

	w, h := dst.Width(), dst.Height()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px := float32(x) + 0.5 - bx
			py := float32(y) + 0.5 - by
			t := clampf((px*dx+py*dy)/lenSq, 0, 1)
			dst.Set(x, y, gpucore.Texel{t, t, t, 1})
		}
	}
}

func (l *LinearGradientMask) Reset() { l.b.reset() }

func (l *LinearGradientMask) EncodeCommands(enc gpucore.Encoder, op ir.Op, store *ir.ValueStore, tb *runtime.Toolbox) error {
	o, ok := op.(ir.ComputeLinearGradientMask)
	if !ok {
		return fmt.Errorf("ops: LinearGradientMask given %T", op)
	}
	target, err := resolveImage(store, o.Target)
	if err != nil {
		return err
	}
	dst, err := ensureOutputImage(l.b.rt, store, o.ResultID, target.Width, target.Height, target.Format, target.ColorSpace)
	if err != nil {
		return err
	}
	uniforms := make([]byte, 16)
	putF32(uniforms[0:4], o.Begin.X*float32(target.Width))
	putF32(uniforms[4:8], o.Begin.Y*float32(target.Height))
	putF32(uniforms[8:12], o.Saturate.X*float32(target.Width))
	putF32(uniforms[12:16], o.Saturate.Y*float32(target.Height))
	if err := dispatchSingleTexture(l.b, enc, dst, uniforms); err != nil {
		return err
	}
	return regenerateMipmaps(tb, dst, enc)
}

// combineMasks implements the pixel math AddMask (max), SubtractMask
// (max(a-b,0)) and InvertMask (1-a) share.
func combineMasks(b *base, enc gpucore.Encoder, store *ir.ValueStore, tb *runtime.Toolbox, resultID, mask0ID, mask1ID ir.Id) error {
	m0, err := resolveImage(store, mask0ID)
	if err != nil {
		return err
	}
	var m1 *runtime.Image
	if mask1ID != ir.InvalidId {
		m1, err = resolveImage(store, mask1ID)
		if err != nil {
			return err
		}
	}
	dst, err := ensureOutputImage(b.rt, store, resultID, m0.Width, m0.Height, m0.Format, m0.ColorSpace)
	if err != nil {
		return err
	}
	if err := b.ensurePipeline(); err != nil {
		return err
	}
	entries := []gpucore.BindGroupEntry{
		{Binding: 0, Texture: m0.FullView()},
		{Binding: 1, Texture: dst.FullView()},
	}
	if m1 != nil {
		entries = append(entries, gpucore.BindGroupEntry{Binding: 2, Texture: m1.FullView()})
	}
	bg, err := b.bindCache.GetOrCreate(gpucore.BindGroupDesc{Layout: b.layout, Entries: entries})
	if err != nil {
		return err
	}
	wg := tileWorkgroups(dst.Width, dst.Height)
	enc.Dispatch(gpucore.ComputePass{Label: b.label, Pipeline: b.pipeline, BindGroup: bg, Workgroup: wg})
	return regenerateMipmaps(tb, dst, enc)
}

func combineMaskKernel(fn func(a, b float32) float32) gpucore.KernelFunc {
	return func(res gpucore.Resources, bind gpucore.BindGroupDesc, _ gpucore.WorkgroupCount) {
		m0 := res.Texture(bind.Entries[0].Texture)
		dst := res.Texture(bind.Entries[1].Texture)
		if m0 == nil || dst == nil {
			return
		}
		var m1 gpucore.TexelBuffer
		if len(bind.Entries) > 2 {
			m1 = res.Texture(bind.Entries[2].Texture)
		}
		w, h := dst.Width(), dst.Height()
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				a := m0.At(x, y)
				var v float32
				if m1 != nil {
					b := m1.At(x, y)
					v = fn(a[0], b[0])
				} else {
					v = fn(a[0], 0)
				}
				v = clampf(v, 0, 1)
				dst.Set(x, y, gpucore.Texel{v, v, v, 1})
			}
		}
	}
}

// AddMask implements AddMask: max(mask0, mask1).
type AddMask struct{ b *base }

func NewAddMask(tb *runtime.Toolbox) *AddMask {
	a := &AddMask{}
	a.b = newBase(tb, "add-mask", 0, combineMaskKernel(func(x, y float32) float32 {
		if x > y {
			return x
		}
		return y
	}))
	return a
}

func (a *AddMask) Reset() { a.b.reset() }

func (a *AddMask) EncodeCommands(enc gpucore.Encoder, op ir.Op, store *ir.ValueStore, tb *runtime.Toolbox) error {
	o, ok := op.(ir.AddMask)
	if !ok {
		return fmt.Errorf("ops: AddMask given %T", op)
	}
	return combineMasks(a.b, enc, store, tb, o.ResultID, o.Mask0, o.Mask1)
}

// SubtractMask implements SubtractMask: max(mask0 - mask1, 0).
type SubtractMask struct{ b *base }

func NewSubtractMask(tb *runtime.Toolbox) *SubtractMask {
	s := &SubtractMask{}
	s.b = newBase(tb, "subtract-mask", 0, combineMaskKernel(func(x, y float32) float32 {
		return clampf(x-y, 0, 1)
	}))
	return s
}

func (s *SubtractMask) Reset() { s.b.reset() }

func (s *SubtractMask) EncodeCommands(enc gpucore.Encoder, op ir.Op, store *ir.ValueStore, tb *runtime.Toolbox) error {
	o, ok := op.(ir.SubtractMask)
	if !ok {
		return fmt.Errorf("ops: SubtractMask given %T", op)
	}
	return combineMasks(s.b, enc, store, tb, o.ResultID, o.Mask0, o.Mask1)
}

// InvertMask implements InvertMask: 1 - mask0.
type InvertMask struct{ b *base }

func NewInvertMask(tb *runtime.Toolbox) *InvertMask {
	i := &InvertMask{}
	i.b = newBase(tb, "invert-mask", 0, combineMaskKernel(func(x, _ float32) float32 {
		return 1 - x
	}))
	return i
}

func (i *InvertMask) Reset() { i.b.reset() }

func (i *InvertMask) EncodeCommands(enc gpucore.Encoder, op ir.Op, store *ir.ValueStore, tb *runtime.Toolbox) error {
	o, ok := op.(ir.InvertMask)
	if !ok {
		return fmt.Errorf("ops: InvertMask given %T", op)
	}
	return combineMasks(i.b, enc, store, tb, o.ResultID, o.Mask0, ir.InvalidId)
}
