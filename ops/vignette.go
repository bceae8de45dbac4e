package ops

import (
	"fmt"
	"math"

	"github.com/lumenforge/salon/gpucore"
	"github.com/lumenforge/salon/ir"
	"github.com/lumenforge/salon/runtime"
)

// Vignette implements AdjustVignette: darkens (or brightens, for negative
// amounts) toward the image edges using an elliptical falloff controlled
// by midpoint, feather, and roundness.
type Vignette struct{ b *base }

func NewVignette(tb *runtime.Toolbox) *Vignette {
	v := &Vignette{}
	v.b = newBase(tb, "adjust-vignette", 16, perPixelKernel(4, vignetteTexel))
	return v
}

func vignetteTexel(c gpucore.Texel, params []float32, x, y, w, h int) gpucore.Texel {
	amount, midpoint, feather, roundness := params[0], params[1], params[2], params[3]

	cx, cy := float32(w)/2, float32(h)/2
	nx := (float32(x) + 0.5 - cx) / cx
	ny := (float32(y) + 0.5 - cy) / cy

	// roundness interpolates between a circle (1) and the image's own
	// aspect-ratio ellipse (0).
	aspect := float32(1)
	if h > 0 {
		aspect = float32(w) / float32(h)
	}
	ny *= (1 - roundness) + roundness/aspect

	dist := float32(math.Sqrt(float64(clampf(nx*nx+ny*ny, 0, 4))))

	f := feather
	if f < 1e-4 {
		f = 1e-4
	}
	t := clampf((dist-midpoint)/f, 0, 1)
	// smoothstep
	t = t * t * (3 - 2*t)

	gain := 1 + amount*t
	return gpucore.Texel{c[0] * gain, c[1] * gain, c[2] * gain, c[3]}
}

func (v *Vignette) Reset() { v.b.reset() }

func (v *Vignette) EncodeCommands(enc gpucore.Encoder, op ir.Op, store *ir.ValueStore, tb *runtime.Toolbox) error {
	o, ok := op.(ir.AdjustVignette)
	if !ok {
		return fmt.Errorf("ops: Vignette given %T", op)
	}
	src, err := resolveImage(store, o.Arg)
	if err != nil {
		return err
	}
	dst, err := ensureOutputImage(v.b.rt, store, o.ResultID, src.Width, src.Height, src.Format, src.ColorSpace)
	if err != nil {
		return err
	}
	var uniforms [16]byte
	putF32(uniforms[0:4], o.Vignette)
	putF32(uniforms[4:8], o.Midpoint)
	putF32(uniforms[8:12], o.Feather)
	putF32(uniforms[12:16], o.Roundness)
	if err := v.b.dispatchImage(enc, src, dst, uniforms[:]); err != nil {
		return err
	}
	return regenerateMipmaps(tb, dst, enc)
}
