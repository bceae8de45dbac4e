package ops

import (
	"fmt"
	"math"

	"github.com/lumenforge/salon/gpucore"
	"github.com/lumenforge/salon/internal/image"
	"github.com/lumenforge/salon/ir"
	"github.com/lumenforge/salon/runtime"
)

// RotateAndCrop implements RotateAndCrop: rotates the source by
// RotationDegrees about its center, then crops to CropRect (normalized
// [0,1] coordinates against the rotated image). The per-destination-texel
// inverse-mapping is built from internal/image's Affine, the same matrix
// convention the donor's geometry helpers use elsewhere.
type RotateAndCrop struct{ b *base }

func NewRotateAndCrop(tb *runtime.Toolbox) *RotateAndCrop {
	r := &RotateAndCrop{}
	r.b = newBase(tb, "rotate-and-crop", 0, nil)
	return r
}

func (r *RotateAndCrop) Reset() { r.b.reset() }

func (r *RotateAndCrop) EncodeCommands(enc gpucore.Encoder, op ir.Op, store *ir.ValueStore, tb *runtime.Toolbox) error {
	o, ok := op.(ir.RotateAndCrop)
	if !ok {
		return fmt.Errorf("ops: RotateAndCrop given %T", op)
	}
	src, err := resolveImage(store, o.Arg)
	if err != nil {
		return err
	}

	dev := r.b.rt.Device()
	res, ok := dev.(gpucore.Resources)
	if !ok {
		return fmt.Errorf("ops: device does not implement gpucore.Resources")
	}
	srcTexels := res.Texture(src.FullView())
	if srcTexels == nil {
		return fmt.Errorf("ops: rotate and crop: source texture view not resolvable")
	}

	sw, sh := float64(src.Width), float64(src.Height)
	rotated := image.RotateAt(-o.RotationDegrees*math.Pi/180, sw/2, sh/2)

	cropX0 := float64(o.CropRect.X) * sw
	cropY0 := float64(o.CropRect.Y) * sh
	cropW := float64(o.CropRect.Width) * sw
	cropH := float64(o.CropRect.Height) * sh

	dstW := maxU32(1, uint32(cropW+0.5))
	dstH := maxU32(1, uint32(cropH+0.5))

	dst, err := ensureOutputImage(r.b.rt, store, o.ResultID, dstW, dstH, src.Format, src.ColorSpace)
	if err != nil {
		return err
	}
	dstTexels := res.Texture(dst.FullView())
	if dstTexels == nil {
		return fmt.Errorf("ops: rotate and crop: destination texture view not resolvable")
	}

	inverse, ok := rotated.Invert()
	if !ok {
		inverse = image.Identity()
	}

	for y := 0; y < int(dstH); y++ {
		for x := 0; x < int(dstW); x++ {
			sx := cropX0 + float64(x) + 0.5
			sy := cropY0 + float64(y) + 0.5
			ux, uy := inverse.TransformPoint(sx, sy)
			dstTexels.Set(x, y, sampleBilinearAt(srcTexels, ux-0.5, uy-0.5))
		}
	}

	return regenerateMipmaps(tb, dst, enc)
}

func maxU32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

func clampi(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// sampleBilinearAt samples src at continuous coordinates (fx, fy),
// clamping to the edge outside the source bounds.
func sampleBilinearAt(src gpucore.TexelBuffer, fx, fy float64) gpucore.Texel {
	sw, sh := src.Width(), src.Height()
	x0 := clampi(int(math.Floor(fx)), 0, sw-1)
	y0 := clampi(int(math.Floor(fy)), 0, sh-1)
	x1 := clampi(x0+1, 0, sw-1)
	y1 := clampi(y0+1, 0, sh-1)
	wx := clampf(float32(fx-math.Floor(fx)), 0, 1)
	wy := clampf(float32(fy-math.Floor(fy)), 0, 1)

	c00 := src.At(x0, y0)
	c10 := src.At(x1, y0)
	c01 := src.At(x0, y1)
	c11 := src.At(x1, y1)

	var out gpucore.Texel
	for c := 0; c < 4; c++ {
		top := c00[c]*(1-wx) + c10[c]*wx
		bot := c01[c]*(1-wx) + c11[c]*wx
		out[c] = top*(1-wy) + bot*wy
	}
	return out
}
