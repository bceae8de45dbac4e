package ops

import (
	"fmt"

	"github.com/lumenforge/salon/gpucore"
	"github.com/lumenforge/salon/internal/color"
	"github.com/lumenforge/salon/ir"
	"github.com/lumenforge/salon/runtime"
)

// colorMixGroups is the fixed bucket count the spec's 8-element ColorMix
// arrays always carry (red, orange, yellow, green, aqua, blue, purple,
// magenta), one 45-degree hue wedge apiece.
const colorMixGroups = 8

// ColorMix implements ColorMix: independently shifts hue/saturation/
// lightness for each of the 8 hue buckets, weighted by how close a pixel's
// hue is to that bucket's center (linear falloff over the half-wedge).
type ColorMix struct{ b *base }

func NewColorMix(tb *runtime.Toolbox) *ColorMix {
	c := &ColorMix{}
	c.b = newBase(tb, "color-mix", colorMixGroups*3*4, perPixelKernel(colorMixGroups*3, colorMixTexel))
	return c
}

func colorMixTexel(c gpucore.Texel, params []float32, _, _, _, _ int) gpucore.Texel {
	hsl := runtime.ConvertColorSpace(c, color.ColorSpaceLinear, color.ColorSpaceHSL)
	hue, sat, light := hsl[0]*360, hsl[1], hsl[2]

	wedge := float32(360) / colorMixGroups
	var dh, ds, dl float32
	for i := 0; i < colorMixGroups; i++ {
		center := float32(i) * wedge
		diff := hueDelta(hue, center)
		weight := clampf(1-diff/(wedge/2), 0, 1)
		if weight == 0 {
			continue
		}
		dh += params[i*3+0] * weight
		ds += params[i*3+1] * weight
		dl += params[i*3+2] * weight
	}

	hsl[0] = wrap01(hsl[0] + dh/360)
	hsl[1] = clampf(sat+ds, 0, 1)
	hsl[2] = clampf(light+dl, 0, 1)
	return runtime.ConvertColorSpace(hsl, color.ColorSpaceHSL, color.ColorSpaceLinear)
}

// hueDelta returns the unsigned angular distance between two hues in
// degrees, wrapping around 360.
func hueDelta(a, b float32) float32 {
	d := a - b
	if d < 0 {
		d = -d
	}
	if d > 180 {
		d = 360 - d
	}
	return d
}

func wrap01(v float32) float32 {
	for v < 0 {
		v += 1
	}
	for v >= 1 {
		v -= 1
	}
	return v
}

func (c *ColorMix) Reset() { c.b.reset() }

func (c *ColorMix) EncodeCommands(enc gpucore.Encoder, op ir.Op, store *ir.ValueStore, tb *runtime.Toolbox) error {
	o, ok := op.(ir.ColorMix)
	if !ok {
		return fmt.Errorf("ops: ColorMix given %T", op)
	}
	src, err := resolveImage(store, o.Arg)
	if err != nil {
		return err
	}
	dst, err := ensureOutputImage(c.b.rt, store, o.ResultID, src.Width, src.Height, src.Format, src.ColorSpace)
	if err != nil {
		return err
	}
	uniforms := make([]byte, colorMixGroups*3*4)
	for i, g := range o.Groups {
		putF32(uniforms[(i*3+0)*4:], g.Hue)
		putF32(uniforms[(i*3+1)*4:], g.Saturation)
		putF32(uniforms[(i*3+2)*4:], g.Lightness)
	}
	if err := c.b.dispatchImage(enc, src, dst, uniforms); err != nil {
		return err
	}
	return regenerateMipmaps(tb, dst, enc)
}
