package ops

import (
	"fmt"

	"github.com/lumenforge/salon/gpucore"
	"github.com/lumenforge/salon/internal/color"
	"github.com/lumenforge/salon/ir"
	"github.com/lumenforge/salon/runtime"
)

// VibranceSaturation implements AdjustVibranceAndSaturation: saturation
// scales every pixel's HSL saturation uniformly; vibrance scales it more
// for already-desaturated pixels and less for already-vivid ones, grading
// in HSL per the colorspace conversion toolbox helper.
type VibranceSaturation struct{ b *base }

func NewVibranceSaturation(tb *runtime.Toolbox) *VibranceSaturation {
	v := &VibranceSaturation{}
	v.b = newBase(tb, "adjust-vibrance-saturation", 8, perPixelKernel(2, vibranceSaturationTexel))
	return v
}

func vibranceSaturationTexel(c gpucore.Texel, params []float32, _, _, _, _ int) gpucore.Texel {
	vibrance, saturation := params[0], params[1]
	hsl := runtime.ConvertColorSpace(c, color.ColorSpaceLinear, color.ColorSpaceHSL)
	s := hsl[1]

	vibranceWeight := 1 - s
	s = clampf(s*(1+saturation)+vibrance*vibranceWeight, 0, 1)
	hsl[1] = s

	return runtime.ConvertColorSpace(hsl, color.ColorSpaceHSL, color.ColorSpaceLinear)
}

func (v *VibranceSaturation) Reset() { v.b.reset() }

func (v *VibranceSaturation) EncodeCommands(enc gpucore.Encoder, op ir.Op, store *ir.ValueStore, tb *runtime.Toolbox) error {
	o, ok := op.(ir.AdjustVibranceAndSaturation)
	if !ok {
		return fmt.Errorf("ops: VibranceSaturation given %T", op)
	}
	src, err := resolveImage(store, o.Arg)
	if err != nil {
		return err
	}
	dst, err := ensureOutputImage(v.b.rt, store, o.ResultID, src.Width, src.Height, src.Format, src.ColorSpace)
	if err != nil {
		return err
	}
	var uniforms [8]byte
	putF32(uniforms[0:4], o.Vibrance)
	putF32(uniforms[4:8], o.Saturation)
	if err := v.b.dispatchImage(enc, src, dst, uniforms[:]); err != nil {
		return err
	}
	return regenerateMipmaps(tb, dst, enc)
}
