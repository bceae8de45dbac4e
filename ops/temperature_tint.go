package ops

import (
	"fmt"

	"github.com/lumenforge/salon/gpucore"
	"github.com/lumenforge/salon/ir"
	"github.com/lumenforge/salon/runtime"
)

// TemperatureTint implements AdjustTemperatureAndTint: shifts white balance
// along a blue/amber axis (temperature) and a green/magenta axis (tint).
type TemperatureTint struct{ b *base }

func NewTemperatureTint(tb *runtime.Toolbox) *TemperatureTint {
	t := &TemperatureTint{}
	t.b = newBase(tb, "adjust-temperature-tint", 8, perPixelKernel(2, temperatureTintTexel))
	return t
}

func temperatureTintTexel(c gpucore.Texel, params []float32, _, _, _, _ int) gpucore.Texel {
	temperature, tint := params[0], params[1]
	return gpucore.Texel{
		clampf(c[0]+temperature*0.3, 0, 4),
		clampf(c[1]+tint*0.3, 0, 4),
		clampf(c[2]-temperature*0.3, 0, 4),
		c[3],
	}
}

func (t *TemperatureTint) Reset() { t.b.reset() }

func (t *TemperatureTint) EncodeCommands(enc gpucore.Encoder, op ir.Op, store *ir.ValueStore, tb *runtime.Toolbox) error {
	o, ok := op.(ir.AdjustTemperatureAndTint)
	if !ok {
		return fmt.Errorf("ops: TemperatureTint given %T", op)
	}
	src, err := resolveImage(store, o.Arg)
	if err != nil {
		return err
	}
	dst, err := ensureOutputImage(t.b.rt, store, o.ResultID, src.Width, src.Height, src.Format, src.ColorSpace)
	if err != nil {
		return err
	}
	var uniforms [8]byte
	putF32(uniforms[0:4], o.Temperature)
	putF32(uniforms[4:8], o.Tint)
	if err := t.b.dispatchImage(enc, src, dst, uniforms[:]); err != nil {
		return err
	}
	return regenerateMipmaps(tb, dst, enc)
}
