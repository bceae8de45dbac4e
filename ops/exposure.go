package ops

import (
	"fmt"
	"math"

	"github.com/lumenforge/salon/gpucore"
	"github.com/lumenforge/salon/ir"
	"github.com/lumenforge/salon/runtime"
)

// Exposure implements AdjustExposure: multiply RGB by 2^stops, leave alpha
// alone.
type Exposure struct{ b *base }

// NewExposure creates the implementation; its pipeline compiles lazily on
// first EncodeCommands.
func NewExposure(tb *runtime.Toolbox) *Exposure {
	e := &Exposure{}
	e.b = newBase(tb, "adjust-exposure", 4, perPixelKernel(1, exposureTexel))
	return e
}

func exposureTexel(c gpucore.Texel, params []float32, _, _, _, _ int) gpucore.Texel {
	gain := float32(math.Pow(2, float64(params[0])))
	return gpucore.Texel{c[0] * gain, c[1] * gain, c[2] * gain, c[3]}
}

func (e *Exposure) Reset() { e.b.reset() }

func (e *Exposure) EncodeCommands(enc gpucore.Encoder, op ir.Op, store *ir.ValueStore, tb *runtime.Toolbox) error {
	o, ok := op.(ir.AdjustExposure)
	if !ok {
		return fmt.Errorf("ops: Exposure given %T", op)
	}
	src, err := resolveImage(store, o.Arg)
	if err != nil {
		return err
	}
	dst, err := ensureOutputImage(e.b.rt, store, o.ResultID, src.Width, src.Height, src.Format, src.ColorSpace)
	if err != nil {
		return err
	}
	var uniforms [4]byte
	putF32(uniforms[:], o.Exposure)
	if err := e.b.dispatchImage(enc, src, dst, uniforms[:]); err != nil {
		return err
	}
	return regenerateMipmaps(tb, dst, enc)
}
