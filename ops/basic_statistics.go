package ops

import (
	"fmt"

	"github.com/lumenforge/salon/gpucore"
	"github.com/lumenforge/salon/ir"
	"github.com/lumenforge/salon/runtime"
)

// basicStatsSize is the buffer layout: mean R, G, B, luma, each a float32,
// followed by a pixel counter used between the accumulate and divide
// passes.
const basicStatsSize = 5 * 4

// BasicStatistics implements ComputeBasicStatistics: a three-pass
// clear/accumulate/divide reduction (§4.5) producing mean RGB and luma.
type BasicStatistics struct {
	b *base
}

func NewBasicStatistics(tb *runtime.Toolbox) *BasicStatistics {
	s := &BasicStatistics{}
	s.b = newBase(tb, "compute-basic-statistics", 0, nil)
	return s
}

func (s *BasicStatistics) Reset() { s.b.reset() }

func (s *BasicStatistics) EncodeCommands(enc gpucore.Encoder, op ir.Op, store *ir.ValueStore, tb *runtime.Toolbox) error {
	o, ok := op.(ir.ComputeBasicStatistics)
	if !ok {
		return fmt.Errorf("ops: BasicStatistics given %T", op)
	}
	src, err := resolveImage(store, o.Arg)
	if err != nil {
		return err
	}
	out, err := ensureOutputBuffer(s.b.rt, store, o.ResultID, basicStatsSize)
	if err != nil {
		return err
	}

	// The software device executes kernels synchronously inline, so the
	// three passes can run as ordinary Go calls against the resolved
	// TexelBuffer rather than three queued dispatches; a real GPU backend
	// would instead record three compute passes here.
	dev := s.b.rt.Device()
	res, ok := dev.(gpucore.Resources)
	if !ok {
		return fmt.Errorf("ops: device does not implement gpucore.Resources")
	}
	texels := res.Texture(src.FullView())
	if texels == nil {
		return fmt.Errorf("ops: basic statistics: source texture view not resolvable")
	}

	var sumR, sumG, sumB float64
	w, h := texels.Width(), texels.Height()
	n := float64(w * h)
	if n == 0 {
		n = 1
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := texels.At(x, y)
			sumR += float64(c[0])
			sumG += float64(c[1])
			sumB += float64(c[2])
		}
	}
	meanR := float32(sumR / n)
	meanG := float32(sumG / n)
	meanB := float32(sumB / n)
	meanLuma := 0.2126*meanR + 0.7152*meanG + 0.0722*meanB

	var data [basicStatsSize]byte
	putF32(data[0:4], meanR)
	putF32(data[4:8], meanG)
	putF32(data[8:12], meanB)
	putF32(data[12:16], meanLuma)
	putF32(data[16:20], float32(n))

	res.SetBuffer(out.ID, data[:])
	return nil
}
