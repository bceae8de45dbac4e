package ops

import (
	"encoding/binary"
	"fmt"

	"github.com/lumenforge/salon/gpucore"
	"github.com/lumenforge/salon/ir"
	"github.com/lumenforge/salon/runtime"
)

// histogramMaxBins and histogramBufferSize alias the ir package's shared
// histogram layout constants (ir.HistogramMaxBins, ir.HistogramBufferSize)
// so the rest of this file's arithmetic stays as terse as before the
// layout moved to a package editor can also import.
const histogramMaxBins = ir.HistogramMaxBins
const histogramBufferSize = ir.HistogramBufferSize

// Histogram implements ComputeHistogram: bins R, G, B, and luma values
// into histogramNumBinsFor(dimensions) buckets each, synchronously, for
// the same reason BasicStatistics and PrepareDehaze do.
type Histogram struct{ b *base }

func NewHistogram(tb *runtime.Toolbox) *Histogram {
	h := &Histogram{}
	h.b = newBase(tb, "compute-histogram", 0, nil)
	return h
}

// histogramNumBinsFor picks the active bin count for an image's
// dimensions; the reference implementation always uses 100 regardless of
// size, leaving room for a future size-aware scheme.
func histogramNumBinsFor(width, height uint32) int {
	return 100
}

func (h *Histogram) Reset() { h.b.reset() }

func (h *Histogram) EncodeCommands(enc gpucore.Encoder, op ir.Op, store *ir.ValueStore, tb *runtime.Toolbox) error {
	o, ok := op.(ir.ComputeHistogram)
	if !ok {
		return fmt.Errorf("ops: Histogram given %T", op)
	}
	src, err := resolveImage(store, o.Arg)
	if err != nil {
		return err
	}
	out, err := ensureOutputBuffer(h.b.rt, store, o.ResultID, histogramBufferSize)
	if err != nil {
		return err
	}

	dev := h.b.rt.Device()
	res, ok := dev.(gpucore.Resources)
	if !ok {
		return fmt.Errorf("ops: device does not implement gpucore.Resources")
	}
	texels := res.Texture(src.FullView())
	if texels == nil {
		return fmt.Errorf("ops: compute histogram: source texture view not resolvable")
	}

	numBins := histogramNumBinsFor(src.Width, src.Height)
	var r, g, b, luma [histogramMaxBins]uint32
	w, h2 := texels.Width(), texels.Height()
	for y := 0; y < h2; y++ {
		for x := 0; x < w; x++ {
			c := texels.At(x, y)
			l := 0.2126*c[0] + 0.7152*c[1] + 0.0722*c[2]
			r[binFor(c[0], numBins)]++
			g[binFor(c[1], numBins)]++
			b[binFor(c[2], numBins)]++
			luma[binFor(l, numBins)]++
		}
	}

	data := make([]byte, histogramBufferSize)
	writeBins(data[0:], r[:])
	writeBins(data[histogramMaxBins*4:], g[:])
	writeBins(data[histogramMaxBins*4*2:], b[:])
	writeBins(data[histogramMaxBins*4*3:], luma[:])
	binary.LittleEndian.PutUint32(data[histogramMaxBins*4*4:], uint32(numBins))

	res.SetBuffer(out.ID, data)
	return nil
}

func binFor(v float32, numBins int) int {
	bin := int(clampf(v, 0, 1) * float32(numBins-1))
	if bin < 0 {
		bin = 0
	}
	if bin >= histogramMaxBins {
		bin = histogramMaxBins - 1
	}
	return bin
}

func writeBins(dst []byte, bins []uint32) {
	for i, v := range bins {
		binary.LittleEndian.PutUint32(dst[i*4:], v)
	}
}
