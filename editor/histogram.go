package editor

import (
	"encoding/binary"
	"fmt"

	"github.com/lumenforge/salon/ir"
	"github.com/lumenforge/salon/runtime"
)

// Histogram is the decoded form of a ComputeHistogram result buffer (§6):
// four fixed-capacity bin arrays (R, G, B, luma) plus the number of bins
// actually in use.
type Histogram struct {
	R, G, B, Luma [ir.HistogramMaxBins]uint32
	NumBins       int
}

// DecodeHistogram unpacks a ComputeHistogram result buffer's raw bytes,
// the transform a HistogramReader's BufferReader applies once its mapped
// bytes are available.
func DecodeHistogram(data []byte) (Histogram, error) {
	if len(data) != ir.HistogramBufferSize {
		return Histogram{}, fmt.Errorf("editor: histogram buffer has %d bytes, want %d", len(data), ir.HistogramBufferSize)
	}
	var h Histogram
	readBins(&h.R, data[0:])
	readBins(&h.G, data[ir.HistogramMaxBins*4:])
	readBins(&h.B, data[ir.HistogramMaxBins*4*2:])
	readBins(&h.Luma, data[ir.HistogramMaxBins*4*3:])
	h.NumBins = int(binary.LittleEndian.Uint32(data[ir.HistogramMaxBins*4*4:]))
	return h, nil
}

func readBins(dst *[ir.HistogramMaxBins]uint32, src []byte) {
	for i := range dst {
		dst[i] = binary.LittleEndian.Uint32(src[i*4:])
	}
}

// HistogramReader wraps the asynchronous histogram readback for one
// execution, carrying the previous frame's value forward until the new
// read completes so the UI never sees a blank histogram mid-poll (§4.7
// "collect_result"; the carried-over value is held in the fallback
// field).
type HistogramReader struct {
	reader       *runtime.BufferReader[Histogram]
	fallback     Histogram
	haveFallback bool
}

func newHistogramReader(reader *runtime.BufferReader[Histogram], fallback Histogram, haveFallback bool) *HistogramReader {
	return &HistogramReader{reader: reader, fallback: fallback, haveFallback: haveFallback}
}

// Poll returns the freshest histogram available: the new read if it has
// completed by now, otherwise the previous frame's value, if there was
// one.
func (h *HistogramReader) Poll() (Histogram, bool) {
	if v, ok := h.reader.Poll(); ok {
		return v, true
	}
	return h.fallback, h.haveFallback
}
