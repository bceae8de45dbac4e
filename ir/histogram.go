package ir

// HistogramMaxBins is the fixed per-channel capacity every ComputeHistogram
// buffer carries (§4.3, §6: "each of fixed capacity (256 bins)"). Shared
// between the ops package, which writes this layout, and editor, which
// decodes it off an asynchronous BufferReader.
const HistogramMaxBins = 256

// HistogramBufferSize is the byte size of a ComputeHistogram result: four
// HistogramMaxBins-length u32 channel arrays (R, G, B, luma) plus a
// trailing u32 giving the actual bin count in use.
const HistogramBufferSize = (4*HistogramMaxBins + 1) * 4
