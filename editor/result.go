package editor

import "github.com/lumenforge/salon/runtime"

// MaskedEditResult names the intermediates one masked edit's lowering
// produced: the mask it composed, each term image that fed the
// composition, and the image the edit blended back in.
type MaskedEditResult struct {
	Mask        *runtime.Image
	MaskTerms   []*runtime.Image
	ResultImage *runtime.Image
}

// EditResult is what collectResult assembles after a completed
// execute_module, for the UI to display (§4.7). Histogram is nil when the
// lowering that produced this result did not request one (e.g. the
// full-size export path).
type EditResult struct {
	FinalImage        *runtime.Image
	GeometryOnly      *runtime.Image
	BeforeFraming     *runtime.Image
	Histogram         *HistogramReader
	MaskedEditResults []MaskedEditResult
}
