package ops

import (
	"fmt"

	"github.com/lumenforge/salon/gpucore"
	"github.com/lumenforge/salon/ir"
	"github.com/lumenforge/salon/runtime"
)

// HighlightsShadows implements AdjustHighlightsAndShadows: independently
// pushes the upper and lower tonal ranges via a luma-weighted blend.
type HighlightsShadows struct{ b *base }

func NewHighlightsShadows(tb *runtime.Toolbox) *HighlightsShadows {
	h := &HighlightsShadows{}
	h.b = newBase(tb, "adjust-highlights-shadows", 8, perPixelKernel(2, highlightsShadowsTexel))
	return h
}

func highlightsShadowsTexel(c gpucore.Texel, params []float32, _, _, _, _ int) gpucore.Texel {
	highlights, shadows := params[0], params[1]
	luma := 0.2126*c[0] + 0.7152*c[1] + 0.0722*c[2]

	// Highlights weight rises with luma, shadows weight falls with it; each
	// is a smooth [0,1] ramp so the adjustment fades out at the opposite
	// end of the tonal range.
	highlightWeight := clampf(luma, 0, 1)
	shadowWeight := 1 - highlightWeight

	var out gpucore.Texel
	for i := 0; i < 3; i++ {
		v := c[i]
		v += highlights * highlightWeight * 0.5
		v += shadows * shadowWeight * 0.5
		out[i] = v
	}
	out[3] = c[3]
	return out
}

func (h *HighlightsShadows) Reset() { h.b.reset() }

func (h *HighlightsShadows) EncodeCommands(enc gpucore.Encoder, op ir.Op, store *ir.ValueStore, tb *runtime.Toolbox) error {
	o, ok := op.(ir.AdjustHighlightsAndShadows)
	if !ok {
		return fmt.Errorf("ops: HighlightsShadows given %T", op)
	}
	src, err := resolveImage(store, o.Arg)
	if err != nil {
		return err
	}
	dst, err := ensureOutputImage(h.b.rt, store, o.ResultID, src.Width, src.Height, src.Format, src.ColorSpace)
	if err != nil {
		return err
	}
	var uniforms [8]byte
	putF32(uniforms[0:4], o.Highlights)
	putF32(uniforms[4:8], o.Shadows)
	if err := h.b.dispatchImage(enc, src, dst, uniforms[:]); err != nil {
		return err
	}
	return regenerateMipmaps(tb, dst, enc)
}
