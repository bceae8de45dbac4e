package ops

import (
	"fmt"

	"github.com/lumenforge/salon/gpucore"
	"github.com/lumenforge/salon/ir"
	"github.com/lumenforge/salon/runtime"
)

// Resize implements Resize: delegates to the toolbox's bilinear resize
// helper. Like BasicStatistics and PrepareDehaze, it computes its pixels
// synchronously inside EncodeCommands; the new image's mipmaps are
// recorded on the toolbox's own encoder rather than the caller's —
// Resize changes an image's dimensions outright rather than filling an
// existing destination, so there is no dst to hand dispatchImage.
type Resize struct {
	rt *runtime.Runtime
}

func NewResize(tb *runtime.Toolbox) *Resize {
	return &Resize{rt: tb.Runtime()}
}

func (r *Resize) Reset() {}

func (r *Resize) EncodeCommands(_ gpucore.Encoder, op ir.Op, store *ir.ValueStore, tb *runtime.Toolbox) error {
	o, ok := op.(ir.Resize)
	if !ok {
		return fmt.Errorf("ops: Resize given %T", op)
	}
	src, err := resolveImage(store, o.Arg)
	if err != nil {
		return err
	}

	if v, ok := store.Get(o.ResultID); ok && v.IsImage() {
		want := resizedDimensions(src.Width, src.Height, o.Factor)
		img := v.Image
		if img.Width == want.width && img.Height == want.height && img.Format == src.Format && img.ColorSpace == src.ColorSpace {
			return nil
		}
	}

	dst, err := tb.Resize(src, o.Factor)
	if err != nil {
		return err
	}
	store.Set(o.ResultID, ir.ImageValue(dst))
	return nil
}

type dims struct{ width, height uint32 }

func resizedDimensions(width, height uint32, factor float32) dims {
	newW := uint32(float32(width)*factor + 0.5)
	if newW < 1 {
		newW = 1
	}
	newH := uint32(float32(height)*factor + 0.5)
	if newH < 1 {
		newH = 1
	}
	return dims{width: newW, height: newH}
}
