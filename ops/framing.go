package ops

import (
	"fmt"

	"github.com/lumenforge/salon/gpucore"
	"github.com/lumenforge/salon/ir"
	"github.com/lumenforge/salon/runtime"
)

// Framing implements ApplyFraming: letterboxes Arg onto a canvas of
// AspectRatio with a Gap-sized border, centering the source and filling
// the surrounding canvas with black.
type Framing struct{ b *base }

func NewFraming(tb *runtime.Toolbox) *Framing {
	f := &Framing{}
	f.b = newBase(tb, "apply-framing", 0, nil)
	return f
}

func (f *Framing) Reset() { f.b.reset() }

func (f *Framing) EncodeCommands(enc gpucore.Encoder, op ir.Op, store *ir.ValueStore, tb *runtime.Toolbox) error {
	o, ok := op.(ir.ApplyFraming)
	if !ok {
		return fmt.Errorf("ops: Framing given %T", op)
	}
	src, err := resolveImage(store, o.Arg)
	if err != nil {
		return err
	}

	dev := f.b.rt.Device()
	res, ok := dev.(gpucore.Resources)
	if !ok {
		return fmt.Errorf("ops: device does not implement gpucore.Resources")
	}
	srcTexels := res.Texture(src.FullView())
	if srcTexels == nil {
		return fmt.Errorf("ops: apply framing: source texture view not resolvable")
	}

	canvasW, canvasH, contentW, contentH, offX, offY := framingLayout(src.Width, src.Height, o.AspectRatio, o.Gap)

	dst, err := ensureOutputImage(f.b.rt, store, o.ResultID, canvasW, canvasH, src.Format, src.ColorSpace)
	if err != nil {
		return err
	}
	dstTexels := res.Texture(dst.FullView())
	if dstTexels == nil {
		return fmt.Errorf("ops: apply framing: destination texture view not resolvable")
	}

	black := gpucore.Texel{0, 0, 0, 1}
	for y := 0; y < int(canvasH); y++ {
		for x := 0; x < int(canvasW); x++ {
			sx := x - int(offX)
			sy := y - int(offY)
			if sx < 0 || sy < 0 || sx >= int(contentW) || sy >= int(contentH) {
				dstTexels.Set(x, y, black)
				continue
			}
			fx := (float64(sx)+0.5)*float64(src.Width)/float64(contentW) - 0.5
			fy := (float64(sy)+0.5)*float64(src.Height)/float64(contentH) - 0.5
			dstTexels.Set(x, y, sampleBilinearAt(srcTexels, fx, fy))
		}
	}

	return regenerateMipmaps(tb, dst, enc)
}

// framingLayout sizes a canvas at aspectRatio around a gap-inset copy of
// the source, preserving the source's own aspect ratio within the inset
// content area.
func framingLayout(srcW, srcH uint32, aspectRatio, gap float32) (canvasW, canvasH, contentW, contentH uint32, offX, offY float32) {
	srcAspect := float32(srcW) / float32(srcH)

	if aspectRatio >= srcAspect {
		canvasH = srcH
		canvasW = maxU32(1, uint32(float32(srcH)*aspectRatio+0.5))
	} else {
		canvasW = srcW
		canvasH = maxU32(1, uint32(float32(srcW)/aspectRatio+0.5))
	}

	inset := gap * float32(minu32(canvasW, canvasH))
	contentW = maxU32(1, canvasW-uint32(2*inset+0.5))
	contentH = maxU32(1, canvasH-uint32(2*inset+0.5))

	// Preserve the source's own aspect ratio within the inset box,
	// centering whatever margin remains.
	contentAspect := float32(contentW) / float32(contentH)
	if srcAspect > contentAspect {
		contentH = maxU32(1, uint32(float32(contentW)/srcAspect+0.5))
	} else {
		contentW = maxU32(1, uint32(float32(contentH)*srcAspect+0.5))
	}

	offX = float32(canvasW-contentW) / 2
	offY = float32(canvasH-contentH) / 2
	return
}

func minu32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
