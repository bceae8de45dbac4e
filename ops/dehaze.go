package ops

import (
	"fmt"
	"sort"

	"github.com/lumenforge/salon/gpucore"
	"github.com/lumenforge/salon/ir"
	"github.com/lumenforge/salon/runtime"
)

// dehazeOmega and dehazeT0 are the single-pixel dark-channel dehaze
// formula's usual constants: omega controls how aggressively haze is
// removed, t0 floors the estimated transmission to avoid amplifying
// noise in the densest-haze regions.
const (
	dehazeOmega = 0.95
	dehazeT0    = 0.1
	// dehazeTailFraction is the brightest slice of the dark-channel
	// histogram treated as sky/haze-opaque when estimating airlight.
	dehazeTailFraction = 0.001
)

// PrepareDehaze implements PrepareDehaze: a four-stage histogram-based
// airlight estimate (clear, accumulate, tail-threshold, dehaze) run as a
// single synchronous pass in Go, since the software device executes every
// kernel inline during Submit anyway.
type PrepareDehaze struct{ b *base }

func NewPrepareDehaze(tb *runtime.Toolbox) *PrepareDehaze {
	p := &PrepareDehaze{}
	p.b = newBase(tb, "prepare-dehaze", 0, nil)
	return p
}

func (p *PrepareDehaze) Reset() { p.b.reset() }

func (p *PrepareDehaze) EncodeCommands(enc gpucore.Encoder, op ir.Op, store *ir.ValueStore, tb *runtime.Toolbox) error {
	o, ok := op.(ir.PrepareDehaze)
	if !ok {
		return fmt.Errorf("ops: PrepareDehaze given %T", op)
	}
	src, err := resolveImage(store, o.Arg)
	if err != nil {
		return err
	}
	dst, err := ensureOutputImage(p.b.rt, store, o.ResultID, src.Width, src.Height, src.Format, src.ColorSpace)
	if err != nil {
		return err
	}

	dev := p.b.rt.Device()
	res, ok := dev.(gpucore.Resources)
	if !ok {
		return fmt.Errorf("ops: device does not implement gpucore.Resources")
	}
	texels := res.Texture(src.FullView())
	if texels == nil {
		return fmt.Errorf("ops: prepare dehaze: source texture view not resolvable")
	}
	out := res.Texture(dst.FullView())
	if out == nil {
		return fmt.Errorf("ops: prepare dehaze: destination texture view not resolvable")
	}

	w, h := texels.Width(), texels.Height()

	// Pass 1+2: clear histogram, accumulate dark-channel bins.
	const numBins = 256
	var hist [numBins]int
	darkOf := func(c gpucore.Texel) float32 {
		d := c[0]
		if c[1] < d {
			d = c[1]
		}
		if c[2] < d {
			d = c[2]
		}
		return clampf(d, 0, 1)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			bin := int(darkOf(texels.At(x, y)) * (numBins - 1))
			hist[bin]++
		}
	}

	// Pass 3: walk the histogram from the bright end until the tail
	// fraction of pixels has been counted; that bin is the dark-channel
	// threshold used to pick airlight candidates.
	total := w * h
	tailBudget := int(float32(total) * dehazeTailFraction)
	if tailBudget < 1 {
		tailBudget = 1
	}
	threshold := numBins - 1
	counted := 0
	for bin := numBins - 1; bin >= 0; bin-- {
		counted += hist[bin]
		threshold = bin
		if counted >= tailBudget {
			break
		}
	}
	thresholdValue := float32(threshold) / (numBins - 1)

	var candidates []gpucore.Texel
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := texels.At(x, y)
			if darkOf(c) >= thresholdValue {
				candidates = append(candidates, c)
			}
		}
	}
	airlight := estimateAirlight(candidates)

	// Pass 4: per pixel, estimate transmission from the dark channel of
	// I/A and recover the dehazed color.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := texels.At(x, y)
			out.Set(x, y, dehazeTexel(c, airlight))
		}
	}

	return regenerateMipmaps(tb, dst, enc)
}

// estimateAirlight returns the mean color of the brightest dark-channel
// candidates, sorted for determinism rather than relying on map iteration
// order.
func estimateAirlight(candidates []gpucore.Texel) gpucore.Texel {
	if len(candidates) == 0 {
		return gpucore.Texel{1, 1, 1, 1}
	}
	sort.Slice(candidates, func(i, j int) bool {
		li := candidates[i][0] + candidates[i][1] + candidates[i][2]
		lj := candidates[j][0] + candidates[j][1] + candidates[j][2]
		return li < lj
	})
	var sr, sg, sb float32
	for _, c := range candidates {
		sr += c[0]
		sg += c[1]
		sb += c[2]
	}
	n := float32(len(candidates))
	return gpucore.Texel{sr / n, sg / n, sb / n, 1}
}

func dehazeTexel(c, airlight gpucore.Texel) gpucore.Texel {
	ratio := func(ch, a float32) float32 {
		if a <= 1e-4 {
			return 1
		}
		return ch / a
	}
	dark := clampf(minOf3(ratio(c[0], airlight[0]), ratio(c[1], airlight[1]), ratio(c[2], airlight[2])), 0, 1)
	t := clampf(1-dehazeOmega*dark, dehazeT0, 1)
	recover := func(ch, a float32) float32 {
		return a + (ch-a)/t
	}
	return gpucore.Texel{
		clampf(recover(c[0], airlight[0]), 0, 4),
		clampf(recover(c[1], airlight[1]), 0, 4),
		clampf(recover(c[2], airlight[2]), 0, 4),
		c[3],
	}
}

func minOf3(a, b, c float32) float32 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// ApplyDehaze implements ApplyDehaze: lerps the source image toward the
// PrepareDehaze result by Amount.
type ApplyDehaze struct{ b *base }

func NewApplyDehaze(tb *runtime.Toolbox) *ApplyDehaze {
	a := &ApplyDehaze{}
	a.b = newBase(tb, "apply-dehaze", 4, applyDehazeKernel)
	return a
}

func applyDehazeKernel(res gpucore.Resources, bind gpucore.BindGroupDesc, _ gpucore.WorkgroupCount) {
	src := res.Texture(bind.Entries[0].Texture)
	dst := res.Texture(bind.Entries[1].Texture)
	if src == nil || dst == nil || len(bind.Entries) < 4 {
		return
	}
	dehazed := res.Texture(bind.Entries[3].Texture)
	if dehazed == nil {
		return
	}
	params := decodeParams(res, bind, 2, 1)
	amount := float32(0)
	if len(params) > 0 {
		amount = params[0]
	}
	w, h := dst.Width(), dst.Height()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := src.At(x, y)
			d := dehazed.At(x, y)
			out := gpucore.Texel{
				c[0] + (d[0]-c[0])*amount,
				c[1] + (d[1]-c[1])*amount,
				c[2] + (d[2]-c[2])*amount,
				c[3],
			}
			dst.Set(x, y, out)
		}
	}
}

func (a *ApplyDehaze) Reset() { a.b.reset() }

func (a *ApplyDehaze) EncodeCommands(enc gpucore.Encoder, op ir.Op, store *ir.ValueStore, tb *runtime.Toolbox) error {
	o, ok := op.(ir.ApplyDehaze)
	if !ok {
		return fmt.Errorf("ops: ApplyDehaze given %T", op)
	}
	src, err := resolveImage(store, o.Arg)
	if err != nil {
		return err
	}
	dehazed, err := resolveImage(store, o.Dehazed)
	if err != nil {
		return err
	}
	dst, err := ensureOutputImage(a.b.rt, store, o.ResultID, src.Width, src.Height, src.Format, src.ColorSpace)
	if err != nil {
		return err
	}
	var uniforms [4]byte
	putF32(uniforms[0:4], o.Amount)
	extra := gpucore.BindGroupEntry{Binding: 3, Texture: dehazed.FullView()}
	if err := a.b.dispatchImage(enc, src, dst, uniforms[:], extra); err != nil {
		return err
	}
	return regenerateMipmaps(tb, dst, enc)
}
