package ops

import (
	"fmt"

	"github.com/lumenforge/salon/gpucore"
	"github.com/lumenforge/salon/ir"
	"github.com/lumenforge/salon/runtime"
)

// Contrast implements AdjustContrast: push RGB away from (or toward) the
// mean luma reported by a prerequisite ComputeBasicStatistics (§4.4: "contrast
// depends on basic statistics of its input").
type Contrast struct{ b *base }

func NewContrast(tb *runtime.Toolbox) *Contrast {
	c := &Contrast{}
	c.b = newBase(tb, "adjust-contrast", 4, contrastKernel)
	return c
}

func contrastKernel(res gpucore.Resources, bind gpucore.BindGroupDesc, _ gpucore.WorkgroupCount) {
	src := res.Texture(bind.Entries[0].Texture)
	dst := res.Texture(bind.Entries[1].Texture)
	if src == nil || dst == nil || len(bind.Entries) < 4 {
		return
	}
	params := decodeParams(res, bind, 2, 1)
	amount := params[0]

	stats := res.Buffer(bind.Entries[3].Buffer)
	if len(stats) < 16 {
		return
	}
	meanLuma := getF32(stats[12:16])

	w, h := dst.Width(), dst.Height()
	factor := 1 + amount
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := src.At(x, y)
			var out gpucore.Texel
			for i := 0; i < 3; i++ {
				out[i] = meanLuma + (c[i]-meanLuma)*factor
			}
			out[3] = c[3]
			dst.Set(x, y, out)
		}
	}
}

func (c *Contrast) Reset() { c.b.reset() }

func (c *Contrast) EncodeCommands(enc gpucore.Encoder, op ir.Op, store *ir.ValueStore, tb *runtime.Toolbox) error {
	o, ok := op.(ir.AdjustContrast)
	if !ok {
		return fmt.Errorf("ops: Contrast given %T", op)
	}
	src, err := resolveImage(store, o.Arg)
	if err != nil {
		return err
	}
	stats, err := resolveBuffer(store, o.BasicStats)
	if err != nil {
		return err
	}
	dst, err := ensureOutputImage(c.b.rt, store, o.ResultID, src.Width, src.Height, src.Format, src.ColorSpace)
	if err != nil {
		return err
	}
	var uniforms [4]byte
	putF32(uniforms[:], o.Contrast)
	if err := c.b.dispatchImage(enc, src, dst, uniforms[:], gpucore.BindGroupEntry{Binding: 3, Buffer: stats.ID, Size: stats.Size}); err != nil {
		return err
	}
	return regenerateMipmaps(tb, dst, enc)
}
