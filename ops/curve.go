package ops

import (
	"fmt"

	"github.com/lumenforge/salon/gpucore"
	"github.com/lumenforge/salon/ir"
	"github.com/lumenforge/salon/runtime"
)

// curveLUTSize is the number of samples the control-point spline is baked
// into before upload, mirroring the 255-step table the donor's Rust
// reference evaluates (one more sample to include both endpoints).
const curveLUTSize = 256

// curveUniformSize is the LUT plus three per-channel apply flags, packed
// as float32 0.0/1.0.
const curveUniformSize = curveLUTSize*4 + 3*4

// Curve implements ApplyCurve: bakes the control points into a LUT via a
// centripetal Catmull-Rom spline (grounded on the donor's
// utils/spline.rs basis matrix, simplified to parametrize t linearly
// between each pair of control points rather than by arc length) and
// samples it per channel.
type Curve struct{ b *base }

func NewCurve(tb *runtime.Toolbox) *Curve {
	c := &Curve{}
	c.b = newBase(tb, "apply-curve", curveUniformSize, curveKernel)
	return c
}

func curveKernel(res gpucore.Resources, bind gpucore.BindGroupDesc, _ gpucore.WorkgroupCount) {
	src := res.Texture(bind.Entries[0].Texture)
	dst := res.Texture(bind.Entries[1].Texture)
	if src == nil || dst == nil || len(bind.Entries) < 3 {
		return
	}
	data := res.Buffer(bind.Entries[2].Buffer)
	if len(data) < curveUniformSize {
		return
	}
	lut := make([]float32, curveLUTSize)
	for i := range lut {
		lut[i] = getF32(data[i*4:])
	}
	applyR := getF32(data[curveLUTSize*4:]) != 0
	applyG := getF32(data[curveLUTSize*4+4:]) != 0
	applyB := getF32(data[curveLUTSize*4+8:]) != 0

	w, h := dst.Width(), dst.Height()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := src.At(x, y)
			out := c
			if applyR {
				out[0] = sampleLUT(lut, c[0])
			}
			if applyG {
				out[1] = sampleLUT(lut, c[1])
			}
			if applyB {
				out[2] = sampleLUT(lut, c[2])
			}
			dst.Set(x, y, out)
		}
	}
}

func sampleLUT(lut []float32, v float32) float32 {
	v = clampf(v, 0, 1)
	pos := v * float32(len(lut)-1)
	i0 := int(pos)
	if i0 >= len(lut)-1 {
		return lut[len(lut)-1]
	}
	frac := pos - float32(i0)
	return lut[i0]*(1-frac) + lut[i0+1]*frac
}

// evaluateCurveLUT bakes control points (sorted by X, first and last
// pinned at the curve's domain edges) into curveLUTSize evenly spaced
// samples over x in [0,1].
func evaluateCurveLUT(points []ir.Point) [curveLUTSize]float32 {
	var lut [curveLUTSize]float32
	n := len(points)
	if n < 2 {
		for i := range lut {
			lut[i] = float32(i) / float32(curveLUTSize-1)
		}
		return lut
	}

	pFirst := ir.Point{X: points[0].X + (points[0].X - points[1].X), Y: points[0].Y + (points[0].Y - points[1].Y)}
	pLast := ir.Point{X: points[n-1].X + (points[n-1].X - points[n-2].X), Y: points[n-1].Y + (points[n-1].Y - points[n-2].Y)}

	ext := make([]ir.Point, 0, n+2)
	ext = append(ext, pFirst)
	ext = append(ext, points...)
	ext = append(ext, pLast)

	for i := range lut {
		x := float32(i) / float32(curveLUTSize-1)
		lut[i] = clampf(sampleCurveAt(ext, points, x), 0, 1)
	}
	return lut
}

func sampleCurveAt(ext, points []ir.Point, x float32) float32 {
	n := len(points)
	if x <= points[0].X {
		return points[0].Y
	}
	if x >= points[n-1].X {
		return points[n-1].Y
	}
	seg := 0
	for seg < n-2 && points[seg+1].X < x {
		seg++
	}
	pm1, p0, p1, p2 := ext[seg], ext[seg+1], ext[seg+2], ext[seg+3]

	var t float32
	if denom := p1.X - p0.X; denom != 0 {
		t = (x - p0.X) / denom
	}
	return catmullRomY(pm1, p0, p1, p2, t)
}

func catmullRomY(pm1, p0, p1, p2 ir.Point, t float32) float32 {
	t2 := t * t
	t3 := t2 * t
	bm1 := -t3 + 2*t2 - t
	b0 := 3*t3 - 5*t2 + 2
	b1 := -3*t3 + 4*t2 + t
	b2 := t3 - t2
	return (pm1.Y*bm1 + p0.Y*b0 + p1.Y*b1 + p2.Y*b2) * 0.5
}

func (c *Curve) Reset() { c.b.reset() }

func (c *Curve) EncodeCommands(enc gpucore.Encoder, op ir.Op, store *ir.ValueStore, tb *runtime.Toolbox) error {
	o, ok := op.(ir.ApplyCurve)
	if !ok {
		return fmt.Errorf("ops: Curve given %T", op)
	}
	src, err := resolveImage(store, o.Arg)
	if err != nil {
		return err
	}
	dst, err := ensureOutputImage(c.b.rt, store, o.ResultID, src.Width, src.Height, src.Format, src.ColorSpace)
	if err != nil {
		return err
	}

	lut := evaluateCurveLUT(o.ControlPoints)
	uniforms := make([]byte, curveUniformSize)
	for i, v := range lut {
		putF32(uniforms[i*4:], v)
	}
	putF32(uniforms[curveLUTSize*4:], boolToF32(o.ApplyR))
	putF32(uniforms[curveLUTSize*4+4:], boolToF32(o.ApplyG))
	putF32(uniforms[curveLUTSize*4+8:], boolToF32(o.ApplyB))

	if err := c.b.dispatchImage(enc, src, dst, uniforms); err != nil {
		return err
	}
	return regenerateMipmaps(tb, dst, enc)
}

func boolToF32(v bool) float32 {
	if v {
		return 1
	}
	return 0
}
