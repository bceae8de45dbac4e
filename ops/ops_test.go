package ops

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/lumenforge/salon/gpucore"
	"github.com/lumenforge/salon/internal/color"
	"github.com/lumenforge/salon/internal/gpu"
	"github.com/lumenforge/salon/ir"
	"github.com/lumenforge/salon/runtime"
)

func newTestImage(t *testing.T, rt *runtime.Runtime, w, h int, fill gpucore.Texel) *runtime.Image {
	t.Helper()
	img, err := rt.CreateImage(uint32(w), uint32(h), gpucore.TextureFormatRGBA16Float, color.ColorSpaceLinear)
	if err != nil {
		t.Fatalf("CreateImage: %v", err)
	}
	data := make([]byte, w*h*16)
	for i := 0; i < w*h; i++ {
		off := i * 16
		for c := 0; c < 4; c++ {
			binary.LittleEndian.PutUint32(data[off+c*4:], math.Float32bits(fill[c]))
		}
	}
	if err := rt.Device().WriteTexture(img.ID, 0, data); err != nil {
		t.Fatalf("WriteTexture: %v", err)
	}
	return img
}

func resourcesOf(t *testing.T, rt *runtime.Runtime) gpucore.Resources {
	t.Helper()
	res, ok := rt.Device().(gpucore.Resources)
	if !ok {
		t.Fatal("device does not implement gpucore.Resources")
	}
	return res
}

// TestCurveIdentityLUT checks that a straight-line control point set (the
// default curve) leaves every sample unchanged (§8: curve LUT identity).
func TestCurveIdentityLUT(t *testing.T) {
	lut := evaluateCurveLUT([]ir.Point{{X: 0, Y: 0}, {X: 1, Y: 1}})
	for i, v := range lut {
		x := float32(i) / float32(curveLUTSize-1)
		if math.Abs(float64(v-x)) > 1e-3 {
			t.Fatalf("identity curve lut[%d] = %v, want ~%v", i, v, x)
		}
	}
}

func TestCurveEncodeCommandsAppliesIdentity(t *testing.T) {
	rt := runtime.New(gpu.New())
	tb := rt.Toolbox()
	src := newTestImage(t, rt, 2, 2, gpucore.Texel{0.25, 0.6, 0.9, 1})

	store := ir.NewValueStore()
	store.Set(1, ir.ImageValue(src))

	op := ir.ApplyCurve{
		ResultID:      2,
		Arg:           1,
		ControlPoints: []ir.Point{{X: 0, Y: 0}, {X: 1, Y: 1}},
		ApplyR:        true,
		ApplyG:        true,
		ApplyB:        true,
	}

	c := NewCurve(tb)
	enc := rt.NewEncoder("test-curve")
	if err := c.EncodeCommands(enc, op, store, tb); err != nil {
		t.Fatalf("EncodeCommands: %v", err)
	}
	enc.Submit()

	v, ok := store.Get(2)
	if !ok || !v.IsImage() {
		t.Fatal("expected an image result")
	}
	out := resourcesOf(t, rt).Texture(v.Image.FullView())
	got := out.At(0, 0)
	want := gpucore.Texel{0.25, 0.6, 0.9, 1}
	for i := 0; i < 3; i++ {
		if math.Abs(float64(got[i]-want[i])) > 1e-3 {
			t.Errorf("identity curve At(0,0)[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

// TestHistogramBinSumEqualsPixelCount checks §8's "Histogram monotonicity":
// the sum over all bins of any channel equals the total pixel count.
func TestHistogramBinSumEqualsPixelCount(t *testing.T) {
	rt := runtime.New(gpu.New())
	tb := rt.Toolbox()

	const w, h = 5, 3
	img, err := rt.CreateImage(w, h, gpucore.TextureFormatRGBA16Float, color.ColorSpaceLinear)
	if err != nil {
		t.Fatalf("CreateImage: %v", err)
	}
	data := make([]byte, w*h*16)
	for i := 0; i < w*h; i++ {
		off := i * 16
		v := float32(i%7) / 6
		for c := 0; c < 3; c++ {
			binary.LittleEndian.PutUint32(data[off+c*4:], math.Float32bits(v))
		}
		binary.LittleEndian.PutUint32(data[off+12:], math.Float32bits(1))
	}
	if err := rt.Device().WriteTexture(img.ID, 0, data); err != nil {
		t.Fatalf("WriteTexture: %v", err)
	}

	store := ir.NewValueStore()
	store.Set(1, ir.ImageValue(img))
	op := ir.ComputeHistogram{ResultID: 2, Arg: 1}

	histOp := NewHistogram(tb)
	enc := rt.NewEncoder("test-histogram")
	if err := histOp.EncodeCommands(enc, op, store, tb); err != nil {
		t.Fatalf("EncodeCommands: %v", err)
	}
	enc.Submit()

	v, ok := store.Get(2)
	if !ok || !v.IsBuffer() {
		t.Fatal("expected a buffer result")
	}
	data2 := resourcesOf(t, rt).Buffer(v.Buffer.ID)
	numBins := int(binary.LittleEndian.Uint32(data2[histogramMaxBins*4*4:]))

	for ch := 0; ch < 4; ch++ {
		var sum uint32
		base := ch * histogramMaxBins * 4
		for b := 0; b < numBins; b++ {
			sum += binary.LittleEndian.Uint32(data2[base+b*4:])
		}
		if sum != w*h {
			t.Errorf("channel %d bin sum = %d, want %d", ch, sum, w*h)
		}
	}
}

// TestMaskCombinators exercises AddMask (max), SubtractMask
// (max(a-b,0)), and InvertMask (1-a) pixel math end to end.
func TestMaskCombinators(t *testing.T) {
	rt := runtime.New(gpu.New())
	tb := rt.Toolbox()

	m0 := newTestImage(t, rt, 2, 2, gpucore.Texel{0.3, 0.3, 0.3, 1})
	m1 := newTestImage(t, rt, 2, 2, gpucore.Texel{0.8, 0.8, 0.8, 1})

	run := func(impl Implementation, op ir.Op) gpucore.Texel {
		store := ir.NewValueStore()
		store.Set(10, ir.ImageValue(m0))
		store.Set(11, ir.ImageValue(m1))
		enc := rt.NewEncoder("test-mask-combinator")
		if err := impl.EncodeCommands(enc, op, store, tb); err != nil {
			t.Fatalf("EncodeCommands: %v", err)
		}
		enc.Submit()
		v, ok := store.Get(op.Result())
		if !ok || !v.IsImage() {
			t.Fatal("expected an image result")
		}
		return resourcesOf(t, rt).Texture(v.Image.FullView()).At(0, 0)
	}

	if got := run(NewAddMask(tb), ir.AddMask{ResultID: 20, Mask0: 10, Mask1: 11}); math.Abs(float64(got[0]-0.8)) > 1e-3 {
		t.Errorf("AddMask = %v, want ~0.8", got[0])
	}
	if got := run(NewSubtractMask(tb), ir.SubtractMask{ResultID: 21, Mask0: 11, Mask1: 10}); math.Abs(float64(got[0]-0.5)) > 1e-3 {
		t.Errorf("SubtractMask(0.8, 0.3) = %v, want ~0.5", got[0])
	}
	if got := run(NewSubtractMask(tb), ir.SubtractMask{ResultID: 22, Mask0: 10, Mask1: 11}); got[0] != 0 {
		t.Errorf("SubtractMask(0.3, 0.8) = %v, want 0 (clamped)", got[0])
	}
	if got := run(NewInvertMask(tb), ir.InvertMask{ResultID: 23, Mask0: 10}); math.Abs(float64(got[0]-0.7)) > 1e-3 {
		t.Errorf("InvertMask(0.3) = %v, want ~0.7", got[0])
	}
}

// TestEstimateAirlightDeterministic checks that estimateAirlight is
// insensitive to the input candidate slice's initial order, since it sorts
// internally before averaging.
func TestEstimateAirlightDeterministic(t *testing.T) {
	a := []gpucore.Texel{{0.9, 0.9, 0.9, 1}, {0.1, 0.1, 0.1, 1}, {0.5, 0.6, 0.4, 1}}
	b := []gpucore.Texel{{0.5, 0.6, 0.4, 1}, {0.9, 0.9, 0.9, 1}, {0.1, 0.1, 0.1, 1}}

	got1 := estimateAirlight(append([]gpucore.Texel(nil), a...))
	got2 := estimateAirlight(append([]gpucore.Texel(nil), b...))
	if got1 != got2 {
		t.Errorf("estimateAirlight not order-independent: %v vs %v", got1, got2)
	}

	if got := estimateAirlight(nil); got != (gpucore.Texel{1, 1, 1, 1}) {
		t.Errorf("estimateAirlight(nil) = %v, want all-white fallback", got)
	}
}

// TestBasicStatisticsMeans checks ComputeBasicStatistics against a
// constant-color image, where mean R/G/B/luma all collapse to the fill
// value (modulo luma's channel weights).
func TestBasicStatisticsMeans(t *testing.T) {
	rt := runtime.New(gpu.New())
	tb := rt.Toolbox()

	img := newTestImage(t, rt, 4, 4, gpucore.Texel{0.2, 0.4, 0.6, 1})
	store := ir.NewValueStore()
	store.Set(1, ir.ImageValue(img))
	op := ir.ComputeBasicStatistics{ResultID: 2, Arg: 1}

	stats := NewBasicStatistics(tb)
	enc := rt.NewEncoder("test-basic-statistics")
	if err := stats.EncodeCommands(enc, op, store, tb); err != nil {
		t.Fatalf("EncodeCommands: %v", err)
	}
	enc.Submit()

	v, ok := store.Get(2)
	if !ok || !v.IsBuffer() {
		t.Fatal("expected a buffer result")
	}
	data := resourcesOf(t, rt).Buffer(v.Buffer.ID)
	meanR := math.Float32frombits(binary.LittleEndian.Uint32(data[0:4]))
	meanG := math.Float32frombits(binary.LittleEndian.Uint32(data[4:8]))
	meanB := math.Float32frombits(binary.LittleEndian.Uint32(data[8:12]))
	meanLuma := math.Float32frombits(binary.LittleEndian.Uint32(data[12:16]))
	count := math.Float32frombits(binary.LittleEndian.Uint32(data[16:20]))

	if math.Abs(float64(meanR-0.2)) > 1e-4 || math.Abs(float64(meanG-0.4)) > 1e-4 || math.Abs(float64(meanB-0.6)) > 1e-4 {
		t.Errorf("means = (%v, %v, %v), want (0.2, 0.4, 0.6)", meanR, meanG, meanB)
	}
	wantLuma := 0.2126*float32(0.2) + 0.7152*float32(0.4) + 0.0722*float32(0.6)
	if math.Abs(float64(meanLuma-wantLuma)) > 1e-4 {
		t.Errorf("meanLuma = %v, want %v", meanLuma, wantLuma)
	}
	if count != 16 {
		t.Errorf("pixel count = %v, want 16", count)
	}
}

// TestGlobalMaskIsAllOnes checks ComputeGlobalMask fills every texel with 1.
func TestGlobalMaskIsAllOnes(t *testing.T) {
	rt := runtime.New(gpu.New())
	tb := rt.Toolbox()

	target := newTestImage(t, rt, 3, 3, gpucore.Texel{0, 0, 0, 1})
	store := ir.NewValueStore()
	store.Set(1, ir.ImageValue(target))
	op := ir.ComputeGlobalMask{ResultID: 2, Target: 1}

	mask := NewGlobalMask(tb)
	enc := rt.NewEncoder("test-global-mask")
	if err := mask.EncodeCommands(enc, op, store, tb); err != nil {
		t.Fatalf("EncodeCommands: %v", err)
	}
	enc.Submit()

	v, _ := store.Get(2)
	out := resourcesOf(t, rt).Texture(v.Image.FullView())
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			if c := out.At(x, y); c[0] != 1 || c[1] != 1 || c[2] != 1 {
				t.Fatalf("At(%d,%d) = %v, want all ones", x, y, c)
			}
		}
	}
}

// TestDehazeTexelNoOpAtZeroAmount checks, on an inline copy of the lerp
// formula the dehaze kernel uses, that the source color comes back
// unchanged when Amount is 0.
func TestDehazeTexelNoOpAtZeroAmount(t *testing.T) {
	c := gpucore.Texel{0.4, 0.5, 0.6, 1}
	d := gpucore.Texel{0.9, 0.1, 0.2, 1}
	out := gpucore.Texel{
		c[0] + (d[0]-c[0])*0,
		c[1] + (d[1]-c[1])*0,
		c[2] + (d[2]-c[2])*0,
		c[3],
	}
	if out != c {
		t.Errorf("zero-amount dehaze lerp = %v, want unchanged %v", out, c)
	}
}

// TestEnsureOutputImageReusesMatchingShape checks the value-reuse contract
// (§4.5): calling ensureOutputImage again with identical dimensions/format
// must hand back the same *runtime.Image, not allocate a new one.
func TestEnsureOutputImageReusesMatchingShape(t *testing.T) {
	rt := runtime.New(gpu.New())
	store := ir.NewValueStore()

	first, err := ensureOutputImage(rt, store, 1, 4, 4, gpucore.TextureFormatRGBA16Float, color.ColorSpaceLinear)
	if err != nil {
		t.Fatalf("ensureOutputImage: %v", err)
	}
	second, err := ensureOutputImage(rt, store, 1, 4, 4, gpucore.TextureFormatRGBA16Float, color.ColorSpaceLinear)
	if err != nil {
		t.Fatalf("ensureOutputImage: %v", err)
	}
	if first != second {
		t.Error("expected ensureOutputImage to reuse the existing value when shape matches exactly")
	}

	third, err := ensureOutputImage(rt, store, 1, 8, 8, gpucore.TextureFormatRGBA16Float, color.ColorSpaceLinear)
	if err != nil {
		t.Fatalf("ensureOutputImage: %v", err)
	}
	if third == first {
		t.Error("expected ensureOutputImage to allocate fresh when dimensions change")
	}
}
