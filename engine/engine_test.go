package engine

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

func buildExposureModule(exposure float32) *ir.Module {
	m := ir.NewModule()
	in := m.AllocID()
	m.Append(ir.Input{ResultID: in})
	m.Append(ir.AdjustExposure{ResultID: m.AllocID(), Arg: in, Exposure: exposure})
	return m
}

func TestExecuteModuleIdentityEditRoundTrip(t *testing.T) {
	rt := runtime.New(gpu.New())
	eng := New(rt.Toolbox())
	ec := NewExecutionContext()

	input := newTestImage(t, rt, 2, 2, gpucore.Texel{0.5, 0.5, 0.5, 1})

	m := ir.NewModule()
	in := m.AllocID()
	m.Append(ir.Input{ResultID: in})
	m.Append(ir.AdjustExposure{ResultID: m.AllocID(), Arg: in, Exposure: 0})

	if err := eng.ExecuteModule(m, input, ec); err != nil {
		t.Fatalf("ExecuteModule: %v", err)
	}

	resultID := m.Ops[len(m.Ops)-1].Result()
	v, ok := ec.ValueStore.Get(resultID)
	if !ok || !v.IsImage() {
		t.Fatalf("expected an image result at id %d", resultID)
	}
	res, ok := rt.Device().(gpucore.Resources)
	if !ok {
		t.Fatal("device does not implement gpucore.Resources")
	}
	out := res.Texture(v.Image.FullView())
	got := out.At(0, 0)
	if math.Abs(float64(got[0]-0.5)) > 1e-4 {
		t.Errorf("identity exposure: At(0,0).R = %v, want ~0.5", got[0])
	}
}

func TestExecuteModuleReusesCommonPrefix(t *testing.T) {
	rt := runtime.New(gpu.New())
	eng := New(rt.Toolbox())
	ec := NewExecutionContext()

	input := newTestImage(t, rt, 2, 2, gpucore.Texel{0.2, 0.2, 0.2, 1})

	m1 := buildExposureModule(0.5)
	if err := eng.ExecuteModule(m1, input, ec); err != nil {
		t.Fatalf("first ExecuteModule: %v", err)
	}
	firstResultID := m1.Ops[1].Result()
	v1, _ := ec.ValueStore.Get(firstResultID)
	firstImg := v1.Image

	// A second module sharing the Input op but a different Exposure value
	// must recompute the AdjustExposure result, not reuse it: the common
	// prefix is length 1 (Input only).
	m2 := buildExposureModule(1.5)
	if err := eng.ExecuteModule(m2, input, ec); err != nil {
		t.Fatalf("second ExecuteModule: %v", err)
	}
	if got := ir.CommonPrefixLength(m1, m2); got != 1 {
		t.Fatalf("CommonPrefixLength(m1, m2) = %d, want 1", got)
	}

	// A third module identical to m2 must be able to reuse everything;
	// verify by handing it a reusable id set covering its single op and
	// confirming computeReusableIDs actually reports it.
	m3 := buildExposureModule(1.5)
	reusable := ec.computeReusableIDs(m3, input.ID)
	if !reusable[m3.Ops[1].Result()] {
		t.Errorf("expected AdjustExposure result to be reusable against an identical prior module")
	}
	_ = firstImg
}

func TestExecuteModuleInvalidatesReuseOnInputChange(t *testing.T) {
	rt := runtime.New(gpu.New())
	eng := New(rt.Toolbox())
	ec := NewExecutionContext()

	inputA := newTestImage(t, rt, 2, 2, gpucore.Texel{0.2, 0.2, 0.2, 1})
	inputB := newTestImage(t, rt, 2, 2, gpucore.Texel{0.8, 0.8, 0.8, 1})

	m := buildExposureModule(0.5)
	if err := eng.ExecuteModule(m, inputA, ec); err != nil {
		t.Fatalf("first ExecuteModule: %v", err)
	}

	// Same module, different input identity: nothing should be reusable.
	reusable := ec.computeReusableIDs(m, inputB.ID)
	if len(reusable) != 0 {
		t.Errorf("expected no reusable ids after an input image change, got %v", reusable)
	}
}
