package ops

import (
	"github.com/lumenforge/salon/ir"
	"github.com/lumenforge/salon/runtime"
)

// Constructor builds a fresh Implementation bound to the given toolbox.
// The engine calls one per op variant it ever encounters, lazily, and
// keeps the result for its own lifetime (§4.6: "one optional
// implementation per op variant, lazily initialized").
type Constructor func(tb *runtime.Toolbox) Implementation

// Registry maps each ir.Op variant's Kind() to its Constructor. Input is
// deliberately absent: the engine binds it directly into the value store
// rather than dispatching to an Implementation.
var Registry = map[string]Constructor{
	ir.Resize{}.Kind():                      func(tb *runtime.Toolbox) Implementation { return NewResize(tb) },
	ir.RotateAndCrop{}.Kind():                func(tb *runtime.Toolbox) Implementation { return NewRotateAndCrop(tb) },
	ir.AdjustExposure{}.Kind():               func(tb *runtime.Toolbox) Implementation { return NewExposure(tb) },
	ir.ComputeBasicStatistics{}.Kind():       func(tb *runtime.Toolbox) Implementation { return NewBasicStatistics(tb) },
	ir.AdjustContrast{}.Kind():               func(tb *runtime.Toolbox) Implementation { return NewContrast(tb) },
	ir.AdjustHighlightsAndShadows{}.Kind():   func(tb *runtime.Toolbox) Implementation { return NewHighlightsShadows(tb) },
	ir.ApplyCurve{}.Kind():                   func(tb *runtime.Toolbox) Implementation { return NewCurve(tb) },
	ir.AdjustTemperatureAndTint{}.Kind():     func(tb *runtime.Toolbox) Implementation { return NewTemperatureTint(tb) },
	ir.AdjustVibranceAndSaturation{}.Kind():  func(tb *runtime.Toolbox) Implementation { return NewVibranceSaturation(tb) },
	ir.ColorMix{}.Kind():                     func(tb *runtime.Toolbox) Implementation { return NewColorMix(tb) },
	ir.AdjustVignette{}.Kind():               func(tb *runtime.Toolbox) Implementation { return NewVignette(tb) },
	ir.PrepareDehaze{}.Kind():                func(tb *runtime.Toolbox) Implementation { return NewPrepareDehaze(tb) },
	ir.ApplyDehaze{}.Kind():                  func(tb *runtime.Toolbox) Implementation { return NewApplyDehaze(tb) },
	ir.ComputeHistogram{}.Kind():             func(tb *runtime.Toolbox) Implementation { return NewHistogram(tb) },
	ir.ComputeGlobalMask{}.Kind():            func(tb *runtime.Toolbox) Implementation { return NewGlobalMask(tb) },
	ir.ComputeRadialGradientMask{}.Kind():    func(tb *runtime.Toolbox) Implementation { return NewRadialGradientMask(tb) },
	ir.ComputeLinearGradientMask{}.Kind():    func(tb *runtime.Toolbox) Implementation { return NewLinearGradientMask(tb) },
	ir.AddMask{}.Kind():                      func(tb *runtime.Toolbox) Implementation { return NewAddMask(tb) },
	ir.SubtractMask{}.Kind():                 func(tb *runtime.Toolbox) Implementation { return NewSubtractMask(tb) },
	ir.InvertMask{}.Kind():                   func(tb *runtime.Toolbox) Implementation { return NewInvertMask(tb) },
	ir.ApplyMaskedEdits{}.Kind():             func(tb *runtime.Toolbox) Implementation { return NewApplyMaskedEdits(tb) },
	ir.ApplyFraming{}.Kind():                 func(tb *runtime.Toolbox) Implementation { return NewFraming(tb) },
}
