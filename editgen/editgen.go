// Package editgen lowers a user-facing edit.Edit into an ir.Module: the
// two-level IR's translation step (§4.4). Ops are emitted only for
// parameters that deviate from identity, so a freshly created edit lowers
// to a near-empty module and every slider touch advances only as much of
// the chain as actually changed.
package editgen

import (
	"github.com/lumenforge/salon/edit"
	"github.com/lumenforge/salon/ir"
)

// MaskedEditIdStore records the identifiers a single masked edit's lowering
// allocated: its mask accumulator, each term's intermediate mask image, and
// the image produced by blending the edited result back in.
type MaskedEditIdStore struct {
	MaskID        ir.Id
	TermIDs       []ir.Id
	ResultImageID ir.Id
}

// IdStore names every identifier a caller needs after lowering, beyond what
// is already recoverable by walking module.Ops (§4.4).
type IdStore struct {
	FinalImage      ir.Id
	GeometryOnly    ir.Id
	BeforeFraming   ir.Id
	FinalHistogram  ir.Id
	MaskedEditIDs   []MaskedEditIdStore
}

// Options controls which optional ops lowering emits.
type Options struct {
	ComputeHistogram bool
}

// Lower translates e into a Module plus the IdStore locating its named
// intermediates, per the algorithm in §4.4.
func Lower(e edit.Edit, opts Options) (*ir.Module, IdStore) {
	m := ir.NewModule()

	inputID := m.AllocID()
	m.Append(ir.Input{ResultID: inputID})
	current := inputID

	maybeAddResize(e, m, &current)
	maybeAddRotateAndCrop(e, m, &current)
	geometryOnly := current

	maskedIDs := make([]MaskedEditIdStore, 0, len(e.MaskedEdits))
	for _, me := range e.MaskedEdits {
		store := addMaskedEdit(me, m, current)
		current = store.ResultImageID
		maskedIDs = append(maskedIDs, store)
	}

	beforeFraming := current
	maybeAddFraming(e, m, &current)
	finalImage := current

	var histogramID ir.Id
	if opts.ComputeHistogram {
		histogramID = m.AllocID()
		m.Append(ir.ComputeHistogram{ResultID: histogramID, Arg: finalImage})
	}

	return m, IdStore{
		FinalImage:     finalImage,
		GeometryOnly:   geometryOnly,
		BeforeFraming:  beforeFraming,
		FinalHistogram: histogramID,
		MaskedEditIDs:  maskedIDs,
	}
}

func maybeAddResize(e edit.Edit, m *ir.Module, current *ir.Id) {
	if e.ResizeFactor == nil || *e.ResizeFactor == 1.0 {
		return
	}
	result := m.AllocID()
	m.Append(ir.Resize{ResultID: result, Arg: *current, Factor: *e.ResizeFactor})
	*current = result
}

func maybeAddRotateAndCrop(e edit.Edit, m *ir.Module, current *ir.Id) {
	cropIsIdentity := e.CropRect == nil || e.CropRect.IsIdentity()
	if e.RotationDegrees == 0 && cropIsIdentity {
		return
	}
	rect := edit.IdentityRectangle()
	if e.CropRect != nil {
		rect = *e.CropRect
	}
	result := m.AllocID()
	m.Append(ir.RotateAndCrop{
		ResultID:        result,
		Arg:             *current,
		RotationDegrees: e.RotationDegrees,
		CropRect:        ir.Rectangle{X: rect.X, Y: rect.Y, Width: rect.Width, Height: rect.Height},
	})
	*current = result
}

func maybeAddFraming(e edit.Edit, m *ir.Module, current *ir.Id) {
	if e.Framing == nil {
		return
	}
	result := m.AllocID()
	m.Append(ir.ApplyFraming{ResultID: result, Arg: *current, AspectRatio: e.Framing.AspectRatio, Gap: e.Framing.Gap})
	*current = result
}

func addMaskedEdit(me edit.MaskedEdit, m *ir.Module, target ir.Id) MaskedEditIdStore {
	maskID, termIDs := lowerMask(me.Mask, target, m)

	editedID := addGlobalEdit(me.GlobalEdit, m, target)

	result := m.AllocID()
	m.Append(ir.ApplyMaskedEdits{
		ResultID:       result,
		OriginalTarget: target,
		Edited:         editedID,
		Mask:           maskID,
	})

	return MaskedEditIdStore{MaskID: maskID, TermIDs: termIDs, ResultImageID: result}
}

// lowerMask emits one primitive op per term, then left-folds the terms into
// a single mask accumulator: AddMask for additive terms, SubtractMask for
// subtracted ones, each optionally preceded by InvertMask (§4.4).
func lowerMask(mask edit.Mask, target ir.Id, m *ir.Module) (ir.Id, []ir.Id) {
	termIDs := make([]ir.Id, 0, len(mask.Terms))
	var acc ir.Id

	for i, term := range mask.Terms {
		termID := lowerMaskTerm(term, target, m)
		termIDs = append(termIDs, termID)

		if term.Inverted {
			inverted := m.AllocID()
			m.Append(ir.InvertMask{ResultID: inverted, Mask0: termID})
			termID = inverted
		}

		if i == 0 {
			acc = termID
			continue
		}

		result := m.AllocID()
		if term.Subtracted {
			m.Append(ir.SubtractMask{ResultID: result, Mask0: acc, Mask1: termID})
		} else {
			m.Append(ir.AddMask{ResultID: result, Mask0: acc, Mask1: termID})
		}
		acc = result
	}

	return acc, termIDs
}

func lowerMaskTerm(term edit.MaskTerm, target ir.Id, m *ir.Module) ir.Id {
	result := m.AllocID()
	switch term.Primitive {
	case edit.MaskPrimitiveRadialGradient:
		p := term.Radial
		m.Append(ir.ComputeRadialGradientMask{
			ResultID: result,
			Target:   target,
			Center:   ir.Point{X: p.Center.X, Y: p.Center.Y},
			RadiusX:  p.RadiusX,
			RadiusY:  p.RadiusY,
			Feather:  p.Feather,
		})
	case edit.MaskPrimitiveLinearGradient:
		p := term.Linear
		m.Append(ir.ComputeLinearGradientMask{
			ResultID: result,
			Target:   target,
			Begin:    ir.Point{X: p.Begin.X, Y: p.Begin.Y},
			Saturate: ir.Point{X: p.Saturate.X, Y: p.Saturate.Y},
		})
	default:
		m.Append(ir.ComputeGlobalMask{ResultID: result, Target: target})
	}
	return result
}

// addGlobalEdit emits the global-edit sub-pipeline in the order §4.4
// requires: dehaze first (PrepareDehaze is expensive and benefits from
// earliest placement), then exposure, contrast, highlights/shadows,
// curves, temperature/tint, vibrance/saturation, color mix, vignette.
// Every step is skipped when its parameters are already identity.
func addGlobalEdit(g edit.GlobalEdit, m *ir.Module, target ir.Id) ir.Id {
	current := target

	maybeAddDehaze(g, m, &current)
	maybeAddExposure(g, m, &current)
	maybeAddContrast(g, m, &current)
	maybeAddHighlightsShadows(g, m, &current)
	maybeAddCurves(g, m, &current)
	maybeAddTemperatureTint(g, m, &current)
	maybeAddVibranceSaturation(g, m, &current)
	maybeAddColorMix(g, m, &current)
	maybeAddVignette(g, m, &current)

	return current
}

func maybeAddDehaze(g edit.GlobalEdit, m *ir.Module, current *ir.Id) {
	if g.Dehaze == 0 {
		return
	}
	dehazed := m.AllocID()
	m.Append(ir.PrepareDehaze{ResultID: dehazed, Arg: *current})

	result := m.AllocID()
	m.Append(ir.ApplyDehaze{ResultID: result, Arg: *current, Dehazed: dehazed, Amount: g.Dehaze})
	*current = result
}

func maybeAddExposure(g edit.GlobalEdit, m *ir.Module, current *ir.Id) {
	if g.Exposure == 0 {
		return
	}
	result := m.AllocID()
	m.Append(ir.AdjustExposure{ResultID: result, Arg: *current, Exposure: g.Exposure})
	*current = result
}

func maybeAddContrast(g edit.GlobalEdit, m *ir.Module, current *ir.Id) {
	if g.Contrast == 0 {
		return
	}
	basicStats := m.AllocID()
	m.Append(ir.ComputeBasicStatistics{ResultID: basicStats, Arg: *current})

	result := m.AllocID()
	m.Append(ir.AdjustContrast{ResultID: result, Arg: *current, BasicStats: basicStats, Contrast: g.Contrast})
	*current = result
}

func maybeAddHighlightsShadows(g edit.GlobalEdit, m *ir.Module, current *ir.Id) {
	if g.Highlights == 0 && g.Shadows == 0 {
		return
	}
	result := m.AllocID()
	m.Append(ir.AdjustHighlightsAndShadows{ResultID: result, Arg: *current, Highlights: g.Highlights, Shadows: g.Shadows})
	*current = result
}

func maybeAddCurves(g edit.GlobalEdit, m *ir.Module, current *ir.Id) {
	maybeAddCurve(g.CurveComposite, true, true, true, m, current)
	maybeAddCurve(g.CurveR, true, false, false, m, current)
	maybeAddCurve(g.CurveG, false, true, false, m, current)
	maybeAddCurve(g.CurveB, false, false, true, m, current)
}

func maybeAddCurve(c edit.Curve, r, gCh, b bool, m *ir.Module, current *ir.Id) {
	if c.IsIdentity() {
		return
	}
	pts := make([]ir.Point, len(c.ControlPoints))
	for i, p := range c.ControlPoints {
		pts[i] = ir.Point{X: p.X, Y: p.Y}
	}
	result := m.AllocID()
	m.Append(ir.ApplyCurve{ResultID: result, Arg: *current, ControlPoints: pts, ApplyR: r, ApplyG: gCh, ApplyB: b})
	*current = result
}

func maybeAddTemperatureTint(g edit.GlobalEdit, m *ir.Module, current *ir.Id) {
	if g.Temperature == 0 && g.Tint == 0 {
		return
	}
	result := m.AllocID()
	m.Append(ir.AdjustTemperatureAndTint{ResultID: result, Arg: *current, Temperature: g.Temperature, Tint: g.Tint})
	*current = result
}

func maybeAddVibranceSaturation(g edit.GlobalEdit, m *ir.Module, current *ir.Id) {
	if g.Vibrance == 0 && g.Saturation == 0 {
		return
	}
	result := m.AllocID()
	m.Append(ir.AdjustVibranceAndSaturation{ResultID: result, Arg: *current, Vibrance: g.Vibrance, Saturation: g.Saturation})
	*current = result
}

func maybeAddColorMix(g edit.GlobalEdit, m *ir.Module, current *ir.Id) {
	allIdentity := true
	for _, group := range g.ColorMix {
		if !group.IsIdentity() {
			allIdentity = false
			break
		}
	}
	if allIdentity {
		return
	}
	var groups [8]ir.ColorMixGroup
	for i, group := range g.ColorMix {
		groups[i] = ir.ColorMixGroup{Hue: group.Hue, Saturation: group.Saturation, Lightness: group.Lightness}
	}
	result := m.AllocID()
	m.Append(ir.ColorMix{ResultID: result, Arg: *current, Groups: groups})
	*current = result
}

func maybeAddVignette(g edit.GlobalEdit, m *ir.Module, current *ir.Id) {
	if g.Vignette == 0 {
		return
	}
	result := m.AllocID()
	m.Append(ir.AdjustVignette{
		ResultID:  result,
		Arg:       *current,
		Vignette:  g.Vignette,
		Midpoint:  g.VignetteMidpoint,
		Feather:   g.VignetteFeather,
		Roundness: g.VignetteRoundness,
	})
	*current = result
}
