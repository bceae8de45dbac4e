// Package edit defines the user-facing Edit: geometry, framing, and a
// stack of masked edits, each a mask (a boolean combination of primitives)
// paired with a global-parameter adjustment (§3). This is the "before" side
// of the two-level IR; package editgen lowers an Edit into an ir.Module.
package edit

// Point is a single (x, y) sample in normalized [0,1] coordinates.
type Point struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// Rectangle is an axis-aligned crop rectangle in normalized [0,1] image
// coordinates.
type Rectangle struct {
	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
}

// IdentityRectangle covers the entire image: no crop.
func IdentityRectangle() Rectangle {
	return Rectangle{X: 0, Y: 0, Width: 1, Height: 1}
}

// IsIdentity reports whether r crops nothing.
func (r Rectangle) IsIdentity() bool {
	return r == IdentityRectangle()
}

// Framing letterboxes the final image to AspectRatio with a Gap border.
type Framing struct {
	AspectRatio float32 `json:"aspect_ratio"`
	Gap         float32 `json:"gap"`
}

// Curve is an ordered list of (x,y) control points a spline is fit
// through. The identity curve is [(0,0),(1,1)].
type Curve struct {
	ControlPoints []Point `json:"control_points"`
}

// IdentityCurve is the two-point pass-through curve.
func IdentityCurve() Curve {
	return Curve{ControlPoints: []Point{{X: 0, Y: 0}, {X: 1, Y: 1}}}
}

// IsIdentity reports whether applying this curve is a no-op (§8: "a curve
// with control points [(0,0),(1,1)] does not emit an ApplyCurve op").
func (c Curve) IsIdentity() bool {
	pts := c.ControlPoints
	if len(pts) != 2 {
		return false
	}
	return pts[0] == Point{X: 0, Y: 0} && pts[1] == Point{X: 1, Y: 1}
}

// ColorMixGroup is the hue/saturation/lightness shift for one of the eight
// ColorMix hue buckets.
type ColorMixGroup struct {
	Hue        float32 `json:"hue"`
	Saturation float32 `json:"saturation"`
	Lightness  float32 `json:"lightness"`
}

// IsIdentity reports whether this group contributes no adjustment.
func (g ColorMixGroup) IsIdentity() bool {
	return g.Hue == 0 && g.Saturation == 0 && g.Lightness == 0
}

// GlobalEdit holds every per-channel scalar and curve adjustment that
// applies to the whole image under a mask (§3).
type GlobalEdit struct {
	Exposure    float32 `json:"exposure"`
	Contrast    float32 `json:"contrast"`
	Highlights  float32 `json:"highlights"`
	Shadows     float32 `json:"shadows"`
	Temperature float32 `json:"temperature"`
	Tint        float32 `json:"tint"`
	Vibrance    float32 `json:"vibrance"`
	Saturation  float32 `json:"saturation"`
	Dehaze      float32 `json:"dehaze"`
	Vignette    float32 `json:"vignette"`
	VignetteMidpoint  float32 `json:"vignette_midpoint"`
	VignetteFeather   float32 `json:"vignette_feather"`
	VignetteRoundness float32 `json:"vignette_roundness"`

	CurveComposite Curve `json:"curve_composite"`
	CurveR         Curve `json:"curve_r"`
	CurveG         Curve `json:"curve_g"`
	CurveB         Curve `json:"curve_b"`

	ColorMix [8]ColorMixGroup `json:"color_mix"`
}

// IdentityGlobalEdit is a GlobalEdit whose every field is a no-op.
func IdentityGlobalEdit() GlobalEdit {
	return GlobalEdit{
		VignetteMidpoint: 0.5,
		VignetteFeather:  0.5,
		CurveComposite:   IdentityCurve(),
		CurveR:           IdentityCurve(),
		CurveG:           IdentityCurve(),
		CurveB:           IdentityCurve(),
	}
}

// IsIdentity reports whether every scalar/curve/color-mix field is at its
// default, meaning the op chain editgen emits for this GlobalEdit is empty.
func (g GlobalEdit) IsIdentity() bool {
	if g.Exposure != 0 || g.Contrast != 0 || g.Highlights != 0 || g.Shadows != 0 ||
		g.Temperature != 0 || g.Tint != 0 || g.Vibrance != 0 || g.Saturation != 0 ||
		g.Dehaze != 0 || g.Vignette != 0 {
		return false
	}
	if !g.CurveComposite.IsIdentity() || !g.CurveR.IsIdentity() || !g.CurveG.IsIdentity() || !g.CurveB.IsIdentity() {
		return false
	}
	for _, group := range g.ColorMix {
		if !group.IsIdentity() {
			return false
		}
	}
	return true
}

// MaskPrimitive is the shape a mask term draws before it is combined with
// its siblings.
type MaskPrimitive uint8

const (
	MaskPrimitiveGlobal MaskPrimitive = iota
	MaskPrimitiveRadialGradient
	MaskPrimitiveLinearGradient
)

// RadialGradientParams parameterizes a MaskPrimitiveRadialGradient term.
type RadialGradientParams struct {
	Center  Point   `json:"center"`
	RadiusX float32 `json:"radius_x"`
	RadiusY float32 `json:"radius_y"`
	Feather float32 `json:"feather"`
}

// LinearGradientParams parameterizes a MaskPrimitiveLinearGradient term.
type LinearGradientParams struct {
	Begin    Point `json:"begin"`
	Saturate Point `json:"saturate"`
}

// MaskTerm is one primitive in a mask's boolean combination, with an
// inverted flag and a subtracted flag controlling how it folds into the
// accumulator (§4.4).
type MaskTerm struct {
	Primitive MaskPrimitive `json:"primitive"`
	Inverted  bool          `json:"inverted"`
	Subtracted bool         `json:"subtracted"`

	Radial RadialGradientParams `json:"radial,omitempty"`
	Linear LinearGradientParams `json:"linear,omitempty"`
}

// Mask is a non-empty list of mask terms combined by left-fold (§4.4).
type Mask struct {
	Terms []MaskTerm `json:"terms"`
}

// GlobalMask is the trivial always-on mask: a single non-inverted global
// term, used by the editor's initial trivial edit.
func GlobalMask() Mask {
	return Mask{Terms: []MaskTerm{{Primitive: MaskPrimitiveGlobal}}}
}

// MaskedEdit pairs a mask with the global edit it gates, plus a
// user-facing display name.
type MaskedEdit struct {
	Mask        Mask       `json:"mask"`
	GlobalEdit  GlobalEdit `json:"global_edit"`
	DisplayName string     `json:"display_name"`
}

// Edit is the full user-facing edit (§3): optional geometry, optional
// framing, and an ordered stack of masked edits.
type Edit struct {
	ResizeFactor     *float32     `json:"resize_factor,omitempty"`
	CropRect         *Rectangle   `json:"crop_rect,omitempty"`
	RotationDegrees  float32      `json:"rotation_degrees"`
	Framing          *Framing     `json:"framing,omitempty"`
	MaskedEdits      []MaskedEdit `json:"masked_edits"`
}

// Trivial returns the initial edit every EditContext starts from: one
// masked edit under the global mask with an identity GlobalEdit, no
// geometry, no framing.
func Trivial() Edit {
	return Edit{
		MaskedEdits: []MaskedEdit{
			{Mask: GlobalMask(), GlobalEdit: IdentityGlobalEdit(), DisplayName: "Base"},
		},
	}
}

// Equal reports structural equality, used by the editor to decide whether
// a transient edit actually changed (§4.7) and by persistence round-trip
// tests (§8 scenario 5).
func (e Edit) Equal(o Edit) bool {
	return editEqual(e, o)
}
