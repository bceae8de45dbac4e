package ir

// Op is a tagged-variant IR operation (§9: "Tagged-variant IR replaces any
// dynamic dispatch or inheritance hierarchy for ops"). Each concrete type
// below is one variant from the closed set in §4.3; op implementations
// pattern-match on the variant with a type switch rather than a vtable.
type Op interface {
	// Result returns the identifier this op allocates for its output.
	Result() Id
	// Args returns every identifier this op reads as input, in the order
	// the spec's "Inputs (Ids)" column lists them. Used to check the
	// module invariant that every argument refers to an earlier op.
	Args() []Id
	// Kind names the variant, for logging and module diffing.
	Kind() string
}

// Input binds the module's entry image at execution time; it has no
// arguments and is not itself dispatched (the engine writes Image(input)
// directly into the value store).
type Input struct {
	ResultID Id
}

func (o Input) Result() Id    { return o.ResultID }
func (o Input) Args() []Id    { return nil }
func (o Input) Kind() string  { return "Input" }

// Resize scales its argument image by Factor.
type Resize struct {
	ResultID Id
	Arg      Id
	Factor   float32
}

func (o Resize) Result() Id   { return o.ResultID }
func (o Resize) Args() []Id   { return []Id{o.Arg} }
func (o Resize) Kind() string { return "Resize" }

// RotateAndCrop rotates by RotationDegrees then crops to CropRect.
type RotateAndCrop struct {
	ResultID         Id
	Arg              Id
	RotationDegrees  float32
	CropRect         Rectangle
}

func (o RotateAndCrop) Result() Id   { return o.ResultID }
func (o RotateAndCrop) Args() []Id   { return []Id{o.Arg} }
func (o RotateAndCrop) Kind() string { return "RotateAndCrop" }

// AdjustExposure applies an exposure shift in stops.
type AdjustExposure struct {
	ResultID Id
	Arg      Id
	Exposure float32
}

func (o AdjustExposure) Result() Id   { return o.ResultID }
func (o AdjustExposure) Args() []Id   { return []Id{o.Arg} }
func (o AdjustExposure) Kind() string { return "AdjustExposure" }

// ComputeBasicStatistics produces a Buffer holding mean RGB and luma.
type ComputeBasicStatistics struct {
	ResultID Id
	Arg      Id
}

func (o ComputeBasicStatistics) Result() Id   { return o.ResultID }
func (o ComputeBasicStatistics) Args() []Id   { return []Id{o.Arg} }
func (o ComputeBasicStatistics) Kind() string { return "ComputeBasicStatistics" }

// AdjustContrast applies a contrast adjustment around the mean luma
// reported by BasicStats.
type AdjustContrast struct {
	ResultID   Id
	Arg        Id
	BasicStats Id
	Contrast   float32
}

func (o AdjustContrast) Result() Id   { return o.ResultID }
func (o AdjustContrast) Args() []Id   { return []Id{o.Arg, o.BasicStats} }
func (o AdjustContrast) Kind() string { return "AdjustContrast" }

// AdjustHighlightsAndShadows independently pushes highlight and shadow
// tonal ranges.
type AdjustHighlightsAndShadows struct {
	ResultID    Id
	Arg         Id
	Highlights  float32
	Shadows     float32
}

func (o AdjustHighlightsAndShadows) Result() Id   { return o.ResultID }
func (o AdjustHighlightsAndShadows) Args() []Id   { return []Id{o.Arg} }
func (o AdjustHighlightsAndShadows) Kind() string { return "AdjustHighlightsAndShadows" }

// ApplyCurve applies a spline through ControlPoints to the selected
// channels.
type ApplyCurve struct {
	ResultID      Id
	Arg           Id
	ControlPoints []Point
	ApplyR        bool
	ApplyG        bool
	ApplyB        bool
}

func (o ApplyCurve) Result() Id   { return o.ResultID }
func (o ApplyCurve) Args() []Id   { return []Id{o.Arg} }
func (o ApplyCurve) Kind() string { return "ApplyCurve" }

// AdjustTemperatureAndTint shifts white balance.
type AdjustTemperatureAndTint struct {
	ResultID    Id
	Arg         Id
	Temperature float32
	Tint        float32
}

func (o AdjustTemperatureAndTint) Result() Id   { return o.ResultID }
func (o AdjustTemperatureAndTint) Args() []Id   { return []Id{o.Arg} }
func (o AdjustTemperatureAndTint) Kind() string { return "AdjustTemperatureAndTint" }

// AdjustVibranceAndSaturation adjusts global color intensity.
type AdjustVibranceAndSaturation struct {
	ResultID   Id
	Arg        Id
	Vibrance   float32
	Saturation float32
}

func (o AdjustVibranceAndSaturation) Result() Id   { return o.ResultID }
func (o AdjustVibranceAndSaturation) Args() []Id   { return []Id{o.Arg} }
func (o AdjustVibranceAndSaturation) Kind() string { return "AdjustVibranceAndSaturation" }

// ColorMix adjusts hue/saturation/lightness independently for eight hue
// buckets.
type ColorMix struct {
	ResultID Id
	Arg      Id
	Groups   [8]ColorMixGroup
}

func (o ColorMix) Result() Id   { return o.ResultID }
func (o ColorMix) Args() []Id   { return []Id{o.Arg} }
func (o ColorMix) Kind() string { return "ColorMix" }

// AdjustVignette darkens the image edges.
type AdjustVignette struct {
	ResultID  Id
	Arg       Id
	Vignette  float32
	Midpoint  float32
	Feather   float32
	Roundness float32
}

func (o AdjustVignette) Result() Id   { return o.ResultID }
func (o AdjustVignette) Args() []Id   { return []Id{o.Arg} }
func (o AdjustVignette) Kind() string { return "AdjustVignette" }

// PrepareDehaze estimates the dehazed reference image used by ApplyDehaze.
type PrepareDehaze struct {
	ResultID Id
	Arg      Id
}

func (o PrepareDehaze) Result() Id   { return o.ResultID }
func (o PrepareDehaze) Args() []Id   { return []Id{o.Arg} }
func (o PrepareDehaze) Kind() string { return "PrepareDehaze" }

// ApplyDehaze blends Arg toward Dehazed by Amount.
type ApplyDehaze struct {
	ResultID Id
	Arg      Id
	Dehazed  Id
	Amount   float32
}

func (o ApplyDehaze) Result() Id   { return o.ResultID }
func (o ApplyDehaze) Args() []Id   { return []Id{o.Arg, o.Dehazed} }
func (o ApplyDehaze) Kind() string { return "ApplyDehaze" }

// ComputeHistogram produces a Buffer of R/G/B/luma bin arrays.
type ComputeHistogram struct {
	ResultID Id
	Arg      Id
}

func (o ComputeHistogram) Result() Id   { return o.ResultID }
func (o ComputeHistogram) Args() []Id   { return []Id{o.Arg} }
func (o ComputeHistogram) Kind() string { return "ComputeHistogram" }

// ComputeGlobalMask produces an all-ones mask sized to Target.
type ComputeGlobalMask struct {
	ResultID Id
	Target   Id
}

func (o ComputeGlobalMask) Result() Id   { return o.ResultID }
func (o ComputeGlobalMask) Args() []Id   { return []Id{o.Target} }
func (o ComputeGlobalMask) Kind() string { return "ComputeGlobalMask" }

// ComputeRadialGradientMask produces a radial falloff mask.
type ComputeRadialGradientMask struct {
	ResultID Id
	Target   Id
	Center   Point
	RadiusX  float32
	RadiusY  float32
	Feather  float32
}

func (o ComputeRadialGradientMask) Result() Id   { return o.ResultID }
func (o ComputeRadialGradientMask) Args() []Id   { return []Id{o.Target} }
func (o ComputeRadialGradientMask) Kind() string { return "ComputeRadialGradientMask" }

// ComputeLinearGradientMask produces a directional falloff mask from Begin
// to Saturate.
type ComputeLinearGradientMask struct {
	ResultID  Id
	Target    Id
	Begin     Point
	Saturate  Point
}

func (o ComputeLinearGradientMask) Result() Id   { return o.ResultID }
func (o ComputeLinearGradientMask) Args() []Id   { return []Id{o.Target} }
func (o ComputeLinearGradientMask) Kind() string { return "ComputeLinearGradientMask" }

// AddMask is max(mask0, mask1), per-channel.
type AddMask struct {
	ResultID Id
	Mask0    Id
	Mask1    Id
}

func (o AddMask) Result() Id   { return o.ResultID }
func (o AddMask) Args() []Id   { return []Id{o.Mask0, o.Mask1} }
func (o AddMask) Kind() string { return "AddMask" }

// SubtractMask is max(mask0 - mask1, 0), per-channel.
type SubtractMask struct {
	ResultID Id
	Mask0    Id
	Mask1    Id
}

func (o SubtractMask) Result() Id   { return o.ResultID }
func (o SubtractMask) Args() []Id   { return []Id{o.Mask0, o.Mask1} }
func (o SubtractMask) Kind() string { return "SubtractMask" }

// InvertMask is 1 - mask0.
type InvertMask struct {
	ResultID Id
	Mask0    Id
}

func (o InvertMask) Result() Id   { return o.ResultID }
func (o InvertMask) Args() []Id   { return []Id{o.Mask0} }
func (o InvertMask) Kind() string { return "InvertMask" }

// ApplyMaskedEdits blends Edited over OriginalTarget by Mask.
type ApplyMaskedEdits struct {
	ResultID       Id
	OriginalTarget Id
	Edited         Id
	Mask           Id
}

func (o ApplyMaskedEdits) Result() Id { return o.ResultID }
func (o ApplyMaskedEdits) Args() []Id {
	return []Id{o.OriginalTarget, o.Edited, o.Mask}
}
func (o ApplyMaskedEdits) Kind() string { return "ApplyMaskedEdits" }

// ApplyFraming letterboxes Arg to AspectRatio with a Gap border.
type ApplyFraming struct {
	ResultID    Id
	Arg         Id
	AspectRatio float32
	Gap         float32
}

func (o ApplyFraming) Result() Id   { return o.ResultID }
func (o ApplyFraming) Args() []Id   { return []Id{o.Arg} }
func (o ApplyFraming) Kind() string { return "ApplyFraming" }
