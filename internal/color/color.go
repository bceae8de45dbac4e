// Package color provides color space types and conversions.
package color

// ColorSpace represents a color space. This is the closed set an Image's
// properties may name: two RGB encodings plus three perceptual spaces used
// by color-grading ops (ColorMix, AdjustVibranceAndSaturation).
type ColorSpace uint8

const (
	// ColorSpaceLinear is linear-light RGB, the working space GPU textures
	// are stored in between ops.
	ColorSpaceLinear ColorSpace = iota
	// ColorSpaceSRGB is gamma-encoded RGB, used for display and export.
	ColorSpaceSRGB
	// ColorSpaceHSL is hue/saturation/lightness, a cylindrical remap of sRGB.
	ColorSpaceHSL
	// ColorSpaceLCh is the cylindrical (polar) form of CIE Lab: lightness,
	// chroma, hue.
	ColorSpaceLCh
	// ColorSpaceHSLuv is HSLuv, a perceptually uniform hue/saturation/
	// lightness space built on CIELUV.
	ColorSpaceHSLuv
)

// String returns the color space name.
func (cs ColorSpace) String() string {
	switch cs {
	case ColorSpaceLinear:
		return "Linear"
	case ColorSpaceSRGB:
		return "sRGB"
	case ColorSpaceHSL:
		return "HSL"
	case ColorSpaceLCh:
		return "LCh"
	case ColorSpaceHSLuv:
		return "HSLuv"
	default:
		return "Unknown"
	}
}

// ColorF32 represents a color with float32 components in [0,1].
// RGB components are in the color space indicated by context.
// Alpha is always linear (never gamma-encoded).
type ColorF32 struct {
	R, G, B, A float32
}

// ColorU8 represents a color with uint8 components in [0,255].
// RGB components are in the color space indicated by context.
// Alpha is always linear (never gamma-encoded).
type ColorU8 struct {
	R, G, B, A uint8
}
