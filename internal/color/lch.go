package color

import "math"

// D65 reference white, sRGB's illuminant.
const (
	refX = 0.95047
	refY = 1.00000
	refZ = 1.08883
)

// LinearToXYZ converts a linear-light RGB color (sRGB primaries) to CIE
// XYZ.
func LinearToXYZ(c ColorF32) (x, y, z float32) {
	r, g, b := float64(c.R), float64(c.G), float64(c.B)
	x = float32(r*0.4124564 + g*0.3575761 + b*0.1804375)
	y = float32(r*0.2126729 + g*0.7151522 + b*0.0721750)
	z = float32(r*0.0193339 + g*0.1191920 + b*0.9503041)
	return x, y, z
}

// XYZToLinear converts CIE XYZ back to linear-light RGB.
func XYZToLinear(x, y, z float32) ColorF32 {
	xf, yf, zf := float64(x), float64(y), float64(z)
	r := xf*3.2404542 + yf*-1.5371385 + zf*-0.4985314
	g := xf*-0.9692660 + yf*1.8760108 + zf*0.0415560
	b := xf*0.0556434 + yf*-0.2040259 + zf*1.0572252
	return ColorF32{R: float32(r), G: float32(g), B: float32(b)}
}

// XYZToLab converts CIE XYZ to CIE Lab (L in [0,100], a/b roughly [-128,127]).
func XYZToLab(x, y, z float32) (l, a, b float32) {
	fx := labF(float64(x) / refX)
	fy := labF(float64(y) / refY)
	fz := labF(float64(z) / refZ)
	l = float32(116*fy - 16)
	a = float32(500 * (fx - fy))
	b = float32(200 * (fy - fz))
	return l, a, b
}

// LabToXYZ converts CIE Lab back to CIE XYZ.
func LabToXYZ(l, a, b float32) (x, y, z float32) {
	fy := (float64(l) + 16) / 116
	fx := fy + float64(a)/500
	fz := fy - float64(b)/200
	x = float32(labFInv(fx) * refX)
	y = float32(labFInv(fy) * refY)
	z = float32(labFInv(fz) * refZ)
	return x, y, z
}

func labF(t float64) float64 {
	const delta = 6.0 / 29.0
	if t > delta*delta*delta {
		return math.Cbrt(t)
	}
	return t/(3*delta*delta) + 4.0/29.0
}

func labFInv(t float64) float64 {
	const delta = 6.0 / 29.0
	if t > delta {
		return t * t * t
	}
	return 3 * delta * delta * (t - 4.0/29.0)
}

// LabToLCh converts CIE Lab to its cylindrical form: lightness, chroma, hue
// (degrees, [0,360)).
func LabToLCh(l, a, b float32) (L, C, H float32) {
	L = l
	C = float32(math.Hypot(float64(a), float64(b)))
	h := math.Atan2(float64(b), float64(a)) * 180 / math.Pi
	if h < 0 {
		h += 360
	}
	H = float32(h)
	return L, C, H
}

// LChToLab converts cylindrical LCh back to rectangular Lab.
func LChToLab(L, C, H float32) (l, a, b float32) {
	hr := float64(H) * math.Pi / 180
	l = L
	a = float32(float64(C) * math.Cos(hr))
	b = float32(float64(C) * math.Sin(hr))
	return l, a, b
}

// LinearToLCh converts a linear-light RGB color directly to LCh.
func LinearToLCh(c ColorF32) (L, C, H float32) {
	x, y, z := LinearToXYZ(c)
	l, a, b := XYZToLab(x, y, z)
	return LabToLCh(l, a, b)
}

// LChToLinear converts LCh back to linear-light RGB.
func LChToLinear(L, C, H float32) ColorF32 {
	l, a, b := LChToLab(L, C, H)
	x, y, z := LabToXYZ(l, a, b)
	out := XYZToLinear(x, y, z)
	return out
}
