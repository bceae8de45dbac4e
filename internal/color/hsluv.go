package color

import "math"

// HSLuv is a perceptually uniform hue/saturation/lightness space built on
// CIELUV, following the public HSLuv reference algorithm (hsluv.org): for a
// given lightness and hue, saturation 100 is scaled to reach the edge of
// the sRGB gamut by intersecting the Luv hue line against the gamut's six
// bounding lines in linear RGB space.

const kappa = 903.2962962962963 // 29^3 / 3^3
const epsilon = 0.0088564516790356308

// LinearToLuv converts a linear-light RGB color to CIE Luv.
func LinearToLuv(c ColorF32) (l, u, v float32) {
	x, y, z := LinearToXYZ(c)
	return xyzToLuv(x, y, z)
}

// LuvToLinear converts CIE Luv back to linear-light RGB.
func LuvToLinear(l, u, v float32) ColorF32 {
	x, y, z := luvToXYZ(l, u, v)
	return XYZToLinear(x, y, z)
}

func xyzToLuv(x, y, z float32) (l, u, v float32) {
	varU, varV := refUV()
	denom := float64(x) + 15*float64(y) + 3*float64(z)
	if denom == 0 {
		return 0, 0, 0
	}
	uPrime := 4 * float64(x) / denom
	vPrime := 9 * float64(y) / denom

	yr := float64(y) / refY
	if yr > epsilon {
		l = float32(116*math.Cbrt(yr) - 16)
	} else {
		l = float32(kappa * yr)
	}
	u = float32(13 * float64(l) * (uPrime - varU))
	v = float32(13 * float64(l) * (vPrime - varV))
	return l, u, v
}

func luvToXYZ(l, u, v float32) (x, y, z float32) {
	if l == 0 {
		return 0, 0, 0
	}
	varU, varV := refUV()
	uPrime := float64(u)/(13*float64(l)) + varU
	vPrime := float64(v)/(13*float64(l)) + varV

	var yr float64
	if l > 8 {
		yr = math.Pow((float64(l)+16)/116, 3)
	} else {
		yr = float64(l) / kappa
	}
	y = float32(yr * refY)

	if vPrime == 0 {
		return 0, y, 0
	}
	x = float32(float64(y) * 9 * uPrime / (4 * vPrime))
	z = float32(float64(y) * (12 - 3*uPrime - 20*vPrime) / (4 * vPrime))
	return x, y, z
}

func refUV() (u, v float64) {
	denom := refX + 15*refY + 3*refZ
	return 4 * refX / denom, 9 * refY / denom
}

// LuvToLCh converts CIE Luv to its cylindrical form.
func LuvToLCh(l, u, v float32) (L, C, H float32) {
	L = l
	C = float32(math.Hypot(float64(u), float64(v)))
	h := math.Atan2(float64(v), float64(u)) * 180 / math.Pi
	if h < 0 {
		h += 360
	}
	H = float32(h)
	return L, C, H
}

// LChToLuv converts cylindrical Luv-based LCh back to rectangular Luv.
func LChToLuv(L, C, H float32) (l, u, v float32) {
	hr := float64(H) * math.Pi / 180
	l = L
	u = float32(float64(C) * math.Cos(hr))
	v = float32(float64(C) * math.Sin(hr))
	return l, u, v
}

// bounds are the sRGB gamut edge lines at a given lightness, each in
// slope-intercept form (m, b), in the chroma/hue plane.
type bound struct{ m, b float64 }

// getBounds returns the six lines bounding the sRGB gamut at lightness l,
// per the published HSLuv reference algorithm (hsluv.org).
func getBounds(l float64) [6]bound {
	var bounds [6]bound
	sub1 := math.Pow(l+16, 3) / 1560896
	sub2 := sub1
	if sub1 <= epsilon {
		sub2 = l / kappa
	}

	m := [3][3]float64{
		{3.2404542, -1.5371385, -0.4985314},
		{-0.9692660, 1.8760108, 0.0415560},
		{0.0556434, -0.2040259, 1.0572252},
	}

	i := 0
	for c := 0; c < 3; c++ {
		m1, m2, m3 := m[c][0], m[c][1], m[c][2]
		for _, t := range [2]float64{0, 1} {
			top1 := (284517*m1 - 94839*m3) * sub2
			top2 := (838422*m3+769860*m2+731718*m1)*l*sub2 - 769860*t*l
			bottom := (632260*m3-126452*m2)*sub2 + 126452*t
			bounds[i] = bound{m: top1 / bottom, b: top2 / bottom}
			i++
		}
	}
	return bounds
}

func maxSafeChromaForLH(l, h float64) float64 {
	hr := h / 360 * 2 * math.Pi
	minLen := math.MaxFloat64
	for _, ln := range getBounds(l) {
		if length := lengthOfRayUntilIntersect(hr, ln); length >= 0 && length < minLen {
			minLen = length
		}
	}
	return minLen
}

// lengthOfRayUntilIntersect returns the distance from the origin to where a
// ray at angle theta crosses the given bounding line, or -1 if it diverges.
func lengthOfRayUntilIntersect(theta float64, ln bound) float64 {
	length := ln.b / (math.Sin(theta) - ln.m*math.Cos(theta))
	if length < 0 {
		return -1
	}
	return length
}

// LuvLChToHSLuv converts Luv-based LCh to HSLuv (H in [0,360), S and L in
// [0,100]).
func LuvLChToHSLuv(L, C, H float32) (h, s, l float32) {
	l = L
	h = H
	if L > 99.9999999 || L < 0.00000001 {
		return h, 0, l
	}
	maxChroma := maxSafeChromaForLH(float64(L), float64(H))
	s = float32(float64(C) / maxChroma * 100)
	if s > 100 {
		s = 100
	}
	return h, s, l
}

// HSLuvToLuvLCh converts HSLuv back to Luv-based LCh.
func HSLuvToLuvLCh(h, s, l float32) (L, C, H float32) {
	L = l
	H = h
	if l > 99.9999999 || l < 0.00000001 {
		return L, 0, H
	}
	maxChroma := maxSafeChromaForLH(float64(l), float64(h))
	C = float32(maxChroma * float64(s) / 100)
	return L, C, H
}

// RGBToHSLuv converts a linear-light RGB color to HSLuv.
func RGBToHSLuv(c ColorF32) (h, s, l float32) {
	lv, u, v := LinearToLuv(c)
	L, C, H := LuvToLCh(lv, u, v)
	return LuvLChToHSLuv(L, C, H)
}

// HSLuvToRGB converts HSLuv back to linear-light RGB.
func HSLuvToRGB(h, s, l float32) ColorF32 {
	L, C, H := HSLuvToLuvLCh(h, s, l)
	lv, u, v := LChToLuv(L, C, H)
	return LuvToLinear(lv, u, v)
}
