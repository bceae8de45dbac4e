package color

// RGBToHSL converts an sRGB-encoded color to HSL. H is in [0,360), S and L
// are in [0,1].
func RGBToHSL(c ColorF32) (h, s, l float32) {
	r, g, b := c.R, c.G, c.B
	max := maxf(r, maxf(g, b))
	min := minf(r, minf(g, b))
	l = (max + min) / 2

	if max == min {
		return 0, 0, l
	}

	d := max - min
	if l > 0.5 {
		s = d / (2 - max - min)
	} else {
		s = d / (max + min)
	}

	switch max {
	case r:
		h = (g - b) / d
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	case b:
		h = (r-g)/d + 4
	}
	h *= 60

	return h, s, l
}

// HSLToRGB converts HSL (H in [0,360), S and L in [0,1]) to sRGB-encoded
// ColorF32. Alpha is left at zero; callers compose it separately.
func HSLToRGB(h, s, l float32) ColorF32 {
	if s == 0 {
		return ColorF32{R: l, G: l, B: l}
	}

	var q float32
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q

	hk := h / 360
	return ColorF32{
		R: hueToRGB(p, q, hk+1.0/3.0),
		G: hueToRGB(p, q, hk),
		B: hueToRGB(p, q, hk-1.0/3.0),
	}
}

func hueToRGB(p, q, t float32) float32 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	default:
		return p
	}
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
