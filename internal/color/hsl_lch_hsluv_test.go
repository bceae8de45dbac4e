package color

import "testing"

func TestRGBToHSLRoundTrip(t *testing.T) {
	cases := []ColorF32{
		{R: 1, G: 0, B: 0},
		{R: 0, G: 1, B: 0},
		{R: 0, G: 0, B: 1},
		{R: 0.2, G: 0.5, B: 0.8},
		{R: 1, G: 1, B: 1},
		{R: 0, G: 0, B: 0},
	}
	for _, c := range cases {
		h, s, l := RGBToHSL(c)
		got := HSLToRGB(h, s, l)
		if !floatNear(got.R, c.R, 1e-4) || !floatNear(got.G, c.G, 1e-4) || !floatNear(got.B, c.B, 1e-4) {
			t.Errorf("HSL round-trip: %+v -> (%v,%v,%v) -> %+v", c, h, s, l, got)
		}
	}
}

func TestRGBToHSLGrayHasZeroSaturation(t *testing.T) {
	_, s, _ := RGBToHSL(ColorF32{R: 0.5, G: 0.5, B: 0.5})
	if s != 0 {
		t.Errorf("expected zero saturation for gray, got %v", s)
	}
}

func TestLChRoundTrip(t *testing.T) {
	cases := []ColorF32{
		{R: 1, G: 0, B: 0},
		{R: 0, G: 1, B: 0},
		{R: 0.3, G: 0.4, B: 0.9},
		{R: 0.5, G: 0.5, B: 0.5},
	}
	for _, c := range cases {
		L, C, H := LinearToLCh(c)
		got := LChToLinear(L, C, H)
		if !floatNear(got.R, c.R, 1e-3) || !floatNear(got.G, c.G, 1e-3) || !floatNear(got.B, c.B, 1e-3) {
			t.Errorf("LCh round-trip: %+v -> (%v,%v,%v) -> %+v", c, L, C, H, got)
		}
	}
}

func TestHSLuvRoundTrip(t *testing.T) {
	cases := []ColorF32{
		{R: 0.8, G: 0.2, B: 0.2},
		{R: 0.2, G: 0.8, B: 0.3},
		{R: 0.3, G: 0.4, B: 0.9},
	}
	for _, c := range cases {
		h, s, l := RGBToHSLuv(c)
		got := HSLuvToRGB(h, s, l)
		if !floatNear(got.R, c.R, 1e-2) || !floatNear(got.G, c.G, 1e-2) || !floatNear(got.B, c.B, 1e-2) {
			t.Errorf("HSLuv round-trip: %+v -> (%v,%v,%v) -> %+v", c, h, s, l, got)
		}
	}
}

func TestHSLuvBlackAndWhiteHaveZeroSaturation(t *testing.T) {
	_, s, _ := RGBToHSLuv(ColorF32{R: 0, G: 0, B: 0})
	if s != 0 {
		t.Errorf("expected zero saturation for black, got %v", s)
	}
	_, s, _ = RGBToHSLuv(ColorF32{R: 1, G: 1, B: 1})
	if s != 0 {
		t.Errorf("expected zero saturation for white, got %v", s)
	}
}

func TestColorSpaceString(t *testing.T) {
	cases := map[ColorSpace]string{
		ColorSpaceLinear: "Linear",
		ColorSpaceSRGB:   "sRGB",
		ColorSpaceHSL:    "HSL",
		ColorSpaceLCh:    "LCh",
		ColorSpaceHSLuv:  "HSLuv",
	}
	for cs, want := range cases {
		if got := cs.String(); got != want {
			t.Errorf("ColorSpace(%d).String() = %q, want %q", cs, got, want)
		}
	}
}
