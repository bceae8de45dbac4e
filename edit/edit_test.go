package edit

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIdentityCurveIsIdentity(t *testing.T) {
	if !IdentityCurve().IsIdentity() {
		t.Fatal("IdentityCurve() should report IsIdentity")
	}
	c := Curve{ControlPoints: []Point{{X: 0, Y: 0}, {X: 0.5, Y: 0.6}, {X: 1, Y: 1}}}
	if c.IsIdentity() {
		t.Fatal("three-point curve should not be identity")
	}
}

func TestIdentityRectangleIsIdentity(t *testing.T) {
	if !IdentityRectangle().IsIdentity() {
		t.Fatal("IdentityRectangle() should report IsIdentity")
	}
	r := Rectangle{X: 0.1, Y: 0, Width: 0.8, Height: 1}
	if r.IsIdentity() {
		t.Fatal("cropped rectangle should not be identity")
	}
}

func TestIdentityGlobalEditIsIdentity(t *testing.T) {
	g := IdentityGlobalEdit()
	if !g.IsIdentity() {
		t.Fatal("IdentityGlobalEdit() should report IsIdentity")
	}
	g.Exposure = 0.2
	if g.IsIdentity() {
		t.Fatal("non-zero exposure should break identity")
	}
}

func TestGlobalEditIsIdentityCatchesColorMix(t *testing.T) {
	g := IdentityGlobalEdit()
	g.ColorMix[3].Saturation = 0.1
	if g.IsIdentity() {
		t.Fatal("non-identity color mix group should break identity")
	}
}

func TestTrivialEditHasGlobalMaskAndIdentityEdit(t *testing.T) {
	e := Trivial()
	if len(e.MaskedEdits) != 1 {
		t.Fatalf("Trivial() should have 1 masked edit, got %d", len(e.MaskedEdits))
	}
	me := e.MaskedEdits[0]
	if len(me.Mask.Terms) != 1 || me.Mask.Terms[0].Primitive != MaskPrimitiveGlobal {
		t.Fatal("Trivial() masked edit should be gated by the global mask")
	}
	if !me.GlobalEdit.IsIdentity() {
		t.Fatal("Trivial() masked edit should carry an identity GlobalEdit")
	}
}

func TestEditEqual(t *testing.T) {
	a := Trivial()
	b := Trivial()
	if !a.Equal(b) {
		t.Fatal("two Trivial() edits should be equal")
	}
	b.MaskedEdits[0].GlobalEdit.Exposure = 0.5
	if a.Equal(b) {
		t.Fatal("edits with different exposure should not be equal")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "photo.jpg")

	e := Trivial()
	factor := float32(0.5)
	e.ResizeFactor = &factor
	e.MaskedEdits[0].GlobalEdit.Exposure = 0.3
	e.MaskedEdits = append(e.MaskedEdits, MaskedEdit{
		Mask: Mask{Terms: []MaskTerm{{
			Primitive: MaskPrimitiveRadialGradient,
			Radial:    RadialGradientParams{Center: Point{X: 0.5, Y: 0.5}, RadiusX: 0.3, RadiusY: 0.3, Feather: 0.1},
		}}},
		GlobalEdit:  IdentityGlobalEdit(),
		DisplayName: "Vignette spot",
	})

	if err := Save(e, dir, imagePath); err != nil {
		t.Fatalf("Save: %v", err)
	}

	path := PathForImage(dir, imagePath)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected edit.json at %s: %v", path, err)
	}

	loaded, err := Load(dir, imagePath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !e.Equal(loaded) {
		t.Fatalf("round-tripped edit differs: got %+v, want %+v", loaded, e)
	}
}

func TestPathForImageIsStableAndDistinct(t *testing.T) {
	p1 := PathForImage("/store", "/a/photo1.jpg")
	p2 := PathForImage("/store", "/a/photo1.jpg")
	p3 := PathForImage("/store", "/a/photo2.jpg")
	if p1 != p2 {
		t.Fatal("PathForImage should be deterministic for the same input")
	}
	if p1 == p3 {
		t.Fatal("PathForImage should differ for different image paths")
	}
	if filepath.Base(p1) != "edit.json" {
		t.Fatalf("expected edit.json leaf, got %s", p1)
	}
}

func TestLoadMissingReturnsError(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(dir, filepath.Join(dir, "nope.jpg")); err == nil {
		t.Fatal("expected an error loading a never-saved edit")
	}
}
