package editor

import (
	"encoding/binary"
	"math"
	"path/filepath"
	"testing"

	"github.com/lumenforge/salon/edit"
	"github.com/lumenforge/salon/gpucore"
	"github.com/lumenforge/salon/internal/color"
	"github.com/lumenforge/salon/internal/gpu"
	"github.com/lumenforge/salon/library"
	"github.com/lumenforge/salon/runtime"
	"github.com/lumenforge/salon/services"
)

func newTestImage(t *testing.T, rt *runtime.Runtime, w, h int, fill gpucore.Texel) *runtime.Image {
	t.Helper()
	img, err := rt.CreateImage(uint32(w), uint32(h), gpucore.TextureFormatRGBA16Float, color.ColorSpaceLinear)
	if err != nil {
		t.Fatalf("CreateImage: %v", err)
	}
	data := make([]byte, w*h*16)
	for i := 0; i < w*h; i++ {
		off := i * 16
		for c := 0; c < 4; c++ {
			binary.LittleEndian.PutUint32(data[off+c*4:], math.Float32bits(fill[c]))
		}
	}
	if err := rt.Device().WriteTexture(img.ID, 0, data); err != nil {
		t.Fatalf("WriteTexture: %v", err)
	}
	return img
}

func withExposure(e edit.Edit, exposure float32) edit.Edit {
	out := e
	out.MaskedEdits = append([]edit.MaskedEdit(nil), e.MaskedEdits...)
	out.MaskedEdits[0].GlobalEdit.Exposure = exposure
	return out
}

func TestEditorCommitUndoRoundTrip(t *testing.T) {
	rt := runtime.New(gpu.New())
	ed := New(rt, nil, t.TempDir())

	id := library.Identifier(filepath.Join(t.TempDir(), "photo.jpg"))
	input := newTestImage(t, rt, 4, 4, gpucore.Texel{0.5, 0.5, 0.5, 1})
	ed.SetCurrentImage(id, input)

	preCommit := ed.CurrentEditContext().CurrentEdit()

	committedEdit := withExposure(preCommit, 0.3)
	ed.UpdateTransientEdit(committedEdit, false)
	if !ed.CommitTransientEdit(true) {
		t.Fatal("expected CommitTransientEdit to report a change")
	}

	if !ed.MaybeUndo() {
		t.Fatal("expected MaybeUndo to succeed")
	}
	if !ed.CurrentEditContext().CurrentEdit().Equal(preCommit) {
		t.Error("after undo, current edit should equal the pre-commit edit")
	}
	if !ed.CanRedo() {
		t.Error("expected CanRedo to be true right after an undo")
	}
}

func TestEditorUndoThenCommitTruncatesRedo(t *testing.T) {
	rt := runtime.New(gpu.New())
	ed := New(rt, nil, t.TempDir())

	id := library.Identifier(filepath.Join(t.TempDir(), "photo.jpg"))
	input := newTestImage(t, rt, 4, 4, gpucore.Texel{0.2, 0.2, 0.2, 1})
	ed.SetCurrentImage(id, input)

	base := ed.CurrentEditContext().CurrentEdit()
	a := withExposure(base, 0.1)
	b := withExposure(base, 0.2)
	c := withExposure(base, 0.3)

	ed.UpdateTransientEdit(a, false)
	ed.CommitTransientEdit(false)
	ed.UpdateTransientEdit(b, false)
	ed.CommitTransientEdit(false)

	if !ed.MaybeUndo() {
		t.Fatal("expected undo to succeed")
	}

	ed.UpdateTransientEdit(c, false)
	ed.CommitTransientEdit(false)

	history := ed.CurrentEditContext().CloneEditHistory()
	if len(history) != 3 {
		t.Fatalf("history length = %d, want 3 ([trivial, A, C])", len(history))
	}
	if !history[1].Equal(a) {
		t.Errorf("history[1] should be A")
	}
	if !history[2].Equal(c) {
		t.Errorf("history[2] should be C, the redo tail (B) must be gone")
	}
	if ed.CanRedo() {
		t.Error("expected no redo available after a new commit past an undo")
	}
}

func TestEditorUndoPastInitial(t *testing.T) {
	rt := runtime.New(gpu.New())
	ed := New(rt, nil, t.TempDir())

	id := library.Identifier(filepath.Join(t.TempDir(), "photo.jpg"))
	input := newTestImage(t, rt, 4, 4, gpucore.Texel{0.4, 0.4, 0.4, 1})
	ed.SetCurrentImage(id, input)

	trivial := ed.CurrentEditContext().CurrentEdit()
	a := withExposure(trivial, 0.5)
	ed.UpdateTransientEdit(a, false)
	ed.CommitTransientEdit(false)

	if !ed.MaybeUndo() {
		t.Fatal("expected undo to succeed")
	}
	if ed.CanUndo() {
		t.Error("expected CanUndo false once back at the initial edit")
	}
	if !ed.CurrentEditContext().CurrentEdit().Equal(trivial) {
		t.Error("current edit after undoing past the first commit should be the trivial edit")
	}
}

func TestEditorPersistsCommittedEdit(t *testing.T) {
	rt := runtime.New(gpu.New())
	root := t.TempDir()

	svc := services.NewEditWriterService(root)
	ed := New(rt, svc, root)

	imagePath := filepath.Join(root, "photo.jpg")
	id := library.Identifier(imagePath)
	input := newTestImage(t, rt, 4, 4, gpucore.Texel{0.6, 0.6, 0.6, 1})
	ed.SetCurrentImage(id, input)

	base := ed.CurrentEditContext().CurrentEdit()
	committed := withExposure(base, 0.8)
	ed.UpdateTransientEdit(committed, false)
	ed.CommitTransientEdit(false)
	svc.Stop()

	loaded, err := edit.Load(root, imagePath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !loaded.Equal(committed) {
		t.Errorf("persisted edit does not match committed edit")
	}
}

func TestEditorResizeDeterminism(t *testing.T) {
	rt := runtime.New(gpu.New())
	ed := New(rt, nil, t.TempDir())

	id := library.Identifier(filepath.Join(t.TempDir(), "photo.jpg"))
	input := newTestImage(t, rt, 200, 150, gpucore.Texel{0.3, 0.3, 0.3, 1})
	ed.SetCurrentImage(id, input)

	factor := float32(0.5)
	base := ed.CurrentEditContext().CurrentEdit()
	base.ResizeFactor = &factor
	ed.UpdateTransientEdit(base, false)
	ed.CommitTransientEdit(true)

	result := ed.CurrentEditContext().CurrentResult
	if result == nil {
		t.Fatal("expected a current result after committing with execute=true")
	}
	if result.FinalImage.Width != 100 || result.FinalImage.Height != 75 {
		t.Errorf("final image = %dx%d, want 100x75", result.FinalImage.Width, result.FinalImage.Height)
	}
	if result.GeometryOnly.Width != 100 || result.GeometryOnly.Height != 75 {
		t.Errorf("geometry-only image = %dx%d, want 100x75", result.GeometryOnly.Width, result.GeometryOnly.Height)
	}
}

func TestEditorFullSizeImageIgnoresResizeFactorAndCaches(t *testing.T) {
	rt := runtime.New(gpu.New())
	ed := New(rt, nil, t.TempDir())

	id := library.Identifier(filepath.Join(t.TempDir(), "photo.jpg"))
	input := newTestImage(t, rt, 200, 150, gpucore.Texel{0.3, 0.3, 0.3, 1})
	ed.SetCurrentImage(id, input)

	factor := float32(0.5)
	base := ed.CurrentEditContext().CurrentEdit()
	base.ResizeFactor = &factor
	ed.UpdateTransientEdit(base, false)
	ed.CommitTransientEdit(true)

	full := ed.GetFullSizeEditedImage()
	if full.Width != 200 || full.Height != 150 {
		t.Errorf("full-size image = %dx%d, want 200x150 (resize factor ignored)", full.Width, full.Height)
	}

	again := ed.GetFullSizeEditedImage()
	if again != full {
		t.Error("expected GetFullSizeEditedImage to return the cached image on a repeat call")
	}

	ed.UpdateTransientEdit(withExposure(base, 0.9), false)
	ed.CommitTransientEdit(true)

	invalidated := ed.GetFullSizeEditedImage()
	if invalidated == full {
		t.Error("expected the full-size cache to be invalidated after a new commit")
	}
}
