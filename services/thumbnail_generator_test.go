package services

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTestJPEG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 128, G: 64, B: 32, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}); err != nil {
		t.Fatalf("encode test jpeg: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write test jpeg: %v", err)
	}
}

func TestThumbnailGeneratorServiceResizesLargeImage(t *testing.T) {
	root := t.TempDir()
	imagePath := filepath.Join(root, "big.jpg")
	writeTestJPEG(t, imagePath, 800, 600)

	svc := NewThumbnailGeneratorService(root)
	defer svc.Stop()

	svc.RequestThumbnailForImage(imagePath)

	var results []GeneratedThumbnail
	deadline := time.After(2 * time.Second)
	for len(results) == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for a thumbnail result")
		case <-time.After(10 * time.Millisecond):
			results = svc.PollResults()
		}
	}

	thumbPath := ThumbnailPathForImage(root, imagePath)
	if results[0].ThumbnailPath != thumbPath {
		t.Errorf("ThumbnailPath = %q, want %q", results[0].ThumbnailPath, thumbPath)
	}
	f, err := os.Open(thumbPath)
	if err != nil {
		t.Fatalf("open generated thumbnail: %v", err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode thumbnail config: %v", err)
	}
	if cfg.Width >= 800 || cfg.Height >= 600 {
		t.Errorf("thumbnail was not downscaled: got %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Height != int(ThumbnailMinDimensionSize) {
		t.Errorf("thumbnail height = %d, want %d (shorter dimension target)", cfg.Height, int(ThumbnailMinDimensionSize))
	}
}

func TestThumbnailGeneratorServiceCachesUnchangedSource(t *testing.T) {
	root := t.TempDir()
	imagePath := filepath.Join(root, "big.jpg")
	writeTestJPEG(t, imagePath, 800, 600)

	svc := NewThumbnailGeneratorService(root)
	defer svc.Stop()

	first, ok := svc.generate(imagePath)
	if !ok {
		t.Fatal("expected first generate to succeed")
	}

	// Corrupt the source file's bytes without changing its size or mtime:
	// a cache hit must return the prior result without re-decoding, so this
	// would make a cache miss fail the second call with a decode error.
	info, err := os.Stat(imagePath)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	garbage := bytes.Repeat([]byte{0xff}, int(info.Size()))
	if err := os.WriteFile(imagePath, garbage, 0o644); err != nil {
		t.Fatalf("corrupt source: %v", err)
	}
	if err := os.Chtimes(imagePath, info.ModTime(), info.ModTime()); err != nil {
		t.Fatalf("restore mtime: %v", err)
	}

	second, ok := svc.generate(imagePath)
	if !ok {
		t.Fatal("expected a cache hit to succeed even though the source is now undecodable")
	}
	if second != first {
		t.Errorf("cached result = %+v, want %+v", second, first)
	}
}

func TestThumbnailGeneratorServiceSkipsUnsupportedExtension(t *testing.T) {
	root := t.TempDir()
	svc := NewThumbnailGeneratorService(root)
	defer svc.Stop()

	imagePath := filepath.Join(root, "raw.cr2")
	if err := os.WriteFile(imagePath, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	svc.RequestThumbnailForImage(imagePath)
	svc.Stop()

	if results := svc.PollResults(); len(results) != 0 {
		t.Errorf("expected no results for an unsupported extension, got %v", results)
	}
}
