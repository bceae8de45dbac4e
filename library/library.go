// Package library models the two external-collaborator functions the core
// needs from an image library it does not own (§1: "the library package
// here models only the two functions GetImage/GetMetadata"). A real
// application library indexes albums, ratings, and import history; none of
// that lives here. Identifier is path-keyed, consistent with how
// package edit already addresses a persisted edit by the image's path
// (edit.PathForImage).
package library

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/lumenforge/salon/runtime"
)

// Identifier names one image the library can hand back to the core. It is
// the image's absolute path on disk; the core never needs more than that
// to load pixels or read metadata.
type Identifier string

// supportedExtensions mirrors the donor's is_supported_image_file: only
// JPEG and PNG are importable (§6).
var supportedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true,
}

// IsSupportedImageFile reports whether path's extension is one GetImage can
// decode.
func IsSupportedImageFile(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// Metadata is the subset of file/image properties the editor needs before
// it decides to load full pixels: dimensions for aspect-ratio framing UI,
// size for the library listing.
type Metadata struct {
	Identifier Identifier
	Width      uint32
	Height     uint32
	SizeBytes  int64
}

// GetImage loads and uploads the image named by id, honoring EXIF
// orientation and generating its mipmap chain (delegated to
// runtime.CreateImageFromBytes; §6 "Image formats").
func GetImage(rt *runtime.Runtime, id Identifier) (*runtime.Image, error) {
	if !IsSupportedImageFile(string(id)) {
		return nil, fmt.Errorf("library: %s: unsupported image extension", id)
	}
	data, err := os.ReadFile(string(id))
	if err != nil {
		return nil, fmt.Errorf("library: read %s: %w", id, err)
	}
	img, err := rt.CreateImageFromBytes(data, filepath.Ext(string(id)))
	if err != nil {
		return nil, fmt.Errorf("library: decode %s: %w", id, err)
	}
	return img, nil
}

// GetMetadata reads just enough of id's file to report its dimensions and
// size, without uploading it to the GPU.
func GetMetadata(id Identifier) (Metadata, error) {
	if !IsSupportedImageFile(string(id)) {
		return Metadata{}, fmt.Errorf("library: %s: unsupported image extension", id)
	}
	f, err := os.Open(string(id))
	if err != nil {
		return Metadata{}, fmt.Errorf("library: open %s: %w", id, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return Metadata{}, fmt.Errorf("library: decode config %s: %w", id, err)
	}
	stat, err := f.Stat()
	if err != nil {
		return Metadata{}, fmt.Errorf("library: stat %s: %w", id, err)
	}
	return Metadata{
		Identifier: id,
		Width:      uint32(cfg.Width),
		Height:     uint32(cfg.Height),
		SizeBytes:  stat.Size(),
	}, nil
}
