package edit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// PathForImage returns the on-disk location of an Edit's JSON document
// under storageRoot for the image at imagePath: storageRoot/library/<sha256
// hex digest of imagePath>/edit.json (§6).
func PathForImage(storageRoot, imagePath string) string {
	sum := sha256.Sum256([]byte(imagePath))
	digest := hex.EncodeToString(sum[:])
	return filepath.Join(storageRoot, "library", digest, "edit.json")
}

// Save writes e as pretty-printed JSON to PathForImage(storageRoot,
// imagePath), creating any missing parent directories. The document is
// written to a temporary file and renamed into place.
func Save(e Edit, storageRoot, imagePath string) error {
	path := PathForImage(storageRoot, imagePath)
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("edit: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("edit: create library dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("edit: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("edit: write %s: %w", path, err)
	}
	return nil
}

// Load reads the Edit previously saved for imagePath under storageRoot. It
// returns os.ErrNotExist (wrapped) if no edit has been saved yet.
func Load(storageRoot, imagePath string) (Edit, error) {
	path := PathForImage(storageRoot, imagePath)
	data, err := os.ReadFile(path)
	if err != nil {
		return Edit{}, fmt.Errorf("edit: read %s: %w", path, err)
	}
	var e Edit
	if err := json.Unmarshal(data, &e); err != nil {
		return Edit{}, fmt.Errorf("edit: unmarshal %s: %w", path, err)
	}
	return e, nil
}
