package services

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/image/draw"

	"github.com/lumenforge/salon/cache"
	"github.com/lumenforge/salon/library"
)

// ThumbnailMinDimensionSize is the target size, in pixels, of a
// thumbnail's shorter dimension (§5: "Thumbnail generation has the same
// shape [as EditWriterService], with the additional responsibility of
// decoding and resizing on the background thread").
const ThumbnailMinDimensionSize = 400.0

// ThumbnailPathForImage returns the on-disk location of imagePath's
// thumbnail under storageRoot, mirroring edit.PathForImage's digest
// convention with a different leaf filename (§6: "thumbnails land at
// .../thumbnail.jpg").
func ThumbnailPathForImage(storageRoot, imagePath string) string {
	sum := sha256.Sum256([]byte(imagePath))
	digest := hex.EncodeToString(sum[:])
	return filepath.Join(storageRoot, "library", digest, "thumbnail.jpg")
}

// GeneratedThumbnail names a completed background thumbnail generation.
type GeneratedThumbnail struct {
	ImagePath     string
	ThumbnailPath string
}

type thumbnailRequest struct {
	imagePath string
	stop      bool
}

// ThumbnailGeneratorService decodes, resizes, and re-encodes images on a
// background goroutine, polled for completed results rather than awaited
// (§5).
type ThumbnailGeneratorService struct {
	storageRoot string

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []thumbnailRequest
	closed bool
	wg     sync.WaitGroup

	resultsMu sync.Mutex
	results   []GeneratedThumbnail

	// cache short-circuits re-decoding an image whose mtime/size haven't
	// changed since its last generated thumbnail, keyed by image path.
	cache *cache.ShardedCache[string, thumbnailCacheEntry]
}

type thumbnailCacheEntry struct {
	modTime time.Time
	size    int64
	result  GeneratedThumbnail
}

// NewThumbnailGeneratorService starts the worker goroutine.
func NewThumbnailGeneratorService(storageRoot string) *ThumbnailGeneratorService {
	s := &ThumbnailGeneratorService{
		storageRoot: storageRoot,
		cache:       cache.NewSharded[string, thumbnailCacheEntry](cache.DefaultCapacity, cache.StringHasher),
	}
	s.cond = sync.NewCond(&s.mu)
	s.wg.Add(1)
	go s.run()
	return s
}

// RequestThumbnailForImage enqueues imagePath for background generation.
// It never blocks the caller.
func (s *ThumbnailGeneratorService) RequestThumbnailForImage(imagePath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.queue = append(s.queue, thumbnailRequest{imagePath: imagePath})
	s.cond.Signal()
}

// PollResults drains and returns every thumbnail generated since the last
// call, in completion order.
func (s *ThumbnailGeneratorService) PollResults() []GeneratedThumbnail {
	s.resultsMu.Lock()
	defer s.resultsMu.Unlock()
	out := s.results
	s.results = nil
	return out
}

// Stop sends the worker a stop request and blocks until it has drained the
// queue and exited. Safe to call more than once.
func (s *ThumbnailGeneratorService) Stop() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.wg.Wait()
		return
	}
	s.closed = true
	s.queue = append(s.queue, thumbnailRequest{stop: true})
	s.cond.Signal()
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *ThumbnailGeneratorService) run() {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		for len(s.queue) == 0 {
			s.cond.Wait()
		}
		req := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		if req.stop {
			return
		}
		if result, ok := s.generate(req.imagePath); ok {
			s.resultsMu.Lock()
			s.results = append(s.results, result)
			s.resultsMu.Unlock()
		}
	}
}

func (s *ThumbnailGeneratorService) generate(imagePath string) (GeneratedThumbnail, bool) {
	if !library.IsSupportedImageFile(imagePath) {
		return GeneratedThumbnail{}, false
	}

	info, err := os.Stat(imagePath)
	if err != nil {
		slogger().Error("thumbnail generator: stat failed", "image_path", imagePath, "error", err)
		return GeneratedThumbnail{}, false
	}
	if cached, ok := s.cache.Get(imagePath); ok && cached.modTime.Equal(info.ModTime()) && cached.size == info.Size() {
		if _, err := os.Stat(cached.result.ThumbnailPath); err == nil {
			return cached.result, true
		}
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		slogger().Error("thumbnail generator: read failed", "image_path", imagePath, "error", err)
		return GeneratedThumbnail{}, false
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		slogger().Error("thumbnail generator: decode failed", "image_path", imagePath, "error", err)
		return GeneratedThumbnail{}, false
	}

	out := resizeToThumbnail(img)

	thumbPath := ThumbnailPathForImage(s.storageRoot, imagePath)
	if err := os.MkdirAll(filepath.Dir(thumbPath), 0o755); err != nil {
		slogger().Error("thumbnail generator: mkdir failed", "path", thumbPath, "error", err)
		return GeneratedThumbnail{}, false
	}
	f, err := os.Create(thumbPath)
	if err != nil {
		slogger().Error("thumbnail generator: create failed", "path", thumbPath, "error", err)
		return GeneratedThumbnail{}, false
	}
	defer f.Close()
	if err := jpeg.Encode(f, out, &jpeg.Options{Quality: 100}); err != nil {
		slogger().Error("thumbnail generator: encode failed", "path", thumbPath, "error", err)
		return GeneratedThumbnail{}, false
	}

	result := GeneratedThumbnail{ImagePath: imagePath, ThumbnailPath: thumbPath}
	s.cache.Set(imagePath, thumbnailCacheEntry{modTime: info.ModTime(), size: info.Size(), result: result})
	return result, true
}

// resizeToThumbnail scales img so its shorter dimension is
// ThumbnailMinDimensionSize, or returns it unchanged if it is already
// smaller than that (no upscaling; matches the donor's "factor >= 1.0: no
// need to resize").
func resizeToThumbnail(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	var factor float64
	if w >= h {
		factor = ThumbnailMinDimensionSize / float64(h)
	} else {
		factor = ThumbnailMinDimensionSize / float64(w)
	}
	if factor >= 1.0 {
		return img
	}

	tw := int(float64(w) * factor)
	th := int(float64(h) * factor)
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
