// Package runtime owns the gpucore.Device and every helper that touches it
// directly: image/buffer creation, host↔device transfer, and a shared
// Toolbox of format/colorspace/mipmap/resize helpers. Nothing outside this
// package and internal/gpu is allowed to call gpucore.Device methods
// directly, mirroring the donor's convention that only internal/gpu ever
// speaks to wgpu.
package runtime

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"
	"strings"

	"github.com/rwcarlsen/goexif/exif"

	salcolor "github.com/lumenforge/salon/internal/color"

	"github.com/lumenforge/salon/gpucore"
)

// Image is a GPU-resident 2D texture with immutable properties and a view
// per mip level. Its TextureID doubles as its cache-keying identity (§3):
// the software device already mints it from the process-wide monotonic
// counter, so there is no need for a second identity field.
type Image struct {
	ID         gpucore.TextureID
	Width      uint32
	Height     uint32
	Format     gpucore.TextureFormat
	ColorSpace salcolor.ColorSpace
	views      []gpucore.TextureViewID
}

// View returns the view id for a single mip level.
func (img *Image) View(mip uint32) gpucore.TextureViewID {
	if int(mip) >= len(img.views) {
		return 0
	}
	return img.views[mip]
}

// FullView returns the mip-0 view, standing in for "the full-chain view"
// the spec describes — in the software model every kernel addresses one
// explicit mip, so mip 0 is what "sample the full image" means in practice.
func (img *Image) FullView() gpucore.TextureViewID { return img.View(0) }

// MipCount returns the number of mip levels this image has.
func (img *Image) MipCount() int { return len(img.views) }

// Buffer is a GPU-resident byte range with immutable properties.
type Buffer struct {
	ID           gpucore.BufferID
	Size         uint64
	HostReadable bool
}

// Runtime is the only component allowed to call the underlying graphics
// API (§4.1). It owns the device and a shared Toolbox.
type Runtime struct {
	device  gpucore.Device
	toolbox *Toolbox
}

// New creates a Runtime around an already-initialized gpucore.Device (the
// caller selects the backend, e.g. via the backend package's registry).
func New(device gpucore.Device) *Runtime {
	r := &Runtime{device: device}
	r.toolbox = newToolbox(r)
	return r
}

// Device returns the underlying gpucore.Device. Op implementations and the
// engine use this to encode commands; nothing outside this package creates
// resources directly against it.
func (r *Runtime) Device() gpucore.Device { return r.device }

// Toolbox returns the shared Toolbox of format/colorspace/mipmap/resize
// helpers (§5: "shared across the editor and the engine through an
// interior-mutable cell").
func (r *Runtime) Toolbox() *Toolbox { return r.toolbox }

// CreateImage allocates a texture with the default image usage flags
// (sampled, storage, copy_src, copy_dst, render_attachment) plus one view
// per mip level. No separate view over the whole mip chain is created;
// FullView returns the mip-0 view.
func (r *Runtime) CreateImage(width, height uint32, format gpucore.TextureFormat, cs salcolor.ColorSpace) (*Image, error) {
	id, err := r.device.CreateTexture(gpucore.TextureDesc{
		Width:  width,
		Height: height,
		Format: format,
		Usage:  gpucore.DefaultImageUsage,
	})
	if err != nil {
		return nil, fmt.Errorf("runtime: create image: %w", err)
	}
	img := &Image{ID: id, Width: width, Height: height, Format: format, ColorSpace: cs}
	if err := r.bindViews(img); err != nil {
		return nil, err
	}
	return img, nil
}

func (r *Runtime) bindViews(img *Image) error {
	n := mipCountFor(img.Width, img.Height)
	img.views = make([]gpucore.TextureViewID, 0, n)
	for mip := uint32(0); mip < uint32(n); mip++ {
		v, err := r.device.TextureView(img.ID, mip)
		if err != nil {
			return fmt.Errorf("runtime: texture view mip %d: %w", mip, err)
		}
		img.views = append(img.views, v)
	}
	return nil
}

// mipCountFor mirrors §3's formula so the Runtime doesn't need to ask the
// device how many mips it created.
func mipCountFor(width, height uint32) int {
	maxDim := width
	if height > maxDim {
		maxDim = height
	}
	n := 0
	for d := maxDim; d > 1; d >>= 1 {
		n++
	}
	if n < 1 {
		n = 1
	}
	return n
}

// unsupportedExtensions lists import extensions the spec requires be
// recognized and rejected with a clear error (§4.1: "Raw formats are
// recognized but rejected").
var unsupportedExtensions = map[string]bool{
	".raw": true, ".cr2": true, ".nef": true, ".arw": true, ".dng": true,
}

// CreateImageFromBytes decodes JPEG/PNG, applies EXIF orientation, uploads
// as 16-bit-float sRGB-tagged RGBA, and generates its mipmap chain.
func (r *Runtime) CreateImageFromBytes(data []byte, extension string) (*Image, error) {
	ext := strings.ToLower(extension)
	if unsupportedExtensions[ext] {
		return nil, fmt.Errorf("runtime: raw format %q is not supported", extension)
	}

	decoded, err := decodeImage(data, ext)
	if err != nil {
		return nil, fmt.Errorf("runtime: decode %q: %w", extension, err)
	}

	orientation := readEXIFOrientation(data)
	decoded = applyEXIFOrientation(decoded, orientation)

	bounds := decoded.Bounds()
	w, h := uint32(bounds.Dx()), uint32(bounds.Dy())

	img, err := r.CreateImage(w, h, gpucore.TextureFormatRGBA16Float, salcolor.ColorSpaceSRGB)
	if err != nil {
		return nil, err
	}

	pixels := make([]byte, 0, int(w)*int(h)*16)
	var buf [16]byte
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			rr, gg, bb, aa := decoded.At(x, y).RGBA()
			putFloat32(buf[0:4], float32(rr)/65535)
			putFloat32(buf[4:8], float32(gg)/65535)
			putFloat32(buf[8:12], float32(bb)/65535)
			putFloat32(buf[12:16], float32(aa)/65535)
			pixels = append(pixels, buf[:]...)
		}
	}
	if err := r.device.WriteTexture(img.ID, 0, pixels); err != nil {
		return nil, fmt.Errorf("runtime: upload image: %w", err)
	}

	enc := r.device.NewEncoder("import-mipmaps")
	if err := r.toolbox.Mipmaps().GenerateMipmaps(img, enc); err != nil {
		return nil, err
	}
	enc.Submit()

	return img, nil
}

func putFloat32(dst []byte, v float32) {
	binary.LittleEndian.PutUint32(dst, math.Float32bits(v))
}

func decodeImage(data []byte, ext string) (image.Image, error) {
	switch ext {
	case ".jpg", ".jpeg":
		return jpeg.Decode(bytes.NewReader(data))
	case ".png":
		return png.Decode(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unsupported extension %q", ext)
	}
}

// readEXIFOrientation returns the EXIF orientation tag (1-8), defaulting to
// 1 (no transform needed) when absent or unreadable — most PNGs and many
// JPEGs carry no EXIF at all, which is not an import error.
func readEXIFOrientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}

// CreateBuffer allocates with usage {copy_src, copy_dst, uniform, storage};
// if hostReadable, also creates a paired {copy_dst, map_read} staging
// buffer (handled internally by internal/gpu's buffer bookkeeping).
func (r *Runtime) CreateBuffer(size uint64, hostReadable bool) (*Buffer, error) {
	id, err := r.device.CreateBuffer(gpucore.BufferDesc{
		Size:         size,
		HostReadable: hostReadable,
		Usage:        gpucore.BufferUsageCopySrc | gpucore.BufferUsageCopyDst | gpucore.BufferUsageUniform | gpucore.BufferUsageStorage,
	})
	if err != nil {
		return nil, err
	}
	return &Buffer{ID: id, Size: size, HostReadable: hostReadable}, nil
}

// CreateComputePipeline compiles a kernel and extracts its bind-group
// layout.
func (r *Runtime) CreateComputePipeline(desc gpucore.ComputePipelineDesc) (gpucore.ComputePipelineID, gpucore.BindGroupLayoutID, error) {
	return r.device.CreateComputePipeline(desc)
}

// CreateRenderPipeline compiles a kernel and extracts its bind-group
// layout.
func (r *Runtime) CreateRenderPipeline(desc gpucore.RenderPipelineDesc) (gpucore.RenderPipelineID, gpucore.BindGroupLayoutID, error) {
	return r.device.CreateRenderPipeline(desc)
}

// CreateSampler wraps the device sampler.
func (r *Runtime) CreateSampler(desc gpucore.SamplerDesc) (gpucore.SamplerID, error) {
	return r.device.CreateSampler(desc)
}

// WriteBuffer uploads data starting at offset 0, used by op implementations
// to fill a ring-buffer uniform slot before dispatch.
func (r *Runtime) WriteBuffer(id gpucore.BufferID, data []byte) error {
	return r.device.WriteBuffer(id, 0, data)
}

// NewEncoder opens a command encoder against the underlying device.
func (r *Runtime) NewEncoder(label string) gpucore.Encoder {
	return r.device.NewEncoder(label)
}

// CopyImage performs a whole-texture copy at mip 0; requires equal
// dimensions and format (enforced by internal/gpu as a programmer-error
// panic, per §7).
func (r *Runtime) CopyImage(src, dst *Image) error {
	if src.Width != dst.Width || src.Height != dst.Height || src.Format != dst.Format {
		return fmt.Errorf("runtime: copy_image requires equal dimensions and format")
	}
	r.device.CopyTextureToTexture(src.ID, dst.ID)
	return nil
}

// MapHostReadableBuffer enqueues a copy from the main buffer to its paired
// staging buffer, submits, then requests mapping; the channel fires when
// the map is ready.
func (r *Runtime) MapHostReadableBuffer(ctx context.Context, buf *Buffer) (<-chan struct{}, error) {
	if !buf.HostReadable {
		return nil, fmt.Errorf("runtime: buffer %d is not host-readable", buf.ID)
	}
	return r.device.MapBufferForRead(ctx, buf.ID)
}

// ReadMappedBuffer reads and unmaps.
func (r *Runtime) ReadMappedBuffer(buf *Buffer) ([]byte, error) {
	return r.device.ReadMappedBuffer(buf.ID)
}
