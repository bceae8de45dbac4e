//go:build !nogpu

package gpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/lumenforge/salon/gpucore"
)

// texelBuffer is a CPU-resident mip level, implementing gpucore.TexelBuffer.
// Grounded in the donor's internal/image.ImageBuf (contiguous backing
// store, explicit width/height) but storing float32 texels directly since
// the software device must support the RGBA16Float working format without
// a separate half-float codec.
type texelBuffer struct {
	width, height int
	format        gpucore.TextureFormat
	data          []gpucore.Texel
}

func newTexelBuffer(width, height int, format gpucore.TextureFormat) *texelBuffer {
	return &texelBuffer{
		width:  width,
		height: height,
		format: format,
		data:   make([]gpucore.Texel, width*height),
	}
}

func (t *texelBuffer) Width() int                   { return t.width }
func (t *texelBuffer) Height() int                   { return t.height }
func (t *texelBuffer) Format() gpucore.TextureFormat { return t.format }

func (t *texelBuffer) At(x, y int) gpucore.Texel {
	if x < 0 || y < 0 || x >= t.width || y >= t.height {
		return gpucore.Texel{}
	}
	return t.data[y*t.width+x]
}

func (t *texelBuffer) Set(x, y int, v gpucore.Texel) {
	if x < 0 || y < 0 || x >= t.width || y >= t.height {
		return
	}
	t.data[y*t.width+x] = v
}

// texture is one GPU-resident image: a full mip chain of texelBuffers plus
// the bookkeeping gpu_texture.go used to carry (label, format, released
// flag). Mip level 0 is the full-resolution image.
type texture struct {
	mu       sync.RWMutex
	mips     []*texelBuffer
	format   gpucore.TextureFormat
	usage    gputypes.TextureUsage
	label    string
	released bool
}

// mipCount implements the §3 formula: max(1, floor(log2(max(w,h)))).
func mipCount(width, height int) int {
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

func newTexture(desc gpucore.TextureDesc) *texture {
	levels := int(desc.MipLevelCount)
	if levels <= 0 {
		levels = mipCount(int(desc.Width), int(desc.Height))
	}
	tex := &texture{format: desc.Format, label: desc.Label, usage: toGPUTypesUsage(desc.Usage)}
	w, h := int(desc.Width), int(desc.Height)
	tex.mips = make([]*texelBuffer, levels)
	for i := 0; i < levels; i++ {
		tex.mips[i] = newTexelBuffer(w, h, desc.Format)
		w = max(1, w/2)
		h = max(1, h/2)
	}
	return tex
}

func (t *texture) String() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	status := "active"
	if t.released {
		status = "released"
	}
	w, h := 0, 0
	if len(t.mips) > 0 {
		w, h = t.mips[0].width, t.mips[0].height
	}
	return fmt.Sprintf("texture[%s %dx%d mips=%d %s %s]", t.label, w, h, len(t.mips), formatName(t.format), status)
}

func formatName(f gpucore.TextureFormat) string {
	switch f {
	case gpucore.TextureFormatRGBA16Float:
		return "RGBA16Float"
	case gpucore.TextureFormatRGBA8Unorm:
		return "RGBA8Unorm"
	default:
		return "Unknown"
	}
}

// toGPUTypesUsage maps the subset of gpucore.TextureUsage this module uses
// onto gputypes.TextureUsage, the enum the donor's wgpu-backed code already
// speaks (gpu_texture.go's DefaultTextureUsage). Stored on texture.usage and
// checked by WriteTexture before allowing a host upload.
func toGPUTypesUsage(u gpucore.TextureUsage) gputypes.TextureUsage {
	var out gputypes.TextureUsage
	if u&gpucore.TextureUsageCopySrc != 0 {
		out |= gputypes.TextureUsageCopySrc
	}
	if u&gpucore.TextureUsageCopyDst != 0 {
		out |= gputypes.TextureUsageCopyDst
	}
	if u&gpucore.TextureUsageTextureBinding != 0 {
		out |= gputypes.TextureUsageTextureBinding
	}
	return out
}
