// Package gpucore defines the resource-identity types, usage flags, and the
// Device interface that the edit-execution core consumes from the
// underlying graphics API. Nothing in this package talks to a real GPU;
// internal/gpu provides the concrete implementation, which executes every
// command in software on the CPU.
package gpucore

import "context"

// Resource IDs
//
// These opaque IDs represent GPU resources. Each Device implementation
// maintains a mapping between IDs and actual backend resources. IDs are
// uint64 to accommodate various backend handle sizes.

// BufferID is an opaque handle to a GPU buffer.
type BufferID uint64

// TextureID is an opaque handle to a GPU texture.
type TextureID uint64

// TextureViewID is an opaque handle to a single-mip (or full-chain) view
// of a texture.
type TextureViewID uint64

// SamplerID is an opaque handle to a sampler.
type SamplerID uint64

// ShaderModuleID is an opaque handle to a compiled shader module.
type ShaderModuleID uint64

// ComputePipelineID is an opaque handle to a compute pipeline.
type ComputePipelineID uint64

// RenderPipelineID is an opaque handle to a render pipeline.
type RenderPipelineID uint64

// BindGroupLayoutID is an opaque handle to a bind group layout.
type BindGroupLayoutID uint64

// BindGroupID is an opaque handle to a bind group.
type BindGroupID uint64

// PipelineLayoutID is an opaque handle to a pipeline layout.
type PipelineLayoutID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// BufferUsage is a bitmask specifying how a buffer will be used.
type BufferUsage uint32

// Buffer usage flags.
const (
	BufferUsageMapRead  BufferUsage = 1 << 0
	BufferUsageMapWrite BufferUsage = 1 << 1
	BufferUsageCopySrc  BufferUsage = 1 << 2
	BufferUsageCopyDst  BufferUsage = 1 << 3
	BufferUsageUniform  BufferUsage = 1 << 4
	BufferUsageStorage  BufferUsage = 1 << 5
)

// Contains reports whether all bits in other are set in u.
func (u BufferUsage) Contains(other BufferUsage) bool { return u&other == other }

// TextureFormat is the closed set of pixel formats §3 allows for Images.
type TextureFormat uint32

const (
	// TextureFormatRGBA16Float is the working format: linear or tagged
	// color space, full dynamic range, used for every intermediate image.
	TextureFormatRGBA16Float TextureFormat = iota + 1

	// TextureFormatRGBA8Unorm is the display/export format.
	TextureFormatRGBA8Unorm
)

// BytesPerPixel returns the storage size of one texel in this format.
func (f TextureFormat) BytesPerPixel() int {
	switch f {
	case TextureFormatRGBA16Float:
		return 8
	case TextureFormatRGBA8Unorm:
		return 4
	default:
		return 0
	}
}

// ColorSpace is the closed set of color spaces §3 allows for Images.
type ColorSpace uint8

const (
	ColorSpaceLinear ColorSpace = iota
	ColorSpaceSRGB
	ColorSpaceHSL
	ColorSpaceLCh
	ColorSpaceHSLuv
)

func (c ColorSpace) String() string {
	switch c {
	case ColorSpaceLinear:
		return "linear"
	case ColorSpaceSRGB:
		return "sRGB"
	case ColorSpaceHSL:
		return "HSL"
	case ColorSpaceLCh:
		return "LCh"
	case ColorSpaceHSLuv:
		return "HSLuv"
	default:
		return "unknown"
	}
}

// TextureUsage is a bitmask specifying how a texture will be used.
type TextureUsage uint32

const (
	TextureUsageCopySrc          TextureUsage = 1 << 0
	TextureUsageCopyDst          TextureUsage = 1 << 1
	TextureUsageTextureBinding   TextureUsage = 1 << 2
	TextureUsageStorageBinding   TextureUsage = 1 << 3
	TextureUsageRenderAttachment TextureUsage = 1 << 4
)

// DefaultImageUsage is the usage set every Image is created with (§4.1):
// sampled, storage, copy_src, copy_dst, render_attachment.
const DefaultImageUsage = TextureUsageTextureBinding | TextureUsageStorageBinding |
	TextureUsageCopySrc | TextureUsageCopyDst | TextureUsageRenderAttachment

// BindingType specifies the type of a shader binding.
type BindingType uint32

const (
	BindingTypeUniformBuffer BindingType = iota + 1
	BindingTypeStorageBuffer
	BindingTypeReadOnlyStorageBuffer
	BindingTypeSampler
	BindingTypeSampledTexture
	BindingTypeStorageTexture
)

// BufferDesc describes a buffer to be created by the Device.
type BufferDesc struct {
	Size         uint64
	Usage        BufferUsage
	HostReadable bool
	Label        string
}

// TextureDesc describes a texture to be created by the Device.
type TextureDesc struct {
	Width, Height uint32
	MipLevelCount uint32
	Format        TextureFormat
	Usage         TextureUsage
	Label         string
}

// SamplerDesc describes a sampler to be created by the Device.
type SamplerDesc struct {
	Label         string
	Repeat        bool
	LinearFilter  bool
	MipmapLinear  bool
}

// Texel is one RGBA sample, components in [0,1] (or beyond, for HDR
// intermediates before clamping on export).
type Texel [4]float32

// TexelBuffer is a 2D grid of [Texel]s backing one texture mip level. A
// real GPU-backed Device never materializes one of these; the software
// Device does, so that ops can express their pixel kernels as plain Go
// functions and be exercised by tests without a GPU.
type TexelBuffer interface {
	Width() int
	Height() int
	Format() TextureFormat
	At(x, y int) Texel
	Set(x, y int, v Texel)
}

// Resources resolves the handles inside a bind group to their backing
// data. Only the software Device (internal/gpu) implements it; it is the
// second argument every [KernelFunc] receives.
type Resources interface {
	Texture(view TextureViewID) TexelBuffer
	Buffer(id BufferID) []byte
	SetBuffer(id BufferID, data []byte)
}

// KernelFunc is a CPU implementation of a shader's pixel/reduction logic,
// used only by the software Device. A GPU-backed Device ignores it and
// compiles ComputePipelineDesc.Source / RenderPipelineDesc.Source instead.
// Per §1's explicit non-goal, the wire format of real shader source is not
// specified by this module; KernelFunc is the stand-in that lets op
// implementations be written, and their contracts tested, without one.
type KernelFunc func(res Resources, bind BindGroupDesc, wg WorkgroupCount)

// ComputePipelineDesc describes a compute pipeline compiled from source.
type ComputePipelineDesc struct {
	Label      string
	Source     string
	EntryPoint string
	Kernel     KernelFunc
}

// RenderPipelineDesc describes a render pipeline compiled from source.
type RenderPipelineDesc struct {
	Label        string
	Source       string
	EntryPoint   string
	TargetFormat TextureFormat
	Kernel       KernelFunc
}

// BindGroupLayoutDesc describes a bind group layout.
type BindGroupLayoutDesc struct {
	Label   string
	Entries []BindGroupLayoutEntry
}

// BindGroupLayoutEntry describes a single binding in a bind group layout.
type BindGroupLayoutEntry struct {
	Binding        uint32
	Type           BindingType
	MinBindingSize uint64
}

// BindGroupEntry describes a single binding in a bind group.
type BindGroupEntry struct {
	Binding uint32
	Buffer  BufferID
	Offset  uint64
	Size    uint64
	Texture TextureViewID
	Sampler SamplerID
}

// BindGroupDesc describes a bind group.
type BindGroupDesc struct {
	Label   string
	Layout  BindGroupLayoutID
	Entries []BindGroupEntry
}

// WorkgroupCount is a 2D/3D dispatch size.
type WorkgroupCount struct {
	X, Y, Z uint32
}

// Device is the low-level graphics API surface the core consumes (§6). A
// real implementation wraps a GPU device/queue; internal/gpu.Device is the
// concrete one in this module, executed in software on the CPU, exercised
// by this module's tests and wrapped by the SoftwareBackend in
// backend/software.go.
type Device interface {
	CreateBuffer(desc BufferDesc) (BufferID, error)
	DestroyBuffer(id BufferID)

	CreateTexture(desc TextureDesc) (TextureID, error)
	TextureView(tex TextureID, mipLevel uint32) (TextureViewID, error)
	DestroyTexture(id TextureID)

	CreateSampler(desc SamplerDesc) (SamplerID, error)

	CreateComputePipeline(desc ComputePipelineDesc) (ComputePipelineID, BindGroupLayoutID, error)
	CreateRenderPipeline(desc RenderPipelineDesc) (RenderPipelineID, BindGroupLayoutID, error)

	CreateBindGroup(desc BindGroupDesc) (BindGroupID, error)

	// NewEncoder opens a command encoder. Callers record zero or more
	// compute/render passes and copies, then Submit once.
	NewEncoder(label string) Encoder

	WriteBuffer(id BufferID, offset uint64, data []byte) error
	WriteTexture(id TextureID, mipLevel uint32, data []byte) error

	CopyBufferToBuffer(src, dst BufferID, size uint64)
	CopyTextureToTexture(src, dst TextureID)

	// MapBufferForRead enqueues a host-visible mapping of a host-readable
	// buffer's paired staging buffer and returns a channel that is closed
	// when the mapping completes. ReadMappedBuffer must be called exactly
	// once afterward.
	MapBufferForRead(ctx context.Context, id BufferID) (<-chan struct{}, error)
	ReadMappedBuffer(id BufferID) ([]byte, error)
}

// Encoder records GPU commands for one execute_module submission.
type Encoder interface {
	// Dispatch records one compute pass: bind pipeline+bind group, dispatch
	// the given workgroup count.
	Dispatch(pass ComputePass)
	// Blit records one full-screen render pass, used by the mipmap
	// generator and by ops whose kernel is a fragment shader.
	Blit(pass RenderPass, target TextureViewID)
	CopyBufferToBuffer(src, dst BufferID, size uint64)
	CopyTextureToTexture(src, dst TextureID)
	Submit()
}

// ComputePass records one compute dispatch.
type ComputePass struct {
	Label     string
	Pipeline  ComputePipelineID
	BindGroup BindGroupID
	Workgroup WorkgroupCount
}

// RenderPass records one full-screen blit-style draw, used by the mipmap
// generator and by ops that implement their kernel as a fragment shader.
type RenderPass struct {
	Label     string
	Pipeline  RenderPipelineID
	BindGroup BindGroupID
}
