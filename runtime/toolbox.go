package runtime

import (
	"fmt"

	salcolor "github.com/lumenforge/salon/internal/color"

	internalcache "github.com/lumenforge/salon/internal/cache"

	"github.com/lumenforge/salon/gpucore"
)

// Toolbox is the reusable set of format/colorspace/mipmap/resize helpers
// shared by the editor and the engine (§5: "through an interior-mutable
// cell"). In Go there is no borrow checker to placate, so Toolbox is a
// plain struct behind a pointer; its sub-tools (mipmaps, resize, color)
// each own disjoint state, so concurrent callers touching different
// sub-tools never contend (§5: "each method borrows a distinct sub-tool").
type Toolbox struct {
	rt      *Runtime
	mipmaps *mipmapGenerator
}

func newToolbox(rt *Runtime) *Toolbox {
	return &Toolbox{rt: rt, mipmaps: newMipmapGenerator(rt)}
}

// Mipmaps returns the mipmap generation sub-tool.
func (t *Toolbox) Mipmaps() *mipmapGenerator { return t.mipmaps }

// Runtime returns the owning Runtime, used by op implementations that need
// to create resources or pipelines directly.
func (t *Toolbox) Runtime() *Runtime { return t.rt }

// Resize produces a new Image at width*factor, height*factor using
// bilinear sampling of the source's mip 0, for upscales and downscales
// alike; downscales are not box-filtered.
func (t *Toolbox) Resize(src *Image, factor float32) (*Image, error) {
	newW := maxu32(1, uint32(float32(src.Width)*factor+0.5))
	newH := maxu32(1, uint32(float32(src.Height)*factor+0.5))

	dst, err := t.rt.CreateImage(newW, newH, src.Format, src.ColorSpace)
	if err != nil {
		return nil, fmt.Errorf("toolbox: resize: %w", err)
	}

	dev := t.rt.Device()
	srcBuf := dev.(gpucore.Resources).Texture(src.FullView())
	dstBuf := dev.(gpucore.Resources).Texture(dst.FullView())
	if srcBuf == nil || dstBuf == nil {
		return nil, fmt.Errorf("toolbox: resize: texture view not resolvable")
	}
	resizeBilinear(srcBuf, dstBuf)

	enc := dev.NewEncoder("resize-mipmaps")
	if err := t.mipmaps.GenerateMipmaps(dst, enc); err != nil {
		return nil, err
	}
	enc.Submit()

	return dst, nil
}

func resizeBilinear(src, dst gpucore.TexelBuffer) {
	sw, sh := src.Width(), src.Height()
	dw, dh := dst.Width(), dst.Height()
	if dw == 0 || dh == 0 {
		return
	}
	for dy := 0; dy < dh; dy++ {
		// Map destination center to source continuous coordinates.
		fy := (float64(dy)+0.5)*float64(sh)/float64(dh) - 0.5
		y0 := clampi(int(fy), 0, sh-1)
		y1 := clampi(y0+1, 0, sh-1)
		wy := fy - float64(int(fy))
		if fy < 0 {
			wy = 0
		}
		for dx := 0; dx < dw; dx++ {
			fx := (float64(dx)+0.5)*float64(sw)/float64(dw) - 0.5
			x0 := clampi(int(fx), 0, sw-1)
			x1 := clampi(x0+1, 0, sw-1)
			wx := fx - float64(int(fx))
			if fx < 0 {
				wx = 0
			}

			c00 := src.At(x0, y0)
			c10 := src.At(x1, y0)
			c01 := src.At(x0, y1)
			c11 := src.At(x1, y1)

			var out gpucore.Texel
			for c := 0; c < 4; c++ {
				top := c00[c]*float32(1-wx) + c10[c]*float32(wx)
				bot := c01[c]*float32(1-wx) + c11[c]*float32(wx)
				out[c] = top*float32(1-wy) + bot*float32(wy)
			}
			dst.Set(dx, dy, out)
		}
	}
}

func clampi(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxu32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

// ConvertColorSpace converts one texel from one ColorSpace to another,
// routing every pair through linear RGB (the working space). Used by ops
// that grade in a perceptual space (ColorMix, AdjustVibranceAndSaturation).
func ConvertColorSpace(c gpucore.Texel, from, to salcolor.ColorSpace) gpucore.Texel {
	if from == to {
		return c
	}
	lin := toLinear(c, from)
	return fromLinear(lin, to)
}

func toLinear(c gpucore.Texel, from salcolor.ColorSpace) salcolor.ColorF32 {
	f := salcolor.ColorF32{R: c[0], G: c[1], B: c[2], A: c[3]}
	switch from {
	case salcolor.ColorSpaceLinear:
		return f
	case salcolor.ColorSpaceSRGB:
		return salcolor.SRGBToLinearColor(f)
	case salcolor.ColorSpaceHSL:
		rgb := salcolor.HSLToRGB(f.R, f.G, f.B)
		return salcolor.SRGBToLinearColor(salcolor.ColorF32{R: rgb.R, G: rgb.G, B: rgb.B, A: f.A})
	case salcolor.ColorSpaceLCh:
		rgb := salcolor.LChToLinear(f.R, f.G, f.B)
		return salcolor.ColorF32{R: rgb.R, G: rgb.G, B: rgb.B, A: f.A}
	case salcolor.ColorSpaceHSLuv:
		rgb := salcolor.HSLuvToRGB(f.R, f.G, f.B)
		return salcolor.ColorF32{R: rgb.R, G: rgb.G, B: rgb.B, A: f.A}
	default:
		return f
	}
}

func fromLinear(lin salcolor.ColorF32, to salcolor.ColorSpace) gpucore.Texel {
	switch to {
	case salcolor.ColorSpaceLinear:
		return gpucore.Texel{lin.R, lin.G, lin.B, lin.A}
	case salcolor.ColorSpaceSRGB:
		s := salcolor.LinearToSRGBColor(lin)
		return gpucore.Texel{s.R, s.G, s.B, s.A}
	case salcolor.ColorSpaceHSL:
		h, s, l := salcolor.RGBToHSL(lin)
		return gpucore.Texel{h, s, l, lin.A}
	case salcolor.ColorSpaceLCh:
		L, C, H := salcolor.LinearToLCh(lin)
		return gpucore.Texel{L, C, H, lin.A}
	case salcolor.ColorSpaceHSLuv:
		h, s, l := salcolor.RGBToHSLuv(lin)
		return gpucore.Texel{h, s, l, lin.A}
	default:
		return gpucore.Texel{lin.R, lin.G, lin.B, lin.A}
	}
}

// mipmapPipelineCache caps how many distinct (format) blit pipelines the
// generator will lazy-compile, matching the §4.2 bind-group cache's
// "hard cap bounds memory" philosophy even though in practice there are
// only two texture formats.
const mipmapPipelineCacheCap = 8

type mipmapGenerator struct {
	rt        *Runtime
	pipelines *internalcache.Cache[gpucore.TextureFormat, gpucore.RenderPipelineID]
	layouts   *internalcache.Cache[gpucore.TextureFormat, gpucore.BindGroupLayoutID]
}

func newMipmapGenerator(rt *Runtime) *mipmapGenerator {
	return &mipmapGenerator{
		rt:        rt,
		pipelines: internalcache.New[gpucore.TextureFormat, gpucore.RenderPipelineID](mipmapPipelineCacheCap),
		layouts:   internalcache.New[gpucore.TextureFormat, gpucore.BindGroupLayoutID](mipmapPipelineCacheCap),
	}
}

// GenerateMipmaps issues mip_count-1 render passes, each box-filtering the
// previous level's view into the next level's view (§4.2).
func (g *mipmapGenerator) GenerateMipmaps(img *Image, enc gpucore.Encoder) error {
	pipeline, layout, err := g.pipelineFor(img.Format)
	if err != nil {
		return err
	}
	dev := g.rt.Device()
	for mip := 1; mip < img.MipCount(); mip++ {
		bg, err := dev.CreateBindGroup(gpucore.BindGroupDesc{
			Layout: layout,
			Entries: []gpucore.BindGroupEntry{
				{Binding: 0, Texture: img.View(uint32(mip - 1))},
				{Binding: 1, Texture: img.View(uint32(mip))},
			},
		})
		if err != nil {
			return fmt.Errorf("toolbox: mipmap bind group: %w", err)
		}
		enc.Blit(gpucore.RenderPass{Label: "mipmap-blit", Pipeline: pipeline, BindGroup: bg}, img.View(uint32(mip)))
	}
	return nil
}

func (g *mipmapGenerator) pipelineFor(format gpucore.TextureFormat) (gpucore.RenderPipelineID, gpucore.BindGroupLayoutID, error) {
	if p, ok := g.pipelines.Get(format); ok {
		l, _ := g.layouts.Get(format)
		return p, l, nil
	}
	pipeline, layout, err := g.rt.CreateRenderPipeline(gpucore.RenderPipelineDesc{
		Label:        "mipmap-box-blit",
		TargetFormat: format,
		Kernel:       mipmapBlitKernel,
	})
	if err != nil {
		return 0, 0, err
	}
	g.pipelines.Set(format, pipeline)
	g.layouts.Set(format, layout)
	return pipeline, layout, nil
}

// mipmapBlitKernel box-filters the source view (bind group entry 0) into
// the destination view (bind group entry 1). Every blit kernel in this
// module follows the same convention: the render target is bound as an
// ordinary entry rather than threaded through some side channel, since
// gpucore.Resources only resolves handles the bind group names.
func mipmapBlitKernel(res gpucore.Resources, bind gpucore.BindGroupDesc, wg gpucore.WorkgroupCount) {
	src := res.Texture(bind.Entries[0].Texture)
	dst := res.Texture(bind.Entries[1].Texture)
	if src == nil || dst == nil {
		return
	}
	sw, sh := src.Width(), src.Height()
	dw, dh := dst.Width(), dst.Height()
	for dy := 0; dy < dh; dy++ {
		sy := dy * 2
		for dx := 0; dx < dw; dx++ {
			sx := dx * 2
			c00 := src.At(sx, sy)
			c10 := src.At(clampi(sx+1, 0, sw-1), sy)
			c01 := src.At(sx, clampi(sy+1, 0, sh-1))
			c11 := src.At(clampi(sx+1, 0, sw-1), clampi(sy+1, 0, sh-1))
			var out gpucore.Texel
			for c := 0; c < 4; c++ {
				out[c] = (c00[c] + c10[c] + c01[c] + c11[c]) / 4
			}
			dst.Set(dx, dy, out)
		}
	}
}
