//go:build !nogpu

package gpu

import (
	"context"
	"testing"

	"github.com/lumenforge/salon/gpucore"
)

func TestBufferWriteAndMap(t *testing.T) {
	d := New()
	id, err := d.CreateBuffer(gpucore.BufferDesc{Size: 16, HostReadable: true, Usage: gpucore.BufferUsageStorage | gpucore.BufferUsageCopyDst})
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if err := d.WriteBuffer(id, 0, want); err != nil {
		t.Fatalf("WriteBuffer: %v", err)
	}
	done, err := d.MapBufferForRead(context.Background(), id)
	if err != nil {
		t.Fatalf("MapBufferForRead: %v", err)
	}
	<-done
	got, err := d.ReadMappedBuffer(id)
	if err != nil {
		t.Fatalf("ReadMappedBuffer: %v", err)
	}
	for i, b := range want {
		if got[i] != b {
			t.Fatalf("byte %d: got %d want %d", i, got[i], b)
		}
	}
}

func TestMapNonHostReadableFails(t *testing.T) {
	d := New()
	id, _ := d.CreateBuffer(gpucore.BufferDesc{Size: 16})
	if _, err := d.MapBufferForRead(context.Background(), id); err != ErrNotHostReadable {
		t.Fatalf("expected ErrNotHostReadable, got %v", err)
	}
}

func TestTextureMipChain(t *testing.T) {
	d := New()
	tex, err := d.CreateTexture(gpucore.TextureDesc{Width: 100, Height: 75, Format: gpucore.TextureFormatRGBA16Float})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	want := mipCount(100, 75)
	for mip := 0; mip < want; mip++ {
		if _, err := d.TextureView(tex, uint32(mip)); err != nil {
			t.Fatalf("TextureView(%d): %v", mip, err)
		}
	}
	if _, err := d.TextureView(tex, uint32(want)); err != ErrMipOutOfRange {
		t.Fatalf("expected ErrMipOutOfRange, got %v", err)
	}
}

func TestDispatchInvokesKernel(t *testing.T) {
	d := New()
	tex, _ := d.CreateTexture(gpucore.TextureDesc{Width: 4, Height: 4, Format: gpucore.TextureFormatRGBA16Float})
	view, _ := d.TextureView(tex, 0)

	called := false
	pipeline, layout, err := d.CreateComputePipeline(gpucore.ComputePipelineDesc{
		Label: "fill-white",
		Kernel: func(res gpucore.Resources, bind gpucore.BindGroupDesc, wg gpucore.WorkgroupCount) {
			called = true
			out := res.Texture(bind.Entries[0].Texture)
			for y := 0; y < out.Height(); y++ {
				for x := 0; x < out.Width(); x++ {
					out.Set(x, y, gpucore.Texel{1, 1, 1, 1})
				}
			}
		},
	})
	if err != nil {
		t.Fatalf("CreateComputePipeline: %v", err)
	}
	bg, err := d.CreateBindGroup(gpucore.BindGroupDesc{
		Layout:  layout,
		Entries: []gpucore.BindGroupEntry{{Binding: 0, Texture: view}},
	})
	if err != nil {
		t.Fatalf("CreateBindGroup: %v", err)
	}

	enc := d.NewEncoder("test")
	enc.Dispatch(gpucore.ComputePass{Pipeline: pipeline, BindGroup: bg, Workgroup: gpucore.WorkgroupCount{X: 1, Y: 1, Z: 1}})
	enc.Submit()

	if !called {
		t.Fatal("kernel was not invoked")
	}
	got := d.Texture(view).At(0, 0)
	if got != (gpucore.Texel{1, 1, 1, 1}) {
		t.Fatalf("texel not written: got %+v", got)
	}
}

func TestDispatchZeroWorkgroupPanics(t *testing.T) {
	d := New()
	_, layout, _ := d.CreateComputePipeline(gpucore.ComputePipelineDesc{Kernel: func(gpucore.Resources, gpucore.BindGroupDesc, gpucore.WorkgroupCount) {}})
	bg, _ := d.CreateBindGroup(gpucore.BindGroupDesc{Layout: layout})
	pipeline, _, _ := d.CreateComputePipeline(gpucore.ComputePipelineDesc{Kernel: func(gpucore.Resources, gpucore.BindGroupDesc, gpucore.WorkgroupCount) {}})

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic on zero workgroup count")
		}
	}()
	enc := d.NewEncoder("test")
	enc.Dispatch(gpucore.ComputePass{Pipeline: pipeline, BindGroup: bg})
	enc.Submit()
}
