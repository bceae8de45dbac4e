//go:build !nogpu

// Package gpu is the concrete, software-executed implementation of
// gpucore.Device: buffers and textures are plain Go slices, and a
// pipeline's "shader" is a Go closure (gpucore.KernelFunc) invoked
// directly during Submit.
//
// This follows the donor's own pattern of shipping full resource
// bookkeeping with the actual wgpu calls stubbed out (internal/gpu's
// original gpu_texture.go commented the real wgpu calls as TODOs while
// keeping the Go-level lifecycle real) one step further: instead of a
// stub that returns an error, the software device really executes the op
// kernels, so the edit pipeline is testable without a GPU. A future
// GPU-backed Device would implement the same gpucore.Device interface by
// compiling ComputePipelineDesc.Source and driving gogpu/wgpu instead of
// calling Kernel; nothing above this package would need to change.
//
// # Thread safety
//
// Device is safe for concurrent use; the edit execution core drives it
// from one goroutine (per the spec's single-threaded scheduling model),
// but the thumbnail and persistence services query it from their own.
package gpu
