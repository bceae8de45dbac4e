// Package backend selects the gpucore.Device implementation the edit
// execution core runs against.
//
// # Backend Registration
//
// Backends register a factory via init(), mirroring the donor gg
// library's RenderBackend registry:
//
//	func init() {
//		Register(BackendSoftware, func() DeviceBackend { return &SoftwareBackend{} })
//	}
//
// # Backend Selection
//
// Use Default() to get the best available backend by priority, or Get()
// to request one by name:
//
//	b := backend.Default()
//	if err := b.Init(); err != nil {
//		log.Fatal(err)
//	}
//	defer b.Close()
//
//	dev := b.Device()
//
// # Available Backends
//
//   - "software": CPU-executed gpucore.Device (internal/gpu), always
//     available and the only backend registered by this module.
//   - A host application that links a real GPU implementation (e.g. a
//     gogpu/wgpu-backed device) registers it under its own name and
//     prepends it to the priority list consulted by Default().
package backend
