// Package gpucore defines the GPU resource model consumed by the edit
// execution core: opaque resource IDs, usage/format/binding-type enums, and
// the [Device] interface that stands in for the real graphics API (device,
// queue, command encoder, shader compilation).
//
// # Architecture
//
//	                 +------------------+
//	                 |   runtime/ir/    |
//	                 |   engine/ops     |
//	                 +--------+---------+
//	                          |
//	                 +--------v---------+
//	                 |     gpucore      |
//	                 |  (Device, IDs)   |
//	                 +--------+---------+
//	                          |
//	         +----------------+----------------+
//	         |                                 |
//	+--------v--------+              +--------v--------+
//	| internal/gpu     |              | backend/software |
//	| (software, CPU)   |              | (wraps internal/gpu) |
//	+-------------------+              +-------------------+
//
// Resources are named by opaque IDs ([BufferID], [TextureID], ...); a
// [Device] implementation owns the mapping from an ID to its actual
// backend handle and is the only component in the system allowed to call
// the underlying graphics API, per §4.1 of the edit-execution spec.
//
// # Closed formats and color spaces
//
// Every Image in this system has a format drawn from [TextureFormat]
// (RGBA16Float working format, RGBA8Unorm display/export format) and a
// color space drawn from [ColorSpace] (linear, sRGB, HSL, LCh, HSLuv).
// Nothing outside this package adds a third format or color space without
// also extending the cache-key and mipmap-chain logic that depends on the
// set being closed.
package gpucore
