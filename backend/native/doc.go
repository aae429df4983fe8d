// Package native provides the Vulkan compute device, built on
// gogpu/wgpu's HAL with WGSL compiled to SPIR-V by gogpu/naga.
//
// The package registers itself as the "native" backend on import. It is
// excluded from builds with the nogpu tag.
//
// A Device either opens its own Vulkan device (New) or borrows the device
// and queue of a host application (NewShared). All queue work of one
// Device is serialised by a mutex; each Launch and Download submits and
// waits on its own fence.
package native
