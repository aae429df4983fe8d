// Package backend provides the pluggable compute device abstraction.
//
// A Device builds WGSL compute programs, moves float32 planes to and from
// device memory and launches a program over a 2D domain. The kernelfx
// dispatcher is written against this interface only.
//
// # Binding Layout
//
// Every program sees four bindings in group 0:
//
//	@binding(0) var<storage, read>       input:  array<f32>
//	@binding(1) var<storage, read_write> output: array<f32>
//	@binding(2) var<storage, read>       params: array<f32>
//	@binding(3) var<uniform>             dims:   Dims // width, height, param_count, pad
//
// The workgroup size is 8×8; kernels must guard against invocations
// outside width × height.
//
// # Backend Registration
//
// Devices are registered via init() functions and selected at runtime:
//
//	import (
//		_ "github.com/gogpu/kernelfx/backend/native"   // Vulkan via gogpu/wgpu
//		_ "github.com/gogpu/kernelfx/backend/software" // CPU reference
//	)
//
// # Backend Selection
//
// Use InitDefault() to get the best device that initializes on this
// machine, or Get() to request a specific backend by name:
//
//	dev, err := backend.InitDefault()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer dev.Close()
//
// # Available Backends
//
//   - "native": Vulkan compute via gogpu/wgpu/hal, WGSL compiled by gogpu/naga
//     (excluded with the nogpu build tag)
//   - "software": CPU reference kernels on a worker pool (always available)
package backend
