// Package software provides the CPU reference compute device.
//
// The device does not interpret WGSL. BuildProgram checks that the source
// declares the requested compute entry point (and, with WithValidation,
// that gogpu/naga compiles it) and then binds the Go reference kernel
// registered for that entry point. Launch splits the domain into row
// bands on a fixed worker pool.
//
// Built-in kernels cover every kernelfx filter. Custom filters add theirs
// with RegisterKernel.
//
// The package registers itself as the "software" backend on import.
package software
