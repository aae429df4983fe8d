package kernelfx

import _ "embed"

// Shader sources are embedded from the shaders directory. Every program
// uses the binding layout documented in package backend.

//go:embed shaders/gradient.wgsl
var shaderGradient string

//go:embed shaders/canny.wgsl
var shaderCanny string

//go:embed shaders/blur.wgsl
var shaderBlur string

//go:embed shaders/sharpen.wgsl
var shaderSharpen string

//go:embed shaders/dither.wgsl
var shaderDither string
