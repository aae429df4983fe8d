// Package filter generates the numeric parameter vectors consumed by the
// compute kernels: gradient operator pairs (Sobel, Prewitt), the
// Laplacian, normalized 2D Gaussian kernels, Bayer dither matrices and
// luminance statistics.
//
// All kernels are returned flattened row-major as []float32, the layout
// the kernels index directly.
package filter
