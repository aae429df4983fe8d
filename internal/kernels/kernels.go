// Package kernels holds the Go reference implementations of the built-in
// compute kernels. Each one mirrors its WGSL entry point invocation for
// invocation. Planes and parameters are float32 as on the GPU; the
// convolution sums of the 3x3 kernels accumulate in float64, so results
// can differ from a device in the last bits.
package kernels

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Entry points of the built-in WGSL programs.
const (
	Sobel     = "sobelEdgeDetection"
	Prewitt   = "prewittEdgeDetection"
	Canny     = "cannyEdgeDetection"
	Gaussian  = "gaussianBlur"
	Laplacian = "laplacianSharpening"
	Bayer     = "orderedDithering"
)

// ErrParams is returned by a kernel's parameter check when the vector
// does not have the layout the kernel indexes.
var ErrParams = errors.New("kernels: malformed parameter vector")

// Buffers is the view one launch has of its bindings.
type Buffers struct {
	Src    []float32
	Dst    []float32
	Params []float32
	Width  int
	Height int
}

// Kernel is a reference implementation of one entry point.
type Kernel struct {
	// EntryPoint is the WGSL function name the kernel mirrors.
	EntryPoint string

	// CheckParams rejects parameter vectors the kernel would index out of
	// range. Nil means any vector is accepted.
	CheckParams func(params []float32) error

	// Invoke runs one work item. x and y are always inside the domain the
	// device launched, which may be larger than the image.
	Invoke func(b *Buffers, x, y int)
}

// Run invokes the kernel for every x in [0, Width) of rows [y0, y1).
func (k Kernel) Run(b *Buffers, y0, y1 int) {
	for y := y0; y < y1; y++ {
		for x := 0; x < b.Width; x++ {
			k.Invoke(b, x, y)
		}
	}
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Kernel)
)

func init() {
	for _, k := range []Kernel{
		gradientKernel(Sobel),
		gradientKernel(Prewitt),
		cannyKernel(),
		gaussianKernel(),
		laplacianKernel(),
		bayerKernel(),
	} {
		Register(k)
	}
}

// Register adds or replaces the reference kernel for k.EntryPoint.
func Register(k Kernel) {
	if k.EntryPoint == "" || k.Invoke == nil {
		panic("kernels: Register needs an entry point and an Invoke func")
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[k.EntryPoint] = k
}

// Lookup returns the reference kernel for an entry point.
func Lookup(entryPoint string) (Kernel, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	k, ok := registry[entryPoint]
	return k, ok
}

// EntryPoints lists the registered entry points, sorted.
func EntryPoints() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// wantLen returns a parameter check for vectors of exactly n elements.
func wantLen(n int) func([]float32) error {
	return func(p []float32) error {
		if len(p) != n {
			return fmt.Errorf("%w: got %d values, want %d", ErrParams, len(p), n)
		}
		return nil
	}
}

// wantSquare returns a check for [size, w0..w(size²-1)] vectors.
func wantSquare(p []float32) error {
	if len(p) < 2 {
		return fmt.Errorf("%w: got %d values, want size followed by weights", ErrParams, len(p))
	}
	size := int(p[0])
	if size < 1 || float32(size) != p[0] {
		return fmt.Errorf("%w: size %v is not a positive integer", ErrParams, p[0])
	}
	if len(p) != 1+size*size {
		return fmt.Errorf("%w: size %d needs %d weights, got %d", ErrParams, size, size*size, len(p)-1)
	}
	return nil
}

func interior(b *Buffers, x, y int) bool {
	return x >= 1 && y >= 1 && x < b.Width-1 && y < b.Height-1
}
