package filter

import (
	"math"
	"sync"
)

// Gradient operator pairs, row-major 3x3. The first kernel responds to
// horizontal intensity changes, the second to vertical ones.
var (
	sobelX = [9]float32{
		-1, 0, 1,
		-2, 0, 2,
		-1, 0, 1,
	}
	sobelY = [9]float32{
		-1, -2, -1,
		0, 0, 0,
		1, 2, 1,
	}
	prewittX = [9]float32{
		-1, 0, 1,
		-1, 0, 1,
		-1, 0, 1,
	}
	prewittY = [9]float32{
		-1, -1, -1,
		0, 0, 0,
		1, 1, 1,
	}
	laplacian = [9]float32{
		0, -1, 0,
		-1, 4, -1,
		0, -1, 0,
	}
)

// SobelKernels returns the Sobel X and Y kernels flattened into one
// 18-element slice: X weights first, then Y weights.
func SobelKernels() []float32 {
	return gradientPair(sobelX, sobelY)
}

// PrewittKernels returns the Prewitt X and Y kernels flattened into one
// 18-element slice: X weights first, then Y weights.
func PrewittKernels() []float32 {
	return gradientPair(prewittX, prewittY)
}

func gradientPair(x, y [9]float32) []float32 {
	out := make([]float32, 0, 18)
	out = append(out, x[:]...)
	return append(out, y[:]...)
}

// LaplacianKernel returns the 4-neighbour Laplacian: center 4, orthogonal
// neighbours -1, diagonals 0.
func LaplacianKernel() []float32 {
	out := make([]float32, 9)
	copy(out, laplacian[:])
	return out
}

// GaussianKernel2D generates a size×size Gaussian kernel, row-major,
// normalized so all values sum to 1.0.
//
// An even size is rounded up to the next odd size so the kernel has a
// center. For size < 1 or sigma <= 0, returns the 1×1 identity kernel.
func GaussianKernel2D(size int, sigma float64) []float32 {
	if size < 1 || sigma <= 0 {
		return []float32{1.0}
	}
	if size%2 == 0 {
		size++
	}

	half := size / 2
	kernel := make([]float32, size*size)

	// G(x,y) = exp(-(x²+y²)/(2σ²)); the 1/(2πσ²) factor cancels in the
	// normalization below.
	twoSigmaSq := 2 * sigma * sigma
	raw := make([]float64, size*size)
	sum := 0.0
	for y := 0; y < size; y++ {
		dy := float64(y - half)
		for x := 0; x < size; x++ {
			dx := float64(x - half)
			v := math.Exp(-(dx*dx + dy*dy) / twoSigmaSq)
			raw[y*size+x] = v
			sum += v
		}
	}

	for i, v := range raw {
		kernel[i] = float32(v / sum)
	}
	return kernel
}

// BayerMatrix returns the n×n ordered-dither threshold matrix, row-major,
// with every entry divided by n² so thresholds fall in [0, 1).
//
// n is rounded up to a power of two; n < 1 yields the 1×1 matrix {0}.
func BayerMatrix(n int) []float32 {
	size := 1
	for size < n {
		size *= 2
	}

	// Recursive construction:
	//   M(2k) = | 4M(k)+0  4M(k)+2 |
	//           | 4M(k)+3  4M(k)+1 |
	m := []int{0}
	for k := 1; k < size; k *= 2 {
		next := make([]int, 4*k*k)
		for y := 0; y < k; y++ {
			for x := 0; x < k; x++ {
				v := 4 * m[y*k+x]
				next[y*2*k+x] = v
				next[y*2*k+x+k] = v + 2
				next[(y+k)*2*k+x] = v + 3
				next[(y+k)*2*k+x+k] = v + 1
			}
		}
		m = next
	}

	out := make([]float32, len(m))
	scale := float32(size * size)
	for i, v := range m {
		out[i] = float32(v) / scale
	}
	return out
}

// gaussianKey identifies a cached Gaussian kernel. Sigma is quantized to
// 0.001 so nearly equal floats share an entry.
type gaussianKey struct {
	size  int
	sigma int
}

// kernelCache caches computed Gaussian kernels to avoid recomputation.
type kernelCache struct {
	mu     sync.RWMutex
	cache  map[gaussianKey][]float32
	maxLen int
}

var defaultKernelCache = newKernelCache(64)

func newKernelCache(maxLen int) *kernelCache {
	return &kernelCache{
		cache:  make(map[gaussianKey][]float32),
		maxLen: maxLen,
	}
}

// get retrieves a kernel from cache or generates and caches it.
func (c *kernelCache) get(size int, sigma float64) []float32 {
	key := gaussianKey{size: size, sigma: int(math.Round(sigma * 1000))}

	c.mu.RLock()
	if kernel, ok := c.cache[key]; ok {
		c.mu.RUnlock()
		return kernel
	}
	c.mu.RUnlock()

	kernel := GaussianKernel2D(size, sigma)

	c.mu.Lock()
	if len(c.cache) >= c.maxLen {
		// Drop half of the entries; kernels are cheap to rebuild.
		count := 0
		for k := range c.cache {
			delete(c.cache, k)
			count++
			if count >= c.maxLen/2 {
				break
			}
		}
	}
	c.cache[key] = kernel
	c.mu.Unlock()

	return kernel
}

// CachedGaussianKernel2D returns a shared Gaussian kernel for (size, sigma).
// The returned slice must not be modified.
func CachedGaussianKernel2D(size int, sigma float64) []float32 {
	return defaultKernelCache.get(size, sigma)
}

// KernelSize returns the side length of a square kernel stored in a
// flattened slice of n elements, or 0 when n is not a perfect square.
func KernelSize(n int) int {
	if n <= 0 {
		return 0
	}
	s := int(math.Sqrt(float64(n)))
	for s*s < n {
		s++
	}
	for s*s > n {
		s--
	}
	if s*s != n {
		return 0
	}
	return s
}
