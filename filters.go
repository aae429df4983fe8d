package kernelfx

import (
	"github.com/gogpu/kernelfx/internal/filter"
	"github.com/gogpu/kernelfx/internal/kernels"
)

// Entry points of the built-in filters.
const (
	EntrySobel     = kernels.Sobel
	EntryPrewitt   = kernels.Prewitt
	EntryCanny     = kernels.Canny
	EntryGaussian  = kernels.Gaussian
	EntryLaplacian = kernels.Laplacian
	EntryDither    = kernels.Bayer
)

// Default filter settings.
const (
	DefaultBlurSize   = 5
	DefaultBlurSigma  = 1.0
	DefaultDitherSize = 4
)

var (
	_ Filter = Sobel{}
	_ Filter = Prewitt{}
	_ Filter = Canny{}
	_ Filter = GaussianBlur{}
	_ Filter = Sharpen{}
	_ Filter = Dither{}
)

// Sobel is the Sobel gradient magnitude edge detector.
type Sobel struct{}

func (Sobel) Name() string                   { return "sobel" }
func (Sobel) ChannelMode() ChannelMode       { return ModeLuminance }
func (Sobel) KernelSource() (string, string) { return shaderGradient, EntrySobel }

// ComputeOptions returns the Sobel X and Y kernels.
func (Sobel) ComputeOptions(Plane) []float32 { return filter.SobelKernels() }

// Prewitt is the Prewitt gradient magnitude edge detector.
type Prewitt struct{}

func (Prewitt) Name() string                   { return "prewitt" }
func (Prewitt) ChannelMode() ChannelMode       { return ModeLuminance }
func (Prewitt) KernelSource() (string, string) { return shaderGradient, EntryPrewitt }

// ComputeOptions returns the Prewitt X and Y kernels.
func (Prewitt) ComputeOptions(Plane) []float32 { return filter.PrewittKernels() }

// Canny classifies Sobel gradient magnitudes into strong (1.0), weak
// (0.5) and no edge (0.0) using thresholds one standard deviation either
// side of the mean luminance.
type Canny struct{}

func (Canny) Name() string                   { return "canny" }
func (Canny) ChannelMode() ChannelMode       { return ModeLuminance }
func (Canny) KernelSource() (string, string) { return shaderCanny, EntryCanny }

// ComputeOptions returns [low, high, Sobel X, Sobel Y].
func (Canny) ComputeOptions(luminance Plane) []float32 {
	low, high := filter.HysteresisThresholds(luminance)
	out := make([]float32, 0, 20)
	out = append(out, low, high)
	return append(out, filter.SobelKernels()...)
}

// GaussianBlur blurs each color channel with a normalized Gaussian
// kernel. The zero value uses DefaultBlurSize and DefaultBlurSigma.
type GaussianBlur struct {
	Size  int     // kernel side, rounded up to odd
	Sigma float64 // standard deviation in pixels
}

// NewGaussianBlur returns a blur with the given kernel size and sigma.
func NewGaussianBlur(size int, sigma float64) GaussianBlur {
	return GaussianBlur{Size: size, Sigma: sigma}
}

func (GaussianBlur) Name() string                   { return "blur" }
func (GaussianBlur) ChannelMode() ChannelMode       { return ModeChannels }
func (GaussianBlur) KernelSource() (string, string) { return shaderBlur, EntryGaussian }

// ComputeOptions returns [size, weights...].
func (g GaussianBlur) ComputeOptions(Plane) []float32 {
	size, sigma := g.Size, g.Sigma
	if size <= 0 {
		size = DefaultBlurSize
	}
	if sigma <= 0 {
		sigma = DefaultBlurSigma
	}
	return squareParams(filter.CachedGaussianKernel2D(size, sigma))
}

// Sharpen adds the Laplacian of each color channel back onto it.
type Sharpen struct{}

func (Sharpen) Name() string                   { return "sharpen" }
func (Sharpen) ChannelMode() ChannelMode       { return ModeChannelsAdditive }
func (Sharpen) KernelSource() (string, string) { return shaderSharpen, EntryLaplacian }

// ComputeOptions returns the 3x3 Laplacian.
func (Sharpen) ComputeOptions(Plane) []float32 { return filter.LaplacianKernel() }

// Dither applies ordered dithering with a Bayer threshold matrix to each
// color channel. Size is rounded up to a power of two; the zero value
// uses DefaultDitherSize.
type Dither struct {
	Size int
}

func (Dither) Name() string                   { return "dither" }
func (Dither) ChannelMode() ChannelMode       { return ModeChannels }
func (Dither) KernelSource() (string, string) { return shaderDither, EntryDither }

// ComputeOptions returns [n, thresholds...].
func (d Dither) ComputeOptions(Plane) []float32 {
	size := d.Size
	if size <= 0 {
		size = DefaultDitherSize
	}
	return squareParams(filter.BayerMatrix(size))
}

// squareParams prefixes a flattened square matrix with its side length.
func squareParams(m []float32) []float32 {
	out := make([]float32, 1+len(m))
	out[0] = float32(filter.KernelSize(len(m)))
	copy(out[1:], m)
	return out
}
