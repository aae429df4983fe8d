package kernelfx

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/kernelfx/internal/kernels"
)

// ErrPlaneCount is returned by Recompose when the number of planes does
// not match the channel mode.
var ErrPlaneCount = errors.New("kernelfx: plane count does not match channel mode")

// ChannelMode selects the planes a filter runs on and how its output is
// recomposed.
type ChannelMode int

const (
	// ModeLuminance runs once on the grayscale plane; the output is
	// broadcast to gray RGB.
	ModeLuminance ChannelMode = iota

	// ModeChannels runs once per R, G, B plane; outputs are clamped and
	// repacked with full opacity.
	ModeChannels

	// ModeChannelsAdditive runs once per R, G, B plane; outputs are deltas
	// added to the source channels before clamping.
	ModeChannelsAdditive
)

// String returns the channel mode name.
func (m ChannelMode) String() string {
	switch m {
	case ModeLuminance:
		return "luminance"
	case ModeChannels:
		return "channels"
	case ModeChannelsAdditive:
		return "channels-additive"
	default:
		return "unknown"
	}
}

// Planes returns how many planes a filter in this mode consumes and
// produces.
func (m ChannelMode) Planes() int {
	if m == ModeChannels || m == ModeChannelsAdditive {
		return 3
	}
	return 1
}

// Policy resolves the channel mode of a filter. A filter implementing
// Moded decides for itself; otherwise its entry point is looked up in the
// policy table, and unknown entry points run in ModeLuminance. The
// parameter vector is never consulted.
//
// Policy is safe for concurrent use.
type Policy struct {
	mu    sync.RWMutex
	table map[string]ChannelMode
}

// NewPolicy returns a policy whose table knows the built-in entry points.
func NewPolicy() *Policy {
	return &Policy{table: map[string]ChannelMode{
		kernels.Gaussian:  ModeChannels,
		kernels.Bayer:     ModeChannels,
		kernels.Laplacian: ModeChannelsAdditive,
	}}
}

// DefaultPolicy is used by pipelines created without WithPolicy.
var DefaultPolicy = NewPolicy()

// Register maps an entry point to a channel mode.
func (p *Policy) Register(entryPoint string, mode ChannelMode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.table[entryPoint] = mode
}

// Mode returns the channel mode for f.
func (p *Policy) Mode(f Filter) ChannelMode {
	if m, ok := f.(Moded); ok {
		return m.ChannelMode()
	}
	_, entryPoint := f.KernelSource()
	return p.ModeOf(entryPoint)
}

// ModeOf returns the table entry for entryPoint, or ModeLuminance.
func (p *Policy) ModeOf(entryPoint string) ChannelMode {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if m, ok := p.table[entryPoint]; ok {
		return m
	}
	return ModeLuminance
}

// Recompose turns the output planes of one filter back into an image.
// orig supplies the dimensions and, in ModeChannelsAdditive, the
// channels the deltas are added to.
func Recompose(mode ChannelMode, outputs []Plane, orig *Image) (*Image, error) {
	if len(outputs) != mode.Planes() {
		return nil, fmt.Errorf("%w: %s needs %d, got %d", ErrPlaneCount, mode, mode.Planes(), len(outputs))
	}
	n := orig.Size()
	for i, p := range outputs {
		if len(p) != n {
			return nil, fmt.Errorf("%w: plane %d has %d values, image has %d pixels", ErrPlaneSize, i, len(p), n)
		}
	}

	switch mode {
	case ModeChannels:
		return RecomposeRGB([3]Plane(outputs), orig.Width, orig.Height), nil
	case ModeChannelsAdditive:
		return RecomposeRGBWithOriginal([3]Plane(outputs), orig), nil
	default:
		return GrayscaleToRGB(outputs[0], orig.Width, orig.Height), nil
	}
}
