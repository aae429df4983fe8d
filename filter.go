package kernelfx

// Filter is an image filter backed by one compute kernel.
//
// KernelSource returns the WGSL program and the compute entry point to
// launch. ComputeOptions derives the kernel's parameter vector from the
// image's luminance plane; it must be deterministic and may return an
// empty vector. The same vector is passed to every channel dispatch.
type Filter interface {
	KernelSource() (source, entryPoint string)
	ComputeOptions(luminance Plane) []float32
}

// Moded is implemented by filters that declare their channel mode
// instead of relying on the Policy table.
type Moded interface {
	ChannelMode() ChannelMode
}

// Named is implemented by filters with a display name.
type Named interface {
	Name() string
}

// NoOptions can be embedded by filters whose kernel takes no parameters.
type NoOptions struct{}

// ComputeOptions returns an empty parameter vector.
func (NoOptions) ComputeOptions(Plane) []float32 { return nil }

// Descriptor identifies a filter and how it runs.
type Descriptor struct {
	Name       string
	Source     string
	EntryPoint string
	Mode       ChannelMode
}

// Describe returns the descriptor of f under policy p. A nil p means
// DefaultPolicy.
func Describe(f Filter, p *Policy) Descriptor {
	if p == nil {
		p = DefaultPolicy
	}
	source, entryPoint := f.KernelSource()
	return Descriptor{
		Name:       FilterName(f),
		Source:     source,
		EntryPoint: entryPoint,
		Mode:       p.Mode(f),
	}
}

// FilterName returns f's Name if it has one, otherwise its entry point.
func FilterName(f Filter) string {
	if n, ok := f.(Named); ok {
		return n.Name()
	}
	_, entryPoint := f.KernelSource()
	return entryPoint
}
