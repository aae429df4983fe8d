package kernelfx

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Pipeline applies filters to images through a Dispatcher.
type Pipeline struct {
	disp       *Dispatcher
	policy     *Policy
	sequential bool
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithPolicy sets the channel policy. The default is DefaultPolicy.
func WithPolicy(p *Policy) PipelineOption {
	return func(pl *Pipeline) {
		if p != nil {
			pl.policy = p
		}
	}
}

// WithSequentialChannels dispatches the three planes of a per-channel
// filter one after another instead of concurrently.
func WithSequentialChannels() PipelineOption {
	return func(pl *Pipeline) {
		pl.sequential = true
	}
}

// NewPipeline creates a pipeline on top of d.
func NewPipeline(d *Dispatcher, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{disp: d, policy: DefaultPolicy}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result is the outcome of one filter on one image. Exactly one of Image
// and Err is set.
type Result struct {
	Name       string
	EntryPoint string
	Mode       ChannelMode
	Image      *Image
	Err        error
}

// Results holds one Result per filter, in filter order.
type Results []Result

// Images returns the output images in filter order, nil where the filter
// failed.
func (rs Results) Images() []*Image {
	out := make([]*Image, len(rs))
	for i, r := range rs {
		out[i] = r.Image
	}
	return out
}

// Failed returns the results that carry an error.
func (rs Results) Failed() []Result {
	var out []Result
	for _, r := range rs {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// Err joins the errors of all failed filters, or returns nil.
func (rs Results) Err() error {
	var errs []error
	for _, r := range rs {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errors.Join(errs...)
}

// Apply runs one filter on img.
func (p *Pipeline) Apply(img *Image, f Filter) (*Image, error) {
	r := p.apply(img, Grayscale(img), f)
	return r.Image, r.Err
}

// Run applies every filter to img independently. The luminance plane is
// derived once and shared. A failing filter yields a Result with Err set
// and does not stop the others.
func (p *Pipeline) Run(img *Image, filters []Filter) Results {
	lum := Grayscale(img)
	results := make(Results, len(filters))
	for i, f := range filters {
		results[i] = p.apply(img, lum, f)
	}
	return results
}

func (p *Pipeline) apply(img *Image, lum Plane, f Filter) Result {
	source, entryPoint := f.KernelSource()
	r := Result{Name: FilterName(f), EntryPoint: entryPoint, Mode: p.policy.Mode(f)}

	params := f.ComputeOptions(lum)

	var inputs []Plane
	if r.Mode.Planes() == 1 {
		inputs = []Plane{lum}
	} else {
		channels := DecomposeRGB(img)
		inputs = channels[:]
	}

	outputs, err := p.dispatch(source, entryPoint, inputs, params, img.Width, img.Height)
	if err == nil {
		r.Image, err = Recompose(r.Mode, outputs, img)
	}
	if err != nil {
		var de *DispatchError
		if errors.As(err, &de) {
			de.Filter = r.Name
			r.Err = de
		} else {
			r.Err = fmt.Errorf("kernelfx: %s: %w", r.Name, err)
		}
		Logger().Warn("kernelfx: filter failed", "filter", r.Name, "err", r.Err)
		return r
	}

	Logger().Debug("kernelfx: filter applied", "filter", r.Name, "mode", r.Mode.String())
	return r
}

// dispatch runs the kernel on every input plane with the same parameters.
func (p *Pipeline) dispatch(source, entryPoint string, inputs []Plane, params []float32, w, h int) ([]Plane, error) {
	outputs := make([]Plane, len(inputs))

	if len(inputs) == 1 || p.sequential {
		for i, in := range inputs {
			out, err := p.disp.Run(source, entryPoint, in, params, w, h)
			if err != nil {
				return nil, err
			}
			outputs[i] = out
		}
		return outputs, nil
	}

	var g errgroup.Group
	for i, in := range inputs {
		g.Go(func() error {
			out, err := p.disp.Run(source, entryPoint, in, params, w, h)
			outputs[i] = out
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}
