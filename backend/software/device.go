package software

import (
	"fmt"
	"sync"

	"github.com/gogpu/naga"

	"github.com/gogpu/kernelfx/backend"
	"github.com/gogpu/kernelfx/internal/kernels"
	"github.com/gogpu/kernelfx/internal/parallel"
)

// Kernel is a Go implementation of one WGSL entry point.
type Kernel = kernels.Kernel

// Buffers is the view a Kernel has of the launch bindings.
type Buffers = kernels.Buffers

// RegisterKernel adds or replaces the reference kernel for k.EntryPoint.
func RegisterKernel(k Kernel) {
	kernels.Register(k)
}

// Kernels lists the entry points with a reference kernel.
func Kernels() []string {
	return kernels.EntryPoints()
}

func init() {
	backend.Register(backend.BackendSoftware, func() backend.Device {
		return New()
	})
}

// Option configures a Device.
type Option func(*config)

type config struct {
	workers  int
	validate bool
}

// WithWorkers sets the number of pool workers. 0 or negative means
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// WithValidation makes BuildProgram compile the WGSL source with naga and
// fail on compile errors, as the native device would.
func WithValidation() Option {
	return func(c *config) {
		c.validate = true
	}
}

// Device is the CPU reference device. It is safe for concurrent use once
// initialized.
type Device struct {
	cfg config

	mu   sync.RWMutex
	pool *parallel.Pool
}

var _ backend.Device = (*Device)(nil)

// New creates an uninitialized software device.
func New(opts ...Option) *Device {
	d := &Device{}
	for _, opt := range opts {
		opt(&d.cfg)
	}
	return d
}

// Name returns the backend identifier.
func (d *Device) Name() string {
	return backend.BackendSoftware
}

// Init starts the worker pool. Calling Init on a ready device is a no-op.
func (d *Device) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pool == nil {
		d.pool = parallel.NewPool(d.cfg.workers)
	}
	return nil
}

// Close stops the worker pool.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pool != nil {
		d.pool.Close()
		d.pool = nil
	}
}

// BuildProgram binds the reference kernel for entryPoint.
func (d *Device) BuildProgram(source, entryPoint string) (backend.Program, error) {
	if !d.ready() {
		return nil, backend.ErrNotInitialized
	}
	if !backend.DeclaresEntryPoint(source, entryPoint) {
		return nil, fmt.Errorf("%w: %q is not a compute function in the source", backend.ErrUnknownEntryPoint, entryPoint)
	}
	if d.cfg.validate {
		if _, err := naga.Compile(source); err != nil {
			return nil, fmt.Errorf("software: compile %s: %w", entryPoint, err)
		}
	}
	k, ok := kernels.Lookup(entryPoint)
	if !ok {
		return nil, fmt.Errorf("%w: no reference kernel for %q", backend.ErrUnknownEntryPoint, entryPoint)
	}
	return &program{kernel: k}, nil
}

// NewBuffer allocates a zeroed host buffer.
func (d *Device) NewBuffer(label string, length int) (backend.Buffer, error) {
	if !d.ready() {
		return nil, backend.ErrNotInitialized
	}
	if length < 0 {
		return nil, fmt.Errorf("%w: %s: negative length %d", backend.ErrBufferSize, label, length)
	}
	return &buffer{label: label, data: make([]float32, length)}, nil
}

// Upload copies data into buf.
func (d *Device) Upload(buf backend.Buffer, data []float32) error {
	b, err := asBuffer(buf)
	if err != nil {
		return err
	}
	if len(data) != len(b.data) {
		return fmt.Errorf("%w: %s holds %d values, got %d", backend.ErrBufferSize, b.label, len(b.data), len(data))
	}
	copy(b.data, data)
	return nil
}

// Launch runs the program's kernel over width × height and waits for it.
func (d *Device) Launch(prog backend.Program, args backend.Args, width, height int) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.pool == nil {
		return backend.ErrNotInitialized
	}

	p, ok := prog.(*program)
	if !ok || p == nil {
		return fmt.Errorf("%w: program %T", backend.ErrForeignResource, prog)
	}
	in, err := asBuffer(args.Input)
	if err != nil {
		return err
	}
	out, err := asBuffer(args.Output)
	if err != nil {
		return err
	}
	params, err := asBuffer(args.Params)
	if err != nil {
		return err
	}

	n := width * height
	if width <= 0 || height <= 0 || len(in.data) < n || len(out.data) < n {
		return fmt.Errorf("%w: %dx%d domain over %d input and %d output values",
			backend.ErrBufferSize, width, height, len(in.data), len(out.data))
	}
	if args.ParamCount < 0 || args.ParamCount > len(params.data) {
		return fmt.Errorf("%w: param count %d, buffer holds %d", backend.ErrInvalidParams, args.ParamCount, len(params.data))
	}

	k := p.kernel
	pv := params.data[:args.ParamCount]
	if k.CheckParams != nil {
		if err := k.CheckParams(pv); err != nil {
			return fmt.Errorf("%w: %s: %w", backend.ErrInvalidParams, k.EntryPoint, err)
		}
	}

	b := &kernels.Buffers{
		Src:    in.data,
		Dst:    out.data,
		Params: pv,
		Width:  width,
		Height: height,
	}
	d.pool.Rows(height, func(y0, y1 int) {
		k.Run(b, y0, y1)
	})

	backend.Logger().Debug("software: launch", "entry", k.EntryPoint, "width", width, "height", height)
	return nil
}

// Download copies buf into dst.
func (d *Device) Download(buf backend.Buffer, dst []float32) error {
	b, err := asBuffer(buf)
	if err != nil {
		return err
	}
	if len(dst) != len(b.data) {
		return fmt.Errorf("%w: %s holds %d values, got %d", backend.ErrBufferSize, b.label, len(b.data), len(dst))
	}
	copy(dst, b.data)
	return nil
}

func (d *Device) ready() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.pool != nil
}

type program struct {
	kernel Kernel
}

func (p *program) EntryPoint() string { return p.kernel.EntryPoint }
func (p *program) Release()           {}

type buffer struct {
	label string
	data  []float32
}

func (b *buffer) Len() int { return len(b.data) }
func (b *buffer) Release() { b.data = nil }

func asBuffer(buf backend.Buffer) (*buffer, error) {
	b, ok := buf.(*buffer)
	if !ok || b == nil {
		return nil, fmt.Errorf("%w: buffer %T", backend.ErrForeignResource, buf)
	}
	return b, nil
}
