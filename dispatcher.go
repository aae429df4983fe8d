package kernelfx

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/kernelfx/backend"
	"github.com/gogpu/kernelfx/internal/cache"
)

// Dispatcher runs one kernel over one plane on a compute device: build
// the program, allocate input, output and parameter buffers, upload,
// launch over width × height, read back, release.
//
// Programs are rebuilt for every call unless WithProgramCache is set.
// Dispatcher is safe for concurrent use if its device is.
type Dispatcher struct {
	dev backend.Device

	// mu serialises program cache lookups with reference counting.
	mu       sync.Mutex
	programs *cache.Cache[programKey, *sharedProgram]
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithProgramCache keeps up to about n built programs, keyed by full
// source text and entry point. Evicted programs are released once no
// dispatch is using them.
func WithProgramCache(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.programs = cache.NewWithEvict(n, d.onEvict)
		}
	}
}

// NewDispatcher creates a dispatcher for an initialized device.
func NewDispatcher(dev backend.Device, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{dev: dev}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Device returns the device the dispatcher runs on.
func (d *Dispatcher) Device() backend.Device {
	return d.dev
}

// Run executes entryPoint from source once per pixel of a width × height
// domain and returns the output plane. params is passed to the kernel
// unchanged.
//
// A plane whose length is not width × height fails with ErrPlaneSize
// before the device is touched. Device failures are returned as
// *DispatchError.
func (d *Dispatcher) Run(source, entryPoint string, input Plane, params []float32, width, height int) (Plane, error) {
	n := width * height
	if width <= 0 || height <= 0 || len(input) != n {
		return nil, fmt.Errorf("%w: %d values for %dx%d", ErrPlaneSize, len(input), width, height)
	}
	fail := func(kind ErrorKind, err error) (Plane, error) {
		return nil, &DispatchError{Kind: kind, EntryPoint: entryPoint, Err: err}
	}

	prog, release, err := d.program(source, entryPoint)
	if err != nil {
		return fail(KindProgramBuild, err)
	}
	defer release()

	in, err := d.dev.NewBuffer("input", n)
	if err != nil {
		return fail(KindResource, err)
	}
	defer in.Release()

	out, err := d.dev.NewBuffer("output", n)
	if err != nil {
		return fail(KindResource, err)
	}
	defer out.Release()

	pbuf, err := d.dev.NewBuffer("params", max(1, len(params)))
	if err != nil {
		return fail(KindResource, err)
	}
	defer pbuf.Release()

	if err := d.dev.Upload(in, input); err != nil {
		return fail(KindResource, err)
	}
	if len(params) > 0 {
		if err := d.dev.Upload(pbuf, params); err != nil {
			return fail(KindResource, err)
		}
	}

	args := backend.Args{Input: in, Output: out, Params: pbuf, ParamCount: len(params)}
	if err := d.dev.Launch(prog, args, width, height); err != nil {
		if errors.Is(err, backend.ErrInvalidParams) {
			return fail(KindParameter, err)
		}
		return fail(KindLaunch, err)
	}

	result := make(Plane, n)
	if err := d.dev.Download(out, result); err != nil {
		return fail(KindReadback, err)
	}

	Logger().Debug("kernelfx: dispatch",
		"entry", entryPoint, "width", width, "height", height, "params", len(params))
	return result, nil
}

// Close releases cached programs. Programs still in use by a running
// dispatch are released when it finishes.
func (d *Dispatcher) Close() {
	if d.programs == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.programs.Purge()
}

type programKey struct {
	source     string
	entryPoint string
}

// sharedProgram is a cached program with the number of dispatches using
// it. Guarded by Dispatcher.mu.
type sharedProgram struct {
	prog    backend.Program
	refs    int
	evicted bool
}

// program returns a built program and the func that gives it back.
func (d *Dispatcher) program(source, entryPoint string) (backend.Program, func(), error) {
	if d.programs == nil {
		prog, err := d.dev.BuildProgram(source, entryPoint)
		if err != nil {
			return nil, nil, err
		}
		return prog, prog.Release, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	sp, err := d.programs.GetOrCreate(programKey{source, entryPoint}, func() (*sharedProgram, error) {
		prog, err := d.dev.BuildProgram(source, entryPoint)
		if err != nil {
			return nil, err
		}
		return &sharedProgram{prog: prog}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	sp.refs++

	release := func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		sp.refs--
		if sp.evicted && sp.refs == 0 {
			sp.prog.Release()
		}
	}
	return sp.prog, release, nil
}

// onEvict runs with d.mu held: every cache mutation happens under it.
func (d *Dispatcher) onEvict(_ programKey, sp *sharedProgram) {
	sp.evicted = true
	if sp.refs == 0 {
		sp.prog.Release()
	}
}
