package backend

import (
	"errors"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("backend: not initialized")

	// ErrInvalidParams is returned by Launch when the parameter vector
	// does not match what the program indexes.
	ErrInvalidParams = errors.New("backend: invalid kernel parameters")

	// ErrUnknownEntryPoint is returned by BuildProgram when the source
	// does not define the requested entry point.
	ErrUnknownEntryPoint = errors.New("backend: unknown entry point")

	// ErrBufferSize is returned by Upload and Download when the host slice
	// length differs from the buffer length.
	ErrBufferSize = errors.New("backend: buffer size mismatch")

	// ErrForeignResource is returned when a program or buffer created by
	// another device is passed in.
	ErrForeignResource = errors.New("backend: resource belongs to another device")
)

// Device is the capability set the dispatcher needs from a compute
// accelerator: build a program, create and fill float buffers, launch a
// 2D kernel and read a buffer back.
//
// Devices must be registered via Register() and are selected via Get()
// or Default().
type Device interface {
	// Name returns the backend identifier (e.g., "software", "native").
	Name() string

	// Init acquires the accelerator. It must be called before any other
	// method.
	Init() error

	// Close releases all device resources.
	// The device should not be used after Close is called.
	Close()

	// BuildProgram compiles WGSL source and selects the compute entry
	// point. The program follows the binding layout described in the
	// package documentation.
	BuildProgram(source, entryPoint string) (Program, error)

	// NewBuffer allocates a device buffer of length float32 values,
	// zero-initialized.
	NewBuffer(label string, length int) (Buffer, error)

	// Upload copies data into buf. len(data) must equal buf.Len().
	Upload(buf Buffer, data []float32) error

	// Launch runs prog once per (x, y) in [0, width) × [0, height) and
	// blocks until the work has completed.
	Launch(prog Program, args Args, width, height int) error

	// Download copies buf into dst. len(dst) must equal buf.Len().
	Download(buf Buffer, dst []float32) error
}

// Program is a built compute program.
type Program interface {
	// EntryPoint returns the entry point the program was built for.
	EntryPoint() string

	// Release frees the program. It is safe to call more than once.
	Release()
}

// Buffer is a device-resident array of float32 values.
type Buffer interface {
	// Len returns the number of float32 values the buffer holds.
	Len() int

	// Release frees the buffer. It is safe to call more than once.
	Release()
}

// Args binds the buffers of one launch.
type Args struct {
	Input  Buffer
	Output Buffer
	Params Buffer

	// ParamCount is the number of meaningful values in Params. Params may
	// be longer since a device buffer always holds at least one value.
	ParamCount int
}
