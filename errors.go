package kernelfx

import (
	"errors"
	"fmt"
)

// Dispatch error kinds. A *DispatchError matches exactly one of these
// with errors.Is.
var (
	// ErrProgramBuild is returned when the kernel source fails to compile
	// for the device or does not define the entry point.
	ErrProgramBuild = errors.New("kernelfx: program build failed")

	// ErrResource is returned when buffer allocation or upload fails.
	ErrResource = errors.New("kernelfx: device resource failure")

	// ErrLaunch is returned when the kernel cannot be enqueued or run.
	ErrLaunch = errors.New("kernelfx: kernel launch failed")

	// ErrReadback is returned when the output plane cannot be read back.
	ErrReadback = errors.New("kernelfx: readback failed")

	// ErrParameter is returned when the parameter vector does not match
	// what the kernel indexes. Only devices that can check this report it.
	ErrParameter = errors.New("kernelfx: malformed parameter vector")
)

// ErrPlaneSize is returned when a plane's length is not width × height.
var ErrPlaneSize = errors.New("kernelfx: plane size does not match dimensions")

// ErrorKind classifies a dispatch failure.
type ErrorKind int

const (
	KindProgramBuild ErrorKind = iota
	KindResource
	KindLaunch
	KindReadback
	KindParameter
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindProgramBuild:
		return "program build"
	case KindResource:
		return "resource"
	case KindLaunch:
		return "launch"
	case KindReadback:
		return "readback"
	case KindParameter:
		return "parameter"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindProgramBuild:
		return ErrProgramBuild
	case KindResource:
		return ErrResource
	case KindLaunch:
		return ErrLaunch
	case KindReadback:
		return ErrReadback
	case KindParameter:
		return ErrParameter
	default:
		return nil
	}
}

// DispatchError reports a failed kernel dispatch.
type DispatchError struct {
	Kind       ErrorKind
	Filter     string // set by the pipeline
	EntryPoint string
	Err        error // device error
}

func (e *DispatchError) Error() string {
	name := e.EntryPoint
	if e.Filter != "" {
		name = e.Filter + " (" + e.EntryPoint + ")"
	}
	return fmt.Sprintf("kernelfx: %s: %s: %v", name, e.Kind, e.Err)
}

// Unwrap returns the device error.
func (e *DispatchError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e.Kind.
func (e *DispatchError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}
