package main

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gogpu/kernelfx/backend"
	"github.com/gogpu/kernelfx/backend/software"
)

// DeviceConfig tunes the compute device.
//
//	[device]
//	adapter = "nvidia"
//	fence_timeout = "10s"
//	validate = true
type DeviceConfig struct {
	// Adapter selects a GPU by a case-insensitive substring of its name.
	Adapter string `toml:"adapter"`
	// FenceTimeout bounds each wait for GPU work. Zero keeps the default.
	FenceTimeout time.Duration `toml:"fence_timeout"`
	// Validate compiles shaders with naga on the software device too.
	Validate bool `toml:"validate"`
}

// deviceConstructors build configured devices by backend name. Backends
// missing here fall back to the registry's default construction.
var deviceConstructors = map[string]func(DeviceConfig) backend.Device{
	backend.BackendSoftware: func(dc DeviceConfig) backend.Device {
		var opts []software.Option
		if dc.Validate {
			opts = append(opts, software.WithValidation())
		}
		return software.New(opts...)
	},
}

func newDevice(name string, dc DeviceConfig) backend.Device {
	if ctor, ok := deviceConstructors[name]; ok {
		return ctor(dc)
	}
	return backend.Get(name)
}

// openDevice initializes the named backend, or with name empty the first
// registered backend in priority order whose Init succeeds.
func openDevice(name string, dc DeviceConfig, log *logrus.Logger) (backend.Device, error) {
	if name != "" {
		return initDevice(name, dc)
	}

	var lastErr error
	for _, n := range backend.Available() {
		d, err := initDevice(n, dc)
		if err == nil {
			return d, nil
		}
		log.WithField("backend", n).WithError(err).Debug("Backend unavailable")
		lastErr = err
	}
	if lastErr == nil {
		return nil, backend.ErrBackendNotAvailable
	}
	return nil, fmt.Errorf("%w: %w", backend.ErrBackendNotAvailable, lastErr)
}

func initDevice(name string, dc DeviceConfig) (backend.Device, error) {
	d := newDevice(name, dc)
	if d == nil {
		return nil, fmt.Errorf("%w: %q", backend.ErrBackendNotAvailable, name)
	}
	if err := d.Init(); err != nil {
		return nil, fmt.Errorf("backend %s: init: %w", name, err)
	}
	return d, nil
}
