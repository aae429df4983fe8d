package backend

import (
	"fmt"
	"slices"
	"sync"
)

// Backend name constants.
const (
	// BackendSoftware is the name of the CPU reference device.
	BackendSoftware = "software"
	// BackendNative is the name of the Vulkan device (gogpu/wgpu).
	BackendNative = "native"
)

// Factory creates a new, uninitialized device.
type Factory func() Device

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for backend selection (first available wins).
	// Native > Software (Software is the fallback).
	backendPriority = []string{BackendNative, BackendSoftware}
)

// Register registers a device factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the registered backend names, in priority order
// first and then alphabetically.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for _, name := range backendPriority {
		if _, ok := backends[name]; ok {
			names = append(names, name)
		}
	}
	rest := make([]string, 0, len(backends))
	for name := range backends {
		if !slices.Contains(backendPriority, name) {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	return append(names, rest...)
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Get returns a device instance by name.
// Returns nil if the backend is not registered.
func Get(name string) Device {
	registryMu.RLock()
	defer registryMu.RUnlock()

	factory, ok := backends[name]
	if !ok {
		return nil
	}
	return factory()
}

// Default returns the highest-priority registered device, uninitialized.
// Returns nil if no backends are registered.
func Default() Device {
	for _, name := range Available() {
		if d := Get(name); d != nil {
			return d
		}
	}
	return nil
}

// Open returns an initialized device by name.
func Open(name string) (Device, error) {
	d := Get(name)
	if d == nil {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	if err := d.Init(); err != nil {
		return nil, fmt.Errorf("backend %s: init: %w", name, err)
	}
	slogger().Info("compute device ready", "backend", name)
	return d, nil
}

// InitDefault initializes the best device that works on this machine.
// Backends are tried in priority order; one that fails Init (no GPU, no
// Vulkan loader) is skipped in favour of the next.
func InitDefault() (Device, error) {
	var lastErr error
	for _, name := range Available() {
		d, err := Open(name)
		if err == nil {
			return d, nil
		}
		slogger().Warn("compute backend unavailable", "backend", name, "err", err)
		lastErr = err
	}
	if lastErr == nil {
		return nil, ErrBackendNotAvailable
	}
	return nil, fmt.Errorf("%w: %w", ErrBackendNotAvailable, lastErr)
}
