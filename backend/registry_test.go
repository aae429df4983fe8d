package backend

import (
	"errors"
	"slices"
	"testing"
)

type stubDevice struct {
	name    string
	initErr error
}

func (d *stubDevice) Name() string { return d.name }
func (d *stubDevice) Init() error  { return d.initErr }
func (d *stubDevice) Close()       {}
func (d *stubDevice) BuildProgram(string, string) (Program, error) {
	return nil, ErrNotInitialized
}
func (d *stubDevice) NewBuffer(string, int) (Buffer, error) { return nil, ErrNotInitialized }
func (d *stubDevice) Upload(Buffer, []float32) error        { return ErrNotInitialized }
func (d *stubDevice) Launch(Program, Args, int, int) error  { return ErrNotInitialized }
func (d *stubDevice) Download(Buffer, []float32) error      { return ErrNotInitialized }

// withRegistry swaps in an empty registry for the duration of a test.
func withRegistry(t *testing.T) {
	t.Helper()
	registryMu.Lock()
	saved := backends
	backends = make(map[string]Factory)
	registryMu.Unlock()
	t.Cleanup(func() {
		registryMu.Lock()
		backends = saved
		registryMu.Unlock()
	})
}

func TestRegisterAndGet(t *testing.T) {
	withRegistry(t)

	if Get("stub") != nil {
		t.Fatal("Get on empty registry returned a device")
	}
	Register("stub", func() Device { return &stubDevice{name: "stub"} })

	if !IsRegistered("stub") {
		t.Error("IsRegistered(stub) = false")
	}
	if d := Get("stub"); d == nil || d.Name() != "stub" {
		t.Errorf("Get(stub) = %v", d)
	}

	Unregister("stub")
	if IsRegistered("stub") {
		t.Error("stub still registered after Unregister")
	}
}

func TestAvailableOrder(t *testing.T) {
	withRegistry(t)

	for _, name := range []string{"zeta", BackendSoftware, "alpha", BackendNative} {
		Register(name, func() Device { return &stubDevice{name: name} })
	}

	want := []string{BackendNative, BackendSoftware, "alpha", "zeta"}
	if got := Available(); !slices.Equal(got, want) {
		t.Errorf("Available() = %v, want %v", got, want)
	}
	if d := Default(); d == nil || d.Name() != BackendNative {
		t.Errorf("Default() = %v, want native", d)
	}
}

func TestOpenUnknown(t *testing.T) {
	withRegistry(t)

	if _, err := Open("missing"); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("Open(missing) err = %v, want ErrBackendNotAvailable", err)
	}
}

func TestInitDefaultSkipsFailingBackend(t *testing.T) {
	withRegistry(t)

	noGPU := errors.New("no adapter")
	Register(BackendNative, func() Device { return &stubDevice{name: BackendNative, initErr: noGPU} })
	Register(BackendSoftware, func() Device { return &stubDevice{name: BackendSoftware} })

	d, err := InitDefault()
	if err != nil {
		t.Fatalf("InitDefault() error = %v", err)
	}
	if d.Name() != BackendSoftware {
		t.Errorf("InitDefault() = %s, want software", d.Name())
	}
}

func TestInitDefaultAllFail(t *testing.T) {
	withRegistry(t)

	if _, err := InitDefault(); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("empty registry err = %v, want ErrBackendNotAvailable", err)
	}

	noGPU := errors.New("no adapter")
	Register(BackendNative, func() Device { return &stubDevice{name: BackendNative, initErr: noGPU} })

	_, err := InitDefault()
	if !errors.Is(err, ErrBackendNotAvailable) || !errors.Is(err, noGPU) {
		t.Errorf("err = %v, want ErrBackendNotAvailable wrapping the init error", err)
	}
}

func TestSetLoggerNil(t *testing.T) {
	SetLogger(nil)
	if Logger() == nil {
		t.Fatal("Logger() = nil after SetLogger(nil)")
	}
	if Logger().Enabled(t.Context(), 0) {
		t.Error("nil logger should discard records")
	}
}
