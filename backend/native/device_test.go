//go:build !nogpu

package native

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/kernelfx/backend"
)

const copySource = `
struct Dims {
    width: u32,
    height: u32,
    param_count: u32,
    _pad: u32,
}

@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> output: array<f32>;
@group(0) @binding(2) var<storage, read> params: array<f32>;
@group(0) @binding(3) var<uniform> dims: Dims;

@compute @workgroup_size(8, 8)
fn copyPlane(@builtin(global_invocation_id) id: vec3<u32>) {
    if (id.x >= dims.width || id.y >= dims.height) {
        return;
    }
    let i = id.y * dims.width + id.x;
    output[i] = input[i] * params[0];
}
`

// mockDevice implements gpucontext.Device for testing.
type mockDevice struct{}

func (m *mockDevice) Poll(wait bool) {}
func (m *mockDevice) Destroy()       {}

// mockQueue implements gpucontext.Queue for testing.
type mockQueue struct{}

// mockAdapter implements gpucontext.Adapter for testing.
type mockAdapter struct{}

// mockProvider implements gpucontext.DeviceProvider for testing.
type mockProvider struct{}

func (m *mockProvider) Device() gpucontext.Device   { return &mockDevice{} }
func (m *mockProvider) Queue() gpucontext.Queue     { return &mockQueue{} }
func (m *mockProvider) Adapter() gpucontext.Adapter { return &mockAdapter{} }
func (m *mockProvider) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatBGRA8Unorm
}

// halMockProvider additionally exposes a HAL device and queue.
type halMockProvider struct {
	mockProvider
	device hal.Device
	queue  hal.Queue
}

func (m *halMockProvider) HalDevice() any { return m.device }
func (m *halMockProvider) HalQueue() any  { return m.queue }

// newNoopShared returns a Device sharing a noop HAL device.
func newNoopShared(t *testing.T) *Device {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})

	d, err := NewShared(&halMockProvider{device: openDev.Device, queue: openDev.Queue})
	if err != nil {
		t.Fatalf("NewShared() error = %v", err)
	}
	t.Cleanup(d.Close)
	return d
}

func skipNagaLimitation(t *testing.T, err error) {
	t.Helper()
	msg := err.Error()
	if strings.Contains(msg, "not yet implemented") || strings.Contains(msg, "not supported") {
		t.Skipf("Skipping: naga feature not yet implemented: %v", err)
	}
}

func TestRegistered(t *testing.T) {
	if !backend.IsRegistered(backend.BackendNative) {
		t.Fatal("native backend not registered")
	}
	if d := backend.Get(backend.BackendNative); d.Name() != backend.BackendNative {
		t.Errorf("Name() = %q", d.Name())
	}
}

func TestNewSharedRequiresHAL(t *testing.T) {
	if _, err := NewShared(&mockProvider{}); !errors.Is(err, ErrNoHAL) {
		t.Errorf("err = %v, want ErrNoHAL", err)
	}
	if _, err := NewShared(&halMockProvider{}); !errors.Is(err, ErrNoHAL) {
		t.Errorf("nil HAL device: err = %v, want ErrNoHAL", err)
	}
}

func TestNotInitialized(t *testing.T) {
	d := New()
	if _, err := d.NewBuffer("x", 4); !errors.Is(err, backend.ErrNotInitialized) {
		t.Errorf("NewBuffer err = %v, want ErrNotInitialized", err)
	}
}

func TestBuildProgramUnknownEntryPoint(t *testing.T) {
	d := newNoopShared(t)
	if _, err := d.BuildProgram(copySource, "missing"); !errors.Is(err, backend.ErrUnknownEntryPoint) {
		t.Errorf("err = %v, want ErrUnknownEntryPoint", err)
	}
}

func TestSharedLaunchFlow(t *testing.T) {
	d := newNoopShared(t)
	if d.Adapter() != "shared" {
		t.Errorf("Adapter() = %q, want shared", d.Adapter())
	}

	prog, err := d.BuildProgram(copySource, "copyPlane")
	if err != nil {
		skipNagaLimitation(t, err)
		t.Fatalf("BuildProgram() error = %v", err)
	}
	defer prog.Release()

	in, err := d.NewBuffer("in", 16)
	if err != nil {
		t.Fatal(err)
	}
	defer in.Release()
	out, _ := d.NewBuffer("out", 16)
	defer out.Release()
	params, _ := d.NewBuffer("params", 1)
	defer params.Release()

	if err := d.Upload(in, make([]float32, 16)); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if err := d.Upload(params, []float32{2}); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if err := d.Launch(prog, backend.Args{Input: in, Output: out, Params: params, ParamCount: 1}, 4, 4); err != nil {
		t.Fatalf("Launch() error = %v", err)
	}
	if err := d.Download(out, make([]float32, 16)); err != nil {
		t.Fatalf("Download() error = %v", err)
	}
}

func TestBufferChecks(t *testing.T) {
	d := newNoopShared(t)

	buf, err := d.NewBuffer("b", 3)
	if err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 3 {
		t.Errorf("Len() = %d, want 3", buf.Len())
	}
	if err := d.Upload(buf, []float32{1}); !errors.Is(err, backend.ErrBufferSize) {
		t.Errorf("Upload err = %v, want ErrBufferSize", err)
	}
	if err := d.Download(buf, make([]float32, 5)); !errors.Is(err, backend.ErrBufferSize) {
		t.Errorf("Download err = %v, want ErrBufferSize", err)
	}

	other := newNoopShared(t)
	if err := other.Upload(buf, make([]float32, 3)); !errors.Is(err, backend.ErrForeignResource) {
		t.Errorf("foreign Upload err = %v, want ErrForeignResource", err)
	}

	buf.Release()
	buf.Release()
	if err := d.Upload(buf, make([]float32, 3)); err == nil {
		t.Error("Upload after Release succeeded")
	}
}

func TestHardwareInit(t *testing.T) {
	d := New()
	if err := d.Init(); err != nil {
		t.Skipf("GPU not available: %v", err)
	}
	defer d.Close()

	if d.Adapter() == "" {
		t.Error("Adapter() is empty after Init")
	}
}

func TestOptions(t *testing.T) {
	if d := New(); d.fenceTimeout != DefaultFenceTimeout {
		t.Errorf("default fence timeout = %v", d.fenceTimeout)
	}
	d := New(WithFenceTimeout(time.Second), WithAdapter("GeForce"))
	if d.fenceTimeout != time.Second || d.adapterName != "geforce" {
		t.Errorf("options not applied: %v, %q", d.fenceTimeout, d.adapterName)
	}
	if d := New(WithFenceTimeout(0)); d.fenceTimeout != DefaultFenceTimeout {
		t.Errorf("zero timeout replaced the default: %v", d.fenceTimeout)
	}
}

func TestPickAdapter(t *testing.T) {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	defer instance.Destroy()
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		t.Skip("noop backend exposes no adapters")
	}

	if got := pickAdapter(adapters, "no-such-gpu-anywhere"); got != nil {
		t.Errorf("pickAdapter(unknown) = %v, want nil", got.Info.Name)
	}
	name := strings.ToLower(adapters[0].Info.Name)
	if name == "" {
		t.Skip("noop adapter has no name")
	}
	if got := pickAdapter(adapters, name); got != &adapters[0] {
		t.Errorf("pickAdapter(%q) did not return the named adapter", name)
	}
}
