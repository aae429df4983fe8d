//go:build !nogpu

package native

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/kernelfx/backend"
)

// Package errors.
var (
	// ErrNoGPU is returned when no GPU adapter is available.
	ErrNoGPU = errors.New("native: no GPU adapter available")

	// ErrNoHAL is returned by NewShared when the provider does not expose
	// its HAL device and queue.
	ErrNoHAL = errors.New("native: provider does not expose HAL types")
)

// DefaultFenceTimeout bounds every wait for submitted work.
const DefaultFenceTimeout = 5 * time.Second

func init() {
	backend.Register(backend.BackendNative, func() backend.Device {
		return New()
	})
}

// Device runs kernels on a Vulkan device.
type Device struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	adapter  string

	external bool // shared device: don't destroy on Close

	fenceTimeout time.Duration
	adapterName  string
}

// Option configures a Device.
type Option func(*Device)

// WithFenceTimeout sets how long a launch or readback waits for the GPU.
func WithFenceTimeout(t time.Duration) Option {
	return func(d *Device) {
		if t > 0 {
			d.fenceTimeout = t
		}
	}
}

// WithAdapter makes Init pick the first adapter whose name contains
// name, case-insensitively, before the usual discrete/integrated order.
func WithAdapter(name string) Option {
	return func(d *Device) {
		d.adapterName = strings.ToLower(name)
	}
}

var _ backend.Device = (*Device)(nil)

// New creates a device that opens its own adapter on Init.
func New(opts ...Option) *Device {
	d := &Device{fenceTimeout: DefaultFenceTimeout}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewShared creates a ready device on top of a host application's GPU
// device. The provider must also implement HalDevice() any and
// HalQueue() any returning hal.Device and hal.Queue. Close does not
// destroy the shared device.
func NewShared(provider gpucontext.DeviceProvider, opts ...Option) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHAL)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHAL)
	}
	d := New(opts...)
	d.device, d.queue, d.adapter, d.external = device, queue, "shared", true
	backend.Logger().Info("native: using shared GPU device")
	return d, nil
}

// pickAdapter returns the adapter named by want, or with want empty the
// first discrete or integrated GPU. It returns nil when nothing matches.
func pickAdapter(adapters []hal.ExposedAdapter, want string) *hal.ExposedAdapter {
	for i := range adapters {
		if want != "" {
			if strings.Contains(strings.ToLower(adapters[i].Info.Name), want) {
				return &adapters[i]
			}
			continue
		}
		switch adapters[i].Info.DeviceType {
		case gputypes.DeviceTypeDiscreteGPU, gputypes.DeviceTypeIntegratedGPU:
			return &adapters[i]
		}
	}
	return nil
}

// Name returns the backend identifier.
func (d *Device) Name() string {
	return backend.BackendNative
}

// Adapter returns the name of the GPU the device runs on.
func (d *Device) Adapter() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.adapter
}

// Init opens the adapter chosen by WithAdapter, or else the first
// discrete or integrated GPU, falling back to the first adapter found.
// Calling Init on a ready device is a no-op.
func (d *Device) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device != nil {
		return nil
	}

	vk, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("%w: vulkan backend not available", ErrNoGPU)
	}
	instance, err := vk.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return ErrNoGPU
	}
	selected := pickAdapter(adapters, d.adapterName)
	if selected == nil && d.adapterName != "" {
		instance.Destroy()
		return fmt.Errorf("%w: no adapter matches %q", ErrNoGPU, d.adapterName)
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return fmt.Errorf("open device: %w", err)
	}

	d.instance = instance
	d.device = openDev.Device
	d.queue = openDev.Queue
	d.adapter = selected.Info.Name
	backend.Logger().Info("native: GPU device initialized", "adapter", d.adapter)
	return nil
}

// Close releases the device unless it is shared.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.external {
		if d.device != nil {
			d.device.Destroy()
		}
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
	d.device = nil
	d.instance = nil
	d.queue = nil
}

// BuildProgram compiles source to SPIR-V and creates the compute
// pipeline for entryPoint.
func (d *Device) BuildProgram(source, entryPoint string) (backend.Program, error) {
	if !backend.DeclaresEntryPoint(source, entryPoint) {
		return nil, fmt.Errorf("%w: %q is not a compute function in the source", backend.ErrUnknownEntryPoint, entryPoint)
	}
	spirv, err := compileSPIRV(source)
	if err != nil {
		return nil, fmt.Errorf("native: %s: %w", entryPoint, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device == nil {
		return nil, backend.ErrNotInitialized
	}
	return d.createProgram(spirv, entryPoint)
}

// NewBuffer creates a zero-filled storage buffer. HAL buffers are not
// guaranteed to be zeroed, so the zeros are written explicitly.
func (d *Device) NewBuffer(label string, length int) (backend.Buffer, error) {
	if length < 0 {
		return nil, fmt.Errorf("%w: %s: negative length %d", backend.ErrBufferSize, label, length)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device == nil {
		return nil, backend.ErrNotInitialized
	}

	size := byteSize(length)
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label, Size: size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create buffer %s: %w", label, err)
	}
	d.queue.WriteBuffer(buf, 0, make([]byte, size))
	return &buffer{dev: d, buf: buf, label: label, length: length, size: size}, nil
}

// Upload writes data into buf.
func (d *Device) Upload(buf backend.Buffer, data []float32) error {
	b, err := d.asBuffer(buf)
	if err != nil {
		return err
	}
	if len(data) != b.length {
		return fmt.Errorf("%w: %s holds %d values, got %d", backend.ErrBufferSize, b.label, b.length, len(data))
	}
	if len(data) == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device == nil {
		return backend.ErrNotInitialized
	}
	d.queue.WriteBuffer(b.buf, 0, floatsToBytes(data))
	return nil
}

// Launch dispatches ceil(width/8) × ceil(height/8) workgroups and waits
// for them to finish.
func (d *Device) Launch(prog backend.Program, args backend.Args, width, height int) error {
	p, ok := prog.(*program)
	if !ok || p == nil || p.dev != d {
		return fmt.Errorf("%w: program %T", backend.ErrForeignResource, prog)
	}
	in, err := d.asBuffer(args.Input)
	if err != nil {
		return err
	}
	out, err := d.asBuffer(args.Output)
	if err != nil {
		return err
	}
	params, err := d.asBuffer(args.Params)
	if err != nil {
		return err
	}
	n := width * height
	if width <= 0 || height <= 0 || in.length < n || out.length < n {
		return fmt.Errorf("%w: %dx%d domain over %d input and %d output values",
			backend.ErrBufferSize, width, height, in.length, out.length)
	}
	if args.ParamCount < 0 || args.ParamCount > params.length {
		return fmt.Errorf("%w: param count %d, buffer holds %d", backend.ErrInvalidParams, args.ParamCount, params.length)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device == nil {
		return backend.ErrNotInitialized
	}

	dims, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "kernelfx_dims", Size: dimsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create dims buffer: %w", err)
	}
	defer d.device.DestroyBuffer(dims)
	d.queue.WriteBuffer(dims, 0, makeDims(width, height, args.ParamCount))

	bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "kernelfx_bind", Layout: p.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: in.buf.NativeHandle(), Offset: 0, Size: in.size}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: out.buf.NativeHandle(), Offset: 0, Size: out.size}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: params.buf.NativeHandle(), Offset: 0, Size: params.size}},
			{Binding: 3, Resource: gputypes.BufferBinding{Buffer: dims.NativeHandle(), Offset: 0, Size: dimsSize}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	defer d.device.DestroyBindGroup(bg)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "kernelfx_launch"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("kernelfx_launch"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: p.entryPoint})
	pass.SetPipeline(p.pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.Dispatch(workgroups(width), workgroups(height), 1)
	pass.End()

	if err := d.submit(encoder); err != nil {
		return err
	}
	backend.Logger().Debug("native: launch", "entry", p.entryPoint, "width", width, "height", height)
	return nil
}

// Download copies buf through a mappable staging buffer into dst.
func (d *Device) Download(buf backend.Buffer, dst []float32) error {
	b, err := d.asBuffer(buf)
	if err != nil {
		return err
	}
	if len(dst) != b.length {
		return fmt.Errorf("%w: %s holds %d values, got %d", backend.ErrBufferSize, b.label, b.length, len(dst))
	}
	if len(dst) == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device == nil {
		return backend.ErrNotInitialized
	}

	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "kernelfx_staging", Size: b.size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create staging buffer: %w", err)
	}
	defer d.device.DestroyBuffer(staging)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "kernelfx_readback"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("kernelfx_readback"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	encoder.CopyBufferToBuffer(b.buf, staging, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: b.size},
	})
	if err := d.submit(encoder); err != nil {
		return err
	}

	raw := make([]byte, b.size)
	if err := d.queue.ReadBuffer(staging, 0, raw); err != nil {
		return fmt.Errorf("readback: %w", err)
	}
	bytesToFloats(raw, dst)
	return nil
}

// submit finishes encoding, submits and waits on a fresh fence.
// Caller must hold d.mu.
func (d *Device) submit(encoder hal.CommandEncoder) error {
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	fence, err := d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer d.device.DestroyFence(fence)
	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := d.device.Wait(fence, 1, d.fenceTimeout)
	if err != nil {
		return fmt.Errorf("wait for GPU: %w", err)
	}
	if !fenceOK {
		return fmt.Errorf("wait for GPU: timed out after %v", d.fenceTimeout)
	}
	return nil
}

func (d *Device) asBuffer(buf backend.Buffer) (*buffer, error) {
	b, ok := buf.(*buffer)
	if !ok || b == nil || b.dev != d {
		return nil, fmt.Errorf("%w: buffer %T", backend.ErrForeignResource, buf)
	}
	if b.buf == nil {
		return nil, fmt.Errorf("native: buffer %s used after Release", b.label)
	}
	return b, nil
}

type buffer struct {
	dev    *Device
	buf    hal.Buffer
	label  string
	length int
	size   uint64
}

func (b *buffer) Len() int { return b.length }

func (b *buffer) Release() {
	b.dev.mu.Lock()
	defer b.dev.mu.Unlock()
	if b.buf != nil && b.dev.device != nil {
		b.dev.device.DestroyBuffer(b.buf)
	}
	b.buf = nil
}
