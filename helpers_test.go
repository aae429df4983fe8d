package kernelfx

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/gogpu/kernelfx/backend"
	"github.com/gogpu/kernelfx/backend/software"
)

func newSoftware(t *testing.T) backend.Device {
	t.Helper()
	d := software.New(software.WithWorkers(2))
	if err := d.Init(); err != nil {
		t.Fatalf("software Init() error = %v", err)
	}
	t.Cleanup(d.Close)
	return d
}

func solidImage(w, h int, r, g, b uint8) *Image {
	pix := make([]uint32, w*h)
	for i := range pix {
		pix[i] = Pack(r, g, b)
	}
	return &Image{Pix: pix, Width: w, Height: h}
}

// patternImage returns an image where every pixel differs.
func patternImage(w, h int) *Image {
	pix := make([]uint32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pix[y*w+x] = Pack(uint8(x*37+y*11), uint8(x*5+y*53), uint8(255-x*13-y*7))
		}
	}
	return &Image{Pix: pix, Width: w, Height: h}
}

var errInjected = errors.New("injected failure")

// faultyDevice wraps a real device and fails at one stage.
type faultyDevice struct {
	backend.Device
	failAt string // "build", "buffer", "upload", "launch", "download"

	calls    atomic.Int32
	builds   atomic.Int32
	releases atomic.Int32
}

type countedProgram struct {
	backend.Program
	dev *faultyDevice
}

func (p *countedProgram) Release() {
	p.dev.releases.Add(1)
	p.Program.Release()
}

func (d *faultyDevice) BuildProgram(source, entryPoint string) (backend.Program, error) {
	d.calls.Add(1)
	if d.failAt == "build" {
		return nil, errInjected
	}
	p, err := d.Device.BuildProgram(source, entryPoint)
	if err != nil {
		return nil, err
	}
	d.builds.Add(1)
	return &countedProgram{Program: p, dev: d}, nil
}

func (d *faultyDevice) NewBuffer(label string, n int) (backend.Buffer, error) {
	d.calls.Add(1)
	if d.failAt == "buffer" {
		return nil, errInjected
	}
	return d.Device.NewBuffer(label, n)
}

func (d *faultyDevice) Upload(buf backend.Buffer, data []float32) error {
	d.calls.Add(1)
	if d.failAt == "upload" {
		return errInjected
	}
	return d.Device.Upload(buf, data)
}

func (d *faultyDevice) Launch(prog backend.Program, args backend.Args, w, h int) error {
	d.calls.Add(1)
	if d.failAt == "launch" {
		return errInjected
	}
	return d.Device.Launch(prog.(*countedProgram).Program, args, w, h)
}

func (d *faultyDevice) Download(buf backend.Buffer, dst []float32) error {
	d.calls.Add(1)
	if d.failAt == "download" {
		return errInjected
	}
	return d.Device.Download(buf, dst)
}
