package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/kernelfx"
	"github.com/gogpu/kernelfx/backend/software"
	"github.com/gogpu/kernelfx/display"
	"github.com/gogpu/kernelfx/imageio"
)

func newPipeline(t *testing.T) *kernelfx.Pipeline {
	t.Helper()
	dev := software.New(software.WithWorkers(2))
	if err := dev.Init(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(dev.Close)
	return kernelfx.NewPipeline(kernelfx.NewDispatcher(dev))
}

func writeImage(t *testing.T, path string, w, h int) {
	t.Helper()
	pix := make([]uint32, w*h)
	for i := range pix {
		pix[i] = kernelfx.Pack(uint8(i*7), uint8(i*3), uint8(255-i))
	}
	img, err := kernelfx.NewImage(w, h, pix)
	if err != nil {
		t.Fatal(err)
	}
	if err := imageio.Save(path, img); err != nil {
		t.Fatal(err)
	}
}

// missingKernel declares an entry point the source does not define.
type missingKernel struct{ kernelfx.NoOptions }

func (missingKernel) Name() string                   { return "missing" }
func (missingKernel) KernelSource() (string, string) { return "// empty", "nothing" }

func TestRunnerRun(t *testing.T) {
	in, out := t.TempDir(), filepath.Join(t.TempDir(), "nested", "out")
	writeImage(t, filepath.Join(in, "a.png"), 8, 6)
	writeImage(t, filepath.Join(in, "b.bmp"), 5, 5)
	if err := os.WriteFile(filepath.Join(in, "broken.png"), []byte("not a png"), 0o600); err != nil {
		t.Fatal(err)
	}

	files, err := imageio.Files(in, out)
	if err != nil {
		t.Fatal(err)
	}
	filters := []kernelfx.Filter{kernelfx.Sobel{}, kernelfx.Dither{}, missingKernel{}}
	r := NewRunner(newPipeline(t), filters, WithWorkers(2), WithComposite(display.Options{}))
	defer r.Close()

	reports := r.Run(Jobs(files))
	if len(reports) != 3 {
		t.Fatalf("len(reports) = %d, want 3", len(reports))
	}

	for _, rep := range []Report{reports[0], reports[1]} {
		if rep.Err != nil {
			t.Errorf("%s: Err = %v", rep.Input, rep.Err)
		}
		if len(rep.Results) != 3 || len(rep.Results.Failed()) != 1 {
			t.Errorf("%s: results = %+v", rep.Input, rep.Results)
		}
		if len(rep.Outputs) != 2 {
			t.Errorf("%s: outputs = %v, want 2", rep.Input, rep.Outputs)
		}
		for _, p := range append(rep.Outputs, rep.Composite) {
			if _, err := imageio.Load(p); err != nil {
				t.Errorf("output %s unreadable: %v", p, err)
			}
		}
		if rep.OK() {
			t.Errorf("%s: OK() = true with a failed filter", rep.Input)
		}
	}

	if got := reports[0].Outputs[0]; got != filepath.Join(out, "a_sobel.png") {
		t.Errorf("output path = %q", got)
	}
	if got := reports[1].Composite; got != filepath.Join(out, "b_all.bmp") {
		t.Errorf("composite path = %q", got)
	}

	bad := reports[2]
	if bad.Input != filepath.Join(in, "broken.png") || bad.Err == nil {
		t.Errorf("broken report = %+v", bad)
	}
	if bad.Results != nil || bad.Outputs != nil {
		t.Error("failed load still ran filters")
	}

	if ok, failed := Summary(reports); ok != 0 || failed != 3 {
		t.Errorf("Summary = (%d, %d), want (0, 3)", ok, failed)
	}
}

func TestRunnerAllOK(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	for _, name := range []string{"x.png", "y.png", "z.png"} {
		writeImage(t, filepath.Join(in, name), 4, 4)
	}
	files, err := imageio.Files(in, out)
	if err != nil {
		t.Fatal(err)
	}

	r := NewRunner(newPipeline(t), []kernelfx.Filter{kernelfx.Sharpen{}})
	defer r.Close()
	if r.Workers() < 1 {
		t.Fatalf("Workers() = %d", r.Workers())
	}

	reports := r.Run(Jobs(files))
	if ok, failed := Summary(reports); ok != 3 || failed != 0 {
		t.Fatalf("Summary = (%d, %d), want (3, 0)", ok, failed)
	}
	for _, rep := range reports {
		if rep.Composite != "" {
			t.Errorf("composite written without WithComposite: %s", rep.Composite)
		}
	}
}

func TestRunnerNoJobs(t *testing.T) {
	r := NewRunner(newPipeline(t), nil, WithWorkers(1))
	defer r.Close()
	if reports := r.Run(nil); len(reports) != 0 {
		t.Errorf("Run(nil) = %v", reports)
	}
}
