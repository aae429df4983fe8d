package kernelfx

import (
	"errors"
	"testing"

	"github.com/gogpu/kernelfx/backend"
)

func newPipeline(t *testing.T, opts ...PipelineOption) *Pipeline {
	t.Helper()
	return NewPipeline(NewDispatcher(newSoftware(t)), opts...)
}

// brokenFilter names an entry point its source does not declare.
type brokenFilter struct{ NoOptions }

func (brokenFilter) Name() string                   { return "broken" }
func (brokenFilter) KernelSource() (string, string) { return shaderGradient, "missingEntry" }

func TestPipelineDitherBright(t *testing.T) {
	p := newPipeline(t)
	out, err := p.Apply(solidImage(4, 4, 255, 255, 255), Dither{})
	if err != nil {
		t.Fatal(err)
	}
	for i, px := range out.Pix {
		if px != Pack(255, 255, 255) {
			t.Fatalf("pixel %d = %08x, want white", i, px)
		}
	}
}

func TestPipelineDitherDark(t *testing.T) {
	p := newPipeline(t)
	out, err := p.Apply(solidImage(4, 4, 0, 0, 0), Dither{Size: 8})
	if err != nil {
		t.Fatal(err)
	}
	for i, px := range out.Pix {
		if px != Pack(0, 0, 0) {
			t.Fatalf("pixel %d = %08x, want black", i, px)
		}
	}
}

func TestPipelineSharpenFlatIsIdentity(t *testing.T) {
	p := newPipeline(t)
	img := solidImage(5, 5, 10, 120, 250)
	out, err := p.Apply(img, Sharpen{})
	if err != nil {
		t.Fatal(err)
	}
	for i := range img.Pix {
		if out.Pix[i] != img.Pix[i] {
			t.Fatalf("pixel %d = %08x, want %08x", i, out.Pix[i], img.Pix[i])
		}
	}
}

func TestPipelineBlurConstant(t *testing.T) {
	p := newPipeline(t)
	img := solidImage(7, 6, 40, 80, 160)
	out, err := p.Apply(img, GaussianBlur{})
	if err != nil {
		t.Fatal(err)
	}
	for i := range img.Pix {
		_, r, g, b := Unpack(out.Pix[i])
		if absDiff(r, 40) > 1 || absDiff(g, 80) > 1 || absDiff(b, 160) > 1 {
			t.Fatalf("pixel %d = (%d, %d, %d), want (40, 80, 160)", i, r, g, b)
		}
	}
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

func TestPipelineEdgeOutputIsGray(t *testing.T) {
	p := newPipeline(t)
	img := patternImage(8, 8)
	for _, f := range []Filter{Sobel{}, Prewitt{}, Canny{}} {
		out, err := p.Apply(img, f)
		if err != nil {
			t.Fatalf("%s: %v", FilterName(f), err)
		}
		for i, px := range out.Pix {
			_, r, g, b := Unpack(px)
			if r != g || g != b {
				t.Fatalf("%s pixel %d = (%d, %d, %d), want gray", FilterName(f), i, r, g, b)
			}
			if px>>24 != 0xFF {
				t.Fatalf("%s pixel %d not opaque", FilterName(f), i)
			}
		}
	}
}

func TestPipelineCannyBands(t *testing.T) {
	p := newPipeline(t)
	out, err := p.Apply(patternImage(8, 8), Canny{})
	if err != nil {
		t.Fatal(err)
	}
	for i, px := range out.Pix {
		_, r, _, _ := Unpack(px)
		if r != 0 && r != 128 && r != 255 {
			t.Fatalf("pixel %d = %d, want 0, 128 or 255", i, r)
		}
	}
}

func TestPipelineRunIsolatesFailures(t *testing.T) {
	p := newPipeline(t)
	img := patternImage(6, 6)
	filters := []Filter{Sobel{}, brokenFilter{}, Sharpen{}}

	results := p.Run(img, filters)
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}

	if results[0].Err != nil || results[0].Image == nil {
		t.Errorf("sobel failed: %v", results[0].Err)
	}
	if results[2].Err != nil || results[2].Image == nil {
		t.Errorf("sharpen failed: %v", results[2].Err)
	}

	bad := results[1]
	if bad.Image != nil {
		t.Error("broken filter produced an image")
	}
	if !errors.Is(bad.Err, ErrProgramBuild) {
		t.Errorf("broken err = %v, want ErrProgramBuild", bad.Err)
	}
	var de *DispatchError
	if !errors.As(bad.Err, &de) || de.Filter != "broken" || de.EntryPoint != "missingEntry" {
		t.Errorf("DispatchError = %+v", de)
	}
	if bad.Name != "broken" || bad.Mode != ModeLuminance {
		t.Errorf("result = %+v", bad)
	}

	images := results.Images()
	if images[0] == nil || images[1] != nil || images[2] == nil {
		t.Errorf("Images() = %v", images)
	}
	if failed := results.Failed(); len(failed) != 1 || failed[0].Name != "broken" {
		t.Errorf("Failed() = %+v", failed)
	}
	if err := results.Err(); !errors.Is(err, ErrProgramBuild) {
		t.Errorf("Err() = %v", err)
	}
}

func TestPipelineRunMatchesApply(t *testing.T) {
	p := newPipeline(t)
	img := patternImage(9, 7)
	filters := []Filter{Sobel{}, Canny{}, GaussianBlur{}, Sharpen{}, Dither{}}

	results := p.Run(img, filters)
	if err := results.Err(); err != nil {
		t.Fatal(err)
	}
	for i, f := range filters {
		want, err := p.Apply(img, f)
		if err != nil {
			t.Fatal(err)
		}
		got := results[i].Image
		for j := range want.Pix {
			if got.Pix[j] != want.Pix[j] {
				t.Fatalf("%s: Run and Apply differ at %d", FilterName(f), j)
			}
		}
		if results[i].EntryPoint == "" || results[i].Mode != (Describe(f, nil)).Mode {
			t.Errorf("%s result metadata = %+v", FilterName(f), results[i])
		}
	}
}

func TestPipelineSequentialMatchesParallel(t *testing.T) {
	dev := newSoftware(t)
	par := NewPipeline(NewDispatcher(dev))
	seq := NewPipeline(NewDispatcher(dev), WithSequentialChannels())
	img := patternImage(10, 6)

	for _, f := range []Filter{GaussianBlur{Size: 3, Sigma: 0.8}, Sharpen{}, Dither{Size: 2}} {
		a, err := par.Apply(img, f)
		if err != nil {
			t.Fatal(err)
		}
		b, err := seq.Apply(img, f)
		if err != nil {
			t.Fatal(err)
		}
		for i := range a.Pix {
			if a.Pix[i] != b.Pix[i] {
				t.Fatalf("%s: sequential differs at %d", FilterName(f), i)
			}
		}
	}
}

// untaggedSobel is Sobel without a ChannelMode, so only the policy
// table decides how it is routed.
type untaggedSobel struct{}

func (untaggedSobel) KernelSource() (string, string)   { return Sobel{}.KernelSource() }
func (untaggedSobel) ComputeOptions(l Plane) []float32 { return Sobel{}.ComputeOptions(l) }

func TestPipelinePolicy(t *testing.T) {
	custom := NewPolicy()
	custom.Register(EntrySobel, ModeChannels)
	// A tagged filter ignores the table.
	p := newPipeline(t, WithPolicy(custom))
	res := p.Run(patternImage(4, 4), []Filter{Sobel{}, untaggedSobel{}})
	if res[0].Mode != ModeLuminance {
		t.Errorf("tagged Sobel mode = %v, want luminance", res[0].Mode)
	}
	if res[1].Mode != ModeChannels {
		t.Errorf("untagged Sobel mode = %v, want channels", res[1].Mode)
	}
	if err := res.Err(); err != nil {
		t.Fatal(err)
	}
}

func TestPipelineDoesNotModifyInput(t *testing.T) {
	p := newPipeline(t)
	img := patternImage(5, 5)
	before := append([]uint32(nil), img.Pix...)
	p.Run(img, []Filter{Sobel{}, GaussianBlur{}, Sharpen{}, Dither{}})
	for i := range before {
		if img.Pix[i] != before[i] {
			t.Fatalf("input pixel %d modified", i)
		}
	}
}

func TestPipelineParameterFailure(t *testing.T) {
	p := newPipeline(t)
	_, err := p.Apply(patternImage(4, 4), badParams{})
	if !errors.Is(err, ErrParameter) {
		t.Fatalf("err = %v, want ErrParameter", err)
	}
	if !errors.Is(err, backend.ErrInvalidParams) {
		t.Error("device error not wrapped")
	}
}

type badParams struct{}

func (badParams) KernelSource() (string, string) { return shaderGradient, EntrySobel }
func (badParams) ComputeOptions(Plane) []float32 { return []float32{1} }
