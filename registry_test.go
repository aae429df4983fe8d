package kernelfx

import (
	"errors"
	"slices"
	"testing"
)

func TestFilterNames(t *testing.T) {
	names := FilterNames()
	for _, want := range []string{"blur", "canny", "dither", "prewitt", "sharpen", "sobel"} {
		if !slices.Contains(names, want) {
			t.Errorf("FilterNames() missing %q", want)
		}
	}
	if !slices.IsSorted(names) {
		t.Errorf("FilterNames() not sorted: %v", names)
	}
}

func TestNewFilter(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		want     Filter
	}{
		{"sobel", nil, Sobel{}},
		{" Canny ", nil, Canny{}},
		{"BLUR", nil, GaussianBlur{Size: DefaultBlurSize, Sigma: DefaultBlurSigma}},
		{"blur", Settings{"size": int64(7), "sigma": 2.5}, GaussianBlur{Size: 7, Sigma: 2.5}},
		{"blur", Settings{"sigma": int64(2)}, GaussianBlur{Size: DefaultBlurSize, Sigma: 2}},
		{"dither", Settings{"size": 8}, Dither{Size: 8}},
		{"dither", Settings{"size": 2.0}, Dither{Size: 2}},
		{"dither", nil, Dither{Size: DefaultDitherSize}},
	}
	for _, tt := range tests {
		got, err := NewFilter(tt.name, tt.settings)
		if err != nil {
			t.Errorf("NewFilter(%q, %v) error = %v", tt.name, tt.settings, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NewFilter(%q, %v) = %#v, want %#v", tt.name, tt.settings, got, tt.want)
		}
	}
}

func TestNewFilterErrors(t *testing.T) {
	if _, err := NewFilter("emboss", nil); !errors.Is(err, ErrUnknownFilter) {
		t.Errorf("unknown filter err = %v", err)
	}

	bad := []struct {
		name     string
		settings Settings
	}{
		{"blur", Settings{"size": 0}},
		{"blur", Settings{"sigma": -1.0}},
		{"blur", Settings{"size": "five"}},
		{"blur", Settings{"size": 2.5}},
		{"dither", Settings{"size": 3}},
		{"dither", Settings{"size": 16}},
	}
	for _, tt := range bad {
		if _, err := NewFilter(tt.name, tt.settings); err == nil {
			t.Errorf("NewFilter(%q, %v) succeeded", tt.name, tt.settings)
		}
	}
}

func TestRegisterFilter(t *testing.T) {
	RegisterFilter("Invert-Test", func(Settings) (Filter, error) {
		return untagged{entry: "invert"}, nil
	})
	t.Cleanup(func() {
		filtersMu.Lock()
		delete(filters, "invert-test")
		filtersMu.Unlock()
	})

	f, err := NewFilter("invert-test", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, entry := f.KernelSource(); entry != "invert" {
		t.Errorf("entry = %q", entry)
	}
}

func TestParseFilters(t *testing.T) {
	fs, err := ParseFilters(" sobel, blur,,SOBEL , dither ", map[string]Settings{
		"blur": {"size": 3},
	})
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = FilterName(f)
	}
	if !slices.Equal(names, []string{"sobel", "blur", "dither"}) {
		t.Errorf("names = %v", names)
	}
	if b := fs[1].(GaussianBlur); b.Size != 3 {
		t.Errorf("blur size = %d, want 3", b.Size)
	}

	if _, err := ParseFilters("sobel,nope", nil); !errors.Is(err, ErrUnknownFilter) {
		t.Errorf("err = %v, want ErrUnknownFilter", err)
	}
	if fs, err := ParseFilters("", nil); err != nil || len(fs) != 0 {
		t.Errorf("ParseFilters(\"\") = %v, %v", fs, err)
	}
}

func TestSettings(t *testing.T) {
	s := Settings{"i": 3, "i64": int64(4), "f": 1.5, "whole": 6.0, "s": "x"}

	if v, err := s.Int("i", 0); err != nil || v != 3 {
		t.Errorf("Int(i) = %v, %v", v, err)
	}
	if v, err := s.Int("i64", 0); err != nil || v != 4 {
		t.Errorf("Int(i64) = %v, %v", v, err)
	}
	if v, err := s.Int("whole", 0); err != nil || v != 6 {
		t.Errorf("Int(whole) = %v, %v", v, err)
	}
	if v, err := s.Int("missing", 9); err != nil || v != 9 {
		t.Errorf("Int(missing) = %v, %v", v, err)
	}
	if _, err := s.Int("f", 0); err == nil {
		t.Error("Int(f) accepted a fraction")
	}
	if _, err := s.Int("s", 0); err == nil {
		t.Error("Int(s) accepted a string")
	}
	if v, err := s.Float("i", 0); err != nil || v != 3 {
		t.Errorf("Float(i) = %v, %v", v, err)
	}
	if _, err := s.Float("s", 0); err == nil {
		t.Error("Float(s) accepted a string")
	}

	var nilSettings Settings
	if v, err := nilSettings.Float("sigma", 1.25); err != nil || v != 1.25 {
		t.Errorf("nil Settings Float = %v, %v", v, err)
	}
}
