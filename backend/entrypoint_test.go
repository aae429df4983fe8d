package backend

import "testing"

func TestDeclaresEntryPoint(t *testing.T) {
	const src = `
@group(0) @binding(0) var<storage, read> input: array<f32>;

fn helper(v: f32) -> f32 { return v; }

@compute @workgroup_size(8, 8)
fn sobelEdgeDetection(@builtin(global_invocation_id) id: vec3<u32>) {
    let v = helper(input[0]);
}

@compute
@workgroup_size(8, 8)
fn prewittEdgeDetection (@builtin(global_invocation_id) id: vec3<u32>) {
}
`
	tests := []struct {
		entry string
		want  bool
	}{
		{"sobelEdgeDetection", true},
		{"prewittEdgeDetection", true},
		{"helper", false},
		{"sobel", false},
		{"EdgeDetection", false},
		{"", false},
		{"main", false},
	}
	for _, tt := range tests {
		if got := DeclaresEntryPoint(src, tt.entry); got != tt.want {
			t.Errorf("DeclaresEntryPoint(%q) = %v, want %v", tt.entry, got, tt.want)
		}
	}
}
