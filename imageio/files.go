package imageio

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// File pairs an input image with the location of its outputs.
type File struct {
	Input  string // path of the source image
	Output string // path in the output directory with the input's base name
}

// Stem returns the input's base name without its extension.
func (f File) Stem() string {
	base := filepath.Base(f.Input)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// FilterOutput returns the path for the output of the named filter:
// <output dir>/<stem>_<name><ext>. Inputs in a format that cannot be
// written get a .png output.
func (f File) FilterOutput(name string) string {
	return f.sibling("_" + name)
}

// CompositeOutput returns the path for the tiled overview of all filters.
func (f File) CompositeOutput() string {
	return f.sibling("_all")
}

func (f File) sibling(suffix string) string {
	ext := strings.ToLower(filepath.Ext(f.Input))
	if !FormatFromPath(ext).CanEncode() {
		ext = ".png"
	}
	return filepath.Join(filepath.Dir(f.Output), f.Stem()+suffix+ext)
}

// Files lists the images directly inside inputDir, sorted by name, and
// pairs each with a path of the same base name inside outputDir.
// Subdirectories and files with unknown extensions are skipped.
func Files(inputDir, outputDir string) ([]File, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("imageio: read input dir: %w", err)
	}

	var files []File
	for _, e := range entries {
		if e.IsDir() || FormatFromPath(e.Name()) == FormatUnknown {
			continue
		}
		files = append(files, File{
			Input:  filepath.Join(inputDir, e.Name()),
			Output: filepath.Join(outputDir, e.Name()),
		})
	}
	slices.SortFunc(files, func(a, b File) int { return strings.Compare(a.Input, b.Input) })
	return files, nil
}
