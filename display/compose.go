// Package display lays out an image and its filtered versions as one
// labelled overview image.
//
// The original sits centred on the first row; filter outputs follow in a
// grid of at most three columns. A filter that failed is drawn as a dark
// tile labelled with the failure kind.
package display

import (
	"errors"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/gogpu/kernelfx"
)

// MaxColumns is the widest grid Compose produces.
const MaxColumns = 3

// Options controls the overview layout. The zero value is usable.
type Options struct {
	// MaxTileWidth downscales tiles wider than this. 0 keeps full size.
	MaxTileWidth int

	// Columns of the output grid, clamped to [1, MaxColumns].
	// 0 means MaxColumns.
	Columns int

	Padding     int // between tiles; 0 means 8
	LabelHeight int // text strip under each tile; 0 means 18

	Background color.Color // nil means near-black
	Foreground color.Color // label color; nil means white
}

func (o Options) withDefaults() Options {
	if o.Columns <= 0 || o.Columns > MaxColumns {
		o.Columns = MaxColumns
	}
	if o.Padding <= 0 {
		o.Padding = 8
	}
	if o.LabelHeight <= 0 {
		o.LabelHeight = 18
	}
	if o.Background == nil {
		o.Background = color.NRGBA{R: 24, G: 24, B: 24, A: 255}
	}
	if o.Foreground == nil {
		o.Foreground = color.White
	}
	return o
}

// failedTile is the fill of a tile whose filter produced no image.
var failedTile = color.NRGBA{R: 64, G: 16, B: 16, A: 255}

// Layout is the geometry of an overview image.
type Layout struct {
	Width, Height int
	Tile          image.Point // size of every tile, label excluded
	Columns, Rows int         // output grid, original row excluded
	Original      image.Point // top-left of the original tile
	Outputs       []image.Point
}

// NewLayout computes where Compose puts each tile for an original of the
// given size and n outputs.
func NewLayout(size image.Point, n int, opts Options) Layout {
	opts = opts.withDefaults()

	tw, th := size.X, size.Y
	if opts.MaxTileWidth > 0 && tw > opts.MaxTileWidth {
		th = max(1, th*opts.MaxTileWidth/tw)
		tw = opts.MaxTileWidth
	}

	cols := min(opts.Columns, max(n, 1))
	rows := (n + cols - 1) / cols
	pad, cellH := opts.Padding, th+opts.LabelHeight

	l := Layout{
		Width:   pad + cols*(tw+pad),
		Height:  pad + (rows+1)*(cellH+pad),
		Tile:    image.Pt(tw, th),
		Columns: cols,
		Rows:    rows,
		Outputs: make([]image.Point, n),
	}
	l.Original = image.Pt((l.Width-tw)/2, pad)
	for i := range n {
		row, col := i/cols, i%cols
		// A short last row is centred like the original.
		inRow := cols
		if row == rows-1 && n%cols != 0 {
			inRow = n % cols
		}
		left := (l.Width - (inRow*(tw+pad) - pad)) / 2
		l.Outputs[i] = image.Pt(left+col*(tw+pad), pad+(row+1)*(cellH+pad))
	}
	return l
}

// Compose draws original and outputs into one image. labels[i] names
// outputs[i]; a nil output is drawn as a failed tile. Missing labels are
// left blank.
func Compose(original image.Image, outputs []image.Image, labels []string, opts Options) image.Image {
	opts = opts.withDefaults()
	l := NewLayout(original.Bounds().Size(), len(outputs), opts)

	dc := gg.NewContext(l.Width, l.Height)
	dc.SetColor(opts.Background)
	dc.Clear()

	drawTile(dc, l, l.Original, original, "original", opts)
	for i, out := range outputs {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		drawTile(dc, l, l.Outputs[i], out, label, opts)
	}
	return dc.Image()
}

func drawTile(dc *gg.Context, l Layout, at image.Point, img image.Image, label string, opts Options) {
	if img == nil {
		dc.SetColor(failedTile)
		dc.DrawRectangle(float64(at.X), float64(at.Y), float64(l.Tile.X), float64(l.Tile.Y))
		dc.Fill()
	} else {
		dc.DrawImage(scale(img, l.Tile), at.X, at.Y)
	}

	if label == "" {
		return
	}
	dc.SetColor(opts.Foreground)
	cx := float64(at.X) + float64(l.Tile.X)/2
	cy := float64(at.Y+l.Tile.Y) + float64(opts.LabelHeight)/2
	dc.DrawStringAnchored(label, cx, cy, 0.5, 0.5)
}

// scale returns img resized to size, or img itself when it already fits.
func scale(img image.Image, size image.Point) image.Image {
	b := img.Bounds()
	if b.Size() == size && b.Min == (image.Point{}) {
		return img
	}
	dst := image.NewNRGBA(image.Rectangle{Max: size})
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// ComposeResults draws the overview of one pipeline run. Failed filters
// are labelled with the filter name and the kind of failure.
func ComposeResults(original *kernelfx.Image, results kernelfx.Results, opts Options) image.Image {
	outputs := make([]image.Image, len(results))
	labels := make([]string, len(results))
	for i, r := range results {
		labels[i] = r.Name
		if r.Err != nil {
			labels[i] = r.Name + ": " + FailureLabel(r.Err)
			continue
		}
		outputs[i] = r.Image
	}
	return Compose(original, outputs, labels, opts)
}

// FailureLabel returns the short description of a filter failure shown on
// its tile.
func FailureLabel(err error) string {
	var de *kernelfx.DispatchError
	if errors.As(err, &de) {
		return de.Kind.String()
	}
	return "failed"
}
