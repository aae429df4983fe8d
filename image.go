package kernelfx

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// Image errors.
var (
	// ErrImageSize is returned when width × height does not match the
	// number of pixels, or a dimension is not positive.
	ErrImageSize = errors.New("kernelfx: image dimensions do not match pixel count")
)

// Plane is one normalized float32 value per pixel, row-major. Values are
// nominally in [0, 1] but kernel outputs may exceed that range until
// recomposition clamps them.
type Plane []float32

// Image is a raster of packed 32-bit pixels, A<<24 | R<<16 | G<<8 | B,
// row-major. It implements image.Image and is treated as read-only once
// constructed.
type Image struct {
	Pix    []uint32
	Width  int
	Height int
}

var _ image.Image = (*Image)(nil)

// NewImage wraps pix as a width × height image.
func NewImage(width, height int, pix []uint32) (*Image, error) {
	if width <= 0 || height <= 0 || width*height != len(pix) {
		return nil, fmt.Errorf("%w: %dx%d with %d pixels", ErrImageSize, width, height, len(pix))
	}
	return &Image{Pix: pix, Width: width, Height: height}, nil
}

// FromImage converts any image to an opaque packed image. Alpha is
// dropped: each pixel keeps its straight (non-premultiplied) color.
func FromImage(src image.Image) *Image {
	if img, ok := src.(*Image); ok {
		return img
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := &Image{Pix: make([]uint32, w*h), Width: w, Height: h}

	switch s := src.(type) {
	case *image.NRGBA:
		for y := 0; y < h; y++ {
			row := s.Pix[y*s.Stride : y*s.Stride+w*4]
			for x := 0; x < w; x++ {
				out.Pix[y*w+x] = Pack(row[x*4], row[x*4+1], row[x*4+2])
			}
		}
	default:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
				out.Pix[y*w+x] = Pack(c.R, c.G, c.B)
			}
		}
	}
	return out
}

// Pack returns the opaque packed pixel for r, g, b.
func Pack(r, g, b uint8) uint32 {
	return 0xFF000000 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// Unpack splits a packed pixel into its channels.
func Unpack(p uint32) (a, r, g, b uint8) {
	return uint8(p >> 24), uint8(p >> 16), uint8(p >> 8), uint8(p) //nolint:gosec // truncation intended
}

// ColorModel implements image.Image.
func (img *Image) ColorModel() color.Model {
	return color.NRGBAModel
}

// Bounds implements image.Image.
func (img *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, img.Width, img.Height)
}

// At implements image.Image.
func (img *Image) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= img.Width || y >= img.Height {
		return color.NRGBA{}
	}
	a, r, g, b := Unpack(img.Pix[y*img.Width+x])
	return color.NRGBA{R: r, G: g, B: b, A: a}
}

// NRGBA returns a copy of the image as *image.NRGBA.
func (img *Image) NRGBA() *image.NRGBA {
	out := image.NewNRGBA(img.Bounds())
	for i, p := range img.Pix {
		a, r, g, b := Unpack(p)
		out.Pix[i*4] = r
		out.Pix[i*4+1] = g
		out.Pix[i*4+2] = b
		out.Pix[i*4+3] = a
	}
	return out
}

// Size returns width × height.
func (img *Image) Size() int {
	return img.Width * img.Height
}
