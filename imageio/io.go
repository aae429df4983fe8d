package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // register the WebP decoder

	"github.com/gogpu/kernelfx"
)

// I/O errors.
var (
	// ErrUnsupportedFormat is returned when a format cannot be read or
	// written.
	ErrUnsupportedFormat = errors.New("imageio: unsupported format")

	// ErrEmptyData is returned when image data is empty.
	ErrEmptyData = errors.New("imageio: empty data")
)

// Format is an image file format.
type Format int

const (
	FormatUnknown Format = iota
	FormatPNG
	FormatJPEG
	FormatBMP
	FormatTIFF
	FormatWebP
)

// DefaultJPEGQuality is used by Save for .jpg and .jpeg paths.
const DefaultJPEGQuality = 90

var extFormats = map[string]Format{
	".png":  FormatPNG,
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".bmp":  FormatBMP,
	".tif":  FormatTIFF,
	".tiff": FormatTIFF,
	".webp": FormatWebP,
}

// String returns the lower-case format name.
func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatJPEG:
		return "jpeg"
	case FormatBMP:
		return "bmp"
	case FormatTIFF:
		return "tiff"
	case FormatWebP:
		return "webp"
	default:
		return "unknown"
	}
}

// CanEncode reports whether Encode supports f.
func (f Format) CanEncode() bool {
	return f != FormatUnknown && f != FormatWebP
}

// FormatFromPath returns the format implied by the file extension.
func FormatFromPath(path string) Format {
	return extFormats[strings.ToLower(filepath.Ext(path))]
}

// Load decodes the image at path. The format is detected from the
// content, not the extension.
func Load(path string) (*kernelfx.Image, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("imageio: open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	img, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return img, nil
}

// LoadBytes decodes an image held in memory.
func LoadBytes(data []byte) (*kernelfx.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}
	return Decode(bytes.NewReader(data))
}

// Decode decodes an image from r, auto-detecting the format.
func Decode(r io.Reader) (*kernelfx.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
		}
		return nil, fmt.Errorf("imageio: decode: %w", err)
	}
	return FromStdImage(img), nil
}

// FromStdImage converts img to an opaque packed image.
func FromStdImage(img image.Image) *kernelfx.Image {
	return kernelfx.FromImage(img)
}

// Save encodes img in the format implied by path's extension and writes
// it to path. JPEG uses DefaultJPEGQuality.
func Save(path string, img image.Image) error {
	format := FormatFromPath(path)
	if !format.CanEncode() {
		return fmt.Errorf("%w: cannot write %q", ErrUnsupportedFormat, filepath.Ext(path))
	}

	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("imageio: create file: %w", err)
	}

	if err := Encode(f, img, format); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, format Format) error {
	if k, ok := img.(*kernelfx.Image); ok {
		img = k.NRGBA()
	}

	var err error
	switch format {
	case FormatPNG:
		err = png.Encode(w, img)
	case FormatJPEG:
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: DefaultJPEGQuality})
	case FormatBMP:
		err = bmp.Encode(w, img)
	case FormatTIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	default:
		return fmt.Errorf("%w: cannot write %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return fmt.Errorf("imageio: encode %s: %w", format, err)
	}
	return nil
}

// EncodeJPEG writes img as JPEG with the given quality (1-100).
func EncodeJPEG(w io.Writer, img image.Image, quality int) error {
	quality = min(max(quality, 1), 100)
	if k, ok := img.(*kernelfx.Image); ok {
		img = k.NRGBA()
	}
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("imageio: encode jpeg: %w", err)
	}
	return nil
}
