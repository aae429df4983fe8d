package kernelfx

// Luma weights (ITU-R BT.601).
const (
	lumaR = 0.2989
	lumaG = 0.5870
	lumaB = 0.1140
)

// Grayscale returns the luminance plane of img, normalized to [0, 1].
func Grayscale(img *Image) Plane {
	out := make(Plane, len(img.Pix))
	for i, p := range img.Pix {
		_, r, g, b := Unpack(p)
		out[i] = (lumaR*float32(r) + lumaG*float32(g) + lumaB*float32(b)) / 255
	}
	return out
}

// GrayscaleToRGB broadcasts a plane into an opaque gray image.
// len(p) must equal width × height.
func GrayscaleToRGB(p Plane, width, height int) *Image {
	out := &Image{Pix: make([]uint32, len(p)), Width: width, Height: height}
	for i, v := range p {
		c := toByte(v)
		out.Pix[i] = Pack(c, c, c)
	}
	return out
}

// DecomposeRGB splits img into normalized red, green and blue planes.
func DecomposeRGB(img *Image) [3]Plane {
	n := len(img.Pix)
	planes := [3]Plane{make(Plane, n), make(Plane, n), make(Plane, n)}
	for i, p := range img.Pix {
		_, r, g, b := Unpack(p)
		planes[0][i] = float32(r) / 255
		planes[1][i] = float32(g) / 255
		planes[2][i] = float32(b) / 255
	}
	return planes
}

// RecomposeRGB clamps three planes to [0, 1] and packs them into an
// opaque image. Every plane must hold width × height values.
func RecomposeRGB(planes [3]Plane, width, height int) *Image {
	out := &Image{Pix: make([]uint32, width*height), Width: width, Height: height}
	for i := range out.Pix {
		out.Pix[i] = Pack(toByte(planes[0][i]), toByte(planes[1][i]), toByte(planes[2][i]))
	}
	return out
}

// RecomposeRGBWithOriginal adds each delta plane to the matching channel
// of orig, clamps to [0, 1] and packs the result into an opaque image.
func RecomposeRGBWithOriginal(deltas [3]Plane, orig *Image) *Image {
	out := &Image{Pix: make([]uint32, len(orig.Pix)), Width: orig.Width, Height: orig.Height}
	for i, p := range orig.Pix {
		_, r, g, b := Unpack(p)
		out.Pix[i] = Pack(
			toByte(float32(r)/255+deltas[0][i]),
			toByte(float32(g)/255+deltas[1][i]),
			toByte(float32(b)/255+deltas[2][i]),
		)
	}
	return out
}

// toByte clamps v to [0, 1] and rounds it to the nearest 8-bit value.
// NaN maps to 0.
func toByte(v float32) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
