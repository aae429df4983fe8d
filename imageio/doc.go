// Package imageio reads and writes the images kernelfx filters.
//
// Decoding supports PNG, JPEG, BMP, TIFF and WebP; encoding supports all
// of those except WebP. Every decoded image is converted to an opaque
// packed kernelfx.Image, so alpha in the source file is dropped.
//
//	img, err := imageio.Load("input/photo.jpg")
//	...
//	err = imageio.Save("output/photo_sobel.png", out)
package imageio
