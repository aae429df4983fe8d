package kernels

// gaussianKernel mirrors gaussianBlur: [size, w0..w(size²-1)].
// Out-of-range neighbours are skipped and the sum renormalised by the
// weights actually used.
func gaussianKernel() Kernel {
	return Kernel{
		EntryPoint:  Gaussian,
		CheckParams: wantSquare,
		Invoke: func(b *Buffers, x, y int) {
			size := int(b.Params[0])
			r := size / 2
			var acc, used float32
			for ky := 0; ky < size; ky++ {
				sy := y + ky - r
				if sy < 0 || sy >= b.Height {
					continue
				}
				for kx := 0; kx < size; kx++ {
					sx := x + kx - r
					if sx < 0 || sx >= b.Width {
						continue
					}
					w := b.Params[1+ky*size+kx]
					acc += b.Src[sy*b.Width+sx] * w
					used += w
				}
			}
			i := y*b.Width + x
			if used > 0 {
				b.Dst[i] = acc / used
			} else {
				b.Dst[i] = b.Src[i]
			}
		},
	}
}

// laplacianKernel mirrors laplacianSharpening: nine weights applied to
// interior pixels, accumulated in float64. The result is a delta to be
// added to the source.
func laplacianKernel() Kernel {
	return Kernel{
		EntryPoint:  Laplacian,
		CheckParams: wantLen(9),
		Invoke: func(b *Buffers, x, y int) {
			if !interior(b, x, y) {
				return
			}
			var acc float64
			for ky := -1; ky <= 1; ky++ {
				row := (y + ky) * b.Width
				for kx := -1; kx <= 1; kx++ {
					acc += float64(b.Src[row+x+kx]) * float64(b.Params[(ky+1)*3+kx+1])
				}
			}
			b.Dst[y*b.Width+x] = float32(acc)
		},
	}
}

// bayerKernel mirrors orderedDithering: [n, t0..t(n²-1)]. A pixel turns
// 255 when it exceeds the threshold tiled over the image, 0 otherwise.
func bayerKernel() Kernel {
	return Kernel{
		EntryPoint:  Bayer,
		CheckParams: wantSquare,
		Invoke: func(b *Buffers, x, y int) {
			n := int(b.Params[0])
			i := y*b.Width + x
			if b.Src[i] > b.Params[1+(y%n)*n+x%n] {
				b.Dst[i] = 255
			} else {
				b.Dst[i] = 0
			}
		},
	}
}
