package kernels

import "math"

// gradient returns the X and Y responses of the 3x3 kernel pair stored
// in p[:18] around (x, y). The caller ensures (x, y) is interior.
// Sums are accumulated in float64 so zero-sum kernels cancel exactly on
// flat input.
func gradient(b *Buffers, p []float32, x, y int) (gx, gy float64) {
	for ky := -1; ky <= 1; ky++ {
		row := (y + ky) * b.Width
		for kx := -1; kx <= 1; kx++ {
			v := float64(b.Src[row+x+kx])
			k := (ky+1)*3 + kx + 1
			gx += v * float64(p[k])
			gy += v * float64(p[9+k])
		}
	}
	return gx, gy
}

func magnitude(gx, gy float64) float32 {
	return float32(math.Sqrt(gx*gx + gy*gy))
}

// gradientKernel mirrors sobelEdgeDetection and prewittEdgeDetection:
// both take [gx(9), gy(9)] and leave the border untouched.
func gradientKernel(entryPoint string) Kernel {
	return Kernel{
		EntryPoint:  entryPoint,
		CheckParams: wantLen(18),
		Invoke: func(b *Buffers, x, y int) {
			if !interior(b, x, y) {
				return
			}
			gx, gy := gradient(b, b.Params, x, y)
			b.Dst[y*b.Width+x] = magnitude(gx, gy)
		},
	}
}

// cannyKernel mirrors cannyEdgeDetection: [low, high, gx(9), gy(9)].
// Strong edges become 1, weak edges 0.5, everything else and the
// border 0.
func cannyKernel() Kernel {
	return Kernel{
		EntryPoint:  Canny,
		CheckParams: wantLen(20),
		Invoke: func(b *Buffers, x, y int) {
			i := y*b.Width + x
			if !interior(b, x, y) {
				b.Dst[i] = 0
				return
			}
			low, high := b.Params[0], b.Params[1]
			m := magnitude(gradient(b, b.Params[2:], x, y))
			switch {
			case m > high:
				b.Dst[i] = 1
			case m > low:
				b.Dst[i] = 0.5
			default:
				b.Dst[i] = 0
			}
		},
	}
}
