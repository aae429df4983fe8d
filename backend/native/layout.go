// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"encoding/binary"
	"math"
)

// dimsSize is the byte size of the Dims uniform:
// width, height, param_count, pad as u32.
const dimsSize = 16

func makeDims(width, height, paramCount int) []byte {
	out := make([]byte, dimsSize)
	binary.LittleEndian.PutUint32(out[0:], uint32(width))      //nolint:gosec // dimensions always fit uint32
	binary.LittleEndian.PutUint32(out[4:], uint32(height))     //nolint:gosec // dimensions always fit uint32
	binary.LittleEndian.PutUint32(out[8:], uint32(paramCount)) //nolint:gosec // small count
	return out
}

// byteSize returns the buffer size for n float32 values. Zero-length
// buffers are not valid bindings, so at least one value is allocated.
func byteSize(n int) uint64 {
	return uint64(max(n, 1)) * 4 //nolint:gosec // n is non-negative
}

// workgroups returns the number of 8-wide workgroups covering n items.
func workgroups(n int) uint32 {
	return uint32((n + 7) / 8) //nolint:gosec // dimensions always fit uint32
}

func floatsToBytes(data []float32) []byte {
	out := make([]byte, len(data)*4)
	for i, v := range data {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

func bytesToFloats(raw []byte, dst []float32) {
	for i := range dst {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
}
