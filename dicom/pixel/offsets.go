package pixel

import (
	"encoding/binary"
	"fmt"
)

// NativePixelDescriptor carries the metadata fields needed to compute frame
// byte offsets for uncompressed (native) pixel data, where no Basic Offset
// Table exists on the wire at all — offsets are a pure arithmetic function
// of the image geometry.
type NativePixelDescriptor struct {
	Rows            int
	Columns         int
	SamplesPerPixel int
	BitsAllocated   int
	NumberOfFrames  int
}

// BuildNativeOffsets computes the per-frame byte offset table for native
// pixel data.
//
// Each frame occupies Rows * Columns * SamplesPerPixel * bytesPerSample
// bytes, where bytesPerSample is derived from BitsAllocated (rounded up to
// the nearest byte) rather than assumed to be 1. Omitting that factor
// under-counts frame size for anything wider than 8 bits per sample — the
// offsets from frame 2 onward land inside the previous frame's data
// instead of at its start.
func BuildNativeOffsets(d NativePixelDescriptor) ([]uint64, error) {
	if d.NumberOfFrames <= 0 {
		return nil, fmt.Errorf("%w: NumberOfFrames must be positive, got %d", ErrInvalidPixelData, d.NumberOfFrames)
	}
	if d.Rows <= 0 || d.Columns <= 0 || d.SamplesPerPixel <= 0 || d.BitsAllocated <= 0 {
		return nil, fmt.Errorf("%w: rows/columns/samples-per-pixel/bits-allocated must be positive", ErrInvalidPixelData)
	}

	bytesPerSample := uint64(d.BitsAllocated+7) / 8
	frameBytes := uint64(d.Rows) * uint64(d.Columns) * uint64(d.SamplesPerPixel) * bytesPerSample

	offsets := make([]uint64, d.NumberOfFrames)
	for i := range offsets {
		offsets[i] = uint64(i) * frameBytes
	}
	return offsets, nil
}

// NativeFrameLength returns the byte length of a single native frame for
// the given descriptor.
func NativeFrameLength(d NativePixelDescriptor) int {
	bytesPerSample := (d.BitsAllocated + 7) / 8
	return d.Rows * d.Columns * d.SamplesPerPixel * bytesPerSample
}

// ParseExtendedOffsetTable parses the Extended Offset Table element
// (7FE0,0001), an OV value holding one 64-bit little-endian byte offset
// per frame, measured from the first byte of the first frame item's value
// — the same reference point the Basic Offset Table uses, just wider.
func ParseExtendedOffsetTable(data []byte) ([]uint64, error) {
	if len(data)%8 != 0 {
		return nil, fmt.Errorf("%w: extended offset table length must be a multiple of 8, got %d", ErrInvalidPixelData, len(data))
	}

	numOffsets := len(data) / 8
	offsets := make([]uint64, numOffsets)
	for i := 0; i < numOffsets; i++ {
		offsets[i] = binary.LittleEndian.Uint64(data[i*8 : (i+1)*8])
	}
	return offsets, nil
}
