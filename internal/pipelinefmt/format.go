// Package pipelinefmt holds the row-pitch padding math the CPU step uses
// for GPU texture readback, and nothing else. Kept separate from the
// root package so the arithmetic can be unit tested in isolation.
package pipelinefmt

// AlignRowPitch rounds bytesPerRow up to the next multiple of 256, the
// row-pitch alignment GPU readback buffers require.
func AlignRowPitch(bytesPerRow uint32) uint32 {
	const alignment = 256
	return (bytesPerRow + alignment - 1) &^ (alignment - 1)
}

// StripRowPadding copies height rows of tightBytesPerRow bytes out of a
// buffer laid out with paddedBytesPerRow stride, discarding the padding
// the GPU inserted between rows.
func StripRowPadding(padded []byte, width, height, tightBytesPerRow, paddedBytesPerRow uint32) []byte {
	out := make([]byte, int(tightBytesPerRow)*int(height))
	for row := uint32(0); row < height; row++ {
		src := padded[row*paddedBytesPerRow : row*paddedBytesPerRow+tightBytesPerRow]
		copy(out[row*tightBytesPerRow:], src)
	}
	return out
}
