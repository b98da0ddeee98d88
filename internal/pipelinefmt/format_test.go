package pipelinefmt

import (
	"bytes"
	"testing"
)

func TestAlignRowPitch(t *testing.T) {
	cases := []struct {
		in, want uint32
	}{
		{0, 0},
		{1, 256},
		{256, 256},
		{257, 512},
		{1000, 1024},
	}
	for _, c := range cases {
		if got := AlignRowPitch(c.in); got != c.want {
			t.Errorf("AlignRowPitch(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestStripRowPaddingRoundTrip(t *testing.T) {
	const width, height = 3, 2
	const tightBytesPerRow = width * 16 // rgba32float
	paddedBytesPerRow := AlignRowPitch(tightBytesPerRow)

	padded := make([]byte, int(paddedBytesPerRow)*height)
	for row := 0; row < height; row++ {
		for b := 0; b < tightBytesPerRow; b++ {
			padded[row*int(paddedBytesPerRow)+b] = byte(row*tightBytesPerRow + b)
		}
	}

	got := StripRowPadding(padded, width, height, tightBytesPerRow, paddedBytesPerRow)
	if len(got) != tightBytesPerRow*height {
		t.Fatalf("len(got) = %d, want %d", len(got), tightBytesPerRow*height)
	}

	want := make([]byte, tightBytesPerRow*height)
	for i := range want {
		want[i] = byte(i)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("StripRowPadding produced %v, want %v", got, want)
	}
}

func TestStripRowPaddingNoPadding(t *testing.T) {
	const width, height = 64, 4 // 64*16=1024, already 256-aligned
	tightBytesPerRow := uint32(width * 16)
	paddedBytesPerRow := AlignRowPitch(tightBytesPerRow)
	if paddedBytesPerRow != tightBytesPerRow {
		t.Fatalf("test setup assumes no padding, got padded=%d tight=%d", paddedBytesPerRow, tightBytesPerRow)
	}

	data := make([]byte, int(tightBytesPerRow)*height)
	for i := range data {
		data[i] = byte(i)
	}

	got := StripRowPadding(data, width, height, tightBytesPerRow, paddedBytesPerRow)
	if !bytes.Equal(got, data) {
		t.Fatalf("StripRowPadding altered data when no padding was present")
	}
}
