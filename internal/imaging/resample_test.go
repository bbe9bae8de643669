package imaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/store"
)

// rgbAt reads pixel (x, y) from the column-major stored image.
func rgbAt(im *store.Image, x, y int) [3]byte {
	o := (x*im.Height + y) * 3
	return [3]byte{im.Data[o], im.Data[o+1], im.Data[o+2]}
}

func TestResampleDimensions(t *testing.T) {
	cases := []struct {
		srcW, srcH int
		wantH      int
	}{
		{31, 64, 64},
		{62, 64, 32},
		{2, 1, 16},   // round(1*31/2) = round(15.5)
		{31, 1, 1},
		{31, 200, store.MaxImageHeight}, // clamped
		{310, 10, 1},
	}
	for _, c := range cases {
		im, err := Resample(make([]byte, c.srcW*c.srcH*3), c.srcW, c.srcH, Options{})
		require.NoError(t, err)
		assert.Equal(t, store.DisplayWidth, im.Width, "width for %dx%d", c.srcW, c.srcH)
		assert.Equal(t, c.wantH, im.Height, "height for %dx%d", c.srcW, c.srcH)
	}
}

func TestResampleRejectsBadSource(t *testing.T) {
	_, err := Resample(nil, 0, 10, Options{})
	assert.ErrorIs(t, err, ErrBadSource)
	_, err = Resample(nil, 10, -1, Options{})
	assert.ErrorIs(t, err, ErrBadSource)
}

func TestNearestNeighborMapping(t *testing.T) {
	// Identity-sized source: each target pixel must equal the source pixel
	// at (x*srcW/D, y*srcH/H), which is the same index here.
	srcW, srcH := store.DisplayWidth, 4
	src := make([]byte, srcW*srcH*3)
	for y := 0; y < srcH; y++ {
		for x := 0; x < srcW; x++ {
			src[(y*srcW+x)*3] = byte(x)
			src[(y*srcW+x)*3+1] = byte(y)
		}
	}
	im, err := Resample(src, srcW, srcH, Options{NoVerticalFlip: true})
	require.NoError(t, err)
	require.Equal(t, srcH, im.Height)
	for y := 0; y < im.Height; y++ {
		for x := 0; x < im.Width; x++ {
			px := rgbAt(im, x, y)
			assert.Equal(t, byte(x), px[0], "x at (%d,%d)", x, y)
			assert.Equal(t, byte(y), px[1], "y at (%d,%d)", x, y)
		}
	}
}

func TestVerticalFlipDefaultAndIdempotent(t *testing.T) {
	srcW, srcH := store.DisplayWidth, 4
	src := make([]byte, srcW*srcH*3)
	for y := 0; y < srcH; y++ {
		for x := 0; x < srcW; x++ {
			src[(y*srcW+x)*3+1] = byte(y)
		}
	}
	flipped, err := Resample(src, srcW, srcH, Options{})
	require.NoError(t, err)
	straight, err := Resample(src, srcW, srcH, Options{NoVerticalFlip: true})
	require.NoError(t, err)

	// Default flip: stored row 0 holds the bottom source row.
	assert.Equal(t, byte(srcH-1), rgbAt(flipped, 0, 0)[1])
	assert.Equal(t, byte(0), rgbAt(straight, 0, 0)[1])

	// Double application restores the original.
	FlipVertical(flipped)
	assert.Equal(t, straight.Data, flipped.Data)
	FlipVertical(flipped)
	FlipVertical(flipped)
	assert.Equal(t, straight.Data, flipped.Data)
}

func TestHorizontalFlip(t *testing.T) {
	srcW, srcH := store.DisplayWidth, 2
	src := make([]byte, srcW*srcH*3)
	for y := 0; y < srcH; y++ {
		for x := 0; x < srcW; x++ {
			src[(y*srcW+x)*3] = byte(x)
		}
	}
	im, err := Resample(src, srcW, srcH, Options{NoVerticalFlip: true, FlipHorizontal: true})
	require.NoError(t, err)
	assert.Equal(t, byte(srcW-1), rgbAt(im, 0, 0)[0])
	assert.Equal(t, byte(0), rgbAt(im, im.Width-1, 0)[0])
}

func TestShortPayloadFillsBlack(t *testing.T) {
	srcW, srcH := store.DisplayWidth, 2
	// Only one row of pixel data for a two-row source.
	im, err := Resample(make([]byte, srcW*3), srcW, srcH, Options{NoVerticalFlip: true})
	require.NoError(t, err)
	for x := 0; x < im.Width; x++ {
		px := rgbAt(im, x, im.Height-1)
		assert.Equal(t, [3]byte{}, px, "missing pixel at column %d should be black", x)
	}
}
