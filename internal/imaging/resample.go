// Package imaging resamples uploaded bitmaps into stored display images.
package imaging

import (
	"errors"
	"math"

	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/store"
)

var ErrBadSource = errors.New("imaging: source dimensions must be positive")

// Options control the orientation of the resampled image. The vertical flip
// is on by default because source bitmaps have row 0 at the top while LED 0
// sits at the bottom of the strip; NoVerticalFlip opts out.
type Options struct {
	NoVerticalFlip bool
	FlipHorizontal bool
}

// Resample converts an RGB bitmap of srcW x srcH into a stored image of
// width store.DisplayWidth and height round(srcH*D/srcW) clamped to the
// platform maximum. Nearest-neighbor index mapping only; no blending, so
// pixel edges stay crisp at LED resolution. Missing trailing pixel bytes
// read as black.
func Resample(data []byte, srcW, srcH int, opts Options) (*store.Image, error) {
	if srcW <= 0 || srcH <= 0 {
		return nil, ErrBadSource
	}
	w := store.DisplayWidth
	h := int(math.Round(float64(srcH) * float64(w) / float64(srcW)))
	if h < 1 {
		h = 1
	}
	if h > store.MaxImageHeight {
		h = store.MaxImageHeight
	}

	im := &store.Image{Width: w, Height: h}
	for x := 0; x < w; x++ {
		sx := x * srcW / w
		for y := 0; y < h; y++ {
			sy := y * srcH / h
			so := (sy*srcW + sx) * 3
			o := (x*h + y) * 3
			if so+2 < len(data) {
				im.Data[o] = data[so]
				im.Data[o+1] = data[so+1]
				im.Data[o+2] = data[so+2]
			}
		}
	}

	if !opts.NoVerticalFlip {
		FlipVertical(im)
	}
	if opts.FlipHorizontal {
		FlipHorizontal(im)
	}
	return im, nil
}

// FlipVertical mirrors an image top-to-bottom in place.
func FlipVertical(im *store.Image) {
	for x := 0; x < im.Width; x++ {
		base := x * im.Height * 3
		for y := 0; y < im.Height/2; y++ {
			a := base + y*3
			b := base + (im.Height-1-y)*3
			for c := 0; c < 3; c++ {
				im.Data[a+c], im.Data[b+c] = im.Data[b+c], im.Data[a+c]
			}
		}
	}
}

// FlipHorizontal mirrors an image left-to-right in place.
func FlipHorizontal(im *store.Image) {
	col := make([]byte, im.Height*3)
	for x := 0; x < im.Width/2; x++ {
		a := x * im.Height * 3
		b := (im.Width - 1 - x) * im.Height * 3
		n := im.Height * 3
		copy(col, im.Data[a:a+n])
		copy(im.Data[a:a+n], im.Data[b:b+n])
		copy(im.Data[b:b+n], col)
	}
}
