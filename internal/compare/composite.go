package compare

import (
	"errors"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

const (
	// MaxDimension bounds the composite canvas on either axis.
	MaxDimension = 4096
	dividerWidth = 2
)

// ErrInvalidSize is returned when the requested canvas is empty or too large.
var ErrInvalidSize = errors.New("invalid composite size")

// Composite renders the comparison as a single picture: after fills a w×h
// canvas, before is drawn over the same canvas but only its leftmost
// position% columns are kept, with a white divider at the split.
// Both images are cover-fitted to the canvas.
func Composite(before, after image.Image, position float64, w, h int) (*image.RGBA, error) {
	if w <= 0 || h <= 0 || w > MaxDimension || h > MaxDimension {
		return nil, ErrInvalidSize
	}

	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	drawCover(canvas, canvas.Bounds(), after)

	split := int(Clamp(position) / 100 * float64(w))
	if split > 0 {
		full := image.NewRGBA(canvas.Bounds())
		drawCover(full, full.Bounds(), before)
		clip := image.Rect(0, 0, split, h)
		draw.Draw(canvas, clip, full, clip.Min, draw.Src)
	}

	left := split - dividerWidth/2
	divider := image.Rect(left, 0, left+dividerWidth, h).Intersect(canvas.Bounds())
	draw.Draw(canvas, divider, image.NewUniform(color.White), image.Point{}, draw.Src)

	return canvas, nil
}

// DefaultCanvas picks a 16:9 canvas matching the width of the after image.
func DefaultCanvas(after image.Image) (w, h int) {
	w = after.Bounds().Dx()
	if w > MaxDimension {
		w = MaxDimension
	}
	if w <= 0 {
		w = 1280
	}
	h = w * 9 / 16
	if h <= 0 {
		h = 1
	}
	return w, h
}

// drawCover scales src to cover dst's rectangle r, cropping the overflow
// evenly on both sides.
func drawCover(dst draw.Image, r image.Rectangle, src image.Image) {
	sb := src.Bounds()
	if sb.Empty() || r.Empty() {
		return
	}

	dw, dh := r.Dx(), r.Dy()
	sw, sh := sb.Dx(), sb.Dy()

	crop := sb
	if sw*dh > sh*dw {
		cw := sh * dw / dh
		x0 := sb.Min.X + (sw-cw)/2
		crop = image.Rect(x0, sb.Min.Y, x0+cw, sb.Max.Y)
	} else if sw*dh < sh*dw {
		ch := sw * dh / dw
		y0 := sb.Min.Y + (sh-ch)/2
		crop = image.Rect(sb.Min.X, y0, sb.Max.X, y0+ch)
	}

	draw.ApproxBiLinear.Scale(dst, r, src, crop, draw.Src, nil)
}
