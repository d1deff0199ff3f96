package compare

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

func fill(w, h int, c color.RGBA) *image.RGBA {
	m := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.SetRGBA(x, y, c)
		}
	}
	return m
}

func TestCompositeSplitsAtPosition(t *testing.T) {
	before := fill(40, 20, red)
	after := fill(40, 20, blue)

	out, err := Composite(before, after, 25, 80, 40)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 80, 40), out.Bounds())

	assert.Equal(t, red, out.RGBAAt(5, 20), "left of split shows before")
	assert.Equal(t, blue, out.RGBAAt(60, 20), "right of split shows after")
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, out.RGBAAt(20, 20), "divider at split")
}

func TestCompositeAtZeroShowsOnlyAfter(t *testing.T) {
	out, err := Composite(fill(10, 10, red), fill(10, 10, blue), 0, 50, 20)
	require.NoError(t, err)
	assert.Equal(t, blue, out.RGBAAt(10, 10))
	assert.Equal(t, blue, out.RGBAAt(49, 10))
}

func TestCompositeAtHundredShowsOnlyBefore(t *testing.T) {
	out, err := Composite(fill(10, 10, red), fill(10, 10, blue), 100, 50, 20)
	require.NoError(t, err)
	assert.Equal(t, red, out.RGBAAt(0, 10))
	assert.Equal(t, red, out.RGBAAt(40, 10))
}

func TestCompositeRejectsBadSize(t *testing.T) {
	img := fill(2, 2, red)
	for _, size := range [][2]int{{0, 10}, {10, 0}, {-1, 5}, {MaxDimension + 1, 10}} {
		_, err := Composite(img, img, 50, size[0], size[1])
		assert.ErrorIs(t, err, ErrInvalidSize)
	}
}

func TestDefaultCanvasIsSixteenByNine(t *testing.T) {
	w, h := DefaultCanvas(fill(1600, 1200, blue))
	assert.Equal(t, 1600, w)
	assert.Equal(t, 900, h)
}
