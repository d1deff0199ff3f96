package compare

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSliderStartsCentred(t *testing.T) {
	assert.Equal(t, 50.0, NewSlider().Position)
}

func TestSetPercentClamps(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-20, 0},
		{0, 0},
		{12.5, 12.5},
		{50, 50},
		{100, 100},
		{140, 100},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		s := NewSlider()
		s.SetPercent(tt.in)
		assert.Equal(t, tt.want, s.Position, "input %v", tt.in)
	}
}

func TestSetPercentIdentityInRange(t *testing.T) {
	for p := 0.0; p <= 100; p += 0.5 {
		s := NewSlider()
		s.SetPercent(p)
		assert.Equal(t, p, s.Position)
	}
}

func TestMoveFromPointer(t *testing.T) {
	s := NewSlider()

	s.Move(250, 100, 600)
	assert.InDelta(t, 25.0, s.Position, 1e-9)

	s.Move(50, 100, 600)
	assert.Equal(t, 0.0, s.Position)

	s.Move(900, 100, 600)
	assert.Equal(t, 100.0, s.Position)
}

func TestMoveIgnoresZeroWidthContainer(t *testing.T) {
	s := NewSlider()
	s.Move(10, 0, 0)
	assert.Equal(t, 50.0, s.Position)

	_, ok := PositionFromPointer(10, 0, -5)
	assert.False(t, ok)
}

func TestResetReturnsToDefault(t *testing.T) {
	s := NewSlider()
	s.SetPercent(80)
	s.Reset()
	assert.Equal(t, DefaultPosition, s.Position)
}

func TestGeometry(t *testing.T) {
	g := Slider{Position: 50}.Geometry()
	assert.Equal(t, 50.0, g.RevealPercent)
	assert.Equal(t, 200.0, g.BeforeScalePercent)
	assert.True(t, g.BeforeVisible)

	g = Slider{Position: 100}.Geometry()
	assert.Equal(t, 100.0, g.BeforeScalePercent)
}

func TestGeometryAtZeroIsFinite(t *testing.T) {
	g := Slider{Position: 0}.Geometry()
	assert.False(t, g.BeforeVisible)
	assert.Equal(t, 0.0, g.RevealPercent)
	assert.False(t, math.IsInf(g.BeforeScalePercent, 0))
	assert.InDelta(t, 100/(MinRevealPercent/100), g.BeforeScalePercent, 1e-6)
}
