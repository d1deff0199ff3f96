// Package compare holds the before/after comparison slider: the split
// position driven by pointer movement, the clip geometry used to render it,
// and a server-side composite of both images at a given split.
package compare

import "math"

const (
	// DefaultPosition is where the divide sits whenever a new pair is shown.
	DefaultPosition = 50.0
	// MinRevealPercent floors the reveal width used for the inverse scale so
	// that a position of zero yields a finite scale instead of a division by zero.
	MinRevealPercent = 0.01
)

// Slider tracks the horizontal split between the before and after images,
// as a percentage of the container width.
type Slider struct {
	Position float64 `json:"position"`
}

// NewSlider returns a slider centred on the container.
func NewSlider() Slider {
	return Slider{Position: DefaultPosition}
}

// Clamp limits p to [0, 100].
func Clamp(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return 0
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// PositionFromPointer converts a pointer x coordinate into a split percentage
// within a container starting at left and spanning width pixels. ok is false
// when the container has no measurable width.
func PositionFromPointer(pointerX, left, width float64) (pos float64, ok bool) {
	if width <= 0 {
		return 0, false
	}
	return Clamp((pointerX - left) / width * 100), true
}

// Move applies a pointer-move event. Moves over a zero-width container are ignored.
func (s *Slider) Move(pointerX, left, width float64) {
	if pos, ok := PositionFromPointer(pointerX, left, width); ok {
		s.Position = pos
	}
}

// SetPercent assigns the position directly, clamped to [0, 100].
func (s *Slider) SetPercent(p float64) {
	s.Position = Clamp(p)
}

// Reset puts the divide back in the middle.
func (s *Slider) Reset() {
	s.Position = DefaultPosition
}

// Geometry describes how to lay out the two layers for the current position.
type Geometry struct {
	// RevealPercent is the width of the clipped before layer, in percent of the container.
	RevealPercent float64 `json:"revealPercent"`
	// BeforeScalePercent is the width the before image must be drawn at, in percent
	// of the clipped box, so that it lines up with the full-width after image.
	BeforeScalePercent float64 `json:"beforeScalePercent"`
	// BeforeVisible is false when the divide sits at the left edge.
	BeforeVisible bool `json:"beforeVisible"`
	// HandlePercent is the horizontal offset of the drag handle.
	HandlePercent float64 `json:"handlePercent"`
}

// Geometry returns the render layout for the slider.
func (s Slider) Geometry() Geometry {
	pos := Clamp(s.Position)
	reveal := pos
	if reveal < MinRevealPercent {
		reveal = MinRevealPercent
	}
	return Geometry{
		RevealPercent:      pos,
		BeforeScalePercent: 100 / (reveal / 100),
		BeforeVisible:      pos >= MinRevealPercent,
		HandlePercent:      pos,
	}
}
