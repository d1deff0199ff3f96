package session

import (
	"context"
	"fmt"

	"github.com/zhouzirui/lumina-interior/backend/internal/compare"
	"github.com/zhouzirui/lumina-interior/backend/internal/imaging"
	"github.com/zhouzirui/lumina-interior/backend/internal/service/events"
)

// SliderState is the slider position together with its render geometry.
type SliderState struct {
	Slider   compare.Slider   `json:"slider"`
	Geometry compare.Geometry `json:"geometry"`
}

// MoveSlider applies a pointer move over the comparison container.
func (s *Service) MoveSlider(_ context.Context, id string, pointerX, containerLeft, containerWidth float64) (SliderState, error) {
	return s.updateSlider(id, func(sl *compare.Slider) {
		sl.Move(pointerX, containerLeft, containerWidth)
	})
}

// SetSliderPercent places the divide at p percent, clamped to [0, 100].
func (s *Service) SetSliderPercent(_ context.Context, id string, p float64) (SliderState, error) {
	return s.updateSlider(id, func(sl *compare.Slider) {
		sl.SetPercent(p)
	})
}

func (s *Service) updateSlider(id string, apply func(*compare.Slider)) (SliderState, error) {
	e, err := s.lookup(id)
	if err != nil {
		return SliderState{}, err
	}

	e.mu.Lock()
	if e.generated.IsZero() {
		e.mu.Unlock()
		return SliderState{}, ErrNoGeneratedImage
	}
	apply(&e.slider)
	state := SliderState{Slider: e.slider, Geometry: e.slider.Geometry()}
	e.mu.Unlock()

	s.events.Publish(id, events.TypeSlider, state)
	return state, nil
}

// Composite renders the before/after pair split at position. A nil position
// uses the session's current slider. Zero dimensions derive a 16:9 canvas
// from the generated image.
func (s *Service) Composite(_ context.Context, id string, position *float64, width, height int) ([]byte, error) {
	before, after, current, err := s.pair(id)
	if err != nil {
		return nil, err
	}

	beforeImg, err := imaging.Decode(before)
	if err != nil {
		return nil, fmt.Errorf("decode original: %w", err)
	}
	afterImg, err := imaging.Decode(after)
	if err != nil {
		return nil, fmt.Errorf("decode design: %w", err)
	}

	pos := current.Position
	if position != nil {
		pos = compare.Clamp(*position)
	}
	if width <= 0 || height <= 0 {
		width, height = compare.DefaultCanvas(afterImg)
	}

	out, err := compare.Composite(beforeImg, afterImg, pos, width, height)
	if err != nil {
		return nil, err
	}
	return imaging.EncodePNG(out)
}

// Download returns the generated design encoded as PNG.
func (s *Service) Download(_ context.Context, id string) ([]byte, error) {
	_, after, _, err := s.pair(id)
	if err != nil {
		return nil, err
	}
	return imaging.ToPNG(after)
}

func (s *Service) pair(id string) (before, after imaging.Image, slider compare.Slider, err error) {
	e, err := s.lookup(id)
	if err != nil {
		return before, after, slider, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.generated.IsZero() {
		return before, after, slider, ErrNoGeneratedImage
	}
	return e.original, e.generated, e.slider, nil
}
