package ai

import (
	"context"
	"errors"

	"github.com/zhouzirui/lumina-interior/backend/internal/imaging"
)

var (
	// ErrNoImage indicates the image model answered without an image part.
	ErrNoImage = errors.New("model returned no image")
	// ErrEmptyReply indicates the chat model answered without text.
	ErrEmptyReply = errors.New("model returned an empty reply")
)

// Turn is a prior transcript entry reduced to role and content.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatReply is the conversational answer plus any reference links.
type ChatReply struct {
	Text  string   `json:"text"`
	Links []string `json:"links,omitempty"`
}

// ImageDesigner renders redesigns of a room photo.
type ImageDesigner interface {
	Generate(ctx context.Context, source imaging.Image, stylePrompt string) (imaging.Image, error)
	Edit(ctx context.Context, current imaging.Image, instruction string) (imaging.Image, error)
}

// Chatter answers questions about a design.
type Chatter interface {
	Chat(ctx context.Context, message string, history []Turn, contextImage *imaging.Image) (ChatReply, error)
}

// Designer is the full remote surface the session controller depends on.
type Designer interface {
	ImageDesigner
	Chatter
}

// ErrNotConfigured is returned by the designer used when no API key is set.
var ErrNotConfigured = errors.New("design AI is not configured")

type unconfigured struct{}

// Unconfigured returns a Designer whose every call fails with ErrNotConfigured,
// so the server can run without credentials.
func Unconfigured() Designer {
	return unconfigured{}
}

func (unconfigured) Generate(context.Context, imaging.Image, string) (imaging.Image, error) {
	return imaging.Image{}, ErrNotConfigured
}

func (unconfigured) Edit(context.Context, imaging.Image, string) (imaging.Image, error) {
	return imaging.Image{}, ErrNotConfigured
}

func (unconfigured) Chat(context.Context, string, []Turn, *imaging.Image) (ChatReply, error) {
	return ChatReply{}, ErrNotConfigured
}
