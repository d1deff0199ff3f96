package ai

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/zhouzirui/lumina-interior/backend/internal/config"
	"github.com/zhouzirui/lumina-interior/backend/internal/imaging"
)

// Service combines an image designer with a chat backend.
type Service struct {
	images ImageDesigner
	chat   Chatter
}

// Compose joins independently configured image and chat backends.
func Compose(images ImageDesigner, chat Chatter) *Service {
	return &Service{images: images, chat: chat}
}

// NewService builds the designer selected by configuration: Gemini always
// renders images, and chat goes to Gemini or Ark.
func NewService(ctx context.Context, cfg config.AIConfig, logger *zap.Logger) (*Service, error) {
	gemini, err := NewGemini(ctx, GeminiConfig{
		APIKey:       cfg.GeminiAPIKey,
		ImageModel:   cfg.GeminiImageModel,
		ChatModel:    cfg.GeminiChatModel,
		HistoryLimit: cfg.HistoryLimit,
	}, logger)
	if err != nil {
		return nil, err
	}

	if cfg.ChatProvider != config.ChatProviderArk {
		return Compose(gemini, gemini), nil
	}

	chatModel, err := cfg.Ark.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	ark, err := NewArkChat(ctx, chatModel, cfg.HistoryLimit, logger)
	if err != nil {
		return nil, err
	}
	return Compose(gemini, ark), nil
}

// Generate delegates to the image backend.
func (s *Service) Generate(ctx context.Context, source imaging.Image, stylePrompt string) (imaging.Image, error) {
	return s.images.Generate(ctx, source, stylePrompt)
}

// Edit delegates to the image backend.
func (s *Service) Edit(ctx context.Context, current imaging.Image, instruction string) (imaging.Image, error) {
	return s.images.Edit(ctx, current, instruction)
}

// Chat delegates to the chat backend.
func (s *Service) Chat(ctx context.Context, message string, history []Turn, contextImage *imaging.Image) (ChatReply, error) {
	return s.chat.Chat(ctx, message, history, contextImage)
}
