package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/zhouzirui/lumina-interior/backend/internal/imaging"
)

// ArkChat answers design questions through an eino chain over an Ark chat model.
// It never returns reference links.
type ArkChat struct {
	chain        compose.Runnable[map[string]any, *schema.Message]
	historyLimit int
	logger       *zap.Logger
}

// NewArkChat compiles the consultant chain around chatModel.
func NewArkChat(ctx context.Context, chatModel model.ChatModel, historyLimit int, logger *zap.Logger) (*ArkChat, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.MessagesPlaceholder("query", false),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &ArkChat{chain: runnable, historyLimit: historyLimit, logger: logger.Named("ark")}, nil
}

// Chat runs the chain with the prior turns and the optional design image.
func (a *ArkChat) Chat(ctx context.Context, message string, history []Turn, contextImage *imaging.Image) (ChatReply, error) {
	input := map[string]any{
		"system":  consultantSystemPrompt,
		"history": buildSchemaHistory(limitHistory(history, a.historyLimit)),
		"query":   []*schema.Message{buildQueryMessage(message, contextImage)},
	}

	response, err := a.chain.Invoke(ctx, input)
	if err != nil {
		return ChatReply{}, fmt.Errorf("failed to run AI chain: %w", err)
	}

	text := strings.TrimSpace(response.Content)
	if text == "" {
		return ChatReply{}, fmt.Errorf("chat about design: %w", ErrEmptyReply)
	}

	a.logger.Debug("chat reply", zap.Int("length", len(text)))
	return ChatReply{Text: text}, nil
}

func buildSchemaHistory(history []Turn) []*schema.Message {
	if len(history) == 0 {
		return nil
	}

	messages := make([]*schema.Message, 0, len(history))
	for _, turn := range history {
		switch turn.Role {
		case "user":
			messages = append(messages, schema.UserMessage(turn.Content))
		case "assistant":
			messages = append(messages, schema.AssistantMessage(turn.Content, nil))
		}
	}
	return messages
}

// buildQueryMessage attaches the design image as an image_url part when present.
func buildQueryMessage(message string, contextImage *imaging.Image) *schema.Message {
	if contextImage == nil || contextImage.IsZero() {
		return schema.UserMessage(message)
	}

	return &schema.Message{
		Role: schema.User,
		MultiContent: []schema.ChatMessagePart{
			{
				Type: schema.ChatMessagePartTypeImageURL,
				ImageURL: &schema.ChatMessageImageURL{
					URL:    contextImage.DataURI(),
					Detail: schema.ImageURLDetailAuto,
				},
			},
			{
				Type: schema.ChatMessagePartTypeText,
				Text: message,
			},
		},
	}
}
