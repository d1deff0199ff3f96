package ai

import (
	"context"
	"image"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/lumina-interior/backend/internal/imaging"
)

func imageFixture() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 2, 2))
}

type fakeChatModel struct {
	input []*schema.Message
	reply string
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.input = input
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (f *fakeChatModel) BindTools(_ []*schema.ToolInfo) error {
	return nil
}

func TestArkChatRunsChain(t *testing.T) {
	chatModel := &fakeChatModel{reply: "  Warm oak would suit it.  "}
	ctx := context.Background()

	chat, err := NewArkChat(ctx, chatModel, 0, nil)
	require.NoError(t, err)

	history := []Turn{{Role: "assistant", Content: "welcome"}, {Role: "user", Content: "thanks"}}
	ctxImage := imaging.Image{MIMEType: "image/png", Data: []byte("design")}

	reply, err := chat.Chat(ctx, "which wood floor?", history, &ctxImage)
	require.NoError(t, err)
	assert.Equal(t, "Warm oak would suit it.", reply.Text)
	assert.Empty(t, reply.Links)

	require.Len(t, chatModel.input, 4)
	assert.Equal(t, schema.System, chatModel.input[0].Role)
	assert.Equal(t, consultantSystemPrompt, chatModel.input[0].Content)
	assert.Equal(t, schema.Assistant, chatModel.input[1].Role)
	assert.Equal(t, schema.User, chatModel.input[2].Role)

	query := chatModel.input[3]
	require.Len(t, query.MultiContent, 2)
	assert.Equal(t, ctxImage.DataURI(), query.MultiContent[0].ImageURL.URL)
	assert.Equal(t, "which wood floor?", query.MultiContent[1].Text)
}

func TestArkChatEmptyReply(t *testing.T) {
	ctx := context.Background()
	chat, err := NewArkChat(ctx, &fakeChatModel{}, 0, nil)
	require.NoError(t, err)

	_, err = chat.Chat(ctx, "hello", nil, nil)
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestBuildQueryMessageWithoutImage(t *testing.T) {
	msg := buildQueryMessage("hello {name}", nil)
	assert.Equal(t, "hello {name}", msg.Content)
	assert.Empty(t, msg.MultiContent)
}
