package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/zhouzirui/lumina-interior/backend/internal/imaging"
)

type fakeModels struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	resp     *genai.GenerateContentResponse
	err      error
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.contents = contents
	f.config = config
	return f.resp, f.err
}

func imageResponse(data []byte, mimeType string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "here you go"},
				{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
			}},
		}},
	}
}

func testGemini(models *fakeModels) *Gemini {
	return newGemini(models, GeminiConfig{ImageModel: "image-model", ChatModel: "chat-model"}, nil)
}

var photo = imaging.Image{MIMEType: "image/jpeg", Data: []byte("jpeg-bytes")}

func TestGeminiGenerateSendsImageAndPrompt(t *testing.T) {
	png, err := imaging.EncodePNG(imageFixture())
	require.NoError(t, err)
	models := &fakeModels{resp: imageResponse(png, "image/png")}

	got, err := testGemini(models).Generate(context.Background(), photo, "reimagine this room in a Bohemian style.")
	require.NoError(t, err)
	assert.Equal(t, imaging.Image{MIMEType: "image/png", Data: png}, got)

	assert.Equal(t, "image-model", models.model)
	require.Len(t, models.contents, 1)
	parts := models.contents[0].Parts
	require.Len(t, parts, 2)
	assert.Equal(t, photo.Data, parts[0].InlineData.Data)
	assert.Equal(t, "image/jpeg", parts[0].InlineData.MIMEType)
	assert.Contains(t, parts[1].Text, "Bohemian style")
	assert.Equal(t, []string{"IMAGE", "TEXT"}, models.config.ResponseModalities)
}

func TestGeminiEditWithoutImagePart(t *testing.T) {
	models := &fakeModels{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: "sorry"}}}}},
	}}

	_, err := testGemini(models).Edit(context.Background(), photo, "add a blue rug")
	assert.ErrorIs(t, err, ErrNoImage)
	assert.Contains(t, models.contents[0].Parts[1].Text, "add a blue rug")
}

func TestGeminiPropagatesRemoteErrors(t *testing.T) {
	boom := errors.New("quota exceeded")
	models := &fakeModels{err: boom}

	_, err := testGemini(models).Generate(context.Background(), photo, "p")
	assert.ErrorIs(t, err, boom)

	_, err = testGemini(models).Chat(context.Background(), "hi", nil, nil)
	assert.ErrorIs(t, err, boom)
}

func TestGeminiChatBuildsHistoryAndLinks(t *testing.T) {
	models := &fakeModels{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: "Try a linen sofa."}}},
			GroundingMetadata: &genai.GroundingMetadata{GroundingChunks: []*genai.GroundingChunk{
				{Web: &genai.GroundingChunkWeb{URI: "https://shop.example/sofa"}},
				{Web: &genai.GroundingChunkWeb{URI: "https://shop.example/sofa"}},
				{Web: &genai.GroundingChunkWeb{URI: "https://other.example/lamp"}},
				{},
			}},
		}},
	}}

	history := []Turn{
		{Role: "assistant", Content: "welcome"},
		{Role: "user", Content: "nice"},
		{Role: "system", Content: "ignored"},
	}
	ctxImage := imaging.Image{MIMEType: "image/png", Data: []byte("design")}

	reply, err := testGemini(models).Chat(context.Background(), "where can I buy the sofa?", history, &ctxImage)
	require.NoError(t, err)

	assert.Equal(t, "Try a linen sofa.", reply.Text)
	assert.Equal(t, []string{"https://shop.example/sofa", "https://other.example/lamp"}, reply.Links)

	assert.Equal(t, "chat-model", models.model)
	require.Len(t, models.contents, 3)
	assert.Equal(t, genai.RoleModel, genai.Role(models.contents[0].Role))
	assert.Equal(t, genai.RoleUser, genai.Role(models.contents[1].Role))
	last := models.contents[2]
	require.Len(t, last.Parts, 2)
	assert.Equal(t, []byte("design"), last.Parts[0].InlineData.Data)
	assert.Equal(t, "where can I buy the sofa?", last.Parts[1].Text)

	require.Len(t, models.config.Tools, 1)
	assert.NotNil(t, models.config.Tools[0].GoogleSearch)
	assert.NotNil(t, models.config.SystemInstruction)
}

func TestGeminiChatEmptyReply(t *testing.T) {
	models := &fakeModels{resp: &genai.GenerateContentResponse{}}
	_, err := testGemini(models).Chat(context.Background(), "hi", nil, nil)
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestFirstImageSniffsMissingMIMEType(t *testing.T) {
	png, err := imaging.EncodePNG(imageFixture())
	require.NoError(t, err)

	img, err := firstImage(imageResponse(png, ""))
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)

	_, err = firstImage(nil)
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestFirstImageRejectsUndecodableBytes(t *testing.T) {
	_, err := firstImage(imageResponse([]byte("png-bytes"), "image/png"))
	assert.ErrorIs(t, err, imaging.ErrNotImage)
}

func TestLimitHistory(t *testing.T) {
	history := []Turn{{Content: "a"}, {Content: "b"}, {Content: "c"}}
	assert.Equal(t, history, limitHistory(history, 0))
	assert.Equal(t, history[1:], limitHistory(history, 2))
	assert.Equal(t, history, limitHistory(history, 10))
}
