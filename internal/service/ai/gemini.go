package ai

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/zhouzirui/lumina-interior/backend/internal/imaging"
)

// contentGenerator is the slice of the genai Models API used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiConfig selects the models used for image and chat calls.
type GeminiConfig struct {
	APIKey       string
	ImageModel   string
	ChatModel    string
	HistoryLimit int
}

// Gemini implements Designer on top of the Gemini API.
type Gemini struct {
	models       contentGenerator
	imageModel   string
	chatModel    string
	historyLimit int
	logger       *zap.Logger
}

// NewGemini creates a Gemini-backed designer.
func NewGemini(ctx context.Context, cfg GeminiConfig, logger *zap.Logger) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return newGemini(client.Models, cfg, logger), nil
}

func newGemini(models contentGenerator, cfg GeminiConfig, logger *zap.Logger) *Gemini {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gemini{
		models:       models,
		imageModel:   cfg.ImageModel,
		chatModel:    cfg.ChatModel,
		historyLimit: cfg.HistoryLimit,
		logger:       logger.Named("gemini"),
	}
}

// Generate restyles the source photo according to a catalog prompt.
func (g *Gemini) Generate(ctx context.Context, source imaging.Image, stylePrompt string) (imaging.Image, error) {
	img, err := g.renderImage(ctx, source, buildGeneratePrompt(stylePrompt))
	if err != nil {
		return imaging.Image{}, fmt.Errorf("generate design: %w", err)
	}
	return img, nil
}

// Edit applies a free-form instruction to the current design.
func (g *Gemini) Edit(ctx context.Context, current imaging.Image, instruction string) (imaging.Image, error) {
	img, err := g.renderImage(ctx, current, buildEditPrompt(instruction))
	if err != nil {
		return imaging.Image{}, fmt.Errorf("edit design: %w", err)
	}
	return img, nil
}

func (g *Gemini) renderImage(ctx context.Context, source imaging.Image, prompt string) (imaging.Image, error) {
	parts := []*genai.Part{
		genai.NewPartFromBytes(source.Data, source.MIMEType),
		genai.NewPartFromText(prompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := g.models.GenerateContent(ctx, g.imageModel, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	})
	if err != nil {
		return imaging.Image{}, err
	}

	img, err := firstImage(resp)
	if err != nil {
		return imaging.Image{}, err
	}

	g.logger.Debug("image rendered",
		zap.String("model", g.imageModel),
		zap.String("mime", img.MIMEType),
		zap.Int("bytes", len(img.Data)))
	return img, nil
}

// Chat answers a question about the design, grounded with Google Search.
func (g *Gemini) Chat(ctx context.Context, message string, history []Turn, contextImage *imaging.Image) (ChatReply, error) {
	contents := buildGeminiHistory(limitHistory(history, g.historyLimit))

	parts := make([]*genai.Part, 0, 2)
	if contextImage != nil && !contextImage.IsZero() {
		parts = append(parts, genai.NewPartFromBytes(contextImage.Data, contextImage.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(message))
	contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))

	resp, err := g.models.GenerateContent(ctx, g.chatModel, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(consultantSystemPrompt, genai.RoleUser),
		Tools:             []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	})
	if err != nil {
		return ChatReply{}, fmt.Errorf("chat about design: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return ChatReply{}, fmt.Errorf("chat about design: %w", ErrEmptyReply)
	}

	reply := ChatReply{Text: text, Links: groundingLinks(resp)}
	g.logger.Debug("chat reply",
		zap.String("model", g.chatModel),
		zap.Int("history", len(contents)-1),
		zap.Int("links", len(reply.Links)))
	return reply, nil
}

func buildGeminiHistory(history []Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		switch turn.Role {
		case "user":
			contents = append(contents, genai.NewContentFromText(turn.Content, genai.RoleUser))
		case "assistant":
			contents = append(contents, genai.NewContentFromText(turn.Content, genai.RoleModel))
		}
	}
	return contents
}

// firstImage returns the first inline image part of the first candidate. The
// bytes are sniffed and validated rather than trusting the declared MIME type.
func firstImage(resp *genai.GenerateContentResponse) (imaging.Image, error) {
	if resp == nil {
		return imaging.Image{}, ErrNoImage
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			img, err := imaging.New(part.InlineData.Data)
			if err != nil {
				return imaging.Image{}, fmt.Errorf("model image (%s): %w", part.InlineData.MIMEType, err)
			}
			return img, nil
		}
	}
	return imaging.Image{}, ErrNoImage
}

// groundingLinks collects the web sources cited by search grounding, in order
// and without duplicates.
func groundingLinks(resp *genai.GenerateContentResponse) []string {
	if resp == nil {
		return nil
	}

	var links []string
	seen := make(map[string]struct{})
	for _, cand := range resp.Candidates {
		if cand == nil || cand.GroundingMetadata == nil {
			continue
		}
		for _, chunk := range cand.GroundingMetadata.GroundingChunks {
			if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
				continue
			}
			if _, dup := seen[chunk.Web.URI]; dup {
				continue
			}
			seen[chunk.Web.URI] = struct{}{}
			links = append(links, chunk.Web.URI)
		}
	}
	return links
}
