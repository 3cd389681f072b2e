package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/assistantkit/backend/internal/models"
)

type AnthropicGateway struct {
	client       anthropic.Client
	defaultModel string
}

func NewAnthropicGateway(apiKey, defaultModel string) *AnthropicGateway {
	if defaultModel == "" {
		defaultModel = string(anthropic.ModelClaude3_5HaikuLatest)
	}
	return &AnthropicGateway{
		client:       anthropic.NewClient(option.WithAPIKey(apiKey)),
		defaultModel: defaultModel,
	}
}

func (g *AnthropicGateway) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = g.defaultModel
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(req.Prompt, req.Context))),
		},
		System: []anthropic.TextBlockParam{
			{Text: groundingSystemPrompt},
		},
	}

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic generate: %w", err)
	}

	content := ""
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}
	return content, nil
}

// Anthropic does not expose an embeddings endpoint.
func (g *AnthropicGateway) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("anthropic embed: %w", ErrUnsupported)
}

func (g *AnthropicGateway) Train(ctx context.Context, corpus []TrainingDocument, cfg models.TrainingConfig, report ProgressFunc, halted HaltFunc) error {
	return fmt.Errorf("anthropic train: %w", ErrUnsupported)
}
