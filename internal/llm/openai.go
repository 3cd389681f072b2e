package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/assistantkit/backend/internal/models"
)

type OpenAIGateway struct {
	client       *openai.Client
	defaultModel string
}

func NewOpenAIGateway(apiKey, defaultModel string) *OpenAIGateway {
	if defaultModel == "" {
		defaultModel = openai.GPT4oMini
	}
	return &OpenAIGateway{
		client:       openai.NewClient(apiKey),
		defaultModel: defaultModel,
	}
}

func (g *OpenAIGateway) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = g.defaultModel
	}

	msgs := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: groundingSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: buildPrompt(req.Prompt, req.Context)},
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: msgs,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

func (g *OpenAIGateway) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := g.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.SmallEmbedding3,
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai embed: no embedding returned")
	}
	return resp.Data[0].Embedding, nil
}

// Train is not available through the chat completions surface; hosted
// fine-tuning goes through a separate job API outside this deployment.
func (g *OpenAIGateway) Train(ctx context.Context, corpus []TrainingDocument, cfg models.TrainingConfig, report ProgressFunc, halted HaltFunc) error {
	return fmt.Errorf("openai train: %w", ErrUnsupported)
}

const groundingSystemPrompt = `You are a helpful assistant. Answer using the provided context passages when they are relevant. If the context does not contain the answer, say so.`

func buildPrompt(prompt string, contexts []string) string {
	if len(contexts) == 0 {
		return prompt
	}
	var sb strings.Builder
	sb.WriteString("Context:\n")
	for i, c := range contexts {
		fmt.Fprintf(&sb, "[%d] %s\n", i+1, c)
	}
	sb.WriteString("\nQuestion: ")
	sb.WriteString(prompt)
	return sb.String()
}
