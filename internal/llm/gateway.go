// Package llm issues generation, embedding, and training requests to a
// language-model backend.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/assistantkit/backend/internal/config"
	"github.com/assistantkit/backend/internal/models"
)

var (
	// ErrUnsupported is returned by providers that do not implement an
	// operation (e.g. embeddings on Anthropic).
	ErrUnsupported = errors.New("operation not supported by provider")

	// ErrTrainingStopped is returned by Train when the halt signal was
	// observed between batches.
	ErrTrainingStopped = errors.New("training stopped")
)

// GenerateRequest carries a prompt plus retrieved grounding passages.
type GenerateRequest struct {
	Prompt  string
	Context []string // grounding passages, may be empty
	Model   string   // empty selects the configured default
}

// TrainingDocument is one corpus entry fed to Train.
type TrainingDocument struct {
	DocumentID string
	Content    string
}

// ProgressFunc receives the completed fraction of the training run in
// [0.0, 1.0] after every batch.
type ProgressFunc func(progress float64)

// HaltFunc is polled between batches; returning true requests a
// cooperative stop.
type HaltFunc func() bool

// Gateway is the language-model backend as seen by the rest of the
// system. Implementations surface raw upstream failures; callers decide
// what is retryable.
type Gateway interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	Embed(ctx context.Context, text string) ([]float32, error)
	Train(ctx context.Context, corpus []TrainingDocument, cfg models.TrainingConfig, report ProgressFunc, halted HaltFunc) error
}

// NewGateway builds the provider selected by cfg.Provider.
func NewGateway(cfg config.LLMConfig) (Gateway, error) {
	switch cfg.Provider {
	case "", "ollama":
		return NewOllamaGateway(cfg.OllamaURL, cfg.DefaultModel), nil
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("openai provider requires OPENAI_API_KEY")
		}
		return NewOpenAIGateway(cfg.OpenAIKey, cfg.DefaultModel), nil
	case "anthropic":
		if cfg.AnthropicKey == "" {
			return nil, fmt.Errorf("anthropic provider requires ANTHROPIC_API_KEY")
		}
		return NewAnthropicGateway(cfg.AnthropicKey, cfg.DefaultModel), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
