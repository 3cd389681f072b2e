package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/assistantkit/backend/internal/models"
)

// OllamaGateway talks to an Ollama-compatible backend over HTTP.
type OllamaGateway struct {
	baseURL      string
	defaultModel string
	httpClient   *http.Client
}

func NewOllamaGateway(baseURL, defaultModel string) *OllamaGateway {
	if defaultModel == "" {
		defaultModel = "llama2"
	}
	return &OllamaGateway{
		baseURL:      strings.TrimRight(baseURL, "/"),
		defaultModel: defaultModel,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

type ollamaGenerateReq struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	Context []string `json:"context,omitempty"`
	Stream  bool     `json:"stream"`
}

type ollamaGenerateResp struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (g *OllamaGateway) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = g.defaultModel
	}

	var resp ollamaGenerateResp
	err := g.post(ctx, "/api/generate", ollamaGenerateReq{
		Model:   model,
		Prompt:  req.Prompt,
		Context: req.Context,
		Stream:  false,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return resp.Response, nil
}

type ollamaEmbedReq struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResp struct {
	Embedding []float32 `json:"embedding"`
}

func (g *OllamaGateway) Embed(ctx context.Context, text string) ([]float32, error) {
	var resp ollamaEmbedResp
	err := g.post(ctx, "/api/embeddings", ollamaEmbedReq{
		Model:  g.defaultModel,
		Prompt: text,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("ollama embed: empty embedding returned")
	}
	return resp.Embedding, nil
}

type ollamaTrainReq struct {
	Model        string   `json:"model"`
	Epoch        int      `json:"epoch"`
	Batch        []string `json:"batch"`
	LearningRate float64  `json:"learning_rate"`
}

// Train drives the backend's fine-tune endpoint one batch at a time.
// Progress is reported after each batch; the halt signal is checked
// between batches, so cancellation is cooperative rather than
// instantaneous.
func (g *OllamaGateway) Train(ctx context.Context, corpus []TrainingDocument, cfg models.TrainingConfig, report ProgressFunc, halted HaltFunc) error {
	if len(corpus) == 0 {
		return fmt.Errorf("training corpus is empty")
	}

	epochs := cfg.Epochs
	if epochs <= 0 {
		epochs = 1
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 32
	}
	model := cfg.ModelName
	if model == "" {
		model = g.defaultModel
	}

	batchesPerEpoch := (len(corpus) + batchSize - 1) / batchSize
	totalBatches := epochs * batchesPerEpoch
	done := 0

	for epoch := 0; epoch < epochs; epoch++ {
		for start := 0; start < len(corpus); start += batchSize {
			if halted != nil && halted() {
				slog.Info("training halt acknowledged", "epoch", epoch, "batches_done", done)
				return ErrTrainingStopped
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			end := start + batchSize
			if end > len(corpus) {
				end = len(corpus)
			}
			batch := make([]string, 0, end-start)
			for _, doc := range corpus[start:end] {
				batch = append(batch, doc.Content)
			}

			err := g.post(ctx, "/api/train", ollamaTrainReq{
				Model:        model,
				Epoch:        epoch,
				Batch:        batch,
				LearningRate: cfg.LearningRate,
			}, nil)
			if err != nil {
				return fmt.Errorf("ollama train batch %d/%d: %w", done+1, totalBatches, err)
			}

			done++
			if report != nil {
				report(float64(done) / float64(totalBatches))
			}
		}
	}

	return nil
}

func (g *OllamaGateway) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, string(msg))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
