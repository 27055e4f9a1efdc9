// Package ollama adapts a local Ollama instance as the pipeline's small
// local model backend and query embedder.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/asklegal/engine/internal/core/domain"
	"github.com/asklegal/engine/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	genModel   string
	embedModel string
	httpClient *http.Client
	runner     *resilience.Runner
}

func New(baseURL, genModel, embedModel string, runner *resilience.Runner) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		runner:     runner,
	}
}

// Backend is the local small-model generation adapter.
type Backend struct {
	client *Client
}

func NewBackend(client *Client) *Backend {
	return &Backend{client: client}
}

func (b *Backend) ID() domain.BackendID { return domain.BackendLocal }

// The local model runs in-process on the host; it is always eligible.
func (b *Backend) Available() bool { return true }

func (b *Backend) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	payload := map[string]any{
		"model":  b.client.genModel,
		"prompt": buildLegalPrompt(req),
		"stream": false,
		"options": map[string]any{
			"num_predict": req.MaxTokens,
			"temperature": req.Temperature,
		},
	}

	var response struct {
		Response string `json:"response"`
	}
	err := b.client.run(ctx, "ollama.generate", func(callCtx context.Context) error {
		return b.client.postJSON(callCtx, "/api/generate", payload, &response, "generate")
	})
	if err != nil {
		return "", wrapTemporaryIfNeeded("ollama.generate", err)
	}
	return strings.TrimSpace(response.Response), nil
}

// Embedder converts query text to vectors with the embedding model.
type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	payload := map[string]any{
		"model": e.client.embedModel,
		"input": []string{text},
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	err := e.client.run(ctx, "ollama.embed", func(callCtx context.Context) error {
		return e.client.postJSON(callCtx, "/api/embed", payload, &response, "embed")
	})
	if err != nil {
		return nil, wrapTemporaryIfNeeded("ollama.embed", err)
	}
	if len(response.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return response.Embeddings[0], nil
}

func (c *Client) run(ctx context.Context, operation string, call func(context.Context) error) error {
	if c.runner == nil {
		return call(ctx)
	}
	return c.runner.Run(ctx, operation, call, classifyOllamaError)
}
