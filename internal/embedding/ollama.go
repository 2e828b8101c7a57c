package embedding

import (
	"context"
	"fmt"
	"net/url"

	ollamaapi "github.com/ollama/ollama/api"
)

// ollamaEmbedder embeds text through a local Ollama daemon's /api/embed
// endpoint, the local-mode counterpart grounded on the teacher's
// OllamaChat streaming client.
type ollamaEmbedder struct {
	client  *ollamaapi.Client
	model   string
	dims    int
	profile string
}

func newOllamaEmbedder(cfg Config) (Embedder, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base url: %w", err)
	}
	client := ollamaapi.NewClient(base, nil)

	return &ollamaEmbedder{
		client:  client,
		model:   cfg.Model,
		dims:    cfg.Dimensions,
		profile: resolveProfile(cfg),
	}, nil
}

func (e *ollamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *ollamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.Embed(ctx, &ollamaapi.EmbedRequest{
		Model: e.model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embed request failed: %w", err)
	}

	out := make([][]float32, len(resp.Embeddings))
	for i, vec := range resp.Embeddings {
		out[i] = normalize(vec)
	}
	if e.dims == 0 && len(out) > 0 {
		e.dims = len(out[0])
	}
	return out, nil
}

func (e *ollamaEmbedder) Dimensions() int { return e.dims }
func (e *ollamaEmbedder) Profile() string { return e.profile }
