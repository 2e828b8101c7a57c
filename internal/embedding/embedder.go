// Package embedding implements C2: text vectorization behind a single
// Embedder interface, with a cloud (OpenAI-compatible) and a local
// (Ollama) backend, following the teacher's models/embedding factory
// pattern.
package embedding

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/Sourabsb/doctalk/internal/types"
)

// Embedder converts text into L2-normalized vectors. Dimensions and the
// profile tag are fixed for the lifetime of the Embedder instance, which
// in turn is fixed for the lifetime of a Conversation.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Profile() string
}

// Config selects and parameterizes an Embedder.
type Config struct {
	Mode      types.LLMMode // cloud or local
	BaseURL   string
	APIKey    string
	Model     string
	Dimensions int
	Profile   string
}

// New builds an Embedder for the given configuration: local routes to
// Ollama, cloud routes to any OpenAI-compatible embeddings endpoint.
func New(cfg Config) (Embedder, error) {
	switch cfg.Mode {
	case types.LLMModeLocal:
		return newOllamaEmbedder(cfg)
	case types.LLMModeCloud:
		return newOpenAIEmbedder(cfg)
	default:
		return nil, fmt.Errorf("unsupported embedder mode: %s", cfg.Mode)
	}
}

// normalize returns a copy of vec rescaled to unit L2 norm, so that
// downstream cosine similarity reduces to a dot product; vec itself is not
// modified. A near-zero vector is returned untouched to avoid division by
// a value close to zero.
func normalize(vec []float32) []float32 {
	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	if sumSq < 1e-12 {
		return vec
	}
	norm := float32(1 / math.Sqrt(sumSq))
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = v * norm
	}
	return out
}

func resolveProfile(cfg Config) string {
	if cfg.Profile != "" {
		return cfg.Profile
	}
	return strings.ToLower(string(cfg.Mode))
}
