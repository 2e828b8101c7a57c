// Package llm implements C7: a uniform LLMProvider contract over a cloud
// (OpenAI-compatible chat-completions) backend and a local (Ollama)
// backend, plus the provider registry pattern the teacher uses for its
// model providers.
package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/Sourabsb/doctalk/internal/types"
)

// ContextDoc is one piece of retrieved context the provider must cite
// inline as [n] in the order given.
type ContextDoc struct {
	Content string
	Source  string
}

// GenerateResult is the uniform output of a non-streaming generation.
type GenerateResult struct {
	Response     string
	Sources      []string
	SourceChunks []string
}

// StreamToken is one increment of a streamed generation.
type StreamToken struct {
	Content string
	Done    bool
	Err     error
}

// Provider is C7's uniform contract. All three operations return UTF-8
// text; none perform tool use.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string, contextDocs []ContextDoc, recent []types.ChatMessage, auxContext string) (*GenerateResult, error)
	GenerateStream(ctx context.Context, prompt string, contextDocs []ContextDoc, recent []types.ChatMessage, auxContext string) (<-chan StreamToken, error)
	GenerateSimple(ctx context.Context, prompt string) (string, error)
}

// registry is the process-scoped provider lookup, grounded on the
// teacher's provider.Register/Get/List pattern.
var (
	registryMu sync.RWMutex
	registry   = map[string]Provider{}
)

// Register makes a provider available under name, keyed by llmMode
// ("cloud"/"local") in the default registry convention.
func Register(name string, provider Provider) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = provider
}

// Get returns a registered provider by name.
func Get(name string) (Provider, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	p, ok := registry[name]
	return p, ok
}

// List returns every registered provider name.
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// GetOrDefault returns the provider for mode, falling back to
// defaultName when mode has none registered.
func GetOrDefault(mode types.LLMMode, defaultName string) (Provider, error) {
	if p, ok := Get(string(mode)); ok {
		return p, nil
	}
	if p, ok := Get(defaultName); ok {
		return p, nil
	}
	return nil, fmt.Errorf("no provider registered for mode %q or default %q", mode, defaultName)
}
