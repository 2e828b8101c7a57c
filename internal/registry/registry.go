// Package registry is the process-scoped singleton home for embedders and
// LLM providers, addressing spec §9's design note: "load expensive model
// once per profile... model it as a process-scoped registry created at
// startup, passed by handle into components. Locking is only for
// lazy-init." cmd/server builds it once at process startup with New and
// passes the *Registry by handle to the components that resolve embedders
// or providers.
package registry

import (
	"fmt"
	"sync"

	"go.uber.org/dig"

	"github.com/Sourabsb/doctalk/internal/config"
	"github.com/Sourabsb/doctalk/internal/embedding"
	"github.com/Sourabsb/doctalk/internal/llm"
	"github.com/Sourabsb/doctalk/internal/types"
)

// Registry lazily constructs and caches one Embedder per profile tag and
// one Provider per (mode, model) pair, each built exactly once.
type Registry struct {
	cfg *config.Config

	embeddersMu sync.Mutex
	embedders   map[string]*embedderSlot

	providersMu sync.Mutex
	providers   map[string]*providerSlot
}

type embedderSlot struct {
	once sync.Once
	inst embedding.Embedder
	err  error
}

type providerSlot struct {
	once sync.Once
	inst llm.Provider
	err  error
}

// New builds an empty Registry over cfg. BuildContainer offers the same
// construction through dig.
func New(cfg *config.Config) *Registry {
	return &Registry{
		cfg:       cfg,
		embedders: make(map[string]*embedderSlot),
		providers: make(map[string]*providerSlot),
	}
}

// BuildContainer wires a dig.Container with two constructors: config in,
// *Registry out. cmd/server does not use it; it calls New directly and
// builds its other singletons (DB handle, vector store, stores) by hand.
func BuildContainer(cfg *config.Config) (*dig.Container, error) {
	c := dig.New()
	if err := c.Provide(func() *config.Config { return cfg }); err != nil {
		return nil, fmt.Errorf("registry: provide config: %w", err)
	}
	if err := c.Provide(New); err != nil {
		return nil, fmt.Errorf("registry: provide registry: %w", err)
	}
	return c, nil
}

// EmbedderFor returns the singleton Embedder for profile, building it
// lazily under a one-shot lock on first use. An empty profile falls back
// to the mode's default tag ("cloud"/"local").
func (r *Registry) EmbedderFor(profile string, mode types.LLMMode) (embedding.Embedder, error) {
	if profile == "" {
		profile = string(mode)
	}

	r.embeddersMu.Lock()
	slot, ok := r.embedders[profile]
	if !ok {
		slot = &embedderSlot{}
		r.embedders[profile] = slot
	}
	r.embeddersMu.Unlock()

	slot.once.Do(func() {
		slot.inst, slot.err = embedding.New(r.embedderConfig(profile, mode))
	})
	return slot.inst, slot.err
}

func (r *Registry) embedderConfig(profile string, mode types.LLMMode) embedding.Config {
	p := r.cfg.Providers
	if mode == types.LLMModeLocal {
		return embedding.Config{Mode: types.LLMModeLocal, BaseURL: p.OllamaHost, Model: p.OllamaModel, Profile: profile}
	}
	return embedding.Config{Mode: types.LLMModeCloud, BaseURL: p.CloudBaseURL, APIKey: p.CloudAPIKey, Model: p.CloudModel, Profile: profile}
}

// ProviderFor returns the singleton Provider for (mode, cloudModel),
// building it lazily. cloudModel overrides the configured default only in
// cloud mode; local mode always uses the configured Ollama model, since a
// conversation cannot swap local models mid-flight.
func (r *Registry) ProviderFor(mode types.LLMMode, cloudModel string) (llm.Provider, error) {
	p := r.cfg.Providers
	key := string(mode)
	model := p.OllamaModel
	if mode != types.LLMModeLocal {
		if cloudModel != "" {
			model = cloudModel
		} else {
			model = p.CloudModel
		}
		key = "cloud:" + model
	}

	r.providersMu.Lock()
	slot, ok := r.providers[key]
	if !ok {
		slot = &providerSlot{}
		r.providers[key] = slot
	}
	r.providersMu.Unlock()

	slot.once.Do(func() {
		if mode == types.LLMModeLocal {
			slot.inst, slot.err = llm.NewLocalProvider(p.OllamaHost, model)
			return
		}
		slot.inst = llm.NewCloudProvider(p.CloudAPIKey, p.CloudBaseURL, model)
	})
	return slot.inst, slot.err
}
