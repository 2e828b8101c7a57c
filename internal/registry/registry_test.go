package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sourabsb/doctalk/internal/config"
	"github.com/Sourabsb/doctalk/internal/types"
)

func testConfig() *config.Config {
	return &config.Config{
		Providers: config.ProvidersConfig{
			DefaultLLMMode: "cloud",
			OllamaHost:     "http://127.0.0.1:11434",
			OllamaModel:    "llama3:8b-instruct-q4_K_M",
			CloudAPIKey:    "test-key",
			CloudBaseURL:   "https://api.openai.com/v1",
			CloudModel:     "gpt-4o-mini",
		},
	}
}

func TestEmbedderFor_CachesSingletonPerProfile(t *testing.T) {
	r := New(testConfig())

	first, err := r.EmbedderFor("", types.LLMModeCloud)
	require.NoError(t, err)

	second, err := r.EmbedderFor("", types.LLMModeCloud)
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestEmbedderFor_DistinctProfilesGetDistinctInstances(t *testing.T) {
	r := New(testConfig())

	cloud, err := r.EmbedderFor("", types.LLMModeCloud)
	require.NoError(t, err)

	local, err := r.EmbedderFor("", types.LLMModeLocal)
	require.NoError(t, err)

	assert.NotSame(t, cloud, local)
}

func TestProviderFor_CloudModelOverrideKeyedSeparately(t *testing.T) {
	r := New(testConfig())

	defaultProvider, err := r.ProviderFor(types.LLMModeCloud, "")
	require.NoError(t, err)

	overridden, err := r.ProviderFor(types.LLMModeCloud, "gpt-4o")
	require.NoError(t, err)

	assert.NotSame(t, defaultProvider, overridden)

	again, err := r.ProviderFor(types.LLMModeCloud, "gpt-4o")
	require.NoError(t, err)
	assert.Same(t, overridden, again)
}

func TestProviderFor_LocalModeIgnoresCloudModelOverride(t *testing.T) {
	r := New(testConfig())

	first, err := r.ProviderFor(types.LLMModeLocal, "whatever")
	require.NoError(t, err)

	second, err := r.ProviderFor(types.LLMModeLocal, "")
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestBuildContainer_ResolvesRegistry(t *testing.T) {
	container, err := BuildContainer(testConfig())
	require.NoError(t, err)

	err = container.Invoke(func(r *Registry) {
		assert.NotNil(t, r)
	})
	require.NoError(t, err)
}
