package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sourabsb/doctalk/internal/config"
	"github.com/Sourabsb/doctalk/internal/types"
)

func newTestRetriever() *Retriever {
	return New(nil, nil, config.RetrievalConfig{
		CloudDocK: 10, CloudChatK: 3, CloudRecentN: 8,
		LocalDocK: 10, LocalChatK: 2, LocalRecentN: 4,
	})
}

func TestResolveParams_SummaryIntentOverridesMode(t *testing.T) {
	r := newTestRetriever()

	params := r.ResolveParams(types.LLMModeCloud, "Can you give me a brief SUMMARY of chapter 3?")
	assert.Equal(t, types.RetrievalParams{DocK: 20, ChatK: 0, RecentN: 4}, params)
}

func TestResolveParams_ModeDefaults(t *testing.T) {
	r := newTestRetriever()

	cloud := r.ResolveParams(types.LLMModeCloud, "what does chapter 2 say about osmosis?")
	assert.Equal(t, 10, cloud.DocK)
	assert.Equal(t, 3, cloud.ChatK)
	assert.Equal(t, 8, cloud.RecentN)

	local := r.ResolveParams(types.LLMModeLocal, "what does chapter 2 say about osmosis?")
	assert.Equal(t, 2, local.ChatK)
	assert.Equal(t, 4, local.RecentN)
}

func TestCombinedContext_IncludesActiveDocNote(t *testing.T) {
	r := newTestRetriever()

	out := r.combinedContext(
		[]types.ScoredChunk{{Content: "osmosis moves water", Metadata: types.ChunkMetadata{Source: "bio.txt"}}},
		nil,
		"bio2.txt is currently disabled",
	)

	assert.Contains(t, out, "Relevant Document Information")
	assert.Contains(t, out, "bio2.txt is currently disabled")
}
