package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sourabsb/doctalk/internal/llm"
	"github.com/Sourabsb/doctalk/internal/types"
)

func TestBuildSourceFrames_IndexesFromOne(t *testing.T) {
	chunks := []types.ScoredChunk{
		{Content: "first", Metadata: types.ChunkMetadata{Source: "a.txt"}},
		{Content: "second", Metadata: types.ChunkMetadata{Source: "b.txt"}},
	}

	sources, frames := buildSourceFrames(chunks)

	assert.Equal(t, []string{"a.txt", "b.txt"}, sources)
	require.Len(t, frames, 2)
	assert.Equal(t, 1, frames[0].Index)
	assert.Equal(t, 2, frames[1].Index)
	assert.Equal(t, "second", frames[1].Chunk)
}

func TestBuildSourceFrames_Empty(t *testing.T) {
	sources, frames := buildSourceFrames(nil)
	assert.Empty(t, sources)
	assert.Empty(t, frames)
}

func TestLastN_TruncatesFromTheEnd(t *testing.T) {
	history := []types.ChatMessage{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}

	got := lastN(history, 2)

	require.Len(t, got, 2)
	assert.Equal(t, int64(3), got[0].ID)
	assert.Equal(t, int64(4), got[1].ID)
}

func TestLastN_ShorterThanNReturnsAll(t *testing.T) {
	history := []types.ChatMessage{{ID: 1}}
	assert.Equal(t, history, lastN(history, 5))
}

func TestTotalBytes_SumsContentLength(t *testing.T) {
	chunks := []types.Chunk{{Content: "abc"}, {Content: "de"}}
	assert.Equal(t, 5, totalBytes(chunks))
}

func TestSimulateStream_SplitsOnSpacesAndTerminatesWithDone(t *testing.T) {
	tokens := simulateStream(&llm.GenerateResult{Response: "hello world"})

	var got []llm.StreamToken
	for tok := range tokens {
		got = append(got, tok)
	}

	require.Len(t, got, 3)
	assert.Equal(t, "hello ", got[0].Content)
	assert.Equal(t, "world", got[1].Content)
	assert.True(t, got[2].Done)
}

func TestSimulateStream_EmptyResponseOnlyEmitsDone(t *testing.T) {
	tokens := simulateStream(&llm.GenerateResult{Response: ""})

	var got []llm.StreamToken
	for tok := range tokens {
		got = append(got, tok)
	}

	require.Len(t, got, 1)
	assert.True(t, got[0].Done)
}
