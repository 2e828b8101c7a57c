package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sourabsb/doctalk/internal/types"
)

func TestLengthBoost_Buckets(t *testing.T) {
	assert.Equal(t, -0.05, lengthBoost(50))
	assert.Equal(t, 0.0, lengthBoost(150))
	assert.Equal(t, 0.03, lengthBoost(300))
	assert.InDelta(t, 0.08, lengthBoost(100000), 1e-9)
	assert.InDelta(t, 0.05, lengthBoost(500), 1e-9)
}

func TestRescoreAndSort_HigherAdjustedScoreWinsOverChunkIndex(t *testing.T) {
	hits := []types.ScoredChunk{
		{Content: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", RawScore: 0.5, ChunkIndex: 2},
		{Content: "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", RawScore: 0.47, ChunkIndex: 0},
	}

	out := rescoreAndSort(hits)
	assert.Equal(t, 2, out[0].ChunkIndex)
}

func TestRescoreAndSort_EqualAdjustedBreaksTieByLowerChunkIndex(t *testing.T) {
	hits := []types.ScoredChunk{
		{Content: "same length content here", RawScore: 0.5, ChunkIndex: 3},
		{Content: "same length content word", RawScore: 0.5, ChunkIndex: 1},
	}

	out := rescoreAndSort(hits)
	assert.Equal(t, 1, out[0].ChunkIndex)
	assert.Equal(t, 3, out[1].ChunkIndex)
}
