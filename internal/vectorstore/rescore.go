package vectorstore

import (
	"sort"

	"github.com/Sourabsb/doctalk/internal/types"
)

// lengthBoost implements the §4.3 length-aware rescoring: short,
// index-like chunks are penalized slightly, mid-length chunks are
// unaffected, and long, detailed chunks get a small capped boost.
func lengthBoost(contentLen int) float64 {
	switch {
	case contentLen < 100:
		return -0.05
	case contentLen < 200:
		return 0
	case contentLen < 400:
		return 0.03
	default:
		boost := float64(contentLen) / 10000
		if boost > 0.08 {
			boost = 0.08
		}
		return boost
	}
}

// rescoreAndSort adjusts every hit's score and re-sorts descending by
// AdjustedScore, breaking ties by lower ChunkIndex first.
func rescoreAndSort(hits []types.ScoredChunk) []types.ScoredChunk {
	for i := range hits {
		hits[i].AdjustedScore = hits[i].RawScore + lengthBoost(len(hits[i].Content))
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].AdjustedScore == hits[j].AdjustedScore {
			return hits[i].ChunkIndex < hits[j].ChunkIndex
		}
		return hits[i].AdjustedScore > hits[j].AdjustedScore
	})
	return hits
}
