// Package hierarchical implements C10: stratified chunk sampling plus
// batched summarize/flashcard/mindmap generation with a merge step, used
// whenever a document's chunk set is too large for a single LLM prompt.
package hierarchical

import (
	"math/rand"

	"github.com/Sourabsb/doctalk/internal/types"
)

// batchSize is the partition size for batched generation (§4.10).
const batchSize = 6

// StratifiedSample picks target chunks out of chunks: a head slice, a
// tail slice, and a uniform-random sample of the middle, deterministic
// given (len(chunks), target, seed). If target >= len(chunks) every
// chunk is returned.
func StratifiedSample(chunks []types.Chunk, target int, seed int64) []types.Chunk {
	n := len(chunks)
	if n == 0 || target <= 0 {
		return nil
	}
	if target >= n {
		return chunks
	}

	h := edgeCount(target, n)
	t := h
	if h+t > n {
		t = n - h
	}

	head := chunks[:h]
	tail := chunks[n-t:]
	middlePool := chunks[h : n-t]

	middleCount := target - h - t
	if middleCount < 0 {
		middleCount = 0
	}
	middle := uniformSample(middlePool, middleCount, seed)

	out := make([]types.Chunk, 0, h+len(middle)+t)
	out = append(out, head...)
	out = append(out, middle...)
	out = append(out, tail...)
	return out
}

// edgeCount implements min(max(1, floor(0.1*T)), floor(N/3)), shared by
// the head and tail bounds.
func edgeCount(target, n int) int {
	edge := target / 10
	if edge < 1 {
		edge = 1
	}
	if max := n / 3; edge > max {
		edge = max
	}
	if edge < 0 {
		edge = 0
	}
	return edge
}

// uniformSample deterministically samples count chunks from pool given
// seed, preserving chunks' original relative order so downstream batching
// still reads front-to-back.
func uniformSample(pool []types.Chunk, count int, seed int64) []types.Chunk {
	if count <= 0 || len(pool) == 0 {
		return nil
	}
	if count >= len(pool) {
		return pool
	}

	rng := rand.New(rand.NewSource(seed))
	idx := rng.Perm(len(pool))[:count]

	picked := make([]int, len(idx))
	copy(picked, idx)
	sortInts(picked)

	out := make([]types.Chunk, 0, count)
	for _, i := range picked {
		out = append(out, pool[i])
	}
	return out
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}

// partition splits chunks into batches of batchSize, the unit the
// batched summarize/flashcard/mindmap prompts operate over.
func partition(chunks []types.Chunk) [][]types.Chunk {
	var batches [][]types.Chunk
	for i := 0; i < len(chunks); i += batchSize {
		end := i + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batches = append(batches, chunks[i:end])
	}
	return batches
}

func joinContent(chunks []types.Chunk) string {
	var total int
	for _, c := range chunks {
		total += len(c.Content) + 1
	}
	buf := make([]byte, 0, total)
	for _, c := range chunks {
		buf = append(buf, c.Content...)
		buf = append(buf, '\n')
	}
	return string(buf)
}
