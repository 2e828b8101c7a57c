package hierarchical

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sourabsb/doctalk/internal/types"
)

func makeChunks(n int) []types.Chunk {
	chunks := make([]types.Chunk, n)
	for i := range chunks {
		chunks[i] = types.Chunk{ChunkIndex: i, Content: "chunk"}
	}
	return chunks
}

func TestStratifiedSample_CoversHeadAndTail(t *testing.T) {
	chunks := makeChunks(200)
	sample := StratifiedSample(chunks, 30, 42)

	assert.Equal(t, 0, sample[0].ChunkIndex, "first sampled chunk should be from the first 10%")
	assert.Equal(t, 199, sample[len(sample)-1].ChunkIndex, "last sampled chunk should be from the last 10%")
}

func TestStratifiedSample_Deterministic(t *testing.T) {
	chunks := makeChunks(200)
	a := StratifiedSample(chunks, 30, 7)
	b := StratifiedSample(chunks, 30, 7)
	assert.Equal(t, a, b)
}

func TestStratifiedSample_TargetExceedsCorpus(t *testing.T) {
	chunks := makeChunks(5)
	sample := StratifiedSample(chunks, 50, 1)
	assert.Len(t, sample, 5)
}

func TestDeduplicateFlashcards_Idempotent(t *testing.T) {
	cards := []rawCard{
		{Front: "What is Go?", Back: "A language"},
		{Front: "what is go?", Back: "duplicate front, different case"},
		{Front: "What is a goroutine?", Back: "A lightweight thread"},
	}

	once := DeduplicateFlashcards(cards)
	twice := DeduplicateFlashcards(append(append([]rawCard{}, cards...), cards...))

	assert.Equal(t, once, twice)
	assert.Len(t, once, 2)
}

func TestParseFlashcards_DirectJSON(t *testing.T) {
	raw := `[{"front": "Q1", "back": "A1"}, {"front": "Q2", "back": "A2"}]`
	cards := ParseFlashcards(raw)
	assert.Len(t, cards, 2)
	assert.Equal(t, "Q1", cards[0].Front)
}

func TestParseFlashcards_FencedJSON(t *testing.T) {
	raw := "Here are your cards:\n```json\n[{\"front\": \"Q1\", \"back\": \"A1\"}]\n```"
	cards := ParseFlashcards(raw)
	assert.Len(t, cards, 1)
	assert.Equal(t, "A1", cards[0].Back)
}

func TestParseFlashcards_QAFallback(t *testing.T) {
	raw := "Q: What is the capital of France?\nA: Paris\nQ: What is 2+2?\nA: 4"
	cards := ParseFlashcards(raw)
	assert.Len(t, cards, 2)
	assert.Equal(t, "Paris", cards[0].Back)
}

func TestParseMindmap_FencedJSON(t *testing.T) {
	raw := "```json\n{\"title\": \"Doc\", \"nodes\": [{\"label\": \"Intro\"}]}\n```"
	mm, ok := ParseMindmap(raw)
	assert.True(t, ok)
	assert.Equal(t, "Doc", mm.Title)
	assert.Len(t, mm.Nodes, 1)
}

func TestRenumberNodes_DottedChildren(t *testing.T) {
	nodes := []rawMindmapNode{
		{Label: "A", Children: []rawMindmapNode{{Label: "A1"}, {Label: "A2"}}},
		{Label: "B"},
	}
	out := renumberNodes(nodes, "")
	assert.Equal(t, "1", out[0].ID)
	assert.Equal(t, "1.1", out[0].Children[0].ID)
	assert.Equal(t, "1.2", out[0].Children[1].ID)
	assert.Equal(t, "2", out[1].ID)
}
