package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_RespectsTargetSize(t *testing.T) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 200)
	c := New(800, 128)

	chunks := c.Split("doc.txt", text)
	require.NotEmpty(t, chunks)

	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.Content), 800+128)
		assert.Equal(t, "doc.txt", chunk.Metadata.Source)
	}
}

func TestSplit_StableAcrossReruns(t *testing.T) {
	text := "Paragraph one.\n\nParagraph two has more words in it than the first.\n\nParagraph three."
	c := New(40, 10)

	first := c.Split("a.txt", text)
	second := c.Split("a.txt", text)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Content, second[i].Content)
		assert.Equal(t, first[i].ChunkIndex, second[i].ChunkIndex)
	}
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	c := New(800, 128)
	chunks := c.Split("note.txt", "short text")

	require.Len(t, chunks, 1)
	assert.Equal(t, "short text", chunks[0].Content)
}
