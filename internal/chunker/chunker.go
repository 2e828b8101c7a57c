// Package chunker splits document and chat-history text into
// fixed-target-size, overlapping chunks using a recursive separator
// strategy, the same shape as the Python service's
// RecursiveCharacterTextSplitter but re-expressed over Go strings.
package chunker

import (
	"strings"

	"github.com/Sourabsb/doctalk/internal/types"
)

// separators is tried in priority order: paragraph boundary first, then
// progressively finer-grained breakpoints, falling back to raw character
// slicing only when nothing coarser fits inside Size.
var separators = []string{"\n\n", "\n", ". ", " "}

// Chunker splits text into overlapping chunks of a target size.
type Chunker struct {
	Size    int
	Overlap int
}

// New returns a Chunker with the given target size and overlap. Overlap
// must be smaller than Size; the §4.1 defaults are 800/128 for documents
// and 300/50 for chat-history units (internal/chathistory passes 300/50
// directly rather than reading them from internal/config).
func New(size, overlap int) *Chunker {
	if overlap >= size {
		overlap = size / 4
	}
	return &Chunker{Size: size, Overlap: overlap}
}

// Split breaks text into chunks, each tagged with a stable chunkIndex and
// the given source tag. Metadata is deterministic across reruns for
// identical input.
func (c *Chunker) Split(source, text string) []types.Chunk {
	pieces := c.recursiveSplit(text, separators)

	chunks := make([]types.Chunk, 0, len(pieces))
	for i, p := range pieces {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		chunks = append(chunks, types.Chunk{
			ChunkIndex: i,
			Content:    p,
			Metadata:   types.ChunkMetadata{Source: source, Type: "document"},
		})
	}
	return chunks
}

// recursiveSplit implements the separator priority list: split on the
// coarsest separator that yields pieces within Size, recursing into any
// piece still too long, then re-merges adjacent small pieces up to Size
// with Overlap carried between them.
func (c *Chunker) recursiveSplit(text string, seps []string) []string {
	if len(text) <= c.Size {
		return []string{text}
	}

	var sep string
	var rest []string
	for i, s := range seps {
		if strings.Contains(text, s) {
			sep = s
			rest = seps[i+1:]
			break
		}
	}

	var parts []string
	if sep == "" {
		// No usable separator left: fall back to hard character slicing.
		parts = hardSlice(text, c.Size)
	} else {
		for _, part := range strings.Split(text, sep) {
			if len(part) > c.Size {
				parts = append(parts, c.recursiveSplit(part, rest)...)
			} else {
				parts = append(parts, part)
			}
		}
	}

	return c.merge(parts, separatorJoin(sep))
}

func separatorJoin(sep string) string {
	if sep == "" {
		return ""
	}
	return sep
}

// merge coalesces adjacent small parts into chunks close to Size,
// carrying Overlap characters from the tail of one chunk into the head
// of the next.
func (c *Chunker) merge(parts []string, joiner string) []string {
	var out []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		out = append(out, current.String())
		current.Reset()
	}

	for _, part := range parts {
		candidateLen := current.Len() + len(joiner) + len(part)
		if current.Len() > 0 && candidateLen > c.Size {
			flush()
			if c.Overlap > 0 && len(out) > 0 {
				tail := out[len(out)-1]
				if len(tail) > c.Overlap {
					tail = tail[len(tail)-c.Overlap:]
				}
				current.WriteString(tail)
				current.WriteString(joiner)
			}
		}
		if current.Len() > 0 {
			current.WriteString(joiner)
		}
		current.WriteString(part)
	}
	flush()

	return out
}

// hardSlice splits text into fixed-width rune windows when no separator
// applies — the last-resort case the spec calls out ("never exceeding S
// unless a single token cannot be split").
func hardSlice(text string, size int) []string {
	var out []string
	runes := []rune(text)
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
	}
	return out
}
