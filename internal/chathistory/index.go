// Package chathistory implements C4: an in-memory, per-request index
// over the active-branch conversation history, used by the hybrid
// retriever to surface relevant past Q/A pairs alongside document
// chunks.
package chathistory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Sourabsb/doctalk/internal/chunker"
	"github.com/Sourabsb/doctalk/internal/embedding"
	"github.com/Sourabsb/doctalk/internal/types"
)

const epsilon = 1e-8

const assistantTruncateChars = 500

type unit struct {
	content   string
	userQuery string
	vec       []float32
}

// Index is a one-shot, built-per-request index over chat history Q/A
// units. It is cheap enough to rebuild on every chat turn rather than
// persisted, since the active branch changes with every message.
type Index struct {
	embedder embedding.Embedder
	chunker  *chunker.Chunker
	units    []unit
}

// New builds the index from the active-branch history: each user message
// is paired with the assistant message immediately following it
// (truncated to 500 chars), chunked at (300, 50), and embedded with the
// conversation's embedder.
func New(ctx context.Context, embedder embedding.Embedder, history []types.ChatMessage) (*Index, error) {
	idx := &Index{
		embedder: embedder,
		chunker:  chunker.New(300, 50),
	}

	for i := 0; i < len(history); i++ {
		msg := history[i]
		if msg.Role != types.RoleUser {
			continue
		}

		userContent := msg.Content
		assistantContent := ""
		if i+1 < len(history) && history[i+1].Role == types.RoleAssistant {
			assistantContent = history[i+1].Content
			i++
		}
		if len(assistantContent) > assistantTruncateChars {
			assistantContent = assistantContent[:assistantTruncateChars]
		}

		combined := fmt.Sprintf("User asked: %s\n\nAssistant answered: %s", userContent, assistantContent)
		for _, chunk := range idx.chunker.Split("chat_history", combined) {
			vec, err := embedder.Embed(ctx, chunk.Content)
			if err != nil {
				return nil, fmt.Errorf("embed chat history unit: %w", err)
			}
			idx.units = append(idx.units, unit{
				content:   chunk.Content,
				userQuery: userContent,
				vec:       vec,
			})
		}
	}

	return idx, nil
}

// Empty reports whether there are any Q/A units to search.
func (idx *Index) Empty() bool { return len(idx.units) == 0 }

// Search returns the top-k units by cosine similarity to queryVec,
// deduplicated by the whole trimmed originating user query; units whose
// queries share only a prefix are not merged.
func (idx *Index) Search(queryVec []float32, k int) []types.ChatHistoryUnit {
	if len(idx.units) == 0 || k <= 0 {
		return nil
	}

	scored := make([]types.ChatHistoryUnit, 0, len(idx.units))
	for _, u := range idx.units {
		scored = append(scored, types.ChatHistoryUnit{
			Content:   u.content,
			UserQuery: u.userQuery,
			Score:     cosineSimilarity(queryVec, u.vec),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	out := make([]types.ChatHistoryUnit, 0, k)
	seen := map[string]struct{}{}
	for _, s := range scored {
		if len(out) >= k {
			break
		}
		key := strings.TrimSpace(s.UserQuery)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

// cosineSimilarity is epsilon-guarded so an empty/zero embedding never
// divides by zero.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA)*math.Sqrt(normB) + epsilon
	return dot / denom
}
