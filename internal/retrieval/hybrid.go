// Package retrieval implements C5: the hybrid retriever that combines
// vector-store document chunks, relevant past chat history, and verbatim
// recent context into a single prompt-ready RetrievalContext.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Sourabsb/doctalk/internal/chathistory"
	"github.com/Sourabsb/doctalk/internal/config"
	"github.com/Sourabsb/doctalk/internal/embedding"
	"github.com/Sourabsb/doctalk/internal/logger"
	"github.com/Sourabsb/doctalk/internal/types"
	"github.com/Sourabsb/doctalk/internal/vectorstore"
)

// summaryKeywords triggers the docK=20/chatK=0/recentN=4 override. Matched
// case-insensitively against the Unicode-folded query.
var summaryKeywords = []string{
	"summarize", "summary", "summarise", "brief", "overview",
	"gist", "main points", "key points", "highlights",
}

// ChunkFallbackReader supplies the SQL-backed fallback scan used when the
// vector store returns nothing for a conversation (e.g. not yet indexed).
type ChunkFallbackReader interface {
	ListByConversation(ctx context.Context, convID int64, limit int) ([]types.Chunk, error)
}

// Retriever is C5.
type Retriever struct {
	store        vectorstore.Store
	fallback     ChunkFallbackReader
	foldCaser    cases.Caser
	retrievalCfg config.RetrievalConfig
}

// New builds a Retriever over the given vector store and SQL fallback
// reader.
func New(store vectorstore.Store, fallback ChunkFallbackReader, retrievalCfg config.RetrievalConfig) *Retriever {
	return &Retriever{
		store:        store,
		fallback:     fallback,
		foldCaser:    cases.Fold(),
		retrievalCfg: retrievalCfg,
	}
}

// ResolveParams applies the mode-dependent defaults and the summary-intent
// override from §4.5.
func (r *Retriever) ResolveParams(mode types.LLMMode, query string) types.RetrievalParams {
	if r.isSummaryIntent(query) {
		return types.RetrievalParams{DocK: 20, ChatK: 0, RecentN: 4}
	}
	if mode == types.LLMModeLocal {
		return types.RetrievalParams{
			DocK:    r.retrievalCfg.LocalDocK,
			ChatK:   r.retrievalCfg.LocalChatK,
			RecentN: r.retrievalCfg.LocalRecentN,
		}
	}
	return types.RetrievalParams{
		DocK:    r.retrievalCfg.CloudDocK,
		ChatK:   r.retrievalCfg.CloudChatK,
		RecentN: r.retrievalCfg.CloudRecentN,
	}
}

func (r *Retriever) isSummaryIntent(query string) bool {
	folded := r.foldCaser.String(query)
	for _, kw := range summaryKeywords {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	return false
}

// BuildContext assembles the structured hits and the combined prompt
// string for a single chat turn.
func (r *Retriever) BuildContext(
	ctx context.Context,
	convID int64,
	query string,
	queryVec []float32,
	embedder embedding.Embedder,
	history []types.ChatMessage,
	activeDocIDs []int64,
	activeDocNote string,
	params types.RetrievalParams,
) (*types.RetrievalContext, error) {
	docChunks, err := r.store.Search(ctx, convID, queryVec, params.DocK, activeDocIDs)
	if err != nil {
		logger.PipelineError(ctx, "retrieval", "vector_search", err)
		return nil, err
	}
	if len(docChunks) == 0 && r.fallback != nil {
		docChunks, err = r.fallbackChunks(ctx, convID, params.DocK)
		if err != nil {
			logger.PipelineError(ctx, "retrieval", "fallback_scan", err)
		}
	}

	var relevantHistory []types.ChatHistoryUnit
	if len(history) > params.RecentN && params.ChatK > 0 {
		idx, err := chathistory.New(ctx, embedder, history)
		if err != nil {
			logger.PipelineError(ctx, "retrieval", "history_index", err)
		} else if !idx.Empty() {
			relevantHistory = idx.Search(queryVec, params.ChatK)
		}
	}

	recent := history
	if len(recent) > params.RecentN {
		recent = recent[len(recent)-params.RecentN:]
	}

	combined := r.combinedContext(docChunks, relevantHistory, activeDocNote)

	return &types.RetrievalContext{
		DocumentChunks:      docChunks,
		RelevantChatHistory: relevantHistory,
		RecentContext:       recent,
		CombinedContext:     combined,
	}, nil
}

// fallbackChunks returns the first docK SQL-backed chunks with a flat
// fallback score, so the LLM is never starved of context when the vector
// store has not yet been populated for this conversation.
func (r *Retriever) fallbackChunks(ctx context.Context, convID int64, docK int) ([]types.ScoredChunk, error) {
	chunks, err := r.fallback.ListByConversation(ctx, convID, docK)
	if err != nil {
		return nil, err
	}

	out := make([]types.ScoredChunk, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, types.ScoredChunk{
			Content:       c.Content,
			Metadata:      c.Metadata,
			DocID:         c.DocID,
			ChunkIndex:    c.ChunkIndex,
			RawScore:      0.5,
			AdjustedScore: 0.5,
		})
	}
	return out, nil
}

// combinedContext renders the fixed template described in §4.5: document
// sources first, then deduplicated relevant past Q&A, then (per the
// supplemented active/inactive-document note) which documents the user
// disabled.
func (r *Retriever) combinedContext(
	docChunks []types.ScoredChunk,
	history []types.ChatHistoryUnit,
	activeDocNote string,
) string {
	var parts []string

	if len(docChunks) > 0 {
		var b strings.Builder
		b.WriteString("### Relevant Document Information:\n")
		for i, c := range docChunks {
			source := c.Metadata.Source
			if source == "" {
				source = "Unknown"
			}
			fmt.Fprintf(&b, "\n[Source %d: %s]\n%s\n", i+1, source, c.Content)
		}
		parts = append(parts, b.String())
	}

	if len(history) > 0 {
		var b strings.Builder
		b.WriteString("### Relevant Past Conversations:\n")
		for _, h := range history {
			fmt.Fprintf(&b, "\n%s\n", h.Content)
		}
		parts = append(parts, b.String())
	}

	if activeDocNote != "" {
		parts = append(parts, "### Document Availability:\n"+activeDocNote)
	}

	return strings.Join(parts, "\n\n")
}
