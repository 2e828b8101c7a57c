// Package vectorstore implements C3: a Qdrant-backed vector index with
// idempotent upsert, conversation/document-scoped search, and the
// length-aware rescoring the spec requires before results are returned.
package vectorstore

import (
	"context"

	"github.com/Sourabsb/doctalk/internal/types"
)

// Store is the C3 contract: upsert, search and bulk delete, all scoped
// to a conversation.
type Store interface {
	Upsert(ctx context.Context, convID int64, docID int64, chunks []types.Chunk, vectors [][]float32) error
	Search(ctx context.Context, convID int64, queryVec []float32, k int, activeDocIDs []int64) ([]types.ScoredChunk, error)
	DeleteByDoc(ctx context.Context, convID, docID int64) (string, error)
	DeleteByConversation(ctx context.Context, convID int64) (string, error)
}
