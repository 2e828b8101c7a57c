// Package document persists conversations, documents and chunks — the
// relational half of upload/ingest, and the SQL fallback reader
// HybridRetriever falls back to when the vector store is empty.
package document

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/Sourabsb/doctalk/internal/errors"
	"github.com/Sourabsb/doctalk/internal/types"
)

// Store is the gorm-backed repository for conversations/documents/chunks.
type Store struct {
	db *gorm.DB
}

// New wraps a gorm.DB already migrated with branch.AutoMigrate.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// CreateConversation creates a new conversation for ownerUserID; the
// handler layer calls it from POST /conversations, before any upload.
func (s *Store) CreateConversation(ctx context.Context, ownerUserID, title string, mode types.LLMMode, embeddingProfile string) (*types.Conversation, error) {
	now := time.Now()
	conv := &types.Conversation{
		OwnerUserID:      ownerUserID,
		Title:            title,
		LLMMode:          mode,
		EmbeddingProfile: embeddingProfile,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.db.WithContext(ctx).Create(conv).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "create conversation", err)
	}
	return conv, nil
}

// GetConversation fetches a conversation, enforcing ownership.
func (s *Store) GetConversation(ctx context.Context, convID int64, ownerUserID string) (*types.Conversation, error) {
	var conv types.Conversation
	err := s.db.WithContext(ctx).Where("conv_id = ? AND owner_user_id = ?", convID, ownerUserID).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("conversation not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "get conversation", err)
	}
	return &conv, nil
}

// TouchConversation bumps updatedAt; called in the same transaction that
// persists the assistant message (§5 ordering guarantee).
func (s *Store) TouchConversation(ctx context.Context, tx *gorm.DB, convID int64) error {
	return tx.WithContext(ctx).
		Model(&types.Conversation{}).
		Where("conv_id = ?", convID).
		Update("updated_at", time.Now()).Error
}

// TouchConversationAutocommit bumps updatedAt outside of any caller-owned
// transaction, for callers (the orchestrator) whose assistant-message
// write already committed through a different store.
func (s *Store) TouchConversationAutocommit(ctx context.Context, convID int64) error {
	return s.TouchConversation(ctx, s.db, convID)
}

// DeleteConversation cascades to documents, chunks, messages and study
// artifacts (§3 lifecycle), inside a single transaction. Vector-store
// cleanup is the caller's responsibility (an upload failure, by contrast,
// cleans up only the failed document's vectors via DeleteByDoc).
func (s *Store) DeleteConversation(ctx context.Context, convID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conv_id = ?", convID).Delete(&types.Chunk{}).Error; err != nil {
			return err
		}
		if err := tx.Where("conv_id = ?", convID).Delete(&types.Document{}).Error; err != nil {
			return err
		}
		if err := tx.Where("conv_id = ?", convID).Delete(&types.ChatMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("conv_id = ?", convID).Delete(&types.Flashcard{}).Error; err != nil {
			return err
		}
		if err := tx.Where("conv_id = ?", convID).Delete(&types.MindMap{}).Error; err != nil {
			return err
		}
		return tx.Where("conv_id = ?", convID).Delete(&types.Conversation{}).Error
	})
}

// CreateDocument registers a decoded source before its chunks are
// embedded and upserted.
func (s *Store) CreateDocument(ctx context.Context, convID int64, filename string, fullText string, kind types.DocKind) (*types.Document, error) {
	doc := &types.Document{
		ConvID:     convID,
		Filename:   filename,
		FullText:   fullText,
		Kind:       kind,
		Active:     true,
		UploadedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(doc).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "create document", err)
	}
	return doc, nil
}

// DeleteDocument removes a document row and its chunks together, the
// rollback path an upload failure takes after the vector-store side has
// already been cleaned up (§7's upload failure policy).
func (s *Store) DeleteDocument(ctx context.Context, docID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("doc_id = ?", docID).Delete(&types.Chunk{}).Error; err != nil {
			return err
		}
		return tx.Where("doc_id = ?", docID).Delete(&types.Document{}).Error
	})
}

// SetDocumentActive flips the active flag (§3: active=false hides the
// doc from retrieval but keeps its chunks).
func (s *Store) SetDocumentActive(ctx context.Context, docID int64, active bool) error {
	return s.db.WithContext(ctx).
		Model(&types.Document{}).
		Where("doc_id = ?", docID).
		Update("active", active).Error
}

// ListActiveDocIDs returns the ids of documents currently eligible for
// retrieval, for the VectorStore.Search activeDocIds filter.
func (s *Store) ListActiveDocIDs(ctx context.Context, convID int64) ([]int64, error) {
	var ids []int64
	err := s.db.WithContext(ctx).
		Model(&types.Document{}).
		Where("conv_id = ? AND active = ?", convID, true).
		Pluck("doc_id", &ids).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "list active docs", err)
	}
	return ids, nil
}

// ListInactiveDocNames supports the supplemented active/inactive context
// note fed to the LLM (SPEC_FULL §SUPPLEMENTED FEATURES).
func (s *Store) ListInactiveDocNames(ctx context.Context, convID int64) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Model(&types.Document{}).
		Where("conv_id = ? AND active = ?", convID, false).
		Pluck("filename", &names).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "list inactive docs", err)
	}
	return names, nil
}

// CreateChunks persists the Chunker's output for a document, assigning
// chunkIds by auto-increment; chunkIndex is caller-supplied and monotone
// within docID per §3.
func (s *Store) CreateChunks(ctx context.Context, chunks []types.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).CreateInBatches(chunks, 100).Error; err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "create chunks", err)
	}
	return nil
}

// DeleteChunksByDoc removes a document's chunks, e.g. on re-upload.
func (s *Store) DeleteChunksByDoc(ctx context.Context, docID int64) error {
	return s.db.WithContext(ctx).Where("doc_id = ?", docID).Delete(&types.Chunk{}).Error
}

// ListByConversation implements retrieval.ChunkFallbackReader: the first
// limit chunks for a conversation, ordered by chunkIndex, used only when
// the vector store returns nothing.
func (s *Store) ListByConversation(ctx context.Context, convID int64, limit int) ([]types.Chunk, error) {
	var chunks []types.Chunk
	err := s.db.WithContext(ctx).
		Where("conv_id = ?", convID).
		Order("chunk_index ASC").
		Limit(limit).
		Find(&chunks).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "list chunks fallback", err)
	}
	return chunks, nil
}

// ListAllChunks returns every chunk for a conversation across active
// documents, in stable chunkIndex order — the input to C10's stratified
// sampling.
func (s *Store) ListAllChunks(ctx context.Context, convID int64, activeDocIDs []int64) ([]types.Chunk, error) {
	if len(activeDocIDs) == 0 {
		return nil, nil
	}
	var chunks []types.Chunk
	q := s.db.WithContext(ctx).Where("conv_id = ? AND doc_id IN ?", convID, activeDocIDs)
	if err := q.Order("chunk_index ASC").Find(&chunks).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "list all chunks", err)
	}
	return chunks, nil
}

// ListFlashcardFronts returns every existing card front for a conversation,
// the negative-example list C10 passes to the generator so regenerations
// do not repeat cards (SPEC_FULL SUPPLEMENTED FEATURES).
func (s *Store) ListFlashcardFronts(ctx context.Context, convID int64) ([]string, error) {
	var fronts []string
	err := s.db.WithContext(ctx).
		Model(&types.Flashcard{}).
		Where("conv_id = ?", convID).
		Order("order_index ASC").
		Pluck("front", &fronts).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "list flashcard fronts", err)
	}
	return fronts, nil
}

// ListFlashcards returns a conversation's full deck in display order.
func (s *Store) ListFlashcards(ctx context.Context, convID int64) ([]types.Flashcard, error) {
	var cards []types.Flashcard
	err := s.db.WithContext(ctx).
		Where("conv_id = ?", convID).
		Order("order_index ASC").
		Find(&cards).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "list flashcards", err)
	}
	return cards, nil
}

// AppendFlashcards persists a freshly generated batch after the existing
// deck, continuing OrderIndex rather than overwriting it.
func (s *Store) AppendFlashcards(ctx context.Context, convID int64, cards []types.Flashcard) error {
	if len(cards) == 0 {
		return nil
	}
	var maxIndex int
	if err := s.db.WithContext(ctx).Model(&types.Flashcard{}).
		Where("conv_id = ?", convID).
		Select("COALESCE(MAX(order_index), -1)").Scan(&maxIndex).Error; err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "append flashcards", err)
	}

	now := time.Now()
	rows := make([]types.Flashcard, 0, len(cards))
	for i, c := range cards {
		rows = append(rows, types.Flashcard{
			ConvID:     convID,
			Front:      c.Front,
			Back:       c.Back,
			OrderIndex: maxIndex + 1 + i,
			CreatedAt:  now,
		})
	}
	if err := s.db.WithContext(ctx).CreateInBatches(rows, 50).Error; err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "append flashcards", err)
	}
	return nil
}

// UpsertMindMap replaces a conversation's single mind map, per §4.10's
// "regeneration upserts it rather than appending a new row."
func (s *Store) UpsertMindMap(ctx context.Context, convID int64, title string, nodes []types.MindMapNode) (*types.MindMap, error) {
	now := time.Now()
	var existing types.MindMap
	err := s.db.WithContext(ctx).Where("conv_id = ?", convID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		mm := &types.MindMap{ConvID: convID, Title: title, Nodes: nodes, CreatedAt: now, UpdatedAt: now}
		if err := s.db.WithContext(ctx).Create(mm).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.KindInternal, "create mind map", err)
		}
		return mm, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "get mind map", err)
	}

	existing.Title = title
	existing.Nodes = nodes
	existing.UpdatedAt = now
	if err := s.db.WithContext(ctx).Save(&existing).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "update mind map", err)
	}
	return &existing, nil
}

// GetMindMap returns a conversation's mind map, or nil if none generated yet.
func (s *Store) GetMindMap(ctx context.Context, convID int64) (*types.MindMap, error) {
	var mm types.MindMap
	err := s.db.WithContext(ctx).Where("conv_id = ?", convID).First(&mm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "get mind map", err)
	}
	return &mm, nil
}
