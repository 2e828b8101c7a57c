package vectorstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	apperrors "github.com/Sourabsb/doctalk/internal/errors"
	"github.com/Sourabsb/doctalk/internal/logger"
	"github.com/Sourabsb/doctalk/internal/types"
)

// qdrantStore is the Qdrant-backed Store, grounded on the teacher's
// qdrantRepository: one gRPC client, one collection per embedding
// dimensionality, point payload carrying conversation/document scoping.
type qdrantStore struct {
	client                 *qdrant.Client
	collectionBaseName     string
	initializedCollections sync.Map // dimension -> true
}

// NewQdrantStore dials a Qdrant instance and returns a Store backed by it.
func NewQdrantStore(host string, port int, apiKey string, collectionBaseName string) (Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("connect qdrant: %w", err)
	}
	return &qdrantStore{client: client, collectionBaseName: collectionBaseName}, nil
}

func (s *qdrantStore) collectionName(dim int) string {
	return fmt.Sprintf("%s_%d", s.collectionBaseName, dim)
}

func (s *qdrantStore) ensureCollection(ctx context.Context, dim int) error {
	if _, ok := s.initializedCollections.Load(dim); ok {
		return nil
	}

	name := s.collectionName(dim)
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", name, err)
	}
	if !exists {
		err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: name,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(dim),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("create collection %s: %w", name, err)
		}
	}

	s.initializedCollections.Store(dim, true)
	return nil
}

// pointID derives the deterministic uuidv5 id the spec mandates, so
// re-upserting the same logical chunk is a no-op rather than a duplicate.
func pointID(convID, docID int64, source string, chunkIdx int, content string) string {
	truncated := content
	if len(truncated) > 100 {
		truncated = truncated[:100]
	}
	name := fmt.Sprintf("%d:%s:%d:%d:%s", convID, source, docID, chunkIdx, truncated)
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(name)).String()
}

func (s *qdrantStore) Upsert(ctx context.Context, convID int64, docID int64, chunks []types.Chunk, vectors [][]float32) error {
	if len(chunks) == 0 {
		return nil
	}
	if len(chunks) != len(vectors) {
		return apperrors.NewInternalServerError("chunk/vector count mismatch")
	}

	dim := len(vectors[0])
	if err := s.ensureCollection(ctx, dim); err != nil {
		return err
	}

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for i, chunk := range chunks {
		id := pointID(convID, docID, chunk.Metadata.Source, chunk.ChunkIndex, chunk.Content)
		points = append(points, &qdrant.PointStruct{
			Id:     qdrant.NewID(id),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"conversation_id": convID,
				"doc_id":          docID,
				"chunk_index":     chunk.ChunkIndex,
				"content":         chunk.Content,
				"source":          chunk.Metadata.Source,
			}),
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collectionName(dim),
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return apperrors.NewProviderError("qdrant upsert failed", err)
	}

	logger.Info(ctx, "upserted chunks into vector store", "convId", convID, "docId", docID, "count", len(points))
	return nil
}

func (s *qdrantStore) Search(ctx context.Context, convID int64, queryVec []float32, k int, activeDocIDs []int64) ([]types.ScoredChunk, error) {
	if len(queryVec) == 0 {
		return nil, nil
	}

	dim := len(queryVec)
	if _, ok := s.initializedCollections.Load(dim); !ok {
		exists, err := s.client.CollectionExists(ctx, s.collectionName(dim))
		if err != nil || !exists {
			return nil, nil
		}
		s.initializedCollections.Store(dim, true)
	}

	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatchInt("conversation_id", convID)},
	}
	if len(activeDocIDs) > 0 {
		should := make([]*qdrant.Condition, 0, len(activeDocIDs))
		for _, docID := range activeDocIDs {
			should = append(should, qdrant.NewMatchInt("doc_id", docID))
		}
		filter.Must = append(filter.Must, &qdrant.Condition{
			ConditionOneOf: &qdrant.Condition_Filter{Filter: &qdrant.Filter{Should: should}},
		})
	}

	limit := uint64(k)
	resp, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collectionName(dim),
		Query:          qdrant.NewQuery(queryVec...),
		Filter:         filter,
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, apperrors.NewProviderError("qdrant search failed", err)
	}

	hits := make([]types.ScoredChunk, 0, len(resp))
	for _, point := range resp {
		payload := point.GetPayload()
		content := payload["content"].GetStringValue()
		source := payload["source"].GetStringValue()
		chunkIndex := int(payload["chunk_index"].GetIntegerValue())
		var docID *int64
		if v, ok := payload["doc_id"]; ok {
			id := v.GetIntegerValue()
			docID = &id
		}

		hits = append(hits, types.ScoredChunk{
			Content:    content,
			Metadata:   types.ChunkMetadata{Source: source, Type: "document"},
			DocID:      docID,
			ChunkIndex: chunkIndex,
			RawScore:   float64(point.GetScore()),
		})
	}

	return rescoreAndSort(hits)[:minInt(k, len(hits))], nil
}

func (s *qdrantStore) DeleteByDoc(ctx context.Context, convID, docID int64) (string, error) {
	return s.deleteByFilter(ctx, &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatchInt("conversation_id", convID),
			qdrant.NewMatchInt("doc_id", docID),
		},
	})
}

func (s *qdrantStore) DeleteByConversation(ctx context.Context, convID int64) (string, error) {
	return s.deleteByFilter(ctx, &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatchInt("conversation_id", convID)},
	})
}

func (s *qdrantStore) deleteByFilter(ctx context.Context, filter *qdrant.Filter) (string, error) {
	var opID string
	s.initializedCollections.Range(func(key, _ any) bool {
		dim := key.(int)
		name := s.collectionName(dim)
		result, err := s.client.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: name,
			Points: &qdrant.PointsSelector{
				PointsSelectorOneOf: &qdrant.PointsSelector_Filter{Filter: filter},
			},
			Wait: qdrant.PtrOf(true),
		})
		if err == nil && result != nil {
			opID = fmt.Sprintf("%s:%d", name, result.GetOperationId())
		}
		return true
	})
	return opID, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
