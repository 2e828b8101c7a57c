package types

// ScoredChunk is a single retrieval hit, carrying both the raw cosine
// score and the length-adjusted score used for final ranking.
type ScoredChunk struct {
	Content       string        `json:"content"`
	Metadata      ChunkMetadata `json:"metadata"`
	DocID         *int64        `json:"docId,omitempty"`
	ChunkIndex    int           `json:"chunkIndex"`
	RawScore      float64       `json:"rawScore"`
	AdjustedScore float64       `json:"adjustedScore"`
}

// ChatHistoryUnit is a Q/A pair extracted from the active branch history,
// chunked and embedded for C4's in-memory search.
type ChatHistoryUnit struct {
	Content   string  `json:"content"`
	UserQuery string  `json:"userQuery"`
	Score     float64 `json:"score"`
}

// RetrievalContext is the output of HybridRetriever.BuildContext: the
// structured hits plus a flattened prompt-ready string.
type RetrievalContext struct {
	DocumentChunks      []ScoredChunk     `json:"documentChunks"`
	RelevantChatHistory []ChatHistoryUnit `json:"relevantChatHistory"`
	RecentContext       []ChatMessage     `json:"recentContext"`
	CombinedContext     string            `json:"combinedContext"`
}

// RetrievalParams bundles the mode/intent-dependent k values consumed by
// HybridRetriever.BuildContext.
type RetrievalParams struct {
	DocK      int
	ChatK     int
	RecentN   int
}
