// Package types holds the core data model entities shared across every
// component: conversations, documents, chunks, messages and study
// artifacts.
package types

import "time"

// LLMMode selects which provider family serves a conversation.
type LLMMode string

const (
	LLMModeCloud LLMMode = "cloud"
	LLMModeLocal LLMMode = "local"
)

// Conversation is the top-level ownership and configuration unit: every
// document, chunk, message and study artifact hangs off a convId.
type Conversation struct {
	ConvID           int64     `gorm:"primaryKey;column:conv_id"`
	OwnerUserID      string    `gorm:"column:owner_user_id;index"`
	Title            string    `gorm:"column:title"`
	LLMMode          LLMMode   `gorm:"column:llm_mode;default:cloud"`
	EmbeddingProfile string    `gorm:"column:embedding_profile;default:custom"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (Conversation) TableName() string { return "conversations" }

// DocKind distinguishes an uploaded file from a free-form note.
type DocKind string

const (
	DocKindFile DocKind = "file"
	DocKindNote DocKind = "note"
)

// Document is a source of chunks within a conversation. Setting Active to
// false hides it from retrieval without deleting its chunks.
type Document struct {
	DocID      int64     `gorm:"primaryKey;column:doc_id"`
	ConvID     int64     `gorm:"column:conv_id;index"`
	Filename   string    `gorm:"column:filename"`
	FullText   string    `gorm:"column:full_text"`
	Kind       DocKind   `gorm:"column:kind;default:file"`
	Active     bool      `gorm:"column:active;default:true"`
	UploadedAt time.Time `gorm:"column:uploaded_at"`
}

func (Document) TableName() string { return "documents" }

// Chunk is a slice of a document's (or history's) text, addressable by
// vector search and/or SQL fallback scan.
type Chunk struct {
	ChunkID    int64          `gorm:"primaryKey;column:chunk_id"`
	ConvID     int64          `gorm:"column:conv_id;index"`
	DocID      *int64         `gorm:"column:doc_id;index"`
	ChunkIndex int            `gorm:"column:chunk_index"`
	Content    string         `gorm:"column:content"`
	Metadata   ChunkMetadata  `gorm:"column:metadata;serializer:json"`
	CreatedAt  time.Time      `gorm:"column:created_at"`
}

func (Chunk) TableName() string { return "document_chunks" }

// ChunkMetadata is the decoder-emitted provenance attached to a chunk.
type ChunkMetadata struct {
	Source string `json:"source"`
	Type   string `json:"type"`
}
