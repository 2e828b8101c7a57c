package types

import "time"

// Role distinguishes the two message authors the branching model allows.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is the central branching entity. Invariants I1-I5 from the
// branch-store design govern ReplyToMessageID/EditGroupID/VersionIndex;
// see internal/branch for their enforcement.
type ChatMessage struct {
	ID               int64      `gorm:"primaryKey;column:id"`
	ConvID           int64      `gorm:"column:conv_id;index"`
	Role             Role       `gorm:"column:role"`
	Content          string     `gorm:"column:content"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
	ReplyToMessageID *int64     `gorm:"column:reply_to_message_id;index"`
	EditGroupID      *int64     `gorm:"column:edit_group_id;index"`
	VersionIndex     int        `gorm:"column:version_index;default:1"`
	IsArchived       bool       `gorm:"column:is_archived;default:false"`
	IsEdited         bool       `gorm:"column:is_edited;default:false"`
	Sources          string     `gorm:"column:sources_json"`
	SourceChunks     string     `gorm:"column:source_chunks_json"`
	PromptSnapshot   string     `gorm:"column:prompt_snapshot"`
}

func (ChatMessage) TableName() string { return "chat_messages" }

// Flashcard is one member of a conversation's ordered, append-only set of
// study cards.
type Flashcard struct {
	ID         int64     `gorm:"primaryKey;column:id"`
	ConvID     int64     `gorm:"column:conv_id;index"`
	Front      string    `gorm:"column:front"`
	Back       string    `gorm:"column:back"`
	OrderIndex int       `gorm:"column:order_index"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (Flashcard) TableName() string { return "flashcards" }

// MindMapNode is one node of the recursive mind-map tree; Id is
// hierarchically dotted (e.g. "2.1.3").
type MindMapNode struct {
	ID       string        `json:"id"`
	Label    string        `json:"label"`
	Children []MindMapNode `json:"children,omitempty"`
}

// MindMap is the single per-conversation mind map; regeneration upserts
// it rather than appending a new row.
type MindMap struct {
	ID        int64         `gorm:"primaryKey;column:id"`
	ConvID    int64         `gorm:"column:conv_id;uniqueIndex"`
	Title     string        `gorm:"column:title"`
	Nodes     []MindMapNode `gorm:"column:nodes_json;serializer:json"`
	CreatedAt time.Time     `gorm:"column:created_at"`
	UpdatedAt time.Time     `gorm:"column:updated_at"`
}

func (MindMap) TableName() string { return "mindmaps" }
