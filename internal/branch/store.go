// Package branch implements C6: the reply-graph / edit-group / version
// branching model over ChatMessage, and the relational persistence for
// conversations, documents, chunks and study artifacts behind gorm.
package branch

import (
	"context"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/Sourabsb/doctalk/internal/errors"
	"github.com/Sourabsb/doctalk/internal/logger"
	"github.com/Sourabsb/doctalk/internal/types"
)

// NewRequest describes the client's intent when sending a new chat
// message, the input to ResolveParent.
type NewRequest struct {
	ParentMessageID *int64
	Regenerate      bool
	IsEdit          bool
	OriginalMessage *types.ChatMessage
}

// Store is C6: the only permitted way to read and write the branching
// message tree.
type Store struct {
	db *gorm.DB
}

// New wraps a gorm.DB already migrated with AutoMigrate.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates/updates the relational schema, following the
// original service's forward-compatible migration style: new branching
// columns are added nullable with safe defaults rather than requiring a
// backfill script.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.Conversation{},
		&types.Document{},
		&types.Chunk{},
		&types.ChatMessage{},
		&types.Flashcard{},
		&types.MindMap{},
	)
}

// ResolveParent implements the §4.6 authoritative parent-resolution rule
// set for a new chat message.
func (s *Store) ResolveParent(ctx context.Context, convID int64, req NewRequest) (*int64, error) {
	if req.ParentMessageID != nil {
		var parent types.ChatMessage
		err := s.db.WithContext(ctx).
			Where("id = ? AND conv_id = ?", *req.ParentMessageID, convID).
			First(&parent).Error
		if err != nil {
			return nil, apperrors.NewInvalidParentError("parent message not found in this conversation")
		}
		if parent.Role != types.RoleAssistant {
			return nil, apperrors.NewInvalidParentError("parent message must be an assistant message")
		}
		return req.ParentMessageID, nil
	}

	if req.Regenerate {
		var lastUser types.ChatMessage
		err := s.db.WithContext(ctx).
			Where("conv_id = ? AND role = ?", convID, types.RoleUser).
			Order("id DESC").First(&lastUser).Error
		if err != nil {
			return nil, apperrors.NewInvalidParentError("no prior user message to regenerate from")
		}
		return lastUser.ReplyToMessageID, nil
	}

	if req.IsEdit {
		if req.OriginalMessage == nil {
			return nil, apperrors.NewInternalServerError("edit requires the original message")
		}
		return req.OriginalMessage.ReplyToMessageID, nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&types.ChatMessage{}).
		Where("conv_id = ? AND role = ?", convID, types.RoleAssistant).
		Count(&count).Error; err != nil {
		return nil, apperrors.NewInternalServerError(err.Error())
	}
	if count == 0 {
		return nil, nil
	}

	return nil, apperrors.NewParentRequiredError("follow-up messages must supply an explicit parent id")
}

// BuildBranchHistory walks ReplyToMessageID backward from tailAssistantID,
// cycle-guarded, capped at maxMsgs, and returns the chronological history.
// This is the only permitted way to assemble history: sibling branches
// are never mixed in.
func (s *Store) BuildBranchHistory(ctx context.Context, convID, tailAssistantID int64, maxMsgs int) ([]types.ChatMessage, error) {
	visited := make(map[int64]struct{})
	var walked []types.ChatMessage

	currentID := &tailAssistantID
	for currentID != nil && len(walked) < maxMsgs {
		if _, ok := visited[*currentID]; ok {
			logger.Warn(ctx, "cycle detected while walking reply graph", "convId", convID, "messageId", *currentID)
			break
		}
		visited[*currentID] = struct{}{}

		var msg types.ChatMessage
		if err := s.db.WithContext(ctx).Where("id = ? AND conv_id = ?", *currentID, convID).First(&msg).Error; err != nil {
			break
		}
		walked = append(walked, msg)
		currentID = msg.ReplyToMessageID
	}

	for i, j := 0, len(walked)-1; i < j; i, j = i+1, j-1 {
		walked[i], walked[j] = walked[j], walked[i]
	}
	return walked, nil
}

// AppendUserMessage persists a new user message. If editGroupID is nil,
// the new row's own id is immediately back-filled as its edit group.
func (s *Store) AppendUserMessage(
	ctx context.Context, convID int64, content string, parent *int64, editGroupID *int64, versionIndex int,
) (*types.ChatMessage, error) {
	now := time.Now()
	msg := &types.ChatMessage{
		ConvID:           convID,
		Role:             types.RoleUser,
		Content:          content,
		CreatedAt:        now,
		UpdatedAt:        now,
		ReplyToMessageID: parent,
		EditGroupID:      editGroupID,
		VersionIndex:     versionIndex,
		IsEdited:         versionIndex > 1,
	}

	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, apperrors.NewInternalServerError(err.Error())
	}

	if editGroupID == nil {
		msg.EditGroupID = &msg.ID
		if err := s.db.WithContext(ctx).Model(msg).Update("edit_group_id", msg.ID).Error; err != nil {
			return nil, apperrors.NewInternalServerError(err.Error())
		}
	}

	return msg, nil
}

// AppendAssistantMessage persists a new assistant message, always at
// versionIndex 1 and not archived.
func (s *Store) AppendAssistantMessage(
	ctx context.Context, convID int64, content string, parentUserID int64, sources, sourceChunks, promptSnapshot string,
) (*types.ChatMessage, error) {
	now := time.Now()
	msg := &types.ChatMessage{
		ConvID:           convID,
		Role:             types.RoleAssistant,
		Content:          content,
		CreatedAt:        now,
		UpdatedAt:        now,
		ReplyToMessageID: &parentUserID,
		VersionIndex:     1,
		IsArchived:       false,
		Sources:          sources,
		SourceChunks:     sourceChunks,
		PromptSnapshot:   promptSnapshot,
	}

	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, apperrors.NewInternalServerError(err.Error())
	}
	return msg, nil
}

// NextVersionIndex counts existing members of an edit group plus one.
func (s *Store) NextVersionIndex(ctx context.Context, convID, editGroupID int64) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&types.ChatMessage{}).
		Where("conv_id = ? AND role = ? AND edit_group_id = ?", convID, types.RoleUser, editGroupID).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.NewInternalServerError(err.Error())
	}
	return int(count) + 1, nil
}

// ListActiveBranch returns the default rendering for read APIs: the walk
// backward from the latest assistant message. Sibling alternatives are not
// attached here; the conversation handler adds them as responseVersions.
func (s *Store) ListActiveBranch(ctx context.Context, convID int64, maxMsgs int) ([]types.ChatMessage, error) {
	var tail types.ChatMessage
	err := s.db.WithContext(ctx).
		Where("conv_id = ? AND role = ?", convID, types.RoleAssistant).
		Order("id DESC").First(&tail).Error
	if err != nil {
		return nil, nil
	}

	return s.BuildBranchHistory(ctx, convID, tail.ID, maxMsgs)
}

// GetMessage fetches a single message by id, scoped to convID.
func (s *Store) GetMessage(ctx context.Context, convID, msgID int64) (*types.ChatMessage, error) {
	var msg types.ChatMessage
	err := s.db.WithContext(ctx).Where("id = ? AND conv_id = ?", msgID, convID).First(&msg).Error
	if err != nil {
		return nil, apperrors.NewNotFoundError("message not found in this conversation")
	}
	return &msg, nil
}

// GetMessageByID fetches a message by id alone, with no conversation
// scoping: the entry point for POST /messages/{messageId}, whose route
// carries no convId. Callers must still check ownership of the returned
// message's ConvID before acting on it.
func (s *Store) GetMessageByID(ctx context.Context, msgID int64) (*types.ChatMessage, error) {
	var msg types.ChatMessage
	if err := s.db.WithContext(ctx).Where("id = ?", msgID).First(&msg).Error; err != nil {
		return nil, apperrors.NewNotFoundError("message not found")
	}
	return &msg, nil
}

// ListSiblings returns every message sharing editGroupID, ordered by
// VersionIndex, for rendering a user message's responseVersions.
func (s *Store) ListSiblings(ctx context.Context, convID, editGroupID int64) ([]types.ChatMessage, error) {
	var siblings []types.ChatMessage
	err := s.db.WithContext(ctx).
		Where("conv_id = ? AND edit_group_id = ?", convID, editGroupID).
		Order("version_index ASC").
		Find(&siblings).Error
	if err != nil {
		return nil, apperrors.NewInternalServerError(err.Error())
	}
	return siblings, nil
}
