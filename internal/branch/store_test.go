//go:build cgo

package branch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	apperrors "github.com/Sourabsb/doctalk/internal/errors"
	"github.com/Sourabsb/doctalk/internal/types"

	_ "github.com/mattn/go-sqlite3"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	return New(db)
}

// TestResolveParent_LinearChat covers the first two turns of a brand-new
// conversation: the opening message has no assistant reply yet so its
// parent resolves to nil, and the follow-up naming the assistant reply
// as its parent resolves to that id.
func TestResolveParent_LinearChat(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	parent, err := s.ResolveParent(ctx, 1, NewRequest{})
	require.NoError(t, err)
	assert.Nil(t, parent)

	userMsg, err := s.AppendUserMessage(ctx, 1, "hello", parent, nil, 1)
	require.NoError(t, err)

	assistantMsg, err := s.AppendAssistantMessage(ctx, 1, "hi there", userMsg.ID, "[]", "[]", "")
	require.NoError(t, err)

	parent, err = s.ResolveParent(ctx, 1, NewRequest{ParentMessageID: &assistantMsg.ID})
	require.NoError(t, err)
	require.NotNil(t, parent)
	assert.Equal(t, assistantMsg.ID, *parent)
}

// TestResolveParent_RegenerateReattachesAtLastUsersParent covers the
// edit-creates-sibling scenario: regenerating the most recent exchange
// reattaches the new sibling at the last user message's own parent, not
// at the edited message's parent.
func TestResolveParent_RegenerateReattachesAtLastUsersParent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	firstUser, err := s.AppendUserMessage(ctx, 1, "hello", nil, nil, 1)
	require.NoError(t, err)
	_, err = s.AppendAssistantMessage(ctx, 1, "hi there", firstUser.ID, "[]", "[]", "")
	require.NoError(t, err)

	parent, err := s.ResolveParent(ctx, 1, NewRequest{Regenerate: true})
	require.NoError(t, err)
	assert.Equal(t, firstUser.ReplyToMessageID, parent)
	assert.Nil(t, parent)

	editGroupID := firstUser.ID
	versionIndex, err := s.NextVersionIndex(ctx, 1, editGroupID)
	require.NoError(t, err)
	assert.Equal(t, 2, versionIndex)

	sibling, err := s.AppendUserMessage(ctx, 1, "hi there", parent, &editGroupID, versionIndex)
	require.NoError(t, err)
	assert.Equal(t, editGroupID, *sibling.EditGroupID)

	siblings, err := s.ListSiblings(ctx, 1, editGroupID)
	require.NoError(t, err)
	assert.Len(t, siblings, 2)
}

// TestResolveParent_PlainEditReattachesAtOriginalsParent covers a plain
// edit (not a regenerate): the sibling reattaches at the original
// message's own parent.
func TestResolveParent_PlainEditReattachesAtOriginalsParent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	firstUser, err := s.AppendUserMessage(ctx, 1, "hello", nil, nil, 1)
	require.NoError(t, err)
	firstAssistant, err := s.AppendAssistantMessage(ctx, 1, "hi there", firstUser.ID, "[]", "[]", "")
	require.NoError(t, err)

	secondUser, err := s.AppendUserMessage(ctx, 1, "how are you", &firstAssistant.ID, nil, 1)
	require.NoError(t, err)

	parent, err := s.ResolveParent(ctx, 1, NewRequest{IsEdit: true, OriginalMessage: secondUser})
	require.NoError(t, err)
	require.NotNil(t, parent)
	assert.Equal(t, firstAssistant.ID, *parent)
}

// TestResolveParent_FollowUpWithoutParentIsRejected covers the
// follow-up-without-parent scenario: once the conversation has an
// assistant message, a new message that names no parent is rejected
// rather than silently attached somewhere.
func TestResolveParent_FollowUpWithoutParentIsRejected(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	userMsg, err := s.AppendUserMessage(ctx, 1, "hello", nil, nil, 1)
	require.NoError(t, err)
	_, err = s.AppendAssistantMessage(ctx, 1, "hi there", userMsg.ID, "[]", "[]", "")
	require.NoError(t, err)

	_, err = s.ResolveParent(ctx, 1, NewRequest{})
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindParentRequired, appErr.Kind)
	assert.Equal(t, 400, appErr.HTTPStatus())
}

// TestResolveParent_UnknownParentIsRejected covers an explicit parent
// id that does not belong to this conversation.
func TestResolveParent_UnknownParentIsRejected(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	missing := int64(999)
	_, err := s.ResolveParent(ctx, 1, NewRequest{ParentMessageID: &missing})
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindInvalidParent, appErr.Kind)
}

func TestBuildBranchHistory_WalksParentChainChronologically(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	firstUser, err := s.AppendUserMessage(ctx, 1, "hello", nil, nil, 1)
	require.NoError(t, err)
	firstAssistant, err := s.AppendAssistantMessage(ctx, 1, "hi there", firstUser.ID, "[]", "[]", "")
	require.NoError(t, err)
	secondUser, err := s.AppendUserMessage(ctx, 1, "how are you", &firstAssistant.ID, nil, 1)
	require.NoError(t, err)
	secondAssistant, err := s.AppendAssistantMessage(ctx, 1, "doing well", secondUser.ID, "[]", "[]", "")
	require.NoError(t, err)

	history, err := s.BuildBranchHistory(ctx, 1, secondAssistant.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, firstUser.ID, history[0].ID)
	assert.Equal(t, firstAssistant.ID, history[1].ID)
	assert.Equal(t, secondUser.ID, history[2].ID)
	assert.Equal(t, secondAssistant.ID, history[3].ID)
}
