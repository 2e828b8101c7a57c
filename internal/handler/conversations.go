package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Sourabsb/doctalk/internal/branch"
	"github.com/Sourabsb/doctalk/internal/document"
	apperrors "github.com/Sourabsb/doctalk/internal/errors"
	"github.com/Sourabsb/doctalk/internal/external"
	"github.com/Sourabsb/doctalk/internal/logger"
	"github.com/Sourabsb/doctalk/internal/types"
	"github.com/Sourabsb/doctalk/internal/vectorstore"
)

// ConversationHandler covers the CRUD and transcript-export surface over
// C6's branching store.
type ConversationHandler struct {
	docStore    *document.Store
	branchStore *branch.Store
	vectorStore vectorstore.Store
	renderer    external.ExportRenderer
}

func NewConversationHandler(
	docStore *document.Store, branchStore *branch.Store, vectorStore vectorstore.Store, renderer external.ExportRenderer,
) *ConversationHandler {
	return &ConversationHandler{docStore: docStore, branchStore: branchStore, vectorStore: vectorStore, renderer: renderer}
}

type createConversationRequest struct {
	Title            string        `json:"title"`
	LLMMode          types.LLMMode `json:"llmMode"`
	EmbeddingProfile string        `json:"embeddingProfile"`
}

// Create godoc
// @Summary      Create a conversation
// @Description  Creates a new conversation owned by the authenticated caller
// @Tags         conversations
// @Accept       json
// @Produce      json
// @Param        request  body      createConversationRequest  true  "conversation settings"
// @Success      201      {object}  map[string]interface{}     "created conversation"
// @Failure      400      {object}  errors.AppError
// @Security     Bearer
// @Router       /conversations [post]
func (h *ConversationHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var body createConversationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.Error(apperrors.NewBadRequestError(err.Error()))
		return
	}
	if body.LLMMode == "" {
		body.LLMMode = types.LLMModeCloud
	}

	conv, err := h.docStore.CreateConversation(ctx, UserIDFromContext(c), body.Title, body.LLMMode, body.EmbeddingProfile)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"conversation": conv})
}

// Get godoc
// @Summary      Get a conversation
// @Description  Returns the conversation plus its active branch, with sibling versions on each edited user message
// @Tags         conversations
// @Produce      json
// @Param        convId  path      int  true  "conversation id"
// @Success      200     {object}  map[string]interface{}
// @Failure      404     {object}  errors.AppError
// @Security     Bearer
// @Router       /conversations/{convId} [get]
func (h *ConversationHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	convID, ok := parseInt64Param(c, "convId")
	if !ok {
		c.Error(apperrors.NewBadRequestError("invalid convId"))
		return
	}
	conv, err := h.docStore.GetConversation(ctx, convID, UserIDFromContext(c))
	if err != nil {
		c.Error(err)
		return
	}

	active, err := h.branchStore.ListActiveBranch(ctx, convID, 500)
	if err != nil {
		c.Error(err)
		return
	}

	messages := make([]gin.H, 0, len(active))
	for _, m := range active {
		entry := gin.H{"message": m}
		if m.Role == types.RoleUser && m.EditGroupID != nil {
			siblings, err := h.branchStore.ListSiblings(ctx, convID, *m.EditGroupID)
			if err == nil && len(siblings) > 1 {
				entry["responseVersions"] = siblings
			}
		}
		messages = append(messages, entry)
	}

	c.JSON(http.StatusOK, gin.H{"conversation": conv, "messages": messages})
}

// Delete godoc
// @Summary      Delete a conversation
// @Description  Cascading delete of the conversation and every entity it owns
// @Tags         conversations
// @Produce      json
// @Param        convId  path      int  true  "conversation id"
// @Success      200     {object}  map[string]interface{}
// @Failure      404     {object}  errors.AppError
// @Security     Bearer
// @Router       /conversations/{convId} [delete]
func (h *ConversationHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	convID, ok := parseInt64Param(c, "convId")
	if !ok {
		c.Error(apperrors.NewBadRequestError("invalid convId"))
		return
	}
	if _, err := h.docStore.GetConversation(ctx, convID, UserIDFromContext(c)); err != nil {
		c.Error(err)
		return
	}

	// Vector index first: if it fails, the SQL rows are untouched and the
	// delete can be retried; the reverse order would leave Qdrant vectors
	// orphaned with no SQL row left to retry the delete from.
	if _, err := h.vectorStore.DeleteByConversation(ctx, convID); err != nil {
		c.Error(apperrors.NewProviderError("failed to delete vector index", err))
		return
	}
	if err := h.docStore.DeleteConversation(ctx, convID); err != nil {
		c.Error(err)
		return
	}
	logger.Info(ctx, "deleted conversation and its vector index", "convId", convID)
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// Export godoc
// @Summary      Export a conversation transcript
// @Description  Renders the active branch through the configured ExportRenderer
// @Tags         conversations
// @Produce      json,text/plain
// @Param        convId  path      int     true   "conversation id"
// @Param        format  query     string  false  "txt|pdf|json"
// @Success      200     {string}  string  "rendered transcript"
// @Failure      404     {object}  errors.AppError
// @Security     Bearer
// @Router       /conversations/{convId}/export [get]
func (h *ConversationHandler) Export(c *gin.Context) {
	ctx := c.Request.Context()

	convID, ok := parseInt64Param(c, "convId")
	if !ok {
		c.Error(apperrors.NewBadRequestError("invalid convId"))
		return
	}
	if _, err := h.docStore.GetConversation(ctx, convID, UserIDFromContext(c)); err != nil {
		c.Error(err)
		return
	}

	format := external.ExportFormat(c.DefaultQuery("format", string(external.ExportFormatJSON)))

	active, err := h.branchStore.ListActiveBranch(ctx, convID, 2000)
	if err != nil {
		c.Error(err)
		return
	}

	messages := make([]external.ExportMessage, 0, len(active))
	for _, m := range active {
		if m.IsArchived {
			continue
		}
		messages = append(messages, external.ExportMessage{Role: string(m.Role), Content: m.Content})
	}

	rendered, err := h.renderer.Render(ctx, messages, format)
	if err != nil {
		c.Error(err)
		return
	}
	c.Data(http.StatusOK, contentTypeFor(format), rendered)
}

func contentTypeFor(format external.ExportFormat) string {
	switch format {
	case external.ExportFormatJSON:
		return "application/json"
	case external.ExportFormatPDF:
		return "application/pdf"
	default:
		return "text/plain"
	}
}
