package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/Sourabsb/doctalk/internal/branch"
	apperrors "github.com/Sourabsb/doctalk/internal/errors"
	"github.com/Sourabsb/doctalk/internal/logger"
	"github.com/Sourabsb/doctalk/internal/orchestrator"
)

// ChatHandler streams C9 chat turns over SSE.
type ChatHandler struct {
	orch        *orchestrator.Orchestrator
	branchStore *branch.Store
}

func NewChatHandler(orch *orchestrator.Orchestrator, branchStore *branch.Store) *ChatHandler {
	return &ChatHandler{orch: orch, branchStore: branchStore}
}

// ChatStreamRequest is the POST /chat body (spec §6).
type ChatStreamRequest struct {
	Message         string `json:"message" binding:"required"`
	ConversationID  int64  `json:"conversationId" binding:"required"`
	ParentMessageID *int64 `json:"parentMessageId"`
	CloudModel      string `json:"cloudModel"`
}

// EditMessageRequest is the POST /messages/{messageId} body: leaving
// Content empty regenerates the original question verbatim. Regenerate
// resolves the new sibling's parent from the conversation's last user
// message rather than from the edited message's own parent.
type EditMessageRequest struct {
	Content    string `json:"content"`
	Regenerate bool   `json:"regenerate"`
	CloudModel string `json:"cloudModel"`
}

// sseEmitter adapts orchestrator.Emitter onto a live gin response,
// writing each frame per spec §6's `data: <json>\n\n` framing and
// flushing after every write so the client sees tokens as they arrive.
// The SSE headers and 200 status are written lazily on the first frame,
// so a pre-stream failure (invalid parent, not found, ...) that never
// reaches the orchestrator's Emitter still surfaces as a normal JSON
// error response through apperrors.GinMiddleware instead of a half-open
// stream.
type sseEmitter struct {
	c          *gin.Context
	openHeader sync.Once
}

func (e *sseEmitter) writeFrame(v any) error {
	e.openHeader.Do(func() { setSSEHeaders(e.c) })

	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(e.c.Writer, "data: %s\n\n", payload); err != nil {
		return err
	}
	e.c.Writer.Flush()
	return nil
}

func (e *sseEmitter) Meta(sources []string, sourceChunks []orchestrator.SourceChunkFrame, userMessageID int64, editGroupID *int64) error {
	return e.writeFrame(gin.H{
		"type":          "meta",
		"sources":       sources,
		"sourceChunks":  sourceChunks,
		"userMessageId": userMessageID,
		"editGroupId":   editGroupID,
	})
}

func (e *sseEmitter) Token(content string) error {
	return e.writeFrame(gin.H{"type": "token", "content": content})
}

func (e *sseEmitter) Error(message string) error {
	return e.writeFrame(gin.H{"type": "error", "message": message})
}

func (e *sseEmitter) Done(assistantMessageID int64, fullResponse string, isError bool) error {
	frame := gin.H{"type": "done", "assistantMessageId": assistantMessageID, "fullResponse": fullResponse}
	if isError {
		frame["error"] = true
	}
	return e.writeFrame(frame)
}

func setSSEHeaders(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()
}

// Stream godoc
// @Summary      Stream a chat turn
// @Description  Starts a brand-new turn, or a follow-up that names its parent once the conversation has an assistant message; streams meta/token/error/done frames over SSE
// @Tags         chat
// @Accept       json
// @Produce      text/event-stream
// @Param        request  body  ChatStreamRequest  true  "chat turn"
// @Success      200  {string}  string  "SSE stream"
// @Failure      400  {object}  errors.AppError
// @Failure      404  {object}  errors.AppError
// @Security     Bearer
// @Router       /chat [post]
func (h *ChatHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()

	var body ChatStreamRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.Error(apperrors.NewBadRequestError(err.Error()))
		return
	}

	userID := UserIDFromContext(c)
	logger.Info(ctx, "starting chat turn", "convId", body.ConversationID, "userId", userID)

	emit := &sseEmitter{c: c}

	req := orchestrator.ChatRequest{
		ConvID:          body.ConversationID,
		OwnerUserID:     userID,
		Message:         body.Message,
		ParentMessageID: body.ParentMessageID,
		CloudModel:      body.CloudModel,
	}
	if err := h.orch.HandleChat(ctx, req, emit); err != nil {
		logger.PipelineError(ctx, "handler", "chat_stream", err)
		if !c.Writer.Written() {
			c.Error(err)
		}
	}
}

// Edit godoc
// @Summary      Edit a message and regenerate
// @Description  Creates a new sibling in the original message's edit group and streams a fresh assistant reply over SSE
// @Tags         chat
// @Accept       json
// @Produce      text/event-stream
// @Param        messageId  path  int                 true  "original message id"
// @Param        request    body  EditMessageRequest  true  "edit content; empty regenerates verbatim"
// @Success      200  {string}  string  "SSE stream"
// @Failure      400  {object}  errors.AppError
// @Failure      404  {object}  errors.AppError
// @Security     Bearer
// @Router       /messages/{messageId} [post]
func (h *ChatHandler) Edit(c *gin.Context) {
	ctx := c.Request.Context()

	messageID, ok := parseInt64Param(c, "messageId")
	if !ok {
		c.Error(apperrors.NewBadRequestError("invalid messageId"))
		return
	}

	original, err := h.branchStore.GetMessageByID(ctx, messageID)
	if err != nil {
		c.Error(err)
		return
	}
	convID := original.ConvID

	var body EditMessageRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.Error(apperrors.NewBadRequestError(err.Error()))
		return
	}

	userID := UserIDFromContext(c)
	logger.Info(ctx, "starting edit turn", "convId", convID, "messageId", messageID, "userId", userID)

	emit := &sseEmitter{c: c}

	req := orchestrator.EditRequest{
		ConvID:            convID,
		OwnerUserID:       userID,
		OriginalMessageID: messageID,
		Content:           body.Content,
		Regenerate:        body.Regenerate,
		CloudModel:        body.CloudModel,
	}
	if err := h.orch.HandleEdit(ctx, req, emit); err != nil {
		logger.PipelineError(ctx, "handler", "edit_stream", err)
		if !c.Writer.Written() {
			c.Error(err)
		}
	}
}
