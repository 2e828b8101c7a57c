package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Sourabsb/doctalk/internal/config"
	"github.com/Sourabsb/doctalk/internal/document"
	apperrors "github.com/Sourabsb/doctalk/internal/errors"
	"github.com/Sourabsb/doctalk/internal/hierarchical"
	"github.com/Sourabsb/doctalk/internal/registry"
	"github.com/Sourabsb/doctalk/internal/types"
)

// ArtifactHandler is C10's HTTP surface: summary, flashcard and mind-map
// generation plus read-back of previously generated decks.
type ArtifactHandler struct {
	docStore *document.Store
	registry *registry.Registry
	cfg      *config.Config
}

func NewArtifactHandler(docStore *document.Store, reg *registry.Registry, cfg *config.Config) *ArtifactHandler {
	return &ArtifactHandler{docStore: docStore, registry: reg, cfg: cfg}
}

// processorFor loads the conversation, its active chunks, and a
// Processor bound to the conversation's own provider — the shared setup
// every artifact-generation endpoint needs before calling into C10.
func (h *ArtifactHandler) processorFor(c *gin.Context, convID int64) (*types.Conversation, []types.Chunk, *hierarchical.Processor, error) {
	ctx := c.Request.Context()

	conv, err := h.docStore.GetConversation(ctx, convID, UserIDFromContext(c))
	if err != nil {
		return nil, nil, nil, err
	}

	activeDocIDs, err := h.docStore.ListActiveDocIDs(ctx, convID)
	if err != nil {
		return nil, nil, nil, err
	}
	chunks, err := h.docStore.ListAllChunks(ctx, convID, activeDocIDs)
	if err != nil {
		return nil, nil, nil, err
	}

	provider, err := h.registry.ProviderFor(conv.LLMMode, "")
	if err != nil {
		return nil, nil, nil, apperrors.NewProviderError("no provider available", err)
	}
	return conv, chunks, hierarchical.New(provider), nil
}

// Summarize godoc
// @Summary      Summarize a conversation
// @Description  Generates a summary over the conversation's active chunks
// @Tags         artifacts
// @Produce      json
// @Param        convId  path      int  true  "conversation id"
// @Success      200     {object}  map[string]interface{}
// @Failure      404     {object}  errors.AppError
// @Security     Bearer
// @Router       /conversations/{convId}/summary [post]
func (h *ArtifactHandler) Summarize(c *gin.Context) {
	convID, ok := parseInt64Param(c, "convId")
	if !ok {
		c.Error(apperrors.NewBadRequestError("invalid convId"))
		return
	}

	conv, chunks, proc, err := h.processorFor(c, convID)
	if err != nil {
		c.Error(err)
		return
	}

	summary, err := proc.Summarize(c.Request.Context(), conv.LLMMode, chunks, h.cfg.Retrieval.SummaryDocK*6, convID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// GenerateFlashcards godoc
// @Summary      Generate flashcards
// @Description  Generates new flashcards, avoiding fronts already produced by prior generations
// @Tags         artifacts
// @Accept       json
// @Produce      json
// @Param        convId   path  int                   true   "conversation id"
// @Param        request  body  object{count=int}     false  "card count, default 10"
// @Success      201      {object}  map[string]interface{}
// @Failure      404      {object}  errors.AppError
// @Security     Bearer
// @Router       /conversations/{convId}/flashcards [post]
func (h *ArtifactHandler) GenerateFlashcards(c *gin.Context) {
	ctx := c.Request.Context()

	convID, ok := parseInt64Param(c, "convId")
	if !ok {
		c.Error(apperrors.NewBadRequestError("invalid convId"))
		return
	}

	var body struct {
		Count int `json:"count"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.Error(apperrors.NewBadRequestError(err.Error()))
			return
		}
	}
	if body.Count <= 0 {
		body.Count = 10
	}

	_, chunks, proc, err := h.processorFor(c, convID)
	if err != nil {
		c.Error(err)
		return
	}

	existingFronts, err := h.docStore.ListFlashcardFronts(ctx, convID)
	if err != nil {
		c.Error(err)
		return
	}

	cards, err := proc.Flashcards(ctx, chunks, body.Count*6, body.Count, existingFronts, convID)
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.docStore.AppendFlashcards(ctx, convID, cards); err != nil {
		c.Error(err)
		return
	}

	deck, err := h.docStore.ListFlashcards(ctx, convID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"flashcards": deck})
}

// ListFlashcards godoc
// @Summary      List flashcards
// @Description  Returns every flashcard generated so far for the conversation
// @Tags         artifacts
// @Produce      json
// @Param        convId  path      int  true  "conversation id"
// @Success      200     {object}  map[string]interface{}
// @Failure      404     {object}  errors.AppError
// @Security     Bearer
// @Router       /conversations/{convId}/flashcards [get]
func (h *ArtifactHandler) ListFlashcards(c *gin.Context) {
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

	deck, err := h.docStore.ListFlashcards(ctx, convID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flashcards": deck})
}

// GenerateMindmap godoc
// @Summary      Generate a mind map
// @Description  Regenerates the conversation's single mind map, upserting over any prior one
// @Tags         artifacts
// @Produce      json
// @Param        convId  path      int  true  "conversation id"
// @Success      201     {object}  map[string]interface{}
// @Failure      404     {object}  errors.AppError
// @Security     Bearer
// @Router       /conversations/{convId}/mindmap [post]
func (h *ArtifactHandler) GenerateMindmap(c *gin.Context) {
	ctx := c.Request.Context()

	convID, ok := parseInt64Param(c, "convId")
	if !ok {
		c.Error(apperrors.NewBadRequestError("invalid convId"))
		return
	}

	_, chunks, proc, err := h.processorFor(c, convID)
	if err != nil {
		c.Error(err)
		return
	}

	mm, err := proc.Mindmap(ctx, chunks, 30, convID)
	if err != nil {
		c.Error(err)
		return
	}

	saved, err := h.docStore.UpsertMindMap(ctx, convID, mm.Title, mm.Nodes)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"mindMap": saved})
}

// GetMindmap godoc
// @Summary      Get the mind map
// @Description  Returns the conversation's previously generated mind map, or null if none exists
// @Tags         artifacts
// @Produce      json
// @Param        convId  path      int  true  "conversation id"
// @Success      200     {object}  map[string]interface{}
// @Failure      404     {object}  errors.AppError
// @Security     Bearer
// @Router       /conversations/{convId}/mindmap [get]
func (h *ArtifactHandler) GetMindmap(c *gin.Context) {
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

	mm, err := h.docStore.GetMindMap(ctx, convID)
	if err != nil {
		c.Error(err)
		return
	}
	if mm == nil {
		c.JSON(http.StatusOK, gin.H{"mindMap": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"mindMap": mm})
}
