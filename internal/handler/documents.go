package handler

import (
	"context"
	"io"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/Sourabsb/doctalk/internal/chunker"
	"github.com/Sourabsb/doctalk/internal/config"
	"github.com/Sourabsb/doctalk/internal/document"
	apperrors "github.com/Sourabsb/doctalk/internal/errors"
	"github.com/Sourabsb/doctalk/internal/external"
	"github.com/Sourabsb/doctalk/internal/logger"
	"github.com/Sourabsb/doctalk/internal/registry"
	"github.com/Sourabsb/doctalk/internal/types"
	"github.com/Sourabsb/doctalk/internal/utils"
	"github.com/Sourabsb/doctalk/internal/vectorstore"
)

// DocumentHandler implements upload → decode → chunk → embed → upsert
// (the C1/C2/C3 pipeline behind "bytes → external decoder → C1 → C3
// (upsert)" from §2's data-flow summary).
type DocumentHandler struct {
	docStore    *document.Store
	vectorStore vectorstore.Store
	registry    *registry.Registry
	decoder     external.DocumentDecoder
	cfg         *config.Config
}

func NewDocumentHandler(
	docStore *document.Store, vectorStore vectorstore.Store, reg *registry.Registry, decoder external.DocumentDecoder, cfg *config.Config,
) *DocumentHandler {
	return &DocumentHandler{docStore: docStore, vectorStore: vectorStore, registry: reg, decoder: decoder, cfg: cfg}
}

// Upload godoc
// @Summary      Upload a document
// @Description  Decodes, chunks and embeds an uploaded file into the conversation's vector space
// @Tags         documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        convId  path      int   true  "conversation id"
// @Param        file    formData  file  true  "document file"
// @Success      201     {object}  map[string]interface{}  "created document"
// @Failure      400     {object}  errors.AppError
// @Failure      404     {object}  errors.AppError
// @Failure      413     {object}  errors.AppError
// @Security     Bearer
// @Router       /conversations/{convId}/documents [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
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

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.Error(apperrors.NewBadRequestError("file is required"))
		return
	}

	maxBytes := utils.MaxFileSizeBytes(h.cfg.Providers.MaxFileSizeMB)
	if fileHeader.Size > maxBytes {
		c.Error(apperrors.NewTooLargeError("file exceeds the configured upload size limit"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.Error(apperrors.NewInternalServerError(err.Error()))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		c.Error(apperrors.NewInternalServerError(err.Error()))
		return
	}

	sections, err := h.decoder.Decode(ctx, content, fileHeader.Filename)
	if err != nil {
		c.Error(err)
		return
	}

	doc, err := h.docStore.CreateDocument(ctx, conv.ConvID, fileHeader.Filename, concatSections(sections), types.DocKindFile)
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.ingestChunks(ctx, conv, doc, sections); err != nil {
		logger.PipelineError(ctx, "handler", "ingest_chunks", err)
		if _, delErr := h.vectorStore.DeleteByDoc(ctx, conv.ConvID, doc.DocID); delErr != nil {
			logger.PipelineError(ctx, "handler", "rollback_vectors", delErr)
		}
		if delErr := h.docStore.DeleteDocument(ctx, doc.DocID); delErr != nil {
			logger.PipelineError(ctx, "handler", "rollback_document", delErr)
		}
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"document": doc})
}

// ingestChunks splits every decoded section, embeds the batch and
// upserts it alongside persisting the chunk rows, in that order so a
// vector-store failure never leaves orphaned SQL chunks behind.
func (h *DocumentHandler) ingestChunks(ctx context.Context, conv *types.Conversation, doc *types.Document, sections map[string]string) error {
	split := chunker.New(h.cfg.Chunking.DocumentChunkSize, h.cfg.Chunking.DocumentChunkOverlap)

	// Sort sources for deterministic chunkIndex assignment across reruns
	// of identical input, per §4.1's "metadata is stable across reruns."
	sources := make([]string, 0, len(sections))
	for source := range sections {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	var chunks []types.Chunk
	for _, source := range sources {
		for _, ch := range split.Split(source, sections[source]) {
			ch.ConvID = conv.ConvID
			ch.DocID = &doc.DocID
			chunks = append(chunks, ch)
		}
	}
	if len(chunks) == 0 {
		return apperrors.NewNoContentError("decoded document produced no chunkable text")
	}

	embedder, err := h.registry.EmbedderFor(conv.EmbeddingProfile, conv.LLMMode)
	if err != nil {
		return apperrors.NewProviderError("embedder unavailable", err)
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Content
	}
	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return apperrors.NewProviderError("embedding failed", err)
	}

	if err := h.vectorStore.Upsert(ctx, conv.ConvID, doc.DocID, chunks, vectors); err != nil {
		return apperrors.NewProviderError("vector upsert failed", err)
	}
	if err := h.docStore.CreateChunks(ctx, chunks); err != nil {
		return err
	}
	return nil
}

func concatSections(sections map[string]string) string {
	sources := make([]string, 0, len(sections))
	for source := range sections {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	var out string
	for i, source := range sources {
		if i > 0 {
			out += "\n\n"
		}
		out += sections[source]
	}
	return out
}

// List godoc
// @Summary      List active document ids
// @Description  Returns the conversation's active document ids (inactive documents are hidden from retrieval)
// @Tags         documents
// @Produce      json
// @Param        convId  path      int  true  "conversation id"
// @Success      200     {object}  map[string]interface{}
// @Failure      404     {object}  errors.AppError
// @Security     Bearer
// @Router       /conversations/{convId}/documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
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

	activeIDs, err := h.docStore.ListActiveDocIDs(ctx, convID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activeDocumentIds": activeIDs})
}

// SetActive godoc
// @Summary      Toggle a document's active flag
// @Description  Hides or restores a document from retrieval without deleting its chunks
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        docId    path      int                      true  "document id"
// @Param        request  body      object{active=bool}      true  "desired active state"
// @Success      200      {object}  map[string]interface{}
// @Failure      400      {object}  errors.AppError
// @Security     Bearer
// @Router       /documents/{docId}/active [patch]
func (h *DocumentHandler) SetActive(c *gin.Context) {
	ctx := c.Request.Context()

	docID, ok := parseInt64Param(c, "docId")
	if !ok {
		c.Error(apperrors.NewBadRequestError("invalid docId"))
		return
	}

	var body struct {
		Active bool `json:"active"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.Error(apperrors.NewBadRequestError(err.Error()))
		return
	}

	if err := h.docStore.SetDocumentActive(ctx, docID, body.Active); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"docId": docID, "active": body.Active})
}
