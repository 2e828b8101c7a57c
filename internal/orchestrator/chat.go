// Package orchestrator implements C9: the end-to-end streaming chat
// turn, binding together parent resolution (C6), hybrid retrieval (C5),
// the concurrency arbiter (C8) and the LLM provider contract (C7) into
// the state machine described in spec §4.9.
package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/Sourabsb/doctalk/internal/branch"
	"github.com/Sourabsb/doctalk/internal/concurrency"
	"github.com/Sourabsb/doctalk/internal/document"
	"github.com/Sourabsb/doctalk/internal/embedding"
	apperrors "github.com/Sourabsb/doctalk/internal/errors"
	"github.com/Sourabsb/doctalk/internal/hierarchical"
	"github.com/Sourabsb/doctalk/internal/llm"
	"github.com/Sourabsb/doctalk/internal/logger"
	"github.com/Sourabsb/doctalk/internal/retrieval"
	"github.com/Sourabsb/doctalk/internal/types"
	"github.com/Sourabsb/doctalk/internal/utils"
)

// summaryContextBudgetChars is the rough document-byte threshold past
// which a summary-intent turn routes to C10 instead of C5, per §4.9's
// "summary intent AND total chunk bytes > provider budget" trigger.
const summaryContextBudgetChars = 24000

// SourceChunkFrame is one entry of the meta frame's sourceChunks array.
type SourceChunkFrame struct {
	Index  int    `json:"index"`
	Source string `json:"source"`
	Chunk  string `json:"chunk"`
}

// Emitter is the SSE frame sink; HTTP framing lives in the handler layer
// so the orchestrator stays testable without a live connection.
type Emitter interface {
	Meta(sources []string, sourceChunks []SourceChunkFrame, userMessageID int64, editGroupID *int64) error
	Token(content string) error
	Error(message string) error
	Done(assistantMessageID int64, fullResponse string, isError bool) error
}

// ChatRequest is a brand-new turn via POST /chat; a follow-up MUST name
// its parent once the conversation has any assistant message (I5).
type ChatRequest struct {
	ConvID          int64
	OwnerUserID     string
	Message         string
	ParentMessageID *int64
	CloudModel      string
}

// EditRequest targets POST /messages/{originalMessageId}: it always
// creates a new user-message sibling in the original's edit group and
// always generates a fresh assistant reply. Leaving Content empty
// regenerates the original question verbatim. Regenerate and the
// default edit each resolve the new sibling's parent differently: a
// regenerate reattaches at the conversation's last user message's own
// parent, while a plain edit reattaches at the original message's
// parent — the two rules only coincide in a single-exchange history.
type EditRequest struct {
	ConvID            int64
	OwnerUserID       string
	OriginalMessageID int64
	Content           string
	Regenerate        bool
	CloudModel        string
}

// Orchestrator is C9.
type Orchestrator struct {
	branchStore *branch.Store
	docStore    *document.Store
	retriever   *retrieval.Retriever
	arbiter     LockArbiter
	embedderFor func(profile string, mode types.LLMMode) (embedding.Embedder, error)
	providerFor func(mode types.LLMMode, cloudModel string) (llm.Provider, error)
	defaultMode types.LLMMode
	maxHistory  int
	summaryDocK int
}

// LockArbiter is the subset of concurrency.Arbiter the orchestrator
// needs, kept as an interface so tests can fake timeouts cheaply.
type LockArbiter interface {
	AcquireConversation(ctx context.Context, convID int64) (concurrency.Release, error)
	AcquireLocal(ctx context.Context, mode types.LLMMode) (concurrency.Release, error)
}

// New builds an Orchestrator. embedderFor/providerFor are indirections
// over the process-scoped registries (internal/registry) so the
// orchestrator never constructs model clients itself.
func New(
	branchStore *branch.Store,
	docStore *document.Store,
	retriever *retrieval.Retriever,
	arbiter LockArbiter,
	embedderFor func(profile string, mode types.LLMMode) (embedding.Embedder, error),
	providerFor func(mode types.LLMMode, cloudModel string) (llm.Provider, error),
	defaultMode types.LLMMode,
	maxHistory int,
) *Orchestrator {
	return &Orchestrator{
		branchStore: branchStore,
		docStore:    docStore,
		retriever:   retriever,
		arbiter:     arbiter,
		embedderFor: embedderFor,
		providerFor: providerFor,
		defaultMode: defaultMode,
		maxHistory:  maxHistory,
		summaryDocK: 20,
	}
}

// HandleChat runs a brand-new turn: ValidateConv → ResolveParent →
// BuildHistory → Retrieve → AcquireLocks → EmitMeta → StreamGenerate →
// PersistAssistant → EmitDone → ReleaseLocks (deferred, so the locks are
// held until the assistant message is persisted).
func (o *Orchestrator) HandleChat(ctx context.Context, req ChatRequest, emit Emitter) error {
	conv, err := o.docStore.GetConversation(ctx, req.ConvID, req.OwnerUserID)
	if err != nil {
		return err
	}

	content, ok := utils.ValidateInput(req.Message)
	if !ok || content == "" {
		return apperrors.NewBadRequestError("message has no usable text")
	}

	parent, err := o.branchStore.ResolveParent(ctx, conv.ConvID, branch.NewRequest{ParentMessageID: req.ParentMessageID})
	if err != nil {
		return err
	}

	userMsg, err := o.branchStore.AppendUserMessage(ctx, conv.ConvID, content, parent, nil, 1)
	if err != nil {
		return err
	}

	return o.runTurn(ctx, conv, userMsg, req.CloudModel, emit)
}

// HandleEdit runs an edit/regenerate turn: always a new user-message
// sibling in the original's edit group, with its parent resolved by
// the regenerate rule when req.Regenerate is set and by the plain-edit
// rule otherwise, followed by the same generation pipeline.
func (o *Orchestrator) HandleEdit(ctx context.Context, req EditRequest, emit Emitter) error {
	conv, err := o.docStore.GetConversation(ctx, req.ConvID, req.OwnerUserID)
	if err != nil {
		return err
	}

	original, err := o.branchStore.GetMessage(ctx, conv.ConvID, req.OriginalMessageID)
	if err != nil {
		return err
	}
	if original.Role != types.RoleUser {
		return apperrors.NewInvalidParentError("only a user message can be edited or regenerated")
	}

	content := req.Content
	if content == "" {
		content = original.Content
	}
	content, ok := utils.ValidateInput(content)
	if !ok || content == "" {
		return apperrors.NewBadRequestError("message has no usable text")
	}

	resolveReq := branch.NewRequest{IsEdit: true, OriginalMessage: original}
	if req.Regenerate {
		resolveReq = branch.NewRequest{Regenerate: true}
	}
	parent, err := o.branchStore.ResolveParent(ctx, conv.ConvID, resolveReq)
	if err != nil {
		return err
	}

	editGroupID := original.EditGroupID
	if editGroupID == nil {
		editGroupID = &original.ID
	}
	versionIndex, err := o.branchStore.NextVersionIndex(ctx, conv.ConvID, *editGroupID)
	if err != nil {
		return err
	}

	userMsg, err := o.branchStore.AppendUserMessage(ctx, conv.ConvID, content, parent, editGroupID, versionIndex)
	if err != nil {
		return err
	}

	return o.runTurn(ctx, conv, userMsg, req.CloudModel, emit)
}

// runTurn is the shared tail of both entry points from BuildHistory
// onward: retrieval, locking, generation and persistence.
func (o *Orchestrator) runTurn(ctx context.Context, conv *types.Conversation, userMsg *types.ChatMessage, cloudModel string, emit Emitter) error {
	if conv.LLMMode == "" {
		conv.LLMMode = o.defaultMode
	}

	history, err := o.branchStore.BuildBranchHistory(ctx, conv.ConvID, userMsg.ID, o.maxHistory)
	if err != nil {
		return o.failTurn(ctx, conv, userMsg, emit, err)
	}

	embedder, err := o.embedderFor(conv.EmbeddingProfile, conv.LLMMode)
	if err != nil {
		return o.failTurn(ctx, conv, userMsg, emit, apperrors.NewProviderError("embedder unavailable", err))
	}

	queryVec, err := embedder.Embed(ctx, userMsg.Content)
	if err != nil {
		logger.PipelineError(ctx, "orchestrator", "embed_query", err)
		queryVec = nil
	}

	activeDocIDs, err := o.docStore.ListActiveDocIDs(ctx, conv.ConvID)
	if err != nil {
		return o.failTurn(ctx, conv, userMsg, emit, err)
	}
	activeNote := o.activeDocNote(ctx, conv.ConvID)

	params := o.retriever.ResolveParams(conv.LLMMode, userMsg.Content)

	retrievalCtx, provider, err := o.retrieveAndSelectProvider(ctx, conv, userMsg.Content, queryVec, embedder, history, activeDocIDs, activeNote, params, cloudModel)
	if err != nil {
		return o.failTurn(ctx, conv, userMsg, emit, err)
	}

	releaseConv, err := o.arbiter.AcquireConversation(ctx, conv.ConvID)
	if err != nil {
		return o.failTurn(ctx, conv, userMsg, emit, err)
	}
	defer releaseConv()

	releaseLocal, err := o.arbiter.AcquireLocal(ctx, conv.LLMMode)
	if err != nil {
		return o.failTurn(ctx, conv, userMsg, emit, err)
	}
	defer releaseLocal()

	sources, sourceChunkFrames := buildSourceFrames(retrievalCtx.DocumentChunks)
	if err := emit.Meta(sources, sourceChunkFrames, userMsg.ID, userMsg.EditGroupID); err != nil {
		return err
	}

	contextDocs := make([]llm.ContextDoc, 0, len(retrievalCtx.DocumentChunks))
	for _, c := range retrievalCtx.DocumentChunks {
		contextDocs = append(contextDocs, llm.ContextDoc{Content: c.Content, Source: c.Metadata.Source})
	}

	tokens, err := provider.GenerateStream(ctx, userMsg.Content, contextDocs, retrievalCtx.RecentContext, retrievalCtx.CombinedContext)
	if err != nil {
		// §4.7: streaming is optional; simulate it over a non-streaming
		// generation rather than failing the turn outright.
		result, genErr := provider.Generate(ctx, userMsg.Content, contextDocs, retrievalCtx.RecentContext, retrievalCtx.CombinedContext)
		if genErr != nil {
			return o.failTurn(ctx, conv, userMsg, emit, apperrors.NewProviderError("stream generation failed", err))
		}
		tokens = simulateStream(result)
	}

	// Draining the channel to completion (rather than breaking out of the
	// loop) guarantees the producer goroutine behind tokens always gets
	// to send its final value and exit, even once the client has
	// disconnected — the streaming counterpart of the arbiter's
	// cancellation-safe release (G3).
	var full strings.Builder
	var streamErr error
	disconnected := false
	for tok := range tokens {
		if tok.Err != nil {
			streamErr = tok.Err
			continue
		}
		if disconnected || tok.Content == "" {
			continue
		}
		full.WriteString(tok.Content)
		if err := emit.Token(tok.Content); err != nil {
			disconnected = true
			if streamErr == nil {
				streamErr = ctx.Err()
			}
		}
	}

	fullResponse := llm.SanitizeFinal(full.String())
	promptSnapshot := llm.BuildSystemPrompt(contextDocs)

	if streamErr != nil {
		fullResponse = fullResponse + fmt.Sprintf("\n\n[Error: %v]", streamErr)
		assistantMsg, persistErr := o.branchStore.AppendAssistantMessage(
			logger.CloneContext(ctx), conv.ConvID, fullResponse, userMsg.ID, utils.ToJSON(sources), utils.ToJSON(sourceChunkFrames), promptSnapshot,
		)
		if persistErr != nil {
			logger.PipelineError(ctx, "orchestrator", "persist_error_assistant", persistErr)
			_ = emit.Error(streamErr.Error())
			return streamErr
		}
		o.touchConversation(ctx, conv.ConvID)
		_ = emit.Error(streamErr.Error())
		return emit.Done(assistantMsg.ID, fullResponse, true)
	}

	assistantMsg, err := o.branchStore.AppendAssistantMessage(
		ctx, conv.ConvID, fullResponse, userMsg.ID, utils.ToJSON(sources), utils.ToJSON(sourceChunkFrames), promptSnapshot,
	)
	if err != nil {
		_ = emit.Error(err.Error())
		return err
	}
	o.touchConversation(ctx, conv.ConvID)

	return emit.Done(assistantMsg.ID, fullResponse, false)
}

// retrieveAndSelectProvider resolves which provider serves this turn and
// builds its retrieval context; a summary-intent query over a corpus too
// large for a single prompt routes to C10 instead of C5, returning a
// pre-rendered context with empty structured hits.
func (o *Orchestrator) retrieveAndSelectProvider(
	ctx context.Context, conv *types.Conversation, query string, queryVec []float32, embedder embedding.Embedder,
	history []types.ChatMessage, activeDocIDs []int64, activeNote string, params types.RetrievalParams, cloudModel string,
) (*types.RetrievalContext, llm.Provider, error) {
	provider, err := o.providerFor(conv.LLMMode, cloudModel)
	if err != nil {
		return nil, nil, apperrors.NewProviderError("no provider available", err)
	}

	if params.DocK >= o.summaryDocK {
		allChunks, err := o.docStore.ListAllChunks(ctx, conv.ConvID, activeDocIDs)
		if err == nil && totalBytes(allChunks) > summaryContextBudgetChars {
			summary, err := hierarchical.New(provider).Summarize(ctx, conv.LLMMode, allChunks, params.DocK*6, int64(conv.ConvID))
			if err != nil {
				return nil, nil, err
			}
			return &types.RetrievalContext{
				RecentContext:   lastN(history, params.RecentN),
				CombinedContext: "### Document Summary:\n" + summary,
			}, provider, nil
		}
	}

	retrievalCtx, err := o.retriever.BuildContext(ctx, conv.ConvID, query, queryVec, embedder, history, activeDocIDs, activeNote, params)
	if err != nil {
		return nil, nil, err
	}
	return retrievalCtx, provider, nil
}

// failTurn persists the user turn's coherent pair even on a pre-stream
// failure: an assistant reply recording the error rather than leaving
// the user message orphaned (§4.9).
func (o *Orchestrator) failTurn(ctx context.Context, conv *types.Conversation, userMsg *types.ChatMessage, emit Emitter, cause error) error {
	logger.PipelineError(ctx, "orchestrator", "pre_stream", cause)
	errText := fmt.Sprintf("[Error: %v]", cause)
	assistantMsg, err := o.branchStore.AppendAssistantMessage(logger.CloneContext(ctx), conv.ConvID, errText, userMsg.ID, "[]", "[]", "")
	if err != nil {
		logger.PipelineError(ctx, "orchestrator", "persist_error_assistant", err)
		_ = emit.Error(cause.Error())
		return cause
	}
	o.touchConversation(ctx, conv.ConvID)
	_ = emit.Error(cause.Error())
	_ = emit.Done(assistantMsg.ID, errText, true)
	return cause
}

func (o *Orchestrator) touchConversation(ctx context.Context, convID int64) {
	if err := o.docStore.TouchConversationAutocommit(ctx, convID); err != nil {
		logger.PipelineError(ctx, "orchestrator", "touch_conversation", err)
	}
}

func (o *Orchestrator) activeDocNote(ctx context.Context, convID int64) string {
	inactive, err := o.docStore.ListInactiveDocNames(ctx, convID)
	if err != nil || len(inactive) == 0 {
		return ""
	}
	return "The user has disabled these documents for this conversation: " + strings.Join(inactive, ", ")
}

func buildSourceFrames(chunks []types.ScoredChunk) ([]string, []SourceChunkFrame) {
	sources := make([]string, 0, len(chunks))
	frames := make([]SourceChunkFrame, 0, len(chunks))
	for i, c := range chunks {
		sources = append(sources, c.Metadata.Source)
		frames = append(frames, SourceChunkFrame{Index: i + 1, Source: c.Metadata.Source, Chunk: c.Content})
	}
	return sources, frames
}

func lastN(history []types.ChatMessage, n int) []types.ChatMessage {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

func totalBytes(chunks []types.Chunk) int {
	total := 0
	for _, c := range chunks {
		total += len(c.Content)
	}
	return total
}

// simulateStream is the fallback runTurn uses when a Provider's
// GenerateStream returns an error: it space-splits a
// GenerateResult into StreamTokens, per §4.7's "optional; if unsupported,
// orchestrator simulates by space-splitting."
func simulateStream(result *llm.GenerateResult) <-chan llm.StreamToken {
	out := make(chan llm.StreamToken)
	go func() {
		defer close(out)
		words := strings.Fields(result.Response)
		for i, w := range words {
			token := w
			if i < len(words)-1 {
				token += " "
			}
			out <- llm.StreamToken{Content: token}
		}
		out <- llm.StreamToken{Done: true}
	}()
	return out
}
