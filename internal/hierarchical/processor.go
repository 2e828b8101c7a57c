package hierarchical

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/Sourabsb/doctalk/internal/errors"
	"github.com/Sourabsb/doctalk/internal/llm"
	"github.com/Sourabsb/doctalk/internal/logger"
	"github.com/Sourabsb/doctalk/internal/types"
)

// Processor is C10: stratified sampling plus batch-then-merge generation,
// invoked when a single prompt cannot hold the full active-document
// corpus (§4.9's summary-intent routing, flashcard/mindmap generation).
type Processor struct {
	provider llm.Provider
}

// New builds a Processor over a single LLMProvider; local mode batches,
// cloud mode single-shots (§4.10).
func New(provider llm.Provider) *Processor {
	return &Processor{provider: provider}
}

// Summarize produces one merged summary from up to sampleTarget chunks.
// Local mode (N > 6) partitions into batches of 6, summarizes each, then
// runs a final merge pass; cloud mode is single-shot over the full
// sampled set.
func (p *Processor) Summarize(ctx context.Context, mode types.LLMMode, chunks []types.Chunk, sampleTarget int, seed int64) (string, error) {
	sample := StratifiedSample(chunks, sampleTarget, seed)
	if len(sample) == 0 {
		return "", apperrors.NewNoContentError("no chunks available to summarize")
	}

	if mode != types.LLMModeLocal || len(sample) <= batchSize {
		prompt := fmt.Sprintf("Summarize the following document section(s) concisely, preserving key facts:\n\n%s", joinContent(sample))
		return p.generateSimple(ctx, "summarize", prompt)
	}

	batches := partition(sample)
	partials := make([]string, 0, len(batches))
	for i, batch := range batches {
		prompt := fmt.Sprintf("Summarize this section of a larger document:\n\n%s", joinContent(batch))
		partial, err := p.generateSimple(ctx, "summarize_batch", prompt)
		if err != nil {
			return "", err
		}
		logger.Pipeline(ctx, "hierarchical", "summarize_batch", fmt.Sprintf("batch %d/%d complete", i+1, len(batches)))
		partials = append(partials, partial)
	}

	mergePrompt := fmt.Sprintf(
		"Merge the following partial summaries into a single coherent summary, removing redundancy:\n\n%s",
		strings.Join(partials, "\n\n---\n\n"),
	)
	return p.generateSimple(ctx, "summarize_merge", mergePrompt)
}

// Flashcards produces up to target deduplicated cards, batching over the
// stratified sample in groups of 6 regardless of mode, skipping any
// front already present in existingFronts (the negative-example list
// carried from the SUPPLEMENTED FEATURES section of SPEC_FULL).
func (p *Processor) Flashcards(
	ctx context.Context, chunks []types.Chunk, sampleTarget, target int, existingFronts []string, seed int64,
) ([]types.Flashcard, error) {
	sample := StratifiedSample(chunks, sampleTarget, seed)
	if len(sample) == 0 {
		return nil, apperrors.NewNoContentError("no chunks available for flashcard generation")
	}

	batches := partition(sample)
	perBatch := target / len(batches)
	if perBatch < 3 {
		perBatch = 3
	}

	existing := strings.Join(existingFronts, "; ")

	var all []rawCard
	for i, batch := range batches {
		prompt := p.flashcardPrompt(batch, perBatch, existing)
		raw, err := p.generateSimple(ctx, "flashcards_batch", prompt)
		if err != nil {
			return nil, err
		}
		cards := ParseFlashcards(raw)
		logger.Pipeline(ctx, "hierarchical", "flashcards_batch", fmt.Sprintf("batch %d/%d produced %d cards", i+1, len(batches), len(cards)))
		all = append(all, cards...)
	}

	deduped := DeduplicateFlashcards(all)
	if len(deduped) == 0 {
		return nil, apperrors.NewProviderError("flashcard generation produced no parseable cards", nil)
	}
	if len(deduped) > target {
		deduped = deduped[:target]
	}

	out := make([]types.Flashcard, 0, len(deduped))
	for i, c := range deduped {
		out = append(out, types.Flashcard{Front: c.Front, Back: c.Back, OrderIndex: i})
	}
	return out, nil
}

func (p *Processor) flashcardPrompt(batch []types.Chunk, count int, existing string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d flashcards (front/back) from this document section:\n\n%s\n\n", count, joinContent(batch))
	if existing != "" {
		fmt.Fprintf(&b, "Do not repeat these existing questions: %s\n\n", existing)
	}
	b.WriteString(`Respond as a JSON array of {"front": "...", "back": "..."} objects.`)
	return b.String()
}

// DeduplicateFlashcards removes cards whose lowercased front has already
// been seen, preserving first-seen order; idempotent under concatenation
// with itself (cards ++ cards == cards).
func DeduplicateFlashcards(cards []rawCard) []rawCard {
	seen := make(map[string]struct{}, len(cards))
	out := make([]rawCard, 0, len(cards))
	for _, c := range cards {
		front := strings.TrimSpace(c.Front)
		if front == "" {
			continue
		}
		key := strings.ToLower(front)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rawCard{Front: front, Back: strings.TrimSpace(c.Back)})
	}
	return out
}

// Mindmap produces a single mind map from batched per-section extraction,
// merged by keeping the first batch's title and renumbering every node
// sequentially with dotted child ids (§4.10).
func (p *Processor) Mindmap(ctx context.Context, chunks []types.Chunk, sampleTarget int, seed int64) (*types.MindMap, error) {
	sample := StratifiedSample(chunks, sampleTarget, seed)
	if len(sample) == 0 {
		return nil, apperrors.NewNoContentError("no chunks available for mind map generation")
	}

	batches := partition(sample)
	var title string
	var allNodes []rawMindmapNode
	for i, batch := range batches {
		prompt := fmt.Sprintf(
			`Extract a hierarchical mind map outline from this document section. Respond as JSON: {"title": "...", "nodes": [{"label": "...", "children": [...]}]}`+"\n\n%s",
			joinContent(batch),
		)
		raw, err := p.generateSimple(ctx, "mindmap_batch", prompt)
		if err != nil {
			return nil, err
		}
		mm, ok := ParseMindmap(raw)
		if !ok {
			logger.Pipeline(ctx, "hierarchical", "mindmap_batch", fmt.Sprintf("batch %d/%d produced no parseable mindmap", i+1, len(batches)))
			continue
		}
		if title == "" {
			title = mm.Title
		}
		allNodes = append(allNodes, mm.Nodes...)
	}

	if len(allNodes) == 0 {
		return nil, apperrors.NewProviderError("mindmap generation produced no parseable nodes", nil)
	}
	if title == "" {
		title = "Mind Map"
	}

	return &types.MindMap{Title: title, Nodes: renumberNodes(allNodes, "")}, nil
}

// renumberNodes re-numbers a node slice sequentially from 1 with dotted
// child ids (e.g. "2.1.3"), the merge rule for §4.10.
func renumberNodes(nodes []rawMindmapNode, prefix string) []types.MindMapNode {
	out := make([]types.MindMapNode, 0, len(nodes))
	for i, n := range nodes {
		id := fmt.Sprintf("%d", i+1)
		if prefix != "" {
			id = fmt.Sprintf("%s.%d", prefix, i+1)
		}
		out = append(out, types.MindMapNode{
			ID:       id,
			Label:    n.Label,
			Children: renumberNodes(n.Children, id),
		})
	}
	return out
}

func (p *Processor) generateSimple(ctx context.Context, action, prompt string) (string, error) {
	text, err := p.provider.GenerateSimple(ctx, prompt)
	if err != nil {
		logger.PipelineError(ctx, "hierarchical", action, err)
		return "", apperrors.NewProviderError("hierarchical "+action+" failed", err)
	}
	return text, nil
}
