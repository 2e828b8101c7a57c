package llm

import (
	"context"
	"fmt"
	"net/url"

	ollamaapi "github.com/ollama/ollama/api"

	"github.com/Sourabsb/doctalk/internal/logger"
	"github.com/Sourabsb/doctalk/internal/types"
)

// LocalProvider is the local LLMProvider family: an Ollama daemon, with
// streaming run on a background goroutine and handed to the async
// consumer via a bounded channel — the Go counterpart of the original
// service's queue.Queue + threading.Thread pattern.
type LocalProvider struct {
	client *ollamaapi.Client
	model  string
}

// NewLocalProvider dials host and targets model.
func NewLocalProvider(host, model string) (*LocalProvider, error) {
	base, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host: %w", err)
	}
	return &LocalProvider{client: ollamaapi.NewClient(base, nil), model: model}, nil
}

func (p *LocalProvider) Name() string { return "local" }

func (p *LocalProvider) buildMessages(prompt string, contextDocs []ContextDoc, recent []types.ChatMessage, auxContext string) []ollamaapi.Message {
	messages := []ollamaapi.Message{{Role: "system", Content: BuildSystemPrompt(contextDocs)}}
	if auxContext != "" {
		messages = append(messages, ollamaapi.Message{Role: "system", Content: auxContext})
	}
	for _, m := range recent {
		role := "user"
		if m.Role == types.RoleAssistant {
			role = "assistant"
		}
		messages = append(messages, ollamaapi.Message{Role: role, Content: m.Content})
	}
	messages = append(messages, ollamaapi.Message{Role: "user", Content: prompt})
	return messages
}

func (p *LocalProvider) Generate(
	ctx context.Context, prompt string, contextDocs []ContextDoc, recent []types.ChatMessage, auxContext string,
) (*GenerateResult, error) {
	streamFlag := false
	req := &ollamaapi.ChatRequest{Model: p.model, Messages: p.buildMessages(prompt, contextDocs, recent, auxContext), Stream: &streamFlag}

	var content string
	err := p.client.Chat(ctx, req, func(resp ollamaapi.ChatResponse) error {
		content = resp.Message.Content
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("local generate failed: %w", err)
	}

	return &GenerateResult{
		Response: SanitizeFinal(content),
		Sources:  sourcesFrom(contextDocs),
	}, nil
}

// GenerateStream runs the blocking Ollama chat iterator on a background
// goroutine; each delta is sanitized per-token and handed to the bounded
// channel the caller reads from.
func (p *LocalProvider) GenerateStream(
	ctx context.Context, prompt string, contextDocs []ContextDoc, recent []types.ChatMessage, auxContext string,
) (<-chan StreamToken, error) {
	streamFlag := true
	req := &ollamaapi.ChatRequest{Model: p.model, Messages: p.buildMessages(prompt, contextDocs, recent, auxContext), Stream: &streamFlag}

	out := make(chan StreamToken, 16)
	go func() {
		defer close(out)

		err := p.client.Chat(ctx, req, func(resp ollamaapi.ChatResponse) error {
			if resp.Message.Content != "" {
				out <- StreamToken{Content: SanitizeToken(resp.Message.Content)}
			}
			if resp.Done {
				out <- StreamToken{Done: true}
			}
			return nil
		})
		if err != nil {
			logger.Errorf(ctx, "local stream failed: %v", err)
			out <- StreamToken{Err: err, Done: true}
		}
	}()

	return out, nil
}

func (p *LocalProvider) GenerateSimple(ctx context.Context, prompt string) (string, error) {
	streamFlag := false
	req := &ollamaapi.ChatRequest{
		Model:    p.model,
		Messages: []ollamaapi.Message{{Role: "user", Content: prompt}},
		Stream:   &streamFlag,
	}

	var content string
	err := p.client.Chat(ctx, req, func(resp ollamaapi.ChatResponse) error {
		content = resp.Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("local generate-simple failed: %w", err)
	}
	return SanitizeFinal(content), nil
}
