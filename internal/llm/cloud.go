package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Sourabsb/doctalk/internal/logger"
	"github.com/Sourabsb/doctalk/internal/types"
)

// CloudProvider is the cloud LLMProvider family: a chat-completions
// style, structured {role, content} request against any OpenAI-compatible
// endpoint.
type CloudProvider struct {
	client *openai.Client
	model  string
}

// NewCloudProvider builds a CloudProvider against baseURL (empty for the
// default OpenAI endpoint).
func NewCloudProvider(apiKey, baseURL, model string) *CloudProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &CloudProvider{client: openai.NewClientWithConfig(cfg), model: model}
}

func (p *CloudProvider) Name() string { return "cloud" }

func (p *CloudProvider) buildMessages(prompt string, contextDocs []ContextDoc, recent []types.ChatMessage, auxContext string) []openai.ChatCompletionMessage {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: BuildSystemPrompt(contextDocs)},
	}
	if auxContext != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleSystem, Content: auxContext,
		})
	}
	for _, m := range recent {
		role := openai.ChatMessageRoleUser
		if m.Role == types.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})
	return messages
}

func sourcesFrom(contextDocs []ContextDoc) []string {
	sources := make([]string, 0, len(contextDocs))
	for _, d := range contextDocs {
		sources = append(sources, d.Source)
	}
	return sources
}

func (p *CloudProvider) Generate(
	ctx context.Context, prompt string, contextDocs []ContextDoc, recent []types.ChatMessage, auxContext string,
) (*GenerateResult, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: p.buildMessages(prompt, contextDocs, recent, auxContext),
	})
	if err != nil {
		return nil, fmt.Errorf("cloud generate failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("cloud generate returned no choices")
	}

	return &GenerateResult{
		Response: resp.Choices[0].Message.Content,
		Sources:  sourcesFrom(contextDocs),
	}, nil
}

func (p *CloudProvider) GenerateStream(
	ctx context.Context, prompt string, contextDocs []ContextDoc, recent []types.ChatMessage, auxContext string,
) (<-chan StreamToken, error) {
	stream, err := p.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: p.buildMessages(prompt, contextDocs, recent, auxContext),
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("cloud stream request failed: %w", err)
	}

	out := make(chan StreamToken)
	go func() {
		defer close(out)
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if err != nil {
				if err.Error() == "EOF" || strings.Contains(err.Error(), "stream closed") {
					out <- StreamToken{Done: true}
					return
				}
				logger.Errorf(ctx, "cloud stream recv failed: %v", err)
				out <- StreamToken{Err: err, Done: true}
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			out <- StreamToken{Content: resp.Choices[0].Delta.Content}
		}
	}()

	return out, nil
}

func (p *CloudProvider) GenerateSimple(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("cloud generate-simple failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("cloud generate-simple returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
