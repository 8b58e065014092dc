package providers

import (
	"context"
	"errors"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pratik-mahalle/tiergate/internal/config"
	"github.com/pratik-mahalle/tiergate/internal/domain/chat"
	"github.com/pratik-mahalle/tiergate/internal/domain/plan"
)

// ErrNoChoices is returned when the API answers without a completion
var ErrNoChoices = errors.New("provider returned no choices")

// OpenAI generates replies with the chat completions API
type OpenAI struct {
	client       *openai.Client
	systemPrompt string
}

// NewOpenAI creates a provider for the configured API key and base URL
func NewOpenAI(cfg config.ProviderConfig) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAIBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAI{
		client:       openai.NewClientWithConfig(clientCfg),
		systemPrompt: cfg.SystemPrompt,
	}
}

// Generate sends the conversation to model
func (p *OpenAI) Generate(ctx context.Context, model plan.ModelConfig, messages []chat.Message, maxTokens int) (*chat.Generation, error) {
	req := openai.ChatCompletionRequest{
		Model:       model.ProviderModelID,
		Messages:    p.buildMessages(messages),
		Temperature: float32(model.Temperature),
		MaxTokens:   maxTokens,
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}

	return &chat.Generation{
		Text:       resp.Choices[0].Message.Content,
		TokensUsed: int64(resp.Usage.TotalTokens),
	}, nil
}

func (p *OpenAI) buildMessages(messages []chat.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if p.systemPrompt != "" {
		out = append(out, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: p.systemPrompt,
		})
	}
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	return out
}

// New picks OpenAI, then Gemini, by whichever API key is configured, and
// falls back to the offline provider
func New(cfg config.ProviderConfig) chat.Provider {
	switch {
	case cfg.OpenAIAPIKey != "":
		return NewOpenAI(cfg)
	case cfg.GeminiAPIKey != "":
		return NewGemini(cfg)
	}
	return NewStatic("")
}
