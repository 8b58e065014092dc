package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/pratik-mahalle/tiergate/internal/domain/plan"
)

// Message roles a caller may send. The system prompt belongs to the
// operator and is added by the provider.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation
type Message struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

// CheckRoles rejects any turn that is not a user or assistant message
func CheckRoles(messages []Message) error {
	for i, m := range messages {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			return fmt.Errorf("%w: message %d has role %q", ErrInvalidRole, i, m.Role)
		}
	}
	return nil
}

// Generation is what a provider returns for one completion
type Generation struct {
	Text       string
	TokensUsed int64
}

// Provider generates a reply from a model. maxTokens of 0 leaves the
// response length to the provider.
type Provider interface {
	Generate(ctx context.Context, model plan.ModelConfig, messages []Message, maxTokens int) (*Generation, error)
}

// Request is one gated chat turn
type Request struct {
	UserID   string
	Module   plan.Module
	Messages []Message
}

// Reply is the outcome of a successful chat turn
type Reply struct {
	Text       string           `json:"reply"`
	Model      plan.ModelConfig `json:"model"`
	TokensUsed int64            `json:"tokens_used"`
}

// Service runs a chat turn through the gate and the provider
type Service interface {
	Send(ctx context.Context, req Request) (*Reply, error)
}

// EstimateTokens approximates the token count of text by counting words.
// It is used only when a provider reports no usage.
func EstimateTokens(text string) int64 {
	return int64(len(strings.Fields(text)))
}
