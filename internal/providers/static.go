package providers

import (
	"context"
	"fmt"

	"github.com/pratik-mahalle/tiergate/internal/domain/chat"
	"github.com/pratik-mahalle/tiergate/internal/domain/plan"
)

const defaultOfflineReply = "The assistant is running offline. Set OPENAI_API_KEY or GEMINI_API_KEY to get real answers."

// Static answers every request with a canned reply. It reports no token
// usage so the caller falls back to its estimate.
type Static struct {
	reply string
}

func NewStatic(reply string) *Static {
	if reply == "" {
		reply = defaultOfflineReply
	}
	return &Static{reply: reply}
}

func (s *Static) Generate(ctx context.Context, model plan.ModelConfig, messages []chat.Message, maxTokens int) (*chat.Generation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &chat.Generation{
		Text: fmt.Sprintf("[%s] %s", model.ProviderModelID, s.reply),
	}, nil
}
