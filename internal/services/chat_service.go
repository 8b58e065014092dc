package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pratik-mahalle/tiergate/internal/domain/chat"
	"github.com/pratik-mahalle/tiergate/internal/domain/gate"
	"github.com/pratik-mahalle/tiergate/internal/domain/plan"
	"github.com/pratik-mahalle/tiergate/internal/pkg/logger"
	"github.com/pratik-mahalle/tiergate/internal/pkg/metrics"
)

// ChatService implements chat.Service
type ChatService struct {
	gate     gate.Service
	provider chat.Provider
	logger   *logger.Logger
}

// NewChatService creates a new chat service
func NewChatService(g gate.Service, provider chat.Provider, log *logger.Logger) chat.Service {
	return &ChatService{
		gate:     g,
		provider: provider,
		logger:   log,
	}
}

// Send evaluates the request, calls the provider and settles usage. Usage is
// only recorded when the provider returned a reply and the caller is still
// waiting for it.
func (s *ChatService) Send(ctx context.Context, req chat.Request) (*chat.Reply, error) {
	if len(req.Messages) == 0 {
		return nil, chat.ErrEmptyConversation
	}
	if err := chat.CheckRoles(req.Messages); err != nil {
		return nil, err
	}

	result, err := s.gate.Evaluate(ctx, req.UserID, req.Module)
	if err != nil {
		return nil, err
	}
	if err := result.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	gen, err := s.provider.Generate(ctx, result.Model, req.Messages, responseBudget(result.MaxResponseTokens))
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecordGeneration(result.Model.ProviderModelID, status, time.Since(start))

	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"user_id": req.UserID,
			"plan_id": result.PlanID,
			"model":   result.Model.ProviderModelID,
		}).ErrorWithErr(err, "Provider generation failed")
		return nil, fmt.Errorf("%w: %w", chat.ErrProviderFailure, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := gen.TokensUsed
	if tokens <= 0 {
		tokens = chat.EstimateTokens(gen.Text)
	}

	if err := s.gate.Settle(ctx, req.UserID, tokens); err != nil {
		return nil, err
	}

	return &chat.Reply{
		Text:       gen.Text,
		Model:      result.Model,
		TokensUsed: tokens,
	}, nil
}

// responseBudget converts a per-message limit into a provider max-tokens
// value where 0 means the provider default
func responseBudget(limit int64) int {
	if limit == plan.Unlimited || limit <= 0 {
		return 0
	}
	return int(limit)
}
