package dto

import (
	"github.com/pratik-mahalle/tiergate/internal/domain/chat"
	"github.com/pratik-mahalle/tiergate/internal/domain/gate"
)

// ChatRequest is one gated chat turn. Module is optional.
type ChatRequest struct {
	Messages []chat.Message `json:"messages" validate:"required,min=1,max=100,dive"`
	Module   string         `json:"module,omitempty" validate:"module"`
}

// ChatResponse carries the reply and the usage after it was settled
type ChatResponse struct {
	Reply      string            `json:"reply"`
	Model      string            `json:"model"`
	SpeedLabel string            `json:"speed_label,omitempty"`
	TokensUsed int64             `json:"tokens_used"`
	Usage      *gate.PlanSummary `json:"usage,omitempty"`
}
