package handlers

import (
	"net/http"

	"github.com/pratik-mahalle/tiergate/internal/api/dto"
	"github.com/pratik-mahalle/tiergate/internal/api/middleware"
	"github.com/pratik-mahalle/tiergate/internal/domain/chat"
	"github.com/pratik-mahalle/tiergate/internal/domain/gate"
	"github.com/pratik-mahalle/tiergate/internal/domain/plan"
	"github.com/pratik-mahalle/tiergate/internal/pkg/errors"
	"github.com/pratik-mahalle/tiergate/internal/pkg/logger"
	"github.com/pratik-mahalle/tiergate/internal/pkg/utils"
	"github.com/pratik-mahalle/tiergate/internal/pkg/validator"
)

// ChatHandler runs gated chat turns and reports usage
type ChatHandler struct {
	chat      chat.Service
	gate      gate.Service
	logger    *logger.Logger
	validator *validator.Validator
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService chat.Service, gateService gate.Service, log *logger.Logger, val *validator.Validator) *ChatHandler {
	return &ChatHandler{
		chat:      chatService,
		gate:      gateService,
		logger:    log,
		validator: val,
	}
}

// Send handles one chat turn
// @Summary Send a chat message
// @Description Checks the caller's quota and module access, generates a reply and records usage
// @Tags Chat
// @Accept json
// @Produce json
// @Param request body dto.ChatRequest true "Conversation"
// @Success 200 {object} dto.ChatResponse
// @Failure 400 {object} utils.Envelope "Validation error"
// @Failure 403 {object} utils.Envelope "Module not in plan"
// @Failure 429 {object} utils.Envelope "Quota exhausted"
// @Failure 502 {object} utils.Envelope "Provider failure"
// @Security BearerAuth
// @Router /chat [post]
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("User not authenticated"))
		return
	}

	var req dto.ChatRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}
	module, err := plan.ParseModule(req.Module)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	reply, err := h.chat.Send(r.Context(), chat.Request{
		UserID:   userID,
		Module:   module,
		Messages: req.Messages,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	resp := dto.ChatResponse{
		Reply:      reply.Text,
		Model:      reply.Model.ProviderModelID,
		SpeedLabel: reply.Model.SpeedLabel,
		TokensUsed: reply.TokensUsed,
	}
	// the reply is already settled, so a failed summary only drops the usage block
	if summary, err := h.gate.PlanSummary(r.Context(), userID); err == nil {
		resp.Usage = summary
	} else {
		h.logger.With("user_id", userID).ErrorWithErr(err, "Failed to load usage after chat")
	}

	utils.WriteSuccess(w, http.StatusOK, resp)
}

// Usage returns the caller's plan, limits and usage
// @Summary Get usage
// @Tags Chat
// @Produce json
// @Success 200 {object} gate.PlanSummary
// @Failure 401 {object} utils.Envelope "Unauthorized"
// @Security BearerAuth
// @Router /usage [get]
func (h *ChatHandler) Usage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("User not authenticated"))
		return
	}

	summary, err := h.gate.PlanSummary(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, summary)
}
