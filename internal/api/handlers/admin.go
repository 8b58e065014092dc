package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pratik-mahalle/tiergate/internal/api/dto"
	"github.com/pratik-mahalle/tiergate/internal/domain/gate"
	"github.com/pratik-mahalle/tiergate/internal/domain/user"
	"github.com/pratik-mahalle/tiergate/internal/pkg/logger"
	"github.com/pratik-mahalle/tiergate/internal/pkg/utils"
	"github.com/pratik-mahalle/tiergate/internal/pkg/validator"
)

// AdminHandler serves user administration endpoints
type AdminHandler struct {
	store     user.Store
	accounts  user.Service
	gate      gate.Service
	logger    *logger.Logger
	validator *validator.Validator
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(store user.Store, accounts user.Service, g gate.Service, log *logger.Logger, val *validator.Validator) *AdminHandler {
	return &AdminHandler{
		store:     store,
		accounts:  accounts,
		gate:      g,
		logger:    log,
		validator: val,
	}
}

// ListUsers returns one page of users with their current-period usage
// @Summary List users
// @Tags Admin
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Items per page"
// @Success 200 {object} utils.PaginatedResponse[dto.UserUsageDTO]
// @Security BearerAuth
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ids, err := h.store.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	params := utils.ParsePaginationParams(r)
	page := utils.Slice(ids, params)

	rows := make([]dto.UserUsageDTO, 0, len(page))
	for _, id := range page {
		rec, err := h.accounts.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, h.logger, err)
			return
		}
		summary, err := h.gate.PlanSummary(r.Context(), id)
		if err != nil {
			writeServiceError(w, h.logger, err)
			return
		}

		row := dto.UserUsageDTO{
			UserDTO:      *toUserDTO(rec),
			Period:       string(summary.Period),
			MessagesUsed: summary.Used.Messages,
			TokensUsed:   summary.Used.Tokens,
		}
		// the summary has already applied any expiry downgrade
		row.PlanID = string(summary.PlanID)
		row.ExpiresAt = summary.ExpiresAt
		rows = append(rows, row)
	}

	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(rows, params, len(ids)))
}

// SetRole grants or revokes admin rights
// @Summary Set a user's role
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body dto.SetRoleRequest true "Role"
// @Success 200 {object} dto.UserDTO
// @Security BearerAuth
// @Router /admin/users/{id}/role [post]
func (h *AdminHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.SetRoleRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	if err := h.accounts.SetRole(r.Context(), id, req.Role); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	rec, err := h.accounts.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, toUserDTO(rec))
}
