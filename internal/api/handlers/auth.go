package handlers

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/pratik-mahalle/tiergate/internal/api/dto"
	"github.com/pratik-mahalle/tiergate/internal/api/middleware"
	"github.com/pratik-mahalle/tiergate/internal/auth"
	"github.com/pratik-mahalle/tiergate/internal/config"
	"github.com/pratik-mahalle/tiergate/internal/domain/user"
	"github.com/pratik-mahalle/tiergate/internal/pkg/errors"
	"github.com/pratik-mahalle/tiergate/internal/pkg/logger"
	"github.com/pratik-mahalle/tiergate/internal/pkg/utils"
	"github.com/pratik-mahalle/tiergate/internal/pkg/validator"
)

const refreshTokenCookie = "refreshToken"

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	accounts  user.Service
	issuer    *auth.Issuer
	config    *config.Config
	logger    *logger.Logger
	validator *validator.Validator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	accounts user.Service,
	issuer *auth.Issuer,
	cfg *config.Config,
	log *logger.Logger,
	val *validator.Validator,
) *AuthHandler {
	return &AuthHandler{
		accounts:  accounts,
		issuer:    issuer,
		config:    cfg,
		logger:    log,
		validator: val,
	}
}

// Register handles user registration
// @Summary User registration
// @Description Register a new account on the free plan
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration details"
// @Success 201 {object} dto.AuthResponse "User successfully registered"
// @Failure 400 {object} utils.Envelope "Invalid request or validation error"
// @Failure 409 {object} utils.Envelope "Email already registered"
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	rec, err := h.accounts.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if h.config.IsAdminEmail(rec.Email) {
		if err := h.accounts.SetRole(r.Context(), rec.ID, user.RoleAdmin); err != nil {
			writeServiceError(w, h.logger, err)
			return
		}
		rec.Role = user.RoleAdmin
	}

	h.issue(w, rec, http.StatusCreated)
}

// Login handles user login
// @Summary User login
// @Description Authenticate user with email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.AuthResponse "Successfully authenticated"
// @Failure 400 {object} utils.Envelope "Invalid request"
// @Failure 401 {object} utils.Envelope "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	rec, err := h.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.WithFields(map[string]interface{}{
			"email": user.NormalizeEmail(req.Email),
		}).Warn("Authentication failed")
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"user_id": rec.ID,
		"email":   rec.Email,
	}).Info("User logged in successfully")

	h.issue(w, rec, http.StatusOK)
}

// Refresh exchanges a refresh token for a new token pair
// @Summary Refresh tokens
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest false "Refresh token, or the refreshToken cookie"
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} utils.Envelope "Invalid refresh token"
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var tokenStr string
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		tokenStr = cookie.Value
	}
	if tokenStr == "" {
		var req dto.RefreshTokenRequest
		if !decodeAndValidate(w, r, h.validator, &req) {
			return
		}
		tokenStr = req.RefreshToken
	}

	claims, err := h.issuer.Parse(tokenStr, auth.KindRefresh)
	if err != nil {
		utils.WriteError(w, errors.Unauthorized("Invalid or expired refresh token"))
		return
	}

	// reload so role changes since the last login take effect
	rec, err := h.accounts.Get(r.Context(), claims.UserID)
	if err != nil {
		utils.WriteError(w, errors.Unauthorized("Invalid or expired refresh token"))
		return
	}

	h.issue(w, rec, http.StatusOK)
}

// Logout clears the session cookies
// @Summary User logout
// @Tags Auth
// @Success 200 {object} utils.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.setCookie(w, middleware.AccessTokenCookie, "", -1)
	h.setCookie(w, refreshTokenCookie, "", -1)
	utils.WriteSuccessWithMessage(w, http.StatusOK, "Logged out successfully", nil)
}

// Me returns the current user's information
// @Summary Get current user
// @Tags Auth
// @Produce json
// @Success 200 {object} dto.UserDTO "User information"
// @Failure 401 {object} utils.Envelope "Unauthorized"
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("User not authenticated"))
		return
	}

	rec, err := h.accounts.Get(r.Context(), userID)
	if err != nil {
		if stderrors.Is(err, user.ErrNotFound) {
			utils.WriteError(w, errors.Unauthorized("User not authenticated"))
			return
		}
		writeServiceError(w, h.logger, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, toUserDTO(rec))
}

func (h *AuthHandler) issue(w http.ResponseWriter, rec *user.Record, status int) {
	tokens, err := h.issuer.Mint(auth.Identity{UserID: rec.ID, Email: rec.Email, Role: rec.Role})
	if err != nil {
		h.logger.ErrorWithErr(err, "Failed to generate tokens")
		utils.WriteError(w, errors.Internal("Failed to generate tokens", err))
		return
	}

	h.setCookie(w, middleware.AccessTokenCookie, tokens.AccessToken, h.config.Auth.AccessTokenExpiry)
	h.setCookie(w, refreshTokenCookie, tokens.RefreshToken, h.config.Auth.RefreshTokenExpiry)

	utils.WriteSuccess(w, status, dto.AuthResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
		User:         toUserDTO(rec),
	})
}

// setCookie writes an HttpOnly cookie; a negative ttl deletes it
func (h *AuthHandler) setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	maxAge := int(ttl.Seconds())
	if ttl < 0 {
		maxAge = -1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		HttpOnly: true,
		Secure:   h.config.IsProduction(),
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   maxAge,
	})
}
