package dto

import "time"

// LoginRequest carries credentials. Password length is only enforced at
// registration, so a short password fails as invalid credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest creates a Free plan account
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// RefreshTokenRequest exchanges a refresh token for a new pair. The token may
// come from the refresh cookie instead.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// AuthResponse is returned by register, login and refresh. ExpiresAt is the
// access token expiry in Unix seconds.
type AuthResponse struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	ExpiresAt    int64    `json:"expiresAt"`
	User         *UserDTO `json:"user"`
}

// UserDTO is the public view of a user. PlanID is the stored plan and may
// lag an expiry that has not been reconciled yet.
type UserDTO struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	PlanID    string     `json:"plan_id"`
	ExpiresAt *time.Time `json:"plan_expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
