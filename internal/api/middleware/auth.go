package middleware

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/pratik-mahalle/tiergate/internal/auth"
	"github.com/pratik-mahalle/tiergate/internal/domain/user"
	"github.com/pratik-mahalle/tiergate/internal/pkg/errors"
	"github.com/pratik-mahalle/tiergate/internal/pkg/utils"
)

// ContextKey is a custom type for context keys
type ContextKey string

const (
	// UserIDKey is the context key for user ID
	UserIDKey ContextKey = "userID"
	// UserEmailKey is the context key for user email
	UserEmailKey ContextKey = "email"
	// UserRoleKey is the context key for the user's role
	UserRoleKey ContextKey = "role"
)

// AccessTokenCookie is read when no Authorization header is sent
const AccessTokenCookie = "accessToken"

func tokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func withIdentity(w http.ResponseWriter, r *http.Request, id auth.Identity) *http.Request {
	ctx := context.WithValue(r.Context(), UserIDKey, id.UserID)
	ctx = context.WithValue(ctx, UserEmailKey, id.Email)
	ctx = context.WithValue(ctx, UserRoleKey, id.Role)

	AddLogField(w, "user_id", id.UserID)
	AddLogField(w, "email", id.Email)

	return r.WithContext(ctx)
}

// AuthMiddleware returns a middleware that validates access tokens
func AuthMiddleware(issuer *auth.Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := tokenFromRequest(r)
			if tokenStr == "" {
				utils.WriteError(w, errors.Unauthorized("Missing authentication token"))
				return
			}

			claims, err := issuer.Parse(tokenStr, auth.KindAccess)
			if err != nil {
				utils.WriteError(w, errors.Unauthorized("Invalid or expired token"))
				return
			}

			next.ServeHTTP(w, withIdentity(w, r, claims.Identity()))
		})
	}
}

// OptionalAuthMiddleware is like AuthMiddleware but doesn't reject requests without tokens
func OptionalAuthMiddleware(issuer *auth.Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenStr := tokenFromRequest(r); tokenStr != "" {
				if claims, err := issuer.Parse(tokenStr, auth.KindAccess); err == nil {
					r = withIdentity(w, r, claims.Identity())
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RoleLookup loads the stored record behind an access token
type RoleLookup interface {
	Get(ctx context.Context, id string) (*user.Record, error)
}

// RequireAdmin rejects callers whose stored role is not admin. The token's
// role claim only short-circuits non-admins, so a revoked admin loses access
// on the next request. It must run after AuthMiddleware.
func RequireAdmin(users RoleLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, _ := GetUserID(r)
			if role, _ := GetUserRole(r); role != user.RoleAdmin || userID == "" {
				utils.WriteError(w, errors.Forbidden("Admin role required"))
				return
			}

			rec, err := users.Get(r.Context(), userID)
			switch {
			case stderrors.Is(err, user.ErrNotFound):
				utils.WriteError(w, errors.Unauthorized("Invalid credentials or session"))
				return
			case err != nil:
				utils.WriteError(w, errors.ServiceUnavailableErr("User store unavailable", err))
				return
			case !rec.IsAdmin():
				utils.WriteError(w, errors.Forbidden("Admin role required"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetUserID extracts the user ID from the request context
func GetUserID(r *http.Request) (string, bool) {
	userID, ok := r.Context().Value(UserIDKey).(string)
	return userID, ok && userID != ""
}

// GetUserEmail extracts the user email from the request context
func GetUserEmail(r *http.Request) (string, bool) {
	email, ok := r.Context().Value(UserEmailKey).(string)
	return email, ok
}

// GetUserRole extracts the user role from the request context
func GetUserRole(r *http.Request) (string, bool) {
	role, ok := r.Context().Value(UserRoleKey).(string)
	return role, ok
}
