package middleware

import (
	"context"
	"net/http"
	"strings"

	"social-service/model"
	"social-service/pkg/apperror"
	"social-service/pkg/respond"
)

// TokenCookie is the session cookie set on signup and login.
const TokenCookie = "token"

// ContextKey type for context keys
type ContextKey string

const (
	UserKey ContextKey = "user"
)

// Authenticator resolves a token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// Auth rejects requests without a valid, unrevoked token and stores the
// caller in the request context.
type Auth struct {
	authenticator Authenticator
}

func NewAuth(authenticator Authenticator) *Auth {
	return &Auth{authenticator: authenticator}
}

func (a *Auth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.authenticator.Authenticate(r.Context(), TokenFromRequest(r))
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), UserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireFunc is Require for a handler function.
func (a *Auth) RequireFunc(next http.HandlerFunc) http.Handler {
	return a.Require(next)
}

// TokenFromRequest reads the session cookie, falling back to a bearer token.
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(TokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// UserFromContext returns the caller stored by Require.
func UserFromContext(ctx context.Context) (*models.User, error) {
	user, ok := ctx.Value(UserKey).(*models.User)
	if !ok || user == nil {
		return nil, apperror.Unauthorized("Unauthorized: No token provided")
	}
	return user, nil
}
