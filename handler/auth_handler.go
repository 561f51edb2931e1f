package handler

import (
	"context"
	"net/http"
	"time"

	"social-service/middleware"
	"social-service/model"
	"social-service/pkg/respond"
	"social-service/service"
)

// AuthService is the part of service.AuthService the auth routes use.
type AuthService interface {
	Signup(ctx context.Context, in service.SignupInput) (*models.User, string, error)
	Login(ctx context.Context, in service.LoginInput) (*models.User, string, error)
	Logout(ctx context.Context, token string) error
	TokenLifetime() int
}

type AuthHandler struct {
	auth         AuthService
	secureCookie bool
}

// NewAuthHandler builds the auth routes. secureCookie is false only for
// local development over plain HTTP.
func NewAuthHandler(auth AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		auth:         auth,
		secureCookie: secureCookie,
	}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var in service.SignupInput
	if err := decodeJSON(r, &in); err != nil {
		respond.Error(w, r, err)
		return
	}

	user, token, err := h.auth.Signup(r.Context(), in)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	h.setTokenCookie(w, token, h.auth.TokenLifetime())
	respond.Success(w, http.StatusCreated, respond.Envelope{
		"message": "User registered successfully",
		"user":    user,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if err := decodeJSON(r, &in); err != nil {
		respond.Error(w, r, err)
		return
	}

	user, token, err := h.auth.Login(r.Context(), in)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	h.setTokenCookie(w, token, h.auth.TokenLifetime())
	respond.Success(w, http.StatusOK, respond.Envelope{
		"message": "Logged in successfully",
		"user":    user,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), middleware.TokenFromRequest(r)); err != nil {
		respond.Error(w, r, err)
		return
	}

	h.setTokenCookie(w, "", -1)
	respond.Message(w, http.StatusOK, "Logged out successfully")
}

func (h *AuthHandler) AuthCheck(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Success(w, http.StatusOK, respond.Envelope{"user": user})
}

// setTokenCookie sets the session cookie; a negative maxAge clears it.
func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string, maxAge int) {
	cookie := &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	}
	if maxAge < 0 {
		cookie.Expires = time.Unix(0, 0)
	}
	http.SetCookie(w, cookie)
}
