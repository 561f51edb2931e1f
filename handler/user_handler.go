package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"social-service/middleware"
	"social-service/model"
	"social-service/pkg/respond"
	"social-service/service"
)

type UserService interface {
	GetProfile(ctx context.Context, username string) (*models.UserProfile, error)
	Suggested(ctx context.Context, userID uuid.UUID) ([]models.User, error)
	FollowUnfollow(ctx context.Context, actorID, targetID uuid.UUID) (*service.FollowResult, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, in service.UpdateProfileInput) (*models.UserProfile, error)
}

type UserHandler struct {
	users UserService
}

func NewUserHandler(users UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.users.GetProfile(r.Context(), r.PathValue("username"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Success(w, http.StatusOK, respond.Envelope{"user": profile})
}

func (h *UserHandler) Suggested(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	users, err := h.users.Suggested(r.Context(), user.ID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Success(w, http.StatusOK, respond.Envelope{"users": users})
}

func (h *UserHandler) FollowUnfollow(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	targetID, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	result, err := h.users.FollowUnfollow(r.Context(), user.ID, targetID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	message := "User followed successfully"
	if result.Action == service.ActionUnfollowed {
		message = "User unfollowed successfully"
	}
	respond.Success(w, http.StatusOK, respond.Envelope{
		"message": message,
		"action":  result.Action,
	})
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var in service.UpdateProfileInput
	if err := decodeJSON(r, &in); err != nil {
		respond.Error(w, r, err)
		return
	}

	profile, err := h.users.UpdateProfile(r.Context(), user.ID, in)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Success(w, http.StatusOK, respond.Envelope{
		"message": "Profile updated successfully",
		"user":    profile,
	})
}
