package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"social-service/middleware"
	"social-service/model"
	"social-service/pkg/apperror"
	"social-service/pkg/respond"
	"social-service/service"
)

type PostService interface {
	Create(ctx context.Context, actorID uuid.UUID, in service.CreatePostInput) (*models.PostView, error)
	Delete(ctx context.Context, actorID, postID uuid.UUID) error
	LikeUnlike(ctx context.Context, actorID, postID uuid.UUID) (*service.LikeResult, error)
	Comment(ctx context.Context, actorID, postID uuid.UUID, text string) (*models.PostView, error)
	ListAll(ctx context.Context) ([]models.PostView, error)
	ListFollowing(ctx context.Context, userID uuid.UUID) ([]models.PostView, error)
	ListByUsername(ctx context.Context, username string) ([]models.PostView, error)
	ListLiked(ctx context.Context, userID uuid.UUID) ([]models.PostView, error)
}

type PostHandler struct {
	posts PostService
}

func NewPostHandler(posts PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

type commentRequest struct {
	Text string `json:"text"`
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var in service.CreatePostInput
	if err := decodeJSON(r, &in); err != nil {
		respond.Error(w, r, err)
		return
	}

	post, err := h.posts.Create(r.Context(), user.ID, in)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Success(w, http.StatusCreated, respond.Envelope{
		"message": "Post created successfully",
		"post":    post,
	})
}

// Delete answers a non-owner with 401, which is what clients of this route
// have always received.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	postID, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.posts.Delete(r.Context(), user.ID, postID); err != nil {
		if apperror.IsKind(err, apperror.KindForbidden) {
			respond.ErrorWithStatus(w, r, http.StatusUnauthorized, err)
			return
		}
		respond.Error(w, r, err)
		return
	}
	respond.Message(w, http.StatusOK, "Post deleted successfully")
}

func (h *PostHandler) LikeUnlike(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	postID, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	result, err := h.posts.LikeUnlike(r.Context(), user.ID, postID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	message := "Post liked successfully"
	if result.Action == service.ActionUnliked {
		message = "Post unliked successfully"
	}
	respond.Success(w, http.StatusOK, respond.Envelope{
		"message": message,
		"action":  result.Action,
		"likes":   result.Likes,
	})
}

func (h *PostHandler) Comment(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	postID, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	post, err := h.posts.Comment(r.Context(), user.ID, postID, req.Text)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Success(w, http.StatusOK, respond.Envelope{
		"message": "Comment added successfully",
		"post":    post,
	})
}

func (h *PostHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.ListAll(r.Context())
	writePosts(w, r, posts, err)
}

func (h *PostHandler) ListFollowing(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	posts, err := h.posts.ListFollowing(r.Context(), user.ID)
	writePosts(w, r, posts, err)
}

func (h *PostHandler) ListByUsername(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.ListByUsername(r.Context(), r.PathValue("username"))
	writePosts(w, r, posts, err)
}

func (h *PostHandler) ListLiked(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	posts, err := h.posts.ListLiked(r.Context(), userID)
	writePosts(w, r, posts, err)
}

func writePosts(w http.ResponseWriter, r *http.Request, posts []models.PostView, err error) {
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Success(w, http.StatusOK, respond.Envelope{"posts": posts})
}
