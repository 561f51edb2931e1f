package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"social-service/middleware"
	"social-service/model"
	"social-service/pkg/respond"
)

type NotificationService interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.NotificationView, error)
	Delete(ctx context.Context, userID, notificationID uuid.UUID) error
	DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type NotificationHandler struct {
	notifications NotificationService
}

func NewNotificationHandler(notifications NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List returns the caller's notifications and marks the returned ones read.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	notifications, err := h.notifications.List(r.Context(), user.ID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Success(w, http.StatusOK, respond.Envelope{"notifications": notifications})
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	count, err := h.notifications.UnreadCount(r.Context(), user.ID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Success(w, http.StatusOK, respond.Envelope{"count": count})
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	notificationID, err := pathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.notifications.Delete(r.Context(), user.ID, notificationID); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Message(w, http.StatusOK, "Notification deleted successfully")
}

func (h *NotificationHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	deleted, err := h.notifications.DeleteAll(r.Context(), user.ID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Success(w, http.StatusOK, respond.Envelope{
		"message": "Notifications deleted successfully",
		"deleted": deleted,
	})
}
