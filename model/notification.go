package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationTypeFollow  NotificationType = "follow"
	NotificationTypeLike    NotificationType = "like"
	NotificationTypeComment NotificationType = "comment"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationTypeFollow, NotificationTypeLike, NotificationTypeComment:
		return true
	}
	return false
}

type Notification struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	FromID    uuid.UUID        `json:"from" db:"from_user_id"`
	ToID      uuid.UUID        `json:"to" db:"to_user_id"`
	Type      NotificationType `json:"type" db:"type"`
	PostID    *uuid.UUID       `json:"post,omitempty" db:"post_id"`
	Read      bool             `json:"read" db:"read"`
	CreatedAt time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time        `json:"updatedAt" db:"updated_at"`
}

// NotificationView is a notification with the sender expanded.
type NotificationView struct {
	ID        uuid.UUID        `json:"id"`
	From      UserSummary      `json:"from"`
	To        uuid.UUID        `json:"to"`
	Type      NotificationType `json:"type"`
	PostID    *uuid.UUID       `json:"post,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
}
