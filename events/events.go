package events

import (
	"time"

	"github.com/google/uuid"

	"social-service/model"
)

// Event subjects (topics)
const (
	SubjectNotificationCreated = "notification.created"
)

// NotificationSubject is the per-recipient subject live clients subscribe to.
func NotificationSubject(userID uuid.UUID) string {
	return SubjectNotificationCreated + "." + userID.String()
}

// NotificationCreatedEvent is published after a notification row is stored
type NotificationCreatedEvent struct {
	Notification models.NotificationView `json:"notification"`
	Timestamp    time.Time               `json:"timestamp"`
}
