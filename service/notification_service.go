package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"social-service/events"
	"social-service/model"
	"social-service/monitoring"
	"social-service/pkg/apperror"
	"social-service/pkg/clock"
	"social-service/repository"
)

// NotificationPublisher forwards stored notifications to live subscribers.
type NotificationPublisher interface {
	PublishNotificationCreated(event events.NotificationCreatedEvent) error
}

type NotificationService struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	publisher     NotificationPublisher
	clock         clock.Clock
}

func NewNotificationService(
	notifications repository.NotificationRepository,
	users repository.UserRepository,
	publisher NotificationPublisher,
	clk clock.Clock,
) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		users:         users,
		publisher:     publisher,
		clock:         clk,
	}
}

// Create stores a notification from fromID to toID and publishes it.
func (s *NotificationService) Create(
	ctx context.Context,
	fromID, toID uuid.UUID,
	notificationType models.NotificationType,
	postID *uuid.UUID,
) (*models.Notification, error) {
	if !notificationType.Valid() {
		return nil, apperror.InvalidType(fmt.Sprintf("invalid notification type: %q", notificationType))
	}
	if fromID == toID {
		return nil, apperror.SelfAction("a user cannot notify itself")
	}

	now := s.clock.NowUtc()
	notification := &models.Notification{
		ID:        uuid.New(),
		FromID:    fromID,
		ToID:      toID,
		Type:      notificationType,
		PostID:    postID,
		Read:      false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.notifications.Create(ctx, notification); err != nil {
		return nil, apperror.Internal("failed to create notification", err)
	}
	monitoring.NotificationsCreated.WithLabelValues(string(notificationType)).Inc()

	s.publish(ctx, notification)

	return notification, nil
}

func (s *NotificationService) publish(ctx context.Context, notification *models.Notification) {
	senders, err := s.users.GetSummaries(ctx, []uuid.UUID{notification.FromID})
	if err != nil {
		log.Warnf("Failed to load sender for notification %s: %v", notification.ID, err)
	}

	event := events.NotificationCreatedEvent{
		Notification: toView(*notification, senders),
		Timestamp:    s.clock.NowUtc(),
	}
	if err := s.publisher.PublishNotificationCreated(event); err != nil {
		log.Warnf("Failed to publish notification %s: %v", notification.ID, err)
	}
}

// Notify is the best-effort fan-out used after a mutation has committed.
// It detaches from the request's cancellation so a client hanging up does
// not drop the notification.
func (s *NotificationService) Notify(
	ctx context.Context,
	fromID, toID uuid.UUID,
	notificationType models.NotificationType,
	postID *uuid.UUID,
) {
	if _, err := s.Create(context.WithoutCancel(ctx), fromID, toID, notificationType, postID); err != nil {
		monitoring.NotificationFailures.WithLabelValues(string(notificationType)).Inc()
		log.WithFields(log.Fields{
			"from": fromID,
			"to":   toID,
			"type": notificationType,
		}).Errorf("Failed to create notification: %v", err)
	}
}

// List returns the user's notifications as they were before this call and
// then marks exactly those as read.
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID) ([]models.NotificationView, error) {
	notifications, err := s.notifications.GetByRecipient(ctx, userID)
	if err != nil {
		return nil, apperror.Internal("failed to get notifications", err)
	}

	senderIDs := make([]uuid.UUID, 0, len(notifications))
	unread := make([]uuid.UUID, 0, len(notifications))
	for _, n := range notifications {
		senderIDs = append(senderIDs, n.FromID)
		if !n.Read {
			unread = append(unread, n.ID)
		}
	}

	senders, err := s.users.GetSummaries(ctx, senderIDs)
	if err != nil {
		return nil, apperror.Internal("failed to get notifications", err)
	}

	views := make([]models.NotificationView, len(notifications))
	for i, n := range notifications {
		views[i] = toView(n, senders)
	}

	if err := s.notifications.MarkAsRead(ctx, userID, unread); err != nil {
		log.Warnf("Failed to mark notifications read for %s: %v", userID, err)
	}

	return views, nil
}

func (s *NotificationService) Delete(ctx context.Context, userID, notificationID uuid.UUID) error {
	notification, err := s.notifications.GetByID(ctx, notificationID)
	if err != nil {
		return notFoundOr(err, "Notification not found")
	}

	if notification.ToID != userID {
		return apperror.Forbidden("You are not allowed to delete this notification")
	}

	if err := s.notifications.Delete(ctx, notificationID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound("Notification not found")
		}
		return apperror.Internal("failed to delete notification", err)
	}
	return nil
}

func (s *NotificationService) DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	deleted, err := s.notifications.DeleteAllForRecipient(ctx, userID)
	if err != nil {
		return 0, apperror.Internal("failed to delete notifications", err)
	}
	return deleted, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.notifications.GetUnreadCount(ctx, userID)
	if err != nil {
		return 0, apperror.Internal("failed to count notifications", err)
	}
	return count, nil
}

func toView(n models.Notification, senders map[uuid.UUID]models.UserSummary) models.NotificationView {
	from, ok := senders[n.FromID]
	if !ok {
		from = models.UserSummary{ID: n.FromID}
	}
	return models.NotificationView{
		ID:        n.ID,
		From:      from,
		To:        n.ToID,
		Type:      n.Type,
		PostID:    n.PostID,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}
