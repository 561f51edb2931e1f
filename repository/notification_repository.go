package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"social-service/model"
)

const (
	unreadCountTTL  = 5 * time.Minute
	notificationTTL = 15 * time.Minute

	unreadCountPrefix  = "notif:unread:"
	notificationPrefix = "notif:id:"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	GetByRecipient(ctx context.Context, userID uuid.UUID) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAllForRecipient(ctx context.Context, userID uuid.UUID) (int64, error)
	GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

const notificationColumns = `id, from_user_id, to_user_id, type, post_id, read, created_at, updated_at`

type notificationRepository struct {
	db    *sqlx.DB
	redis *redis.Client
}

func NewNotificationRepository(db *sqlx.DB, redisClient *redis.Client) NotificationRepository {
	return &notificationRepository{
		db:    db,
		redis: redisClient,
	}
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	query := `
		INSERT INTO notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		notification.ID,
		notification.FromID,
		notification.ToID,
		notification.Type,
		notification.PostID,
		notification.Read,
		notification.CreatedAt,
		notification.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	r.invalidateUnreadCount(ctx, notification.ToID)
	r.cacheNotification(ctx, notification)

	return nil
}

func (r *notificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	cached, err := r.redis.Get(ctx, notificationPrefix+id.String()).Result()
	if err == nil {
		var notification models.Notification
		if err := json.Unmarshal([]byte(cached), &notification); err == nil {
			return &notification, nil
		}
	}

	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`

	var notification models.Notification
	if err := r.db.GetContext(ctx, &notification, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}

	r.cacheNotification(ctx, &notification)

	return &notification, nil
}

// GetByRecipient returns every notification addressed to userID, newest first.
func (r *notificationRepository) GetByRecipient(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE to_user_id = $1
		ORDER BY created_at DESC
	`

	notifications := []models.Notification{}
	if err := r.db.SelectContext(ctx, &notifications, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}
	return notifications, nil
}

// MarkAsRead flags the given notifications of userID as read. Rows that
// arrived after the caller's snapshot are left untouched.
func (r *notificationRepository) MarkAsRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	query := `
		UPDATE notifications
		SET read = true, updated_at = $3
		WHERE to_user_id = $1 AND id = ANY($2::uuid[]) AND read = false
	`

	if _, err := r.db.ExecContext(ctx, query, userID, pq.Array(uuidStrings(ids)), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to mark notifications as read: %w", err)
	}

	r.invalidateUnreadCount(ctx, userID)
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = notificationPrefix + id.String()
	}
	r.redis.Del(ctx, keys...)

	return nil
}

func (r *notificationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	notification, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}

	deleted, err := affected(result)
	if err != nil {
		return err
	}
	if !deleted {
		r.redis.Del(ctx, notificationPrefix+id.String())
		return ErrNotFound
	}

	r.invalidateUnreadCount(ctx, notification.ToID)
	r.redis.Del(ctx, notificationPrefix+id.String())

	return nil
}

func (r *notificationRepository) DeleteAllForRecipient(ctx context.Context, userID uuid.UUID) (int64, error) {
	var ids []uuid.UUID
	query := `DELETE FROM notifications WHERE to_user_id = $1 RETURNING id`
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return 0, fmt.Errorf("failed to delete notifications: %w", err)
	}

	r.invalidateUnreadCount(ctx, userID)
	if len(ids) > 0 {
		keys := make([]string, len(ids))
		for i, id := range ids {
			keys[i] = notificationPrefix + id.String()
		}
		r.redis.Del(ctx, keys...)
	}

	return int64(len(ids)), nil
}

func (r *notificationRepository) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	cacheKey := unreadCountPrefix + userID.String()
	cached, err := r.redis.Get(ctx, cacheKey).Result()
	if err == nil {
		if count, err := strconv.ParseInt(cached, 10, 64); err == nil {
			return count, nil
		}
	}

	query := `SELECT COUNT(*) FROM notifications WHERE to_user_id = $1 AND read = false`

	var count int64
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	r.redis.Set(ctx, cacheKey, strconv.FormatInt(count, 10), unreadCountTTL)

	return count, nil
}

func (r *notificationRepository) cacheNotification(ctx context.Context, notification *models.Notification) {
	if data, err := json.Marshal(notification); err == nil {
		r.redis.Set(ctx, notificationPrefix+notification.ID.String(), data, notificationTTL)
	}
}

func (r *notificationRepository) invalidateUnreadCount(ctx context.Context, userID uuid.UUID) {
	r.redis.Del(ctx, unreadCountPrefix+userID.String())
}
