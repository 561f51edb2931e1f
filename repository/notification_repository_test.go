package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-service/model"
)

var notificationCols = []string{"id", "from_user_id", "to_user_id", "type", "post_id", "read", "created_at", "updated_at"}

func TestNotificationCreateInvalidatesUnreadCount(t *testing.T) {
	env := newTestEnv(t)
	repo := NewNotificationRepository(env.db, env.redis)
	ctx := context.Background()

	to := uuid.New()
	env.mini.Set(unreadCountPrefix+to.String(), "3")

	now := time.Now().UTC()
	notification := &models.Notification{
		ID:        uuid.New(),
		FromID:    uuid.New(),
		ToID:      to,
		Type:      models.NotificationTypeFollow,
		CreatedAt: now,
		UpdatedAt: now,
	}

	env.mock.ExpectExec("INSERT INTO notifications").
		WithArgs(notification.ID, notification.FromID, notification.ToID, notification.Type, notification.PostID, false, now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(ctx, notification))
	assert.False(t, env.mini.Exists(unreadCountPrefix+to.String()))
	assert.True(t, env.mini.Exists(notificationPrefix+notification.ID.String()))
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestNotificationGetByIDUsesCache(t *testing.T) {
	env := newTestEnv(t)
	repo := NewNotificationRepository(env.db, env.redis)
	ctx := context.Background()

	id := uuid.New()
	from, to := uuid.New(), uuid.New()
	now := time.Now().UTC().Truncate(time.Second)

	env.mock.ExpectQuery("FROM notifications WHERE id").
		WillReturnRows(sqlmock.NewRows(notificationCols).
			AddRow(id.String(), from.String(), to.String(), "like", nil, false, now, now))

	first, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, to, first.ToID)
	assert.Equal(t, models.NotificationTypeLike, first.Type)

	// second read is served from redis, no query expected
	second, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestNotificationGetByIDNotFound(t *testing.T) {
	env := newTestEnv(t)
	repo := NewNotificationRepository(env.db, env.redis)

	env.mock.ExpectQuery("FROM notifications WHERE id").
		WillReturnRows(sqlmock.NewRows(notificationCols))

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetUnreadCountCachesResult(t *testing.T) {
	env := newTestEnv(t)
	repo := NewNotificationRepository(env.db, env.redis)
	ctx := context.Background()
	userID := uuid.New()

	env.mock.ExpectQuery("SELECT COUNT").
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.GetUnreadCount(ctx, userID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	count, err = repo.GetUnreadCount(ctx, userID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestMarkAsReadSkipsEmptySnapshot(t *testing.T) {
	env := newTestEnv(t)
	repo := NewNotificationRepository(env.db, env.redis)

	require.NoError(t, repo.MarkAsRead(context.Background(), uuid.New(), nil))
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestMarkAsReadInvalidatesCaches(t *testing.T) {
	env := newTestEnv(t)
	repo := NewNotificationRepository(env.db, env.redis)
	userID, id := uuid.New(), uuid.New()

	env.mini.Set(unreadCountPrefix+userID.String(), "1")
	env.mini.Set(notificationPrefix+id.String(), "{}")

	env.mock.ExpectExec("UPDATE notifications").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkAsRead(context.Background(), userID, []uuid.UUID{id}))
	assert.False(t, env.mini.Exists(unreadCountPrefix+userID.String()))
	assert.False(t, env.mini.Exists(notificationPrefix+id.String()))
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestDeleteAllForRecipient(t *testing.T) {
	env := newTestEnv(t)
	repo := NewNotificationRepository(env.db, env.redis)
	userID := uuid.New()

	env.mock.ExpectQuery("DELETE FROM notifications WHERE to_user_id").
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()).AddRow(uuid.NewString()))

	n, err := repo.DeleteAllForRecipient(context.Background(), userID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}
