package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-service/model"
	"social-service/pkg/apperror"
)

func TestCreateNotificationRejectsUnknownType(t *testing.T) {
	env := newTestEnv(t)
	alice, bob := env.createUser(t), env.createUser(t)

	_, err := env.notifications.Create(getTestContext(t), alice.ID, bob.ID, models.NotificationType("poke"), nil)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidType))
	assert.Empty(t, env.store.AllNotifications())
}

func TestCreateNotificationRejectsSelf(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t)

	_, err := env.notifications.Create(getTestContext(t), alice.ID, alice.ID, models.NotificationTypeFollow, nil)
	assert.True(t, apperror.IsKind(err, apperror.KindSelfAction))
	assert.Empty(t, env.store.AllNotifications())
}

func TestCreateNotificationPublishesSender(t *testing.T) {
	env := newTestEnv(t)
	alice, bob := env.createUser(t), env.createUser(t)
	postID := uuid.New()

	n, err := env.notifications.Create(getTestContext(t), alice.ID, bob.ID, models.NotificationTypeLike, &postID)
	require.NoError(t, err)
	assert.False(t, n.Read)
	assert.Equal(t, env.clock.NowUtc(), n.CreatedAt)

	published := env.publisher.published()
	require.Len(t, published, 1)
	assert.Equal(t, n.ID, published[0].Notification.ID)
	assert.Equal(t, bob.ID, published[0].Notification.To)
	assert.Equal(t, alice.Username, published[0].Notification.From.Username)
	assert.Equal(t, &postID, published[0].Notification.PostID)
}

func TestCreateNotificationSurvivesPublishFailure(t *testing.T) {
	env := newTestEnv(t)
	alice, bob := env.createUser(t), env.createUser(t)
	env.publisher.err = errBoom

	_, err := env.notifications.Create(getTestContext(t), alice.ID, bob.ID, models.NotificationTypeFollow, nil)
	require.NoError(t, err)
	assert.Len(t, env.notificationsFor(bob.ID), 1)
}

func TestNotifySwallowsErrors(t *testing.T) {
	env := newTestEnv(t)
	alice, bob := env.createUser(t), env.createUser(t)
	env.store.SetNotificationErr(errBoom)

	assert.NotPanics(t, func() {
		env.notifications.Notify(getTestContext(t), alice.ID, bob.ID, models.NotificationTypeFollow, nil)
		env.notifications.Notify(getTestContext(t), alice.ID, alice.ID, models.NotificationTypeFollow, nil)
	})
	assert.Empty(t, env.store.AllNotifications())
	assert.Empty(t, env.publisher.published())
}

func TestListReturnsSnapshotThenMarksRead(t *testing.T) {
	env := newTestEnv(t)
	ctx := getTestContext(t)
	alice, bob, carol := env.createUser(t), env.createUser(t), env.createUser(t)

	_, err := env.notifications.Create(ctx, bob.ID, alice.ID, models.NotificationTypeFollow, nil)
	require.NoError(t, err)
	env.clock.Advance(time.Minute)
	_, err = env.notifications.Create(ctx, carol.ID, alice.ID, models.NotificationTypeFollow, nil)
	require.NoError(t, err)

	count, err := env.notifications.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	first, err := env.notifications.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, carol.ID, first[0].From.ID, "newest first")
	assert.Equal(t, bob.Username, first[1].From.Username)
	for _, n := range first {
		assert.False(t, n.Read)
	}

	second, err := env.notifications.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, second, 2)
	for _, n := range second {
		assert.True(t, n.Read)
	}

	count, err = env.notifications.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestListEmpty(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t)

	list, err := env.notifications.List(getTestContext(t), alice.ID)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestDeleteNotification(t *testing.T) {
	env := newTestEnv(t)
	ctx := getTestContext(t)
	alice, bob := env.createUser(t), env.createUser(t)

	n, err := env.notifications.Create(ctx, bob.ID, alice.ID, models.NotificationTypeFollow, nil)
	require.NoError(t, err)

	err = env.notifications.Delete(ctx, bob.ID, n.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))

	require.NoError(t, env.notifications.Delete(ctx, alice.ID, n.ID))
	assert.Empty(t, env.notificationsFor(alice.ID))

	err = env.notifications.Delete(ctx, alice.ID, n.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestDeleteAllNotifications(t *testing.T) {
	env := newTestEnv(t)
	ctx := getTestContext(t)
	alice, bob := env.createUser(t), env.createUser(t)

	deleted, err := env.notifications.DeleteAll(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	_, err = env.notifications.Create(ctx, bob.ID, alice.ID, models.NotificationTypeFollow, nil)
	require.NoError(t, err)
	_, err = env.notifications.Create(ctx, alice.ID, bob.ID, models.NotificationTypeFollow, nil)
	require.NoError(t, err)

	deleted, err = env.notifications.DeleteAll(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
	assert.Empty(t, env.notificationsFor(alice.ID))
	assert.Len(t, env.notificationsFor(bob.ID), 1)
}
