package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-service/imagestore"
	"social-service/model"
	"social-service/pkg/apperror"
)

func TestFollowUnfollowRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := getTestContext(t)
	alice, bob := env.createUser(t), env.createUser(t)

	result, err := env.users.FollowUnfollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, ActionFollowed, result.Action)

	aliceProfile, err := env.users.GetProfileByID(ctx, alice.ID)
	require.NoError(t, err)
	bobProfile, err := env.users.GetProfileByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{bob.ID}, aliceProfile.Following)
	assert.Equal(t, []uuid.UUID{alice.ID}, bobProfile.Followers)

	notifications := env.notificationsFor(bob.ID)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationTypeFollow, notifications[0].Type)
	assert.Equal(t, alice.ID, notifications[0].FromID)
	assert.Nil(t, notifications[0].PostID)
	assert.False(t, notifications[0].Read)

	result, err = env.users.FollowUnfollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, ActionUnfollowed, result.Action)

	aliceProfile, err = env.users.GetProfileByID(ctx, alice.ID)
	require.NoError(t, err)
	bobProfile, err = env.users.GetProfileByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, aliceProfile.Following)
	assert.Empty(t, bobProfile.Followers)
	assert.Len(t, env.notificationsFor(bob.ID), 1, "unfollow must not notify")
}

func TestFollowSelfFails(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t)

	_, err := env.users.FollowUnfollow(getTestContext(t), alice.ID, alice.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindSelfAction))
}

func TestFollowMissingUser(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t)

	_, err := env.users.FollowUnfollow(getTestContext(t), alice.ID, uuid.New())
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	_, err = env.users.FollowUnfollow(getTestContext(t), uuid.New(), alice.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestFollowSurvivesNotificationFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := getTestContext(t)
	alice, bob := env.createUser(t), env.createUser(t)
	env.store.SetNotificationErr(errBoom)

	result, err := env.users.FollowUnfollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, ActionFollowed, result.Action)

	following, err := env.store.Follows().IsFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, following)
	assert.Empty(t, env.notificationsFor(bob.ID))
}

func TestSuggestedExcludesSelfAndFollowed(t *testing.T) {
	env := newTestEnv(t)
	ctx := getTestContext(t)
	me := env.createUser(t)

	var followed []uuid.UUID
	for i := 0; i < 6; i++ {
		u := env.createUser(t)
		if i < 2 {
			_, err := env.users.FollowUnfollow(ctx, me.ID, u.ID)
			require.NoError(t, err)
			followed = append(followed, u.ID)
		}
	}

	suggested, err := env.users.Suggested(ctx, me.ID)
	require.NoError(t, err)
	assert.Len(t, suggested, 4)
	for _, u := range suggested {
		assert.NotEqual(t, me.ID, u.ID)
		assert.NotContains(t, followed, u.ID)
		assert.Empty(t, u.PasswordHash)
	}
}

func TestGetProfileUnknownUsername(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.users.GetProfile(getTestContext(t), "nobody")
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestUpdateProfileChangesPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := getTestContext(t)
	in := fakeSignup()
	user, _, err := env.auth.Signup(ctx, in)
	require.NoError(t, err)

	_, err = env.users.UpdateProfile(ctx, user.ID, UpdateProfileInput{CurrentPassword: "wrong-password", NewPassword: "brand-new-pass"})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = env.users.UpdateProfile(ctx, user.ID, UpdateProfileInput{CurrentPassword: in.Password, NewPassword: "brand-new-pass"})
	require.NoError(t, err)

	_, _, err = env.auth.Login(ctx, LoginInput{Username: in.Username, Password: "brand-new-pass"})
	assert.NoError(t, err)
}

func TestUpdateProfileRequiresBothPasswords(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t)

	_, err := env.users.UpdateProfile(getTestContext(t), user.ID, UpdateProfileInput{NewPassword: "brand-new-pass"})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = env.users.UpdateProfile(getTestContext(t), user.ID, UpdateProfileInput{CurrentPassword: "whatever"})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestUpdateProfileValidatesFields(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t)
	badLink := "not a url"
	badUsername := "no spaces allowed"

	_, err := env.users.UpdateProfile(getTestContext(t), user.ID, UpdateProfileInput{Link: &badLink, Username: &badUsername})
	require.Error(t, err)

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.KindValidation, appErr.Kind)
	assert.Len(t, appErr.Details, 2)
}

func TestUpdateProfileReplacesImages(t *testing.T) {
	env := newTestEnv(t)
	ctx := getTestContext(t)
	user := env.createUser(t)

	first, err := env.users.UpdateProfile(ctx, user.ID, UpdateProfileInput{ProfileImg: "data:image/png;base64,AAAA"})
	require.NoError(t, err)
	require.NotEmpty(t, first.ProfileImg)
	assert.Empty(t, env.images.deleted())

	second, err := env.users.UpdateProfile(ctx, user.ID, UpdateProfileInput{ProfileImg: "data:image/png;base64,BBBB"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ProfileImg, second.ProfileImg)
	assert.Equal(t, []string{first.ProfileImg}, env.images.deleted())
	assert.Equal(t, []string{imagestore.FolderProfileImages, imagestore.FolderProfileImages}, env.images.uploads)
}

func TestUpdateProfileUploadFailureKeepsUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := getTestContext(t)
	user := env.createUser(t)
	env.images.uploadErr = errBoom
	bio := "new bio"

	_, err := env.users.UpdateProfile(ctx, user.ID, UpdateProfileInput{Bio: &bio, CoverImg: "data:image/png;base64,AAAA"})
	assert.True(t, apperror.IsKind(err, apperror.KindDependency))

	stored, err := env.store.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Bio)
}

func TestUpdateProfileUsernameConflict(t *testing.T) {
	env := newTestEnv(t)
	alice, bob := env.createUser(t), env.createUser(t)

	_, err := env.users.UpdateProfile(context.Background(), alice.ID, UpdateProfileInput{Username: &bob.Username})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
}
