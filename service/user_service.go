package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"social-service/imagestore"
	"social-service/model"
	"social-service/monitoring"
	"social-service/pkg/apperror"
	"social-service/pkg/clock"
	"social-service/repository"
)

const suggestedUsersLimit = 4

type FollowAction string

const (
	ActionFollowed   FollowAction = "followed"
	ActionUnfollowed FollowAction = "unfollowed"
)

type FollowResult struct {
	Action FollowAction `json:"action"`
}

// UpdateProfileInput holds the fields a user may change. Nil fields are left
// as they are.
type UpdateProfileInput struct {
	FullName        *string `json:"fullName" validate:"omitempty,min=2,max=50"`
	Email           *string `json:"email" validate:"omitempty,email_format"`
	Username        *string `json:"username" validate:"omitempty,alphanum,min=3,max=30"`
	CurrentPassword string  `json:"currentPassword"`
	NewPassword     string  `json:"newPassword" validate:"omitempty,min=6,max=50"`
	Bio             *string `json:"bio" validate:"omitempty,max=160"`
	Link            *string `json:"link" validate:"omitempty,url"`
	ProfileImg      string  `json:"profileImg"`
	CoverImg        string  `json:"coverImg"`
}

type UserService struct {
	users    repository.UserRepository
	follows  repository.FollowRepository
	posts    repository.PostRepository
	images   imagestore.Store
	notifier Notifier
	clock    clock.Clock
	validate *validator.Validate
}

func NewUserService(
	users repository.UserRepository,
	follows repository.FollowRepository,
	posts repository.PostRepository,
	images imagestore.Store,
	notifier Notifier,
	clk clock.Clock,
) *UserService {
	return &UserService{
		users:    users,
		follows:  follows,
		posts:    posts,
		images:   images,
		notifier: notifier,
		clock:    clk,
		validate: newValidator(),
	}
}

func (s *UserService) GetProfile(ctx context.Context, username string) (*models.UserProfile, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, notFoundOr(err, "User not found")
	}
	return s.profile(ctx, user)
}

func (s *UserService) GetProfileByID(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "User not found")
	}
	return s.profile(ctx, user)
}

// profile attaches the follower, following and liked-post views.
func (s *UserService) profile(ctx context.Context, user *models.User) (*models.UserProfile, error) {
	followers, err := s.follows.GetFollowers(ctx, user.ID)
	if err != nil {
		return nil, apperror.Internal("failed to load profile", err)
	}
	following, err := s.follows.GetFollowing(ctx, user.ID)
	if err != nil {
		return nil, apperror.Internal("failed to load profile", err)
	}
	likedPosts, err := s.posts.GetLikedPostIDs(ctx, user.ID)
	if err != nil {
		return nil, apperror.Internal("failed to load profile", err)
	}

	user.PasswordHash = ""
	return &models.UserProfile{
		User:       *user,
		Followers:  followers,
		Following:  following,
		LikedPosts: likedPosts,
	}, nil
}

func (s *UserService) Suggested(ctx context.Context, userID uuid.UUID) ([]models.User, error) {
	users, err := s.users.GetSuggested(ctx, userID, suggestedUsersLimit)
	if err != nil {
		return nil, apperror.Internal("Unable to fetch suggested users", err)
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

// FollowUnfollow toggles the actor's follow edge to the target. Removing first
// and inserting only when nothing was removed keeps concurrent toggles from
// creating a second edge or a second notification.
func (s *UserService) FollowUnfollow(ctx context.Context, actorID, targetID uuid.UUID) (*FollowResult, error) {
	if actorID == targetID {
		return nil, apperror.SelfAction("You can't follow or unfollow yourself")
	}

	if _, err := s.users.GetByID(ctx, actorID); err != nil {
		return nil, notFoundOr(err, "User not found")
	}
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return nil, notFoundOr(err, "User not found")
	}

	removed, err := s.follows.Unfollow(ctx, actorID, targetID)
	if err != nil {
		return nil, apperror.Internal("failed to unfollow user", err)
	}
	if removed {
		return &FollowResult{Action: ActionUnfollowed}, nil
	}

	created, err := s.follows.Follow(ctx, actorID, targetID)
	if err != nil {
		return nil, apperror.Internal("failed to follow user", err)
	}
	if created {
		s.notifier.Notify(ctx, actorID, targetID, models.NotificationTypeFollow, nil)
	}

	return &FollowResult{Action: ActionFollowed}, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, in UpdateProfileInput) (*models.UserProfile, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}
	if (in.CurrentPassword == "") != (in.NewPassword == "") {
		return nil, apperror.Validation("Please provide both current password and new password")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "User not found")
	}

	if in.CurrentPassword != "" {
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.CurrentPassword)) != nil {
			return nil, apperror.Validation("Current password is incorrect")
		}
		hash, err := hashPassword(in.NewPassword)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	oldProfileImg, oldCoverImg := user.ProfileImg, user.CoverImg

	if in.ProfileImg != "" {
		url, err := s.images.Upload(ctx, in.ProfileImg, imagestore.FolderProfileImages)
		if err != nil {
			return nil, apperror.Dependency("Failed to upload profile image", err)
		}
		user.ProfileImg = url
	}
	if in.CoverImg != "" {
		url, err := s.images.Upload(ctx, in.CoverImg, imagestore.FolderCoverImages)
		if err != nil {
			return nil, apperror.Dependency("Failed to upload cover image", err)
		}
		user.CoverImg = url
	}

	if in.FullName != nil {
		user.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Email != nil {
		user.Email = strings.TrimSpace(*in.Email)
	}
	if in.Username != nil {
		user.Username = strings.TrimSpace(*in.Username)
	}
	if in.Bio != nil {
		user.Bio = *in.Bio
	}
	if in.Link != nil {
		user.Link = *in.Link
	}
	user.UpdatedAt = s.clock.NowUtc()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, conflictOr(err)
	}

	if in.ProfileImg != "" && oldProfileImg != "" {
		s.deleteImage(ctx, oldProfileImg, imagestore.FolderProfileImages)
	}
	if in.CoverImg != "" && oldCoverImg != "" {
		s.deleteImage(ctx, oldCoverImg, imagestore.FolderCoverImages)
	}

	return s.profile(ctx, user)
}

func (s *UserService) deleteImage(ctx context.Context, imageURL, folder string) {
	if err := s.images.Delete(ctx, imageURL, folder); err != nil {
		monitoring.ImageCleanupFailures.WithLabelValues(folder).Inc()
		log.Warnf("Failed to delete image %s: %v", imageURL, err)
	}
}
