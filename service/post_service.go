package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"social-service/imagestore"
	"social-service/model"
	"social-service/monitoring"
	"social-service/pkg/apperror"
	"social-service/pkg/clock"
	"social-service/repository"
)

const maxTextLength = 2000

type LikeAction string

const (
	ActionLiked   LikeAction = "liked"
	ActionUnliked LikeAction = "unliked"
)

type LikeResult struct {
	Action LikeAction  `json:"action"`
	Likes  []uuid.UUID `json:"likes"`
}

type CreatePostInput struct {
	Text string `json:"text"`
	Img  string `json:"img"`
}

type PostService struct {
	posts    repository.PostRepository
	users    repository.UserRepository
	follows  repository.FollowRepository
	images   imagestore.Store
	notifier Notifier
	clock    clock.Clock
}

func NewPostService(
	posts repository.PostRepository,
	users repository.UserRepository,
	follows repository.FollowRepository,
	images imagestore.Store,
	notifier Notifier,
	clk clock.Clock,
) *PostService {
	return &PostService{
		posts:    posts,
		users:    users,
		follows:  follows,
		images:   images,
		notifier: notifier,
		clock:    clk,
	}
}

// Create uploads the inline image, if any, before anything is stored, so a
// failed upload leaves no post behind.
func (s *PostService) Create(ctx context.Context, actorID uuid.UUID, in CreatePostInput) (*models.PostView, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" && in.Img == "" {
		return nil, apperror.Validation("Post must have text or image")
	}
	if utf8.RuneCountInString(text) > maxTextLength {
		return nil, apperror.Validation("Post text can't exceed 2000 characters")
	}

	if _, err := s.users.GetByID(ctx, actorID); err != nil {
		return nil, notFoundOr(err, "User not found")
	}

	var imgURL string
	if in.Img != "" {
		url, err := s.images.Upload(ctx, in.Img, imagestore.FolderPostImages)
		if err != nil {
			return nil, apperror.Dependency("Failed to upload image", err)
		}
		imgURL = url
	}

	now := s.clock.NowUtc()
	post := &models.Post{
		ID:        uuid.New(),
		UserID:    actorID,
		Text:      text,
		Img:       imgURL,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, apperror.Internal("failed to create post", err)
	}

	return s.populateOne(ctx, post)
}

// Delete removes the actor's own post. The image, if any, is removed first
// and a failure there is only logged.
func (s *PostService) Delete(ctx context.Context, actorID, postID uuid.UUID) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return notFoundOr(err, "Post not found")
	}

	if post.UserID != actorID {
		return apperror.Forbidden("You are not authorized to delete this post")
	}

	if post.Img != "" {
		if err := s.images.Delete(ctx, post.Img, imagestore.FolderPostImages); err != nil {
			monitoring.ImageCleanupFailures.WithLabelValues(imagestore.FolderPostImages).Inc()
			log.Warnf("Failed to delete image of post %s: %v", post.ID, err)
		}
	}

	if err := s.posts.Delete(ctx, postID); err != nil {
		return notFoundOr(err, "Post not found")
	}

	log.WithFields(log.Fields{"post_id": postID, "user_id": actorID}).Info("Post deleted")
	return nil
}

// LikeUnlike toggles the actor's like on the post, the same way FollowUnfollow
// toggles follows.
func (s *PostService) LikeUnlike(ctx context.Context, actorID, postID uuid.UUID) (*LikeResult, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, notFoundOr(err, "Post not found")
	}

	action := ActionUnliked
	removed, err := s.posts.RemoveLike(ctx, postID, actorID)
	if err != nil {
		return nil, apperror.Internal("failed to unlike post", err)
	}

	if !removed {
		action = ActionLiked
		created, err := s.posts.AddLike(ctx, postID, actorID)
		if err != nil {
			return nil, apperror.Internal("failed to like post", err)
		}
		if created && post.UserID != actorID {
			s.notifier.Notify(ctx, actorID, post.UserID, models.NotificationTypeLike, &post.ID)
		}
	}

	likes, err := s.posts.GetLikes(ctx, []uuid.UUID{postID})
	if err != nil {
		return nil, apperror.Internal("failed to load likes", err)
	}

	result := &LikeResult{Action: action, Likes: likes[postID]}
	if result.Likes == nil {
		result.Likes = []uuid.UUID{}
	}
	return result, nil
}

// Comment appends a comment and returns the post as it is afterwards.
func (s *PostService) Comment(ctx context.Context, actorID, postID uuid.UUID, text string) (*models.PostView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.Validation("Text field is required")
	}
	if utf8.RuneCountInString(text) > maxTextLength {
		return nil, apperror.Validation("Comment can't exceed 2000 characters")
	}

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, notFoundOr(err, "Post not found")
	}

	comment := &models.Comment{
		ID:        uuid.New(),
		PostID:    postID,
		UserID:    actorID,
		Text:      text,
		CreatedAt: s.clock.NowUtc(),
	}
	if err := s.posts.AddComment(ctx, comment); err != nil {
		return nil, notFoundOr(err, "Post not found")
	}

	if post.UserID != actorID {
		s.notifier.Notify(ctx, actorID, post.UserID, models.NotificationTypeComment, &post.ID)
	}

	return s.populateOne(ctx, post)
}

func (s *PostService) ListAll(ctx context.Context) ([]models.PostView, error) {
	posts, err := s.posts.ListAll(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to list posts", err)
	}
	return s.populate(ctx, posts)
}

func (s *PostService) ListFollowing(ctx context.Context, userID uuid.UUID) ([]models.PostView, error) {
	following, err := s.follows.GetFollowing(ctx, userID)
	if err != nil {
		return nil, apperror.Internal("failed to list posts", err)
	}

	posts, err := s.posts.ListByUsers(ctx, following)
	if err != nil {
		return nil, apperror.Internal("failed to list posts", err)
	}
	return s.populate(ctx, posts)
}

func (s *PostService) ListByUsername(ctx context.Context, username string) ([]models.PostView, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, notFoundOr(err, "User not found")
	}

	posts, err := s.posts.ListByUsers(ctx, []uuid.UUID{user.ID})
	if err != nil {
		return nil, apperror.Internal("failed to list posts", err)
	}
	return s.populate(ctx, posts)
}

func (s *PostService) ListLiked(ctx context.Context, userID uuid.UUID) ([]models.PostView, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, notFoundOr(err, "User not found")
	}

	posts, err := s.posts.ListLikedBy(ctx, userID)
	if err != nil {
		return nil, apperror.Internal("failed to list posts", err)
	}
	return s.populate(ctx, posts)
}

func (s *PostService) populateOne(ctx context.Context, post *models.Post) (*models.PostView, error) {
	views, err := s.populate(ctx, []models.Post{*post})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// populate loads likes, comments and every referenced user in three queries
// regardless of how many posts are passed.
func (s *PostService) populate(ctx context.Context, posts []models.Post) ([]models.PostView, error) {
	views := make([]models.PostView, len(posts))
	if len(posts) == 0 {
		return views, nil
	}

	postIDs := make([]uuid.UUID, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}

	likes, err := s.posts.GetLikes(ctx, postIDs)
	if err != nil {
		return nil, apperror.Internal("failed to load likes", err)
	}
	comments, err := s.posts.GetComments(ctx, postIDs)
	if err != nil {
		return nil, apperror.Internal("failed to load comments", err)
	}

	seen := make(map[uuid.UUID]bool)
	var userIDs []uuid.UUID
	addUser := func(id uuid.UUID) {
		if !seen[id] {
			seen[id] = true
			userIDs = append(userIDs, id)
		}
	}
	for _, p := range posts {
		addUser(p.UserID)
		for _, c := range comments[p.ID] {
			addUser(c.UserID)
		}
	}

	users, err := s.users.GetSummaries(ctx, userIDs)
	if err != nil {
		return nil, apperror.Internal("failed to load users", err)
	}
	summary := func(id uuid.UUID) models.UserSummary {
		if u, ok := users[id]; ok {
			return u
		}
		return models.UserSummary{ID: id}
	}

	for i, p := range posts {
		postLikes := likes[p.ID]
		if postLikes == nil {
			postLikes = []uuid.UUID{}
		}

		postComments := make([]models.CommentView, 0, len(comments[p.ID]))
		for _, c := range comments[p.ID] {
			postComments = append(postComments, models.CommentView{
				ID:        c.ID,
				Text:      c.Text,
				User:      summary(c.UserID),
				CreatedAt: c.CreatedAt,
			})
		}

		views[i] = models.PostView{
			ID:        p.ID,
			User:      summary(p.UserID),
			Text:      p.Text,
			Img:       p.Img,
			Likes:     postLikes,
			Comments:  postComments,
			CreatedAt: p.CreatedAt,
			UpdatedAt: p.UpdatedAt,
		}
	}

	return views, nil
}
