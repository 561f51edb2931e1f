package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"social-service/model"
)

// PostRepository owns posts and the like and comment rows that hang off them.
// A user's liked posts are read from the same post_likes rows as a post's likes.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListAll(ctx context.Context) ([]models.Post, error)
	ListByUsers(ctx context.Context, userIDs []uuid.UUID) ([]models.Post, error)
	ListLikedBy(ctx context.Context, userID uuid.UUID) ([]models.Post, error)

	AddLike(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	RemoveLike(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	GetLikes(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error)
	GetLikedPostIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)

	AddComment(ctx context.Context, comment *models.Comment) error
	GetComments(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID][]models.Comment, error)
}

const postColumns = `p.id, p.user_id, p.text, p.img, p.created_at, p.updated_at`

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts (id, user_id, text, img, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		post.ID,
		post.UserID,
		post.Text,
		post.Img,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts p WHERE p.id = $1`

	var post models.Post
	if err := r.db.GetContext(ctx, &post, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &post, nil
}

// Delete removes the post; likes and comments go with it by cascade.
func (r *postRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	deleted, err := affected(result)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

func (r *postRepository) ListAll(ctx context.Context) ([]models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts p ORDER BY p.created_at DESC`
	return r.list(ctx, query)
}

func (r *postRepository) ListByUsers(ctx context.Context, userIDs []uuid.UUID) ([]models.Post, error) {
	if len(userIDs) == 0 {
		return []models.Post{}, nil
	}
	query := `SELECT ` + postColumns + ` FROM posts p WHERE p.user_id = ANY($1::uuid[]) ORDER BY p.created_at DESC`
	return r.list(ctx, query, pq.Array(uuidStrings(userIDs)))
}

func (r *postRepository) ListLikedBy(ctx context.Context, userID uuid.UUID) ([]models.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p
		JOIN post_likes l ON l.post_id = p.id
		WHERE l.user_id = $1
		ORDER BY p.created_at DESC
	`
	return r.list(ctx, query, userID)
}

func (r *postRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Post, error) {
	posts := []models.Post{}
	if err := r.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// AddLike inserts the like edge and reports whether it was new.
func (r *postRepository) AddLike(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	query := `
		INSERT INTO post_likes (post_id, user_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (post_id, user_id) DO NOTHING
	`
	result, err := r.db.ExecContext(ctx, query, postID, userID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to like post: %w", err)
	}
	return affected(result)
}

// RemoveLike deletes the like edge and reports whether one existed.
func (r *postRepository) RemoveLike(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to unlike post: %w", err)
	}
	return affected(result)
}

type likeRow struct {
	PostID uuid.UUID `db:"post_id"`
	UserID uuid.UUID `db:"user_id"`
}

func (r *postRepository) GetLikes(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	likes := make(map[uuid.UUID][]uuid.UUID, len(postIDs))
	if len(postIDs) == 0 {
		return likes, nil
	}

	query := `SELECT post_id, user_id FROM post_likes WHERE post_id = ANY($1::uuid[]) ORDER BY created_at`

	var rows []likeRow
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(uuidStrings(postIDs))); err != nil {
		return nil, fmt.Errorf("failed to get likes: %w", err)
	}

	for _, row := range rows {
		likes[row.PostID] = append(likes[row.PostID], row.UserID)
	}
	return likes, nil
}

func (r *postRepository) GetLikedPostIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT post_id FROM post_likes WHERE user_id = $1 ORDER BY created_at`

	ids := []uuid.UUID{}
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get liked posts: %w", err)
	}
	return ids, nil
}

func (r *postRepository) AddComment(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO post_comments (id, post_id, user_id, text, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, comment.ID, comment.PostID, comment.UserID, comment.Text, comment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add comment: %w", err)
	}
	return nil
}

// GetComments returns each post's comments in insertion order.
func (r *postRepository) GetComments(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID][]models.Comment, error) {
	comments := make(map[uuid.UUID][]models.Comment, len(postIDs))
	if len(postIDs) == 0 {
		return comments, nil
	}

	query := `
		SELECT id, post_id, user_id, text, created_at
		FROM post_comments
		WHERE post_id = ANY($1::uuid[])
		ORDER BY seq
	`

	var rows []models.Comment
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(uuidStrings(postIDs))); err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}

	for _, row := range rows {
		comments[row.PostID] = append(comments[row.PostID], row)
	}
	return comments, nil
}
