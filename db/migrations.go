package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		full_name     TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		profile_img   TEXT NOT NULL DEFAULT '',
		cover_img     TEXT NOT NULL DEFAULT '',
		bio           TEXT NOT NULL DEFAULT '',
		link          TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS follows (
		follower_id  UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		following_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at   TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (follower_id, following_id),
		CHECK (follower_id <> following_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_follows_following ON follows (following_id)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id         UUID PRIMARY KEY,
		user_id    UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		text       TEXT NOT NULL DEFAULT '',
		img        TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		CHECK (text <> '' OR img <> '')
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_user_created ON posts (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS post_likes (
		post_id    UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		user_id    UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (post_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_post_likes_user ON post_likes (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS post_comments (
		id         UUID PRIMARY KEY,
		seq        BIGSERIAL,
		post_id    UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		user_id    UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		text       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_post_comments_post ON post_comments (post_id, seq)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id           UUID PRIMARY KEY,
		from_user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		to_user_id   UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		type         TEXT NOT NULL CHECK (type IN ('follow', 'like', 'comment')),
		post_id      UUID REFERENCES posts(id) ON DELETE SET NULL,
		read         BOOLEAN NOT NULL DEFAULT FALSE,
		created_at   TIMESTAMPTZ NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL,
		CHECK (from_user_id <> to_user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_to_read ON notifications (to_user_id, read)`,
}

// RunMigrations creates the schema inside one transaction. Every statement is
// idempotent so it is safe to run on each start.
func RunMigrations(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin migration transaction")
	}
	defer tx.Rollback()

	for i, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to run migration statement %d", i)
		}
	}

	return errors.Wrap(tx.Commit(), "failed to commit migrations")
}
