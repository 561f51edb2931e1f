// Package service holds the mutation, notification and auth logic behind the
// HTTP handlers. Every error it returns is an *apperror.Error.
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"social-service/model"
	"social-service/pkg/apperror"
	"social-service/repository"
)

// Notifier is called after a mutation has committed. It must not fail the
// caller: delivery problems are handled on its side.
type Notifier interface {
	Notify(ctx context.Context, fromID, toID uuid.UUID, notificationType models.NotificationType, postID *uuid.UUID)
}

func notFoundOr(err error, message string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound(message)
	}
	return apperror.Internal("internal server error", err)
}

func conflictOr(err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicateUsername):
		return apperror.Conflict("Username is already taken")
	case errors.Is(err, repository.ErrDuplicateEmail):
		return apperror.Conflict("Email is already in use")
	}
	return notFoundOr(err, "User not found")
}
