// Package service implements the business logic of the SnapCook backend:
// accounts and sessions, the pantry pipeline, recipe recommendation, and the
// cooked-dish history.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/snapcook/backend/internal/domain"
	"github.com/snapcook/backend/internal/repository"
	apperrors "github.com/snapcook/backend/pkg/errors"
)

// documentRetries bounds how often a pantry document mutation is retried
// when a concurrent writer wins the version race.
const documentRetries = 3

// mutateDocument runs a read-modify-write cycle against a user's pantry
// document. fn mutates the freshly loaded user and reports whether the
// change should be persisted; returning false commits nothing and returns
// the user as loaded. Version conflicts re-read and retry up to
// documentRetries times before giving up with ErrConflict.
func mutateDocument(ctx context.Context, repo repository.UserRepository, userID string, fn func(*domain.User) (bool, error)) (*domain.User, error) {
	for attempt := 0; attempt < documentRetries; attempt++ {
		user, err := repo.GetByID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("get user: %w", err)
		}

		commit, err := fn(user)
		if err != nil {
			return nil, err
		}
		if !commit {
			return user, nil
		}

		err = repo.UpdateDocument(ctx, user)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("update user document: %w", err)
		}
	}

	return nil, apperrors.Conflict(fmt.Sprintf("user %s document is under concurrent modification", userID))
}
