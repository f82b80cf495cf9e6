// Package repository defines the persistence interfaces for the SnapCook
// backend. Implementations live in the postgres and redis subpackages.
package repository

import (
	"context"

	"github.com/snapcook/backend/internal/domain"
)

// UserRepository persists user accounts and their pantry documents.
type UserRepository interface {
	// Create inserts a new user. A duplicate email yields ErrAlreadyExists.
	Create(ctx context.Context, u *domain.User) error

	// GetByID loads the full user row, including the pantry document and its
	// current version.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail loads a user by email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// UpdateProfile writes the account fields (username, email, password
	// hash, profile picture), leaving the pantry document untouched.
	UpdateProfile(ctx context.Context, u *domain.User) error

	// UpdateDocument writes the pantry document (ingredients, cooked
	// history, favorites) guarded by the version the user was read at.
	// A concurrent writer bumps the version and the stale write fails with
	// ErrConflict; callers re-read and retry.
	UpdateDocument(ctx context.Context, u *domain.User) error
}

// RecipeRepository reads the seeded recipe corpus.
type RecipeRepository interface {
	List(ctx context.Context) ([]domain.Recipe, error)
}
