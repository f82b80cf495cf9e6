package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/snapcook/backend/internal/domain"
	"github.com/snapcook/backend/pkg/database"
	apperrors "github.com/snapcook/backend/pkg/errors"
)

// UserRepository implements repository.UserRepository using PostgreSQL.
// The pantry document lives in JSONB columns on the users row; writes to it
// go through a version-guarded update so concurrent mutations never clobber
// each other.
type UserRepository struct {
	pool database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool database.DBTX) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a new user with an empty pantry document.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, profile_picture, ingredients, cooked_history, favorites, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		u.ID,
		u.Username,
		u.Email,
		u.PasswordHash,
		u.ProfilePicture,
		emptyIfNil(u.Ingredients),
		emptyIfNil(u.CookedHistory),
		emptyIfNil(u.Favorites),
		u.Version,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.scanUser(ctx, userSelect+` WHERE id = $1`, id)
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanUser(ctx, userSelect+` WHERE email = $1`, email)
}

// UpdateProfile writes the account fields without touching the pantry document.
func (r *UserRepository) UpdateProfile(ctx context.Context, u *domain.User) error {
	u.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET username = $1, email = $2, password_hash = $3, profile_picture = $4, updated_at = $5
		WHERE id = $6`

	ct, err := r.pool.Exec(ctx, query,
		u.Username,
		u.Email,
		u.PasswordHash,
		u.ProfilePicture,
		u.UpdatedAt,
		u.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return fmt.Errorf("update user profile: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", u.ID)
	}

	return nil
}

// UpdateDocument writes the pantry document if and only if the row still
// carries the version the caller read. On success the in-memory version is
// advanced to match the row.
func (r *UserRepository) UpdateDocument(ctx context.Context, u *domain.User) error {
	u.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET ingredients = $1, cooked_history = $2, favorites = $3, version = version + 1, updated_at = $4
		WHERE id = $5 AND version = $6`

	ct, err := r.pool.Exec(ctx, query,
		emptyIfNil(u.Ingredients),
		emptyIfNil(u.CookedHistory),
		emptyIfNil(u.Favorites),
		u.UpdatedAt,
		u.ID,
		u.Version,
	)
	if err != nil {
		return fmt.Errorf("update user document: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.Conflict(fmt.Sprintf("user %s document changed concurrently", u.ID))
	}

	u.Version++
	return nil
}

const userSelect = `
	SELECT id, username, email, password_hash, profile_picture, ingredients, cooked_history, favorites, version, created_at, updated_at
	FROM users`

// scanUser executes a query expected to return a single user row. The JSONB
// document columns decode straight into the domain slices via pgx.
func (r *UserRepository) scanUser(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var u domain.User

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.ProfilePicture,
		&u.Ingredients,
		&u.CookedHistory,
		&u.Favorites,
		&u.Version,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return &u, nil
}

// emptyIfNil keeps JSONB columns as [] rather than null so reads scan into
// empty slices consistently.
func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
