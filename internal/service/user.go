package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/snapcook/backend/internal/auth"
	"github.com/snapcook/backend/internal/domain"
	"github.com/snapcook/backend/internal/event"
	"github.com/snapcook/backend/internal/repository"
	"github.com/snapcook/backend/internal/storage"
	apperrors "github.com/snapcook/backend/pkg/errors"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// minPasswordLength is the minimum password length required.
const minPasswordLength = 8

// UserService implements the business logic for accounts and sessions.
type UserService struct {
	userRepo repository.UserRepository
	tokens   *auth.TokenManager
	storage  storage.Storage
	producer *event.Producer
	logger   *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(
	userRepo repository.UserRepository,
	tokens *auth.TokenManager,
	store storage.Storage,
	producer *event.Producer,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		userRepo: userRepo,
		tokens:   tokens,
		storage:  store,
		producer: producer,
		logger:   logger,
	}
}

// SignUpInput holds the parameters for registering a new user.
type SignUpInput struct {
	Username string
	Email    string
	Password string
}

// SignInInput holds the parameters for signing in.
type SignInInput struct {
	Email    string
	Password string
}

// UpdateProfileInput holds the parameters for updating a user's profile.
// Nil fields are left unchanged.
type UpdateProfileInput struct {
	Username *string
	Email    *string
	Password *string
	Picture  *storage.SaveInput
	// RemovePicture clears the profile picture. Ignored when Picture is set.
	RemovePicture bool
}

// SignUp creates a new user account with an empty pantry and returns tokens.
func (s *UserService) SignUp(ctx context.Context, input SignUpInput) (*domain.User, *domain.TokenPair, error) {
	if input.Username == "" {
		return nil, nil, apperrors.InvalidInput("username is required")
	}
	if input.Email == "" {
		return nil, nil, apperrors.InvalidInput("email is required")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	tokens, err := s.generateTokenPair(user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	// Publish registration event (non-blocking on failure).
	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, tokens, nil
}

// SignIn authenticates a user with email and password, returning tokens.
// An unknown email maps to not-found, a wrong password to unauthorized.
func (s *UserService) SignIn(ctx context.Context, input SignInInput) (*domain.User, *domain.TokenPair, error) {
	if input.Email == "" {
		return nil, nil, apperrors.InvalidInput("email is required")
	}
	if input.Password == "" {
		return nil, nil, apperrors.InvalidInput("password is required")
	}

	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, nil, apperrors.NotFound("user", input.Email)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, nil, apperrors.Unauthorized("invalid password")
	}

	tokens, err := s.generateTokenPair(user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.InfoContext(ctx, "user signed in",
		slog.String("user_id", user.ID),
	)

	return user, tokens, nil
}

// Refresh validates a refresh token and issues a fresh access token. The
// refresh token itself is not rotated; it stays valid until its own expiry.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", apperrors.InvalidInput("refresh token is required")
	}

	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", apperrors.Forbidden("invalid or expired refresh token")
	}

	accessToken, err := s.tokens.GenerateAccessToken(claims.UserID, claims.Email)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}

	s.logger.InfoContext(ctx, "access token refreshed",
		slog.String("user_id", claims.UserID),
	)

	return accessToken, nil
}

// GetProfile retrieves a user by their ID.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user profile: %w", err)
	}
	return user, nil
}

// UpdateProfile updates a user's account fields. A new profile picture is
// stored first and the previous one removed only after the row is persisted,
// so a failed update never orphans the current picture.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user for update: %w", err)
	}

	if input.Username != nil {
		if *input.Username == "" {
			return nil, apperrors.InvalidInput("username must not be empty")
		}
		user.Username = *input.Username
	}
	if input.Email != nil {
		if *input.Email == "" {
			return nil, apperrors.InvalidInput("email must not be empty")
		}
		user.Email = *input.Email
	}
	if input.Password != nil {
		if err := validatePassword(*input.Password); err != nil {
			return nil, err
		}
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash new password: %w", err)
		}
		user.PasswordHash = string(hashedPassword)
	}

	oldPicture := user.ProfilePicture
	var newPicture string
	switch {
	case input.Picture != nil:
		res, err := s.storage.Save(ctx, input.Picture)
		if err != nil {
			return nil, fmt.Errorf("store profile picture: %w", err)
		}
		newPicture = res.Key
		user.ProfilePicture = res.Key
	case input.RemovePicture:
		user.ProfilePicture = ""
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		if newPicture != "" {
			if derr := s.storage.Delete(ctx, newPicture); derr != nil {
				s.logger.ErrorContext(ctx, "failed to remove orphaned profile picture",
					slog.String("key", newPicture),
					slog.String("error", derr.Error()),
				)
			}
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	replacedOld := oldPicture != "" && (newPicture != "" || (input.RemovePicture && input.Picture == nil))
	if replacedOld {
		if err := s.storage.Delete(ctx, oldPicture); err != nil {
			s.logger.ErrorContext(ctx, "failed to remove replaced profile picture",
				slog.String("key", oldPicture),
				slog.String("error", err.Error()),
			)
		}
	}

	// Publish user updated event (non-blocking on failure).
	if err := s.producer.PublishUserUpdated(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.updated event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user profile updated",
		slog.String("user_id", user.ID),
	)

	return user, nil
}

// generateTokenPair creates an access/refresh token pair. Tokens are
// stateless; nothing is stored server side.
func (s *UserService) generateTokenPair(user *domain.User) (*domain.TokenPair, error) {
	accessToken, refreshToken, err := s.tokens.GeneratePair(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// validatePassword checks that the password meets minimum complexity requirements.
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	var hasUpper, hasLower, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit {
		return apperrors.InvalidInput("password must contain at least one uppercase letter, one lowercase letter, and one digit")
	}

	return nil
}
