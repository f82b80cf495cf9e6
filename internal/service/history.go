package service

import (
	"context"
	"log/slog"

	"github.com/snapcook/backend/internal/domain"
	"github.com/snapcook/backend/internal/event"
	"github.com/snapcook/backend/internal/repository"
	apperrors "github.com/snapcook/backend/pkg/errors"
)

// HistoryService maintains the bounded cooked-dish history and the
// favorites set.
type HistoryService struct {
	userRepo repository.UserRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewHistoryService creates a new history service.
func NewHistoryService(userRepo repository.UserRepository, producer *event.Producer, logger *slog.Logger) *HistoryService {
	return &HistoryService{
		userRepo: userRepo,
		producer: producer,
		logger:   logger,
	}
}

// MarkCooked records a dish as cooked and returns the updated history.
// Cooking a dish already in the history moves it to the most-recent slot;
// the history never grows past its cap.
func (s *HistoryService) MarkCooked(ctx context.Context, userID string, dish domain.DishSnapshot) ([]domain.DishSnapshot, error) {
	if dish.Name == "" {
		return nil, apperrors.InvalidInput("dish name is required")
	}

	user, err := mutateDocument(ctx, s.userRepo, userID, func(u *domain.User) (bool, error) {
		u.MarkCooked(dish)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.producer.PublishDishCooked(ctx, userID, dish.Name); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish dish.cooked event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "dish cooked",
		slog.String("user_id", userID),
		slog.String("dish", dish.Name),
	)

	return user.CookedHistory, nil
}

// RemoveCookedDish deletes a dish from the history by name and returns the
// updated history. A name the history does not hold is a no-op.
func (s *HistoryService) RemoveCookedDish(ctx context.Context, userID, name string) ([]domain.DishSnapshot, error) {
	if name == "" {
		return nil, apperrors.InvalidInput("dish name is required")
	}

	user, err := mutateDocument(ctx, s.userRepo, userID, func(u *domain.User) (bool, error) {
		return u.RemoveCookedDish(name), nil
	})
	if err != nil {
		return nil, err
	}

	return user.CookedHistory, nil
}

// ToggleFavorite flips a dish in or out of the favorites set and returns
// the updated set together with whether the dish is now a favorite.
func (s *HistoryService) ToggleFavorite(ctx context.Context, userID string, dish domain.DishSnapshot) ([]domain.DishSnapshot, bool, error) {
	if dish.Name == "" {
		return nil, false, apperrors.InvalidInput("dish name is required")
	}

	var added bool
	user, err := mutateDocument(ctx, s.userRepo, userID, func(u *domain.User) (bool, error) {
		added = u.ToggleFavorite(dish)
		return true, nil
	})
	if err != nil {
		return nil, false, err
	}

	s.logger.InfoContext(ctx, "favorite toggled",
		slog.String("user_id", userID),
		slog.String("dish", dish.Name),
		slog.Bool("favorite", added),
	)

	return user.Favorites, added, nil
}

// ClearHistory empties the cooked history. Favorites survive.
func (s *HistoryService) ClearHistory(ctx context.Context, userID string) error {
	_, err := mutateDocument(ctx, s.userRepo, userID, func(u *domain.User) (bool, error) {
		if len(u.CookedHistory) == 0 {
			return false, nil
		}
		u.ClearCookedHistory()
		return true, nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "cooked history cleared",
		slog.String("user_id", userID),
	)

	return nil
}
