package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/snapcook/backend/internal/domain"
	"github.com/snapcook/backend/internal/repository"
	apperrors "github.com/snapcook/backend/pkg/errors"
)

// RecommendService matches the recipe corpus against a user's pantry.
type RecommendService struct {
	userRepo   repository.UserRepository
	recipeRepo repository.RecipeRepository
	logger     *slog.Logger
}

// NewRecommendService creates a new recommendation service.
func NewRecommendService(userRepo repository.UserRepository, recipeRepo repository.RecipeRepository, logger *slog.Logger) *RecommendService {
	return &RecommendService{
		userRepo:   userRepo,
		recipeRepo: recipeRepo,
		logger:     logger,
	}
}

// Recommendation is a recipe paired with the pantry ingredients it uses.
type Recommendation struct {
	Name               string   `json:"name"`
	Ingredients        []string `json:"ingredients"`
	RecipeText         string   `json:"recipeText"`
	MatchedIngredients []string `json:"matchedIngredients"`
}

// RecommendRecipes returns every recipe sharing at least one ingredient with
// the user's pantry. An empty pantry yields an empty list, not an error.
func (s *RecommendService) RecommendRecipes(ctx context.Context, userID string) ([]Recommendation, error) {
	pantry, err := s.pantry(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(pantry) == 0 {
		return []Recommendation{}, nil
	}

	recipes, err := s.recipeRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}

	matches := []Recommendation{}
	for i := range recipes {
		if matched := recipes[i].Matches(pantry); len(matched) > 0 {
			matches = append(matches, newRecommendation(&recipes[i], matched))
		}
	}

	s.logger.DebugContext(ctx, "recipes recommended",
		slog.String("user_id", userID),
		slog.Int("pantry_size", len(pantry)),
		slog.Int("matches", len(matches)),
	)

	return matches, nil
}

// RecommendDishes returns the recipes the user can cook outright, every
// ingredient covered by the pantry. An empty pantry is an input error and
// no fully-covered recipe is not-found, so clients can distinguish "add
// ingredients first" from "nothing cookable yet".
func (s *RecommendService) RecommendDishes(ctx context.Context, userID string) ([]Recommendation, error) {
	pantry, err := s.pantry(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(pantry) == 0 {
		return nil, apperrors.InvalidInput("no ingredients uploaded")
	}

	recipes, err := s.recipeRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}

	var dishes []Recommendation
	for i := range recipes {
		if recipes[i].CoveredBy(pantry) {
			dishes = append(dishes, newRecommendation(&recipes[i], recipes[i].Ingredients))
		}
	}

	if len(dishes) == 0 {
		return nil, apperrors.NotFound("cookable dish", "pantry")
	}

	s.logger.DebugContext(ctx, "dishes recommended",
		slog.String("user_id", userID),
		slog.Int("dishes", len(dishes)),
	)

	return dishes, nil
}

func (s *RecommendService) pantry(ctx context.Context, userID string) (map[string]struct{}, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user.IngredientLabels(), nil
}

func newRecommendation(r *domain.Recipe, matched []string) Recommendation {
	return Recommendation{
		Name:               r.Name,
		Ingredients:        r.Ingredients,
		RecipeText:         r.RecipeText,
		MatchedIngredients: matched,
	}
}
