package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/snapcook/backend/internal/domain"
	"github.com/snapcook/backend/internal/repository"
)

const recipesKey = "recipes:all"

// RecipeCache is a cache-aside wrapper around a recipe repository. The corpus
// is read-only and small, so the whole list is cached under a single key with
// a TTL. Redis failures degrade to the source repository, never to an error.
type RecipeCache struct {
	source repository.RecipeRepository
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRecipeCache creates a Redis cache in front of the given recipe source.
func NewRecipeCache(source repository.RecipeRepository, client *redis.Client, ttl time.Duration, logger *slog.Logger) *RecipeCache {
	return &RecipeCache{
		source: source,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// List returns the recipe corpus, from cache when warm.
func (c *RecipeCache) List(ctx context.Context) ([]domain.Recipe, error) {
	data, err := c.client.Get(ctx, recipesKey).Bytes()
	if err == nil {
		var recipes []domain.Recipe
		if err := json.Unmarshal(data, &recipes); err == nil {
			return recipes, nil
		}
		// Unreadable cache entry; fall through to the source and rewrite it.
		c.logger.WarnContext(ctx, "dropping unreadable recipe cache entry")
	} else if err != redis.Nil {
		c.logger.WarnContext(ctx, "recipe cache read failed", slog.Any("error", err))
	}

	recipes, err := c.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load recipes: %w", err)
	}

	if data, err := json.Marshal(recipes); err == nil {
		if err := c.client.Set(ctx, recipesKey, data, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "recipe cache write failed", slog.Any("error", err))
		}
	}

	return recipes, nil
}

// Invalidate drops the cached corpus, forcing the next List to hit the source.
func (c *RecipeCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, recipesKey).Err(); err != nil {
		return fmt.Errorf("redis del recipes: %w", err)
	}
	return nil
}
