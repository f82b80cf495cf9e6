package postgres

import (
	"context"
	"fmt"

	"github.com/snapcook/backend/internal/domain"
	"github.com/snapcook/backend/pkg/database"
)

// RecipeRepository reads the seeded recipe corpus from PostgreSQL.
type RecipeRepository struct {
	pool database.DBTX
}

// NewRecipeRepository creates a new PostgreSQL-backed recipe repository.
func NewRecipeRepository(pool database.DBTX) *RecipeRepository {
	return &RecipeRepository{pool: pool}
}

// List returns every recipe in the corpus, in name order.
func (r *RecipeRepository) List(ctx context.Context) ([]domain.Recipe, error) {
	query := `
		SELECT id, name, ingredients, recipe_text
		FROM recipes
		ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []domain.Recipe
	for rows.Next() {
		var rec domain.Recipe
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Ingredients, &rec.RecipeText); err != nil {
			return nil, fmt.Errorf("scan recipe row: %w", err)
		}
		recipes = append(recipes, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recipe rows: %w", err)
	}

	if recipes == nil {
		recipes = []domain.Recipe{}
	}

	return recipes, nil
}
