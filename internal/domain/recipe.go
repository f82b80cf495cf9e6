package domain

// Recipe is one entry in the read-only recipe corpus.
// Ingredients are stored normalized (lowercase).
type Recipe struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Ingredients []string `json:"ingredients"`
	RecipeText  string   `json:"recipeText"`
}

// Matches returns the subset of the recipe's ingredients present in the
// given pantry label set.
func (r *Recipe) Matches(pantry map[string]struct{}) []string {
	var matched []string
	for _, ing := range r.Ingredients {
		if _, ok := pantry[NormalizeLabel(ing)]; ok {
			matched = append(matched, ing)
		}
	}
	return matched
}

// CoveredBy reports whether every ingredient of the recipe is present in the
// pantry label set.
func (r *Recipe) CoveredBy(pantry map[string]struct{}) bool {
	for _, ing := range r.Ingredients {
		if _, ok := pantry[NormalizeLabel(ing)]; !ok {
			return false
		}
	}
	return true
}
