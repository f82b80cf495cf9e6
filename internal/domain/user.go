package domain

import (
	"strings"
	"time"
)

// CookedHistoryLimit is the maximum number of dishes kept in a user's cooked
// history. Marking another dish cooked drops the oldest entry.
const CookedHistoryLimit = 5

// User represents a registered user together with their pantry document.
// The document (ingredients, cooked history, favorites) is owned by the
// persistence layer and mutated in memory as a whole; Version backs the
// compare-and-swap write that guards against concurrent lost updates.
type User struct {
	ID             string             `json:"id"`
	Username       string             `json:"username"`
	Email          string             `json:"email"`
	PasswordHash   string             `json:"-"`
	ProfilePicture string             `json:"profile_picture,omitempty"`
	Ingredients    []IngredientRecord `json:"ingredients"`
	CookedHistory  []DishSnapshot     `json:"cooked_history"`
	Favorites      []DishSnapshot     `json:"favorites"`
	Version        int                `json:"-"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// IngredientRecord is one classified ingredient image in a user's pantry.
// Labels are stored normalized (lowercase); for a given user no two records
// share a label, and the record order is the upload order.
type IngredientRecord struct {
	ImageRef   string  `json:"imageRef"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence,omitempty"`
}

// DishSnapshot captures a dish at the moment it was cooked or favorited.
// Name is the identity key within both the cooked history and favorites.
type DishSnapshot struct {
	Name               string    `json:"name"`
	Ingredients        []string  `json:"ingredients"`
	RecipeText         string    `json:"recipeText"`
	MatchedIngredients []string  `json:"matchedIngredients"`
	Timestamp          time.Time `json:"timestamp"`
}

// TokenPair holds an access and refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Summary is the user representation returned to clients.
type Summary struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

// Summary returns the client-facing view of the user, without the credential
// hash or the pantry document.
func (u *User) Summary() Summary {
	return Summary{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		ProfilePicture: u.ProfilePicture,
	}
}

// NormalizeLabel lowercases and trims an ingredient label so that
// classifier output and recipe ingredients compare consistently.
func NormalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// FindIngredientByLabel returns the record with the given (normalized) label,
// or nil if the user has no such ingredient.
func (u *User) FindIngredientByLabel(label string) *IngredientRecord {
	label = NormalizeLabel(label)
	for i := range u.Ingredients {
		if u.Ingredients[i].Label == label {
			return &u.Ingredients[i]
		}
	}
	return nil
}

// FindIngredientByImageRef returns the index of the record with the given
// image reference, or -1 if not found.
func (u *User) FindIngredientByImageRef(imageRef string) int {
	for i := range u.Ingredients {
		if u.Ingredients[i].ImageRef == imageRef {
			return i
		}
	}
	return -1
}

// AddIngredient appends a record, preserving upload order. The caller is
// responsible for the one-record-per-label check via FindIngredientByLabel.
func (u *User) AddIngredient(rec IngredientRecord) {
	rec.Label = NormalizeLabel(rec.Label)
	u.Ingredients = append(u.Ingredients, rec)
}

// RemoveIngredientAt removes the record at index i, keeping order.
func (u *User) RemoveIngredientAt(i int) {
	u.Ingredients = append(u.Ingredients[:i], u.Ingredients[i+1:]...)
}

// IngredientLabels returns the set of the user's normalized labels.
func (u *User) IngredientLabels() map[string]struct{} {
	labels := make(map[string]struct{}, len(u.Ingredients))
	for i := range u.Ingredients {
		labels[u.Ingredients[i].Label] = struct{}{}
	}
	return labels
}

// MarkCooked records a dish in the cooked history. An existing entry with the
// same name is replaced rather than duplicated, the new snapshot is stamped
// with the current time and appended as most recent, and the history is
// truncated from the front so it never exceeds CookedHistoryLimit entries.
func (u *User) MarkCooked(dish DishSnapshot) {
	u.removeCooked(dish.Name)
	dish.Timestamp = time.Now().UTC()
	u.CookedHistory = append(u.CookedHistory, dish)
	if n := len(u.CookedHistory); n > CookedHistoryLimit {
		u.CookedHistory = u.CookedHistory[n-CookedHistoryLimit:]
	}
}

// RemoveCookedDish deletes the history entry with the given name.
// It reports whether an entry was removed.
func (u *User) RemoveCookedDish(name string) bool {
	return u.removeCooked(name)
}

func (u *User) removeCooked(name string) bool {
	for i := range u.CookedHistory {
		if u.CookedHistory[i].Name == name {
			u.CookedHistory = append(u.CookedHistory[:i], u.CookedHistory[i+1:]...)
			return true
		}
	}
	return false
}

// ClearCookedHistory resets the cooked history. Favorites are untouched.
func (u *User) ClearCookedHistory() {
	u.CookedHistory = nil
}

// ToggleFavorite flips a dish in or out of the favorites set, keyed by name.
// It returns true when the dish was added and false when an existing favorite
// was removed; applying it twice returns the set to its prior state.
func (u *User) ToggleFavorite(dish DishSnapshot) bool {
	for i := range u.Favorites {
		if u.Favorites[i].Name == dish.Name {
			u.Favorites = append(u.Favorites[:i], u.Favorites[i+1:]...)
			return false
		}
	}
	dish.Timestamp = time.Now().UTC()
	u.Favorites = append(u.Favorites, dish)
	return true
}
