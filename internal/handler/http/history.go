package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/snapcook/backend/internal/domain"
	"github.com/snapcook/backend/internal/service"
	"github.com/snapcook/backend/pkg/httputil"
	"github.com/snapcook/backend/pkg/middleware"
	"github.com/snapcook/backend/pkg/validator"
)

// HistoryHandler handles HTTP requests for cooked-dish history endpoints.
type HistoryHandler struct {
	service *service.HistoryService
	logger  *slog.Logger
}

// NewHistoryHandler creates a new history HTTP handler.
func NewHistoryHandler(svc *service.HistoryService, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{service: svc, logger: logger}
}

// DishRequest is the JSON request body for marking a dish cooked or toggling
// a favorite.
type DishRequest struct {
	Name               string   `json:"name" validate:"required"`
	Ingredients        []string `json:"ingredients" validate:"required,min=1"`
	RecipeText         string   `json:"recipeText" validate:"required"`
	MatchedIngredients []string `json:"matchedIngredients"`
}

// RemoveDishRequest is the JSON request body for removing a history entry.
type RemoveDishRequest struct {
	Name string `json:"name" validate:"required"`
}

// HistoryResponse wraps the cooked-dish history.
type HistoryResponse struct {
	CookedHistory []domain.DishSnapshot `json:"cookedHistory"`
}

// FavoritesResponse wraps the favorites list along with the toggle outcome.
type FavoritesResponse struct {
	Favorites []domain.DishSnapshot `json:"favorites"`
	Added     bool                  `json:"added"`
}

func (req *DishRequest) snapshot() domain.DishSnapshot {
	return domain.DishSnapshot{
		Name:               req.Name,
		Ingredients:        req.Ingredients,
		RecipeText:         req.RecipeText,
		MatchedIngredients: req.MatchedIngredients,
		Timestamp:          time.Now().UTC(),
	}
}

func decodeDishRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.WriteValidationError(w, err)
		return false
	}
	if err := validator.Validate(dst); err != nil {
		httputil.WriteValidationError(w, err)
		return false
	}
	return true
}

// MarkCooked handles POST /mark-cooked
func (h *HistoryHandler) MarkCooked(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	var req DishRequest
	if !decodeDishRequest(w, r, &req) {
		return
	}

	history, err := h.service.MarkCooked(r.Context(), userID, req.snapshot())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, r, http.StatusOK, HistoryResponse{CookedHistory: history})
}

// RemoveCookedDish handles POST /remove-cooked-dish
func (h *HistoryHandler) RemoveCookedDish(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	var req RemoveDishRequest
	if !decodeDishRequest(w, r, &req) {
		return
	}

	history, err := h.service.RemoveCookedDish(r.Context(), userID, req.Name)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, r, http.StatusOK, HistoryResponse{CookedHistory: history})
}

// ToggleFavorite handles POST /toggle-favorite
func (h *HistoryHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	var req DishRequest
	if !decodeDishRequest(w, r, &req) {
		return
	}

	favorites, added, err := h.service.ToggleFavorite(r.Context(), userID, req.snapshot())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, r, http.StatusOK, FavoritesResponse{Favorites: favorites, Added: added})
}

// ClearHistory handles POST /clear-cooked-history
func (h *HistoryHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	if err := h.service.ClearHistory(r.Context(), userID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, r, http.StatusOK, HistoryResponse{CookedHistory: []domain.DishSnapshot{}})
}
