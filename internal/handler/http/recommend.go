package http

import (
	"log/slog"
	"net/http"

	"github.com/snapcook/backend/internal/service"
	"github.com/snapcook/backend/pkg/httputil"
	"github.com/snapcook/backend/pkg/middleware"
)

// RecommendHandler handles HTTP requests for recipe recommendation endpoints.
type RecommendHandler struct {
	service *service.RecommendService
	logger  *slog.Logger
}

// NewRecommendHandler creates a new recommendation HTTP handler.
func NewRecommendHandler(svc *service.RecommendService, logger *slog.Logger) *RecommendHandler {
	return &RecommendHandler{service: svc, logger: logger}
}

// RecommendationsResponse wraps a list of matched recipes.
type RecommendationsResponse struct {
	Recipes []service.Recommendation `json:"recipes"`
}

// Recipes handles GET /recommend-recipes: any-overlap matching.
func (h *RecommendHandler) Recipes(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	recs, err := h.service.RecommendRecipes(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, r, http.StatusOK, RecommendationsResponse{Recipes: recs})
}

// Dishes handles GET /recommend-dishes: full-coverage matching.
func (h *RecommendHandler) Dishes(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	recs, err := h.service.RecommendDishes(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, r, http.StatusOK, RecommendationsResponse{Recipes: recs})
}
