package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/snapcook/backend/pkg/errors"
	"github.com/snapcook/backend/pkg/httputil"
	"github.com/snapcook/backend/pkg/middleware"
	"github.com/snapcook/backend/pkg/validator"

	"github.com/snapcook/backend/internal/domain"
	"github.com/snapcook/backend/internal/service"
	"github.com/snapcook/backend/internal/storage"
)

// PantryHandler handles HTTP requests for ingredient endpoints.
type PantryHandler struct {
	service       *service.PantryService
	maxUploadSize int64
	logger        *slog.Logger
}

// NewPantryHandler creates a new pantry HTTP handler.
func NewPantryHandler(svc *service.PantryService, maxUploadSize int64, logger *slog.Logger) *PantryHandler {
	return &PantryHandler{service: svc, maxUploadSize: maxUploadSize, logger: logger}
}

// RemoveIngredientRequest is the JSON request body for removing a pantry record.
type RemoveIngredientRequest struct {
	ImageRef string `json:"imageRef" validate:"required"`
}

// IngredientListResponse wraps the pantry records.
type IngredientListResponse struct {
	Ingredients []domain.IngredientRecord `json:"ingredients"`
}

// UploadResponse is the payload for a processed ingredient upload.
type UploadResponse struct {
	Record domain.IngredientRecord `json:"record"`
	// AlreadyExists is true when the classified label was already in the
	// pantry and the new image was discarded.
	AlreadyExists bool `json:"alreadyExists"`
}

// Upload handles POST /upload-ingredients. The image arrives as a multipart
// form file under the "image" field.
func (h *PantryHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("parse multipart form: "+err.Error()), h.logger)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			httputil.WriteError(w, r, apperrors.InvalidInput("image file is required"), h.logger)
			return
		}
		httputil.WriteError(w, r, apperrors.InvalidInput("read image field: "+err.Error()), h.logger)
		return
	}
	defer file.Close()

	result, err := h.service.UploadIngredient(r.Context(), userID, &storage.SaveInput{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Data:        file,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	status := http.StatusCreated
	if result.AlreadyExists {
		status = http.StatusOK
	}
	httputil.WriteData(w, r, status, UploadResponse{
		Record:        result.Record,
		AlreadyExists: result.AlreadyExists,
	})
}

// List handles GET /identify-ingredients
func (h *PantryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	records, err := h.service.ListIngredients(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, r, http.StatusOK, IngredientListResponse{Ingredients: records})
}

// Remove handles POST /remove-ingredient
func (h *PantryHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req RemoveIngredientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.service.RemoveIngredient(r.Context(), userID, req.ImageRef); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	records, err := h.service.ListIngredients(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, r, http.StatusOK, IngredientListResponse{Ingredients: records})
}
