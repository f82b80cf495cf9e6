package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/snapcook/backend/internal/domain"
	"github.com/snapcook/backend/internal/service"
	"github.com/snapcook/backend/internal/storage"
	apperrors "github.com/snapcook/backend/pkg/errors"
	"github.com/snapcook/backend/pkg/httputil"
	"github.com/snapcook/backend/pkg/middleware"
	"github.com/snapcook/backend/pkg/validator"
)

// UserHandler handles HTTP requests for profile endpoints.
type UserHandler struct {
	service       *service.UserService
	maxUploadSize int64
	logger        *slog.Logger
}

// NewUserHandler creates a new user HTTP handler.
func NewUserHandler(svc *service.UserService, maxUploadSize int64, logger *slog.Logger) *UserHandler {
	return &UserHandler{service: svc, maxUploadSize: maxUploadSize, logger: logger}
}

// UpdateProfileRequest is the JSON request body for profile updates without a
// picture. Multipart requests carry the same fields as form values.
type UpdateProfileRequest struct {
	Username             *string `json:"username" validate:"omitempty,min=2,max=100"`
	Email                *string `json:"email" validate:"omitempty,email"`
	Password             *string `json:"password" validate:"omitempty,min=8"`
	RemoveProfilePicture bool    `json:"removeProfilePicture"`
}

// HomeResponse is the payload for the home screen: the profile plus the full
// pantry document.
type HomeResponse struct {
	User          domain.Summary            `json:"user"`
	Ingredients   []domain.IngredientRecord `json:"ingredients"`
	CookedHistory []domain.DishSnapshot     `json:"cookedHistory"`
	Favorites     []domain.DishSnapshot     `json:"favorites"`
}

// Home handles GET /home
func (h *UserHandler) Home(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	user, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	resp := HomeResponse{
		User:          user.Summary(),
		Ingredients:   user.Ingredients,
		CookedHistory: user.CookedHistory,
		Favorites:     user.Favorites,
	}
	if resp.Ingredients == nil {
		resp.Ingredients = []domain.IngredientRecord{}
	}
	if resp.CookedHistory == nil {
		resp.CookedHistory = []domain.DishSnapshot{}
	}
	if resp.Favorites == nil {
		resp.Favorites = []domain.DishSnapshot{}
	}

	httputil.WriteData(w, r, http.StatusOK, resp)
}

// UpdateProfile handles PUT /update-profile. Plain JSON bodies carry field
// updates; multipart bodies may additionally include a new profile picture
// under the "image" form field.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var (
		req     UpdateProfileRequest
		picture *storage.SaveInput
	)
	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
		if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("parse multipart form: "+err.Error()), h.logger)
			return
		}
		if v := r.FormValue("username"); v != "" {
			req.Username = &v
		}
		if v := r.FormValue("email"); v != "" {
			req.Email = &v
		}
		if v := r.FormValue("password"); v != "" {
			req.Password = &v
		}
		req.RemoveProfilePicture = r.FormValue("removeProfilePicture") == "true"

		file, header, err := r.FormFile("image")
		switch {
		case err == nil:
			defer file.Close()
			picture = &storage.SaveInput{
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Size:        header.Size,
				Data:        file,
			}
		case errors.Is(err, http.ErrMissingFile):
			// Field updates without a new picture.
		default:
			httputil.WriteError(w, r, apperrors.InvalidInput("read image field: "+err.Error()), h.logger)
			return
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.WriteValidationError(w, err)
			return
		}
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	if req.Username == nil && req.Email == nil && req.Password == nil && picture == nil && !req.RemoveProfilePicture {
		httputil.WriteValidationError(w, errors.New("no profile fields provided"))
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), userID, service.UpdateProfileInput{
		Username:      req.Username,
		Email:         req.Email,
		Password:      req.Password,
		Picture:       picture,
		RemovePicture: req.RemoveProfilePicture,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, r, http.StatusOK, user.Summary())
}
