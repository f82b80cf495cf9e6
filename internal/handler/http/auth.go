package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/snapcook/backend/internal/domain"
	"github.com/snapcook/backend/internal/service"
	apperrors "github.com/snapcook/backend/pkg/errors"
	"github.com/snapcook/backend/pkg/httputil"
	"github.com/snapcook/backend/pkg/validator"
)

// AuthHandler handles HTTP requests for account and session endpoints.
type AuthHandler struct {
	service *service.UserService
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc *service.UserService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// SignUpRequest is the JSON request body for account registration.
type SignUpRequest struct {
	Username string `json:"username" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// SignInRequest is the JSON request body for signing in.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest is the JSON request body for explicit token refresh. A
// missing token is a 401 rather than a validation error, so the field carries
// no required tag.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// --- Response types ---

// AuthResponse wraps the user summary with the issued token pair.
type AuthResponse struct {
	User   domain.Summary    `json:"user"`
	Tokens *domain.TokenPair `json:"tokens"`
}

// RefreshResponse carries a newly minted access token.
type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// --- Handlers ---

// SignUp handles POST /signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	user, tokens, err := h.service.SignUp(r.Context(), service.SignUpInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, r, http.StatusCreated, AuthResponse{User: user.Summary(), Tokens: tokens})
}

// SignIn handles POST /signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	user, tokens, err := h.service.SignIn(r.Context(), service.SignInInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, r, http.StatusOK, AuthResponse{User: user.Summary(), Tokens: tokens})
}

// Refresh handles POST /refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	if req.RefreshToken == "" {
		httputil.WriteError(w, r, apperrors.Unauthorized("refresh token is required"), h.logger)
		return
	}

	access, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, r, http.StatusOK, RefreshResponse{AccessToken: access})
}

// Logout handles POST /logout. Sessions are stateless, so there is nothing to
// revoke server side; the endpoint exists so clients have a single call to
// pair with discarding their stored tokens.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, r, http.StatusOK, map[string]string{"message": "logged out"})
}
