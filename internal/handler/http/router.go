package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/snapcook/backend/internal/auth"
	"github.com/snapcook/backend/internal/service"
	"github.com/snapcook/backend/pkg/health"
	"github.com/snapcook/backend/pkg/middleware"
)

// RouterConfig bundles the collaborators and settings the HTTP surface needs.
type RouterConfig struct {
	UserService      *service.UserService
	PantryService    *service.PantryService
	RecommendService *service.RecommendService
	HistoryService   *service.HistoryService
	SessionGuard     *auth.SessionGuard
	HealthHandler    *health.Handler
	Logger           *slog.Logger
	CORS             middleware.CORSConfig
	MaxUploadSize    int64
	PprofCIDRs       []string
}

// NewRouter creates a chi router with all backend routes registered. Routes
// are mounted at the root to match the paths mobile clients call.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.PrometheusMetrics("snapcook"))
	r.Use(middleware.Tracing("snapcook"))
	r.Use(middleware.RequestLogger(cfg.Logger))

	// Health check endpoints
	r.Get("/health/live", cfg.HealthHandler.LivenessHandler())
	r.Get("/health/ready", cfg.HealthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, cfg.Logger)

	authHandler := NewAuthHandler(cfg.UserService, cfg.Logger)
	userHandler := NewUserHandler(cfg.UserService, cfg.MaxUploadSize, cfg.Logger)
	pantryHandler := NewPantryHandler(cfg.PantryService, cfg.MaxUploadSize, cfg.Logger)
	recommendHandler := NewRecommendHandler(cfg.RecommendService, cfg.Logger)
	historyHandler := NewHistoryHandler(cfg.HistoryService, cfg.Logger)

	// Public endpoints
	r.Group(func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/signup", authHandler.SignUp)
		r.Post("/signin", authHandler.SignIn)
		r.Post("/refresh", authHandler.Refresh)
	})

	// Session validator bridging the middleware to the token guard. A renewed
	// access token is threaded through context so handlers echo it back.
	validate := func(accessToken, refreshToken string) (*middleware.Claims, string, error) {
		identity, renewed, err := cfg.SessionGuard.Authenticate(accessToken, refreshToken)
		if err != nil {
			return nil, "", err
		}
		return &middleware.Claims{UserID: identity.UserID, Email: identity.Email}, renewed, nil
	}

	// Authenticated endpoints
	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(validate))

		// Multipart bodies: no JSON content-type enforcement.
		r.Post("/upload-ingredients", pantryHandler.Upload)
		r.Put("/update-profile", userHandler.UpdateProfile)

		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)

			r.Get("/home", userHandler.Home)
			r.Get("/identify-ingredients", pantryHandler.List)
			r.Post("/remove-ingredient", pantryHandler.Remove)
			r.Get("/recommend-recipes", recommendHandler.Recipes)
			r.Get("/recommend-dishes", recommendHandler.Dishes)
			r.Post("/mark-cooked", historyHandler.MarkCooked)
			r.Post("/remove-cooked-dish", historyHandler.RemoveCookedDish)
			r.Post("/toggle-favorite", historyHandler.ToggleFavorite)
			r.Post("/clear-cooked-history", historyHandler.ClearHistory)
			r.Post("/logout", authHandler.Logout)
		})
	})

	return r
}
