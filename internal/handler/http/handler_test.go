package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/snapcook/backend/internal/auth"
	"github.com/snapcook/backend/internal/classifier"
	"github.com/snapcook/backend/internal/domain"
	"github.com/snapcook/backend/internal/event"
	"github.com/snapcook/backend/internal/service"
	"github.com/snapcook/backend/internal/storage/memory"
	"github.com/snapcook/backend/pkg/health"
	"github.com/snapcook/backend/pkg/httputil"
	pkgkafka "github.com/snapcook/backend/pkg/kafka"
	"github.com/snapcook/backend/pkg/middleware"
)

// ============================================================================
// Mock Repositories
// ============================================================================

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) UpdateDocument(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

type mockRecipeRepo struct {
	mock.Mock
}

func (m *mockRecipeRepo) List(ctx context.Context) ([]domain.Recipe, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Recipe), args.Error(1)
}

type stubClassifier struct {
	result *classifier.Result
	err    error
}

func (s *stubClassifier) Classify(ctx context.Context, imagePath string) (*classifier.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

// ============================================================================
// Test Helpers
// ============================================================================

const testUserID = "550e8400-e29b-41d4-a716-446655440001"

func handlerTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func handlerTestTokens() *auth.TokenManager {
	return auth.NewTokenManager("test-access-secret", "test-refresh-secret", 15*time.Minute, 168*time.Hour)
}

// expiredTokenManager shares secrets with handlerTestTokens but mints access
// tokens that are already expired.
func expiredTokenManager() *auth.TokenManager {
	return auth.NewTokenManager("test-access-secret", "test-refresh-secret", -time.Minute, 168*time.Hour)
}

func handlerTestEventProducer() *event.Producer {
	logger := handlerTestLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:19092"})
	return event.NewProducer(pkgkafka.NewProducer(kafkaCfg, logger), logger)
}

type testEnv struct {
	userRepo   *mockUserRepo
	recipeRepo *mockRecipeRepo
	classifier *stubClassifier
	store      *memory.Storage
	tokens     *auth.TokenManager
	router     http.Handler
}

// newTestEnv builds the full production router backed by mock repositories,
// an in-memory file store, and a stub classifier.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := handlerTestLogger()
	userRepo := new(mockUserRepo)
	recipeRepo := new(mockRecipeRepo)
	cls := &stubClassifier{result: &classifier.Result{Label: "tomato", Confidence: 0.97}}
	store := memory.New()
	tokens := handlerTestTokens()
	producer := handlerTestEventProducer()

	router := NewRouter(RouterConfig{
		UserService:      service.NewUserService(userRepo, tokens, store, producer, logger),
		PantryService:    service.NewPantryService(userRepo, cls, store, producer, logger),
		RecommendService: service.NewRecommendService(userRepo, recipeRepo, logger),
		HistoryService:   service.NewHistoryService(userRepo, producer, logger),
		SessionGuard:     auth.NewSessionGuard(tokens),
		HealthHandler:    health.NewHandler(),
		Logger:           logger,
		CORS:             middleware.DefaultCORSConfig(),
		MaxUploadSize:    10 << 20,
		PprofCIDRs:       []string{"127.0.0.0/8"},
	})

	return &testEnv{
		userRepo:   userRepo,
		recipeRepo: recipeRepo,
		classifier: cls,
		store:      store,
		tokens:     tokens,
		router:     router,
	}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// authorize attaches a freshly minted access token for the test user.
func (e *testEnv) authorize(t *testing.T, req *http.Request) {
	t.Helper()
	token, err := e.tokens.GenerateAccessToken(testUserID, "cook@example.com")
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// multipartRequest builds a multipart request with an optional file part named
// "image" and any additional form fields.
func multipartRequest(t *testing.T, method, path, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := w.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

// decodeData re-marshals the envelope's data field into dst.
func decodeData(t *testing.T, resp httputil.Response, dst any) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, dst))
}

func hashForTest(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func sampleUser(t *testing.T) *domain.User {
	now := time.Now().UTC()
	return &domain.User{
		ID:           testUserID,
		Username:     "cook",
		Email:        "cook@example.com",
		PasswordHash: hashForTest(t, "Sup3rSecret"),
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func pantryUser(t *testing.T, labels ...string) *domain.User {
	user := sampleUser(t)
	for _, label := range labels {
		user.Ingredients = append(user.Ingredients, domain.IngredientRecord{
			ImageRef:   label + ".jpg",
			Label:      label,
			Confidence: 0.9,
		})
	}
	return user
}
