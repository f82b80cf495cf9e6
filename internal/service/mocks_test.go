package service

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"github.com/snapcook/backend/internal/auth"
	"github.com/snapcook/backend/internal/classifier"
	"github.com/snapcook/backend/internal/domain"
	"github.com/snapcook/backend/internal/event"
	"github.com/snapcook/backend/internal/storage"
	pkgkafka "github.com/snapcook/backend/pkg/kafka"
)

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) UpdateDocument(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// --- Mock Recipe Repository ---

type mockRecipeRepository struct {
	mock.Mock
}

func (m *mockRecipeRepository) List(ctx context.Context) ([]domain.Recipe, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Recipe), args.Error(1)
}

// --- Stub Classifier ---

type stubClassifier struct {
	result *classifier.Result
	err    error
}

func (c *stubClassifier) Classify(ctx context.Context, imagePath string) (*classifier.Result, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.result, nil
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestTokenManager() *auth.TokenManager {
	return auth.NewTokenManager("test-access-secret", "test-refresh-secret", 15*time.Minute, 7*24*time.Hour)
}

func newTestEventProducer() *event.Producer {
	logger := newTestLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg, logger)
	return event.NewProducer(kafkaProducer, logger)
}

func strPtr(s string) *string {
	return &s
}

// hashForTest creates a bcrypt hash with cost 4 for fast tests.
func hashForTest(password string) string {
	h, err := bcrypt.GenerateFromPassword([]byte(password), 4)
	if err != nil {
		panic(err)
	}
	return string(h)
}

// newUpload builds a SaveInput around an in-memory payload.
func newUpload(name, content string) *storage.SaveInput {
	return &storage.SaveInput{
		Filename:    name,
		ContentType: "image/png",
		Size:        int64(len(content)),
		Data:        strings.NewReader(content),
	}
}

// pantryUser returns a user with the given pantry labels, one record per
// label, each backed by a synthetic image ref.
func pantryUser(t *testing.T, labels ...string) *domain.User {
	t.Helper()
	u := &domain.User{
		ID:       "u-1",
		Username: "alice",
		Email:    "alice@example.com",
		Version:  1,
	}
	for _, l := range labels {
		u.Ingredients = append(u.Ingredients, domain.IngredientRecord{
			ImageRef: l + ".jpg",
			Label:    l,
		})
	}
	return u
}
