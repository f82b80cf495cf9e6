package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/snapcook/backend/internal/classifier"
	"github.com/snapcook/backend/internal/domain"
	"github.com/snapcook/backend/internal/event"
	"github.com/snapcook/backend/internal/repository"
	"github.com/snapcook/backend/internal/storage"
	apperrors "github.com/snapcook/backend/pkg/errors"
)

// PantryService implements the ingredient pipeline: store the uploaded
// image, classify it, dedupe against the user's pantry, and persist.
type PantryService struct {
	userRepo   repository.UserRepository
	classifier classifier.Classifier
	storage    storage.Storage
	producer   *event.Producer
	logger     *slog.Logger
}

// NewPantryService creates a new pantry service.
func NewPantryService(
	userRepo repository.UserRepository,
	cls classifier.Classifier,
	store storage.Storage,
	producer *event.Producer,
	logger *slog.Logger,
) *PantryService {
	return &PantryService{
		userRepo:   userRepo,
		classifier: cls,
		storage:    store,
		producer:   producer,
		logger:     logger,
	}
}

// UploadResult is the outcome of an ingredient upload.
type UploadResult struct {
	Record domain.IngredientRecord
	// AlreadyExists is true when the pantry already held the classified
	// label; Record then points at the pre-existing entry and the new
	// upload was discarded.
	AlreadyExists bool
}

// UploadIngredient stores the uploaded image, classifies it, and records it
// in the user's pantry. A label the pantry already holds discards the new
// image and returns the existing record. On classification failure the stored
// file stays on disk so the error path never compounds with a file-system
// mutation; the caller simply re-uploads.
func (s *PantryService) UploadIngredient(ctx context.Context, userID string, upload *storage.SaveInput) (*UploadResult, error) {
	saved, err := s.storage.Save(ctx, upload)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	res, err := s.classifier.Classify(ctx, saved.Path)
	if err != nil {
		return nil, apperrors.ClassificationFailed(err)
	}

	record := domain.IngredientRecord{
		ImageRef:   saved.Key,
		Label:      res.Label,
		Confidence: res.Confidence,
	}

	var out UploadResult
	_, err = mutateDocument(ctx, s.userRepo, userID, func(u *domain.User) (bool, error) {
		if existing := u.FindIngredientByLabel(res.Label); existing != nil {
			out = UploadResult{Record: *existing, AlreadyExists: true}
			return false, nil
		}
		u.AddIngredient(record)
		out = UploadResult{Record: record}
		return true, nil
	})
	if err != nil {
		s.discard(ctx, saved.Key)
		return nil, err
	}

	if out.AlreadyExists {
		s.discard(ctx, saved.Key)
		s.logger.InfoContext(ctx, "duplicate ingredient upload",
			slog.String("user_id", userID),
			slog.String("label", res.Label),
		)
		return &out, nil
	}

	// Publish event (non-blocking on failure).
	if err := s.producer.PublishIngredientIdentified(ctx, userID, record); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish ingredient.identified event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "ingredient added",
		slog.String("user_id", userID),
		slog.String("label", record.Label),
		slog.Float64("confidence", record.Confidence),
	)

	return &out, nil
}

// ListIngredients returns the user's pantry in upload order.
func (s *PantryService) ListIngredients(ctx context.Context, userID string) ([]domain.IngredientRecord, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if user.Ingredients == nil {
		return []domain.IngredientRecord{}, nil
	}
	return user.Ingredients, nil
}

// RemoveIngredient deletes the pantry record addressed by image reference
// and then its stored file. A reference the pantry does not hold fails with
// NotFound; only the file deletion is idempotent, so a crash between the
// document write and the cleanup can be retried without a dangling file.
func (s *PantryService) RemoveIngredient(ctx context.Context, userID, imageRef string) error {
	if imageRef == "" {
		return apperrors.InvalidInput("image reference is required")
	}

	var removed domain.IngredientRecord
	_, err := mutateDocument(ctx, s.userRepo, userID, func(u *domain.User) (bool, error) {
		i := u.FindIngredientByImageRef(imageRef)
		if i < 0 {
			return false, apperrors.NotFound("ingredient", imageRef)
		}
		removed = u.Ingredients[i]
		u.RemoveIngredientAt(i)
		return true, nil
	})
	if err != nil {
		return err
	}

	// File cleanup happens only after the record is gone from the document,
	// so a failed persist never leaves a record pointing at nothing.
	if err := s.storage.Delete(ctx, imageRef); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete ingredient image",
			slog.String("image_ref", imageRef),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishIngredientRemoved(ctx, userID, removed); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish ingredient.removed event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "ingredient removed",
		slog.String("user_id", userID),
		slog.String("label", removed.Label),
	)

	return nil
}

// discard removes a stored upload that did not make it into the pantry.
func (s *PantryService) discard(ctx context.Context, key string) {
	if err := s.storage.Delete(ctx, key); err != nil {
		s.logger.ErrorContext(ctx, "failed to discard upload",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
