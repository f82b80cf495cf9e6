package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/snapcook/backend/internal/domain"
	pkgkafka "github.com/snapcook/backend/pkg/kafka"
	"github.com/snapcook/backend/pkg/logger"
)

// Kafka topic constants for SnapCook domain events.
const (
	TopicUserRegistered       = "snapcook.user.registered"
	TopicUserUpdated          = "snapcook.user.updated"
	TopicIngredientIdentified = "snapcook.ingredient.identified"
	TopicIngredientRemoved    = "snapcook.ingredient.removed"
	TopicDishCooked           = "snapcook.dish.cooked"
)

// Aggregate type constant. Every event aggregates on the owning user.
const AggregateTypeUser = "user"

// Source identifier for events originating from this backend.
const SourceBackend = "snapcook-backend"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// UserUpdatedData is the payload for a user.updated event.
type UserUpdatedData struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// IngredientIdentifiedData is the payload for an ingredient.identified event.
type IngredientIdentifiedData struct {
	UserID     string  `json:"user_id"`
	ImageRef   string  `json:"image_ref"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// IngredientRemovedData is the payload for an ingredient.removed event.
type IngredientRemovedData struct {
	UserID   string `json:"user_id"`
	ImageRef string `json:"image_ref"`
	Label    string `json:"label"`
}

// DishCookedData is the payload for a dish.cooked event.
type DishCookedData struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// Producer publishes SnapCook domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}
	return p.publish(ctx, TopicUserRegistered, user.ID, data)
}

// PublishUserUpdated publishes a user.updated event.
func (p *Producer) PublishUserUpdated(ctx context.Context, user *domain.User) error {
	data := UserUpdatedData{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}
	return p.publish(ctx, TopicUserUpdated, user.ID, data)
}

// PublishIngredientIdentified publishes an ingredient.identified event.
func (p *Producer) PublishIngredientIdentified(ctx context.Context, userID string, rec domain.IngredientRecord) error {
	data := IngredientIdentifiedData{
		UserID:     userID,
		ImageRef:   rec.ImageRef,
		Label:      rec.Label,
		Confidence: rec.Confidence,
	}
	return p.publish(ctx, TopicIngredientIdentified, userID, data)
}

// PublishIngredientRemoved publishes an ingredient.removed event.
func (p *Producer) PublishIngredientRemoved(ctx context.Context, userID string, rec domain.IngredientRecord) error {
	data := IngredientRemovedData{
		UserID:   userID,
		ImageRef: rec.ImageRef,
		Label:    rec.Label,
	}
	return p.publish(ctx, TopicIngredientRemoved, userID, data)
}

// PublishDishCooked publishes a dish.cooked event.
func (p *Producer) PublishDishCooked(ctx context.Context, userID, dishName string) error {
	data := DishCookedData{
		UserID: userID,
		Name:   dishName,
	}
	return p.publish(ctx, TopicDishCooked, userID, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, AggregateTypeUser, SourceBackend, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if corrID := logger.CorrelationIDFromContext(ctx); corrID != "" {
		event.WithCorrelationID(corrID)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)

	return nil
}
