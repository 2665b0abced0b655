package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ckcelina/my-wishlist-sub002/internal/domain"
	pkgkafka "github.com/ckcelina/my-wishlist-sub002/pkg/kafka"
	"github.com/ckcelina/my-wishlist-sub002/pkg/logger"
)

// EventItemsImported is the type of the event published after an import.
const EventItemsImported = "wishlist.items_imported"

// Aggregate type constant.
const AggregateTypeImport = "wishlist_import"

// Source identifier for events originating from this service.
const SourceWishlistService = "wishlist-service"

// ItemsImportedData is the payload of a wishlist.items_imported event.
type ItemsImportedData struct {
	ImportID     string                       `json:"import_id"`
	UserID       string                       `json:"user_id"`
	Mode         domain.ImportMode            `json:"mode"`
	CreatedCount int                          `json:"created_count"`
	FailedCount  int                          `json:"failed_count"`
	Wishlists    []domain.DestinationWishlist `json:"wishlists"`
}

// Publisher publishes import events.
type Publisher interface {
	PublishItemsImported(ctx context.Context, data ItemsImportedData) error
}

// Producer publishes import events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	topic  string
	logger *slog.Logger
}

// NewProducer creates a new event producer writing to topic.
func NewProducer(kafka *pkgkafka.Producer, topic string, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		topic:  topic,
		logger: logger,
	}
}

// PublishItemsImported publishes a wishlist.items_imported event.
func (p *Producer) PublishItemsImported(ctx context.Context, data ItemsImportedData) error {
	event, err := pkgkafka.NewEvent(EventItemsImported, data.ImportID, AggregateTypeImport, SourceWishlistService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", EventItemsImported, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}
	event.WithMetadata("mode", string(data.Mode))

	if err := p.kafka.Publish(ctx, p.topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", EventItemsImported, err)
	}

	p.logger.DebugContext(ctx, "published wishlist.items_imported event",
		slog.String("import_id", data.ImportID),
		slog.Int("created_count", data.CreatedCount),
	)

	return nil
}

// NopPublisher drops events. It is used when Kafka is disabled.
type NopPublisher struct{}

// PublishItemsImported does nothing.
func (NopPublisher) PublishItemsImported(context.Context, ItemsImportedData) error { return nil }
