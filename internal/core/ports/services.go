package ports

import (
	"context"

	"github.com/astro-otter/otterweb/internal/core/domain"
)

// EventPublisher publishes catalog events to a message broker.
type EventPublisher interface {
	PublishCatalogEvent(ctx context.Context, event *domain.CatalogEvent) error
}

// EventSubscriber subscribes to catalog events from a message broker.
type EventSubscriber interface {
	SubscribeCatalogEvents(ctx context.Context, handler func(ctx context.Context, event *domain.CatalogEvent) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
