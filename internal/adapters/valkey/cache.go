package valkey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/valkey-io/valkey-go"
)

// ErrMiss is returned by Get when the key does not exist.
var ErrMiss = errors.New("cache miss")

// Cache implements ports.CacheService using Valkey (Redis-compatible).
// Reads and writes pass through a circuit breaker: after five consecutive
// failures calls fail fast with gobreaker.ErrOpenState for 30s.
type Cache struct {
	client  valkey.Client
	prefix  string
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// New creates a new Valkey cache client. Every key is stored under prefix.
func New(addr, prefix string) (*Cache, error) {
	return newCache(valkey.ClientOption{InitAddress: []string{addr}}, prefix)
}

func newCache(opt valkey.ClientOption, prefix string) (*Cache, error) {
	client, err := valkey.NewClient(opt)
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "valkey",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrMiss)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("cache circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &Cache{client: client, prefix: prefix, breaker: breaker}, nil
}

// Get retrieves a value by key. A missing key returns ErrMiss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		b, err := c.client.Do(ctx, c.client.B().Get().Key(c.prefix+key).Build()).AsBytes()
		if valkey.IsValkeyNil(err) {
			return nil, ErrMiss
		}
		if err != nil {
			return nil, err
		}
		return b, nil
	})
}

// Set stores a value with a TTL in seconds. A non-positive TTL keeps the key
// until it is deleted.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	_, err := c.breaker.Execute(func() ([]byte, error) {
		set := c.client.B().Set().Key(c.prefix + key).Value(valkey.BinaryString(value))
		if ttlSeconds > 0 {
			return nil, c.client.Do(ctx, set.Ex(time.Duration(ttlSeconds)*time.Second).Build()).Error()
		}
		return nil, c.client.Do(ctx, set.Build()).Error()
	})
	return err
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	_, err := c.breaker.Execute(func() ([]byte, error) {
		return nil, c.client.Do(ctx, c.client.B().Del().Key(c.prefix+key).Build()).Error()
	})
	return err
}

// Ping checks connectivity. It bypasses the breaker so readiness reflects
// the server, not the breaker state.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}

// Close releases the client.
func (c *Cache) Close() {
	c.client.Close()
}
