package natsadapter

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"

	"github.com/astro-otter/otterweb/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	durable string
	subs    []*nats.Subscription
}

// NewSubscriber connects to NATS. Instances sharing durable share one
// consumer, so each event is handled once per group.
func NewSubscriber(url, durable string) (*Subscriber, error) {
	conn, err := connect(url, "otterweb-subscriber")
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js, durable: durable}, nil
}

// SubscribeCatalogEvents delivers catalog.updated events to handler. Messages
// are acked on success and redelivered up to three times on error.
func (s *Subscriber) SubscribeCatalogEvents(ctx context.Context, handler func(ctx context.Context, event *domain.CatalogEvent) error) error {
	sub, err := s.js.Subscribe(SubjectUpdated, func(msg *nats.Msg) {
		var event domain.CatalogEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			// Malformed events will never decode; drop them.
			_ = msg.Term()
			return
		}
		if err := handler(ctx, &event); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable(s.durable),
		nats.ManualAck(),
		nats.MaxDeliver(3),
		nats.DeliverNew(),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
