package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/astro-otter/otterweb/internal/core/domain"
	"github.com/astro-otter/otterweb/internal/core/usecases"
)

type mockPublisher struct {
	events []*domain.CatalogEvent
	err    error
}

func (m *mockPublisher) PublishCatalogEvent(ctx context.Context, event *domain.CatalogEvent) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func TestIngestService_Ingest(t *testing.T) {
	var stored []domain.TDE
	repo := &mockCatalogRepo{
		upsertBatchFn: func(ctx context.Context, tdes []domain.TDE) error {
			stored = append(stored, tdes...)
			return nil
		},
	}
	pub := &mockPublisher{}
	svc := usecases.NewIngestService(repo, pub)

	res, err := svc.Ingest(context.Background(), []domain.TDE{
		tde("a", "12:00:00", "+10:00:00"),
		tde("", "12:00:00", "+10:00:00"),
		tde("bad", "99:00:00", "0"),
	}, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Upserted != 1 || len(stored) != 1 {
		t.Fatalf("expected 1 upserted, got %d (stored %d)", res.Upserted, len(stored))
	}
	if len(res.Rejected) != 2 {
		t.Fatalf("expected 2 rejected, got %d", len(res.Rejected))
	}
	if res.Rejected[1].Name != "bad" {
		t.Errorf("expected rejection for bad, got %q", res.Rejected[1].Name)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(pub.events))
	}
	ev := pub.events[0]
	if ev.ID != res.BatchID || ev.Count != 1 || ev.Kind != "upserted" || ev.Source != "test" {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestIngestService_Batches(t *testing.T) {
	batches := 0
	repo := &mockCatalogRepo{
		upsertBatchFn: func(ctx context.Context, tdes []domain.TDE) error {
			batches++
			if len(tdes) > 500 {
				t.Errorf("batch too large: %d", len(tdes))
			}
			return nil
		},
	}
	svc := usecases.NewIngestService(repo, nil)

	tdes := make([]domain.TDE, 1201)
	for i := range tdes {
		tdes[i] = tde("x", "1", "1")
	}
	names, err := svc.Upsert(context.Background(), tdes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batches != 3 || len(names) != 1201 {
		t.Errorf("expected 3 batches and 1201 names, got %d and %d", batches, len(names))
	}
}

func TestIngestService_UpsertFailure(t *testing.T) {
	boom := errors.New("db down")
	repo := &mockCatalogRepo{
		upsertBatchFn: func(ctx context.Context, tdes []domain.TDE) error { return boom },
	}
	pub := &mockPublisher{}
	svc := usecases.NewIngestService(repo, pub)

	_, err := svc.Ingest(context.Background(), []domain.TDE{tde("a", "1", "1")}, "test")
	if !errors.Is(err, boom) {
		t.Fatalf("expected db error, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Error("expected no event after failed upsert")
	}
}

func TestIngestService_PublishFailureIsNotFatal(t *testing.T) {
	svc := usecases.NewIngestService(&mockCatalogRepo{}, &mockPublisher{err: errors.New("nats down")})
	res, err := svc.Ingest(context.Background(), []domain.TDE{tde("a", "1", "1")}, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Upserted != 1 {
		t.Errorf("expected 1 upserted, got %d", res.Upserted)
	}
}
