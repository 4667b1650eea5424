package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"sync"

	"github.com/astro-otter/otterweb/internal/adapters/memory"
	natsadapter "github.com/astro-otter/otterweb/internal/adapters/nats"
	"github.com/astro-otter/otterweb/internal/adapters/postgres"
	"github.com/astro-otter/otterweb/internal/core/domain"
	"github.com/astro-otter/otterweb/internal/core/ports"
	"github.com/astro-otter/otterweb/internal/core/usecases"
	"github.com/astro-otter/otterweb/internal/pkg/config"
	"github.com/astro-otter/otterweb/internal/pkg/logging"
)

func main() {
	source := flag.String("source", "cli", "source label attached to the catalog event")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: ingest [-source name] <file.json|dir>...")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load("otterweb-ingest")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup("otterweb-ingest", cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	files, err := memory.CollectFiles(flag.Args()...)
	if err != nil {
		log.Fatalf("collect files: %v", err)
	}
	slog.Info("reading OTTER files", "files", len(files))

	records := readAll(files)
	if len(records) == 0 {
		log.Fatal("no records read")
	}

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var events ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, no catalog event will be sent", "error", err)
	} else {
		defer pub.Close()
		events = pub
	}

	svc := usecases.NewIngestService(postgres.NewTDERepo(db), events)
	res, err := svc.Ingest(ctx, records, *source)
	if err != nil {
		log.Fatalf("ingest: %v", err)
	}
	fmt.Printf("batch %s: %d upserted, %d rejected\n", res.BatchID, res.Upserted, len(res.Rejected))
}

// readAll decodes files with at most four reads in flight. Unreadable files
// are logged and skipped.
func readAll(files []string) []domain.TDE {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		records []domain.TDE
	)
	sem := make(chan struct{}, 4)

	for _, f := range files {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			tdes, err := memory.ReadFile(path)
			if err != nil {
				slog.Error("read failed", "file", path, "error", err)
				return
			}
			mu.Lock()
			records = append(records, tdes...)
			mu.Unlock()
		}(f)
	}

	wg.Wait()
	return records
}
