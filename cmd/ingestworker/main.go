package main

import (
	"context"
	"flag"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/astro-otter/otterweb/internal/adapters/nats"
	"github.com/astro-otter/otterweb/internal/adapters/postgres"
	"github.com/astro-otter/otterweb/internal/core/ports"
	"github.com/astro-otter/otterweb/internal/core/usecases"
	"github.com/astro-otter/otterweb/internal/pkg/config"
	"github.com/astro-otter/otterweb/internal/pkg/logging"
	"github.com/astro-otter/otterweb/internal/workflows"
)

func main() {
	start := flag.Bool("start", false, "start an ingest workflow for the given paths instead of running a worker")
	source := flag.String("source", "temporal", "source label attached to the catalog event")
	flag.Parse()

	cfg, err := config.Load("otterweb-ingestworker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup("otterweb-ingestworker", cfg.Log.Level, cfg.Log.Format)

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	if *start {
		startIngest(c, cfg.Temporal.TaskQueue, workflows.IngestInput{Paths: flag.Args(), Source: *source})
		return
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var events ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, no catalog events will be sent", "error", err)
	} else {
		defer pub.Close()
		events = pub
	}

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.IngestWorkflow)
	w.RegisterActivity(&workflows.IngestActivities{
		Ingest: usecases.NewIngestService(postgres.NewTDERepo(db), events),
	})

	slog.Info("ingest worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

func startIngest(c client.Client, taskQueue string, input workflows.IngestInput) {
	if len(input.Paths) == 0 {
		log.Fatal("usage: ingestworker -start [-source name] <file.json|dir>...")
	}
	ctx := context.Background()
	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{TaskQueue: taskQueue}, workflows.IngestWorkflow, input)
	if err != nil {
		log.Fatalf("start workflow: %v", err)
	}
	slog.Info("ingest workflow started", "workflow_id", run.GetID(), "run_id", run.GetRunID())

	var out workflows.IngestOutput
	if err := run.Get(ctx, &out); err != nil {
		log.Fatalf("workflow: %v", err)
	}
	slog.Info("ingest workflow finished", "batch", out.BatchID, "files", out.Files,
		"upserted", out.Upserted, "rejected", len(out.Rejected))
}
