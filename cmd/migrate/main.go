package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/astro-otter/otterweb/internal/pkg/config"
	"github.com/astro-otter/otterweb/migrations"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|status>")
	}

	cfg, err := config.Load("otterweb-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	switch os.Args[1] {
	case "up":
		applied, err := migrations.Up(ctx, pool)
		if err != nil {
			log.Fatalf("migrate: %v", err)
		}
		for _, f := range applied {
			fmt.Printf("OK  %s\n", f)
		}
		log.Printf("%d migrations applied", len(applied))
	case "status":
		status(ctx, pool)
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

func status(ctx context.Context, pool *pgxpool.Pool) {
	files, err := migrations.Files()
	if err != nil {
		log.Fatalf("list migrations: %v", err)
	}
	applied, err := migrations.Applied(ctx, pool)
	if err != nil {
		log.Fatalf("applied migrations: %v", err)
	}
	for _, f := range files {
		state := "pending"
		if applied[f] {
			state = "applied"
		}
		fmt.Printf("%-8s %s\n", state, f)
	}
}
