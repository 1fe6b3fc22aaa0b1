package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rhuss/probelauf/pkg/config"
	"github.com/rhuss/probelauf/pkg/storage"
	"github.com/rhuss/probelauf/pkg/storage/memory"
	"github.com/rhuss/probelauf/pkg/storage/postgres"
)

// newStore builds the run-history store from configuration. A nil store
// means history is disabled.
func newStore(ctx context.Context, cfg config.StorageConfig) (storage.RunStore, error) {
	switch cfg.Type {
	case "memory":
		slog.Info("storage enabled", "type", "memory", "max_size", cfg.MaxSize)
		return memory.New(cfg.MaxSize), nil

	case "postgres":
		store, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Postgres.DSN,
			MaxConns:       cfg.Postgres.MaxConns,
			MigrateOnStart: cfg.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, fmt.Errorf("creating postgres store: %w", err)
		}
		slog.Info("storage enabled", "type", "postgres", "max_conns", cfg.Postgres.MaxConns)
		return store, nil

	case "none", "":
		slog.Info("storage disabled")
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
