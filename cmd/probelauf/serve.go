package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/rhuss/probelauf/pkg/chat"
	"github.com/rhuss/probelauf/pkg/config"
	"github.com/rhuss/probelauf/pkg/storage"
	"github.com/rhuss/probelauf/pkg/verify"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var interval time.Duration
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run scenarios periodically and expose Prometheus metrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if interval > 0 {
				cfg.Serve.Interval = interval
			}
			if listen != "" {
				cfg.Serve.Listen = listen
			}

			check, err := cfg.Check.Resolve()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			store, err := newStore(ctx, cfg.Storage)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}

			client, err := chat.NewFromCheck(check)
			if err != nil {
				return err
			}
			defer client.Close()

			runner := verify.NewRunner(client, check, nil)

			mux := http.NewServeMux()
			mux.Handle(cfg.Serve.MetricsPath, promhttp.Handler())
			mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
				if store != nil {
					if err := store.HealthCheck(r.Context()); err != nil {
						http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
						return
					}
				}
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok\n"))
			})
			if store != nil {
				mux.HandleFunc("GET /runs", func(w http.ResponseWriter, r *http.Request) {
					runs, err := store.ListRuns(r.Context(), 20)
					if err != nil {
						http.Error(w, err.Error(), http.StatusInternalServerError)
						return
					}
					w.Header().Set("Content-Type", "application/json")
					json.NewEncoder(w).Encode(runs)
				})
			}

			srv := &http.Server{Addr: cfg.Serve.Listen, Handler: mux}

			errCh := make(chan error, 1)
			go func() {
				slog.Info("serve starting",
					"listen", cfg.Serve.Listen,
					"interval", cfg.Serve.Interval,
					"endpoint", check.Endpoint,
					"model", check.Model,
				)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			go runLoop(ctx, runner, store, check, cfg.Serve.Interval)

			select {
			case <-ctx.Done():
				slog.Info("shutting down gracefully")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			case err := <-errCh:
				return err
			}
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "time between verification runs (overrides config)")
	cmd.Flags().StringVar(&listen, "listen", "", "metrics listen address (overrides config)")
	return cmd
}

// runLoop executes a verification run immediately and then on every tick
// until the context is cancelled. Outcomes are recorded in the store when
// one is configured.
func runLoop(ctx context.Context, runner *verify.Runner, store storage.RunStore, check *config.Check, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		started := time.Now()
		outcomes := runner.Run(ctx)

		if store != nil {
			run := storage.NewRun(check.Endpoint, check.Model, started, outcomes)
			if err := store.SaveRun(ctx, run); err != nil {
				slog.Error("saving run", "error", err, "run_id", run.ID)
			} else {
				slog.Debug("run recorded", "run_id", run.ID, "passed", run.Passed)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
