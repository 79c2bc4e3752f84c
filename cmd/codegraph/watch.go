package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newWatchCmd(opts *globalOptions) *cobra.Command {
	var metricsAddr string
	var statsEvery time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the workspace and keep caches current until interrupted",
		Long: `Watch the workspace for source changes. Changes are collected for the configured
debounce window and then applied in one batch. With --metrics-addr the Prometheus
metrics (cache hits, flushes, query latency, ...) are served on /metrics.

Examples:
  codegraph watch -v
  codegraph watch --metrics-addr :9464`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := s.engine.StartWatching(ctx); err != nil {
				return err
			}
			s.logger.Info("Watching workspace", "root", s.engine.Root())

			if metricsAddr != "" {
				srv := serveMetrics(s, metricsAddr)
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
			}

			var tick <-chan time.Time
			if statsEvery > 0 {
				ticker := time.NewTicker(statsEvery)
				defer ticker.Stop()
				tick = ticker.C
			}
			for {
				select {
				case <-ctx.Done():
					s.logger.Info("Stopping watcher")
					return s.emit(cmd, "stats", s.engine.Root(), s.engine.Stats())
				case <-tick:
					st := s.engine.Stats()
					s.logger.Info("Engine stats",
						"files", st.Files,
						"cachedSources", st.Source.Entries,
						"cacheHits", st.Source.Hits,
						"cacheMisses", st.Source.Misses,
						"pending", st.PendingInvalidations,
					)
				}
			}
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	cmd.Flags().DurationVar(&statsEvery, "stats-interval", 0, "Log engine stats at this interval (0 = never)")
	return cmd
}

func serveMetrics(s *session, addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		s.logger.Info("Serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Metrics server failed", "error", err)
		}
	}()
	return srv
}
