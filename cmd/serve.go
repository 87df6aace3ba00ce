package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/pathwise/internal/scheduler"
	"github.com/abhisek/pathwise/internal/tracing"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Keep sprint buffers filled on a schedule and expose /metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		logger := e.logger

		if tc := e.cfg.Tracing; tc.Enabled {
			shutdown, err := tracing.Init(tc.ServiceName, tc.CollectorEndpoint)
			if err != nil {
				return fmt.Errorf("init tracing: %w", err)
			}
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(sctx); err != nil {
					logger.Warn("tracing shutdown failed", zap.Error(err))
				}
			}()
		}

		runner := scheduler.New(e.store.ObjectiveRepo(), e.engine.Sequencer, e.cfg.Scheduler.BufferInterval, logger.Named("scheduler"))
		if err := runner.Start(ctx); err != nil {
			return err
		}
		defer runner.Stop()

		mux := http.NewServeMux()
		mux.Handle("/metrics", e.metrics.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			if err := e.store.DB().PingContext(r.Context()); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		})
		srv := &http.Server{
			Addr:              e.cfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("serving metrics", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case <-ctx.Done():
			logger.Info("shutting down")
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("metrics server: %w", err)
			}
		}

		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	},
}
