package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flowbind/internal/catalog"
	"github.com/felixgeelhaar/flowbind/internal/health"
	"github.com/felixgeelhaar/flowbind/internal/server"
	"github.com/felixgeelhaar/flowbind/internal/similarity"
	"github.com/felixgeelhaar/flowbind/internal/version"
)

func newServeCommand(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the mapping API over HTTP",
		Long: `Serve the mapping API over HTTP.

Endpoints:
  POST /api/mapping/map              process + openapi -> mapping result
  POST /api/mapping/recommendations  process + openapi -> unmatched tasks
  POST /api/catalog                  openapi -> endpoint list
  GET  /health/live                  liveness probe
  GET  /health/ready                 readiness probe (503 while draining)

SIGINT or SIGTERM drains in-flight requests for at most
server.shutdown_timeout before exiting.`,
		Example: `  flowbind serve
  flowbind serve --addr :9090
  FLOWBIND_SERVER_ADDR=:9090 flowbind serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			return a.runServe(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func (a *app) runServe(ctx context.Context) error {
	sc := a.cfg.Server

	cache, err := catalog.NewCache(catalog.NewLoader(a.logger), sc.CacheSize)
	if err != nil {
		return fmt.Errorf("creating document cache: %w", err)
	}

	probes := health.NewProbes(version.GetInfo().Version)
	probes.AddChecker(health.NewCacheChecker(cache))
	probes.AddChecker(health.NewScorerChecker(similarity.NewScorer().Similarity))

	srv := server.New(a.service(), cache, probes, a.logger, server.Config{
		Address:         sc.Addr,
		ShutdownTimeout: sc.ShutdownTimeout,
		MaxBodyBytes:    sc.MaxBodyBytes,
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	select {
	case err := <-serverErr:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutdown signal received, draining connections")
	if err := srv.Shutdown(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	a.logger.Info("server stopped")
	return nil
}
