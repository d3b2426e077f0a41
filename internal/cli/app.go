// Package cli implements the pofeed command tree.
package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nrfta/feed-paging/controller"
	"github.com/nrfta/feed-paging/internal/config"
	"github.com/nrfta/feed-paging/internal/logger"
	"github.com/nrfta/feed-paging/internal/telemetry"
	"github.com/nrfta/feed-paging/orders"
	"github.com/nrfta/feed-paging/query"
	"github.com/nrfta/feed-paging/remote"
)

// app holds what every subcommand shares once flags are parsed.
type app struct {
	loader *config.Loader
	cfg    *config.Config
	logger *zap.Logger
	client *orders.Client

	closers []func(context.Context) error
}

func (a *app) init(cmd *cobra.Command) error {
	configFile, _ := cmd.Flags().GetString("config")
	a.loader = config.NewLoader(configFile)
	if err := a.loader.BindFlags(cmd.Flags()); err != nil {
		return err
	}

	cfg, err := a.loader.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	logCfg := cfg.Logger()
	logCfg.Output = cmd.ErrOrStderr()
	a.logger = logger.New(logCfg)
	a.closers = append(a.closers, func(context.Context) error {
		_ = a.logger.Sync()
		return nil
	})

	shutdown, err := telemetry.Setup(cmd.Context(), telemetry.Config{
		ServiceName: cfg.Tracing.ServiceName,
		Endpoint:    cfg.Tracing.Endpoint,
	})
	if err != nil {
		return err
	}
	a.closers = append(a.closers, shutdown)

	if cfg.Metrics.Addr != "" {
		a.serveMetrics(cfg.Metrics.Addr)
	}

	a.client = orders.NewClient(cfg.API.BaseURL,
		orders.WithHTTPClient(remote.NewHTTPClient(cfg.API.Timeout)),
		orders.WithLogger(a.logger),
	)
	return nil
}

func (a *app) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server stopped", zap.String("addr", addr), zap.Error(err))
		}
	}()
	a.logger.Info("serving metrics", zap.String("addr", addr))

	a.closers = append(a.closers, srv.Shutdown)
}

// close runs the closers in reverse order.
func (a *app) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil && a.logger != nil {
			a.logger.Warn("shutdown", zap.Error(err))
		}
	}
	a.closers = nil
}

func (a *app) newController(spec query.FilterSpec) *controller.Controller[orders.Order] {
	return controller.New(a.client.Feed(), orders.OrderID,
		controller.WithLogger(a.logger),
		controller.WithConfig(a.cfg.Paging()),
		controller.WithFilter(spec),
		controller.WithTimeout(a.cfg.API.Timeout),
	)
}
