package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/pipeflow/flow"
	"github.com/kbukum/pipeflow/logger"
	"github.com/kbukum/pipeflow/observability"
	"github.com/kbukum/pipeflow/server"
	"github.com/kbukum/pipeflow/util"
	"github.com/kbukum/pipeflow/version"
)

const shutdownTimeout = 15 * time.Second

func newServeCommand(a *app) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calculator over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "override server.port")
	return cmd
}

// serve starts telemetry and the HTTP server, blocks until ctx is done and
// shuts both down.
func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	ver := util.Coalesce(cfg.Version, version.GetShortVersion())

	metrics, shutdownTelemetry, err := observability.Setup(ctx, cfg.Telemetry, cfg.Name, ver, cfg.Environment)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			a.log.Warn("telemetry shutdown", logger.ErrorFields("telemetry.shutdown", err))
		}
	}()

	calc, err := a.calculator(flow.WithMetrics(metrics))
	if err != nil {
		return err
	}
	if h := calc.CheckHealth(ctx); h.Status != observability.HealthStatusUp {
		a.log.Warn("calculator self-check", logger.Fields("status", string(h.Status), "message", h.Message))
	}

	srv := server.New(cfg.Server, a.log)
	srv.ApplyDefaults(cfg.Name, calc, metrics)
	srv.LogRoutes()
	if err := srv.Start(ctx); err != nil {
		return err
	}
	a.log.Info("pipeflow ready", logger.Fields(
		"addr", srv.Addr(),
		"version", ver,
		"environment", cfg.Environment,
		"telemetry", cfg.Telemetry.Enabled,
	))

	<-ctx.Done()

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Stop(sctx)
}
