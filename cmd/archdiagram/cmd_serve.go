package main

import (
	"context"
	"errors"
	"os"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/ankek/archdiagram/internal/bootstrap"
	"github.com/ankek/archdiagram/internal/server"
	"github.com/ankek/archdiagram/internal/telemetry"
)

const shutdownTimeout = 15 * time.Second

func newCmdServe() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the diagram API over HTTP",
		Long: `Serve the diagram API over HTTP.

Endpoints:
  GET  /                  service status and endpoint list
  GET  /healthz           health check
  POST /generate-diagram  render a diagram, returned base64 encoded
  GET  /metrics           Prometheus metrics

The server shuts down gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			logger := newLogger(cmd, cfg)

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			metrics := telemetry.NewMetrics(reg)

			comps, err := bootstrap.Build(cfg, logger, metrics)
			if err != nil {
				return err
			}
			logger.Info().
				Bool("llm_configured", comps.Translator.Configured()).
				Str("engine", comps.Renderer.EngineName()).
				Msg("components ready")

			gin.SetMode(gin.ReleaseMode)
			srv := server.New(cfg.Server.Addr, comps.Pipeline, server.Options{
				Service:     serviceName,
				Version:     version,
				CORSOrigins: cfg.Server.CORSOrigins,
				Gatherer:    reg,
				Logger:      logger.With().Str("component", "server").Logger(),
			})

			var g run.Group
			g.Add(srv.ListenAndServe, func(error) {
				ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("graceful shutdown failed")
				}
			})
			g.Add(run.SignalHandler(cmd.Context(), os.Interrupt, syscall.SIGTERM))

			err = g.Run()
			if errors.Is(err, run.ErrSignal) {
				logger.Info().Str("reason", err.Error()).Msg("server stopped")
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides ARCHDIAGRAM_ADDR")
	return cmd
}
