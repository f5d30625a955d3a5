package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/entrhq/notes-agent/pkg/agent"
	"github.com/entrhq/notes-agent/pkg/metrics"
	"github.com/entrhq/notes-agent/pkg/server"
)

func newServeCmd(c *cli) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long:  `Serves /v1/ask, /v1/notes and /v1/notes/query as JSON, plus /healthz and /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.cfg.Server.Addr
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			recorder, err := metrics.NewRecorder(reg)
			if err != nil {
				return err
			}

			registry, err := newRegistry(c.cfg)
			if err != nil {
				return err
			}
			loop, err := newLoop(c.cfg, registry, agent.WithMetrics(recorder))
			if err != nil {
				return err
			}

			handler := server.NewHandler(loop, loop.Registry(),
				server.WithDefaultPath(c.cfg.Notes.Path),
				server.WithGatherer(reg),
			)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.Serve(ctx, addr, handler)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Address to listen on (default from config)")
	return cmd
}
