package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/bimflow/bimviewer/internal/server"
	"github.com/bimflow/bimviewer/internal/tracer"
)

func serveCmd() *cobra.Command {
	var addr string
	var requestLog bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve viewer sessions over HTTP and websockets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, requestLog)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	cmd.Flags().BoolVar(&requestLog, "access-log", false, "Log every HTTP request")
	return cmd
}

func runServe(addr string, requestLog bool) error {
	ctx, stop := signalContext()
	defer stop()

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()
	if addr != "" {
		a.cfg.Server.Addr = addr
	}

	shutdownTracer := tracer.Init(ctx, a.cfg.Tracing, version, a.log)
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	pub := a.publisher()
	defer pub.Close()

	srv := server.New(server.Options{
		Config:     a.cfg,
		Catalogue:  a.catalogue,
		Builder:    a.builder,
		Publisher:  pub,
		Logger:     a.log,
		RequestLog: requestLog,
	})
	return srv.Run(ctx)
}
