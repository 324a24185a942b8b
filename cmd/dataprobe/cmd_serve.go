package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/forgelab/dataprobe/internal/logging"
	"github.com/forgelab/dataprobe/internal/runtime"
	"github.com/forgelab/dataprobe/internal/server"
	"github.com/forgelab/dataprobe/internal/source"
	"github.com/forgelab/dataprobe/internal/stage"
	"github.com/forgelab/dataprobe/internal/telemetry"
)

var (
	flagAddr  string
	flagTrace bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve probes over HTTP (POST /probe streams NDJSON events)",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", ":8091", "listen address")
	serveCmd.Flags().BoolVar(&flagTrace, "trace", false, "export spans to stderr")
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger := logging.New("server")

	if flagTrace {
		shutdown, err := telemetry.InitTracer("dataprobe", os.Stderr, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Error("tracer shutdown", "error", err.Error())
			}
		}()
	}

	stage.RegisterBuiltins()
	source.RegisterBuiltins()

	runner := runtime.New(runtime.WithLogger(logger))
	srv := server.New(flagAddr, runner, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		logger.Info("shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
