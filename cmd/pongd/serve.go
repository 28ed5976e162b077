package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jremy42/42-ft-transcendence/internal/config"
	"github.com/jremy42/42-ft-transcendence/internal/server"
)

var (
	flagAddr    string
	flagVerbose bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the match server",
	Long: `Run the WebSocket gateway and the match simulation pool.

Configuration is read from --config (or ./pongd.yaml), then overlaid with
PONGD_ADDR / PONGD_DB environment variables (a .env file is honored), then
with command-line flags.

Clients connect with:
  ws://host:port/ws?userId=<id>&username=<name>`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (overrides config)")
	serveCmd.Flags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")
}

func runServe(_ *cobra.Command, _ []string) error {
	// Best effort; absence of a .env file is the normal case.
	_ = godotenv.Load()

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	cfg.ApplyEnv()
	if flagAddr != "" {
		cfg.Server.Addr = flagAddr
	}
	if flagDBPath != "" {
		cfg.Server.DBPath = flagDBPath
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "pongd",
	})
	if flagVerbose {
		logger.SetLevel(log.DebugLevel)
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
