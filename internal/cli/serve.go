package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"docqa/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP QA service",
	Long: `Run the HTTP service exposing ingestion, deletion, listing,
similarity search, and question answering.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	srv := server.New(eng.ingest, eng.retrieve, eng.answerer, cfg.Retrieve.TopK, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(cfg.Server.Host, cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(ctx)
}
