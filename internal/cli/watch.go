package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"docqa/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch <directory>",
	Short: "Auto-ingest documents dropped into a directory",
	Long: `Watch a directory and ingest files as they are created or
modified. Removed files are deleted from the index. Runs until
interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot watch %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", dir)
	}

	eng, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	onIngest := func(path string) {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("cannot read file", zap.String("path", path), zap.Error(err))
			return
		}
		if _, err := eng.ingest.Ingest(filepath.Base(path), string(data)); err != nil {
			logger.Warn("auto-ingest failed", zap.String("path", path), zap.Error(err))
		}
	}
	onRemove := func(name string) {
		if _, err := eng.ingest.Delete(name); err != nil {
			logger.Warn("auto-delete failed", zap.String("document", name), zap.Error(err))
		}
	}

	w := watcher.New(dir, cfg.Watch.Extensions,
		time.Duration(cfg.Watch.DebounceMS)*time.Millisecond,
		onIngest, onRemove, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
