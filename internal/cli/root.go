package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"docqa/config"
)

var (
	cfgFile string
	dataDir string
	debug   bool
	cfg     *config.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Document QA - ingest documents and answer similarity queries",
	Long: `docqa ingests free-text documents, splits them into overlapping
windows, embeds each window, and answers similarity queries over the
stored vectors.

Example usage:
  docqa ingest notes.txt            # Ingest a single document
  docqa ingest ./docs               # Ingest every matching file in a directory
  docqa query -q "renewal policy"   # Retrieve the most relevant documents
  docqa serve                       # Run the HTTP QA service`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			wd, werr := os.Getwd()
			if werr != nil {
				return fmt.Errorf("failed to get working directory: %w", werr)
			}
			cfg, err = config.LoadFromDir(wd)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if dataDir != "" {
			cfg.Storage.DataDir = dataDir
		}
		if debug {
			cfg.Logging.Debug = true
		}

		if cfg.Logging.Debug {
			logger, err = zap.NewDevelopment()
		} else {
			logger, err = zap.NewProduction()
		}
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Sync()
		}
	},
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./docqa.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default from config)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}
