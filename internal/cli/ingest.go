package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"docqa/internal/adapter/fs"
)

var (
	ingestIncludes []string
	ingestExcludes []string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file-or-directory>...",
	Short: "Ingest documents for retrieval",
	Long: `Ingest one or more documents. A directory argument is walked and
every matching file is ingested under its base name.

Examples:
  docqa ingest notes.txt
  docqa ingest ./docs --include '**/*.md'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringSliceVar(&ingestIncludes, "include", []string{"**/*.txt", "**/*.md"}, "glob patterns for directory ingestion")
	ingestCmd.Flags().StringSliceVar(&ingestExcludes, "exclude", nil, "glob patterns to skip during directory ingestion")
}

func runIngest(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return fmt.Errorf("cannot read %s: %w", arg, err)
		}
		if info.IsDir() {
			walker := fs.NewWalker(ingestIncludes, ingestExcludes)
			found, err := walker.Walk(arg)
			if err != nil {
				return fmt.Errorf("walk %s: %w", arg, err)
			}
			paths = append(paths, found...)
		} else {
			paths = append(paths, arg)
		}
	}
	if len(paths) == 0 {
		fmt.Println("No files matched.")
		return nil
	}

	bar := progressbar.Default(int64(len(paths)), "ingesting")
	ingested, failed := 0, 0
	for _, path := range paths {
		bar.Add(1)

		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skip %s: %v\n", path, err)
			failed++
			continue
		}
		res, err := eng.ingest.Ingest(filepath.Base(path), string(data))
		if err != nil {
			fmt.Fprintf(os.Stderr, "skip %s: %v\n", path, err)
			failed++
			continue
		}
		ingested++
		if len(paths) == 1 {
			fmt.Printf("Ingested %s: %d chunks, %d embedded\n", res.Document, res.Chunks, res.Embedded)
		}
	}

	if len(paths) > 1 {
		fmt.Printf("Ingested %d documents (%d failed)\n", ingested, failed)
	}
	return nil
}
