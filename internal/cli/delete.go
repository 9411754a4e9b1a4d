package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <document>...",
	Short: "Delete ingested documents",
	Long: `Delete a document's raw text, vectors, and index entry. Each
removal is best-effort; the command reports which artifacts were
actually removed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	for _, name := range args {
		res, err := eng.ingest.Delete(name)
		if err != nil {
			return fmt.Errorf("delete %s: %w", name, err)
		}
		fmt.Printf("Deleted %s: text=%v vectors=%d index=%v\n",
			res.Document, res.BlobRemoved, res.VectorsRemoved, res.IndexRemoved)
	}
	return nil
}
