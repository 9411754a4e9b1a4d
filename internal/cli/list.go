package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
}

func runList(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	docs, err := eng.ingest.List()
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	if listJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(docs)
	}

	if len(docs) == 0 {
		fmt.Println("No documents ingested.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCHUNKS\tLENGTH\tCREATED")
	for _, d := range docs {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n",
			d.Name, d.ChunkCount, d.ContentLength, d.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}
