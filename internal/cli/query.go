package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	queryText string
	queryTopK int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Retrieve the most relevant documents for a query",
	Long: `Embed the query and rank every stored chunk by cosine similarity.

Examples:
  docqa query -q "contract renewal policy"
  docqa query -q "pricing" -k 10 --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "query text (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	topK := cfg.Retrieve.TopK
	if queryTopK > 0 {
		topK = queryTopK
	}

	results, err := eng.retrieve.Retrieve(queryText, topK)
	if err != nil {
		return fmt.Errorf("retrieve: %w", err)
	}

	if queryJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	for i, r := range results {
		fmt.Printf("%d. %s (score %.4f)\n", i+1, r.ID, r.Score)
		text := r.Text
		if len([]rune(text)) > 200 {
			text = string([]rune(text)[:200]) + "..."
		}
		fmt.Printf("   %s\n\n", text)
	}
	return nil
}
