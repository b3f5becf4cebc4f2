package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/desk-memory/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search long-term memory by keyword",
		Long:  "Search preferences, usage patterns and learnings for matching text.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().String("kind", "", "Filter by kind: preference, pattern, learning")
	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	kind, _ := cmd.Flags().GetString("kind")
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	e, done := openEngine(cmd)
	defer done()

	results := e.Memory().Search(store.SearchParams{
		Query: query,
		Kind:  kind,
		Limit: limit,
	})

	if textOutput() {
		for _, r := range results {
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s: %s (%.2f, %s)\n", r.Kind, r.Key, r.Text, r.Score, ago(r.UpdatedMS))
		}
		return
	}
	if len(results) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "[]")
		return
	}
	printJSON(cmd.OutOrStdout(), results)
}
