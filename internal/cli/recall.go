package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/desk-memory/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "recall",
		Short: "Retrieve memory records",
		Long:  "Retrieve tier records, newest first. Only the long-term tier outlives a single command.",
		Run:   runRecall,
	}

	cmd.Flags().String("kind", "", "Filter by tier: conversation, session, persistent")
	cmd.Flags().IntP("limit", "l", 0, "Max results (0 = all)")
	cmd.Flags().Duration("since", 0, "Only records changed within this duration (e.g. 24h)")

	RootCmd.AddCommand(cmd)
}

func runRecall(cmd *cobra.Command, args []string) {
	kind, _ := cmd.Flags().GetString("kind")
	limit, _ := cmd.Flags().GetInt("limit")
	since, _ := cmd.Flags().GetDuration("since")

	e, done := openEngine(cmd)
	defer done()

	p := store.RetrieveParams{Kind: kind, Limit: limit}
	if since > 0 {
		p.FromMS = e.Memory().Now().Add(-since).UnixMilli()
	}
	records := e.Memory().RetrieveMemory(p)

	if textOutput() {
		for _, r := range records {
			fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s  %s\n", r.RecordKind(), r.RecordID(), ago(r.Timestamp()))
		}
		return
	}
	printJSON(cmd.OutOrStdout(), records)
}
