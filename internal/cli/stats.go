package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show memory and database statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	e, done := openEngine(cmd)
	defer done()

	stats, err := e.Stats(cmd.Context())
	if err != nil {
		exitErr("stats", err)
	}

	if !textOutput() {
		printJSON(cmd.OutOrStdout(), stats)
		return
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "database:    %s (%s)\n", stats.DBPath, humanize.Bytes(uint64(stats.DBSizeBytes)))
	fmt.Fprintf(w, "preferences: %d\n", stats.Preferences)
	fmt.Fprintf(w, "patterns:    %d\n", stats.Patterns)
	fmt.Fprintf(w, "learnings:   %d\n", stats.Learnings)
	if stats.Degraded {
		fmt.Fprintln(w, "storage:     degraded, running session-only")
	}
	for _, b := range stats.Blobs {
		fmt.Fprintf(w, "blob %-18s v%d %s, saved %s\n", b.Name, b.Version, humanize.Bytes(uint64(b.SizeBytes)), humanize.Time(b.UpdatedAt))
	}
}
