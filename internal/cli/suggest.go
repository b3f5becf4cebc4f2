package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rcliao/desk-memory/internal/model"
	"github.com/rcliao/desk-memory/internal/suggest"
)

func init() {
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Rank apps to suggest right now",
		Long:  "Rank app types by frequency, time-of-day and weekday match, and recency. With --most-used, rank by raw frequency only.",
		Run:   runSuggest,
	}

	cmd.Flags().Bool("most-used", false, "Top five by raw frequency")
	cmd.Flags().String("time-of-day", "", "With --most-used, count only morning, afternoon, evening or night")

	RootCmd.AddCommand(cmd)
}

func runSuggest(cmd *cobra.Command, args []string) {
	mostUsed, _ := cmd.Flags().GetBool("most-used")
	tod, _ := cmd.Flags().GetString("time-of-day")
	if tod != "" && !model.ValidTimesOfDay[model.TimeOfDay(tod)] {
		exitErr("suggest", fmt.Errorf("unknown time of day %q", tod))
	}

	e, done := openEngine(cmd)
	defer done()

	var out []suggest.Suggestion
	if mostUsed {
		out = e.MostUsed(model.TimeOfDay(tod))
	} else {
		out = e.Suggest()
	}

	if textOutput() {
		printSuggestions(cmd.OutOrStdout(), out)
		return
	}
	printJSON(cmd.OutOrStdout(), out)
}

func printSuggestions(w io.Writer, out []suggest.Suggestion) {
	if len(out) == 0 {
		fmt.Fprintln(w, "no usage history yet")
		return
	}
	for i, s := range out {
		fmt.Fprintf(w, "%d. %-16s score %.2f (%d uses)\n", i+1, s.AppType, s.Score, s.Count)
	}
}
