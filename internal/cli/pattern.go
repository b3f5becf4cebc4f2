package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "pattern [pattern description]",
		Short: "Record or list usage patterns",
		Long:  "With two arguments, record one observation of a usage pattern. Without arguments, list patterns.",
		Args:  noneOrExactly(2),
		Run:   runPattern,
	}

	cmd.Flags().Float64P("confidence", "C", 0.5, "Confidence in [0,1]")

	RootCmd.AddCommand(cmd)
}

func runPattern(cmd *cobra.Command, args []string) {
	confidence, _ := cmd.Flags().GetFloat64("confidence")

	e, done := openEngine(cmd)
	defer done()
	mem := e.Memory()

	if len(args) == 2 {
		if err := mem.AddPattern(args[0], args[1], confidence); err != nil {
			exitErr("pattern", err)
		}
	}

	patterns := mem.Patterns()
	if textOutput() {
		for _, p := range patterns {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%.2f, seen %d times, last %s)\n",
				p.Pattern, p.Description, p.Confidence, p.Occurrences, ago(p.LastObservedMS))
		}
		return
	}
	printJSON(cmd.OutOrStdout(), patterns)
}
