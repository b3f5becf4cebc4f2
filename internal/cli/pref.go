package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "pref [category key value]",
		Short: "Set or list user preferences",
		Long:  "With three arguments, upsert a preference. The stored confidence only ever rises. Without arguments, list preferences.",
		Args:  noneOrExactly(3),
		Run:   runPref,
	}

	cmd.Flags().Float64P("confidence", "C", 0.9, "Confidence in [0,1]")

	RootCmd.AddCommand(cmd)
}

func runPref(cmd *cobra.Command, args []string) {
	confidence, _ := cmd.Flags().GetFloat64("confidence")

	e, done := openEngine(cmd)
	defer done()
	mem := e.Memory()

	if len(args) == 3 {
		if err := mem.AddPreference(args[0], args[1], args[2], confidence); err != nil {
			exitErr("pref", err)
		}
	}

	prefs := mem.Preferences()
	if textOutput() {
		for _, p := range prefs {
			fmt.Fprintf(cmd.OutOrStdout(), "%s/%s: %s (%.2f, updated %s)\n", p.Category, p.Key, p.Value, p.Confidence, ago(p.LastUpdatedMS))
		}
		return
	}
	printJSON(cmd.OutOrStdout(), prefs)
}

// noneOrExactly accepts either no arguments or exactly n.
func noneOrExactly(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != n {
			return fmt.Errorf("accepts 0 or %d arg(s), received %d", n, len(args))
		}
		return nil
	}
}
