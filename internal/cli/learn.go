package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "learn [concept insights...]",
		Short: "Record or list assistant learnings",
		Long:  "With arguments, upsert a learning for a concept. Without arguments, list learnings.",
		Run:   runLearn,
	}

	cmd.Flags().Float64P("relevance", "r", 0.5, "Relevance in [0,1]")

	RootCmd.AddCommand(cmd)
}

func runLearn(cmd *cobra.Command, args []string) {
	relevance, _ := cmd.Flags().GetFloat64("relevance")
	if len(args) == 1 {
		exitErr("learn", fmt.Errorf("insights are required after the concept"))
	}

	e, done := openEngine(cmd)
	defer done()
	mem := e.Memory()

	if len(args) >= 2 {
		if err := mem.AddLearning(args[0], strings.Join(args[1:], " "), relevance); err != nil {
			exitErr("learn", err)
		}
	}

	learnings := mem.Learnings()
	if textOutput() {
		for _, l := range learnings {
			applied := "never applied"
			if l.LastAppliedMS != nil {
				applied = "applied " + ago(*l.LastAppliedMS)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%.2f, %s)\n", l.Concept, l.Insights, l.Relevance, applied)
		}
		return
	}
	printJSON(cmd.OutOrStdout(), learnings)
}
