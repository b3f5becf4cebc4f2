package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Print the structured context",
		Long:  "Assemble time, app, user and conversation context from all memory tiers.",
		Run:   runContext,
	}

	cmd.Flags().Bool("resources", false, "Probe battery, load and memory before assembling")

	RootCmd.AddCommand(cmd)
}

func runContext(cmd *cobra.Command, args []string) {
	withResources, _ := cmd.Flags().GetBool("resources")

	e, done := openEngine(cmd)
	defer done()

	if withResources {
		if err := e.RefreshResources(cmd.Context()); err != nil {
			exitErr("probe resources", err)
		}
	}

	printJSON(cmd.OutOrStdout(), e.BuildEnhancedContext())
}
