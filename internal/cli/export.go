package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export long-term memory as JSON",
		Long:  "Export preferences, usage patterns and learnings. Conversation and session memory are never exported.",
		Run:   runExport,
	}

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	e, done := openEngine(cmd)
	defer done()

	printJSON(cmd.OutOrStdout(), e.Memory().ExportPersistent())
}
