package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print the prompt enhancement",
		Long:  "Print the natural-language context for the assistant. With --system, merge it into that system prompt.",
		Run:   runPrompt,
	}

	cmd.Flags().StringP("system", "s", "", "System prompt to enhance")

	RootCmd.AddCommand(cmd)
}

func runPrompt(cmd *cobra.Command, args []string) {
	system, _ := cmd.Flags().GetString("system")

	e, done := openEngine(cmd)
	defer done()

	text := e.EnhancePrompt(system)
	if textOutput() {
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return
	}
	printJSON(cmd.OutOrStdout(), map[string]string{"prompt": text})
}
