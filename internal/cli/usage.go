package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "usage [app-type]",
		Short: "Log an app invocation or list usage history",
		Long:  "With an argument, log one invocation labelled with the current time of day and weekday. Repeated use at the same time of day becomes a usage pattern. Without arguments, list the history.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runUsage,
	}

	RootCmd.AddCommand(cmd)
}

func runUsage(cmd *cobra.Command, args []string) {
	e, done := openEngine(cmd)
	defer done()

	if len(args) == 1 {
		ev, err := e.AddUsage(args[0])
		if err != nil {
			exitErr("usage", err)
		}
		if textOutput() {
			fmt.Fprintf(cmd.OutOrStdout(), "logged %s (%s)\n", ev.AppType, ev.TimeOfDay)
			return
		}
		printJSON(cmd.OutOrStdout(), ev)
		return
	}

	events := e.History().Events()
	if textOutput() {
		for _, ev := range events {
			fmt.Fprintf(cmd.OutOrStdout(), "%-16s %-9s %s\n", ev.AppType, ev.TimeOfDay, ago(ev.TimestampMS))
		}
		return
	}
	printJSON(cmd.OutOrStdout(), events)
}
