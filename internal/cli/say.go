package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/desk-memory/internal/analyzer"
	"github.com/rcliao/desk-memory/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "say [message]",
		Short: "Ingest one chat message",
		Long:  "Ingest one chat message and print what the analyzer derived. Content can be a positional arg or piped via stdin. Detected preferences are kept.",
		Run:   runSay,
	}

	cmd.Flags().StringP("role", "r", "user", "Role: user, assistant, system")

	RootCmd.AddCommand(cmd)
}

func runSay(cmd *cobra.Command, args []string) {
	role, _ := cmd.Flags().GetString("role")

	var content string
	if len(args) > 0 {
		content = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			content = string(b)
		}
	}
	if strings.TrimSpace(content) == "" {
		exitErr("say", fmt.Errorf("message is required (positional arg or stdin)"))
	}

	e, done := openEngine(cmd)
	defer done()

	insights, err := e.IngestChatMessage(model.Role(role), strings.TrimSpace(content))
	if err != nil {
		exitErr("say", err)
	}

	if textOutput() {
		printInsights(cmd.OutOrStdout(), insights)
		return
	}
	printJSON(cmd.OutOrStdout(), insights)
}

func printInsights(w io.Writer, in analyzer.Insights) {
	if in.Topic != "" {
		fmt.Fprintf(w, "topic:     %s\n", in.Topic)
	}
	if in.Sentiment != "" {
		fmt.Fprintf(w, "sentiment: %s\n", in.Sentiment)
	}
	if len(in.Keywords) > 0 {
		fmt.Fprintf(w, "keywords:  %s\n", strings.Join(in.Keywords, ", "))
	}
	for _, p := range in.PossiblePreferences {
		fmt.Fprintf(w, "learned:   %s/%s = %s (%.2f)\n", p.Category, p.Key, p.Value, p.Confidence)
	}
}
