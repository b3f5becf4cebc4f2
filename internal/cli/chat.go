package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/rcliao/desk-memory/internal/engine"
	"github.com/rcliao/desk-memory/internal/model"
)

const chatHelp = `Lines are ingested as user messages. Commands:
  /assistant <text>          ingest an assistant reply
  /open <app-id> [name]      track an app opening
  /focus|/interact|/close <app-id>
  /task <status> <text>      record a task (completed, in-progress, abandoned)
  /use <app-type>            log an app invocation for suggestions
  /suggest                   rank apps for right now
  /prompt                    show the prompt enhancement
  /context                   show the enhanced context
  /clear                     start a new conversation
  /help                      show this help
  exit, quit                 leave`

func init() {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive session",
		Long:  "Run an interactive session. Conversation and session memory live until the session ends; long-term memory is saved as it changes.",
		Run:   runChat,
	}

	RootCmd.AddCommand(cmd)
}

func runChat(cmd *cobra.Command, args []string) {
	e, done := openEngine(cmd)
	defer done()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	e.Start(ctx)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "you> ",
		HistoryFile:     filepath.Join(os.TempDir(), ".desk_memory_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		exitErr("init readline", err)
	}
	defer rl.Close()

	out := rl.Stdout()
	if e.SessionOnly() {
		fmt.Fprintln(out, "warning: durable storage unavailable, nothing will be saved")
	}
	fmt.Fprintln(out, "desk-memory chat (/help for commands, Ctrl+C to exit)")

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				return
			}
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}

		input := strings.TrimSpace(line)
		switch {
		case input == "":
			continue
		case input == "exit" || input == "quit":
			return
		case strings.HasPrefix(input, "/"):
			if err := chatCommand(out, e, input); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		default:
			insights, err := e.IngestChatMessage(model.RoleUser, input)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			printInsights(out, insights)
		}
	}
}

func chatCommand(w io.Writer, e *engine.Engine, input string) error {
	fields := strings.Fields(input)
	name, rest := fields[0], fields[1:]
	mem := e.Memory()

	switch name {
	case "/help":
		fmt.Fprintln(w, chatHelp)
	case "/assistant":
		if len(rest) == 0 {
			return errors.New("usage: /assistant <text>")
		}
		_, err := e.IngestChatMessage(model.RoleAssistant, strings.Join(rest, " "))
		return err
	case "/open", "/focus", "/interact", "/close":
		if len(rest) == 0 {
			return fmt.Errorf("usage: %s <app-id>", name)
		}
		appName := ""
		if len(rest) > 1 {
			appName = strings.Join(rest[1:], " ")
		}
		return mem.TrackAppUsage(rest[0], appName, model.AppAction(strings.TrimPrefix(name, "/")))
	case "/task":
		if len(rest) < 2 {
			return errors.New("usage: /task <status> <text>")
		}
		task, err := mem.RecordTask(strings.Join(rest[1:], " "), model.TaskStatus(rest[0]))
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "task %s recorded\n", task.ID)
	case "/use":
		if len(rest) == 0 {
			return errors.New("usage: /use <app-type>")
		}
		ev, err := e.AddUsage(rest[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "logged %s (%s)\n", ev.AppType, ev.TimeOfDay)
	case "/suggest":
		printSuggestions(w, e.Suggest())
	case "/prompt":
		fmt.Fprintln(w, e.BuildPromptEnhancement())
	case "/context":
		printJSON(w, e.BuildEnhancedContext())
	case "/clear":
		mem.ClearConversation()
		fmt.Fprintln(w, "conversation cleared")
	default:
		return fmt.Errorf("unknown command %s (try /help)", name)
	}
	return nil
}
