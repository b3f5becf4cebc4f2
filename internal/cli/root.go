// Package cli implements the desk-memory CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rcliao/desk-memory/internal/config"
	"github.com/rcliao/desk-memory/internal/engine"
	"github.com/rcliao/desk-memory/internal/logger"
)

var (
	dbPath     string
	configPath string
	formatFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "desk-memory",
	Short: "Hierarchical memory for a desktop assistant",
	Long:  "Conversation, session and long-term memory with prompt synthesis and app suggestions. SQLite-backed, single binary.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $DESK_MEMORY_DB or ~/.desk-memory/memory.db)")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ~/.desk-memory/config.yaml)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	return cfg, nil
}

// openEngine builds the engine for one command. The returned func must be
// deferred; it drains pending writes.
func openEngine(cmd *cobra.Command) (*engine.Engine, func()) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	log, logCloser, err := logger.New(cfg.Logging)
	if err != nil {
		exitErr("init logger", err)
	}
	e, err := engine.New(cmd.Context(), cfg, log)
	if err != nil {
		logCloser.Close()
		exitErr("open engine", err)
	}
	return e, func() {
		if err := e.Close(); err != nil {
			log.Warn("close engine", "error", err)
		}
		logCloser.Close()
	}
}

func textOutput() bool {
	return formatFlag == "text"
}

func printJSON(w io.Writer, v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(b))
}

func ago(ms int64) string {
	if ms == 0 {
		return "never"
	}
	return humanize.Time(time.UnixMilli(ms))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
