// Package engine wires the memory tiers, analyzer, synthesizer and suggestion
// ranker into the single instance a process uses.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rcliao/desk-memory/internal/analyzer"
	"github.com/rcliao/desk-memory/internal/clock"
	"github.com/rcliao/desk-memory/internal/config"
	"github.com/rcliao/desk-memory/internal/ident"
	"github.com/rcliao/desk-memory/internal/model"
	"github.com/rcliao/desk-memory/internal/schedule"
	"github.com/rcliao/desk-memory/internal/store"
	"github.com/rcliao/desk-memory/internal/suggest"
	"github.com/rcliao/desk-memory/internal/synth"
)

type options struct {
	clock    clock.Clock
	backend  store.Backend
	probe    synth.Probe
	probeSet bool
	ids      ident.Generator
}

// Option customizes New.
type Option func(*options)

// WithClock replaces the wall clock.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithBackend uses b instead of opening the configured SQLite database.
func WithBackend(b store.Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithProbe replaces the host resource probe. nil disables resource reporting.
func WithProbe(p synth.Probe) Option {
	return func(o *options) {
		o.probe = p
		o.probeSet = true
	}
}

// WithIDs replaces the configured identifier scheme.
func WithIDs(g ident.Generator) Option {
	return func(o *options) { o.ids = g }
}

// Engine is the assistant-facing surface of desk-memory.
type Engine struct {
	cfg *config.Config
	log *slog.Logger

	backend     store.Backend
	dbPath      string
	sessionOnly bool
	persister   *store.Persister

	mem       *store.Memory
	history   *suggest.History
	ranker    *suggest.Ranker
	synth     *synth.Synthesizer
	resources *synth.ResourceMonitor
	scheduler *schedule.Scheduler

	closeOnce sync.Once
	cancel    context.CancelFunc
}

// New opens storage and restores the persistent tier and usage history. When
// the database cannot be opened the engine runs session-only on an in-memory
// backend.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = slog.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	clk := clock.OrReal(o.clock)

	ids := o.ids
	if ids == nil {
		var err error
		ids, err = ident.ForScheme(cfg.IDScheme, clk)
		if err != nil {
			return nil, err
		}
	}

	e := &Engine{cfg: cfg, log: log, backend: o.backend}
	if e.backend == nil {
		s, err := store.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			log.Warn("durable storage unavailable, running session-only", "db", cfg.DBPath, "error", err)
			e.backend = store.NewMemoryBackend()
			e.sessionOnly = true
		} else {
			e.backend = s
			e.dbPath = s.Path()
		}
	}
	e.persister = store.NewPersister(e.backend, log)

	mem, err := store.Open(ctx, store.Options{
		Clock:  clk,
		IDs:    ids,
		Logger: log,
		Limits: store.Limits{
			MaxMessages:    cfg.Limits.MaxMessages,
			MaxActiveApps:  cfg.Limits.MaxActiveApps,
			MaxRecentTasks: cfg.Limits.MaxRecentTasks,
		},
		Persister: e.persister,
	})
	if err != nil {
		e.persister.Close()
		e.backend.Close()
		return nil, fmt.Errorf("open memory: %w", err)
	}
	e.mem = mem

	e.history = suggest.NewHistory(ctx, suggest.HistoryOptions{
		Clock:     clk,
		Logger:    log,
		MaxEvents: cfg.Limits.MaxUsageEvents,
		Persister: e.persister,
	})
	e.ranker = suggest.NewRanker(clk)

	probe := o.probe
	if !o.probeSet {
		probe = synth.NewSysfsProbe()
	}
	e.resources = synth.NewResourceMonitor(probe, clk, log)
	e.synth = synth.New(mem, e.resources, log)

	e.scheduler, err = schedule.New(cfg.RefreshSchedule, clk, log)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.scheduler.Add("time-context", func(context.Context) error {
		mem.UpdateTimeContext()
		return nil
	})
	e.scheduler.Add("resources", e.resources.Refresh)
	return e, nil
}

// Start launches the periodic refresh loop. Close stops it.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	e.scheduler.Start(ctx)
}

// Memory exposes the tier store.
func (e *Engine) Memory() *store.Memory { return e.mem }

// History exposes the usage history.
func (e *Engine) History() *suggest.History { return e.history }

// SessionOnly reports whether durable storage is unavailable, either because
// the database could not be opened or because writes are failing.
func (e *Engine) SessionOnly() bool {
	return e.sessionOnly || e.persister.Degraded()
}

// IngestChatMessage records one chat turn and refreshes the derived context.
func (e *Engine) IngestChatMessage(role model.Role, content string) (analyzer.Insights, error) {
	return e.synth.IngestChatMessage(role, content)
}

// BuildPromptEnhancement renders the current context as prompt text.
func (e *Engine) BuildPromptEnhancement() string {
	return e.synth.BuildPromptEnhancement()
}

// EnhancePrompt merges the current context into a system prompt.
func (e *Engine) EnhancePrompt(systemPrompt string) string {
	return e.synth.EnhancePrompt(systemPrompt)
}

// BuildEnhancedContext returns the structured context.
func (e *Engine) BuildEnhancedContext() synth.EnhancedContext {
	return e.synth.BuildEnhancedContext()
}

// RefreshResources probes host resources now instead of waiting for the
// next scheduled refresh.
func (e *Engine) RefreshResources(ctx context.Context) error {
	return e.resources.Refresh(ctx)
}

// AddUsage logs an app invocation and, once it forms a habit, records the
// matching usage pattern.
func (e *Engine) AddUsage(appType string) (model.UsageEvent, error) {
	ev, err := e.history.AddUsage(appType)
	if err != nil {
		return ev, err
	}
	if p, ok := suggest.DerivePattern(e.history.Events(), ev); ok {
		if err := e.mem.AddPattern(p.Pattern, p.Description, p.Confidence); err != nil {
			return ev, fmt.Errorf("record usage pattern: %w", err)
		}
	}
	return ev, nil
}

// Suggest ranks app types for the current moment.
func (e *Engine) Suggest() []suggest.Suggestion {
	return e.ranker.Score(e.history.Events())
}

// MostUsed returns the five most frequent app types, optionally restricted to
// one time of day.
func (e *Engine) MostUsed(tod model.TimeOfDay) []suggest.Suggestion {
	return suggest.MostUsed(e.history.Events(), tod)
}

// Stats reports tier counts and storage details.
func (e *Engine) Stats(ctx context.Context) (*store.Stats, error) {
	st, err := e.mem.Stats(ctx, e.dbPath)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	st.Degraded = st.Degraded || e.sessionOnly
	return st, nil
}

// Flush waits for queued durable writes.
func (e *Engine) Flush() {
	e.persister.Flush()
}

// Close stops the refresh loop, drains pending writes and closes storage.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		if e.cancel != nil {
			e.cancel()
			e.scheduler.Wait()
		}
		e.persister.Close()
		err = e.backend.Close()
	})
	return err
}
