// Package suggest ranks applications to offer the user from their usage history.
package suggest

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/rcliao/desk-memory/internal/clock"
	"github.com/rcliao/desk-memory/internal/model"
	"github.com/rcliao/desk-memory/internal/store"
)

// DefaultMaxEvents is the usage history cap.
const DefaultMaxEvents = 100

// HistoryOptions configures a History.
type HistoryOptions struct {
	Clock     clock.Clock
	Logger    *slog.Logger
	MaxEvents int
	Persister *store.Persister // nil keeps the history in memory only
}

// History is the bounded, persisted log of app invocations.
type History struct {
	mu        sync.Mutex
	clock     clock.Clock
	log       *slog.Logger
	max       int
	persister *store.Persister
	events    []model.UsageEvent
}

// NewHistory creates a History, restoring saved events from the persister's
// backend when one is configured.
func NewHistory(ctx context.Context, opts HistoryOptions) *History {
	h := &History{
		clock:     clock.OrReal(opts.Clock),
		log:       opts.Logger,
		max:       opts.MaxEvents,
		persister: opts.Persister,
	}
	if h.log == nil {
		h.log = slog.Default()
	}
	if h.max <= 0 {
		h.max = DefaultMaxEvents
	}
	if h.persister != nil {
		h.events = trimOldest(store.LoadUsageHistory(ctx, h.persister.Backend(), h.log), h.max)
	}
	return h
}

// AddUsage records one invocation of appType labelled with the current time
// of day and weekday, dropping the oldest event past the cap.
func (h *History) AddUsage(appType string) (model.UsageEvent, error) {
	appType = strings.TrimSpace(appType)
	if appType == "" {
		return model.UsageEvent{}, model.Invalidf("app type is required")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.clock.Now()
	ev := model.UsageEvent{
		AppType:     appType,
		TimestampMS: now.UnixMilli(),
		TimeOfDay:   model.TimeOfDayAt(now),
		DayOfWeek:   int(now.Weekday()),
	}
	h.events = trimOldest(append(h.events, ev), h.max)
	h.persistLocked()
	return ev, nil
}

// Events returns a copy of the history, oldest first.
func (h *History) Events() []model.UsageEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]model.UsageEvent{}, h.events...)
}

// Len returns the number of retained events.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func (h *History) persistLocked() {
	if h.persister == nil {
		return
	}
	blob, err := store.EncodeBlob(store.UsageBlob, store.UsageEnvelope{
		UsageHistory: append([]model.UsageEvent{}, h.events...),
	})
	if err != nil {
		h.log.Warn("encode usage history", "error", err)
		return
	}
	blob.UpdatedAt = h.clock.Now()
	h.persister.Save(blob)
}

func trimOldest(events []model.UsageEvent, limit int) []model.UsageEvent {
	if over := len(events) - limit; over > 0 {
		return append([]model.UsageEvent(nil), events[over:]...)
	}
	return events
}
