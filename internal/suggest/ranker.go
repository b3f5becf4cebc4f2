package suggest

import (
	"sort"
	"time"

	"github.com/rcliao/desk-memory/internal/clock"
	"github.com/rcliao/desk-memory/internal/model"
)

const (
	timeOfDayWeight = 2.0
	dayOfWeekWeight = 1.0
	recencyWindow   = 168 * time.Hour
	mostUsedLimit   = 5
)

// Suggestion is one ranked app type.
type Suggestion struct {
	AppType string  `json:"app_type"`
	Score   float64 `json:"score"`
	Count   int     `json:"count"`
}

// Ranker scores app types against the current time of day and weekday.
type Ranker struct {
	clock clock.Clock
}

// NewRanker returns a Ranker reading the current time from c.
func NewRanker(c clock.Clock) *Ranker {
	return &Ranker{clock: clock.OrReal(c)}
}

// Score ranks every app type seen in events. Each event adds 1, plus 2 when
// its time of day matches now, plus 1 when its weekday matches now, plus a
// recency bonus decaying linearly to zero over one week. Ties are broken by
// app type ascending.
func (r *Ranker) Score(events []model.UsageEvent) []Suggestion {
	now := r.clock.Now()
	tod := model.TimeOfDayAt(now)
	dow := int(now.Weekday())

	byApp := map[string]*Suggestion{}
	for _, ev := range events {
		s, ok := byApp[ev.AppType]
		if !ok {
			s = &Suggestion{AppType: ev.AppType}
			byApp[ev.AppType] = s
		}
		s.Count++
		s.Score++
		if ev.TimeOfDay == tod {
			s.Score += timeOfDayWeight
		}
		if ev.DayOfWeek == dow {
			s.Score += dayOfWeekWeight
		}
		s.Score += recencyBonus(now, ev.TimestampMS)
	}
	return sortByScore(byApp)
}

// Rank returns only the app types of Score, best first.
func (r *Ranker) Rank(events []model.UsageEvent) []string {
	scored := r.Score(events)
	out := make([]string, len(scored))
	for i, s := range scored {
		out[i] = s.AppType
	}
	return out
}

// MostUsed returns the five most frequent app types. A non-empty tod limits
// counting to events from that time of day.
func MostUsed(events []model.UsageEvent, tod model.TimeOfDay) []Suggestion {
	byApp := map[string]*Suggestion{}
	for _, ev := range events {
		if tod != "" && ev.TimeOfDay != tod {
			continue
		}
		s, ok := byApp[ev.AppType]
		if !ok {
			s = &Suggestion{AppType: ev.AppType}
			byApp[ev.AppType] = s
		}
		s.Count++
		s.Score = float64(s.Count)
	}
	out := sortByScore(byApp)
	if len(out) > mostUsedLimit {
		out = out[:mostUsedLimit]
	}
	return out
}

// recencyBonus is 1 for an event happening now and 0 for one a week or more
// old. Events stamped in the future count as now.
func recencyBonus(now time.Time, tsMS int64) float64 {
	age := now.Sub(time.UnixMilli(tsMS))
	if age < 0 {
		age = 0
	}
	return max(0, 1-age.Hours()/recencyWindow.Hours())
}

func sortByScore(byApp map[string]*Suggestion) []Suggestion {
	out := make([]Suggestion, 0, len(byApp))
	for _, s := range byApp {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].AppType < out[j].AppType
	})
	return out
}
