package model

import "time"

// TimeOfDay buckets the wall-clock hour.
type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
	Night     TimeOfDay = "night"
)

// ValidTimesOfDay are the allowed time-of-day buckets.
var ValidTimesOfDay = map[TimeOfDay]bool{
	Morning:   true,
	Afternoon: true,
	Evening:   true,
	Night:     true,
}

// TimeContext is recomputed on demand and never persisted.
type TimeContext struct {
	TimeOfDay TimeOfDay `json:"time_of_day"`
	DayOfWeek int       `json:"day_of_week"`
	IsWeekend bool      `json:"is_weekend"`
	DateISO   string    `json:"date_iso"`
}

// TimeOfDayAt classifies t: 05-11 morning, 12-16 afternoon, 17-20 evening,
// otherwise night.
func TimeOfDayAt(t time.Time) TimeOfDay {
	h := t.Hour()
	switch {
	case h >= 5 && h < 12:
		return Morning
	case h >= 12 && h < 17:
		return Afternoon
	case h >= 17 && h < 21:
		return Evening
	default:
		return Night
	}
}

// NewTimeContext derives the time context for t in t's location.
func NewTimeContext(t time.Time) TimeContext {
	wd := t.Weekday()
	return TimeContext{
		TimeOfDay: TimeOfDayAt(t),
		DayOfWeek: int(wd),
		IsWeekend: wd == time.Saturday || wd == time.Sunday,
		DateISO:   t.Format("2006-01-02"),
	}
}

// Weekday returns the day name for the context.
func (tc TimeContext) Weekday() string {
	return time.Weekday(tc.DayOfWeek).String()
}
