package suggest

import (
	"fmt"

	"github.com/rcliao/desk-memory/internal/model"
)

const (
	patternMinEvents     = 3
	patternBase          = 0.4
	patternStep          = 0.1
	patternMaxConfidence = 0.95
)

// DerivePattern checks whether latest confirms a habit: at least three events
// for the same app in the same time of day. events must already contain latest.
func DerivePattern(events []model.UsageEvent, latest model.UsageEvent) (model.UsagePattern, bool) {
	count := 0
	for _, ev := range events {
		if ev.AppType == latest.AppType && ev.TimeOfDay == latest.TimeOfDay {
			count++
		}
	}
	if count < patternMinEvents {
		return model.UsagePattern{}, false
	}
	return model.UsagePattern{
		Pattern:        fmt.Sprintf("app:%s:%s", latest.AppType, latest.TimeOfDay),
		Description:    fmt.Sprintf("Often opens %s in the %s", latest.AppType, latest.TimeOfDay),
		Confidence:     min(patternMaxConfidence, patternBase+patternStep*float64(count)),
		Occurrences:    count,
		LastObservedMS: latest.TimestampMS,
	}, true
}
