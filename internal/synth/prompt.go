package synth

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rcliao/desk-memory/internal/model"
)

const (
	promptMinConf     = 0.7
	promptMaxPatterns = 3
)

// BuildPromptEnhancement renders the current context as plain sentences in a
// fixed order: time, active apps, topic, sentiment, preferences, patterns.
// Sections without content are left out.
func (s *Synthesizer) BuildPromptEnhancement() string {
	now := s.mem.Now()
	tc := model.NewTimeContext(now)
	sess := s.mem.Session()
	cc := conversationContext(s.mem.Conversation())

	var sentences []string
	sentences = append(sentences, timeSentence(tc))

	if names := activeAppNames(sess.ActiveApps); len(names) > 0 {
		sentences = append(sentences, fmt.Sprintf("Active apps: %s.", strings.Join(names, ", ")))
	}
	if cc.Topic != "" {
		sentences = append(sentences, fmt.Sprintf("The conversation is about %s.", cc.Topic))
	}
	if cc.Sentiment != "" && cc.Sentiment != model.SentimentNeutral {
		sentences = append(sentences, fmt.Sprintf("The user seems %s.", cc.Sentiment))
	}
	if prefs := confidentPreferences(s.mem.Preferences()); len(prefs) > 0 {
		sentences = append(sentences, fmt.Sprintf("User preferences: %s.", strings.Join(prefs, ", ")))
	}
	if pats := confidentPatterns(s.mem.Patterns()); len(pats) > 0 {
		sentences = append(sentences, fmt.Sprintf("Observed patterns: %s.", strings.Join(pats, ", ")))
	}
	return strings.Join(sentences, " ")
}

// EnhancePrompt merges the enhancement into a system prompt for the outbound
// chat request.
func (s *Synthesizer) EnhancePrompt(systemPrompt string) string {
	enh := s.BuildPromptEnhancement()
	systemPrompt = strings.TrimSpace(systemPrompt)
	if systemPrompt == "" {
		return enh
	}
	return systemPrompt + "\n\n" + enh
}

func timeSentence(tc model.TimeContext) string {
	if tc.IsWeekend {
		return fmt.Sprintf("It is %s %s (%s), a weekend.", tc.Weekday(), tc.TimeOfDay, tc.DateISO)
	}
	return fmt.Sprintf("It is %s %s (%s).", tc.Weekday(), tc.TimeOfDay, tc.DateISO)
}

func activeAppNames(apps map[string]model.AppUsage) []string {
	ordered := recentlyUsed(apps, len(apps))
	names := make([]string, 0, len(ordered))
	for _, a := range ordered {
		names = append(names, a.AppName)
	}
	return names
}

func confidentPreferences(prefs []model.UserPreference) []string {
	sort.SliceStable(prefs, func(i, j int) bool {
		if prefs[i].Category != prefs[j].Category {
			return prefs[i].Category < prefs[j].Category
		}
		return prefs[i].Key < prefs[j].Key
	})
	var out []string
	for _, p := range prefs {
		if p.Confidence > promptMinConf {
			out = append(out, fmt.Sprintf("%s/%s: %s", p.Category, p.Key, p.Value))
		}
	}
	return out
}

// confidentPatterns picks the three most confident patterns above the bar.
func confidentPatterns(patterns []model.UsagePattern) []string {
	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].Confidence > patterns[j].Confidence
	})
	var out []string
	for _, p := range patterns {
		if p.Confidence <= promptMinConf {
			break
		}
		out = append(out, p.Description)
		if len(out) == promptMaxPatterns {
			break
		}
	}
	return out
}
