// Package synth assembles the structured context and prompt text handed to
// the assistant from the current memory tiers.
package synth

import (
	"log/slog"
	"sort"

	"github.com/rcliao/desk-memory/internal/analyzer"
	"github.com/rcliao/desk-memory/internal/model"
	"github.com/rcliao/desk-memory/internal/store"
)

const (
	recentlyUsedLimit     = 5
	contextPatternMinConf = 0.6
)

// AppContext describes the session's applications.
type AppContext struct {
	ActiveApps   map[string]model.AppUsage `json:"active_apps"`
	RecentlyUsed []model.AppUsage          `json:"recently_used"`
}

// UserContext carries long-term knowledge about the user.
type UserContext struct {
	Preferences map[string][]model.UserPreference `json:"preferences"`
	Patterns    []string                          `json:"patterns"`
}

// ConversationContext summarizes the current conversation.
type ConversationContext struct {
	Topic        string          `json:"topic,omitempty"`
	Sentiment    model.Sentiment `json:"sentiment,omitempty"`
	Keywords     []string        `json:"keywords"`
	MessageCount int             `json:"message_count"`
}

// EnhancedContext is the structured view of all tiers at one instant.
type EnhancedContext struct {
	TimeContext         model.TimeContext   `json:"time_context"`
	AppContext          AppContext          `json:"app_context"`
	UserContext         UserContext         `json:"user_context"`
	ConversationContext ConversationContext `json:"conversation_context"`
	SystemResources     *SystemResources    `json:"system_resources,omitempty"`
}

// Synthesizer reads the memory tiers and produces context for the assistant.
type Synthesizer struct {
	mem       *store.Memory
	resources *ResourceMonitor
	log       *slog.Logger
}

// New returns a Synthesizer over mem. resources may be nil.
func New(mem *store.Memory, resources *ResourceMonitor, log *slog.Logger) *Synthesizer {
	if log == nil {
		log = slog.Default()
	}
	return &Synthesizer{mem: mem, resources: resources, log: log}
}

// BuildEnhancedContext assembles the structured context. It does not mutate
// memory; the analyzer is rerun over the live conversation and the resource
// snapshot is whatever the last probe produced.
func (s *Synthesizer) BuildEnhancedContext() EnhancedContext {
	sess := s.mem.Session()
	conv := s.mem.Conversation()

	out := EnhancedContext{
		TimeContext: model.NewTimeContext(s.mem.Now()),
		AppContext: AppContext{
			ActiveApps:   sess.ActiveApps,
			RecentlyUsed: recentlyUsed(sess.ActiveApps, recentlyUsedLimit),
		},
		UserContext:         s.userContext(),
		ConversationContext: conversationContext(conv),
	}
	if s.resources != nil {
		out.SystemResources = s.resources.Snapshot()
		s.resources.Trigger()
	}
	return out
}

// IngestChatMessage is the per-turn entry point: it appends the message,
// reanalyzes the whole conversation, stores the derived context and upserts
// every preference candidate.
func (s *Synthesizer) IngestChatMessage(role model.Role, content string) (analyzer.Insights, error) {
	if _, err := s.mem.AddMessage(role, content); err != nil {
		return analyzer.Insights{}, err
	}

	insights := analyzer.Analyze(s.mem.Conversation().Messages)
	update := store.ConversationUpdate{Keywords: insights.Keywords}
	if insights.Topic != "" {
		update.Topic = &insights.Topic
	}
	if insights.Sentiment != "" {
		update.Sentiment = &insights.Sentiment
	}
	if err := s.mem.UpdateConversationContext(update); err != nil {
		return insights, err
	}

	for _, p := range insights.PossiblePreferences {
		if err := s.mem.AddPreference(p.Category, p.Key, p.Value, p.Confidence); err != nil {
			s.log.Warn("skipping preference candidate", "category", p.Category, "key", p.Key, "error", err)
		}
	}
	return insights, nil
}

func (s *Synthesizer) userContext() UserContext {
	uc := UserContext{
		Preferences: map[string][]model.UserPreference{},
		Patterns:    []string{},
	}
	for _, p := range s.mem.Preferences() {
		uc.Preferences[p.Category] = append(uc.Preferences[p.Category], p)
	}
	for _, p := range s.mem.Patterns() {
		if p.Confidence > contextPatternMinConf {
			uc.Patterns = append(uc.Patterns, p.Description)
		}
	}
	return uc
}

// conversationContext prefers a fresh analysis and falls back to what was
// last stored on the conversation.
func conversationContext(conv model.ConversationRecord) ConversationContext {
	insights := analyzer.Analyze(conv.Messages)
	cc := ConversationContext{
		Topic:        insights.Topic,
		Sentiment:    insights.Sentiment,
		Keywords:     insights.Keywords,
		MessageCount: len(conv.Messages),
	}
	if cc.Topic == "" {
		cc.Topic = conv.Topic
	}
	if cc.Sentiment == "" {
		cc.Sentiment = conv.Sentiment
	}
	if len(cc.Keywords) == 0 && len(conv.Keywords) > 0 {
		cc.Keywords = conv.Keywords
	}
	return cc
}

// recentlyUsed orders apps by their latest open or close time, newest first.
func recentlyUsed(apps map[string]model.AppUsage, n int) []model.AppUsage {
	out := make([]model.AppUsage, 0, len(apps))
	for _, a := range apps {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := out[i].LastActiveMS(), out[j].LastActiveMS()
		if ai != aj {
			return ai > aj
		}
		return out[i].AppID < out[j].AppID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
