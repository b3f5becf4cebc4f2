// Package model defines the core memory data types.
package model

import (
	"errors"
	"fmt"
)

// ErrInvalid is wrapped by every validation failure at the write boundary.
var ErrInvalid = errors.New("invalid input")

// Invalidf returns an error wrapping ErrInvalid.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Kind identifies a memory tier.
type Kind string

const (
	KindConversation Kind = "conversation"
	KindSession      Kind = "session"
	KindPersistent   Kind = "persistent"
)

// ValidKinds are the allowed memory tiers.
var ValidKinds = map[Kind]bool{
	KindConversation: true,
	KindSession:      true,
	KindPersistent:   true,
}

// Record is implemented by every tier record.
type Record interface {
	RecordID() string
	Timestamp() int64
	RecordKind() Kind
}

// BaseRecord holds the fields shared by all tiers. TimestampMS is the time of
// the last mutation, not creation.
type BaseRecord struct {
	ID          string `json:"id"`
	TimestampMS int64  `json:"timestamp_ms"`
	Kind        Kind   `json:"kind"`
}

func (b BaseRecord) RecordID() string { return b.ID }
func (b BaseRecord) Timestamp() int64 { return b.TimestampMS }
func (b BaseRecord) RecordKind() Kind { return b.Kind }

// Role is the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ValidRoles are the allowed message roles.
var ValidRoles = map[Role]bool{
	RoleSystem:    true,
	RoleUser:      true,
	RoleAssistant: true,
}

// Sentiment is the coarse tone of a conversation. The empty value means unknown.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// ValidSentiments are the allowed sentiment values.
var ValidSentiments = map[Sentiment]bool{
	SentimentPositive: true,
	SentimentNeutral:  true,
	SentimentNegative: true,
}

// Message is one conversation turn.
type Message struct {
	ID          string `json:"id"`
	Role        Role   `json:"role"`
	Content     string `json:"content"`
	TimestampMS int64  `json:"timestamp_ms"`
}

// ConversationRecord is the short-term tier. It is never persisted.
type ConversationRecord struct {
	BaseRecord
	Messages  []Message `json:"messages"`
	Topic     string    `json:"topic,omitempty"`
	Sentiment Sentiment `json:"sentiment,omitempty"`
	Keywords  []string  `json:"keywords,omitempty"`
}

// AppAction is a usage-tracking event kind.
type AppAction string

const (
	ActionOpen     AppAction = "open"
	ActionFocus    AppAction = "focus"
	ActionInteract AppAction = "interact"
	ActionClose    AppAction = "close"
)

// ValidActions are the allowed app actions.
var ValidActions = map[AppAction]bool{
	ActionOpen:     true,
	ActionFocus:    true,
	ActionInteract: true,
	ActionClose:    true,
}

// AppUsage tracks one application within the session.
type AppUsage struct {
	AppID            string `json:"app_id"`
	AppName          string `json:"app_name"`
	TimeOpenedMS     int64  `json:"time_opened_ms"`
	TimeClosedMS     *int64 `json:"time_closed_ms,omitempty"`
	LastFocusMS      int64  `json:"last_focus_ms"`
	InteractionCount int    `json:"interaction_count"`
}

// LastActiveMS is the most recent of open and close times.
func (a AppUsage) LastActiveMS() int64 {
	if a.TimeClosedMS != nil && *a.TimeClosedMS > a.TimeOpenedMS {
		return *a.TimeClosedMS
	}
	return a.TimeOpenedMS
}

// TaskStatus is the state of a recorded task.
type TaskStatus string

const (
	TaskCompleted  TaskStatus = "completed"
	TaskInProgress TaskStatus = "in-progress"
	TaskAbandoned  TaskStatus = "abandoned"
)

// ValidTaskStatuses are the allowed task states.
var ValidTaskStatuses = map[TaskStatus]bool{
	TaskCompleted:  true,
	TaskInProgress: true,
	TaskAbandoned:  true,
}

// TaskRecord is one entry of the session's recent tasks.
type TaskRecord struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	StartMS     int64      `json:"start_ms"`
	EndMS       *int64     `json:"end_ms,omitempty"`
	RelatedApps []string   `json:"related_apps,omitempty"`
}

// SessionRecord is the medium-term tier. It is never persisted.
type SessionRecord struct {
	BaseRecord
	ActiveApps  map[string]AppUsage `json:"active_apps"`
	RecentTasks []TaskRecord        `json:"recent_tasks"`
	TimeContext TimeContext         `json:"time_context"`
}

// UserPreference is unique by (Category, Key).
type UserPreference struct {
	Category      string  `json:"category"`
	Key           string  `json:"key"`
	Value         string  `json:"value"`
	Confidence    float64 `json:"confidence"`
	LastUpdatedMS int64   `json:"last_updated_ms"`
}

// UsagePattern is unique by Pattern.
type UsagePattern struct {
	Pattern        string  `json:"pattern"`
	Description    string  `json:"description"`
	Confidence     float64 `json:"confidence"`
	Occurrences    int     `json:"occurrences"`
	LastObservedMS int64   `json:"last_observed_ms"`
}

// AILearning is unique by Concept.
type AILearning struct {
	Concept       string  `json:"concept"`
	Insights      string  `json:"insights"`
	Relevance     float64 `json:"relevance"`
	LastAppliedMS *int64  `json:"last_applied_ms,omitempty"`
}

// PersistentMemoryRecord is the long-term tier, the only one written to
// durable storage.
type PersistentMemoryRecord struct {
	BaseRecord
	Preferences      []UserPreference `json:"preferences"`
	FrequentPatterns []UsagePattern   `json:"frequent_patterns"`
	Learnings        []AILearning     `json:"learnings"`
}

// UsageEvent is one invocation of an application, input to suggestion ranking.
type UsageEvent struct {
	AppType     string    `json:"app_type"`
	TimestampMS int64     `json:"timestamp_ms"`
	TimeOfDay   TimeOfDay `json:"time_of_day"`
	DayOfWeek   int       `json:"day_of_week"`
}

// ValidUnit reports whether v lies in [0,1].
func ValidUnit(v float64) bool {
	return v >= 0 && v <= 1
}
