package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/rcliao/desk-memory/internal/clock"
	"github.com/rcliao/desk-memory/internal/ident"
	"github.com/rcliao/desk-memory/internal/model"
)

// Limits caps the bounded collections of the conversation and session tiers.
type Limits struct {
	MaxMessages    int
	MaxActiveApps  int
	MaxRecentTasks int
}

// DefaultLimits returns the standard tier caps.
func DefaultLimits() Limits {
	return Limits{
		MaxMessages:    50,
		MaxActiveApps:  20,
		MaxRecentTasks: 10,
	}
}

// Options configures a Memory.
type Options struct {
	Clock     clock.Clock
	IDs       ident.Generator
	Logger    *slog.Logger
	Limits    Limits
	Persister *Persister // nil keeps everything in memory
}

// Memory owns the conversation, session and persistent tiers. Every operation
// takes effect in memory before returning; persistent-tier mutations also
// queue a durable write of the persistent blob.
type Memory struct {
	mu        sync.Mutex
	clock     clock.Clock
	ids       ident.Generator
	log       *slog.Logger
	limits    Limits
	persister *Persister

	conversation model.ConversationRecord
	session      model.SessionRecord
	apps         *simplelru.LRU[string, *model.AppUsage]
	persistent   []model.PersistentMemoryRecord
}

// Open creates a Memory and, when a persister is configured, restores the
// persistent tier from its backend.
func Open(ctx context.Context, opts Options) (*Memory, error) {
	limits := opts.Limits
	def := DefaultLimits()
	if limits.MaxMessages <= 0 {
		limits.MaxMessages = def.MaxMessages
	}
	if limits.MaxActiveApps <= 0 {
		limits.MaxActiveApps = def.MaxActiveApps
	}
	if limits.MaxRecentTasks <= 0 {
		limits.MaxRecentTasks = def.MaxRecentTasks
	}

	m := &Memory{
		clock:     clock.OrReal(opts.Clock),
		ids:       opts.IDs,
		log:       orDefault(opts.Logger),
		limits:    limits,
		persister: opts.Persister,
	}
	if m.ids == nil {
		m.ids = ident.NewULID(m.clock)
	}

	apps, err := simplelru.NewLRU[string, *model.AppUsage](limits.MaxActiveApps, func(id string, u *model.AppUsage) {
		m.log.Debug("evicted app usage", "app_id", id, "app_name", u.AppName)
	})
	if err != nil {
		return nil, fmt.Errorf("create app cache: %w", err)
	}
	m.apps = apps

	now := m.nowMS()
	m.conversation = m.newConversation(now)
	m.session = model.SessionRecord{
		BaseRecord:  model.BaseRecord{ID: m.ids.NewID(), TimestampMS: now, Kind: model.KindSession},
		TimeContext: model.NewTimeContext(m.clock.Now()),
	}

	if m.persister != nil {
		var env PersistentEnvelope
		if loadEnvelope(ctx, m.persister.Backend(), PersistentBlob, &env, m.log) {
			m.persistent = env.PersistentMemories
		}
	}
	return m, nil
}

func (m *Memory) nowMS() int64 {
	return m.clock.Now().UnixMilli()
}

func (m *Memory) newConversation(now int64) model.ConversationRecord {
	return model.ConversationRecord{
		BaseRecord: model.BaseRecord{ID: m.ids.NewID(), TimestampMS: now, Kind: model.KindConversation},
		Messages:   []model.Message{},
	}
}

// Degraded reports whether durable writes are currently failing.
func (m *Memory) Degraded() bool {
	return m.persister != nil && m.persister.Degraded()
}

// Now returns the memory's clock reading.
func (m *Memory) Now() time.Time {
	return m.clock.Now()
}

// AddMessage appends a message to the conversation tier, evicting the oldest
// messages once the cap is exceeded.
func (m *Memory) AddMessage(role model.Role, content string) (model.Message, error) {
	if !model.ValidRoles[role] {
		return model.Message{}, model.Invalidf("unknown role %q", role)
	}
	if strings.TrimSpace(content) == "" {
		return model.Message{}, model.Invalidf("message content is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.nowMS()
	msg := model.Message{
		ID:          m.ids.NewID(),
		Role:        role,
		Content:     content,
		TimestampMS: now,
	}
	c := &m.conversation
	c.Messages = append(c.Messages, msg)
	if over := len(c.Messages) - m.limits.MaxMessages; over > 0 {
		c.Messages = append([]model.Message(nil), c.Messages[over:]...)
	}
	c.TimestampMS = now
	return msg, nil
}

// ConversationUpdate carries optional conversation context fields. Nil fields
// keep their previous value.
type ConversationUpdate struct {
	Topic     *string
	Sentiment *model.Sentiment
	Keywords  []string
}

// UpdateConversationContext merges the provided fields into the conversation.
func (m *Memory) UpdateConversationContext(u ConversationUpdate) error {
	if u.Sentiment != nil && !model.ValidSentiments[*u.Sentiment] {
		return model.Invalidf("unknown sentiment %q", *u.Sentiment)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := &m.conversation
	if u.Topic != nil {
		c.Topic = *u.Topic
	}
	if u.Sentiment != nil {
		c.Sentiment = *u.Sentiment
	}
	if u.Keywords != nil {
		c.Keywords = append([]string{}, u.Keywords...)
	}
	c.TimestampMS = m.nowMS()
	return nil
}

// ClearConversation replaces the conversation with an empty one under a new ID.
func (m *Memory) ClearConversation() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversation = m.newConversation(m.nowMS())
}

// Conversation returns a copy of the conversation tier.
func (m *Memory) Conversation() model.ConversationRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyConversation(m.conversation)
}

func copyConversation(c model.ConversationRecord) model.ConversationRecord {
	c.Messages = append([]model.Message{}, c.Messages...)
	if c.Keywords != nil {
		c.Keywords = append([]string{}, c.Keywords...)
	}
	return c
}
