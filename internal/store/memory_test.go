package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/desk-memory/internal/model"
)

func TestAddMessageFIFOCap(t *testing.T) {
	m, clk := newTestMemory(t)

	for i := 0; i < 73; i++ {
		clk.Advance(time.Second)
		_, err := m.AddMessage(model.RoleUser, fmt.Sprintf("message %d", i))
		require.NoError(t, err)
		assert.LessOrEqual(t, len(m.Conversation().Messages), 50)
	}

	msgs := m.Conversation().Messages
	require.Len(t, msgs, 50)
	assert.Equal(t, "message 23", msgs[0].Content)
	assert.Equal(t, "message 72", msgs[49].Content)
	for i := 1; i < len(msgs); i++ {
		assert.Less(t, msgs[i-1].TimestampMS, msgs[i].TimestampMS, "eviction must not reorder messages")
	}
}

func TestAddMessageValidation(t *testing.T) {
	m, _ := newTestMemory(t)

	_, err := m.AddMessage("robot", "hi")
	assert.ErrorIs(t, err, model.ErrInvalid)

	_, err = m.AddMessage(model.RoleUser, "   ")
	assert.ErrorIs(t, err, model.ErrInvalid)

	assert.Empty(t, m.Conversation().Messages)
}

func TestAddMessageAssignsIDAndTimestamp(t *testing.T) {
	m, _ := newTestMemory(t)
	msg, err := m.AddMessage(model.RoleAssistant, "hello")
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, baseTime.UnixMilli(), msg.TimestampMS)
	assert.Equal(t, baseTime.UnixMilli(), m.Conversation().TimestampMS)
}

func TestUpdateConversationContextMerges(t *testing.T) {
	m, _ := newTestMemory(t)

	topic := "Weather"
	positive := model.SentimentPositive
	require.NoError(t, m.UpdateConversationContext(ConversationUpdate{
		Topic:     &topic,
		Sentiment: &positive,
		Keywords:  []string{"weather", "paris"},
	}))

	negative := model.SentimentNegative
	require.NoError(t, m.UpdateConversationContext(ConversationUpdate{Sentiment: &negative}))

	c := m.Conversation()
	assert.Equal(t, "Weather", c.Topic)
	assert.Equal(t, model.SentimentNegative, c.Sentiment)
	assert.Equal(t, []string{"weather", "paris"}, c.Keywords)

	bogus := model.Sentiment("ecstatic")
	assert.ErrorIs(t, m.UpdateConversationContext(ConversationUpdate{Sentiment: &bogus}), model.ErrInvalid)
}

func TestClearConversationNewIdentity(t *testing.T) {
	m, _ := newTestMemory(t)
	before := m.Conversation().ID
	_, err := m.AddMessage(model.RoleUser, "hi there")
	require.NoError(t, err)

	m.ClearConversation()

	c := m.Conversation()
	assert.NotEqual(t, before, c.ID)
	assert.Empty(t, c.Messages)
	assert.Empty(t, c.Topic)
}

func TestConversationReturnsCopy(t *testing.T) {
	m, _ := newTestMemory(t)
	_, err := m.AddMessage(model.RoleUser, "original")
	require.NoError(t, err)

	c := m.Conversation()
	c.Messages[0].Content = "mutated"
	assert.Equal(t, "original", m.Conversation().Messages[0].Content)
}

func TestTrackAppUsageCapEvictsEarliest(t *testing.T) {
	m, clk := newTestMemory(t)

	for i := 0; i < 25; i++ {
		clk.Advance(time.Second)
		require.NoError(t, m.TrackAppUsage(fmt.Sprintf("app-%02d", i), "", model.ActionOpen))
	}

	apps := m.Session().ActiveApps
	require.Len(t, apps, 20)
	for i := 0; i < 5; i++ {
		assert.NotContains(t, apps, fmt.Sprintf("app-%02d", i))
	}
	for i := 5; i < 25; i++ {
		assert.Contains(t, apps, fmt.Sprintf("app-%02d", i))
	}
}

func TestTrackAppUsageTouchProtectsFromEviction(t *testing.T) {
	m, _ := newTestMemory(t)
	for i := 0; i < 20; i++ {
		require.NoError(t, m.TrackAppUsage(fmt.Sprintf("app-%02d", i), "", model.ActionOpen))
	}
	require.NoError(t, m.TrackAppUsage("app-00", "", model.ActionFocus))
	require.NoError(t, m.TrackAppUsage("app-new", "New", model.ActionOpen))

	apps := m.Session().ActiveApps
	assert.Len(t, apps, 20)
	assert.Contains(t, apps, "app-00")
	assert.NotContains(t, apps, "app-01")
}

func TestTrackAppUsageActions(t *testing.T) {
	m, clk := newTestMemory(t)

	require.NoError(t, m.TrackAppUsage("notes", "Notes", model.ActionOpen))
	clk.Advance(time.Minute)
	require.NoError(t, m.TrackAppUsage("notes", "", model.ActionFocus))
	require.NoError(t, m.TrackAppUsage("notes", "", model.ActionInteract))
	require.NoError(t, m.TrackAppUsage("notes", "", model.ActionInteract))
	clk.Advance(time.Minute)
	require.NoError(t, m.TrackAppUsage("notes", "", model.ActionClose))

	u := m.Session().ActiveApps["notes"]
	assert.Equal(t, "Notes", u.AppName)
	assert.Equal(t, baseTime.UnixMilli(), u.TimeOpenedMS)
	assert.Equal(t, baseTime.Add(time.Minute).UnixMilli(), u.LastFocusMS)
	assert.Equal(t, 2, u.InteractionCount)
	require.NotNil(t, u.TimeClosedMS)
	assert.Equal(t, baseTime.Add(2*time.Minute).UnixMilli(), *u.TimeClosedMS)
	assert.Equal(t, *u.TimeClosedMS, u.LastActiveMS())
}

func TestTrackAppUsageCloseUnknownIsNoop(t *testing.T) {
	m, _ := newTestMemory(t)
	require.NoError(t, m.TrackAppUsage("ghost", "Ghost", model.ActionClose))
	assert.Empty(t, m.Session().ActiveApps)

	require.NoError(t, m.TrackAppUsage("calc", "Calculator", model.ActionInteract))
	assert.Equal(t, 1, m.Session().ActiveApps["calc"].InteractionCount)

	assert.ErrorIs(t, m.TrackAppUsage("", "x", model.ActionOpen), model.ErrInvalid)
	assert.ErrorIs(t, m.TrackAppUsage("calc", "x", "minimize"), model.ErrInvalid)
}

func TestRecordTask(t *testing.T) {
	m, _ := newTestMemory(t)

	done, err := m.RecordTask("write report", model.TaskCompleted, "notes")
	require.NoError(t, err)
	require.NotNil(t, done.EndMS)
	assert.Equal(t, []string{"notes"}, done.RelatedApps)

	open, err := m.RecordTask("plan trip", model.TaskInProgress)
	require.NoError(t, err)
	assert.Nil(t, open.EndMS)

	for i := 0; i < 12; i++ {
		_, err := m.RecordTask(fmt.Sprintf("task %d", i), model.TaskAbandoned)
		require.NoError(t, err)
	}
	tasks := m.Session().RecentTasks
	require.Len(t, tasks, 10)
	assert.Equal(t, "task 2", tasks[0].Description)
	assert.Equal(t, "task 11", tasks[9].Description)

	_, err = m.RecordTask("", model.TaskCompleted)
	assert.ErrorIs(t, err, model.ErrInvalid)
	_, err = m.RecordTask("x", "paused")
	assert.ErrorIs(t, err, model.ErrInvalid)
}

func TestUpdateTimeContext(t *testing.T) {
	m, clk := newTestMemory(t)
	assert.Equal(t, model.Morning, m.Session().TimeContext.TimeOfDay)

	clk.Set(time.Date(2026, 3, 7, 22, 15, 0, 0, time.UTC)) // Saturday night
	tc := m.UpdateTimeContext()
	assert.Equal(t, model.Night, tc.TimeOfDay)
	assert.Equal(t, 6, tc.DayOfWeek)
	assert.True(t, tc.IsWeekend)
	assert.Equal(t, "2026-03-07", tc.DateISO)
	assert.Equal(t, tc, m.Session().TimeContext)
}

func TestAddPreferenceMergesByMaxConfidence(t *testing.T) {
	m, _ := newTestMemory(t)

	require.NoError(t, m.AddPreference("appearance", "theme", "dark", 0.5))
	require.NoError(t, m.AddPreference("appearance", "theme", "dark", 0.9))

	prefs := m.Preferences()
	require.Len(t, prefs, 1)
	assert.Equal(t, 0.9, prefs[0].Confidence)

	require.NoError(t, m.AddPreference("appearance", "theme", "light", 0.3))
	prefs = m.Preferences()
	require.Len(t, prefs, 1)
	assert.Equal(t, "light", prefs[0].Value)
	assert.Equal(t, 0.9, prefs[0].Confidence)
}

func TestPersistentValidation(t *testing.T) {
	m, _ := newTestMemory(t)

	assert.ErrorIs(t, m.AddPreference("appearance", "theme", "dark", 1.5), model.ErrInvalid)
	assert.ErrorIs(t, m.AddPreference("", "theme", "dark", 0.5), model.ErrInvalid)
	assert.ErrorIs(t, m.AddPattern("p", "desc", -0.1), model.ErrInvalid)
	assert.ErrorIs(t, m.AddLearning("concept", "", 0.5), model.ErrInvalid)

	_, ok := m.Persistent()
	assert.False(t, ok, "rejected writes must not create the persistent record")
}

func TestAddPatternCountsOccurrences(t *testing.T) {
	m, clk := newTestMemory(t)

	require.NoError(t, m.AddPattern("morning-notes", "Opens notes in the morning", 0.7))
	clk.Advance(time.Hour)
	require.NoError(t, m.AddPattern("morning-notes", "Opens notes every morning", 0.5))

	pats := m.Patterns()
	require.Len(t, pats, 1)
	assert.Equal(t, 2, pats[0].Occurrences)
	assert.Equal(t, 0.7, pats[0].Confidence)
	assert.Equal(t, "Opens notes every morning", pats[0].Description)
	assert.Equal(t, baseTime.Add(time.Hour).UnixMilli(), pats[0].LastObservedMS)
}

func TestAddLearningKeepsMaxRelevance(t *testing.T) {
	m, _ := newTestMemory(t)

	require.NoError(t, m.AddLearning("brevity", "User prefers short answers", 0.8))
	require.NoError(t, m.AddLearning("brevity", "User wants concise replies", 0.4))

	ls := m.Learnings()
	require.Len(t, ls, 1)
	assert.Equal(t, 0.8, ls[0].Relevance)
	assert.Equal(t, "User wants concise replies", ls[0].Insights)
	assert.NotNil(t, ls[0].LastAppliedMS)
}

func TestRetrieveMemory(t *testing.T) {
	m, clk := newTestMemory(t)

	clk.Advance(time.Minute)
	_, err := m.AddMessage(model.RoleUser, "hello")
	require.NoError(t, err)
	clk.Advance(time.Minute)
	require.NoError(t, m.AddPreference("appearance", "theme", "dark", 0.8))
	clk.Advance(time.Minute)
	require.NoError(t, m.TrackAppUsage("notes", "Notes", model.ActionOpen))

	all := m.RetrieveMemory(RetrieveParams{})
	require.Len(t, all, 3)
	assert.Equal(t, model.KindSession, all[0].RecordKind())
	assert.Equal(t, model.KindPersistent, all[1].RecordKind())
	assert.Equal(t, model.KindConversation, all[2].RecordKind())

	limited := m.RetrieveMemory(RetrieveParams{Limit: 1})
	require.Len(t, limited, 1)
	assert.Equal(t, model.KindSession, limited[0].RecordKind())

	onlyConv := m.RetrieveMemory(RetrieveParams{Kind: "conversation"})
	require.Len(t, onlyConv, 1)
	conv, ok := onlyConv[0].(model.ConversationRecord)
	require.True(t, ok)
	assert.Len(t, conv.Messages, 1)

	ranged := m.RetrieveMemory(RetrieveParams{
		FromMS: baseTime.Add(90 * time.Second).UnixMilli(),
		ToMS:   baseTime.Add(150 * time.Second).UnixMilli(),
	})
	require.Len(t, ranged, 1)
	assert.Equal(t, model.KindPersistent, ranged[0].RecordKind())

	assert.Empty(t, m.RetrieveMemory(RetrieveParams{Kind: "episodic"}))
}

func TestRetrieveWithoutPersistentRecord(t *testing.T) {
	m, _ := newTestMemory(t)
	got := m.RetrieveMemory(RetrieveParams{Kind: "persistent"})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSearch(t *testing.T) {
	m, _ := newTestMemory(t)
	require.NoError(t, m.AddPreference("appearance", "theme", "dark", 0.6))
	require.NoError(t, m.AddPreference("apps", "favoriteApp", "notes", 0.9))
	require.NoError(t, m.AddPattern("app:notes:morning", "Often opens notes in the morning", 0.7))
	require.NoError(t, m.AddLearning("note-taking", "User keeps daily notes", 0.5))

	results := m.Search(SearchParams{Query: "NOTES"})
	require.Len(t, results, 3)
	assert.Equal(t, "apps/favoriteApp", results[0].Key)
	assert.Equal(t, "pattern", results[1].Kind)
	assert.Equal(t, "learning", results[2].Kind)

	prefsOnly := m.Search(SearchParams{Query: "theme", Kind: "preference"})
	require.Len(t, prefsOnly, 1)
	assert.Equal(t, "dark", prefsOnly[0].Text)

	assert.Empty(t, m.Search(SearchParams{Query: "javascript"}))
}

func TestExportImport(t *testing.T) {
	src, _ := newTestMemory(t)
	require.NoError(t, src.AddPreference("appearance", "theme", "dark", 0.8))
	require.NoError(t, src.AddPattern("p1", "pattern one", 0.6))
	require.NoError(t, src.AddPattern("p1", "pattern one", 0.6))
	require.NoError(t, src.AddLearning("c1", "insight", 0.4))

	exported := src.ExportPersistent()
	require.Len(t, exported, 1)

	dst, _ := newTestMemory(t)
	n, err := dst.ImportPersistent(exported)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, src.Preferences(), dst.Preferences())
	require.Len(t, dst.Patterns(), 1)
	assert.Equal(t, 2, dst.Patterns()[0].Occurrences)

	applied := int64(12345)
	n, err = dst.ImportPersistent([]model.PersistentMemoryRecord{{
		Learnings: []model.AILearning{{Concept: "c2", Insights: "carried over", Relevance: 0.5, LastAppliedMS: &applied}},
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	applied = 0
	var got *model.AILearning
	for _, l := range dst.Learnings() {
		if l.Concept == "c2" {
			got = &l
		}
	}
	require.NotNil(t, got)
	require.NotNil(t, got.LastAppliedMS, "imported learnings keep their last-applied time")
	assert.Equal(t, int64(12345), *got.LastAppliedMS)

		bad := []model.PersistentMemoryRecord{{Preferences: []model.UserPreference{{Category: "a", Key: "b", Value: "c", Confidence: 2}}}}
	_, err = dst.ImportPersistent(bad)
	assert.ErrorIs(t, err, model.ErrInvalid)
}

func TestStats(t *testing.T) {
	backend := NewMemoryBackend()
	p := NewPersister(backend, nil)
	defer p.Close()

	m, err := Open(context.Background(), Options{Persister: p})
	require.NoError(t, err)
	_, err = m.AddMessage(model.RoleUser, "hi")
	require.NoError(t, err)
	require.NoError(t, m.AddPreference("a", "b", "c", 0.5))
	p.Flush()

	st, err := m.Stats(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, st.Messages)
	assert.Equal(t, 1, st.Preferences)
	assert.False(t, st.Degraded)
	require.Len(t, st.Blobs, 1)
	assert.Equal(t, PersistentBlob, st.Blobs[0].Name)
}
