package store

import (
	"strings"

	"github.com/rcliao/desk-memory/internal/model"
)

// AddPreference upserts a preference keyed by (category, key). An existing
// entry takes the new value and the higher of the two confidences.
func (m *Memory) AddPreference(category, key, value string, confidence float64) error {
	if err := requireFields("preference", "category", category, "key", key, "value", value); err != nil {
		return err
	}
	if !model.ValidUnit(confidence) {
		return model.Invalidf("preference confidence %v outside [0,1]", confidence)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertPreferenceLocked(model.UserPreference{Category: category, Key: key, Value: value, Confidence: confidence})
	m.persistLocked()
	return nil
}

// AddPattern upserts a usage pattern. An existing entry gains one occurrence
// and keeps the higher confidence.
func (m *Memory) AddPattern(pattern, description string, confidence float64) error {
	if err := requireFields("pattern", "pattern", pattern, "description", description); err != nil {
		return err
	}
	if !model.ValidUnit(confidence) {
		return model.Invalidf("pattern confidence %v outside [0,1]", confidence)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertPatternLocked(model.UsagePattern{Pattern: pattern, Description: description, Confidence: confidence, Occurrences: 1})
	m.persistLocked()
	return nil
}

// AddLearning upserts a learning keyed by concept, keeping the higher relevance.
func (m *Memory) AddLearning(concept, insights string, relevance float64) error {
	if err := requireFields("learning", "concept", concept, "insights", insights); err != nil {
		return err
	}
	if !model.ValidUnit(relevance) {
		return model.Invalidf("learning relevance %v outside [0,1]", relevance)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertLearningLocked(model.AILearning{Concept: concept, Insights: insights, Relevance: relevance})
	m.persistLocked()
	return nil
}

func (m *Memory) upsertPreferenceLocked(p model.UserPreference) {
	now := m.nowMS()
	rec := m.ensurePersistentLocked(now)
	p.LastUpdatedMS = now
	for i := range rec.Preferences {
		cur := &rec.Preferences[i]
		if cur.Category == p.Category && cur.Key == p.Key {
			cur.Value = p.Value
			cur.Confidence = max(cur.Confidence, p.Confidence)
			cur.LastUpdatedMS = now
			return
		}
	}
	rec.Preferences = append(rec.Preferences, p)
}

func (m *Memory) upsertPatternLocked(p model.UsagePattern) {
	now := m.nowMS()
	rec := m.ensurePersistentLocked(now)
	p.LastObservedMS = now
	if p.Occurrences < 1 {
		p.Occurrences = 1
	}
	for i := range rec.FrequentPatterns {
		cur := &rec.FrequentPatterns[i]
		if cur.Pattern == p.Pattern {
			cur.Occurrences += p.Occurrences
			cur.Confidence = max(cur.Confidence, p.Confidence)
			cur.Description = p.Description
			cur.LastObservedMS = now
			return
		}
	}
	rec.FrequentPatterns = append(rec.FrequentPatterns, p)
}

func (m *Memory) upsertLearningLocked(l model.AILearning) {
	now := m.nowMS()
	rec := m.ensurePersistentLocked(now)
	for i := range rec.Learnings {
		cur := &rec.Learnings[i]
		if cur.Concept == l.Concept {
			cur.Insights = l.Insights
			cur.Relevance = max(cur.Relevance, l.Relevance)
			applied := now
			cur.LastAppliedMS = &applied
			return
		}
	}
	if l.LastAppliedMS != nil {
		applied := *l.LastAppliedMS
		l.LastAppliedMS = &applied
	}
	rec.Learnings = append(rec.Learnings, l)
}

// ensurePersistentLocked returns the single logical persistent record,
// creating it on first write, and stamps it with now.
func (m *Memory) ensurePersistentLocked(now int64) *model.PersistentMemoryRecord {
	if len(m.persistent) == 0 {
		m.persistent = append(m.persistent, model.PersistentMemoryRecord{
			BaseRecord:       model.BaseRecord{ID: m.ids.NewID(), Kind: model.KindPersistent},
			Preferences:      []model.UserPreference{},
			FrequentPatterns: []model.UsagePattern{},
			Learnings:        []model.AILearning{},
		})
	}
	rec := &m.persistent[0]
	rec.TimestampMS = now
	return rec
}

func (m *Memory) persistLocked() {
	if m.persister == nil {
		return
	}
	env := PersistentEnvelope{PersistentMemories: copyPersistentList(m.persistent)}
	blob, err := EncodeBlob(PersistentBlob, env)
	if err != nil {
		m.log.Error("encode persistent tier", "error", err)
		return
	}
	blob.UpdatedAt = m.clock.Now()
	m.persister.Save(blob)
}

// Persistent returns a copy of the persistent record and whether one exists.
func (m *Memory) Persistent() (model.PersistentMemoryRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.persistent) == 0 {
		return model.PersistentMemoryRecord{}, false
	}
	return copyPersistent(m.persistent[0]), true
}

// Preferences returns a copy of all stored preferences.
func (m *Memory) Preferences() []model.UserPreference {
	rec, _ := m.Persistent()
	return rec.Preferences
}

// Patterns returns a copy of all stored usage patterns.
func (m *Memory) Patterns() []model.UsagePattern {
	rec, _ := m.Persistent()
	return rec.FrequentPatterns
}

// Learnings returns a copy of all stored learnings.
func (m *Memory) Learnings() []model.AILearning {
	rec, _ := m.Persistent()
	return rec.Learnings
}

func copyPersistentList(in []model.PersistentMemoryRecord) []model.PersistentMemoryRecord {
	out := make([]model.PersistentMemoryRecord, len(in))
	for i, r := range in {
		out[i] = copyPersistent(r)
	}
	return out
}

func copyPersistent(r model.PersistentMemoryRecord) model.PersistentMemoryRecord {
	r.Preferences = append([]model.UserPreference{}, r.Preferences...)
	r.FrequentPatterns = append([]model.UsagePattern{}, r.FrequentPatterns...)
	learnings := make([]model.AILearning, len(r.Learnings))
	for i, l := range r.Learnings {
		if l.LastAppliedMS != nil {
			applied := *l.LastAppliedMS
			l.LastAppliedMS = &applied
		}
		learnings[i] = l
	}
	r.Learnings = learnings
	return r
}

func requireFields(what string, pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return model.Invalidf("%s %s is required", what, pairs[i])
		}
	}
	return nil
}
