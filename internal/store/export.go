package store

import (
	"github.com/rcliao/desk-memory/internal/model"
)

// ExportPersistent returns a copy of the persistent tier.
func (m *Memory) ExportPersistent() []model.PersistentMemoryRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyPersistentList(m.persistent)
}

// ImportPersistent merges exported records through the usual upsert rules and
// queues a single durable write. Pattern occurrences are added together.
// Returns the number of entries applied.
func (m *Memory) ImportPersistent(records []model.PersistentMemoryRecord) (int, error) {
	for _, r := range records {
		for _, p := range r.Preferences {
			if err := requireFields("preference", "category", p.Category, "key", p.Key, "value", p.Value); err != nil {
				return 0, err
			}
			if !model.ValidUnit(p.Confidence) {
				return 0, model.Invalidf("preference %s/%s confidence %v outside [0,1]", p.Category, p.Key, p.Confidence)
			}
		}
		for _, p := range r.FrequentPatterns {
			if err := requireFields("pattern", "pattern", p.Pattern, "description", p.Description); err != nil {
				return 0, err
			}
			if !model.ValidUnit(p.Confidence) {
				return 0, model.Invalidf("pattern %s confidence %v outside [0,1]", p.Pattern, p.Confidence)
			}
		}
		for _, l := range r.Learnings {
			if err := requireFields("learning", "concept", l.Concept, "insights", l.Insights); err != nil {
				return 0, err
			}
			if !model.ValidUnit(l.Relevance) {
				return 0, model.Invalidf("learning %s relevance %v outside [0,1]", l.Concept, l.Relevance)
			}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	imported := 0
	for _, r := range records {
		for _, p := range r.Preferences {
			m.upsertPreferenceLocked(p)
			imported++
		}
		for _, p := range r.FrequentPatterns {
			m.upsertPatternLocked(p)
			imported++
		}
		for _, l := range r.Learnings {
			m.upsertLearningLocked(l)
			imported++
		}
	}
	if imported > 0 {
		m.persistLocked()
	}
	return imported, nil
}
