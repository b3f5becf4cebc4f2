package store

import (
	"sort"

	"github.com/rcliao/desk-memory/internal/model"
)

// RetrieveMemory returns tier records matching p, newest first. Conversation
// and session contribute one record each; the persistent tier contributes its
// whole collection.
func (m *Memory) RetrieveMemory(p RetrieveParams) []model.Record {
	kind := model.Kind(p.Kind)
	if kind != "" && !model.ValidKinds[kind] {
		return []model.Record{}
	}

	m.mu.Lock()
	var candidates []model.Record
	if kind == "" || kind == model.KindConversation {
		candidates = append(candidates, copyConversation(m.conversation))
	}
	if kind == "" || kind == model.KindSession {
		candidates = append(candidates, m.sessionLocked())
	}
	if kind == "" || kind == model.KindPersistent {
		for _, r := range m.persistent {
			candidates = append(candidates, copyPersistent(r))
		}
	}
	m.mu.Unlock()

	out := make([]model.Record, 0, len(candidates))
	for _, r := range candidates {
		ts := r.Timestamp()
		if p.FromMS > 0 && ts < p.FromMS {
			continue
		}
		if p.ToMS > 0 && ts > p.ToMS {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp() > out[j].Timestamp()
	})

	if p.Limit > 0 && len(out) > p.Limit {
		out = out[:p.Limit]
	}
	return out
}
