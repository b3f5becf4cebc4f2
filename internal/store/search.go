package store

import (
	"sort"
	"strings"
)

// SearchResult is one persistent-tier entry matching a query.
type SearchResult struct {
	Kind      string  `json:"kind"`
	Key       string  `json:"key"`
	Text      string  `json:"text"`
	Score     float64 `json:"score"`
	UpdatedMS int64   `json:"updated_ms,omitempty"`
}

// Search finds preferences, patterns and learnings whose key or text contains
// the query, case-insensitively. Results are ordered by confidence (or
// relevance) descending, then key.
func (m *Memory) Search(p SearchParams) []SearchResult {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}
	q := strings.ToLower(strings.TrimSpace(p.Query))
	match := func(fields ...string) bool {
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), q) {
				return true
			}
		}
		return false
	}

	rec, _ := m.Persistent()
	results := []SearchResult{}

	if p.Kind == "" || p.Kind == "preference" {
		for _, pref := range rec.Preferences {
			key := pref.Category + "/" + pref.Key
			if match(key, pref.Value) {
				results = append(results, SearchResult{
					Kind: "preference", Key: key, Text: pref.Value,
					Score: pref.Confidence, UpdatedMS: pref.LastUpdatedMS,
				})
			}
		}
	}
	if p.Kind == "" || p.Kind == "pattern" {
		for _, pat := range rec.FrequentPatterns {
			if match(pat.Pattern, pat.Description) {
				results = append(results, SearchResult{
					Kind: "pattern", Key: pat.Pattern, Text: pat.Description,
					Score: pat.Confidence, UpdatedMS: pat.LastObservedMS,
				})
			}
		}
	}
	if p.Kind == "" || p.Kind == "learning" {
		for _, l := range rec.Learnings {
			if match(l.Concept, l.Insights) {
				r := SearchResult{Kind: "learning", Key: l.Concept, Text: l.Insights, Score: l.Relevance}
				if l.LastAppliedMS != nil {
					r.UpdatedMS = *l.LastAppliedMS
				}
				results = append(results, r)
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Key < results[j].Key
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}
