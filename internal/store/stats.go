package store

import (
	"context"
	"os"
	"time"
)

// Stats holds per-tier counts and storage information.
type Stats struct {
	DBPath      string      `json:"db_path,omitempty"`
	DBSizeBytes int64       `json:"db_size_bytes"`
	Messages    int         `json:"messages"`
	ActiveApps  int         `json:"active_apps"`
	RecentTasks int         `json:"recent_tasks"`
	Preferences int         `json:"preferences"`
	Patterns    int         `json:"patterns"`
	Learnings   int         `json:"learnings"`
	Degraded    bool        `json:"degraded"`
	Blobs       []BlobStats `json:"blobs"`
}

// BlobStats describes one persisted blob.
type BlobStats struct {
	Name      string    `json:"name"`
	Version   int       `json:"version"`
	SizeBytes int       `json:"size_bytes"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Stats returns tier and storage statistics. dbPath may be empty.
func (m *Memory) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath, Blobs: []BlobStats{}}

	if dbPath != "" {
		if info, err := os.Stat(dbPath); err == nil {
			st.DBSizeBytes = info.Size()
		}
	}

	m.mu.Lock()
	st.Messages = len(m.conversation.Messages)
	st.ActiveApps = m.apps.Len()
	st.RecentTasks = len(m.session.RecentTasks)
	if len(m.persistent) > 0 {
		st.Preferences = len(m.persistent[0].Preferences)
		st.Patterns = len(m.persistent[0].FrequentPatterns)
		st.Learnings = len(m.persistent[0].Learnings)
	}
	m.mu.Unlock()

	if m.persister == nil {
		return st, nil
	}
	st.Degraded = m.persister.Degraded()

	blobs, err := m.persister.Backend().ListBlobs(ctx)
	if err != nil {
		return st, err
	}
	for _, b := range blobs {
		st.Blobs = append(st.Blobs, BlobStats{
			Name:      b.Name,
			Version:   b.Version,
			SizeBytes: len(b.Data),
			UpdatedAt: b.UpdatedAt,
		})
	}
	return st, nil
}
