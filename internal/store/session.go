package store

import (
	"strings"

	"github.com/rcliao/desk-memory/internal/model"
)

// TrackAppUsage records an application event in the session tier. Any action
// on a known app marks it most recently used; inserting beyond the cap evicts
// the least recently used app. Closing an unknown app is a no-op.
func (m *Memory) TrackAppUsage(appID, appName string, action model.AppAction) error {
	if strings.TrimSpace(appID) == "" {
		return model.Invalidf("app id is required")
	}
	if !model.ValidActions[action] {
		return model.Invalidf("unknown app action %q", action)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.nowMS()
	if u, ok := m.apps.Get(appID); ok {
		switch action {
		case model.ActionOpen:
			u.TimeOpenedMS = now
			u.TimeClosedMS = nil
			u.LastFocusMS = now
			if appName != "" {
				u.AppName = appName
			}
		case model.ActionFocus:
			u.LastFocusMS = now
		case model.ActionInteract:
			u.InteractionCount++
		case model.ActionClose:
			u.TimeClosedMS = &now
		}
		m.session.TimestampMS = now
		return nil
	}

	if action == model.ActionClose {
		return nil
	}
	if appName == "" {
		appName = appID
	}
	u := &model.AppUsage{
		AppID:        appID,
		AppName:      appName,
		TimeOpenedMS: now,
		LastFocusMS:  now,
	}
	if action == model.ActionInteract {
		u.InteractionCount = 1
	}
	m.apps.Add(appID, u)
	m.session.TimestampMS = now
	return nil
}

// RecordTask appends a task to the session tier. EndMS is set only for
// completed tasks.
func (m *Memory) RecordTask(description string, status model.TaskStatus, relatedApps ...string) (model.TaskRecord, error) {
	if strings.TrimSpace(description) == "" {
		return model.TaskRecord{}, model.Invalidf("task description is required")
	}
	if !model.ValidTaskStatuses[status] {
		return model.TaskRecord{}, model.Invalidf("unknown task status %q", status)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.nowMS()
	task := model.TaskRecord{
		ID:          m.ids.NewID(),
		Description: description,
		Status:      status,
		StartMS:     now,
	}
	if len(relatedApps) > 0 {
		task.RelatedApps = append([]string{}, relatedApps...)
	}
	if status == model.TaskCompleted {
		end := now
		task.EndMS = &end
	}

	tasks := append(m.session.RecentTasks, task)
	if over := len(tasks) - m.limits.MaxRecentTasks; over > 0 {
		tasks = append([]model.TaskRecord(nil), tasks[over:]...)
	}
	m.session.RecentTasks = tasks
	m.session.TimestampMS = now
	return task, nil
}

// UpdateTimeContext recomputes the session's time context from the clock.
func (m *Memory) UpdateTimeContext() model.TimeContext {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	m.session.TimeContext = model.NewTimeContext(now)
	m.session.TimestampMS = now.UnixMilli()
	return m.session.TimeContext
}

// Session returns a copy of the session tier.
func (m *Memory) Session() model.SessionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionLocked()
}

func (m *Memory) sessionLocked() model.SessionRecord {
	s := m.session
	s.ActiveApps = make(map[string]model.AppUsage, m.apps.Len())
	for _, id := range m.apps.Keys() {
		u, _ := m.apps.Peek(id)
		s.ActiveApps[id] = copyAppUsage(*u)
	}
	s.RecentTasks = make([]model.TaskRecord, len(m.session.RecentTasks))
	for i, t := range m.session.RecentTasks {
		t.RelatedApps = append([]string(nil), t.RelatedApps...)
		if t.EndMS != nil {
			end := *t.EndMS
			t.EndMS = &end
		}
		s.RecentTasks[i] = t
	}
	return s
}

func copyAppUsage(u model.AppUsage) model.AppUsage {
	if u.TimeClosedMS != nil {
		closed := *u.TimeClosedMS
		u.TimeClosedMS = &closed
	}
	return u
}
