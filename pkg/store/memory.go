package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Memory is the in-process store used when no database is configured, and by
// handler tests.
type Memory struct {
	mu       sync.Mutex
	sessions map[string]*memoryRow
}

type memoryRow struct {
	rec     SessionRecord
	status  string
	endedAt *time.Time
	report  json.RawMessage
}

func NewMemory() *Memory {
	return &Memory{sessions: make(map[string]*memoryRow)}
}

func (m *Memory) CreateSession(ctx context.Context, rec SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[rec.SessionID]; ok {
		return fmt.Errorf("session %s already exists", rec.SessionID)
	}
	m.sessions[rec.SessionID] = &memoryRow{rec: rec, status: StatusStarted}
	return nil
}

func (m *Memory) CompleteSession(ctx context.Context, sessionID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %s not found", sessionID)
	}
	now := time.Now()
	row.status = status
	row.endedAt = &now
	return nil
}

func (m *Memory) SaveReport(ctx context.Context, sessionID string, report json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %s not found", sessionID)
	}
	row.report = append(json.RawMessage(nil), report...)
	return nil
}

func (m *Memory) History(ctx context.Context, domain, search string, limit int) ([]HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []HistoryEntry
	for _, row := range m.sessions {
		if domain != "" && row.rec.Domain != domain {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(row.rec.ExerciseName), strings.ToLower(search)) {
			continue
		}
		out = append(out, HistoryEntry{
			SessionID:    row.rec.SessionID,
			Domain:       row.rec.Domain,
			ExerciseName: row.rec.ExerciseName,
			Status:       row.status,
			StartedAt:    row.rec.StartedAt,
			EndedAt:      row.endedAt,
			Report:       row.report,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) Close() {}
