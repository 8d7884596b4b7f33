// Package store persists session records and finalized reports. Persistence
// is best effort throughout coachd: callers log store errors and carry on.
package store

import (
	"context"
	"encoding/json"
	"time"
)

// Session status values.
const (
	StatusStarted   = "started"
	StatusCompleted = "completed"
	StatusAborted   = "aborted"
)

// SessionRecord is one exercise session row.
type SessionRecord struct {
	SessionID    string
	Domain       string
	ExerciseName string
	StartedAt    time.Time
}

// HistoryEntry is one row of the session history view, with the saved report
// attached when present.
type HistoryEntry struct {
	SessionID    string          `json:"session_id"`
	Domain       string          `json:"domain"`
	ExerciseName string          `json:"exercise_name"`
	Status       string          `json:"status"`
	StartedAt    time.Time       `json:"started_at"`
	EndedAt      *time.Time      `json:"ended_at,omitempty"`
	Report       json.RawMessage `json:"report,omitempty"`
}

// Store is the persistence boundary.
type Store interface {
	CreateSession(ctx context.Context, rec SessionRecord) error
	// CompleteSession stamps the end time and final status.
	CompleteSession(ctx context.Context, sessionID, status string) error
	SaveReport(ctx context.Context, sessionID string, report json.RawMessage) error
	// History lists recent sessions, newest first, optionally filtered by
	// domain and a case-insensitive exercise-name search.
	History(ctx context.Context, domain, search string, limit int) ([]HistoryEntry, error)
	Close()
}
