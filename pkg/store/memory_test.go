package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func seedSessions(t *testing.T, m *Memory) {
	t.Helper()
	base := time.Now().Add(-time.Hour)
	recs := []SessionRecord{
		{SessionID: "a", Domain: "BODY", ExerciseName: "Shoulder Press", StartedAt: base},
		{SessionID: "b", Domain: "BODY", ExerciseName: "Bicep Curl", StartedAt: base.Add(time.Minute)},
		{SessionID: "c", Domain: "FACE", ExerciseName: "Smile Practice", StartedAt: base.Add(2 * time.Minute)},
	}
	for _, rec := range recs {
		if err := m.CreateSession(context.Background(), rec); err != nil {
			t.Fatalf("CreateSession(%s): %v", rec.SessionID, err)
		}
	}
}

func TestMemory_SessionLifecycle(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	seedSessions(t, m)

	if err := m.CompleteSession(context.Background(), "a", StatusCompleted); err != nil {
		t.Fatalf("CompleteSession: %v", err)
	}
	report := json.RawMessage(`{"report_markdown": "# R"}`)
	if err := m.SaveReport(context.Background(), "a", report); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	entries, err := m.History(context.Background(), "", "", 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	// Newest first.
	if entries[0].SessionID != "c" || entries[2].SessionID != "a" {
		t.Fatalf("order = %s,%s,%s", entries[0].SessionID, entries[1].SessionID, entries[2].SessionID)
	}
	last := entries[2]
	if last.Status != StatusCompleted || last.EndedAt == nil || string(last.Report) != string(report) {
		t.Fatalf("completed entry = %+v", last)
	}
}

func TestMemory_DuplicateSessionRejected(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	rec := SessionRecord{SessionID: "dup", Domain: "BODY", StartedAt: time.Now()}
	if err := m.CreateSession(context.Background(), rec); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if err := m.CreateSession(context.Background(), rec); err == nil {
		t.Fatal("duplicate CreateSession succeeded")
	}
}

func TestMemory_HistoryFilters(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	seedSessions(t, m)

	entries, err := m.History(context.Background(), "BODY", "", 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("domain filter got %d entries, want 2", len(entries))
	}

	entries, err = m.History(context.Background(), "", "shoulder", 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 1 || entries[0].SessionID != "a" {
		t.Fatalf("search filter = %+v", entries)
	}

	entries, err = m.History(context.Background(), "", "", 1)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 1 || entries[0].SessionID != "c" {
		t.Fatalf("limit filter = %+v", entries)
	}
}

func TestMemory_UnknownSessionErrors(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	if err := m.CompleteSession(context.Background(), "nope", StatusCompleted); err == nil {
		t.Fatal("CompleteSession on unknown session succeeded")
	}
	if err := m.SaveReport(context.Background(), "nope", json.RawMessage(`{}`)); err == nil {
		t.Fatal("SaveReport on unknown session succeeded")
	}
}
