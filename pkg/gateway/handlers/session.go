package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/reconnect-ai/coachd/pkg/drafter"
	"github.com/reconnect-ai/coachd/pkg/session"
	"github.com/reconnect-ai/coachd/pkg/store"
)

// SessionStartHandler opens a draft context and records the session.
type SessionStartHandler struct {
	Drafter *drafter.Drafter
	Store   store.Store
	Logger  *slog.Logger
}

func (h SessionStartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Drafter == nil {
		writeError(w, r, http.StatusServiceUnavailable, "report drafting unavailable")
		return
	}

	var req struct {
		SessionID    string `json:"session_id"`
		Domain       string `json:"domain"`
		ExerciseName string `json:"exercise_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	domain := session.ParseDomain(req.Domain)

	h.Drafter.Start(sessionID, domain)

	// Persistence is best effort; the draft context is the source of truth.
	if err := h.Store.CreateSession(r.Context(), store.SessionRecord{
		SessionID:    sessionID,
		Domain:       string(domain),
		ExerciseName: req.ExerciseName,
		StartedAt:    time.Now(),
	}); err != nil {
		h.Logger.Warn("session record not saved", "session_id", sessionID, "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"domain":     string(domain),
		"status":     "started",
	})
}

// SessionChunkHandler accepts a data chunk and queues it for ingestion.
type SessionChunkHandler struct {
	Drafter *drafter.Drafter
	Logger  *slog.Logger
	// IngestTimeout bounds the background ingestion call.
	IngestTimeout time.Duration
}

func (h SessionChunkHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Drafter == nil {
		writeError(w, r, http.StatusServiceUnavailable, "report drafting unavailable")
		return
	}

	var req struct {
		SessionID string        `json:"session_id"`
		Chunk     drafter.Chunk `json:"chunk"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.SessionID == "" {
		writeError(w, r, http.StatusBadRequest, "session_id is required")
		return
	}

	// Accept immediately; the model ack happens off the request path.
	timeout := h.IngestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := h.Drafter.IngestChunk(ctx, req.SessionID, req.Chunk); err != nil {
			h.Logger.Warn("chunk ingestion failed", "session_id", req.SessionID, "error", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// SessionEndHandler finalizes the report and persists the outcome.
type SessionEndHandler struct {
	Drafter *drafter.Drafter
	Store   store.Store
	Logger  *slog.Logger
}

func (h SessionEndHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Drafter == nil {
		writeError(w, r, http.StatusServiceUnavailable, "report drafting unavailable")
		return
	}

	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.SessionID == "" {
		writeError(w, r, http.StatusBadRequest, "session_id is required")
		return
	}

	report, err := h.Drafter.Finalize(r.Context(), req.SessionID)
	if err != nil {
		if errors.Is(err, drafter.ErrSessionNotFound) {
			writeError(w, r, http.StatusNotFound, "session not found")
			return
		}
		h.Logger.Error("finalize failed", "session_id", req.SessionID, "error", err)
		writeError(w, r, http.StatusBadGateway, "report generation failed")
		return
	}

	// Best effort: the report goes back to the caller even when the store is
	// down.
	if err := h.Store.CompleteSession(r.Context(), req.SessionID, store.StatusCompleted); err != nil {
		h.Logger.Warn("session completion not saved", "session_id", req.SessionID, "error", err)
	}
	if raw, err := json.Marshal(report); err == nil {
		if err := h.Store.SaveReport(r.Context(), req.SessionID, raw); err != nil {
			h.Logger.Warn("report not saved", "session_id", req.SessionID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, report)
}

// HistoryHandler lists recent sessions with their reports.
type HistoryHandler struct {
	Store  store.Store
	Logger *slog.Logger
}

func (h HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	domain := ""
	if raw := q.Get("domain"); raw != "" {
		domain = string(session.ParseDomain(raw))
	}

	limit := 50
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := h.Store.History(r.Context(), domain, q.Get("search"), limit)
	if err != nil {
		h.Logger.Error("history query failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "history unavailable")
		return
	}
	if entries == nil {
		entries = []store.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": entries})
}
