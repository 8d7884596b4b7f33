// Package drafter maintains a shadow analysis context per session: data
// chunks accumulate into a conversation with the model, and finalization
// turns the accumulated context into a structured clinical report.
package drafter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/reconnect-ai/coachd/pkg/metrics"
	"github.com/reconnect-ai/coachd/pkg/session"
	"github.com/reconnect-ai/coachd/pkg/upstream"
)

// ErrSessionNotFound reports an unknown or already-finalized session.
var ErrSessionNotFound = errors.New("draft session not found")

// Chunk is one slice of session data, roughly ten seconds wide.
type Chunk struct {
	TimestampStart float64         `json:"timestamp_start"`
	TimestampEnd   float64         `json:"timestamp_end"`
	Notes          []string        `json:"notes"`
	Telemetry      json.RawMessage `json:"telemetry"`
}

// draft is the accumulating context of one session. Its mutex serializes
// turns so concurrent chunk submissions never interleave in the history.
// state tracks the lifecycle; a closed draft refuses further work even when a
// caller still holds a handle from before finalization.
type draft struct {
	mu      sync.Mutex
	state   session.State
	domain  session.Domain
	history []upstream.Turn
	chunks  int
	notes   []string
}

// Drafter owns all draft contexts.
type Drafter struct {
	backend upstream.ChatBackend
	model   string
	logger  *slog.Logger

	mu       sync.Mutex
	sessions map[string]*draft
}

// New builds a drafter generating against model via backend.
func New(backend upstream.ChatBackend, model string, logger *slog.Logger) *Drafter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Drafter{
		backend:  backend,
		model:    model,
		logger:   logger,
		sessions: make(map[string]*draft),
	}
}

// Start creates a fresh draft context. Starting an already-active session is
// a no-op.
func (d *Drafter) Start(sessionID string, domain session.Domain) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.sessions[sessionID]; ok {
		return
	}
	d.sessions[sessionID] = &draft{domain: domain}
	d.logger.Info("draft session started", "session_id", sessionID, "domain", domain)
}

// AppendNote records a clinical note for inclusion in the final report.
// Unknown sessions are ignored; notes arriving after finalization have
// nowhere to go.
func (d *Drafter) AppendNote(sessionID, note string) {
	d.mu.Lock()
	dr, ok := d.sessions[sessionID]
	d.mu.Unlock()
	if !ok {
		d.logger.Warn("clinical note for unknown draft session dropped", "session_id", sessionID)
		return
	}
	dr.mu.Lock()
	if dr.state == session.StateClosed {
		dr.mu.Unlock()
		d.logger.Warn("clinical note after finalization dropped", "session_id", sessionID)
		return
	}
	dr.notes = append(dr.notes, note)
	dr.mu.Unlock()
}

// IngestChunk feeds one chunk into the session's draft context. Unknown
// sessions are lazily created so a missed start never loses data. The model
// ack is best effort: failures are logged and the next chunk proceeds.
func (d *Drafter) IngestChunk(ctx context.Context, sessionID string, chunk Chunk) error {
	d.mu.Lock()
	dr, ok := d.sessions[sessionID]
	if !ok {
		d.logger.Warn("draft session not found, starting new", "session_id", sessionID)
		dr = &draft{domain: session.DomainBody}
		d.sessions[sessionID] = dr
	}
	d.mu.Unlock()

	dr.mu.Lock()
	defer dr.mu.Unlock()

	if dr.state == session.StateClosed {
		return fmt.Errorf("ingesting chunk: %w", ErrSessionNotFound)
	}

	dr.chunks++
	dr.notes = append(dr.notes, chunk.Notes...)
	prompt := formatChunkPrompt(chunk)

	ack, err := d.backend.Generate(ctx, upstream.GenerateRequest{
		Model:       d.model,
		System:      draftSystemInstruction,
		History:     dr.history,
		Prompt:      prompt,
		Temperature: 0.4,
	})
	if err != nil {
		d.logger.Error("chunk ack failed", "session_id", sessionID, "chunk", dr.chunks, "error", err)
		return fmt.Errorf("ingesting chunk %d: %w", dr.chunks, err)
	}

	dr.history = append(dr.history,
		upstream.Turn{Role: "user", Text: prompt},
		upstream.Turn{Role: "model", Text: ack},
	)
	dr.state = session.StateActive
	metrics.ChunksIngestedTotal.Inc()
	d.logger.Debug("chunk ingested", "session_id", sessionID, "chunk", dr.chunks)
	return nil
}

// Finalize produces the clinical report and destroys the draft context.
// A transport failure keeps the context so the caller may retry; an
// unparseable response yields a degraded text-only report and still destroys
// the context. A second call returns ErrSessionNotFound.
func (d *Drafter) Finalize(ctx context.Context, sessionID string) (*Report, error) {
	d.mu.Lock()
	dr, ok := d.sessions[sessionID]
	d.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	dr.mu.Lock()
	defer dr.mu.Unlock()

	if dr.state == session.StateClosed {
		// Lost a finalize race; the context is already gone.
		return nil, ErrSessionNotFound
	}
	dr.state = session.StateFinalizing

	d.logger.Info("finalizing report", "session_id", sessionID, "chunks", dr.chunks)

	raw, err := d.backend.Generate(ctx, upstream.GenerateRequest{
		Model:           d.model,
		System:          draftSystemInstruction,
		History:         dr.history,
		Prompt:          finalizePrompt,
		Temperature:     0.2,
		JSONOutput:      true,
		MaxOutputTokens: 8192,
	})
	if err != nil {
		// Context kept: the caller may retry finalization.
		dr.state = session.StateActive
		return nil, fmt.Errorf("generating final report: %w", err)
	}

	dr.state = session.StateClosed
	d.mu.Lock()
	delete(d.sessions, sessionID)
	d.mu.Unlock()

	report, repaired, perr := ParseReport(raw)
	if perr != nil {
		d.logger.Warn("report JSON unrecoverable, returning degraded report",
			"session_id", sessionID, "error", perr)
		return &Report{
			Markdown:      raw,
			ClinicalNotes: []string{},
			Degraded:      true,
		}, nil
	}
	if repaired {
		d.logger.Warn("report JSON repaired from truncation", "session_id", sessionID)
		metrics.ReportRepairsTotal.Inc()
	}

	report.ClinicalNotes = append([]string{}, dr.notes...)
	metrics.ReportsFinalizedTotal.Inc()
	return report, nil
}
