package relay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reconnect-ai/coachd/pkg/upstream"
)

// Tool is one function the model may invoke during a live session.
type Tool interface {
	Name() string
	Declaration() upstream.ToolDeclaration
	Invoke(ctx context.Context, args map[string]any) (map[string]any, error)
}

// ToolSet dispatches model tool calls against a closed set of tools. Every
// call produces exactly one response, including unknown names and tool
// errors, so the model never waits on a missing answer.
type ToolSet struct {
	logger *slog.Logger
	tools  map[string]Tool
}

// NewToolSet indexes tools by name.
func NewToolSet(logger *slog.Logger, tools ...Tool) *ToolSet {
	if logger == nil {
		logger = slog.Default()
	}
	set := &ToolSet{logger: logger, tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		set.tools[t.Name()] = t
	}
	return set
}

// Declarations lists the tool declarations for connect-time configuration.
func (s *ToolSet) Declarations() []upstream.ToolDeclaration {
	decls := make([]upstream.ToolDeclaration, 0, len(s.tools))
	for _, t := range s.tools {
		decls = append(decls, t.Declaration())
	}
	return decls
}

// Dispatch runs one tool call and always returns a response for it.
func (s *ToolSet) Dispatch(ctx context.Context, call upstream.ToolCall) upstream.ToolResponse {
	resp := upstream.ToolResponse{ID: call.ID, Name: call.Name}

	tool, ok := s.tools[call.Name]
	if !ok {
		s.logger.Warn("unknown tool call", "tool", call.Name)
		resp.Result = map[string]any{"error": fmt.Sprintf("unknown tool %q", call.Name)}
		return resp
	}

	result, err := tool.Invoke(ctx, call.Args)
	if err != nil {
		s.logger.Warn("tool invocation failed", "tool", call.Name, "error", err)
		resp.Result = map[string]any{"error": err.Error()}
		return resp
	}
	resp.Result = result
	return resp
}

// HeartbeatTool answers connectivity probes from the model.
type HeartbeatTool struct {
	Logger *slog.Logger
}

func (HeartbeatTool) Name() string { return "log_heartbeat" }

func (HeartbeatTool) Declaration() upstream.ToolDeclaration {
	return upstream.ToolDeclaration{
		Name:        "log_heartbeat",
		Description: "Confirm the coaching session link is alive. Takes no arguments.",
		Params:      map[string]upstream.ToolParam{},
	}
}

func (t HeartbeatTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	if t.Logger != nil {
		t.Logger.Debug("heartbeat received")
	}
	return map[string]any{"status": "ok"}, nil
}

// NoteSink receives clinical notes for inclusion in the final report.
type NoteSink interface {
	AppendNote(sessionID, note string)
}

// ClinicalNoteTool records a clinical observation: the note is forwarded to
// the client and retained for the session report.
type ClinicalNoteTool struct {
	SessionID string
	Notes     NoteSink
	// Notify pushes the note to the connected client. Errors are returned to
	// the model in the tool response.
	Notify func(note, category string) error
}

func (ClinicalNoteTool) Name() string { return "log_clinical_note" }

func (ClinicalNoteTool) Declaration() upstream.ToolDeclaration {
	return upstream.ToolDeclaration{
		Name:        "log_clinical_note",
		Description: "Record a clinical observation about the user's performance, pain, or progress.",
		Params: map[string]upstream.ToolParam{
			"note": {
				Type:        "string",
				Description: "The observation in one or two sentences.",
			},
			"category": {
				Type:        "string",
				Description: "Observation category.",
				Enum:        []string{"form", "pain", "progress", "safety", "other"},
			},
		},
		Required: []string{"note"},
	}
}

func (t ClinicalNoteTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	note, _ := args["note"].(string)
	if note == "" {
		return nil, fmt.Errorf("missing note argument")
	}
	category, _ := args["category"].(string)
	if category == "" {
		category = "other"
	}

	if t.Notes != nil {
		t.Notes.AppendNote(t.SessionID, note)
	}
	if t.Notify != nil {
		if err := t.Notify(note, category); err != nil {
			return nil, fmt.Errorf("forwarding clinical note: %w", err)
		}
	}
	return map[string]any{"status": "recorded"}, nil
}
