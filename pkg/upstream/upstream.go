// Package upstream defines the boundary between coachd and the model
// provider. The relay and the drafter are written against the interfaces
// here; the genai adapter is the only code that touches the SDK.
package upstream

import (
	"context"
	"errors"
)

// ErrUpstreamClosed reports that the live channel has been closed and no
// further sends or receives will succeed.
var ErrUpstreamClosed = errors.New("upstream channel closed")

// ToolParam describes a single parameter of a tool declaration.
type ToolParam struct {
	Type        string
	Description string
	Enum        []string
}

// ToolDeclaration is an upstream-visible function the model may call.
type ToolDeclaration struct {
	Name        string
	Description string
	Params      map[string]ToolParam
	Required    []string
}

// ToolCall is a function invocation requested by the model.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolResponse answers a single ToolCall.
type ToolResponse struct {
	ID     string
	Name   string
	Result map[string]any
}

// ContentPart is one piece of model output: text or inline media.
type ContentPart struct {
	Text     string
	Audio    []byte
	MIMEType string
}

// ServerEvent is one message received from the live channel.
type ServerEvent struct {
	Parts        []ContentPart
	ToolCalls    []ToolCall
	TurnComplete bool
	Interrupted  bool
}

// LiveConfig configures a live session at connect time.
type LiveConfig struct {
	Model              string
	SystemInstruction  string
	ResponseModalities []string
	VoiceName          string
	Tools              []ToolDeclaration
}

// LiveChannel is a connected duplex session with the model provider.
// Sends are safe for a single writer; Receive is safe for a single reader.
type LiveChannel interface {
	// SendText submits text input. endOfTurn marks the turn complete so the
	// model responds; false feeds context without soliciting a reply.
	SendText(ctx context.Context, text string, endOfTurn bool) error
	// SendMedia submits a binary chunk. Audio is streamed as passive realtime
	// input regardless of endOfTurn; other media (images) are sent as turn
	// content and may complete the turn.
	SendMedia(ctx context.Context, data []byte, mimeType string, endOfTurn bool) error
	// SendToolResponse answers outstanding tool calls.
	SendToolResponse(ctx context.Context, responses []ToolResponse) error
	// Receive blocks for the next server event. It returns ErrUpstreamClosed
	// (possibly wrapped) once the channel is gone.
	Receive() (*ServerEvent, error)
	Close() error
}

// LiveConnector opens live channels.
type LiveConnector interface {
	Connect(ctx context.Context, cfg LiveConfig) (LiveChannel, error)
}

// Turn is one entry of a chat history.
type Turn struct {
	Role string // "user" or "model"
	Text string
}

// GenerateRequest is a single-shot text generation call.
type GenerateRequest struct {
	Model           string
	System          string
	History         []Turn
	Prompt          string
	Temperature     float32
	JSONOutput      bool
	MaxOutputTokens int32
}

// ChatBackend produces text completions for the drafter.
type ChatBackend interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}
