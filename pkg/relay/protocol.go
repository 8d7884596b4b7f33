package relay

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Client frame tags. A text payload beginning with "[TAG] " carries telemetry
// or an event rather than user speech.
const (
	tagPoseData = "POSE_DATA"
)

// ClientMessage is a decoded client wire frame.
type ClientMessage interface {
	isClientMessage()
}

// TextMessage is user text or a tagged event. Trigger asks the model to
// respond now.
type TextMessage struct {
	Text    string
	Trigger bool
}

// MediaMessage is a single base64-encoded media chunk.
type MediaMessage struct {
	Data     []byte
	MIMEType string
	Trigger  bool
}

// RealtimeMessage is the legacy batched audio framing.
type RealtimeMessage struct {
	Chunks []MediaMessage
}

func (TextMessage) isClientMessage()     {}
func (MediaMessage) isClientMessage()    {}
func (RealtimeMessage) isClientMessage() {}

type clientFrame struct {
	Text          string `json:"text"`
	Data          string `json:"data"`
	MIMEType      string `json:"mime_type"`
	Trigger       bool   `json:"trigger"`
	RealtimeInput *struct {
		MediaChunks []struct {
			Data     string `json:"data"`
			MIMEType string `json:"mimeType"`
		} `json:"mediaChunks"`
	} `json:"realtimeInput"`
}

// DecodeClientMessage parses one client text frame. Exactly one of the three
// message shapes is returned; an empty or unrecognized frame is an error.
func DecodeClientMessage(raw []byte) (ClientMessage, error) {
	var f clientFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decoding client frame: %w", err)
	}

	switch {
	case f.RealtimeInput != nil:
		msg := RealtimeMessage{}
		for _, c := range f.RealtimeInput.MediaChunks {
			data, err := base64.StdEncoding.DecodeString(c.Data)
			if err != nil {
				return nil, fmt.Errorf("decoding media chunk: %w", err)
			}
			msg.Chunks = append(msg.Chunks, MediaMessage{Data: data, MIMEType: c.MIMEType})
		}
		return msg, nil
	case f.Data != "":
		data, err := base64.StdEncoding.DecodeString(f.Data)
		if err != nil {
			return nil, fmt.Errorf("decoding media payload: %w", err)
		}
		return MediaMessage{Data: data, MIMEType: f.MIMEType, Trigger: f.Trigger}, nil
	case f.Text != "":
		return TextMessage{Text: f.Text, Trigger: f.Trigger}, nil
	default:
		return nil, fmt.Errorf("empty client frame")
	}
}

// splitTag extracts a leading "[TAG] " marker from a text payload. ok is
// false when the payload carries no tag.
func splitTag(text string) (tag, payload string, ok bool) {
	if !strings.HasPrefix(text, "[") {
		return "", text, false
	}
	end := strings.Index(text, "] ")
	if end < 0 {
		return "", text, false
	}
	return text[1:end], text[end+2:], true
}

// Relay→client frames. All are JSON text frames keyed by "type".

type serverFrame struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Content   string `json:"content,omitempty"`
	Note      string `json:"note,omitempty"`
	Category  string `json:"category,omitempty"`
	Message   string `json:"message,omitempty"`
}

// SessionStartedFrame announces the assigned session id after upgrade.
func SessionStartedFrame(sessionID string) any {
	return serverFrame{Type: "session_started", SessionID: sessionID}
}

// TextFrame carries model text output.
func TextFrame(content string) any {
	return serverFrame{Type: "text", Content: content}
}

// AudioFrame carries one chunk of model audio, base64 encoded.
func AudioFrame(data []byte) any {
	return serverFrame{Type: "audio", Content: base64.StdEncoding.EncodeToString(data)}
}

// ClinicalNoteFrame surfaces a logged clinical note to the client.
func ClinicalNoteFrame(note, category string) any {
	return serverFrame{Type: "clinical_note", Note: note, Category: category}
}

// ErrorFrame reports a non-fatal relay error to the client.
func ErrorFrame(message string) any {
	return serverFrame{Type: "error", Message: message}
}
