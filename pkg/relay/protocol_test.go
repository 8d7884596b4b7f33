package relay

import (
	"encoding/base64"
	"encoding/json"
	"testing"
)

func TestDecodeClientMessage_Text(t *testing.T) {
	t.Parallel()
	msg, err := DecodeClientMessage([]byte(`{"text": "hello", "trigger": true}`))
	if err != nil {
		t.Fatalf("DecodeClientMessage error: %v", err)
	}
	tm, ok := msg.(TextMessage)
	if !ok {
		t.Fatalf("decoded %T, want TextMessage", msg)
	}
	if tm.Text != "hello" || !tm.Trigger {
		t.Fatalf("decoded %+v", tm)
	}
}

func TestDecodeClientMessage_Media(t *testing.T) {
	t.Parallel()
	payload := base64.StdEncoding.EncodeToString([]byte("jpegdata"))
	raw, _ := json.Marshal(map[string]any{
		"data":      payload,
		"mime_type": "image/jpeg",
		"trigger":   true,
	})

	msg, err := DecodeClientMessage(raw)
	if err != nil {
		t.Fatalf("DecodeClientMessage error: %v", err)
	}
	mm, ok := msg.(MediaMessage)
	if !ok {
		t.Fatalf("decoded %T, want MediaMessage", msg)
	}
	if string(mm.Data) != "jpegdata" || mm.MIMEType != "image/jpeg" || !mm.Trigger {
		t.Fatalf("decoded %+v", mm)
	}
}

func TestDecodeClientMessage_RealtimeInput(t *testing.T) {
	t.Parallel()
	chunk := base64.StdEncoding.EncodeToString([]byte("pcm"))
	raw := []byte(`{"realtimeInput": {"mediaChunks": [{"data": "` + chunk + `", "mimeType": "audio/pcm"}]}}`)

	msg, err := DecodeClientMessage(raw)
	if err != nil {
		t.Fatalf("DecodeClientMessage error: %v", err)
	}
	rm, ok := msg.(RealtimeMessage)
	if !ok {
		t.Fatalf("decoded %T, want RealtimeMessage", msg)
	}
	if len(rm.Chunks) != 1 || string(rm.Chunks[0].Data) != "pcm" || rm.Chunks[0].MIMEType != "audio/pcm" {
		t.Fatalf("decoded %+v", rm)
	}
}

func TestDecodeClientMessage_Rejects(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{
		`not json`,
		`{}`,
		`{"data": "!!! not base64 !!!", "mime_type": "image/jpeg"}`,
	} {
		if _, err := DecodeClientMessage([]byte(raw)); err == nil {
			t.Fatalf("DecodeClientMessage(%q) succeeded, want error", raw)
		}
	}
}

func TestSplitTag(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in      string
		tag     string
		payload string
		ok      bool
	}{
		{"[POSE_DATA] [{\"x\":1}]", "POSE_DATA", "[{\"x\":1}]", true},
		{"[EVENT] Rep Completed", "EVENT", "Rep Completed", true},
		{"plain text", "", "plain text", false},
		{"[unterminated", "", "[unterminated", false},
	}
	for _, tc := range cases {
		tag, payload, ok := splitTag(tc.in)
		if tag != tc.tag || payload != tc.payload || ok != tc.ok {
			t.Fatalf("splitTag(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tc.in, tag, payload, ok, tc.tag, tc.payload, tc.ok)
		}
	}
}

func TestServerFrames(t *testing.T) {
	t.Parallel()
	raw, err := json.Marshal(AudioFrame([]byte{1, 2, 3}))
	if err != nil {
		t.Fatalf("marshal audio frame: %v", err)
	}
	var decoded map[string]string
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal audio frame: %v", err)
	}
	if decoded["type"] != "audio" {
		t.Fatalf("audio frame type = %q", decoded["type"])
	}
	if got, _ := base64.StdEncoding.DecodeString(decoded["content"]); string(got) != "\x01\x02\x03" {
		t.Fatalf("audio frame content = %q", decoded["content"])
	}

	raw, _ = json.Marshal(ClinicalNoteFrame("elbow flare", "form"))
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal note frame: %v", err)
	}
	if decoded["type"] != "clinical_note" || decoded["note"] != "elbow flare" || decoded["category"] != "form" {
		t.Fatalf("note frame = %v", decoded)
	}
}
