package upstream

import (
	"testing"

	"google.golang.org/genai"
)

// The adapter must satisfy both service boundaries.
var (
	_ LiveConnector = (*GeminiClient)(nil)
	_ ChatBackend   = (*GeminiClient)(nil)
	_ LiveChannel   = (*geminiChannel)(nil)
)

func TestToContents_RolesAndOrder(t *testing.T) {
	t.Parallel()
	history := []Turn{
		{Role: "user", Text: "chunk one"},
		{Role: "model", Text: "Ack"},
	}
	contents := toContents(history, "finalize")

	if len(contents) != 3 {
		t.Fatalf("got %d contents, want 3", len(contents))
	}
	wantRoles := []string{"user", "model", "user"}
	wantTexts := []string{"chunk one", "Ack", "finalize"}
	for i, c := range contents {
		if string(c.Role) != wantRoles[i] {
			t.Fatalf("content %d role = %q, want %q", i, c.Role, wantRoles[i])
		}
		if len(c.Parts) != 1 || c.Parts[0].Text != wantTexts[i] {
			t.Fatalf("content %d parts = %+v, want text %q", i, c.Parts, wantTexts[i])
		}
	}
}

func TestToContents_EmptyHistory(t *testing.T) {
	t.Parallel()
	contents := toContents(nil, "hello")
	if len(contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(contents))
	}
	if string(contents[0].Role) != "user" {
		t.Fatalf("prompt role = %q, want user", contents[0].Role)
	}
}

func TestToFunctionDeclarations(t *testing.T) {
	t.Parallel()
	decls := toFunctionDeclarations([]ToolDeclaration{{
		Name:        "log_clinical_note",
		Description: "Record a clinical observation.",
		Params: map[string]ToolParam{
			"note":     {Type: "string", Description: "The observation."},
			"category": {Type: "string", Enum: []string{"form", "pain", "other"}},
		},
		Required: []string{"note"},
	}})

	if len(decls) != 1 {
		t.Fatalf("got %d declarations, want 1", len(decls))
	}
	fd := decls[0]
	if fd.Name != "log_clinical_note" {
		t.Fatalf("Name = %q", fd.Name)
	}
	if fd.Parameters.Type != genai.TypeObject {
		t.Fatalf("Parameters.Type = %q, want OBJECT", fd.Parameters.Type)
	}
	note, ok := fd.Parameters.Properties["note"]
	if !ok || note.Type != genai.TypeString {
		t.Fatalf("note param = %+v", note)
	}
	category, ok := fd.Parameters.Properties["category"]
	if !ok || len(category.Enum) != 3 {
		t.Fatalf("category param = %+v", category)
	}
	if len(fd.Parameters.Required) != 1 || fd.Parameters.Required[0] != "note" {
		t.Fatalf("Required = %v", fd.Parameters.Required)
	}
}
