package llm

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExtractJSON_PlainObject(t *testing.T) {
	got, err := ExtractJSON(`{"title": "Rust", "chapters": []}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != `{"title": "Rust", "chapters": []}` {
		t.Fatalf("content altered: %s", got)
	}
}

func TestExtractJSON_MarkdownFences(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"json fence", "Here you go:\n```json\n{\"a\": 1}\n```\nHope that helps!"},
		{"bare fence", "```\n{\"a\": 1}\n```"},
		{"unclosed fence", "```json\n{\"a\": 1}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var parsed map[string]int
			if err := json.Unmarshal(got, &parsed); err != nil {
				t.Fatalf("result not JSON: %v", err)
			}
			if parsed["a"] != 1 {
				t.Fatalf("got %v", parsed)
			}
		})
	}
}

func TestExtractJSON_SurroundingCommentary(t *testing.T) {
	raw := `Sure! Here is the course structure you asked for: {"chapters": [1, 2]} Let me know if you need changes.`
	got, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != `{"chapters": [1, 2]}` {
		t.Fatalf("got %s", got)
	}
}

func TestExtractJSON_TrailingCommas(t *testing.T) {
	raw := `{"mcq": [{"q": "?", "options": ["a", "b",],},], "tf": [],}`
	got, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var parsed map[string]any
	if err := json.Unmarshal(got, &parsed); err != nil {
		t.Fatalf("result not JSON: %v", err)
	}
}

func TestExtractJSON_ControlCharacters(t *testing.T) {
	raw := "{\"summary\": \"line one\x00\x08 continues\", \"n\": 1}"
	got, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var parsed struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal(got, &parsed); err != nil {
		t.Fatalf("result not JSON: %v", err)
	}
	if parsed.Summary != "line one continues" {
		t.Fatalf("summary = %q", parsed.Summary)
	}
}

func TestExtractJSON_TruncationRecovery(t *testing.T) {
	// A response cut off mid-array, as happens at the token limit.
	raw := `{"chapters": [{"number": 1, "title": "Intro"}, {"number": 2, "title": "Deep`
	got, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var parsed struct {
		Chapters []struct {
			Number int `json:"number"`
		} `json:"chapters"`
	}
	if err := json.Unmarshal(got, &parsed); err != nil {
		t.Fatalf("recovered output not JSON: %v", err)
	}
	// Recovery keeps the complete chapters and drops the cut-off one.
	if len(parsed.Chapters) == 0 || parsed.Chapters[0].Number != 1 {
		t.Fatalf("recovered chapters = %+v", parsed.Chapters)
	}
}

func TestExtractJSON_BracesInsideStrings(t *testing.T) {
	raw := `{"question": "What does {x: 1} mean in this snippet: [a, b?", "n": 1}`
	got, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var parsed map[string]any
	if err := json.Unmarshal(got, &parsed); err != nil {
		t.Fatalf("result not JSON: %v", err)
	}
}

func TestExtractJSON_Idempotent(t *testing.T) {
	raw := "```json\n{\"a\": [1, 2,]}\n```"
	first, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	second, err := ExtractJSON(string(first))
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("not idempotent: %s vs %s", first, second)
	}
}

func TestExtractJSON_NoJSONFails(t *testing.T) {
	_, err := ExtractJSON("I'm sorry, I can't produce that course.")
	if err == nil {
		t.Fatal("expected error")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %T", err)
	}
}

func TestExtractor_DumpsRawOnFailure(t *testing.T) {
	dir := t.TempDir()
	e := Extractor{DumpDir: dir}

	_, err := e.Extract("definitely { not json ]")
	if err == nil {
		t.Fatal("expected error")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %T", err)
	}
	if pe.DumpPath == "" {
		t.Fatal("expected dump path in error")
	}
	data, readErr := os.ReadFile(pe.DumpPath)
	if readErr != nil {
		t.Fatalf("read dump: %v", readErr)
	}
	if !strings.Contains(string(data), "not json") {
		t.Fatalf("dump missing raw payload: %s", data)
	}
	if filepath.Dir(pe.DumpPath) != dir {
		t.Fatalf("dump outside configured dir: %s", pe.DumpPath)
	}
}
