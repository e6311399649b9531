package docanalyze

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"courseforge/internal/llm"
	"courseforge/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// outlineJSON builds a model response with n sections.
func outlineJSON(title string, n int) llm.MockResponse {
	var sections []string
	for i := 1; i <= n; i++ {
		sections = append(sections, fmt.Sprintf(
			`{"order":%d,"title":"%s Section %d","summary":"covers things","key_topics":["t1","t2","t3"],"confidence":0.9}`,
			i, title, i))
	}
	content := fmt.Sprintf(
		`{"document_title":%q,"document_type":"textbook","total_sections":%d,"estimated_total_time_minutes":60,"analysis_notes":"clean structure","sections":[%s]}`,
		title, n, strings.Join(sections, ","))
	return llm.MockResponse{Content: []byte(content)}
}

func newTestAnalyzer(t *testing.T, mock *llm.MockProvider) (*Analyzer, *store.Store) {
	t.Helper()
	s := openTestStore(t)
	return New(mock, &llm.Extractor{}, s.AnalysisRepo(), nil, DefaultConfig()), s
}

func TestAnalyzeRenumbersAcrossFiles(t *testing.T) {
	mock := llm.NewMockProvider(outlineJSON("Networks", 3), outlineJSON("Security", 2))
	a, _ := newTestAnalyzer(t, mock)

	staged, err := a.Analyze(context.Background(), []File{
		{Name: "networks.pdf", Text: "network fundamentals text", CharCount: 25},
		{Name: "security.pdf", Text: "security text", CharCount: 13},
	}, "u1")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if staged.Outline.TotalSections != 5 {
		t.Fatalf("total sections = %d, want 5", staged.Outline.TotalSections)
	}
	for i, s := range staged.Outline.Sections {
		if s.Order != i+1 {
			t.Errorf("section %d has order %d, want sequential numbering", i, s.Order)
		}
	}
	for _, s := range staged.Outline.Sections[:3] {
		if s.SourceFile != "networks.pdf" {
			t.Errorf("section %q source = %q, want networks.pdf", s.Title, s.SourceFile)
		}
	}
	for _, s := range staged.Outline.Sections[3:] {
		if s.SourceFile != "security.pdf" {
			t.Errorf("section %q source = %q, want security.pdf", s.Title, s.SourceFile)
		}
	}

	if staged.Outline.DocumentTitle != "Networks + Security" {
		t.Errorf("combined title = %q", staged.Outline.DocumentTitle)
	}
	if staged.Outline.EstimatedMinutes != 120 {
		t.Errorf("estimated minutes = %d, want summed 120", staged.Outline.EstimatedMinutes)
	}
	// Files must be analyzed separately, never concatenated.
	if mock.CallCount() != 2 {
		t.Errorf("provider calls = %d, want one per file", mock.CallCount())
	}
}

func TestAnalyzeStagesRecord(t *testing.T) {
	mock := llm.NewMockProvider(outlineJSON("Go", 3))
	a, s := newTestAnalyzer(t, mock)

	before := time.Now().UTC()
	staged, err := a.Analyze(context.Background(), []File{{Name: "go.txt", Text: "go basics", CharCount: 9}}, "u1")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if staged.AnalysisID == "" {
		t.Fatal("no analysis ID returned")
	}
	ttl := staged.ExpiresAt.Sub(before)
	if ttl < 29*time.Minute || ttl > 31*time.Minute {
		t.Errorf("staging TTL = %v, want ~30m", ttl)
	}

	rec, err := s.AnalysisRepo().Get(context.Background(), staged.AnalysisID)
	if err != nil {
		t.Fatalf("Get staging record: %v", err)
	}
	if rec == nil {
		t.Fatal("staging record not persisted")
	}
	if rec.UserID != "u1" {
		t.Errorf("staged user = %q", rec.UserID)
	}
}

func TestAnalyzeSingleFileKeepsTitle(t *testing.T) {
	mock := llm.NewMockProvider(outlineJSON("Solo Document", 3))
	a, _ := newTestAnalyzer(t, mock)

	staged, err := a.Analyze(context.Background(), []File{{Name: "solo.txt", Text: "text", CharCount: 4}}, "")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if staged.Outline.DocumentTitle != "Solo Document" {
		t.Errorf("title = %q, want the sole document's title unchanged", staged.Outline.DocumentTitle)
	}
}

func TestAnalyzeFallsBackToPatternDetection(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{}})
	a, _ := newTestAnalyzer(t, mock)

	text := "Intro to Databases\n\nChapter 1: Relational Model\nTables hold rows. Keys identify rows uniquely in every table design.\n\nChapter 2: Transactions\nTransactions group writes. Isolation levels trade consistency for speed in concurrent systems."
	staged, err := a.Analyze(context.Background(), []File{{Name: "db.txt", Text: text, CharCount: len(text)}}, "u1")
	if err != nil {
		t.Fatalf("fallback analysis failed: %v", err)
	}
	if len(staged.Outline.Sections) == 0 {
		t.Fatal("pattern fallback detected no sections")
	}
}

func TestAnalyzeDropsNonContentSections(t *testing.T) {
	resp := llm.MockResponse{Content: []byte(`{
		"document_title": "Book",
		"document_type": "textbook",
		"sections": [
			{"order":1,"title":"Table of Contents","summary":"","key_topics":[],"confidence":0.9},
			{"order":2,"title":"The Actual Material","summary":"real content","key_topics":["x"],"confidence":0.9},
			{"order":3,"title":"Bibliography","summary":"","key_topics":[],"confidence":0.9}
		]
	}`)}
	mock := llm.NewMockProvider(resp)
	a, _ := newTestAnalyzer(t, mock)

	staged, err := a.Analyze(context.Background(), []File{{Name: "b.txt", Text: "text", CharCount: 4}}, "")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(staged.Outline.Sections) != 1 || staged.Outline.Sections[0].Title != "The Actual Material" {
		t.Errorf("sections after denylist = %+v, want only the content section", staged.Outline.Sections)
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	s := strings.Repeat("é", 10) // two bytes per rune

	if got := truncate(s, 20); got != s {
		t.Errorf("truncate at exact length changed the string: %q", got)
	}
	got := truncate(s, 11) // lands mid-rune
	if !utf8.ValidString(got) {
		t.Errorf("truncate produced invalid UTF-8: %q", got)
	}
	if len(got) != 10 {
		t.Errorf("len = %d, want 10 (backed up to the rune boundary)", len(got))
	}
	if got := truncate("ascii", 3); got != "asc" {
		t.Errorf("ascii truncate = %q, want %q", got, "asc")
	}
}

func TestCombinedTitle(t *testing.T) {
	cases := []struct {
		titles []string
		want   string
	}{
		{[]string{"A"}, "A"},
		{[]string{"A", "B"}, "A + B"},
		{[]string{"A", "B", "C"}, "A + B + C"},
		{[]string{"A", "B", "C", "D", "E"}, "A + B + C (+2 more)"},
	}
	for _, tc := range cases {
		if got := combinedTitle(tc.titles); got != tc.want {
			t.Errorf("combinedTitle(%v) = %q, want %q", tc.titles, got, tc.want)
		}
	}
}
