package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestNormalizeTopic(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Rust Programming", "rust programming"},
		{"  rust   PROGRAMMING  ", "rust programming"},
		{"rust programming", "rust programming"},
	}
	for _, tt := range tests {
		if got := NormalizeTopic(tt.in); got != tt.want {
			t.Errorf("NormalizeTopic(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCourseUpsertAndGet(t *testing.T) {
	s := openTestStore(t)
	repo := s.CourseRepo()
	ctx := context.Background()

	got, err := repo.Get(ctx, "rust programming", "beginner")
	if err != nil {
		t.Fatalf("get (empty): %v", err)
	}
	if got != nil {
		t.Fatal("expected nil course when none exist")
	}

	now := time.Now().UTC().Truncate(time.Second)
	rec := &CourseRecord{
		ID:         uuid.NewString(),
		Topic:      "Rust Programming",
		Difficulty: "beginner",
		Title:      "Rust Programming for Beginners",
		Payload:    json.RawMessage(`{"chapters":[]}`),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := repo.Upsert(ctx, rec); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// Lookup normalizes the topic, so spacing and case don't matter.
	got, err = repo.Get(ctx, "  RUST   programming ", "beginner")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected course after upsert")
	}
	if got.Title != rec.Title {
		t.Errorf("title = %q, want %q", got.Title, rec.Title)
	}

	// A second upsert for the same key replaces, not duplicates.
	rec2 := *rec
	rec2.ID = uuid.NewString()
	rec2.Title = "Rust, Revised"
	if err := repo.Upsert(ctx, &rec2); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var count int
	if err := s.DB().QueryRow("SELECT COUNT(*) FROM courses").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("course rows = %d, want 1", count)
	}

	got, err = repo.Get(ctx, "rust programming", "beginner")
	if err != nil {
		t.Fatalf("get after replace: %v", err)
	}
	if got.Title != "Rust, Revised" {
		t.Errorf("title = %q, want replaced title", got.Title)
	}
}

func TestSaveCourseForUser(t *testing.T) {
	s := openTestStore(t)
	repo := s.CourseRepo()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	course := &CourseRecord{
		ID:         uuid.NewString(),
		Topic:      "graph theory",
		Difficulty: "advanced",
		Title:      "Graph Theory",
		Payload:    json.RawMessage(`{}`),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := repo.Upsert(ctx, course); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	err := repo.SaveForUser(ctx, &UserCourseRecord{
		ID:       uuid.NewString(),
		UserID:   "user-1",
		CourseID: course.ID,
		SavedAt:  now,
	})
	if err != nil {
		t.Fatalf("save for user: %v", err)
	}

	list, err := repo.ListForUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("list for user: %v", err)
	}
	if len(list) != 1 || list[0].CourseID != course.ID {
		t.Fatalf("list = %+v, want one record for course %s", list, course.ID)
	}

	list, err = repo.ListForUser(ctx, "user-2")
	if err != nil {
		t.Fatalf("list for other user: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("other user has %d courses, want 0", len(list))
	}
}

func TestQuestionBatchLifecycle(t *testing.T) {
	s := openTestStore(t)
	repo := s.QuestionRepo()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	for i, concept := range []string{"ownership", "borrowing", "lifetimes"} {
		err := repo.SaveBatch(ctx, &QuestionBatchRecord{
			ID:            uuid.NewString(),
			Topic:         "rust",
			Difficulty:    "intermediate",
			ChapterNumber: 2,
			KeyConcept:    concept,
			Payload:       json.RawMessage(`{"mcq":[],"true_false":[]}`),
			CreatedAt:     now.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("save batch %q: %v", concept, err)
		}
	}

	batches, err := repo.ListBatches(ctx, "rust", "intermediate", 2)
	if err != nil {
		t.Fatalf("list batches: %v", err)
	}
	if len(batches) != 3 {
		t.Fatalf("batches = %d, want 3", len(batches))
	}
	if batches[0].KeyConcept != "ownership" {
		t.Errorf("first batch = %q, want insertion order", batches[0].KeyConcept)
	}

	if err := repo.DeleteBatches(ctx, "rust", "intermediate", 2); err != nil {
		t.Fatalf("delete batches: %v", err)
	}
	batches, err = repo.ListBatches(ctx, "rust", "intermediate", 2)
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	if len(batches) != 0 {
		t.Errorf("batches after delete = %d, want 0", len(batches))
	}
}

func TestChapterQuestionsUpsert(t *testing.T) {
	s := openTestStore(t)
	repo := s.QuestionRepo()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	rec := &ChapterQuestionsRecord{
		ID:            uuid.NewString(),
		Topic:         "rust",
		Difficulty:    "beginner",
		ChapterNumber: 1,
		Payload:       json.RawMessage(`{"mcq":[{"question":"?"}]}`),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := repo.UpsertChapter(ctx, rec); err != nil {
		t.Fatalf("upsert chapter: %v", err)
	}

	got, err := repo.GetChapter(ctx, "Rust", "beginner", 1)
	if err != nil {
		t.Fatalf("get chapter: %v", err)
	}
	if got == nil {
		t.Fatal("expected chapter questions after upsert")
	}

	got, err = repo.GetChapter(ctx, "rust", "beginner", 99)
	if err != nil {
		t.Fatalf("get missing chapter: %v", err)
	}
	if got != nil {
		t.Error("expected nil for missing chapter")
	}
}

func TestTokenUsageAppendAndSummarize(t *testing.T) {
	s := openTestStore(t)
	repo := s.TokenUsageRepo()
	ctx := context.Background()
	now := time.Now().UTC()

	records := []TokenUsageRecord{
		{Timestamp: now, UserID: "u1", Operation: "chapter_generation", Provider: "gemini", Model: "gemini-2.0-flash", TotalTokens: 100, Success: true},
		{Timestamp: now, UserID: "u1", Operation: "chapter_generation", Provider: "gemini", Model: "gemini-2.0-flash", TotalTokens: 150, Success: true},
		{Timestamp: now, UserID: "u2", Operation: "question_generation", Provider: "anthropic", Model: "claude-sonnet", TotalTokens: 900, Success: true},
		// Failed requests are recorded with zero tokens.
		{Timestamp: now, UserID: "u1", Operation: "question_generation", Provider: "gemini", Model: "gemini-2.0-flash", TotalTokens: 0, Success: false},
	}
	for i, rec := range records {
		if err := repo.Append(ctx, rec); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	all, err := repo.Summarize(ctx, "")
	if err != nil {
		t.Fatalf("summarize all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("summary groups = %d, want 3", len(all))
	}

	u1, err := repo.Summarize(ctx, "u1")
	if err != nil {
		t.Fatalf("summarize u1: %v", err)
	}
	var chapterTokens int
	for _, s := range u1 {
		if s.Operation == "chapter_generation" {
			chapterTokens = s.TotalTokens
		}
	}
	if chapterTokens != 250 {
		t.Errorf("u1 chapter tokens = %d, want 250", chapterTokens)
	}
}

func TestAnalysisTTL(t *testing.T) {
	s := openTestStore(t)
	repo := s.AnalysisRepo()
	ctx := context.Background()
	now := time.Now().UTC()

	live := &AnalysisRecord{
		ID:        uuid.NewString(),
		UserID:    "u1",
		Payload:   json.RawMessage(`{"sections":[]}`),
		CreatedAt: now,
		ExpiresAt: now.Add(30 * time.Minute),
	}
	if err := repo.Put(ctx, live); err != nil {
		t.Fatalf("put live: %v", err)
	}

	expired := &AnalysisRecord{
		ID:        uuid.NewString(),
		UserID:    "u1",
		Payload:   json.RawMessage(`{"sections":[]}`),
		CreatedAt: now.Add(-1 * time.Hour),
		ExpiresAt: now.Add(-30 * time.Minute),
	}
	if err := repo.Put(ctx, expired); err != nil {
		t.Fatalf("put expired: %v", err)
	}

	got, err := repo.Get(ctx, live.ID)
	if err != nil {
		t.Fatalf("get live: %v", err)
	}
	if got == nil {
		t.Fatal("expected live record")
	}

	got, err = repo.Get(ctx, expired.ID)
	if err != nil {
		t.Fatalf("get expired: %v", err)
	}
	if got != nil {
		t.Fatal("expected expired record to read as absent")
	}

	// The expired row is also removed.
	var count int
	if err := s.DB().QueryRow("SELECT COUNT(*) FROM document_analyses WHERE id = ?", expired.ID).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Error("expired record should be deleted on read")
	}
}

func TestGapQuizCacheKeyExactness(t *testing.T) {
	s := openTestStore(t)
	repo := s.GapQuizRepo()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	key := GapQuizKey{
		UserID:       "u1",
		CourseSlug:   "rust-programming-beginner",
		WeakAreaHash: "abc123",
		IncludeHints: false,
	}
	err := repo.Put(ctx, &GapQuizRecord{
		ID:        uuid.NewString(),
		Key:       key,
		Payload:   json.RawMessage(`{"questions":[]}`),
		CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := repo.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected cache hit for exact key")
	}

	// Asking with hints misses a without-hints entry.
	withHints := key
	withHints.IncludeHints = true
	got, err = repo.Get(ctx, withHints)
	if err != nil {
		t.Fatalf("get with hints: %v", err)
	}
	if got != nil {
		t.Error("expected miss when include_hints differs")
	}

	// A different weak-area hash misses too.
	otherHash := key
	otherHash.WeakAreaHash = "def456"
	got, err = repo.Get(ctx, otherHash)
	if err != nil {
		t.Fatalf("get other hash: %v", err)
	}
	if got != nil {
		t.Error("expected miss when hash differs")
	}
}

func TestReset(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	course := &CourseRecord{
		ID:         uuid.NewString(),
		Topic:      "rust",
		Difficulty: "beginner",
		Title:      "Rust",
		Payload:    json.RawMessage(`{}`),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.CourseRepo().Upsert(ctx, course); err != nil {
		t.Fatalf("upsert course: %v", err)
	}
	err := s.CourseRepo().SaveForUser(ctx, &UserCourseRecord{
		ID:       uuid.NewString(),
		UserID:   "u1",
		CourseID: course.ID,
		SavedAt:  now,
	})
	if err != nil {
		t.Fatalf("save for user: %v", err)
	}
	err = s.QuestionRepo().UpsertChapter(ctx, &ChapterQuestionsRecord{
		ID:            uuid.NewString(),
		Topic:         "rust",
		Difficulty:    "beginner",
		ChapterNumber: 1,
		Payload:       json.RawMessage(`{}`),
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		t.Fatalf("upsert chapter: %v", err)
	}
	err = s.TokenUsageRepo().Append(ctx, TokenUsageRecord{
		Timestamp: now, Operation: "chapter_generation",
		Provider: "gemini", Model: "gemini-2.0-flash",
		TotalTokens: 100, Success: true,
	})
	if err != nil {
		t.Fatalf("append usage: %v", err)
	}

	// Reset only courses; question pools and the usage ledger survive.
	if err := s.Reset(ctx, ResetOptions{Courses: true}); err != nil {
		t.Fatalf("reset: %v", err)
	}

	rowCount := func(table string) int {
		t.Helper()
		var n int
		if err := s.DB().QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		return n
	}
	if n := rowCount("courses"); n != 0 {
		t.Errorf("courses after reset = %d, want 0", n)
	}
	if n := rowCount("user_courses"); n != 0 {
		t.Errorf("user_courses after reset = %d, want 0", n)
	}
	if n := rowCount("questions"); n != 1 {
		t.Errorf("questions after reset = %d, want 1", n)
	}
	if n := rowCount("token_usage"); n != 1 {
		t.Errorf("token_usage after reset = %d, want 1", n)
	}

	if err := s.Reset(ctx, ResetOptions{Questions: true, Usage: true}); err != nil {
		t.Fatalf("second reset: %v", err)
	}
	if n := rowCount("questions"); n != 0 {
		t.Errorf("questions after second reset = %d, want 0", n)
	}
	if n := rowCount("token_usage"); n != 0 {
		t.Errorf("token_usage after second reset = %d, want 0", n)
	}
}
