package store

import (
	"context"
	"encoding/json"
	"time"
)

// CourseRecord is a generated course cached by (topic, difficulty).
// Payload holds the full course document (chapters, config, hours) as
// produced by the generation pipeline.
type CourseRecord struct {
	ID         string
	Topic      string
	Difficulty string
	Title      string
	Payload    json.RawMessage
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// UserCourseRecord links a user to a course they saved.
type UserCourseRecord struct {
	ID       string
	UserID   string
	CourseID string
	SavedAt  time.Time
}

// CourseRepo manages the shared course cache and per-user saves.
type CourseRepo interface {
	// Upsert inserts or replaces the course cached for its
	// (normalized topic, difficulty) key.
	Upsert(ctx context.Context, rec *CourseRecord) error

	// Get returns the cached course for (topic, difficulty),
	// or nil if none exists.
	Get(ctx context.Context, topic, difficulty string) (*CourseRecord, error)

	// SaveForUser records that a user saved a course.
	SaveForUser(ctx context.Context, rec *UserCourseRecord) error

	// ListForUser returns the courses a user has saved, newest first.
	ListForUser(ctx context.Context, userID string) ([]UserCourseRecord, error)
}

// ChapterQuestionsRecord holds the question pool for one chapter.
type ChapterQuestionsRecord struct {
	ID            string
	Topic         string
	Difficulty    string
	ChapterNumber int
	Payload       json.RawMessage
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// QuestionBatchRecord holds the questions generated for a single key
// concept during chunked generation, persisted before aggregation so a
// late failure loses at most one concept's work.
type QuestionBatchRecord struct {
	ID            string
	Topic         string
	Difficulty    string
	ChapterNumber int
	KeyConcept    string
	Payload       json.RawMessage
	CreatedAt     time.Time
}

// QuestionRepo manages chapter question pools and chunked batches.
type QuestionRepo interface {
	// UpsertChapter inserts or replaces the question pool for its
	// (normalized topic, difficulty, chapter) key.
	UpsertChapter(ctx context.Context, rec *ChapterQuestionsRecord) error

	// GetChapter returns the question pool for a chapter, or nil.
	GetChapter(ctx context.Context, topic, difficulty string, chapter int) (*ChapterQuestionsRecord, error)

	// SaveBatch persists one concept's questions during chunked generation.
	SaveBatch(ctx context.Context, rec *QuestionBatchRecord) error

	// ListBatches returns all batches for a chapter in insertion order.
	ListBatches(ctx context.Context, topic, difficulty string, chapter int) ([]QuestionBatchRecord, error)

	// DeleteBatches removes all batches for a chapter after aggregation.
	DeleteBatches(ctx context.Context, topic, difficulty string, chapter int) error
}

// TokenUsageRecord captures one LLM request for the usage ledger.
type TokenUsageRecord struct {
	Timestamp    time.Time
	UserID       string
	Operation    string
	Provider     string
	Model        string
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	LatencyMs    int64
	Success      bool
	Context      string
	CourseID     string
}

// TokenUsageSummary aggregates ledger rows by operation, provider and
// model. Input and output tokens are kept separate so callers can price
// them independently.
type TokenUsageSummary struct {
	Operation    string
	Provider     string
	Model        string
	Requests     int
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// TokenUsageRepo provides append access to the token usage ledger.
type TokenUsageRepo interface {
	// Append records one LLM request. Usage is recorded even when the
	// request failed or token counts are zero.
	Append(ctx context.Context, rec TokenUsageRecord) error

	// Summarize aggregates usage by operation, provider and model. An
	// empty userID aggregates across all users.
	Summarize(ctx context.Context, userID string) ([]TokenUsageSummary, error)
}

// AnalysisRecord stages a document structure analysis between the
// detection and confirmation phases. Records expire after their TTL.
type AnalysisRecord struct {
	ID        string
	UserID    string
	Payload   json.RawMessage
	CreatedAt time.Time
	ExpiresAt time.Time
}

// AnalysisRepo manages staged document analyses.
type AnalysisRepo interface {
	// Put stores a staging record.
	Put(ctx context.Context, rec *AnalysisRecord) error

	// Get returns the record by ID, or nil when absent or expired.
	// Expired records are deleted on read.
	Get(ctx context.Context, id string) (*AnalysisRecord, error)

	// Delete removes a staging record once confirmation has consumed it.
	Delete(ctx context.Context, id string) error
}

// GapQuizKey identifies one cached gap quiz.
type GapQuizKey struct {
	UserID       string
	CourseSlug   string
	WeakAreaHash string
	IncludeHints bool
}

// GapQuizRecord caches a generated gap quiz for its exact key.
type GapQuizRecord struct {
	ID        string
	Key       GapQuizKey
	Payload   json.RawMessage
	CreatedAt time.Time
}

// GapQuizRepo manages the gap quiz cache.
type GapQuizRepo interface {
	// Get returns the cached quiz for the exact key, or nil.
	Get(ctx context.Context, key GapQuizKey) (*GapQuizRecord, error)

	// Put inserts or replaces the cached quiz for its key.
	Put(ctx context.Context, rec *GapQuizRecord) error
}
