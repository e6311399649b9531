package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store wraps the SQLite database and provides access to repositories.
type Store struct {
	db *sql.DB
}

// Open creates a new Store connected to the SQLite database at dsn.
// It applies recommended pragmas and runs migrations.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{db: db}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CourseRepo returns a CourseRepo backed by this store.
func (s *Store) CourseRepo() CourseRepo {
	return &courseRepo{db: s.db}
}

// QuestionRepo returns a QuestionRepo backed by this store.
func (s *Store) QuestionRepo() QuestionRepo {
	return &questionRepo{db: s.db}
}

// TokenUsageRepo returns a TokenUsageRepo backed by this store.
func (s *Store) TokenUsageRepo() TokenUsageRepo {
	return &tokenUsageRepo{db: s.db}
}

// AnalysisRepo returns an AnalysisRepo backed by this store.
func (s *Store) AnalysisRepo() AnalysisRepo {
	return &analysisRepo{db: s.db}
}

// GapQuizRepo returns a GapQuizRepo backed by this store.
func (s *Store) GapQuizRepo() GapQuizRepo {
	return &gapQuizRepo{db: s.db}
}

// ResetOptions selects which data a Reset removes.
type ResetOptions struct {
	Courses    bool // cached courses and user saves
	Questions  bool // chapter pools and concept batches
	Analyses   bool // staged document analyses
	GapQuizzes bool
	Usage      bool // token usage ledger
}

// Reset deletes the selected data. Table order honors the foreign key
// from user saves to courses.
func (s *Store) Reset(ctx context.Context, opts ResetOptions) error {
	var tables []string
	if opts.Courses {
		tables = append(tables, "user_courses", "courses")
	}
	if opts.Questions {
		tables = append(tables, "questions", "question_batches")
	}
	if opts.Analyses {
		tables = append(tables, "document_analyses")
	}
	if opts.GapQuizzes {
		tables = append(tables, "gap_quiz_cache")
	}
	if opts.Usage {
		tables = append(tables, "token_usage")
	}
	for _, t := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+t); err != nil {
			return fmt.Errorf("reset %s: %w", t, err)
		}
	}
	return nil
}

// applyPragmas configures SQLite for reliable local operation.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// migrate creates the schema. Statements are idempotent so migrate can
// run on every Open.
func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS courses (
			id               TEXT PRIMARY KEY,
			topic            TEXT NOT NULL,
			normalized_topic TEXT NOT NULL,
			difficulty       TEXT NOT NULL,
			title            TEXT NOT NULL,
			payload          TEXT NOT NULL,
			created_at       TIMESTAMP NOT NULL,
			updated_at       TIMESTAMP NOT NULL,
			UNIQUE (normalized_topic, difficulty)
		)`,
		`CREATE TABLE IF NOT EXISTS user_courses (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			course_id  TEXT NOT NULL REFERENCES courses(id),
			saved_at   TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_user_courses_user ON user_courses(user_id)`,
		`CREATE TABLE IF NOT EXISTS questions (
			id               TEXT PRIMARY KEY,
			normalized_topic TEXT NOT NULL,
			difficulty       TEXT NOT NULL,
			chapter_number   INTEGER NOT NULL,
			payload          TEXT NOT NULL,
			created_at       TIMESTAMP NOT NULL,
			updated_at       TIMESTAMP NOT NULL,
			UNIQUE (normalized_topic, difficulty, chapter_number)
		)`,
		`CREATE TABLE IF NOT EXISTS question_batches (
			id               TEXT PRIMARY KEY,
			normalized_topic TEXT NOT NULL,
			difficulty       TEXT NOT NULL,
			chapter_number   INTEGER NOT NULL,
			key_concept      TEXT NOT NULL,
			payload          TEXT NOT NULL,
			created_at       TIMESTAMP NOT NULL,
			UNIQUE (normalized_topic, difficulty, chapter_number, key_concept)
		)`,
		`CREATE TABLE IF NOT EXISTS token_usage (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			ts            TIMESTAMP NOT NULL,
			user_id       TEXT NOT NULL DEFAULT '',
			operation     TEXT NOT NULL,
			provider      TEXT NOT NULL,
			model         TEXT NOT NULL,
			input_tokens  INTEGER NOT NULL,
			output_tokens INTEGER NOT NULL,
			total_tokens  INTEGER NOT NULL,
			latency_ms    INTEGER NOT NULL,
			success       INTEGER NOT NULL,
			context       TEXT NOT NULL DEFAULT '',
			course_id     TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_token_usage_user ON token_usage(user_id)`,
		`CREATE TABLE IF NOT EXISTS document_analyses (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL DEFAULT '',
			payload    TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			expires_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS gap_quiz_cache (
			id              TEXT PRIMARY KEY,
			user_id         TEXT NOT NULL,
			course_slug     TEXT NOT NULL,
			weak_areas_hash TEXT NOT NULL,
			include_hints   INTEGER NOT NULL,
			payload         TEXT NOT NULL,
			created_at      TIMESTAMP NOT NULL,
			UNIQUE (user_id, course_slug, weak_areas_hash, include_hints)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// NormalizeTopic canonicalizes a topic for cache keys: lowercase,
// trimmed, inner whitespace collapsed. "  Rust   Programming " and
// "rust programming" hit the same cached course.
func NormalizeTopic(topic string) string {
	return strings.Join(strings.Fields(strings.ToLower(topic)), " ")
}

// DefaultDBPath resolves the database file path in priority order:
// 1. COURSEFORGE_DB environment variable
// 2. $XDG_DATA_HOME/courseforge/courseforge.db
// 3. ~/.local/share/courseforge/courseforge.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("COURSEFORGE_DB"); p != "" {
		return p, ensureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "courseforge", "courseforge.db")
	return p, ensureDir(p)
}

// ensureDir creates the parent directory of path if it doesn't exist.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
