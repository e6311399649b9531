package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// gapQuizRepo implements GapQuizRepo backed by SQLite.
type gapQuizRepo struct {
	db *sql.DB
}

func (r *gapQuizRepo) Get(ctx context.Context, key GapQuizKey) (*GapQuizRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, course_slug, weak_areas_hash, include_hints, payload, created_at
		FROM gap_quiz_cache
		WHERE user_id = ? AND course_slug = ? AND weak_areas_hash = ? AND include_hints = ?`,
		key.UserID, key.CourseSlug, key.WeakAreaHash, key.IncludeHints)

	var rec GapQuizRecord
	var payload string
	err := row.Scan(&rec.ID, &rec.Key.UserID, &rec.Key.CourseSlug,
		&rec.Key.WeakAreaHash, &rec.Key.IncludeHints, &payload, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get gap quiz: %w", err)
	}
	rec.Payload = []byte(payload)
	return &rec, nil
}

func (r *gapQuizRepo) Put(ctx context.Context, rec *GapQuizRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO gap_quiz_cache (id, user_id, course_slug, weak_areas_hash, include_hints, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, course_slug, weak_areas_hash, include_hints) DO UPDATE SET
			payload = excluded.payload,
			created_at = excluded.created_at`,
		rec.ID, rec.Key.UserID, rec.Key.CourseSlug, rec.Key.WeakAreaHash,
		rec.Key.IncludeHints, string(rec.Payload), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("put gap quiz: %w", err)
	}
	return nil
}
