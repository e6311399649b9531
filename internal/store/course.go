package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// courseRepo implements CourseRepo backed by SQLite.
type courseRepo struct {
	db *sql.DB
}

func (r *courseRepo) Upsert(ctx context.Context, rec *CourseRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO courses (id, topic, normalized_topic, difficulty, title, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (normalized_topic, difficulty) DO UPDATE SET
			topic = excluded.topic,
			title = excluded.title,
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		rec.ID, rec.Topic, NormalizeTopic(rec.Topic), rec.Difficulty,
		rec.Title, string(rec.Payload), rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert course: %w", err)
	}
	return nil
}

func (r *courseRepo) Get(ctx context.Context, topic, difficulty string) (*CourseRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, topic, difficulty, title, payload, created_at, updated_at
		FROM courses
		WHERE normalized_topic = ? AND difficulty = ?`,
		NormalizeTopic(topic), difficulty)

	var rec CourseRecord
	var payload string
	err := row.Scan(&rec.ID, &rec.Topic, &rec.Difficulty, &rec.Title,
		&payload, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get course: %w", err)
	}
	rec.Payload = []byte(payload)
	return &rec, nil
}

func (r *courseRepo) SaveForUser(ctx context.Context, rec *UserCourseRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_courses (id, user_id, course_id, saved_at)
		VALUES (?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.CourseID, rec.SavedAt)
	if err != nil {
		return fmt.Errorf("save course for user: %w", err)
	}
	return nil
}

func (r *courseRepo) ListForUser(ctx context.Context, userID string) ([]UserCourseRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, course_id, saved_at
		FROM user_courses
		WHERE user_id = ?
		ORDER BY saved_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list courses for user: %w", err)
	}
	defer rows.Close()

	var out []UserCourseRecord
	for rows.Next() {
		var rec UserCourseRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.CourseID, &rec.SavedAt); err != nil {
			return nil, fmt.Errorf("scan user course: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
