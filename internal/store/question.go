package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// questionRepo implements QuestionRepo backed by SQLite.
type questionRepo struct {
	db *sql.DB
}

func (r *questionRepo) UpsertChapter(ctx context.Context, rec *ChapterQuestionsRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO questions (id, normalized_topic, difficulty, chapter_number, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (normalized_topic, difficulty, chapter_number) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		rec.ID, NormalizeTopic(rec.Topic), rec.Difficulty, rec.ChapterNumber,
		string(rec.Payload), rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert chapter questions: %w", err)
	}
	return nil
}

func (r *questionRepo) GetChapter(ctx context.Context, topic, difficulty string, chapter int) (*ChapterQuestionsRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, normalized_topic, difficulty, chapter_number, payload, created_at, updated_at
		FROM questions
		WHERE normalized_topic = ? AND difficulty = ? AND chapter_number = ?`,
		NormalizeTopic(topic), difficulty, chapter)

	var rec ChapterQuestionsRecord
	var payload string
	err := row.Scan(&rec.ID, &rec.Topic, &rec.Difficulty, &rec.ChapterNumber,
		&payload, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chapter questions: %w", err)
	}
	rec.Payload = []byte(payload)
	return &rec, nil
}

func (r *questionRepo) SaveBatch(ctx context.Context, rec *QuestionBatchRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO question_batches (id, normalized_topic, difficulty, chapter_number, key_concept, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (normalized_topic, difficulty, chapter_number, key_concept) DO UPDATE SET
			payload = excluded.payload,
			created_at = excluded.created_at`,
		rec.ID, NormalizeTopic(rec.Topic), rec.Difficulty, rec.ChapterNumber,
		NormalizeTopic(rec.KeyConcept), string(rec.Payload), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("save question batch: %w", err)
	}
	return nil
}

func (r *questionRepo) ListBatches(ctx context.Context, topic, difficulty string, chapter int) ([]QuestionBatchRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, normalized_topic, difficulty, chapter_number, key_concept, payload, created_at
		FROM question_batches
		WHERE normalized_topic = ? AND difficulty = ? AND chapter_number = ?
		ORDER BY created_at, id`,
		NormalizeTopic(topic), difficulty, chapter)
	if err != nil {
		return nil, fmt.Errorf("list question batches: %w", err)
	}
	defer rows.Close()

	var out []QuestionBatchRecord
	for rows.Next() {
		var rec QuestionBatchRecord
		var payload string
		if err := rows.Scan(&rec.ID, &rec.Topic, &rec.Difficulty, &rec.ChapterNumber,
			&rec.KeyConcept, &payload, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan question batch: %w", err)
		}
		rec.Payload = []byte(payload)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *questionRepo) DeleteBatches(ctx context.Context, topic, difficulty string, chapter int) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM question_batches
		WHERE normalized_topic = ? AND difficulty = ? AND chapter_number = ?`,
		NormalizeTopic(topic), difficulty, chapter)
	if err != nil {
		return fmt.Errorf("delete question batches: %w", err)
	}
	return nil
}
