package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// analysisRepo implements AnalysisRepo backed by SQLite.
type analysisRepo struct {
	db *sql.DB
}

func (r *analysisRepo) Put(ctx context.Context, rec *AnalysisRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO document_analyses (id, user_id, payload, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, string(rec.Payload), rec.CreatedAt, rec.ExpiresAt)
	if err != nil {
		return fmt.Errorf("put analysis: %w", err)
	}
	return nil
}

func (r *analysisRepo) Get(ctx context.Context, id string) (*AnalysisRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, payload, created_at, expires_at
		FROM document_analyses
		WHERE id = ?`, id)

	var rec AnalysisRecord
	var payload string
	err := row.Scan(&rec.ID, &rec.UserID, &payload, &rec.CreatedAt, &rec.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis: %w", err)
	}

	// TTL is enforced on read: an expired record is treated as absent
	// and removed so confirmation cannot consume stale structure.
	if time.Now().After(rec.ExpiresAt) {
		if err := r.Delete(ctx, id); err != nil {
			return nil, err
		}
		return nil, nil
	}

	rec.Payload = []byte(payload)
	return &rec, nil
}

func (r *analysisRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM document_analyses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete analysis: %w", err)
	}
	return nil
}
