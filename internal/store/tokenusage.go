package store

import (
	"context"
	"database/sql"
	"fmt"
)

// tokenUsageRepo implements TokenUsageRepo backed by SQLite.
type tokenUsageRepo struct {
	db *sql.DB
}

func (r *tokenUsageRepo) Append(ctx context.Context, rec TokenUsageRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO token_usage
			(ts, user_id, operation, provider, model, input_tokens, output_tokens,
			 total_tokens, latency_ms, success, context, course_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Timestamp, rec.UserID, rec.Operation, rec.Provider, rec.Model,
		rec.InputTokens, rec.OutputTokens, rec.TotalTokens,
		rec.LatencyMs, rec.Success, rec.Context, rec.CourseID)
	if err != nil {
		return fmt.Errorf("append token usage: %w", err)
	}
	return nil
}

func (r *tokenUsageRepo) Summarize(ctx context.Context, userID string) ([]TokenUsageSummary, error) {
	query := `
		SELECT operation, provider, model, COUNT(*),
		       COALESCE(SUM(input_tokens), 0),
		       COALESCE(SUM(output_tokens), 0),
		       COALESCE(SUM(total_tokens), 0)
		FROM token_usage`
	args := []any{}
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += `
		GROUP BY operation, provider, model
		ORDER BY operation, provider, model`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("summarize token usage: %w", err)
	}
	defer rows.Close()

	var out []TokenUsageSummary
	for rows.Next() {
		var s TokenUsageSummary
		if err := rows.Scan(&s.Operation, &s.Provider, &s.Model, &s.Requests,
			&s.InputTokens, &s.OutputTokens, &s.TotalTokens); err != nil {
			return nil, fmt.Errorf("scan usage summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
