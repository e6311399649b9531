package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"courseforge/internal/store"
)

// UsageProvider is a decorator that records every LLM request in the
// token usage ledger.
type UsageProvider struct {
	inner     Provider
	usageRepo store.TokenUsageRepo
	provider  string
	logger    *zap.Logger
}

// WithUsageLog wraps a Provider with token usage recording. A nil repo
// disables recording; a nil logger silences the append-failure warning.
func WithUsageLog(p Provider, repo store.TokenUsageRepo, provider string, logger *zap.Logger) Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UsageProvider{inner: p, usageRepo: repo, provider: provider, logger: logger}
}

func (u *UsageProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	attr := AttributionFrom(ctx)

	resp, err := u.inner.Generate(ctx, req)

	if u.usageRepo == nil {
		return resp, err
	}

	rec := store.TokenUsageRecord{
		Timestamp: time.Now().UTC(),
		UserID:    attr.UserID,
		Operation: string(attr.Operation),
		Provider:  u.provider,
		Model:     u.inner.ModelID(),
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
		Context:   attr.Context,
		CourseID:  attr.CourseID,
	}

	// Missing usage metadata records as zero rather than skipping the
	// row, so every request appears in the ledger.
	if resp != nil {
		rec.InputTokens = resp.Usage.InputTokens
		rec.OutputTokens = resp.Usage.OutputTokens
		rec.TotalTokens = resp.Usage.TotalTokens
		rec.Model = resp.Model
	}

	// Record the usage but don't fail the request if recording fails.
	if logErr := u.usageRepo.Append(ctx, rec); logErr != nil {
		u.logger.Warn("failed to record token usage",
			zap.String("operation", rec.Operation),
			zap.Error(logErr))
	}

	return resp, err
}

func (u *UsageProvider) ModelID() string {
	return u.inner.ModelID()
}
