package llm

import "context"

type contextKey string

const attributionKey contextKey = "llm_attribution"

// Attribution labels an LLM request for the token usage ledger.
// Any field may be empty; usage is recorded regardless.
type Attribution struct {
	// Operation is the pipeline operation making the request.
	Operation Op

	// UserID attributes spend to a user. Empty for anonymous work.
	UserID string

	// CourseID ties the request to a course when one exists yet.
	CourseID string

	// Context is a free-form label for the call site, e.g.
	// "chunked:photosynthesis" or "gap_quiz".
	Context string
}

// WithAttribution attaches usage attribution to the context.
func WithAttribution(ctx context.Context, a Attribution) context.Context {
	return context.WithValue(ctx, attributionKey, a)
}

// AttributionFrom extracts the attribution from the context.
// Returns a zero Attribution when none was attached.
func AttributionFrom(ctx context.Context) Attribution {
	if a, ok := ctx.Value(attributionKey).(Attribution); ok {
		return a
	}
	return Attribution{}
}
