package questiongen

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"courseforge/internal/course"
	"courseforge/internal/llm"
)

// Recommendation is the question count target for one chapter.
type Recommendation struct {
	MCQCount       int    `json:"mcq_count"`
	TrueFalseCount int    `json:"true_false_count"`
	TotalCount     int    `json:"total_count"`
	Reasoning      string `json:"reasoning"`
}

// defaultCounts per difficulty, used when analysis is unavailable.
var defaultCounts = map[course.Difficulty]Recommendation{
	course.Beginner:     {MCQCount: 8, TrueFalseCount: 5},
	course.Intermediate: {MCQCount: 12, TrueFalseCount: 6},
	course.Advanced:     {MCQCount: 20, TrueFalseCount: 8},
}

// countSchema constrains the model's count analysis output.
var countSchema = &llm.Schema{
	Name:        "question-count",
	Description: "Recommended question counts for a course chapter",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"mcq_count": map[string]any{
				"type":        "integer",
				"description": "Recommended MCQ questions (5-40)",
			},
			"true_false_count": map[string]any{
				"type":        "integer",
				"description": "Recommended True/False questions (3-15)",
			},
			"reasoning": map[string]any{
				"type":        "string",
				"description": "Brief explanation of the recommendation",
			},
		},
		"required": []any{"mcq_count", "true_false_count", "reasoning"},
	},
}

// Analyzer determines how many questions a chapter needs. Chapters
// with key ideas are sized deterministically from the idea count; the
// rest go through a small model call. Results are cached per chapter
// content, so regeneration of the same course costs nothing.
type Analyzer struct {
	provider llm.Provider

	mu    sync.Mutex
	cache map[string]Recommendation
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(provider llm.Provider) *Analyzer {
	return &Analyzer{
		provider: provider,
		cache:    make(map[string]Recommendation),
	}
}

// AnalyzeChapter returns the question count target for a chapter.
// It never fails: when analysis is impossible it falls back to the
// difficulty defaults and says so in the reasoning.
func (a *Analyzer) AnalyzeChapter(ctx context.Context, ch course.Chapter, topic string, difficulty course.Difficulty) Recommendation {
	key := cacheKey(ch, topic, difficulty)

	a.mu.Lock()
	if rec, ok := a.cache[key]; ok {
		a.mu.Unlock()
		return rec
	}
	a.mu.Unlock()

	if len(ch.KeyIdeas) > 0 {
		rec := recommendFromIdeas(len(ch.KeyIdeas))
		a.put(key, rec)
		return rec
	}

	rec, err := a.analyzeWithModel(ctx, ch, topic, difficulty)
	if err != nil {
		def := Defaults(difficulty)
		def.Reasoning = fmt.Sprintf("Default used due to analysis error: %.50s", err.Error())
		return def
	}

	a.put(key, rec)
	return rec
}

// Defaults returns the fixed counts for a difficulty level.
func Defaults(difficulty course.Difficulty) Recommendation {
	rec, ok := defaultCounts[difficulty]
	if !ok {
		rec = defaultCounts[course.Intermediate]
	}
	rec.TotalCount = rec.MCQCount + rec.TrueFalseCount
	rec.Reasoning = fmt.Sprintf("Default recommendation for %s-level content.", difficulty)
	return rec
}

// recommendFromIdeas sizes the pool at ~2.5 questions per key idea,
// split 70/30 between MCQ and true/false.
func recommendFromIdeas(numIdeas int) Recommendation {
	total := clamp(int(float64(numIdeas)*2.5), 8, 55)
	mcq := clamp(int(float64(total)*0.7), 5, 40)
	tf := clamp(total-mcq, 3, 15)

	return Recommendation{
		MCQCount:       mcq,
		TrueFalseCount: tf,
		TotalCount:     mcq + tf,
		Reasoning:      fmt.Sprintf("Based on %d key ideas: generating ~2.5 questions per idea for 80%% knowledge coverage.", numIdeas),
	}
}

func (a *Analyzer) analyzeWithModel(ctx context.Context, ch course.Chapter, topic string, difficulty course.Difficulty) (Recommendation, error) {
	attr := llm.AttributionFrom(ctx)
	attr.Operation = llm.OpQuestionCountAnalysis
	if attr.Context == "" {
		attr.Context = topic
	}
	ctx = llm.WithAttribution(ctx, attr)

	resp, err := a.provider.Generate(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildCountPrompt(ch, topic, difficulty)},
		},
		Schema:    countSchema,
		MaxTokens: llm.OpQuestionCountAnalysis.MaxTokens(),
		// Low temperature: the same chapter should get the same counts.
		Temperature: 0.3,
	})
	if err != nil {
		return Recommendation{}, err
	}

	var out struct {
		MCQCount       int    `json:"mcq_count"`
		TrueFalseCount int    `json:"true_false_count"`
		Reasoning      string `json:"reasoning"`
	}
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return Recommendation{}, fmt.Errorf("decode count analysis: %w", err)
	}

	mcq := clamp(out.MCQCount, 5, 40)
	tf := clamp(out.TrueFalseCount, 3, 15)
	reasoning := out.Reasoning
	if reasoning == "" {
		reasoning = "AI-based analysis of chapter content."
	}

	return Recommendation{
		MCQCount:       mcq,
		TrueFalseCount: tf,
		TotalCount:     mcq + tf,
		Reasoning:      reasoning,
	}, nil
}

func buildCountPrompt(ch course.Chapter, topic string, difficulty course.Difficulty) string {
	keyConcepts := "Not specified"
	if len(ch.KeyConcepts) > 0 {
		keyConcepts = strings.Join(ch.KeyConcepts, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Given this chapter from a %s course on %s:\n\n", difficulty, topic)
	fmt.Fprintf(&b, "Chapter: %s\n", ch.Title)
	fmt.Fprintf(&b, "Summary: %s\n", ch.Summary)
	fmt.Fprintf(&b, "Key Concepts: %s\n", keyConcepts)
	fmt.Fprintf(&b, "Estimated Time: %d minutes\n\n", ch.EstimatedMinutes)

	b.WriteString("How many questions are needed to comprehensively test this chapter?\n\n")
	b.WriteString("Consider:\n")
	b.WriteString("- Each key concept needs at least 1-2 questions\n")
	b.WriteString("- Mix of easy/medium/hard questions for balanced assessment\n")
	fmt.Fprintf(&b, "- %s level appropriate depth\n", difficulty)
	b.WriteString("- Professional/certification topics (AWS, PMP, etc.) need more questions\n")
	b.WriteString("- Simple introductory topics need fewer questions\n")
	b.WriteString("- More concepts = more questions needed\n")
	b.WriteString("- Chapter complexity and depth\n\n")

	b.WriteString("Return ONLY valid JSON:\n")
	b.WriteString(`{
  "mcq_count": number (minimum 5, maximum 40),
  "true_false_count": number (minimum 3, maximum 15),
  "reasoning": "brief explanation of your recommendation"
}`)

	return b.String()
}

func (a *Analyzer) put(key string, rec Recommendation) {
	a.mu.Lock()
	a.cache[key] = rec
	a.mu.Unlock()
}

// CachedCount returns the number of cached recommendations.
func (a *Analyzer) CachedCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.cache)
}

// cacheKey hashes the chapter content fields that determine counts.
func cacheKey(ch course.Chapter, topic string, difficulty course.Difficulty) string {
	input := fmt.Sprintf("%s|%s|%d|%s|%s|%s",
		topic, difficulty, ch.Number, ch.Title, ch.Summary, strings.Join(ch.KeyConcepts, ","))
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])[:16]
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
