// Package questiongen generates quiz questions for course chapters:
// whole-chapter single shots for small pools and per-concept chunked
// generation for pools too large to survive one response.
package questiongen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"courseforge/internal/llm"
	"courseforge/internal/store"
)

// Config tunes question generation.
type Config struct {
	// MaxRetries is the number of extra attempts when a response fails
	// validation or parsing. Default: 1.
	MaxRetries int

	// Temperature for generation requests. Default: 0.7.
	Temperature float64

	// MaxTokens for the response. Default: the question generation budget.
	MaxTokens int
}

// DefaultConfig returns the standard generation settings.
func DefaultConfig() Config {
	return Config{
		MaxRetries:  1,
		Temperature: 0.7,
		MaxTokens:   llm.OpQuestionGeneration.MaxTokens(),
	}
}

// Generator generates chapter question pools through an LLM provider.
type Generator struct {
	provider  llm.Provider
	extractor *llm.Extractor
	questions store.QuestionRepo
	logger    *zap.Logger
	cfg       Config
}

// New creates a question Generator. questions may be nil, which
// disables incremental batch persistence during chunked generation.
func New(provider llm.Provider, extractor *llm.Extractor, questions store.QuestionRepo, logger *zap.Logger, cfg Config) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = llm.OpQuestionGeneration.MaxTokens()
	}
	return &Generator{
		provider:  provider,
		extractor: extractor,
		questions: questions,
		logger:    logger,
		cfg:       cfg,
	}
}

// questionOutput is the wire shape the model returns.
type questionOutput struct {
	MCQ []struct {
		QuestionText  string   `json:"question_text"`
		Options       []string `json:"options"`
		CorrectAnswer string   `json:"correct_answer"`
		Explanation   string   `json:"explanation"`
		Difficulty    string   `json:"difficulty"`
	} `json:"mcq"`
	TrueFalse []struct {
		QuestionText  string `json:"question_text"`
		CorrectAnswer bool   `json:"correct_answer"`
		Explanation   string `json:"explanation"`
		Difficulty    string `json:"difficulty"`
	} `json:"true_false"`
}

// Generate produces the question pool for one chapter in a single
// model call, retrying when the result parses but falls short of the
// count tolerance.
func (g *Generator) Generate(ctx context.Context, gc GenerationConfig) (*ChapterQuestions, error) {
	if gc.Audience == "" || gc.Audience == "general learners" {
		gc.Audience = DeriveAudience(gc.Difficulty)
	}

	var lastErr error
	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		result, err := g.generateOnce(ctx, buildPrompt(gc), gc)
		if err != nil {
			lastErr = err
			if attempt < g.cfg.MaxRetries {
				g.logger.Warn("question generation attempt failed",
					zap.Int("attempt", attempt+1),
					zap.Int("chapter", gc.ChapterNumber),
					zap.Error(err))
				continue
			}
			return nil, fmt.Errorf("question generation: %w", err)
		}

		if err := validateCounts(result, gc); err != nil {
			lastErr = err
			if attempt < g.cfg.MaxRetries {
				g.logger.Warn("question counts below tolerance, retrying",
					zap.Int("attempt", attempt+1),
					zap.Int("chapter", gc.ChapterNumber),
					zap.Error(err))
				continue
			}
			// Out of retries: a short pool beats no pool.
			g.logger.Warn("accepting question pool below tolerance", zap.Error(err))
		}

		return result, nil
	}

	return nil, fmt.Errorf("question generation: %w", lastErr)
}

// generateOnce performs one model call and converts the output.
func (g *Generator) generateOnce(ctx context.Context, prompt string, gc GenerationConfig) (*ChapterQuestions, error) {
	attr := llm.AttributionFrom(ctx)
	attr.Operation = llm.OpQuestionGeneration
	if attr.Context == "" {
		attr.Context = gc.Topic
	}
	ctx = llm.WithAttribution(ctx, attr)

	resp, err := g.provider.Generate(ctx, llm.Request{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		return nil, err
	}

	raw, err := g.extractor.Extract(string(resp.Content))
	if err != nil {
		return nil, err
	}

	var out questionOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}

	result := &ChapterQuestions{
		ChapterNumber: gc.ChapterNumber,
		ChapterTitle:  gc.ChapterTitle,
	}

	for _, q := range out.MCQ {
		answer := strings.ToUpper(strings.TrimSpace(q.CorrectAnswer))
		// Malformed entries are dropped rather than failing the batch.
		if q.QuestionText == "" || len(q.Options) != 4 || answer < "A" || answer > "D" || len(answer) != 1 {
			continue
		}
		result.MCQ = append(result.MCQ, MCQQuestion{
			QuestionText:  q.QuestionText,
			Options:       q.Options,
			CorrectAnswer: answer,
			Explanation:   q.Explanation,
			Difficulty:    normalizeDifficulty(q.Difficulty),
		})
	}
	for _, q := range out.TrueFalse {
		if q.QuestionText == "" {
			continue
		}
		result.TrueFalse = append(result.TrueFalse, TrueFalseQuestion{
			QuestionText:  q.QuestionText,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
			Difficulty:    normalizeDifficulty(q.Difficulty),
		})
	}

	return result, nil
}

// validateCounts enforces the 80% tolerance on requested counts.
func validateCounts(result *ChapterQuestions, gc GenerationConfig) error {
	minMCQ := max(1, int(float64(gc.MCQCount)*0.8))
	minTF := max(1, int(float64(gc.TFCount)*0.8))

	if len(result.MCQ) < minMCQ {
		return fmt.Errorf("not enough MCQ questions: got %d, need at least %d", len(result.MCQ), minMCQ)
	}
	if len(result.TrueFalse) < minTF {
		return fmt.Errorf("not enough true/false questions: got %d, need at least %d", len(result.TrueFalse), minTF)
	}
	return nil
}

func normalizeDifficulty(d string) string {
	switch strings.ToLower(strings.TrimSpace(d)) {
	case "easy":
		return "easy"
	case "hard":
		return "hard"
	default:
		return "medium"
	}
}
