// Package coursegen turns a topic (and optionally uploaded document
// text) into a structured list of course chapters.
package coursegen

import (
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"courseforge/internal/course"
	"courseforge/internal/llm"
)

// maxPromptContent caps document text included in a chapter prompt.
const maxPromptContent = 50_000

// Config tunes chapter generation.
type Config struct {
	// Temperature for generation requests. Default: 0.7.
	Temperature float64

	// MaxTokens for the response. Default: the chapter generation budget.
	MaxTokens int
}

// DefaultConfig returns the standard generation settings.
func DefaultConfig() Config {
	return Config{
		Temperature: 0.7,
		MaxTokens:   llm.OpChapterGeneration.MaxTokens(),
	}
}

// Generator generates course chapters through an LLM provider.
type Generator struct {
	provider  llm.Provider
	extractor *llm.Extractor
	cfg       Config
}

// New creates a chapter Generator.
func New(provider llm.Provider, extractor *llm.Extractor, cfg Config) *Generator {
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = llm.OpChapterGeneration.MaxTokens()
	}
	return &Generator{provider: provider, extractor: extractor, cfg: cfg}
}

// chapterOutput is the wire shape the model returns.
type chapterOutput struct {
	Chapters []struct {
		Number           int      `json:"number"`
		Title            string   `json:"title"`
		Summary          string   `json:"summary"`
		KeyConcepts      []string `json:"key_concepts"`
		KeyIdeas         []string `json:"key_ideas"`
		EstimatedMinutes int      `json:"estimated_time_minutes"`
	} `json:"chapters"`
}

// Generate produces the chapters for a course sized by cfg. content is
// optional document text to base the chapters on; it is truncated to
// the prompt budget. A response that cannot be parsed fails the call:
// chapter generation is a single shot and the caller decides whether
// to retry the whole course.
func (g *Generator) Generate(ctx context.Context, topic string, cfg course.Config, content string) ([]course.Chapter, error) {
	if len(content) > maxPromptContent {
		// Cut on a rune boundary so a multibyte character at the limit
		// is dropped whole instead of split into invalid bytes.
		cut := maxPromptContent
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		content = content[:cut]
	}

	ctx = llm.WithAttribution(ctx, withOperation(ctx, llm.OpChapterGeneration, topic))

	resp, err := g.provider.Generate(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildPrompt(topic, cfg, content)},
		},
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("chapter generation: %w", err)
	}

	raw, err := g.extractor.Extract(string(resp.Content))
	if err != nil {
		return nil, fmt.Errorf("chapter generation: %w", err)
	}

	var out chapterOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("chapter generation: decode: %w", err)
	}
	if len(out.Chapters) == 0 {
		return nil, fmt.Errorf("chapter generation: model returned no chapters")
	}

	chapters := make([]course.Chapter, len(out.Chapters))
	for i, c := range out.Chapters {
		minutes := c.EstimatedMinutes
		if minutes == 0 {
			minutes = cfg.MinutesPerChapter
		}
		chapters[i] = course.Chapter{
			// Models occasionally skip or repeat numbers; position in
			// the returned list is authoritative.
			Number:           i + 1,
			Title:            c.Title,
			Summary:          c.Summary,
			KeyConcepts:      c.KeyConcepts,
			KeyIdeas:         c.KeyIdeas,
			Difficulty:       cfg.Difficulty,
			EstimatedMinutes: minutes,
		}
	}
	return chapters, nil
}

// withOperation merges the operation into any attribution already on
// the context, preserving user and course labels set by the caller.
func withOperation(ctx context.Context, op llm.Op, contextLabel string) llm.Attribution {
	attr := llm.AttributionFrom(ctx)
	attr.Operation = op
	if attr.Context == "" {
		attr.Context = contextLabel
	}
	return attr
}
