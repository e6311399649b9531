package docanalyze

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"courseforge/internal/course"
	"courseforge/internal/llm"
)

// chapterBatchOutput is the wire shape of one chapter batch.
type chapterBatchOutput struct {
	Chapters []struct {
		Number           int      `json:"number"`
		Title            string   `json:"title"`
		Summary          string   `json:"summary"`
		KeyConcepts      []string `json:"key_concepts"`
		KeyIdeas         []string `json:"key_ideas"`
		SourceExcerpt    string   `json:"source_excerpt"`
		EstimatedMinutes int      `json:"estimated_time_minutes"`
	} `json:"chapters"`
}

// GenerateChapters is Phase 2: it turns the user-confirmed section
// list into full chapters with key ideas. Sections are processed in
// fixed-size batches so no single response has to carry the whole
// course. The staging record is single-use and is deleted on success.
func (a *Analyzer) GenerateChapters(ctx context.Context, analysisID, topic string, difficulty course.Difficulty, confirmed []ConfirmedSection, userID string) ([]course.Chapter, error) {
	rec, err := a.analyses.Get(ctx, analysisID)
	if err != nil {
		return nil, fmt.Errorf("load analysis: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("analysis %s not found or expired", analysisID)
	}

	var staged stagedPayload
	if err := json.Unmarshal(rec.Payload, &staged); err != nil {
		return nil, fmt.Errorf("decode staging record: %w", err)
	}

	included := make([]ConfirmedSection, 0, len(confirmed))
	for _, s := range confirmed {
		if s.Include {
			included = append(included, s)
		}
	}
	// A fully excluded outline still produces a course: the first
	// section survives rather than generating nothing.
	if len(included) == 0 && len(confirmed) > 0 {
		included = confirmed[:1]
	}
	if len(included) == 0 {
		return nil, fmt.Errorf("no sections to generate chapters from")
	}

	attr := llm.AttributionFrom(ctx)
	attr.Operation = llm.OpChapterGeneration
	attr.UserID = userID
	if attr.Context == "" {
		attr.Context = topic
	}
	ctx = llm.WithAttribution(ctx, attr)

	content := truncate(staged.CombinedText, a.cfg.MaxChapterChars)

	var chapters []course.Chapter
	for start := 0; start < len(included); start += a.cfg.BatchSize {
		batch := included[start:min(start+a.cfg.BatchSize, len(included))]
		got, err := a.generateBatch(ctx, topic, content, batch, difficulty, start+1)
		if err != nil {
			return nil, fmt.Errorf("chapter batch starting at %d: %w", start+1, err)
		}
		chapters = append(chapters, got...)
	}

	if err := a.analyses.Delete(ctx, analysisID); err != nil {
		a.logger.Warn("delete consumed analysis", zap.String("analysis_id", analysisID), zap.Error(err))
	}

	return chapters, nil
}

func (a *Analyzer) generateBatch(ctx context.Context, topic, content string, sections []ConfirmedSection, difficulty course.Difficulty, startNumber int) ([]course.Chapter, error) {
	resp, err := a.provider.Generate(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildBatchPrompt(topic, content, sections, difficulty, startNumber)},
		},
		MaxTokens:   llm.OpChapterGeneration.MaxTokens(),
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		return nil, err
	}

	raw, err := a.extractor.Extract(string(resp.Content))
	if err != nil {
		return nil, err
	}

	var out chapterBatchOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode chapter batch: %w", err)
	}
	if len(out.Chapters) == 0 {
		return nil, fmt.Errorf("model returned no chapters")
	}

	minutes := course.PresetFor(difficulty).MinutesPerChapter
	chapters := make([]course.Chapter, 0, len(out.Chapters))
	for i, c := range out.Chapters {
		est := c.EstimatedMinutes
		if est <= 0 {
			est = minutes
		}
		ch := course.Chapter{
			// Position in the batch is authoritative; models sometimes
			// ignore the numbering offset they were given.
			Number:           startNumber + i,
			Title:            c.Title,
			Summary:          c.Summary,
			KeyConcepts:      c.KeyConcepts,
			KeyIdeas:         c.KeyIdeas,
			Difficulty:       difficulty,
			EstimatedMinutes: est,
		}
		if i < len(sections) {
			ch.SourceFile = sections[i].SourceFile
		}
		chapters = append(chapters, ch)
	}
	return chapters, nil
}
