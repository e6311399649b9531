// Package docanalyze turns uploaded document text into a course
// outline in two phases: section detection per file, then chapter
// generation from the user-confirmed outline. Between the phases the
// combined text and outline live in a TTL-bound staging record keyed
// by an opaque analysis ID.
package docanalyze

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"courseforge/internal/llm"
	"courseforge/internal/store"
)

// Config tunes document analysis.
type Config struct {
	// MaxSections caps detected sections per file. Default: 15.
	MaxSections int

	// MaxAnalyzeChars bounds the text sent for section detection.
	// Default: 50000.
	MaxAnalyzeChars int

	// MaxChapterChars bounds the text sent for chapter generation.
	// Default: 40000.
	MaxChapterChars int

	// BatchSize is the number of confirmed sections per chapter
	// generation call. Default: 5.
	BatchSize int

	// StagingTTL is how long an unconfirmed analysis stays valid.
	// Default: 30 minutes.
	StagingTTL time.Duration

	// NonContent overrides the default denylist of section titles that
	// never become chapters.
	NonContent []string

	// Temperature for section detection. Default: 0.5.
	Temperature float64
}

// DefaultConfig returns the standard analysis settings.
func DefaultConfig() Config {
	return Config{
		MaxSections:     15,
		MaxAnalyzeChars: 50_000,
		MaxChapterChars: 40_000,
		BatchSize:       5,
		StagingTTL:      30 * time.Minute,
		Temperature:     0.5,
	}
}

// Analyzer runs the two-phase document-to-course flow.
type Analyzer struct {
	provider  llm.Provider
	extractor *llm.Extractor
	analyses  store.AnalysisRepo
	logger    *zap.Logger
	cfg       Config
}

// New creates an Analyzer. analyses must be non-nil: Phase 2 cannot
// run without the staging record Phase 1 persists.
func New(provider llm.Provider, extractor *llm.Extractor, analyses store.AnalysisRepo, logger *zap.Logger, cfg Config) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultConfig()
	if cfg.MaxSections == 0 {
		cfg.MaxSections = def.MaxSections
	}
	if cfg.MaxAnalyzeChars == 0 {
		cfg.MaxAnalyzeChars = def.MaxAnalyzeChars
	}
	if cfg.MaxChapterChars == 0 {
		cfg.MaxChapterChars = def.MaxChapterChars
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.StagingTTL == 0 {
		cfg.StagingTTL = def.StagingTTL
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = def.Temperature
	}
	return &Analyzer{
		provider:  provider,
		extractor: extractor,
		analyses:  analyses,
		logger:    logger,
		cfg:       cfg,
	}
}

// Analyze detects sections in each file separately, merges the results
// into one renumbered outline and stages it for confirmation. Files
// are never concatenated before detection: each section keeps the file
// it came from.
func (a *Analyzer) Analyze(ctx context.Context, files []File, userID string) (*Staged, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to analyze")
	}

	attr := llm.AttributionFrom(ctx)
	attr.Operation = llm.OpDocumentAnalysis
	attr.UserID = userID
	if attr.Context == "" {
		attr.Context = fileNames(files)
	}
	ctx = llm.WithAttribution(ctx, attr)

	var (
		outlines []Outline
		metas    []FileMeta
		combined strings.Builder
	)
	for _, f := range files {
		outline, err := a.analyzeFile(ctx, f)
		if err != nil {
			a.logger.Warn("model analysis failed, falling back to pattern detection",
				zap.String("file", f.Name),
				zap.Error(err))
			outline = DetectSections(truncate(f.Text, a.cfg.MaxAnalyzeChars), a.cfg.MaxSections, a.cfg.NonContent)
		}
		for i := range outline.Sections {
			outline.Sections[i].SourceFile = f.Name
		}
		outlines = append(outlines, outline)
		metas = append(metas, FileMeta{Name: f.Name, CharCount: f.CharCount, Sections: len(outline.Sections)})

		if combined.Len() > 0 {
			combined.WriteString("\n\n")
		}
		combined.WriteString(f.Text)
	}

	merged := combineOutlines(outlines)

	payload, err := json.Marshal(stagedPayload{
		Outline:      merged,
		CombinedText: combined.String(),
		Files:        metas,
	})
	if err != nil {
		return nil, fmt.Errorf("encode staging record: %w", err)
	}

	now := time.Now().UTC()
	rec := &store.AnalysisRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		Payload:   payload,
		CreatedAt: now,
		ExpiresAt: now.Add(a.cfg.StagingTTL),
	}
	if err := a.analyses.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("stage analysis: %w", err)
	}

	return &Staged{
		AnalysisID: rec.ID,
		Outline:    merged,
		ExpiresAt:  rec.ExpiresAt,
	}, nil
}

// Staging returns a previously staged analysis by ID so callers can
// re-display the outline before confirming. Returns an error when the
// record is missing or expired.
func (a *Analyzer) Staging(ctx context.Context, analysisID string) (*Staged, error) {
	rec, err := a.analyses.Get(ctx, analysisID)
	if err != nil {
		return nil, fmt.Errorf("load staged analysis: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("analysis %s not found or expired", analysisID)
	}

	var payload stagedPayload
	if err := json.Unmarshal(rec.Payload, &payload); err != nil {
		return nil, fmt.Errorf("decode staged analysis: %w", err)
	}
	return &Staged{
		AnalysisID: rec.ID,
		Outline:    payload.Outline,
		ExpiresAt:  rec.ExpiresAt,
	}, nil
}

func (a *Analyzer) analyzeFile(ctx context.Context, f File) (Outline, error) {
	resp, err := a.provider.Generate(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildAnalyzePrompt(truncate(f.Text, a.cfg.MaxAnalyzeChars), a.cfg.MaxSections)},
		},
		MaxTokens:   llm.OpDocumentAnalysis.MaxTokens(),
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		return Outline{}, err
	}

	raw, err := a.extractor.Extract(string(resp.Content))
	if err != nil {
		return Outline{}, err
	}

	var outline Outline
	if err := json.Unmarshal(raw, &outline); err != nil {
		return Outline{}, fmt.Errorf("decode outline: %w", err)
	}
	if len(outline.Sections) == 0 {
		return Outline{}, fmt.Errorf("no sections detected in %s", f.Name)
	}

	outline.Sections = a.dropNonContent(outline.Sections)
	if outline.DocumentTitle == "" {
		outline.DocumentTitle = "Untitled Document"
	}
	if outline.DocumentType == "" {
		outline.DocumentType = "notes"
	}
	if outline.EstimatedMinutes == 0 {
		outline.EstimatedMinutes = 60
	}
	outline.TotalSections = len(outline.Sections)
	return outline, nil
}

// dropNonContent enforces the denylist even when the model ignores the
// prompt's skip list.
func (a *Analyzer) dropNonContent(sections []Section) []Section {
	nonContent := a.cfg.NonContent
	if nonContent == nil {
		nonContent = defaultNonContent
	}
	kept := sections[:0]
	for _, s := range sections {
		if isNonContent(s.Title, nonContent) {
			continue
		}
		kept = append(kept, s)
	}
	return kept
}

// combineOutlines merges per-file outlines into one, renumbering
// sections sequentially across the whole batch.
func combineOutlines(outlines []Outline) Outline {
	merged := Outline{DocumentType: outlines[0].DocumentType}

	var titles []string
	for _, o := range outlines {
		titles = append(titles, o.DocumentTitle)
		merged.Sections = append(merged.Sections, o.Sections...)
		merged.EstimatedMinutes += o.EstimatedMinutes
		if merged.AnalysisNotes == "" {
			merged.AnalysisNotes = o.AnalysisNotes
		}
	}
	for i := range merged.Sections {
		merged.Sections[i].Order = i + 1
	}
	merged.TotalSections = len(merged.Sections)
	merged.DocumentTitle = combinedTitle(titles)
	return merged
}

// combinedTitle joins up to three document titles, noting how many
// more the batch contained.
func combinedTitle(titles []string) string {
	if len(titles) == 1 {
		return titles[0]
	}
	shown := titles[:min(3, len(titles))]
	title := strings.Join(shown, " + ")
	if rest := len(titles) - len(shown); rest > 0 {
		title += fmt.Sprintf(" (+%d more)", rest)
	}
	return title
}

func fileNames(files []File) string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return strings.Join(names, ", ")
}

// truncate cuts s to at most n bytes on a rune boundary, so multibyte
// characters are never split mid-sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
