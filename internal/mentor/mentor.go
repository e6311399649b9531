// Package mentor turns a user's weak chapters into feedback and
// remediation quizzes. Generated gap quizzes are cached by a hash of
// the weak-area set so repeat requests with unchanged scores never
// re-invoke the model, and new questions are folded back into the
// regular chapter question pools.
package mentor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"courseforge/internal/llm"
	"courseforge/internal/questiongen"
	"courseforge/internal/store"
)

// Mentor generates feedback and gap quizzes.
type Mentor struct {
	provider   llm.Provider
	extractor  *llm.Extractor
	gapQuizzes store.GapQuizRepo
	questions  store.QuestionRepo
	logger     *zap.Logger
	cfg        Config
}

// New creates a Mentor. gapQuizzes may be nil to disable caching;
// questions may be nil to disable pool folding.
func New(provider llm.Provider, extractor *llm.Extractor, gapQuizzes store.GapQuizRepo, questions store.QuestionRepo, logger *zap.Logger, cfg Config) *Mentor {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultConfig()
	if cfg.ChaptersThreshold == 0 {
		cfg.ChaptersThreshold = def.ChaptersThreshold
	}
	if cfg.WeakScoreThreshold == 0 {
		cfg.WeakScoreThreshold = def.WeakScoreThreshold
	}
	if cfg.NumQuestions == 0 {
		cfg.NumQuestions = def.NumQuestions
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = def.Temperature
	}
	return &Mentor{
		provider:   provider,
		extractor:  extractor,
		gapQuizzes: gapQuizzes,
		questions:  questions,
		logger:     logger,
		cfg:        cfg,
	}
}

// Feedback generates a short mentor-style progress review.
func (m *Mentor) Feedback(ctx context.Context, analysis Analysis, userID, courseSlug string) (string, error) {
	attr := llm.AttributionFrom(ctx)
	attr.Operation = llm.OpStudentFeedback
	attr.UserID = userID
	if attr.Context == "" {
		attr.Context = courseSlug
	}
	ctx = llm.WithAttribution(ctx, attr)

	resp, err := m.provider.Generate(ctx, llm.Request{
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: buildFeedbackPrompt(analysis)}},
		MaxTokens: llm.OpStudentFeedback.MaxTokens(),
		// Feedback reads better with some variety between requests.
		Temperature: 0.8,
	})
	if err != nil {
		return "", fmt.Errorf("generate feedback: %w", err)
	}
	return strings.TrimSpace(string(resp.Content)), nil
}

// GenerateGapQuiz returns a remediation quiz for the request's weak
// areas, from cache when the weak-area hash matches a previous
// generation with the same hint setting.
func (m *Mentor) GenerateGapQuiz(ctx context.Context, req GapQuizRequest) (*GapQuiz, error) {
	if len(req.WeakAreas) == 0 {
		return nil, fmt.Errorf("no weak areas to quiz on")
	}
	if req.NumQuestions == 0 {
		req.NumQuestions = m.cfg.NumQuestions
	}

	hash := WeakAreasHash(req.WeakAreas)
	key := store.GapQuizKey{
		UserID:       req.UserID,
		CourseSlug:   req.CourseSlug,
		WeakAreaHash: hash,
		IncludeHints: req.IncludeHints,
	}

	if m.gapQuizzes != nil {
		rec, err := m.gapQuizzes.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("gap quiz cache lookup: %w", err)
		}
		if rec != nil {
			var questions []GapQuizQuestion
			if err := json.Unmarshal(rec.Payload, &questions); err != nil {
				return nil, fmt.Errorf("decode cached gap quiz: %w", err)
			}
			return &GapQuiz{
				ID:           uuid.NewString(),
				CourseSlug:   req.CourseSlug,
				UserID:       req.UserID,
				Questions:    questions,
				IncludeHints: req.IncludeHints,
				CacheHit:     true,
				CreatedAt:    time.Now().UTC(),
			}, nil
		}
	}

	questions, err := m.generateQuestions(ctx, req)
	if err != nil {
		return nil, err
	}

	if m.gapQuizzes != nil {
		payload, err := json.Marshal(questions)
		if err != nil {
			return nil, fmt.Errorf("encode gap quiz: %w", err)
		}
		err = m.gapQuizzes.Put(ctx, &store.GapQuizRecord{
			ID:        uuid.NewString(),
			Key:       key,
			Payload:   payload,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			return nil, fmt.Errorf("cache gap quiz: %w", err)
		}
	}

	if m.questions != nil {
		if err := m.foldIntoPools(ctx, req, questions); err != nil {
			// The quiz itself succeeded; pool folding is an optimization.
			m.logger.Warn("fold gap quiz questions into chapter pools", zap.Error(err))
		}
	}

	return &GapQuiz{
		ID:           uuid.NewString(),
		CourseSlug:   req.CourseSlug,
		UserID:       req.UserID,
		Questions:    questions,
		IncludeHints: req.IncludeHints,
		CacheHit:     false,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func (m *Mentor) generateQuestions(ctx context.Context, req GapQuizRequest) ([]GapQuizQuestion, error) {
	attr := llm.AttributionFrom(ctx)
	attr.Operation = llm.OpGapQuiz
	attr.UserID = req.UserID
	if attr.Context == "" {
		attr.Context = req.CourseSlug
	}
	ctx = llm.WithAttribution(ctx, attr)

	resp, err := m.provider.Generate(ctx, llm.Request{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildGapQuizPrompt(req)}},
		MaxTokens:   llm.OpGapQuiz.MaxTokens(),
		Temperature: m.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generate gap quiz: %w", err)
	}

	raw, err := m.extractor.Extract(string(resp.Content))
	if err != nil {
		return nil, err
	}

	var out struct {
		Questions []struct {
			ChapterNumber int      `json:"chapter_number"`
			QuestionText  string   `json:"question_text"`
			Options       []string `json:"options"`
			CorrectAnswer string   `json:"correct_answer"`
			Explanation   string   `json:"explanation"`
			Hint          string   `json:"hint"`
			Difficulty    string   `json:"difficulty"`
		} `json:"questions"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode gap quiz: %w", err)
	}

	questions := make([]GapQuizQuestion, 0, len(out.Questions))
	for _, q := range out.Questions {
		answer := strings.ToUpper(strings.TrimSpace(q.CorrectAnswer))
		if q.QuestionText == "" || len(q.Options) != 4 || len(answer) != 1 || answer < "A" || answer > "D" {
			continue
		}
		hint := q.Hint
		if !req.IncludeHints {
			hint = ""
		}
		questions = append(questions, GapQuizQuestion{
			ID:            uuid.NewString(),
			ChapterNumber: q.ChapterNumber,
			QuestionText:  q.QuestionText,
			Options:       q.Options,
			CorrectAnswer: answer,
			Explanation:   q.Explanation,
			Hint:          hint,
			Difficulty:    q.Difficulty,
			Source:        questiongen.SourceGapQuiz,
		})
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("gap quiz generation produced no usable questions")
	}
	return questions, nil
}

// foldIntoPools appends gap quiz questions to their chapters' regular
// question pools so ordinary quizzes can reuse them.
func (m *Mentor) foldIntoPools(ctx context.Context, req GapQuizRequest, questions []GapQuizQuestion) error {
	byChapter := map[int][]GapQuizQuestion{}
	for _, q := range questions {
		byChapter[q.ChapterNumber] = append(byChapter[q.ChapterNumber], q)
	}

	difficulty := string(req.Difficulty)
	for chapter, qs := range byChapter {
		rec, err := m.questions.GetChapter(ctx, req.CourseTopic, difficulty, chapter)
		if err != nil {
			return err
		}

		var pool questiongen.ChapterQuestions
		if rec != nil {
			if err := json.Unmarshal(rec.Payload, &pool); err != nil {
				return fmt.Errorf("decode chapter %d pool: %w", chapter, err)
			}
		}
		pool.ChapterNumber = chapter

		for _, q := range qs {
			pool.MCQ = append(pool.MCQ, questiongen.MCQQuestion{
				ID:            q.ID,
				QuestionText:  q.QuestionText,
				Options:       q.Options,
				CorrectAnswer: q.CorrectAnswer,
				Explanation:   q.Explanation,
				Difficulty:    q.Difficulty,
				Source:        questiongen.SourceGapQuiz,
			})
		}

		payload, err := json.Marshal(pool)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		err = m.questions.UpsertChapter(ctx, &store.ChapterQuestionsRecord{
			ID:            uuid.NewString(),
			Topic:         req.CourseTopic,
			Difficulty:    difficulty,
			ChapterNumber: chapter,
			Payload:       payload,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
