package mentor

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"courseforge/internal/course"
	"courseforge/internal/llm"
	"courseforge/internal/questiongen"
	"courseforge/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// gapQuizJSON builds a model response with n valid questions.
func gapQuizJSON(n int, withHints bool) llm.MockResponse {
	var qs []string
	for i := 0; i < n; i++ {
		hint := ""
		if withHints {
			hint = `"hint":"think about chapter basics",`
		}
		qs = append(qs, fmt.Sprintf(
			`{"chapter_number":%d,"question_text":"Q%d?","options":["A) a","B) b","C) c","D) d"],"correct_answer":"C","explanation":"because",%s"difficulty":"medium"}`,
			i%2+1, i+1, hint))
	}
	return llm.MockResponse{Content: []byte(fmt.Sprintf(`{"questions":[%s]}`, strings.Join(qs, ",")))}
}

func gapQuizRequest() GapQuizRequest {
	return GapQuizRequest{
		UserID:      "u1",
		CourseSlug:  "aws-advanced",
		CourseTopic: "AWS Solutions Architect",
		Difficulty:  course.Advanced,
		WeakAreas: []WeakArea{
			{ChapterNumber: 1, ChapterTitle: "IAM", Score: 0.5},
			{ChapterNumber: 2, ChapterTitle: "VPC", Score: 0.62},
		},
		NumQuestions: 4,
	}
}

func newTestMentor(t *testing.T, mock *llm.MockProvider) (*Mentor, *store.Store) {
	t.Helper()
	s := openTestStore(t)
	return New(mock, &llm.Extractor{}, s.GapQuizRepo(), s.QuestionRepo(), nil, DefaultConfig()), s
}

func TestGenerateGapQuiz(t *testing.T) {
	mock := llm.NewMockProvider(gapQuizJSON(4, false))
	m, _ := newTestMentor(t, mock)

	quiz, err := m.GenerateGapQuiz(context.Background(), gapQuizRequest())
	if err != nil {
		t.Fatalf("GenerateGapQuiz failed: %v", err)
	}

	if len(quiz.Questions) != 4 {
		t.Fatalf("got %d questions, want 4", len(quiz.Questions))
	}
	if quiz.CacheHit {
		t.Error("first generation should not be a cache hit")
	}
	for _, q := range quiz.Questions {
		if q.Source != questiongen.SourceGapQuiz {
			t.Errorf("question source = %q, want %q", q.Source, questiongen.SourceGapQuiz)
		}
		if q.ID == "" {
			t.Error("question missing ID")
		}
	}

	prompt := mock.Calls[0].Messages[0].Content
	if !strings.Contains(prompt, "Chapter 1: IAM (scored 50%)") {
		t.Error("prompt should list weak chapters with scores")
	}
	if !strings.Contains(prompt, "EXACTLY 4 multiple choice") {
		t.Error("prompt should request the configured question count")
	}
}

func TestGenerateGapQuizSecondCallHitsCache(t *testing.T) {
	mock := llm.NewMockProvider(gapQuizJSON(4, false))
	m, _ := newTestMentor(t, mock)

	req := gapQuizRequest()
	first, err := m.GenerateGapQuiz(context.Background(), req)
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}

	// Identical weak areas: the second call must not touch the model.
	second, err := m.GenerateGapQuiz(context.Background(), req)
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if !second.CacheHit {
		t.Error("second call should be a cache hit")
	}
	if mock.CallCount() != 1 {
		t.Errorf("provider calls = %d, want 1", mock.CallCount())
	}
	if len(second.Questions) != len(first.Questions) {
		t.Errorf("cached quiz has %d questions, want %d", len(second.Questions), len(first.Questions))
	}
}

func TestGenerateGapQuizScoreChangeMissesCache(t *testing.T) {
	mock := llm.NewMockProvider(gapQuizJSON(4, false), gapQuizJSON(4, false))
	m, _ := newTestMentor(t, mock)

	req := gapQuizRequest()
	if _, err := m.GenerateGapQuiz(context.Background(), req); err != nil {
		t.Fatalf("first call failed: %v", err)
	}

	req.WeakAreas[0].Score = 0.3
	quiz, err := m.GenerateGapQuiz(context.Background(), req)
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if quiz.CacheHit {
		t.Error("changed scores must invalidate the cache")
	}
	if mock.CallCount() != 2 {
		t.Errorf("provider calls = %d, want 2", mock.CallCount())
	}
}

func TestGenerateGapQuizHintsAreNotReusableDownward(t *testing.T) {
	mock := llm.NewMockProvider(gapQuizJSON(4, false), gapQuizJSON(4, true))
	m, _ := newTestMentor(t, mock)

	req := gapQuizRequest()
	if _, err := m.GenerateGapQuiz(context.Background(), req); err != nil {
		t.Fatalf("hintless call failed: %v", err)
	}

	req.IncludeHints = true
	quiz, err := m.GenerateGapQuiz(context.Background(), req)
	if err != nil {
		t.Fatalf("hinted call failed: %v", err)
	}
	if quiz.CacheHit {
		t.Error("a hintless cache entry must not satisfy a hinted request")
	}
	for _, q := range quiz.Questions {
		if q.Hint == "" {
			t.Error("hinted quiz question missing hint")
		}
	}
}

func TestGenerateGapQuizFoldsIntoChapterPools(t *testing.T) {
	mock := llm.NewMockProvider(gapQuizJSON(4, false))
	m, s := newTestMentor(t, mock)

	req := gapQuizRequest()
	if _, err := m.GenerateGapQuiz(context.Background(), req); err != nil {
		t.Fatalf("GenerateGapQuiz failed: %v", err)
	}

	// gapQuizJSON alternates questions between chapters 1 and 2.
	for chapter := 1; chapter <= 2; chapter++ {
		rec, err := s.QuestionRepo().GetChapter(context.Background(), req.CourseTopic, string(req.Difficulty), chapter)
		if err != nil {
			t.Fatalf("GetChapter %d: %v", chapter, err)
		}
		if rec == nil {
			t.Fatalf("chapter %d pool missing after folding", chapter)
		}
		var pool questiongen.ChapterQuestions
		if err := json.Unmarshal(rec.Payload, &pool); err != nil {
			t.Fatalf("decode chapter %d pool: %v", chapter, err)
		}
		if len(pool.MCQ) != 2 {
			t.Errorf("chapter %d pool has %d MCQ, want 2", chapter, len(pool.MCQ))
		}
		for _, q := range pool.MCQ {
			if q.Source != questiongen.SourceGapQuiz {
				t.Errorf("folded question source = %q", q.Source)
			}
		}
	}
}

func TestGenerateGapQuizDropsMalformed(t *testing.T) {
	resp := llm.MockResponse{Content: []byte(`{"questions":[
		{"chapter_number":1,"question_text":"Good?","options":["A) a","B) b","C) c","D) d"],"correct_answer":"a","explanation":"x","difficulty":"easy"},
		{"chapter_number":1,"question_text":"Bad","options":["A) a","B) b"],"correct_answer":"A","explanation":"x","difficulty":"easy"},
		{"chapter_number":1,"question_text":"","options":["A) a","B) b","C) c","D) d"],"correct_answer":"A","explanation":"x","difficulty":"easy"}
	]}`)}
	mock := llm.NewMockProvider(resp)
	m, _ := newTestMentor(t, mock)

	quiz, err := m.GenerateGapQuiz(context.Background(), gapQuizRequest())
	if err != nil {
		t.Fatalf("GenerateGapQuiz failed: %v", err)
	}
	if len(quiz.Questions) != 1 {
		t.Fatalf("got %d questions, want 1 surviving", len(quiz.Questions))
	}
	if quiz.Questions[0].CorrectAnswer != "A" {
		t.Errorf("answer = %q, want normalized A", quiz.Questions[0].CorrectAnswer)
	}
}

func TestGenerateGapQuizNoWeakAreas(t *testing.T) {
	m, _ := newTestMentor(t, llm.NewMockProvider())
	req := gapQuizRequest()
	req.WeakAreas = nil
	if _, err := m.GenerateGapQuiz(context.Background(), req); err == nil {
		t.Fatal("expected error without weak areas")
	}
}

func TestFeedback(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: []byte("You're making steady progress. Review IAM basics before the exam.")})
	m, _ := newTestMentor(t, mock)

	analysis := Analysis{
		CourseTopic:            "AWS Solutions Architect",
		AverageScore:           0.72,
		TotalChaptersCompleted: 4,
		TotalChapters:          8,
		WeakAreas:              []WeakArea{{ChapterNumber: 1, ChapterTitle: "IAM", Score: 0.5}},
	}
	text, err := m.Feedback(context.Background(), analysis, "u1", "aws-advanced")
	if err != nil {
		t.Fatalf("Feedback failed: %v", err)
	}
	if !strings.Contains(text, "steady progress") {
		t.Errorf("feedback = %q", text)
	}

	prompt := mock.Calls[0].Messages[0].Content
	if !strings.Contains(prompt, "Overall Score: 72%") {
		t.Error("prompt should include the overall score as a percentage")
	}
	if !strings.Contains(prompt, "Weak Areas: IAM") {
		t.Error("prompt should list weak area titles")
	}
	if mock.Calls[0].Temperature != 0.8 {
		t.Errorf("feedback temperature = %v, want 0.8", mock.Calls[0].Temperature)
	}
}

func TestAnalyzeProgress(t *testing.T) {
	scores := []ChapterScore{
		{ChapterNumber: 1, ChapterTitle: "IAM", Score: 0.5},
		{ChapterNumber: 2, ChapterTitle: "VPC", Score: 0.9},
		{ChapterNumber: 3, ChapterTitle: "S3", Score: 0.69},
	}
	a := AnalyzeProgress("AWS", course.Advanced, 8, scores, DefaultConfig())

	if len(a.WeakAreas) != 2 {
		t.Fatalf("got %d weak areas, want 2 (below 0.7)", len(a.WeakAreas))
	}
	if a.WeakAreas[0].ChapterTitle != "IAM" || a.WeakAreas[1].ChapterTitle != "S3" {
		t.Errorf("weak areas = %+v", a.WeakAreas)
	}
	if !a.MentorAvailable {
		t.Error("mentor should be available after 3 completed chapters")
	}

	short := AnalyzeProgress("AWS", course.Advanced, 8, scores[:2], DefaultConfig())
	if short.MentorAvailable {
		t.Error("mentor should need at least 3 completed chapters")
	}
	if got := short.AverageScore; got < 0.69 || got > 0.71 {
		t.Errorf("average score = %v, want 0.7", got)
	}
}
