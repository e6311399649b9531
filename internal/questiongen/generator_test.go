package questiongen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"courseforge/internal/course"
	"courseforge/internal/llm"
)

// questionsJSON builds a valid model response with the given counts.
func questionsJSON(mcq, tf int) json.RawMessage {
	var b strings.Builder
	b.WriteString(`{"mcq":[`)
	for i := 0; i < mcq; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"question_text":"MCQ %d?","options":["A) a","B) b","C) c","D) d"],"correct_answer":"b","explanation":"because","difficulty":"easy"}`, i+1)
	}
	b.WriteString(`],"true_false":[`)
	for i := 0; i < tf; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"question_text":"Statement %d.","correct_answer":true,"explanation":"because","difficulty":"medium"}`, i+1)
	}
	b.WriteString(`]}`)
	return json.RawMessage(b.String())
}

func newTestGenerator(mock *llm.MockProvider) *Generator {
	return New(mock, &llm.Extractor{}, nil, nil, DefaultConfig())
}

func testGenConfig() GenerationConfig {
	return GenerationConfig{
		Topic:         "Kubernetes",
		Difficulty:    course.Intermediate,
		ChapterNumber: 2,
		ChapterTitle:  "Pods and Deployments",
		KeyConcepts:   []string{"pods", "deployments"},
		MCQCount:      3,
		TFCount:       2,
	}
}

func TestGenerate(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: questionsJSON(3, 2)})
	g := newTestGenerator(mock)

	result, err := g.Generate(context.Background(), testGenConfig())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if result.ChapterNumber != 2 || result.ChapterTitle != "Pods and Deployments" {
		t.Errorf("chapter identity = (%d, %q)", result.ChapterNumber, result.ChapterTitle)
	}
	if len(result.MCQ) != 3 || len(result.TrueFalse) != 2 {
		t.Fatalf("got %d MCQ, %d TF; want 3, 2", len(result.MCQ), len(result.TrueFalse))
	}
	// The mock answers with lowercase "b"; it must come back normalized.
	if result.MCQ[0].CorrectAnswer != "B" {
		t.Errorf("correct answer = %q, want B", result.MCQ[0].CorrectAnswer)
	}
	if mock.CallCount() != 1 {
		t.Errorf("provider calls = %d, want 1", mock.CallCount())
	}
}

func TestGenerateDropsMalformedMCQ(t *testing.T) {
	payload := json.RawMessage(`{
		"mcq": [
			{"question_text":"Good?","options":["A) a","B) b","C) c","D) d"],"correct_answer":"A","explanation":"x","difficulty":"easy"},
			{"question_text":"Three options","options":["A) a","B) b","C) c"],"correct_answer":"A","explanation":"x","difficulty":"easy"},
			{"question_text":"Bad answer","options":["A) a","B) b","C) c","D) d"],"correct_answer":"E","explanation":"x","difficulty":"easy"},
			{"question_text":"","options":["A) a","B) b","C) c","D) d"],"correct_answer":"A","explanation":"x","difficulty":"easy"}
		],
		"true_false": [
			{"question_text":"Fine.","correct_answer":false,"explanation":"x","difficulty":"hard"},
			{"question_text":"","correct_answer":true,"explanation":"x","difficulty":"easy"}
		]
	}`)
	mock := llm.NewMockProvider(llm.MockResponse{Content: payload})
	g := New(mock, &llm.Extractor{}, nil, nil, Config{MaxRetries: 0})

	result, err := g.Generate(context.Background(), GenerationConfig{
		Topic: "Go", Difficulty: course.Beginner, ChapterNumber: 1, ChapterTitle: "Basics",
		MCQCount: 1, TFCount: 1,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(result.MCQ) != 1 {
		t.Errorf("got %d MCQ, want 1 (malformed entries dropped)", len(result.MCQ))
	}
	if len(result.TrueFalse) != 1 {
		t.Errorf("got %d TF, want 1 (empty statement dropped)", len(result.TrueFalse))
	}
}

func TestGenerateRetriesBelowTolerance(t *testing.T) {
	// 10 MCQ requested with 80% tolerance means at least 8; the first
	// response falls short and triggers one retry.
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: questionsJSON(2, 5)},
		llm.MockResponse{Content: questionsJSON(10, 5)},
	)
	g := newTestGenerator(mock)

	gc := testGenConfig()
	gc.MCQCount = 10
	gc.TFCount = 5

	result, err := g.Generate(context.Background(), gc)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(result.MCQ) != 10 {
		t.Errorf("got %d MCQ after retry, want 10", len(result.MCQ))
	}
	if mock.CallCount() != 2 {
		t.Errorf("provider calls = %d, want 2", mock.CallCount())
	}
}

func TestGenerateAcceptsShortPoolOutOfRetries(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: questionsJSON(2, 1)},
		llm.MockResponse{Content: questionsJSON(3, 1)},
	)
	g := newTestGenerator(mock)

	gc := testGenConfig()
	gc.MCQCount = 10
	gc.TFCount = 5

	result, err := g.Generate(context.Background(), gc)
	if err != nil {
		t.Fatalf("short pool should be accepted, got error: %v", err)
	}
	if len(result.MCQ) != 3 || len(result.TrueFalse) != 1 {
		t.Errorf("got %d MCQ, %d TF; want the last attempt's 3, 1", len(result.MCQ), len(result.TrueFalse))
	}
}

func TestGenerateFailsWhenAllAttemptsError(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Err: &llm.ErrProviderUnavailable{}},
		llm.MockResponse{Err: &llm.ErrProviderUnavailable{}},
	)
	g := newTestGenerator(mock)

	if _, err := g.Generate(context.Background(), testGenConfig()); err == nil {
		t.Fatal("expected error when every attempt fails")
	}
	if mock.CallCount() != 2 {
		t.Errorf("provider calls = %d, want 2", mock.CallCount())
	}
}

func TestGeneratePromptShape(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: questionsJSON(3, 2)})
	g := newTestGenerator(mock)

	gc := testGenConfig()
	gc.Difficulty = course.Beginner
	gc.KeyIdeas = []string{"a pod wraps one or more containers"}

	if _, err := g.Generate(context.Background(), gc); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	prompt := mock.Calls[0].Messages[0].Content
	for _, want := range []string{
		"teenagers and beginners",
		"- 3 Multiple Choice Questions",
		"- 2 True/False Questions",
		"KEY IDEAS TO COVER",
		"a pod wraps one or more containers",
		"at least 80% of the key ideas",
		"CRITICAL JSON FORMATTING",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestDeriveAudience(t *testing.T) {
	if a := DeriveAudience(course.Advanced); !strings.Contains(a, "experienced professionals") {
		t.Errorf("advanced audience = %q", a)
	}
	if DeriveAudience("nonsense") != DeriveAudience(course.Intermediate) {
		t.Error("unknown difficulty should fall back to intermediate audience")
	}
}

func TestNormalizeDifficulty(t *testing.T) {
	cases := map[string]string{
		"easy": "easy", "EASY": "easy", " hard ": "hard",
		"medium": "medium", "moderate": "medium", "": "medium",
	}
	for in, want := range cases {
		if got := normalizeDifficulty(in); got != want {
			t.Errorf("normalizeDifficulty(%q) = %q, want %q", in, got, want)
		}
	}
}
