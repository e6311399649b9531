package tutor

import (
	"context"
	"strings"
	"testing"

	"courseforge/internal/llm"
)

func TestCheckAnswer(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: []byte(`{"is_correct": false, "explanation": "The answer confuses latency with throughput.", "score": 0.25}`),
	})
	tut := New(mock)

	eval, err := tut.CheckAnswer(context.Background(), "Define latency.", "requests per second", "time per request")
	if err != nil {
		t.Fatalf("CheckAnswer failed: %v", err)
	}
	if eval.IsCorrect {
		t.Error("evaluation should be incorrect")
	}
	if eval.Score != 0.25 {
		t.Errorf("score = %v, want partial credit 0.25", eval.Score)
	}
	if eval.Explanation == "" {
		t.Error("missing explanation")
	}

	req := mock.Calls[0]
	if req.Schema == nil {
		t.Error("answer checking should request schema-constrained output")
	}
	if req.Temperature != 0.3 {
		t.Errorf("temperature = %v, want 0.3", req.Temperature)
	}
	prompt := req.Messages[0].Content
	for _, want := range []string{"Question: Define latency.", "Student Answer: requests per second", "Correct Answer: time per request"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestCheckAnswerClampsScore(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: []byte(`{"is_correct": true, "explanation": "ok", "score": 1.7}`),
	})
	tut := New(mock)

	eval, err := tut.CheckAnswer(context.Background(), "q", "a", "a")
	if err != nil {
		t.Fatalf("CheckAnswer failed: %v", err)
	}
	if eval.Score != 1 {
		t.Errorf("score = %v, want clamped 1", eval.Score)
	}
}

func TestAnswer(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: []byte("A pod is the smallest deployable unit in Kubernetes."),
	})
	tut := New(mock)

	answer, err := tut.Answer(context.Background(), "What is a pod?", "Chapter 2 text about pods...")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if !strings.Contains(answer, "smallest deployable unit") {
		t.Errorf("answer = %q", answer)
	}

	prompt := mock.Calls[0].Messages[0].Content
	if !strings.Contains(prompt, "Context from the learning material:") {
		t.Error("prompt missing RAG context framing")
	}
	if !strings.Contains(prompt, "Student's Question: What is a pod?") {
		t.Error("prompt missing the question")
	}
}

func TestAnswerProviderError(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{}})
	tut := New(mock)

	if _, err := tut.Answer(context.Background(), "q", "ctx"); err == nil {
		t.Fatal("expected provider error to surface")
	}
}
