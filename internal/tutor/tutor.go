// Package tutor covers the interactive study operations: grading a
// free-form answer and answering a student question against retrieved
// course material.
package tutor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"courseforge/internal/llm"
)

// Evaluation is the graded result of one answer check.
type Evaluation struct {
	IsCorrect   bool    `json:"is_correct"`
	Explanation string  `json:"explanation"`
	Score       float64 `json:"score"` // 0..1, partial credit allowed
}

// evaluationSchema constrains answer grading output.
var evaluationSchema = &llm.Schema{
	Name:        "answer-evaluation",
	Description: "Grading of a student's answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"is_correct":  map[string]any{"type": "boolean"},
			"explanation": map[string]any{"type": "string"},
			"score":       map[string]any{"type": "number", "minimum": 0, "maximum": 1},
		},
		"required": []any{"is_correct", "explanation", "score"},
	},
}

// Tutor runs interactive study operations through an LLM provider.
type Tutor struct {
	provider llm.Provider
}

// New creates a Tutor.
func New(provider llm.Provider) *Tutor {
	return &Tutor{provider: provider}
}

// CheckAnswer grades a student's answer against the expected one,
// allowing partial credit.
func (t *Tutor) CheckAnswer(ctx context.Context, question, userAnswer, correctAnswer string) (*Evaluation, error) {
	attr := llm.AttributionFrom(ctx)
	attr.Operation = llm.OpAnswerChecking
	ctx = llm.WithAttribution(ctx, attr)

	resp, err := t.provider.Generate(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildCheckPrompt(question, userAnswer, correctAnswer)},
		},
		Schema:      evaluationSchema,
		MaxTokens:   llm.OpAnswerChecking.MaxTokens(),
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("check answer: %w", err)
	}

	var eval Evaluation
	if err := json.Unmarshal(resp.Content, &eval); err != nil {
		return nil, fmt.Errorf("decode evaluation: %w", err)
	}
	eval.Score = min(1, max(0, eval.Score))
	return &eval, nil
}

// Answer responds to a student question grounded in retrieved course
// material. The answer is plain text.
func (t *Tutor) Answer(ctx context.Context, question, ragContext string) (string, error) {
	attr := llm.AttributionFrom(ctx)
	attr.Operation = llm.OpRAGQuery
	ctx = llm.WithAttribution(ctx, attr)

	resp, err := t.provider.Generate(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildAnswerPrompt(question, ragContext)},
		},
		MaxTokens:   llm.OpRAGQuery.MaxTokens(),
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("answer question: %w", err)
	}
	return strings.TrimSpace(string(resp.Content)), nil
}

func buildCheckPrompt(question, userAnswer, correctAnswer string) string {
	var b strings.Builder
	b.WriteString("Evaluate this student's answer.\n\n")
	fmt.Fprintf(&b, "Question: %s\n", question)
	fmt.Fprintf(&b, "Student Answer: %s\n", userAnswer)
	fmt.Fprintf(&b, "Correct Answer: %s\n\n", correctAnswer)
	b.WriteString("Provide:\n")
	b.WriteString("1. Is the answer correct? (true/false)\n")
	b.WriteString("2. Explanation of why it's correct or incorrect\n")
	b.WriteString("3. Score (1.0 for correct, 0.0 for incorrect, or partial credit 0.0-1.0)\n\n")
	b.WriteString("Return ONLY valid JSON:\n")
	b.WriteString(`{
  "is_correct": true/false,
  "explanation": "...",
  "score": 0.0-1.0
}`)
	return b.String()
}

func buildAnswerPrompt(question, ragContext string) string {
	var b strings.Builder
	b.WriteString("You are a helpful tutor. Answer the student's question using the provided context.\n\n")
	b.WriteString("Context from the learning material:\n")
	b.WriteString(ragContext)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Student's Question: %s\n\n", question)
	b.WriteString("Provide a clear, concise answer based on the context. If the context doesn't contain enough information, say so.")
	return b.String()
}
