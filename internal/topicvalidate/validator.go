// Package topicvalidate screens course topics before any expensive
// generation happens: cheap pattern checks first, then a model pass
// that scores complexity and recognizes certifications.
package topicvalidate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"courseforge/internal/llm"
	"courseforge/internal/store"
)

// validationSchema constrains the model's topic assessment.
var validationSchema = &llm.Schema{
	Name:        "topic-validation",
	Description: "Assessment of an educational topic for course generation",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"is_valid":           map[string]any{"type": "boolean"},
			"is_certification":   map[string]any{"type": "boolean"},
			"certification_body": map[string]any{"type": []any{"string", "null"}},
			"category": map[string]any{
				"type": "string",
				"enum": []any{
					"official_certification", "college_course", "high_school",
					"middle_school", "elementary_school", "general_knowledge",
				},
			},
			"reason": map[string]any{"type": []any{"string", "null"}},
			"message":     map[string]any{"type": "string"},
			"suggestions": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"complexity": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"score":              map[string]any{"type": "integer"},
					"level":              map[string]any{"type": "string"},
					"estimated_chapters": map[string]any{"type": "integer"},
					"estimated_hours":    map[string]any{"type": "number"},
					"reasoning":          map[string]any{"type": "string"},
				},
				"required": []any{"score", "level", "estimated_chapters", "estimated_hours", "reasoning"},
			},
		},
		"required": []any{"is_valid", "message"},
	},
}

// Validator screens topics.
type Validator struct {
	provider llm.Provider
}

// New creates a Validator.
func New(provider llm.Provider) *Validator {
	return &Validator{provider: provider}
}

// Validate runs the quick checks and, when they pass, the model
// assessment. A model failure degrades to needs_clarification rather
// than erroring: the caller can always ask the user to rephrase.
func (v *Validator) Validate(ctx context.Context, topic string) *Result {
	if r := QuickValidate(topic); r != nil {
		return r
	}
	return v.aiValidate(ctx, topic)
}

func (v *Validator) aiValidate(ctx context.Context, topic string) *Result {
	normalized := store.NormalizeTopic(topic)

	attr := llm.AttributionFrom(ctx)
	attr.Operation = llm.OpTopicValidation
	if attr.Context == "" {
		attr.Context = normalized
	}
	ctx = llm.WithAttribution(ctx, attr)

	resp, err := v.provider.Generate(ctx, llm.Request{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildValidationPrompt(topic)}},
		Schema:      validationSchema,
		MaxTokens:   llm.OpTopicValidation.MaxTokens(),
		Temperature: 0.3,
	})
	if err != nil {
		return clarificationFallback(topic, normalized, err)
	}

	var out struct {
		IsValid           bool        `json:"is_valid"`
		IsCertification   bool        `json:"is_certification"`
		CertificationBody string      `json:"certification_body"`
		Category          string      `json:"category"`
		Reason            string      `json:"reason"`
		Message           string      `json:"message"`
		Suggestions       []string    `json:"suggestions"`
		Complexity        *Complexity `json:"complexity"`
	}
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return clarificationFallback(topic, normalized, err)
	}

	status := StatusRejected
	switch {
	case out.IsValid:
		status = StatusAccepted
	case Reason(out.Reason) == ReasonUnclear:
		status = StatusNeedsClarification
	}

	category := Category(out.Category)
	if category != "" && !knownCategories[category] {
		category = CategoryGeneralKnowledge
	}

	return &Result{
		Status:            status,
		Topic:             topic,
		NormalizedTopic:   normalized,
		Reason:            Reason(out.Reason),
		Message:           out.Message,
		Suggestions:       out.Suggestions,
		Complexity:        out.Complexity,
		IsCertification:   out.IsCertification,
		CertificationBody: out.CertificationBody,
		Category:          category,
	}
}

func clarificationFallback(topic, normalized string, err error) *Result {
	return &Result{
		Status:          StatusNeedsClarification,
		Topic:           topic,
		NormalizedTopic: normalized,
		Reason:          ReasonUnclear,
		Message:         fmt.Sprintf("Could not validate topic. Please try rephrasing: %v", err),
		Suggestions: []string{
			"Try being more specific about the subject area",
			"Add context like the target audience or skill level",
			"Mention the practical application or goal",
		},
	}
}

func buildValidationPrompt(topic string) string {
	var b strings.Builder
	b.WriteString("Analyze this educational topic for a course generation system.\n\n")
	fmt.Fprintf(&b, "Topic: %q\n\n", topic)

	b.WriteString("IMPORTANT: If this topic is a recognized certification, professional credential, or standardized exam (e.g., CAPM, PMP, AWS, CISSP, CPA, etc.):\n")
	b.WriteString("- Treat it as VALID - these are well-defined learning paths\n")
	b.WriteString("- Use your knowledge of the official syllabus/exam domains\n")
	b.WriteString("- Base the complexity and chapter estimates on the actual certification curriculum\n")
	b.WriteString("- The estimated_chapters should align with the certification's official domains/modules\n\n")

	b.WriteString("Evaluate and respond with ONLY valid JSON (no additional text):\n\n")
	b.WriteString(`{
  "is_valid": true/false,
  "is_certification": true/false,
  "certification_body": "Name of certifying organization if applicable, null otherwise",
  "category": "official_certification" or "college_course" or "high_school" or "middle_school" or "elementary_school" or "general_knowledge",
  "reason": null or "too_broad" or "too_narrow" or "unclear" or "inappropriate",
  "message": "Brief explanation of your assessment",
  "suggestions": ["suggestion1", "suggestion2", "suggestion3"],
  "complexity": {
    "score": 1-10,
    "level": "basic" or "intermediate" or "advanced" or "expert",
    "estimated_chapters": number,
    "estimated_hours": number,
    "reasoning": "Why this complexity rating"
  }
}`)
	b.WriteString("\n\n")

	b.WriteString("Category Guidelines:\n")
	b.WriteString(`- "official_certification": Professional certifications (AWS, PMP, CISSP, CPA, CAPM, CompTIA, etc.)` + "\n")
	b.WriteString(`- "college_course": University/college level academic subjects (calculus, organic chemistry, etc.)` + "\n")
	b.WriteString(`- "high_school": High school curriculum topics (grades 9-12, AP courses, SAT prep)` + "\n")
	b.WriteString(`- "middle_school": Middle school curriculum topics (grades 6-8)` + "\n")
	b.WriteString(`- "elementary_school": Elementary school topics (grades 1-5, basic math, reading)` + "\n")
	b.WriteString(`- "general_knowledge": Hobbies, skills, general interest topics (photography, cooking, guitar)` + "\n\n")

	b.WriteString("Validation Guidelines:\n")
	b.WriteString("- A valid topic can be covered in 4-20 chapters (a single focused course)\n")
	b.WriteString("- Certifications are ALWAYS valid - they have official curricula\n")
	b.WriteString(`- "too_broad" = would need multiple courses (e.g., "Computer Science")` + "\n")
	b.WriteString(`- "too_narrow" = not enough content for a course (e.g., "How to print Hello World")` + "\n")
	b.WriteString(`- "unclear" = ambiguous or vague topic` + "\n")
	b.WriteString(`- "inappropriate" = offensive or not educational` + "\n")
	b.WriteString("- Complexity score: 1=trivial, 5=moderate, 10=extremely complex\n")
	b.WriteString("- For certifications, base estimated_chapters on official exam domains")

	return b.String()
}
