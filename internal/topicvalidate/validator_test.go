package topicvalidate

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"courseforge/internal/llm"
)

func TestQuickValidateVagueTerms(t *testing.T) {
	r := QuickValidate("stuff about things")
	if r == nil {
		t.Fatal("vague topic should be rejected without a model call")
	}
	if r.Status != StatusRejected || r.Reason != ReasonUnclear {
		t.Errorf("status = %s, reason = %s", r.Status, r.Reason)
	}
	if !strings.Contains(r.Message, "vague terms") {
		t.Errorf("message = %q", r.Message)
	}
}

func TestQuickValidateBroadSingleWord(t *testing.T) {
	r := QuickValidate("Physics")
	if r == nil {
		t.Fatal("broad single word should be rejected")
	}
	if r.Status != StatusRejected || r.Reason != ReasonTooBroad {
		t.Errorf("status = %s, reason = %s", r.Status, r.Reason)
	}
	if len(r.Suggestions) != 3 {
		t.Errorf("got %d suggestions, want 3 narrowing suggestions", len(r.Suggestions))
	}
	if r.NormalizedTopic != "physics" {
		t.Errorf("normalized = %q", r.NormalizedTopic)
	}
}

func TestQuickValidateAllowedSingleWord(t *testing.T) {
	if r := QuickValidate("Kubernetes"); r != nil {
		t.Errorf("known single-word course should pass quick validation, got %+v", r)
	}
}

func TestQuickValidateUnknownSingleWord(t *testing.T) {
	r := QuickValidate("bartending")
	if r == nil {
		t.Fatal("unknown single word should need clarification")
	}
	if r.Status != StatusNeedsClarification {
		t.Errorf("status = %s", r.Status)
	}
}

func TestQuickValidateFillerOnly(t *testing.T) {
	r := QuickValidate("the art of the")
	if r == nil {
		t.Fatal("filler-heavy topic should need clarification")
	}
	if r.Status != StatusNeedsClarification {
		t.Errorf("status = %s", r.Status)
	}
}

func TestQuickValidatePassesSpecificTopics(t *testing.T) {
	for _, topic := range []string{
		"AWS Solutions Architect certification",
		"Linear algebra for data science",
		"CAPM exam preparation",
	} {
		if r := QuickValidate(topic); r != nil {
			t.Errorf("QuickValidate(%q) = %+v, want pass", topic, r)
		}
	}
}

func TestValidateAccepted(t *testing.T) {
	payload, _ := json.Marshal(map[string]any{
		"is_valid":           true,
		"is_certification":   true,
		"certification_body": "PMI",
		"category":           "official_certification",
		"message":            "CAPM is a recognized certification.",
		"suggestions":        []string{},
		"complexity": map[string]any{
			"score":              6,
			"level":              "intermediate",
			"estimated_chapters": 8,
			"estimated_hours":    24.0,
			"reasoning":          "Official exam domains",
		},
	})
	mock := llm.NewMockProvider(llm.MockResponse{Content: payload})
	v := New(mock)

	r := v.Validate(context.Background(), "CAPM certification prep")
	if r.Status != StatusAccepted {
		t.Fatalf("status = %s, want accepted", r.Status)
	}
	if !r.IsCertification || r.CertificationBody != "PMI" {
		t.Errorf("certification fields = %v, %q", r.IsCertification, r.CertificationBody)
	}
	if r.Category != CategoryCertification {
		t.Errorf("category = %s", r.Category)
	}
	if r.Complexity == nil || r.Complexity.Score != 6 {
		t.Errorf("complexity = %+v", r.Complexity)
	}
	if mock.Calls[0].Schema == nil {
		t.Error("validation should request schema-constrained output")
	}
	if mock.Calls[0].Temperature != 0.3 {
		t.Errorf("temperature = %v, want 0.3", mock.Calls[0].Temperature)
	}
}

func TestValidateUnclearBecomesClarification(t *testing.T) {
	payload, _ := json.Marshal(map[string]any{
		"is_valid": false,
		"reason":   "unclear",
		"message":  "Too ambiguous.",
	})
	mock := llm.NewMockProvider(llm.MockResponse{Content: payload})
	v := New(mock)

	r := v.Validate(context.Background(), "quantum stuffology research")
	if r.Status != StatusNeedsClarification {
		t.Errorf("status = %s, want needs_clarification", r.Status)
	}
}

func TestValidateRejectedTooNarrow(t *testing.T) {
	payload, _ := json.Marshal(map[string]any{
		"is_valid": false,
		"reason":   "too_narrow",
		"message":  "Not enough material for a course.",
	})
	mock := llm.NewMockProvider(llm.MockResponse{Content: payload})
	v := New(mock)

	r := v.Validate(context.Background(), "printing hello world in go")
	if r.Status != StatusRejected || r.Reason != ReasonTooNarrow {
		t.Errorf("status = %s, reason = %s", r.Status, r.Reason)
	}
}

func TestValidateProviderFailureDegrades(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{}})
	v := New(mock)

	r := v.Validate(context.Background(), "marine biology field methods")
	if r.Status != StatusNeedsClarification {
		t.Errorf("status = %s, want degraded needs_clarification", r.Status)
	}
	if !strings.Contains(r.Message, "Could not validate topic") {
		t.Errorf("message = %q", r.Message)
	}
}

func TestValidateUnknownCategoryFallsBack(t *testing.T) {
	payload, _ := json.Marshal(map[string]any{
		"is_valid": true,
		"category": "postgraduate_seminar",
		"message":  "ok",
	})
	mock := llm.NewMockProvider(llm.MockResponse{Content: payload})
	v := New(mock)

	r := v.Validate(context.Background(), "organic chemistry reaction mechanisms")
	if r.Category != CategoryGeneralKnowledge {
		t.Errorf("category = %s, want general_knowledge fallback", r.Category)
	}
}
