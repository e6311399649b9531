package mentor

import (
	"fmt"
	"strings"
)

// buildFeedbackPrompt asks for a short mentor-style progress review.
func buildFeedbackPrompt(analysis Analysis) string {
	weakAreas := "None"
	if len(analysis.WeakAreas) > 0 {
		titles := make([]string, len(analysis.WeakAreas))
		for i, wa := range analysis.WeakAreas {
			titles[i] = wa.ChapterTitle
		}
		weakAreas = strings.Join(titles, ", ")
	}

	var b strings.Builder
	b.WriteString("You are a supportive learning mentor.\n\n")
	b.WriteString("Student Progress:\n")
	fmt.Fprintf(&b, "- Overall Score: %.0f%%\n", analysis.AverageScore*100)
	fmt.Fprintf(&b, "- Chapters Completed: %d of %d\n", analysis.TotalChaptersCompleted, analysis.TotalChapters)
	fmt.Fprintf(&b, "- Weak Areas: %s\n\n", weakAreas)
	b.WriteString("Provide:\n")
	b.WriteString("1. Encouraging feedback on progress\n")
	b.WriteString("2. Specific areas to review\n")
	b.WriteString("3. Study recommendations\n")
	b.WriteString("4. Readiness assessment (ready/not ready for exam)\n\n")
	b.WriteString("Be supportive but honest. Keep it concise (3-4 paragraphs).")
	return b.String()
}

// buildGapQuizPrompt requests remediation questions for weak chapters.
func buildGapQuizPrompt(req GapQuizRequest) string {
	var areas strings.Builder
	for _, wa := range req.WeakAreas {
		fmt.Fprintf(&areas, "- Chapter %d: %s (scored %.0f%%)\n", wa.ChapterNumber, wa.ChapterTitle, wa.Score*100)
		if len(wa.WeakConcepts) > 0 {
			fmt.Fprintf(&areas, "  Weak concepts: %s\n", strings.Join(wa.WeakConcepts, ", "))
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a learning mentor creating a remediation quiz for a %s course on %s.\n\n", req.Difficulty, req.CourseTopic)
	b.WriteString("The student struggled with these chapters:\n")
	b.WriteString(areas.String())
	b.WriteString("\n")
	fmt.Fprintf(&b, "Generate EXACTLY %d multiple choice questions that target these weak areas.\n", req.NumQuestions)
	b.WriteString("Distribute questions across the weak chapters, weighting the lowest scores heaviest.\n\n")

	b.WriteString("RULES:\n")
	b.WriteString("1. Each question must test a concept from one of the weak chapters\n")
	b.WriteString("2. Set chapter_number to the weak chapter the question targets\n")
	b.WriteString("3. Exactly 4 options (A, B, C, D), one clearly correct, plausible distractors\n")
	b.WriteString("4. Each question MUST have a clear explanation for the correct answer\n")
	if req.IncludeHints {
		b.WriteString("5. Each question MUST include a short hint that nudges without revealing the answer\n")
	} else {
		b.WriteString("5. Do NOT include hints\n")
	}
	b.WriteString("\n")

	b.WriteString("CRITICAL JSON FORMATTING:\n")
	b.WriteString("- Return ONLY valid JSON, no markdown code blocks, no extra text\n")
	b.WriteString("- Use double quotes for ALL strings\n")
	b.WriteString("- NO trailing commas\n")
	b.WriteString(`- correct_answer must be exactly: "A", "B", "C", or "D"` + "\n\n")

	b.WriteString("Return this exact JSON structure:\n")
	hint := ""
	if req.IncludeHints {
		hint = `
      "hint": "A nudge toward the answer...",`
	}
	fmt.Fprintf(&b, `{
  "questions": [
    {
      "chapter_number": 1,
      "question_text": "Clear question text here?",
      "options": ["A) First option", "B) Second option", "C) Third option", "D) Fourth option"],
      "correct_answer": "A",
      "explanation": "Explanation of why A is correct...",%s
      "difficulty": "medium"
    }
  ]
}`, hint)

	return b.String()
}
