package questiongen

import (
	"fmt"
	"strings"

	"courseforge/internal/course"
)

// lengthGuidance adjusts question verbosity to the audience.
func lengthGuidance(d course.Difficulty) string {
	switch d {
	case course.Beginner:
		return "Keep questions SHORT (1-2 lines). Use simple vocabulary."
	case course.Advanced:
		return "Scenario-based questions can be LONGER (3-8 lines). Use precise technical language."
	default:
		return "Questions should be MODERATE length (2-4 lines). Balance clarity with depth."
	}
}

// jsonFormatRules spell out the output contract. Models drift into
// markdown fences and trailing commas without them; the parser copes,
// but clean output parses on the first try.
const jsonFormatRules = `CRITICAL JSON FORMATTING:
- Return ONLY valid JSON, no markdown code blocks, no extra text
- Use double quotes for ALL strings (never single quotes)
- Escape quotes inside strings with backslash: \"
- NO trailing commas after last item in arrays or objects
- difficulty must be exactly: "easy", "medium", or "hard"
- correct_answer for MCQ must be exactly: "A", "B", "C", or "D"
- correct_answer for true_false must be: true or false (no quotes)`

const jsonStructure = `Return this exact JSON structure:
{
  "mcq": [
    {
      "question_text": "Clear question text here?",
      "options": ["A) First option", "B) Second option", "C) Third option", "D) Fourth option"],
      "correct_answer": "A",
      "explanation": "Explanation of why A is correct...",
      "difficulty": "easy"
    }
  ],
  "true_false": [
    {
      "question_text": "A clear statement that is definitively true or false.",
      "correct_answer": true,
      "explanation": "Explanation of why this is true/false...",
      "difficulty": "medium"
    }
  ]
}`

// buildPrompt assembles the whole-chapter question generation prompt.
func buildPrompt(cfg GenerationConfig) string {
	keyConcepts := "General chapter concepts"
	if len(cfg.KeyConcepts) > 0 {
		keyConcepts = strings.Join(cfg.KeyConcepts, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert exam creator designing questions for %s.\n\n", cfg.Audience)
	fmt.Fprintf(&b, "Create questions for this chapter from a %s course on %s.\n\n", cfg.Difficulty, cfg.Topic)
	fmt.Fprintf(&b, "Chapter %d: %s\n", cfg.ChapterNumber, cfg.ChapterTitle)
	fmt.Fprintf(&b, "Key Concepts: %s\n", keyConcepts)

	if len(cfg.KeyIdeas) > 0 {
		b.WriteString("\nKEY IDEAS TO COVER (REQUIRED - generate at least 1 question per idea):\n")
		for _, idea := range cfg.KeyIdeas {
			fmt.Fprintf(&b, "  - %s\n", idea)
		}
		b.WriteString("\nCOVERAGE REQUIREMENT: Ensure at least 80% of the key ideas above are tested.\n")
		b.WriteString("Each key idea should have 2-3 questions testing different aspects.\n")
	}

	b.WriteString("\nGenerate EXACTLY:\n")
	fmt.Fprintf(&b, "- %d Multiple Choice Questions\n", cfg.MCQCount)
	fmt.Fprintf(&b, "- %d True/False Questions\n\n", cfg.TFCount)

	b.WriteString("RULES:\n")
	fmt.Fprintf(&b, "1. Language must be appropriate for %s\n", cfg.Audience)
	fmt.Fprintf(&b, "2. %s\n", lengthGuidance(cfg.Difficulty))
	b.WriteString("3. Cover ALL key concepts (at least 1 question per concept)\n")
	b.WriteString("4. If key ideas are provided, ensure each key idea has at least 1 question\n")
	b.WriteString("5. Mix difficulties: ~30% easy, ~50% medium, ~20% hard\n")
	b.WriteString("6. MCQ options: exactly 4 options (A, B, C, D), one clearly correct, plausible distractors\n")
	b.WriteString("7. NO trick questions or deliberately confusing wording\n")
	b.WriteString(`8. NO "All of the above" or "None of the above" options` + "\n")
	b.WriteString("9. Each question MUST have a clear explanation for the correct answer\n")
	b.WriteString("10. True/False statements must be definitively true or false, not ambiguous\n\n")

	b.WriteString(jsonFormatRules)
	b.WriteString("\n\n")
	b.WriteString(jsonStructure)

	return b.String()
}

// buildConceptPrompt assembles the prompt for one key concept during
// chunked generation.
func buildConceptPrompt(cfg GenerationConfig, concept string, mcqCount, tfCount int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert exam creator designing questions for %s.\n\n", cfg.Audience)
	fmt.Fprintf(&b, "Create questions about the concept %q from Chapter %d: %s of a %s course on %s.\n\n",
		concept, cfg.ChapterNumber, cfg.ChapterTitle, cfg.Difficulty, cfg.Topic)

	b.WriteString("Generate EXACTLY:\n")
	fmt.Fprintf(&b, "- %d Multiple Choice Questions about %q\n", mcqCount, concept)
	fmt.Fprintf(&b, "- %d True/False Questions about %q\n\n", tfCount, concept)

	b.WriteString("RULES:\n")
	fmt.Fprintf(&b, "1. Language must be appropriate for %s\n", cfg.Audience)
	fmt.Fprintf(&b, "2. %s\n", lengthGuidance(cfg.Difficulty))
	fmt.Fprintf(&b, "3. ALL questions must directly relate to %q\n", concept)
	b.WriteString("4. Mix difficulties: ~30% easy, ~50% medium, ~20% hard\n")
	b.WriteString("5. MCQ options: exactly 4 options (A, B, C, D), one clearly correct, plausible distractors\n")
	b.WriteString("6. NO trick questions or deliberately confusing wording\n")
	b.WriteString(`7. NO "All of the above" or "None of the above" options` + "\n")
	b.WriteString("8. Each question MUST have a clear explanation for the correct answer\n")
	b.WriteString("9. True/False statements must be definitively true or false, not ambiguous\n\n")

	b.WriteString(jsonFormatRules)
	b.WriteString("\n\n")
	b.WriteString(jsonStructure)

	return b.String()
}
