package coursegen

import (
	"fmt"
	"strings"

	"courseforge/internal/course"
)

// depthDescriptions expand the depth label for the prompt.
var depthDescriptions = map[course.Depth]string{
	course.DepthOverview:      "surface-level concepts and key terminology",
	course.DepthDetailed:      "practical depth with explanations and examples",
	course.DepthComprehensive: "expert-level content with advanced concepts and case studies",
}

// difficultyGuidance tells the model who it is writing for.
var difficultyGuidance = map[course.Difficulty]string{
	course.Beginner:     "Assume no prior knowledge. Use simple language, avoid jargon, and explain all terms.",
	course.Intermediate: "Assume basic familiarity with the subject. Include practical applications and some technical depth.",
	course.Advanced:     "Assume strong foundational knowledge. Focus on nuances, edge cases, and expert-level insights.",
}

// certificationNote steers the model toward official syllabi when the
// topic is a known credential. Generic chapter invention for a cert
// course produces structures that don't match what the exam tests.
const certificationNote = `IMPORTANT: If this is a recognized certification, professional credential, or standardized exam (e.g., CAPM, PMP, AWS, CISSP, etc.):
- Structure chapters based on the OFFICIAL exam domains/syllabus
- Use the actual certification curriculum as your guide
- Each chapter should align with real exam objectives
- Include domain names as they appear in the official certification guide`

func depthDescription(d course.Depth) string {
	if desc, ok := depthDescriptions[d]; ok {
		return desc
	}
	return depthDescriptions[course.DepthDetailed]
}

func guidanceFor(d course.Difficulty) string {
	if g, ok := difficultyGuidance[d]; ok {
		return g
	}
	return difficultyGuidance[course.Intermediate]
}

// buildPrompt assembles the chapter generation prompt. content, when
// non-empty, is uploaded document text the chapters must be based on.
func buildPrompt(topic string, cfg course.Config, content string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an expert curriculum designer creating a %s-level course.\n\n", cfg.Difficulty)
	fmt.Fprintf(&b, "Topic: %s\n", topic)
	fmt.Fprintf(&b, "Required chapters: exactly %d\n", cfg.NumChapters)
	fmt.Fprintf(&b, "Content depth: %s (%s)\n", cfg.Depth, depthDescription(cfg.Depth))
	fmt.Fprintf(&b, "Time per chapter: %d minutes\n\n", cfg.MinutesPerChapter)

	b.WriteString(guidanceFor(cfg.Difficulty))
	b.WriteString("\n\n")
	b.WriteString(certificationNote)
	b.WriteString("\n\n")

	if content != "" {
		fmt.Fprintf(&b, "Based on this document, create exactly %d chapters:\n\n", cfg.NumChapters)
		b.WriteString("Document content:\n")
		b.WriteString(content)
		b.WriteString("\n\n")
		b.WriteString("Create chapters that:\n")
	} else {
		fmt.Fprintf(&b, "Create exactly %d chapters that:\n", cfg.NumChapters)
	}

	b.WriteString("- Progress logically from fundamentals to more complex concepts\n")
	fmt.Fprintf(&b, "- Are appropriate for %s-level learners\n", cfg.Difficulty)
	fmt.Fprintf(&b, "- Each can be studied in approximately %d minutes\n", cfg.MinutesPerChapter)
	fmt.Fprintf(&b, "- Cover %s-level content\n\n", cfg.Depth)

	b.WriteString("For each chapter provide:\n")
	fmt.Fprintf(&b, "- number: sequential (1 to %d)\n", cfg.NumChapters)
	b.WriteString("- title: clear, descriptive title\n")
	b.WriteString("- summary: 2-3 sentences explaining what the learner will gain\n")
	b.WriteString("- key_concepts: 3-5 main ideas or skills covered\n\n")

	b.WriteString("Return ONLY valid JSON:\n")
	fmt.Fprintf(&b, `{
  "chapters": [
    {
      "number": 1,
      "title": "Chapter Title",
      "summary": "What the learner will learn...",
      "key_concepts": ["concept1", "concept2", "concept3"],
      "estimated_time_minutes": %d
    }
  ]
}`, cfg.MinutesPerChapter)

	return b.String()
}
