package docanalyze

import (
	"fmt"
	"strings"

	"courseforge/internal/course"
)

// defaultNonContent lists section titles that never become chapters.
var defaultNonContent = []string{
	"table of contents", "contents", "dedication", "acknowledgment",
	"acknowledgement", "foreword", "preface", "index", "bibliography",
	"references", "works cited", "appendix", "copyright", "about the author",
	"author bio", "glossary",
}

func buildAnalyzePrompt(content string, maxSections int) string {
	var b strings.Builder
	b.WriteString("Analyze this document and identify its natural sections/chapters.\n\n")
	b.WriteString("DOCUMENT CONTENT:\n")
	b.WriteString(content)
	b.WriteString("\n\nINSTRUCTIONS:\n")
	b.WriteString("1. Identify the document type (textbook, article, manual, notes, lecture, other)\n")
	b.WriteString("2. Detect natural section breaks (headings, chapters, topic transitions)\n")
	b.WriteString("3. For each section, identify:\n")
	b.WriteString("   - A clear title (use document headings if present, or infer from content)\n")
	b.WriteString("   - Key topics covered (3-7 topics per section)\n")
	b.WriteString("   - Brief summary (1-2 sentences)\n")
	fmt.Fprintf(&b, "4. Return between 3 and %d sections based on document structure\n", maxSections)
	b.WriteString("5. DO NOT impose arbitrary divisions - follow the document's natural organization\n\n")

	b.WriteString("IMPORTANT - SKIP these non-content sections (do NOT include them):\n")
	b.WriteString("- Table of Contents\n")
	b.WriteString("- Dedication\n")
	b.WriteString("- Acknowledgments / Acknowledgements\n")
	b.WriteString("- Foreword / Preface (unless it contains substantial educational content)\n")
	b.WriteString("- Index\n")
	b.WriteString("- Bibliography / References / Works Cited\n")
	b.WriteString("- Appendices (unless they contain educational content worth studying)\n")
	b.WriteString("- Copyright / Legal notices\n")
	b.WriteString("- About the Author / Author Bio\n")
	b.WriteString("- Glossary (unless it's substantial enough to be a learning resource)\n\n")

	b.WriteString("Only include sections with actual educational/learning content that would make sense as course chapters.\n\n")

	b.WriteString("Return ONLY valid JSON (no markdown, no extra text):\n")
	b.WriteString(`{
  "document_title": "Main title of the document",
  "document_type": "textbook|article|manual|notes|lecture|other",
  "total_sections": <number>,
  "estimated_total_time_minutes": <number>,
  "analysis_notes": "Any notes about the document structure",
  "sections": [
    {
      "order": 1,
      "title": "Section Title",
      "summary": "What this section covers...",
      "key_topics": ["topic1", "topic2", "topic3"],
      "confidence": 0.9
    }
  ]
}`)

	return b.String()
}

// batchGuidance adjusts chapter depth to the audience.
func batchGuidance(d course.Difficulty) string {
	switch d {
	case course.Beginner:
		return "Use simple language, avoid jargon, and explain all terms."
	case course.Advanced:
		return "Focus on nuances, edge cases, and expert-level insights."
	default:
		return "Include practical applications and some technical depth."
	}
}

func buildBatchPrompt(topic, content string, sections []ConfirmedSection, difficulty course.Difficulty, startNumber int) string {
	endNumber := startNumber + len(sections) - 1
	minutes := course.PresetFor(difficulty).MinutesPerChapter

	var info strings.Builder
	for i, s := range sections {
		fmt.Fprintf(&info, "Chapter %d: %s\n  Topics: %s\n", startNumber+i, s.Title, strings.Join(s.KeyTopics, ", "))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create detailed chapter content for chapters %d to %d of this %s-level course.\n\n", startNumber, endNumber, difficulty)
	fmt.Fprintf(&b, "TOPIC: %s\n\n", topic)
	fmt.Fprintf(&b, "CHAPTERS TO GENERATE (exactly %d chapters):\n%s\n", len(sections), info.String())
	fmt.Fprintf(&b, "DOCUMENT CONTENT:\n%s\n\n", content)
	fmt.Fprintf(&b, "%s\n\n", batchGuidance(difficulty))

	b.WriteString("For EACH chapter listed above, generate:\n")
	fmt.Fprintf(&b, "- number: Use the chapter number specified above (%d to %d)\n", startNumber, endNumber)
	b.WriteString("- title: Use the chapter title provided\n")
	b.WriteString("- summary: 2-3 sentences explaining what learner will gain\n")
	b.WriteString("- key_concepts: 3-5 main concepts/skills (high-level)\n")
	b.WriteString("- key_ideas: 5-10 SPECIFIC testable statements (granular, for question generation)\n")
	b.WriteString("- source_excerpt: 1-2 key sentences from the source content\n")
	fmt.Fprintf(&b, "- difficulty: %q\n", string(difficulty))
	fmt.Fprintf(&b, "- estimated_time_minutes: %d\n\n", minutes)

	b.WriteString("IMPORTANT: key_ideas must be specific, testable facts from the content.\n\n")

	b.WriteString("Return ONLY valid JSON (no markdown, no extra text):\n")
	fmt.Fprintf(&b, `{
  "chapters": [
    {
      "number": %d,
      "title": "Chapter Title",
      "summary": "What the learner will learn...",
      "key_concepts": ["concept1", "concept2"],
      "key_ideas": ["Specific fact 1", "Specific fact 2", "..."],
      "source_excerpt": "Key quote from source...",
      "difficulty": %q,
      "estimated_time_minutes": %d
    }
  ]
}`, startNumber, string(difficulty), minutes)

	return b.String()
}
