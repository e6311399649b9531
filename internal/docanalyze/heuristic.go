package docanalyze

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Heuristic section detection used when the model is unavailable. It
// finds headings by pattern matching and falls back to paragraph
// chunking on unstructured text. Quality is well below a model pass;
// confidence scores reflect that.

type sectionPattern struct {
	re         *regexp.Regexp
	confidence float64
}

var sectionPatterns = []sectionPattern{
	{regexp.MustCompile(`(?m)^(?:Chapter|CHAPTER)\s+\d+[:.\s]+(.+)$`), 0.95},
	{regexp.MustCompile(`(?m)^(?:Section|SECTION)\s+\d+[:.\s]+(.+)$`), 0.9},
	{regexp.MustCompile(`(?m)^(?:Part|PART)\s+\d+[:.\s]+(.+)$`), 0.9},
	{regexp.MustCompile(`(?m)^#{1,3}\s+(.+)$`), 0.85},
	{regexp.MustCompile(`(?m)^\d+\.\s+([A-Z].{5,50})$`), 0.8},
	{regexp.MustCompile(`(?m)^([A-Z][A-Z\s]{5,50})$`), 0.75},
}

type detected struct {
	pos     int
	section Section
}

// DetectSections builds an outline from text structure alone.
func DetectSections(content string, maxSections int, nonContent []string) Outline {
	if maxSections <= 0 {
		maxSections = 15
	}
	if nonContent == nil {
		nonContent = defaultNonContent
	}

	var found []detected
	usedPositions := []int{}

	for _, sp := range sectionPatterns {
		for _, m := range sp.re.FindAllStringSubmatchIndex(content, -1) {
			pos := m[0]
			if tooClose(pos, usedPositions) {
				continue
			}
			title := cleanTitle(content[m[2]:m[3]])
			if len(title) < 3 || len(title) > 100 {
				continue
			}

			body := sliceAt(content, m[1], 500)
			found = append(found, detected{pos: pos, section: Section{
				Title:      title,
				Summary:    summarize(body, title),
				KeyTopics:  topicsFrom(sliceAt(content, m[1], 1000)),
				Confidence: sp.confidence,
			}})
			usedPositions = append(usedPositions, pos)
		}
	}

	sort.Slice(found, func(i, j int) bool { return found[i].pos < found[j].pos })

	sections := make([]Section, 0, len(found))
	for _, d := range found {
		if isNonContent(d.section.Title, nonContent) {
			continue
		}
		sections = append(sections, d.section)
		if len(sections) == maxSections {
			break
		}
	}

	if len(sections) == 0 {
		sections = paragraphSections(content, maxSections)
	}
	for i := range sections {
		sections[i].Order = i + 1
	}

	return Outline{
		DocumentTitle:    titleFrom(content),
		DocumentType:     documentType(content),
		TotalSections:    len(sections),
		Sections:         sections,
		EstimatedMinutes: max(30, len(content)/1000*5),
		AnalysisNotes:    "Structure detected by pattern matching, not model analysis.",
	}
}

func tooClose(pos int, used []int) bool {
	for _, p := range used {
		if abs(pos-p) < 200 {
			return true
		}
	}
	return false
}

func cleanTitle(s string) string {
	return strings.Trim(strings.TrimSpace(s), "#=: ")
}

func sliceAt(content string, start, n int) string {
	if start >= len(content) {
		return ""
	}
	return content[start:min(len(content), start+n)]
}

func summarize(body, title string) string {
	sentences := strings.SplitN(body, ".", 3)
	var parts []string
	for _, s := range sentences[:min(2, len(sentences))] {
		if t := strings.TrimSpace(s); t != "" {
			parts = append(parts, t)
		}
	}
	summary := strings.Join(parts, ". ")
	if len(summary) > 200 {
		summary = summary[:200]
	}
	if summary == "" {
		return fmt.Sprintf("Content section covering %s", title)
	}
	return summary
}

// topicsFrom picks up to five distinct capitalized words as key topics.
func topicsFrom(body string) []string {
	var topics []string
	seen := map[string]bool{}
	for _, w := range strings.Fields(body) {
		clean := strings.Trim(w, `.,;:!?()[]"'`)
		if len(clean) <= 3 || seen[clean] {
			continue
		}
		if clean[0] < 'A' || clean[0] > 'Z' {
			continue
		}
		topics = append(topics, clean)
		seen[clean] = true
		if len(topics) == 5 {
			break
		}
	}
	if len(topics) == 0 {
		topics = []string{"Key concepts", "Main ideas"}
	}
	return topics
}

func isNonContent(title string, nonContent []string) bool {
	lower := strings.ToLower(title)
	for _, p := range nonContent {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// paragraphSections chunks unstructured text into evenly spaced sections.
func paragraphSections(content string, maxSections int) []Section {
	var paragraphs []string
	for _, p := range strings.Split(content, "\n\n") {
		if t := strings.TrimSpace(p); len(t) > 100 {
			paragraphs = append(paragraphs, t)
		}
	}
	if len(paragraphs) == 0 {
		return nil
	}

	n := min(max(3, len(paragraphs)/3), maxSections)
	sections := make([]Section, 0, n)
	for i := 0; i < n; i++ {
		idx := i * len(paragraphs) / n
		if idx >= len(paragraphs) {
			break
		}
		para := paragraphs[idx]
		firstLine := strings.SplitN(para, "\n", 2)[0]
		if len(firstLine) > 80 {
			firstLine = firstLine[:80]
		}
		summary := para
		if len(summary) > 200 {
			summary = summary[:200]
		}
		sections = append(sections, Section{
			Title:      fmt.Sprintf("Section %d: %s", i+1, firstLine),
			Summary:    summary,
			KeyTopics:  []string{"Main concepts", "Key ideas"},
			Confidence: 0.5,
		})
	}
	return sections
}

// titleFrom takes the first short meaningful line as the document title.
func titleFrom(content string) string {
	lines := strings.Split(content, "\n")
	for _, line := range lines[:min(10, len(lines))] {
		t := strings.TrimSpace(line)
		if len(t) > 5 && len(t) < 100 {
			return cleanTitle(t)
		}
	}
	return "Untitled Document"
}

func documentType(content string) string {
	lower := strings.ToLower(content)
	switch {
	case strings.Contains(lower, "chapter") || strings.Contains(lower, "textbook"):
		return "textbook"
	case strings.Contains(lower, "lecture") || strings.Contains(lower, "slide"):
		return "lecture"
	case strings.Contains(lower, "manual") || strings.Contains(lower, "guide"):
		return "manual"
	case strings.Contains(lower, "article") || strings.Contains(lower, "abstract"):
		return "article"
	default:
		return "notes"
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
