package topicvalidate

import (
	"fmt"
	"sort"
	"strings"

	"courseforge/internal/store"
)

// broadTopics are single words that span whole fields; one course
// cannot cover them.
var broadTopics = wordSet(
	"physics", "math", "mathematics", "business", "science", "engineering",
	"medicine", "law", "history", "chemistry", "biology", "economics",
	"psychology", "sociology", "philosophy", "art", "music", "literature",
	"technology", "computer", "programming", "marketing", "finance",
	"management", "education", "health", "politics", "geography",
)

// allowedSingleWords are single-word topics specific enough to be a
// course on their own.
var allowedSingleWords = wordSet(
	"calculus", "algebra", "geometry", "trigonometry", "statistics",
	"photoshop", "excel", "powerpoint", "docker", "kubernetes", "git",
	"javascript", "python", "java", "rust", "golang", "typescript",
	"react", "angular", "vue", "django", "flask", "fastapi",
	"sql", "mongodb", "redis", "elasticsearch", "graphql",
)

// vagueTerms make any topic unclear regardless of length.
var vagueTerms = wordSet(
	"stuff", "things", "about", "everything", "misc", "miscellaneous",
	"random", "various", "general", "basic", "advanced", "intro",
	"something", "anything", "whatever", "etc", "other",
)

var fillerWords = wordSet("the", "a", "an", "to", "for", "of", "in", "on", "and", "or", "with")

func wordSet(words ...string) map[string]bool {
	s := make(map[string]bool, len(words))
	for _, w := range words {
		s[w] = true
	}
	return s
}

// QuickValidate runs the pattern checks that need no model call.
// It returns nil when the topic passes and should go on to AI
// validation.
func QuickValidate(topic string) *Result {
	normalized := store.NormalizeTopic(topic)
	words := strings.Fields(normalized)

	var vague []string
	for _, w := range words {
		if vagueTerms[w] {
			vague = append(vague, w)
		}
	}
	if len(vague) > 0 {
		sort.Strings(vague)
		return &Result{
			Status:          StatusRejected,
			Topic:           topic,
			NormalizedTopic: normalized,
			Reason:          ReasonUnclear,
			Message:         fmt.Sprintf("The topic contains vague terms: %s. Please be more specific.", strings.Join(vague, ", ")),
			Suggestions: []string{
				fmt.Sprintf("Try specifying what aspect of '%s' you want to learn", topic),
				"Add context like 'for beginners' or 'practical applications'",
				"Focus on a specific subtopic or skill",
			},
		}
	}

	if len(words) == 1 {
		if allowedSingleWords[normalized] {
			return nil
		}
		if broadTopics[normalized] {
			return &Result{
				Status:          StatusRejected,
				Topic:           topic,
				NormalizedTopic: normalized,
				Reason:          ReasonTooBroad,
				Message:         fmt.Sprintf("'%s' is too broad for a single course. Please narrow down to a specific area.", topic),
				Suggestions:     narrowingSuggestions(normalized),
			}
		}
		return &Result{
			Status:          StatusNeedsClarification,
			Topic:           topic,
			NormalizedTopic: normalized,
			Reason:          ReasonUnclear,
			Message:         fmt.Sprintf("'%s' is a single word. Could you be more specific about what you want to learn?", topic),
			Suggestions: []string{
				fmt.Sprintf("'%s' fundamentals", topic),
				fmt.Sprintf("Introduction to %s", topic),
				fmt.Sprintf("Practical %s skills", topic),
			},
		}
	}

	meaningful := 0
	for _, w := range words {
		if !fillerWords[w] {
			meaningful++
		}
	}
	if meaningful < 2 {
		return &Result{
			Status:          StatusNeedsClarification,
			Topic:           topic,
			NormalizedTopic: normalized,
			Reason:          ReasonUnclear,
			Message:         "The topic needs more specificity. Please add more detail.",
			Suggestions: []string{
				"Add the specific area or application you're interested in",
				"Specify the level (beginner, intermediate, advanced)",
				"Mention the context (for work, for certification, etc.)",
			},
		}
	}

	return nil
}

// narrowingSuggestions offer focused courses inside a broad field.
var narrowingMap = map[string][]string{
	"physics":     {"Classical Mechanics for Engineers", "Introduction to Quantum Physics", "Thermodynamics Fundamentals"},
	"math":        {"Linear Algebra for Data Science", "Calculus for Machine Learning", "Statistics for Business Analytics"},
	"mathematics": {"Discrete Mathematics for Computer Science", "Mathematical Logic", "Probability Theory"},
	"business":    {"Business Strategy Fundamentals", "Financial Accounting Basics", "Marketing for Startups"},
	"science":     {"Scientific Method and Research Design", "Data Science Fundamentals", "Environmental Science Basics"},
	"engineering": {"Software Engineering Principles", "Civil Engineering Fundamentals", "Systems Engineering Basics"},
	"programming": {"Python Programming for Beginners", "Web Development with JavaScript", "Object-Oriented Programming Concepts"},
	"computer":    {"Computer Science Fundamentals", "Computer Networking Basics", "Operating Systems Concepts"},
	"history":     {"World War II: Causes and Consequences", "History of the Roman Empire", "American Civil Rights Movement"},
	"medicine":    {"Human Anatomy Basics", "Pharmacology Fundamentals", "Medical Terminology"},
}

func narrowingSuggestions(broadTopic string) []string {
	if s, ok := narrowingMap[broadTopic]; ok {
		return s
	}
	title := titleCase(broadTopic)
	return []string{
		fmt.Sprintf("Introduction to %s", title),
		fmt.Sprintf("%s for Beginners", title),
		fmt.Sprintf("Practical %s Skills", title),
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
