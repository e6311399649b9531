package course

import "fmt"

// Difficulty is the course difficulty level.
type Difficulty string

const (
	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "intermediate"
	Advanced     Difficulty = "advanced"
)

// ParseDifficulty validates and normalizes a difficulty string.
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(s) {
	case Beginner, Intermediate, Advanced:
		return Difficulty(s), nil
	}
	return "", fmt.Errorf("unknown difficulty %q (want beginner, intermediate or advanced)", s)
}

// Depth is how thoroughly chapters cover their material.
type Depth string

const (
	DepthOverview      Depth = "overview"
	DepthDetailed      Depth = "detailed"
	DepthComprehensive Depth = "comprehensive"
)

// Chapter is one unit of a generated course.
type Chapter struct {
	Number      int      `json:"number"`
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	KeyConcepts []string `json:"key_concepts"`

	// KeyIdeas are testable statements the question generator targets.
	// Populated for document-derived chapters; may be empty for
	// topic-only generation.
	KeyIdeas []string `json:"key_ideas,omitempty"`

	// SourceFile names the uploaded document this chapter came from,
	// when the course was built from documents.
	SourceFile string `json:"source_file,omitempty"`

	Difficulty       Difficulty `json:"difficulty,omitempty"`
	EstimatedMinutes int        `json:"estimated_minutes,omitempty"`
}

// Config is the sizing produced by the Configurator for one course.
type Config struct {
	Difficulty          Difficulty `json:"difficulty"`
	NumChapters         int        `json:"num_chapters"`
	MinutesPerChapter   int        `json:"minutes_per_chapter"`
	Depth               Depth      `json:"depth"`
	EstimatedStudyHours float64    `json:"estimated_study_hours"`
}

// Course is a fully generated course document.
type Course struct {
	Topic       string    `json:"topic"`
	Difficulty  Difficulty `json:"difficulty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Chapters    []Chapter `json:"chapters"`
	Config      Config    `json:"config"`
}
