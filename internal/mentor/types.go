package mentor

import (
	"time"

	"courseforge/internal/course"
)

// ChapterScore is one chapter's quiz result for a user.
type ChapterScore struct {
	ChapterNumber int     `json:"chapter_number"`
	ChapterTitle  string  `json:"chapter_title"`
	Score         float64 `json:"score"` // 0..1
}

// WeakArea is a chapter where the user scored below the threshold.
type WeakArea struct {
	ChapterNumber int      `json:"chapter_number"`
	ChapterTitle  string   `json:"chapter_title"`
	Score         float64  `json:"score"`
	WeakConcepts  []string `json:"weak_concepts,omitempty"`
}

// Analysis summarizes a user's standing on one course.
type Analysis struct {
	CourseTopic            string            `json:"course_topic"`
	Difficulty             course.Difficulty `json:"difficulty"`
	TotalChapters          int               `json:"total_chapters"`
	TotalChaptersCompleted int               `json:"total_chapters_completed"`
	AverageScore           float64           `json:"average_score"`
	WeakAreas              []WeakArea        `json:"weak_areas"`
	MentorAvailable        bool              `json:"mentor_available"`
}

// GapQuizQuestion is one remediation question targeting a weak area.
type GapQuizQuestion struct {
	ID            string   `json:"id"`
	ChapterNumber int      `json:"chapter_number"`
	QuestionText  string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	Hint          string   `json:"hint,omitempty"`
	Difficulty    string   `json:"difficulty"`
	Source        string   `json:"source"`
}

// GapQuiz is the generated remediation quiz.
type GapQuiz struct {
	ID           string            `json:"id"`
	CourseSlug   string            `json:"course_slug"`
	UserID       string            `json:"user_id"`
	Questions    []GapQuizQuestion `json:"questions"`
	IncludeHints bool              `json:"include_hints"`
	CacheHit     bool              `json:"cache_hit"`
	CreatedAt    time.Time         `json:"created_at"`
}

// GapQuizRequest describes one gap quiz generation.
type GapQuizRequest struct {
	UserID       string
	CourseSlug   string
	CourseTopic  string
	Difficulty   course.Difficulty
	WeakAreas    []WeakArea
	NumQuestions int // default 5
	IncludeHints bool
}
