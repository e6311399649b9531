package questiongen

import "courseforge/internal/course"

// SourceGapQuiz marks questions that entered a chapter pool from a
// remediation quiz rather than initial generation.
const SourceGapQuiz = "gap_quiz"

// MCQQuestion is a four-option multiple choice question.
type MCQQuestion struct {
	ID            string   `json:"id,omitempty"`
	QuestionText  string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"` // "A".."D"
	Explanation   string   `json:"explanation"`
	Difficulty    string   `json:"difficulty"` // easy, medium, hard
	Source        string   `json:"source,omitempty"`
}

// TrueFalseQuestion is a single definitive statement.
type TrueFalseQuestion struct {
	ID            string `json:"id,omitempty"`
	QuestionText  string `json:"question_text"`
	CorrectAnswer bool   `json:"correct_answer"`
	Explanation   string `json:"explanation"`
	Difficulty    string `json:"difficulty"`
	Source        string `json:"source,omitempty"`
}

// ChapterQuestions is the full question pool for one chapter.
type ChapterQuestions struct {
	ChapterNumber int                 `json:"chapter_number"`
	ChapterTitle  string              `json:"chapter_title"`
	MCQ           []MCQQuestion       `json:"mcq"`
	TrueFalse     []TrueFalseQuestion `json:"true_false"`
}

// GenerationConfig describes one chapter's question generation request.
type GenerationConfig struct {
	Topic         string
	Difficulty    course.Difficulty
	Audience      string // derived from difficulty when empty
	ChapterNumber int
	ChapterTitle  string
	KeyConcepts   []string
	KeyIdeas      []string
	MCQCount      int
	TFCount       int
}

// Result is the outcome of chunked generation. Partial success is
// normal: concepts that failed are listed and the questions from the
// rest are kept.
type Result struct {
	ChapterQuestions
	FailedConcepts []string
}
