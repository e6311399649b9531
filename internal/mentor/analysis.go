package mentor

import "courseforge/internal/course"

// Config holds mentor thresholds.
type Config struct {
	// ChaptersThreshold is the minimum number of completed chapters
	// before the mentor becomes available. Default: 3.
	ChaptersThreshold int

	// WeakScoreThreshold marks a chapter weak when the user's score is
	// below it. Default: 0.7.
	WeakScoreThreshold float64

	// NumQuestions is the default gap quiz size. Default: 5.
	NumQuestions int

	// Temperature for gap quiz generation. Default: 0.7.
	Temperature float64
}

// DefaultConfig returns the standard mentor settings.
func DefaultConfig() Config {
	return Config{
		ChaptersThreshold:  3,
		WeakScoreThreshold: 0.7,
		NumQuestions:       5,
		Temperature:        0.7,
	}
}

// AnalyzeProgress computes the user's weak areas and mentor
// availability from completed chapter scores. Scores come from the
// progress tracker; this function only classifies them.
func AnalyzeProgress(topic string, difficulty course.Difficulty, totalChapters int, scores []ChapterScore, cfg Config) Analysis {
	if cfg.ChaptersThreshold == 0 {
		cfg.ChaptersThreshold = DefaultConfig().ChaptersThreshold
	}
	if cfg.WeakScoreThreshold == 0 {
		cfg.WeakScoreThreshold = DefaultConfig().WeakScoreThreshold
	}

	analysis := Analysis{
		CourseTopic:            topic,
		Difficulty:             difficulty,
		TotalChapters:          totalChapters,
		TotalChaptersCompleted: len(scores),
	}

	var sum float64
	for _, s := range scores {
		sum += s.Score
		if s.Score < cfg.WeakScoreThreshold {
			analysis.WeakAreas = append(analysis.WeakAreas, WeakArea{
				ChapterNumber: s.ChapterNumber,
				ChapterTitle:  s.ChapterTitle,
				Score:         s.Score,
			})
		}
	}
	if len(scores) > 0 {
		analysis.AverageScore = sum / float64(len(scores))
	}
	analysis.MentorAvailable = len(scores) >= cfg.ChaptersThreshold
	return analysis
}
