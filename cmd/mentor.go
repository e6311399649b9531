package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"courseforge/internal/course"
	"courseforge/internal/llm"
	"courseforge/internal/mentor"
	"courseforge/internal/store"
)

var mentorCmd = &cobra.Command{
	Use:   "mentor",
	Short: "Progress feedback and remediation quizzes",
}

var mentorFeedbackCmd = &cobra.Command{
	Use:   "feedback <topic>",
	Short: "Get personalized feedback on course progress",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMentorFeedback,
}

var mentorQuizCmd = &cobra.Command{
	Use:   "quiz <topic>",
	Short: "Generate a quiz targeting weak chapters",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMentorQuiz,
}

func init() {
	for _, c := range []*cobra.Command{mentorFeedbackCmd, mentorQuizCmd} {
		c.Flags().String("difficulty", "intermediate", "Course difficulty: beginner, intermediate or advanced")
		c.Flags().String("scores", "", `Chapter quiz scores as "1=0.55,2=0.9" (required)`)
		_ = c.MarkFlagRequired("scores")
	}
	mentorQuizCmd.Flags().Bool("hints", false, "Include a hint with each question")
	mentorQuizCmd.Flags().Int("count", 0, "Number of questions (default 5)")

	mentorCmd.AddCommand(mentorFeedbackCmd)
	mentorCmd.AddCommand(mentorQuizCmd)
}

// mentorSetup loads the course, parses the score flag and builds the
// progress analysis shared by both subcommands.
func mentorSetup(cmd *cobra.Command, args []string, logger *zap.Logger) (context.Context, *store.Store, *llm.Registry, *course.Course, mentor.Analysis, error) {
	fail := func(err error) (context.Context, *store.Store, *llm.Registry, *course.Course, mentor.Analysis, error) {
		return nil, nil, nil, nil, mentor.Analysis{}, err
	}

	topic := strings.Join(args, " ")
	difficultyVal, _ := cmd.Flags().GetString("difficulty")
	scoresVal, _ := cmd.Flags().GetString("scores")

	difficulty, err := course.ParseDifficulty(difficultyVal)
	if err != nil {
		return fail(err)
	}

	st, err := openStore(cmd)
	if err != nil {
		return fail(err)
	}

	registry, err := newRegistry(st, logger)
	if err != nil {
		st.Close()
		return fail(err)
	}

	ctx := userContext(cmd)

	cached, err := st.CourseRepo().Get(ctx, topic, string(difficulty))
	if err != nil {
		st.Close()
		return fail(fmt.Errorf("load course: %w", err))
	}
	if cached == nil {
		st.Close()
		return fail(fmt.Errorf("no cached course for %q (%s); run courseforge generate first", topic, difficulty))
	}
	var c course.Course
	if err := json.Unmarshal(cached.Payload, &c); err != nil {
		st.Close()
		return fail(fmt.Errorf("decode course: %w", err))
	}

	scores, err := parseScores(scoresVal, c.Chapters)
	if err != nil {
		st.Close()
		return fail(err)
	}

	analysis := mentor.AnalyzeProgress(c.Topic, c.Difficulty, len(c.Chapters), scores, mentor.DefaultConfig())
	if !analysis.MentorAvailable {
		st.Close()
		return fail(fmt.Errorf("complete at least %d chapter quizzes first (%d done)",
			mentor.DefaultConfig().ChaptersThreshold, analysis.TotalChaptersCompleted))
	}

	return ctx, st, registry, &c, analysis, nil
}

func runMentorFeedback(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)
	defer logger.Sync()

	ctx, st, registry, c, analysis, err := mentorSetup(cmd, args, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	provider, err := registry.For(ctx, llm.OpStudentFeedback)
	if err != nil {
		return err
	}
	m := mentor.New(provider, newExtractor(cmd, logger), st.GapQuizRepo(), st.QuestionRepo(), logger, mentor.DefaultConfig())

	text, err := m.Feedback(ctx, analysis, flagUser(cmd), store.NormalizeTopic(c.Topic))
	if err != nil {
		return err
	}

	fmt.Printf("Average score: %.0f%%, weak chapters: %d\n\n", analysis.AverageScore*100, len(analysis.WeakAreas))
	fmt.Println(text)
	return nil
}

func runMentorQuiz(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)
	defer logger.Sync()

	hints, _ := cmd.Flags().GetBool("hints")
	count, _ := cmd.Flags().GetInt("count")

	ctx, st, registry, c, analysis, err := mentorSetup(cmd, args, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	if len(analysis.WeakAreas) == 0 {
		fmt.Println("No weak chapters; nothing to quiz on.")
		return nil
	}

	provider, err := registry.For(ctx, llm.OpGapQuiz)
	if err != nil {
		return err
	}
	m := mentor.New(provider, newExtractor(cmd, logger), st.GapQuizRepo(), st.QuestionRepo(), logger, mentor.DefaultConfig())

	quiz, err := m.GenerateGapQuiz(ctx, mentor.GapQuizRequest{
		UserID:       flagUser(cmd),
		CourseSlug:   store.NormalizeTopic(c.Topic),
		CourseTopic:  c.Topic,
		Difficulty:   c.Difficulty,
		WeakAreas:    analysis.WeakAreas,
		NumQuestions: count,
		IncludeHints: hints,
	})
	if err != nil {
		return err
	}

	if quiz.CacheHit {
		fmt.Println("Serving cached quiz for these scores.")
	}
	for i, q := range quiz.Questions {
		fmt.Printf("\n%d. [Chapter %d] %s\n", i+1, q.ChapterNumber, q.QuestionText)
		for j, opt := range q.Options {
			fmt.Printf("   %c) %s\n", 'A'+j, opt)
		}
		if q.Hint != "" {
			fmt.Printf("   Hint: %s\n", q.Hint)
		}
		fmt.Printf("   Answer: %s - %s\n", q.CorrectAnswer, q.Explanation)
	}
	return nil
}

// parseScores parses "1=0.55,2=0.9" into chapter scores, attaching
// chapter titles from the course.
func parseScores(s string, chapters []course.Chapter) ([]mentor.ChapterScore, error) {
	titles := make(map[int]string, len(chapters))
	for _, ch := range chapters {
		titles[ch.Number] = ch.Title
	}

	var out []mentor.ChapterScore
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		num, val, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("invalid score %q (want chapter=score)", part)
		}
		chapter, err := strconv.Atoi(strings.TrimSpace(num))
		if err != nil {
			return nil, fmt.Errorf("invalid chapter number %q", num)
		}
		score, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil || score < 0 || score > 1 {
			return nil, fmt.Errorf("invalid score %q (want 0..1)", val)
		}
		if _, ok := titles[chapter]; !ok {
			return nil, fmt.Errorf("course has no chapter %d", chapter)
		}
		out = append(out, mentor.ChapterScore{
			ChapterNumber: chapter,
			ChapterTitle:  titles[chapter],
			Score:         score,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no scores given")
	}
	return out, nil
}
