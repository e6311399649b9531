package cmd

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"courseforge/internal/course"
	"courseforge/internal/docanalyze"
	"courseforge/internal/llm"
)

var confirmCmd = &cobra.Command{
	Use:   "confirm <analysis-id> <topic>",
	Short: "Generate chapters from a confirmed document analysis",
	Long: `Turn a staged document analysis into course chapters. Sections can be
dropped with --exclude; the rest become chapters grounded in the
document text. The staging record is consumed on success.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runConfirm,
}

func init() {
	confirmCmd.Flags().String("difficulty", "intermediate", "Course difficulty: beginner, intermediate or advanced")
	confirmCmd.Flags().String("exclude", "", "Comma-separated section numbers to drop, e.g. 2,5")
	confirmCmd.Flags().Bool("questions", false, "Also generate question pools for every chapter")
	confirmCmd.Flags().Bool("json", false, "Print the course as JSON")
}

func runConfirm(cmd *cobra.Command, args []string) error {
	analysisID := args[0]
	topic := strings.Join(args[1:], " ")
	difficultyVal, _ := cmd.Flags().GetString("difficulty")
	excludeVal, _ := cmd.Flags().GetString("exclude")
	withQuestions, _ := cmd.Flags().GetBool("questions")
	asJSON, _ := cmd.Flags().GetBool("json")

	difficulty, err := course.ParseDifficulty(difficultyVal)
	if err != nil {
		return err
	}
	excluded, err := parseSectionNumbers(excludeVal)
	if err != nil {
		return err
	}

	logger := newLogger(cmd)
	defer logger.Sync()

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	registry, err := newRegistry(st, logger)
	if err != nil {
		return err
	}

	ctx := userContext(cmd)

	provider, err := registry.For(ctx, llm.OpChapterGeneration)
	if err != nil {
		return err
	}
	analyzer := docanalyze.New(provider, newExtractor(cmd, logger), st.AnalysisRepo(), logger, docanalyze.DefaultConfig())

	staged, err := analyzer.Staging(ctx, analysisID)
	if err != nil {
		return err
	}

	confirmed := make([]docanalyze.ConfirmedSection, 0, len(staged.Outline.Sections))
	for _, s := range staged.Outline.Sections {
		confirmed = append(confirmed, docanalyze.ConfirmedSection{
			Order:      s.Order,
			Title:      s.Title,
			KeyTopics:  s.KeyTopics,
			SourceFile: s.SourceFile,
			Include:    !excluded[s.Order],
		})
	}

	chapters, err := analyzer.GenerateChapters(ctx, analysisID, topic, difficulty, confirmed, flagUser(cmd))
	if err != nil {
		return err
	}

	preset := course.PresetFor(difficulty)
	totalMinutes := 0
	for _, ch := range chapters {
		totalMinutes += ch.EstimatedMinutes
	}
	c := &course.Course{
		Topic:      topic,
		Difficulty: difficulty,
		Title:      staged.Outline.DocumentTitle,
		Chapters:   chapters,
		Config: course.Config{
			Difficulty:          difficulty,
			NumChapters:         len(chapters),
			MinutesPerChapter:   preset.MinutesPerChapter,
			Depth:               preset.Depth,
			EstimatedStudyHours: math.Round(float64(totalMinutes)/60*10) / 10,
		},
	}

	if _, err := saveCourse(ctx, st.CourseRepo(), c); err != nil {
		return err
	}

	if withQuestions {
		if err := generatePools(ctx, st, registry, logger, newExtractor(cmd, logger), c, 0, false); err != nil {
			return err
		}
	}

	return printCourse(c, asJSON)
}

// parseSectionNumbers parses "2,5,7" into a set.
func parseSectionNumbers(s string) (map[int]bool, error) {
	out := make(map[int]bool)
	if strings.TrimSpace(s) == "" {
		return out, nil
	}
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid section number %q", part)
		}
		out[n] = true
	}
	return out, nil
}
