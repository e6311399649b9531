package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"courseforge/internal/course"
	"courseforge/internal/coursegen"
	"courseforge/internal/llm"
	"courseforge/internal/store"
	"courseforge/internal/topicvalidate"
)

var generateCmd = &cobra.Command{
	Use:   "generate <topic>",
	Short: "Generate a course from a topic",
	Long: `Validate the topic, size the course for the requested difficulty and
generate its chapters. Courses are cached by (topic, difficulty); a
second request for the same course is served from the cache.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().String("difficulty", "intermediate", "Course difficulty: beginner, intermediate or advanced")
	generateCmd.Flags().Bool("force", false, "Regenerate even when a cached course exists")
	generateCmd.Flags().Bool("questions", false, "Also generate question pools for every chapter")
	generateCmd.Flags().Bool("save", false, "Save the course to the user's list (requires --user)")
	generateCmd.Flags().Bool("skip-validation", false, "Skip topic validation")
	generateCmd.Flags().Bool("json", false, "Print the course as JSON")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")
	difficultyVal, _ := cmd.Flags().GetString("difficulty")
	force, _ := cmd.Flags().GetBool("force")
	withQuestions, _ := cmd.Flags().GetBool("questions")
	save, _ := cmd.Flags().GetBool("save")
	skipValidation, _ := cmd.Flags().GetBool("skip-validation")
	asJSON, _ := cmd.Flags().GetBool("json")

	difficulty, err := course.ParseDifficulty(difficultyVal)
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
	courses := st.CourseRepo()

	if !force {
		cached, err := courses.Get(ctx, topic, string(difficulty))
		if err != nil {
			return fmt.Errorf("check course cache: %w", err)
		}
		if cached != nil {
			var c course.Course
			if err := json.Unmarshal(cached.Payload, &c); err != nil {
				return fmt.Errorf("decode cached course: %w", err)
			}
			fmt.Println("Serving cached course (use --force to regenerate).")
			return printCourse(&c, asJSON)
		}
	}

	complexityScore := 5
	if !skipValidation {
		provider, err := registry.For(ctx, llm.OpTopicValidation)
		if err != nil {
			return err
		}
		result := topicvalidate.New(provider).Validate(ctx, topic)
		if result.Status != topicvalidate.StatusAccepted {
			fmt.Printf("Topic %s: %s\n", result.Status, result.Message)
			for _, s := range result.Suggestions {
				fmt.Printf("  - %s\n", s)
			}
			return fmt.Errorf("topic not accepted")
		}
		if result.Complexity != nil {
			complexityScore = result.Complexity.Score
		}
		if result.IsCertification {
			fmt.Printf("Recognized certification: %s\n", result.CertificationBody)
		}
	}

	cfg := course.Configure(complexityScore, difficulty)
	fmt.Printf("Generating %d chapters (%s, ~%.1f study hours)...\n",
		cfg.NumChapters, cfg.Depth, cfg.EstimatedStudyHours)

	provider, err := registry.For(ctx, llm.OpChapterGeneration)
	if err != nil {
		return err
	}
	chapters, err := coursegen.New(provider, newExtractor(cmd, logger), coursegen.DefaultConfig()).
		Generate(ctx, topic, cfg, "")
	if err != nil {
		return err
	}

	c := &course.Course{
		Topic:      topic,
		Difficulty: difficulty,
		Title:      topic,
		Chapters:   chapters,
		Config:     cfg,
	}
	courseID, err := saveCourse(ctx, courses, c)
	if err != nil {
		return err
	}

	if save {
		user := flagUser(cmd)
		if user == "" {
			return fmt.Errorf("--save requires --user")
		}
		if err := courses.SaveForUser(ctx, &store.UserCourseRecord{
			ID:       uuid.NewString(),
			UserID:   user,
			CourseID: courseID,
			SavedAt:  time.Now().UTC(),
		}); err != nil {
			return fmt.Errorf("save course for user: %w", err)
		}
	}

	if withQuestions {
		if err := generatePools(ctx, st, registry, logger, newExtractor(cmd, logger), c, 0, false); err != nil {
			return err
		}
	}

	return printCourse(c, asJSON)
}

// saveCourse upserts the course into the shared cache and returns the
// record ID.
func saveCourse(ctx context.Context, courses store.CourseRepo, c *course.Course) (string, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode course: %w", err)
	}
	now := time.Now().UTC()
	rec := &store.CourseRecord{
		ID:         uuid.NewString(),
		Topic:      c.Topic,
		Difficulty: string(c.Difficulty),
		Title:      c.Title,
		Payload:    payload,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := courses.Upsert(ctx, rec); err != nil {
		return "", fmt.Errorf("store course: %w", err)
	}
	return rec.ID, nil
}

func printCourse(c *course.Course, asJSON bool) error {
	if asJSON {
		out, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("\n%s (%s)\n", c.Title, c.Difficulty)
	for _, ch := range c.Chapters {
		fmt.Printf("  %2d. %s (%d min)\n", ch.Number, ch.Title, ch.EstimatedMinutes)
		if ch.Summary != "" {
			fmt.Printf("      %s\n", ch.Summary)
		}
		if len(ch.KeyConcepts) > 0 {
			fmt.Printf("      Key concepts: %s\n", strings.Join(ch.KeyConcepts, ", "))
		}
	}
	return nil
}
