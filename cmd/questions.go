package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"courseforge/internal/course"
	"courseforge/internal/llm"
	"courseforge/internal/questiongen"
	"courseforge/internal/store"
)

// chunkThreshold is the pool size above which generation goes concept
// by concept instead of one shot per chapter.
const chunkThreshold = 15

var questionsCmd = &cobra.Command{
	Use:   "questions <topic>",
	Short: "Generate question pools for a cached course",
	Long: `Generate MCQ and true/false question pools for the chapters of a
previously generated course. Pool sizes are derived from each chapter's
key ideas; large pools are generated one key concept at a time.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuestions,
}

func init() {
	questionsCmd.Flags().String("difficulty", "intermediate", "Course difficulty: beginner, intermediate or advanced")
	questionsCmd.Flags().Int("chapter", 0, "Only generate for this chapter number (0 = all)")
	questionsCmd.Flags().Bool("force", false, "Regenerate pools that already exist")
}

func runQuestions(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")
	difficultyVal, _ := cmd.Flags().GetString("difficulty")
	force, _ := cmd.Flags().GetBool("force")
	onlyChapter, _ := cmd.Flags().GetInt("chapter")

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

	cached, err := st.CourseRepo().Get(ctx, topic, string(difficulty))
	if err != nil {
		return fmt.Errorf("load course: %w", err)
	}
	if cached == nil {
		return fmt.Errorf("no cached course for %q (%s); run courseforge generate first", topic, difficulty)
	}
	var c course.Course
	if err := json.Unmarshal(cached.Payload, &c); err != nil {
		return fmt.Errorf("decode course: %w", err)
	}

	return generatePools(ctx, st, registry, logger, newExtractor(cmd, logger), &c, onlyChapter, force)
}

// generatePools generates and persists the question pool for each
// chapter of the course, skipping chapters that already have one unless
// force is set. One chapter failing does not stop the rest.
func generatePools(ctx context.Context, st *store.Store, registry *llm.Registry, logger *zap.Logger, ex *llm.Extractor, c *course.Course, onlyChapter int, force bool) error {
	questions := st.QuestionRepo()

	countProvider, err := registry.For(ctx, llm.OpQuestionCountAnalysis)
	if err != nil {
		return err
	}
	genProvider, err := registry.For(ctx, llm.OpQuestionGeneration)
	if err != nil {
		return err
	}

	analyzer := questiongen.NewAnalyzer(countProvider)
	generator := questiongen.New(genProvider, ex, questions, logger, questiongen.DefaultConfig())

	var failed []int
	for _, ch := range c.Chapters {
		if onlyChapter != 0 && ch.Number != onlyChapter {
			continue
		}

		if !force {
			existing, err := questions.GetChapter(ctx, c.Topic, string(c.Difficulty), ch.Number)
			if err != nil {
				return fmt.Errorf("check question cache: %w", err)
			}
			if existing != nil {
				fmt.Printf("Chapter %d: pool exists, skipping (use --force to regenerate)\n", ch.Number)
				continue
			}
		}

		rec := analyzer.AnalyzeChapter(ctx, ch, c.Topic, c.Difficulty)
		gc := questiongen.GenerationConfig{
			Topic:         c.Topic,
			Difficulty:    c.Difficulty,
			ChapterNumber: ch.Number,
			ChapterTitle:  ch.Title,
			KeyConcepts:   ch.KeyConcepts,
			KeyIdeas:      ch.KeyIdeas,
			MCQCount:      rec.MCQCount,
			TFCount:       rec.TrueFalseCount,
		}

		pool, err := generateChapterPool(ctx, generator, gc)
		if err != nil {
			fmt.Printf("Chapter %d: generation failed: %v\n", ch.Number, err)
			failed = append(failed, ch.Number)
			continue
		}

		// Chunked generation persists through its batch aggregation;
		// single-shot pools are stored here.
		if !usesChunking(gc) {
			if err := storePool(ctx, questions, c, pool); err != nil {
				return err
			}
		}

		fmt.Printf("Chapter %d: %d MCQ, %d true/false\n", ch.Number, len(pool.MCQ), len(pool.TrueFalse))
	}

	if len(failed) > 0 {
		return fmt.Errorf("question generation failed for chapters %v", failed)
	}
	return nil
}

func usesChunking(gc questiongen.GenerationConfig) bool {
	return gc.MCQCount+gc.TFCount > chunkThreshold && len(gc.KeyConcepts) > 1
}

func generateChapterPool(ctx context.Context, generator *questiongen.Generator, gc questiongen.GenerationConfig) (*questiongen.ChapterQuestions, error) {
	if usesChunking(gc) {
		result, err := generator.GenerateChunked(ctx, gc)
		if err != nil {
			return nil, err
		}
		if len(result.FailedConcepts) > 0 {
			fmt.Printf("Chapter %d: concepts without questions: %s\n",
				gc.ChapterNumber, strings.Join(result.FailedConcepts, ", "))
		}
		return &result.ChapterQuestions, nil
	}
	return generator.Generate(ctx, gc)
}

func storePool(ctx context.Context, questions store.QuestionRepo, c *course.Course, pool *questiongen.ChapterQuestions) error {
	payload, err := json.Marshal(pool)
	if err != nil {
		return fmt.Errorf("encode question pool: %w", err)
	}
	now := time.Now().UTC()
	if err := questions.UpsertChapter(ctx, &store.ChapterQuestionsRecord{
		ID:            uuid.NewString(),
		Topic:         c.Topic,
		Difficulty:    string(c.Difficulty),
		ChapterNumber: pool.ChapterNumber,
		Payload:       payload,
		CreatedAt:     now,
		UpdatedAt:     now,
	}); err != nil {
		return fmt.Errorf("store question pool: %w", err)
	}
	return nil
}
