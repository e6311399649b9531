package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"courseforge/internal/llm"
	"courseforge/internal/topicvalidate"
)

var validateCmd = &cobra.Command{
	Use:   "validate <topic>",
	Short: "Check whether a topic can become a course",
	Long: `Validate a topic before generation: vague or over-broad topics are
rejected with narrowing suggestions, valid ones get a complexity
assessment that sizes the course.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")

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
	provider, err := registry.For(ctx, llm.OpTopicValidation)
	if err != nil {
		return err
	}

	result := topicvalidate.New(provider).Validate(ctx, topic)

	fmt.Printf("Status: %s\n", result.Status)
	if result.Reason != "" {
		fmt.Printf("Reason: %s\n", result.Reason)
	}
	fmt.Println(result.Message)
	if len(result.Suggestions) > 0 {
		fmt.Println("Suggestions:")
		for _, s := range result.Suggestions {
			fmt.Printf("  - %s\n", s)
		}
	}
	if result.Category != "" {
		fmt.Printf("Category: %s\n", result.Category)
	}
	if result.IsCertification {
		fmt.Printf("Certification body: %s\n", result.CertificationBody)
	}
	if c := result.Complexity; c != nil {
		fmt.Printf("Complexity: %d/10 (%s), ~%d chapters, ~%.0f hours\n",
			c.Score, c.Level, c.EstimatedChapters, c.EstimatedHours)
	}

	if result.Status != topicvalidate.StatusAccepted {
		return fmt.Errorf("topic not accepted")
	}
	return nil
}
