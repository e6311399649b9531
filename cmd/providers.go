package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"courseforge/internal/llm"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Show the resolved LLM provider configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := llmConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Default provider: %s\n", cfg.Provider)
		fmt.Printf("Temperature: %.1f, timeout: %s\n\n", cfg.Temperature, cfg.Timeout)

		ops := []llm.Op{
			llm.OpTopicValidation,
			llm.OpChapterGeneration,
			llm.OpDocumentAnalysis,
			llm.OpQuestionCountAnalysis,
			llm.OpQuestionGeneration,
			llm.OpStudentFeedback,
			llm.OpGapQuiz,
			llm.OpAnswerChecking,
			llm.OpRAGQuery,
		}
		fmt.Printf("%-26s  %-34s  %s\n", "Operation", "Model", "Max tokens")
		for _, op := range ops {
			fmt.Printf("%-26s  %-34s  %d\n", op, cfg.ModelFor(op), op.MaxTokens())
		}
		return nil
	},
}
