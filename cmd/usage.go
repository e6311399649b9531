package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"courseforge/internal/llm"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show token usage and estimated cost",
	Long: `Summarize LLM token usage by operation, provider and model. Cost is
estimated from the embedded pricing table; models without a known price
show "-". Use --user to scope to one user.`,
	RunE: runUsage,
}

func init() {
	usageCmd.Flags().String("for-user", "", "Only include usage attributed to this user ID")
}

func runUsage(cmd *cobra.Command, args []string) error {
	userID, _ := cmd.Flags().GetString("for-user")

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	summaries, err := st.TokenUsageRepo().Summarize(cmd.Context(), userID)
	if err != nil {
		return fmt.Errorf("summarize usage: %w", err)
	}
	if len(summaries) == 0 {
		fmt.Println("No usage recorded.")
		return nil
	}

	fmt.Printf("%-26s  %-10s  %-28s  %6s  %10s  %10s  %10s  %9s\n",
		"Operation", "Provider", "Model", "Reqs", "In", "Out", "Total", "Cost")
	fmt.Println(strings.Repeat("─", 122))

	var totalTokens int
	var totalCost float64
	costKnown := true
	for _, s := range summaries {
		model := s.Model
		if len(model) > 28 {
			model = model[:28]
		}
		cost := "-"
		if c := llm.LookupCost(s.Model); c != nil {
			usd := c.Cost(s.InputTokens, s.OutputTokens)
			totalCost += usd
			cost = fmt.Sprintf("$%.4f", usd)
		} else {
			costKnown = false
		}
		totalTokens += s.TotalTokens
		fmt.Printf("%-26s  %-10s  %-28s  %6d  %10d  %10d  %10d  %9s\n",
			s.Operation, s.Provider, model, s.Requests,
			s.InputTokens, s.OutputTokens, s.TotalTokens, cost)
	}

	fmt.Println(strings.Repeat("─", 122))
	note := ""
	if !costKnown {
		note = " (some models unpriced)"
	}
	fmt.Printf("Total: %d tokens, ~$%.4f%s\n", totalTokens, totalCost, note)
	return nil
}
