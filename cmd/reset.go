package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"courseforge/internal/store"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete cached data",
	Long: `Delete cached courses, question pools, staged analyses, gap quizzes
or the token usage ledger. With no flags nothing is deleted.`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().Bool("courses", false, "Delete cached courses and user saves")
	resetCmd.Flags().Bool("questions", false, "Delete question pools and concept batches")
	resetCmd.Flags().Bool("analyses", false, "Delete staged document analyses")
	resetCmd.Flags().Bool("gap-quizzes", false, "Delete cached gap quizzes")
	resetCmd.Flags().Bool("usage", false, "Delete the token usage ledger")
	resetCmd.Flags().Bool("all", false, "Delete everything")
}

func runReset(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	opts := store.ResetOptions{
		Courses:    all,
		Questions:  all,
		Analyses:   all,
		GapQuizzes: all,
		Usage:      all,
	}
	if !all {
		opts.Courses, _ = cmd.Flags().GetBool("courses")
		opts.Questions, _ = cmd.Flags().GetBool("questions")
		opts.Analyses, _ = cmd.Flags().GetBool("analyses")
		opts.GapQuizzes, _ = cmd.Flags().GetBool("gap-quizzes")
		opts.Usage, _ = cmd.Flags().GetBool("usage")
	}
	if !opts.Courses && !opts.Questions && !opts.Analyses && !opts.GapQuizzes && !opts.Usage {
		fmt.Println("Nothing selected; pass --courses, --questions, --analyses, --gap-quizzes, --usage or --all.")
		return nil
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Reset(cmd.Context(), opts); err != nil {
		return err
	}
	fmt.Println("Done.")
	return nil
}
