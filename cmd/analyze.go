package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"courseforge/internal/docanalyze"
	"courseforge/internal/extract"
	"courseforge/internal/llm"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>...",
	Short: "Detect course structure in uploaded documents",
	Long: `Extract text from PDF, txt or markdown files and detect their section
structure. The detected outline is staged for review; confirm it with
"courseforge confirm <analysis-id> <topic>" to generate chapters.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
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

	results := extract.Files(args)
	var files []docanalyze.File
	for _, r := range results {
		if !r.Success {
			fmt.Printf("Skipping %s: %s\n", r.Name, r.Error)
			continue
		}
		files = append(files, docanalyze.File{
			Name:      r.Name,
			Text:      r.Text,
			CharCount: r.CharCount,
		})
	}
	if len(files) == 0 {
		return fmt.Errorf("no readable files")
	}

	provider, err := registry.For(ctx, llm.OpDocumentAnalysis)
	if err != nil {
		return err
	}
	analyzer := docanalyze.New(provider, newExtractor(cmd, logger), st.AnalysisRepo(), logger, docanalyze.DefaultConfig())

	staged, err := analyzer.Analyze(ctx, files, flagUser(cmd))
	if err != nil {
		return err
	}

	printOutline(staged)
	fmt.Printf("\nNext: courseforge confirm %s <topic> --difficulty <level>\n", staged.AnalysisID)
	return nil
}

func printOutline(staged *docanalyze.Staged) {
	o := staged.Outline
	fmt.Printf("\n%s (%s, ~%d min)\n", o.DocumentTitle, o.DocumentType, o.EstimatedMinutes)
	for _, s := range o.Sections {
		fmt.Printf("  %2d. %s", s.Order, s.Title)
		if s.SourceFile != "" {
			fmt.Printf("  [%s]", s.SourceFile)
		}
		fmt.Println()
		if s.Summary != "" {
			fmt.Printf("      %s\n", s.Summary)
		}
	}
	if o.AnalysisNotes != "" {
		fmt.Printf("\nNotes: %s\n", o.AnalysisNotes)
	}
	fmt.Printf("\nAnalysis ID: %s (expires %s)\n",
		staged.AnalysisID, staged.ExpiresAt.Local().Format("15:04:05"))
}
