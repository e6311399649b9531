package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"courseforge/internal/llm"
	"courseforge/internal/logging"
	"courseforge/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "courseforge",
	Short: "AI course authoring pipeline",
	Long: "Courseforge generates structured courses from a topic or uploaded documents:\n" +
		"chapters, per-chapter question pools, remediation quizzes and progress feedback.",
	SilenceUsage: true,
}

func Execute() error {
	// A local .env is optional; real deployments use the environment.
	_ = godotenv.Load()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides COURSEFORGE_DB env var)")
	rootCmd.PersistentFlags().String("user", "", "User ID to attribute work and token spend to")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("quiet", false, "Only log warnings and errors to the console")
	rootCmd.PersistentFlags().String("log-file", "", "Also write JSON logs to this file (rotated)")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(questionsCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(confirmCmd)
	rootCmd.AddCommand(mentorCmd)
	rootCmd.AddCommand(usageCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest
// priority), then COURSEFORGE_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, os.MkdirAll(filepath.Dir(p), 0o755)
	}
	return store.DefaultDBPath()
}

// openStore opens the SQLite store for this invocation.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// newLogger builds the process logger from the persistent flags.
func newLogger(cmd *cobra.Command) *zap.Logger {
	debug, _ := cmd.Flags().GetBool("debug")
	quiet, _ := cmd.Flags().GetBool("quiet")
	file, _ := cmd.Flags().GetString("log-file")
	return logging.New(logging.Config{Debug: debug, File: file, Quiet: quiet})
}

// llmConfig resolves provider configuration: explicit COURSEFORGE_*
// variables first, then discovery of standard provider key variables.
func llmConfig() (llm.Config, error) {
	cfg := llm.ConfigFromEnv()
	if err := cfg.Validate(); err == nil {
		return cfg, nil
	}

	if discovered, ok := llm.DiscoverConfig(); ok {
		return discovered, nil
	}

	return llm.Config{}, fmt.Errorf("no LLM provider configured: set COURSEFORGE_LLM_PROVIDER and its API key, " +
		"or export GEMINI_API_KEY, OPENAI_API_KEY or ANTHROPIC_API_KEY")
}

// newRegistry builds the provider registry, wiring token usage logging
// into the store's ledger.
func newRegistry(st *store.Store, logger *zap.Logger) (*llm.Registry, error) {
	cfg, err := llmConfig()
	if err != nil {
		return nil, err
	}
	return llm.NewRegistry(cfg, st.TokenUsageRepo(), logger), nil
}

// newExtractor builds the shared JSON extractor. Unparseable responses
// are dumped beside the database for inspection.
func newExtractor(cmd *cobra.Command, logger *zap.Logger) *llm.Extractor {
	dumpDir := ""
	if dbPath, err := resolveDBPath(cmd); err == nil {
		dumpDir = filepath.Join(filepath.Dir(dbPath), "parse-failures")
	}
	return &llm.Extractor{DumpDir: dumpDir, Logger: logger}
}

// userContext attaches the --user flag to the context so every LLM call
// in the invocation is attributed to that user.
func userContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if user, _ := cmd.Flags().GetString("user"); user != "" {
		attr := llm.AttributionFrom(ctx)
		attr.UserID = user
		ctx = llm.WithAttribution(ctx, attr)
	}
	return ctx
}

func flagUser(cmd *cobra.Command) string {
	user, _ := cmd.Flags().GetString("user")
	return user
}
