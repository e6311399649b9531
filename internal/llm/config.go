package llm

import (
	"fmt"
	"os"
	"time"
)

// Op identifies the pipeline operation an LLM request serves. Each
// operation carries its own model routing and token budget.
type Op string

const (
	OpChapterGeneration     Op = "chapter_generation"
	OpQuestionGeneration    Op = "question_generation"
	OpQuestionCountAnalysis Op = "question_count_analysis"
	OpDocumentAnalysis      Op = "document_analysis"
	OpStudentFeedback       Op = "student_feedback"
	OpGapQuiz               Op = "gap_quiz_generation"
	OpAnswerChecking        Op = "answer_checking"
	OpRAGQuery              Op = "rag_query"
	OpTopicValidation       Op = "topic_validation"
)

// opBudgets maps each operation to its response token budget.
// Question generation gets the largest budget: a full chapter of
// questions is by far the biggest payload the pipeline requests.
var opBudgets = map[Op]int{
	OpChapterGeneration:     4000,
	OpQuestionGeneration:    8000,
	OpQuestionCountAnalysis: 300,
	OpDocumentAnalysis:      3000,
	OpStudentFeedback:       1500,
	OpGapQuiz:               4000,
	OpAnswerChecking:        500,
	OpRAGQuery:              1000,
	OpTopicValidation:       500,
}

// MaxTokens returns the response token budget for this operation.
func (o Op) MaxTokens() int {
	if b, ok := opBudgets[o]; ok {
		return b
	}
	return 1000
}

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects the default LLM provider.
	// Values: "anthropic", "openai", "gemini", "mock"
	Provider string

	Anthropic AnthropicConfig
	OpenAI    OpenAIConfig
	Gemini    GeminiConfig
	Retry     RetryConfig

	// Models overrides the model per operation. An override routes the
	// operation to whichever provider serves that model, regardless of
	// the default Provider.
	Models map[Op]string

	// Temperature applies to all generation requests. Default: 0.7.
	Temperature float64

	// Timeout is the maximum duration for a single LLM request
	// (including retries). Default: 120s.
	Timeout time.Duration
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string // Default: "claude-sonnet"
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o-mini"
	BaseURL string // Optional. Override for OpenAI-compatible APIs.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string // Default: "gemini-flash"
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: "gemini",
		Anthropic: AnthropicConfig{
			Model: "claude-sonnet",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Models:      map[Op]string{},
		Temperature: 0.7,
		Timeout:     120 * time.Second,
	}
}

// modelEnvVars maps operations to their model override env vars.
var modelEnvVars = map[Op]string{
	OpChapterGeneration:     "COURSEFORGE_MODEL_CHAPTERS",
	OpQuestionGeneration:    "COURSEFORGE_MODEL_QUESTIONS",
	OpQuestionCountAnalysis: "COURSEFORGE_MODEL_COUNT_ANALYSIS",
	OpDocumentAnalysis:      "COURSEFORGE_MODEL_DOC_ANALYSIS",
	OpStudentFeedback:       "COURSEFORGE_MODEL_FEEDBACK",
	OpGapQuiz:               "COURSEFORGE_MODEL_GAP_QUIZ",
	OpAnswerChecking:        "COURSEFORGE_MODEL_ANSWER_CHECK",
	OpRAGQuery:              "COURSEFORGE_MODEL_RAG",
	OpTopicValidation:       "COURSEFORGE_MODEL_TOPIC_VALIDATION",
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if p := os.Getenv("COURSEFORGE_LLM_PROVIDER"); p != "" {
		cfg.Provider = p
	}

	if k := os.Getenv("COURSEFORGE_ANTHROPIC_API_KEY"); k != "" {
		cfg.Anthropic.APIKey = k
	}
	if m := os.Getenv("COURSEFORGE_ANTHROPIC_MODEL"); m != "" {
		cfg.Anthropic.Model = m
	}

	if k := os.Getenv("COURSEFORGE_OPENAI_API_KEY"); k != "" {
		cfg.OpenAI.APIKey = k
	}
	if m := os.Getenv("COURSEFORGE_OPENAI_MODEL"); m != "" {
		cfg.OpenAI.Model = m
	}
	if u := os.Getenv("COURSEFORGE_OPENAI_BASE_URL"); u != "" {
		cfg.OpenAI.BaseURL = u
	}

	if k := os.Getenv("COURSEFORGE_GEMINI_API_KEY"); k != "" {
		cfg.Gemini.APIKey = k
	}
	if m := os.Getenv("COURSEFORGE_GEMINI_MODEL"); m != "" {
		cfg.Gemini.Model = m
	}

	for op, envVar := range modelEnvVars {
		if m := os.Getenv(envVar); m != "" {
			cfg.Models[op] = m
		}
	}

	return cfg
}

// DiscoverConfig probes standard API key env vars in priority order
// (Gemini → OpenAI → Anthropic) and returns a Config for the first
// provider whose key is found. Returns (Config{}, false) if none found.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()

	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		cfg.Provider = "gemini"
		cfg.Gemini.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		cfg.Provider = "openai"
		cfg.OpenAI.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		cfg.Provider = "anthropic"
		cfg.Anthropic.APIKey = k
		return cfg, true
	}

	return Config{}, false
}

// ModelFor returns the model serving the given operation: the per-op
// override when set, otherwise the default provider's model.
func (c Config) ModelFor(op Op) string {
	if m, ok := c.Models[op]; ok && m != "" {
		return m
	}
	switch c.Provider {
	case "anthropic":
		return c.Anthropic.Model
	case "openai":
		return c.OpenAI.Model
	case "gemini":
		return c.Gemini.Model
	case "mock":
		return "mock"
	}
	return ""
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	switch c.Provider {
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("COURSEFORGE_ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("COURSEFORGE_OPENAI_API_KEY is required for the openai provider")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("COURSEFORGE_GEMINI_API_KEY is required for the gemini provider")
		}
	case "mock":
		// No API key needed.
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	return nil
}
