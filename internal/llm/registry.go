package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"courseforge/internal/store"
)

// Registry resolves pipeline operations to configured Provider clients.
// Clients are cached by provider and model so repeated operations reuse
// connections. All returned providers are wrapped with usage logging and
// retry middleware.
type Registry struct {
	cfg       Config
	usageRepo store.TokenUsageRepo
	logger    *zap.Logger

	mu      sync.Mutex
	clients map[string]Provider
}

// NewRegistry creates a Registry. usageRepo may be nil, in which case
// token usage is not recorded. A nil logger is replaced with a no-op.
func NewRegistry(cfg Config, usageRepo store.TokenUsageRepo, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		cfg:       cfg,
		usageRepo: usageRepo,
		logger:    logger,
		clients:   make(map[string]Provider),
	}
}

// For returns the Provider serving the given operation, honoring any
// per-operation model override in the configuration.
func (r *Registry) For(ctx context.Context, op Op) (Provider, error) {
	return r.ForModel(ctx, r.cfg.ModelFor(op))
}

// ForModel returns a Provider for an explicit model. The provider is
// inferred from the model name prefix; models without a recognizable
// prefix go to the default provider.
func (r *Registry) ForModel(ctx context.Context, model string) (Provider, error) {
	provider := providerForModel(model)
	if provider == "" {
		provider = r.cfg.Provider
	}

	key := provider + ":" + model

	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.clients[key]; ok {
		return p, nil
	}

	base, err := r.build(ctx, provider, model)
	if err != nil {
		return nil, err
	}

	// Wrap with middleware: caller -> timeout -> retry -> usage log -> base.
	// The timeout sits outside the retry loop so Config.Timeout bounds
	// the whole request, attempts and backoff included.
	wrapped := WithTimeout(
		WithRetry(WithUsageLog(base, r.usageRepo, provider, r.logger), r.cfg.Retry),
		r.cfg.Timeout)
	r.clients[key] = wrapped
	return wrapped, nil
}

// Temperature returns the configured sampling temperature.
func (r *Registry) Temperature() float64 {
	return r.cfg.Temperature
}

func (r *Registry) build(ctx context.Context, provider, model string) (Provider, error) {
	var base Provider
	var err error

	switch provider {
	case "anthropic":
		cfg := r.cfg.Anthropic
		cfg.Model = model
		base, err = NewAnthropicProvider(cfg)
	case "openai":
		cfg := r.cfg.OpenAI
		cfg.Model = model
		base, err = NewOpenAIProvider(cfg)
	case "gemini":
		cfg := r.cfg.Gemini
		cfg.Model = model
		base, err = NewGeminiProvider(ctx, cfg)
	case "mock":
		base = NewOfflineProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", provider, err)
	}
	return base, nil
}

// providerForModel infers the provider from a model name prefix.
// Returns "" when the prefix is not recognized.
func providerForModel(model string) string {
	switch {
	case strings.HasPrefix(model, "claude"):
		return "anthropic"
	case strings.HasPrefix(model, "gpt"):
		return "openai"
	case strings.HasPrefix(model, "o1"), strings.HasPrefix(model, "o3"):
		return "openai"
	case strings.HasPrefix(model, "gemini"):
		return "gemini"
	case model == "mock" || strings.HasPrefix(model, "mock-"):
		return "mock"
	}
	return ""
}
