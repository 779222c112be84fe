package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/civic-india/backend/internal/metrics"
	"github.com/civic-india/backend/pkg/circuitbreaker"
	"github.com/civic-india/backend/pkg/config"
	"github.com/civic-india/backend/pkg/logger"
	"github.com/civic-india/backend/pkg/retry"
)

var (
	ErrEmptyCompletion = errors.New("llm returned no content")
	ErrMissingAPIKey   = errors.New("llm api key is required")
)

// Generator produces text for a fully built prompt.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

type Options struct {
	Model       string
	Temperature float32
	MaxTokens   int
	// Timeout bounds one Generate call including retries.
	Timeout time.Duration
	// BaseURL overrides the provider endpoint; empty uses the default.
	BaseURL string
	Retry   retry.Config
}

func (o *Options) normalize() {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = 1024
	}
	if o.Retry.MaxAttempts == 0 {
		o.Retry = retry.Config{
			MaxAttempts:    3,
			InitialDelay:   500 * time.Millisecond,
			MaxDelay:       5 * time.Second,
			Multiplier:     2.0,
			JitterFraction: 0.1,
		}
	}
	if o.Retry.Logger == nil {
		o.Retry.Logger = logger.GetLogger()
	}
}

// New builds the generator selected by cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig) (Generator, error) {
	opts := Options{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     time.Duration(cfg.TimeoutSec) * time.Second,
	}

	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(cfg.APIKey, opts)
	case "gemini":
		return NewGeminiClient(ctx, cfg.APIKey, opts)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// guard wraps every backend call with the same timeout, breaker and retry
// policy and records the outcome.
type guard struct {
	provider string
	cb       *circuitbreaker.CircuitBreaker
	retry    retry.Config
	timeout  time.Duration
}

func newGuard(provider string, opts Options) *guard {
	r := opts.Retry
	r.Name = provider + ".generate"

	return &guard{
		provider: provider,
		cb: circuitbreaker.NewCircuitBreaker("llm."+provider, circuitbreaker.Config{
			MaxRequests:      5,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
			SuccessThreshold: 2,
			OnStateChange: func(name string, _, to circuitbreaker.State) {
				metrics.CircuitState.WithLabelValues(name).Set(float64(to))
			},
			Logger: logger.GetLogger(),
		}),
		retry:   r,
		timeout: opts.Timeout,
	}
}

func (g *guard) run(ctx context.Context, call func(ctx context.Context) (string, error)) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	var text string
	err := g.cb.Execute(ctx, func(ctx context.Context) error {
		var err error
		text, err = retry.DoWithResult(ctx, g.retry, call)
		return err
	})

	if err != nil {
		metrics.LLMCalls.WithLabelValues(g.provider, "error").Inc()
		return "", fmt.Errorf("%s generation failed: %w", g.provider, err)
	}

	metrics.LLMCalls.WithLabelValues(g.provider, "success").Inc()
	logger.Debug("Generation completed",
		zap.String("provider", g.provider),
		zap.Int("response_length", len(text)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return text, nil
}
