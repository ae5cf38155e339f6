package insight

import (
	"context"
	stderrors "errors"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/murmur/internal/errors"
)

// temperature is sent to every remote provider.
const temperature = 0.3

// DefaultTimeout bounds a single provider call.
const DefaultTimeout = 30 * time.Second

// SourceLocal names the keyword fallback in reports.
const SourceLocal = "local"

// Provider is one remote summarization service in the chain.
type Provider interface {
	Name() string
	Summarize(ctx context.Context, prompt string) (*Result, error)
}

// Attempt records one remote provider call.
type Attempt struct {
	Provider string        `json:"provider"`
	Err      string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Report is a Result together with how it was produced.
type Report struct {
	Result   Result    `json:"result"`
	Source   string    `json:"source"`
	Attempts []Attempt `json:"attempts,omitempty"`
}

// Engine produces insight results, trying each provider in order and
// falling back to Local. It holds no mutable state.
type Engine struct {
	providers []Provider
	timeout   time.Duration
	logger    *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout sets the per-provider timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithLogger sets the logger for provider failures.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine returns an engine over providers. A nil or empty chain means
// every call goes straight to the local fallback.
func NewEngine(providers []Provider, opts ...Option) *Engine {
	e := &Engine{
		providers: providers,
		timeout:   DefaultTimeout,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Providers returns the names of the configured chain, in order.
func (e *Engine) Providers() []string {
	names := make([]string, 0, len(e.providers))
	for _, p := range e.providers {
		names = append(names, p.Name())
	}
	return names
}

// Generate summarizes texts. It never fails.
func (e *Engine) Generate(ctx context.Context, texts []string) Result {
	return e.GenerateReport(ctx, texts).Result
}

// GenerateReport is Generate plus the record of every remote attempt.
func (e *Engine) GenerateReport(ctx context.Context, texts []string) Report {
	if len(texts) == 0 {
		return Report{Result: Empty(), Source: SourceLocal}
	}

	var attempts []Attempt
	if len(e.providers) > 0 {
		prompt := BuildPrompt(texts)
		for _, p := range e.providers {
			start := time.Now()
			result, err := e.call(ctx, p, prompt)
			elapsed := time.Since(start)

			if err == nil {
				attempts = append(attempts, Attempt{Provider: p.Name(), Duration: elapsed})
				e.logger.Debug("insight provider succeeded",
					zap.String("provider", p.Name()),
					zap.Duration("duration", elapsed))
				return Report{Result: *result, Source: p.Name(), Attempts: attempts}
			}

			attempts = append(attempts, Attempt{Provider: p.Name(), Err: err.Error(), Duration: elapsed})
			e.logger.Warn("insight provider failed",
				zap.String("provider", p.Name()),
				zap.Duration("duration", elapsed),
				zap.Error(err))
		}
	}

	return Report{Result: Local(texts), Source: SourceLocal, Attempts: attempts}
}

// call runs one provider under its own timeout and wraps any failure.
func (e *Engine) call(ctx context.Context, p Provider, prompt string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	result, err := p.Summarize(ctx, prompt)
	if err != nil {
		return nil, errors.NewProviderFailed(p.Name(), err)
	}
	if result == nil {
		return nil, errors.NewProviderFailed(p.Name(), stderrors.New("empty result"))
	}
	clamped := result.clamp()
	return &clamped, nil
}
