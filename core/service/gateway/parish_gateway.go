// Package gateway wraps the raw generation provider with timeouts, the
// retry policy and a circuit breaker.
package gateway

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"parish_server/config"
	"parish_server/core/port/out"
	"parish_server/pkg/apperr"
	"parish_server/pkg/logger"
	"parish_server/pkg/resilience"
)

// Retryable decides whether a provider error is worth another attempt.
// Only network failures and 429/503 responses qualify; everything else
// fails fast.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if ae, ok := apperr.AsAppError(err); ok {
		if sc, ok := ae.Details["status_code"].(int); ok {
			return sc == 429 || sc == 503
		}
	}
	return false
}

type Gateway struct {
	gen     out.TextGenerator
	policy  config.RetryPolicy
	timeout time.Duration
	opts    out.GenerationOptions
	cb      *resilience.CircuitBreaker
	sleep   func(context.Context, time.Duration) error
	log     *logger.Logger
}

func New(gen out.TextGenerator, cfg config.LLMConfig) *Gateway {
	g := &Gateway{
		gen:     gen,
		policy:  cfg.Retry,
		timeout: cfg.RequestTimeout,
		opts: out.GenerationOptions{
			Temperature:     cfg.Temperature,
			MaxOutputTokens: cfg.MaxOutputTokens,
		},
		sleep: sleepCtx,
		log:   logger.WithField("component", "gateway"),
	}
	g.cb = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:             "llm-" + gen.Name(),
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
		OnStateChange: func(name string, from, to resilience.CircuitState) {
			g.log.Warnf("circuit %s: %s -> %s", name, from, to)
		},
	})
	return g
}

// Generate runs one generation with the configured options. A provider
// answer with an unusable shape comes back as ("", nil); callers must
// treat it as "no result".
func (g *Gateway) Generate(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, prompt, g.opts, g.timeout)
}

// GenerateWith runs one generation with caller-supplied options, used by
// the gate and the summarizer.
func (g *Gateway) GenerateWith(ctx context.Context, prompt string, opts out.GenerationOptions, timeout time.Duration) (string, error) {
	return g.generate(ctx, prompt, opts, timeout)
}

func (g *Gateway) generate(ctx context.Context, prompt string, opts out.GenerationOptions, timeout time.Duration) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= g.policy.MaxAttempts; attempt++ {
		var result string
		err := g.cb.Execute(func() error {
			callCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			var genErr error
			result, genErr = g.gen.GenerateContent(callCtx, prompt, opts)
			return genErr
		})
		if err == nil {
			return result, nil
		}
		lastErr = err

		if errors.Is(err, resilience.ErrCircuitOpen) || !Retryable(err) || attempt == g.policy.MaxAttempts {
			break
		}
		delay := g.policy.Delay(attempt + 1)
		g.log.WithError(err).Warnf("generation attempt %d/%d failed, retrying in %s", attempt, g.policy.MaxAttempts, delay)
		if err := g.sleep(ctx, delay); err != nil {
			return "", err
		}
	}
	return "", apperr.GenerationFailed(lastErr)
}

const summaryMinWords = 60

// Summarize condenses a long conversation history. Short histories come
// back untouched; a degenerate summary falls back to the full text.
func (g *Gateway) Summarize(ctx context.Context, history string) string {
	if len(strings.Fields(history)) < summaryMinWords {
		return history
	}

	prompt := "Riassumi in poche frasi la seguente conversazione email tra la segreteria parrocchiale e un utente, " +
		"conservando le informazioni già fornite e le richieste ancora aperte:\n\n" + history

	opts := out.GenerationOptions{Temperature: 0.1, MaxOutputTokens: 150}
	for attempt := 0; attempt < 2; attempt++ {
		summary, err := g.GenerateWith(ctx, prompt, opts, 20*time.Second)
		if err == nil {
			summary = strings.TrimSpace(summary)
			if len(strings.Fields(summary)) >= 15 && !strings.Contains(strings.ToLower(summary), "non ho abbastanza informazioni") {
				return summary
			}
		}
		if attempt == 0 {
			if sleepErr := g.sleep(ctx, time.Second); sleepErr != nil {
				break
			}
		}
	}
	return history
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
