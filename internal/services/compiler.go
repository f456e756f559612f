package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Conceptual-Machines/battito/internal/config"
	"github.com/Conceptual-Machines/battito/internal/logger"
	"github.com/Conceptual-Machines/battito/internal/metrics"
	"github.com/Conceptual-Machines/battito/pkg/pattern"
	"github.com/getsentry/sentry-go"
)

// Outcome names the class of a compile or play result. They double as the
// "error" field of API responses and as metric dimensions.
type Outcome string

const (
	OutcomeOK        Outcome = "ok"
	OutcomeGrammar   Outcome = "grammar"
	OutcomeNumeric   Outcome = "numeric"
	OutcomeEuclidean Outcome = "euclidean"
	OutcomeBudget    Outcome = "budget"
	OutcomeTimeout   Outcome = "timeout"
	OutcomeInternal  Outcome = "internal"
	OutcomeTransport Outcome = "transport"
	OutcomeNotFound  Outcome = "not_found"
)

var (
	ErrPatternTooLarge = errors.New("pattern exceeds size limit")
	ErrCompileTimeout  = errors.New("compile timed out")
	ErrDispatch        = errors.New("dispatch failed")
)

// Classify maps an error from this package or pkg/pattern to its Outcome.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, pattern.ErrGrammar):
		return OutcomeGrammar
	case errors.Is(err, pattern.ErrNumericParse):
		return OutcomeNumeric
	case errors.Is(err, pattern.ErrEuclideanConstraint):
		return OutcomeEuclidean
	case errors.Is(err, pattern.ErrMeasureBudget), errors.Is(err, ErrPatternTooLarge):
		return OutcomeBudget
	case errors.Is(err, ErrCompileTimeout), errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	case errors.Is(err, ErrDispatch):
		return OutcomeTransport
	case errors.Is(err, ErrTargetNotFound):
		return OutcomeNotFound
	default:
		return OutcomeInternal
	}
}

// Compiler runs pkg/pattern under the configured limits.
type Compiler struct {
	subdivision uint32
	maxBytes    int
	maxMeasures int
	maxNodes    int
	timeout     time.Duration

	sentryMetrics *metrics.SentryMetrics
	cloudwatch    *metrics.Client
}

func NewCompiler(cfg *config.Config, cloudwatch *metrics.Client) *Compiler {
	return &Compiler{
		subdivision:   cfg.Subdivision,
		maxBytes:      cfg.MaxPatternBytes,
		maxMeasures:   cfg.MaxMeasures,
		maxNodes:      cfg.MaxNodes,
		timeout:       cfg.CompileTimeout,
		sentryMetrics: metrics.NewSentryMetrics(),
		cloudwatch:    cloudwatch,
	}
}

// Subdivision is the grid used when a request does not pick one.
func (c *Compiler) Subdivision() uint32 {
	if c.subdivision == 0 {
		return pattern.DefaultSubdivision
	}
	return c.subdivision
}

// Limits reports the configured budgets, for /api/metrics.
func (c *Compiler) Limits() map[string]interface{} {
	return map[string]interface{}{
		"subdivision":       c.Subdivision(),
		"max_pattern_bytes": c.maxBytes,
		"max_measures":      c.maxMeasures,
		"max_nodes":         c.maxNodes,
		"compile_timeout":   c.timeout.String(),
	}
}

// Compile compiles text on subdivision ticks per measure, or the configured
// grid when subdivision is 0.
func (c *Compiler) Compile(ctx context.Context, text string, subdivision uint32) (*pattern.Pattern, error) {
	if subdivision == 0 {
		subdivision = c.Subdivision()
	}
	start := time.Now()

	p, err := run(ctx, c, text, func() (*pattern.Pattern, error) {
		return pattern.CompileWith(text, c.options(subdivision))
	})

	steps, measures := 0, 0
	if p != nil {
		steps, measures = len(p.Steps), int(p.Length)
	}
	c.record(ctx, err, steps, measures, time.Since(start))
	return p, err
}

// Parse returns the parsed form of text without expanding it.
func (c *Compiler) Parse(ctx context.Context, text string) (*pattern.ParsedSequence, error) {
	return run(ctx, c, text, func() (*pattern.ParsedSequence, error) {
		return pattern.ParseWith(text, c.options(0))
	})
}

func (c *Compiler) options(subdivision uint32) pattern.Options {
	return pattern.Options{
		Subdivision: subdivision,
		MaxMeasures: c.maxMeasures,
		MaxNodes:    c.maxNodes,
	}
}

// run applies the size budget and the deadline around fn. fn keeps running
// after a timeout until it finishes or exhausts the node budget, which it
// checks before every allocation.
func run[T any](ctx context.Context, c *Compiler, text string, fn func() (T, error)) (T, error) {
	var zero T
	if c.maxBytes > 0 && len(text) > c.maxBytes {
		return zero, fmt.Errorf("%w: %d bytes, limit is %d", ErrPatternTooLarge, len(text), c.maxBytes)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, fmt.Errorf("%w after %s", ErrCompileTimeout, c.timeout)
		}
		return zero, ctx.Err()
	}
}

func (c *Compiler) record(ctx context.Context, err error, steps, measures int, duration time.Duration) {
	outcome := Classify(err)
	c.sentryMetrics.RecordCompile(ctx, string(outcome), steps, measures, duration)
	c.cloudwatch.RecordCompile(string(outcome), steps, duration)

	switch outcome {
	case OutcomeInternal:
		logger.Error("Compile failed", err, logger.Fields{"outcome": string(outcome)})
	case OutcomeTimeout:
		logger.LogToSentry(sentry.LevelWarning, "Compile timed out", logger.Fields{
			"timeout":     c.timeout.String(),
			"duration_ms": duration.Milliseconds(),
		})
	}
}
