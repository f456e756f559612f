package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
)

const (
	// HTTP status code threshold for considering a request successful
	successStatusCodeThreshold = http.StatusBadRequest
)

// SentryMetrics handles custom metrics for Sentry
type SentryMetrics struct {
	enabled bool
}

// NewSentryMetrics creates a new Sentry metrics client
func NewSentryMetrics() *SentryMetrics {
	return &SentryMetrics{
		enabled: true, // Always enabled if Sentry is configured
	}
}

// RecordAPIRequest records API request metrics
func (m *SentryMetrics) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	if m == nil || !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "api.request")
	defer span.Finish()

	span.SetTag("endpoint", endpoint)
	span.SetTag("status_code", fmt.Sprintf("%d", statusCode))
	span.SetTag("success", fmt.Sprintf("%t", statusCode < successStatusCodeThreshold))

	span.SetData("duration_ms", duration.Milliseconds())
	span.SetData("endpoint", endpoint)
	span.SetData("status_code", statusCode)

	if statusCode < successStatusCodeThreshold {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}

	span.Description = fmt.Sprintf("API Request: %s", endpoint)
}

// RecordCompile records a compile span. Rejected patterns are not server
// errors, so only "internal" and "timeout" outcomes mark the span failed.
func (m *SentryMetrics) RecordCompile(ctx context.Context, outcome string, steps int, measures int, duration time.Duration) {
	if m == nil || !m.enabled {
		return
	}

	if transaction := sentry.TransactionFromContext(ctx); transaction != nil {
		transaction.SetTag("pattern.outcome", outcome)
		transaction.SetData("pattern.steps", steps)
	}

	span := sentry.StartSpan(ctx, "pattern.compile")
	defer span.Finish()

	span.SetTag("outcome", outcome)
	span.SetData("steps", steps)
	span.SetData("measures", measures)
	span.SetData("duration_ms", duration.Milliseconds())

	switch outcome {
	case "internal":
		span.Status = sentry.SpanStatusInternalError
	case "timeout":
		span.Status = sentry.SpanStatusDeadlineExceeded
	default:
		span.Status = sentry.SpanStatusOK
	}

	span.Description = fmt.Sprintf("Compile: %s", outcome)
}

// RecordDispatch records an OSC send
func (m *SentryMetrics) RecordDispatch(ctx context.Context, target, destination string, bytes int, err error) {
	if m == nil || !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "osc.send")
	defer span.Finish()

	span.SetTag("target", target)
	span.SetTag("success", fmt.Sprintf("%t", err == nil))
	span.SetData("destination", destination)
	span.SetData("bytes", bytes)

	if err != nil {
		span.Status = sentry.SpanStatusUnavailable
		span.SetData("error", err.Error())
	} else {
		span.Status = sentry.SpanStatusOK
	}

	span.Description = fmt.Sprintf("OSC Send: %s", target)
}

// RecordPerformanceMetric records performance data
func (m *SentryMetrics) RecordPerformanceMetric(operation string, duration time.Duration, metadata map[string]interface{}) {
	if m == nil || !m.enabled {
		return
	}

	ctx := context.Background()
	span := sentry.StartSpan(ctx, operation)
	span.Description = operation
	span.SetData("duration_ms", duration.Milliseconds())

	for key, value := range metadata {
		span.SetData(key, value)
	}

	span.Finish()
}
