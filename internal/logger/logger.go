package logger

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

// Fields represents structured log fields
type Fields map[string]interface{}

// WithContext extracts request context for logging
func WithContext(c *gin.Context) Fields {
	fields := Fields{
		"request_id": c.GetString("request_id"),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
	}

	if userID, exists := c.Get("user_id"); exists {
		fields["user_id"] = userID
	}

	return fields
}

// Info logs an informational message with structured fields
func Info(msg string, fields Fields) {
	log.Printf("[INFO] %s %v", msg, formatFields(fields))
	breadcrumb("info", msg, fields, sentry.LevelInfo)
}

// Error logs an error message with structured fields and sends to Sentry
func Error(msg string, err error, fields Fields) {
	log.Printf("[ERROR] %s: %v %v", msg, err, formatFields(fields))

	if hub := sentry.CurrentHub(); hub.Client() != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			applyFields(scope, fields)
			hub.CaptureException(err)
		})
	}
}

// Warn logs a warning message with structured fields
func Warn(msg string, fields Fields) {
	log.Printf("[WARN] %s %v", msg, formatFields(fields))
	breadcrumb("warning", msg, fields, sentry.LevelWarning)
}

// Debug logs a debug message with structured fields
func Debug(msg string, fields Fields) {
	log.Printf("[DEBUG] %s %v", msg, formatFields(fields))
	breadcrumb("debug", msg, fields, sentry.LevelDebug)
}

// LogCompile logs the outcome of one pattern compile. err is nil on success.
func LogCompile(ctx context.Context, target string, duration time.Duration, steps int, err error, fields Fields) {
	if fields == nil {
		fields = Fields{}
	}

	if target != "" {
		fields["target"] = target
	}
	fields["duration_ms"] = duration.Milliseconds()
	fields["steps"] = steps

	if err != nil {
		fields["error"] = err.Error()
		Warn("Pattern rejected", fields)
	} else {
		Info("Pattern compiled", fields)
	}

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		span := sentry.StartSpan(ctx, "pattern.compile")
		span.Description = target
		span.SetData("steps", steps)
		span.Finish()
	}
}

// LogToSentry sends a log message directly to Sentry as an event
func LogToSentry(level sentry.Level, msg string, fields Fields) {
	if hub := sentry.CurrentHub(); hub.Client() != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetLevel(level)
			applyFields(scope, fields)
			hub.CaptureMessage(msg)
		})
	}
}

func breadcrumb(kind, msg string, fields Fields, level sentry.Level) {
	if hub := sentry.CurrentHub(); hub.Client() != nil {
		sentry.AddBreadcrumb(&sentry.Breadcrumb{
			Type:     kind,
			Category: "log",
			Message:  msg,
			Data:     convertFieldsToMap(fields),
			Level:    level,
		})
	}
}

// applyFields adds fields as scope context; request_id and target also become
// tags for filtering.
func applyFields(scope *sentry.Scope, fields Fields) {
	for key, value := range fields {
		scope.SetContext(key, map[string]interface{}{
			"value": value,
		})
	}
	if requestID, ok := fields["request_id"].(string); ok {
		scope.SetTag("request_id", requestID)
	}
	if target, ok := fields["target"].(string); ok {
		scope.SetTag("target", target)
	}
}

// formatFields renders fields as {k=v, ...} in key order
func formatFields(fields Fields) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(formatValue(fields[k]))
	}
	b.WriteString("}")
	return b.String()
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return fmt.Sprintf("%d", val)
	case int64:
		return fmt.Sprintf("%d", val)
	case float64:
		return fmt.Sprintf("%.2f", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func convertFieldsToMap(fields Fields) map[string]interface{} {
	result := make(map[string]interface{})
	for k, v := range fields {
		result[k] = v
	}
	return result
}
