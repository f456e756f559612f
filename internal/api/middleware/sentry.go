package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Conceptual-Machines/battito/internal/logger"
	"github.com/Conceptual-Machines/battito/internal/metrics"
	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	httpStatusBadRequest          = http.StatusBadRequest
	httpStatusInternalServerError = http.StatusInternalServerError
	sentryFlushTimeout            = 2 * time.Second
)

// Global metrics instance
var sentryMetrics = metrics.NewSentryMetrics()

// RequestTracking adds request ID and logging to all requests. cloudwatch may be nil.
func RequestTracking(cloudwatch *metrics.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		start := time.Now()

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		fields := logger.Fields{
			"request_id":  requestID,
			"duration_ms": duration.Milliseconds(),
			"status_code": statusCode,
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"client_ip":   c.ClientIP(),
		}
		if outcome := c.GetString("outcome"); outcome != "" {
			fields["outcome"] = outcome
		}

		if statusCode >= httpStatusInternalServerError {
			logger.Error("Request failed with server error", fmt.Errorf("status %d", statusCode), fields)
		} else if statusCode >= httpStatusBadRequest {
			logger.Warn("Request failed with client error", fields)
		} else {
			logger.Info("Request completed", fields)
		}

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}
		sentryMetrics.RecordAPIRequest(c.Request.Context(), endpoint, statusCode, duration)
		cloudwatch.RecordAPIRequest(endpoint, statusCode, duration)
	}
}

// SentryMiddleware returns the Sentry middleware with custom configuration
func SentryMiddleware() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         sentryFlushTimeout,
	})
}

// RecoverWithSentry recovers from panics and sends them to Sentry
func RecoverWithSentry() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				if hub := sentrygin.GetHubFromContext(c); hub != nil {
					hub.WithScope(func(scope *sentry.Scope) {
						scope.SetRequest(c.Request)
						scope.SetContext("request", map[string]interface{}{
							"request_id": c.GetString("request_id"),
							"method":     c.Request.Method,
							"path":       c.Request.URL.Path,
							"client_ip":  c.ClientIP(),
						})

						if userID, exists := c.Get("user_id"); exists {
							scope.SetUser(sentry.User{
								ID: fmt.Sprint(userID),
							})
						}

						hub.RecoverWithContext(c.Request.Context(), err)
					})
				}

				logger.Error("Panic recovered", fmt.Errorf("%v", err), logger.Fields{
					"request_id": c.GetString("request_id"),
					"path":       c.Request.URL.Path,
				})

				c.JSON(httpStatusInternalServerError, gin.H{
					"error":      "internal",
					"message":    "Internal server error",
					"request_id": c.GetString("request_id"),
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}
