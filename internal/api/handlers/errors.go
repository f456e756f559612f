package handlers

import (
	"errors"
	"net/http"

	"github.com/Conceptual-Machines/battito/internal/logger"
	"github.com/Conceptual-Machines/battito/internal/models"
	"github.com/Conceptual-Machines/battito/internal/services"
	"github.com/Conceptual-Machines/battito/pkg/pattern"
	"github.com/gin-gonic/gin"
)

var outcomeStatus = map[services.Outcome]int{
	services.OutcomeGrammar:   http.StatusBadRequest,
	services.OutcomeNumeric:   http.StatusBadRequest,
	services.OutcomeEuclidean: http.StatusUnprocessableEntity,
	services.OutcomeBudget:    http.StatusUnprocessableEntity,
	services.OutcomeTimeout:   http.StatusGatewayTimeout,
	services.OutcomeTransport: http.StatusBadGateway,
	services.OutcomeNotFound:  http.StatusNotFound,
	services.OutcomeInternal:  http.StatusInternalServerError,
}

// StatusFor returns the HTTP status an error is reported with
func StatusFor(err error) int {
	if status, ok := outcomeStatus[services.Classify(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondError writes {"error": outcome, "message": ...}. Euclidean errors
// also carry their kind.
func respondError(c *gin.Context, err error) {
	outcome := services.Classify(err)
	status := StatusFor(err)
	c.Set("outcome", string(outcome))

	body := gin.H{
		"error":      string(outcome),
		"message":    err.Error(),
		"request_id": c.GetString("request_id"),
	}
	var eerr *pattern.EuclideanError
	if errors.As(err, &eerr) {
		body["kind"] = eerr.Kind.String()
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", err, logger.WithContext(c))
	}
	c.JSON(status, body)
}

func respondBadRequest(c *gin.Context, err error) {
	c.Set("outcome", "bad_request")
	c.JSON(http.StatusBadRequest, gin.H{
		"error":      "bad_request",
		"message":    err.Error(),
		"request_id": c.GetString("request_id"),
	})
}

func isValidationError(err error) bool {
	return errors.Is(err, models.ErrInvalidTargetName) ||
		errors.Is(err, models.ErrInvalidTargetHost) ||
		errors.Is(err, models.ErrInvalidTargetPort) ||
		errors.Is(err, models.ErrInvalidOSCAddress)
}
