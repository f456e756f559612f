package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterSensitiveHeaders(t *testing.T) {
	filtered := filterSensitiveHeaders(map[string]string{
		"Authorization": "Bearer abc",
		"cookie":        "session=1",
		"X-Api-Key":     "k",
		"X-Request-Id":  "id",
	})

	assert.Equal(t, map[string]string{
		"Authorization": "[REDACTED]",
		"cookie":        "[REDACTED]",
		"X-Api-Key":     "[REDACTED]",
		"X-Request-Id":  "id",
	}, filtered)
}
