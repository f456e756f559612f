package logger

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	flags := log.Flags()
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(flags)
	})
	return &buf
}

func TestFormatFields(t *testing.T) {
	tests := []struct {
		name     string
		fields   Fields
		expected string
	}{
		{name: "empty", fields: Fields{}, expected: ""},
		{name: "sorted keys", fields: Fields{"b": 2, "a": "x"}, expected: "{a=x, b=2}"},
		{name: "floats", fields: Fields{"ratio": 0.5}, expected: "{ratio=0.50}"},
		{name: "int64", fields: Fields{"duration_ms": int64(12)}, expected: "{duration_ms=12}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatFields(tt.fields))
		})
	}
}

func TestLogCompile(t *testing.T) {
	buf := captureLog(t)

	LogCompile(context.Background(), "kick", 3*time.Millisecond, 4, nil, nil)
	assert.Contains(t, buf.String(), "[INFO] Pattern compiled {duration_ms=3, steps=4, target=kick}")

	buf.Reset()
	LogCompile(context.Background(), "", time.Millisecond, 0, errors.New("bad"), Fields{"request_id": "r1"})
	assert.Contains(t, buf.String(), "[WARN] Pattern rejected")
	assert.Contains(t, buf.String(), "error=bad")
	assert.NotContains(t, buf.String(), "target=")
}

func TestError_WithoutSentryClient(t *testing.T) {
	buf := captureLog(t)
	Error("dispatch failed", errors.New("refused"), Fields{"target": "kick"})
	assert.Contains(t, buf.String(), "[ERROR] dispatch failed: refused {target=kick}")
}
