package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_DisabledOutsideProduction(t *testing.T) {
	client, err := NewClient(context.Background(), "development")
	require.NoError(t, err)
	assert.False(t, client.Enabled())

	// disabled clients never reach CloudWatch
	client.RecordAPIRequest("/api/v1/compile", 200, time.Millisecond)
	client.RecordCompile("ok", 3, time.Millisecond)
	client.RecordDispatch("kick", true)
}

func TestClient_NilIsDisabled(t *testing.T) {
	var client *Client
	assert.False(t, client.Enabled())
	client.RecordCompile("grammar", 0, time.Millisecond)
}

func TestClient_Dimensions(t *testing.T) {
	client := &Client{environment: "staging"}
	dims := client.dimensions("Target", "kick")
	require.Len(t, dims, 2)
	assert.Equal(t, "Target", *dims[0].Name)
	assert.Equal(t, "kick", *dims[0].Value)
	assert.Equal(t, "staging", *dims[1].Value)
}

func TestSentryMetrics_WithoutClient(t *testing.T) {
	m := NewSentryMetrics()
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordAPIRequest(ctx, "/health", 200, time.Millisecond)
		m.RecordCompile(ctx, "ok", 4, 1, time.Millisecond)
		m.RecordCompile(ctx, "timeout", 0, 0, time.Second)
		m.RecordDispatch(ctx, "kick", "127.0.0.1:1234", 64, errors.New("refused"))
		m.RecordPerformanceMetric("export.smf", time.Millisecond, map[string]interface{}{"notes": 3})
	})

	var disabled *SentryMetrics
	assert.NotPanics(t, func() {
		disabled.RecordCompile(ctx, "ok", 1, 1, time.Millisecond)
	})
}
