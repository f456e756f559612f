package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Conceptual-Machines/battito/internal/config"
	"github.com/Conceptual-Machines/battito/internal/models"
	"github.com/Conceptual-Machines/battito/internal/transport"
	"github.com/Conceptual-Machines/battito/pkg/pattern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment:     "test",
		Subdivision:     1920,
		MaxPatternBytes: 64,
		MaxMeasures:     16,
		CompileTimeout:  time.Second,
	}
}

type fakeSender struct {
	mu   sync.Mutex
	sent []transport.Destination
	last pattern.Payload
	err  error
}

func (f *fakeSender) Send(_ context.Context, dest transport.Destination, payload pattern.Payload) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.sent = append(f.sent, dest)
	f.last = payload
	return len(payload.Steps), nil
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Outcome
	}{
		{name: "nil", err: nil, expected: OutcomeOK},
		{name: "grammar", err: pattern.ErrGrammar, expected: OutcomeGrammar},
		{name: "numeric", err: fmt.Errorf("%w: x", pattern.ErrNumericParse), expected: OutcomeNumeric},
		{name: "euclidean", err: &pattern.EuclideanError{Kind: pattern.NGreaterThanM}, expected: OutcomeEuclidean},
		{name: "measure budget", err: pattern.ErrMeasureBudget, expected: OutcomeBudget},
		{name: "size budget", err: ErrPatternTooLarge, expected: OutcomeBudget},
		{name: "timeout", err: ErrCompileTimeout, expected: OutcomeTimeout},
		{name: "dispatch", err: fmt.Errorf("%w: refused", ErrDispatch), expected: OutcomeTransport},
		{name: "not found", err: ErrTargetNotFound, expected: OutcomeNotFound},
		{name: "invariant", err: pattern.ErrInternalInvariant, expected: OutcomeInternal},
		{name: "unknown", err: errors.New("boom"), expected: OutcomeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.err))
		})
	}
}

func TestCompiler_Compile(t *testing.T) {
	c := NewCompiler(testConfig(), nil)
	ctx := context.Background()

	p, err := c.Compile(ctx, "1 2 3", 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(1920), p.Subdivision)
	assert.Equal(t, "1 1 100, 641 2 100, 1281 3 100", p.MaxFormat())

	p, err = c.Compile(ctx, "1 2", 4)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), p.Subdivision)
}

func TestCompiler_Limits(t *testing.T) {
	c := NewCompiler(testConfig(), nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		input    string
		expected Outcome
	}{
		{name: "too many bytes", input: "1 2 3 4 5 6 7 8 9 1 2 3 4 5 6 7 8 9 1 2 3 4 5 6 7 8 9 1 2 3 4 5 6 7 8 9", expected: OutcomeBudget},
		{name: "too many measures", input: "<1,2,3,4,5> <1,2,3,4>", expected: OutcomeBudget},
		{name: "grammar", input: "1 2 )", expected: OutcomeGrammar},
		{name: "euclidean", input: "b(5,3)", expected: OutcomeEuclidean},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := c.Compile(ctx, tt.input, 0)
			assert.Nil(t, p)
			assert.Equal(t, tt.expected, Classify(err))
		})
	}
}

func TestCompiler_NodeBudget(t *testing.T) {
	cfg := testConfig()
	cfg.MaxNodes = 16
	c := NewCompiler(cfg, nil)
	ctx := context.Background()

	_, err := c.Compile(ctx, "a*64", 0)
	assert.Equal(t, OutcomeBudget, Classify(err))

	_, err = c.Parse(ctx, "[[a*8]*8]*8")
	assert.Equal(t, OutcomeBudget, Classify(err))

	p, err := c.Compile(ctx, "a*2", 0)
	require.NoError(t, err)
	assert.Len(t, p.Steps, 2)
	assert.Equal(t, 16, c.Limits()["max_nodes"])
}

func TestRun_Timeout(t *testing.T) {
	c := NewCompiler(testConfig(), nil)
	c.timeout = 10 * time.Millisecond

	release := make(chan struct{})
	defer close(release)
	_, err := run(context.Background(), c, "1", func() (int, error) {
		<-release
		return 1, nil
	})
	assert.ErrorIs(t, err, ErrCompileTimeout)
	assert.Equal(t, OutcomeTimeout, Classify(err))
}

func TestRun_Cancelled(t *testing.T) {
	c := NewCompiler(testConfig(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	release := make(chan struct{})
	defer close(release)
	_, err := run(ctx, c, "1", func() (int, error) {
		<-release
		return 1, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompiler_Parse(t *testing.T) {
	c := NewCompiler(testConfig(), nil)
	seq, err := c.Parse(context.Background(), "1 [2 3]")
	require.NoError(t, err)
	assert.Len(t, seq.Sections, 1)
}

func TestMemoryTargetStore(t *testing.T) {
	store := NewMemoryTargetStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "kick")
	assert.ErrorIs(t, err, ErrTargetNotFound)

	require.NoError(t, store.Put(ctx, &models.Target{Name: "kick", Host: "127.0.0.1", Port: 9000}))
	require.NoError(t, store.Put(ctx, &models.Target{Name: "bass", Host: "127.0.0.1", Port: 9001, Address: "/bass"}))

	got, err := store.Get(ctx, "kick")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultOSCAddress, got.Address)
	firstID := got.ID

	require.NoError(t, store.Put(ctx, &models.Target{Name: "kick", Host: "10.0.0.1", Port: 9000}))
	got, err = store.Get(ctx, "kick")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", got.Host)
	assert.Equal(t, firstID, got.ID)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "bass", list[0].Name)
	assert.Equal(t, "kick", list[1].Name)

	assert.ErrorIs(t, store.Put(ctx, &models.Target{Name: "bad name", Host: "h", Port: 1}), models.ErrInvalidTargetName)

	require.NoError(t, store.Delete(ctx, "kick"))
	assert.ErrorIs(t, store.Delete(ctx, "kick"), ErrTargetNotFound)
}

func TestPlayer_Play(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryTargetStore()
	require.NoError(t, store.Put(ctx, &models.Target{Name: "kick", Host: "10.0.0.5", Port: 7000, Address: "/drums", Subdivision: 16}))

	sender := &fakeSender{}
	fallback := transport.Destination{Addr: "127.0.0.1:1234", Address: "/battito"}
	player := NewPlayer(NewCompiler(testConfig(), nil), store, sender, fallback, nil)

	t.Run("stored route and subdivision", func(t *testing.T) {
		result, err := player.PlayLine(ctx, "kick $ b(3,8)", 0)
		require.NoError(t, err)
		assert.Equal(t, transport.Destination{Addr: "10.0.0.5:7000", Address: "/drums"}, result.Destination)
		assert.Equal(t, uint32(16), result.Payload.Subdivision)
		assert.Equal(t, "1 b 100, 7 b 100, 13 b 100", result.Payload.Steps)
		assert.Equal(t, "kick", sender.last.Target)
		assert.Positive(t, result.Bytes)
	})

	t.Run("explicit subdivision wins", func(t *testing.T) {
		result, err := player.Play(ctx, "kick", "1 2", 4)
		require.NoError(t, err)
		assert.Equal(t, uint32(4), result.Payload.Subdivision)
	})

	t.Run("unknown target uses fallback", func(t *testing.T) {
		result, err := player.PlayLine(ctx, "hat $ h h", 0)
		require.NoError(t, err)
		assert.Equal(t, fallback, result.Destination)
		assert.Equal(t, uint32(1920), result.Payload.Subdivision)
	})

	t.Run("compile errors are not sent", func(t *testing.T) {
		before := len(sender.sent)
		_, err := player.PlayLine(ctx, "hat $ h(9,8)", 0)
		assert.Equal(t, OutcomeEuclidean, Classify(err))
		assert.Len(t, sender.sent, before)
	})

	t.Run("missing target prefix", func(t *testing.T) {
		_, err := player.PlayLine(ctx, "1 2 3", 0)
		assert.Equal(t, OutcomeGrammar, Classify(err))
	})

	t.Run("prepare does not send", func(t *testing.T) {
		before := len(sender.sent)
		result, err := player.Prepare(ctx, "hat", "h", 0)
		require.NoError(t, err)
		assert.Equal(t, "1 h 100", result.Payload.Steps)
		assert.Len(t, sender.sent, before)
	})
}

func TestPlayer_DispatchFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("connection refused")}
	player := NewPlayer(NewCompiler(testConfig(), nil), NewMemoryTargetStore(), sender, transport.Destination{Addr: "127.0.0.1:1", Address: "/battito"}, nil)

	_, err := player.PlayLine(context.Background(), "a $ 1", 0)
	assert.ErrorIs(t, err, ErrDispatch)
	assert.Equal(t, OutcomeTransport, Classify(err))
}
