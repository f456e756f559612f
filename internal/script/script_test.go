package script

import (
	"context"
	"testing"
	"time"

	"github.com/Conceptual-Machines/battito/internal/config"
	"github.com/Conceptual-Machines/battito/internal/models"
	"github.com/Conceptual-Machines/battito/internal/services"
	"github.com/Conceptual-Machines/battito/internal/transport"
	"github.com/Conceptual-Machines/battito/pkg/pattern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	sent []transport.Destination
}

func (r *recordingSender) Send(_ context.Context, dest transport.Destination, p pattern.Payload) (int, error) {
	r.sent = append(r.sent, dest)
	return len(p.Steps), nil
}

func TestParser_Parse(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected []Action
	}{
		{
			name: "route",
			src:  `target(name=kick, host="10.0.0.5", port=7000, address="/drums", subdivision=16)`,
			expected: []Action{{Kind: ActionTarget, Route: &models.Target{
				Name: "kick", Host: "10.0.0.5", Port: 7000, Address: "/drums", Subdivision: 16,
			}}},
		},
		{
			name: "route with default address",
			src:  `target(name=hat, host="127.0.0.1", port=9000)`,
			expected: []Action{{Kind: ActionTarget, Route: &models.Target{
				Name: "hat", Host: "127.0.0.1", Port: 9000, Address: models.DefaultOSCAddress,
			}}},
		},
		{
			name:     "play",
			src:      `play(target=kick, pattern="b(3,8) [b b]")`,
			expected: []Action{{Kind: ActionPlay, Target: "kick", Pattern: "b(3,8) [b b]"}},
		},
		{
			name:     "play with subdivision",
			src:      `play(target=kick, pattern="1 2", subdivision=4)`,
			expected: []Action{{Kind: ActionPlay, Target: "kick", Pattern: "1 2", Subdivision: 4}},
		},
		{
			name: "one statement per line",
			src: "# drums\n" +
				"target(name=kick, host=\"10.0.0.5\", port=7000)\n" +
				"\n" +
				"play(target=kick, pattern=\"<b,~> b\");\n",
			expected: []Action{
				{Kind: ActionTarget, Route: &models.Target{Name: "kick", Host: "10.0.0.5", Port: 7000, Address: models.DefaultOSCAddress}},
				{Kind: ActionPlay, Target: "kick", Pattern: "<b,~> b"},
			},
		},
		{
			name: "semicolons",
			src:  `play(target=a, pattern="1"); play(target=b, pattern="2")`,
			expected: []Action{
				{Kind: ActionPlay, Target: "a", Pattern: "1"},
				{Kind: ActionPlay, Target: "b", Pattern: "2"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Create new parser for each test to reset state
			p, err := NewParser()
			require.NoError(t, err)

			actions, err := p.Parse(context.Background(), tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, actions)
		})
	}
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "unknown call", src: `dance(target=kick)`},
		{name: "missing port", src: `target(name=kick, host="10.0.0.5")`},
		{name: "port out of range", src: `target(name=kick, host="10.0.0.5", port=70000)`},
		{name: "missing host", src: `target(name=kick, port=7000)`},
		{name: "relative address", src: `target(name=kick, host="h", port=7000, address="drums")`},
		{name: "missing pattern", src: `play(target=kick)`},
		{name: "fractional subdivision", src: `play(target=kick, pattern="1", subdivision=1.5)`},
		{name: "negative subdivision", src: `play(target=kick, pattern="1", subdivision=-4)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewParser()
			require.NoError(t, err)

			_, err = p.Parse(context.Background(), tt.src)
			assert.ErrorIs(t, err, ErrInvalidScript)
		})
	}
}

func TestParser_Empty(t *testing.T) {
	p, err := NewParser()
	require.NoError(t, err)

	_, err = p.Parse(context.Background(), "\n# nothing to play\n  \n")
	assert.ErrorIs(t, err, ErrEmptyScript)
}

func TestStatements(t *testing.T) {
	assert.Equal(t, "a();b();c()", statements("a(); b()\n# skip\n\n  c()  \n"))
	assert.Equal(t, "", statements(";;\n#"))
}

func newRunner(t *testing.T) (*Runner, services.TargetStore, *recordingSender) {
	t.Helper()
	cfg := &config.Config{
		Subdivision:     1920,
		MaxPatternBytes: 1024,
		MaxMeasures:     64,
		CompileTimeout:  time.Second,
	}
	store := services.NewMemoryTargetStore()
	sender := &recordingSender{}
	fallback := transport.Destination{Addr: "127.0.0.1:1234", Address: "/battito"}
	player := services.NewPlayer(services.NewCompiler(cfg, nil), store, sender, fallback, nil)
	return NewRunner(store, player), store, sender
}

func TestRunner_RunScript(t *testing.T) {
	runner, store, sender := newRunner(t)
	ctx := context.Background()

	src := "target(name=kick, host=\"10.0.0.5\", port=7000, address=\"/drums\", subdivision=16)\n" +
		"play(target=kick, pattern=\"b(3,8)\")\n" +
		"play(target=hat, pattern=\"h h\", subdivision=4)\n"

	results, err := runner.RunScript(ctx, src)
	require.NoError(t, err)
	require.Len(t, results, 2)

	route, err := store.Get(ctx, "kick")
	require.NoError(t, err)
	assert.Equal(t, 7000, route.Port)

	assert.Equal(t, "1 b 100, 7 b 100, 13 b 100", results[0].Payload.Steps)
	assert.Equal(t, uint32(16), results[0].Payload.Subdivision)
	assert.Equal(t, "1 h 100, 3 h 100", results[1].Payload.Steps)
	assert.Equal(t, []transport.Destination{
		{Addr: "10.0.0.5:7000", Address: "/drums"},
		{Addr: "127.0.0.1:1234", Address: "/battito"},
	}, sender.sent)
}

func TestRunner_StopsAtFirstFailure(t *testing.T) {
	runner, _, sender := newRunner(t)

	results, err := runner.RunScript(context.Background(),
		`play(target=a, pattern="1"); play(target=b, pattern="b(9,8)"); play(target=c, pattern="3")`)
	assert.ErrorIs(t, err, pattern.ErrEuclideanConstraint)
	assert.Contains(t, err.Error(), "statement 2")
	assert.Len(t, results, 1)
	assert.Len(t, sender.sent, 1)
}

func TestRunner_UnknownAction(t *testing.T) {
	runner, _, _ := newRunner(t)

	_, err := runner.Run(context.Background(), []Action{{Kind: "dance"}})
	assert.ErrorIs(t, err, ErrInvalidScript)
}
