package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		subdivision uint32
		expected    string
		length      uint32
	}{
		{
			name:     "even subdivision",
			input:    "1 2 3",
			expected: "1 1 100, 641 2 100, 1281 3 100",
			length:   1,
		},
		{
			name:     "two measures",
			input:    "1 2 3 | 4 5 6 7",
			expected: "1 1 100, 641 2 100, 1281 3 100, 1921 4 100, 2401 5 100, 2881 6 100, 3361 7 100",
			length:   2,
		},
		{
			name:     "probability",
			input:    "1 2?25 3 4",
			expected: "1 1 100, 481 2 25, 961 3 100, 1441 4 100",
			length:   1,
		},
		{
			name:     "zero probability is silent",
			input:    "1 2?0 3 4",
			expected: "1 1 100, 961 3 100, 1441 4 100",
			length:   1,
		},
		{
			name:     "nested group",
			input:    "1 [3?22 4] 3 | 5 6",
			expected: "1 1 100, 641 3 22, 961 4 100, 1281 3 100, 1921 5 100, 2881 6 100",
			length:   2,
		},
		{
			name:     "explicit length stretches",
			input:    "1 2 / 2",
			expected: "1 1 100, 1921 2 100",
			length:   2,
		},
		{
			name:     "explicit length below measure count is ignored",
			input:    "1 | 2 / 1",
			expected: "1 1 100, 1921 2 100",
			length:   2,
		},
		{
			name:     "rests are skipped",
			input:    "a ~ b ~",
			expected: "1 a 100, 961 b 100",
			length:   1,
		},
		{
			name:     "empty group keeps its slot",
			input:    "a [] b",
			expected: "1 a 100, 1281 b 100",
			length:   1,
		},
		{
			name:        "euclidean on a small grid",
			input:       "b(3,8)",
			subdivision: 8,
			expected:    "1 b 100, 4 b 100, 7 b 100",
			length:      1,
		},
		{
			name:        "alternates across measures",
			input:       "<1,2> 3",
			subdivision: 4,
			expected:    "1 1 100, 3 3 100, 5 2 100, 7 3 100",
			length:      2,
		},
		{
			name:        "grid finer than subdivision",
			input:       "1 2 3 4 5",
			subdivision: 2,
			expected:    "1 1 100, 2 2 100, 3 3 100, 4 4 100, 5 5 100",
			length:      1,
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
			length:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.input, tt.subdivision)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, p.MaxFormat())
			assert.Equal(t, tt.length, p.Length)
			if tt.subdivision == 0 {
				assert.Equal(t, DefaultSubdivision, p.Subdivision)
			}
		})
	}
}

func TestCompile_EmptyHasNoSteps(t *testing.T) {
	p, err := Compile("", 0)
	require.NoError(t, err)
	assert.NotNil(t, p.Steps)
	assert.Empty(t, p.Steps)
	assert.Equal(t, Empty(0), p)
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		opts     Options
		expected error
	}{
		{name: "grammar", input: "1 2 )", expected: ErrGrammar},
		{name: "probability", input: "a?101", expected: ErrNumericParse},
		{name: "length overflows tick range", input: "1 / 4294967295", expected: ErrNumericParse},
		{name: "euclidean", input: "b(5,3)", expected: ErrEuclideanConstraint},
		{name: "budget", input: "<1,2,3> <4,5>", opts: Options{MaxMeasures: 5}, expected: ErrMeasureBudget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := CompileWith(tt.input, tt.opts)
			assert.Nil(t, p)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestEmpty(t *testing.T) {
	p := Empty(0)
	assert.Equal(t, uint32(1), p.Length)
	assert.Equal(t, DefaultSubdivision, p.Subdivision)
	assert.Empty(t, p.Steps)

	assert.Equal(t, uint32(96), Empty(96).Subdivision)
}

func TestMultiplier_Apply(t *testing.T) {
	tests := []struct {
		name     string
		mul      Multiplier
		raw      uint32
		expected uint32
	}{
		{name: "identity", mul: Identity, raw: 961, expected: 961},
		{name: "same length", mul: Multiplier{Length: 3, Measures: 3}, raw: 100, expected: 100},
		{name: "double", mul: Multiplier{Length: 2, Measures: 1}, raw: 961, expected: 1921},
		{name: "three halves", mul: Multiplier{Length: 3, Measures: 2}, raw: 961, expected: 1441},
		{name: "first tick is fixed", mul: Multiplier{Length: 7, Measures: 3}, raw: 1, expected: 1},
		{name: "zero measures", mul: Multiplier{Length: 4}, raw: 9, expected: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.mul.Apply(tt.raw))
		})
	}
}

func TestTimedEvents_BareEvent(t *testing.T) {
	a := Event{Value: "a", Probability: 100}

	steps := TimedEvents(EventMeasure{Event: a}, 1921, Multiplier{Length: 2, Measures: 1}, 1920)
	assert.Equal(t, []TimedEvent{{Index: 3841, Event: a}}, steps)

	assert.Empty(t, TimedEvents(EventMeasure{Event: Rest()}, 1, Identity, 1920))
}

func TestMinimalGrid(t *testing.T) {
	tests := []struct {
		input    string
		expected uint32
	}{
		{input: "1 2 3", expected: 3},
		{input: "1 [2 3]", expected: 4},
		{input: "[1 2] [3 4 5]", expected: 12},
		{input: "1 [2 [3 4]] 5", expected: 12},
		{input: "", expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			seq, err := Parse(tt.input)
			require.NoError(t, err)
			ms, err := Expand(seq, 0)
			require.NoError(t, err)
			require.Len(t, ms, 1)
			assert.Equal(t, tt.expected, MinimalGrid(ms[0]))
		})
	}
	assert.Equal(t, uint32(1), MinimalGrid(EventMeasure{Event: Rest()}))
}

func TestPattern_FillAndSlots(t *testing.T) {
	p, err := Compile("1 a", 4)
	require.NoError(t, err)

	assert.Equal(t, []Event{
		{Value: "1", Probability: 100},
		Rest(),
		{Value: "a", Probability: 100},
		Rest(),
	}, p.Fill())

	assert.Equal(t, []Slot{
		{Value: 1, Probability: 100},
		{Value: 0, Probability: 0},
		{Value: 0, Probability: 100},
		{Value: 0, Probability: 0},
	}, p.Slots())
}

func TestPattern_SlotsWithin(t *testing.T) {
	p, err := Compile("<1,2>", 4)
	require.NoError(t, err)

	_, err = p.SlotsWithin(7)
	assert.ErrorIs(t, err, ErrMeasureBudget)

	slots, err := p.SlotsWithin(8)
	require.NoError(t, err)
	assert.Equal(t, p.Slots(), slots)
}

func TestPattern_JSON(t *testing.T) {
	p, err := Compile("a", 4)
	require.NoError(t, err)

	b, err := p.JSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"steps": [{"index": 1, "event": {"value": "a", "probability": 100}}],
		"length": 1,
		"subdivision": 4
	}`, string(b))

	out, err := p.Format(FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, string(b), out)

	out, err = p.Format(FormatMax)
	require.NoError(t, err)
	assert.Equal(t, "1 a 100", out)
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected OutputFormat
		err      bool
	}{
		{input: "", expected: FormatMax},
		{input: "max", expected: FormatMax},
		{input: "JSON", expected: FormatJSON},
		{input: "xml", err: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			f, err := ParseOutputFormat(tt.input)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, f)
		})
	}
}
