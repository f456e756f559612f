package pattern

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// renderMeasure prints a measure back in source notation: nested groups in
// brackets, rests as "~".
func renderMeasure(m Measure) string {
	switch v := m.(type) {
	case EventMeasure:
		if v.Event.IsRest() {
			return "~"
		}
		return v.Event.Value
	case GroupMeasure:
		parts := make([]string, len(v.Children))
		for i, c := range v.Children {
			if g, ok := c.(GroupMeasure); ok {
				parts[i] = "[" + renderMeasure(g) + "]"
				continue
			}
			parts[i] = renderMeasure(c)
		}
		return strings.Join(parts, " ")
	}
	return ""
}

func renderMeasures(ms []Measure) string {
	parts := make([]string, len(ms))
	for i, m := range ms {
		parts[i] = renderMeasure(m)
	}
	return strings.Join(parts, " | ")
}

func expand(t *testing.T, input string) string {
	t.Helper()
	seq, err := Parse(input)
	require.NoError(t, err)
	ms, err := Expand(seq, 0)
	require.NoError(t, err)
	return renderMeasures(ms)
}

func TestExpand_Alternates(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "no alternates", input: "1 2 3", expected: "1 2 3"},
		{name: "lcm of arities", input: "<1,2,3> <4,5>", expected: "1 4 | 2 5 | 3 4 | 1 5 | 2 4 | 3 5"},
		{name: "per section", input: "1 <2,4> 3 | 5 6", expected: "1 2 3 | 1 4 3 | 5 6"},
		{name: "nested inside group", input: "1 [2 <3,4>]", expected: "1 [2 3] | 1 [2 4]"},
		{name: "group choice", input: "<a,[b c]> d", expected: "a d | [b c] d"},
		{name: "repeated alternate advances together", input: "<b,h>*2 s", expected: "[b b] s | [h h] s"},
		{name: "replicated alternate", input: "<1,2>!2", expected: "1 1 | 2 2"},
		{name: "rest choice", input: "<1,~>", expected: "1 | ~"},
		{name: "repeat once", input: "a b*1", expected: "a [b]"},
		{name: "replicate once", input: "a b!1 c", expected: "a b c"},
		{name: "replicate many", input: "a!3 b", expected: "a a a b"},
		{name: "harmonic", input: "harmonic(2,3)", expected: "2 4 6"},
		{name: "binary", input: "binary(5,4)", expected: "~ 0 ~ 0"},
		{name: "euclidean", input: "b(3,8)", expected: "[b ~ ~ b ~ ~ b ~]"},
		{name: "euclidean alternating steps", input: "b(3,<4,8>)", expected: "[b ~ b b] | [b ~ ~ b ~ ~ b ~]"},
		{name: "empty group", input: "a [] b", expected: "a [] b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expand(t, tt.input))
		})
	}
}

func TestExpand_Polymetric(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "drifting window",
			input:    "{1 2 3 4}%5",
			expected: "1 2 3 4 1 | 2 3 4 1 2 | 3 4 1 2 3 | 4 1 2 3 4",
		},
		{
			name:     "longer cycle drifts",
			input:    "{1 2 3 4 5 6}%5",
			expected: "1 2 3 4 5 | 6 1 2 3 4 | 5 6 1 2 3 | 4 5 6 1 2 | 3 4 5 6 1 | 2 3 4 5 6",
		},
		{name: "cycle divides length", input: "{1 2}%4", expected: "1 2 1 2"},
		{name: "length divides cycle", input: "{1 2 3 4 5 6 7 8}%4", expected: "1 2 3 4 | 5 6 7 8"},
		{name: "same length", input: "{1 2 3}%3", expected: "1 2 3"},
		{
			name:     "alternates are unrolled before windowing",
			input:    "{1 2 <3,4> <5,6,7>}%4",
			expected: "1 2 3 5 | 1 2 4 6 | 1 2 3 7 | 1 2 4 5 | 1 2 3 6 | 1 2 4 7",
		},
		{name: "group element stays one symbol", input: "{[1 2] 3}%2", expected: "[1 2] 3"},
		{name: "group choice stays one symbol", input: "{<1,[2 3]>}%1", expected: "1 | [2 3]"},
		{name: "empty", input: "{}%3", expected: ""},
		{name: "mixed with plain sections", input: "a | {1 2}%3", expected: "a | 1 2 1 | 2 1 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expand(t, tt.input))
		})
	}
}

func TestExpand_EmptyPolymetricIsOneMeasure(t *testing.T) {
	ms, err := Polymetric{Length: 3}.ToMeasures()
	require.NoError(t, err)
	assert.Equal(t, []Measure{GroupMeasure{}}, ms)
}

func TestExpand_ZeroLengthPolymetric(t *testing.T) {
	_, err := Polymetric{Elements: []Node{ev("1")}}.ToMeasures()
	assert.ErrorIs(t, err, ErrNumericParse)
}

func TestExpand_AlternateWithoutChoices(t *testing.T) {
	_, err := GroupNode{Children: []Node{AlternateNode{}}}.ToMeasures()
	assert.ErrorIs(t, err, ErrInternalInvariant)
}

func TestExpand_Budget(t *testing.T) {
	tests := []struct {
		name  string
		input string
		limit int
		err   bool
	}{
		{name: "alternates within budget", input: "<1,2,3> <4,5>", limit: 6},
		{name: "alternates over budget", input: "<1,2,3> <4,5>", limit: 5, err: true},
		{name: "sections over budget", input: "1 | 2 | 3", limit: 2, err: true},
		{name: "polymetric over budget", input: "{1 2 3}%2", limit: 2, err: true},
		{name: "no budget", input: "{1 2 3}%2", limit: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, err := Parse(tt.input)
			require.NoError(t, err)
			ms, err := Expand(seq, tt.limit)
			if tt.err {
				assert.ErrorIs(t, err, ErrMeasureBudget)
				assert.Nil(t, ms)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, ms)
		})
	}
}

func TestResolve_DoesNotShareAlternates(t *testing.T) {
	shared := AlternateNode{Choices: []Primitive{pev("a"), pev("b")}}
	g := GroupNode{Children: []Node{shared, shared}}

	b := newBudget(Options{})
	first, err := b.resolve(g, 0)
	require.NoError(t, err)
	second, err := b.resolve(g, 1)
	require.NoError(t, err)
	assert.Equal(t, group(ev("a"), ev("a")), first)
	assert.Equal(t, group(ev("b"), ev("b")), second)
	assert.Equal(t, shared, g.Children[0])
}

func TestLcmAll(t *testing.T) {
	assert.Equal(t, uint64(1), lcmAll(nil, 0))
	assert.Equal(t, uint64(12), lcmAll([]uint64{3, 4, 6}, 0))
	assert.Equal(t, uint64(11), lcmAll([]uint64{3, 4, 6}, 10))
	assert.Equal(t, uint64(0), lcm(0, 5))
}
