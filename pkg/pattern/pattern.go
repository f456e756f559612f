// Package pattern compiles the battito rhythm notation into timed events.
//
// A pattern such as
//
//	b(3,8) [h h?50] <s,~> | {1 2 3}%4
//
// is parsed, its alternates, polymeters and Euclidean rhythms are unrolled
// into concrete measures, and every event is placed on a grid of Subdivision
// ticks per measure.
package pattern

import (
	"fmt"
	"math"
)

// Pattern is a compiled, time-ordered list of events.
type Pattern struct {
	Steps       []TimedEvent `json:"steps"`
	Length      uint32       `json:"length"`
	Subdivision uint32       `json:"subdivision"`
}

// Options tune a compile.
type Options struct {
	// Subdivision is the number of ticks per measure; 0 means DefaultSubdivision.
	Subdivision uint32
	// MaxMeasures bounds the measures a compile may expand into; 0 means no bound.
	MaxMeasures int
	// MaxNodes bounds the tree nodes parsing and expansion may build;
	// 0 means DefaultMaxNodes.
	MaxNodes int
}

// Compile parses and expands text and places its events on a grid of
// subdivision ticks per measure. A zero subdivision selects the default.
func Compile(text string, subdivision uint32) (*Pattern, error) {
	return CompileWith(text, Options{Subdivision: subdivision})
}

// CompileWith is Compile with a measure and node budget.
func CompileWith(text string, opts Options) (*Pattern, error) {
	b := newBudget(opts)
	seq, err := parse(text, b)
	if err != nil {
		return nil, err
	}
	measures, err := seq.expand(b)
	if err != nil {
		return nil, err
	}
	return Assemble(measures, seq.Length, opts.Subdivision)
}

// Expand unrolls every section of seq, in order.
func Expand(seq *ParsedSequence, limit int) ([]Measure, error) {
	return seq.expand(newBudget(Options{MaxMeasures: limit}))
}

func (seq *ParsedSequence) expand(b *budget) ([]Measure, error) {
	var measures []Measure
	for _, s := range seq.Sections {
		ms, err := s.expand(b)
		if err != nil {
			return nil, err
		}
		measures = append(measures, ms...)
		if uint64(len(measures)) > b.measures {
			return nil, fmt.Errorf("%w: %d measures, limit is %d", ErrMeasureBudget, len(measures), b.measures)
		}
	}
	return measures, nil
}

// Assemble concatenates measures into one timeline. An explicit length larger
// than the measure count stretches every measure to fit it.
func Assemble(measures []Measure, explicitLength, subdivision uint32) (*Pattern, error) {
	if subdivision == 0 {
		subdivision = DefaultSubdivision
	}

	count := uint32(len(measures))
	length := count
	if explicitLength > count {
		length = explicitLength
	}
	if uint64(length)*uint64(subdivision) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d measures of %d ticks overflow the tick range", ErrNumericParse, length, subdivision)
	}

	mul := Multiplier{Length: length, Measures: count}
	steps := []TimedEvent{}
	for i, m := range measures {
		start := 1 + uint32(i)*subdivision
		steps = append(steps, TimedEvents(m, start, mul, subdivision)...)
	}

	return &Pattern{
		Steps:       steps,
		Length:      length,
		Subdivision: subdivision,
	}, nil
}

// Empty is the pattern returned to hosts when compilation fails.
func Empty(subdivision uint32) *Pattern {
	if subdivision == 0 {
		subdivision = DefaultSubdivision
	}
	return &Pattern{Steps: []TimedEvent{}, Length: 1, Subdivision: subdivision}
}
