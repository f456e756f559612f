package pattern

import (
	"fmt"
	"math"
	"strconv"
)

// Harmonic returns events for the first steps multiples of fundamental.
func Harmonic(fundamental, steps uint32) ([]Node, error) {
	out := make([]Node, 0, steps)
	for grade := uint64(1); grade <= uint64(steps); grade++ {
		v := uint64(fundamental) * grade
		if v > math.MaxUint32 {
			return nil, fmt.Errorf("%w: harmonic %d of %d overflows", ErrNumericParse, grade, fundamental)
		}
		out = append(out, EventNode{Event: Event{
			Value:       strconv.FormatUint(v, 10),
			Probability: defaultProbability,
		}})
	}
	return out, nil
}

// Binary returns the length low bits of number, most significant first.
// Set bits trigger event "0", clear bits rest.
func Binary(number, length uint32) []Node {
	out := make([]Node, 0, length)
	for i := int(length) - 1; i >= 0; i-- {
		if i < 32 && number&(1<<uint(i)) != 0 {
			out = append(out, EventNode{Event: Event{Value: restValue, Probability: defaultProbability}})
		} else {
			out = append(out, EventNode{Event: Rest()})
		}
	}
	return out
}

// Repeat nests count copies of n inside one new group.
func Repeat(n Node, count uint32) Node {
	children := make([]Node, count)
	for i := range children {
		children[i] = n
	}
	return GroupNode{Children: children}
}

// Replicate returns count copies of n to be spliced as siblings.
func Replicate(n Node, count uint32) []Node {
	out := make([]Node, count)
	for i := range out {
		out[i] = n
	}
	return out
}
