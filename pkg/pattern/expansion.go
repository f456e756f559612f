package pattern

import (
	"fmt"
	"math"
)

// hardMeasureLimit caps expansion when no budget is configured so clone
// counts stay addressable.
const hardMeasureLimit = math.MaxInt32

// ToMeasures unrolls every alternate in the group into lcm(arities) concrete
// measures, clone i taking choice i mod arity everywhere.
func (g GroupNode) ToMeasures() ([]Measure, error) {
	return g.expand(newBudget(Options{}))
}

func (g GroupNode) expand(b *budget) ([]Measure, error) {
	clones, err := cloneCount(g, b.measures)
	if err != nil {
		return nil, err
	}

	out := make([]Measure, 0, clones)
	for i := 0; i < clones; i++ {
		resolved, err := b.resolve(g, i)
		if err != nil {
			return nil, err
		}
		m, err := b.toMeasure(resolved)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// ToMeasures resolves the alternates of the elements, flattens each variant
// one level, and cuts the concatenated cycle into windows of p.Length with a
// cursor that runs across all windows.
func (p Polymetric) ToMeasures() ([]Measure, error) {
	return p.expand(newBudget(Options{}))
}

func (p Polymetric) expand(b *budget) ([]Measure, error) {
	if p.Length == 0 {
		return nil, fmt.Errorf("%w: polymetric length 0", ErrNumericParse)
	}

	group := GroupNode{Children: p.Elements}
	variants, err := cloneCount(group, b.measures)
	if err != nil {
		return nil, err
	}

	var cycle []Node
	for i := 0; i < variants; i++ {
		resolved, err := b.resolve(group, i)
		if err != nil {
			return nil, err
		}
		switch v := resolved.(type) {
		case GroupNode:
			cycle = append(cycle, v.Children...)
		default:
			cycle = append(cycle, v)
		}
	}
	if len(cycle) == 0 {
		return []Measure{GroupMeasure{}}, nil
	}

	total := len(cycle)
	length := int(p.Length)
	count := windowCount(total, length)
	if uint64(count) > b.measures {
		return nil, fmt.Errorf("%w: polymetric needs %d measures, limit is %d", ErrMeasureBudget, count, b.measures)
	}
	if err := b.spend(mulCap(uint64(count), uint64(p.Length))); err != nil {
		return nil, err
	}

	out := make([]Measure, 0, count)
	cursor := 0
	for w := 0; w < count; w++ {
		window := make([]Node, length)
		for j := range window {
			window[j] = cycle[cursor%total]
			cursor++
		}
		m, err := b.toMeasure(GroupNode{Children: window})
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// windowCount keeps one window per symbol when neither length divides the
// other, so the drift completes a full cycle.
func windowCount(total, length int) int {
	switch {
	case total%length != 0 && length%total != 0:
		return total
	case total <= length:
		return 1
	default:
		return total / length
	}
}

func cloneCount(n Node, ceiling uint64) (int, error) {
	var arities []uint64
	collectArities(n, &arities)
	for _, a := range arities {
		if a == 0 {
			return 0, fmt.Errorf("%w: alternate without choices", ErrInternalInvariant)
		}
	}

	count := lcmAll(arities, ceiling)
	if count > ceiling {
		return 0, fmt.Errorf("%w: alternates need more than %d measures", ErrMeasureBudget, ceiling)
	}
	return int(count), nil
}

func collectArities(n Node, acc *[]uint64) {
	switch v := n.(type) {
	case AlternateNode:
		*acc = append(*acc, uint64(len(v.Choices)))
	case GroupNode:
		for _, c := range v.Children {
			collectArities(c, acc)
		}
	}
}

// resolve returns a fresh tree with every alternate replaced by its choice
// for index i.
func (b *budget) resolve(n Node, i int) (Node, error) {
	if err := b.spend(1); err != nil {
		return nil, err
	}
	switch v := n.(type) {
	case AlternateNode:
		if len(v.Choices) == 0 {
			return v, nil
		}
		choice := v.next(i)
		w := &weigher{limit: b.remaining}
		if !w.primitive(choice) {
			return nil, fmt.Errorf("%w: expansion needs more than %d nodes", ErrMeasureBudget, b.nodes)
		}
		b.remaining -= w.total
		return choice.node(), nil
	case GroupNode:
		children := make([]Node, len(v.Children))
		for j, c := range v.Children {
			r, err := b.resolve(c, i)
			if err != nil {
				return nil, err
			}
			children[j] = r
		}
		return GroupNode{Children: children}, nil
	default:
		return n, nil
	}
}

func (b *budget) toMeasure(n Node) (Measure, error) {
	if err := b.spend(1); err != nil {
		return nil, err
	}
	switch v := n.(type) {
	case EventNode:
		return EventMeasure{Event: v.Event}, nil
	case GroupNode:
		children := make([]Measure, len(v.Children))
		for i, c := range v.Children {
			m, err := b.toMeasure(c)
			if err != nil {
				return nil, err
			}
			children[i] = m
		}
		return GroupMeasure{Children: children}, nil
	default:
		return nil, fmt.Errorf("%w: %T survived expansion", ErrInternalInvariant, n)
	}
}
