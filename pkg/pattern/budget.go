package pattern

import "fmt"

// DefaultMaxNodes bounds the tree nodes a compile may build when
// Options.MaxNodes is 0.
const DefaultMaxNodes = 1 << 20

// budget is shared by the parser and the expansion of one compile. Every
// construct that allocates in proportion to a number in the source checks it
// before allocating.
type budget struct {
	measures  uint64
	nodes     uint64
	remaining uint64
}

func newBudget(opts Options) *budget {
	b := &budget{measures: hardMeasureLimit, nodes: DefaultMaxNodes}
	if opts.MaxMeasures > 0 {
		b.measures = uint64(opts.MaxMeasures)
	}
	if opts.MaxNodes > 0 {
		b.nodes = uint64(opts.MaxNodes)
	}
	b.remaining = b.nodes
	return b
}

// fits checks that n more nodes can be built without spending them.
func (b *budget) fits(n uint64) error {
	if n > b.nodes {
		return fmt.Errorf("%w: needs %d nodes, limit is %d", ErrMeasureBudget, n, b.nodes)
	}
	return nil
}

// spend draws n nodes from what is left for expansion.
func (b *budget) spend(n uint64) error {
	if n > b.remaining {
		return fmt.Errorf("%w: expansion needs more than %d nodes", ErrMeasureBudget, b.nodes)
	}
	b.remaining -= n
	return nil
}

// choices checks the arity of an alternate against the measure limit, since
// each choice becomes at least one measure.
func (b *budget) choices(n uint64) error {
	if n > b.measures {
		return fmt.Errorf("%w: %d alternatives, limit is %d measures", ErrMeasureBudget, n, b.measures)
	}
	return nil
}

// weight counts the nodes of n, every choice of an alternate included. It
// stops at limit+1, so shared subtrees cost at most limit steps.
func weight(n Node, limit uint64) uint64 {
	w := &weigher{limit: limit}
	if !w.node(n) {
		return limit + 1
	}
	return w.total
}

type weigher struct {
	total uint64
	limit uint64
}

func (w *weigher) count() bool {
	w.total++
	return w.total <= w.limit
}

func (w *weigher) node(n Node) bool {
	if !w.count() {
		return false
	}
	switch v := n.(type) {
	case GroupNode:
		for _, c := range v.Children {
			if !w.node(c) {
				return false
			}
		}
	case AlternateNode:
		for _, c := range v.Choices {
			if !w.primitive(c) {
				return false
			}
		}
	}
	return true
}

func (w *weigher) primitive(p Primitive) bool {
	if !w.count() {
		return false
	}
	if g, ok := p.(PrimitiveGroup); ok {
		for _, c := range g.Children {
			if !w.primitive(c) {
				return false
			}
		}
	}
	return true
}
