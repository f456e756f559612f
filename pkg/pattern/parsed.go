package pattern

// Node is a parsed, not yet expanded, tree element: an EventNode, an
// AlternateNode or a GroupNode.
type Node interface {
	isNode()
}

// EventNode is a single event as written.
type EventNode struct {
	Event Event
}

// AlternateNode is one slot whose content cycles through Choices, one choice
// per expansion index.
type AlternateNode struct {
	Choices []Primitive
}

// GroupNode subdivides its time span evenly among Children.
type GroupNode struct {
	Children []Node
}

func (EventNode) isNode()     {}
func (AlternateNode) isNode() {}
func (GroupNode) isNode()     {}

// Primitive is an alternate-free tree: a PrimitiveEvent or a PrimitiveGroup.
type Primitive interface {
	isPrimitive()
	node() Node
}

type PrimitiveEvent struct {
	Event Event
}

type PrimitiveGroup struct {
	Children []Primitive
}

func (PrimitiveEvent) isPrimitive() {}
func (PrimitiveGroup) isPrimitive() {}

func (p PrimitiveEvent) node() Node {
	return EventNode{Event: p.Event}
}

func (p PrimitiveGroup) node() Node {
	children := make([]Node, len(p.Children))
	for i, c := range p.Children {
		children[i] = c.node()
	}
	return GroupNode{Children: children}
}

// next picks the choice for expansion index i.
func (a AlternateNode) next(i int) Primitive {
	return a.Choices[i%len(a.Choices)]
}

// Polymetric is a flat element list read as a rolling window of Length symbols.
type Polymetric struct {
	Elements []Node
	Length   uint32
}

// Section is one top-level measure of the source, either a GroupNode or a
// Polymetric. A section may expand into several measures.
type Section interface {
	ToMeasures() ([]Measure, error)
	expand(b *budget) ([]Measure, error)
}

// ParsedSequence is the parser output.
type ParsedSequence struct {
	Sections []Section
	// Length is the explicit total length written after " / ", or 0.
	Length uint32
}
