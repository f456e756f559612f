package pattern

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// OutputFormat selects how a compiled pattern is rendered.
type OutputFormat string

const (
	FormatMax  OutputFormat = "max"
	FormatJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "max" and "json"; the empty string means max.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case "", FormatMax:
		return FormatMax, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// Format renders p in the given format.
func (p *Pattern) Format(f OutputFormat) (string, error) {
	switch f {
	case FormatJSON:
		b, err := p.JSON()
		if err != nil {
			return "", err
		}
		return string(b), nil
	case FormatMax, "":
		return p.MaxFormat(), nil
	default:
		return "", fmt.Errorf("unknown output format %q", f)
	}
}

// MaxFormat renders the steps as "index value probability" tokens joined by ", ".
func (p *Pattern) MaxFormat() string {
	tokens := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		tokens[i] = fmt.Sprintf("%d %s %d", s.Index, s.Event.Value, s.Event.Probability)
	}
	return strings.Join(tokens, ", ")
}

// JSON returns the indented JSON form of p.
func (p *Pattern) JSON() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// Fill returns one event per tick, 1 through Length*Subdivision; ticks
// without a step hold a rest.
func (p *Pattern) Fill() []Event {
	out := make([]Event, int(p.Length)*int(p.Subdivision))
	for i := range out {
		out[i] = Rest()
	}
	for _, s := range p.Steps {
		if s.Index >= 1 && int(s.Index) <= len(out) {
			out[s.Index-1] = s.Event
		}
	}
	return out
}

// Slot is the fixed-size form of an event for hosts that index by tick.
type Slot struct {
	Value       uint32 `json:"value"`
	Probability uint8  `json:"probability"`
}

// Slots is Fill with values converted to numbers. Non-numeric values become 0.
func (p *Pattern) Slots() []Slot {
	filled := p.Fill()
	out := make([]Slot, len(filled))
	for i, e := range filled {
		v, err := strconv.ParseUint(e.Value, 10, 32)
		if err != nil {
			v = 0
		}
		out[i] = Slot{Value: uint32(v), Probability: e.Probability}
	}
	return out
}

// SlotsWithin is Slots for patterns of at most limit ticks. Larger patterns
// fail with ErrMeasureBudget before the slots are built.
func (p *Pattern) SlotsWithin(limit uint64) ([]Slot, error) {
	if n := uint64(p.Length) * uint64(p.Subdivision); n > limit {
		return nil, fmt.Errorf("%w: %d slots, limit is %d", ErrMeasureBudget, n, limit)
	}
	return p.Slots(), nil
}

const treeIndent = "    "

// WriteTree writes an indented view of the parsed form, one node per line.
func (s *ParsedSequence) WriteTree(w io.Writer) error {
	tw := &treeWriter{w: w}
	for _, section := range s.Sections {
		switch v := section.(type) {
		case Polymetric:
			tw.line(0, "Polymetric(%d): [", v.Length)
			for _, e := range v.Elements {
				tw.node(1, e)
			}
			tw.line(0, "],")
		case GroupNode:
			tw.node(0, v)
		}
	}
	if s.Length > 0 {
		tw.line(0, "Length: %d", s.Length)
	}
	return tw.err
}

// Tree is WriteTree into a string.
func (s *ParsedSequence) Tree() string {
	var b strings.Builder
	_ = s.WriteTree(&b)
	return b.String()
}

type treeWriter struct {
	w   io.Writer
	err error
}

func (t *treeWriter) line(level int, format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, strings.Repeat(treeIndent, level)+format+"\n", args...)
}

func (t *treeWriter) event(level int, e Event) {
	t.line(level, "Event: %s - %d,", e.Value, e.Probability)
}

func (t *treeWriter) node(level int, n Node) {
	switch v := n.(type) {
	case EventNode:
		t.event(level, v.Event)
	case AlternateNode:
		t.line(level, "Alternate: [")
		for _, c := range v.Choices {
			t.primitive(level+1, c)
		}
		t.line(level, "],")
	case GroupNode:
		t.line(level, "Group: [")
		for _, c := range v.Children {
			t.node(level+1, c)
		}
		t.line(level, "],")
	}
}

func (t *treeWriter) primitive(level int, p Primitive) {
	switch v := p.(type) {
	case PrimitiveEvent:
		t.event(level, v.Event)
	case PrimitiveGroup:
		t.line(level, "PrimitiveGroup: [")
		for _, c := range v.Children {
			t.primitive(level+1, c)
		}
		t.line(level, "],")
	}
}
