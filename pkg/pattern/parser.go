package pattern

import (
	"math"
	"strconv"
	"strings"
)

const (
	measureSeparator = " | "
	lengthSeparator  = " / "

	maxUint32 = 1<<32 - 1
)

// Parse turns source text into its parsed form. Generators, repetitions,
// replications and Euclidean constructs are already expanded in the result;
// alternates and polymeters are not.
//
// The whole text must match. Trailing whitespace is ignored.
func Parse(text string) (*ParsedSequence, error) {
	return ParseWith(text, Options{})
}

// ParseWith is Parse under the node and measure budget of opts. Counts
// written in the text are checked against it before anything is allocated.
func ParseWith(text string, opts Options) (*ParsedSequence, error) {
	return parse(text, newBudget(opts))
}

func parse(text string, b *budget) (*ParsedSequence, error) {
	p := &parser{
		src:        strings.TrimRight(text, " \t\r\n"),
		budget:     b,
		groups:     map[int]memo{},
		primitives: map[int]memo{},
		euclideans: map[int]memo{},
	}
	seq, err := p.sequence()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.src) {
		return nil, ErrGrammar
	}
	return seq, nil
}

// Each rule returns ok=false with the position restored when it does not
// match, and a non-nil error only for failures that must stop parsing.
type parser struct {
	src    string
	pos    int
	budget *budget

	// bracketed groups are tried by several alternatives from the same
	// offset, so their results are kept per start offset
	groups     map[int]memo
	primitives map[int]memo
	euclideans map[int]memo
}

type memo struct {
	value any
	end   int
	ok    bool
	err   error
}

func (p *parser) lit(s string) bool {
	if strings.HasPrefix(p.src[p.pos:], s) {
		p.pos += len(s)
		return true
	}
	return false
}

func (p *parser) span(accept func(byte) bool) string {
	start := p.pos
	for p.pos < len(p.src) && accept(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlphanumeric(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// number reads one or more digits as a uint32 no greater than limit.
func (p *parser) number(limit uint64) (uint32, bool, error) {
	digits := p.span(isDigit)
	if digits == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseUint(digits, 10, 32)
	if err != nil || v > limit {
		return 0, false, numericError(digits)
	}
	return uint32(v), true, nil
}

func (p *parser) sequence() (*ParsedSequence, error) {
	seq := &ParsedSequence{}

	first, err := p.measure()
	if err != nil {
		return nil, err
	}
	seq.Sections = append(seq.Sections, first)

	for p.lit(measureSeparator) {
		next, err := p.measure()
		if err != nil {
			return nil, err
		}
		seq.Sections = append(seq.Sections, next)
	}

	mark := p.pos
	if p.lit(lengthSeparator) {
		n, ok, err := p.number(maxUint32)
		if err != nil {
			return nil, err
		}
		if !ok {
			p.pos = mark
			return seq, nil
		}
		seq.Length = n
	}
	return seq, nil
}

func (p *parser) measure() (Section, error) {
	poly, ok, err := p.polymetric()
	if err != nil {
		return nil, err
	}
	if ok {
		return poly, nil
	}
	items, err := p.items()
	if err != nil {
		return nil, err
	}
	return GroupNode{Children: items}, nil
}

func (p *parser) polymetric() (Polymetric, bool, error) {
	mark := p.pos
	if !p.lit("{") {
		return Polymetric{}, false, nil
	}
	items, err := p.items()
	if err != nil {
		return Polymetric{}, false, err
	}
	if !p.lit("}") || !p.lit("%") {
		p.pos = mark
		return Polymetric{}, false, nil
	}
	digitsAt := p.pos
	length, ok, err := p.number(maxUint32)
	if err != nil {
		return Polymetric{}, false, err
	}
	if !ok {
		p.pos = mark
		return Polymetric{}, false, nil
	}
	if length == 0 {
		return Polymetric{}, false, numericError(p.src[digitsAt:p.pos])
	}
	return Polymetric{Elements: items, Length: length}, true, nil
}

// items reads space separated items, possibly none.
func (p *parser) items() ([]Node, error) {
	out := []Node{}
	first, ok, err := p.item()
	if err != nil {
		return nil, err
	}
	if !ok {
		return out, nil
	}
	out = append(out, first...)

	for {
		mark := p.pos
		if !p.lit(" ") {
			return out, nil
		}
		next, ok, err := p.item()
		if err != nil {
			return nil, err
		}
		if !ok {
			p.pos = mark
			return out, nil
		}
		out = append(out, next...)
	}
}

// item tries the alternatives in order. Generators and the suffixed forms come
// before a plain single because they share its prefix.
func (p *parser) item() ([]Node, bool, error) {
	rules := []func() ([]Node, bool, error){
		p.harmonic,
		p.binary,
		p.repeated,
		p.replicated,
		func() ([]Node, bool, error) { return one(p.euclidean()) },
		func() ([]Node, bool, error) { return one(p.bracketGroup()) },
		func() ([]Node, bool, error) { return one(p.single()) },
	}
	for _, rule := range rules {
		nodes, ok, err := rule()
		if err != nil || ok {
			return nodes, ok, err
		}
	}
	return nil, false, nil
}

func one(n Node, ok bool, err error) ([]Node, bool, error) {
	if !ok || err != nil {
		return nil, ok, err
	}
	return []Node{n}, true, nil
}

// generatorArgs reads "name(a,b)".
func (p *parser) generatorArgs(name string) (uint32, uint32, bool, error) {
	mark := p.pos
	if !p.lit(name + "(") {
		return 0, 0, false, nil
	}
	a, ok, err := p.number(maxUint32)
	if err != nil || !ok {
		p.pos = mark
		return 0, 0, false, err
	}
	if !p.lit(",") {
		p.pos = mark
		return 0, 0, false, nil
	}
	b, ok, err := p.number(maxUint32)
	if err != nil || !ok {
		p.pos = mark
		return 0, 0, false, err
	}
	if !p.lit(")") {
		p.pos = mark
		return 0, 0, false, nil
	}
	return a, b, true, nil
}

func (p *parser) harmonic() ([]Node, bool, error) {
	fundamental, steps, ok, err := p.generatorArgs("harmonic")
	if !ok || err != nil {
		return nil, false, err
	}
	if err := p.budget.spend(uint64(steps)); err != nil {
		return nil, false, err
	}
	nodes, err := Harmonic(fundamental, steps)
	if err != nil {
		return nil, false, err
	}
	return nodes, true, nil
}

func (p *parser) binary() ([]Node, bool, error) {
	number, length, ok, err := p.generatorArgs("binary")
	if !ok || err != nil {
		return nil, false, err
	}
	if err := p.budget.spend(uint64(length)); err != nil {
		return nil, false, err
	}
	return Binary(number, length), true, nil
}

func (p *parser) repeated() ([]Node, bool, error) {
	inner, count, ok, err := p.suffixed("*")
	if !ok || err != nil {
		return nil, false, err
	}
	if err := p.copies(inner, count, 1); err != nil {
		return nil, false, err
	}
	return []Node{Repeat(inner, count)}, true, nil
}

func (p *parser) replicated() ([]Node, bool, error) {
	inner, count, ok, err := p.suffixed("!")
	if !ok || err != nil {
		return nil, false, err
	}
	if err := p.copies(inner, count, 0); err != nil {
		return nil, false, err
	}
	return Replicate(inner, count), true, nil
}

// copies checks count references to inner, plus extra wrapping nodes, against
// the budget. The references are spent now and the copies they expand into
// must fit later.
func (p *parser) copies(inner Node, count uint32, extra uint64) error {
	if err := p.budget.spend(uint64(count) + extra); err != nil {
		return err
	}
	total := mulCap(weight(inner, p.budget.nodes), uint64(count))
	if total <= math.MaxUint64-extra {
		total += extra
	}
	return p.budget.fits(total)
}

// suffixed reads a repeatable item followed by op and a count.
func (p *parser) suffixed(op string) (Node, uint32, bool, error) {
	mark := p.pos
	inner, ok, err := p.repeatable()
	if err != nil || !ok {
		return nil, 0, false, err
	}
	if !p.lit(op) {
		p.pos = mark
		return nil, 0, false, nil
	}
	count, ok, err := p.number(maxUint32)
	if err != nil {
		return nil, 0, false, err
	}
	if !ok {
		p.pos = mark
		return nil, 0, false, nil
	}
	return inner, count, true, nil
}

func (p *parser) repeatable() (Node, bool, error) {
	rules := []func() (Node, bool, error){
		p.bracketGroup,
		p.euclidean,
		p.event,
		p.alternate,
	}
	for _, rule := range rules {
		n, ok, err := rule()
		if err != nil || ok {
			return n, ok, err
		}
	}
	return nil, false, nil
}

func (p *parser) bracketGroup() (Node, bool, error) {
	start := p.pos
	if m, seen := p.groups[start]; seen {
		if m.ok {
			p.pos = m.end
			return m.value.(Node), true, nil
		}
		return nil, false, m.err
	}

	n, ok, err := p.parseBracketGroup()
	p.groups[start] = memo{value: n, end: p.pos, ok: ok, err: err}
	return n, ok, err
}

func (p *parser) parseBracketGroup() (Node, bool, error) {
	mark := p.pos
	if !p.lit("[") {
		return nil, false, nil
	}
	items, err := p.items()
	if err != nil {
		return nil, false, err
	}
	if !p.lit("]") {
		p.pos = mark
		return nil, false, nil
	}
	return GroupNode{Children: items}, true, nil
}

func (p *parser) single() (Node, bool, error) {
	n, ok, err := p.event()
	if err != nil || ok {
		return n, ok, err
	}
	return p.alternate()
}

func (p *parser) event() (Node, bool, error) {
	e, ok, err := p.rawEvent()
	if !ok || err != nil {
		return nil, false, err
	}
	return EventNode{Event: e}, true, nil
}

func (p *parser) rawEvent() (Event, bool, error) {
	value := p.span(isAlphanumeric)
	if value == "" {
		if !p.lit(restToken) {
			return Event{}, false, nil
		}
		value = restToken
	}

	probability := defaultProbability
	mark := p.pos
	if p.lit("?") {
		digitsAt := p.pos
		n, ok, err := p.number(maxUint32)
		if err != nil {
			return Event{}, false, err
		}
		switch {
		case !ok:
			p.pos = mark
		case n > maxProbability:
			return Event{}, false, numericError(p.src[digitsAt:p.pos])
		default:
			probability = uint8(n)
		}
	}
	return newEvent(value, probability), true, nil
}

func (p *parser) alternate() (Node, bool, error) {
	mark := p.pos
	if !p.lit("<") {
		return nil, false, nil
	}
	var choices []Primitive
	for {
		prim, ok, err := p.primitive()
		if err != nil {
			return nil, false, err
		}
		if !ok {
			p.pos = mark
			return nil, false, nil
		}
		choices = append(choices, prim)
		if !p.lit(",") {
			break
		}
	}
	if !p.lit(">") {
		p.pos = mark
		return nil, false, nil
	}
	return AlternateNode{Choices: choices}, true, nil
}

func (p *parser) primitive() (Primitive, bool, error) {
	start := p.pos
	if m, seen := p.primitives[start]; seen && m.ok {
		p.pos = m.end
		return m.value.(Primitive), true, nil
	} else if seen {
		return nil, false, m.err
	}

	prim, ok, err := p.parsePrimitive()
	p.primitives[start] = memo{value: prim, end: p.pos, ok: ok, err: err}
	return prim, ok, err
}

func (p *parser) parsePrimitive() (Primitive, bool, error) {
	mark := p.pos
	if p.lit("[") {
		children := []Primitive{}
		first, ok, err := p.primitive()
		if err != nil {
			return nil, false, err
		}
		if ok {
			children = append(children, first)
			for {
				sep := p.pos
				if !p.lit(" ") {
					break
				}
				next, ok, err := p.primitive()
				if err != nil {
					return nil, false, err
				}
				if !ok {
					p.pos = sep
					break
				}
				children = append(children, next)
			}
		}
		if !p.lit("]") {
			p.pos = mark
			return nil, false, nil
		}
		return PrimitiveGroup{Children: children}, true, nil
	}

	e, ok, err := p.rawEvent()
	if !ok || err != nil {
		return nil, false, err
	}
	return PrimitiveEvent{Event: e}, true, nil
}

func (p *parser) euclidean() (Node, bool, error) {
	start := p.pos
	if m, seen := p.euclideans[start]; seen {
		if m.ok {
			p.pos = m.end
			return m.value.(Node), true, nil
		}
		p.pos = start
		return nil, false, m.err
	}

	n, ok, err := p.parseEuclidean()
	p.euclideans[start] = memo{value: n, end: p.pos, ok: ok, err: err}
	return n, ok, err
}

func (p *parser) parseEuclidean() (Node, bool, error) {
	mark := p.pos
	value, ok, err := p.primitive()
	if err != nil || !ok {
		return nil, false, err
	}
	if !p.lit("(") {
		p.pos = mark
		return nil, false, nil
	}

	var args []EuclideanArg
	for {
		arg, ok, err := p.euclideanArg()
		if err != nil {
			return nil, false, err
		}
		if !ok {
			p.pos = mark
			return nil, false, nil
		}
		args = append(args, arg)
		if !p.lit(",") {
			break
		}
	}
	if !p.lit(")") || len(args) < 2 || len(args) > 3 {
		p.pos = mark
		return nil, false, nil
	}

	var rotation *EuclideanArg
	if len(args) == 3 {
		rotation = &args[2]
	}
	e, err := NewEuclidean(value, args[0], args[1], rotation)
	if err != nil {
		return nil, false, err
	}
	alt, err := e.alternate(p.budget)
	if err != nil {
		return nil, false, err
	}
	return alt, true, nil
}

func (p *parser) euclideanArg() (EuclideanArg, bool, error) {
	mark := p.pos
	if !p.lit("<") {
		n, ok, err := p.number(maxUint32)
		if err != nil || !ok {
			return EuclideanArg{}, false, err
		}
		return SingleArg(n), true, nil
	}

	var values []uint32
	for {
		n, ok, err := p.number(maxUint32)
		if err != nil {
			return EuclideanArg{}, false, err
		}
		if !ok {
			p.pos = mark
			return EuclideanArg{}, false, nil
		}
		values = append(values, n)
		if !p.lit(",") {
			break
		}
	}
	if !p.lit(">") {
		p.pos = mark
		return EuclideanArg{}, false, nil
	}
	return AlternateArg(values...), true, nil
}
