package pattern

import "fmt"

// EuclideanArg is one of the pulses, steps or rotation arguments: a single
// value, or several values alternated across expansions.
type EuclideanArg struct {
	Values []uint32
}

func SingleArg(v uint32) EuclideanArg {
	return EuclideanArg{Values: []uint32{v}}
}

func AlternateArg(vs ...uint32) EuclideanArg {
	return EuclideanArg{Values: vs}
}

func (a EuclideanArg) arity() uint64 {
	return uint64(len(a.Values))
}

func (a EuclideanArg) next(i int) uint32 {
	return a.Values[i%len(a.Values)]
}

func (a EuclideanArg) max() (uint32, error) {
	if len(a.Values) == 0 {
		return 0, fmt.Errorf("%w: euclidean argument has no value", ErrInternalInvariant)
	}
	m := a.Values[0]
	for _, v := range a.Values[1:] {
		if v > m {
			m = v
		}
	}
	return m, nil
}

// Euclidean distributes n onsets of value over m steps, rotated by r.
type Euclidean struct {
	value Primitive
	n     EuclideanArg
	m     EuclideanArg
	r     EuclideanArg
}

// NewEuclidean validates max(n) <= max(m) and max(r) < max(m). A nil r means
// no rotation.
func NewEuclidean(value Primitive, n, m EuclideanArg, r *EuclideanArg) (*Euclidean, error) {
	rot := SingleArg(0)
	if r != nil {
		rot = *r
	}

	maxN, err := n.max()
	if err != nil {
		return nil, err
	}
	maxM, err := m.max()
	if err != nil {
		return nil, err
	}
	maxR, err := rot.max()
	if err != nil {
		return nil, err
	}

	if maxN > maxM {
		return nil, &EuclideanError{Kind: NGreaterThanM, N: maxN, M: maxM, R: maxR}
	}
	if maxR >= maxM {
		return nil, &EuclideanError{Kind: RGreaterEqualThanM, N: maxN, M: maxM, R: maxR}
	}
	return &Euclidean{value: value, n: n, m: m, r: rot}, nil
}

// ToAlternate resolves every (n, m, r) triple over the lcm of the argument
// arities and returns the rhythms as one alternate slot.
func (e *Euclidean) ToAlternate() (AlternateNode, error) {
	return e.alternate(newBudget(Options{}))
}

// alternate checks the choice count and the steps they hold against b
// before building any rhythm.
func (e *Euclidean) alternate(b *budget) (AlternateNode, error) {
	count := lcmAll([]uint64{e.n.arity(), e.m.arity(), e.r.arity()}, b.measures)
	if err := b.choices(count); err != nil {
		return AlternateNode{}, err
	}
	maxM, err := e.m.max()
	if err != nil {
		return AlternateNode{}, err
	}
	if err := b.spend(mulCap(count, uint64(maxM)+1)); err != nil {
		return AlternateNode{}, err
	}

	choices := make([]Primitive, 0, count)
	for i := 0; i < int(count); i++ {
		n, m, r := e.n.next(i), e.m.next(i), e.r.next(i)
		onsets, err := Rhythm(n, m, r)
		if err != nil {
			return AlternateNode{}, err
		}
		slots := make([]Primitive, len(onsets))
		for j, on := range onsets {
			if on {
				slots[j] = e.value
			} else {
				slots[j] = PrimitiveEvent{Event: Rest()}
			}
		}
		choices = append(choices, PrimitiveGroup{Children: slots})
	}
	return AlternateNode{Choices: choices}, nil
}

// Rhythm returns the onset layout of n pulses over m steps rotated right by r.
func Rhythm(n, m, r uint32) ([]bool, error) {
	if n > m {
		return nil, &EuclideanError{Kind: NGreaterThanM, N: n, M: m, R: r}
	}
	if r >= m {
		return nil, &EuclideanError{Kind: RGreaterEqualThanM, N: n, M: m, R: r}
	}
	if n == 0 {
		return make([]bool, m), nil
	}

	counts := make([]uint32, 0, 8)
	remainders := []uint32{n}
	divisor := m - n
	level := 0
	for {
		counts = append(counts, divisor/remainders[level])
		remainders = append(remainders, divisor%remainders[level])
		divisor = remainders[level]
		level++
		if remainders[level] <= 1 {
			break
		}
	}
	counts = append(counts, divisor)

	out := make([]bool, 0, m)
	var build func(level int)
	build = func(level int) {
		switch level {
		case -1:
			out = append(out, false)
		case -2:
			out = append(out, true)
		default:
			for k := uint32(0); k < counts[level]; k++ {
				build(level - 1)
			}
			if remainders[level] != 0 {
				build(level - 2)
			}
		}
	}
	build(level)

	first := 0
	for first < len(out) && !out[first] {
		first++
	}
	out = rotateLeft(out, first)
	if m-n == 1 {
		out = rotateRight(out, 2)
	}
	return rotateRight(out, int(r)), nil
}

func rotateLeft(s []bool, k int) []bool {
	if len(s) == 0 {
		return s
	}
	k %= len(s)
	out := make([]bool, 0, len(s))
	out = append(out, s[k:]...)
	return append(out, s[:k]...)
}

func rotateRight(s []bool, k int) []bool {
	if len(s) == 0 {
		return s
	}
	return rotateLeft(s, len(s)-k%len(s))
}
