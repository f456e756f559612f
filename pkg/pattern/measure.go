package pattern

// Measure is an expanded tree: only EventMeasure leaves and GroupMeasure
// nodes remain.
type Measure interface {
	isMeasure()
}

type EventMeasure struct {
	Event Event
}

type GroupMeasure struct {
	Children []Measure
}

func (EventMeasure) isMeasure() {}
func (GroupMeasure) isMeasure() {}

// Multiplier stretches a measure's timeline by Length/Measures so that an
// explicit pattern length can exceed the natural measure count.
type Multiplier struct {
	Length   uint32
	Measures uint32
}

// Identity leaves indexes untouched.
var Identity = Multiplier{Length: 1, Measures: 1}

// Apply maps a raw tick index to floor((raw-1)*Length/Measures)+1.
func (m Multiplier) Apply(raw uint32) uint32 {
	if m.Measures == 0 || m.Length == m.Measures {
		return raw
	}
	return uint32(uint64(raw-1)*uint64(m.Length)/uint64(m.Measures)) + 1
}

// TimedEvents places every non-rest leaf of m on the tick grid, starting at
// start. A bare event occupies the whole measure.
func TimedEvents(m Measure, start uint32, mul Multiplier, subdivision uint32) []TimedEvent {
	switch v := m.(type) {
	case EventMeasure:
		if v.Event.IsRest() {
			return nil
		}
		return []TimedEvent{{Index: mul.Apply(start), Event: v.Event}}
	case GroupMeasure:
		var out []TimedEvent
		placeGroup(v.Children, 1, start, mul, subdivision, &out)
		return out
	}
	return nil
}

// placeGroup returns the index following the group's last slot.
func placeGroup(children []Measure, acc uint64, index uint32, mul Multiplier, subdivision uint32, out *[]TimedEvent) uint32 {
	if len(children) == 0 {
		return index
	}
	branching := acc * uint64(len(children))
	span := uint32(uint64(subdivision) / branching)
	if span == 0 {
		span = 1
	}

	for _, child := range children {
		switch c := child.(type) {
		case EventMeasure:
			if !c.Event.IsRest() {
				*out = append(*out, TimedEvent{Index: mul.Apply(index), Event: c.Event})
			}
			index += span
		case GroupMeasure:
			if len(c.Children) == 0 {
				// an empty group is a silent slot
				index += span
				continue
			}
			index = placeGroup(c.Children, branching, index, mul, subdivision, out)
		}
	}
	return index
}

// MinimalGrid returns the smallest tick count per measure at which every leaf
// of m lands on an exact tick: the lcm of the branching factors along all
// root-to-leaf paths.
func MinimalGrid(m Measure) uint32 {
	g, ok := m.(GroupMeasure)
	if !ok {
		return 1
	}
	return uint32(gridOf(g.Children, 1, 1))
}

func gridOf(children []Measure, acc uint64, grid uint64) uint64 {
	if len(children) == 0 {
		return grid
	}
	branching := acc * uint64(len(children))
	for _, child := range children {
		switch c := child.(type) {
		case EventMeasure:
			grid = lcm(grid, branching)
		case GroupMeasure:
			if len(c.Children) == 0 {
				grid = lcm(grid, branching)
				continue
			}
			grid = gridOf(c.Children, branching, grid)
		}
	}
	return grid
}
