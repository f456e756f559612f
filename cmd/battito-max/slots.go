package main

import "github.com/Conceptual-Machines/battito/pkg/pattern"

const (
	maxMeasures = 4096
	// Upper bound on the slot buffer handed to the host.
	maxSlots = 1 << 24
)

// denseSlots compiles text into one slot per tick and returns them with the
// measure count. Anything that fails to compile, or would not fit the
// buffer, yields the empty pattern. A subdivision too large for even one
// empty measure yields no slots and length 0.
func denseSlots(text string, subdivision uint32) ([]pattern.Slot, uint32) {
	if uint64(subdivision) > maxSlots {
		return nil, 0
	}

	p, err := pattern.CompileWith(text, pattern.Options{
		Subdivision: subdivision,
		MaxMeasures: maxMeasures,
	})
	if err == nil {
		if slots, err := p.SlotsWithin(maxSlots); err == nil {
			return slots, p.Length
		}
	}
	empty := pattern.Empty(subdivision)
	return empty.Slots(), empty.Length
}
