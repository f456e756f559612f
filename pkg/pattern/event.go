package pattern

const (
	// DefaultSubdivision is the number of ticks per measure when none is given.
	DefaultSubdivision uint32 = 1920

	defaultProbability uint8 = 100
	maxProbability           = 100
	restValue                = "0"
	restToken                = "~"
)

// Event is a resolved leaf of a pattern.
type Event struct {
	Value       string `json:"value"`
	Probability uint8  `json:"probability"`
}

// Rest returns the canonical silent event.
func Rest() Event {
	return Event{Value: restValue, Probability: 0}
}

// IsRest reports whether the event never triggers.
func (e Event) IsRest() bool {
	return e.Probability == 0
}

func newEvent(value string, probability uint8) Event {
	if value == restToken {
		return Rest()
	}
	return Event{Value: value, Probability: probability}
}

// TimedEvent is an event placed at a 1-based tick.
type TimedEvent struct {
	Index uint32 `json:"index"`
	Event Event  `json:"event"`
}
