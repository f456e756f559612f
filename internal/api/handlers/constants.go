package handlers

const (
	// Output formats of POST /api/v1/compile beyond pkg/pattern's own
	formatTree  = "tree"
	formatSlots = "slots"

	midiContentType = "audio/midi"

	// Upper bound on the dense slot buffer of format=slots
	maxSlots = 1 << 20
)
