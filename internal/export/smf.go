// Package export renders compiled patterns as Standard MIDI Files.
package export

import (
	"io"
	"sort"
	"strconv"

	"github.com/Conceptual-Machines/battito/pkg/pattern"
	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	// TicksPerQuarter is the file resolution.
	TicksPerQuarter = 480
	quartersPerBar  = 4
	ticksPerBar     = TicksPerQuarter * quartersPerBar

	DefaultKey     uint8 = 60
	DefaultBPM           = 120.0
	DefaultChannel uint8 = 9 // General MIDI drums
)

// drumKeys maps single-letter drum names to General MIDI percussion.
var drumKeys = map[string]uint8{
	"b": 36, // bass drum
	"k": 36,
	"s": 38, // snare
	"h": 42, // closed hat
	"o": 46, // open hat
	"t": 45, // low tom
	"c": 49, // crash
	"r": 51, // ride
}

type Options struct {
	Channel    uint8
	DefaultKey uint8
	BPM        float64
	TrackName  string
}

// DefaultOptions writes drums on channel 10 at 120 bpm.
func DefaultOptions() Options {
	return Options{Channel: DefaultChannel, DefaultKey: DefaultKey, BPM: DefaultBPM}
}

// Note is one step of a pattern on the file's tick grid.
type Note struct {
	Tick     uint32
	Duration uint32
	Key      uint8
	Velocity uint8
}

// Key picks the MIDI key for an event value: numbers 0..127 are used as
// is, known drum letters map to General MIDI, anything else plays fallback.
func Key(value string, fallback uint8) uint8 {
	if n, err := strconv.ParseUint(value, 10, 8); err == nil && n <= 127 {
		return uint8(n)
	}
	if k, ok := drumKeys[value]; ok {
		return k
	}
	return fallback
}

// Velocity scales a 0..100 probability to 1..127.
func Velocity(probability uint8) uint8 {
	v := uint32(probability) * 127 / 100
	if v < 1 {
		return 1
	}
	if v > 127 {
		return 127
	}
	return uint8(v)
}

// Notes maps every step of p onto a grid of four quarters per measure. Each
// note lasts until the next step, the last one until the end of the pattern.
func Notes(p *pattern.Pattern, opts Options) []Note {
	if opts.DefaultKey == 0 {
		opts.DefaultKey = DefaultKey
	}
	subdivision := uint64(p.Subdivision)
	if subdivision == 0 {
		subdivision = uint64(pattern.DefaultSubdivision)
	}

	end := uint32(uint64(p.Length) * ticksPerBar)
	notes := make([]Note, 0, len(p.Steps))
	for _, s := range p.Steps {
		tick := uint32(uint64(s.Index-1) * ticksPerBar / subdivision)
		notes = append(notes, Note{
			Tick:     tick,
			Key:      Key(s.Event.Value, opts.DefaultKey),
			Velocity: Velocity(s.Event.Probability),
		})
	}

	for i := range notes {
		next := end
		for j := i + 1; j < len(notes); j++ {
			if notes[j].Tick > notes[i].Tick {
				next = notes[j].Tick
				break
			}
		}
		notes[i].Duration = 1
		if next > notes[i].Tick {
			notes[i].Duration = next - notes[i].Tick
		}
	}
	return notes
}

type timedMessage struct {
	tick uint32
	off  bool
	msg  midi.Message
}

// WriteSMF writes p as a single-track SMF.
func WriteSMF(w io.Writer, p *pattern.Pattern, opts Options) (int64, error) {
	if opts.BPM <= 0 {
		opts.BPM = DefaultBPM
	}
	if opts.Channel > 15 {
		return 0, errors.Errorf("invalid MIDI channel %d", opts.Channel)
	}

	var messages []timedMessage
	for _, n := range Notes(p, opts) {
		messages = append(messages,
			timedMessage{tick: n.Tick, msg: midi.NoteOn(opts.Channel, n.Key, n.Velocity)},
			timedMessage{tick: n.Tick + n.Duration, off: true, msg: midi.NoteOff(opts.Channel, n.Key)},
		)
	}
	// note-offs go first so a retriggered key is not cut short
	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].tick != messages[j].tick {
			return messages[i].tick < messages[j].tick
		}
		return messages[i].off && !messages[j].off
	})

	var tr smf.Track
	if opts.TrackName != "" {
		tr.Add(0, smf.MetaTrackSequenceName(opts.TrackName))
	}
	tr.Add(0, smf.MetaMeter(quartersPerBar, 4))
	tr.Add(0, smf.MetaTempo(opts.BPM))

	var last uint32
	for _, m := range messages {
		tr.Add(m.tick-last, m.msg)
		last = m.tick
	}

	end := uint32(uint64(p.Length) * ticksPerBar)
	var tail uint32
	if end > last {
		tail = end - last
	}
	tr.Close(tail)

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(TicksPerQuarter)
	if err := s.Add(tr); err != nil {
		return 0, errors.Wrap(err, "adding track")
	}
	n, err := s.WriteTo(w)
	if err != nil {
		return n, errors.Wrap(err, "writing SMF")
	}
	return n, nil
}
