package converter

import (
	"bytes"
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/BrokenLinc/single-saberize/pkg/beatmap"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// MIDI channels the hands are rendered on
const (
	LeftChannel  uint8 = 0
	RightChannel uint8 = 1
	OtherChannel uint8 = 9 // General MIDI percussion
)

// MIDIRenderer renders note streams as Standard MIDI Files
type MIDIRenderer struct {
	ticksPerQuarter uint16
	basePitch       uint8
	velocity        uint8
}

// NewMIDIRenderer creates a renderer with 480 ticks per beat
func NewMIDIRenderer() *MIDIRenderer {
	return &MIDIRenderer{
		ticksPerQuarter: 480,
		basePitch:       60,
		velocity:        100,
	}
}

func handChannel(h beatmap.Hand) uint8 {
	switch h {
	case beatmap.Left:
		return LeftChannel
	case beatmap.Right:
		return RightChannel
	default:
		return OtherChannel
	}
}

// pitch maps a grid position to a key: one major third per row, one semitone per column
func (m *MIDIRenderer) pitch(n beatmap.Note) uint8 {
	p := int(m.basePitch) + n.LineLayer*4 + n.LineIndex
	return uint8(max(0, min(127, p)))
}

type midiEvent struct {
	tick    uint32
	channel uint8
	key     uint8
	on      bool
}

const maxTempoMicros = 0xFFFFFF

// Render writes one track: tempo, 4/4 time signature and a sixteenth-long key per note.
// Notes before beat 0 are clamped to the start.
func (m *MIDIRenderer) Render(notes []beatmap.Note, tempo float64) ([]byte, error) {
	if tempo <= 0 {
		tempo = 120.0
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(m.ticksPerQuarter)

	var track smf.Track

	// The tempo meta event holds 24 bits
	microsecondsPerBeat := uint32(min(60000000.0/tempo, maxTempoMicros))
	track.Add(0, smf.Message([]byte{
		0xFF, 0x51, 0x03,
		byte(microsecondsPerBeat >> 16),
		byte(microsecondsPerBeat >> 8),
		byte(microsecondsPerBeat),
	}))
	track.Add(0, smf.Message([]byte{0xFF, 0x58, 0x04, 0x04, 0x02, 0x18, 0x08}))

	length := uint32(m.ticksPerQuarter) / 4
	events := make([]midiEvent, 0, len(notes)*2)
	for _, n := range notes {
		start := uint32(math.Round(max(0, n.Time) * float64(m.ticksPerQuarter)))
		ch, key := handChannel(n.Hand()), m.pitch(n)
		events = append(events,
			midiEvent{tick: start, channel: ch, key: key, on: true},
			midiEvent{tick: start + length, channel: ch, key: key, on: false},
		)
	}

	// Offs sort ahead of ons on the same tick so repeated keys retrigger
	slices.SortStableFunc(events, func(a, b midiEvent) int {
		if c := cmp.Compare(a.tick, b.tick); c != 0 {
			return c
		}
		switch {
		case a.on == b.on:
			return 0
		case !a.on:
			return -1
		default:
			return 1
		}
	})

	var currentTick uint32
	for _, ev := range events {
		delta := ev.tick - currentTick
		if ev.on {
			track.Add(delta, midi.NoteOn(ev.channel, ev.key, m.velocity))
		} else {
			track.Add(delta, midi.NoteOff(ev.channel, ev.key))
		}
		currentTick = ev.tick
	}

	track.Close(0)

	if err := s.Add(track); err != nil {
		return nil, fmt.Errorf("failed to add track: %w", err)
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write MIDI: %w", err)
	}
	return buf.Bytes(), nil
}

// PreviewMIDI renders the notes of difficulty data as MIDI
func (c *Converter) PreviewMIDI(data []byte, fallbackTempo float64) ([]byte, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}
	notes, schema, err := c.Notes(doc)
	if err != nil {
		return nil, err
	}
	return NewMIDIRenderer().Render(beatmap.SortByTime(notes), tempoOf(schema, doc, fallbackTempo))
}
