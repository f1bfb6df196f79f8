package converter

import (
	"bytes"
	"testing"

	"github.com/BrokenLinc/single-saberize/pkg/beatmap"
	"gitlab.com/gomidi/midi/v2/smf"
)

func countNoteOns(t *testing.T, data []byte) map[uint8]int {
	t.Helper()
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("smf.ReadFrom() error = %v", err)
	}
	counts := make(map[uint8]int)
	for _, track := range s.Tracks {
		for _, ev := range track {
			msg := ev.Message
			if len(msg) >= 3 && msg[0] >= 0x90 && msg[0] <= 0x9F && msg[2] > 0 {
				counts[msg[0]&0x0F]++
			}
		}
	}
	return counts
}

func TestRender(t *testing.T) {
	notes := []beatmap.Note{
		{Time: 0, Type: beatmap.TypeLeft},
		{Time: 0.5, Type: beatmap.TypeRight, LineIndex: 3, LineLayer: 2},
		{Time: 0.5, Type: beatmap.TypeRight},
		{Time: 1, Type: beatmap.TypeBomb},
		{Time: -2, Type: beatmap.TypeRight},
	}

	data, err := NewMIDIRenderer().Render(notes, 150)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if string(data[:4]) != "MThd" {
		t.Fatalf("Render() did not produce a MIDI header")
	}

	counts := countNoteOns(t, data)
	if counts[LeftChannel] != 1 || counts[RightChannel] != 3 || counts[OtherChannel] != 1 {
		t.Errorf("note ons per channel = %v", counts)
	}
}

func TestRenderTempo(t *testing.T) {
	tests := []struct {
		name  string
		tempo float64
		want  []byte
	}{
		{"120 bpm", 120, []byte{0x07, 0xA1, 0x20}},
		{"clamped to 24 bits", 1, []byte{0xFF, 0xFF, 0xFF}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := NewMIDIRenderer().Render(nil, tt.tempo)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if !bytes.Contains(data, append([]byte{0xFF, 0x51, 0x03}, tt.want...)) {
				t.Errorf("tempo event %X not found", tt.want)
			}
		})
	}
}

func TestPitch(t *testing.T) {
	m := NewMIDIRenderer()
	tests := []struct {
		note beatmap.Note
		want uint8
	}{
		{beatmap.Note{}, 60},
		{beatmap.Note{LineIndex: 3, LineLayer: 2}, 71},
		{beatmap.Note{LineIndex: 1000}, 127},
		{beatmap.Note{LineIndex: -1000}, 0},
	}
	for _, tt := range tests {
		if got := m.pitch(tt.note); got != tt.want {
			t.Errorf("pitch(%+v) = %d, want %d", tt.note, got, tt.want)
		}
	}
}

func TestPreviewMIDI(t *testing.T) {
	conv := New(beatmap.DefaultTiers(), &mockSchema{})
	data, err := conv.PreviewMIDI([]byte(mockDifficulty), 0)
	if err != nil {
		t.Fatalf("PreviewMIDI() error = %v", err)
	}
	counts := countNoteOns(t, data)
	if counts[LeftChannel] != 2 || counts[RightChannel] != 1 {
		t.Errorf("note ons per channel = %v", counts)
	}
}
