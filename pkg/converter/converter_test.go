package converter

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/BrokenLinc/single-saberize/pkg/beatmap"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		filename string
		expected Format
	}{
		{"info.json", FormatInfo},
		{"songs/Beat It/Info.dat", FormatInfo},
		{"Expert.json", FormatDifficulty},
		{"ExpertPlusStandard.dat", FormatDifficulty},
		{"preview.mid", FormatMIDI},
		{"preview.midi", FormatMIDI},
		{"song.ogg", FormatUnknown},
		{"Expert", FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			result := DetectFormat(tt.filename)
			if result != tt.expected {
				t.Errorf("DetectFormat(%q) = %v, want %v", tt.filename, result, tt.expected)
			}
		})
	}
}

// mockSchema implements Schema for testing: {"bpm":120,"notes":[{"t":1,"h":0}]}
type mockSchema struct{}

var mockKeys = beatmap.NoteKeys{Time: "t", Type: "h"}

func (m *mockSchema) Name() string                { return "mock" }
func (m *mockSchema) Detect(doc *Document) bool   { return doc.Has("notes") }
func (m *mockSchema) Tempo(doc *Document) float64 { return doc.Float("bpm") }
func (m *mockSchema) Notes(doc *Document) ([]beatmap.Note, error) {
	raws, err := doc.RawList("notes")
	if err != nil {
		return nil, err
	}
	return beatmap.DecodeNotes(raws, mockKeys)
}
func (m *mockSchema) SetNotes(doc *Document, notes []beatmap.Note) error {
	raws, err := beatmap.EncodeNotes(notes, mockKeys)
	if err != nil {
		return err
	}
	return doc.Set("notes", raws)
}

func hands(t *testing.T, conv *Converter, data []byte) []beatmap.NoteType {
	t.Helper()
	doc, err := ParseDocument(data)
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	notes, _, err := conv.Notes(doc)
	if err != nil {
		t.Fatalf("Notes() error = %v", err)
	}
	out := make([]beatmap.NoteType, len(notes))
	for i, n := range notes {
		out[i] = n.Type
	}
	return out
}

const mockDifficulty = `{"bpm":120,"events":[1,2],"notes":[{"t":1,"h":0},{"t":1.1,"h":0},{"t":6,"h":1}]}`

func TestConverterNew(t *testing.T) {
	conv := New(nil, &mockSchema{})
	if conv == nil {
		t.Fatal("New() returned nil")
	}
	if conv.GetTiers() == nil {
		t.Error("New(nil) should fall back to the default tiers")
	}
	if got := conv.GetSupportedSchemas(); len(got) != 1 || got[0] != "mock" {
		t.Errorf("GetSupportedSchemas() = %v", got)
	}

	tiers := beatmap.DefaultTiers()
	conv.SetTiers(tiers)
	if conv.GetTiers() != tiers {
		t.Error("GetTiers() should return the table passed to SetTiers")
	}
}

func TestConvertDifficulty(t *testing.T) {
	conv := New(beatmap.DefaultTiers(), &mockSchema{})

	result, err := conv.ConvertDifficulty([]byte(mockDifficulty), beatmap.ExpertPlus, 0)
	if err != nil {
		t.Fatalf("ConvertDifficulty() error = %v", err)
	}
	if result.Schema != "mock" || result.Tempo != 120 {
		t.Errorf("result = %+v", result)
	}
	if result.NotesIn != 3 || result.NotesOut != 3 {
		t.Errorf("notes in/out = %d/%d, want 3/3", result.NotesIn, result.NotesOut)
	}

	got := hands(t, conv, result.Data)
	want := []beatmap.NoteType{beatmap.TypeRight, beatmap.TypeLeft, beatmap.TypeRight}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("types = %v, want %v", got, want)
		}
	}

	doc, _ := ParseDocument(result.Data)
	if events, _ := doc.Raw("events"); string(events) != "[1,2]" {
		t.Errorf("events = %s, want [1,2] untouched", events)
	}
}

func TestConvertDifficultyDropUnmerged(t *testing.T) {
	conv := New(beatmap.DefaultTiers(), &mockSchema{})
	conv.SetDropUnmerged(true)

	result, err := conv.ConvertDifficulty([]byte(mockDifficulty), beatmap.ExpertPlus, 0)
	if err != nil {
		t.Fatalf("ConvertDifficulty() error = %v", err)
	}
	if result.NotesOut != 2 || result.Hands[beatmap.Left] != 0 {
		t.Errorf("NotesOut = %d hands = %v, want 2 right notes", result.NotesOut, result.Hands)
	}
}

func TestConvertDifficultyErrors(t *testing.T) {
	conv := New(beatmap.DefaultTiers(), &mockSchema{})

	t.Run("no tempo", func(t *testing.T) {
		_, err := conv.ConvertDifficulty([]byte(`{"notes":[]}`), beatmap.Hard, 0)
		var tempoErr *beatmap.InvalidTempoError
		if !errors.As(err, &tempoErr) {
			t.Errorf("error = %v, want *InvalidTempoError", err)
		}
	})

	t.Run("fallback tempo", func(t *testing.T) {
		if _, err := conv.ConvertDifficulty([]byte(`{"notes":[]}`), beatmap.Hard, 100); err != nil {
			t.Errorf("error = %v", err)
		}
	})

	t.Run("malformed note", func(t *testing.T) {
		_, err := conv.ConvertDifficulty([]byte(`{"bpm":90,"notes":[{"t":1,"h":1},{"h":0}]}`), beatmap.Hard, 0)
		var malformed *beatmap.MalformedNoteError
		if !errors.As(err, &malformed) || malformed.Index != 1 || malformed.Field != "t" {
			t.Errorf("error = %v, want *MalformedNoteError{1, t}", err)
		}
	})

	t.Run("unknown layout", func(t *testing.T) {
		if _, err := conv.ConvertDifficulty([]byte(`{"bpm":90}`), beatmap.Hard, 0); err == nil {
			t.Error("expected an error for an unrecognised layout")
		}
	})

	t.Run("unknown tier", func(t *testing.T) {
		_, err := conv.ConvertDifficulty([]byte(mockDifficulty), beatmap.Difficulty(7), 0)
		var unknown *beatmap.UnknownTierError
		if !errors.As(err, &unknown) {
			t.Errorf("error = %v, want *UnknownTierError", err)
		}
	})
}

func TestSynthesizeDifficulty(t *testing.T) {
	conv := New(beatmap.DefaultTiers(), &mockSchema{})
	data := `{"bpm":120,"notes":[{"t":0,"h":1},{"t":0.25,"h":0},{"t":0.5,"h":0},{"t":0.75,"h":3},{"t":1,"h":1}]}`

	result, err := conv.SynthesizeDifficulty([]byte(data), beatmap.ExpertPlus, beatmap.Expert, 0, 0)
	if err != nil {
		t.Fatalf("SynthesizeDifficulty() error = %v", err)
	}
	if result.Difficulty != beatmap.Expert || result.NotesIn != 5 || result.NotesOut != 4 {
		t.Errorf("result = %+v, want 5 notes in, 4 out", result)
	}

	_, err = conv.SynthesizeDifficulty([]byte(data), beatmap.Expert, beatmap.ExpertPlus, 0, 0)
	var unsupported *beatmap.UnsupportedTierError
	if !errors.As(err, &unsupported) {
		t.Errorf("error = %v, want *UnsupportedTierError", err)
	}
}

func TestConvertFile(t *testing.T) {
	dir := t.TempDir()
	conv := New(beatmap.DefaultTiers(), &mockSchema{})

	path := filepath.Join(dir, "ExpertPlus.json")
	if err := os.WriteFile(path, []byte(mockDifficulty), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := conv.ConvertFile(path, "", beatmap.ExpertPlus, 0); err != nil {
		t.Fatalf("ConvertFile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := hands(t, conv, data); got[0] != beatmap.TypeRight {
		t.Errorf("converted types = %v", got)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("ConvertFile() left %d entries behind, want 1", len(entries))
	}
}

func TestConvertFileLeavesBrokenInputUntouched(t *testing.T) {
	dir := t.TempDir()
	conv := New(beatmap.DefaultTiers(), &mockSchema{})

	broken := `{"bpm":120,"notes":[{"h":0}]}`
	path := filepath.Join(dir, "Hard.json")
	if err := os.WriteFile(path, []byte(broken), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := conv.ConvertFile(path, "", beatmap.Hard, 0); err == nil {
		t.Fatal("ConvertFile() should fail on a malformed note")
	}
	data, _ := os.ReadFile(path)
	if string(data) != broken {
		t.Errorf("input changed to %s", data)
	}
}

func TestDifficultyFileName(t *testing.T) {
	if got := DifficultyFileName(beatmap.ExpertPlus); got != "ExpertPlus.json" {
		t.Errorf("DifficultyFileName() = %q", got)
	}
}
