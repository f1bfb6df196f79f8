// Package schemas provides the difficulty file layouts understood by the converter
package schemas

import (
	"strings"

	"github.com/BrokenLinc/single-saberize/pkg/beatmap"
	"github.com/BrokenLinc/single-saberize/pkg/converter"
)

// Legacy layout keys
const (
	LegacyNotesKey = "_notes"
	LegacyTempoKey = "_beatsPerMinute"
	legacyVersion  = "_version"
)

// LegacyNoteKeys are the note fields of the legacy layout
var LegacyNoteKeys = beatmap.NoteKeys{
	Time:         "_time",
	LineIndex:    "_lineIndex",
	LineLayer:    "_lineLayer",
	Type:         "_type",
	CutDirection: "_cutDirection",
}

// Legacy implements converter.Schema for the underscore-prefixed layout
// ({"_version":"1.5.0","_beatsPerMinute":120,"_notes":[...]})
type Legacy struct{}

// NewLegacy creates a new legacy layout handler
func NewLegacy() *Legacy {
	return &Legacy{}
}

// Name returns the layout name
func (l *Legacy) Name() string {
	return "legacy"
}

// Detect reports whether doc uses the legacy layout
func (l *Legacy) Detect(doc *converter.Document) bool {
	if doc.Has(LegacyNotesKey) {
		return true
	}
	v := doc.Text(legacyVersion)
	return v != "" && !strings.HasPrefix(v, "3")
}

// Notes decodes the note stream
func (l *Legacy) Notes(doc *converter.Document) ([]beatmap.Note, error) {
	raws, err := doc.RawList(LegacyNotesKey)
	if err != nil {
		return nil, err
	}
	return beatmap.DecodeNotes(raws, LegacyNoteKeys)
}

// SetNotes replaces the note stream
func (l *Legacy) SetNotes(doc *converter.Document, notes []beatmap.Note) error {
	raws, err := beatmap.EncodeNotes(notes, LegacyNoteKeys)
	if err != nil {
		return err
	}
	return doc.Set(LegacyNotesKey, raws)
}

// Tempo returns the tempo stored in the document
func (l *Legacy) Tempo(doc *converter.Document) float64 {
	return doc.Float(LegacyTempoKey)
}
