package schemas

import (
	"errors"
	"strings"

	"github.com/BrokenLinc/single-saberize/pkg/beatmap"
	"github.com/BrokenLinc/single-saberize/pkg/converter"
)

// ColorNotes layout keys
const (
	ColorNotesKey = "colorNotes"
	BombNotesKey  = "bombNotes"
	versionKey    = "version"
)

// ColorNoteKeys are the note fields of colorNotes entries
var ColorNoteKeys = beatmap.NoteKeys{
	Time:         "b",
	LineIndex:    "x",
	LineLayer:    "y",
	Type:         "c",
	CutDirection: "d",
}

// BombNoteKeys are the note fields of bombNotes entries
var BombNoteKeys = beatmap.NoteKeys{
	Time:        "b",
	LineIndex:   "x",
	LineLayer:   "y",
	DefaultType: beatmap.TypeBomb,
}

// ColorNotes implements converter.Schema for the v3 layout, where bombs live in their own
// collection. Bombs join the stream as Other notes and are split back out on write.
type ColorNotes struct{}

// NewColorNotes creates a new v3 layout handler
func NewColorNotes() *ColorNotes {
	return &ColorNotes{}
}

// Name returns the layout name
func (c *ColorNotes) Name() string {
	return "v3"
}

// Detect reports whether doc uses the v3 layout
func (c *ColorNotes) Detect(doc *converter.Document) bool {
	return doc.Has(ColorNotesKey) || strings.HasPrefix(doc.Text(versionKey), "3")
}

// Notes decodes colour notes followed by bombs. Indexes in a *beatmap.MalformedNoteError
// count across both collections in that order.
func (c *ColorNotes) Notes(doc *converter.Document) ([]beatmap.Note, error) {
	colors, err := doc.RawList(ColorNotesKey)
	if err != nil {
		return nil, err
	}
	bombs, err := doc.RawList(BombNotesKey)
	if err != nil {
		return nil, err
	}

	notes, err := beatmap.DecodeNotes(colors, ColorNoteKeys)
	if err != nil {
		return nil, err
	}
	bombNotes, err := beatmap.DecodeNotes(bombs, BombNoteKeys)
	if err != nil {
		var malformed *beatmap.MalformedNoteError
		if errors.As(err, &malformed) {
			malformed.Index += len(colors)
		}
		return nil, err
	}
	return append(notes, bombNotes...), nil
}

// SetNotes writes bombs to bombNotes and everything else to colorNotes
func (c *ColorNotes) SetNotes(doc *converter.Document, notes []beatmap.Note) error {
	var colors, bombs []beatmap.Note
	for _, n := range notes {
		if n.Type == beatmap.TypeBomb {
			bombs = append(bombs, n)
		} else {
			colors = append(colors, n)
		}
	}

	colorRaws, err := beatmap.EncodeNotes(colors, ColorNoteKeys)
	if err != nil {
		return err
	}
	bombRaws, err := beatmap.EncodeNotes(bombs, BombNoteKeys)
	if err != nil {
		return err
	}
	if err := doc.Set(ColorNotesKey, colorRaws); err != nil {
		return err
	}
	if len(bombRaws) > 0 || doc.Has(BombNotesKey) {
		return doc.Set(BombNotesKey, bombRaws)
	}
	return nil
}

// Tempo returns 0: v3 difficulties take their tempo from the song info
func (c *ColorNotes) Tempo(doc *converter.Document) float64 {
	return 0
}

