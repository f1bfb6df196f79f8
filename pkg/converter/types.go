// Package converter reads and writes song info and difficulty files and runs the beatmap
// transforms over them
package converter

import (
	"github.com/BrokenLinc/single-saberize/pkg/beatmap"
)

// Result holds the outcome of a difficulty conversion or synthesis
type Result struct {
	Data       []byte             // Encoded difficulty document
	Difficulty beatmap.Difficulty // Tier the rules were taken from
	Schema     string             // Name of the schema the document was read with
	Tempo      float64            // Beats per minute used
	NotesIn    int
	NotesOut   int
	Hands      map[beatmap.Hand]int // Hand counts of the output stream
}

// Schema reads and writes the note collections of one difficulty file layout
type Schema interface {
	Name() string
	Detect(doc *Document) bool
	Notes(doc *Document) ([]beatmap.Note, error)
	SetNotes(doc *Document, notes []beatmap.Note) error
	Tempo(doc *Document) float64 // 0 when the layout carries no tempo
}

// Converter handles difficulty conversions
type Converter struct {
	tiers        *beatmap.TierTable
	schemas      []Schema
	dropUnmerged bool
}

// New creates a new Converter using the given tier rules. Schemas are tried in order.
func New(tiers *beatmap.TierTable, schemas ...Schema) *Converter {
	if tiers == nil {
		tiers = beatmap.DefaultTiers()
	}
	return &Converter{tiers: tiers, schemas: schemas}
}

// GetTiers returns the tier table in use
func (c *Converter) GetTiers() *beatmap.TierTable {
	return c.tiers
}

// SetTiers replaces the tier table
func (c *Converter) SetTiers(tiers *beatmap.TierTable) {
	c.tiers = tiers
}

// SetDropUnmerged makes conversions remove notes left on the Left hand
func (c *Converter) SetDropUnmerged(drop bool) {
	c.dropUnmerged = drop
}

// DropUnmerged reports whether Left notes are removed after conversion
func (c *Converter) DropUnmerged() bool {
	return c.dropUnmerged
}
