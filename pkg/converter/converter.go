package converter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BrokenLinc/single-saberize/pkg/beatmap"
	"github.com/google/uuid"
)

// Format represents a file format
type Format string

const (
	FormatInfo       Format = "info"
	FormatDifficulty Format = "difficulty"
	FormatMIDI       Format = "midi"
	FormatUnknown    Format = "unknown"
)

// DetectFormat detects the format of a file based on its name
func DetectFormat(filename string) Format {
	base := strings.ToLower(filepath.Base(filename))
	if base == InfoFileName || base == "info.dat" {
		return FormatInfo
	}
	switch filepath.Ext(base) {
	case ".json", ".dat":
		return FormatDifficulty
	case ".mid", ".midi":
		return FormatMIDI
	default:
		return FormatUnknown
	}
}

// DifficultyFileName returns the conventional file name of a tier
func DifficultyFileName(d beatmap.Difficulty) string {
	return d.String() + ".json"
}

// DetectSchema returns the first schema that recognises doc
func (c *Converter) DetectSchema(doc *Document) (Schema, error) {
	for _, s := range c.schemas {
		if s.Detect(doc) {
			return s, nil
		}
	}
	return nil, errors.New("unrecognised difficulty layout")
}

// Notes decodes the note stream of a difficulty document
func (c *Converter) Notes(doc *Document) ([]beatmap.Note, Schema, error) {
	schema, err := c.DetectSchema(doc)
	if err != nil {
		return nil, nil, err
	}
	notes, err := schema.Notes(doc)
	if err != nil {
		return nil, nil, err
	}
	return notes, schema, nil
}

// tempoOf prefers the document's own tempo over the fallback
func tempoOf(schema Schema, doc *Document, fallback float64) float64 {
	if t := schema.Tempo(doc); t > 0 {
		return t
	}
	return fallback
}

// ConvertDifficulty runs single-hand conversion over difficulty data using the rules of d.
// fallbackTempo is used when the document carries no tempo of its own.
func (c *Converter) ConvertDifficulty(data []byte, d beatmap.Difficulty, fallbackTempo float64) (*Result, error) {
	tier, err := c.tiers.Lookup(d)
	if err != nil {
		return nil, err
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}
	notes, schema, err := c.Notes(doc)
	if err != nil {
		return nil, err
	}

	tempo := tempoOf(schema, doc, fallbackTempo)
	converted, err := beatmap.Convert(notes, tempo, tier)
	if err != nil {
		return nil, err
	}
	if c.dropUnmerged {
		converted = beatmap.DropLeft(converted)
	}
	return c.encode(doc, schema, d, tempo, len(notes), converted)
}

// SynthesizeDifficulty derives a candidate difficulty for target from denser source data.
// The result still needs ConvertDifficulty.
func (c *Converter) SynthesizeDifficulty(data []byte, source, target beatmap.Difficulty, offsetMillis, fallbackTempo float64) (*Result, error) {
	sourceTier, err := c.tiers.Lookup(source)
	if err != nil {
		return nil, err
	}
	targetTier, err := c.tiers.Lookup(target)
	if err != nil {
		return nil, err
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}
	notes, schema, err := c.Notes(doc)
	if err != nil {
		return nil, err
	}

	tempo := tempoOf(schema, doc, fallbackTempo)
	derived, err := beatmap.Synthesize(notes, sourceTier, targetTier, offsetMillis, tempo)
	if err != nil {
		return nil, err
	}
	return c.encode(doc, schema, target, tempo, len(notes), derived)
}

func (c *Converter) encode(doc *Document, schema Schema, d beatmap.Difficulty, tempo float64, in int, notes []beatmap.Note) (*Result, error) {
	if err := schema.SetNotes(doc, notes); err != nil {
		return nil, err
	}
	out, err := doc.Bytes()
	if err != nil {
		return nil, err
	}
	return &Result{
		Data:       out,
		Difficulty: d,
		Schema:     schema.Name(),
		Tempo:      tempo,
		NotesIn:    in,
		NotesOut:   len(notes),
		Hands:      beatmap.CountHands(notes),
	}, nil
}

// ConvertFile converts a difficulty file. An empty outputPath converts in place.
// The input is left untouched when conversion fails.
func (c *Converter) ConvertFile(inputPath, outputPath string, d beatmap.Difficulty, fallbackTempo float64) (*Result, error) {
	if DetectFormat(inputPath) != FormatDifficulty {
		return nil, fmt.Errorf("not a difficulty file: %s", inputPath)
	}
	if outputPath == "" {
		outputPath = inputPath
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}

	result, err := c.ConvertDifficulty(data, d, fallbackTempo)
	if err != nil {
		return nil, fmt.Errorf("conversion failed: %w", err)
	}

	if err := WriteFileAtomic(outputPath, result.Data); err != nil {
		return nil, fmt.Errorf("failed to write output file: %w", err)
	}
	return result, nil
}

// WriteFileAtomic writes data next to filename and renames it into place
func WriteFileAtomic(filename string, data []byte) error {
	tmp := filepath.Join(filepath.Dir(filename), "."+filepath.Base(filename)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, filename); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// GetSupportedSchemas returns the names of the configured schemas
func (c *Converter) GetSupportedSchemas() []string {
	names := make([]string, 0, len(c.schemas))
	for _, s := range c.schemas {
		names = append(names, s.Name())
	}
	return names
}
