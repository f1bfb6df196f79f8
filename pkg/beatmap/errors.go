package beatmap

import (
	"fmt"
)

// MalformedNoteError reports a raw note record missing a required field
type MalformedNoteError struct {
	Index int    // Position of the record in the input collection
	Field string // Name of the missing or unreadable field
}

func (e *MalformedNoteError) Error() string {
	return fmt.Sprintf("malformed note at index %d: bad or missing %q", e.Index, e.Field)
}

// UnsupportedTierError reports a synthesis target without a quantization grid
type UnsupportedTierError struct {
	Tier Difficulty
}

func (e *UnsupportedTierError) Error() string {
	return fmt.Sprintf("tier %s has no quantization grid", e.Tier)
}

// NoSourceTierAvailableError reports that no denser tier can feed synthesis
type NoSourceTierAvailableError struct {
	Target Difficulty
}

func (e *NoSourceTierAvailableError) Error() string {
	return fmt.Sprintf("no denser tier available to synthesize %s", e.Target)
}

// InvalidTempoError reports a tempo that is not strictly positive
type InvalidTempoError struct {
	Tempo float64
}

func (e *InvalidTempoError) Error() string {
	return fmt.Sprintf("invalid tempo %v: must be > 0", e.Tempo)
}

// UnknownTierError reports a tier name outside the fixed tier set
type UnknownTierError struct {
	Name string
}

func (e *UnknownTierError) Error() string {
	return fmt.Sprintf("unknown difficulty tier %q", e.Name)
}

func checkTempo(tempo float64) error {
	if !(tempo > 0) {
		return &InvalidTempoError{Tempo: tempo}
	}
	return nil
}
