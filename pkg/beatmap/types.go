// Package beatmap holds the note and difficulty-tier model of a beatmap and the two
// stream transforms built on it: single-hand conversion and tier synthesis.
package beatmap

import (
	json "github.com/goccy/go-json"
)

// Hand is the controller a note is meant to be hit with
type Hand int

const (
	Left Hand = iota
	Right
	Other
)

// String returns the hand name
func (h Hand) String() string {
	switch h {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "other"
	}
}

// NoteType is the raw type code stored in a difficulty file
type NoteType int

// Known note type codes. Any code other than TypeLeft/TypeRight is treated as Other.
const (
	TypeLeft  NoteType = 0
	TypeRight NoteType = 1
	TypeBomb  NoteType = 3
)

// Hand maps the type code onto a hand
func (t NoteType) Hand() Hand {
	switch t {
	case TypeLeft:
		return Left
	case TypeRight:
		return Right
	default:
		return Other
	}
}

// CutDirection is one of the eight swing directions or CutAny
type CutDirection int

const (
	CutUp CutDirection = iota
	CutDown
	CutLeft
	CutRight
	CutUpLeft
	CutUpRight
	CutDownLeft
	CutDownRight
	CutAny
)

// Note represents a single timed event of a difficulty
type Note struct {
	Time         float64      // Position in beats from the start of the track
	LineIndex    int          // Lane column, 0 is leftmost
	LineLayer    int          // Lane row, 0 is bottom
	Type         NoteType     // Raw type code
	CutDirection CutDirection // Swing direction

	// Extra holds fields the engine does not interpret. They are written back as-is.
	Extra map[string]json.RawMessage
}

// Hand returns the hand the note is assigned to
func (n Note) Hand() Hand {
	return n.Type.Hand()
}

// WithHand returns a copy of n reassigned to the given hand.
// Other notes are returned unchanged.
func (n Note) WithHand(h Hand) Note {
	switch {
	case n.Hand() == Other:
	case h == Left:
		n.Type = TypeLeft
	case h == Right:
		n.Type = TypeRight
	}
	return n
}

// SameEvent reports whether two notes share time, lane and cut direction
func (n Note) SameEvent(o Note) bool {
	return n.Time == o.Time &&
		n.LineIndex == o.LineIndex &&
		n.LineLayer == o.LineLayer &&
		n.CutDirection == o.CutDirection
}
