package beatmap

import (
	"math"
)

const (
	// referenceGrid is the finest grid notes are snapped to, in fractions of a beat
	referenceGrid = 16

	// gridEpsilon absorbs float noise when comparing two snapped positions
	gridEpsilon = 1e-9
)

// BeatOffset converts a playback offset in milliseconds to beats
func BeatOffset(offsetMillis, tempo float64) float64 {
	return offsetMillis / 1000 * tempo / 60
}

// roundHalfUp rounds halves towards +Inf
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

func snap(x, divisor float64) float64 {
	return roundHalfUp(x*divisor) / divisor
}

// OnGrid reports whether a beat position, once snapped to the reference grid, also sits on
// the divisor grid
func OnGrid(shifted, divisor float64) bool {
	return math.Abs(snap(shifted, referenceGrid)-snap(shifted, divisor)) <= gridEpsilon
}

// Synthesize derives a candidate note stream for target from a denser source tier. Left and
// Right notes survive only when they land on the target's grid, measured from the playback
// offset; Other notes always survive. Hands are untouched, run Convert on the result.
func Synthesize(source []Note, sourceTier, target Tier, offsetMillis, tempo float64) ([]Note, error) {
	if !target.CanSynthesize() {
		return nil, &UnsupportedTierError{Tier: target.Difficulty}
	}
	if err := checkTempo(tempo); err != nil {
		return nil, err
	}
	if sourceTier.Order <= target.Order {
		return nil, &NoSourceTierAvailableError{Target: target.Difficulty}
	}

	offset := BeatOffset(offsetMillis, tempo)
	out := make([]Note, 0, len(source))
	for _, n := range source {
		if n.Hand() == Other || OnGrid(n.Time-offset, target.QuantumDivisor) {
			out = append(out, n)
		}
	}
	return out, nil
}
