package beatmap

import (
	"strings"
)

// Difficulty identifies one of the fixed difficulty tiers
type Difficulty int

const (
	Easy Difficulty = iota
	Normal
	Hard
	Expert
	ExpertPlus
)

var difficultyNames = [...]string{"Easy", "Normal", "Hard", "Expert", "ExpertPlus"}

// Difficulties lists every tier from least to most dense
func Difficulties() []Difficulty {
	return []Difficulty{Easy, Normal, Hard, Expert, ExpertPlus}
}

// String returns the tier name as used in info and difficulty file names
func (d Difficulty) String() string {
	if d < Easy || d > ExpertPlus {
		return "Unknown"
	}
	return difficultyNames[d]
}

// Valid reports whether d is one of the fixed tiers
func (d Difficulty) Valid() bool {
	return d >= Easy && d <= ExpertPlus
}

// ParseDifficulty looks up a tier by name, case-insensitively
func ParseDifficulty(name string) (Difficulty, error) {
	for i, n := range difficultyNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Difficulty(i), nil
		}
	}
	return 0, &UnknownTierError{Name: name}
}

// Tier is the per-difficulty rule set used by conversion and synthesis
type Tier struct {
	Difficulty Difficulty
	Order      int // Rank, higher is denser

	// TimingThreshold is compared against tempo / elapsed beats. Below it two notes are
	// far enough apart to be played by one hand.
	TimingThreshold float64

	// QuantumDivisor is the grid resolution in fractions of a beat, 0 when undefined
	QuantumDivisor float64
}

// CanSynthesize reports whether the tier defines a quantization grid
func (t Tier) CanSynthesize() bool {
	return t.QuantumDivisor > 0
}

// TierTable maps each difficulty to its tier rules
type TierTable struct {
	tiers [len(difficultyNames)]Tier
}

// DefaultTiers returns the built-in tier table
func DefaultTiers() *TierTable {
	return &TierTable{tiers: [...]Tier{
		{Difficulty: Easy, Order: 0, TimingThreshold: 60 * 2, QuantumDivisor: 16},
		{Difficulty: Normal, Order: 1, TimingThreshold: 60, QuantumDivisor: 8},
		{Difficulty: Hard, Order: 2, TimingThreshold: 60 / 0.5, QuantumDivisor: 4},
		{Difficulty: Expert, Order: 3, TimingThreshold: 60 / 0.5, QuantumDivisor: 2},
		{Difficulty: ExpertPlus, Order: 4, TimingThreshold: 60 / 0.25},
	}}
}

// Lookup returns the tier rules for d
func (tt *TierTable) Lookup(d Difficulty) (Tier, error) {
	if !d.Valid() {
		return Tier{}, &UnknownTierError{Name: d.String()}
	}
	return tt.tiers[d], nil
}

// LookupName returns the tier rules for a tier name
func (tt *TierTable) LookupName(name string) (Tier, error) {
	d, err := ParseDifficulty(name)
	if err != nil {
		return Tier{}, err
	}
	return tt.tiers[d], nil
}

// Override replaces the threshold and grid of one tier. Order is fixed.
// A negative value leaves the corresponding field unchanged.
func (tt *TierTable) Override(d Difficulty, timingThreshold, quantumDivisor float64) error {
	if !d.Valid() {
		return &UnknownTierError{Name: d.String()}
	}
	if timingThreshold >= 0 {
		tt.tiers[d].TimingThreshold = timingThreshold
	}
	if quantumDivisor >= 0 {
		tt.tiers[d].QuantumDivisor = quantumDivisor
	}
	return nil
}

// All returns the tiers ordered from least to most dense
func (tt *TierTable) All() []Tier {
	out := make([]Tier, len(tt.tiers))
	copy(out, tt.tiers[:])
	return out
}

// SourceFor picks the tier to synthesize target from: the least dense tier that is
// strictly denser than target and for which exists reports true.
func (tt *TierTable) SourceFor(target Difficulty, exists func(Difficulty) bool) (Tier, error) {
	t, err := tt.Lookup(target)
	if err != nil {
		return Tier{}, err
	}
	if !t.CanSynthesize() {
		return Tier{}, &UnsupportedTierError{Tier: target}
	}

	var (
		best  Tier
		found bool
	)
	for _, cand := range tt.tiers {
		if cand.Order <= t.Order || !exists(cand.Difficulty) {
			continue
		}
		if !found || cand.Order < best.Order {
			best, found = cand, true
		}
	}
	if !found {
		return Tier{}, &NoSourceTierAvailableError{Target: target}
	}
	return best, nil
}
