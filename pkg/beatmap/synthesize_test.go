package beatmap

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestSynthesize(t *testing.T) {
	source := Tier{Difficulty: Normal, Order: 1}
	wholeBeat := Tier{Difficulty: Easy, Order: 0, QuantumDivisor: 1}

	tests := []struct {
		name      string
		notes     []Note
		offset    float64
		tempo     float64
		wantTimes []float64
	}{
		{
			name:      "whole beat grid",
			notes:     []Note{note(0, TypeRight), note(0.25, TypeLeft), note(1, TypeLeft), note(1.5, TypeRight)},
			tempo:     120,
			wantTimes: []float64{0, 1},
		},
		{
			// 250ms at 120bpm is half a beat
			name:      "offset shifts the grid",
			notes:     []Note{note(0.5, TypeRight), note(1, TypeLeft), note(1.5, TypeLeft)},
			offset:    250,
			tempo:     120,
			wantTimes: []float64{0.5, 1.5},
		},
		{
			name:      "other notes always survive",
			notes:     []Note{note(0.3, TypeBomb), note(0.3, TypeRight), note(2, TypeLeft)},
			tempo:     100,
			wantTimes: []float64{0.3, 2},
		},
		{
			name:      "input order is kept",
			notes:     []Note{note(3, TypeLeft), note(1, TypeRight)},
			tempo:     90,
			wantTimes: []float64{3, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Synthesize(tt.notes, source, wholeBeat, tt.offset, tt.tempo)
			if err != nil {
				t.Fatalf("Synthesize() error = %v", err)
			}
			gotTimes := times(got)
			if len(gotTimes) != len(tt.wantTimes) {
				t.Fatalf("Synthesize() times = %v, want %v", gotTimes, tt.wantTimes)
			}
			for i := range gotTimes {
				if gotTimes[i] != tt.wantTimes[i] {
					t.Errorf("Synthesize() times = %v, want %v", gotTimes, tt.wantTimes)
					break
				}
			}
		})
	}
}

func TestSynthesizeErrors(t *testing.T) {
	tiers := DefaultTiers()
	expert, _ := tiers.Lookup(Expert)
	expertPlus, _ := tiers.Lookup(ExpertPlus)
	hard, _ := tiers.Lookup(Hard)
	notes := []Note{note(1, TypeLeft)}

	t.Run("target without grid", func(t *testing.T) {
		_, err := Synthesize(notes, expertPlus, expertPlus, 0, 120)
		var tierErr *UnsupportedTierError
		if !errors.As(err, &tierErr) || tierErr.Tier != ExpertPlus {
			t.Errorf("error = %v, want *UnsupportedTierError{ExpertPlus}", err)
		}
	})

	t.Run("source not denser", func(t *testing.T) {
		_, err := Synthesize(notes, hard, expert, 0, 120)
		var srcErr *NoSourceTierAvailableError
		if !errors.As(err, &srcErr) || srcErr.Target != Expert {
			t.Errorf("error = %v, want *NoSourceTierAvailableError{Expert}", err)
		}
	})

	t.Run("bad tempo", func(t *testing.T) {
		_, err := Synthesize(notes, expertPlus, expert, 0, 0)
		var tempoErr *InvalidTempoError
		if !errors.As(err, &tempoErr) {
			t.Errorf("error = %v, want *InvalidTempoError", err)
		}
	})
}

func TestSynthesizeGridLaw(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	tiers := DefaultTiers()
	expertPlus, _ := tiers.Lookup(ExpertPlus)

	for _, d := range []Difficulty{Easy, Normal, Hard, Expert} {
		target, _ := tiers.Lookup(d)
		notes := make([]Note, 200)
		for i := range notes {
			notes[i] = note(float64(rng.Intn(256))/32, TypeRight)
		}
		offset := float64(rng.Intn(1000) - 500)
		tempo := 80 + float64(rng.Intn(120))

		got, err := Synthesize(notes, expertPlus, target, offset, tempo)
		if err != nil {
			t.Fatalf("Synthesize(%s) error = %v", d, err)
		}
		beatOffset := BeatOffset(offset, tempo)
		for _, n := range got {
			if !OnGrid(n.Time-beatOffset, target.QuantumDivisor) {
				t.Errorf("%s: retained note at %v is off grid", d, n.Time)
			}
		}
	}
}

func TestOnGrid(t *testing.T) {
	tests := []struct {
		shifted float64
		divisor float64
		want    bool
	}{
		{0, 1, true},
		{1, 2, true},
		{0.5, 2, true},
		{0.25, 2, false},
		{0.25, 4, true},
		{0.125, 4, false},
		{0.1 + 0.2, 16, true},
		{-0.5, 2, true},
		{-0.25, 2, false},
		{0.03125, 16, true},
	}
	for _, tt := range tests {
		if got := OnGrid(tt.shifted, tt.divisor); got != tt.want {
			t.Errorf("OnGrid(%v, %v) = %v, want %v", tt.shifted, tt.divisor, got, tt.want)
		}
	}
}

func TestBeatOffset(t *testing.T) {
	if got := BeatOffset(-570, 120); math.Abs(got+1.14) > 1e-12 {
		t.Errorf("BeatOffset(-570, 120) = %v, want -1.14", got)
	}
}
