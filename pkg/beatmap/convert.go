package beatmap

import (
	"cmp"
	"math"
	"slices"
)

// noPending marks an empty pending slot
const noPending = -1

// convertState is carried from note to note during conversion.
// pending indexes the output slot of a Left note that may still move to the Right hand.
type convertState struct {
	lastAccepted float64
	pending      int
}

// canMerge reports whether two notes elapsed beats apart are slow enough for one hand.
// A zero gap divides to +Inf and never merges.
func canMerge(tempo, elapsed, threshold float64) bool {
	return tempo/math.Abs(elapsed) < threshold
}

// step applies one note to the state and returns the extended output.
// Every Left/Right note is appended exactly once; only the pending slot is rewritten later.
func step(st convertState, out []Note, n Note, tempo, threshold float64) (convertState, []Note) {
	hand := n.Hand()
	if hand == Other {
		return st, append(out, n)
	}

	if st.pending != noPending && canMerge(tempo, n.Time-out[st.pending].Time, threshold) {
		out[st.pending] = out[st.pending].WithHand(Right)
		st.lastAccepted = out[st.pending].Time
		st.pending = noPending
	}

	out = append(out, n)
	switch hand {
	case Left:
		if st.pending == noPending && canMerge(tempo, n.Time-st.lastAccepted, threshold) {
			st.pending = len(out) - 1
		}
	case Right:
		st.lastAccepted = n.Time
		st.pending = noPending
	}
	return st, out
}

// Convert merges Left notes onto the Right hand wherever the tier's timing threshold says one
// hand can keep up. The result holds every input note in time order; ties keep input order.
// Notes that cannot be merged keep their Left hand, see DropLeft.
func Convert(notes []Note, tempo float64, tier Tier) ([]Note, error) {
	if err := checkTempo(tempo); err != nil {
		return nil, err
	}

	sorted := SortByTime(notes)
	out := make([]Note, 0, len(sorted))
	st := convertState{pending: noPending}
	for _, n := range sorted {
		st, out = step(st, out, n, tempo, tier.TimingThreshold)
	}

	// A note still pending at the end has nothing left to collide with
	if st.pending != noPending {
		out[st.pending] = out[st.pending].WithHand(Right)
	}
	return out, nil
}

// SortByTime returns a copy of notes stable-sorted by time
func SortByTime(notes []Note) []Note {
	sorted := slices.Clone(notes)
	slices.SortStableFunc(sorted, func(a, b Note) int {
		return cmp.Compare(a.Time, b.Time)
	})
	return sorted
}

// DropLeft returns the notes that are not on the Left hand, in order
func DropLeft(notes []Note) []Note {
	out := make([]Note, 0, len(notes))
	for _, n := range notes {
		if n.Hand() != Left {
			out = append(out, n)
		}
	}
	return out
}

// CountHands tallies notes per hand
func CountHands(notes []Note) map[Hand]int {
	counts := map[Hand]int{Left: 0, Right: 0, Other: 0}
	for _, n := range notes {
		counts[n.Hand()]++
	}
	return counts
}
