// Package eval scores game states from one snake's perspective.
//
// Scores are compared lexicographically, outcome first, so a heuristic can rank
// several features without folding them into one weighted number.
package eval

import (
	"fmt"
	"math"
)

type Outcome int8

const (
	Loss Outcome = iota - 1
	Ongoing
	Win
)

func (o Outcome) String() string {
	switch o {
	case Loss:
		return "loss"
	case Win:
		return "win"
	default:
		return "ongoing"
	}
}

// NumKeys is how many heuristic keys a Score carries.
const NumKeys = 3

// Score is a totally ordered evaluation. Outcome dominates, then Keys in
// order; larger is better for the snake being evaluated.
type Score struct {
	Outcome Outcome
	Keys    [NumKeys]int32
}

// Min is worse than or equal to every other score.
func Min() Score {
	return Score{Outcome: Loss, Keys: [NumKeys]int32{math.MinInt32, math.MinInt32, math.MinInt32}}
}

// Max is better than or equal to every other score.
func Max() Score {
	return Score{Outcome: Win, Keys: [NumKeys]int32{math.MaxInt32, math.MaxInt32, math.MaxInt32}}
}

// Compare returns -1, 0 or 1.
func (s Score) Compare(o Score) int {
	if s.Outcome != o.Outcome {
		if s.Outcome < o.Outcome {
			return -1
		}
		return 1
	}
	for i := range s.Keys {
		if s.Keys[i] != o.Keys[i] {
			if s.Keys[i] < o.Keys[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func (s Score) Less(o Score) bool   { return s.Compare(o) < 0 }
func (s Score) Better(o Score) bool { return s.Compare(o) > 0 }

func (s Score) String() string {
	return fmt.Sprintf("%s%v", s.Outcome, s.Keys)
}
