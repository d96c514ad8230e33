package eval

import (
	"fmt"
	"math"

	"github.com/brensch/snekmax/game"
)

// Evaluator scores a state for the snake you. Implementations must be pure
// functions of the state so scores from different subtrees compare.
type Evaluator interface {
	Evaluate(state *game.GameState, you string) Score
}

// Func adapts a plain function to Evaluator.
type Func func(state *game.GameState, you string) Score

func (f Func) Evaluate(state *game.GameState, you string) Score { return f(state, you) }

// Terminal reports the fixed score of a decided state: Min when you are
// eliminated (or absent), Max when you survive every opponent. A solo game is
// never won, only lost.
func Terminal(state *game.GameState, you string) (Score, bool) {
	if !state.IsAlive(you) {
		return Min(), true
	}
	if len(state.Snakes) > 1 && state.AliveCount() == 1 {
		return Max(), true
	}
	return Score{}, false
}

// LengthFood is the reference heuristic: maximise length, then minimise the
// distance from the head to the nearest food.
type LengthFood struct{}

func (LengthFood) Evaluate(state *game.GameState, you string) Score {
	if s, ok := Terminal(state, you); ok {
		return s
	}
	head, _ := state.Head(you)
	return Score{
		Outcome: Ongoing,
		Keys:    [NumKeys]int32{int32(state.Length(you)), foodKey(state, head), 0},
	}
}

// foodKey is the negated distance to the nearest food, or MinInt32 without food.
func foodKey(state *game.GameState, head game.Point) int32 {
	best := int32(math.MaxInt32)
	for _, f := range state.Food {
		if d := game.Manhattan(head, f); d < best {
			best = d
		}
	}
	if best == math.MaxInt32 {
		return math.MinInt32
	}
	return -best
}

// ByName resolves an evaluator from configuration.
func ByName(name string) (Evaluator, error) {
	switch name {
	case "", "length-food":
		return LengthFood{}, nil
	case "space":
		return SpaceControl{}, nil
	}
	return nil, fmt.Errorf("unknown evaluator %q", name)
}
