package rules

import (
	"errors"
	"fmt"

	"github.com/brensch/snekmax/game"
)

// ErrInvariantViolation marks a caller bug, such as moving an eliminated snake.
// It never describes a board condition.
var ErrInvariantViolation = errors.New("invariant violation")

// Ruleset holds the rule variant knobs that affect transitions.
type Ruleset struct {
	// HazardDamagePerTurn is extra damage for ending a turn on a hazard
	// without eating. Zero ignores hazards.
	HazardDamagePerTurn int32
}

// Standard is the default ruleset: hazards deal no damage.
var Standard = Ruleset{}

// NextState advances the game with one move per snake using the standard ruleset.
func NextState(state *game.GameState, moves []game.Direction) (*game.GameState, error) {
	return Standard.NextState(state, moves)
}

// Moves returns the candidate directions for a snake. A living snake may always
// try all four directions, including ones that kill it; an eliminated or
// unknown snake has none.
func Moves(state *game.GameState, id string) []game.Direction {
	s := state.Snake(id)
	if s == nil || !s.Alive() {
		return nil
	}
	out := make([]game.Direction, len(game.Directions))
	copy(out, game.Directions[:])
	return out
}

// SafeMoves filters Moves down to destinations that are on the board and not
// part of a body that will still be there next turn. Tails move unless stacked.
func SafeMoves(state *game.GameState, id string) []game.Direction {
	you := state.Snake(id)
	if you == nil || !you.Alive() {
		return nil
	}

	head := you.Head()
	var out []game.Direction
	for _, d := range game.Directions {
		p := head.Step(d)
		if !state.InBounds(p) || occupiedNextTurn(state, p) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func occupiedNextTurn(state *game.GameState, p game.Point) bool {
	for i := range state.Snakes {
		s := &state.Snakes[i]
		if !s.Alive() {
			continue
		}
		body := s.Body
		if n := len(body); n > 1 && body[n-1] != body[n-2] {
			body = body[:n-1]
		}
		if contains(body, p) {
			return true
		}
	}
	return false
}

// JointMove lays out per-id moves index-aligned with state.Snakes, using
// NoMove for eliminated snakes. Living snakes missing from byID get NoMove too,
// which NextState rejects.
func JointMove(state *game.GameState, byID map[string]game.Direction) []game.Direction {
	moves := make([]game.Direction, len(state.Snakes))
	for i := range state.Snakes {
		moves[i] = game.NoMove
		if !state.Snakes[i].Alive() {
			continue
		}
		if d, ok := byID[state.Snakes[i].Id]; ok {
			moves[i] = d
		}
	}
	return moves
}

// NextState applies a joint move, index-aligned with state.Snakes, and returns
// the successor. The input state is not modified.
//
// Order: move heads (tails drop unless eating), feed and apply health, then
// eliminate starved and out-of-bounds snakes, then resolve body and
// head-to-head collisions. Collisions are evaluated on the post-move board and
// applied together, so eliminations within one turn never cascade.
func (r Ruleset) NextState(state *game.GameState, moves []game.Direction) (*game.GameState, error) {
	if len(moves) != len(state.Snakes) {
		return nil, fmt.Errorf("%w: %d moves for %d snakes", ErrInvariantViolation, len(moves), len(state.Snakes))
	}
	for i := range state.Snakes {
		s := &state.Snakes[i]
		switch alive := s.Alive(); {
		case !alive && moves[i] != game.NoMove:
			return nil, fmt.Errorf("%w: move %s for eliminated snake %q", ErrInvariantViolation, moves[i], s.Id)
		case alive && !moves[i].Valid():
			return nil, fmt.Errorf("%w: snake %q has no move", ErrInvariantViolation, s.Id)
		}
	}

	next := &game.GameState{
		Width:   state.Width,
		Height:  state.Height,
		Hazards: state.Hazards,
		YouId:   state.YouId,
		Turn:    state.Turn + 1,
		Snakes:  make([]game.Snake, len(state.Snakes)),
	}

	// 1-2. Move and feed.
	eaten := make([]bool, len(state.Food))
	for i := range state.Snakes {
		prev := &state.Snakes[i]
		next.Snakes[i] = *prev
		if !prev.Alive() {
			continue
		}

		head := prev.Head().Step(moves[i])
		ate := false
		for fi, f := range state.Food {
			if f == head {
				ate = true
				eaten[fi] = true
			}
		}

		body := make([]game.Point, 0, len(prev.Body)+1)
		body = append(body, head)
		if ate {
			body = append(body, prev.Body...)
		} else {
			body = append(body, prev.Body[:len(prev.Body)-1]...)
		}

		s := &next.Snakes[i]
		s.Body = body
		if ate {
			s.Health = game.MaxHealth
			continue
		}
		s.Health--
		if r.HazardDamagePerTurn > 0 && contains(state.Hazards, head) {
			s.Health -= r.HazardDamagePerTurn
		}
		if s.Health < 0 {
			s.Health = 0
		}
	}

	next.Food = make([]game.Point, 0, len(state.Food))
	for fi, f := range state.Food {
		if !eaten[fi] {
			next.Food = append(next.Food, f)
		}
	}

	// 3. Starvation and walls.
	for i := range next.Snakes {
		s := &next.Snakes[i]
		if !state.Snakes[i].Alive() {
			continue
		}
		switch {
		case s.Health <= 0:
			eliminate(s, game.EliminatedByHealth, next.Turn)
		case !next.InBounds(s.Head()):
			eliminate(s, game.EliminatedByWall, next.Turn)
		}
	}

	// 4-5. Collisions, collected first and applied together.
	causes := make([]string, len(next.Snakes))
	for i := range next.Snakes {
		s := &next.Snakes[i]
		if !s.Alive() {
			continue
		}
		causes[i] = collisionCause(next, i)
	}
	for i, cause := range causes {
		if cause != game.NotEliminated {
			eliminate(&next.Snakes[i], cause, next.Turn)
		}
	}

	return next, nil
}

func collisionCause(state *game.GameState, i int) string {
	s := &state.Snakes[i]
	head := s.Head()

	if contains(s.Body[1:], head) {
		return game.EliminatedBySelf
	}
	for j := range state.Snakes {
		other := &state.Snakes[j]
		if j == i || !other.Alive() {
			continue
		}
		if contains(other.Body[1:], head) {
			return game.EliminatedByCollision
		}
	}
	// A head-to-head is lost against any snake at least as long, so only a
	// strictly longest snake survives a shared cell.
	for j := range state.Snakes {
		other := &state.Snakes[j]
		if j == i || !other.Alive() {
			continue
		}
		if other.Head() == head && s.Length() <= other.Length() {
			return game.EliminatedByHead
		}
	}
	return game.NotEliminated
}

func eliminate(s *game.Snake, cause string, turn int32) {
	s.EliminatedCause = cause
	s.EliminatedTurn = turn
}

func contains(points []game.Point, p game.Point) bool {
	for _, q := range points {
		if q == p {
			return true
		}
	}
	return false
}

// IsGameOver reports whether the game has finished: at most one snake left in
// a multi-snake game, or none left in a solo game.
func IsGameOver(state *game.GameState) bool {
	alive := state.AliveCount()
	if len(state.Snakes) <= 1 {
		return alive == 0
	}
	return alive <= 1
}

// Winner returns the id of the last living snake, or "" for a draw or an
// unfinished game.
func Winner(state *game.GameState) string {
	if !IsGameOver(state) {
		return ""
	}
	for i := range state.Snakes {
		if state.Snakes[i].Alive() {
			return state.Snakes[i].Id
		}
	}
	return ""
}
