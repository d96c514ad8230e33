// Package game defines the board state model for Battlesnake.
//
// A GameState is treated as an immutable value once built: the rules package
// derives successor states instead of editing one in place, so search nodes can
// branch freely without aliasing each other.
package game

import (
	"errors"
	"fmt"
	"strings"
)

const (
	BoardWidth  = 11
	BoardHeight = 11
	MaxSnakes   = 4
	MaxHealth   = 100
)

// ErrInvalidSnapshot is returned when a snapshot cannot form a valid GameState.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Elimination causes, named as the official engine names them.
const (
	NotEliminated         = ""
	EliminatedByWall      = "wall-collision"
	EliminatedByHealth    = "out-of-health"
	EliminatedBySelf      = "snake-self-collision"
	EliminatedByCollision = "snake-collision"
	EliminatedByHead      = "head-collision"
)

// Point is a board coordinate.
// Coordinates follow Battlesnake conventions: (0,0) is bottom-left.
type Point struct {
	X int32
	Y int32
}

// Step returns the neighbouring point in direction d.
func (p Point) Step(d Direction) Point {
	switch d {
	case Up:
		p.Y++
	case Down:
		p.Y--
	case Left:
		p.X--
	case Right:
		p.X++
	}
	return p
}

// Manhattan returns the grid distance between a and b.
func Manhattan(a, b Point) int32 {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func abs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

type Snake struct {
	Id     string
	Health int32
	Body   []Point

	// EliminatedCause is empty while the snake is in play.
	EliminatedCause string
	EliminatedTurn  int32
}

func (s *Snake) Alive() bool {
	return s.EliminatedCause == NotEliminated && s.Health > 0 && len(s.Body) > 0
}

func (s *Snake) Head() Point { return s.Body[0] }

func (s *Snake) Length() int { return len(s.Body) }

// GameState is the complete state needed for rules and search.
// YouId selects the snake the engine is maximising for.
type GameState struct {
	Width   int32
	Height  int32
	Snakes  []Snake
	Food    []Point
	Hazards []Point
	YouId   string
	Turn    int32
}

// Snake returns the snake with the given id, or nil.
func (s *GameState) Snake(id string) *Snake {
	for i := range s.Snakes {
		if s.Snakes[i].Id == id {
			return &s.Snakes[i]
		}
	}
	return nil
}

// Head returns the head of a living snake.
func (s *GameState) Head(id string) (Point, bool) {
	sn := s.Snake(id)
	if sn == nil || !sn.Alive() {
		return Point{}, false
	}
	return sn.Head(), true
}

// Length returns the body length of a living snake, or 0.
func (s *GameState) Length(id string) int {
	sn := s.Snake(id)
	if sn == nil || !sn.Alive() {
		return 0
	}
	return sn.Length()
}

func (s *GameState) IsAlive(id string) bool {
	sn := s.Snake(id)
	return sn != nil && sn.Alive()
}

func (s *GameState) AliveCount() int {
	n := 0
	for i := range s.Snakes {
		if s.Snakes[i].Alive() {
			n++
		}
	}
	return n
}

// Opponents returns the indices of living snakes other than id, in slice order.
func (s *GameState) Opponents(id string) []int {
	var out []int
	for i := range s.Snakes {
		if s.Snakes[i].Id != id && s.Snakes[i].Alive() {
			out = append(out, i)
		}
	}
	return out
}

func (s *GameState) InBounds(p Point) bool {
	return p.X >= 0 && p.X < s.Width && p.Y >= 0 && p.Y < s.Height
}

func (s *GameState) HasFood(p Point) bool {
	for _, f := range s.Food {
		if f == p {
			return true
		}
	}
	return false
}

// Validate checks the snapshot invariants. Every failure wraps ErrInvalidSnapshot.
func (s *GameState) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil state", ErrInvalidSnapshot)
	}
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: board size %dx%d", ErrInvalidSnapshot, s.Width, s.Height)
	}
	if len(s.Snakes) > MaxSnakes {
		return fmt.Errorf("%w: %d snakes, at most %d supported", ErrInvalidSnapshot, len(s.Snakes), MaxSnakes)
	}

	seen := make(map[string]struct{}, len(s.Snakes))
	for _, sn := range s.Snakes {
		if sn.Id == "" {
			return fmt.Errorf("%w: snake with empty id", ErrInvalidSnapshot)
		}
		if _, dup := seen[sn.Id]; dup {
			return fmt.Errorf("%w: duplicate snake id %q", ErrInvalidSnapshot, sn.Id)
		}
		seen[sn.Id] = struct{}{}

		if len(sn.Body) == 0 {
			return fmt.Errorf("%w: snake %q has an empty body", ErrInvalidSnapshot, sn.Id)
		}
		if sn.Health < 0 || sn.Health > MaxHealth {
			return fmt.Errorf("%w: snake %q health %d", ErrInvalidSnapshot, sn.Id, sn.Health)
		}
		for i, p := range sn.Body {
			// An eliminated snake keeps the head it died with, which may be off
			// the board.
			if i == 0 && sn.EliminatedCause != NotEliminated {
				continue
			}
			if !s.InBounds(p) {
				return fmt.Errorf("%w: snake %q cell (%d,%d) out of bounds", ErrInvalidSnapshot, sn.Id, p.X, p.Y)
			}
		}
	}

	for _, f := range s.Food {
		if !s.InBounds(f) {
			return fmt.Errorf("%w: food (%d,%d) out of bounds", ErrInvalidSnapshot, f.X, f.Y)
		}
	}
	for _, h := range s.Hazards {
		if !s.InBounds(h) {
			return fmt.Errorf("%w: hazard (%d,%d) out of bounds", ErrInvalidSnapshot, h.X, h.Y)
		}
	}
	return nil
}

// Clone performs a deep copy of the game state.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}

	out := &GameState{
		Width:  s.Width,
		Height: s.Height,
		YouId:  s.YouId,
		Turn:   s.Turn,
	}

	if len(s.Food) > 0 {
		out.Food = make([]Point, len(s.Food))
		copy(out.Food, s.Food)
	}
	if len(s.Hazards) > 0 {
		out.Hazards = make([]Point, len(s.Hazards))
		copy(out.Hazards, s.Hazards)
	}

	if len(s.Snakes) > 0 {
		out.Snakes = make([]Snake, len(s.Snakes))
		for i := range s.Snakes {
			out.Snakes[i] = s.Snakes[i]
			out.Snakes[i].Body = nil
			if len(s.Snakes[i].Body) > 0 {
				out.Snakes[i].Body = make([]Point, len(s.Snakes[i].Body))
				copy(out.Snakes[i].Body, s.Snakes[i].Body)
			}
		}
	}

	return out
}

// String renders the board top row first. Heads are upper case letters, bodies
// lower case, food '*', hazards '~'. Only living snakes are drawn.
func (s *GameState) String() string {
	if s == nil {
		return "<nil state>"
	}
	w, h := int(s.Width), int(s.Height)
	grid := make([][]byte, h)
	for y := range grid {
		grid[y] = []byte(strings.Repeat(".", w))
	}
	put := func(p Point, c byte) {
		if s.InBounds(p) {
			grid[p.Y][p.X] = c
		}
	}
	for _, hz := range s.Hazards {
		put(hz, '~')
	}
	for _, f := range s.Food {
		put(f, '*')
	}
	for i := len(s.Snakes) - 1; i >= 0; i-- {
		sn := &s.Snakes[i]
		if !sn.Alive() {
			continue
		}
		sym := byte('a' + i)
		for j := len(sn.Body) - 1; j >= 0; j-- {
			if j == 0 {
				put(sn.Body[j], sym-32)
			} else {
				put(sn.Body[j], sym)
			}
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "turn=%d you=%s\n", s.Turn, s.YouId)
	for y := h - 1; y >= 0; y-- {
		sb.Write(grid[y])
		sb.WriteByte('\n')
	}
	return sb.String()
}
