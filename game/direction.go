package game

import "fmt"

// Direction is a single-step move. The numeric values match the policy index
// convention used everywhere else: 0=Up, 1=Down, 2=Left, 3=Right.
type Direction int8

const (
	Up Direction = iota
	Down
	Left
	Right

	// NoMove marks an eliminated snake in a joint move.
	NoMove Direction = -1
)

// Directions lists every move in canonical order. Ties are broken in this order.
var Directions = [4]Direction{Up, Down, Left, Right}

func (d Direction) Valid() bool { return d >= Up && d <= Right }

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	case NoMove:
		return "none"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return NoMove, fmt.Errorf("unknown direction %q", s)
}

// DirectionBetween returns the single step that moves from a to b.
func DirectionBetween(a, b Point) (Direction, bool) {
	for _, d := range Directions {
		if a.Step(d) == b {
			return d, true
		}
	}
	return NoMove, false
}
