package eval

import "github.com/brensch/snekmax/game"

// SpaceControl ranks by length, then by the number of cells you reach strictly
// before every opponent (a Voronoi partition grown by simultaneous BFS from
// each head), then by food distance.
type SpaceControl struct{}

func (SpaceControl) Evaluate(state *game.GameState, you string) Score {
	if s, ok := Terminal(state, you); ok {
		return s
	}
	head, _ := state.Head(you)
	return Score{
		Outcome: Ongoing,
		Keys: [NumKeys]int32{
			int32(state.Length(you)),
			int32(territory(state, you)),
			foodKey(state, head),
		},
	}
}

const (
	unclaimed = -1
	contested = -2
)

// territory counts the cells owned by you in a simultaneous flood fill. Body
// cells block the fill, except tails that move away next turn.
func territory(state *game.GameState, you string) int {
	w, h := int(state.Width), int(state.Height)
	owner := make([]int, w*h)
	dist := make([]int, w*h)
	for i := range owner {
		owner[i] = unclaimed
	}
	idx := func(p game.Point) int { return int(p.Y)*w + int(p.X) }

	for i := range state.Snakes {
		s := &state.Snakes[i]
		if !s.Alive() {
			continue
		}
		body := s.Body
		if n := len(body); n > 1 && body[n-1] != body[n-2] {
			body = body[:n-1]
		}
		for _, p := range body[1:] {
			owner[idx(p)] = contested
		}
	}

	var frontier []game.Point
	youIndex := -1
	for i := range state.Snakes {
		s := &state.Snakes[i]
		if !s.Alive() {
			continue
		}
		if s.Id == you {
			youIndex = i
		}
		p := s.Head()
		k := idx(p)
		if owner[k] == unclaimed {
			owner[k] = i
		} else {
			owner[k] = contested
		}
		frontier = append(frontier, p)
	}

	for depth := 1; len(frontier) > 0; depth++ {
		var next []game.Point
		for _, p := range frontier {
			from := owner[idx(p)]
			if from < 0 {
				continue
			}
			for _, d := range game.Directions {
				q := p.Step(d)
				if !state.InBounds(q) {
					continue
				}
				k := idx(q)
				switch {
				case owner[k] == unclaimed:
					owner[k] = from
					dist[k] = depth
					next = append(next, q)
				case owner[k] >= 0 && owner[k] != from && dist[k] == depth:
					owner[k] = contested
				}
			}
		}
		frontier = next
	}

	n := 0
	for _, o := range owner {
		if o == youIndex {
			n++
		}
	}
	return n
}
