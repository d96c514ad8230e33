package rules

import (
	"errors"
	"testing"

	"github.com/brensch/snekmax/game"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func logNextState(t *testing.T, name string, before *game.GameState, moves []game.Direction, after *game.GameState) {
	t.Helper()
	t.Logf("=== %s ===\nBefore:\n%sMoves: %v\nAfter:\n%s", name, before, moves, after)
}

func step(t *testing.T, name string, before *game.GameState, moves ...game.Direction) *game.GameState {
	t.Helper()
	after, err := NextState(before, moves)
	require.NoError(t, err)
	logNextState(t, name, before, moves, after)
	return after
}

func TestMoves(t *testing.T) {
	state := &game.GameState{
		Width:  game.BoardWidth,
		Height: game.BoardHeight,
		Snakes: []game.Snake{
			{Id: "a", Health: 10, Body: []game.Point{{X: 0, Y: 0}}},
			{Id: "b", Health: 0, Body: []game.Point{{X: 5, Y: 5}}},
		},
	}
	require.Equal(t, []game.Direction{game.Up, game.Down, game.Left, game.Right}, Moves(state, "a"))
	require.Empty(t, Moves(state, "b"))
	require.Empty(t, Moves(state, "nobody"))
}

func TestSafeMoves(t *testing.T) {
	state := &game.GameState{
		Width:  game.BoardWidth,
		Height: game.BoardHeight,
		Snakes: []game.Snake{
			// Head in the corner, neck above it.
			{Id: "a", Health: 10, Body: []game.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: 2}}},
			// Moving tail at (1,0) will be gone next turn.
			{Id: "b", Health: 10, Body: []game.Point{{X: 3, Y: 0}, {X: 2, Y: 0}, {X: 1, Y: 0}}},
		},
	}
	require.Equal(t, []game.Direction{game.Right}, SafeMoves(state, "a"))

	// A stacked tail stays put.
	state.Snakes[1].Body = []game.Point{{X: 2, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 0}}
	require.Empty(t, SafeMoves(state, "a"))
}

func TestNextState_SingleMove(t *testing.T) {
	before := &game.GameState{
		Width:  game.BoardWidth,
		Height: game.BoardHeight,
		YouId:  "me",
		Snakes: []game.Snake{{Id: "me", Health: 50, Body: []game.Point{{X: 5, Y: 5}, {X: 5, Y: 6}}}},
	}

	after := step(t, "move right", before, game.Right)

	me := after.Snake("me")
	require.True(t, me.Alive())
	require.Equal(t, []game.Point{{X: 6, Y: 5}, {X: 5, Y: 5}}, me.Body)
	require.Equal(t, int32(49), me.Health)
	require.Equal(t, int32(1), after.Turn)

	// The input is untouched.
	require.Equal(t, []game.Point{{X: 5, Y: 5}, {X: 5, Y: 6}}, before.Snakes[0].Body)
	require.Equal(t, int32(50), before.Snakes[0].Health)
	require.Equal(t, int32(0), before.Turn)
}

func TestNextState_EatFood(t *testing.T) {
	before := &game.GameState{
		Width:  game.BoardWidth,
		Height: game.BoardHeight,
		YouId:  "me",
		Snakes: []game.Snake{{Id: "me", Health: 30, Body: []game.Point{{X: 4, Y: 4}, {X: 3, Y: 4}, {X: 2, Y: 4}}}},
		Food:   []game.Point{{X: 5, Y: 4}, {X: 9, Y: 9}},
	}

	after := step(t, "eat food", before, game.Right)

	me := after.Snake("me")
	require.Equal(t, int32(game.MaxHealth), me.Health)
	require.Equal(t, []game.Point{{X: 5, Y: 4}, {X: 4, Y: 4}, {X: 3, Y: 4}, {X: 2, Y: 4}}, me.Body)
	require.Equal(t, []game.Point{{X: 9, Y: 9}}, after.Food)
	require.Len(t, before.Food, 2)
}

func TestNextState_StackedSpawnEat(t *testing.T) {
	before := &game.GameState{
		Width:  7,
		Height: 7,
		Snakes: []game.Snake{{Id: "me", Health: 10, Body: []game.Point{{X: 1, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 1}}}},
		Food:   []game.Point{{X: 1, Y: 2}},
	}

	after := step(t, "stacked spawn eat", before, game.Up)

	require.Equal(t, []game.Point{{X: 1, Y: 2}, {X: 1, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 1}}, after.Snakes[0].Body)
	require.True(t, after.Snakes[0].Alive())
}

func TestNextState_OutOfBounds(t *testing.T) {
	for _, d := range []game.Direction{game.Left, game.Down} {
		before := &game.GameState{
			Width:  game.BoardWidth,
			Height: game.BoardHeight,
			Snakes: []game.Snake{{Id: "me", Health: 90, Body: []game.Point{{X: 0, Y: 0}, {X: 1, Y: 0}}}},
		}
		after := step(t, "out of bounds "+d.String(), before, d)
		require.False(t, after.Snakes[0].Alive())
		require.Equal(t, game.EliminatedByWall, after.Snakes[0].EliminatedCause)
		require.Equal(t, int32(1), after.Snakes[0].EliminatedTurn)
	}
}

func TestNextState_Starvation(t *testing.T) {
	before := &game.GameState{
		Width:  game.BoardWidth,
		Height: game.BoardHeight,
		Snakes: []game.Snake{{Id: "me", Health: 1, Body: []game.Point{{X: 3, Y: 3}, {X: 3, Y: 2}}}},
		Food:   []game.Point{{X: 8, Y: 8}},
	}
	after := step(t, "starve", before, game.Up)
	require.Equal(t, game.EliminatedByHealth, after.Snakes[0].EliminatedCause)

	// Eating on the last point of health saves the snake.
	before.Food = []game.Point{{X: 3, Y: 4}}
	after = step(t, "eat on last health", before, game.Up)
	require.True(t, after.Snakes[0].Alive())
	require.Equal(t, int32(game.MaxHealth), after.Snakes[0].Health)
}

func TestNextState_Hazards(t *testing.T) {
	before := &game.GameState{
		Width:   game.BoardWidth,
		Height:  game.BoardHeight,
		Snakes:  []game.Snake{{Id: "me", Health: 20, Body: []game.Point{{X: 3, Y: 3}, {X: 3, Y: 2}}}},
		Hazards: []game.Point{{X: 3, Y: 4}},
	}

	after := step(t, "hazard ignored", before, game.Up)
	require.Equal(t, int32(19), after.Snakes[0].Health)

	after, err := Ruleset{HazardDamagePerTurn: 14}.NextState(before, []game.Direction{game.Up})
	require.NoError(t, err)
	require.Equal(t, int32(5), after.Snakes[0].Health)

	after, err = Ruleset{HazardDamagePerTurn: 19}.NextState(before, []game.Direction{game.Up})
	require.NoError(t, err)
	require.Equal(t, game.EliminatedByHealth, after.Snakes[0].EliminatedCause)
}

func TestNextState_SelfCollision(t *testing.T) {
	before := &game.GameState{
		Width:  game.BoardWidth,
		Height: game.BoardHeight,
		Snakes: []game.Snake{{Id: "me", Health: 50, Body: []game.Point{
			{X: 5, Y: 5}, {X: 5, Y: 4}, {X: 6, Y: 4}, {X: 6, Y: 5}, {X: 6, Y: 6},
		}}},
	}
	after := step(t, "self collision", before, game.Right)
	require.Equal(t, game.EliminatedBySelf, after.Snakes[0].EliminatedCause)

	// Back into the neck is a self collision too.
	after = step(t, "neck", before, game.Down)
	require.Equal(t, game.EliminatedBySelf, after.Snakes[0].EliminatedCause)
}

func TestNextState_TailChase(t *testing.T) {
	before := &game.GameState{
		Width:  game.BoardWidth,
		Height: game.BoardHeight,
		Snakes: []game.Snake{{Id: "me", Health: 50, Body: []game.Point{
			{X: 5, Y: 5}, {X: 5, Y: 4}, {X: 6, Y: 4}, {X: 6, Y: 5},
		}}},
	}
	after := step(t, "tail chase", before, game.Right)
	require.True(t, after.Snakes[0].Alive())
}

func TestNextState_BodyCollision(t *testing.T) {
	before := &game.GameState{
		Width:  game.BoardWidth,
		Height: game.BoardHeight,
		Snakes: []game.Snake{
			{Id: "a", Health: 50, Body: []game.Point{{X: 2, Y: 5}, {X: 1, Y: 5}}},
			{Id: "b", Health: 50, Body: []game.Point{{X: 3, Y: 6}, {X: 3, Y: 5}, {X: 3, Y: 4}}},
		},
	}
	after := step(t, "body collision", before, game.Right, game.Up)
	require.Equal(t, game.EliminatedByCollision, after.Snakes[0].EliminatedCause)
	require.True(t, after.Snakes[1].Alive())
}

func TestNextState_HeadToHead(t *testing.T) {
	equal := &game.GameState{
		Width:  game.BoardWidth,
		Height: game.BoardHeight,
		Snakes: []game.Snake{
			{Id: "a", Health: 50, Body: []game.Point{{X: 4, Y: 5}, {X: 3, Y: 5}, {X: 2, Y: 5}}},
			{Id: "b", Health: 50, Body: []game.Point{{X: 6, Y: 5}, {X: 7, Y: 5}, {X: 8, Y: 5}}},
		},
	}
	after := step(t, "equal head-to-head", equal, game.Right, game.Left)
	require.Equal(t, game.EliminatedByHead, after.Snakes[0].EliminatedCause)
	require.Equal(t, game.EliminatedByHead, after.Snakes[1].EliminatedCause)
	require.True(t, IsGameOver(after))
	require.Equal(t, "", Winner(after))

	longer := equal.Clone()
	longer.Snakes[1].Body = append(longer.Snakes[1].Body, game.Point{X: 9, Y: 5})
	after = step(t, "longer wins head-to-head", longer, game.Right, game.Left)
	require.Equal(t, game.EliminatedByHead, after.Snakes[0].EliminatedCause)
	require.True(t, after.Snakes[1].Alive())
	require.Equal(t, "b", Winner(after))
}

func TestNextState_ThreeWayHeadToHead(t *testing.T) {
	// Two short snakes and one long snake meet on (5,5).
	before := &game.GameState{
		Width:  game.BoardWidth,
		Height: game.BoardHeight,
		Snakes: []game.Snake{
			{Id: "a", Health: 50, Body: []game.Point{{X: 4, Y: 5}, {X: 3, Y: 5}}},
			{Id: "b", Health: 50, Body: []game.Point{{X: 6, Y: 5}, {X: 7, Y: 5}}},
			{Id: "c", Health: 50, Body: []game.Point{{X: 5, Y: 4}, {X: 5, Y: 3}, {X: 5, Y: 2}}},
		},
	}
	after := step(t, "three way", before, game.Right, game.Left, game.Up)
	require.False(t, after.Snakes[0].Alive())
	require.False(t, after.Snakes[1].Alive())
	require.True(t, after.Snakes[2].Alive())

	// Tied for longest: everyone on the cell is eliminated.
	before.Snakes[1].Body = append(before.Snakes[1].Body, game.Point{X: 8, Y: 5})
	after = step(t, "three way tie", before, game.Right, game.Left, game.Up)
	require.False(t, after.Snakes[0].Alive())
	require.False(t, after.Snakes[1].Alive())
	require.False(t, after.Snakes[2].Alive())
}

func TestNextState_SimultaneousEliminations(t *testing.T) {
	// a leaves the board while b moves onto a's body. Snakes eliminated by walls
	// or starvation are out of play before collisions are checked.
	before := &game.GameState{
		Width:  game.BoardWidth,
		Height: game.BoardHeight,
		Snakes: []game.Snake{
			{Id: "a", Health: 50, Body: []game.Point{{X: 1, Y: 0}, {X: 1, Y: 1}, {X: 1, Y: 2}}},
			{Id: "b", Health: 50, Body: []game.Point{{X: 2, Y: 1}, {X: 3, Y: 1}}},
			{Id: "c", Health: 50, Body: []game.Point{{X: 0, Y: 5}, {X: 0, Y: 6}}},
		},
	}
	after := step(t, "simultaneous", before, game.Down, game.Left, game.Right)
	require.Equal(t, game.EliminatedByWall, after.Snakes[0].EliminatedCause)
	require.True(t, after.Snakes[1].Alive())
	require.True(t, after.Snakes[2].Alive())

	// Two snakes moving into each other's bodies are both eliminated.
	cross := &game.GameState{
		Width:  game.BoardWidth,
		Height: game.BoardHeight,
		Snakes: []game.Snake{
			{Id: "a", Health: 50, Body: []game.Point{{X: 4, Y: 4}, {X: 4, Y: 3}, {X: 4, Y: 2}}},
			{Id: "b", Health: 50, Body: []game.Point{{X: 5, Y: 3}, {X: 5, Y: 4}, {X: 5, Y: 5}}},
		},
	}
	after = step(t, "cross", cross, game.Right, game.Left)
	require.Equal(t, game.EliminatedByCollision, after.Snakes[0].EliminatedCause)
	require.Equal(t, game.EliminatedByCollision, after.Snakes[1].EliminatedCause)
}

func TestNextState_InvariantViolations(t *testing.T) {
	state := &game.GameState{
		Width:  game.BoardWidth,
		Height: game.BoardHeight,
		Snakes: []game.Snake{
			{Id: "a", Health: 50, Body: []game.Point{{X: 4, Y: 4}}},
			{Id: "b", Health: 50, Body: []game.Point{{X: 6, Y: 6}}, EliminatedCause: game.EliminatedByWall},
		},
	}

	cases := map[string][]game.Direction{
		"eliminated snake moved": {game.Up, game.Up},
		"missing move":           {game.NoMove, game.NoMove},
		"length mismatch":        {game.Up},
		"bad direction":          {game.Direction(9), game.NoMove},
	}
	for name, moves := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NextState(state, moves)
			require.True(t, errors.Is(err, ErrInvariantViolation), "got %v", err)
		})
	}

	after, err := NextState(state, []game.Direction{game.Up, game.NoMove})
	require.NoError(t, err)
	// Eliminated snakes keep their cause and body untouched.
	require.Equal(t, game.EliminatedByWall, after.Snakes[1].EliminatedCause)
	require.Equal(t, []game.Point{{X: 6, Y: 6}}, after.Snakes[1].Body)
}

func TestJointMove(t *testing.T) {
	state := &game.GameState{
		Width:  game.BoardWidth,
		Height: game.BoardHeight,
		Snakes: []game.Snake{
			{Id: "a", Health: 50, Body: []game.Point{{X: 4, Y: 4}}},
			{Id: "b", Health: 0, Body: []game.Point{{X: 6, Y: 6}}},
			{Id: "c", Health: 50, Body: []game.Point{{X: 8, Y: 8}}},
		},
	}
	moves := JointMove(state, map[string]game.Direction{"a": game.Left, "b": game.Up, "c": game.Down})
	require.Equal(t, []game.Direction{game.Left, game.NoMove, game.Down}, moves)
}

func TestApplyFood(t *testing.T) {
	state := &game.GameState{
		Width:  5,
		Height: 5,
		Snakes: []game.Snake{{Id: "me", Health: 100, Body: []game.Point{{X: 2, Y: 2}, {X: 2, Y: 2}, {X: 2, Y: 2}}}},
	}
	rng := rand.New(rand.NewSource(7))

	ApplyFood(state, rng, FoodSettings{MinimumFood: 3})
	require.Len(t, state.Food, 3)
	for _, f := range state.Food {
		require.NotEqual(t, game.Point{X: 2, Y: 2}, f)
	}

	shared := state.Food
	sibling := &game.GameState{Width: 5, Height: 5, Food: shared}
	ApplyFood(state, rng, FoodSettings{FoodSpawnChance: 100})
	require.Len(t, state.Food, 4)
	require.Len(t, sibling.Food, 3)
	require.Equal(t, shared, sibling.Food)
}

func TestStandardStart(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}
	state := StandardStart(ids, rand.New(rand.NewSource(42)))
	t.Logf("start:\n%s", state)

	require.NoError(t, state.Validate())
	require.Len(t, state.Snakes, 4)
	require.Len(t, state.Food, 5)
	require.True(t, state.HasFood(game.Point{X: 5, Y: 5}))
	for _, s := range state.Snakes {
		require.Len(t, s.Body, 3)
		require.Equal(t, s.Body[0], s.Body[2])
		require.Equal(t, int32(game.MaxHealth), s.Health)
	}
}
