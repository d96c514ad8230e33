package rules

import (
	"github.com/brensch/snekmax/game"
	"golang.org/x/exp/rand"
)

// FoodSettings matches the common Battlesnake server knobs:
//   - MinimumFood: ensure at least this many food items exist after each turn
//   - FoodSpawnChance: percentage chance (0-100) to spawn one extra food each turn
//
// Food spawning only happens in local play. The search never spawns food, so
// its successor states stay deterministic.
type FoodSettings struct {
	MinimumFood     int
	FoodSpawnChance int
}

var DefaultFoodSettings = FoodSettings{MinimumFood: 1, FoodSpawnChance: 15}

// ApplyFood spawns food on free cells of state according to settings; rng must
// be non-nil. It only ever replaces state.Food, never writes into its backing
// array, so states sharing a food slice are unaffected.
func ApplyFood(state *game.GameState, rng *rand.Rand, settings FoodSettings) {
	if state == nil || state.Width <= 0 || state.Height <= 0 {
		return
	}
	if settings.MinimumFood < 0 {
		settings.MinimumFood = 0
	}
	if settings.FoodSpawnChance > 100 {
		settings.FoodSpawnChance = 100
	}

	toSpawn := settings.MinimumFood - len(state.Food)
	if toSpawn < 0 {
		toSpawn = 0
	}
	if settings.FoodSpawnChance > 0 && rng.Intn(100) < settings.FoodSpawnChance {
		toSpawn++
	}
	if toSpawn == 0 {
		return
	}

	available := freeCells(state)
	food := make([]game.Point, len(state.Food), len(state.Food)+toSpawn)
	copy(food, state.Food)
	for ; toSpawn > 0 && len(available) > 0; toSpawn-- {
		i := rng.Intn(len(available))
		food = append(food, available[i])
		available[i] = available[len(available)-1]
		available = available[:len(available)-1]
	}
	state.Food = food
}

func freeCells(state *game.GameState) []game.Point {
	occupied := make(map[game.Point]struct{}, int(state.Width*state.Height))
	for i := range state.Snakes {
		if !state.Snakes[i].Alive() {
			continue
		}
		for _, p := range state.Snakes[i].Body {
			occupied[p] = struct{}{}
		}
	}
	for _, f := range state.Food {
		occupied[f] = struct{}{}
	}

	available := make([]game.Point, 0, int(state.Width*state.Height)-len(occupied))
	for y := int32(0); y < state.Height; y++ {
		for x := int32(0); x < state.Width; x++ {
			p := game.Point{X: x, Y: y}
			if _, ok := occupied[p]; !ok {
				available = append(available, p)
			}
		}
	}
	return available
}

// StandardStart builds the official 11x11 opening: stacked length-3 snakes on
// shuffled corner or cardinal spawn points, one food diagonal to each snake
// away from the centre, and one food in the centre.
func StandardStart(ids []string, rng *rand.Rand) *game.GameState {
	state := &game.GameState{
		Width:  game.BoardWidth,
		Height: game.BoardHeight,
	}
	if len(ids) > 0 {
		state.YouId = ids[0]
	}

	lo, mid, hi := int32(1), int32((game.BoardWidth-1)/2), int32(game.BoardWidth-2)
	spawns := []game.Point{{X: lo, Y: lo}, {X: lo, Y: hi}, {X: hi, Y: lo}, {X: hi, Y: hi}}
	if rng.Intn(2) == 1 {
		spawns = []game.Point{{X: lo, Y: mid}, {X: mid, Y: lo}, {X: mid, Y: hi}, {X: hi, Y: mid}}
	}
	rng.Shuffle(len(spawns), func(i, j int) { spawns[i], spawns[j] = spawns[j], spawns[i] })

	center := game.Point{X: mid, Y: mid}
	for i, id := range ids {
		if i >= len(spawns) {
			break
		}
		p := spawns[i]
		state.Snakes = append(state.Snakes, game.Snake{
			Id:     id,
			Health: game.MaxHealth,
			Body:   []game.Point{p, p, p},
		})

		var options []game.Point
		for _, d := range []game.Point{{X: -1, Y: -1}, {X: -1, Y: 1}, {X: 1, Y: -1}, {X: 1, Y: 1}} {
			f := game.Point{X: p.X + d.X, Y: p.Y + d.Y}
			if f == center || !state.InBounds(f) {
				continue
			}
			if game.Manhattan(f, center) <= game.Manhattan(p, center) {
				continue
			}
			options = append(options, f)
		}
		if len(options) > 0 {
			state.Food = append(state.Food, options[rng.Intn(len(options))])
		}
	}
	state.Food = append(state.Food, center)
	return state
}
