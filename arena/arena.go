// Package arena plays complete local games between engine instances.
package arena

import (
	"context"
	"fmt"
	"time"

	"github.com/brensch/snekmax/game"
	"github.com/brensch/snekmax/minimax"
	"github.com/brensch/snekmax/rules"
	"github.com/brensch/snekmax/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultMoveTimeout = 100 * time.Millisecond
	DefaultMaxTurns    = 500
)

// Player is one engine instance with its own search configuration.
type Player struct {
	ID     string
	Config minimax.Config
}

type Config struct {
	// GameID defaults to a random uuid.
	GameID  string
	Players []Player

	// Seed drives spawns and food. Zero picks one from the clock; the seed used
	// is reported in Result.
	Seed uint64

	// Start replaces the standard opening. Its snakes must match Players by id.
	Start *game.GameState

	MoveTimeout time.Duration
	MaxTurns    int
	Food        rules.FoodSettings
	Ruleset     rules.Ruleset

	// OnTurn is called after every transition, from the goroutine running Play.
	OnTurn func(Turn)
	Logger *zerolog.Logger
}

func DefaultConfig(ids ...string) Config {
	cfg := Config{
		MoveTimeout: DefaultMoveTimeout,
		MaxTurns:    DefaultMaxTurns,
		Food:        rules.DefaultFoodSettings,
		Ruleset:     rules.Standard,
	}
	for _, id := range ids {
		cfg.Players = append(cfg.Players, Player{ID: id, Config: minimax.DefaultConfig()})
	}
	return cfg
}

// Turn is one played transition.
type Turn struct {
	GameID string
	Before *game.GameState
	After  *game.GameState
	// Moves is index-aligned with Before.Snakes.
	Moves []game.Direction
	Rows  []store.DecisionRow
}

type Result struct {
	GameID string
	Seed   uint64
	// Winner is empty for a draw, a solo game, or a game cut off at MaxTurns.
	Winner string
	Turns  int
	Final  *game.GameState
	Rows   []store.DecisionRow
}

// Play runs one game to completion, or until MaxTurns or ctx ends. On ctx end
// the partial result is returned with ctx's error.
func Play(ctx context.Context, cfg Config) (Result, error) {
	if len(cfg.Players) == 0 || len(cfg.Players) > game.MaxSnakes {
		return Result{}, fmt.Errorf("need 1 to %d players, got %d", game.MaxSnakes, len(cfg.Players))
	}
	if cfg.GameID == "" {
		cfg.GameID = uuid.NewString()
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}
	if cfg.MoveTimeout <= 0 {
		cfg.MoveTimeout = DefaultMoveTimeout
	}
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = DefaultMaxTurns
	}
	if cfg.Logger == nil {
		nop := zerolog.Nop()
		cfg.Logger = &nop
	}
	logger := cfg.Logger.With().Str("game", cfg.GameID).Logger()

	rng := rand.New(rand.NewSource(cfg.Seed))
	state, err := startState(cfg, rng)
	if err != nil {
		return Result{}, err
	}
	players := make(map[string]minimax.Config, len(cfg.Players))
	for _, p := range cfg.Players {
		players[p.ID] = p.Config
	}

	res := Result{GameID: cfg.GameID, Seed: cfg.Seed}
	for !rules.IsGameOver(state) && int(state.Turn) < cfg.MaxTurns {
		if err := ctx.Err(); err != nil {
			res.Final = state
			res.Turns = int(state.Turn)
			return res, err
		}

		moves, rows, err := decideAll(ctx, cfg, state, players)
		if err != nil {
			return res, err
		}
		next, err := cfg.Ruleset.NextState(state, moves)
		if err != nil {
			return res, err
		}
		rules.ApplyFood(next, rng, cfg.Food)

		for i := range next.Snakes {
			if state.Snakes[i].Alive() && !next.Snakes[i].Alive() {
				logger.Debug().
					Str("snake", next.Snakes[i].Id).
					Str("cause", next.Snakes[i].EliminatedCause).
					Int32("turn", next.Turn).
					Msg("eliminated")
			}
		}

		res.Rows = append(res.Rows, rows...)
		if cfg.OnTurn != nil {
			cfg.OnTurn(Turn{GameID: cfg.GameID, Before: state, After: next, Moves: moves, Rows: rows})
		}
		state = next
	}

	res.Final = state
	res.Turns = int(state.Turn)
	if len(state.Snakes) > 1 {
		res.Winner = rules.Winner(state)
	}
	logger.Info().Str("winner", res.Winner).Int("turns", res.Turns).Msg("game-over")
	return res, nil
}

func startState(cfg Config, rng *rand.Rand) (*game.GameState, error) {
	if cfg.Start == nil {
		ids := make([]string, len(cfg.Players))
		for i, p := range cfg.Players {
			ids[i] = p.ID
		}
		return rules.StandardStart(ids, rng), nil
	}

	state := cfg.Start.Clone()
	if state.YouId == "" && len(state.Snakes) > 0 {
		state.YouId = state.Snakes[0].Id
	}
	if err := state.Validate(); err != nil {
		return nil, err
	}
	if len(state.Snakes) != len(cfg.Players) {
		return nil, fmt.Errorf("start has %d snakes for %d players", len(state.Snakes), len(cfg.Players))
	}
	for _, p := range cfg.Players {
		if state.Snake(p.ID) == nil {
			return nil, fmt.Errorf("player %q has no snake in start", p.ID)
		}
	}
	return state, nil
}

// decideAll asks every living snake for a move concurrently, each against its
// own deadline.
func decideAll(ctx context.Context, cfg Config, state *game.GameState, players map[string]minimax.Config) ([]game.Direction, []store.DecisionRow, error) {
	moves := make([]game.Direction, len(state.Snakes))
	rows := make([]store.DecisionRow, len(state.Snakes))

	var g errgroup.Group
	for i := range state.Snakes {
		i := i
		moves[i] = game.NoMove
		if !state.Snakes[i].Alive() {
			continue
		}
		g.Go(func() error {
			view := *state
			view.YouId = state.Snakes[i].Id

			moveCtx, cancel := context.WithTimeout(ctx, cfg.MoveTimeout)
			defer cancel()
			d, err := minimax.Decide(moveCtx, &view, players[view.YouId])
			if err != nil {
				return fmt.Errorf("decide for %s: %w", view.YouId, err)
			}
			moves[i] = d.Move

			row, err := store.NewDecisionRow(cfg.GameID, store.SourceArena, &view, d)
			if err != nil {
				return err
			}
			row.Actual = int32(d.Move)
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	out := rows[:0]
	for i := range rows {
		if state.Snakes[i].Alive() {
			out = append(out, rows[i])
		}
	}
	return moves, out, nil
}
