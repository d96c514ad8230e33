package minimax

import (
	"context"
	"errors"
	"time"

	"github.com/brensch/snekmax/eval"
	"github.com/brensch/snekmax/game"
	"github.com/brensch/snekmax/rules"
)

// Decision is the answer for one turn.
type Decision struct {
	Move game.Direction
	// Depth is the deepest completed search, 0 when Fallback is set.
	Depth     int
	BestScore eval.Score
	Scores    [len(game.Directions)]eval.Score
	Nodes     int64
	Elapsed   time.Duration
	// Fallback is set when no search depth completed and Move came from
	// Config.Fallback.
	Fallback bool
}

// DecideBy runs Decide with a wall-clock deadline.
func DecideBy(state *game.GameState, deadline time.Time, cfg Config) (Decision, error) {
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()
	return Decide(ctx, state, cfg)
}

// Decide deepens the search one ply at a time until the context deadline,
// MaxDepth, or a decided result, and returns the move from the deepest
// completed depth. The only error is an invalid snapshot; every timing
// problem resolves to a move.
func Decide(ctx context.Context, state *game.GameState, cfg Config) (Decision, error) {
	start := time.Now()
	cfg = cfg.withDefaults()

	if err := state.Validate(); err != nil {
		return Decision{}, err
	}

	logger := cfg.Logger.With().Str("you", state.YouId).Int32("turn", state.Turn).Logger()
	fallback := func(reason string) Decision {
		d := Decision{
			Move:     cfg.Fallback(state, state.YouId),
			Fallback: true,
			Elapsed:  time.Since(start),
		}
		logger.Debug().Str("reason", reason).Stringer("move", d.Move).Msg("fallback-move")
		return d
	}

	if !state.IsAlive(state.YouId) {
		return fallback("not-in-play"), nil
	}

	deadline, hasDeadline := ctx.Deadline()
	var (
		best Decision
		last time.Duration
	)
	for depth := 1; depth <= cfg.MaxDepth; depth++ {
		if ctx.Err() != nil {
			break
		}
		if depth > 1 && hasDeadline {
			expected := time.Duration(float64(last) * cfg.BranchEstimate)
			if time.Until(deadline) < expected {
				logger.Debug().Int("depth", depth).Dur("expected", expected).Msg("skip-depth")
				break
			}
		}

		iterStart := time.Now()
		res, err := Search(ctx, state, depth, cfg)
		if errors.Is(err, ErrInterrupted) {
			logger.Debug().Int("depth", depth).Msg("depth-interrupted")
			break
		}
		if err != nil {
			return Decision{}, err
		}
		last = time.Since(iterStart)

		move := res.Best
		// Every move loses against the worst case; prefer one that does not
		// lose outright to a wall or body.
		if res.BestScore.Outcome == eval.Loss {
			if safe := rules.SafeMoves(state, state.YouId); len(safe) > 0 {
				move = safe[0]
			}
		}
		best = Decision{
			Move:      move,
			Depth:     res.Depth,
			BestScore: res.Scores[move],
			Scores:    res.Scores,
			Nodes:     best.Nodes + res.Nodes,
		}
		logger.Debug().
			Int("depth", depth).
			Stringer("move", move).
			Stringer("score", res.BestScore).
			Int64("nodes", res.Nodes).
			Dur("took", last).
			Msg("depth-complete")

		// A proven win or a loss on every move will not change with depth.
		if res.BestScore.Outcome != eval.Ongoing {
			break
		}
	}

	if best.Depth == 0 {
		return fallback("deadline-before-first-depth"), nil
	}
	best.Elapsed = time.Since(start)
	return best, nil
}
