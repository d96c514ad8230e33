package replay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brensch/snekmax/game"
	"github.com/brensch/snekmax/minimax"
	"github.com/brensch/snekmax/store"
	"github.com/rs/zerolog"
)

// Agreement counts how often the engine picked the move a snake really made.
type Agreement struct {
	Decisions int
	// Known counts decisions where the real move could be read from the next frame.
	Known     int
	Agreed    int
	Fallbacks int
	// Skipped counts frames that could not be turned into a valid state.
	Skipped int
}

func (a Agreement) Rate() float64 {
	if a.Known == 0 {
		return 0
	}
	return float64(a.Agreed) / float64(a.Known)
}

func (a *Agreement) Add(b Agreement) {
	a.Decisions += b.Decisions
	a.Known += b.Known
	a.Agreed += b.Agreed
	a.Fallbacks += b.Fallbacks
	a.Skipped += b.Skipped
}

type Analysis struct {
	Rows []store.DecisionRow
	Agreement
}

// Analyze decides for snakeID on every frame where it is in play, each with
// moveTimeout to think, and compares with what it did next.
func Analyze(ctx context.Context, g Game, snakeID string, cfg minimax.Config, moveTimeout time.Duration, logger *zerolog.Logger) (Analysis, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	var out Analysis
	for i := range g.Frames {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		state, err := g.State(i, snakeID)
		if errors.Is(err, game.ErrInvalidSnapshot) {
			logger.Debug().Err(err).Str("game", g.ID).Int("frame", i).Msg("skip-frame")
			out.Skipped++
			continue
		}
		if err != nil {
			return out, err
		}
		if !state.IsAlive(snakeID) {
			continue
		}

		moveCtx, cancel := context.WithTimeout(ctx, moveTimeout)
		d, err := minimax.Decide(moveCtx, state, cfg)
		cancel()
		if err != nil {
			return out, fmt.Errorf("frame %d: %w", i, err)
		}

		row, err := store.NewDecisionRow(g.ID, store.SourceReplay, state, d)
		if err != nil {
			return out, err
		}
		out.Decisions++
		if d.Fallback {
			out.Fallbacks++
		}
		if actual, ok := g.actualMove(i, snakeID); ok {
			row.Actual = int32(actual)
			out.Known++
			if actual == d.Move {
				out.Agreed++
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// actualMove reads the move a snake made on frame i from its head on frame i+1.
func (g Game) actualMove(i int, snakeID string) (game.Direction, bool) {
	if i+1 >= len(g.Frames) {
		return game.NoMove, false
	}
	before, after := frameSnake(g.Frames[i], snakeID), frameSnake(g.Frames[i+1], snakeID)
	if before == nil || after == nil || len(before.Body) == 0 || len(after.Body) == 0 {
		return game.NoMove, false
	}
	from := game.Point{X: before.Body[0].X, Y: before.Body[0].Y}
	to := game.Point{X: after.Body[0].X, Y: after.Body[0].Y}
	return game.DirectionBetween(from, to)
}

func frameSnake(f Frame, id string) *FrameSnake {
	for i := range f.Snakes {
		if f.Snakes[i].ID == id {
			return &f.Snakes[i]
		}
	}
	return nil
}
