package minimax

import (
	"context"
	"errors"
	"fmt"

	"github.com/brensch/snekmax/eval"
	"github.com/brensch/snekmax/game"
	"github.com/brensch/snekmax/rules"
	"golang.org/x/sync/errgroup"
)

// ErrInterrupted is returned when the context ends mid-search. The partial
// result of that depth is discarded.
var ErrInterrupted = errors.New("search interrupted")

// ErrNotInPlay is returned by Search when YouId is missing or eliminated.
var ErrNotInPlay = errors.New("snake not in play")

// checkEvery is how many nodes pass between context polls.
const checkEvery = 512

// RootResult is one completed fixed-depth search.
type RootResult struct {
	Depth     int
	Best      game.Direction
	BestScore eval.Score
	// Scores holds the exact score of every root direction, indexed by Direction.
	Scores [len(game.Directions)]eval.Score
	Nodes  int64
}

// Search runs a paranoid minimax search of depth plies for state.YouId. One
// ply is our move plus the joint move of every living opponent, applied
// together as one transition.
func Search(ctx context.Context, state *game.GameState, depth int, cfg Config) (RootResult, error) {
	cfg = cfg.withDefaults()
	if depth < 1 {
		depth = 1
	}

	youIdx := -1
	for i := range state.Snakes {
		if state.Snakes[i].Id == state.YouId && state.Snakes[i].Alive() {
			youIdx = i
		}
	}
	if youIdx < 0 {
		return RootResult{}, fmt.Errorf("%w: %q", ErrNotInPlay, state.YouId)
	}

	res := RootResult{Depth: depth}
	var nodes [len(game.Directions)]int64
	searchRoot := func(ctx context.Context, d game.Direction) error {
		if ctx.Err() != nil {
			return ErrInterrupted
		}
		s := &searcher{ctx: ctx, cfg: cfg, you: state.YouId, youIdx: youIdx}
		score, err := s.minNode(state, d, depth, eval.Min(), eval.Max())
		nodes[d] = s.nodes
		if err != nil {
			return err
		}
		res.Scores[d] = score
		return nil
	}

	if cfg.Workers > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Workers)
		for _, d := range rules.Moves(state, state.YouId) {
			d := d
			g.Go(func() error { return searchRoot(gctx, d) })
		}
		if err := g.Wait(); err != nil {
			return RootResult{}, err
		}
	} else {
		for _, d := range rules.Moves(state, state.YouId) {
			if err := searchRoot(ctx, d); err != nil {
				return RootResult{}, err
			}
		}
	}

	for _, n := range nodes {
		res.Nodes += n
	}
	res.Best, res.BestScore = game.Directions[0], res.Scores[game.Directions[0]]
	for _, d := range game.Directions[1:] {
		if res.Scores[d].Better(res.BestScore) {
			res.Best, res.BestScore = d, res.Scores[d]
		}
	}
	return res, nil
}

type searcher struct {
	ctx    context.Context
	cfg    Config
	you    string
	youIdx int
	nodes  int64
}

func (s *searcher) tick() error {
	s.nodes++
	if s.nodes%checkEvery == 0 && s.ctx.Err() != nil {
		return ErrInterrupted
	}
	return nil
}

// maxNode scores state with our move still to choose and depth plies left.
func (s *searcher) maxNode(state *game.GameState, depth int, alpha, beta eval.Score) (eval.Score, error) {
	if err := s.tick(); err != nil {
		return eval.Score{}, err
	}
	if depth == 0 || !state.Snakes[s.youIdx].Alive() || rules.IsGameOver(state) {
		return s.cfg.Evaluator.Evaluate(state, s.you), nil
	}

	var best eval.Score
	for i, d := range game.Directions {
		v, err := s.minNode(state, d, depth, alpha, beta)
		if err != nil {
			return eval.Score{}, err
		}
		if i == 0 || v.Better(best) {
			best = v
		}
		if s.cfg.DisablePruning {
			continue
		}
		if best.Better(alpha) {
			alpha = best
		}
		if !alpha.Less(beta) {
			break
		}
	}
	return best, nil
}

// minNode fixes our move and lets the merged adversary pick, over the full
// cross product of opponent moves, the joint move that is worst for us.
func (s *searcher) minNode(state *game.GameState, self game.Direction, depth int, alpha, beta eval.Score) (eval.Score, error) {
	moves := make([]game.Direction, len(state.Snakes))
	for i := range moves {
		moves[i] = game.NoMove
	}
	moves[s.youIdx] = self

	opponents := state.Opponents(s.you)
	joint := 1 << (2 * len(opponents))

	var best eval.Score
	for code := 0; code < joint; code++ {
		// The first opponent is the most significant digit, so joint moves are
		// enumerated in canonical order.
		for j, oi := range opponents {
			shift := 2 * (len(opponents) - 1 - j)
			moves[oi] = game.Directions[(code>>shift)&3]
		}

		next, err := s.cfg.Ruleset.NextState(state, moves)
		if err != nil {
			return eval.Score{}, err
		}
		v, err := s.maxNode(next, depth-1, alpha, beta)
		if err != nil {
			return eval.Score{}, err
		}
		if code == 0 || v.Less(best) {
			best = v
		}
		if s.cfg.DisablePruning {
			continue
		}
		if best.Less(beta) {
			beta = best
		}
		if !alpha.Less(beta) {
			break
		}
	}
	return best, nil
}
