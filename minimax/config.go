// Package minimax picks moves with a time-bounded paranoid minimax search.
//
// Every opponent is folded into one adversary that picks the joint opponent
// move worst for us. Search runs one fixed depth; Decide deepens it one ply at
// a time until the context deadline and keeps the last completed depth.
package minimax

import (
	"github.com/brensch/snekmax/eval"
	"github.com/brensch/snekmax/game"
	"github.com/brensch/snekmax/rules"
	"github.com/rs/zerolog"
)

const (
	DefaultMaxDepth       = 32
	DefaultBranchEstimate = 2.0
)

// FallbackFunc picks a move when no search result is available.
type FallbackFunc func(state *game.GameState, you string) game.Direction

// SafeFallback returns the first move that does not immediately hit a wall or
// a body, or Up when every move does.
func SafeFallback(state *game.GameState, you string) game.Direction {
	if safe := rules.SafeMoves(state, you); len(safe) > 0 {
		return safe[0]
	}
	return game.Up
}

// Config is passed explicitly to every call; nothing is read from globals, so
// concurrent decisions never share state.
type Config struct {
	Evaluator eval.Evaluator
	Ruleset   rules.Ruleset

	// MaxDepth caps iterative deepening, in plies. Without a deadline it is the
	// only bound on Decide.
	MaxDepth int

	// BranchEstimate predicts the next depth's cost as a multiple of the last
	// one. Decide does not start a depth it expects to miss the deadline.
	BranchEstimate float64

	// Workers > 1 searches the root directions in parallel.
	Workers int

	// DisablePruning turns off alpha-beta below the root. Results are the same,
	// only slower.
	DisablePruning bool

	Fallback FallbackFunc
	Logger   *zerolog.Logger
}

func DefaultConfig() Config {
	return Config{
		Evaluator:      eval.LengthFood{},
		Ruleset:        rules.Standard,
		MaxDepth:       DefaultMaxDepth,
		BranchEstimate: DefaultBranchEstimate,
		Workers:        1,
		Fallback:       SafeFallback,
	}
}

func (c Config) withDefaults() Config {
	if c.Evaluator == nil {
		c.Evaluator = eval.LengthFood{}
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.BranchEstimate <= 0 {
		c.BranchEstimate = DefaultBranchEstimate
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.Fallback == nil {
		c.Fallback = SafeFallback
	}
	if c.Logger == nil {
		nop := zerolog.Nop()
		c.Logger = &nop
	}
	return c
}
