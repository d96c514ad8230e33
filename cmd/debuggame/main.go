// Command debuggame plays one local game and prints every turn: the board,
// each snake's move, and how deep its search got. With -redecide it instead
// re-runs the engine on every row of a decision parquet file.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/brensch/snekmax/arena"
	"github.com/brensch/snekmax/game"
	"github.com/brensch/snekmax/minimax"
	"github.com/brensch/snekmax/store"
	"github.com/rs/zerolog"
)

func main() {
	snakes := flag.Int("snakes", 2, "Number of snakes (1 to 4)")
	seed := flag.Uint64("seed", 0, "Game seed (0 uses the clock)")
	moveTimeout := flag.Duration("move-timeout", arena.DefaultMoveTimeout, "Decision budget per snake per turn")
	maxTurns := flag.Int("max-turns", arena.DefaultMaxTurns, "Turn limit")
	outDir := flag.String("out-dir", "", "Also write the decisions as parquet here")
	quiet := flag.Bool("quiet", false, "Only print the summary")
	redecideFile := flag.String("redecide", "", "Re-run the engine on every row of this decision parquet file instead of playing")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()

	if *redecideFile != "" {
		cfg := minimax.DefaultConfig()
		cfg.Logger = &logger
		changed, err := redecide(os.Stdout, *redecideFile, *moveTimeout, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("redecide")
		}
		logger.Info().Int("changed", changed).Msg("redecided")
		return
	}

	ids := make([]string, *snakes)
	for i := range ids {
		ids[i] = string(rune('a' + i))
	}
	cfg := arena.DefaultConfig(ids...)
	cfg.Seed = *seed
	cfg.MoveTimeout = *moveTimeout
	cfg.MaxTurns = *maxTurns
	cfg.Logger = &logger
	if !*quiet {
		cfg.OnTurn = func(t arena.Turn) { fmt.Print(describeTurn(t)) }
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	res, err := arena.Play(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("play")
	}
	fmt.Print(res.Final)
	fmt.Printf("game %s seed %d: %d turns, winner %q\n", res.GameID, res.Seed, res.Turns, res.Winner)

	if *outDir == "" {
		return
	}
	w, err := store.NewWriter(*outDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("open writer")
	}
	if err := w.WriteGame(res.Rows); err != nil {
		logger.Fatal().Err(err).Msg("write")
	}
	path, err := w.Finalize()
	if err != nil {
		logger.Fatal().Err(err).Msg("finalize")
	}
	logger.Info().Str("path", path).Int("rows", len(res.Rows)).Msg("written")
}

func describeTurn(t arena.Turn) string {
	var sb strings.Builder
	sb.WriteString(t.Before.String())
	for _, row := range t.Rows {
		fmt.Fprintf(&sb, "  %s -> %-5s depth=%-2d nodes=%-8d %s",
			row.SnakeID, game.Direction(row.Move), row.Depth, row.Nodes, time.Duration(row.Micros)*time.Microsecond)
		if row.Fallback {
			sb.WriteString(" (fallback)")
		}
		sb.WriteByte('\n')
	}
	for i := range t.After.Snakes {
		if t.Before.Snakes[i].Alive() && !t.After.Snakes[i].Alive() {
			fmt.Fprintf(&sb, "  %s eliminated: %s\n", t.After.Snakes[i].Id, t.After.Snakes[i].EliminatedCause)
		}
	}
	sb.WriteByte('\n')
	return sb.String()
}

// redecide decodes the board stored in each row, decides it again within
// budget and prints both moves. It returns how many moves changed.
func redecide(out io.Writer, path string, budget time.Duration, cfg minimax.Config) (int, error) {
	rows, err := store.ReadFile(path)
	if err != nil {
		return 0, err
	}
	changed := 0
	for _, row := range rows {
		state, err := store.DecodeState(row.State)
		if err != nil {
			return changed, fmt.Errorf("game %s turn %d: %w", row.GameID, row.Turn, err)
		}
		state.YouId = row.SnakeID

		d, err := minimax.DecideBy(state, time.Now().Add(budget), cfg)
		if err != nil {
			return changed, fmt.Errorf("game %s turn %d: %w", row.GameID, row.Turn, err)
		}
		was := game.Direction(row.Move)
		mark := ""
		if d.Move != was {
			changed++
			mark = " *"
		}
		fmt.Fprintf(out, "%s turn %-3d %s: %-5s -> %-5s depth %d -> %d%s\n",
			row.GameID, row.Turn, row.SnakeID, was, d.Move, row.Depth, d.Depth, mark)
	}
	return changed, nil
}
