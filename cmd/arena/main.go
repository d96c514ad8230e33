package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/brensch/snekmax/arena"
	"github.com/brensch/snekmax/eval"
	"github.com/brensch/snekmax/minimax"
	"github.com/brensch/snekmax/store"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type gameDone struct {
	WorkerID int
	Result   arena.Result
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("arena", flag.ContinueOnError)
	games := fs.Int("games", 10, "Number of games to play (0 plays until interrupted)")
	workers := fs.Int("workers", 4, "Games played concurrently")
	evals := fs.String("snakes", "length-food,length-food", "Comma separated evaluator per snake (length-food or space), 1 to 4 entries")
	moveTimeout := fs.Duration("move-timeout", arena.DefaultMoveTimeout, "Decision budget per snake per turn")
	maxTurns := fs.Int("max-turns", arena.DefaultMaxTurns, "Turn limit per game")
	maxDepth := fs.Int("max-depth", minimax.DefaultMaxDepth, "Search depth cap in plies")
	searchWorkers := fs.Int("search-workers", 1, "Parallel root workers per decision")
	seed := fs.Uint64("seed", 0, "Seed for the first game; following games add the game number (0 uses the clock)")
	outDir := fs.String("out-dir", "", "Write decision parquet files here (empty disables)")
	gamesPerFile := fs.Int("games-per-file", 50, "Games buffered per parquet file")
	useTUI := fs.Bool("tui", false, "Show a live summary instead of logs")
	logLevel := fs.String("log-level", "info", "zerolog level")
	if err := fs.Parse(args); err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		return err
	}
	var logOut io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	if *useTUI {
		// Logs would tear the TUI.
		f, err := os.OpenFile("arena.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := zerolog.New(logOut).Level(level).With().Timestamp().Logger()

	players, err := buildPlayers(*evals, *maxDepth, *searchWorkers)
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	var writer *store.Writer
	if *outDir != "" {
		writer, err = store.NewWriter(*outDir)
		if err != nil {
			return err
		}
	}

	var (
		next    atomic.Int64
		stats   = newTally(players)
		results = make(chan gameDone, *workers)
	)
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < *workers; w++ {
		w := w
		g.Go(func() error {
			for gctx.Err() == nil {
				n := next.Add(1)
				if *games > 0 && n > int64(*games) {
					return nil
				}
				cfg := arena.DefaultConfig()
				cfg.Players = players
				cfg.MoveTimeout = *moveTimeout
				cfg.MaxTurns = *maxTurns
				if *seed != 0 {
					cfg.Seed = *seed + uint64(n-1)
				}
				cfg.Logger = &logger
				cfg.OnTurn = func(arena.Turn) { stats.turns.Add(1) }

				res, err := arena.Play(gctx, cfg)
				if err != nil {
					if gctx.Err() != nil {
						return nil
					}
					return err
				}
				results <- gameDone{WorkerID: w, Result: res}
			}
			return nil
		})
	}

	var playErr error
	go func() {
		playErr = g.Wait()
		close(results)
	}()

	collect := func(done gameDone) {
		stats.record(done.Result)
		if writer == nil {
			return
		}
		if err := writer.WriteGame(done.Result.Rows); err != nil {
			logger.Error().Err(err).Str("game", done.Result.GameID).Msg("write-game")
			return
		}
		if writer.Games() < *gamesPerFile {
			return
		}
		writer = rotate(writer, *outDir, &logger)
	}

	if *useTUI {
		updates := make(chan gameDone, *workers)
		go func() {
			for done := range results {
				collect(done)
				select {
				case updates <- done:
				default:
				}
			}
			close(updates)
		}()
		p := tea.NewProgram(initialModel(stats, updates), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			cancel()
			return err
		}
		cancel()
		for range updates {
		}
	} else {
		for done := range results {
			collect(done)
			logger.Info().
				Int("worker", done.WorkerID).
				Str("game", done.Result.GameID).
				Str("winner", done.Result.Winner).
				Int("turns", done.Result.Turns).
				Msg("game-done")
		}
	}

	if writer != nil {
		if out, err := writer.Finalize(); err != nil {
			logger.Error().Err(err).Msg("final-flush")
		} else if out != "" {
			logger.Info().Str("path", out).Int("games", writer.Games()).Msg("final-flush")
		}
	}
	fmt.Print(stats.Summary())
	return playErr
}

func buildPlayers(list string, maxDepth, searchWorkers int) ([]arena.Player, error) {
	names := strings.Split(list, ",")
	players := make([]arena.Player, 0, len(names))
	for i, name := range names {
		ev, err := eval.ByName(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		cfg := minimax.DefaultConfig()
		cfg.Evaluator = ev
		cfg.MaxDepth = maxDepth
		cfg.Workers = searchWorkers
		players = append(players, arena.Player{
			ID:     fmt.Sprintf("%d-%s", i, strings.TrimSpace(name)),
			Config: cfg,
		})
	}
	return players, nil
}

// rotate finalizes a full file and opens the next one. A nil return stops
// writing for the rest of the run.
func rotate(w *store.Writer, outDir string, logger *zerolog.Logger) *store.Writer {
	out, err := w.Finalize()
	if err != nil {
		logger.Error().Err(err).Msg("flush")
	} else {
		logger.Info().Str("path", out).Int("games", w.Games()).Int("rows", w.Rows()).Msg("flush")
	}
	next, err := store.NewWriter(outDir)
	if err != nil {
		logger.Error().Err(err).Msg("open-writer")
		return nil
	}
	return next
}
