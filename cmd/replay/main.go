package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/brensch/snekmax/eval"
	"github.com/brensch/snekmax/minimax"
	"github.com/brensch/snekmax/replay"
	"github.com/brensch/snekmax/store"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	gameIDs := fs.String("games", "", "Comma separated game ids to analyze")
	statsURL := fs.String("stats-url", "", "Player stats page to discover game ids from")
	maxGames := fs.Int("max-games", 20, "Cap on discovered games (0 for no cap)")
	snake := fs.String("snake", "", "Snake id or name to analyze in every game (required)")
	engineURL := fs.String("engine-url", replay.DefaultConfig().EngineURL, "Event stream URL, %s is the game id")
	workers := fs.Int("workers", 4, "Games downloaded and analyzed concurrently")
	moveTimeout := fs.Duration("move-timeout", 200*time.Millisecond, "Search budget per frame")
	maxDepth := fs.Int("max-depth", minimax.DefaultMaxDepth, "Search depth cap in plies")
	evaluator := fs.String("eval", "length-food", "Evaluator: length-food or space")
	outDir := fs.String("out-dir", "", "Write decision parquet here (empty disables)")
	doneLog := fs.String("done-log", "", "Skip games already analyzed for -snake in this log and record new ones (empty disables)")
	logLevel := fs.String("log-level", "info", "zerolog level")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *snake == "" {
		return fmt.Errorf("-snake is required")
	}

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		return err
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()

	ev, err := eval.ByName(*evaluator)
	if err != nil {
		return err
	}
	search := minimax.DefaultConfig()
	search.Evaluator = ev
	search.MaxDepth = *maxDepth

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ids := splitIDs(*gameIDs)
	if *statsURL != "" {
		found, err := replay.NewDiscoverer().Games(ctx, *statsURL)
		if err != nil {
			return fmt.Errorf("discover: %w", err)
		}
		if *maxGames > 0 && len(found) > *maxGames {
			found = found[:*maxGames]
		}
		logger.Info().Int("games", len(found)).Str("url", *statsURL).Msg("discovered")
		ids = append(ids, found...)
	}
	if len(ids) == 0 {
		return fmt.Errorf("no games: pass -games or -stats-url")
	}

	dl := replay.DefaultConfig()
	dl.EngineURL = *engineURL
	dl.Logger = &logger

	var writer *store.Writer
	if *outDir != "" {
		if writer, err = store.NewWriter(*outDir); err != nil {
			return err
		}
	}

	var done *store.DoneLog
	if *doneLog != "" {
		if done, err = store.OpenDoneLog(*doneLog); err != nil {
			return err
		}
		defer done.Close()
		prior := done.Totals(*snake)
		logger.Info().
			Int("entries", done.Count()).
			Int("prior_decisions", prior.Decisions).
			Int("prior_agreed", prior.Agreed).
			Str("path", *doneLog).
			Msg("done-log")
	}

	var (
		mu    sync.Mutex
		total replay.Agreement
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(*workers)
	for _, id := range ids {
		id := id
		if done != nil && done.Has(id, *snake) {
			continue
		}
		g.Go(func() error {
			game, err := replay.Download(gctx, dl, id)
			if err != nil {
				logger.Warn().Err(err).Str("game", id).Msg("download-failed")
				return nil
			}
			snakeID, ok := resolveSnake(game, *snake)
			if !ok {
				logger.Warn().Str("game", id).Str("snake", *snake).Msg("snake-not-in-game")
				return nil
			}

			res, err := replay.Analyze(gctx, game, snakeID, search, *moveTimeout, &logger)
			if err != nil {
				return fmt.Errorf("analyze %s: %w", id, err)
			}
			logger.Info().
				Str("game", id).
				Int("decisions", res.Decisions).
				Int("agreed", res.Agreed).
				Float64("rate", res.Rate()).
				Msg("analyzed")

			mu.Lock()
			defer mu.Unlock()
			total.Add(res.Agreement)
			if writer != nil {
				if err := writer.WriteGame(res.Rows); err != nil {
					return err
				}
			}
			if done != nil {
				return done.Add(store.DoneEntry{
					GameID:    id,
					SnakeID:   *snake,
					Decisions: res.Decisions,
					Known:     res.Known,
					Agreed:    res.Agreed,
				})
			}
			return nil
		})
	}
	runErr := g.Wait()

	if writer != nil {
		out, err := writer.Finalize()
		if err != nil {
			return err
		}
		if out != "" {
			logger.Info().Str("path", out).Int("rows", writer.Rows()).Msg("written")
		}
	}
	fmt.Printf("decisions=%d known=%d agreed=%d fallbacks=%d skipped=%d agreement=%.3f\n",
		total.Decisions, total.Known, total.Agreed, total.Fallbacks, total.Skipped, total.Rate())
	return runErr
}

func splitIDs(s string) []string {
	var out []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// resolveSnake matches want against snake ids first, then display names.
func resolveSnake(g replay.Game, want string) (string, bool) {
	if len(g.Frames) == 0 {
		return "", false
	}
	for _, s := range g.Frames[0].Snakes {
		if s.ID == want {
			return s.ID, true
		}
	}
	for _, s := range g.Frames[0].Snakes {
		if s.Name == want {
			return s.ID, true
		}
	}
	return "", false
}
