// Package main serves the engine over the Battlesnake HTTP API.
//
// Each /move runs an iterative-deepening paranoid minimax search that stops a
// latency buffer short of the game's timeout.
package main

import (
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/brensch/snekmax/eval"
	"github.com/brensch/snekmax/minimax"
	"github.com/rs/zerolog"
)

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	listen := fs.String("listen", ":8080", "HTTP listen address")
	moveTimeout := fs.Duration("move-timeout", 500*time.Millisecond, "Move timeout when the request has none")
	buffer := fs.Duration("latency-buffer", 150*time.Millisecond, "Time held back from every move timeout")
	maxDepth := fs.Int("max-depth", minimax.DefaultMaxDepth, "Search depth cap in plies")
	workers := fs.Int("workers", 4, "Parallel root workers per move")
	evaluator := fs.String("eval", "length-food", "Evaluator: length-food or space")
	logLevel := fs.String("log-level", "info", "zerolog level")
	pretty := fs.Bool("pretty", true, "Human readable logs")

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if err := fs.Parse(os.Args[1:]); err != nil {
		logger.Fatal().Err(err).Msg("flag parse")
	}
	if *pretty {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		logger.Fatal().Err(err).Msg("log level")
	}
	logger = logger.Level(level)

	ev, err := eval.ByName(*evaluator)
	if err != nil {
		logger.Fatal().Err(err).Msg("evaluator")
	}
	search := minimax.DefaultConfig()
	search.Evaluator = ev
	search.MaxDepth = *maxDepth
	search.Workers = *workers

	server := NewServer(search, *moveTimeout, *buffer, logger)
	srv := &http.Server{
		Addr:              *listen,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info().Str("addr", *listen).Str("eval", *evaluator).Msg("listening")
	logger.Fatal().Err(srv.ListenAndServe()).Msg("server stopped")
}
