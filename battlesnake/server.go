package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/brensch/snekmax/game"
	"github.com/brensch/snekmax/minimax"
	"github.com/rs/zerolog"
)

const minBudget = 20 * time.Millisecond

// Server answers the Battlesnake API. It keeps no state between requests.
type Server struct {
	search      minimax.Config
	moveTimeout time.Duration
	buffer      time.Duration
	logger      zerolog.Logger
}

// NewServer builds a server. moveTimeout is used when a request carries no
// timeout; buffer is held back from every timeout for latency.
func NewServer(search minimax.Config, moveTimeout, buffer time.Duration, logger zerolog.Logger) *Server {
	search.Logger = &logger
	return &Server{
		search:      search,
		moveTimeout: moveTimeout,
		buffer:      buffer,
		logger:      logger,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("POST /start", s.handleStart)
	mux.HandleFunc("POST /move", s.handleMove)
	mux.HandleFunc("POST /end", s.handleEnd)
	return mux
}

// budget is the search time for a request with the given timeout.
func (s *Server) budget(timeoutMs int) time.Duration {
	timeout := s.moveTimeout
	if timeoutMs > 0 {
		timeout = time.Duration(timeoutMs) * time.Millisecond
	}
	b := timeout - s.buffer
	if b < minBudget {
		b = minBudget
	}
	return b
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, InfoResponse{
		APIVersion: "1",
		Author:     "snekmax",
		Color:      "#3366ff",
		Head:       "default",
		Tail:       "default",
		Version:    "1.0.0",
	})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req GameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.logger.Info().Str("game", req.Game.ID).Str("you", req.You.Name).Str("ruleset", req.Game.Ruleset.Name).Msg("start")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req GameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cfg := s.search
	cfg.Ruleset = toRuleset(&req)
	d, err := minimax.DecideBy(toGameState(&req), start.Add(s.budget(req.Game.Timeout)), cfg)
	if errors.Is(err, game.ErrInvalidSnapshot) {
		s.logger.Warn().Err(err).Str("game", req.Game.ID).Int32("turn", req.Turn).Msg("invalid-snapshot")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("game", req.Game.ID).Int32("turn", req.Turn).Msg("decide")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.logger.Info().
		Str("game", req.Game.ID).
		Int32("turn", req.Turn).
		Stringer("move", d.Move).
		Int("depth", d.Depth).
		Int64("nodes", d.Nodes).
		Bool("fallback", d.Fallback).
		Dur("took", time.Since(start)).
		Msg("move")

	writeJSON(w, MoveResponse{Move: d.Move.String()})
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	var req GameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result := "lost"
	for _, snake := range req.Board.Snakes {
		if snake.ID == req.You.ID {
			result = "won"
		}
	}
	if len(req.Board.Snakes) == 0 {
		result = "draw"
	}
	s.logger.Info().Str("game", req.Game.ID).Int32("turn", req.Turn).Str("result", result).Msg("end")
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
