// Package replay fetches recorded games from the public engine and re-runs the
// engine over them.
package replay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/brensch/snekmax/game"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type Config struct {
	// EngineURL is a format string taking the game id.
	EngineURL      string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	Logger         *zerolog.Logger
}

func DefaultConfig() Config {
	return Config{
		EngineURL:      "wss://engine.battlesnake.com/games/%s/events",
		ConnectTimeout: 10 * time.Second,
		ReadTimeout:    30 * time.Second,
	}
}

// Game is a downloaded game, frames in turn order.
type Game struct {
	ID      string
	Ruleset string
	Width   int32
	Height  int32
	Frames  []Frame
}

type event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type gameInfo struct {
	Game struct {
		ID      string `json:"id"`
		Width   int32  `json:"width"`
		Height  int32  `json:"height"`
		Ruleset struct {
			Name string `json:"name"`
		} `json:"ruleset"`
	} `json:"game"`
}

// Frame is one turn as the engine streams it.
type Frame struct {
	Turn    int32        `json:"turn"`
	Snakes  []FrameSnake `json:"snakes"`
	Food    []Coord      `json:"food"`
	Hazards []Coord      `json:"hazards"`
}

type FrameSnake struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Health int32   `json:"health"`
	Body   []Coord `json:"body"`
	Death  *Death  `json:"death,omitempty"`
}

type Coord struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

type Death struct {
	Cause string `json:"cause"`
	Turn  int32  `json:"turn"`
}

// Download reads the event stream of one game until the engine ends it.
func Download(ctx context.Context, cfg Config, gameID string) (Game, error) {
	if cfg.Logger == nil {
		nop := zerolog.Nop()
		cfg.Logger = &nop
	}
	logger := cfg.Logger.With().Str("game", gameID).Logger()

	dialer := websocket.Dialer{HandshakeTimeout: cfg.ConnectTimeout}
	conn, _, err := dialer.DialContext(ctx, fmt.Sprintf(cfg.EngineURL, gameID), nil)
	if err != nil {
		return Game{}, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	g := Game{ID: gameID, Width: game.BoardWidth, Height: game.BoardHeight}
	for {
		if cfg.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return g, ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				break
			}
			// A stream that drops after frames arrived still holds a usable game.
			if len(g.Frames) > 0 {
				logger.Warn().Err(err).Int("frames", len(g.Frames)).Msg("stream-dropped")
				break
			}
			return Game{}, fmt.Errorf("read: %w", err)
		}

		var ev event
		if err := json.Unmarshal(message, &ev); err != nil {
			logger.Debug().Err(err).Msg("bad-event")
			continue
		}

		switch ev.Type {
		case "game_info":
			var info gameInfo
			if err := json.Unmarshal(ev.Data, &info); err != nil {
				logger.Debug().Err(err).Msg("bad-game-info")
				continue
			}
			g.Ruleset = info.Game.Ruleset.Name
			if info.Game.Width > 0 && info.Game.Height > 0 {
				g.Width, g.Height = info.Game.Width, info.Game.Height
			}
		case "frame":
			var f Frame
			if err := json.Unmarshal(ev.Data, &f); err != nil {
				logger.Debug().Err(err).Msg("bad-frame")
				continue
			}
			g.Frames = append(g.Frames, f)
		case "game_end":
			logger.Debug().Int("frames", len(g.Frames)).Msg("game-end")
			return g, nil
		}
	}
	if len(g.Frames) == 0 {
		return Game{}, errors.New("no frames received")
	}
	return g, nil
}

// State converts the frame into a GameState seen by you.
func (g Game) State(i int, you string) (*game.GameState, error) {
	if i < 0 || i >= len(g.Frames) {
		return nil, fmt.Errorf("frame %d of %d", i, len(g.Frames))
	}
	f := g.Frames[i]
	state := &game.GameState{
		Width:   g.Width,
		Height:  g.Height,
		Turn:    f.Turn,
		YouId:   you,
		Food:    points(f.Food),
		Hazards: points(f.Hazards),
		Snakes:  make([]game.Snake, 0, len(f.Snakes)),
	}
	for _, s := range f.Snakes {
		sn := game.Snake{Id: s.ID, Health: s.Health, Body: points(s.Body)}
		if s.Death != nil {
			sn.EliminatedCause = s.Death.Cause
			if sn.EliminatedCause == game.NotEliminated {
				sn.EliminatedCause = "unknown"
			}
			sn.EliminatedTurn = s.Death.Turn
		}
		state.Snakes = append(state.Snakes, sn)
	}
	if err := state.Validate(); err != nil {
		return nil, err
	}
	return state, nil
}

// Winner is the name of the only snake alive in the last frame, or "".
func (g Game) Winner() string {
	if len(g.Frames) == 0 {
		return ""
	}
	var alive []FrameSnake
	for _, s := range g.Frames[len(g.Frames)-1].Snakes {
		if s.Death == nil && s.Health > 0 {
			alive = append(alive, s)
		}
	}
	if len(alive) != 1 {
		return ""
	}
	return alive[0].Name
}

func points(cs []Coord) []game.Point {
	if len(cs) == 0 {
		return nil
	}
	out := make([]game.Point, len(cs))
	for i, c := range cs {
		out[i] = game.Point{X: c.X, Y: c.Y}
	}
	return out
}
