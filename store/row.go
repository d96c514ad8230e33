// Package store persists engine decisions as parquet files.
package store

import (
	"encoding/json"
	"fmt"

	"github.com/brensch/snekmax/game"
	"github.com/brensch/snekmax/minimax"
)

const (
	SourceArena  = "arena"
	SourceReplay = "replay"

	schemaName = "decision_row_v1"
)

// DecisionRow is one engine decision for one snake on one turn.
//
// Move and Actual use the wire order 0=Up, 1=Down, 2=Left, 3=Right.
// Actual is -1 when the move really played is unknown.
// Scores holds the root scores flattened as outcome followed by the keys, one
// group per direction.
type DecisionRow struct {
	GameID   string  `parquet:"game_id,dict"`
	Turn     int32   `parquet:"turn"`
	SnakeID  string  `parquet:"snake_id,dict"`
	Source   string  `parquet:"source,dict"`
	Width    int32   `parquet:"width"`
	Height   int32   `parquet:"height"`
	Alive    int32   `parquet:"alive"`
	Length   int32   `parquet:"length"`
	Health   int32   `parquet:"health"`
	Move     int32   `parquet:"move"`
	Actual   int32   `parquet:"actual_move"`
	Depth    int32   `parquet:"depth"`
	Nodes    int64   `parquet:"nodes"`
	Micros   int64   `parquet:"elapsed_us"`
	Fallback bool    `parquet:"fallback"`
	Outcome  int32   `parquet:"outcome"`
	Keys     []int32 `parquet:"keys"`
	Scores   []int32 `parquet:"scores"`
	State    []byte  `parquet:"state,zstd"`
}

// RawState is the self-contained board snapshot stored in DecisionRow.State.
// (0,0) is bottom-left.
type RawState struct {
	Width   int32      `json:"width"`
	Height  int32      `json:"height"`
	Turn    int32      `json:"turn"`
	YouID   string     `json:"you_id"`
	Food    []RawPoint `json:"food"`
	Hazards []RawPoint `json:"hazards,omitempty"`
	Snakes  []RawSnake `json:"snakes"`
}

type RawPoint struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

type RawSnake struct {
	ID         string     `json:"id"`
	Health     int32      `json:"health"`
	Body       []RawPoint `json:"body"`
	Eliminated string     `json:"eliminated,omitempty"`
}

// NewDecisionRow records decision d, made for state.YouId, as a row.
func NewDecisionRow(gameID, source string, state *game.GameState, d minimax.Decision) (DecisionRow, error) {
	raw, err := EncodeState(state)
	if err != nil {
		return DecisionRow{}, err
	}

	row := DecisionRow{
		GameID:   gameID,
		Turn:     state.Turn,
		SnakeID:  state.YouId,
		Source:   source,
		Width:    state.Width,
		Height:   state.Height,
		Alive:    int32(state.AliveCount()),
		Length:   int32(state.Length(state.YouId)),
		Move:     int32(d.Move),
		Actual:   -1,
		Depth:    int32(d.Depth),
		Nodes:    d.Nodes,
		Micros:   d.Elapsed.Microseconds(),
		Fallback: d.Fallback,
		Outcome:  int32(d.BestScore.Outcome),
		Keys:     append([]int32(nil), d.BestScore.Keys[:]...),
		State:    raw,
	}
	if you := state.Snake(state.YouId); you != nil {
		row.Health = you.Health
	}
	if !d.Fallback {
		for _, s := range d.Scores {
			row.Scores = append(row.Scores, int32(s.Outcome))
			row.Scores = append(row.Scores, s.Keys[:]...)
		}
	}
	return row, nil
}

func EncodeState(state *game.GameState) ([]byte, error) {
	if state.Width <= 0 || state.Height <= 0 {
		return nil, fmt.Errorf("invalid state dimensions: %dx%d", state.Width, state.Height)
	}
	raw := RawState{
		Width:   state.Width,
		Height:  state.Height,
		Turn:    state.Turn,
		YouID:   state.YouId,
		Food:    rawPoints(state.Food),
		Hazards: rawPoints(state.Hazards),
		Snakes:  make([]RawSnake, 0, len(state.Snakes)),
	}
	for _, s := range state.Snakes {
		raw.Snakes = append(raw.Snakes, RawSnake{
			ID:         s.Id,
			Health:     s.Health,
			Body:       rawPoints(s.Body),
			Eliminated: s.EliminatedCause,
		})
	}
	return json.Marshal(raw)
}

// DecodeState is the inverse of EncodeState.
func DecodeState(b []byte) (*game.GameState, error) {
	var raw RawState
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	state := &game.GameState{
		Width:   raw.Width,
		Height:  raw.Height,
		Turn:    raw.Turn,
		YouId:   raw.YouID,
		Food:    points(raw.Food),
		Hazards: points(raw.Hazards),
		Snakes:  make([]game.Snake, 0, len(raw.Snakes)),
	}
	for _, s := range raw.Snakes {
		state.Snakes = append(state.Snakes, game.Snake{
			Id:              s.ID,
			Health:          s.Health,
			Body:            points(s.Body),
			EliminatedCause: s.Eliminated,
		})
	}
	return state, nil
}

func rawPoints(ps []game.Point) []RawPoint {
	if len(ps) == 0 {
		return nil
	}
	out := make([]RawPoint, len(ps))
	for i, p := range ps {
		out[i] = RawPoint{X: p.X, Y: p.Y}
	}
	return out
}

func points(ps []RawPoint) []game.Point {
	if len(ps) == 0 {
		return nil
	}
	out := make([]game.Point, len(ps))
	for i, p := range ps {
		out[i] = game.Point{X: p.X, Y: p.Y}
	}
	return out
}
