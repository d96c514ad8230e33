package main

import (
	"github.com/brensch/snekmax/game"
	"github.com/brensch/snekmax/rules"
)

// Battlesnake API request/response types

type InfoResponse struct {
	APIVersion string `json:"apiversion"`
	Author     string `json:"author"`
	Color      string `json:"color"`
	Head       string `json:"head"`
	Tail       string `json:"tail"`
	Version    string `json:"version"`
}

type GameRequest struct {
	Game  Game        `json:"game"`
	Turn  int32       `json:"turn"`
	Board Board       `json:"board"`
	You   Battlesnake `json:"you"`
}

type Game struct {
	ID      string  `json:"id"`
	Ruleset Ruleset `json:"ruleset"`
	Map     string  `json:"map"`
	Timeout int     `json:"timeout"`
	Source  string  `json:"source"`
}

type Ruleset struct {
	Name     string          `json:"name"`
	Version  string          `json:"version"`
	Settings RulesetSettings `json:"settings"`
}

type RulesetSettings struct {
	FoodSpawnChance     int   `json:"foodSpawnChance"`
	MinimumFood         int   `json:"minimumFood"`
	HazardDamagePerTurn int32 `json:"hazardDamagePerTurn"`
}

type Board struct {
	Height  int32         `json:"height"`
	Width   int32         `json:"width"`
	Food    []Coord       `json:"food"`
	Hazards []Coord       `json:"hazards"`
	Snakes  []Battlesnake `json:"snakes"`
}

type Battlesnake struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Health  int32   `json:"health"`
	Body    []Coord `json:"body"`
	Latency string  `json:"latency"`
	Head    Coord   `json:"head"`
	Length  int     `json:"length"`
	Shout   string  `json:"shout"`
	Squad   string  `json:"squad"`
}

type Coord struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

type MoveResponse struct {
	Move  string `json:"move"`
	Shout string `json:"shout,omitempty"`
}

// toGameState converts a request into an engine snapshot. The board only
// lists living snakes, so everything converted is in play.
func toGameState(req *GameRequest) *game.GameState {
	state := &game.GameState{
		Width:   req.Board.Width,
		Height:  req.Board.Height,
		YouId:   req.You.ID,
		Turn:    req.Turn,
		Food:    toPoints(req.Board.Food),
		Hazards: toPoints(req.Board.Hazards),
		Snakes:  make([]game.Snake, len(req.Board.Snakes)),
	}
	for i, s := range req.Board.Snakes {
		state.Snakes[i] = game.Snake{
			Id:     s.ID,
			Health: s.Health,
			Body:   toPoints(s.Body),
		}
	}
	return state
}

func toRuleset(req *GameRequest) rules.Ruleset {
	return rules.Ruleset{HazardDamagePerTurn: req.Game.Ruleset.Settings.HazardDamagePerTurn}
}

func toPoints(cs []Coord) []game.Point {
	if len(cs) == 0 {
		return nil
	}
	out := make([]game.Point, len(cs))
	for i, c := range cs {
		out[i] = game.Point{X: c.X, Y: c.Y}
	}
	return out
}
