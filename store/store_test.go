package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brensch/snekmax/eval"
	"github.com/brensch/snekmax/game"
	"github.com/brensch/snekmax/minimax"
	"github.com/stretchr/testify/require"
)

func sampleState() *game.GameState {
	return &game.GameState{
		Width:  game.BoardWidth,
		Height: game.BoardHeight,
		Turn:   7,
		YouId:  "me",
		Snakes: []game.Snake{
			{Id: "me", Health: 64, Body: []game.Point{{X: 2, Y: 2}, {X: 2, Y: 1}, {X: 2, Y: 0}}},
			{Id: "them", Health: 12, Body: []game.Point{{X: 0, Y: 5}}, EliminatedCause: game.EliminatedByWall},
		},
		Food:    []game.Point{{X: 5, Y: 5}},
		Hazards: []game.Point{{X: 0, Y: 0}},
	}
}

func sampleDecision() minimax.Decision {
	d := minimax.Decision{
		Move:      game.Left,
		Depth:     4,
		BestScore: eval.Score{Outcome: eval.Ongoing, Keys: [eval.NumKeys]int32{3, -6, 0}},
		Nodes:     1234,
		Elapsed:   1500 * time.Microsecond,
	}
	for i := range d.Scores {
		d.Scores[i] = eval.Min()
	}
	d.Scores[game.Left] = d.BestScore
	return d
}

func TestNewDecisionRow(t *testing.T) {
	state := sampleState()
	row, err := NewDecisionRow("g1", SourceArena, state, sampleDecision())
	require.NoError(t, err)

	require.Equal(t, int32(7), row.Turn)
	require.Equal(t, "me", row.SnakeID)
	require.Equal(t, int32(2), row.Move)
	require.Equal(t, int32(-1), row.Actual)
	require.Equal(t, int32(1), row.Alive)
	require.Equal(t, int32(3), row.Length)
	require.Equal(t, int32(64), row.Health)
	require.Equal(t, int64(1500), row.Micros)
	require.Equal(t, []int32{3, -6, 0}, row.Keys)
	require.Len(t, row.Scores, len(game.Directions)*(1+eval.NumKeys))
	require.Equal(t, []int32{0, 3, -6, 0}, row.Scores[8:12])

	back, err := DecodeState(row.State)
	require.NoError(t, err)
	require.Equal(t, state, back)
}

func TestNewDecisionRow_FallbackHasNoScores(t *testing.T) {
	row, err := NewDecisionRow("g1", SourceReplay, sampleState(), minimax.Decision{Move: game.Up, Fallback: true})
	require.NoError(t, err)
	require.True(t, row.Fallback)
	require.Empty(t, row.Scores)

	bad := sampleState()
	bad.Width = 0
	_, err = NewDecisionRow("g1", SourceReplay, bad, minimax.Decision{})
	require.Error(t, err)
}

func TestWriter(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)

	row, err := NewDecisionRow("g1", SourceArena, sampleState(), sampleDecision())
	require.NoError(t, err)
	require.NoError(t, w.WriteGame([]DecisionRow{row, row}))
	require.NoError(t, w.WriteRows(nil))
	require.Equal(t, 2, w.Rows())
	require.Equal(t, 1, w.Games())

	// Nothing is visible outside tmp/ until Finalize.
	_, err = os.Stat(w.OutPath())
	require.True(t, os.IsNotExist(err))

	out, err := w.Finalize()
	require.NoError(t, err)
	require.Equal(t, filepath.Dir(out), mustAbs(t, dir))

	rows, err := ReadFile(out)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, row.Keys, rows[0].Keys)
	require.Equal(t, row.State, rows[1].State)

	require.Error(t, w.WriteRows([]DecisionRow{row}))
	out, err = w.Finalize()
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestWriter_EmptyLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)

	out, err := w.Finalize()
	require.NoError(t, err)
	require.Empty(t, out)

	entries, err := os.ReadDir(filepath.Join(dir, "tmp"))
	require.NoError(t, err)
	require.Empty(t, entries)

	_, err = NewWriter("")
	require.Error(t, err)
}

func mustAbs(t *testing.T, p string) string {
	t.Helper()
	abs, err := filepath.Abs(p)
	require.NoError(t, err)
	return abs
}

func TestDoneLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "done.log")
	l, err := OpenDoneLog(path)
	require.NoError(t, err)
	require.Zero(t, l.Count())

	require.NoError(t, l.Add(DoneEntry{GameID: "g1", SnakeID: "me", Decisions: 10, Known: 9, Agreed: 6}))
	require.NoError(t, l.Add(DoneEntry{GameID: "g1", SnakeID: "me", Decisions: 99}))
	require.NoError(t, l.Add(DoneEntry{GameID: "g2", SnakeID: "me", Decisions: 4, Known: 4, Agreed: 4}))
	require.NoError(t, l.Add(DoneEntry{GameID: "g1", SnakeID: "them", Decisions: 7, Known: 7, Agreed: 1}))
	require.Error(t, l.Add(DoneEntry{GameID: "g3"}))
	require.Error(t, l.Add(DoneEntry{GameID: "g\t3", SnakeID: "me"}))
	require.True(t, l.Has("g1", "me"))
	require.True(t, l.Has("g1", "them"))
	require.False(t, l.Has("g2", "them"))
	require.Equal(t, DoneEntry{SnakeID: "me", Decisions: 14, Known: 13, Agreed: 10}, l.Totals("me"))
	require.NoError(t, l.Close())
	require.Error(t, l.Add(DoneEntry{GameID: "g3", SnakeID: "me"}))

	// Torn and malformed lines are skipped on reopen.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("\n  \ng4\tme\tx\t1\t1\ng3\tme\t5")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	l, err = OpenDoneLog(path)
	require.NoError(t, err)
	defer l.Close()
	require.Equal(t, 3, l.Count())
	require.True(t, l.Has("g2", "me"))
	require.False(t, l.Has("g3", "me"))
	require.False(t, l.Has("g4", "me"))
	require.Equal(t, DoneEntry{SnakeID: "them", Decisions: 7, Known: 7, Agreed: 1}, l.Totals("them"))

	_, err = OpenDoneLog("")
	require.Error(t, err)
}
