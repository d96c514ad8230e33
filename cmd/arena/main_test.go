package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/brensch/snekmax/arena"
	"github.com/brensch/snekmax/eval"
	"github.com/brensch/snekmax/store"
	"github.com/stretchr/testify/require"
)

func TestBuildPlayers(t *testing.T) {
	players, err := buildPlayers("length-food, space", 3, 2)
	require.NoError(t, err)
	require.Len(t, players, 2)
	require.Equal(t, "0-length-food", players[0].ID)
	require.Equal(t, "1-space", players[1].ID)
	require.IsType(t, eval.SpaceControl{}, players[1].Config.Evaluator)
	require.Equal(t, 3, players[1].Config.MaxDepth)
	require.Equal(t, 2, players[0].Config.Workers)

	_, err = buildPlayers("length-food,oracle", 3, 1)
	require.Error(t, err)
}

func TestTally(t *testing.T) {
	players, err := buildPlayers("length-food,space", 1, 1)
	require.NoError(t, err)
	tl := newTally(players)
	tl.record(arena.Result{GameID: "g1", Winner: "1-space", Turns: 10})
	tl.record(arena.Result{GameID: "g2", Turns: 30})

	summary := tl.Summary()
	require.Contains(t, summary, "Games:        2")
	require.Contains(t, summary, "1-space")
	require.Contains(t, summary, "Avg turns:    20.0")
	require.Equal(t, "g2: winner \"\" after 30 turns", tl.recent[0])
}

func TestRun_WritesDecisions(t *testing.T) {
	dir := t.TempDir()
	err := run([]string{
		"-games", "2",
		"-workers", "2",
		"-max-depth", "1",
		"-max-turns", "5",
		"-seed", "9",
		"-out-dir", dir,
		"-log-level", "error",
	})
	require.NoError(t, err)

	files, err := filepath.Glob(filepath.Join(dir, "decisions_*.parquet"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	rows, err := store.ReadFile(files[0])
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	tmp, err := os.ReadDir(filepath.Join(dir, "tmp"))
	require.NoError(t, err)
	require.Empty(t, tmp)
}
