package main

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brensch/snekmax/arena"
	tea "github.com/charmbracelet/bubbletea"
)

// tally aggregates finished games across workers.
type tally struct {
	turns atomic.Int64

	mu     sync.Mutex
	start  time.Time
	games  int
	draws  int
	wins   map[string]int
	length int
	recent []string
}

func newTally(players []arena.Player) *tally {
	t := &tally{start: time.Now(), wins: make(map[string]int, len(players))}
	for _, p := range players {
		t.wins[p.ID] = 0
	}
	return t
}

func (t *tally) record(res arena.Result) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.games++
	t.length += res.Turns
	if res.Winner == "" {
		t.draws++
	} else {
		t.wins[res.Winner]++
	}
	line := fmt.Sprintf("%s: winner %q after %d turns", res.GameID, res.Winner, res.Turns)
	t.recent = append([]string{line}, t.recent...)
	if len(t.recent) > 10 {
		t.recent = t.recent[:10]
	}
}

func (t *tally) Summary() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := make([]string, 0, len(t.wins))
	for id := range t.wins {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Games:        %d\n", t.games)
	for _, id := range ids {
		fmt.Fprintf(&sb, "  %-16s %d wins\n", id, t.wins[id])
	}
	fmt.Fprintf(&sb, "  %-16s %d\n", "no winner", t.draws)
	if t.games > 0 {
		fmt.Fprintf(&sb, "Avg turns:    %.1f\n", float64(t.length)/float64(t.games))
	}
	return sb.String()
}

type tickMsg time.Time

type allDoneMsg struct{}

type model struct {
	stats   *tally
	updates <-chan gameDone
	turns   int64
	done    bool
}

func initialModel(stats *tally, updates <-chan gameDone) model {
	return model{stats: stats, updates: updates}
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForUpdate(updates <-chan gameDone) tea.Cmd {
	return func() tea.Msg {
		done, ok := <-updates
		if !ok {
			return allDoneMsg{}
		}
		return done
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForUpdate(m.updates), tickCmd())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case tickMsg:
		m.turns = m.stats.turns.Load()
		return m, tickCmd()
	case gameDone:
		return m, waitForUpdate(m.updates)
	case allDoneMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	elapsed := time.Since(m.stats.start)
	turnsPerSec := 0.0
	if elapsed >= time.Second {
		turnsPerSec = float64(m.turns) / elapsed.Seconds()
	}

	var sb strings.Builder
	sb.WriteString(m.stats.Summary())
	fmt.Fprintf(&sb, "Turns:        %d\n", m.turns)
	fmt.Fprintf(&sb, "Duration:     %s\n", elapsed.Round(time.Second))
	fmt.Fprintf(&sb, "Turns/Sec:    %.2f\n\n", turnsPerSec)

	sb.WriteString("Recent Games:\n")
	m.stats.mu.Lock()
	for _, g := range m.stats.recent {
		sb.WriteString(g + "\n")
	}
	m.stats.mu.Unlock()

	if m.done {
		sb.WriteString("\nAll games finished.\n")
	} else {
		sb.WriteString("\nPress q to quit.\n")
	}
	return sb.String()
}
