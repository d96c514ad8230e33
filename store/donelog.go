package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// DoneEntry records one finished replay analysis: which snake was analysed in
// which game, and how its decisions compared with the moves it played.
type DoneEntry struct {
	GameID    string
	SnakeID   string
	Decisions int
	Known     int
	Agreed    int
}

func (e DoneEntry) line() string {
	return strings.Join([]string{
		e.GameID,
		e.SnakeID,
		strconv.Itoa(e.Decisions),
		strconv.Itoa(e.Known),
		strconv.Itoa(e.Agreed),
	}, "\t") + "\n"
}

func parseDoneEntry(line string) (DoneEntry, bool) {
	fields := strings.Split(strings.TrimSpace(line), "\t")
	if len(fields) != 5 || fields[0] == "" || fields[1] == "" {
		return DoneEntry{}, false
	}
	var counts [3]int
	for i, f := range fields[2:] {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return DoneEntry{}, false
		}
		counts[i] = n
	}
	return DoneEntry{
		GameID:    fields[0],
		SnakeID:   fields[1],
		Decisions: counts[0],
		Known:     counts[1],
		Agreed:    counts[2],
	}, true
}

type doneKey struct{ game, snake string }

// DoneLog is the append-only record of analyses finished by earlier replay
// runs, one tab-separated entry per line. A torn or malformed line after a
// crash is skipped on open, so that analysis simply runs again.
type DoneLog struct {
	mu      sync.RWMutex
	file    *os.File
	entries map[doneKey]DoneEntry
}

func OpenDoneLog(path string) (*DoneLog, error) {
	if path == "" {
		return nil, fmt.Errorf("log path is required")
	}

	entries := make(map[doneKey]DoneEntry)
	if f, err := os.Open(path); err == nil {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if e, ok := parseDoneEntry(scanner.Text()); ok {
				entries[doneKey{e.GameID, e.SnakeID}] = e
			}
		}
		_ = f.Close()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return &DoneLog{file: file, entries: entries}, nil
}

func (l *DoneLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Has reports whether snakeID was already analysed in gameID.
func (l *DoneLog) Has(gameID, snakeID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.entries[doneKey{gameID, snakeID}]
	return ok
}

func (l *DoneLog) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Totals sums the recorded entries for snakeID, letting a resumed run report
// agreement over every game analysed so far.
func (l *DoneLog) Totals(snakeID string) DoneEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	total := DoneEntry{SnakeID: snakeID}
	for k, e := range l.entries {
		if k.snake != snakeID {
			continue
		}
		total.Decisions += e.Decisions
		total.Known += e.Known
		total.Agreed += e.Agreed
	}
	return total
}

// Add appends e and syncs. An entry for a game and snake already logged is
// ignored.
func (l *DoneLog) Add(e DoneEntry) error {
	if e.GameID == "" || e.SnakeID == "" {
		return fmt.Errorf("entry needs a game and a snake id")
	}
	if strings.ContainsAny(e.GameID+e.SnakeID, "\t\n") {
		return fmt.Errorf("entry ids contain a separator: %q %q", e.GameID, e.SnakeID)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	key := doneKey{e.GameID, e.SnakeID}
	if _, ok := l.entries[key]; ok {
		return nil
	}
	if l.file == nil {
		return fmt.Errorf("log file is closed")
	}
	if _, err := l.file.WriteString(e.line()); err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("sync log: %w", err)
	}
	l.entries[key] = e
	return nil
}
