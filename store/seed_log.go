package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// SeedLog records which self-play seeds are archived. A self-play game is
// fully determined by its seed, so a restarted run uses it to skip games it
// already has on disk.
//
// The file holds one decimal seed per line. Lines that do not parse (a
// partial write before a crash) are ignored on load.
type SeedLog struct {
	mu     sync.RWMutex
	f      *os.File
	played map[int64]struct{}
}

func OpenSeedLog(path string) (*SeedLog, error) {
	if path == "" {
		return nil, fmt.Errorf("seed log path is required")
	}
	played, torn, err := loadSeeds(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create seed log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open seed log: %w", err)
	}
	if torn {
		// Terminate the torn line so the next seed starts on its own.
		if _, err := f.Write([]byte{'\n'}); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("repair seed log: %w", err)
		}
	}
	return &SeedLog{f: f, played: played}, nil
}

// loadSeeds reads every complete seed line. torn reports a final line
// without a newline.
func loadSeeds(path string) (played map[int64]struct{}, torn bool, err error) {
	played = make(map[int64]struct{})
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return played, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read seed log: %w", err)
	}
	torn = len(raw) > 0 && raw[len(raw)-1] != '\n'
	for _, line := range strings.Split(string(raw), "\n") {
		seed, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
		if err != nil {
			continue
		}
		played[seed] = struct{}{}
	}
	return played, torn, nil
}

func (l *SeedLog) Played(seed int64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.played[seed]
	return ok
}

func (l *SeedLog) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.played)
}

// MarkPlayed appends the seeds of one flushed batch with a single write and
// fsync. Seeds already present are skipped.
func (l *SeedLog) MarkPlayed(games []GameRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return fmt.Errorf("seed log is closed")
	}

	var buf []byte
	fresh := make(map[int64]struct{}, len(games))
	for _, g := range games {
		if _, ok := l.played[g.Seed]; ok {
			continue
		}
		if _, ok := fresh[g.Seed]; ok {
			continue
		}
		buf = strconv.AppendInt(buf, g.Seed, 10)
		buf = append(buf, '\n')
		fresh[g.Seed] = struct{}{}
	}
	if len(fresh) == 0 {
		return nil
	}
	if _, err := l.f.Write(buf); err != nil {
		return fmt.Errorf("append seeds: %w", err)
	}
	if err := l.f.Sync(); err != nil {
		return fmt.Errorf("sync seed log: %w", err)
	}
	for seed := range fresh {
		l.played[seed] = struct{}{}
	}
	return nil
}

func (l *SeedLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}
