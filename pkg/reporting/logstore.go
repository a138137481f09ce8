package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LogStore retires old log files, keeping only the most recent KeepLastN
// under Dir. Adapted from the teacher's Storage.SaveReport/cleanupOldReports
// pair, repurposed from JSON test-report retention to plain log files.
type LogStore struct {
	dir       string
	keepLastN int
}

// NewLogStore creates a LogStore rooted at dir, creating it if necessary.
func NewLogStore(dir string, keepLastN int) (*LogStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return &LogStore{dir: dir, keepLastN: keepLastN}, nil
}

// NewLogFile opens a new log file named precice-case-generate-<timestamp>.log
// and removes all but the KeepLastN most recent files in the directory
// (this new one included) once it is created.
func (s *LogStore) NewLogFile(timestamp string) (*os.File, error) {
	name := fmt.Sprintf("precice-case-generate-%s.log", timestamp)
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	if s.keepLastN > 0 {
		if err := s.cleanupOldLogs(); err != nil {
			return f, fmt.Errorf("log file created but cleanup failed: %w", err)
		}
	}

	return f, nil
}

// cleanupOldLogs removes the oldest log files, keeping only the last N by
// filename (the embedded timestamp sorts lexicographically by recency).
func (s *LogStore) cleanupOldLogs() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to read log directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		n := entry.Name()
		if strings.HasPrefix(n, "precice-case-generate-") && strings.HasSuffix(n, ".log") {
			names = append(names, n)
		}
	}

	if len(names) <= s.keepLastN {
		return nil
	}

	sort.Strings(names)
	toDelete := names[:len(names)-s.keepLastN]
	for _, n := range toDelete {
		if err := os.Remove(filepath.Join(s.dir, n)); err != nil {
			return fmt.Errorf("failed to delete old log file %s: %w", n, err)
		}
	}

	return nil
}
