// Package logging provides the process-wide structured trace log:
// one file per calendar day under the log directory, with files
// older than three days pruned on open. Adapted from the teacher's
// internal/debug package (same file-handle-behind-a-mutex shape),
// generalized from an on/off debug switch into an always-on,
// rotated trace log for the service façade.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const retentionDays = 3

// Logger writes timestamped trace lines to a daily-rotated file.
type Logger struct {
	mu      sync.Mutex
	dir     string
	day     string
	file    *os.File
	disable bool
}

// Open creates (or resumes) the log directory at dir, pruning entries
// older than three days, and returns a Logger that rotates to a new
// file whenever the calendar day changes.
func Open(dir string) (*Logger, error) {
	if dir == "" {
		return &Logger{disable: true}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	l := &Logger{dir: dir}
	if err := l.rotate(time.Now()); err != nil {
		return nil, err
	}
	prune(dir, time.Now())
	return l, nil
}

// Tracef writes one structured line: "<RFC3339 timestamp> <op> <msg>".
// It rotates to a new day's file first if the calendar day has
// changed since the last call.
func (l *Logger) Tracef(op, format string, args ...any) {
	if l == nil || l.disable {
		return
	}
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Format("2006-01-02") != l.day {
		_ = l.rotate(now)
	}
	if l.file == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(l.file, "%s %s %s\n", now.Format(time.RFC3339), op, msg)
}

// Close releases the current log file handle.
func (l *Logger) Close() error {
	if l == nil || l.disable {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *Logger) rotate(now time.Time) error {
	if l.file != nil {
		_ = l.file.Close()
	}
	day := now.Format("2006-01-02")
	path := filepath.Join(l.dir, "astro-sight-"+day+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	l.file = f
	l.day = day
	return nil
}

// prune removes log files older than retentionDays, based on the
// date embedded in the filename rather than mtime so a touched old
// file isn't kept around by accident.
func prune(dir string, now time.Time) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	cutoff := now.AddDate(0, 0, -retentionDays)
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "astro-sight-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		day := strings.TrimSuffix(strings.TrimPrefix(name, "astro-sight-"), ".log")
		t, err := time.Parse("2006-01-02", day)
		if err != nil {
			continue
		}
		if t.Before(cutoff) {
			_ = os.Remove(filepath.Join(dir, name))
		}
	}
}

// Files lists the log files currently retained, oldest first. Used
// by doctor to report log state.
func Files(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "astro-sight-") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}
