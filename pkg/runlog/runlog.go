// Package runlog records a JSONL audit trail for pipeline runs.
package runlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Run modes recorded on every event.
const (
	ModeDryRun = "dry-run"
	ModeWrite  = "write"
)

// Event captures one pipeline step for later audit. One run emits one event
// per research query, one for the synthesis outcome, and a final summary, so
// two runs over identical inputs can be compared line by line.
type Event struct {
	Timestamp  time.Time `json:"timestamp"`
	RunID      string    `json:"run_id"`
	Mode       string    `json:"mode"`
	Stage      string    `json:"stage"`
	Query      string    `json:"query,omitempty"`
	Items      int       `json:"items,omitempty"`
	Candidates int       `json:"candidates,omitempty"`
	Accepted   int       `json:"accepted,omitempty"`
	Rejected   int       `json:"rejected,omitempty"`
	Titles     []string  `json:"titles,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// NewRunID returns a fresh identifier tying a run's events together.
func NewRunID() string {
	return uuid.NewString()
}

// Logger records pipeline events.
type Logger interface {
	LogEvent(Event) error
	Close() error
}

// JSONLLogger appends each event as one JSON line.
type JSONLLogger struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
}

// NewJSONLLogger creates a JSONL logger at the given path.
func NewJSONLLogger(path string) (*JSONLLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &JSONLLogger{
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

// LogEvent writes a single event as JSONL.
func (l *JSONLLogger) LogEvent(ev Event) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := l.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return l.writer.Flush()
}

// Close closes the logger.
func (l *JSONLLogger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.writer != nil {
		_ = l.writer.Flush()
	}
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Nop discards all events. Used when auditing is disabled.
type Nop struct{}

func (Nop) LogEvent(Event) error { return nil }
func (Nop) Close() error         { return nil }
