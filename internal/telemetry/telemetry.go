// Package telemetry appends rewrite-attempt and retry-result events as
// JSONL to a per-(game, date) session file (spec §3 Telemetry events,
// §4.11, component C11). Events are buffered and flushed in batches of
// 10, or unconditionally on Close; a failed flush is reported to stderr
// but is never fatal to the caller (spec §7).
package telemetry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

const flushThreshold = 10

const maxGameOutputChars = 500

// EventType names a telemetry event kind: the two from spec §4.11 plus
// session_summary.
type EventType string

const (
	EventRewriteAttempt EventType = "rewrite_attempt"
	EventRetryResult    EventType = "retry_result"
	EventSessionSummary EventType = "session_summary" // [ADDED] SPEC_FULL §4
)

// RewriteAttempt records one C9-validated (or rejected) rewrite proposal.
type RewriteAttempt struct {
	OriginalCommand string
	Rewrite         string
	RewriteExists   bool
	FailureType     string
	IsRewritable    bool
	GameOutput      string
}

// RetryResult records the outcome of replaying a validated rewrite.
type RetryResult struct {
	OriginalCommand string
	Rewrite         string
	Success         bool
	RetryOutput     string
}

// SessionSummary aggregates one session's attempts on shutdown.
// [ADDED] SPEC_FULL §4 "Telemetry session summary".
type SessionSummary struct {
	Attempts         int
	RewritesAccepted int
	RewritesRejected int
	RetriesFailed    int
}

type event struct {
	EventID          string    `json:"event_id"`
	SessionID        string    `json:"session_id"`
	EventType        EventType `json:"event_type"`
	Timestamp        string    `json:"timestamp"`
	OriginalCommand  string    `json:"original_command,omitempty"`
	Rewrite          string    `json:"rewrite,omitempty"`
	RewriteExists    *bool     `json:"rewrite_exists,omitempty"`
	FailureType      string    `json:"failure_type,omitempty"`
	IsRewritable     *bool     `json:"is_rewritable,omitempty"`
	GameOutput       string    `json:"game_output,omitempty"`
	Success          *bool     `json:"success,omitempty"`
	RetryOutput      string    `json:"retry_output,omitempty"`
	Attempts         int       `json:"attempts,omitempty"`
	RewritesAccepted int       `json:"rewrites_accepted,omitempty"`
	RewritesRejected int       `json:"rewrites_rejected,omitempty"`
	RetriesFailed    int       `json:"retries_failed,omitempty"`
}

// Clock lets tests control the timestamp without sleeping or depending
// on wall-clock time; production code uses time.Now.
type Clock func() time.Time

// Logger is the append-only JSONL sink. It is safe for concurrent use
// from the state-machine goroutine and any background validator logging
// (spec §5 "multi-producer single-consumer FIFO").
type Logger struct {
	mu        sync.Mutex
	dir       string
	gameName  string
	sessionID string
	clock     Clock
	buffer    []event
	summary   SessionSummary
}

// New builds a Logger that will write to <dir>/<gameName>_<date>.jsonl.
// Every event it appends carries a fresh event_id plus a session_id
// shared across the Logger's lifetime, so operators can correlate
// rewrite_attempt/retry_result/session_summary rows from one session.
func New(dir, gameName string) *Logger {
	return &Logger{dir: dir, gameName: gameName, sessionID: uuid.NewString(), clock: time.Now}
}

// NewWithClock is New but with an injectable clock, for deterministic tests.
func NewWithClock(dir, gameName string, clock Clock) *Logger {
	return &Logger{dir: dir, gameName: gameName, sessionID: uuid.NewString(), clock: clock}
}

func truncate(s string) string {
	if len(s) > maxGameOutputChars {
		return s[:maxGameOutputChars]
	}
	return s
}

func boolPtr(b bool) *bool { return &b }

// LogRewriteAttempt appends a rewrite_attempt event.
func (l *Logger) LogRewriteAttempt(a RewriteAttempt) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.summary.Attempts++
	if a.RewriteExists {
		l.summary.RewritesAccepted++
	} else {
		l.summary.RewritesRejected++
	}

	l.append(event{
		EventID:         uuid.NewString(),
		SessionID:       l.sessionID,
		EventType:       EventRewriteAttempt,
		Timestamp:       l.clock().UTC().Format("2006-01-02T15:04:05.000Z"),
		OriginalCommand: a.OriginalCommand,
		Rewrite:         a.Rewrite,
		RewriteExists:   boolPtr(a.RewriteExists),
		FailureType:     a.FailureType,
		IsRewritable:    boolPtr(a.IsRewritable),
		GameOutput:      truncate(a.GameOutput),
	})
}

// LogRetryResult appends a retry_result event.
func (l *Logger) LogRetryResult(r RetryResult) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !r.Success {
		l.summary.RetriesFailed++
	}

	l.append(event{
		EventID:         uuid.NewString(),
		SessionID:       l.sessionID,
		EventType:       EventRetryResult,
		Timestamp:       l.clock().UTC().Format("2006-01-02T15:04:05.000Z"),
		OriginalCommand: r.OriginalCommand,
		Rewrite:         r.Rewrite,
		Success:         boolPtr(r.Success),
		RetryOutput:     truncate(r.RetryOutput),
	})
}

// append must be called with l.mu held.
func (l *Logger) append(e event) {
	l.buffer = append(l.buffer, e)
	if len(l.buffer) >= flushThreshold {
		l.flushLocked()
	}
}

// Close appends a session_summary event after any buffered events and
// flushes them all unconditionally.
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.buffer = append(l.buffer, event{
		EventID:          uuid.NewString(),
		SessionID:        l.sessionID,
		EventType:        EventSessionSummary,
		Timestamp:        l.clock().UTC().Format("2006-01-02T15:04:05.000Z"),
		Attempts:         l.summary.Attempts,
		RewritesAccepted: l.summary.RewritesAccepted,
		RewritesRejected: l.summary.RewritesRejected,
		RetriesFailed:    l.summary.RetriesFailed,
	})
	l.flushLocked()
}

func (l *Logger) filePath() string {
	date := l.clock().UTC().Format("2006-01-02")
	return filepath.Join(l.dir, fmt.Sprintf("%s_%s.jsonl", l.gameName, date))
}

// flushLocked writes and clears the buffer. Failures are reported to
// stderr but never returned: telemetry must never interrupt gameplay
// (spec §7 "Failed writes are reported to stderr but are never fatal").
func (l *Logger) flushLocked() {
	if len(l.buffer) == 0 {
		return
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, e := range l.buffer {
		if err := enc.Encode(e); err != nil {
			fmt.Fprintf(os.Stderr, "telemetry: failed to encode event: %v\n", err)
			continue
		}
	}

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: failed to create directory %s: %v\n", l.dir, err)
		l.buffer = l.buffer[:0]
		return
	}

	f, err := os.OpenFile(l.filePath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: failed to open %s: %v\n", l.filePath(), err)
		l.buffer = l.buffer[:0]
		return
	}
	defer f.Close()

	if _, err := f.Write(buf.Bytes()); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: failed to write events: %v\n", err)
	}

	l.buffer = l.buffer[:0]
}

// PendingCount reports how many events are buffered but not yet flushed.
// Exposed for tests asserting the flush-at-10 threshold.
func (l *Logger) PendingCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buffer)
}
