package logging

import (
	"fmt"
	"sync"
	"time"

	"photobatch/types"
)

// Trace categories
const (
	CategorySystem  = "SYSTEM"
	CategoryStep    = "STEP"
	CategoryFile    = "FILE"
	CategoryWarning = "WARNING"
	CategoryError   = "ERROR"
)

// Trace is the append-only step log of a single batch.
// Workers append through a mutex so entries never interleave.
type Trace struct {
	sessionID string
	start     time.Time
	mu        sync.Mutex
	entries   []types.TraceEntry
	errors    int
	warnings  int
}

// NewTrace starts a trace for a session
func NewTrace(sessionID string) *Trace {
	t := &Trace{
		sessionID: sessionID,
		start:     time.Now(),
	}
	t.Log(CategorySystem, "trace started", map[string]interface{}{"session_id": sessionID})
	return t
}

// Log appends an entry and mirrors it to the global logger
func (t *Trace) Log(category, message string, data map[string]interface{}) {
	now := time.Now()
	entry := types.TraceEntry{
		Timestamp: now.Format("2006-01-02 15:04:05"),
		ElapsedMs: float64(now.Sub(t.start).Microseconds()) / 1000,
		Category:  category,
		Message:   message,
		Data:      data,
	}

	t.mu.Lock()
	t.entries = append(t.entries, entry)
	switch category {
	case CategoryError:
		t.errors++
	case CategoryWarning:
		t.warnings++
	}
	t.mu.Unlock()

	line := fmt.Sprintf("[%s] [%s] %s", t.sessionID, category, message)
	if len(data) > 0 {
		line = fmt.Sprintf("%s | %v", line, data)
	}
	switch category {
	case CategoryError:
		LogError("%s", line)
	case CategoryWarning:
		LogWarning("%s", line)
	default:
		DebugLog("%s", line)
	}
}

// Step logs a processing step
func (t *Trace) Step(message string, data map[string]interface{}) {
	t.Log(CategoryStep, message, data)
}

// Error logs a failure
func (t *Trace) Error(message string, data map[string]interface{}) {
	t.Log(CategoryError, message, data)
}

// Warning logs a recoverable problem
func (t *Trace) Warning(message string, data map[string]interface{}) {
	t.Log(CategoryWarning, message, data)
}

// Entries returns a copy of the trace so far
func (t *Trace) Entries() []types.TraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]types.TraceEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Counts returns the number of error and warning entries
func (t *Trace) Counts() (errors, warnings int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.errors, t.warnings
}

// Elapsed is the time since the trace started
func (t *Trace) Elapsed() time.Duration {
	return time.Since(t.start)
}
