// Package journal persists fetch reports as JSON lines, one directory per
// day, host and outcome.
package journal

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/dgnsrekt/jsonrequest/internal/jsonrequest"
)

// Journal manages one Writer per host and outcome.
type Journal struct {
	baseDir       string
	maxSizeMB     int
	bufferSize    int
	maxValueBytes int
	runID         string

	// writers maps host segment -> outcome -> writer
	writers map[string]map[string]*Writer
	closed  bool
	mu      sync.RWMutex
}

// New creates a Journal rooted at baseDir. Values whose JSON encoding is
// longer than maxValueBytes are truncated; zero keeps every value whole.
func New(baseDir string, bufferSize, maxSizeMB, maxValueBytes int) *Journal {
	return &Journal{
		baseDir:       baseDir,
		maxSizeMB:     maxSizeMB,
		bufferSize:    bufferSize,
		maxValueBytes: maxValueBytes,
		runID:         ShortID(uuid.NewString()),
		writers:       make(map[string]map[string]*Writer),
	}
}

// Record queues r for writing. It matches the engine observer signature.
func (j *Journal) Record(r jsonrequest.Report) {
	w := j.writer(HostSegment(r.URL), r.Outcome)
	if w == nil {
		return
	}
	if err := w.Write(newRecord(r, j.maxValueBytes)); err != nil {
		slog.Debug("journal record dropped", "id", r.ID, "error", err)
	}
}

func (j *Journal) writer(host, outcome string) *Writer {
	if outcome == "" {
		outcome = jsonrequest.OutcomeError
	}

	j.mu.RLock()
	if j.closed {
		j.mu.RUnlock()
		return nil
	}
	if w, ok := j.writers[host][outcome]; ok {
		j.mu.RUnlock()
		return w
	}
	j.mu.RUnlock()

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	if w, ok := j.writers[host][outcome]; ok {
		return w
	}
	if j.writers[host] == nil {
		j.writers[host] = make(map[string]*Writer)
	}

	w := NewWriter(j.baseDir, host+"/"+outcome, j.bufferSize, j.maxSizeMB, j.runID)
	j.writers[host][outcome] = w

	slog.Info("created journal writer",
		"host", host,
		"outcome", outcome,
		"run_id", j.runID)
	return w
}

// Close flushes and closes every writer. Later records are dropped.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.closed = true
	var lastErr error
	for host, byOutcome := range j.writers {
		for outcome, w := range byOutcome {
			if err := w.Close(); err != nil {
				slog.Error("failed to close journal writer",
					"host", host,
					"outcome", outcome,
					"error", err)
				lastErr = err
			}
		}
	}
	j.writers = make(map[string]map[string]*Writer)
	return lastErr
}
