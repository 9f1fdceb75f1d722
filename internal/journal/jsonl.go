package journal

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Writer appends records as JSON lines to date-organized files. Writes are
// queued and flushed by a background goroutine.
type Writer struct {
	baseDir     string
	subDir      string // e.g., "api.example.com/error"
	maxSizeMB   int
	runID       string
	writeCh     chan any
	done        chan struct{}
	closeOnce   sync.Once
	wg          sync.WaitGroup
	currentDate string
	logger      *lumberjack.Logger
	mu          sync.Mutex
}

// NewWriter creates an async JSONL writer. Files are named after runID.
func NewWriter(baseDir, subDir string, bufferSize, maxSizeMB int, runID string) *Writer {
	if bufferSize < 1 {
		bufferSize = 1
	}
	w := &Writer{
		baseDir:   baseDir,
		subDir:    subDir,
		maxSizeMB: maxSizeMB,
		runID:     runID,
		writeCh:   make(chan any, bufferSize),
		done:      make(chan struct{}),
	}

	w.wg.Add(1)
	go w.writeLoop()

	return w
}

// Write queues a record. It never blocks: a full buffer drops the record.
func (w *Writer) Write(record any) error {
	select {
	case <-w.done:
		return fmt.Errorf("writer is closed")
	default:
	}
	select {
	case w.writeCh <- record:
		return nil
	default:
		slog.Warn("journal buffer full, dropping record",
			"subdir", w.subDir)
		return fmt.Errorf("buffer full")
	}
}

// Close shuts down the writer and flushes pending records.
func (w *Writer) Close() error {
	w.closeOnce.Do(func() { close(w.done) })
	w.wg.Wait()

	timeout := time.After(5 * time.Second)
drain:
	for {
		select {
		case record := <-w.writeCh:
			w.writeRecord(record)
		case <-timeout:
			slog.Warn("journal close timeout, some records may be lost",
				"subdir", w.subDir)
			break drain
		default:
			break drain
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.logger != nil {
		err := w.logger.Close()
		w.logger = nil
		return err
	}
	return nil
}

func (w *Writer) writeLoop() {
	defer w.wg.Done()

	for {
		select {
		case record := <-w.writeCh:
			w.writeRecord(record)
		case <-w.done:
			return
		}
	}
}

func (w *Writer) writeRecord(record any) {
	data, err := json.Marshal(record)
	if err != nil {
		slog.Error("failed to marshal journal record",
			"error", err,
			"subdir", w.subDir)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	currentDate := time.Now().UTC().Format("2006-01-02")
	if currentDate != w.currentDate || w.logger == nil {
		if err := w.rotateForDate(currentDate); err != nil {
			slog.Error("failed to open journal file",
				"error", err,
				"subdir", w.subDir)
			return
		}
	}

	if _, err := w.logger.Write(append(data, '\n')); err != nil {
		slog.Error("failed to write journal record",
			"error", err,
			"subdir", w.subDir)
	}
}

func (w *Writer) rotateForDate(date string) error {
	if w.logger != nil {
		w.logger.Close()
		w.logger = nil
	}

	dir := filepath.Join(w.baseDir, date, filepath.FromSlash(w.subDir))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	name := w.runID
	if name == "" {
		name = fmt.Sprintf("%d", time.Now().Unix())
	}
	filename := filepath.Join(dir, name+".jsonl")

	w.logger = &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    w.maxSizeMB,
		MaxBackups: 100,
		MaxAge:     30,
		Compress:   false,
		LocalTime:  false,
	}

	w.currentDate = date
	slog.Info("opened journal file",
		"file", filename,
		"subdir", w.subDir)
	return nil
}
