package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cwbudde/equimin/internal/funcmin"
)

// TraceEntry is one line of trace.jsonl: the state of a minimizer at the
// start, after an outer iteration, or at the end of a run.
type TraceEntry struct {
	// Kind is "start", "iter" or "done".
	Kind      string    `json:"kind"`
	Method    string    `json:"method"`
	Iteration int       `json:"iteration"`
	Value     float64   `json:"value"`
	Point     []float64 `json:"point,omitempty"`
	// Status is set on "done" entries.
	Status    string    `json:"status,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// TraceWriter writes trace entries to a JSONL file.
// It uses buffered I/O and is safe for concurrent use.
type TraceWriter struct {
	mu     sync.Mutex
	file   *os.File
	buf    *bufio.Writer
	enc    *json.Encoder
	path   string
	points bool
	err    error
}

// NewTraceWriter creates a trace writer for the given job at
// <baseDir>/jobs/<jobID>/trace.jsonl. If append is true, new entries are
// appended to an existing file.
func NewTraceWriter(baseDir, jobID string, append bool) (*TraceWriter, error) {
	return CreateTrace(TracePath(baseDir, jobID), append)
}

// CreateTrace opens a trace file at an arbitrary path, creating parent
// directories as needed.
func CreateTrace(path string, append bool) (*TraceWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create trace directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if append {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	file, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}

	buf := bufio.NewWriterSize(file, 64*1024)
	return &TraceWriter{file: file, buf: buf, enc: json.NewEncoder(buf), path: path, points: true}, nil
}

// OmitPoints drops the point from entries written through Tracer, which
// keeps traces of large problems small.
func (tw *TraceWriter) OmitPoints() {
	tw.mu.Lock()
	tw.points = false
	tw.mu.Unlock()
}

// Write appends a trace entry. The entry is buffered and reaches the file
// on Flush or Close.
func (tw *TraceWriter) Write(entry TraceEntry) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if err := tw.enc.Encode(entry); err != nil {
		return fmt.Errorf("trace %s: %w", tw.path, err)
	}
	return nil
}

// Tracer returns a funcmin.Tracer that records start, iteration and done
// events. Line search events are ignored. The first write error is kept
// and reported by Err.
func (tw *TraceWriter) Tracer() funcmin.Tracer {
	return funcmin.TracerFunc(func(ev funcmin.Event) {
		entry := TraceEntry{
			Method:    ev.Method,
			Iteration: ev.Iter,
			Value:     ev.Value,
			Timestamp: time.Now(),
		}
		switch ev.Kind {
		case funcmin.EventStart:
			entry.Kind = "start"
		case funcmin.EventIter:
			entry.Kind = "iter"
		case funcmin.EventDone:
			entry.Kind = "done"
			entry.Status = ev.Status.String()
		default:
			return
		}

		tw.mu.Lock()
		if tw.points {
			entry.Point = append([]float64(nil), ev.X...)
		}
		tw.mu.Unlock()

		if err := tw.Write(entry); err != nil {
			tw.mu.Lock()
			if tw.err == nil {
				tw.err = err
				slog.Warn("Trace write failed", "path", tw.path, "error", err)
			}
			tw.mu.Unlock()
		}
	})
}

// Err returns the first error seen by the Tracer.
func (tw *TraceWriter) Err() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.err
}

// Flush writes any buffered data to the file.
func (tw *TraceWriter) Flush() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if err := tw.buf.Flush(); err != nil {
		return fmt.Errorf("trace %s: %w", tw.path, err)
	}
	return tw.file.Sync()
}

// Close flushes buffered data and closes the trace file.
func (tw *TraceWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	flushErr := tw.buf.Flush()
	closeErr := tw.file.Close()
	if flushErr != nil {
		return fmt.Errorf("trace %s: %w", tw.path, flushErr)
	}
	return closeErr
}

// Path returns the filesystem path to the trace file.
func (tw *TraceWriter) Path() string {
	return tw.path
}

// TraceReader decodes the entries of a trace file one at a time.
type TraceReader struct {
	file *os.File
	dec  *json.Decoder
	line int
}

// NewTraceReader opens the trace of the given job.
func NewTraceReader(baseDir, jobID string) (*TraceReader, error) {
	r, err := OpenTrace(TracePath(baseDir, jobID))
	var nf *NotFoundError
	if errors.As(err, &nf) {
		nf.JobID = jobID
	}
	return r, err
}

// OpenTrace opens a trace file at an arbitrary path.
func OpenTrace(path string) (*TraceReader, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &NotFoundError{}
	}
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}
	return &TraceReader{file: file, dec: json.NewDecoder(bufio.NewReader(file))}, nil
}

// Read returns the next entry, or io.EOF after the last one.
func (tr *TraceReader) Read() (*TraceEntry, error) {
	var entry TraceEntry
	if err := tr.dec.Decode(&entry); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("trace entry %d: %w", tr.line+1, err)
	}
	tr.line++
	return &entry, nil
}

// ReadAll returns the remaining entries.
func (tr *TraceReader) ReadAll() ([]TraceEntry, error) {
	var entries []TraceEntry
	for {
		entry, err := tr.Read()
		switch {
		case err == io.EOF:
			return entries, nil
		case err != nil:
			return entries, err
		}
		entries = append(entries, *entry)
	}
}

func (tr *TraceReader) Close() error {
	return tr.file.Close()
}
