// Package store keeps per-job trace files on disk.
package store

import "path/filepath"

// ErrNotFound is returned when a requested trace does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing trace.
type NotFoundError struct {
	JobID string
}

func (e *NotFoundError) Error() string {
	if e.JobID != "" {
		return "trace not found: " + e.JobID
	}
	return "trace not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

// TracePath returns <baseDir>/jobs/<jobID>/trace.jsonl.
func TracePath(baseDir, jobID string) string {
	return filepath.Join(baseDir, "jobs", jobID, "trace.jsonl")
}
