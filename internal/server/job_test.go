package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cwbudde/equimin/internal/merit"
	"github.com/cwbudde/equimin/internal/solve"
)

func quadraticConfig() solve.Config {
	return solve.Config{
		Objective: "quadratic",
		Params:    merit.Params{Center: []float64{3, -1}},
		Tol:       1e-8,
	}
}

func TestJobManager_CreateJob(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(quadraticConfig())

	if job.ID == "" {
		t.Error("Job ID should not be empty")
	}
	if job.State != StatePending {
		t.Errorf("Initial state should be pending, got %s", job.State)
	}
	if job.Config.Objective != "quadratic" {
		t.Errorf("Config not set correctly")
	}
}

func TestJobManager_GetJob(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(quadraticConfig())

	retrieved, exists := jm.GetJob(job.ID)
	if !exists {
		t.Fatal("Job should exist")
	}
	if retrieved.ID != job.ID {
		t.Error("Retrieved wrong job")
	}

	// Snapshots do not alias the managed job.
	retrieved.State = StateFailed
	again, _ := jm.GetJob(job.ID)
	if again.State != StatePending {
		t.Errorf("Snapshot mutation leaked into manager, state %s", again.State)
	}

	if _, exists := jm.GetJob("nonexistent"); exists {
		t.Error("Should not find nonexistent job")
	}
}

func TestJobManager_ListJobs(t *testing.T) {
	jm := NewJobManager()

	if len(jm.ListJobs()) != 0 {
		t.Error("Should start with no jobs")
	}

	first := jm.CreateJob(quadraticConfig())
	second := jm.CreateJob(solve.Config{Objective: "beale"})

	jobs := jm.ListJobs()
	if len(jobs) != 2 {
		t.Fatalf("Expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].ID != first.ID || jobs[1].ID != second.ID {
		t.Error("Jobs should be listed in creation order")
	}
}

func TestJobManager_UpdateJob(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(quadraticConfig())

	err := jm.UpdateJob(job.ID, func(j *Job) {
		j.State = StateRunning
		j.Iterations = 10
		j.Value = 123.45
	})
	if err != nil {
		t.Errorf("Update should succeed: %v", err)
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateRunning {
		t.Error("State should be updated")
	}
	if updated.Iterations != 10 {
		t.Error("Iterations should be updated")
	}
	if updated.Value != 123.45 {
		t.Error("Value should be updated")
	}

	err = jm.UpdateJob("nonexistent", func(j *Job) {})
	if !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Expected ErrJobNotFound, got %v", err)
	}
}

func TestJobManager_CancelJob(t *testing.T) {
	jm := NewJobManager()

	// A pending job without a worker is cancelled directly.
	pending := jm.CreateJob(quadraticConfig())
	if err := jm.CancelJob(pending.ID); err != nil {
		t.Fatalf("Cancel should succeed: %v", err)
	}
	got, _ := jm.GetJob(pending.ID)
	if got.State != StateCancelled || got.EndTime == nil {
		t.Errorf("Expected cancelled job with end time, got %s", got.State)
	}
	if err := jm.CancelJob(pending.ID); !errors.Is(err, ErrJobFinished) {
		t.Errorf("Expected ErrJobFinished, got %v", err)
	}

	// A job with a worker has its context cancelled.
	running := jm.CreateJob(quadraticConfig())
	ctx, cancel := context.WithCancel(context.Background())
	if err := jm.attach(running.ID, cancel); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	if err := jm.CancelJob(running.ID); err != nil {
		t.Fatalf("Cancel should succeed: %v", err)
	}
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Error("Worker context was not cancelled")
	}

	if err := jm.CancelJob("nonexistent"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Expected ErrJobNotFound, got %v", err)
	}
}

func TestJobManager_ThreadSafety(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(quadraticConfig())

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(iteration int) {
			jm.UpdateJob(job.ID, func(j *Job) {
				j.Iterations = iteration
				j.Point = append(j.Point[:0], float64(iteration))
			})
			jm.GetJob(job.ID)
			jm.ListJobs()
			done <- true
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	if _, exists := jm.GetJob(job.ID); !exists {
		t.Error("Job should still exist after concurrent updates")
	}
}
