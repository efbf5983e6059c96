package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/equimin/internal/funcmin"
	"github.com/cwbudde/equimin/internal/solve"
	"github.com/cwbudde/equimin/internal/store"
)

// progressInterval throttles SSE progress events.
var progressInterval = 500 * time.Millisecond

// runJob executes a job in the calling goroutine. Cancelling ctx stops the
// minimizer at its next progress poll. When traceDir is not empty, one
// trace line per outer iteration is written to
// <traceDir>/jobs/<id>/trace.jsonl.
func runJob(ctx context.Context, jm *JobManager, traceDir string, jobID string) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}

	err := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateRunning
	})
	if err != nil {
		return err
	}

	slog.Info("Starting job", "job_id", jobID, "objective", job.Config.Objective, "method", job.Config.Method)

	select {
	case <-ctx.Done():
		markJobCancelled(jm, jobID, nil)
		return ctx.Err()
	default:
	}

	tracers := []funcmin.Tracer{jobTracer(jm, jobID)}
	if traceDir != "" {
		writer, err := store.NewTraceWriter(traceDir, jobID, false)
		if err != nil {
			markJobFailed(jm, jobID, nil, err)
			return err
		}
		defer func() {
			if err := writer.Close(); err != nil {
				slog.Warn("Failed to close trace", "job_id", jobID, "error", err)
			}
		}()
		tracers = append(tracers, writer.Tracer())
	}

	sink := funcmin.ContextSink(ctx, func(fraction float64) {
		jm.UpdateJob(jobID, func(j *Job) {
			j.Progress = fraction
		})
	})

	progressDone := make(chan struct{})
	go monitorProgress(ctx, jm, jobID, progressDone)

	start := time.Now()
	report, err := solve.Run(job.Config, sink, multiTracer(tracers))
	close(progressDone)

	if err != nil {
		markJobFailed(jm, jobID, report, err)
		return err
	}
	if report.Status == funcmin.StatusCancelled {
		markJobCancelled(jm, jobID, report)
		return context.Canceled
	}

	endTime := time.Now()
	err = jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		applyReport(j, report)
		j.EndTime = &endTime
	})
	if err != nil {
		return err
	}

	slog.Info("Job completed",
		"job_id", jobID,
		"elapsed", time.Since(start),
		"status", report.Status,
		"value", report.F,
		"evaluations", report.Evaluations,
	)
	broadcastState(jm, jobID)
	return nil
}

func applyReport(j *Job, report *solve.Report) {
	if report == nil {
		return
	}
	j.Point = append([]float64(nil), report.X...)
	j.Value = report.F
	j.Initial = report.Initial
	j.Iterations = report.Iterations
	j.Status = report.Status.String()
	j.Evaluations = report.Evaluations
}

// jobTracer mirrors the minimizer's outer iterations into the job.
// Iterations keep counting across restarts.
func jobTracer(jm *JobManager, jobID string) funcmin.Tracer {
	done := 0
	return funcmin.TracerFunc(func(ev funcmin.Event) {
		switch ev.Kind {
		case funcmin.EventStart:
			jm.UpdateJob(jobID, func(j *Job) {
				if j.Iterations == 0 {
					j.Initial = ev.Value
				}
				j.Value = ev.Value
			})
		case funcmin.EventIter:
			jm.UpdateJob(jobID, func(j *Job) {
				j.Iterations = done + ev.Iter
				j.Value = ev.Value
				j.Point = append(j.Point[:0], ev.X...)
			})
		case funcmin.EventDone:
			done += ev.Iter
		}
	})
}

type multiTracer []funcmin.Tracer

func (m multiTracer) Trace(ev funcmin.Event) {
	for _, t := range m {
		t.Trace(ev)
	}
}

// monitorProgress periodically broadcasts progress events while a job runs
func monitorProgress(ctx context.Context, jm *JobManager, jobID string, done chan struct{}) {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !broadcastState(jm, jobID) {
				return
			}
		}
	}
}

// broadcastState sends the current state of a job to its SSE clients.
func broadcastState(jm *JobManager, jobID string) bool {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return false
	}
	jm.broadcaster.Broadcast(eventFor(job))
	return true
}

func eventFor(job *Job) ProgressEvent {
	return ProgressEvent{
		JobID:      job.ID,
		State:      job.State,
		Iterations: job.Iterations,
		Value:      job.Value,
		Progress:   job.Progress,
		Status:     job.Status,
		Timestamp:  time.Now(),
	}
}

// markJobFailed marks a job as failed with an error message
func markJobFailed(jm *JobManager, jobID string, report *solve.Report, err error) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		applyReport(j, report)
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	slog.Error("Job failed", "job_id", jobID, "error", err)
	broadcastState(jm, jobID)
}

// markJobCancelled marks a job as cancelled, keeping the best point found
func markJobCancelled(jm *JobManager, jobID string, report *solve.Report) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		applyReport(j, report)
		j.EndTime = &endTime
	})
	slog.Info("Job cancelled", "job_id", jobID)
	broadcastState(jm, jobID)
}
