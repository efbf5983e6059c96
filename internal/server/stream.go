package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// heartbeatInterval is the idle time after which a stream gets a comment
// line so proxies keep the connection open.
var heartbeatInterval = 30 * time.Second

// ProgressEvent is one SSE update about a job.
type ProgressEvent struct {
	Seq        uint64    `json:"seq"`
	JobID      string    `json:"jobId"`
	State      JobState  `json:"state"`
	Iterations int       `json:"iterations"`
	Value      float64   `json:"value"`
	Progress   float64   `json:"progress"`
	Status     string    `json:"status,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// EventBroadcaster fans job events out to stream subscribers. The latest
// event of each job is replayed to new subscribers.
type EventBroadcaster struct {
	mu   sync.Mutex
	seq  uint64
	subs map[string]map[chan ProgressEvent]struct{}
	last map[string]ProgressEvent
}

func NewEventBroadcaster() *EventBroadcaster {
	return &EventBroadcaster{
		subs: make(map[string]map[chan ProgressEvent]struct{}),
		last: make(map[string]ProgressEvent),
	}
}

// Subscribe registers a subscriber for jobID. The returned function
// unsubscribes and closes the channel; calling it twice is safe.
func (eb *EventBroadcaster) Subscribe(jobID string) (<-chan ProgressEvent, func()) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	ch := make(chan ProgressEvent, 10)
	if eb.subs[jobID] == nil {
		eb.subs[jobID] = make(map[chan ProgressEvent]struct{})
	}
	eb.subs[jobID][ch] = struct{}{}
	if ev, ok := eb.last[jobID]; ok {
		ch <- ev
	}

	var once sync.Once
	return ch, func() {
		once.Do(func() { eb.drop(jobID, ch) })
	}
}

func (eb *EventBroadcaster) drop(jobID string, ch chan ProgressEvent) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	set, ok := eb.subs[jobID]
	if !ok {
		return
	}
	if _, ok := set[ch]; !ok {
		return
	}
	delete(set, ch)
	close(ch)
	if len(set) == 0 {
		delete(eb.subs, jobID)
	}
}

// Subscribers returns the number of live subscribers of jobID.
func (eb *EventBroadcaster) Subscribers(jobID string) int {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	return len(eb.subs[jobID])
}

// Broadcast stamps ev with the next sequence number and delivers it. A
// subscriber whose buffer is full misses the event.
func (eb *EventBroadcaster) Broadcast(ev ProgressEvent) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.seq++
	ev.Seq = eb.seq
	eb.last[ev.JobID] = ev

	for ch := range eb.subs[ev.JobID] {
		select {
		case ch <- ev:
		default:
			slog.Warn("Dropping stream event for slow subscriber", "job_id", ev.JobID, "seq", ev.Seq)
		}
	}
}

// handleJobStream handles GET /api/v1/jobs/:id/stream. The stream ends
// after the event that reports a finished job.
func (s *Server) handleJobStream(w http.ResponseWriter, r *http.Request, jobID string) {
	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events, unsubscribe := s.jobManager.broadcaster.Subscribe(jobID)
	defer unsubscribe()

	send := func(ev ProgressEvent) bool {
		if err := writeSSE(w, ev); err != nil {
			slog.Debug("Stream write failed", "job_id", jobID, "error", err)
			return false
		}
		flusher.Flush()
		return !ev.State.Finished()
	}

	if !send(eventFor(job)) {
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok || !send(ev) {
				return
			}
		case <-heartbeat.C:
			io.WriteString(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}

// writeSSE writes ev as a named server-sent event: "progress" while the
// job runs and "done" once it finished.
func writeSSE(w io.Writer, ev ProgressEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	name := "progress"
	if ev.State.Finished() {
		name = "done"
	}
	if ev.Seq > 0 {
		if _, err := fmt.Fprintf(w, "id: %d\n", ev.Seq); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}
