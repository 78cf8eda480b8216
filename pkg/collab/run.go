package collab

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mikeboe/lab-dashboard/pkg/api"
)

const eventBuffer = 32

// Event is one accepted change of an AI run, suitable for relaying to a
// client.
type Event struct {
	RunID           string                 `json:"run_id"`
	State           State                  `json:"state"`
	Status          string                 `json:"status,omitempty"`
	Error           string                 `json:"error,omitempty"`
	Recommendations []api.AIRecommendation `json:"recommendations,omitempty"`
}

// Terminal reports whether the event ends its run.
func (e Event) Terminal() bool {
	return e.State == StateCompleted || e.State == StateErrored
}

// Run is one AI suggestion request. Only the controller's current run may
// change controller state.
type Run struct {
	ID      string
	Task    string
	Started time.Time

	ctx    context.Context
	cancel context.CancelFunc
	events chan Event
	done   chan struct{}

	mu      sync.Mutex
	conn    api.Conn
	stopped bool
	outcome string
}

func newRun(parent context.Context, task string, timeout time.Duration) *Run {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return &Run{
		ID:      uuid.New().String(),
		Task:    task,
		Started: time.Now(),
		ctx:     ctx,
		cancel:  cancel,
		events:  make(chan Event, eventBuffer),
		done:    make(chan struct{}),
	}
}

// Events yields the run's accepted events and is closed when the run ends.
func (r *Run) Events() <-chan Event { return r.events }

// Done is closed once the run has ended and its connection is released.
func (r *Run) Done() <-chan struct{} { return r.done }

// attach hands the dialed connection to the run. It reports false when the
// run was stopped meanwhile; the caller then owns conn.
func (r *Run) attach(conn api.Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return false
	}
	r.conn = conn
	return true
}

// stop cancels the run and closes its connection.
func (r *Run) stop() {
	r.cancel()

	r.mu.Lock()
	r.stopped = true
	conn := r.conn
	r.conn = nil
	r.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
}

func (r *Run) isStopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}

// emit never blocks. Status events are dropped when nobody keeps up; a
// terminal event evicts the oldest buffered one instead.
func (r *Run) emit(ev Event) {
	if !ev.Terminal() {
		select {
		case r.events <- ev:
		default:
		}
		return
	}
	for {
		select {
		case r.events <- ev:
			return
		default:
		}
		select {
		case <-r.events:
		default:
		}
	}
}

func (r *Run) finish() {
	r.stop()
	close(r.events)
	close(r.done)
}
