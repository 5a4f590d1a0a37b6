package softap

import (
	"sync"
	"time"

	"github.com/muurk/softap/internal/dhcp"
	"github.com/muurk/softap/internal/netstack"
	"github.com/muurk/softap/internal/wifi"
)

// Task names, as used in results and status.
const (
	TaskWifi = "wifi"
	TaskNet  = "net"
	TaskDHCP = "dhcp"
)

// TaskState is the lifecycle of one long-running task.
//
// pending -> running -> returned | failed
//
// Tasks are never restarted, so there is no way back from a terminal state.
type TaskState string

const (
	TaskPending  TaskState = "pending"
	TaskRunning  TaskState = "running"
	TaskReturned TaskState = "returned"
	TaskFailed   TaskState = "failed"
)

// TaskResult is published once per task when it terminates.
type TaskResult struct {
	Task   string
	Err    error
	Uptime time.Duration
	At     time.Time
}

// Failed reports whether the task ended with an error.
func (r TaskResult) Failed() bool { return r.Err != nil }

// TaskStatus is the status entry of one task.
type TaskStatus struct {
	State     TaskState
	StartedAt time.Time
	EndedAt   time.Time
	Err       string // last error text, empty on success
}

// Status is a point-in-time view of the whole system.
type Status struct {
	AccessPoint wifi.State
	// Starts counts successful access point start requests.
	Starts int
	Stack       netstack.Snapshot
	Ready       bool
	ReadyAt     time.Time
	Tasks       map[string]TaskStatus
	DHCP        dhcp.Stats
	Lease       *dhcp.Binding
}

// state holds the mutable part of Status. Readers get copies.
type state struct {
	mu       sync.RWMutex
	ap      wifi.State
	ready   bool
	readyAt time.Time
	tasks   map[string]TaskStatus
}

func newState() *state {
	return &state{
		ap: wifi.StateNotStarted,
		tasks: map[string]TaskStatus{
			TaskWifi: {State: TaskPending},
			TaskNet:  {State: TaskPending},
			TaskDHCP: {State: TaskPending},
		},
	}
}

func (s *state) setAccessPoint(_, to wifi.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ap = to
}

func (s *state) setReady(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = true
	s.readyAt = at
}

func (s *state) isReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

func (s *state) taskStarted(name string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[name] = TaskStatus{State: TaskRunning, StartedAt: at}
}

func (s *state) taskEnded(r TaskResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := s.tasks[r.Task]
	ts.EndedAt = r.At
	ts.State = TaskReturned
	if r.Err != nil {
		ts.State = TaskFailed
		ts.Err = r.Err.Error()
	}
	s.tasks[r.Task] = ts
}

func (s *state) snapshot() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tasks := make(map[string]TaskStatus, len(s.tasks))
	for k, v := range s.tasks {
		tasks[k] = v
	}
	return Status{
		AccessPoint: s.ap,
		Ready:       s.ready,
		ReadyAt:     s.readyAt,
		Tasks:       tasks,
	}
}
