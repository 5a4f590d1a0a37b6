package netstack

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/softap/internal/netconfig"
)

// EventKind classifies a device event.
type EventKind int

const (
	EventLinkUp EventKind = iota
	EventLinkDown
)

func (k EventKind) String() string {
	switch k {
	case EventLinkUp:
		return "link_up"
	case EventLinkDown:
		return "link_down"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is reported by a Device.
type Event struct {
	Kind EventKind
	At   time.Time
}

// Device is the network interface underneath the stack.
type Device interface {
	// ApplyConfig programs the static IPv4 identity onto the interface.
	ApplyConfig(ctx context.Context, id netconfig.NetworkIdentity) error
	// Next blocks until the device has an event to report.
	Next(ctx context.Context) (Event, error)
}

// ErrRunnerStarted is returned when Run is called a second time.
var ErrRunnerStarted = errors.New("stack runner already started")

// Stack is the shared handle. All accessors are safe for concurrent use;
// only the paired Runner mutates it.
type Stack struct {
	mu          sync.RWMutex
	linkUp      bool
	configUp    bool
	applied     netconfig.NetworkIdentity
	linkChanges int
	lastChange  time.Time
}

// Snapshot is a copy of the stack state.
type Snapshot struct {
	LinkUp      bool
	ConfigUp    bool
	Config      netconfig.NetworkIdentity
	LinkChanges int
	LastChange  time.Time
}

// IsLinkUp reports whether the device reported an active link.
func (s *Stack) IsLinkUp() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.linkUp
}

// IsConfigUp reports whether the static configuration has been applied.
func (s *Stack) IsConfigUp() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.configUp
}

// ConfigV4 returns the applied IPv4 configuration, if any.
func (s *Stack) ConfigV4() (netconfig.NetworkIdentity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.configUp {
		return netconfig.NetworkIdentity{}, false
	}
	return copyIdentity(s.applied), true
}

// Snapshot returns a copy of the current state.
func (s *Stack) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		LinkUp:      s.linkUp,
		ConfigUp:    s.configUp,
		Config:      copyIdentity(s.applied),
		LinkChanges: s.linkChanges,
		LastChange:  s.lastChange,
	}
}

func (s *Stack) setLink(up bool, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.linkUp == up {
		return false
	}
	s.linkUp = up
	s.linkChanges++
	s.lastChange = at
	return true
}

func (s *Stack) setConfig(id netconfig.NetworkIdentity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied = copyIdentity(id)
	s.configUp = true
}

func copyIdentity(id netconfig.NetworkIdentity) netconfig.NetworkIdentity {
	id.DNS = append([]netip.Addr(nil), id.DNS...)
	return id
}

// Runner pumps device events into the Stack.
type Runner struct {
	stack    *Stack
	dev      Device
	identity netconfig.NetworkIdentity
	logger   *zap.Logger
	running  atomic.Bool
}

// New creates a stack handle and the runner that owns it.
func New(dev Device, id netconfig.NetworkIdentity, logger *zap.Logger) (*Stack, *Runner) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Stack{}
	return s, &Runner{
		stack:    s,
		dev:      dev,
		identity: copyIdentity(id),
		logger:   logger,
	}
}

// Run applies the static configuration and then processes device events
// until the context is done or the device fails. It never returns nil.
func (r *Runner) Run(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrRunnerStarted
	}

	r.logger.Info("Starting packet stack", zap.Stringer("config", r.identity))

	if err := r.dev.ApplyConfig(ctx, r.identity); err != nil {
		return fmt.Errorf("apply static config: %w", err)
	}
	r.stack.setConfig(r.identity)
	r.logger.Debug("Static configuration applied")

	for {
		ev, err := r.dev.Next(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("device: %w", err)
		}
		r.handle(ev)
	}
}

func (r *Runner) handle(ev Event) {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	switch ev.Kind {
	case EventLinkUp:
		if r.stack.setLink(true, at) {
			r.logger.Info("Link up")
		}
	case EventLinkDown:
		if r.stack.setLink(false, at) {
			r.logger.Info("Link down")
		}
	default:
		r.logger.Debug("Ignoring device event", zap.Stringer("event", ev.Kind))
	}
}
