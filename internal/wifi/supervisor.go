package wifi

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultCooldown is the hold after an access point stop event before the
	// supervisor re-evaluates the controller state.
	DefaultCooldown = 5 * time.Second

	// DefaultSettleInterval is slept when the controller reports started but
	// not yet APStarted, so that an inconsistent driver cannot spin the loop.
	DefaultSettleInterval = 100 * time.Millisecond
)

// Controller is the radio driver as seen by the supervisor.
type Controller interface {
	// State returns the driver-reported lifecycle state.
	State() State
	// IsStarted reports whether the radio is currently started.
	IsStarted() (bool, error)
	// SetConfiguration applies the access point settings to the driver.
	SetConfiguration(cfg AccessPointConfig) error
	// Start requests the radio to start and blocks until the request completes.
	Start(ctx context.Context) error
	// WaitForEvent blocks until the driver reports ev.
	WaitForEvent(ctx context.Context, ev Event) error
	// Capabilities describes what the driver supports, for diagnostics.
	Capabilities() []string
}

// ErrAborted is wrapped by every error that terminates the supervisor.
// Configuration and start failures are not retried.
var ErrAborted = errors.New("access point supervisor aborted")

// AbortError records which controller operation failed.
type AbortError struct {
	Op  string
	Err error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrAborted, e.Op, e.Err)
}

func (e *AbortError) Unwrap() []error {
	return []error{ErrAborted, e.Err}
}

// Options tunes a Supervisor. Zero values select the defaults.
type Options struct {
	Cooldown       time.Duration
	SettleInterval time.Duration
	Logger         *zap.Logger

	// OnTransition is called synchronously whenever the mirrored state changes.
	OnTransition func(from, to State)

	// Sleep waits for d or until ctx is done. Tests replace it to observe
	// the cool-down without waiting for it.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Supervisor keeps the access point up. It reacts to stop events by
// holding for the cool-down and then reconfiguring and restarting the radio.
type Supervisor struct {
	ctrl         Controller
	cfg          AccessPointConfig
	cooldown     time.Duration
	settle       time.Duration
	logger       *zap.Logger
	onTransition func(from, to State)
	sleep        func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	observed State
	restarts int
}

// NewSupervisor creates a supervisor for ctrl. cfg is applied on every start.
func NewSupervisor(ctrl Controller, cfg AccessPointConfig, opts Options) *Supervisor {
	s := &Supervisor{
		ctrl:         ctrl,
		cfg:          cfg,
		cooldown:     opts.Cooldown,
		settle:       opts.SettleInterval,
		logger:       opts.Logger,
		onTransition: opts.OnTransition,
		sleep:        opts.Sleep,
		observed:     StateNotStarted,
	}
	if s.cooldown <= 0 {
		s.cooldown = DefaultCooldown
	}
	if s.settle <= 0 {
		s.settle = DefaultSettleInterval
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.sleep == nil {
		s.sleep = sleepContext
	}
	return s
}

// Run logs the driver capabilities and reconciles forever. It only returns
// when the context is done or a controller operation fails.
func (s *Supervisor) Run(ctx context.Context) error {
	s.logger.Info("Starting access point supervisor",
		zap.String("ssid", s.cfg.SSID),
		zap.Stringer("auth", s.cfg.AuthMethod),
		zap.Duration("cooldown", s.cooldown),
	)
	s.logger.Info("Device capabilities", zap.Strings("capabilities", s.ctrl.Capabilities()))

	for {
		if err := s.Reconcile(ctx); err != nil {
			return err
		}
	}
}

// Reconcile runs one iteration of the lifecycle loop:
//
//  1. if the controller reports APStarted, wait for the stop event and then
//     hold for the cool-down;
//  2. independently, if the radio is not started, apply the configuration
//     and issue exactly one start request.
func (s *Supervisor) Reconcile(ctx context.Context) error {
	if s.ctrl.State() == StateAPStarted {
		s.observe(StateAPStarted)

		if err := s.ctrl.WaitForEvent(ctx, EventAPStop); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return &AbortError{Op: "wait for ap stop", Err: err}
		}
		s.observe(StateNotStarted)

		s.logger.Info("Access point stopped, cooling down before restart",
			zap.Duration("cooldown", s.cooldown),
		)
		if err := s.sleep(ctx, s.cooldown); err != nil {
			return err
		}
	}

	started, err := s.ctrl.IsStarted()
	if err != nil {
		s.logger.Debug("Controller start state unavailable, treating as stopped", zap.Error(err))
	}
	if err == nil && started {
		if s.ctrl.State() != StateAPStarted {
			return s.sleep(ctx, s.settle)
		}
		return nil
	}

	s.observe(StateConfiguring)
	if err := s.ctrl.SetConfiguration(s.cfg); err != nil {
		return &AbortError{Op: "set configuration", Err: err}
	}

	s.mu.Lock()
	attempt := s.restarts + 1
	s.mu.Unlock()

	s.logger.Info("Starting access point",
		zap.String("ssid", s.cfg.SSID),
		zap.Int("attempt", attempt),
	)
	if err := s.ctrl.Start(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &AbortError{Op: "start", Err: err}
	}

	s.mu.Lock()
	s.restarts++
	s.mu.Unlock()

	s.observe(StateAPStarted)
	s.logger.Info("Access point started", zap.String("ssid", s.cfg.SSID))
	return nil
}

// Observed returns the last state the supervisor saw.
func (s *Supervisor) Observed() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.observed
}

// Starts returns how many start requests completed successfully.
func (s *Supervisor) Starts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restarts
}

func (s *Supervisor) observe(next State) {
	s.mu.Lock()
	cur := s.observed
	if cur == next {
		s.mu.Unlock()
		return
	}
	if !allowedTransition(cur, next) {
		s.logger.Warn("Unexpected access point transition",
			zap.Stringer("from", cur),
			zap.Stringer("to", next),
		)
	}
	s.observed = next
	s.mu.Unlock()

	s.logger.Debug("Access point state", zap.Stringer("from", cur), zap.Stringer("to", next))
	if s.onTransition != nil {
		s.onTransition(cur, next)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
