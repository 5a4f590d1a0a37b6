package softap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/muurk/softap/internal/dhcp"
	"github.com/muurk/softap/internal/logging"
	"github.com/muurk/softap/internal/netconfig"
	"github.com/muurk/softap/internal/netstack"
	"github.com/muurk/softap/internal/startup"
	"github.com/muurk/softap/internal/wifi"
)

// ErrNotReady is returned by Start when the packet stack task terminates
// before the network became ready.
var ErrNotReady = errors.New("network did not become ready")

// Config is everything Start needs to know about the access point.
type Config struct {
	AccessPoint wifi.AccessPointConfig

	// StaticAddress is the access point's own address in CIDR form.
	StaticAddress string
	Gateway       string
	// DNS servers of the interface. Empty means the gateway alone.
	DNS []string

	// LeaseAddress is the single address handed to DHCP clients.
	LeaseAddress  string
	LeaseTime     time.Duration
	CaptivePortal bool
	// AdvertiseNetmask adds the subnet mask option to DHCP replies.
	AdvertiseNetmask bool

	Cooldown       time.Duration
	LinkInterval   time.Duration
	ConfigInterval time.Duration
}

// Deps are the external collaborators.
type Deps struct {
	Controller wifi.Controller
	Device     netstack.Device
	// Listen opens the DHCP server socket. It is called from the DHCP task,
	// so a failure to bind is a task failure, not a startup failure.
	Listen func(ctx context.Context) (net.PacketConn, error)
	Logger *zap.Logger
}

// System is a running access point.
type System struct {
	identity netconfig.NetworkIdentity
	stack    *netstack.Stack
	runner   *netstack.Runner
	sup      *wifi.Supervisor
	dhcp     *dhcp.Server
	leaser   *dhcp.SingleLeaser
	logger   *zap.Logger

	state   *state
	results chan TaskResult
	done    chan struct{}
	waitErr error
	cancel  context.CancelFunc

	// notReady is closed when the stack task ends before readiness.
	notReady     chan struct{}
	notReadyOnce sync.Once
	netErr       error
}

// Start resolves the network identity, spawns the wireless supervisor, the
// packet stack runner and the DHCP server, and returns once the link is up
// and the static configuration is applied.
//
// Configuration errors are returned before any task is spawned. If the
// network never becomes ready, the tasks are stopped before Start returns.
// Once Start succeeds the tasks run until ctx is done; a failing task never
// stops the others.
func Start(ctx context.Context, cfg Config, deps Deps) (*System, error) {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	sys, err := build(cfg, deps, log)
	if err != nil {
		return nil, err
	}

	taskCtx, cancelTasks := context.WithCancel(ctx)
	sys.spawn(taskCtx, deps)

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-sys.notReady:
			cancel()
		case <-waitCtx.Done():
		}
	}()

	id, err := startup.WaitForConnection(waitCtx, sys.stack, startup.Options{
		LinkInterval:   cfg.LinkInterval,
		ConfigInterval: cfg.ConfigInterval,
		SSID:           cfg.AccessPoint.SSID,
		Logger:         log.Named("startup"),
	})
	if err != nil {
		cancelTasks()
		<-sys.done
		select {
		case <-sys.notReady:
			if sys.netErr != nil {
				return nil, fmt.Errorf("%w: %w", ErrNotReady, sys.netErr)
			}
			return nil, ErrNotReady
		default:
		}
		return nil, err
	}
	sys.cancel = cancelTasks
	if id.Address.IsValid() {
		sys.identity = id
	}
	sys.state.setReady(time.Now())
	return sys, nil
}

func build(cfg Config, deps Deps, log *zap.Logger) (*System, error) {
	if deps.Controller == nil || deps.Device == nil || deps.Listen == nil {
		return nil, errors.New("softap: controller, device and listener are required")
	}

	id, err := netconfig.Resolve(cfg.StaticAddress, cfg.Gateway, cfg.DNS)
	if err != nil {
		return nil, err
	}
	if !id.GatewayInSubnet() {
		log.Warn("Gateway is outside the static subnet",
			logging.Addr("gateway", id.Gateway),
			logging.Prefix("network", id.Network()),
		)
	}

	if err := cfg.AccessPoint.Validate(); err != nil {
		return nil, err
	}

	lease, err := netip.ParseAddr(cfg.LeaseAddress)
	if err != nil || !lease.Is4() {
		return nil, fmt.Errorf("invalid lease address %q", cfg.LeaseAddress)
	}

	dcfg := dhcp.DefaultConfig(id.Gateway)
	if cfg.LeaseTime > 0 {
		dcfg.LeaseTime = cfg.LeaseTime
	}
	dcfg.CaptivePortal = cfg.CaptivePortal
	if cfg.AdvertiseNetmask {
		dcfg.Subnet = id.Netmask()
	}
	leaser := dhcp.NewSingleLeaser(lease)
	srv, err := dhcp.NewServer(dcfg, leaser, log.Named("dhcp"))
	if err != nil {
		return nil, err
	}

	st := newState()
	stack, runner := netstack.New(deps.Device, id, log.Named("net"))
	sup := wifi.NewSupervisor(deps.Controller, cfg.AccessPoint, wifi.Options{
		Cooldown:     cfg.Cooldown,
		Logger:       log.Named("wifi"),
		OnTransition: st.setAccessPoint,
	})

	sys := &System{
		identity: id,
		stack:    stack,
		runner:   runner,
		sup:      sup,
		dhcp:     srv,
		leaser:   leaser,
		logger:   log,
		state:    st,
		results:  make(chan TaskResult, 3),
		done:     make(chan struct{}),
		notReady: make(chan struct{}),
	}
	return sys, nil
}

func (s *System) spawn(ctx context.Context, deps Deps) {
	var g errgroup.Group

	g.Go(s.task(ctx, TaskWifi, s.sup.Run))
	g.Go(s.task(ctx, TaskNet, s.runner.Run))
	g.Go(s.task(ctx, TaskDHCP, func(ctx context.Context) error {
		conn, err := deps.Listen(ctx)
		if err != nil {
			return err
		}
		defer conn.Close()
		return s.dhcp.Serve(ctx, conn)
	}))

	go func() {
		s.waitErr = g.Wait()
		close(s.results)
		close(s.done)
	}()
}

// task wraps fn so that its terminal result lands in the status snapshot
// and on the results channel.
func (s *System) task(ctx context.Context, name string, fn func(context.Context) error) func() error {
	return func() error {
		started := time.Now()
		s.state.taskStarted(name, started)
		s.logger.Info("Task started", zap.String("task", name))

		err := fn(ctx)

		ended := time.Now()
		r := TaskResult{Task: name, Err: err, Uptime: ended.Sub(started), At: ended}
		s.state.taskEnded(r)
		s.logExit(r)

		if name == TaskNet && !s.state.isReady() {
			s.netErr = err
			s.notReadyOnce.Do(func() { close(s.notReady) })
		}

		s.results <- r
		return err
	}
}

func (s *System) logExit(r TaskResult) {
	fields := []zap.Field{zap.String("task", r.Task), zap.Duration("uptime", r.Uptime)}
	switch {
	case r.Err == nil:
		// None of the tasks is supposed to return.
		s.logger.Warn("Task returned", fields...)
	case r.Task == TaskDHCP:
		s.logger.Error("DHCP server error", append(fields, zap.Error(r.Err))...)
	default:
		s.logger.Error("Task terminated", append(fields, zap.Error(r.Err))...)
	}
}

// Identity returns the network identity the stack was configured with.
func (s *System) Identity() netconfig.NetworkIdentity {
	return s.identity
}

// Stack returns the read-only stack handle.
func (s *System) Stack() *netstack.Stack {
	return s.stack
}

// Leaser returns the DHCP leaser.
func (s *System) Leaser() *dhcp.SingleLeaser {
	return s.leaser
}

// Results delivers one TaskResult per terminated task. It is closed once
// all tasks have terminated.
func (s *System) Results() <-chan TaskResult {
	return s.results
}

// Status returns a snapshot of the whole system.
func (s *System) Status() Status {
	st := s.state.snapshot()
	st.Starts = s.sup.Starts()
	st.Stack = s.stack.Snapshot()
	st.DHCP = s.dhcp.Stats()
	if b, ok := s.leaser.Current(); ok {
		st.Lease = &b
	}
	return st
}

// Wait blocks until every task has terminated and returns the first task
// error. Since tasks only stop on failure or when the context passed to
// Start is done, Wait normally blocks for the life of the process.
func (s *System) Wait() error {
	<-s.done
	return s.waitErr
}

// Done is closed when every task has terminated.
func (s *System) Done() <-chan struct{} {
	return s.done
}

// Stop cancels every task and waits for them to terminate.
func (s *System) Stop() error {
	s.cancel()
	return s.Wait()
}
