package hostapd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/softap/internal/wifi"
)

// DefaultStartTimeout bounds how long Start waits for AP-ENABLED.
const DefaultStartTimeout = 15 * time.Second

// Config holds the configuration for running hostapd.
type Config struct {
	// Binary is the hostapd executable.
	// Default: "hostapd" (searches PATH)
	Binary string

	// ConfPath is where hostapd.conf is written.
	// Default: $TMPDIR/softap/hostapd.conf
	ConfPath string

	// Settings are the radio parameters.
	Settings Settings

	// StartTimeout is the maximum time to wait for the access point to come up.
	// Default: 15 seconds
	StartTimeout time.Duration
}

// DefaultConfig returns a Config for iface with sensible defaults.
func DefaultConfig(iface string) Config {
	return Config{
		Binary:       "hostapd",
		ConfPath:     filepath.Join(os.TempDir(), "softap", "hostapd.conf"),
		Settings:     Settings{Interface: iface}.withDefaults(),
		StartTimeout: DefaultStartTimeout,
	}
}

type process struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc
	stderr *tailBuffer
	exited chan struct{}
	err    error
}

// Controller drives a hostapd process and implements wifi.Controller.
// Each Start launches a fresh process; the access point is considered
// stopped when hostapd reports AP-DISABLED or exits.
type Controller struct {
	cfg    Config
	logger *zap.Logger

	mu         sync.Mutex
	state      wifi.State
	configured bool
	ssid       string
	proc       *process
	waiters    map[wifi.Event][]chan struct{}
	stations   map[string]time.Time
	lastErr    error
}

// NewController creates a controller. Zero config fields take the defaults.
func NewController(cfg Config, logger *zap.Logger) *Controller {
	def := DefaultConfig(cfg.Settings.Interface)
	if cfg.Binary == "" {
		cfg.Binary = def.Binary
	}
	if cfg.ConfPath == "" {
		cfg.ConfPath = def.ConfPath
	}
	if cfg.StartTimeout <= 0 {
		cfg.StartTimeout = def.StartTimeout
	}
	cfg.Settings = cfg.Settings.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		cfg:      cfg,
		logger:   logger,
		state:    wifi.StateNotStarted,
		waiters:  make(map[wifi.Event][]chan struct{}),
		stations: make(map[string]time.Time),
	}
}

func (c *Controller) State() wifi.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsStarted reports whether a hostapd process is running.
func (c *Controller) IsStarted() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.proc != nil, nil
}

// SetConfiguration writes hostapd.conf for ap.
func (c *Controller) SetConfiguration(ap wifi.AccessPointConfig) error {
	if err := WriteConf(c.cfg.ConfPath, c.cfg.Settings, ap); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.configured = true
	c.ssid = ap.SSID
	if c.state == wifi.StateNotStarted {
		c.state = wifi.StateConfiguring
	}
	c.logger.Debug("Wrote hostapd configuration", zap.String("path", c.cfg.ConfPath))
	return nil
}

// Start launches hostapd and waits until it reports AP-ENABLED. The process
// is terminated when ctx is done.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if !c.configured {
		c.mu.Unlock()
		return ErrNotConfigured
	}
	if c.proc != nil {
		c.mu.Unlock()
		return nil
	}

	procCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(procCtx, c.cfg.Binary, c.cfg.ConfPath)
	detach(cmd)
	cmd.WaitDelay = 2 * time.Second
	stderr := &tailBuffer{max: 4096}
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		c.mu.Unlock()
		cancel()
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		c.mu.Unlock()
		cancel()
		return &ProcessError{Binary: c.cfg.Binary, ExitCode: -1, Err: err}
	}

	p := &process{cmd: cmd, cancel: cancel, stderr: stderr, exited: make(chan struct{})}
	c.proc = p
	enabled := c.subscribeLocked(wifi.EventAPStart)
	c.mu.Unlock()

	c.logger.Info("Launched hostapd",
		zap.String("binary", c.cfg.Binary),
		zap.Int("pid", cmd.Process.Pid),
	)
	go c.watch(p, stdout)

	timer := time.NewTimer(c.cfg.StartTimeout)
	defer timer.Stop()

	select {
	case <-enabled:
		return nil
	case <-p.exited:
		return p.err
	case <-ctx.Done():
		p.cancel()
		<-p.exited
		return ctx.Err()
	case <-timer.C:
		p.cancel()
		<-p.exited
		return fmt.Errorf("hostapd: access point not enabled after %v: %w", c.cfg.StartTimeout, p.err)
	}
}

// WaitForEvent blocks until hostapd reports ev. Waiting for a start or stop
// returns at once when the access point is already in that state.
func (c *Controller) WaitForEvent(ctx context.Context, ev wifi.Event) error {
	c.mu.Lock()
	switch {
	case ev == wifi.EventAPStop && c.state != wifi.StateAPStarted,
		ev == wifi.EventAPStart && c.state == wifi.StateAPStarted:
		c.mu.Unlock()
		return nil
	}
	ch := c.subscribeLocked(ev)
	c.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) Capabilities() []string {
	s := c.cfg.Settings
	return []string{
		"driver=" + s.Driver,
		"hw_mode=" + s.HWMode,
		fmt.Sprintf("channel=%d", s.Channel),
		"auth=none,wpa2-personal,wpa3-personal",
	}
}

// Stations returns the number of associated stations.
func (c *Controller) Stations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.stations)
}

// LastError returns the error of the last hostapd process that exited.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Controller) subscribeLocked(ev wifi.Event) chan struct{} {
	ch := make(chan struct{})
	c.waiters[ev] = append(c.waiters[ev], ch)
	return ch
}

func (c *Controller) notifyLocked(ev wifi.Event) {
	for _, ch := range c.waiters[ev] {
		close(ch)
	}
	delete(c.waiters, ev)
}

// watch consumes hostapd output until the process exits.
func (c *Controller) watch(p *process, stdout io.Reader) {
	sc := bufio.NewScanner(stdout)
	for sc.Scan() {
		c.handleLine(p, sc.Text())
	}

	err := p.cmd.Wait()
	code := 0
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	} else if err != nil {
		code = -1
	}
	p.err = &ProcessError{Binary: c.cfg.Binary, ExitCode: code, Stderr: p.stderr.String(), Err: err}

	c.mu.Lock()
	c.proc = nil
	c.lastErr = p.err
	c.state = wifi.StateNotStarted
	clear(c.stations)
	c.notifyLocked(wifi.EventAPStop)
	c.mu.Unlock()

	close(p.exited)
	p.cancel()
	c.logger.Info("hostapd exited", zap.Int("exit_code", code))
}

func (c *Controller) handleLine(p *process, text string) {
	line, ok := ParseLine(text)
	if !ok {
		c.logger.Debug("hostapd", zap.String("line", text))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch line.Event {
	case wifi.EventAPStart:
		c.state = wifi.StateAPStarted
		c.logger.Info("Access point enabled", zap.String("interface", line.Interface), zap.String("ssid", c.ssid))
	case wifi.EventAPStop:
		c.state = wifi.StateNotStarted
		clear(c.stations)
		c.logger.Warn("Access point disabled", zap.String("interface", line.Interface))
		// A disabled hostapd is restarted from scratch.
		p.cancel()
	case wifi.EventStaConnected:
		c.stations[line.Station.String()] = time.Now()
		c.logger.Info("Station connected", zap.String("mac", line.Station.String()))
	case wifi.EventStaDisconnected:
		delete(c.stations, line.Station.String())
		c.logger.Info("Station disconnected", zap.String("mac", line.Station.String()))
	}
	c.notifyLocked(line.Event)
}
