package softap

import (
	"context"
	"errors"
	"net"
	"os"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/muurk/softap/internal/netconfig"
	"github.com/muurk/softap/internal/netstack"
	"github.com/muurk/softap/internal/wifi"
)

// fakeRadio starts instantly and never stops on its own.
type fakeRadio struct {
	mu      sync.Mutex
	state   wifi.State
	configs int
	starts  int
}

func (r *fakeRadio) State() wifi.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *fakeRadio) IsStarted() (bool, error) {
	return r.State() == wifi.StateAPStarted, nil
}

func (r *fakeRadio) SetConfiguration(wifi.AccessPointConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs++
	return nil
}

func (r *fakeRadio) Start(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts++
	r.state = wifi.StateAPStarted
	return nil
}

func (r *fakeRadio) WaitForEvent(ctx context.Context, _ wifi.Event) error {
	<-ctx.Done()
	return ctx.Err()
}

func (r *fakeRadio) Capabilities() []string { return []string{"ap"} }

func (r *fakeRadio) calls() (configs, starts int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.configs, r.starts
}

// fakeLink applies the configuration and reports the link up once.
type fakeLink struct {
	applyErr error

	mu      sync.Mutex
	applied []netconfig.NetworkIdentity
	sentUp  bool
}

func (l *fakeLink) ApplyConfig(_ context.Context, id netconfig.NetworkIdentity) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.applied = append(l.applied, id)
	return l.applyErr
}

func (l *fakeLink) Next(ctx context.Context) (netstack.Event, error) {
	l.mu.Lock()
	if !l.sentUp {
		l.sentUp = true
		l.mu.Unlock()
		return netstack.Event{Kind: netstack.EventLinkUp}, nil
	}
	l.mu.Unlock()
	<-ctx.Done()
	return netstack.Event{}, ctx.Err()
}

func (l *fakeLink) appliedCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.applied)
}

// idleConn never receives anything.
type idleConn struct {
	once sync.Once
	wake chan struct{}
}

func newIdleConn() *idleConn { return &idleConn{wake: make(chan struct{})} }

func (c *idleConn) ReadFrom([]byte) (int, net.Addr, error) {
	<-c.wake
	return 0, nil, os.ErrDeadlineExceeded
}
func (c *idleConn) WriteTo(p []byte, _ net.Addr) (int, error) { return len(p), nil }
func (c *idleConn) Close() error                              { return nil }
func (c *idleConn) LocalAddr() net.Addr                       { return &net.UDPAddr{Port: 67} }
func (c *idleConn) SetDeadline(t time.Time) error             { return c.SetReadDeadline(t) }
func (c *idleConn) SetWriteDeadline(time.Time) error          { return nil }
func (c *idleConn) SetReadDeadline(time.Time) error {
	c.once.Do(func() { close(c.wake) })
	return nil
}

func testConfig() Config {
	return Config{
		AccessPoint: wifi.AccessPointConfig{
			SSID:       "espnet",
			Password:   "password",
			AuthMethod: wifi.AuthWPA2Personal,
		},
		StaticAddress:  "192.168.1.2/24",
		Gateway:        "192.168.1.2",
		LeaseAddress:   "192.168.1.69",
		LeaseTime:      time.Hour,
		CaptivePortal:  true,
		LinkInterval:   5 * time.Millisecond,
		ConfigInterval: 5 * time.Millisecond,
	}
}

func testDeps(radio *fakeRadio, link *fakeLink, logger *zap.Logger) Deps {
	return Deps{
		Controller: radio,
		Device:     link,
		Listen:     func(context.Context) (net.PacketConn, error) { return newIdleConn(), nil },
		Logger:     logger,
	}
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStart_ConfigErrorsSpawnNothing(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad static address", func(c *Config) { c.StaticAddress = "192.168.1.2" }, netconfig.FieldStaticAddress},
		{"bad gateway", func(c *Config) { c.Gateway = "not-an-ip" }, netconfig.FieldGatewayAddress},
		{"empty ssid", func(c *Config) { c.AccessPoint.SSID = "" }, ""},
		{"bad lease", func(c *Config) { c.LeaseAddress = "fe80::1" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			radio, link := &fakeRadio{}, &fakeLink{}
			cfg := testConfig()
			tt.mutate(&cfg)

			sys, err := Start(context.Background(), cfg, testDeps(radio, link, nil))
			if err == nil {
				t.Fatal("Start() error = nil, want error")
			}
			if sys != nil {
				t.Error("Start() returned a system on error")
			}
			if tt.field != "" {
				var fe *netconfig.FieldError
				if !errors.As(err, &fe) || fe.Field != tt.field {
					t.Errorf("Start() error = %v, want FieldError for %q", err, tt.field)
				}
			}

			time.Sleep(20 * time.Millisecond)
			if configs, starts := radio.calls(); configs != 0 || starts != 0 {
				t.Errorf("radio touched after config error: configs=%d starts=%d", configs, starts)
			}
			if n := link.appliedCount(); n != 0 {
				t.Errorf("ApplyConfig called %d times after config error", n)
			}
		})
	}
}

func TestStart_Ready(t *testing.T) {
	radio, link := &fakeRadio{}, &fakeLink{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sys, err := Start(ctx, testConfig(), testDeps(radio, link, nil))
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if got := sys.Identity().String(); got == "" {
		t.Error("Identity() is empty")
	}
	if got := sys.Identity().Address.String(); got != "192.168.1.2/24" {
		t.Errorf("Identity().Address = %s, want 192.168.1.2/24", got)
	}
	if !sys.Stack().IsLinkUp() || !sys.Stack().IsConfigUp() {
		t.Error("Start() returned before link and config were up")
	}
	if sys.Leaser().Addr().String() != "192.168.1.69" {
		t.Errorf("lease address = %v, want 192.168.1.69", sys.Leaser().Addr())
	}

	waitUntil(t, "access point started", func() bool {
		return sys.Status().AccessPoint == wifi.StateAPStarted
	})

	st := sys.Status()
	if !st.Ready {
		t.Error("Status().Ready = false")
	}
	if st.Starts != 1 {
		t.Errorf("Status().Starts = %d, want 1", st.Starts)
	}
	for _, name := range []string{TaskWifi, TaskNet, TaskDHCP} {
		if got := st.Tasks[name].State; got != TaskRunning {
			t.Errorf("task %s state = %s, want running", name, got)
		}
	}
	if st.Lease != nil {
		t.Errorf("Status().Lease = %+v, want none", st.Lease)
	}

	cancel()
	if err := sys.Wait(); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}

	var got []string
	for r := range sys.Results() {
		got = append(got, r.Task)
	}
	if len(got) != 3 {
		t.Errorf("Results() delivered %v, want one result per task", got)
	}
}

func TestStart_DHCPFailureLeavesOthersRunning(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	radio, link := &fakeRadio{}, &fakeLink{}
	deps := testDeps(radio, link, zap.New(core))
	bindErr := errors.New("address already in use")
	deps.Listen = func(context.Context) (net.PacketConn, error) { return nil, bindErr }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sys, err := Start(ctx, testConfig(), deps)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case r := <-sys.Results():
		if r.Task != TaskDHCP || !errors.Is(r.Err, bindErr) || !r.Failed() {
			t.Errorf("result = %+v, want failed dhcp task", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no task result published")
	}

	st := sys.Status()
	if got := st.Tasks[TaskDHCP]; got.State != TaskFailed || got.Err == "" {
		t.Errorf("dhcp task status = %+v, want failed with error", got)
	}
	if st.Tasks[TaskWifi].State != TaskRunning || st.Tasks[TaskNet].State != TaskRunning {
		t.Errorf("siblings stopped after dhcp failure: %+v", st.Tasks)
	}
	if logs.FilterMessage("DHCP server error").Len() != 1 {
		t.Error("expected one \"DHCP server error\" log entry")
	}

	select {
	case <-sys.Done():
		t.Fatal("system finished after a single task failure")
	case <-time.After(20 * time.Millisecond):
	}

	cancel()
	if err := sys.Wait(); !errors.Is(err, bindErr) {
		t.Errorf("Wait() error = %v, want first task error", err)
	}
}

func TestStart_StackFailureBeforeReady(t *testing.T) {
	radio := &fakeRadio{}
	link := &fakeLink{applyErr: errors.New("no such device")}

	sys, err := Start(context.Background(), testConfig(), testDeps(radio, link, nil))
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("Start() error = %v, want ErrNotReady", err)
	}
	if !errors.Is(err, link.applyErr) {
		t.Errorf("Start() error = %v, should wrap the device error", err)
	}
	if sys != nil {
		t.Error("Start() returned a system on error")
	}
}

func TestStart_MissingDeps(t *testing.T) {
	_, err := Start(context.Background(), testConfig(), Deps{})
	if err == nil {
		t.Error("Start() with no deps error = nil, want error")
	}
}

func TestSystem_Stop(t *testing.T) {
	sys, err := Start(context.Background(), testConfig(), testDeps(&fakeRadio{}, &fakeLink{}, nil))
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := sys.Stop(); !errors.Is(err, context.Canceled) {
		t.Errorf("Stop() error = %v, want context.Canceled", err)
	}
	for name, ts := range sys.Status().Tasks {
		if ts.State == TaskRunning || ts.State == TaskPending {
			t.Errorf("task %s still %s after Stop", name, ts.State)
		}
	}
}
