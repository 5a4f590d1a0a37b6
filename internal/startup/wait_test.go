package startup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/muurk/softap/internal/netconfig"
)

// scriptedStack flips its flags after a given number of polls and records
// the order in which they were queried.
type scriptedStack struct {
	mu          sync.Mutex
	linkAfter   int
	configAfter int
	linkPolls   int
	configPolls int
	calls       []string
	cfg         netconfig.NetworkIdentity
}

func (s *scriptedStack) IsLinkUp() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.linkPolls++
	s.calls = append(s.calls, "link")
	return s.linkPolls > s.linkAfter
}

func (s *scriptedStack) IsConfigUp() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configPolls++
	s.calls = append(s.calls, "config")
	return s.configPolls > s.configAfter
}

func (s *scriptedStack) ConfigV4() (netconfig.NetworkIdentity, bool) {
	return s.cfg, true
}

func testConfig(t *testing.T) netconfig.NetworkIdentity {
	t.Helper()
	id, err := netconfig.Resolve("192.168.1.2/24", "192.168.1.2", nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	return id
}

var fast = Options{LinkInterval: time.Millisecond, ConfigInterval: time.Millisecond, SSID: "espnet"}

func TestWaitForConnection_LinkBeforeConfig(t *testing.T) {
	tests := []struct {
		name        string
		linkAfter   int
		configAfter int
	}{
		{"both ready immediately", 0, 0},
		{"link late", 5, 0},
		{"config late", 0, 5},
		{"config ready long before link", 20, 0},
		{"link ready long before config", 0, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &scriptedStack{linkAfter: tt.linkAfter, configAfter: tt.configAfter, cfg: testConfig(t)}

			cfg, err := WaitForConnection(context.Background(), s, fast)
			if err != nil {
				t.Fatalf("WaitForConnection() error = %v", err)
			}
			if cfg.Address.String() != "192.168.1.2/24" {
				t.Errorf("Address = %s, want 192.168.1.2/24", cfg.Address)
			}

			if s.linkPolls != tt.linkAfter+1 {
				t.Errorf("link polls = %d, want %d", s.linkPolls, tt.linkAfter+1)
			}
			if s.configPolls != tt.configAfter+1 {
				t.Errorf("config polls = %d, want %d", s.configPolls, tt.configAfter+1)
			}

			// Every link poll must precede every config poll.
			seenConfig := false
			for i, c := range s.calls {
				if c == "config" {
					seenConfig = true
				} else if seenConfig {
					t.Fatalf("link polled at %d after config polling started: %v", i, s.calls)
				}
			}
		})
	}
}

func TestWaitForConnection_ConfigAloneDoesNotReturn(t *testing.T) {
	s := &scriptedStack{linkAfter: 1 << 30, cfg: testConfig(t)}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := WaitForConnection(ctx, s, fast)
	if err == nil {
		t.Fatal("WaitForConnection() returned without link up")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
	if s.configPolls != 0 {
		t.Errorf("config polls = %d, want 0 while link is down", s.configPolls)
	}
}

func TestWaitForConnection_ConfigNeverUp(t *testing.T) {
	s := &scriptedStack{configAfter: 1 << 30, cfg: testConfig(t)}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if _, err := WaitForConnection(ctx, s, fast); err == nil {
		t.Fatal("WaitForConnection() returned without config up")
	}
	if s.linkPolls != 1 {
		t.Errorf("link polls = %d, want 1", s.linkPolls)
	}
}

func TestWaitForConnection_DefaultIntervals(t *testing.T) {
	s := &scriptedStack{linkAfter: 1, cfg: testConfig(t)}

	begin := time.Now()
	if _, err := WaitForConnection(context.Background(), s, Options{}); err != nil {
		t.Fatalf("WaitForConnection() error = %v", err)
	}
	// One failed link poll costs one link interval.
	if elapsed := time.Since(begin); elapsed < DefaultLinkInterval {
		t.Errorf("elapsed = %v, want at least %v", elapsed, DefaultLinkInterval)
	}
}
