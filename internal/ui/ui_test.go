package ui

import (
	"errors"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/muurk/softap/internal/dhcp"
	"github.com/muurk/softap/internal/netconfig"
	"github.com/muurk/softap/internal/netstack"
	"github.com/muurk/softap/internal/softap"
	"github.com/muurk/softap/internal/wifi"
)

func TestHeader_Render(t *testing.T) {
	h := NewHeader("softap", "softap run", Param{"Interface", "wlan0"}, Param{"Config", "/etc/softap.yaml"})
	h.Width = 80
	out := h.Render()

	for _, want := range []string{"SOFTAP", "softap run", "Interface:", "wlan0", "/etc/softap.yaml"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Interface") > strings.Index(out, "Config") {
		t.Error("Render() should keep parameter order")
	}
}

func TestReadyBanner_Render(t *testing.T) {
	b := &ReadyBanner{
		SSID: "espnet",
		Identity: netconfig.NetworkIdentity{
			Address: netip.MustParsePrefix("192.168.1.2/24"),
			Gateway: netip.MustParseAddr("192.168.1.2"),
		},
		Lease:   "192.168.1.69",
		Elapsed: 1500 * time.Millisecond,
		Width:   80,
	}
	out := b.Render()

	for _, want := range []string{"ACCESS POINT READY", "espnet", "192.168.1.2/24", "192.168.1.69", "http://192.168.1.2/"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q:\n%s", want, out)
		}
	}

	b.PortalURL = "http://portal.local/"
	if out := b.Render(); !strings.Contains(out, "http://portal.local/") {
		t.Errorf("Render() should prefer the portal URL:\n%s", out)
	}
}

func TestRenderStatus(t *testing.T) {
	st := softap.Status{
		AccessPoint: wifi.StateAPStarted,
		Starts:      2,
		Stack:       netstack.Snapshot{LinkUp: true, ConfigUp: true, LinkChanges: 3},
		Ready:       true,
		Tasks: map[string]softap.TaskStatus{
			softap.TaskWifi: {State: softap.TaskRunning},
			softap.TaskNet:  {State: softap.TaskRunning},
			softap.TaskDHCP: {State: softap.TaskFailed, Err: "listen dhcp: address already in use\nmore"},
		},
		DHCP:  dhcp.Stats{Offers: 4, Acks: 3},
		Lease: &dhcp.Binding{MAC: "02:00:00:00:01:00", Addr: netip.MustParseAddr("192.168.1.69")},
	}
	out := RenderStatus(st, 90)

	for _, want := range []string{"ap_started", "up (3 changes)", "02:00:00:00:01:00", "4 offers, 3 acks", "dhcp", "failed", "address already in use"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderStatus() missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "more") {
		t.Errorf("RenderStatus() should only show the first error line:\n%s", out)
	}
}

func TestRenderTaskResult(t *testing.T) {
	failed := RenderTaskResult(softap.TaskResult{Task: "dhcp", Err: errors.New("boom"), Uptime: 3 * time.Second})
	if !strings.Contains(failed, "dhcp failed after 3s: boom") {
		t.Errorf("RenderTaskResult(failed) = %q", failed)
	}
	returned := RenderTaskResult(softap.TaskResult{Task: "net", Uptime: time.Minute})
	if !strings.Contains(returned, "net returned after 1m0s") {
		t.Errorf("RenderTaskResult(returned) = %q", returned)
	}
}

func TestRenderChecks(t *testing.T) {
	out, ok := RenderChecks("CONFIG CHECK", []Check{
		{Name: "config file", OK: true},
		{Name: "lease", OK: true, Warning: true, Message: "lease equals gateway"},
	}, 80)
	if !ok {
		t.Error("RenderChecks() ok = false with only warnings")
	}
	if !strings.Contains(out, "lease equals gateway") {
		t.Errorf("RenderChecks() missing warning message:\n%s", out)
	}

	if _, ok := RenderChecks("CONFIG CHECK", []Check{{Name: "hostapd", OK: false}}, 80); ok {
		t.Error("RenderChecks() ok = true with a failed check")
	}
}
