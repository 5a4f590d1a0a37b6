package ui

import (
	"fmt"
	"time"

	"github.com/muurk/softap/internal/netconfig"
	"github.com/muurk/softap/internal/softap"
)

// ReadyBanner is printed once the access point network is ready.
type ReadyBanner struct {
	SSID      string
	Identity  netconfig.NetworkIdentity
	Lease     string
	PortalURL string
	Elapsed   time.Duration
	Width     int
}

// NewReadyBanner fills a banner from a running system.
func NewReadyBanner(ssid, portalURL string, sys *softap.System, elapsed time.Duration) *ReadyBanner {
	return &ReadyBanner{
		SSID:      ssid,
		Identity:  sys.Identity(),
		Lease:     sys.Leaser().Addr().String(),
		PortalURL: portalURL,
		Elapsed:   elapsed,
		Width:     GetTerminalWidth(),
	}
}

// Render returns the styled banner. The password is never shown.
func (b *ReadyBanner) Render() string {
	lines := []string{
		SuccessStyle.Bold(true).Render(fmt.Sprintf("%s  ACCESS POINT READY", SuccessMarker)),
		"",
	}
	lines = append(lines, renderParams([]Param{
		{"Network", b.SSID},
		{"Address", b.Identity.Address.String()},
		{"Gateway", b.Identity.Gateway.String()},
		{"Client lease", b.Lease},
		{"Ready after", b.Elapsed.Round(time.Millisecond).String()},
	})...)
	lines = append(lines, "", fmt.Sprintf("Connect to %q and open %s", b.SSID, b.connectURL()))
	return box(SuccessColor, b.Width, lines)
}

func (b *ReadyBanner) connectURL() string {
	if b.PortalURL != "" {
		return b.PortalURL
	}
	return fmt.Sprintf("http://%s/", b.Identity.Gateway)
}

func (b *ReadyBanner) String() string {
	return b.Render()
}
