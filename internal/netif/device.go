package netif

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/muurk/softap/internal/logging"
	"github.com/muurk/softap/internal/netconfig"
	"github.com/muurk/softap/internal/netstack"
)

// DefaultPollInterval is how often the link state is sampled.
const DefaultPollInterval = 250 * time.Millisecond

// Options configures a Device. Zero values select the defaults.
type Options struct {
	// IPBinary is the iproute2 executable. Default: "ip"
	IPBinary string
	// SysfsRoot is the directory holding per-interface state. Default: /sys/class/net
	SysfsRoot    string
	PollInterval time.Duration
	Exec         Exec
	Logger       *zap.Logger
}

// Device is a Linux network interface driven through iproute2 and sysfs.
// It implements netstack.Device.
type Device struct {
	name     string
	ip       string
	sysfs    string
	interval time.Duration
	exec     Exec
	logger   *zap.Logger

	// last reported link state; only touched by Next
	reported bool
	up       bool
}

// New returns a device for the named interface.
func New(name string, opts Options) *Device {
	d := &Device{
		name:     name,
		ip:       opts.IPBinary,
		sysfs:    opts.SysfsRoot,
		interval: opts.PollInterval,
		exec:     opts.Exec,
		logger:   opts.Logger,
	}
	if d.ip == "" {
		d.ip = "ip"
	}
	if d.sysfs == "" {
		d.sysfs = "/sys/class/net"
	}
	if d.interval <= 0 {
		d.interval = DefaultPollInterval
	}
	if d.exec == nil {
		d.exec = runCmd
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	return d
}

// Name returns the interface name.
func (d *Device) Name() string {
	return d.name
}

// ApplyConfig replaces the interface addresses with id's address and brings
// the interface up.
func (d *Device) ApplyConfig(ctx context.Context, id netconfig.NetworkIdentity) error {
	if !id.Address.IsValid() {
		return errors.New("netif: no address to apply")
	}
	steps := [][]string{
		{"addr", "flush", "dev", d.name},
		{"addr", "add", id.Address.String(), "broadcast", "+", "dev", d.name},
		{"link", "set", "dev", d.name, "up"},
	}
	for _, args := range steps {
		if err := d.exec(ctx, d.ip, args...); err != nil {
			return err
		}
	}
	d.logger.Info("Interface configured",
		zap.String("interface", d.name),
		logging.Prefix("address", id.Address),
		logging.Addr("gateway", id.Gateway),
	)
	return nil
}

// Next blocks until the link state differs from the last reported one.
// The first call reports an up link immediately and waits for one otherwise.
func (d *Device) Next(ctx context.Context) (netstack.Event, error) {
	var up bool
	err := wait.PollUntilContextCancel(ctx, d.interval, true, func(context.Context) (bool, error) {
		var err error
		up, err = d.LinkUp()
		if err != nil {
			return false, err
		}
		if !d.reported {
			return up, nil
		}
		return up != d.up, nil
	})
	if err != nil {
		return netstack.Event{}, err
	}

	d.reported = true
	d.up = up
	kind := netstack.EventLinkDown
	if up {
		kind = netstack.EventLinkUp
	}
	return netstack.Event{Kind: kind, At: time.Now()}, nil
}

// LinkUp reads the operational state of the interface. An "unknown"
// operstate, as reported by some drivers, falls back to the carrier flag.
func (d *Device) LinkUp() (bool, error) {
	state, err := d.readAttr("operstate")
	if err != nil {
		return false, err
	}
	switch state {
	case "up":
		return true, nil
	case "unknown":
		carrier, err := d.readAttr("carrier")
		if err != nil {
			// carrier is unreadable while the interface is administratively down
			return false, nil
		}
		return carrier == "1", nil
	default:
		return false, nil
	}
}

func (d *Device) readAttr(attr string) (string, error) {
	data, err := os.ReadFile(filepath.Join(d.sysfs, d.name, attr))
	if err != nil {
		return "", fmt.Errorf("read %s of %s: %w", attr, d.name, err)
	}
	return strings.TrimSpace(string(data)), nil
}
