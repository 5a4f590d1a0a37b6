package startup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/muurk/softap/internal/logging"
	"github.com/muurk/softap/internal/netconfig"
)

const (
	DefaultLinkInterval   = 500 * time.Millisecond
	DefaultConfigInterval = 100 * time.Millisecond
)

// Readiness is the read side of the stack handle.
type Readiness interface {
	IsLinkUp() bool
	IsConfigUp() bool
	ConfigV4() (netconfig.NetworkIdentity, bool)
}

// Options configures WaitForConnection. Zero intervals select the defaults.
type Options struct {
	LinkInterval   time.Duration
	ConfigInterval time.Duration
	// SSID is only used for the connect hint.
	SSID   string
	Logger *zap.Logger
}

// WaitForConnection blocks until the link is up and, after that, until the
// stack configuration is applied. The second condition is not looked at
// before the first one holds. It returns the applied configuration.
//
// There is no timeout of its own; bound it through ctx if needed.
func WaitForConnection(ctx context.Context, r Readiness, opts Options) (netconfig.NetworkIdentity, error) {
	linkInterval := opts.LinkInterval
	if linkInterval <= 0 {
		linkInterval = DefaultLinkInterval
	}
	configInterval := opts.ConfigInterval
	if configInterval <= 0 {
		configInterval = DefaultConfigInterval
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	log.Info("Waiting for link to be up")
	linkPolls := 0
	err := wait.PollUntilContextCancel(ctx, linkInterval, true, func(context.Context) (bool, error) {
		linkPolls++
		return r.IsLinkUp(), nil
	})
	if err != nil {
		return netconfig.NetworkIdentity{}, fmt.Errorf("wait for link up: %w", err)
	}
	log.Debug("Link is up", zap.Int("polls", linkPolls))

	log.Info("Link up, waiting for network configuration", zap.String("ssid", opts.SSID))
	configPolls := 0
	err = wait.PollUntilContextCancel(ctx, configInterval, true, func(context.Context) (bool, error) {
		configPolls++
		return r.IsConfigUp(), nil
	})
	if err != nil {
		return netconfig.NetworkIdentity{}, fmt.Errorf("wait for config up: %w", err)
	}

	cfg, ok := r.ConfigV4()
	if !ok {
		// Config went away between the poll and the read; report what we know.
		log.Warn("Configuration reported up but not readable")
		return netconfig.NetworkIdentity{}, nil
	}

	log.Info("IPv4 configuration applied",
		logging.Prefix("address", cfg.Address),
		logging.Addr("gateway", cfg.Gateway),
		logging.Addrs("dns", cfg.DNS),
		zap.Int("config_polls", configPolls),
	)
	log.Info(fmt.Sprintf("Connect to the access point %q and point your browser to http://%s/", opts.SSID, cfg.Gateway))
	return cfg, nil
}
