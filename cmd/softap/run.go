package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/softap/internal/config"
	"github.com/muurk/softap/internal/dhcp"
	"github.com/muurk/softap/internal/hostapd"
	"github.com/muurk/softap/internal/logging"
	"github.com/muurk/softap/internal/netif"
	"github.com/muurk/softap/internal/softap"
	"github.com/muurk/softap/internal/ui"
)

var (
	runIface   string
	runHostapd string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the access point and serve DHCP until interrupted",
	Long: `Start the access point and serve DHCP until interrupted.

The command returns once the link is up and the static address is applied,
prints the connection details, and then keeps running. A task that fails
is reported but does not stop the others. Send SIGUSR1 to print a status
table.`,
	Example: `  # Run with the default configuration
  sudo softap run

  # Use another interface and verbose logging
  sudo softap run --iface wlan1 --log-level debug`,
	RunE: runAccessPoint,
}

func init() {
	runCmd.Flags().StringVar(&runIface, "iface", "", "Wireless interface (overrides the config file)")
	runCmd.Flags().StringVar(&runHostapd, "hostapd", "", "Path to the hostapd binary (overrides the config file)")
}

func runAccessPoint(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if runIface != "" {
		cfg.Interface = runIface
	}
	if runHostapd != "" {
		cfg.Hostapd.Binary = runHostapd
	}

	level := logLevel
	if level == "" {
		level = cfg.LogLevel
	}
	if err := logging.Initialize(level); err != nil {
		return err
	}
	defer logging.Sync()

	sc, err := cfg.Softap()
	if err != nil {
		return err
	}
	for _, w := range cfg.Warnings() {
		logging.Warn("Configuration warning", zap.String("warning", w))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.NewHeader("softap", "softap run",
		ui.Param{Key: "Interface", Value: cfg.Interface},
		ui.Param{Key: "SSID", Value: cfg.AccessPoint.SSID},
		ui.Param{Key: "Security", Value: sc.AccessPoint.AuthMethod.String()},
		ui.Param{Key: "Address", Value: cfg.Network.StaticIP},
	).Render())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctrl := hostapd.NewController(hostapd.Config{
		Binary:   cfg.Hostapd.Binary,
		ConfPath: cfg.Hostapd.ConfigPath,
		Settings: hostapd.Settings{
			Interface: cfg.Interface,
			Channel:   cfg.Hostapd.Channel,
			HWMode:    cfg.Hostapd.HWMode,
			Country:   cfg.Hostapd.Country,
		},
	}, logging.Named("hostapd"))

	deps := softap.Deps{
		Controller: ctrl,
		Device:     netif.New(cfg.Interface, netif.Options{Logger: logging.Named("netif")}),
		Listen: func(ctx context.Context) (net.PacketConn, error) {
			return dhcp.Listen(ctx, cfg.Interface)
		},
		Logger: logging.GetLogger(),
	}

	began := time.Now()
	sys, err := softap.Start(ctx, sc, deps)
	if err != nil {
		return err
	}

	portal := ""
	if cfg.DHCP.CaptivePortal {
		portal = fmt.Sprintf("http://%s/", sys.Identity().Gateway)
	}
	fmt.Fprintln(out, ui.NewReadyBanner(cfg.AccessPoint.SSID, portal, sys, time.Since(began)).Render())

	statusReq := make(chan os.Signal, 1)
	notifyStatus(statusReq)
	defer signal.Stop(statusReq)

	results := sys.Results()
	for {
		select {
		case r, ok := <-results:
			if !ok {
				return sys.Wait()
			}
			fmt.Fprintln(out, ui.RenderTaskResult(r))
		case <-statusReq:
			fmt.Fprintln(out, ui.RenderStatus(sys.Status(), ui.GetTerminalWidth()))
		case <-ctx.Done():
			logging.Info("Shutting down")
			err := sys.Stop()
			fmt.Fprintln(out, ui.RenderStatus(sys.Status(), ui.GetTerminalWidth()))
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}
