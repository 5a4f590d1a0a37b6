// Softap brings up a wireless access point with a static address and a
// single-lease DHCP server.
//
// Usage:
//
//	softap run [flags]
//	softap config init|check|path
//	softap version
//
// The configuration is read from $XDG_CONFIG_HOME/softap/config.yaml unless
// --config is given. Missing keys take their defaults.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/softap/internal/version"
)

var (
	configPath string
	logLevel   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "softap",
	Short: "Wireless access point with single-lease DHCP",
	Long: `Brings up a wireless access point through hostapd, assigns the interface
a static IPv4 address and hands one fixed DHCP lease to the connecting client.

The access point is restarted whenever the radio reports it stopped.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default $XDG_CONFIG_HOME/softap/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error, off); overrides the config file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "softap %s\n", version.Full())
	},
}
