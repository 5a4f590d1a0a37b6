package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/muurk/softap/internal/config"
	"github.com/muurk/softap/internal/ui"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolvedConfigPath()
		if err != nil {
			return err
		}
		if config.Exists(path) && !configForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
		}
		if err := config.Default().Save(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolvedConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and look for required tools",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolvedConfigPath()
		if err != nil {
			return err
		}
		report, ok := ui.RenderChecks("CONFIG CHECK", checkConfig(path), ui.GetTerminalWidth())
		fmt.Fprintln(cmd.OutOrStdout(), report)
		if !ok {
			return fmt.Errorf("configuration check failed")
		}
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configCheckCmd)
	configCmd.AddCommand(configPathCmd)
}

func resolvedConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.GetConfigPath()
}

// checkConfig runs every check and keeps going after failures, so the
// report lists all problems at once.
func checkConfig(path string) []ui.Check {
	var checks []ui.Check

	fileCheck := ui.Check{Name: "config file", OK: true, Message: path}
	if !config.Exists(path) {
		fileCheck.Warning = true
		fileCheck.Message = "not found, using defaults"
	}
	checks = append(checks, fileCheck)

	cfg, err := config.Load(path)
	if err != nil {
		return append(checks, ui.Check{Name: "parse", Message: err.Error()})
	}

	if err := cfg.Validate(); err != nil {
		checks = append(checks, ui.Check{Name: "settings", Message: err.Error()})
	} else {
		checks = append(checks, ui.Check{Name: "settings", OK: true})
		for _, w := range cfg.Warnings() {
			checks = append(checks, ui.Check{Name: "warning", OK: true, Warning: true, Message: w})
		}
	}

	checks = append(checks, lookPathCheck("hostapd", cfg.Hostapd.Binary,
		"install with: sudo apt-get install hostapd"))
	checks = append(checks, lookPathCheck("iproute2", "ip",
		"install with: sudo apt-get install iproute2"))

	ifaceCheck := ui.Check{Name: "interface " + cfg.Interface, OK: true}
	if _, err := os.Stat(filepath.Join("/sys/class/net", cfg.Interface)); err != nil {
		ifaceCheck.OK = false
		ifaceCheck.Message = "not present"
	}
	checks = append(checks, ifaceCheck)

	return checks
}

func lookPathCheck(name, binary, hint string) ui.Check {
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return ui.Check{Name: name, Message: binary + " not found in PATH; " + hint}
	}
	return ui.Check{Name: name, OK: true, Message: resolved}
}
