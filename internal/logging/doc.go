// Package logging provides structured logging for the softap daemon.
//
// This package wraps a zap logger. The command layer initializes it once;
// core packages (wifi, netstack, dhcp, startup) never touch the global and
// instead receive a *zap.Logger obtained from Named.
//
// # Log Levels
//
//   - Debug: per-packet DHCP decisions, link events, poll attempts
//   - Info: task start, access point restarts, readiness, leases
//   - Warn: degraded operation (configuration warnings, task returned)
//   - Error: task failures (DHCP server error, supervisor abort)
//
// # Configuration
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// An empty level falls back to SOFTAP_LOG_LEVEL and then to "info".
// The level "off" disables output entirely.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically.
package logging
