// Package wifi supervises the access point lifecycle.
//
// The radio driver is reached through the Controller interface. The
// Supervisor re-reads the driver state on every iteration instead of
// trusting local bookkeeping, so a stop reported by the driver is always
// noticed:
//
//	NotStarted -> Configuring -> APStarted -> (stop event) -> NotStarted
//
// After a stop event the supervisor holds for a cool-down (5 seconds by
// default) before it reconfigures and restarts the radio. A failure to
// apply the configuration or to start the radio terminates Run with an
// error wrapping ErrAborted; there is no retry.
package wifi
