// Package hostapd runs the access point radio through the hostapd daemon.
//
// Controller implements wifi.Controller: SetConfiguration renders
// hostapd.conf, Start launches hostapd and waits for AP-ENABLED on its
// standard output, and the access point is considered stopped on
// AP-DISABLED or when the process exits.
package hostapd
