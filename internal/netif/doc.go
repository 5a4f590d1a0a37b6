// Package netif drives a Linux network interface for the packet stack:
// the static address is applied with iproute2 and the link state is read
// from sysfs.
package netif
