//go:build !linux

package dhcp

import (
	"context"
	"fmt"
	"net"
)

// Listen opens the server socket on UDP port 67. Binding to a device is
// only supported on Linux; iface is ignored here.
func Listen(ctx context.Context, iface string) (net.PacketConn, error) {
	var lc net.ListenConfig
	conn, err := lc.ListenPacket(ctx, "udp4", fmt.Sprintf(":%d", ServerPort))
	if err != nil {
		return nil, fmt.Errorf("listen dhcp: %w", err)
	}
	return conn, nil
}
