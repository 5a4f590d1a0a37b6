//go:build linux

package dhcp

import (
	"context"
	"fmt"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// Listen opens the server socket on UDP port 67. When iface is set the
// socket is bound to that device so replies leave through the access point
// even if another interface owns the default route.
func Listen(ctx context.Context, iface string) (net.PacketConn, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				if sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); sockErr != nil {
					return
				}
				if sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1); sockErr != nil {
					return
				}
				if iface != "" {
					sockErr = unix.BindToDevice(int(fd), iface)
				}
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}

	conn, err := lc.ListenPacket(ctx, "udp4", fmt.Sprintf(":%d", ServerPort))
	if err != nil {
		return nil, fmt.Errorf("listen dhcp on %q: %w", iface, err)
	}
	return conn, nil
}
