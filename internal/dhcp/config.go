package dhcp

import (
	"errors"
	"fmt"
	"net/netip"
	"time"
)

// DefaultLeaseTime is the lease duration handed to clients.
const DefaultLeaseTime = time.Hour

// Config is the server side of the lease: who we are and which options we
// hand out alongside the address.
type Config struct {
	// ServerIP is the server identifier (option 54) and the source of replies.
	ServerIP netip.Addr
	// LeaseTime is sent as option 51; T1 and T2 are derived from it.
	LeaseTime time.Duration
	// Gateways is sent as the router option (3).
	Gateways []netip.Addr
	// DNS is sent as the domain name server option (6).
	DNS []netip.Addr
	// Subnet is the subnet mask (option 1). The zero value omits the option.
	Subnet netip.Addr
	// CaptivePortal enables the captive portal URI option (114, RFC 8910).
	CaptivePortal bool
	// CaptivePortalURL overrides the advertised portal. Defaults to http://<ServerIP>/.
	CaptivePortalURL string
}

// DefaultConfig builds the configuration used by the access point: the
// gateway is the server, the only router and the only name server.
func DefaultConfig(gateway netip.Addr) Config {
	return Config{
		ServerIP:      gateway,
		LeaseTime:     DefaultLeaseTime,
		Gateways:      []netip.Addr{gateway},
		DNS:           []netip.Addr{gateway},
		CaptivePortal: true,
	}
}

// PortalURL returns the advertised captive portal URI, or "" when disabled.
func (c Config) PortalURL() string {
	if !c.CaptivePortal {
		return ""
	}
	if c.CaptivePortalURL != "" {
		return c.CaptivePortalURL
	}
	return fmt.Sprintf("http://%s/", c.ServerIP)
}

// ErrInvalidConfig is wrapped by Config.Validate failures.
var ErrInvalidConfig = errors.New("invalid dhcp configuration")

// Validate checks that every address is IPv4 and the lease time fits the
// 32-bit seconds field of option 51.
func (c Config) Validate() error {
	if !c.ServerIP.Is4() {
		return fmt.Errorf("%w: server address %v is not IPv4", ErrInvalidConfig, c.ServerIP)
	}
	if c.LeaseTime < time.Second {
		return fmt.Errorf("%w: lease time %v is shorter than one second", ErrInvalidConfig, c.LeaseTime)
	}
	if c.LeaseTime/time.Second > 0xffffffff {
		return fmt.Errorf("%w: lease time %v does not fit in 32 bits", ErrInvalidConfig, c.LeaseTime)
	}
	for _, a := range c.Gateways {
		if !a.Is4() {
			return fmt.Errorf("%w: gateway %v is not IPv4", ErrInvalidConfig, a)
		}
	}
	for _, a := range c.DNS {
		if !a.Is4() {
			return fmt.Errorf("%w: dns server %v is not IPv4", ErrInvalidConfig, a)
		}
	}
	if c.Subnet.IsValid() && !c.Subnet.Is4() {
		return fmt.Errorf("%w: subnet mask %v is not IPv4", ErrInvalidConfig, c.Subnet)
	}
	if c.CaptivePortal && len(c.PortalURL()) > 255 {
		return fmt.Errorf("%w: captive portal url longer than 255 bytes", ErrInvalidConfig)
	}
	return nil
}

func (c Config) leaseSeconds() uint32 {
	return uint32(c.LeaseTime / time.Second)
}
