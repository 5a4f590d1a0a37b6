package netconfig

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
)

// Field names used in FieldError. They double as the user-facing wording.
const (
	FieldStaticAddress  = "static address"
	FieldGatewayAddress = "gateway address"
	FieldDNSServer      = "dns server"
)

var (
	// ErrNotIPv4 is wrapped by FieldError when the value parses but is not IPv4.
	ErrNotIPv4 = errors.New("not an IPv4 address")

	// ErrEmpty is wrapped by FieldError when the value is blank.
	ErrEmpty = errors.New("value is empty")
)

// FieldError reports which configuration field failed to resolve.
type FieldError struct {
	Field string // one of the Field* constants
	Value string // the rejected input
	Err   error  // underlying parse error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// NetworkIdentity is the static IPv4 identity assigned to the access point
// interface.
type NetworkIdentity struct {
	// Address is the interface address together with its prefix length,
	// e.g. 192.168.1.2/24. Host bits are preserved.
	Address netip.Prefix
	// Gateway is the default gateway handed to the stack.
	Gateway netip.Addr
	// DNS is the ordered list of name servers. May be empty.
	DNS []netip.Addr
}

// Resolve parses a CIDR static address, a gateway address and an optional
// list of DNS servers. The first invalid field aborts resolution.
//
// Gateway membership in the address's subnet is not enforced here; see
// GatewayInSubnet.
func Resolve(staticAddress, gateway string, dns []string) (NetworkIdentity, error) {
	addr, err := parseCIDR(staticAddress)
	if err != nil {
		return NetworkIdentity{}, &FieldError{Field: FieldStaticAddress, Value: staticAddress, Err: err}
	}

	gw, err := parseIPv4(gateway)
	if err != nil {
		return NetworkIdentity{}, &FieldError{Field: FieldGatewayAddress, Value: gateway, Err: err}
	}

	servers := make([]netip.Addr, 0, len(dns))
	for _, s := range dns {
		a, err := parseIPv4(s)
		if err != nil {
			return NetworkIdentity{}, &FieldError{Field: FieldDNSServer, Value: s, Err: err}
		}
		servers = append(servers, a)
	}

	return NetworkIdentity{
		Address: addr,
		Gateway: gw,
		DNS:     servers,
	}, nil
}

func parseCIDR(s string) (netip.Prefix, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return netip.Prefix{}, ErrEmpty
	}
	p, err := netip.ParsePrefix(s)
	if err != nil {
		return netip.Prefix{}, err
	}
	if !p.Addr().Is4() {
		return netip.Prefix{}, ErrNotIPv4
	}
	return p, nil
}

func parseIPv4(s string) (netip.Addr, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return netip.Addr{}, ErrEmpty
	}
	a, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, err
	}
	if !a.Is4() {
		return netip.Addr{}, ErrNotIPv4
	}
	return a, nil
}

// IP returns the interface address without the prefix length.
func (id NetworkIdentity) IP() netip.Addr {
	return id.Address.Addr()
}

// Network returns the masked subnet, e.g. 192.168.1.0/24.
func (id NetworkIdentity) Network() netip.Prefix {
	return id.Address.Masked()
}

// Netmask returns the dotted subnet mask for the prefix length.
func (id NetworkIdentity) Netmask() netip.Addr {
	return PrefixMask(id.Address.Bits())
}

// GatewayInSubnet reports whether the gateway lies within the address's
// subnet. A false result means the configuration is unlikely to be useful.
func (id NetworkIdentity) GatewayInSubnet() bool {
	return id.Address.IsValid() && id.Address.Contains(id.Gateway)
}

// String renders the identity for log lines.
func (id NetworkIdentity) String() string {
	dns := make([]string, 0, len(id.DNS))
	for _, d := range id.DNS {
		dns = append(dns, d.String())
	}
	return fmt.Sprintf("address=%s gateway=%s dns=[%s]", id.Address, id.Gateway, strings.Join(dns, " "))
}

// PrefixMask converts a prefix length (0..32) to an IPv4 mask.
func PrefixMask(bits int) netip.Addr {
	if bits < 0 {
		bits = 0
	}
	if bits > 32 {
		bits = 32
	}
	var m uint32
	if bits > 0 {
		m = ^uint32(0) << (32 - bits)
	}
	return netip.AddrFrom4([4]byte{byte(m >> 24), byte(m >> 16), byte(m >> 8), byte(m)})
}
