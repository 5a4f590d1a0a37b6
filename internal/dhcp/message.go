package dhcp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"net/netip"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// OptCaptivePortal is the captive portal URI option from RFC 8910.
// gopacket has no named constant for it.
const OptCaptivePortal layers.DHCPOpt = 114

const (
	ServerPort = 67
	ClientPort = 68

	// minPacketLen is the fixed BOOTP header plus the magic cookie.
	minPacketLen = 240
	// maxHardwareLen is the size of the chaddr field.
	maxHardwareLen = 16
	// flagBroadcast is the BROADCAST bit of the flags field (RFC 2131 §2).
	flagBroadcast = 0x8000
)

var (
	// ErrMalformed is wrapped by Decode for packets that are not DHCPv4.
	ErrMalformed = errors.New("malformed dhcp packet")
)

// Decode parses a DHCPv4 packet.
func Decode(data []byte) (*layers.DHCPv4, error) {
	if len(data) < minPacketLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformed, len(data))
	}
	if data[2] > maxHardwareLen {
		return nil, fmt.Errorf("%w: hardware length %d", ErrMalformed, data[2])
	}
	var msg layers.DHCPv4
	if err := msg.DecodeFromBytes(data, gopacket.NilDecodeFeedback); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &msg, nil
}

// Encode serializes a DHCPv4 packet.
func Encode(msg *layers.DHCPv4) ([]byte, error) {
	buf := gopacket.NewSerializeBuffer()
	if err := msg.SerializeTo(buf, gopacket.SerializeOptions{FixLengths: true}); err != nil {
		return nil, fmt.Errorf("encode dhcp %s: %w", MessageType(msg), err)
	}
	return buf.Bytes(), nil
}

// MessageType returns the value of option 53, or DHCPMsgTypeUnspecified.
func MessageType(msg *layers.DHCPv4) layers.DHCPMsgType {
	if o, ok := findOption(msg, layers.DHCPOptMessageType); ok && len(o.Data) == 1 {
		return layers.DHCPMsgType(o.Data[0])
	}
	return layers.DHCPMsgTypeUnspecified
}

// AddrOption returns the IPv4 address carried by a single-address option.
func AddrOption(msg *layers.DHCPv4, opt layers.DHCPOpt) (netip.Addr, bool) {
	o, ok := findOption(msg, opt)
	if !ok || len(o.Data) != 4 {
		return netip.Addr{}, false
	}
	return netip.AddrFrom4([4]byte(o.Data)), true
}

// AddrListOption returns the addresses carried by a list option such as routers or DNS.
func AddrListOption(msg *layers.DHCPv4, opt layers.DHCPOpt) []netip.Addr {
	o, ok := findOption(msg, opt)
	if !ok || len(o.Data)%4 != 0 {
		return nil
	}
	out := make([]netip.Addr, 0, len(o.Data)/4)
	for i := 0; i < len(o.Data); i += 4 {
		out = append(out, netip.AddrFrom4([4]byte(o.Data[i:i+4])))
	}
	return out
}

// Uint32Option returns the value of a 4-byte integer option such as the lease time.
func Uint32Option(msg *layers.DHCPv4, opt layers.DHCPOpt) (uint32, bool) {
	o, ok := findOption(msg, opt)
	if !ok || len(o.Data) != 4 {
		return 0, false
	}
	return binary.BigEndian.Uint32(o.Data), true
}

// StringOption returns the raw bytes of an option as a string.
func StringOption(msg *layers.DHCPv4, opt layers.DHCPOpt) (string, bool) {
	o, ok := findOption(msg, opt)
	if !ok {
		return "", false
	}
	return string(o.Data), true
}

func findOption(msg *layers.DHCPv4, opt layers.DHCPOpt) (layers.DHCPOption, bool) {
	for _, o := range msg.Options {
		if o.Type == opt {
			return o, true
		}
	}
	return layers.DHCPOption{}, false
}

func addrOpt(opt layers.DHCPOpt, addrs ...netip.Addr) layers.DHCPOption {
	data := make([]byte, 0, 4*len(addrs))
	for _, a := range addrs {
		b := a.As4()
		data = append(data, b[:]...)
	}
	return layers.NewDHCPOption(opt, data)
}

func uint32Opt(opt layers.DHCPOpt, v uint32) layers.DHCPOption {
	data := make([]byte, 4)
	binary.BigEndian.PutUint32(data, v)
	return layers.NewDHCPOption(opt, data)
}

func ipOf(a netip.Addr) net.IP {
	if !a.IsValid() {
		return net.IPv4zero.To4()
	}
	b := a.As4()
	return net.IP(b[:])
}

func addrOf(ip net.IP) netip.Addr {
	v4 := ip.To4()
	if v4 == nil {
		return netip.Addr{}
	}
	a := netip.AddrFrom4([4]byte(v4))
	if a.IsUnspecified() {
		return netip.Addr{}
	}
	return a
}
