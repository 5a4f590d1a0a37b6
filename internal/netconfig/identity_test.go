package netconfig

import (
	"errors"
	"net/netip"
	"strings"
	"testing"
)

func TestResolve_DefaultConstants(t *testing.T) {
	id, err := Resolve("192.168.1.2/24", "192.168.1.2", nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if id.Address != netip.MustParsePrefix("192.168.1.2/24") {
		t.Errorf("Address = %v, want 192.168.1.2/24", id.Address)
	}
	if id.Gateway != netip.MustParseAddr("192.168.1.2") {
		t.Errorf("Gateway = %v, want 192.168.1.2", id.Gateway)
	}
	if len(id.DNS) != 0 {
		t.Errorf("DNS = %v, want empty", id.DNS)
	}
}

func TestResolve_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		address string
		gateway string
		dns     []string
	}{
		{"class C", "192.168.1.2/24", "192.168.1.1", nil},
		{"host bits kept", "10.1.2.3/8", "10.0.0.1", []string{"1.1.1.1"}},
		{"slash 32", "172.16.0.9/32", "172.16.0.9", nil},
		{"slash 0", "0.0.0.0/0", "0.0.0.0", nil},
		{"multiple dns in order", "192.168.13.37/24", "192.168.13.1", []string{"9.9.9.9", "8.8.8.8", "192.168.13.1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := Resolve(tt.address, tt.gateway, tt.dns)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if id.Address.String() != tt.address {
				t.Errorf("Address = %s, want %s", id.Address, tt.address)
			}
			if id.Gateway.String() != tt.gateway {
				t.Errorf("Gateway = %s, want %s", id.Gateway, tt.gateway)
			}
			if len(id.DNS) != len(tt.dns) {
				t.Fatalf("len(DNS) = %d, want %d", len(id.DNS), len(tt.dns))
			}
			for i := range tt.dns {
				if id.DNS[i].String() != tt.dns[i] {
					t.Errorf("DNS[%d] = %s, want %s", i, id.DNS[i], tt.dns[i])
				}
			}
		})
	}
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name      string
		address   string
		gateway   string
		dns       []string
		wantField string
	}{
		{"octet out of range", "999.1.1.1/24", "192.168.1.2", nil, FieldStaticAddress},
		{"missing prefix", "192.168.1.2", "192.168.1.2", nil, FieldStaticAddress},
		{"prefix too long", "192.168.1.2/33", "192.168.1.2", nil, FieldStaticAddress},
		{"empty address", "", "192.168.1.2", nil, FieldStaticAddress},
		{"ipv6 address", "fd00::1/64", "192.168.1.2", nil, FieldStaticAddress},
		{"garbage gateway", "192.168.1.2/24", "gateway", nil, FieldGatewayAddress},
		{"gateway with prefix", "192.168.1.2/24", "192.168.1.1/24", nil, FieldGatewayAddress},
		{"gateway octet out of range", "192.168.1.2/24", "192.168.1.256", nil, FieldGatewayAddress},
		{"ipv6 gateway", "192.168.1.2/24", "fe80::1", nil, FieldGatewayAddress},
		{"bad dns", "192.168.1.2/24", "192.168.1.1", []string{"8.8.8.8", "dns"}, FieldDNSServer},
		{"address checked first", "bogus", "bogus", nil, FieldStaticAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.address, tt.gateway, tt.dns)
			if err == nil {
				t.Fatal("Resolve() expected error, got nil")
			}

			var fe *FieldError
			if !errors.As(err, &fe) {
				t.Fatalf("error type = %T, want *FieldError", err)
			}
			if fe.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", fe.Field, tt.wantField)
			}
			if !strings.Contains(err.Error(), tt.wantField) {
				t.Errorf("Error() = %q, should mention %q", err.Error(), tt.wantField)
			}
		})
	}
}

func TestResolve_NotIPv4Sentinel(t *testing.T) {
	_, err := Resolve("192.168.1.2/24", "::1", nil)
	if !errors.Is(err, ErrNotIPv4) {
		t.Errorf("errors.Is(err, ErrNotIPv4) = false, err = %v", err)
	}
}

func TestNetworkIdentity_Helpers(t *testing.T) {
	id, err := Resolve("192.168.1.2/24", "192.168.1.2", []string{"192.168.1.2"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if got := id.IP(); got != netip.MustParseAddr("192.168.1.2") {
		t.Errorf("IP() = %v, want 192.168.1.2", got)
	}
	if got := id.Network(); got != netip.MustParsePrefix("192.168.1.0/24") {
		t.Errorf("Network() = %v, want 192.168.1.0/24", got)
	}
	if got := id.Netmask(); got != netip.MustParseAddr("255.255.255.0") {
		t.Errorf("Netmask() = %v, want 255.255.255.0", got)
	}
	if !id.GatewayInSubnet() {
		t.Error("GatewayInSubnet() = false, want true")
	}

	outside, _ := Resolve("192.168.1.2/24", "10.0.0.1", nil)
	if outside.GatewayInSubnet() {
		t.Error("GatewayInSubnet() = true for 10.0.0.1, want false")
	}
}

func TestPrefixMask(t *testing.T) {
	tests := []struct {
		bits int
		want string
	}{
		{0, "0.0.0.0"},
		{8, "255.0.0.0"},
		{20, "255.255.240.0"},
		{24, "255.255.255.0"},
		{32, "255.255.255.255"},
		{40, "255.255.255.255"},
		{-1, "0.0.0.0"},
	}

	for _, tt := range tests {
		if got := PrefixMask(tt.bits).String(); got != tt.want {
			t.Errorf("PrefixMask(%d) = %s, want %s", tt.bits, got, tt.want)
		}
	}
}
