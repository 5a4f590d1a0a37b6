package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/muurk/softap/internal/netconfig"
	"github.com/muurk/softap/internal/softap"
	"github.com/muurk/softap/internal/wifi"
)

// ValidationError reports the first invalid key of a configuration.
type ValidationError struct {
	Key string // dotted YAML path, e.g. "dhcp.lease_address"
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Key, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(key string, err error) error {
	return &ValidationError{Key: key, Err: err}
}

// Validate checks every key that Start would otherwise reject.
func (c *Config) Validate() error {
	if c.Interface == "" {
		return invalid("interface", errors.New("must not be empty"))
	}

	if _, err := c.accessPoint(); err != nil {
		return err
	}

	if _, err := c.identity(); err != nil {
		return err
	}

	lease, err := netip.ParseAddr(c.DHCP.LeaseAddress)
	if err != nil {
		return invalid("dhcp.lease_address", err)
	}
	if !lease.Is4() {
		return invalid("dhcp.lease_address", netconfig.ErrNotIPv4)
	}
	if c.DHCP.LeaseTime <= 0 {
		return invalid("dhcp.lease_time", errors.New("must be positive"))
	}

	for _, d := range []struct {
		key string
		val time.Duration
	}{
		{"timing.cooldown", c.Timing.Cooldown},
		{"timing.link_poll", c.Timing.LinkPoll},
		{"timing.config_poll", c.Timing.ConfigPoll},
	} {
		if d.val <= 0 {
			return invalid(d.key, errors.New("must be positive"))
		}
	}

	if c.Hostapd.Binary == "" {
		return invalid("hostapd.binary", errors.New("must not be empty"))
	}
	if c.Hostapd.Channel < 0 {
		return invalid("hostapd.channel", fmt.Errorf("invalid channel %d", c.Hostapd.Channel))
	}
	return nil
}

// Warnings lists settings that are accepted but probably wrong.
// Call it on a configuration that passed Validate.
func (c *Config) Warnings() []string {
	var out []string

	id, err := c.identity()
	if err != nil {
		return nil
	}
	lease, err := netip.ParseAddr(c.DHCP.LeaseAddress)
	if err != nil {
		return nil
	}

	if !id.GatewayInSubnet() {
		out = append(out, fmt.Sprintf("gateway %s is outside %s", id.Gateway, id.Network()))
	}
	if lease == id.IP() {
		out = append(out, fmt.Sprintf("lease address %s is the access point's own address", lease))
	}
	if lease == id.Gateway && lease != id.IP() {
		out = append(out, fmt.Sprintf("lease address %s is the gateway address", lease))
	}
	if !id.Network().Contains(lease) {
		out = append(out, fmt.Sprintf("lease address %s is outside %s", lease, id.Network()))
	}
	if strings.EqualFold(c.AccessPoint.Auth, wifi.AuthNone.String()) {
		out = append(out, "access point is open (auth: none)")
	}
	return out
}

// Softap converts the file configuration into the orchestration config.
func (c *Config) Softap() (softap.Config, error) {
	if err := c.Validate(); err != nil {
		return softap.Config{}, err
	}
	ap, _ := c.accessPoint()
	return softap.Config{
		AccessPoint:      ap,
		StaticAddress:    c.Network.StaticIP,
		Gateway:          c.Network.Gateway,
		DNS:              c.Network.DNS,
		LeaseAddress:     c.DHCP.LeaseAddress,
		LeaseTime:        c.DHCP.LeaseTime,
		CaptivePortal:    c.DHCP.CaptivePortal,
		AdvertiseNetmask: c.DHCP.AdvertiseNetmask,
		Cooldown:         c.Timing.Cooldown,
		LinkInterval:     c.Timing.LinkPoll,
		ConfigInterval:   c.Timing.ConfigPoll,
	}, nil
}

func (c *Config) accessPoint() (wifi.AccessPointConfig, error) {
	auth, err := wifi.ParseAuthMethod(c.AccessPoint.Auth)
	if err != nil {
		return wifi.AccessPointConfig{}, invalid("access_point.auth", err)
	}
	ap := wifi.AccessPointConfig{
		SSID:       c.AccessPoint.SSID,
		Password:   c.AccessPoint.Password,
		AuthMethod: auth,
	}
	if err := ap.Validate(); err != nil {
		return wifi.AccessPointConfig{}, invalid("access_point", err)
	}
	return ap, nil
}

func (c *Config) identity() (netconfig.NetworkIdentity, error) {
	id, err := netconfig.Resolve(c.Network.StaticIP, c.Network.Gateway, c.Network.DNS)
	if err != nil {
		var fe *netconfig.FieldError
		key := "network"
		if errors.As(err, &fe) {
			switch fe.Field {
			case netconfig.FieldStaticAddress:
				key = "network.static_ip"
			case netconfig.FieldGatewayAddress:
				key = "network.gateway"
			case netconfig.FieldDNSServer:
				key = "network.dns"
			}
		}
		return netconfig.NetworkIdentity{}, invalid(key, err)
	}
	return id, nil
}
