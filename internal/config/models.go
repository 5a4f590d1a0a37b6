package config

import "time"

// CurrentVersion is the config file format version.
const CurrentVersion = 1

// Config is the softap configuration file.
type Config struct {
	Version   int    `yaml:"version"`
	Interface string `yaml:"interface"`           // Wireless interface the access point runs on
	LogLevel  string `yaml:"log_level,omitempty"` // debug, info, warn, error, off

	AccessPoint AccessPoint `yaml:"access_point"`
	Network     Network     `yaml:"network"`
	DHCP        DHCP        `yaml:"dhcp"`
	Timing      Timing      `yaml:"timing"`
	Hostapd     Hostapd     `yaml:"hostapd"`
}

// AccessPoint describes the advertised wireless network.
type AccessPoint struct {
	SSID     string `yaml:"ssid"`
	Password string `yaml:"password"`
	Auth     string `yaml:"auth"` // none, wpa2-personal, wpa3-personal
}

// Network is the static identity of the access point itself.
type Network struct {
	StaticIP string   `yaml:"static_ip"` // CIDR, e.g. 192.168.1.2/24
	Gateway  string   `yaml:"gateway"`
	DNS      []string `yaml:"dns,omitempty"` // Defaults to the gateway
}

// DHCP configures the single-lease server.
type DHCP struct {
	LeaseAddress     string        `yaml:"lease_address"`
	LeaseTime        time.Duration `yaml:"lease_time"`
	CaptivePortal    bool          `yaml:"captive_portal"`
	AdvertiseNetmask bool          `yaml:"advertise_netmask"`
}

// Timing holds the supervisor and startup intervals.
type Timing struct {
	Cooldown   time.Duration `yaml:"cooldown"`    // Hold after the AP stops before restarting it
	LinkPoll   time.Duration `yaml:"link_poll"`   // Link-up poll period at startup
	ConfigPoll time.Duration `yaml:"config_poll"` // Config-up poll period at startup
}

// Hostapd configures the radio driver process.
type Hostapd struct {
	Binary     string `yaml:"binary"`
	ConfigPath string `yaml:"config_path,omitempty"` // Where hostapd.conf is written; empty means a temp dir
	Channel    int    `yaml:"channel"`
	HWMode     string `yaml:"hw_mode"`
	Country    string `yaml:"country,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Version:   CurrentVersion,
		Interface: "wlan0",
		AccessPoint: AccessPoint{
			SSID:     "espnet",
			Password: "password",
			Auth:     "wpa2-personal",
		},
		Network: Network{
			StaticIP: "192.168.1.2/24",
			Gateway:  "192.168.1.2",
		},
		DHCP: DHCP{
			LeaseAddress:  "192.168.1.69",
			LeaseTime:     time.Hour,
			CaptivePortal: true,
		},
		Timing: Timing{
			Cooldown:   5 * time.Second,
			LinkPoll:   500 * time.Millisecond,
			ConfigPoll: 100 * time.Millisecond,
		},
		Hostapd: Hostapd{
			Binary:  "hostapd",
			Channel: 6,
			HWMode:  "g",
		},
	}
}
