// Package config loads and saves the softap configuration file.
//
// The file is YAML. Every key has a default, so a missing file or a partial
// file is valid:
//
//	version: 1
//	interface: wlan0
//	access_point:
//	  ssid: espnet
//	  password: password
//	  auth: wpa2-personal
//	network:
//	  static_ip: 192.168.1.2/24
//	  gateway: 192.168.1.2
//	dhcp:
//	  lease_address: 192.168.1.69
//	  lease_time: 1h
//	  captive_portal: true
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/softap/config.yaml or $HOME/.config/softap/config.yaml
//   - macOS: $HOME/.config/softap/config.yaml
//   - Windows: %LOCALAPPDATA%\softap\config.yaml
//
// The file is read once at startup. Save writes to a temporary file and
// renames it into place.
package config
