package hostapd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/muurk/softap/internal/wifi"
)

// Settings are the radio parameters that do not come from the access point
// configuration.
type Settings struct {
	Interface string
	Channel   int
	HWMode    string // a, b or g
	Country   string // ISO 3166-1 alpha-2, optional
	Driver    string // defaults to nl80211
}

func (s Settings) withDefaults() Settings {
	if s.Driver == "" {
		s.Driver = "nl80211"
	}
	if s.HWMode == "" {
		s.HWMode = "g"
	}
	if s.Channel == 0 {
		s.Channel = 6
	}
	return s
}

type confData struct {
	Settings
	SSID       string
	Auth       string
	Passphrase string
	PSK        string
}

var confTemplate = template.Must(template.New("hostapd.conf").Parse(`# generated by softap
interface={{.Interface}}
driver={{.Driver}}
ssid={{.SSID}}
hw_mode={{.HWMode}}
channel={{.Channel}}
{{- if .Country}}
country_code={{.Country}}
ieee80211d=1
{{- end}}
beacon_int=100
{{- if eq .Auth "wpa2"}}
wpa=2
wpa_key_mgmt=WPA-PSK
rsn_pairwise=CCMP
{{- if .PSK}}
wpa_psk={{.PSK}}
{{- else}}
wpa_passphrase={{.Passphrase}}
{{- end}}
{{- else if eq .Auth "wpa3"}}
wpa=2
wpa_key_mgmt=SAE
rsn_pairwise=CCMP
ieee80211w=2
sae_password={{.Passphrase}}
{{- end}}
`))

// Render produces the hostapd.conf contents for ap.
func Render(s Settings, ap wifi.AccessPointConfig) ([]byte, error) {
	if err := ap.Validate(); err != nil {
		return nil, err
	}
	s = s.withDefaults()
	if s.Interface == "" {
		return nil, fmt.Errorf("hostapd: no interface")
	}
	for _, v := range []string{s.Interface, s.Driver, s.HWMode, s.Country, ap.SSID, ap.Password} {
		if strings.ContainsAny(v, "\r\n") {
			return nil, fmt.Errorf("hostapd: value %q contains a line break", v)
		}
	}

	data := confData{Settings: s, SSID: ap.SSID}
	switch ap.AuthMethod {
	case wifi.AuthWPA2Personal:
		data.Auth = "wpa2"
		if wifi.IsRawPSK(ap.Password) {
			data.PSK = ap.Password
		} else {
			data.Passphrase = ap.Password
		}
	case wifi.AuthWPA3Personal:
		data.Auth = "wpa3"
		data.Passphrase = ap.Password
	}

	var buf bytes.Buffer
	if err := confTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render hostapd.conf: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteConf renders the configuration and writes it to path with
// owner-only permissions, replacing any previous file atomically.
func WriteConf(path string, s Settings, ap wifi.AccessPointConfig) error {
	data, err := Render(s, ap)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create hostapd config directory: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write hostapd config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write hostapd config: %w", err)
	}
	return nil
}
