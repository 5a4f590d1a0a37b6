package hostapd

import (
	"net"
	"strings"

	"github.com/muurk/softap/internal/wifi"
)

// Line is a parsed hostapd output line that carries an event.
type Line struct {
	Interface string
	Event     wifi.Event
	Station   net.HardwareAddr // set for station events
}

// ParseLine recognizes the control events hostapd prints on stdout, e.g.
//
//	wlan0: AP-ENABLED
//	wlan0: AP-STA-CONNECTED 02:00:00:00:01:00
//
// Other lines report ok == false.
func ParseLine(s string) (Line, bool) {
	iface, rest, found := strings.Cut(strings.TrimSpace(s), ": ")
	if !found {
		return Line{}, false
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return Line{}, false
	}

	l := Line{Interface: iface}
	switch fields[0] {
	case "AP-ENABLED":
		l.Event = wifi.EventAPStart
	case "AP-DISABLED":
		l.Event = wifi.EventAPStop
	case "AP-STA-CONNECTED":
		l.Event = wifi.EventStaConnected
	case "AP-STA-DISCONNECTED":
		l.Event = wifi.EventStaDisconnected
	default:
		return Line{}, false
	}

	if l.Event == wifi.EventStaConnected || l.Event == wifi.EventStaDisconnected {
		if len(fields) < 2 {
			return Line{}, false
		}
		mac, err := net.ParseMAC(fields[1])
		if err != nil {
			return Line{}, false
		}
		l.Station = mac
	}
	return l, true
}
