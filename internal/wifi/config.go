package wifi

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	// MaxSSIDLength is the 802.11 SSID limit in bytes.
	MaxSSIDLength = 32
	// MaxPasswordLength bounds the stored password in bytes. A 64 byte value
	// is only meaningful as a hex encoded raw PSK.
	MaxPasswordLength = 64
	// MinPassphraseLength is the WPA passphrase lower bound.
	MinPassphraseLength = 8
)

// AuthMethod selects the access point's authentication scheme.
type AuthMethod int

const (
	AuthNone AuthMethod = iota
	AuthWPA2Personal
	AuthWPA3Personal
)

// String returns the configuration file spelling of the method.
func (m AuthMethod) String() string {
	switch m {
	case AuthNone:
		return "none"
	case AuthWPA2Personal:
		return "wpa2-personal"
	case AuthWPA3Personal:
		return "wpa3-personal"
	default:
		return fmt.Sprintf("AuthMethod(%d)", int(m))
	}
}

// ParseAuthMethod is the inverse of AuthMethod.String. Matching is case-insensitive
// and accepts the short forms "open", "wpa2" and "wpa3".
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "open":
		return AuthNone, nil
	case "wpa2-personal", "wpa2":
		return AuthWPA2Personal, nil
	case "wpa3-personal", "wpa3":
		return AuthWPA3Personal, nil
	default:
		return 0, fmt.Errorf("unknown auth method %q", s)
	}
}

// AccessPointConfig is applied to the controller on every (re)configuration.
// It is built once at startup and never modified afterwards.
type AccessPointConfig struct {
	SSID       string
	Password   string
	AuthMethod AuthMethod
}

// ErrInvalidConfig is wrapped by every AccessPointConfig validation failure.
var ErrInvalidConfig = errors.New("invalid access point configuration")

// Validate checks the SSID and password bounds for the selected auth method.
func (c AccessPointConfig) Validate() error {
	if c.SSID == "" {
		return fmt.Errorf("%w: ssid cannot be empty", ErrInvalidConfig)
	}
	if len(c.SSID) > MaxSSIDLength {
		return fmt.Errorf("%w: ssid too long (max %d bytes): %d bytes", ErrInvalidConfig, MaxSSIDLength, len(c.SSID))
	}
	if len(c.Password) > MaxPasswordLength {
		return fmt.Errorf("%w: password too long (max %d bytes): %d bytes", ErrInvalidConfig, MaxPasswordLength, len(c.Password))
	}

	switch c.AuthMethod {
	case AuthNone:
		if c.Password != "" {
			return fmt.Errorf("%w: password must be empty for an open network", ErrInvalidConfig)
		}
	case AuthWPA2Personal, AuthWPA3Personal:
		if len(c.Password) < MinPassphraseLength {
			return fmt.Errorf("%w: %s password too short (min %d chars): %d chars",
				ErrInvalidConfig, c.AuthMethod, MinPassphraseLength, len(c.Password))
		}
		if len(c.Password) == MaxPasswordLength && !IsRawPSK(c.Password) {
			return fmt.Errorf("%w: a 64 character password must be a hex encoded PSK", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unsupported auth method %s", ErrInvalidConfig, c.AuthMethod)
	}
	return nil
}

// IsRawPSK reports whether the password is a 64 digit hex pre-shared key
// rather than a passphrase.
func IsRawPSK(password string) bool {
	if len(password) != MaxPasswordLength {
		return false
	}
	_, err := hex.DecodeString(password)
	return err == nil
}
