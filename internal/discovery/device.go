package discovery

import (
	"fmt"
	"strings"
	"time"
)

// Device is an EleroPi controller seen on the network via mDNS
type Device struct {
	// Instance is the advertised service instance name (e.g., "EleroPi API")
	Instance string `json:"instance"`

	// Hostname is the mDNS hostname (e.g., "eleropi.local.")
	Hostname string `json:"hostname"`

	// IP is the first advertised address, IPv4 preferred
	IP string `json:"ip"`

	// Port is the advertised port, or the API default when none is given
	Port int `json:"port"`

	// Metadata holds the TXT record as key/value pairs
	Metadata map[string]string `json:"metadata,omitempty"`

	// DiscoveredAt is when the advertisement was received
	DiscoveredAt time.Time `json:"discovered_at"`
}

// Host returns the hostname without the trailing root dot, suitable for
// passing to eleroapi as Config.Host.
func (d *Device) Host() string {
	return normalizeHost(d.Hostname)
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	return fmt.Sprintf("EleroPi controller %s at %s:%d", d.Host(), d.IP, d.Port)
}

// BaseURL returns the HTTP base URL using the advertised address
func (d *Device) BaseURL() string {
	if strings.Contains(d.IP, ":") {
		return fmt.Sprintf("http://[%s]:%d", d.IP, d.Port)
	}
	return fmt.Sprintf("http://%s:%d", d.IP, d.Port)
}

// IsAPIService reports whether the advertised instance is the EleroPi API
// itself rather than another web service on the same host
func (d *Device) IsAPIService() bool {
	return instancePattern.MatchString(d.Instance)
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (d *Device) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}

func normalizeHost(host string) string {
	return strings.ToLower(strings.TrimSuffix(host, "."))
}
