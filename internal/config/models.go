package config

import "time"

// CurrentVersion is the profile schema version written by Save
const CurrentVersion = 1

// Profile is the CLI's persisted state: connection defaults plus what it has
// learned about controllers it talked to. Passwords and access tokens are
// never part of it.
type Profile struct {
	Version    int                `yaml:"version" json:"version"`
	Connection *Connection        `yaml:"connection,omitempty" json:"connection,omitempty"`
	Devices    map[string]*Device `yaml:"devices,omitempty" json:"devices,omitempty"` // Keyed by device_unique_id
}

// Connection holds defaults for the global CLI flags
type Connection struct {
	Host           string `yaml:"host,omitempty" json:"host,omitempty"`
	Username       string `yaml:"username,omitempty" json:"username,omitempty"`
	Autodiscover   bool   `yaml:"autodiscover" json:"autodiscover"`
	Local          bool   `yaml:"local" json:"local"`
	Port           int    `yaml:"port,omitempty" json:"port,omitempty"`
	MDNS           bool   `yaml:"mdns" json:"mdns"`                       // Resolve candidates by browsing mDNS
	MDNSTimeout    int    `yaml:"mdns_timeout" json:"mdns_timeout"`       // Seconds
	RequestTimeout int    `yaml:"request_timeout" json:"request_timeout"` // Seconds, 0 = none
}

// Device is what the CLI remembers about one controller
type Device struct {
	Nickname string                `yaml:"nickname,omitempty" json:"nickname,omitempty"`
	LastHost string                `yaml:"last_host,omitempty" json:"last_host,omitempty"`
	LastSeen time.Time             `yaml:"last_seen,omitempty" json:"last_seen,omitempty"`
	Blinds   map[string]*BlindMeta `yaml:"blinds,omitempty" json:"blinds,omitempty"` // Keyed by blind_id
}

// BlindMeta is user-assigned metadata for a blind. The controller knows
// nothing about it.
type BlindMeta struct {
	Label string `yaml:"label" json:"label"`
	Room  string `yaml:"room,omitempty" json:"room,omitempty"`
}

func defaultConnection() *Connection {
	return &Connection{
		Autodiscover:   true,
		MDNSTimeout:    5,
		RequestTimeout: 10,
	}
}

// NewProfile creates a Profile with default values
func NewProfile() *Profile {
	return &Profile{
		Version:    CurrentVersion,
		Connection: defaultConnection(),
		Devices:    make(map[string]*Device),
	}
}

// GetDevice returns the entry for deviceID, or nil
func (p *Profile) GetDevice(deviceID string) *Device {
	return p.Devices[deviceID]
}

// EnsureDevice returns the entry for deviceID, creating it if needed
func (p *Profile) EnsureDevice(deviceID string) *Device {
	if p.Devices == nil {
		p.Devices = make(map[string]*Device)
	}

	if device, exists := p.Devices[deviceID]; exists {
		return device
	}

	device := &Device{
		Blinds: make(map[string]*BlindMeta),
	}
	p.Devices[deviceID] = device
	return device
}

// UpdateDeviceLastSeen records that deviceID answered at host just now
func (p *Profile) UpdateDeviceLastSeen(deviceID, host string) {
	device := p.EnsureDevice(deviceID)
	device.LastSeen = time.Now()
	device.LastHost = host
}

// SetDeviceNickname sets a user-friendly nickname for a device
func (p *Profile) SetDeviceNickname(deviceID, nickname string) {
	p.EnsureDevice(deviceID).Nickname = nickname
}

// SetBlindLabel sets or replaces the label of a blind. An empty label
// removes the entry.
func (p *Profile) SetBlindLabel(deviceID, blindID, label, room string) {
	device := p.EnsureDevice(deviceID)
	if device.Blinds == nil {
		device.Blinds = make(map[string]*BlindMeta)
	}

	if label == "" {
		delete(device.Blinds, blindID)
		return
	}
	device.Blinds[blindID] = &BlindMeta{Label: label, Room: room}
}

// BlindLabels returns blind_id -> label for a device; nil if unknown
func (p *Profile) BlindLabels(deviceID string) map[string]string {
	device := p.GetDevice(deviceID)
	if device == nil || len(device.Blinds) == 0 {
		return nil
	}

	labels := make(map[string]string, len(device.Blinds))
	for id, meta := range device.Blinds {
		labels[id] = meta.Label
	}
	return labels
}
