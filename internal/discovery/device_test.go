package discovery

import (
	"testing"
)

func TestDevice_Host(t *testing.T) {
	tests := []struct {
		hostname string
		want     string
	}{
		{"eleropi.local.", "eleropi.local"},
		{"eleropi.local", "eleropi.local"},
		{"RaspberryPi.local.", "raspberrypi.local"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.hostname, func(t *testing.T) {
			d := &Device{Hostname: tt.hostname}
			if got := d.Host(); got != tt.want {
				t.Errorf("Device.Host() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDevice_String(t *testing.T) {
	device := &Device{
		Hostname: "eleropi.local.",
		IP:       "192.168.1.40",
		Port:     8000,
	}

	expected := "EleroPi controller eleropi.local at 192.168.1.40:8000"
	if device.String() != expected {
		t.Errorf("Device.String() = %v, want %v", device.String(), expected)
	}
}

func TestDevice_BaseURL(t *testing.T) {
	tests := []struct {
		name     string
		device   *Device
		expected string
	}{
		{
			name:     "ipv4",
			device:   &Device{IP: "192.168.1.40", Port: 8000},
			expected: "http://192.168.1.40:8000",
		},
		{
			name:     "custom port",
			device:   &Device{IP: "10.0.0.5", Port: 8080},
			expected: "http://10.0.0.5:8080",
		},
		{
			name:     "ipv6",
			device:   &Device{IP: "fe80::1", Port: 8000},
			expected: "http://[fe80::1]:8000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.device.BaseURL(); got != tt.expected {
				t.Errorf("Device.BaseURL() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDevice_GetMetadata(t *testing.T) {
	device := &Device{Metadata: map[string]string{"path": "/", "version": "1.2"}}

	if got := device.GetMetadata("version"); got != "1.2" {
		t.Errorf("GetMetadata(version) = %q, want 1.2", got)
	}
	if got := device.GetMetadata("missing"); got != "" {
		t.Errorf("GetMetadata(missing) = %q, want empty", got)
	}
	if got := (&Device{}).GetMetadata("anything"); got != "" {
		t.Errorf("GetMetadata() with nil map = %q, want empty", got)
	}
}
