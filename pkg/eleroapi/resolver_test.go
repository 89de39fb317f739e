package eleroapi

import (
	"context"
	"errors"
	"net"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDiscoverHost(t *testing.T) {
	notFound := func(host string) error {
		return &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
	}

	tests := []struct {
		name       string
		candidates []string
		resolves   map[string]bool
		wantHost   string
		wantProbes []string
		wantErr    bool
	}{
		{
			name:       "default candidates, first wins",
			resolves:   map[string]bool{"raspberrypi.local": true, "eleropi.local": true},
			wantHost:   "raspberrypi.local",
			wantProbes: []string{"raspberrypi.local"},
		},
		{
			name:       "default candidates, fallback",
			resolves:   map[string]bool{"eleropi.local": true},
			wantHost:   "eleropi.local",
			wantProbes: []string{"raspberrypi.local", "eleropi.local"},
		},
		{
			name:       "default candidates, none",
			resolves:   map[string]bool{},
			wantProbes: []string{"raspberrypi.local", "eleropi.local"},
			wantErr:    true,
		},
		{
			name:       "custom candidates",
			candidates: []string{"blinds.local"},
			resolves:   map[string]bool{"blinds.local": true},
			wantHost:   "blinds.local",
			wantProbes: []string{"blinds.local"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var probes []string
			resolver := ResolverFunc(func(_ context.Context, host string) error {
				probes = append(probes, host)
				if tt.resolves[host] {
					return nil
				}
				return notFound(host)
			})

			host, err := DiscoverHost(context.Background(), resolver, tt.candidates, nil)

			if tt.wantErr {
				if !IsNoDeviceAvailable(err) {
					t.Errorf("DiscoverHost() error = %v, want NoDeviceAvailable", err)
				}
			} else if err != nil {
				t.Fatalf("DiscoverHost() error = %v", err)
			}
			if host != tt.wantHost {
				t.Errorf("DiscoverHost() = %q, want %q", host, tt.wantHost)
			}
			if len(probes) != len(tt.wantProbes) {
				t.Fatalf("probes = %v, want %v", probes, tt.wantProbes)
			}
			for i := range probes {
				if probes[i] != tt.wantProbes[i] {
					t.Errorf("probe %d = %q, want %q", i, probes[i], tt.wantProbes[i])
				}
			}
		})
	}
}

func TestDiscoverHost_LogsMisses(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	resolver := ResolverFunc(func(_ context.Context, host string) error {
		return errors.New("unresolvable")
	})

	_, err := DiscoverHost(context.Background(), resolver, nil, zap.New(core))
	if !IsNoDeviceAvailable(err) {
		t.Fatalf("DiscoverHost() error = %v, want NoDeviceAvailable", err)
	}
	if n := logs.FilterMessage("Candidate host did not resolve").Len(); n != 2 {
		t.Errorf("logged %d misses, want 2", n)
	}
}

func TestDNSResolver_Localhost(t *testing.T) {
	if err := (DNSResolver{}).Resolve(context.Background(), "localhost"); err != nil {
		t.Errorf("Resolve(localhost) error = %v", err)
	}
}

func TestDNSResolver_InvalidName(t *testing.T) {
	// .invalid is reserved and never resolves
	if err := (DNSResolver{}).Resolve(context.Background(), "eleropi.invalid"); err == nil {
		t.Error("Resolve(eleropi.invalid) error = nil, want failure")
	}
}
