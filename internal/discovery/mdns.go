package discovery

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/eleropi/eleropi-go/pkg/eleroapi"
)

const (
	// DefaultServiceType is the service the controller's web API is advertised under
	DefaultServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for device discovery
	DefaultScanTimeout = 5 * time.Second
)

// instancePattern matches service instances published by an EleroPi install
var instancePattern = regexp.MustCompile(`(?i)elero`)

// browseFunc starts an mDNS browse that delivers entries until ctx is done
type browseFunc func(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error

func zeroconfBrowse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("failed to create mDNS resolver: %w", err)
	}
	return resolver.Browse(ctx, service, domain, entries)
}

// Scanner browses mDNS for EleroPi controllers. A Scanner also satisfies
// eleroapi.Resolver, so it can replace the system resolver for autodiscovery
// on hosts without an mDNS-aware resolver.
type Scanner struct {
	// Timeout bounds every browse
	Timeout time.Duration

	// ServiceType is the mDNS service browsed for
	ServiceType string

	// Candidates are hostnames that identify a controller
	Candidates []string

	logger *zap.Logger
	browse browseFunc
}

var _ eleroapi.Resolver = (*Scanner)(nil)

// NewScanner creates a scanner with default settings. A nil logger is allowed.
func NewScanner(logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{
		Timeout:     DefaultScanTimeout,
		ServiceType: DefaultServiceType,
		Candidates:  eleroapi.DefaultCandidates,
		logger:      logger,
		browse:      zeroconfBrowse,
	}
}

// Scan collects every controller advertised before the timeout expires
func (s *Scanner) Scan(ctx context.Context) ([]*Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	done := make(chan struct{})
	devices := make([]*Device, 0)
	seen := make(map[string]int)

	go func() {
		defer close(done)
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				device := s.parseServiceEntry(entry)
				if device == nil || !s.isController(device) {
					continue
				}
				// a Pi may advertise several web services; keep the EleroPi one
				if i, ok := seen[device.Host()]; ok {
					if !devices[i].IsAPIService() && device.IsAPIService() {
						devices[i] = device
					}
					continue
				}
				seen[device.Host()] = len(devices)
				s.logger.Debug("Found controller", zap.String("host", device.Host()), zap.String("ip", device.IP))
				devices = append(devices, device)
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := s.browse(ctx, s.ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	<-done

	return devices, nil
}

// WaitForHost browses until host is advertised or the timeout expires
func (s *Scanner) WaitForHost(ctx context.Context, host string) (*Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	want := normalizeHost(host)
	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Device, 1)

	go func() {
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				device := s.parseServiceEntry(entry)
				if device != nil && device.Host() == want {
					found <- device
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := s.browse(ctx, s.ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case device := <-found:
		return device, nil
	case <-ctx.Done():
		select {
		case device := <-found:
			return device, nil
		default:
		}
		return nil, fmt.Errorf("host %s not advertised via mDNS within %s", host, s.Timeout)
	}
}

// Resolve reports whether host is currently advertised via mDNS
func (s *Scanner) Resolve(ctx context.Context, host string) error {
	_, err := s.WaitForHost(ctx, host)
	return err
}

func (s *Scanner) isController(d *Device) bool {
	for _, c := range s.Candidates {
		if normalizeHost(c) == d.Host() {
			return true
		}
	}
	return instancePattern.MatchString(d.Instance)
}

// parseServiceEntry converts a zeroconf service entry to a Device.
// Returns nil if the entry carries no hostname or address.
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Device {
	if entry == nil || entry.HostName == "" {
		return nil
	}

	// Prefer IPv4
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = eleroapi.DefaultPort
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		key, value, _ := strings.Cut(txt, "=")
		metadata[key] = value
	}

	return &Device{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}
