package eleroapi

import (
	"context"
	"net"

	"go.uber.org/zap"
)

// DefaultCandidates are the hostnames probed, in order, during autodiscovery
var DefaultCandidates = []string{"raspberrypi.local", "eleropi.local"}

// Resolver reports whether a hostname resolves on the local network.
// A nil error means the name resolved.
type Resolver interface {
	Resolve(ctx context.Context, host string) error
}

// ResolverFunc adapts a plain function to the Resolver interface
type ResolverFunc func(ctx context.Context, host string) error

// Resolve calls f(ctx, host)
func (f ResolverFunc) Resolve(ctx context.Context, host string) error {
	return f(ctx, host)
}

// DNSResolver resolves names through the system resolver, which handles
// .local names when the host runs an mDNS responder (avahi, Bonjour).
type DNSResolver struct {
	Resolver *net.Resolver
}

// Resolve succeeds if host has at least one address
func (r DNSResolver) Resolve(ctx context.Context, host string) error {
	resolver := r.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	addrs, err := resolver.LookupHost(ctx, host)
	if err != nil {
		return err
	}
	if len(addrs) == 0 {
		return &net.DNSError{Err: "no addresses", Name: host, IsNotFound: true}
	}
	return nil
}

// DiscoverHost returns the first candidate that resolver can resolve.
// Resolution is taken as "device available"; the host is not contacted.
func DiscoverHost(ctx context.Context, resolver Resolver, candidates []string, logger *zap.Logger) (string, error) {
	if resolver == nil {
		resolver = DNSResolver{}
	}
	if len(candidates) == 0 {
		candidates = DefaultCandidates
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, host := range candidates {
		if err := resolver.Resolve(ctx, host); err != nil {
			logger.Debug("Candidate host did not resolve",
				zap.String("host", host),
				zap.Error(err),
			)
			continue
		}
		logger.Debug("Discovered device host", zap.String("host", host))
		return host, nil
	}

	return "", NewNoDeviceAvailableError(candidates)
}
