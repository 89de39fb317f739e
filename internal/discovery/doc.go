// Package discovery locates EleroPi controllers with multicast DNS.
//
// The controller runs on a Raspberry Pi and is reachable as
// raspberrypi.local or eleropi.local. On hosts whose system resolver does
// not handle .local names, browsing mDNS directly is the only way to find
// it, so Scanner implements eleroapi.Resolver and can be dropped into
// eleroapi.Config.Resolver.
//
// # Usage Example
//
//	scanner := discovery.NewScanner(logger)
//	devices, err := scanner.Scan(ctx)
//	if err != nil {
//	    return err
//	}
//	for _, d := range devices {
//	    fmt.Println(d)
//	}
//
// A browsed entry is treated as a controller when its hostname is one of
// Scanner.Candidates or its instance name mentions "elero".
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Controller must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
