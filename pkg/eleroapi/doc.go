// Package eleroapi is a client for the EleroPi blind controller's HTTP API.
//
// The controller listens on port 8000 of the local network. A Client pings
// it, exchanges a username and password for an access token, and then sends
// that token in the WWW-Authenticate header on every request.
//
// # Layers
//
//   - Transport performs one HTTP request with a JSON or form body and maps
//     the outcome to an *Error.
//   - Client builds endpoint URLs, owns the token and implements the blind
//     and discovery operations.
//   - LocalClient wraps Client for code running on the controller itself:
//     it always targets localhost and keeps the last blind listing.
//
// # Usage Example
//
//	client, err := eleroapi.New(ctx, eleroapi.Config{
//	    Username:      "ha_user@local.dns",
//	    Password:      "secret",
//	    Autodiscovery: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	blinds, err := client.GetBlinds(ctx)
//
// # Errors
//
// Every failure is an *Error whose Kind is one of KindNoDeviceAvailable,
// KindRequest or KindAPI. Use errors.Is with ErrNoDeviceAvailable, ErrRequest
// or ErrAPI, or the IsXxx helpers, to dispatch on the kind.
//
// Nothing is retried. A Client is not safe for concurrent use.
package eleroapi
