// Package logging provides structured logging for the eleropi CLI.
//
// The library in pkg/eleroapi takes a *zap.Logger explicitly; this package
// owns the process-wide logger the CLI builds and hands to it.
//
// # Log Levels
//
//   - Debug: HTTP exchanges, autodiscovery probes, mDNS entries
//   - Info: discovery mode changes
//   - Warn: profile problems that do not stop a command
//   - Error: connection failures
//
// # Configuration
//
// Logging is silent unless a level is given with --log-level or the
// ELEROPI_LOG_LEVEL environment variable:
//
//	if err := logging.Initialize(level); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// Output goes to stderr in zap's console format so stdout stays usable for
// --format json.
//
// # HTTP Logging
//
// HTTPClient wraps the default transport and logs each request and response
// at debug level. The WWW-Authenticate header carries the access token and is
// always redacted.
package logging
