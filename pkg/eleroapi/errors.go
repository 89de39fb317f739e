package eleroapi

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// Kind is the category of an EleroPi client error
type Kind int

const (
	// KindNoDeviceAvailable indicates autodiscovery found no responding hostname
	KindNoDeviceAvailable Kind = iota
	// KindRequest indicates the request completed but the result is unusable
	// (non-200 status, undecodable payload, or a failed post-condition)
	KindRequest
	// KindAPI indicates a connection-level failure (DNS, refused, reset, timeout)
	KindAPI
)

// String returns a human-readable name for the kind
func (k Kind) String() string {
	switch k {
	case KindNoDeviceAvailable:
		return "No Device Available"
	case KindRequest:
		return "Request Error"
	case KindAPI:
		return "API Error"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// NetworkSubtype gives a finer classification of KindAPI errors
type NetworkSubtype int

const (
	NetworkErrorGeneral NetworkSubtype = iota
	NetworkErrorTimeout
	NetworkErrorConnectionRefused
	NetworkErrorDNS
	NetworkErrorHostUnreachable
	NetworkErrorNetworkUnreachable
)

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrNoDeviceAvailable = &Error{Kind: KindNoDeviceAvailable}
	ErrRequest           = &Error{Kind: KindRequest}
	ErrAPI               = &Error{Kind: KindAPI}
)

// Error is the single error type returned by this package
type Error struct {
	Kind           Kind           // Category of error
	Message        string         // Human-readable message
	URL            string         // Request URL (KindRequest, KindAPI)
	StatusCode     int            // HTTP status (0 for post-condition failures)
	Body           any            // Decoded JSON or raw text of the response
	NetworkSubtype NetworkSubtype // Only meaningful for KindAPI
	Err            error          // Underlying error (if any)
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Body != nil {
		msg = fmt.Sprintf("%s: response: %v", msg, e.Body)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind, so the
// package sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.URL == ""
}

// NewNoDeviceAvailableError reports that no candidate hostname resolved
func NewNoDeviceAvailableError(candidates []string) *Error {
	return &Error{
		Kind:    KindNoDeviceAvailable,
		Message: fmt.Sprintf("can't find any device over the network (tried %s)", strings.Join(candidates, ", ")),
	}
}

// NewRequestError creates a post-condition or protocol failure without an HTTP status
func NewRequestError(message string) *Error {
	return &Error{
		Kind:    KindRequest,
		Message: message,
	}
}

// NewStatusError creates a KindRequest error for a non-200 response
func NewStatusError(rawURL string, statusCode int, body any) *Error {
	return &Error{
		Kind:       KindRequest,
		Message:    fmt.Sprintf("unexpected response from %s", rawURL),
		URL:        rawURL,
		StatusCode: statusCode,
		Body:       body,
	}
}

// NewAPIError classifies a transport failure for rawURL
func NewAPIError(rawURL string, err error) *Error {
	return &Error{
		Kind:           KindAPI,
		Message:        fmt.Sprintf("cannot connect to: %s", rawURL),
		URL:            rawURL,
		NetworkSubtype: classifyNetworkError(err),
		Err:            err,
	}
}

// classifyNetworkError picks the most specific subtype for a dial/transport error
func classifyNetworkError(err error) NetworkSubtype {
	if err == nil {
		return NetworkErrorGeneral
	}

	if os.IsTimeout(err) {
		return NetworkErrorTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return NetworkErrorDNS
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch {
		case errors.Is(opErr.Err, syscall.ECONNREFUSED):
			return NetworkErrorConnectionRefused
		case errors.Is(opErr.Err, syscall.EHOSTUNREACH):
			return NetworkErrorHostUnreachable
		case errors.Is(opErr.Err, syscall.ENETUNREACH):
			return NetworkErrorNetworkUnreachable
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != err {
		return classifyNetworkError(urlErr.Err)
	}

	return NetworkErrorGeneral
}

func kindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsNoDeviceAvailable checks if err is (or wraps) a KindNoDeviceAvailable error
func IsNoDeviceAvailable(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindNoDeviceAvailable
}

// IsRequestError checks if err is (or wraps) a KindRequest error
func IsRequestError(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindRequest
}

// IsAPIError checks if err is (or wraps) a KindAPI error
func IsAPIError(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindAPI
}

// TroubleshootingHint returns user-facing advice for an error
func TroubleshootingHint(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "An unexpected error occurred. Please try again."
	}

	switch e.Kind {
	case KindNoDeviceAvailable:
		return strings.Join([]string{
			"No EleroPi controller answered on the local network.",
			"Troubleshooting:",
			"  • Check that the controller is powered on",
			"  • Verify mDNS (.local) names resolve on this machine",
			"  • Pass --host with the controller's IP address instead",
		}, "\n")

	case KindAPI:
		hint := []string{"Could not reach the EleroPi controller."}
		switch e.NetworkSubtype {
		case NetworkErrorConnectionRefused:
			hint = append(hint, "The host answered but nothing listens on the API port.",
				"Troubleshooting:",
				"  • Is eleropi running over network?",
				"  • Verify the port (default 8000)")
		case NetworkErrorDNS:
			hint = append(hint, "The hostname did not resolve.",
				"Troubleshooting:",
				"  • Use the IP address instead of the hostname")
		case NetworkErrorTimeout:
			hint = append(hint, "The controller did not respond in time.",
				"Troubleshooting:",
				"  • Check that the controller is powered on")
		default:
			hint = append(hint, "Troubleshooting:",
				"  • Check your network connection",
				"  • Ensure you are on the same network as the controller")
		}
		return strings.Join(hint, "\n")

	case KindRequest:
		switch {
		case e.StatusCode == 401 || e.StatusCode == 403:
			return "The controller rejected the credentials. Check username and password."
		case e.StatusCode == 404:
			return "The controller does not know this resource. Check the blind id."
		case e.StatusCode >= 500:
			return fmt.Sprintf("The controller returned an internal error (HTTP %d). Try restarting eleropi.", e.StatusCode)
		case e.StatusCode != 0:
			return fmt.Sprintf("The controller returned HTTP %d. Check the request parameters.", e.StatusCode)
		}
		return "The controller did not reach the requested state. Try again."

	default:
		return "An error occurred. Please check the error message for details."
	}
}

// ShortMessage returns a concise, user-friendly error message
func ShortMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}

	switch e.Kind {
	case KindNoDeviceAvailable:
		return "No device found on the network"
	case KindAPI:
		switch e.NetworkSubtype {
		case NetworkErrorTimeout:
			return "Controller not responding (timeout)"
		case NetworkErrorConnectionRefused:
			return "Controller refused connection - is eleropi running?"
		case NetworkErrorDNS:
			return "Cannot resolve controller hostname"
		default:
			return "Network error - check connection"
		}
	case KindRequest:
		if e.StatusCode != 0 {
			return fmt.Sprintf("Controller error (HTTP %d)", e.StatusCode)
		}
		return e.Message
	default:
		return e.Message
	}
}
