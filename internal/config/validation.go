package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid marks every validation failure
var ErrInvalid = errors.New("invalid configuration")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// ValidateHost checks a controller hostname or IP address.
// Empty is allowed: it means autodiscovery or localhost.
func ValidateHost(host string) error {
	if host == "" {
		return nil
	}
	if len(host) > 253 {
		return invalid("host too long (max 253 chars): %d chars", len(host))
	}
	if strings.Contains(host, "://") {
		return invalid("host %q looks like a URL, give a name or address", host)
	}
	if strings.ContainsAny(host, " \t\n\r/") {
		return invalid("host %q contains whitespace or a slash", host)
	}
	return nil
}

// ValidatePort checks a port number. 0 means the API default.
func ValidatePort(port int) error {
	if port < 0 || port > 65535 {
		return invalid("port must be 1-65535, got %d", port)
	}
	return nil
}

// ValidateTimeout checks a timeout in seconds
func ValidateTimeout(name string, seconds int) error {
	if seconds < 0 {
		return invalid("%s must not be negative, got %d", name, seconds)
	}
	return nil
}

// ValidateConnection checks every field of c and returns all problems found
func ValidateConnection(c *Connection) []error {
	if c == nil {
		return nil
	}

	var errs []error
	if err := ValidateHost(c.Host); err != nil {
		errs = append(errs, err)
	}
	if err := ValidatePort(c.Port); err != nil {
		errs = append(errs, err)
	}
	if err := ValidateTimeout("mdns_timeout", c.MDNSTimeout); err != nil {
		errs = append(errs, err)
	}
	if err := ValidateTimeout("request_timeout", c.RequestTimeout); err != nil {
		errs = append(errs, err)
	}
	return errs
}

// FormatValidationErrors joins validation errors into one error, or nil
func FormatValidationErrors(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d configuration problems:", len(errs))
	for i, err := range errs {
		fmt.Fprintf(&sb, "\n  %d. %s", i+1, strings.TrimPrefix(err.Error(), ErrInvalid.Error()+": "))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, sb.String())
}
