package eleroapi

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"
	"testing"
)

// timeoutError satisfies net.Error with Timeout() == true
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassifyNetworkError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want NetworkSubtype
	}{
		{
			name: "timeout",
			err:  &url.Error{Op: "Get", URL: "http://eleropi.local:8000", Err: &net.OpError{Op: "dial", Net: "tcp", Err: timeoutError{}}},
			want: NetworkErrorTimeout,
		},
		{
			name: "connection refused",
			err:  &url.Error{Op: "Get", URL: "http://eleropi.local:8000", Err: &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}},
			want: NetworkErrorConnectionRefused,
		},
		{
			name: "dns",
			err:  &net.DNSError{Err: "no such host", Name: "eleropi.local", IsNotFound: true},
			want: NetworkErrorDNS,
		},
		{
			name: "host unreachable",
			err:  &net.OpError{Op: "dial", Net: "tcp", Err: syscall.EHOSTUNREACH},
			want: NetworkErrorHostUnreachable,
		},
		{
			name: "network unreachable",
			err:  &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ENETUNREACH},
			want: NetworkErrorNetworkUnreachable,
		},
		{
			name: "generic",
			err:  errors.New("connection reset by peer"),
			want: NetworkErrorGeneral,
		},
		{
			name: "nil",
			err:  nil,
			want: NetworkErrorGeneral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyNetworkError(tt.err); got != tt.want {
				t.Errorf("classifyNetworkError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindNoDeviceAvailable, "No Device Available"},
		{KindRequest, "Request Error"},
		{KindAPI, "API Error"},
		{Kind(42), "Kind(42)"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(tt.kind), got, tt.want)
		}
	}
}

func TestErrorPredicates(t *testing.T) {
	noDevice := NewNoDeviceAvailableError(DefaultCandidates)
	request := NewStatusError("http://localhost:8000/blinds/getblinds", 500, map[string]any{"detail": "x"})
	api := NewAPIError("http://localhost:8000/device/ping", syscall.ECONNREFUSED)

	tests := []struct {
		name         string
		err          error
		wantNoDevice bool
		wantRequest  bool
		wantAPI      bool
	}{
		{"no device", noDevice, true, false, false},
		{"request", request, false, true, false},
		{"api", api, false, false, true},
		{"wrapped request", fmt.Errorf("list blinds: %w", request), false, true, false},
		{"plain error", errors.New("other"), false, false, false},
		{"nil", nil, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNoDeviceAvailable(tt.err); got != tt.wantNoDevice {
				t.Errorf("IsNoDeviceAvailable() = %v, want %v", got, tt.wantNoDevice)
			}
			if got := IsRequestError(tt.err); got != tt.wantRequest {
				t.Errorf("IsRequestError() = %v, want %v", got, tt.wantRequest)
			}
			if got := IsAPIError(tt.err); got != tt.wantAPI {
				t.Errorf("IsAPIError() = %v, want %v", got, tt.wantAPI)
			}
			if got := errors.Is(tt.err, ErrNoDeviceAvailable); got != tt.wantNoDevice {
				t.Errorf("errors.Is(ErrNoDeviceAvailable) = %v, want %v", got, tt.wantNoDevice)
			}
			if got := errors.Is(tt.err, ErrRequest); got != tt.wantRequest {
				t.Errorf("errors.Is(ErrRequest) = %v, want %v", got, tt.wantRequest)
			}
			if got := errors.Is(tt.err, ErrAPI); got != tt.wantAPI {
				t.Errorf("errors.Is(ErrAPI) = %v, want %v", got, tt.wantAPI)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := NewStatusError("http://localhost:8000/blinds/getblinds", 500, map[string]any{"detail": "database locked"})
	msg := err.Error()

	for _, want := range []string{"Request Error", "status 500", "database locked"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, should contain %q", msg, want)
		}
	}

	apiErr := NewAPIError("http://eleropi.local:8000/device/ping", syscall.ECONNREFUSED)
	if !strings.Contains(apiErr.Error(), "cannot connect to: http://eleropi.local:8000/device/ping") {
		t.Errorf("Error() = %q, should name the URL", apiErr.Error())
	}
	if !errors.Is(apiErr, syscall.ECONNREFUSED) {
		t.Error("APIError should unwrap to its cause")
	}
}

func TestTroubleshootingHint(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"no device", NewNoDeviceAvailableError(DefaultCandidates), "--host"},
		{"refused", &Error{Kind: KindAPI, NetworkSubtype: NetworkErrorConnectionRefused}, "Is eleropi running over network?"},
		{"dns", &Error{Kind: KindAPI, NetworkSubtype: NetworkErrorDNS}, "IP address"},
		{"unauthorized", &Error{Kind: KindRequest, StatusCode: 401}, "credentials"},
		{"not found", &Error{Kind: KindRequest, StatusCode: 404}, "blind id"},
		{"server error", &Error{Kind: KindRequest, StatusCode: 500}, "HTTP 500"},
		{"post-condition", NewRequestError("cannot put device in discovery"), "requested state"},
		{"foreign error", errors.New("boom"), "unexpected error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TroubleshootingHint(tt.err); !strings.Contains(got, tt.want) {
				t.Errorf("TroubleshootingHint() = %q, should contain %q", got, tt.want)
			}
		})
	}
}

func TestShortMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"no device", NewNoDeviceAvailableError(nil), "No device found on the network"},
		{"timeout", &Error{Kind: KindAPI, NetworkSubtype: NetworkErrorTimeout}, "Controller not responding (timeout)"},
		{"status", &Error{Kind: KindRequest, StatusCode: 503}, "Controller error (HTTP 503)"},
		{"post-condition", NewRequestError("failed putting device in stop discovery"), "failed putting device in stop discovery"},
		{"foreign error", errors.New("boom"), "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShortMessage(tt.err); got != tt.want {
				t.Errorf("ShortMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
