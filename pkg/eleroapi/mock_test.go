package eleroapi

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

const (
	testUsername = "ha_user@local.dns"
	testPassword = "ha_user"
	testToken    = "tok1"
	testDeviceID = "abc123"
)

// recordedRequest is what the mock controller saw for one call
type recordedRequest struct {
	Method      string
	Path        string
	Host        string
	AuthHeader  string
	ContentType string
	Form        map[string]string
}

// mockController emulates the EleroPi API with in-memory state
type mockController struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	requests []recordedRequest

	discoveryActive bool
	// stuckDiscovery makes PUT /blinds/indiscovery report the unchanged flag
	stuckDiscovery bool
	blinds         []map[string]any
	// failures maps "METHOD /path" to a status and body to answer with
	failures map[string]mockFailure
}

type mockFailure struct {
	status int
	body   string
}

func newMockController(t *testing.T) *mockController {
	t.Helper()
	m := &mockController{
		t: t,
		blinds: []map[string]any{
			{"blind_id": "b1"},
			{"blind_id": "b2"},
		},
		failures: make(map[string]mockFailure),
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.handle))
	t.Cleanup(m.server.Close)
	return m
}

func (m *mockController) fail(method, path string, status int, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[method+" "+path] = mockFailure{status: status, body: body}
}

func (m *mockController) handle(w http.ResponseWriter, r *http.Request) {
	rec := recordedRequest{
		Method:      r.Method,
		Path:        r.URL.Path,
		Host:        r.Host,
		AuthHeader:  r.Header.Get(AuthHeader),
		ContentType: r.Header.Get("Content-Type"),
	}
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err == nil {
			rec.Form = map[string]string{}
			for key := range r.PostForm {
				rec.Form[key] = r.PostForm.Get(key)
			}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, rec)

	if f, ok := m.failures[r.Method+" "+r.URL.Path]; ok {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(f.body))
		return
	}

	// Everything except ping and login needs the token
	if r.URL.Path != PathPing && r.URL.Path != PathLogin && rec.AuthHeader != testToken {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Not authenticated"}`))
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == PathPing:
		m.writeJSON(w, map[string]any{"device_unique_id": testDeviceID})

	case r.Method == http.MethodPost && r.URL.Path == PathLogin:
		if rec.Form["username"] != testUsername || rec.Form["password"] != testPassword {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Incorrect username or password"}`))
			return
		}
		m.writeJSON(w, map[string]any{"access_token": testToken, "token_type": "bearer"})

	case r.Method == http.MethodGet && r.URL.Path == PathBlinds:
		m.writeJSON(w, map[string]any{"blinds": m.blinds})

	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, PathBlinds+"/"):
		id := strings.TrimPrefix(r.URL.Path, PathBlinds+"/")
		for _, b := range m.blinds {
			if b["blind_id"] == id {
				m.writeJSON(w, map[string]any{"blind": b})
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Blind not found"}`))

	case r.Method == http.MethodGet && r.URL.Path == PathDiscovery:
		m.writeJSON(w, map[string]any{"discovery_active": m.discoveryActive})

	case r.Method == http.MethodPut && r.URL.Path == PathDiscovery:
		if !m.stuckDiscovery {
			m.discoveryActive = !m.discoveryActive
		}
		m.writeJSON(w, map[string]any{"discovery_active": m.discoveryActive})

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (m *mockController) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		m.t.Errorf("encode mock response: %v", err)
	}
}

// setDiscovery sets the discovery flag and whether PUT is able to change it
func (m *mockController) setDiscovery(active, stuck bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.discoveryActive = active
	m.stuckDiscovery = stuck
}

// active returns the current discovery flag
func (m *mockController) active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.discoveryActive
}

// addBlind appends a blind record to the listing
func (m *mockController) addBlind(b map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blinds = append(m.blinds, b)
}

// recorded returns a copy of the requests seen so far
func (m *mockController) recorded() []recordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]recordedRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// reset forgets recorded requests
func (m *mockController) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
}

// httpClient dials the mock server whatever host:port the URL names, so
// clients can keep their real base URL (e.g. http://localhost:8000).
func (m *mockController) httpClient() *http.Client {
	addr := m.server.Listener.Addr().String()
	return &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, network, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, network, addr)
			},
		},
	}
}

// config returns a Config pointed at the mock with valid credentials
func (m *mockController) config() Config {
	return Config{
		Username:   testUsername,
		Password:   testPassword,
		Host:       "eleropi.test",
		HTTPClient: m.httpClient(),
	}
}

// roundTripperFunc lets tests observe or forbid HTTP traffic
type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
