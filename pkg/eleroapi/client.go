package eleroapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

const (
	// DefaultPort is the port the EleroPi API listens on
	DefaultPort = 8000

	// AuthHeader carries the raw access token (no "Bearer" prefix)
	AuthHeader = "WWW-Authenticate"
)

// API paths
const (
	PathPing      = "/device/ping"
	PathLogin     = "/users/token"
	PathBlinds    = "/blinds/getblinds"
	PathDiscovery = "/blinds/indiscovery"
)

// Config holds everything New needs to reach and authenticate with a controller
type Config struct {
	// Username and Password are exchanged for a token at construction
	Username string
	Password string

	// Host is used when Autodiscovery is false
	Host string

	// Autodiscovery probes Candidates with Resolver and uses the first that resolves
	Autodiscovery bool

	// Local forces the base URL to localhost regardless of Host or discovery
	Local bool

	// Port defaults to DefaultPort
	Port int

	// Resolver defaults to DNSResolver
	Resolver Resolver

	// Candidates defaults to DefaultCandidates
	Candidates []string

	// HTTPClient is shared by every request of this client
	HTTPClient *http.Client

	// Logger defaults to a no-op logger
	Logger *zap.Logger
}

// Client talks to one EleroPi controller. It is not safe for concurrent use.
type Client struct {
	Username string
	Password string
	Host     string
	BaseURL  string

	// DeviceID is the device_unique_id reported by the ping endpoint
	DeviceID string

	isAuthenticated bool
	token           string

	transport *Transport
	logger    *zap.Logger
}

type pingResponse struct {
	DeviceUniqueID *string `json:"device_unique_id"`
}

type loginResponse struct {
	AccessToken *string `json:"access_token"`
}

type blindsResponse struct {
	Blinds *[]Blind `json:"blinds"`
}

type blindResponse struct {
	Blind *Blind `json:"blind"`
}

type discoveryResponse struct {
	DiscoveryActive *bool `json:"discovery_active"`
}

// New resolves the host, pings the controller and logs in.
// Any failure along the way is returned and no client is produced.
func New(ctx context.Context, cfg Config) (*Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	host := cfg.Host
	if cfg.Autodiscovery {
		discovered, err := DiscoverHost(ctx, cfg.Resolver, cfg.Candidates, logger)
		if err != nil {
			return nil, err
		}
		host = discovered
	}

	c := NewUnauthenticated(host, cfg)
	if err := c.Ping(ctx); err != nil {
		return nil, err
	}
	if err := c.Login(ctx); err != nil {
		return nil, err
	}

	return c, nil
}

// NewUnauthenticated builds a client for host without contacting it.
// Callers must Ping and Login themselves.
func NewUnauthenticated(host string, cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}

	baseHost := host
	if cfg.Local {
		baseHost = "localhost"
	}

	return &Client{
		Username:  cfg.Username,
		Password:  cfg.Password,
		Host:      host,
		BaseURL:   fmt.Sprintf("http://%s:%d", baseHost, port),
		transport: NewTransport(cfg.HTTPClient, logger),
		logger:    logger,
	}
}

// IsAuthenticated reports whether Login has succeeded
func (c *Client) IsAuthenticated() bool {
	return c.isAuthenticated
}

// Token returns the access token obtained by Login, or "" before login
func (c *Client) Token() string {
	return c.token
}

// Ping checks the controller responds and records its DeviceID
func (c *Client) Ping(ctx context.Context) error {
	var resp pingResponse
	if err := c.do(ctx, http.MethodGet, PathPing, nil, EncodingJSON, &resp); err != nil {
		return err
	}
	if resp.DeviceUniqueID == nil {
		return NewRequestError("ping response is missing device_unique_id")
	}

	c.logger.Debug("Got ping response", zap.String("device_unique_id", *resp.DeviceUniqueID))
	c.DeviceID = *resp.DeviceUniqueID
	return nil
}

// Login exchanges the credentials for an access token.
// The body is form-encoded, which is what the controller expects.
func (c *Client) Login(ctx context.Context) error {
	form := url.Values{}
	form.Set("username", c.Username)
	form.Set("password", c.Password)

	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, PathLogin, form, EncodingForm, &resp); err != nil {
		return err
	}
	if resp.AccessToken == nil {
		return NewRequestError("login response is missing access_token")
	}

	c.logger.Debug("Got login response", zap.String("username", c.Username))
	c.token = *resp.AccessToken
	c.isAuthenticated = true
	return nil
}

// GetBlinds lists every blind known to the controller
func (c *Client) GetBlinds(ctx context.Context) ([]Blind, error) {
	var resp blindsResponse
	if err := c.do(ctx, http.MethodGet, PathBlinds, nil, EncodingJSON, &resp); err != nil {
		return nil, err
	}
	if resp.Blinds == nil {
		return nil, NewRequestError("blinds response is missing blinds")
	}
	return *resp.Blinds, nil
}

// GetBlind fetches a single blind by id
func (c *Client) GetBlind(ctx context.Context, id string) (Blind, error) {
	var resp blindResponse
	path := PathBlinds + "/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodGet, path, nil, EncodingJSON, &resp); err != nil {
		return nil, err
	}
	if resp.Blind == nil {
		return nil, NewRequestError(fmt.Sprintf("blind %s response is missing blind", id))
	}
	return *resp.Blind, nil
}

// DiscoveryActive reads the controller's discovery flag
func (c *Client) DiscoveryActive(ctx context.Context) (bool, error) {
	return c.discovery(ctx, http.MethodGet)
}

// StartDiscovery puts the controller in discovery mode.
// It is a no-op if discovery is already active.
func (c *Client) StartDiscovery(ctx context.Context) error {
	active, err := c.DiscoveryActive(ctx)
	if err != nil {
		return err
	}
	if active {
		return nil
	}

	active, err = c.discovery(ctx, http.MethodPut)
	if err != nil {
		return err
	}
	if !active {
		return NewRequestError("cannot put device in discovery")
	}
	c.logger.Info("Discovery started", zap.String("device_id", c.DeviceID))
	return nil
}

// StopDiscovery takes the controller out of discovery mode.
// It is a no-op if discovery is already inactive.
func (c *Client) StopDiscovery(ctx context.Context) error {
	active, err := c.DiscoveryActive(ctx)
	if err != nil {
		return err
	}
	if !active {
		return nil
	}

	active, err = c.discovery(ctx, http.MethodPut)
	if err != nil {
		return err
	}
	if active {
		return NewRequestError("failed putting device in stop discovery")
	}
	c.logger.Info("Discovery stopped", zap.String("device_id", c.DeviceID))
	return nil
}

// discovery reads (GET) or toggles (PUT) the discovery flag and returns its new value
func (c *Client) discovery(ctx context.Context, method string) (bool, error) {
	var resp discoveryResponse
	if err := c.do(ctx, method, PathDiscovery, nil, EncodingJSON, &resp); err != nil {
		return false, err
	}
	if resp.DiscoveryActive == nil {
		return false, NewRequestError("discovery response is missing discovery_active")
	}
	return *resp.DiscoveryActive, nil
}

// do sends one request to path, attaching the token once authenticated
func (c *Client) do(ctx context.Context, method, path string, body any, enc Encoding, dest any) error {
	header := http.Header{}
	if c.isAuthenticated {
		header.Set(AuthHeader, c.token)
	}

	return c.transport.Do(ctx, Request{
		Method:   method,
		URL:      c.BaseURL + path,
		Body:     body,
		Encoding: enc,
		Header:   header,
	}, dest)
}
