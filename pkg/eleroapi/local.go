package eleroapi

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

// LocalClient is the simple entry point for code running on the controller
// itself: it always talks to localhost and keeps the last blind listing.
type LocalClient struct {
	api *Client

	// DeviceID is the controller's device_unique_id
	DeviceID string

	// Blinds is the result of the most recent successful Update
	Blinds []Blind
}

// Option adjusts how NewLocal builds its underlying Client
type Option func(*Config)

// WithHTTPClient sets the http.Client used for every request
func WithHTTPClient(client *http.Client) Option {
	return func(cfg *Config) {
		cfg.HTTPClient = client
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *Config) {
		cfg.Logger = logger
	}
}

// WithPort overrides DefaultPort
func WithPort(port int) Option {
	return func(cfg *Config) {
		cfg.Port = port
	}
}

// NewLocal connects to the controller on localhost, logs in and loads the blinds
func NewLocal(ctx context.Context, username, password string, opts ...Option) (*LocalClient, error) {
	cfg := Config{
		Username: username,
		Password: password,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.Local = true
	cfg.Autodiscovery = false

	api, err := New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	lc := &LocalClient{
		api:      api,
		DeviceID: api.DeviceID,
	}
	if err := lc.Update(ctx); err != nil {
		return nil, err
	}
	return lc, nil
}

// API returns the underlying Client
func (l *LocalClient) API() *Client {
	return l.api
}

// Update replaces Blinds with a fresh listing. On error Blinds is unchanged.
func (l *LocalClient) Update(ctx context.Context) error {
	blinds, err := l.api.GetBlinds(ctx)
	if err != nil {
		return err
	}
	l.Blinds = blinds
	return nil
}

// StartDiscovery puts the controller in discovery mode
func (l *LocalClient) StartDiscovery(ctx context.Context) error {
	return l.api.StartDiscovery(ctx)
}

// StopDiscovery takes the controller out of discovery mode
func (l *LocalClient) StopDiscovery(ctx context.Context) error {
	return l.api.StopDiscovery(ctx)
}

// GetBlind fetches one blind; the result is not cached
func (l *LocalClient) GetBlind(ctx context.Context, id string) (Blind, error) {
	return l.api.GetBlind(ctx, id)
}
