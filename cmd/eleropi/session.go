package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/eleropi/eleropi-go/internal/config"
	"github.com/eleropi/eleropi-go/internal/discovery"
	"github.com/eleropi/eleropi-go/internal/logging"
	"github.com/eleropi/eleropi-go/pkg/eleroapi"
)

var errNoUsername = errors.New("no username: pass --username or set one with 'eleropi config init --username'")

// connection is the effective set of connection settings after merging the
// profile with flags given on the command line
type connection struct {
	Host           string
	Autodiscover   bool
	Local          bool
	Port           int
	Username       string
	MDNS           bool
	MDNSTimeout    time.Duration
	RequestTimeout time.Duration
}

// resolveConnection merges profile defaults with the flags the user set.
// An explicit host or --local turns autodiscovery off unless --autodiscover
// was also given.
func (o *globalOptions) resolveConnection(cmd *cobra.Command) (connection, error) {
	merged := *o.profile.Connection
	o.applyFlagDefaults(cmd, &merged)
	if err := config.FormatValidationErrors(config.ValidateConnection(&merged)); err != nil {
		return connection{}, err
	}

	conn := connection{
		Host:           merged.Host,
		Autodiscover:   merged.Autodiscover,
		Local:          merged.Local,
		Port:           merged.Port,
		Username:       merged.Username,
		MDNS:           merged.MDNS,
		MDNSTimeout:    time.Duration(merged.MDNSTimeout) * time.Second,
		RequestTimeout: time.Duration(merged.RequestTimeout) * time.Second,
	}

	if conn.Port == 0 {
		conn.Port = eleroapi.DefaultPort
	}
	if conn.MDNSTimeout <= 0 {
		conn.MDNSTimeout = discovery.DefaultScanTimeout
	}

	if !conn.Autodiscover && !conn.Local && conn.Host == "" {
		return conn, errors.New("no controller host: pass --host, --local or --autodiscover")
	}

	return conn, nil
}

// applyFlagDefaults copies connection flags the user set into conn.
// The password is never copied.
func (o *globalOptions) applyFlagDefaults(cmd *cobra.Command, conn *config.Connection) {
	changed := cmd.Flags().Changed
	if changed("host") {
		conn.Host = o.host
		if !changed("autodiscover") {
			conn.Autodiscover = false
		}
	}
	if changed("autodiscover") {
		conn.Autodiscover = o.autodiscover
	}
	if changed("local") {
		conn.Local = o.local
		if o.local && !changed("autodiscover") {
			conn.Autodiscover = false
		}
	}
	if changed("port") {
		conn.Port = o.port
	}
	if changed("username") {
		conn.Username = o.username
	}
	if changed("mdns") {
		conn.MDNS = o.mdns
	}
}

// resolver returns the name resolver autodiscovery uses
func (c connection) resolver(logger *zap.Logger) eleroapi.Resolver {
	if !c.MDNS {
		return eleroapi.DNSResolver{}
	}
	scanner := discovery.NewScanner(logger)
	scanner.Timeout = c.MDNSTimeout
	return scanner
}

// apiConfig builds the library configuration for conn
func (c connection) apiConfig(username, password string) eleroapi.Config {
	logger := logging.GetLogger()
	return eleroapi.Config{
		Username:      username,
		Password:      password,
		Host:          c.Host,
		Autodiscovery: c.Autodiscover,
		Local:         c.Local,
		Port:          c.Port,
		Resolver:      c.resolver(logger),
		HTTPClient:    logging.HTTPClient(c.RequestTimeout),
		Logger:        logger,
	}
}

// passwordSource supplies the password when neither the flag nor the
// environment has one
type passwordSource func() (string, error)

// resolvePassword picks the password from the flag, then the environment,
// then prompt. A nil prompt means no interactive input is possible.
func resolvePassword(flagValue string, prompt passwordSource) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv(PasswordEnvVar); env != "" {
		return env, nil
	}
	if prompt == nil {
		return "", fmt.Errorf("no password: pass --password or set %s", PasswordEnvVar)
	}
	return prompt()
}

// terminalPrompt reads a password from the terminal without echo. It returns
// nil when stdin is not a terminal.
func terminalPrompt(out io.Writer, username string) passwordSource {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}
	return func() (string, error) {
		fmt.Fprintf(out, "Password for %s: ", username)
		data, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
}

// credentials returns username and password for an authenticated command
func (o *globalOptions) credentials(cmd *cobra.Command, conn connection) (string, string, error) {
	if conn.Username == "" {
		return "", "", errNoUsername
	}
	password, err := resolvePassword(o.password, terminalPrompt(cmd.ErrOrStderr(), conn.Username))
	if err != nil {
		return "", "", err
	}
	return conn.Username, password, nil
}

// connect resolves the controller, pings it and logs in
func (o *globalOptions) connect(ctx context.Context, cmd *cobra.Command) (*eleroapi.Client, error) {
	conn, err := o.resolveConnection(cmd)
	if err != nil {
		return nil, err
	}
	username, password, err := o.credentials(cmd, conn)
	if err != nil {
		return nil, err
	}

	client, err := eleroapi.New(ctx, conn.apiConfig(username, password))
	if err != nil {
		return nil, err
	}

	o.rememberDevice(client.DeviceID, client.Host)
	return client, nil
}

// rememberDevice records when and where a controller last answered.
// Failing to save the profile is not fatal to the command.
func (o *globalOptions) rememberDevice(deviceID, host string) {
	if deviceID == "" {
		return
	}
	if host == "" {
		host = "localhost"
	}
	o.profile.UpdateDeviceLastSeen(deviceID, host)
	o.saveProfile()
}

func (o *globalOptions) saveProfile() {
	if err := o.profile.Save(o.configPath); err != nil {
		logging.Warn("Failed to save profile", zap.String("path", o.configPath), zap.Error(err))
	}
}

// labelsFor returns the profile's blind labels for a controller
func (o *globalOptions) labelsFor(deviceID string) map[string]string {
	return o.profile.BlindLabels(deviceID)
}

// deviceName returns the nickname stored for a controller, else its id
func (o *globalOptions) deviceName(deviceID string) string {
	if d := o.profile.GetDevice(deviceID); d != nil && d.Nickname != "" {
		return d.Nickname
	}
	return deviceID
}

// knownDeviceID picks the controller a profile-only command applies to:
// the given id, or the only controller in the profile
func knownDeviceID(profile *config.Profile, given string) (string, error) {
	if given != "" {
		return given, nil
	}
	switch len(profile.Devices) {
	case 0:
		return "", errors.New("no controllers in the profile yet: run 'eleropi ping' first or pass --device")
	case 1:
		for id := range profile.Devices {
			return id, nil
		}
	}
	return "", errors.New("several controllers in the profile: pass --device")
}
