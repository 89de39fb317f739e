package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eleropi/eleropi-go/internal/discovery"
	"github.com/eleropi/eleropi-go/internal/logging"
	"github.com/eleropi/eleropi-go/internal/ui"
	"github.com/eleropi/eleropi-go/pkg/eleroapi"
)

// reportedError is an error already shown to the user in a result box
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// fail renders err in a failure box (detailed format only) and returns it
// marked as reported so main does not print it twice
func (o *globalOptions) fail(cmd *cobra.Command, title string, err error) error {
	if o.format == formatJSON {
		return err
	}
	ui.NewPrinter(cmd.ErrOrStderr()).PrintError(title, err)
	return &reportedError{err: err}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newPingCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the controller answers",
		Long: `Resolve the controller and call its ping endpoint.

No credentials are needed. On success the controller's device id is
printed and remembered in the profile.`,
		Example: `  # Probe raspberrypi.local and eleropi.local
  eleropi ping

  # Specific controller
  eleropi ping --host 192.168.1.20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.runPing(cmd)
		},
	}
}

type pingOutput struct {
	DeviceID string `json:"device_id"`
	Host     string `json:"host"`
	BaseURL  string `json:"base_url"`
	Latency  string `json:"latency"`
}

func (o *globalOptions) runPing(cmd *cobra.Command) error {
	ctx := cmd.Context()
	conn, err := o.resolveConnection(cmd)
	if err != nil {
		return err
	}

	cfg := conn.apiConfig("", "")
	host := conn.Host
	if conn.Autodiscover {
		host, err = eleroapi.DiscoverHost(ctx, cfg.Resolver, nil, cfg.Logger)
		if err != nil {
			return o.fail(cmd, "Controller not found", err)
		}
	}

	client := eleroapi.NewUnauthenticated(host, cfg)
	start := time.Now()
	if err := client.Ping(ctx); err != nil {
		return o.fail(cmd, "Ping failed", err)
	}
	latency := time.Since(start).Round(time.Millisecond)

	o.rememberDevice(client.DeviceID, client.Host)

	out := pingOutput{
		DeviceID: client.DeviceID,
		Host:     client.Host,
		BaseURL:  client.BaseURL,
		Latency:  latency.String(),
	}
	if o.format == formatJSON {
		return writeJSON(cmd.OutOrStdout(), out)
	}

	ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Controller is up",
		ui.Detail{Key: "Device", Value: o.deviceName(out.DeviceID)},
		ui.Detail{Key: "Device ID", Value: out.DeviceID},
		ui.Detail{Key: "URL", Value: out.BaseURL},
		ui.Detail{Key: "Latency", Value: out.Latency},
	)
	return nil
}

func newBlindsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "blinds",
		Short: "List blinds paired with the controller",
		Long: `Log in and list every blind the controller knows.

Labels assigned with 'eleropi config label' are shown next to each blind.`,
		Example: `  eleropi blinds --username admin

  # JSON for scripting
  eleropi blinds --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.runBlinds(cmd)
		},
	}
}

type blindsOutput struct {
	DeviceID string            `json:"device_id"`
	Blinds   []eleroapi.Blind  `json:"blinds"`
	Labels   map[string]string `json:"labels,omitempty"`
}

func (o *globalOptions) runBlinds(cmd *cobra.Command) error {
	ctx := cmd.Context()
	client, err := o.connect(ctx, cmd)
	if err != nil {
		return o.fail(cmd, "Cannot connect to controller", err)
	}

	blinds, err := client.GetBlinds(ctx)
	if err != nil {
		return o.fail(cmd, "Failed to list blinds", err)
	}

	labels := o.labelsFor(client.DeviceID)
	if o.format == formatJSON {
		return writeJSON(cmd.OutOrStdout(), blindsOutput{DeviceID: client.DeviceID, Blinds: blinds, Labels: labels})
	}

	p := ui.NewPrinter(cmd.OutOrStdout())
	p.PrintHeader("Blinds", "eleropi blinds",
		ui.Detail{Key: "Controller", Value: o.deviceName(client.DeviceID)},
		ui.Detail{Key: "Host", Value: client.BaseURL},
	)
	p.Println(ui.RenderBlindTable(blinds, labels))
	p.Println(fmt.Sprintf("%d blind(s)", len(blinds)))
	return nil
}

func newBlindCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "blind <id>",
		Short:   "Show one blind",
		Example: `  eleropi blind 3`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.runBlind(cmd, args[0])
		},
	}
}

func (o *globalOptions) runBlind(cmd *cobra.Command, id string) error {
	ctx := cmd.Context()
	client, err := o.connect(ctx, cmd)
	if err != nil {
		return o.fail(cmd, "Cannot connect to controller", err)
	}

	blind, err := client.GetBlind(ctx, id)
	if err != nil {
		return o.fail(cmd, "Failed to fetch blind "+id, err)
	}

	if o.format == formatJSON {
		return writeJSON(cmd.OutOrStdout(), blind)
	}

	ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Blind "+id, blindDetails(blind, o.labelsFor(client.DeviceID))...)
	return nil
}

// blindDetails lists a blind's fields for a result box: label first, then
// every field the controller sent in key order
func blindDetails(b eleroapi.Blind, labels map[string]string) []ui.Detail {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	details := make([]ui.Detail, 0, len(keys)+1)
	if label := labels[b.ID()]; label != "" {
		details = append(details, ui.Detail{Key: "Label", Value: label})
	}
	for _, k := range keys {
		details = append(details, ui.Detail{Key: k, Value: formatField(b[k])})
	}
	return details
}

func formatField(v any) string {
	switch t := v.(type) {
	case nil:
		return "-"
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	}
}

func newDiscoveryCmd(opts *globalOptions) *cobra.Command {
	discoveryCmd := &cobra.Command{
		Use:   "discovery",
		Short: "Read or switch the controller's discovery mode",
		Long: `While discovery mode is on the controller pairs blinds whose remote
is put in pairing mode. Use 'eleropi pair' for a guided session.`,
	}

	discoveryCmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Show whether discovery is active",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.runDiscovery(cmd, "status")
			},
		},
		&cobra.Command{
			Use:   "start",
			Short: "Switch discovery on",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.runDiscovery(cmd, "start")
			},
		},
		&cobra.Command{
			Use:   "stop",
			Short: "Switch discovery off",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.runDiscovery(cmd, "stop")
			},
		},
	)

	return discoveryCmd
}

type discoveryOutput struct {
	DeviceID        string `json:"device_id"`
	DiscoveryActive bool   `json:"discovery_active"`
}

func (o *globalOptions) runDiscovery(cmd *cobra.Command, action string) error {
	ctx := cmd.Context()
	client, err := o.connect(ctx, cmd)
	if err != nil {
		return o.fail(cmd, "Cannot connect to controller", err)
	}

	active, err := applyDiscovery(ctx, client, action)
	if err != nil {
		return o.fail(cmd, "Discovery "+action+" failed", err)
	}
	logging.Debug("Discovery command done", zap.String("action", action), zap.Bool("active", active))

	if o.format == formatJSON {
		return writeJSON(cmd.OutOrStdout(), discoveryOutput{DeviceID: client.DeviceID, DiscoveryActive: active})
	}

	state := "inactive"
	if active {
		state = "active"
	}
	ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Discovery "+state,
		ui.Detail{Key: "Controller", Value: o.deviceName(client.DeviceID)},
	)
	return nil
}

// discoveryController is the part of eleroapi.Client the discovery command uses
type discoveryController interface {
	DiscoveryActive(ctx context.Context) (bool, error)
	StartDiscovery(ctx context.Context) error
	StopDiscovery(ctx context.Context) error
}

// applyDiscovery performs action and returns the resulting discovery state
func applyDiscovery(ctx context.Context, c discoveryController, action string) (bool, error) {
	switch action {
	case "status":
		return c.DiscoveryActive(ctx)
	case "start":
		return true, c.StartDiscovery(ctx)
	case "stop":
		return false, c.StopDiscovery(ctx)
	}
	return false, fmt.Errorf("unknown discovery action %q", action)
}

func newScanCmd(opts *globalOptions) *cobra.Command {
	var timeout int

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Browse mDNS for EleroPi controllers",
		Long: `Browse the local network with mDNS/DNS-SD and list every host that looks
like an EleroPi controller (raspberrypi.local, eleropi.local, or an
instance name containing "elero").`,
		Example: `  eleropi scan

  # Longer scan for slow networks
  eleropi scan --timeout 15`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.runScan(cmd, time.Duration(timeout)*time.Second)
		},
	}
	scanCmd.Flags().IntVar(&timeout, "timeout", int(discovery.DefaultScanTimeout/time.Second), "Scan timeout in seconds")
	return scanCmd
}

func (o *globalOptions) runScan(cmd *cobra.Command, timeout time.Duration) error {
	scanner := discovery.NewScanner(logging.GetLogger())
	if timeout > 0 {
		scanner.Timeout = timeout
	}

	p := ui.NewPrinter(cmd.OutOrStdout())
	if o.format != formatJSON {
		p.Println(fmt.Sprintf("Scanning for EleroPi controllers (timeout: %s)...", scanner.Timeout))
		p.Newline()
	}

	devices, err := scanner.Scan(cmd.Context())
	if err != nil {
		return o.fail(cmd, "Scan failed", err)
	}

	if o.format == formatJSON {
		return writeJSON(cmd.OutOrStdout(), devices)
	}

	if len(devices) == 0 {
		p.PrintWarning("No controllers found",
			ui.Detail{Key: "Hint", Value: "Check the Pi is on this network and UDP 5353 is open"},
			ui.Detail{Key: "Hint", Value: "Try a longer --timeout or pass --host"},
		)
		return nil
	}

	p.PrintTable(scanHeaders, scanRows(devices))
	p.Println(fmt.Sprintf("Found %d controller(s). Use 'eleropi ping --host <host>' to check one.", len(devices)))
	return nil
}

var scanHeaders = []string{"HOST", "ADDRESS", "INSTANCE", "VERSION"}

// scanRows renders scan results; VERSION comes from the TXT record
func scanRows(devices []*discovery.Device) [][]string {
	rows := make([][]string, 0, len(devices))
	for _, d := range devices {
		ver := d.GetMetadata("version")
		if ver == "" {
			ver = "-"
		}
		rows = append(rows, []string{d.Host(), fmt.Sprintf("%s:%d", d.IP, d.Port), d.Instance, ver})
	}
	return rows
}

// isReported reports whether err was already rendered by fail
func isReported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}
