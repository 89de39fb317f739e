package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eleropi/eleropi-go/internal/discovery"
	"github.com/eleropi/eleropi-go/internal/logging"
	"github.com/eleropi/eleropi-go/internal/ui"
	"github.com/eleropi/eleropi-go/internal/wizard/tui"
	"github.com/eleropi/eleropi-go/pkg/eleroapi"
)

type pairOptions struct {
	window time.Duration
	poll   time.Duration
	pick   bool
}

func newPairCmd(opts *globalOptions) *cobra.Command {
	pairOpts := &pairOptions{}

	pairCmd := &cobra.Command{
		Use:   "pair",
		Short: "Interactively pair new blinds",
		Long: `Launch an interactive session that switches discovery on, watches the
blind listing and shows blinds as they pair.

Put each blind's remote in pairing mode while the session runs. Discovery
is switched off when the window expires, when you press s, or when you quit.

With --pick the controller is chosen from an mDNS scan instead of the
connection flags.`,
		Example: `  # Pair using the profile's connection settings
  eleropi pair

  # Choose the controller from the network
  eleropi pair --pick

  # Keep discovery on for five minutes
  eleropi pair --window 5m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.runPair(cmd, pairOpts)
		},
	}

	pairCmd.Flags().DurationVar(&pairOpts.window, "window", tui.DefaultPairingWindow, "How long discovery stays on")
	pairCmd.Flags().DurationVar(&pairOpts.poll, "poll", tui.DefaultPollInterval, "How often the blind listing is refreshed")
	pairCmd.Flags().BoolVar(&pairOpts.pick, "pick", false, "Choose the controller from an mDNS scan")

	return pairCmd
}

func (o *globalOptions) runPair(cmd *cobra.Command, pairOpts *pairOptions) error {
	if o.format == formatJSON {
		return errors.New("pair is interactive and does not support --format json")
	}

	ctx := cmd.Context()
	conn, err := o.resolveConnection(cmd)
	if err != nil {
		return err
	}
	// credentials are collected before the alternate screen takes over
	username, password, err := o.credentials(cmd, conn)
	if err != nil {
		return err
	}

	appCfg := tui.AppConfig{
		Pairing: tui.PairingOptions{
			Window:       pairOpts.window,
			PollInterval: pairOpts.poll,
		},
	}

	if pairOpts.pick {
		scanner := discovery.NewScanner(logging.GetLogger())
		scanner.Timeout = conn.MDNSTimeout
		appCfg.Scan = scanner.Scan
		appCfg.Connect = func(ctx context.Context, d *discovery.Device) (tui.Controller, string, error) {
			picked := conn.forDevice(d)
			client, err := eleroapi.New(ctx, picked.apiConfig(username, password))
			if err != nil {
				return nil, "", err
			}
			return client, client.DeviceID, nil
		}
	} else {
		client, err := eleroapi.New(ctx, conn.apiConfig(username, password))
		if err != nil {
			return o.fail(cmd, "Cannot connect to controller", err)
		}
		appCfg.Controller = client
		appCfg.Pairing.DeviceID = client.DeviceID
		appCfg.Pairing.Host = client.Host
		appCfg.Pairing.Labels = o.labelsFor(client.DeviceID)
	}

	program := tea.NewProgram(tui.NewAppModel(ctx, appCfg), tea.WithAltScreen(), tea.WithContext(ctx))
	final, runErr := program.Run()
	return o.finishPairing(cmd, final, runErr)
}

// forDevice targets a device picked from an mDNS scan. The advertised port
// is only trusted when the entry is the EleroPi service itself.
func (c connection) forDevice(d *discovery.Device) connection {
	picked := c
	picked.Host = d.Host()
	if d.IsAPIService() {
		picked.Port = d.Port
	}
	picked.Autodiscover = false
	picked.Local = false
	return picked
}

// finishPairing reports the outcome of a session, including one cut short
// by a signal, so a possibly active discovery mode is never left unmentioned
func (o *globalOptions) finishPairing(cmd *cobra.Command, final tea.Model, runErr error) error {
	app, ok := final.(tui.AppModel)
	if !ok {
		if runErr == nil {
			runErr = errors.New("session ended without a result")
		}
		return fmt.Errorf("pairing session error: %w", runErr)
	}

	result := app.Result()
	if runErr != nil {
		logging.Error("Pairing session aborted", zap.String("device_id", result.DeviceID), zap.Error(runErr))
		if result.Err == nil {
			result.Err = runErr
		}
	}
	logging.Info("Pairing session ended",
		zap.String("device_id", result.DeviceID),
		zap.Int("new_blinds", len(result.NewBlinds)),
		zap.Bool("discovery_stopped", result.Stopped),
	)
	if result.DeviceID != "" {
		o.rememberDevice(result.DeviceID, result.Host)
	}

	if err := o.reportPairing(cmd, result); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("pairing session error: %w", runErr)
	}
	return nil
}

// reportPairing prints what the session paired and warns if discovery may
// still be on
func (o *globalOptions) reportPairing(cmd *cobra.Command, result tui.PairingResult) error {
	p := ui.NewPrinter(cmd.OutOrStdout())

	if result.DeviceID == "" {
		if result.Err != nil {
			return o.fail(cmd, "No controller connected", result.Err)
		}
		p.PrintWarning("Pairing cancelled")
		return nil
	}

	if len(result.NewBlinds) > 0 {
		p.PrintSuccess(fmt.Sprintf("Paired %d new blind(s)", len(result.NewBlinds)),
			ui.Detail{Key: "Controller", Value: o.deviceName(result.DeviceID)},
		)
		p.Println(ui.RenderBlindTable(result.NewBlinds, o.labelsFor(result.DeviceID)))
		p.Println("Label them with: eleropi config label <blind-id> <label>")
	} else {
		p.PrintWarning("No new blinds paired",
			ui.Detail{Key: "Controller", Value: o.deviceName(result.DeviceID)},
			ui.Detail{Key: "Blinds known", Value: fmt.Sprint(len(result.Blinds))},
		)
	}

	if !result.Stopped {
		err := result.Err
		if err == nil {
			err = eleroapi.NewRequestError("discovery was not confirmed off")
		}
		return o.fail(cmd, "Discovery may still be active", fmt.Errorf("%w (run 'eleropi discovery stop')", err))
	}
	return nil
}
