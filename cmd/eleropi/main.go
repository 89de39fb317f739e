// Eleropi is an operator tool for EleroPi blind controllers.
//
// It talks to the EleroPi HTTP API: checks that a controller is up, lists
// paired blinds, toggles discovery mode and runs an interactive pairing
// session. Connection defaults and blind labels live in a YAML profile.
//
// Usage:
//
//	eleropi [command] [flags]
//
// See 'eleropi --help' for available commands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eleropi/eleropi-go/internal/config"
	"github.com/eleropi/eleropi-go/internal/logging"
	"github.com/eleropi/eleropi-go/internal/version"
)

// Output formats
const (
	formatDetailed = "detailed"
	formatJSON     = "json"
)

// PasswordEnvVar is read when --password is not given
const PasswordEnvVar = "ELEROPI_PASSWORD"

// globalOptions holds the persistent flags and the loaded profile
type globalOptions struct {
	configPath   string
	host         string
	autodiscover bool
	local        bool
	port         int
	username     string
	password     string
	mdns         bool
	logLevel     string
	format       string

	profile *config.Profile
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		if !isReported(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return newRootCmdFor(&globalOptions{})
}

// newRootCmdFor builds the command tree around opts
func newRootCmdFor(opts *globalOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "eleropi",
		Short: "EleroPi Blind Controller Utility",
		Long: `A command line utility for EleroPi blind controllers.

Checks that a controller is reachable, lists paired blinds, switches
discovery mode on and off, and runs an interactive pairing session.

The controller is found by probing raspberrypi.local and eleropi.local
unless --host or --local is given. Defaults for every connection flag can
be stored with 'eleropi config init'.`,
		Version:       version.Full(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.Sync()
		},
	}

	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Profile file (default ~/.config/eleropi/config.yaml)")
	flags.StringVar(&opts.host, "host", "", "Controller hostname or IP (disables autodiscovery)")
	flags.BoolVar(&opts.autodiscover, "autodiscover", true, "Probe raspberrypi.local and eleropi.local for the controller")
	flags.BoolVar(&opts.local, "local", false, "Talk to the controller on localhost (disables autodiscovery)")
	flags.IntVar(&opts.port, "port", 0, "Controller API port (default 8000)")
	flags.StringVar(&opts.username, "username", "", "API username")
	flags.StringVar(&opts.password, "password", "", "API password (else $"+PasswordEnvVar+", else prompt)")
	flags.BoolVar(&opts.mdns, "mdns", false, "Resolve candidate hosts by browsing mDNS instead of the system resolver")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (default $"+logging.LogLevelEnvVar+" or silent)")
	flags.StringVar(&opts.format, "format", formatDetailed, "Output format (detailed, json)")

	rootCmd.AddCommand(
		newPingCmd(opts),
		newBlindsCmd(opts),
		newBlindCmd(opts),
		newDiscoveryCmd(opts),
		newPairCmd(opts),
		newScanCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(opts),
	)

	return rootCmd
}

// setup initializes logging and loads the profile before any command runs
func (o *globalOptions) setup(cmd *cobra.Command) error {
	if err := logging.Initialize(o.logLevel); err != nil {
		return err
	}

	switch o.format {
	case formatDetailed, formatJSON:
	default:
		return fmt.Errorf("invalid --format %q (use detailed or json)", o.format)
	}

	if o.configPath == "" {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		o.configPath = path
	}

	profile, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	o.profile = profile

	logging.Debug("Profile loaded", zap.String("path", o.configPath))
	return nil
}

func newVersionCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), version.Get())
			}
			info := version.Get()
			fmt.Fprintf(cmd.OutOrStdout(), "eleropi %s (commit: %s, %s, %s)\n",
				info.Version, info.Commit, info.GoVersion, info.Platform)
			return nil
		},
	}
}
