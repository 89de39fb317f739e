package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/eleropi/eleropi-go/internal/config"
	"github.com/eleropi/eleropi-go/internal/ui"
)

func newConfigCmd(opts *globalOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the eleropi profile",
		Long: `The profile stores connection defaults and what eleropi has learned
about controllers: nickname, last address, and labels for blinds.

Passwords and access tokens are never written to it.`,
	}

	configCmd.AddCommand(
		newConfigInitCmd(opts),
		newConfigShowCmd(opts),
		newConfigLabelCmd(opts),
		newConfigNicknameCmd(opts),
	)
	return configCmd
}

func newConfigInitCmd(opts *globalOptions) *cobra.Command {
	var force bool

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a profile with default settings",
		Long: `Write a new profile. Connection flags given on the command line are
stored as the new defaults.`,
		Example: `  # Defaults only
  eleropi config init

  # Remember the controller and user
  eleropi config init --host 192.168.1.20 --username admin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.runConfigInit(cmd, force)
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing profile without asking")
	return initCmd
}

func (o *globalOptions) runConfigInit(cmd *cobra.Command, force bool) error {
	profile, err := config.WriteDefault(o.configPath, force)
	if errors.Is(err, config.ErrExists) {
		if !ui.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("%s exists. Overwrite?", o.configPath)) {
			return nil
		}
		profile, err = config.WriteDefault(o.configPath, true)
	}
	if err != nil {
		return err
	}

	o.applyFlagDefaults(cmd, profile.Connection)
	if err := config.FormatValidationErrors(config.ValidateConnection(profile.Connection)); err != nil {
		return err
	}
	if err := profile.Save(o.configPath); err != nil {
		return err
	}
	o.profile = profile

	ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Profile written",
		ui.Detail{Key: "Path", Value: o.configPath},
	)
	return nil
}

func newConfigShowCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), opts.profile)
			}

			data, err := yaml.Marshal(opts.profile)
			if err != nil {
				return fmt.Errorf("failed to marshal profile: %w", err)
			}

			p := ui.NewPrinter(cmd.OutOrStdout())
			source := opts.configPath
			if _, err := os.Stat(opts.configPath); err != nil {
				source += " (not written yet, showing defaults)"
			}
			p.PrintHeader("Profile", "eleropi config show", ui.Detail{Key: "Path", Value: source})
			p.Println(string(data))
			return nil
		},
	}
}

func newConfigLabelCmd(opts *globalOptions) *cobra.Command {
	var deviceID, room string

	labelCmd := &cobra.Command{
		Use:   "label <blind-id> [label]",
		Short: "Name a blind",
		Long: `Store a label (and optionally a room) for a blind. Labels are kept in the
profile only; the controller is not changed. Omit the label to remove it.`,
		Example: `  eleropi config label 3 "Kitchen left" --room kitchen
  eleropi config label 3`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := knownDeviceID(opts.profile, deviceID)
			if err != nil {
				return err
			}
			label := ""
			if len(args) == 2 {
				label = args[1]
			}

			opts.profile.SetBlindLabel(id, args[0], label, room)
			if err := opts.profile.Save(opts.configPath); err != nil {
				return err
			}

			p := ui.NewPrinter(cmd.OutOrStdout())
			if label == "" {
				p.PrintSuccess("Label removed", ui.Detail{Key: "Blind", Value: args[0]})
				return nil
			}
			p.PrintSuccess("Label saved",
				ui.Detail{Key: "Controller", Value: opts.deviceName(id)},
				ui.Detail{Key: "Blind", Value: args[0]},
				ui.Detail{Key: "Label", Value: label},
			)
			return nil
		},
	}
	labelCmd.Flags().StringVar(&deviceID, "device", "", "Controller device id (default: the only one in the profile)")
	labelCmd.Flags().StringVar(&room, "room", "", "Room the blind is in")
	return labelCmd
}

func newConfigNicknameCmd(opts *globalOptions) *cobra.Command {
	var deviceID string

	nicknameCmd := &cobra.Command{
		Use:   "nickname <name>",
		Short: "Give a controller a friendly name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := knownDeviceID(opts.profile, deviceID)
			if err != nil {
				return err
			}
			opts.profile.SetDeviceNickname(id, args[0])
			if err := opts.profile.Save(opts.configPath); err != nil {
				return err
			}
			ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Nickname saved",
				ui.Detail{Key: "Device ID", Value: id},
				ui.Detail{Key: "Nickname", Value: args[0]},
			)
			return nil
		},
	}
	nicknameCmd.Flags().StringVar(&deviceID, "device", "", "Controller device id (default: the only one in the profile)")
	return nicknameCmd
}
