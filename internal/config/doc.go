// Package config manages the eleropi CLI profile.
//
// The profile is a YAML file holding defaults for the global flags (host,
// username, autodiscovery, port, mDNS) and a map of controllers the CLI has
// talked to, keyed by their device_unique_id. Each entry keeps a nickname,
// the last host it answered on, when, and user labels for its blinds.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/eleropi/config.yaml or $HOME/.config/eleropi/config.yaml
//   - macOS: $HOME/.config/eleropi/config.yaml
//   - Windows: %LOCALAPPDATA%\eleropi\config.yaml
//
// The CLI accepts --config to point elsewhere.
//
// # Security
//
// Passwords and access tokens are NEVER written to the profile.
//
// # Usage Example
//
//	path, _ := config.GetConfigPath()
//	profile, err := config.Load(path)
//	if err != nil {
//	    return err
//	}
//	profile.SetBlindLabel(client.DeviceID, "b1", "Kitchen", "Ground floor")
//	if err := profile.Save(path); err != nil {
//	    return err
//	}
//
// Save writes to a temporary file and renames it over the target.
package config
