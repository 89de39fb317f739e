package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "eleropi"
	configFile = "config.yaml"
)

// fileMutex serializes writes within this process
var fileMutex sync.Mutex

// ErrExists is returned by WriteDefault when the file is already present
var ErrExists = errors.New("config file already exists")

// GetConfigDir returns the OS-appropriate configuration directory:
//   - Linux: $XDG_CONFIG_HOME/eleropi or $HOME/.config/eleropi
//   - macOS: $HOME/.config/eleropi
//   - Windows: %LOCALAPPDATA%\eleropi
func GetConfigDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData != "" {
			return filepath.Join(localAppData, appName), nil
		}
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
		}
		return filepath.Join(userProfile, "AppData", "Local", appName), nil

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", appName), nil

	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", appName), nil
	}
}

// GetConfigPath returns the full path to the default profile file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// Load reads the profile at path. A missing file yields NewProfile().
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewProfile(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if profile.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported config version: %d (expected %d)", profile.Version, CurrentVersion)
	}

	if profile.Devices == nil {
		profile.Devices = make(map[string]*Device)
	}
	if profile.Connection == nil {
		profile.Connection = defaultConnection()
	}
	if err := FormatValidationErrors(ValidateConnection(profile.Connection)); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	return &profile, nil
}

// Save writes the profile to path atomically
func (p *Profile) Save(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# eleropi CLI configuration
# Connection defaults and labels for known controllers.
#
# Passwords and access tokens are never stored here. Use --password,
# ELEROPI_PASSWORD or the interactive prompt.
#
# Location: ` + path + `

`)
	data = append(header, data...)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}

// WriteDefault writes NewProfile() to path. Without overwrite an existing
// file is left alone and ErrExists is returned.
func WriteDefault(path string, overwrite bool) (*Profile, error) {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return nil, fmt.Errorf("%w: %s", ErrExists, path)
		}
	}

	profile := NewProfile()
	if err := profile.Save(path); err != nil {
		return nil, err
	}
	return profile, nil
}
