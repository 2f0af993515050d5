package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigDirEnv overrides the settings directory location.
const ConfigDirEnv = "DEVCONTAINER_CONFIG_DIR"

// ConfigDir returns the directory holding settings.yaml,
// $DEVCONTAINER_CONFIG_DIR or ~/.config/devcontainer.
func ConfigDir() (string, error) {
	if dir := os.Getenv(ConfigDirEnv); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "devcontainer"), nil
}

// SettingsPath returns the path of the optional settings file.
func SettingsPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.yaml"), nil
}

// LogsDir returns the directory for rotated log files.
func LogsDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs"), nil
}
