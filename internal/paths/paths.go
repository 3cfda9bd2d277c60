// Package paths decides where healthvault keeps its configuration and its
// database. Explicit flags win, then configuration, then environment
// overrides, then the per-platform default.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// Environment overrides honored by every command.
const (
	EnvConfigDir = "HEALTHVAULT_CONFIG_DIR"
	EnvDataDir   = "HEALTHVAULT_DATA_DIR"
)

// DefaultDataDirName is the database directory created under the working
// directory when nothing else names one.
const DefaultDataDirName = ".healthvault-db"

// appDir is the leaf directory claimed under the platform config and data
// roots.
const appDir = "healthvault"

// ResolveConfigDir picks the configuration directory: the --config-dir flag,
// then HEALTHVAULT_CONFIG_DIR, then the platform default. Explicit choices
// are made absolute.
func ResolveConfigDir(flag string) (string, error) {
	if dir := firstSet(flag, os.Getenv(EnvConfigDir)); dir != "" {
		return filepath.Abs(dir)
	}
	return DefaultConfigDir()
}

// ResolveDataDir picks the database directory: the --data-dir flag, then the
// data_dir value from config.yaml, then HEALTHVAULT_DATA_DIR, then
// DefaultDataDirName under the working directory.
func ResolveDataDir(flag, fromConfig string) (string, error) {
	if dir := firstSet(flag, fromConfig, os.Getenv(EnvDataDir)); dir != "" {
		return filepath.Abs(dir)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// DefaultConfigDir is $XDG_CONFIG_HOME/healthvault on Linux, falling back to
// ~/.config/healthvault. Elsewhere it defers to os.UserConfigDir, which lands
// in ~/Library/Application Support on macOS and %APPDATA% on Windows.
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_CONFIG_HOME", ".config")
	}
	return userConfigDir()
}

// DefaultDataDir mirrors DefaultConfigDir with the XDG data root on Linux
// ($XDG_DATA_HOME, fallback ~/.local/share).
func DefaultDataDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_DATA_HOME", ".local", "share")
	}
	return userConfigDir()
}

// xdgDir resolves an XDG base directory, using the conventional path under
// the home directory when the variable is unset.
func xdgDir(envVar string, fallback ...string) (string, error) {
	if root := os.Getenv(envVar); root != "" {
		return filepath.Join(root, appDir), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	parts := append([]string{home}, fallback...)
	return filepath.Join(append(parts, appDir)...), nil
}

func userConfigDir() (string, error) {
	root, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, appDir), nil
}

// firstSet returns the first non-empty candidate.
func firstSet(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}
