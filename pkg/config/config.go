// Package config loads the vault configuration file.
//
// The configuration lives at <vault dir>/config.yaml and controls optional
// behavior only; a missing file yields the defaults. Because the file can
// redirect the key backend, it is loaded with the same hardening as the key
// material itself: symlinks are rejected, permissions must be 0600, and the
// file must be owned by the current user.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the name of the configuration file inside the vault directory.
const FileName = "config.yaml"

// DefaultDirName is the vault directory created under the user's home.
const DefaultDirName = ".vaultica"

// EnvVaultDir overrides the vault directory when set.
const EnvVaultDir = "VAULTICA_HOME"

// Key backend selectors.
const (
	BackendFile    = "file"
	BackendKeyring = "keyring"
)

// ErrConfigInsecure is returned when the config file has permissions other than 0600
var ErrConfigInsecure = errors.New("config file has insecure permissions")

// ErrConfigSymlink is returned when the config file is a symlink
var ErrConfigSymlink = errors.New("config file is a symlink")

// ErrConfigNotOwnedByUser is returned when the config file is not owned by the current user
var ErrConfigNotOwnedByUser = errors.New("config file not owned by current user")

// Config holds the vault configuration.
type Config struct {
	Version int `yaml:"version"`

	// KeyBackend selects where the master key lives: "file" or "keyring".
	KeyBackend string `yaml:"key_backend"`

	// RequireElevated refuses to open the vault without administrative
	// privileges when true.
	RequireElevated bool `yaml:"require_elevated"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Version:    1,
		KeyBackend: BackendFile,
	}
}

// DefaultDir returns the vault directory: $VAULTICA_HOME if set,
// otherwise ~/.vaultica.
func DefaultDir() (string, error) {
	if dir := os.Getenv(EnvVaultDir); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, DefaultDirName), nil
}

// Load reads the configuration from the vault directory.
// A missing file is not an error; defaults are returned.
func Load(vaultDir string) (*Config, error) {
	configPath := filepath.Join(vaultDir, FileName)

	f, err := openConfigFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	defer f.Close()

	// fstat the opened descriptor so the checks and the read see the
	// same file.
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	perm := info.Mode().Perm()
	if perm != 0600 {
		return nil, fmt.Errorf("%w: %o (expected 0600)", ErrConfigInsecure, perm)
	}

	if err := checkFileOwnership(info); err != nil {
		return nil, err
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Version != 1 {
		return nil, fmt.Errorf("unsupported config version: %d", cfg.Version)
	}

	if cfg.KeyBackend != BackendFile && cfg.KeyBackend != BackendKeyring {
		return nil, fmt.Errorf("invalid key_backend: %s (must be '%s' or '%s')",
			cfg.KeyBackend, BackendFile, BackendKeyring)
	}

	return cfg, nil
}

// Save writes the configuration to the vault directory with 0600 permissions.
func Save(vaultDir string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(vaultDir, 0700); err != nil {
		return fmt.Errorf("failed to create vault directory: %w", err)
	}

	configPath := filepath.Join(vaultDir, FileName)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
