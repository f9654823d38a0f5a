// Package config manages the on-disk settings for entaldocs.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultBranch   = "main"
	defaultContents = "boilerplate"
	defaultRepo     = "entalpic/entaldocs"

	dirPermissions  = 0o700
	filePermissions = 0o600
)

// Settings are the persisted defaults for fetching remote boilerplate.
type Settings struct {
	// Repo is the GitHub repository holding the boilerplate, as owner/name.
	Repo string
	// Branch is the branch boilerplate is fetched from.
	Branch string
	// Contents is the path of the boilerplate tree inside the repository.
	Contents string
}

// Defaults returns the built-in settings used when nothing is configured.
func Defaults() Settings {
	return Settings{Repo: defaultRepo, Branch: defaultBranch, Contents: defaultContents}
}

// configDir returns the directory where we persist structured configuration.
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "entaldocs"), nil
}

// ensureConfigDir ensures the configuration directory exists with restricted
// permissions.
func ensureConfigDir() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	return dir, nil
}

// Save persists the settings, creating the config file if needed.
func Save(settings Settings) error {
	if strings.TrimSpace(settings.Repo) == "" {
		return errors.New("repository cannot be empty")
	}

	dir, err := ensureConfigDir()
	if err != nil {
		return err
	}

	cfg := viper.New()
	configPath := filepath.Join(dir, "config.yaml")
	cfg.SetConfigFile(configPath)
	readErr := cfg.ReadInConfig()
	if readErr != nil && !isConfigNotFound(readErr) {
		return fmt.Errorf("read config: %w", readErr)
	}

	cfg.Set("boilerplate.repo", settings.Repo)
	cfg.Set("boilerplate.branch", settings.Branch)
	cfg.Set("boilerplate.contents", settings.Contents)

	if err := cfg.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Chmod(configPath, filePermissions); err != nil {
		return fmt.Errorf("restrict config permissions: %w", err)
	}
	return nil
}

// Load returns the stored settings, falling back to the defaults for any
// value that is absent or when no config file exists yet.
func Load() (Settings, error) {
	settings := Defaults()

	dir, err := ensureConfigDir()
	if err != nil {
		return settings, err
	}

	cfg := viper.New()
	configPath := filepath.Join(dir, "config.yaml")
	cfg.SetConfigFile(configPath)
	readErr := cfg.ReadInConfig()
	if readErr != nil {
		if isConfigNotFound(readErr) {
			return settings, nil
		}
		return settings, fmt.Errorf("read config: %w", readErr)
	}

	if v := cfg.GetString("boilerplate.repo"); v != "" {
		settings.Repo = v
	}
	if v := cfg.GetString("boilerplate.branch"); v != "" {
		settings.Branch = v
	}
	if v := cfg.GetString("boilerplate.contents"); v != "" {
		settings.Contents = v
	}
	return settings, nil
}

func isConfigNotFound(err error) bool {
	if err == nil {
		return false
	}
	var nf viper.ConfigFileNotFoundError
	if errors.As(err, &nf) {
		return true
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, os.ErrNotExist) {
		return true
	}
	return errors.Is(err, os.ErrNotExist)
}
