package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// APIKeyEnv is consulted when the config file carries no handoff API key.
const APIKeyEnv = "MESHY_API_KEY"

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	configPath, err := homedir.Expand(ConfigPath())
	if err != nil {
		return nil, fmt.Errorf("config path: %w", err)
	}
	if configPath == "" {
		configPath = findConfigFile()
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Apply CLI flags (highest priority)
	applyFlags(cfg)
	if err := cfg.ExpandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile returns defaults merged with the YAML file at path. An empty path
// yields defaults. Flags are not applied.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}
	if cfg.Handoff.APIKey == "" {
		cfg.Handoff.APIKey = os.Getenv(APIKeyEnv)
	}
	return cfg, nil
}

// ExpandPaths resolves a leading "~" in every path setting.
func (c *Config) ExpandPaths() error {
	for _, p := range []*string{&c.Screenshot.Dir, &c.Logging.LogFile} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

// Validate rejects values the viewer cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height))
	}
	if c.Viewer.TargetSize <= 0 {
		errs = append(errs, fmt.Errorf("viewer.target_size must be positive, got %g", c.Viewer.TargetSize))
	}
	if c.Viewer.FOV <= 0 || c.Viewer.FOV >= 180 {
		errs = append(errs, fmt.Errorf("viewer.fov must be in (0, 180), got %g", c.Viewer.FOV))
	}
	if _, err := c.Viewer.BackgroundColor(); err != nil {
		errs = append(errs, fmt.Errorf("viewer.background: %w", err))
	}
	if c.Controls.MinDistance > c.Controls.MaxDistance {
		errs = append(errs, fmt.Errorf("controls.min_distance %g exceeds max_distance %g", c.Controls.MinDistance, c.Controls.MaxDistance))
	}
	switch c.Screenshot.Format {
	case "png", "bmp":
	default:
		errs = append(errs, fmt.Errorf("screenshot.format must be png or bmp, got %q", c.Screenshot.Format))
	}
	return errors.Join(errs...)
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		"./config.toml",
		filepath.Join(ConfigDir(), "config.yaml"),
		filepath.Join(ConfigDir(), "config.toml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := homedir.Dir()
		return filepath.Join(home, "Library", "Application Support", "meshview")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "meshview")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "meshview")
		}
		home, _ := homedir.Dir()
		return filepath.Join(home, ".config", "meshview")
	}
}

// loadFromFile loads config from a YAML or TOML file (by extension), merging
// with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return toml.Unmarshal(data, cfg)
	}
	return yaml.Unmarshal(data, cfg)
}
