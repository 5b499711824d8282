package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Window.Width != 1280 || cfg.Window.Height != 720 {
		t.Errorf("expected 1280x720, got %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Viewer.TargetSize != 4 {
		t.Errorf("expected target size 4, got %g", cfg.Viewer.TargetSize)
	}
	if cfg.Viewer.OffsetStep != 2 {
		t.Errorf("expected offset step 2, got %g", cfg.Viewer.OffsetStep)
	}
	if cfg.Viewer.Headroom != 1.5 {
		t.Errorf("expected headroom 1.5, got %g", cfg.Viewer.Headroom)
	}
	if cfg.Viewer.FOV != 50 {
		t.Errorf("expected fov 50, got %g", cfg.Viewer.FOV)
	}
	if cfg.Controls.DampingFactor != 0.05 {
		t.Errorf("expected damping 0.05, got %g", cfg.Controls.DampingFactor)
	}
	if cfg.Controls.MinDistance != 1 || cfg.Controls.MaxDistance != 100 {
		t.Errorf("expected distance 1..100, got %g..%g", cfg.Controls.MinDistance, cfg.Controls.MaxDistance)
	}
	if cfg.Handoff.PollInterval != 2*time.Second {
		t.Errorf("expected poll interval 2s, got %v", cfg.Handoff.PollInterval)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    uint32
		wantErr bool
	}{
		{"#1a1a2e", 0x1a1a2e, false},
		{"FFFFFF", 0xffffff, false},
		{"0x00ff00", 0x00ff00, false},
		{" #000000 ", 0, false},
		{"#fff", 0xffffff, false},
		{"navy", 0x000080, false},
		{"White", 0xffffff, false},
		{"#gggggg", 0, true},
		{"#12345", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseColor(%q) = %#x, want %#x", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatColor(t *testing.T) {
	if got := FormatColor(0x1a1a2e); got != "#1a1a2e" {
		t.Errorf("FormatColor = %s, want #1a1a2e", got)
	}
	back, err := ParseColor(FormatColor(0x80ff01))
	if err != nil || back != 0x80ff01 {
		t.Errorf("round trip = %#x, %v", back, err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
window:
  width: 1920
  height: 1080
  fullscreen: true

viewer:
  target_size: 8
  background: "#ffffff"
  wireframe: true

controls:
  damping_factor: 0.1

screenshot:
  dir: "/tmp/shots"
  format: "bmp"

handoff:
  api_key: "secret"
  poll_interval: 5s

logging:
  level: "debug"
  log_file: "viewer.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Window.Width != 1920 || !cfg.Window.Fullscreen {
		t.Errorf("window not loaded: %+v", cfg.Window)
	}
	if cfg.Viewer.TargetSize != 8 || !cfg.Viewer.Wireframe {
		t.Errorf("viewer not loaded: %+v", cfg.Viewer)
	}
	if cfg.Viewer.OffsetStep != 2 {
		t.Errorf("unset offset step should keep default 2, got %g", cfg.Viewer.OffsetStep)
	}
	if cfg.Controls.DampingFactor != 0.1 {
		t.Errorf("expected damping 0.1, got %g", cfg.Controls.DampingFactor)
	}
	if cfg.Screenshot.Format != "bmp" {
		t.Errorf("expected bmp, got %s", cfg.Screenshot.Format)
	}
	if cfg.Handoff.PollInterval != 5*time.Second {
		t.Errorf("expected 5s poll interval, got %v", cfg.Handoff.PollInterval)
	}
	if cfg.Logging.LogFile != "viewer.log" {
		t.Errorf("expected log file 'viewer.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromTOML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	tomlContent := `
[window]
width = 800

[viewer]
offset_step = 3.5
background = "navy"

[screenshot]
format = "bmp"
`
	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Window.Width != 800 || cfg.Window.Height != 720 {
		t.Errorf("expected 800x720, got %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Viewer.OffsetStep != 3.5 {
		t.Errorf("expected offset step 3.5, got %g", cfg.Viewer.OffsetStep)
	}
	if bg, err := cfg.Viewer.BackgroundColor(); err != nil || bg != 0x000080 {
		t.Errorf("expected navy background, got %#x (%v)", bg, err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("toml config should validate: %v", err)
	}
}

func TestExpandPaths(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	cfg := Default()
	cfg.Screenshot.Dir = "~/shots"
	cfg.Logging.LogFile = "/var/log/meshview.log"
	if err := cfg.ExpandPaths(); err != nil {
		t.Fatalf("ExpandPaths: %v", err)
	}
	if cfg.Screenshot.Dir != filepath.Join(home, "shots") {
		t.Errorf("expected %s, got %s", filepath.Join(home, "shots"), cfg.Screenshot.Dir)
	}
	if cfg.Logging.LogFile != "/var/log/meshview.log" {
		t.Errorf("absolute path changed: %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
window:
  width: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile("/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestLoadFileAPIKeyFromEnv(t *testing.T) {
	t.Setenv(APIKeyEnv, "from-env")

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Handoff.APIKey != "from-env" {
		t.Errorf("expected key from environment, got %q", cfg.Handoff.APIKey)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"window", func(c *Config) { c.Window.Width = 0 }, "window size"},
		{"target size", func(c *Config) { c.Viewer.TargetSize = -1 }, "target_size"},
		{"fov", func(c *Config) { c.Viewer.FOV = 180 }, "fov"},
		{"background", func(c *Config) { c.Viewer.Background = "bluish" }, "background"},
		{"distance", func(c *Config) { c.Controls.MinDistance = 200 }, "min_distance"},
		{"format", func(c *Config) { c.Screenshot.Format = "jpg" }, "screenshot.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if filepath.Base(dir) != "meshview" {
		t.Errorf("ConfigDir should end in meshview, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	os.Chdir(tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("window:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find config.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "fullscreen flag",
			setup: func() { *flagFullscreen = true },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Window.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() { *flagFullscreen = false },
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Window.Width != 2560 || cfg.Window.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Window.Width, cfg.Window.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
		{
			name:  "background flag",
			setup: func() { *flagBackground = "#ffffff" },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Viewer.Background != "#ffffff" {
					t.Errorf("expected white background, got %s", cfg.Viewer.Background)
				}
			},
			teardown: func() { *flagBackground = "" },
		},
		{
			name:  "screenshots flag",
			setup: func() { *flagScreenshots = "/tmp/out" },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Screenshot.Dir != "/tmp/out" {
					t.Errorf("expected /tmp/out, got %s", cfg.Screenshot.Dir)
				}
			},
			teardown: func() { *flagScreenshots = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
window:
  width: 1600
  height: 900
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Width should be from flag (1920), not file (1600)
	if cfg.Window.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Window.Width)
	}
	// Height should be from file (900) since no flag override
	if cfg.Window.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Window.Height)
	}
}

func TestSaveToOmitsAPIKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Handoff.APIKey = "secret"
	cfg.Viewer.TargetSize = 6

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	if cfg.Handoff.APIKey != "secret" {
		t.Error("SaveTo must not modify the receiver")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved config: %v", err)
	}
	if strings.Contains(string(data), "secret") {
		t.Error("saved config contains the API key")
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reloading: %v", err)
	}
	if loaded.Viewer.TargetSize != 6 {
		t.Errorf("expected target size 6 after reload, got %g", loaded.Viewer.TargetSize)
	}
}
