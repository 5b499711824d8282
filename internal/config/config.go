// Package config handles viewer configuration loading and management.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// Config holds all viewer settings.
type Config struct {
	Window     WindowConfig     `yaml:"window" toml:"window"`
	Viewer     ViewerConfig     `yaml:"viewer" toml:"viewer"`
	Controls   ControlsConfig   `yaml:"controls" toml:"controls"`
	Screenshot ScreenshotConfig `yaml:"screenshot" toml:"screenshot"`
	Handoff    HandoffConfig    `yaml:"handoff" toml:"handoff"`
	Logging    LoggingConfig    `yaml:"logging" toml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string `yaml:"title" toml:"title"`
	Width      int    `yaml:"width" toml:"width"`
	Height     int    `yaml:"height" toml:"height"`
	Fullscreen bool   `yaml:"fullscreen" toml:"fullscreen"`
	VSync      bool   `yaml:"vsync" toml:"vsync"`
}

// ViewerConfig holds model placement and view settings.
type ViewerConfig struct {
	TargetSize     float32 `yaml:"target_size" toml:"target_size"` // Max extent of every model after normalization
	OffsetStep     float32 `yaml:"offset_step" toml:"offset_step"` // Lateral spacing per already-loaded model
	Headroom       float32 `yaml:"headroom" toml:"headroom"`
	FOV            float32 `yaml:"fov" toml:"fov"`
	Background     string  `yaml:"background" toml:"background"` // "#rrggbb" or a color name
	LightIntensity float32 `yaml:"light_intensity" toml:"light_intensity"`
	Wireframe      bool    `yaml:"wireframe" toml:"wireframe"`
	AutoRotate     bool    `yaml:"auto_rotate" toml:"auto_rotate"`
	ShowGrid       bool    `yaml:"show_grid" toml:"show_grid"`
}

// ControlsConfig holds orbit camera settings.
type ControlsConfig struct {
	EnableDamping   bool    `yaml:"enable_damping" toml:"enable_damping"`
	DampingFactor   float32 `yaml:"damping_factor" toml:"damping_factor"`
	MinDistance     float32 `yaml:"min_distance" toml:"min_distance"`
	MaxDistance     float32 `yaml:"max_distance" toml:"max_distance"`
	AutoRotateSpeed float32 `yaml:"auto_rotate_speed" toml:"auto_rotate_speed"`
}

// ScreenshotConfig holds screenshot export settings.
type ScreenshotConfig struct {
	Dir    string `yaml:"dir" toml:"dir"`
	Prefix string `yaml:"prefix" toml:"prefix"`
	Format string `yaml:"format" toml:"format"` // png or bmp
}

// HandoffConfig holds settings for the remote image-to-3D service.
type HandoffConfig struct {
	APIBase      string        `yaml:"api_base" toml:"api_base"`
	APIKey       string        `yaml:"api_key" toml:"api_key"`
	PollInterval time.Duration `yaml:"poll_interval" toml:"poll_interval"`
	Timeout      time.Duration `yaml:"timeout" toml:"timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "meshview",
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Viewer: ViewerConfig{
			TargetSize:     4,
			OffsetStep:     2,
			Headroom:       1.5,
			FOV:            50,
			Background:     "#1a1a2e",
			LightIntensity: 1.5,
		},
		Controls: ControlsConfig{
			EnableDamping:   true,
			DampingFactor:   0.05,
			MinDistance:     1,
			MaxDistance:     100,
			AutoRotateSpeed: 2.0,
		},
		Screenshot: ScreenshotConfig{
			Dir:    "screenshots",
			Prefix: "meshview",
			Format: "png",
		},
		Handoff: HandoffConfig{
			APIBase:      "https://api.meshy.ai/openapi/v1",
			PollInterval: 2 * time.Second,
			Timeout:      10 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// BackgroundColor parses Background as 0xRRGGBB.
func (v ViewerConfig) BackgroundColor() (uint32, error) {
	return ParseColor(v.Background)
}

// ParseColor parses "#rrggbb", "#rgb", "rrggbb", "0xrrggbb" or an SVG color
// name such as "navy" into 0xRRGGBB.
func ParseColor(s string) (uint32, error) {
	h := strings.ToLower(strings.TrimSpace(s))
	if named, ok := colornames.Map[h]; ok {
		return uint32(named.R)<<16 | uint32(named.G)<<8 | uint32(named.B), nil
	}
	h = strings.TrimPrefix(h, "#")
	h = strings.TrimPrefix(h, "0x")
	if len(h) != 3 && len(h) != 6 {
		return 0, fmt.Errorf("invalid color %q: want 3 or 6 hex digits or a color name", s)
	}
	c, err := colorful.Hex("#" + h)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b), nil
}

// FormatColor renders 0xRRGGBB as "#rrggbb".
func FormatColor(c uint32) string {
	return colorful.Color{
		R: float64(c>>16&0xff) / 255,
		G: float64(c>>8&0xff) / 255,
		B: float64(c&0xff) / 255,
	}.Hex()
}
