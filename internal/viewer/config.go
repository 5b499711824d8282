package viewer

import (
	"fmt"

	"github.com/Faultbox/meshview/internal/config"
	"github.com/Faultbox/meshview/internal/engine/camera"
	"github.com/Faultbox/meshview/internal/engine/debug"
)

// Config holds viewer configuration.
type Config struct {
	Width  int
	Height int

	Normalizer Normalizer
	Headroom   float32
	FOV        float32

	Background     uint32 // 0xRRGGBB
	LightIntensity float32
	Wireframe      bool
	AutoRotate     bool
	ShowGrid       bool

	EnableDamping   bool
	DampingFactor   float32
	MinDistance     float32
	MaxDistance     float32
	AutoRotateSpeed float32

	ScreenshotDir    string
	ScreenshotPrefix string
	ScreenshotFormat debug.ImageFormat
}

// DefaultConfig returns the stock viewer settings for a w×h viewport.
func DefaultConfig(w, h int) Config {
	return Config{
		Width:            w,
		Height:           h,
		Normalizer:       DefaultNormalizer(),
		Headroom:         camera.DefaultHeadroom,
		FOV:              camera.DefaultFOV,
		Background:       0x1a1a2e,
		LightIntensity:   1.5,
		EnableDamping:    true,
		DampingFactor:    camera.DefaultDampingFactor,
		MinDistance:      camera.DefaultMinDistance,
		MaxDistance:      camera.DefaultMaxDistance,
		AutoRotateSpeed:  camera.DefaultAutoRotateSpeed,
		ScreenshotDir:    "screenshots",
		ScreenshotPrefix: "meshview",
		ScreenshotFormat: debug.FormatPNG,
	}
}

// ConfigFrom maps the application config onto viewer settings.
func ConfigFrom(c *config.Config) (Config, error) {
	bg, err := c.Viewer.BackgroundColor()
	if err != nil {
		return Config{}, err
	}
	format, err := debug.ParseImageFormat(c.Screenshot.Format)
	if err != nil {
		return Config{}, fmt.Errorf("screenshot format: %w", err)
	}
	return Config{
		Width:  c.Window.Width,
		Height: c.Window.Height,
		Normalizer: Normalizer{
			TargetSize: c.Viewer.TargetSize,
			OffsetStep: c.Viewer.OffsetStep,
		},
		Headroom:         c.Viewer.Headroom,
		FOV:              c.Viewer.FOV,
		Background:       bg,
		LightIntensity:   c.Viewer.LightIntensity,
		Wireframe:        c.Viewer.Wireframe,
		AutoRotate:       c.Viewer.AutoRotate,
		ShowGrid:         c.Viewer.ShowGrid,
		EnableDamping:    c.Controls.EnableDamping,
		DampingFactor:    c.Controls.DampingFactor,
		MinDistance:      c.Controls.MinDistance,
		MaxDistance:      c.Controls.MaxDistance,
		AutoRotateSpeed:  c.Controls.AutoRotateSpeed,
		ScreenshotDir:    c.Screenshot.Dir,
		ScreenshotPrefix: c.Screenshot.Prefix,
		ScreenshotFormat: format,
	}, nil
}
