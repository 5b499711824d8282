package config

import "flag"

var (
	flagConfig      = flag.String("config", "", "Path to config file")
	flagDebug       = flag.Bool("debug", false, "Enable debug logging")
	flagFullscreen  = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth       = flag.Int("width", 0, "Window width")
	flagHeight      = flag.Int("height", 0, "Window height")
	flagBackground  = flag.String("bg", "", "Background color (#rrggbb or a color name)")
	flagScreenshots = flag.String("screenshots", "", "Screenshot output directory")
	flagURL         = flag.String("url", "", "Download and open a model from this URL")
	flagImage       = flag.String("image", "", "Generate a model from this image URL")
	flagWatch       = flag.Bool("watch", false, "Reload model files when they change")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// Files returns the model paths given as positional arguments.
func Files() []string {
	return flag.Args()
}

// URL returns the model URL given with --url.
func URL() string {
	return *flagURL
}

// ImageURL returns the image given with --image for image-to-3D generation.
func ImageURL() string {
	return *flagImage
}

// Watch reports whether --watch was given.
func Watch() bool {
	return *flagWatch
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagFullscreen {
		cfg.Window.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
	if *flagBackground != "" {
		cfg.Viewer.Background = *flagBackground
	}
	if *flagScreenshots != "" {
		cfg.Screenshot.Dir = *flagScreenshots
	}
}
