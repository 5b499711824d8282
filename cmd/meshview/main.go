// meshview - an interactive viewer for 3D model files.
package main

import (
	"fmt"
	"os"
	"runtime"

	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/config"
	"github.com/Faultbox/meshview/internal/logger"
)

func main() {
	runtime.LockOSThread()

	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== meshview ===")
	logger.Sugar.Debugf("Config: window=%dx%d viewer=%+v", cfg.Window.Width, cfg.Window.Height, cfg.Viewer)

	app, err := NewApp(cfg)
	if err != nil {
		logger.Error("failed to start viewer", zap.Error(err))
		os.Exit(1)
	}
	defer app.Close()

	app.OpenFiles(config.Files())
	if url := config.URL(); url != "" {
		app.OpenURL(url)
	}
	if img := config.ImageURL(); img != "" {
		app.Generate(img)
	}
	if config.Watch() {
		app.WatchFiles(config.Files())
	}

	app.Run()
	logger.Info("viewer closed normally")
}
