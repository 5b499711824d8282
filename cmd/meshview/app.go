package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sqweek/dialog"
	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/config"
	"github.com/Faultbox/meshview/internal/decode"
	"github.com/Faultbox/meshview/internal/engine/input"
	"github.com/Faultbox/meshview/internal/engine/ui"
	"github.com/Faultbox/meshview/internal/handoff"
	"github.com/Faultbox/meshview/internal/logger"
	"github.com/Faultbox/meshview/internal/viewer"
)

const (
	downloadTimeout = 2 * time.Minute
	statusDuration  = 3 * time.Second
	errorBuffer     = 16
)

// App is the viewer window: ImGui panels around a software-rendered viewport.
type App struct {
	cfg     *config.Config
	log     *zap.Logger
	backend *ui.Backend
	viewer  *viewer.Viewer

	viewport ui.Viewport
	pointer  *input.Pointer

	http    *http.Client
	meshy   *handoff.Client // nil without an API key
	watcher *viewer.Watcher

	ctx    context.Context
	cancel context.CancelFunc
	errs   chan error

	// Background work
	downloads atomic.Int32
	progress  atomic.Int32 // Generation percent, -1 when idle

	// UI state
	urlText    string
	imageText  string
	status     string
	statusTime time.Time
}

// NewApp opens the window and creates an empty viewer.
func NewApp(cfg *config.Config) (*App, error) {
	app := &App{
		cfg:     cfg,
		log:     logger.Named("app"),
		pointer: input.NewPointer(),
		http:    &http.Client{Timeout: downloadTimeout},
		errs:    make(chan error, errorBuffer),
	}
	app.ctx, app.cancel = context.WithCancel(context.Background())
	app.progress.Store(-1)

	var err error
	app.backend, err = ui.NewBackend(cfg.Window.Title, int32(cfg.Window.Width), int32(cfg.Window.Height))
	if err != nil {
		return nil, err
	}
	if err := app.backend.SetWindowMode(cfg.Window.Fullscreen, cfg.Window.VSync); err != nil {
		app.log.Warn("window mode not applied", zap.Error(err))
	}

	vcfg, err := viewer.ConfigFrom(cfg)
	if err != nil {
		return nil, err
	}
	app.viewer, err = viewer.New(vcfg)
	if err != nil {
		return nil, err
	}
	app.viewer.OnError(func(err error) {
		ui.ShowError("Could not load model", err)
	})
	app.viewer.OnLoad(func(m *viewer.Model) {
		app.setStatus(fmt.Sprintf("Loaded %s (%s)", m.Name, m.Size()))
	})

	if cfg.Handoff.APIKey != "" {
		app.meshy, err = handoff.NewClient(handoff.Config{
			APIBase:      cfg.Handoff.APIBase,
			APIKey:       cfg.Handoff.APIKey,
			PollInterval: cfg.Handoff.PollInterval,
			HTTPClient:   app.http,
		})
		if err != nil {
			return nil, err
		}
	}

	app.backend.SetDropCallback(app.OpenFiles)
	return app, nil
}

// Run blocks until the window closes.
func (app *App) Run() {
	app.backend.Run(app.render)
}

// Close stops background work and releases the viewer.
func (app *App) Close() {
	app.cancel()
	if app.watcher != nil {
		app.watcher.Close()
	}
	app.viewport.Release()
	app.viewer.Close()
}

// OpenFiles reads and decodes paths in the background.
func (app *App) OpenFiles(paths []string) {
	if len(paths) == 0 {
		return
	}
	go func() {
		for _, p := range paths {
			req, err := viewer.ReadFile(p)
			if err != nil {
				app.fail(err)
				continue
			}
			app.viewer.LoadAsync(app.ctx, req)
		}
	}()
}

// OpenURL downloads a model in the background.
func (app *App) OpenURL(url string) {
	app.downloads.Add(1)
	go func() {
		defer app.downloads.Add(-1)
		req, err := handoff.Fetch(app.ctx, app.http, url)
		if err != nil {
			app.fail(err)
			return
		}
		app.viewer.LoadAsync(app.ctx, req)
	}()
}

// Generate turns an image into a model with the image-to-3D service and loads
// the result. Only one generation runs at a time.
func (app *App) Generate(imageURL string) {
	if app.meshy == nil {
		app.fail(fmt.Errorf("%w: set %s", handoff.ErrMissingAPIKey, config.APIKeyEnv))
		return
	}
	if !app.progress.CompareAndSwap(-1, 0) {
		return
	}
	go func() {
		defer app.progress.Store(-1)
		ctx, cancel := context.WithTimeout(app.ctx, app.cfg.Handoff.Timeout)
		defer cancel()

		req, err := app.meshy.Generate(ctx, imageURL, func(t *handoff.Task) {
			app.progress.Store(int32(t.Progress))
		})
		if err != nil {
			app.fail(err)
			return
		}
		app.viewer.LoadAsync(app.ctx, req)
	}()
}

// WatchFiles reloads paths whenever they change on disk.
func (app *App) WatchFiles(paths []string) {
	if len(paths) == 0 {
		return
	}
	w, err := app.viewer.Watch(app.ctx, paths)
	if err != nil {
		app.fail(err)
		return
	}
	app.watcher = w
}

// openFileDialog shows a native file dialog. The dialog blocks, so it runs off
// the render thread and hands the path to OpenFiles.
func (app *App) openFileDialog() {
	exts := make([]string, 0, len(decode.Extensions()))
	for _, e := range decode.Extensions() {
		exts = append(exts, strings.TrimPrefix(e, "."))
	}
	go func() {
		filename, err := dialog.File().
			Filter("3D Models", exts...).
			Filter("All Files", "*").
			Title("Open Model").
			Load()
		if err != nil {
			if err != dialog.ErrCancelled {
				app.fail(fmt.Errorf("file dialog: %w", err))
			}
			return
		}
		app.OpenFiles([]string{filename})
	}()
}

// fail queues err for display on the render thread.
func (app *App) fail(err error) {
	select {
	case app.errs <- err:
	default:
		app.log.Warn("error dropped", zap.Error(err))
	}
}

func (app *App) drainErrors() {
	for {
		select {
		case err := <-app.errs:
			app.log.Warn("operation failed", zap.Error(err))
			ui.ShowError("meshview", err)
		default:
			return
		}
	}
}

func (app *App) setStatus(msg string) {
	app.status = msg
	app.statusTime = time.Now()
}

func (app *App) screenshot() {
	path, err := app.viewer.Screenshot()
	if err != nil {
		app.fail(fmt.Errorf("screenshot: %w", err))
		return
	}
	app.setStatus("Saved " + path)
}

func (app *App) removeSelected() {
	if i := app.viewer.Registry.SelectedIndex(); i >= 0 {
		if err := app.viewer.RemoveModel(i); err != nil {
			app.fail(err)
		}
	}
}
