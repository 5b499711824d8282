package viewer

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/logger"
)

// DefaultSettle is how long a watched file must stay quiet before it is reloaded.
const DefaultSettle = 150 * time.Millisecond

// Watcher reloads model files into a viewer when they change on disk.
// Parent directories are watched so editors that save by rename are seen too.
type Watcher struct {
	fs     *fsnotify.Watcher
	viewer *Viewer
	files  map[string]bool
	settle time.Duration
	log    *zap.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	done   chan struct{}
	wg     sync.WaitGroup

	closeOnce sync.Once
	closeErr  error
}

// Watch starts reloading paths into v until ctx ends or Close is called.
func (v *Viewer) Watch(ctx context.Context, paths []string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	w := &Watcher{
		fs:     fw,
		viewer: v,
		files:  make(map[string]bool),
		settle: DefaultSettle,
		log:    logger.Named("watch"),
		timers: make(map[string]*time.Timer),
		done:   make(chan struct{}),
	}
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fw.Close()
			return nil, err
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	w.wg.Add(1)
	go w.loop(ctx)
	w.log.Info("watching models", zap.Strings("files", paths))
	return w, nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !w.files[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.schedule(ctx, filepath.Clean(event.Name))
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

// schedule reloads path once it has been quiet for the settle time.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Reset(w.settle)
		return
	}
	w.timers[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		select {
		case <-w.done:
			return
		default:
		}

		req, err := ReadFile(path)
		if err != nil {
			w.log.Debug("reload skipped", zap.String("file", path), zap.Error(err))
			return
		}
		w.log.Info("reloading model", zap.String("file", path))
		w.viewer.ReloadAsync(ctx, req)
	})
}

// Close stops watching. Reloads already decoding still complete. Calling it
// more than once returns the first result.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		for _, t := range w.timers {
			t.Stop()
		}
		w.timers = map[string]*time.Timer{}
		w.mu.Unlock()

		close(w.done)
		w.closeErr = w.fs.Close()
		w.wg.Wait()
	})
	return w.closeErr
}
