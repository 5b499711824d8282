package viewer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/decode"
	"github.com/Faultbox/meshview/internal/engine/animation"
	"github.com/Faultbox/meshview/internal/engine/scene"
)

// LoadRequest is one file to open: its name (which selects the decoder), its
// byte size for display and its contents.
type LoadRequest struct {
	Name string
	Size int64
	Data []byte
}

// ReadFile builds a LoadRequest from a file on disk.
func ReadFile(path string) (LoadRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LoadRequest{}, fmt.Errorf("reading model: %w", err)
	}
	return LoadRequest{Name: filepath.Base(path), Size: int64(len(data)), Data: data}, nil
}

// completion is a decode result waiting to be appended by the frame loop.
type completion struct {
	req     LoadRequest
	res     *decode.Result
	err     error
	replace bool // Drop models with the same name first
}

func (r LoadRequest) size() int64 {
	if r.Size > 0 {
		return r.Size
	}
	return int64(len(r.Data))
}

// Load decodes req and adds it to the registry on the calling goroutine.
// Failures leave the registry untouched.
func (v *Viewer) Load(req LoadRequest) (*Model, error) {
	res, err := decode.Decode(req.Name, req.Data)
	m, err := v.add(completion{req: req, res: res, err: err})
	if err != nil {
		v.reportError(err)
		return nil, err
	}
	return m, nil
}

// LoadFile reads and loads a model from disk.
func (v *Viewer) LoadFile(path string) (*Model, error) {
	req, err := ReadFile(path)
	if err != nil {
		v.reportError(err)
		return nil, err
	}
	return v.Load(req)
}

// LoadAsync decodes req on its own goroutine. The result is added by the next
// Frame after the decode finishes, so concurrent loads land in completion order.
// A decode in progress is not interrupted; cancelling ctx or closing the viewer
// only drops its result.
func (v *Viewer) LoadAsync(ctx context.Context, req LoadRequest) {
	v.decodeAsync(ctx, req, false)
}

// ReloadAsync is LoadAsync that, once decoded, replaces every model with the
// same name instead of adding alongside it.
func (v *Viewer) ReloadAsync(ctx context.Context, req LoadRequest) {
	v.decodeAsync(ctx, req, true)
}

func (v *Viewer) decodeAsync(ctx context.Context, req LoadRequest, replace bool) {
	v.inflight.add()
	go func() {
		defer v.inflight.done()
		res, err := decode.Decode(req.Name, req.Data)
		select {
		case v.completions <- completion{req: req, res: res, err: err, replace: replace}:
		case <-ctx.Done():
			v.log.Debug("load dropped", zap.String("file", req.Name), zap.Error(ctx.Err()))
		case <-v.done:
		}
	}()
}

// WaitLoads blocks until every LoadAsync goroutine has posted its result,
// including decodes started while it waits (watcher reloads). The results are
// still only added by Frame or DrainLoads.
func (v *Viewer) WaitLoads() {
	v.inflight.wait()
}

// loadCounter counts decode goroutines. Unlike sync.WaitGroup, new decodes may
// start while another goroutine is blocked in wait.
type loadCounter struct {
	mu   sync.Mutex
	idle *sync.Cond
	n    int
}

func newLoadCounter() *loadCounter {
	c := &loadCounter{}
	c.idle = sync.NewCond(&c.mu)
	return c
}

func (c *loadCounter) add() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func (c *loadCounter) done() {
	c.mu.Lock()
	c.n--
	if c.n == 0 {
		c.idle.Broadcast()
	}
	c.mu.Unlock()
}

func (c *loadCounter) wait() {
	c.mu.Lock()
	for c.n > 0 {
		c.idle.Wait()
	}
	c.mu.Unlock()
}

// DrainLoads adds every posted result without blocking and returns how many
// models were added.
func (v *Viewer) DrainLoads() int {
	added := 0
	for {
		select {
		case c := <-v.completions:
			if _, err := v.add(c); err != nil {
				v.reportError(err)
				continue
			}
			added++
		default:
			return added
		}
	}
}

// add normalizes a decoded object and appends it. The first model added to an
// empty registry frames the camera. A replacing completion removes its
// namesakes only once the new object is known to be usable.
func (v *Viewer) add(c completion) (*Model, error) {
	if c.err != nil {
		return nil, c.err
	}
	if v.closed {
		return nil, fmt.Errorf("viewer closed: %s dropped", c.req.Name)
	}
	slot := v.Registry.Len()
	if c.replace {
		slot -= len(v.named(c.req.Name))
	}
	initial, err := v.config.Normalizer.Normalize(c.res.Object, slot)
	if err != nil {
		return nil, &decode.DecodeError{FileName: c.req.Name, Format: c.res.Format, Err: err}
	}
	if c.replace {
		v.removeNamed(c.req.Name)
	}

	m := newModel(c.req.Name, c.req.size(), c.res, initial)
	if len(m.Clips) > 0 {
		m.Mixer = animation.NewMixer(m.Object, m.Clips)
		v.Player.Add(m.Mixer)
	}

	first := v.Registry.Len() == 0
	index := v.Registry.Add(m)
	if first {
		v.frame(scene.BoxFromNode(m.Object))
	}

	v.log.Info("model loaded",
		zap.String("name", m.Name),
		zap.String("id", m.ID),
		zap.Stringer("format", m.Format),
		zap.Int("index", index),
		zap.String("size", m.Size()),
		zap.Int("clips", len(m.Clips)),
	)
	if v.onLoad != nil {
		v.onLoad(m)
	}
	return m, nil
}

// named returns the indices of models called name, highest first.
func (v *Viewer) named(name string) []int {
	var out []int
	for i := v.Registry.Len() - 1; i >= 0; i-- {
		if m, _ := v.Registry.At(i); m != nil && m.Name == name {
			out = append(out, i)
		}
	}
	return out
}

func (v *Viewer) removeNamed(name string) {
	for _, i := range v.named(name) {
		_ = v.RemoveModel(i)
	}
}
