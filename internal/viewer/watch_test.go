package viewer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drainUntil pumps completed loads until cond holds or the deadline passes.
func drainUntil(v *Viewer, timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		v.DrainLoads()
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func TestReloadAsync_ReplacesByName(t *testing.T) {
	v := newTestViewer(t)
	_, err := v.Load(request("part.obj", boxOBJ))
	require.NoError(t, err)
	_, err = v.Load(request("other.stl", triangleSTL))
	require.NoError(t, err)

	v.ReloadAsync(context.Background(), request("part.obj", boxOBJ))
	v.WaitLoads()
	assert.Equal(t, 1, v.DrainLoads())

	require.Equal(t, 2, v.Registry.Len())
	names := []string{}
	for _, m := range v.Registry.Models() {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"other.stl", "part.obj"}, names)
}

const wedgeOBJ = `v 0 0 0
v 1 0 0
v 0 1 0
v 0 0 1
f 1 2 3
f 1 2 4
`

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "box.obj")
	require.NoError(t, os.WriteFile(path, []byte(boxOBJ), 0o644))

	v := newTestViewer(t)
	first, err := v.LoadFile(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w, err := v.Watch(ctx, []string{path})
	require.NoError(t, err)
	defer w.Close()

	// Other files in the directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte(wedgeOBJ), 0o644))

	ok := drainUntil(v, 5*time.Second, func() bool {
		m, _ := v.Registry.At(0)
		return v.Registry.Len() == 1 && m != nil && m.ID != first.ID
	})
	require.True(t, ok, "model was not reloaded")
	m, _ := v.Registry.At(0)
	assert.Equal(t, "box.obj", m.Name)
	assert.Equal(t, int64(len(wedgeOBJ)), m.ByteSize)
}

func TestWatch_MissingDirectory(t *testing.T) {
	v := newTestViewer(t)
	_, err := v.Watch(context.Background(), []string{filepath.Join(t.TempDir(), "gone", "a.obj")})
	assert.Error(t, err)
}

func TestReloadAsync_FailureKeepsOld(t *testing.T) {
	v := newTestViewer(t)
	old, err := v.Load(request("part.obj", boxOBJ))
	require.NoError(t, err)

	var reported error
	v.OnError(func(err error) { reported = err })
	v.ReloadAsync(context.Background(), request("part.obj", flatOBJ))
	v.WaitLoads()
	assert.Equal(t, 0, v.DrainLoads())

	assert.Error(t, reported)
	m, err := v.Registry.At(0)
	require.NoError(t, err)
	assert.Equal(t, old.ID, m.ID)
}

func TestWatcher_CloseTwice(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "box.obj")
	require.NoError(t, os.WriteFile(path, []byte(boxOBJ), 0o644))

	v := newTestViewer(t)
	w, err := v.Watch(context.Background(), []string{path})
	require.NoError(t, err)

	first := w.Close()
	assert.NotPanics(t, func() {
		assert.Equal(t, first, w.Close())
	})
}

func TestWaitLoads_LoadsStartedWhileWaiting(t *testing.T) {
	v := newTestViewer(t)
	v.LoadAsync(context.Background(), request("first.obj", boxOBJ))

	const extra = 8
	started := make(chan struct{})
	go func() {
		defer close(started)
		for i := range extra {
			v.ReloadAsync(context.Background(), request(fmt.Sprintf("part%d.obj", i), boxOBJ))
		}
	}()

	waited := make(chan struct{})
	go func() {
		v.WaitLoads()
		close(waited)
	}()

	<-started
	select {
	case <-waited:
	case <-time.After(5 * time.Second):
		t.Fatal("WaitLoads did not return")
	}
	v.WaitLoads()

	assert.Equal(t, 1+extra, v.DrainLoads())
	assert.Equal(t, 1+extra, v.Registry.Len())
}
