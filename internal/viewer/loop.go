package viewer

import (
	"context"
	"image"
	"time"
)

// Frame runs one tick of the loop: finished loads are added, animations and
// camera controls advance by the time since the previous frame, and the scene
// is drawn.
func (v *Viewer) Frame(now time.Time) *image.RGBA {
	v.DrainLoads()
	dt := v.clock.DeltaAt(now)
	v.Player.Advance(dt)
	v.Controls.Update(dt)
	return v.Render()
}

// Run calls Frame once per tick until ctx is cancelled or ticks is closed,
// then closes the viewer. present, if non-nil, receives every frame.
func (v *Viewer) Run(ctx context.Context, ticks <-chan time.Time, present func(*image.RGBA)) {
	defer v.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case now, ok := <-ticks:
			if !ok {
				return
			}
			img := v.Frame(now)
			if present != nil {
				present(img)
			}
		}
	}
}
