package viewer

import (
	"github.com/Faultbox/meshview/internal/engine/input"
	"github.com/Faultbox/meshview/internal/engine/picking"
)

// HandlePointer applies a pointer gesture made over the viewport rect. Clicks
// pick, drags orbit or pan and the wheel zooms. It returns the picked index
// for clicks, -1 otherwise.
func (v *Viewer) HandlePointer(a input.Action, rect picking.Rect) int {
	switch a.Gesture {
	case input.GestureClick:
		i, _ := v.Pick(a.X, a.Y, rect)
		return i
	case input.GestureOrbit:
		v.Controls.HandleDrag(a.DX, a.DY)
	case input.GesturePan:
		v.Controls.HandlePan(a.DX, a.DY)
	case input.GestureZoom:
		v.Controls.HandleZoom(a.Zoom)
	}
	return -1
}
