package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshview/internal/engine/scene"
)

// DefaultHeadroom multiplies the fitted distance so the box does not touch the frame edges.
const DefaultHeadroom = 1.5

// frameDirection is the fixed three-quarter viewing direction used when framing.
var frameDirection = mgl32.Vec3{0.7, 0.5, 0.7}

// FitDistance returns the camera distance at which a box of the given max extent fits the FOV.
func FitDistance(maxExtent, fovDeg, headroom float32) float32 {
	half := float64(mgl32.DegToRad(fovDeg)) / 2
	return float32(math.Abs(float64(maxExtent)/math.Sin(half))) * headroom
}

// Frame places cam on the three-quarter diagonal at a distance that fits box and
// aims it at the origin. Returns false and leaves cam untouched for an empty box.
func Frame(cam *Perspective, box scene.Box3, headroom float32) bool {
	if box.IsEmpty() {
		return false
	}
	d := FitDistance(box.MaxExtent(), cam.FOV, headroom)
	cam.Position = frameDirection.Mul(d)
	cam.Target = mgl32.Vec3{}
	return true
}
