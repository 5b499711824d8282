package lighting

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestDefaultRig(t *testing.T) {
	r := DefaultRig()
	assert.Equal(t, float32(1.2), r.Ambient)
	assert.Equal(t, float32(0.9), r.Hemisphere.Intensity)
	want := []float32{1.2, 0.9, 0.6, 1.05}
	for i, l := range r.Directional {
		assert.Equal(t, want[i], l.Intensity, "light %d", i)
	}
}

func TestSetIntensity(t *testing.T) {
	r := DefaultRig()
	r.SetIntensity(2)

	assert.InDelta(t, 1.6, r.Ambient, 1e-6)
	want := []float32{1.6, 1.2, 0.8, 1.4}
	for i, l := range r.Directional {
		assert.InDelta(t, want[i], l.Intensity, 1e-6, "light %d", i)
	}
	assert.InDelta(t, 1.2, r.Hemisphere.Intensity, 1e-6)

	r.SetIntensity(0)
	assert.Equal(t, mgl32.Vec3{}, r.Irradiance(mgl32.Vec3{0, 1, 0}))
}

func TestHemisphereBlend(t *testing.T) {
	h := HemisphereLight{Sky: mgl32.Vec3{1, 1, 1}, Ground: mgl32.Vec3{0, 0, 0}, Intensity: 1}
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, h.At(mgl32.Vec3{0, 1, 0}))
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, h.At(mgl32.Vec3{0, -1, 0}))
	assert.True(t, h.At(mgl32.Vec3{1, 0, 0}).ApproxEqual(mgl32.Vec3{0.5, 0.5, 0.5}))
}

func TestIrradianceFacingLights(t *testing.T) {
	r := &Rig{
		Directional: [4]DirectionalLight{{Position: mgl32.Vec3{0, 5, 0}, Color: mgl32.Vec3{1, 1, 1}, Intensity: 1}},
	}
	up := r.Irradiance(mgl32.Vec3{0, 1, 0})
	assert.InDelta(t, 1/math.Pi, up.X(), 1e-6)

	down := r.Irradiance(mgl32.Vec3{0, -1, 0})
	assert.Zero(t, down.X())
}
