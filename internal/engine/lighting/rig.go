// Package lighting provides the viewer's fixed light rig.
package lighting

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// DirectionalLight shines from Position toward the origin.
type DirectionalLight struct {
	Position  mgl32.Vec3
	Color     mgl32.Vec3
	Intensity float32
}

// Direction returns the normalized vector pointing from the origin toward the light.
func (l DirectionalLight) Direction() mgl32.Vec3 {
	if l.Position.Len() == 0 {
		return mgl32.Vec3{0, 1, 0}
	}
	return l.Position.Normalize()
}

// HemisphereLight blends a sky color above and a ground color below.
type HemisphereLight struct {
	Sky       mgl32.Vec3
	Ground    mgl32.Vec3
	Intensity float32
}

// At returns the hemisphere contribution for a surface normal.
func (h HemisphereLight) At(normal mgl32.Vec3) mgl32.Vec3 {
	w := 0.5*normal.Y() + 0.5
	c := h.Ground.Mul(1 - w).Add(h.Sky.Mul(w))
	return c.Mul(h.Intensity)
}

// Rig is one ambient light, four directional lights and a hemisphere light.
type Rig struct {
	Ambient      float32
	AmbientColor mgl32.Vec3
	Directional  [4]DirectionalLight
	Hemisphere   HemisphereLight
}

// Per-light weights applied by SetIntensity, in the order
// ambient, key, fill, bottom, top, hemisphere.
var intensityWeights = [6]float32{0.8, 0.8, 0.6, 0.4, 0.7, 0.6}

var white = mgl32.Vec3{1, 1, 1}

// DefaultRig returns the rig at its startup intensities.
func DefaultRig() *Rig {
	return &Rig{
		Ambient:      1.2,
		AmbientColor: white,
		Directional: [4]DirectionalLight{
			{Position: mgl32.Vec3{5, 5, 5}, Color: white, Intensity: 1.2},
			{Position: mgl32.Vec3{-5, 3, -5}, Color: white, Intensity: 0.9},
			{Position: mgl32.Vec3{0, -5, 0}, Color: white, Intensity: 0.6},
			{Position: mgl32.Vec3{0, 5, 0}, Color: white, Intensity: 1.05},
		},
		Hemisphere: HemisphereLight{
			Sky:       white,
			Ground:    mgl32.Vec3{0x44 / 255.0, 0x44 / 255.0, 0x44 / 255.0},
			Intensity: 0.9,
		},
	}
}

// SetIntensity rescales every light from a single slider value.
func (r *Rig) SetIntensity(i float32) {
	r.Ambient = i * intensityWeights[0]
	for k := range r.Directional {
		r.Directional[k].Intensity = i * intensityWeights[k+1]
	}
	r.Hemisphere.Intensity = i * intensityWeights[5]
}

// Irradiance returns the light arriving at a surface with the given world normal.
// The result is scaled for a Lambertian surface.
func (r *Rig) Irradiance(normal mgl32.Vec3) mgl32.Vec3 {
	total := r.AmbientColor.Mul(r.Ambient).Add(r.Hemisphere.At(normal))
	for _, l := range r.Directional {
		ndl := normal.Dot(l.Direction())
		if ndl > 0 {
			total = total.Add(l.Color.Mul(l.Intensity * ndl))
		}
	}
	return total.Mul(1 / math.Pi)
}
