// Package viewer holds the model registry, selection, transforms and the frame loop
// that ties the decoders, animation, camera and renderer together.
package viewer

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/Faultbox/meshview/internal/decode"
	"github.com/Faultbox/meshview/internal/engine/animation"
	"github.com/Faultbox/meshview/internal/engine/scene"
)

// ErrEmptyModel is returned when a decoded object has no measurable extent.
var ErrEmptyModel = errors.New("model has an empty bounding box")

// Transform is a snapshot of a model root's placement.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Vec3 // Euler XYZ, radians
	Scale    float32    // Uniform
}

// Model is one loaded file in the session.
type Model struct {
	ID       string
	Name     string
	ByteSize int64
	Format   decode.Format

	Object  *scene.Node
	Initial Transform
	Clips   []*animation.Clip
	Mixer   *animation.Mixer // nil when the file has no clips
}

// Visible reports whether the model root is drawn.
func (m *Model) Visible() bool { return m.Object.Visible }

// Current returns the root's live transform.
func (m *Model) Current() Transform {
	return Transform{
		Position: m.Object.Position,
		Rotation: m.Object.Rotation,
		Scale:    m.Object.Scale.X(),
	}
}

// Size returns the formatted file size.
func (m *Model) Size() string { return HumanSize(m.ByteSize) }

func newModel(name string, size int64, res *decode.Result, initial Transform) *Model {
	return &Model{
		ID:       uuid.NewString(),
		Name:     name,
		ByteSize: size,
		Format:   res.Format,
		Object:   res.Object,
		Initial:  initial,
		Clips:    res.Clips,
	}
}

// Normalizer scales and places freshly decoded objects.
type Normalizer struct {
	TargetSize float32 // Max extent after scaling
	OffsetStep float32 // +X offset per model already in the registry
}

// DefaultNormalizer returns the stock placement settings.
func DefaultNormalizer() Normalizer {
	return Normalizer{TargetSize: 4, OffsetStep: 2}
}

// Normalize scales obj so its largest box extent equals TargetSize, centers it on
// the origin and shifts it along +X by OffsetStep × registryLen. obj must not be
// attached to a scene yet. The returned Transform is the placement to reset to.
func (n Normalizer) Normalize(obj *scene.Node, registryLen int) (Transform, error) {
	box := scene.BoxFromNode(obj)
	maxDim := box.MaxExtent()
	if box.IsEmpty() || maxDim <= 0 || math.IsInf(float64(maxDim), 0) || math.IsNaN(float64(maxDim)) {
		return Transform{}, ErrEmptyModel
	}

	s := n.TargetSize / maxDim
	obj.Scale = obj.Scale.Mul(s)

	center := scene.BoxFromNode(obj).Center()
	obj.Position = obj.Position.Sub(center)
	obj.Position[0] += n.OffsetStep * float32(registryLen)

	return Transform{
		Position: obj.Position,
		Scale:    obj.Scale.X(),
	}, nil
}

// HumanSize formats a byte count as "N B", "x.xx KB" or "x.xx MB".
func HumanSize(bytes int64) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.2f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%.2f MB", float64(bytes)/(1024*1024))
	}
}
