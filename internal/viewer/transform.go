package viewer

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Transform controller errors.
var (
	ErrNoSelection = errors.New("no model selected")
	ErrInvalidAxis = errors.New("invalid axis")
)

// Axis selects a component of a position or rotation.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// TransformView is what the transform panel displays for the selection.
type TransformView struct {
	Position        mgl32.Vec3
	RotationDegrees mgl32.Vec3 // Wrapped into (-360, 360)
	ScaleMultiplier float32    // Relative to the normalized scale
}

// TransformController edits the selected model's root transform.
type TransformController struct {
	registry *Registry
}

// NewTransformController creates a controller over r's selection.
func NewTransformController(r *Registry) *TransformController {
	return &TransformController{registry: r}
}

func (c *TransformController) selected() (*Model, error) {
	m := c.registry.Selected()
	if m == nil {
		return nil, ErrNoSelection
	}
	return m, nil
}

func checkAxis(a Axis) error {
	if a < AxisX || a > AxisZ {
		return fmt.Errorf("%w: %d", ErrInvalidAxis, int(a))
	}
	return nil
}

// SetPosition sets one component of the selection's position.
func (c *TransformController) SetPosition(axis Axis, v float32) error {
	m, err := c.selected()
	if err != nil {
		return err
	}
	if err := checkAxis(axis); err != nil {
		return err
	}
	m.Object.Position[axis] = v
	return nil
}

// SetRotationDegrees sets one Euler component of the selection's rotation.
func (c *TransformController) SetRotationDegrees(axis Axis, deg float32) error {
	m, err := c.selected()
	if err != nil {
		return err
	}
	if err := checkAxis(axis); err != nil {
		return err
	}
	r := m.Object.Rotation
	r[axis] = mgl32.DegToRad(deg)
	m.Object.SetRotation(r)
	return nil
}

// SetScaleMultiplier sets a uniform scale of mult × the normalized scale.
func (c *TransformController) SetScaleMultiplier(mult float32) error {
	m, err := c.selected()
	if err != nil {
		return err
	}
	m.Object.SetUniformScale(mult * m.Initial.Scale)
	return nil
}

// Reset restores the selection's normalized placement.
func (c *TransformController) Reset() error {
	m, err := c.selected()
	if err != nil {
		return err
	}
	m.Object.Position = m.Initial.Position
	m.Object.SetRotation(m.Initial.Rotation)
	m.Object.SetUniformScale(m.Initial.Scale)
	return nil
}

// View returns the display values for the selection.
func (c *TransformController) View() (TransformView, error) {
	m, err := c.selected()
	if err != nil {
		return TransformView{}, err
	}
	obj := m.Object
	var view TransformView
	view.Position = obj.Position
	for i := range 3 {
		deg := float64(obj.Rotation[i]) * 180 / math.Pi
		view.RotationDegrees[i] = float32(math.Mod(deg, 360))
	}
	avg := (obj.Scale.X() + obj.Scale.Y() + obj.Scale.Z()) / 3
	if m.Initial.Scale != 0 {
		view.ScaleMultiplier = avg / m.Initial.Scale
	}
	return view, nil
}
