package viewer

import (
	"errors"
	"fmt"

	"github.com/Faultbox/meshview/internal/engine/scene"
)

// ErrIndexOutOfRange is returned for a model index outside the registry.
var ErrIndexOutOfRange = errors.New("model index out of range")

// Registry is the ordered list of loaded models plus the current selection.
// A model is attached to the scene exactly while it is in the registry.
// It is owned by the frame loop and is not safe for concurrent use.
type Registry struct {
	scene    *scene.Scene
	models   []*Model
	selected *Model
	onChange func()
}

// NewRegistry creates an empty registry that attaches models to s.
func NewRegistry(s *scene.Scene) *Registry {
	return &Registry{scene: s}
}

// OnChange sets a listener called after every mutation.
func (r *Registry) OnChange(fn func()) {
	r.onChange = fn
}

func (r *Registry) changed() {
	if r.onChange != nil {
		r.onChange()
	}
}

func (r *Registry) check(i int) error {
	if i < 0 || i >= len(r.models) {
		return fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, i, len(r.models))
	}
	return nil
}

// Add appends m, attaches its root to the scene and returns its index.
func (r *Registry) Add(m *Model) int {
	r.models = append(r.models, m)
	r.scene.Add(m.Object)
	r.changed()
	return len(r.models) - 1
}

// Remove detaches and drops the model at i. If it was selected the selection
// is cleared first.
func (r *Registry) Remove(i int) (*Model, error) {
	if err := r.check(i); err != nil {
		return nil, err
	}
	m := r.models[i]
	if r.selected == m {
		r.selected = nil
	}
	r.scene.Remove(m.Object)
	r.models = append(r.models[:i], r.models[i+1:]...)
	r.changed()
	return m, nil
}

// SetVisible shows or hides the model at i.
func (r *Registry) SetVisible(i int, visible bool) error {
	if err := r.check(i); err != nil {
		return err
	}
	r.models[i].Object.Visible = visible
	r.changed()
	return nil
}

// ToggleVisible flips the visibility of the model at i.
func (r *Registry) ToggleVisible(i int) error {
	if err := r.check(i); err != nil {
		return err
	}
	return r.SetVisible(i, !r.models[i].Object.Visible)
}

// Select makes the model at i the selection.
func (r *Registry) Select(i int) error {
	if err := r.check(i); err != nil {
		return err
	}
	r.selected = r.models[i]
	r.changed()
	return nil
}

// Deselect clears the selection.
func (r *Registry) Deselect() {
	if r.selected == nil {
		return
	}
	r.selected = nil
	r.changed()
}

// Selected returns the selected model or nil.
func (r *Registry) Selected() *Model { return r.selected }

// SelectedIndex returns the index of the selected model, or -1.
func (r *Registry) SelectedIndex() int {
	return r.Index(r.selected)
}

// Index returns the position of m, or -1.
func (r *Registry) Index(m *Model) int {
	if m == nil {
		return -1
	}
	for i, x := range r.models {
		if x == m {
			return i
		}
	}
	return -1
}

// Len returns the number of models.
func (r *Registry) Len() int { return len(r.models) }

// At returns the model at i.
func (r *Registry) At(i int) (*Model, error) {
	if err := r.check(i); err != nil {
		return nil, err
	}
	return r.models[i], nil
}

// Models returns a copy of the model list in load order.
func (r *Registry) Models() []*Model {
	out := make([]*Model, len(r.models))
	copy(out, r.models)
	return out
}

// Roots returns every model root in registry order; index i is model i.
func (r *Registry) Roots() []*scene.Node {
	out := make([]*scene.Node, len(r.models))
	for i, m := range r.models {
		out[i] = m.Object
	}
	return out
}

// Bounds returns the world box of the visible models, or of all models when none
// are visible.
func (r *Registry) Bounds() scene.Box3 {
	box := scene.EmptyBox()
	for _, m := range r.models {
		if m.Object.Visible {
			box = box.Union(scene.BoxFromNode(m.Object))
		}
	}
	if !box.IsEmpty() {
		return box
	}
	for _, m := range r.models {
		box = box.Union(scene.BoxFromNode(m.Object))
	}
	return box
}

// Clear detaches every model and drops the selection.
func (r *Registry) Clear() []*Model {
	removed := r.models
	for _, m := range removed {
		r.scene.Remove(m.Object)
	}
	r.models = nil
	r.selected = nil
	r.changed()
	return removed
}
