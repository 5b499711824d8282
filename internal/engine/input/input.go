// Package input turns raw pointer events into viewport gestures.
package input

import "math"

// EventType identifies a pointer event.
type EventType int

const (
	EventNone EventType = iota
	EventPointerDown
	EventPointerMove
	EventPointerUp
	EventWheel
)

// Button numbers follow SDL's.
type Button uint8

const (
	ButtonNone Button = iota
	ButtonLeft
	ButtonMiddle
	ButtonRight
)

// Event is a pointer event in viewport pixels.
type Event struct {
	Type   EventType
	X, Y   float32
	Button Button
	Wheel  float32 // Positive scrolls away from the user
}

// Gesture is what a sequence of events amounted to.
type Gesture int

const (
	GestureNone Gesture = iota
	GestureClick
	GestureOrbit
	GesturePan
	GestureZoom
)

func (g Gesture) String() string {
	switch g {
	case GestureClick:
		return "click"
	case GestureOrbit:
		return "orbit"
	case GesturePan:
		return "pan"
	case GestureZoom:
		return "zoom"
	}
	return "none"
}

// Action is a gesture ready to apply to the view.
type Action struct {
	Gesture Gesture
	X, Y    float32 // Pointer position
	DX, DY  float32 // Drag delta since the previous action
	Zoom    float32
}

// DefaultClickSlop is how far, in pixels, a press may travel and still be a click.
const DefaultClickSlop = 4

// Pointer tracks one pointer. Left drags orbit, other buttons pan, and a left
// press released within ClickSlop of where it started is a click.
type Pointer struct {
	ClickSlop float32

	down     Button
	startX   float32
	startY   float32
	lastX    float32
	lastY    float32
	dragging bool
}

// NewPointer creates a pointer tracker.
func NewPointer() *Pointer {
	return &Pointer{ClickSlop: DefaultClickSlop}
}

// Pressed reports whether a button is held.
func (p *Pointer) Pressed() bool { return p.down != ButtonNone }

// Handle feeds one event and returns the resulting action, if any.
func (p *Pointer) Handle(e Event) Action {
	switch e.Type {
	case EventPointerDown:
		if p.down != ButtonNone {
			return Action{}
		}
		p.down = e.Button
		p.startX, p.startY = e.X, e.Y
		p.lastX, p.lastY = e.X, e.Y
		p.dragging = false

	case EventPointerMove:
		if p.down == ButtonNone {
			return Action{}
		}
		if !p.dragging && p.travel(e.X, e.Y) > p.ClickSlop {
			p.dragging = true
		}
		if !p.dragging {
			return Action{}
		}
		a := Action{Gesture: GesturePan, X: e.X, Y: e.Y, DX: e.X - p.lastX, DY: e.Y - p.lastY}
		if p.down == ButtonLeft {
			a.Gesture = GestureOrbit
		}
		p.lastX, p.lastY = e.X, e.Y
		return a

	case EventPointerUp:
		if e.Button != p.down {
			return Action{}
		}
		click := p.down == ButtonLeft && !p.dragging && p.travel(e.X, e.Y) <= p.ClickSlop
		p.down = ButtonNone
		p.dragging = false
		if click {
			return Action{Gesture: GestureClick, X: e.X, Y: e.Y}
		}

	case EventWheel:
		if e.Wheel != 0 {
			return Action{Gesture: GestureZoom, X: e.X, Y: e.Y, Zoom: e.Wheel}
		}
	}
	return Action{}
}

// Cancel forgets any press in progress, e.g. when the pointer leaves the viewport.
func (p *Pointer) Cancel() {
	p.down = ButtonNone
	p.dragging = false
}

func (p *Pointer) travel(x, y float32) float32 {
	dx, dy := float64(x-p.startX), float64(y-p.startY)
	return float32(math.Hypot(dx, dy))
}
