package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPointer(t *testing.T) {
	tests := []struct {
		name   string
		events []Event
		want   []Gesture
	}{
		{
			name: "click",
			events: []Event{
				{Type: EventPointerDown, X: 10, Y: 10, Button: ButtonLeft},
				{Type: EventPointerUp, X: 10, Y: 10, Button: ButtonLeft},
			},
			want: []Gesture{GestureNone, GestureClick},
		},
		{
			name: "jitter under slop is still a click",
			events: []Event{
				{Type: EventPointerDown, X: 10, Y: 10, Button: ButtonLeft},
				{Type: EventPointerMove, X: 12, Y: 11},
				{Type: EventPointerUp, X: 12, Y: 11, Button: ButtonLeft},
			},
			want: []Gesture{GestureNone, GestureNone, GestureClick},
		},
		{
			name: "left drag orbits and does not click",
			events: []Event{
				{Type: EventPointerDown, X: 10, Y: 10, Button: ButtonLeft},
				{Type: EventPointerMove, X: 30, Y: 10},
				{Type: EventPointerMove, X: 40, Y: 15},
				{Type: EventPointerUp, X: 40, Y: 15, Button: ButtonLeft},
			},
			want: []Gesture{GestureNone, GestureOrbit, GestureOrbit, GestureNone},
		},
		{
			name: "right drag pans",
			events: []Event{
				{Type: EventPointerDown, X: 0, Y: 0, Button: ButtonRight},
				{Type: EventPointerMove, X: 0, Y: 20},
				{Type: EventPointerUp, X: 0, Y: 20, Button: ButtonRight},
			},
			want: []Gesture{GestureNone, GesturePan, GestureNone},
		},
		{
			name: "right click is not a pick",
			events: []Event{
				{Type: EventPointerDown, X: 5, Y: 5, Button: ButtonRight},
				{Type: EventPointerUp, X: 5, Y: 5, Button: ButtonRight},
			},
			want: []Gesture{GestureNone, GestureNone},
		},
		{
			name: "hover does nothing",
			events: []Event{
				{Type: EventPointerMove, X: 50, Y: 50},
			},
			want: []Gesture{GestureNone},
		},
		{
			name: "wheel zooms",
			events: []Event{
				{Type: EventWheel, Wheel: 1},
				{Type: EventWheel, Wheel: 0},
			},
			want: []Gesture{GestureZoom, GestureNone},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPointer()
			var got []Gesture
			for _, e := range tt.events {
				got = append(got, p.Handle(e).Gesture)
			}
			assert.Equal(t, tt.want, got)
			assert.False(t, p.Pressed())
		})
	}
}

func TestPointer_DragDeltas(t *testing.T) {
	p := NewPointer()
	p.Handle(Event{Type: EventPointerDown, X: 10, Y: 10, Button: ButtonLeft})

	a := p.Handle(Event{Type: EventPointerMove, X: 20, Y: 13})
	assert.Equal(t, float32(10), a.DX)
	assert.Equal(t, float32(3), a.DY)

	a = p.Handle(Event{Type: EventPointerMove, X: 25, Y: 13})
	assert.Equal(t, float32(5), a.DX)
	assert.Equal(t, float32(0), a.DY)
}

func TestPointer_Cancel(t *testing.T) {
	p := NewPointer()
	p.Handle(Event{Type: EventPointerDown, X: 0, Y: 0, Button: ButtonLeft})
	assert.True(t, p.Pressed())
	p.Cancel()
	assert.False(t, p.Pressed())
	assert.Equal(t, GestureNone, p.Handle(Event{Type: EventPointerUp, Button: ButtonLeft}).Gesture)
}

func TestGesture_String(t *testing.T) {
	assert.Equal(t, "orbit", GestureOrbit.String())
	assert.Equal(t, "none", Gesture(42).String())
}

func TestSampler(t *testing.T) {
	var s Sampler
	types := func(events []Event) []EventType {
		var out []EventType
		for _, e := range events {
			out = append(out, e.Type)
		}
		return out
	}

	assert.Empty(t, s.Events(Sample{X: 5, Y: 5}))
	assert.Equal(t, []EventType{EventPointerDown}, types(s.Events(Sample{X: 5, Y: 5, Left: true})))
	assert.Empty(t, s.Events(Sample{X: 5, Y: 5, Left: true}), "held without moving")
	assert.Equal(t, []EventType{EventPointerMove, EventPointerUp},
		types(s.Events(Sample{X: 9, Y: 5})))

	events := s.Events(Sample{X: 9, Y: 5, Right: true, Wheel: -1})
	assert.Equal(t, []EventType{EventPointerDown, EventWheel}, types(events))
	assert.Equal(t, ButtonRight, events[0].Button)
	assert.Equal(t, float32(-1), events[1].Wheel)
}

func TestSampler_FeedsPointer(t *testing.T) {
	var s Sampler
	p := NewPointer()
	var got []Gesture
	for _, smp := range []Sample{
		{X: 10, Y: 10},
		{X: 10, Y: 10, Left: true},
		{X: 10, Y: 10},
	} {
		for _, e := range s.Events(smp) {
			if a := p.Handle(e); a.Gesture != GestureNone {
				got = append(got, a.Gesture)
			}
		}
	}
	assert.Equal(t, []Gesture{GestureClick}, got)
}
