package input

// Sample is the pointer state polled once per frame.
type Sample struct {
	X, Y  float32
	Left  bool
	Right bool
	Mid   bool
	Wheel float32
}

// Sampler turns successive polled samples into events by detecting press and
// release edges.
type Sampler struct {
	prev    Sample
	started bool
	events  []Event
}

// Events returns the events between the previous sample and s. The slice is
// reused by the next call.
func (s *Sampler) Events(cur Sample) []Event {
	s.events = s.events[:0]
	if !s.started {
		s.prev = Sample{X: cur.X, Y: cur.Y}
		s.started = true
	}

	if cur.X != s.prev.X || cur.Y != s.prev.Y {
		s.events = append(s.events, Event{Type: EventPointerMove, X: cur.X, Y: cur.Y})
	}
	s.edge(ButtonLeft, s.prev.Left, cur.Left, cur)
	s.edge(ButtonRight, s.prev.Right, cur.Right, cur)
	s.edge(ButtonMiddle, s.prev.Mid, cur.Mid, cur)
	if cur.Wheel != 0 {
		s.events = append(s.events, Event{Type: EventWheel, X: cur.X, Y: cur.Y, Wheel: cur.Wheel})
	}

	s.prev = cur
	return s.events
}

func (s *Sampler) edge(b Button, was, is bool, cur Sample) {
	switch {
	case is && !was:
		s.events = append(s.events, Event{Type: EventPointerDown, X: cur.X, Y: cur.Y, Button: b})
	case was && !is:
		s.events = append(s.events, Event{Type: EventPointerUp, X: cur.X, Y: cur.Y, Button: b})
	}
}
