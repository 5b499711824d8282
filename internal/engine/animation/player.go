package animation

// Player owns the mixers of every animated model and the global play/pause state.
type Player struct {
	mixers  []*Mixer
	playing bool
}

// NewPlayer creates a player in the playing state.
func NewPlayer() *Player {
	return &Player{playing: true}
}

// Add registers a mixer. It inherits the current play/pause state.
func (p *Player) Add(m *Mixer) {
	if m == nil {
		return
	}
	m.TimeScale = p.timeScale()
	p.mixers = append(p.mixers, m)
}

// Remove unregisters a mixer. Returns false if it was not registered.
func (p *Player) Remove(m *Mixer) bool {
	for i, x := range p.mixers {
		if x == m {
			p.mixers = append(p.mixers[:i], p.mixers[i+1:]...)
			return true
		}
	}
	return false
}

// Clear unregisters every mixer.
func (p *Player) Clear() {
	p.mixers = nil
}

// Len returns the number of registered mixers.
func (p *Player) Len() int { return len(p.mixers) }

// Advance moves every mixer forward by dt seconds of wall time.
func (p *Player) Advance(dt float32) {
	for _, m := range p.mixers {
		m.Update(dt)
	}
}

// SetPlaying pauses (time scale 0) or resumes (time scale 1) every mixer.
// Elapsed clip time is kept while paused.
func (p *Player) SetPlaying(playing bool) {
	p.playing = playing
	for _, m := range p.mixers {
		m.TimeScale = p.timeScale()
	}
}

// Playing reports the current state.
func (p *Player) Playing() bool { return p.playing }

func (p *Player) timeScale() float32 {
	if p.playing {
		return 1
	}
	return 0
}
