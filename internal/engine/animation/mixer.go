package animation

import (
	"math"

	"github.com/Faultbox/meshview/internal/engine/scene"
)

// Action is the playback state of one clip on one mixer.
type Action struct {
	Clip *Clip
	Time float32 // Seconds into the clip

	targets []*scene.Node // Per track; nil when the track's node is missing
}

// Bound returns how many tracks resolved to a node.
func (a *Action) Bound() int {
	n := 0
	for _, t := range a.targets {
		if t != nil {
			n++
		}
	}
	return n
}

// Mixer plays every clip of one model, looping, from the moment it is created.
type Mixer struct {
	root      *scene.Node
	actions   []*Action
	TimeScale float32
}

// NewMixer binds clips to the nodes under root. Tracks are resolved by node name;
// a track whose node does not exist is ignored.
func NewMixer(root *scene.Node, clips []*Clip) *Mixer {
	m := &Mixer{root: root, TimeScale: 1}
	for _, clip := range clips {
		if clip == nil {
			continue
		}
		a := &Action{Clip: clip, targets: make([]*scene.Node, len(clip.Tracks))}
		for i := range clip.Tracks {
			a.targets[i] = root.Find(clip.Tracks[i].Node)
		}
		m.actions = append(m.actions, a)
	}
	return m
}

// Root returns the object the mixer animates.
func (m *Mixer) Root() *scene.Node { return m.root }

// Actions returns the per-clip playback states.
func (m *Mixer) Actions() []*Action { return m.actions }

// Update advances every action by dt scaled by TimeScale, wraps it into the
// clip duration and writes the sampled pose onto the bound nodes.
func (m *Mixer) Update(dt float32) {
	step := dt * m.TimeScale
	for _, a := range m.actions {
		a.Time += step
		if d := a.Clip.Duration; d > 0 {
			a.Time = float32(math.Mod(float64(a.Time), float64(d)))
			if a.Time < 0 {
				a.Time += d
			}
		}
		a.apply()
	}
}

func (a *Action) apply() {
	for i := range a.Clip.Tracks {
		node := a.targets[i]
		if node == nil {
			continue
		}
		track := &a.Clip.Tracks[i]
		switch track.Path {
		case PathTranslation:
			node.Position = track.SampleVec3(a.Time)
		case PathRotation:
			node.SetQuaternion(track.SampleQuat(a.Time))
		case PathScale:
			node.Scale = track.SampleVec3(a.Time)
		}
	}
}
