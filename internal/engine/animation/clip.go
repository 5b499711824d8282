// Package animation provides keyframe clips, per-model mixers and the playback
// controller that advances every active mixer once per frame.
package animation

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidTrack is returned for tracks whose keyframe arrays disagree.
var ErrInvalidTrack = errors.New("invalid animation track")

// Path selects which transform component a track drives.
type Path int

const (
	PathTranslation Path = iota
	PathRotation
	PathScale
)

// String returns the glTF-style path name.
func (p Path) String() string {
	switch p {
	case PathTranslation:
		return "translation"
	case PathRotation:
		return "rotation"
	case PathScale:
		return "scale"
	default:
		return fmt.Sprintf("Path(%d)", int(p))
	}
}

// Stride returns the number of floats per keyframe value.
func (p Path) Stride() int {
	if p == PathRotation {
		return 4
	}
	return 3
}

// Interpolation selects how values between keyframes are computed.
type Interpolation int

const (
	InterpolationLinear Interpolation = iota
	InterpolationStep
)

// Track animates one transform component of one named node.
// Rotation values are quaternions stored X, Y, Z, W.
type Track struct {
	Node          string
	Path          Path
	Interpolation Interpolation
	Times         []float32 // Seconds, ascending
	Values        []float32
}

// Validate checks that times are ascending and values match the path stride.
func (t *Track) Validate() error {
	if len(t.Times) == 0 {
		return fmt.Errorf("%w: %s/%s has no keyframes", ErrInvalidTrack, t.Node, t.Path)
	}
	if len(t.Values) != len(t.Times)*t.Path.Stride() {
		return fmt.Errorf("%w: %s/%s has %d values for %d keyframes", ErrInvalidTrack, t.Node, t.Path, len(t.Values), len(t.Times))
	}
	if !sort.SliceIsSorted(t.Times, func(i, j int) bool { return t.Times[i] < t.Times[j] }) {
		return fmt.Errorf("%w: %s/%s times are not ascending", ErrInvalidTrack, t.Node, t.Path)
	}
	return nil
}

// End returns the time of the last keyframe.
func (t *Track) End() float32 {
	if len(t.Times) == 0 {
		return 0
	}
	return t.Times[len(t.Times)-1]
}

// keyframe returns the index of the last keyframe at or before time and the
// blend factor toward the next one.
func (t *Track) keyframe(time float32) (int, float32) {
	n := len(t.Times)
	if time <= t.Times[0] {
		return 0, 0
	}
	if time >= t.Times[n-1] {
		return n - 1, 0
	}
	i := sort.Search(n, func(i int) bool { return t.Times[i] > time }) - 1
	if t.Interpolation == InterpolationStep {
		return i, 0
	}
	span := t.Times[i+1] - t.Times[i]
	if span <= 0 {
		return i, 0
	}
	return i, (time - t.Times[i]) / span
}

// SampleVec3 samples a translation or scale track.
func (t *Track) SampleVec3(time float32) mgl32.Vec3 {
	i, f := t.keyframe(time)
	a := mgl32.Vec3{t.Values[i*3], t.Values[i*3+1], t.Values[i*3+2]}
	if f == 0 {
		return a
	}
	j := i + 1
	b := mgl32.Vec3{t.Values[j*3], t.Values[j*3+1], t.Values[j*3+2]}
	return a.Add(b.Sub(a).Mul(f))
}

// SampleQuat samples a rotation track with spherical interpolation.
func (t *Track) SampleQuat(time float32) mgl32.Quat {
	i, f := t.keyframe(time)
	a := quatAt(t.Values, i)
	if f == 0 {
		return a
	}
	b := quatAt(t.Values, i+1)
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	return mgl32.QuatSlerp(a, b, f).Normalize()
}

func quatAt(values []float32, i int) mgl32.Quat {
	v := values[i*4 : i*4+4]
	return mgl32.Quat{W: v[3], V: mgl32.Vec3{v[0], v[1], v[2]}}.Normalize()
}

// Clip is a named set of tracks played together.
type Clip struct {
	Name     string
	Duration float32 // Seconds
	Tracks   []Track
}

// NewClip builds a clip and validates its tracks. A non-positive duration is
// replaced by the end of the longest track.
func NewClip(name string, duration float32, tracks []Track) (*Clip, error) {
	for i := range tracks {
		if err := tracks[i].Validate(); err != nil {
			return nil, fmt.Errorf("clip %q: %w", name, err)
		}
	}
	if duration <= 0 {
		for i := range tracks {
			duration = max(duration, tracks[i].End())
		}
	}
	return &Clip{Name: name, Duration: duration, Tracks: tracks}, nil
}
