package model

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshview/internal/engine/animation"
	"github.com/Faultbox/meshview/pkg/formats"
)

func rsmQuat(q [4]float32) mgl32.Quat {
	return mgl32.Quat{W: q[3], V: mgl32.Vec3{q[0], q[1], q[2]}}
}

// keySpan finds the keyframes surrounding timeMs and the blend factor between them.
func keySpan(n int, frame func(int) int32, timeMs float32) (prev, next int, t float32) {
	for i := 0; i < n; i++ {
		if float32(frame(i)) > timeMs {
			next = i
			break
		}
		prev = i
		next = i
	}
	if prev == next {
		return prev, next, 0
	}
	f0, f1 := frame(prev), frame(next)
	if f1 != f0 {
		t = (timeMs - float32(f0)) / float32(f1-f0)
	}
	return prev, next, t
}

// InterpolateRotKeys interpolates rotation keyframes at the given time.
func InterpolateRotKeys(keys []formats.RSMRotKeyframe, timeMs float32) mgl32.Quat {
	if len(keys) == 0 {
		return mgl32.QuatIdent()
	}
	if len(keys) == 1 {
		return rsmQuat(keys[0].Quaternion).Normalize()
	}

	prev, next, t := keySpan(len(keys), func(i int) int32 { return keys[i].Frame }, timeMs)
	q0 := rsmQuat(keys[prev].Quaternion).Normalize()
	if prev == next {
		return q0
	}
	q1 := rsmQuat(keys[next].Quaternion).Normalize()
	if q0.Dot(q1) < 0 {
		q1 = q1.Scale(-1)
	}
	return mgl32.QuatSlerp(q0, q1, t).Normalize()
}

// InterpolateScaleKeys interpolates scale keyframes at the given time.
func InterpolateScaleKeys(keys []formats.RSMScaleKeyframe, timeMs float32) mgl32.Vec3 {
	if len(keys) == 0 {
		return mgl32.Vec3{1, 1, 1}
	}
	if len(keys) == 1 {
		return mgl32.Vec3(keys[0].Scale)
	}

	prev, next, t := keySpan(len(keys), func(i int) int32 { return keys[i].Frame }, timeMs)
	s0 := mgl32.Vec3(keys[prev].Scale)
	if prev == next {
		return s0
	}
	s1 := mgl32.Vec3(keys[next].Scale)
	return s0.Add(s1.Sub(s0).Mul(t))
}

// HasAnimation checks if an RSM model has any animation keyframes.
// Models with only 1 keyframe are static poses, not animations.
func HasAnimation(rsm *formats.RSM) bool {
	if rsm.AnimLength <= 0 {
		return false
	}
	for i := range rsm.Nodes {
		node := &rsm.Nodes[i]
		if len(node.RotKeys) > 1 || len(node.ScaleKeys) > 1 {
			return true
		}
	}
	return false
}

// buildClip converts rotation and scale keyframes into a looping clip whose
// tracks target the nodes named by names. Returns nil when the model is not
// animated.
func buildClip(rsm *formats.RSM, names []nodeNames) (*animation.Clip, error) {
	if !HasAnimation(rsm) {
		return nil, nil
	}

	var tracks []animation.Track
	for i := range rsm.Nodes {
		node := &rsm.Nodes[i]

		if len(node.RotKeys) > 1 {
			keys := append([]formats.RSMRotKeyframe(nil), node.RotKeys...)
			sort.SliceStable(keys, func(a, b int) bool { return keys[a].Frame < keys[b].Frame })
			tr := animation.Track{Node: names[i].pivot, Path: animation.PathRotation}
			for _, k := range keys {
				q := rsmQuat(k.Quaternion).Normalize()
				tr.Times = append(tr.Times, float32(k.Frame)/1000)
				tr.Values = append(tr.Values, q.V[0], q.V[1], q.V[2], q.W)
			}
			tracks = append(tracks, tr)
		}

		if len(node.ScaleKeys) > 1 {
			keys := append([]formats.RSMScaleKeyframe(nil), node.ScaleKeys...)
			sort.SliceStable(keys, func(a, b int) bool { return keys[a].Frame < keys[b].Frame })
			tr := animation.Track{Node: names[i].scale, Path: animation.PathScale}
			for _, k := range keys {
				tr.Times = append(tr.Times, float32(k.Frame)/1000)
				tr.Values = append(tr.Values, k.Scale[0], k.Scale[1], k.Scale[2])
			}
			tracks = append(tracks, tr)
		}
	}

	return animation.NewClip(ClipName, float32(rsm.AnimLength)/1000, tracks)
}
