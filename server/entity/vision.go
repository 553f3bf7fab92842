package entity

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Discovered checks if target lies within the vision cone of an observer at
// from looking along forward. The cone has a half angle of angle degrees. A
// target at the position of the observer is never discovered.
func Discovered(from, forward, target mgl64.Vec3, angle float64) bool {
	delta := target.Sub(from)
	if delta.Len() < 1e-9 || forward.Len() < 1e-9 {
		return false
	}
	cos := mgl64.Clamp(forward.Normalize().Dot(delta.Normalize()), -1, 1)
	return mgl64.RadToDeg(math.Acos(cos)) < angle
}
