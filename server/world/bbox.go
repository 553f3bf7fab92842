package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BBox represents an axis aligned bounding box in a World. Entities use it to
// determine when they start touching each other.
type BBox struct {
	min, max mgl64.Vec3
}

// Box creates a new axis aligned bounding box with the minimum and maximum
// coordinates provided. The values are sorted so that the resulting box always
// has a valid minimum and maximum.
func Box(x0, y0, z0, x1, y1, z1 float64) BBox {
	return BBox{
		min: mgl64.Vec3{math.Min(x0, x1), math.Min(y0, y1), math.Min(z0, z1)},
		max: mgl64.Vec3{math.Max(x0, x1), math.Max(y0, y1), math.Max(z0, z1)},
	}
}

// CentredBox returns a box centred around the origin with the size passed.
func CentredBox(size mgl64.Vec3) BBox {
	h := size.Mul(0.5)
	return Box(-h[0], -h[1], -h[2], h[0], h[1], h[2])
}

// Min returns the minimum coordinate of the bounding box.
func (box BBox) Min() mgl64.Vec3 {
	return box.min
}

// Max returns the maximum coordinate of the bounding box.
func (box BBox) Max() mgl64.Vec3 {
	return box.max
}

// Width returns the width of the BBox on the X axis.
func (box BBox) Width() float64 {
	return box.max[0] - box.min[0]
}

// Height returns the height of the BBox on the Y axis.
func (box BBox) Height() float64 {
	return box.max[1] - box.min[1]
}

// Length returns the length of the BBox on the Z axis.
func (box BBox) Length() float64 {
	return box.max[2] - box.min[2]
}

// Grow grows the bounding box in all directions by x and returns the new
// bounding box.
func (box BBox) Grow(x float64) BBox {
	add := mgl64.Vec3{x, x, x}
	return BBox{min: box.min.Sub(add), max: box.max.Add(add)}
}

// Translate moves the entire BBox with the Vec3 given. The (updated) BBox is
// returned.
func (box BBox) Translate(vec mgl64.Vec3) BBox {
	return BBox{min: box.min.Add(vec), max: box.max.Add(vec)}
}

// Scale multiplies every axis of the BBox by the matching component of the
// Vec3 passed, keeping the origin fixed.
func (box BBox) Scale(s mgl64.Vec3) BBox {
	return Box(
		box.min[0]*s[0], box.min[1]*s[1], box.min[2]*s[2],
		box.max[0]*s[0], box.max[1]*s[1], box.max[2]*s[2],
	)
}

// IntersectsWith checks if the BBox intersects with another BBox, returning
// true if this is the case. Boxes that only touch faces do not intersect.
func (box BBox) IntersectsWith(other BBox) bool {
	return other.max[0] > box.min[0] && other.min[0] < box.max[0] &&
		other.max[1] > box.min[1] && other.min[1] < box.max[1] &&
		other.max[2] > box.min[2] && other.min[2] < box.max[2]
}

// Vec3Within checks if the BBox has a Vec3 within it, returning true if it
// does.
func (box BBox) Vec3Within(vec mgl64.Vec3) bool {
	return vec[0] >= box.min[0] && vec[0] <= box.max[0] &&
		vec[1] >= box.min[1] && vec[1] <= box.max[1] &&
		vec[2] >= box.min[2] && vec[2] <= box.max[2]
}
