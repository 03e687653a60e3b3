// SPDX-License-Identifier: EPL-2.0

// Package vec holds the small amount of 3D math the spatial audio code needs.
package vec

import (
	"github.com/chewxy/math32"
)

// Vec3 is a position, velocity or direction in listener space.
type Vec3 struct {
	X, Y, Z float32
}

// Add returns a + b
func Add(a, b Vec3) Vec3 {
	return Vec3{X: a.X + b.X, Y: a.Y + b.Y, Z: a.Z + b.Z}
}

// Sub returns a - b
func Sub(a, b Vec3) Vec3 {
	return Vec3{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z}
}

// Dot returns a dot b
func Dot(a, b Vec3) float32 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

// Cross returns a cross b
func Cross(a, b Vec3) Vec3 {
	return Vec3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

// Scale returns the vector multiplied by the scalar s
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Neg returns -v
func (v Vec3) Neg() Vec3 {
	return Vec3{X: -v.X, Y: -v.Y, Z: -v.Z}
}

// Length returns the euclidean length of the vector
func (v Vec3) Length() float32 {
	return math32.Sqrt(Dot(v, v))
}

// Normalize returns the unit vector, or the zero vector for zero input.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// Array returns the components as an array, the layout native APIs expect.
func (v Vec3) Array() [3]float32 {
	return [3]float32{v.X, v.Y, v.Z}
}

// FromArray builds a vector from the first three values of a.
func FromArray(a []float32) Vec3 {
	return Vec3{X: a[0], Y: a[1], Z: a[2]}
}

// Angle returns the angle between a and b in radians.
// Zero-length inputs yield 0.
func Angle(a, b Vec3) float32 {
	l := a.Length() * b.Length()
	if l == 0 {
		return 0
	}
	c := Dot(a, b) / l
	// rounding can push the cosine just outside [-1, 1]
	if c > 1 {
		c = 1
	} else if c < -1 {
		c = -1
	}
	return math32.Acos(c)
}

// Quat is an orientation quaternion. The zero value is not a valid rotation;
// use Identity.
type Quat struct {
	W, X, Y, Z float32
}

// Identity is the orientation looking down -Z with +Y up.
var Identity = Quat{W: 1}

// LookAt returns the forward axis of the orientation.
func (q Quat) LookAt() Vec3 {
	return Vec3{
		X: -2 * (q.W*q.Y + q.X*q.Z),
		Y: 2 * (q.X*q.W - q.Z*q.Y),
		Z: 2*(q.X*q.X+q.Y*q.Y) - 1,
	}
}

// Up returns the up axis of the orientation.
func (q Quat) Up() Vec3 {
	return Vec3{
		X: 2 * (q.X*q.Y - q.W*q.Z),
		Y: 1 - 2*(q.X*q.X+q.Z*q.Z),
		Z: 2 * (q.W*q.X + q.Y*q.Z),
	}
}

// Array returns the components in w, x, y, z order.
func (q Quat) Array() [4]float32 {
	return [4]float32{q.W, q.X, q.Y, q.Z}
}

// QuatFromArray builds a quaternion from w, x, y, z values.
func QuatFromArray(a []float32) Quat {
	return Quat{W: a[0], X: a[1], Y: a[2], Z: a[3]}
}

// AxisAngle returns the rotation by angle radians around the unit axis.
func AxisAngle(axis Vec3, angle float32) Quat {
	s := math32.Sin(angle / 2)
	a := axis.Normalize()
	return Quat{W: math32.Cos(angle / 2), X: a.X * s, Y: a.Y * s, Z: a.Z * s}
}
