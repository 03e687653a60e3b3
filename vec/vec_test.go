// SPDX-License-Identifier: EPL-2.0

package vec

import (
	"testing"

	"github.com/chewxy/math32"
)

func near(a, b float32) bool {
	return math32.Abs(a-b) < 1e-5
}

func nearVec(a, b Vec3) bool {
	return near(a.X, b.X) && near(a.Y, b.Y) && near(a.Z, b.Z)
}

func TestVec3_Arithmetic(t *testing.T) {
	t.Parallel()

	a := Vec3{1, 2, 3}
	b := Vec3{4, 5, 6}

	if got := Add(a, b); got != (Vec3{5, 7, 9}) {
		t.Errorf("Add() = %v", got)
	}
	if got := Sub(b, a); got != (Vec3{3, 3, 3}) {
		t.Errorf("Sub() = %v", got)
	}
	if got := Dot(a, b); got != 32 {
		t.Errorf("Dot() = %v, want 32", got)
	}
	if got := Cross(Vec3{1, 0, 0}, Vec3{0, 1, 0}); got != (Vec3{0, 0, 1}) {
		t.Errorf("Cross() = %v, want z axis", got)
	}
	if got := (Vec3{3, 4, 0}).Length(); got != 5 {
		t.Errorf("Length() = %v, want 5", got)
	}
	if got := (Vec3{}).Normalize(); got != (Vec3{}) {
		t.Errorf("Normalize(zero) = %v", got)
	}
}

func TestAngle(t *testing.T) {
	t.Parallel()

	if got := Angle(Vec3{1, 0, 0}, Vec3{0, 1, 0}); !near(got, math32.Pi/2) {
		t.Errorf("Angle(x, y) = %v, want pi/2", got)
	}
	if got := Angle(Vec3{1, 0, 0}, Vec3{-2, 0, 0}); !near(got, math32.Pi) {
		t.Errorf("Angle(x, -x) = %v, want pi", got)
	}
	if got := Angle(Vec3{}, Vec3{1, 0, 0}); got != 0 {
		t.Errorf("Angle(zero, x) = %v, want 0", got)
	}
}

func TestQuat_IdentityAxes(t *testing.T) {
	t.Parallel()

	if got := Identity.LookAt(); !nearVec(got, Vec3{0, 0, -1}) {
		t.Errorf("Identity.LookAt() = %v, want -Z", got)
	}
	if got := Identity.Up(); !nearVec(got, Vec3{0, 1, 0}) {
		t.Errorf("Identity.Up() = %v, want +Y", got)
	}
}

func TestQuat_AxisAngle(t *testing.T) {
	t.Parallel()

	// a quarter turn around +Y swings the forward axis from -Z to -X
	q := AxisAngle(Vec3{0, 1, 0}, math32.Pi/2)
	if got := q.LookAt(); !nearVec(got, Vec3{-1, 0, 0}) {
		t.Errorf("LookAt() = %v, want -X", got)
	}
	if got := q.Up(); !nearVec(got, Vec3{0, 1, 0}) {
		t.Errorf("Up() = %v, want +Y", got)
	}
}

func TestArrays(t *testing.T) {
	t.Parallel()

	v := FromArray([]float32{1, 2, 3})
	if v.Array() != [3]float32{1, 2, 3} {
		t.Errorf("Vec3 array round trip = %v", v.Array())
	}
	q := QuatFromArray([]float32{1, 0, 0, 0})
	if q != Identity {
		t.Errorf("QuatFromArray() = %v, want identity", q)
	}
}
