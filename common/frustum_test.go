package common

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestAABBIntersectsSphere(t *testing.T) {
	box := AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}

	tests := []struct {
		name   string
		center mgl32.Vec3
		radius float32
		want   bool
	}{
		{"inside", mgl32.Vec3{0, 0, 0}, 0.1, true},
		{"straddling face", mgl32.Vec3{1.5, 0, 0}, 1, true},
		{"touching face", mgl32.Vec3{2, 0, 0}, 1, true},
		{"outside face", mgl32.Vec3{2.01, 0, 0}, 1, false},
		{"outside corner", mgl32.Vec3{1.8, 1.8, 1.8}, 1, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := box.IntersectsSphere(tc.center, tc.radius); got != tc.want {
				t.Fatalf("IntersectsSphere(%v, %v) = %v, want %v", tc.center, tc.radius, got, tc.want)
			}
		})
	}
}

func TestAABBExtend(t *testing.T) {
	b := EmptyAABB()
	b.Extend(mgl32.Vec3{1, -2, 3})
	b.Extend(mgl32.Vec3{-1, 2, 0})
	if b.Min != (mgl32.Vec3{-1, -2, 0}) || b.Max != (mgl32.Vec3{1, 2, 3}) {
		t.Fatalf("got %v..%v", b.Min, b.Max)
	}
	if !b.Contains(mgl32.Vec3{0, 0, 1}) || b.Contains(mgl32.Vec3{0, 0, 4}) {
		t.Fatal("Contains disagrees with bounds")
	}
}

func TestFrustumIntersectsSphere(t *testing.T) {
	view := mgl32.LookAtV(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0})
	f := FrustumFromViewProj(Perspective(math.Pi/2, 1, 0.1, 100).Mul4(view))

	if !f.IntersectsSphere(mgl32.Vec3{0, 0, -10}, 1) {
		t.Fatal("sphere in front of camera culled")
	}
	if f.IntersectsSphere(mgl32.Vec3{0, 0, 10}, 1) {
		t.Fatal("sphere behind camera kept")
	}
	if f.IntersectsSphere(mgl32.Vec3{0, 0, -200}, 1) {
		t.Fatal("sphere beyond far plane kept")
	}
}
